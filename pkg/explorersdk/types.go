package explorersdk

import "time"

type HealthResponse struct {
	Status  string            `json:"status"`
	Uptime  string            `json:"uptime"`
	Version string            `json:"version"`
	Checks  map[string]string `json:"checks,omitempty"`
}

type RegisterRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"display_name"`
	Locale      string `json:"locale,omitempty"`
}

type User struct {
	ID            string    `json:"id"`
	Email         string    `json:"email"`
	DisplayName   string    `json:"display_name"`
	Role          string    `json:"role"`
	EmailVerified bool      `json:"email_verified"`
	CreatedAt     time.Time `json:"created_at"`
}

type LoginResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

type userEnvelope struct {
	User User `json:"user"`
}

type IDResponse struct {
	ID      string `json:"id"`
	Message string `json:"message"`
}

type Category struct {
	ID     int64   `json:"id"`
	Slug   string  `json:"slug"`
	NameVI string  `json:"name_vi"`
	NameEN string  `json:"name_en"`
	Icon   *string `json:"icon"`
	Color  string  `json:"color"`
}

// AppInput is the body of an app submission. Optional fields are pointers.
type AppInput struct {
	Name           string   `json:"name"`
	ShortDesc      string   `json:"short_desc"`
	ShortDescEN    *string  `json:"short_desc_en,omitempty"`
	Description    *string  `json:"description,omitempty"`
	CategoryID     int64    `json:"category_id"`
	WebsiteURL     *string  `json:"website_url,omitempty"`
	DownloadURL    *string  `json:"download_url,omitempty"`
	SourceCodeURL  *string  `json:"source_code_url,omitempty"`
	InstallCommand *string  `json:"install_command,omitempty"`
	License        *string  `json:"license,omitempty"`
	PackageTypes   []string `json:"package_types,omitempty"`
	Tags           []string `json:"tags,omitempty"`
}

type CreatedApp struct {
	ID   string `json:"id"`
	Slug string `json:"slug"`
}

type App struct {
	ID              string    `json:"id"`
	Slug            string    `json:"slug"`
	Name            string    `json:"name"`
	ShortDesc       string    `json:"short_desc"`
	ShortDescEN     *string   `json:"short_desc_en"`
	Description     *string   `json:"description"`
	CategoryID      int64     `json:"category_id"`
	CategorySlug    string    `json:"category_slug"`
	WebsiteURL      *string   `json:"website_url"`
	DownloadURL     *string   `json:"download_url"`
	SourceCodeURL   *string   `json:"source_code_url"`
	InstallCommand  *string   `json:"install_command"`
	License         *string   `json:"license"`
	IsVerified      bool      `json:"is_verified"`
	IsFeatured      bool      `json:"is_featured"`
	AvgRating       float64   `json:"avg_rating"`
	ReviewCount     int       `json:"review_count"`
	UserID          string    `json:"user_id"`
	UserDisplayName string    `json:"user_display_name"`
	Tags            []string  `json:"tags"`
	PackageTypes    []string  `json:"package_types"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

type AppSummary struct {
	App
	IconURL *string `json:"icon_url"`
}

type Pagination struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

type AppPage struct {
	Apps       []AppSummary `json:"apps"`
	Pagination Pagination   `json:"pagination"`
}

type Media struct {
	ID        string  `json:"id"`
	Type      string  `json:"type"`
	ImageURL  string  `json:"image_url"`
	Caption   *string `json:"caption"`
	SortOrder int     `json:"sort_order"`
}

type Reply struct {
	ID              string    `json:"id"`
	UserID          string    `json:"user_id"`
	Content         string    `json:"content"`
	UserDisplayName string    `json:"user_display_name"`
	CreatedAt       time.Time `json:"created_at"`
}

type Review struct {
	ID              string    `json:"id"`
	UserID          string    `json:"user_id"`
	Rating          int       `json:"rating"`
	Title           *string   `json:"title"`
	Content         string    `json:"content"`
	HelpfulCount    int       `json:"helpful_count"`
	UserDisplayName string    `json:"user_display_name"`
	CreatedAt       time.Time `json:"created_at"`
	Replies         []Reply   `json:"replies"`
}

type AppDetail struct {
	App
	Media   []Media  `json:"media"`
	Reviews []Review `json:"reviews"`
}

type ReviewInput struct {
	Rating  int     `json:"rating"`
	Title   *string `json:"title,omitempty"`
	Content string  `json:"content"`
}

type UploadResult struct {
	ID      string `json:"id,omitempty"`
	URL     string `json:"url"`
	Message string `json:"message"`
}
