package domain

import "time"

// PackageType is how an app can be installed.
type PackageType string

const (
	PackageDeb      PackageType = "deb"
	PackageFlatpak  PackageType = "flatpak"
	PackageSnap     PackageType = "snap"
	PackageAppImage PackageType = "appimage"
	PackageSource   PackageType = "source"
)

// App is a catalogue entry as stored.
type App struct {
	ID             string    `json:"id"`
	Slug           string    `json:"slug"`
	Name           string    `json:"name"`
	ShortDesc      string    `json:"short_desc"`
	ShortDescEN    *string   `json:"short_desc_en"`
	Description    *string   `json:"description"`
	CategoryID     int64     `json:"category_id"`
	WebsiteURL     *string   `json:"website_url"`
	DownloadURL    *string   `json:"download_url"`
	SourceCodeURL  *string   `json:"source_code_url"`
	InstallCommand *string   `json:"install_command"`
	License        *string   `json:"license"`
	IsVerified     bool      `json:"is_verified"`
	IsFeatured     bool      `json:"is_featured"`
	AvgRating      float64   `json:"avg_rating"`
	ReviewCount    int       `json:"review_count"`
	UserID         string    `json:"user_id"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// AppView is an App joined with its category and owner, the shape both the
// listing and the detail page are built from.
type AppView struct {
	App

	CategorySlug    string `json:"category_slug"`
	CategoryNameVI  string `json:"category_name_vi"`
	CategoryNameEN  string `json:"category_name_en"`
	CategoryColor   string `json:"category_color"`
	UserDisplayName string `json:"user_display_name"`
}

// AppSummary is one row of GET /api/apps.
type AppSummary struct {
	AppView

	Tags         []string `json:"tags"`
	PackageTypes []string `json:"package_types"`
	IconURL      *string  `json:"icon_url"`
}

// AppDetail is the cached body of GET /api/apps/{slug}.
type AppDetail struct {
	AppView

	Tags         []string       `json:"tags"`
	PackageTypes []string       `json:"package_types"`
	Media        []Media        `json:"media"`
	Reviews      []ReviewThread `json:"reviews"`
}

// AppPatch holds the columns an update touches. Nil means unchanged; for the
// optional text columns a pointer to "" clears the value.
type AppPatch struct {
	Name           *string
	ShortDesc      *string
	ShortDescEN    *string
	Description    *string
	CategoryID     *int64
	WebsiteURL     *string
	DownloadURL    *string
	SourceCodeURL  *string
	InstallCommand *string
	License        *string
}

// Empty reports whether the patch changes no column.
func (p AppPatch) Empty() bool {
	return p == AppPatch{}
}

// Pagination accompanies every list response.
type Pagination struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

// AppPage is the body of GET /api/apps.
type AppPage struct {
	Apps       []AppSummary `json:"apps"`
	Pagination Pagination   `json:"pagination"`
}
