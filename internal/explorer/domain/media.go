package domain

import "time"

type MediaType string

const (
	MediaIcon       MediaType = "icon"
	MediaScreenshot MediaType = "screenshot"
)

type Media struct {
	ID        string    `json:"id"`
	AppID     string    `json:"app_id"`
	Type      MediaType `json:"type"`
	ObjectKey string    `json:"-"`
	ImageURL  string    `json:"image_url"`
	Caption   *string   `json:"caption"`
	SortOrder int       `json:"sort_order"`
	CreatedAt time.Time `json:"created_at"`
}
