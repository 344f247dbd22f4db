package domain

import "time"

type Review struct {
	ID              string    `json:"id"`
	AppID           string    `json:"app_id"`
	UserID          string    `json:"user_id"`
	Rating          int       `json:"rating"`
	Title           *string   `json:"title"`
	Content         string    `json:"content"`
	HelpfulCount    int       `json:"helpful_count"`
	CreatedAt       time.Time `json:"created_at"`
	UserDisplayName string    `json:"user_display_name,omitempty"`
}

type Reply struct {
	ID              string    `json:"id"`
	ReviewID        string    `json:"review_id"`
	UserID          string    `json:"user_id"`
	Content         string    `json:"content"`
	CreatedAt       time.Time `json:"created_at"`
	UserDisplayName string    `json:"user_display_name,omitempty"`
}

// ReviewThread is a review with its replies oldest first.
type ReviewThread struct {
	Review

	Replies []Reply `json:"replies"`
}
