package source

import (
	"context"
	"time"
)

// Update is one devlog entry published by a project.
type Update struct {
	ID          int64     `json:"id" db:"id"`
	ProjectID   string    `json:"project_id" db:"project_id"`
	GUID        string    `json:"guid" db:"guid"`
	Title       string    `json:"title" db:"title"`
	URL         string    `json:"url" db:"url"`
	PublishedAt time.Time `json:"published_at" db:"published_at"`
	CollectedAt time.Time `json:"collected_at" db:"collected_at"`
}

// Feed is a project's devlog location.
type Feed struct {
	ProjectID string
	Name      string
	URL       string
}

// Source is the interface every update collector must implement.
type Source interface {
	Name() string
	Collect(ctx context.Context, feeds []Feed) ([]Update, error)
}
