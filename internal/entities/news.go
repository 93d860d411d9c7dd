package entities

import (
	"time"

	"yalla-business/pkg/types"
)

type News struct {
	ID          uint64     `json:"id"`
	Title       string     `json:"title"`
	Content     string     `json:"content"`
	ImagePath   *string    `json:"image_path,omitempty"`
	IsPublished bool       `json:"is_published"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
	AuthorID    *uint64    `json:"author_id,omitempty"`
	IsRead      bool       `json:"is_read"`

	types.BaseEntity
}
