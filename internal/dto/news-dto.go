package dto

import "github.com/aarondl/null/v8"

type CreateNewsDTO struct {
	Title       string `json:"title" validate:"required,max=300"`
	Content     string `json:"content" validate:"required"`
	IsPublished bool   `json:"is_published"`
}

type UpdateNewsDTO struct {
	Title       null.String `json:"title" validate:"omitempty,max=300"`
	Content     null.String `json:"content" validate:"omitempty"`
	IsPublished null.Bool   `json:"is_published"`
}

type NewsDTO struct {
	ID          uint64  `json:"id"`
	Title       string  `json:"title"`
	Content     string  `json:"content"`
	ImageURL    *string `json:"image_url"`
	IsPublished bool    `json:"is_published"`
	PublishedAt *string `json:"published_at"`
	IsRead      bool    `json:"is_read"`
	CreatedAt   string  `json:"created_at"`
}

type UnreadCountDTO struct {
	Unread int `json:"unread"`
}
