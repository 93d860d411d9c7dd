package entities

import "time"

type Document struct {
	ID         uint64    `json:"id"`
	CompanyID  uint64    `json:"company_id"`
	Name       string    `json:"name"`
	FilePath   string    `json:"-"`
	MimeType   string    `json:"mime_type"`
	SizeBytes  int64     `json:"size_bytes"`
	UploadedBy *uint64   `json:"uploaded_by,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}
