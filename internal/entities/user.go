package entities

import (
	"time"

	"yalla-business/pkg/constants"
	"yalla-business/pkg/types"
)

type User struct {
	ID           uint64         `json:"id"`
	CompanyID    *uint64        `json:"company_id,omitempty"`
	ProjectID    *uint64        `json:"project_id,omitempty"`
	FullName     string         `json:"full_name"`
	Phone        string         `json:"phone"`
	Email        *string        `json:"email,omitempty"`
	PasswordHash string         `json:"-"`
	Role         constants.Role `json:"role"`
	IsActive     bool           `json:"is_active"`
	LastLoginAt  *time.Time     `json:"last_login_at,omitempty"`

	CompanyName *string `json:"company_name,omitempty"`

	types.BaseEntity
	types.SoftDelete
}

func (u *User) Principal() types.Principal {
	return types.Principal{
		UserID:    u.ID,
		CompanyID: u.CompanyID,
		ProjectID: u.ProjectID,
		Role:      u.Role,
	}
}
