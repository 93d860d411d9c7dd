package dto

import "github.com/aarondl/null/v8"

type CreateUserDTO struct {
	CompanyID *uint64 `json:"company_id" validate:"omitempty"`
	ProjectID *uint64 `json:"project_id" validate:"required_if=Role MANAGER"`
	FullName  string  `json:"full_name" validate:"required,max=200"`
	Phone     string  `json:"phone" validate:"required,phone"`
	Email     *string `json:"email" validate:"omitempty,custom_email"`
	Password  string  `json:"password" validate:"required,min=8,max=72"`
	Role      string  `json:"role" validate:"required,oneof=ADMIN MANAGER"`
}

type UpdateUserDTO struct {
	FullName  null.String `json:"full_name" validate:"omitempty,max=200"`
	Phone     null.String `json:"phone" validate:"omitempty,phone"`
	Email     null.String `json:"email" validate:"omitempty,custom_email"`
	Role      null.String `json:"role" validate:"omitempty,oneof=ADMIN MANAGER"`
	ProjectID null.Uint64 `json:"project_id" validate:"omitempty"`
	IsActive  null.Bool   `json:"is_active"`
}

type ResetPasswordDTO struct {
	NewPassword string `json:"new_password" validate:"required,min=8,max=72"`
}

type UserDTO struct {
	ID          uint64  `json:"id"`
	CompanyID   *uint64 `json:"company_id"`
	CompanyName *string `json:"company_name"`
	ProjectID   *uint64 `json:"project_id"`
	FullName    string  `json:"full_name"`
	Phone       string  `json:"phone"`
	Email       *string `json:"email"`
	Role        string  `json:"role"`
	IsActive    bool    `json:"is_active"`
	LastLoginAt *string `json:"last_login_at"`
	CreatedAt   string  `json:"created_at"`
}
