package dto

import "github.com/aarondl/null/v8"

type CreateCompanyDTO struct {
	Name           string  `json:"name" validate:"required,max=200"`
	BIN            *string `json:"bin" validate:"omitempty,max=20"`
	Phone          *string `json:"phone" validate:"omitempty,phone"`
	Email          *string `json:"email" validate:"omitempty,custom_email"`
	Address        *string `json:"address" validate:"omitempty,max=300"`
	Budget         int64   `json:"budget" validate:"min=0"`
	AllowOverdraft bool    `json:"allow_overdraft"`
	OverdraftLimit int64   `json:"overdraft_limit" validate:"min=0"`
}

type UpdateCompanyDTO struct {
	Name           null.String `json:"name" validate:"omitempty,max=200"`
	BIN            null.String `json:"bin" validate:"omitempty,max=20"`
	Phone          null.String `json:"phone" validate:"omitempty,phone"`
	Email          null.String `json:"email" validate:"omitempty,custom_email"`
	Address        null.String `json:"address" validate:"omitempty,max=300"`
	AllowOverdraft null.Bool   `json:"allow_overdraft"`
	OverdraftLimit null.Int64  `json:"overdraft_limit" validate:"omitempty,min=0"`
}

type UpdateCompanyStatusDTO struct {
	Status string `json:"status" validate:"required,oneof=ACTIVE BLOCKED"`
}

type CompanyDTO struct {
	ID             uint64  `json:"id"`
	Name           string  `json:"name"`
	BIN            *string `json:"bin"`
	Phone          *string `json:"phone"`
	Email          *string `json:"email"`
	Address        *string `json:"address"`
	Balance        int64   `json:"balance"`
	AllowOverdraft bool    `json:"allow_overdraft"`
	OverdraftLimit int64   `json:"overdraft_limit"`
	Status         string  `json:"status"`
	CreatedAt      string  `json:"created_at"`
	UpdatedAt      string  `json:"updated_at"`
}
