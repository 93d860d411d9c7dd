package dto

import "github.com/aarondl/null/v8"

type CreateProjectDTO struct {
	// CompanyID учитывается только для супер-админа, остальным берётся из токена.
	CompanyID         uint64  `json:"company_id" validate:"omitempty"`
	Name              string  `json:"name" validate:"required,max=200"`
	Address           string  `json:"address" validate:"required,max=300"`
	ServiceType       string  `json:"service_type" validate:"required,oneof=LUNCH COMPENSATION"`
	CutoffTime        *string `json:"cutoff_time" validate:"omitempty,hhmm"`
	CompensationLimit int64   `json:"compensation_limit" validate:"min=0"`
}

// UpdateProjectDTO - адрес принимается только чтобы вернуть понятную ошибку.
type UpdateProjectDTO struct {
	Name              null.String `json:"name" validate:"omitempty,max=200"`
	Address           null.String `json:"address"`
	ServiceType       null.String `json:"service_type" validate:"omitempty,oneof=LUNCH COMPENSATION"`
	CutoffTime        null.String `json:"cutoff_time" validate:"omitempty,hhmm"`
	CompensationLimit null.Int64  `json:"compensation_limit" validate:"omitempty,min=0"`
}

type ProjectDTO struct {
	ID                uint64  `json:"id"`
	CompanyID         uint64  `json:"company_id"`
	Name              string  `json:"name"`
	Address           string  `json:"address"`
	ServiceType       string  `json:"service_type"`
	CutoffTime        *string `json:"cutoff_time"`
	CompensationLimit int64   `json:"compensation_limit"`
	EmployeesCount    int     `json:"employees_count"`
	CreatedAt         string  `json:"created_at"`
	UpdatedAt         string  `json:"updated_at"`
}
