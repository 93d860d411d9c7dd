package dto

import "github.com/aarondl/null/v8"

type CreateEmployeeDTO struct {
	FullName    string  `json:"full_name" validate:"required,max=200"`
	Phone       string  `json:"phone" validate:"required,phone"`
	Position    *string `json:"position" validate:"omitempty,max=150"`
	ProjectID   uint64  `json:"project_id" validate:"required"`
	ShiftType   string  `json:"shift_type" validate:"required,oneof=DAY NIGHT"`
	WorkingDays []int32 `json:"working_days" validate:"required,min=1,max=7,unique,dive,min=1,max=7"`
	ServiceType string  `json:"service_type" validate:"required,oneof=LUNCH COMPENSATION"`
	Budget      int64   `json:"budget" validate:"min=0"`
}

type UpdateEmployeeDTO struct {
	FullName    null.String `json:"full_name" validate:"omitempty,max=200"`
	Phone       null.String `json:"phone" validate:"omitempty,phone"`
	Position    null.String `json:"position" validate:"omitempty,max=150"`
	ProjectID   null.Uint64 `json:"project_id" validate:"omitempty"`
	ShiftType   null.String `json:"shift_type" validate:"omitempty,oneof=DAY NIGHT"`
	WorkingDays []int32     `json:"working_days" validate:"omitempty,min=1,max=7,unique,dive,min=1,max=7"`
	Budget      null.Int64  `json:"budget" validate:"omitempty,min=0"`
}

type EmployeeDTO struct {
	ID          uint64          `json:"id"`
	CompanyID   uint64          `json:"company_id"`
	FullName    string          `json:"full_name"`
	Phone       string          `json:"phone"`
	Position    *string         `json:"position"`
	Project     ShortProjectDTO `json:"project"`
	ShiftType   string          `json:"shift_type"`
	WorkingDays []int32         `json:"working_days"`
	ServiceType string          `json:"service_type"`
	Budget      int64           `json:"budget"`
	IsActive    bool            `json:"is_active"`
	CreatedAt   string          `json:"created_at"`
	UpdatedAt   string          `json:"updated_at"`
}
