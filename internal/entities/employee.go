package entities

import (
	"time"

	"yalla-business/pkg/constants"
	"yalla-business/pkg/types"
)

type Employee struct {
	ID          uint64                `json:"id"`
	CompanyID   uint64                `json:"company_id"`
	ProjectID   uint64                `json:"project_id"`
	FullName    string                `json:"full_name"`
	Phone       string                `json:"phone"`
	Position    *string               `json:"position,omitempty"`
	ShiftType   string                `json:"shift_type"`
	WorkingDays []int32               `json:"working_days"`
	ServiceType constants.ServiceType `json:"service_type"`
	Budget      int64                 `json:"budget"`
	IsActive    bool                  `json:"is_active"`

	ProjectName string `json:"project_name,omitempty"`

	types.BaseEntity
	types.SoftDelete
}

// WorksOn сообщает, рабочий ли для сотрудника этот день (ISO: пн=1 ... вс=7).
func (e *Employee) WorksOn(date time.Time) bool {
	wd := int32(date.Weekday())
	if wd == 0 {
		wd = 7
	}
	for _, d := range e.WorkingDays {
		if d == wd {
			return true
		}
	}
	return false
}
