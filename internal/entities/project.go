package entities

import (
	"yalla-business/pkg/constants"
	"yalla-business/pkg/types"
)

type Project struct {
	ID                uint64                `json:"id"`
	CompanyID         uint64                `json:"company_id"`
	Name              string                `json:"name"`
	Address           string                `json:"address"`
	ServiceType       constants.ServiceType `json:"service_type"`
	CutoffTime        *string               `json:"cutoff_time,omitempty"`
	CompensationLimit int64                 `json:"compensation_limit"`
	EmployeesCount    int                   `json:"employees_count"`

	types.BaseEntity
	types.SoftDelete
}
