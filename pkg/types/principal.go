package types

import "yalla-business/pkg/constants"

// Principal - данные о пользователе из JWT, которые кладутся в контекст запроса.
type Principal struct {
	UserID    uint64
	CompanyID *uint64
	ProjectID *uint64
	Role      constants.Role
}

func (p Principal) IsSuperAdmin() bool { return p.Role == constants.RoleSuperAdmin }

func (p Principal) IsManager() bool { return p.Role == constants.RoleManager }

// CompanyIDOrZero удобен для логов и ключей кеша.
func (p Principal) CompanyIDOrZero() uint64 {
	if p.CompanyID == nil {
		return 0
	}
	return *p.CompanyID
}

func (p Principal) ProjectIDOrZero() uint64 {
	if p.ProjectID == nil {
		return 0
	}
	return *p.ProjectID
}
