package repositories

import (
	sq "github.com/Masterminds/squirrel"

	"yalla-business/pkg/types"
)

// Scope - ограничение выборки по арендатору. Нулевые поля означают "без ограничения"
// (супер-админ видит все компании, админ - все проекты своей компании).
type Scope struct {
	CompanyID uint64
	ProjectID uint64
}

func ScopeFromPrincipal(p types.Principal) Scope {
	if p.IsSuperAdmin() {
		return Scope{}
	}
	s := Scope{CompanyID: p.CompanyIDOrZero()}
	if p.IsManager() {
		s.ProjectID = p.ProjectIDOrZero()
	}
	return s
}

// Condition строит условие для колонок компании и проекта. projectCol может быть пустым,
// если у таблицы нет проекта.
func (s Scope) Condition(companyCol, projectCol string) sq.Sqlizer {
	and := sq.And{}
	if s.CompanyID != 0 {
		and = append(and, sq.Eq{companyCol: s.CompanyID})
	}
	if s.ProjectID != 0 && projectCol != "" {
		and = append(and, sq.Eq{projectCol: s.ProjectID})
	}
	if len(and) == 0 {
		return nil
	}
	return and
}

func applyScope(b sq.SelectBuilder, s Scope, companyCol, projectCol string) sq.SelectBuilder {
	if cond := s.Condition(companyCol, projectCol); cond != nil {
		return b.Where(cond)
	}
	return b
}

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)
