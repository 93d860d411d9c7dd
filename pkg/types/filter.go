package types

import "time"

// Filter represents query parameters for filtering and pagination.
type Filter struct {
	Search         string                 `json:"search,omitempty"`
	Sort           map[string]string      `json:"sort,omitempty"`
	Filter         map[string]interface{} `json:"filter,omitempty"`
	DateFrom       *time.Time             `json:"date_from,omitempty"`
	DateTo         *time.Time             `json:"date_to,omitempty"`
	Limit          int                    `json:"limit"`
	Offset         int                    `json:"offset"`
	Page           int                    `json:"page"`
	WithPagination bool                   `json:"with_pagination"`
}

// WithoutPagination возвращает копию фильтра для COUNT-запросов и выгрузок.
func (f Filter) WithoutPagination() Filter {
	f.WithPagination = false
	f.Sort = nil
	return f
}

// http://localhost:8080/api/v1/employees?search=Асель&sort[created_at]=desc&filter[project_id]=1,2&page=1&limit=20
