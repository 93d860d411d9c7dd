package entities

import "yalla-business/pkg/types"

const (
	CompanyStatusActive  = "ACTIVE"
	CompanyStatusBlocked = "BLOCKED"
)

type Company struct {
	ID             uint64  `json:"id"`
	Name           string  `json:"name"`
	BIN            *string `json:"bin,omitempty"`
	Phone          *string `json:"phone,omitempty"`
	Email          *string `json:"email,omitempty"`
	Address        *string `json:"address,omitempty"`
	Balance        int64   `json:"balance"`
	AllowOverdraft bool    `json:"allow_overdraft"`
	OverdraftLimit int64   `json:"overdraft_limit"`
	Status         string  `json:"status"`

	types.BaseEntity
	types.SoftDelete
}

// BalanceFloor - минимально допустимый баланс после списания.
// nil означает, что ограничения нет (овердрафт без лимита).
func (c *Company) BalanceFloor(allowNegative bool) *int64 {
	if !c.AllowOverdraft && !allowNegative {
		zero := int64(0)
		return &zero
	}
	if c.OverdraftLimit > 0 {
		floor := -c.OverdraftLimit
		return &floor
	}
	return nil
}
