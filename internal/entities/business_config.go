package entities

import "time"

// Ключи таблицы business_config.
const (
	ConfigCutoffTime           = "cutoff_time"
	ConfigMinSubscriptionDays  = "min_subscription_days"
	ConfigMaxFreezesPerWeek    = "max_freezes_per_week"
	ConfigAllowNegativeBalance = "allow_negative_balance"
	ConfigComboPrices          = "combo_prices"
	ConfigTimezone             = "timezone"
)

type ConfigEntry struct {
	Key         string    `json:"key"`
	Value       string    `json:"value"`
	Description *string   `json:"description,omitempty"`
	UpdatedBy   *uint64   `json:"updated_by,omitempty"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// BusinessSettings - типизированное представление business_config.
type BusinessSettings struct {
	CutoffTime           string           `json:"cutoff_time"`
	MinSubscriptionDays  int              `json:"min_subscription_days"`
	MaxFreezesPerWeek    int              `json:"max_freezes_per_week"`
	AllowNegativeBalance bool             `json:"allow_negative_balance"`
	ComboPrices          map[string]int64 `json:"combo_prices"`
	Timezone             string           `json:"timezone"`
}

func DefaultBusinessSettings() BusinessSettings {
	return BusinessSettings{
		CutoffTime:          "10:00",
		MinSubscriptionDays: 5,
		MaxFreezesPerWeek:   2,
		ComboPrices:         map[string]int64{"Комбо 25": 250, "Комбо 35": 350},
		Timezone:            "Asia/Bishkek",
	}
}

// Location возвращает часовой пояс бизнеса, при ошибке - UTC.
func (s BusinessSettings) Location() *time.Location {
	loc, err := time.LoadLocation(s.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// ComboPrice - цена комбо, false если такого комбо нет.
func (s BusinessSettings) ComboPrice(combo string) (int64, bool) {
	price, ok := s.ComboPrices[combo]
	return price, ok
}
