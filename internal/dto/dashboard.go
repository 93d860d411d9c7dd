package dto

type DailySpendDTO struct {
	Date   string `json:"date"`
	Amount int64  `json:"amount"`
}

type DashboardStatsDTO struct {
	EmployeesTotal      int             `json:"employees_total"`
	EmployeesActive     int             `json:"employees_active"`
	ActiveSubscriptions int             `json:"active_subscriptions"`
	TodayOrders         map[string]int  `json:"today_orders"`
	TodayGuestPortions  int             `json:"today_guest_portions"`
	Balance             *int64          `json:"balance,omitempty"`
	MonthSpend          int64           `json:"month_spend"`
	FreezesThisWeek     int             `json:"freezes_this_week"`
	WeeklySpend         []DailySpendDTO `json:"weekly_spend"`
	GeneratedAt         string          `json:"generated_at"`
}
