package entities

import "time"

type DailyAmount struct {
	Date   time.Time `json:"date"`
	Amount int64     `json:"amount"`
}

type EmployeeCounts struct {
	Total  int `json:"total"`
	Active int `json:"active"`
}
