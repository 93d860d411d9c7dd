package services

import (
	"fmt"
	"time"

	"yalla-business/internal/entities"
)

const day = 24 * time.Hour

// DateOf - календарная дата момента t в поясе loc. Даты заказов и подписок
// храним как полночь UTC, поэтому результат тоже в UTC.
func DateOf(t time.Time, loc *time.Location) time.Time {
	lt := t.In(loc)
	return time.Date(lt.Year(), lt.Month(), lt.Day(), 0, 0, 0, 0, time.UTC)
}

// ParseCutoff разбирает "ЧЧ:ММ".
func ParseCutoff(s string) (hour, minute int, err error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, 0, fmt.Errorf("неверное время отсечки %q: %w", s, err)
	}
	return t.Hour(), t.Minute(), nil
}

// EditWindow отвечает на вопрос "можно ли ещё менять заказ на эту дату".
// Прошедшие дни закрыты всегда, сегодняшний - после времени отсечки.
type EditWindow struct {
	Today        time.Time
	Cutoff       string
	CutoffPassed bool
}

// NewEditWindow считает окно на момент now. Отсечка берётся из проекта, если задана, иначе из настроек.
func NewEditWindow(now time.Time, settings entities.BusinessSettings, projectCutoff *string) EditWindow {
	loc := settings.Location()
	cutoff := settings.CutoffTime
	if projectCutoff != nil && *projectCutoff != "" {
		cutoff = *projectCutoff
	}

	w := EditWindow{Today: DateOf(now, loc), Cutoff: cutoff}
	h, m, err := ParseCutoff(cutoff)
	if err != nil {
		// без корректной отсечки сегодняшний день не трогаем
		w.CutoffPassed = true
		return w
	}
	local := now.In(loc)
	cutoffAt := time.Date(local.Year(), local.Month(), local.Day(), h, m, 0, 0, loc)
	w.CutoffPassed = !local.Before(cutoffAt)
	return w
}

// Check возвращает DATE_IN_PAST или CUTOFF_PASSED, если дату менять уже нельзя.
func (w EditWindow) Check(date time.Time) error {
	switch {
	case date.Before(w.Today):
		return errDateInPast(date)
	case date.Equal(w.Today) && w.CutoffPassed:
		return errCutoffPassed(w.Cutoff)
	}
	return nil
}

// FirstEditable - ближайшая дата, которую ещё можно менять.
func (w EditWindow) FirstEditable() time.Time {
	if w.CutoffPassed {
		return w.Today.Add(day)
	}
	return w.Today
}

// NextWorkingDay - первый рабочий день сотрудника строго после after.
// Если рабочие дни не заданы, берётся следующий календарный день.
func NextWorkingDay(after time.Time, emp *entities.Employee) time.Time {
	d := after.Add(day)
	if len(emp.WorkingDays) == 0 {
		return d
	}
	for i := 0; i < 7; i++ {
		if emp.WorksOn(d) {
			return d
		}
		d = d.Add(day)
	}
	return d
}

// WorkingDates - рабочие дни сотрудника в периоде [start, end] включительно.
func WorkingDates(emp *entities.Employee, start, end time.Time) []time.Time {
	dates := make([]time.Time, 0)
	for d := start; !d.After(end); d = d.Add(day) {
		if emp.WorksOn(d) {
			dates = append(dates, d)
		}
	}
	return dates
}

// ISOWeekBounds - понедельник недели даты и понедельник следующей недели.
func ISOWeekBounds(date time.Time) (time.Time, time.Time) {
	wd := int(date.Weekday())
	if wd == 0 {
		wd = 7
	}
	monday := date.AddDate(0, 0, -(wd - 1))
	return monday, monday.AddDate(0, 0, 7)
}

// DaysInclusive - количество календарных дней в периоде вместе с границами.
func DaysInclusive(start, end time.Time) int {
	if end.Before(start) {
		return 0
	}
	return int(end.Sub(start)/day) + 1
}

// MonthBounds - первое число месяца и первое число следующего.
func MonthBounds(date time.Time) (time.Time, time.Time) {
	first := time.Date(date.Year(), date.Month(), 1, 0, 0, 0, 0, time.UTC)
	return first, first.AddDate(0, 1, 0)
}
