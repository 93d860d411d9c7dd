package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"yalla-business/internal/entities"
	apperrors "yalla-business/pkg/errors"
	"yalla-business/pkg/utils"
)

func TestEditWindow(t *testing.T) {
	settings := testSettings().settings

	tests := []struct {
		name          string
		now           string
		projectCutoff *string
		date          string
		wantCode      string
	}{
		{name: "сегодня до отсечки", now: "2026-03-10 09:59", date: "2026-03-10"},
		{name: "сегодня ровно в отсечку", now: "2026-03-10 10:00", date: "2026-03-10", wantCode: CodeCutoffPassed},
		{name: "сегодня после отсечки", now: "2026-03-10 11:30", date: "2026-03-10", wantCode: CodeCutoffPassed},
		{name: "завтра после отсечки", now: "2026-03-10 11:30", date: "2026-03-11"},
		{name: "вчера", now: "2026-03-10 08:00", date: "2026-03-09", wantCode: CodeDateInPast},
		{name: "отсечка проекта позже общей", now: "2026-03-10 11:30", projectCutoff: utils.ToPtr("12:00"), date: "2026-03-10"},
		{name: "пустая отсечка проекта не считается", now: "2026-03-10 11:30", projectCutoff: utils.ToPtr(""), date: "2026-03-10", wantCode: CodeCutoffPassed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := NewEditWindow(fixedNow(tt.now)(), settings, tt.projectCutoff)
			err := w.Check(date(tt.date))
			if tt.wantCode == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Equal(t, tt.wantCode, apperrors.Code(err))
		})
	}
}

func TestEditWindow_FirstEditable(t *testing.T) {
	settings := testSettings().settings

	before := NewEditWindow(fixedNow("2026-03-10 09:00")(), settings, nil)
	assert.Equal(t, date("2026-03-10"), before.FirstEditable())

	after := NewEditWindow(fixedNow("2026-03-10 10:15")(), settings, nil)
	assert.Equal(t, date("2026-03-11"), after.FirstEditable())
}

func TestEditWindow_UsesBusinessTimezone(t *testing.T) {
	loc, err := time.LoadLocation("Asia/Bishkek")
	if err != nil {
		t.Skip("нет базы часовых поясов")
	}
	settings := entities.DefaultBusinessSettings()

	// 03:30 UTC - это 09:30 в Бишкеке, отсечка 10:00 ещё не прошла
	now := time.Date(2026, 3, 10, 3, 30, 0, 0, time.UTC)
	w := NewEditWindow(now, settings, nil)
	assert.False(t, w.CutoffPassed)
	assert.Equal(t, date("2026-03-10"), w.Today)

	// 20:00 UTC - уже следующий день по Бишкеку
	late := time.Date(2026, 3, 10, 20, 0, 0, 0, time.UTC)
	assert.Equal(t, date("2026-03-11"), DateOf(late, loc))
}

func TestNextWorkingDay(t *testing.T) {
	weekdays := &entities.Employee{WorkingDays: []int32{1, 2, 3, 4, 5}}
	everyday := &entities.Employee{}

	// пятница 13.03.2026 -> понедельник
	assert.Equal(t, date("2026-03-16"), NextWorkingDay(date("2026-03-13"), weekdays))
	assert.Equal(t, date("2026-03-11"), NextWorkingDay(date("2026-03-10"), weekdays))
	assert.Equal(t, date("2026-03-14"), NextWorkingDay(date("2026-03-13"), everyday))
}

func TestWorkingDates(t *testing.T) {
	emp := &entities.Employee{WorkingDays: []int32{1, 3, 5}}
	dates := WorkingDates(emp, date("2026-03-09"), date("2026-03-15"))
	assert.Equal(t, []time.Time{date("2026-03-09"), date("2026-03-11"), date("2026-03-13")}, dates)

	none := WorkingDates(&entities.Employee{WorkingDays: []int32{6, 7}}, date("2026-03-09"), date("2026-03-13"))
	assert.Empty(t, none)
}

func TestISOWeekBounds(t *testing.T) {
	start, end := ISOWeekBounds(date("2026-03-15")) // воскресенье
	assert.Equal(t, date("2026-03-09"), start)
	assert.Equal(t, date("2026-03-16"), end)

	start, _ = ISOWeekBounds(date("2026-03-09")) // понедельник
	assert.Equal(t, date("2026-03-09"), start)
}

func TestDaysInclusiveAndMonthBounds(t *testing.T) {
	assert.Equal(t, 5, DaysInclusive(date("2026-03-09"), date("2026-03-13")))
	assert.Equal(t, 1, DaysInclusive(date("2026-03-09"), date("2026-03-09")))
	assert.Equal(t, 0, DaysInclusive(date("2026-03-10"), date("2026-03-09")))

	from, to := MonthBounds(date("2026-12-17"))
	assert.Equal(t, date("2026-12-01"), from)
	assert.Equal(t, date("2027-01-01"), to)
}

func TestParseCutoff(t *testing.T) {
	h, m, err := ParseCutoff("09:45")
	require.NoError(t, err)
	assert.Equal(t, 9, h)
	assert.Equal(t, 45, m)

	_, _, err = ParseCutoff("25:00")
	assert.Error(t, err)
}
