package layout

import (
	"time"

	"github.com/cpuguy83/calgrid/internal/timeutil"
)

// DaysInWeek is the width of the month grid.
const DaysInWeek = 7

// CalendarCell is one day of the month grid.
type CalendarCell struct {
	Date         time.Time `json:"date"`
	Day          int       `json:"day"`
	CurrentMonth bool      `json:"currentMonth"`
}

// CalendarCells returns the days of the month grid for date's month: whole
// weeks starting on ws, padded with days of the adjacent months. The result
// length is always a multiple of 7.
func CalendarCells(date time.Time, ws timeutil.WeekStart) []CalendarCell {
	start := timeutil.StartOfWeek(timeutil.StartOfMonth(date), ws)
	end := timeutil.EndOfWeek(timeutil.EndOfMonth(date), ws)

	days := timeutil.EachDay(start, end)
	cells := make([]CalendarCell, 0, len(days))
	for _, day := range days {
		cells = append(cells, CalendarCell{
			Date:         day,
			Day:          day.Day(),
			CurrentMonth: timeutil.SameMonth(day, date),
		})
	}
	return cells
}

// WeekDays returns midnight of each day in date's week.
func WeekDays(date time.Time, ws timeutil.WeekStart) []time.Time {
	start := timeutil.StartOfWeek(date, ws)
	days := make([]time.Time, DaysInWeek)
	for i := range days {
		days[i] = timeutil.AddDays(start, i)
	}
	return days
}

// WeekdayHeaders returns the short weekday names in column order.
func WeekdayHeaders(ws timeutil.WeekStart) []string {
	headers := make([]string, DaysInWeek)
	for i := range headers {
		headers[i] = time.Weekday((int(ws) + i) % DaysInWeek).String()[:3]
	}
	return headers
}
