package reports

import (
	"sort"
	"time"

	"github.com/Simplici0/buffet/internal/domain"
)

// WeekdayLabels are the calendar column headers, Sunday first.
var WeekdayLabels = [7]string{"Dom", "Seg", "Ter", "Qua", "Qui", "Sex", "Sáb"}

// CalendarDay is one cell of the month grid. Blank cells pad the first week.
type CalendarDay struct {
	Day     int
	Date    time.Time
	Blank   bool
	Today   bool
	Budgets []domain.Budget
}

// CalendarMonth is a month grid, weeks starting on Sunday.
type CalendarMonth struct {
	Month domain.Month
	Weeks [][]CalendarDay
}

// Calendar lays out month m and places each budget on its event date.
func Calendar(budgets []domain.Budget, m domain.Month, today time.Time) CalendarMonth {
	byDay := make(map[int][]domain.Budget)
	for _, b := range budgets {
		if m.Contains(b.EventDate) {
			byDay[b.EventDate.Day()] = append(byDay[b.EventDate.Day()], b)
		}
	}
	for _, list := range byDay {
		sort.SliceStable(list, func(i, j int) bool { return list[i].EventName < list[j].EventName })
	}

	first := m.First()
	cells := make([]CalendarDay, 0, 42)
	for i := 0; i < int(first.Weekday()); i++ {
		cells = append(cells, CalendarDay{Blank: true})
	}
	todayMonth := domain.MonthOf(today)
	for day := 1; day <= m.DaysIn(); day++ {
		cells = append(cells, CalendarDay{
			Day:     day,
			Date:    time.Date(m.Year, m.Month, day, 0, 0, 0, 0, time.UTC),
			Today:   todayMonth == m && today.Day() == day,
			Budgets: byDay[day],
		})
	}
	for len(cells)%7 != 0 {
		cells = append(cells, CalendarDay{Blank: true})
	}

	cal := CalendarMonth{Month: m}
	for i := 0; i < len(cells); i += 7 {
		cal.Weeks = append(cal.Weeks, cells[i:i+7])
	}
	return cal
}
