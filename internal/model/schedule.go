package model

import "time"

// Weekday bits for Schedule.Weekdays, Sunday = bit 0.
const (
	WeekdaySunday = 1 << iota
	WeekdayMonday
	WeekdayTuesday
	WeekdayWednesday
	WeekdayThursday
	WeekdayFriday
	WeekdaySaturday

	WeekdaysAll = WeekdaySunday | WeekdayMonday | WeekdayTuesday |
		WeekdayWednesday | WeekdayThursday | WeekdayFriday | WeekdaySaturday
)

// Schedule assigns a page to a daily time window within a department.
// StartTime and EndTime are minutes since midnight; a window with
// EndTime <= StartTime wraps past midnight. Higher priority wins when
// windows overlap.
type Schedule struct {
	ID           int64     `json:"id"`
	DepartmentID int64     `json:"department_id"`
	PageID       int64     `json:"page_id"`
	Name         string    `json:"name"`
	StartTime    int64     `json:"start_time"`
	EndTime      int64     `json:"end_time"`
	Weekdays     int64     `json:"weekdays"`
	Priority     int64     `json:"priority"`
	Active       bool      `json:"active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Matches reports whether the schedule covers the given instant.
func (s *Schedule) Matches(t time.Time) bool {
	if !s.Active {
		return false
	}
	if s.Weekdays&(1<<int(t.Weekday())) == 0 {
		return false
	}
	minutes := int64(t.Hour()*60 + t.Minute())
	if s.StartTime == s.EndTime {
		// Degenerate window covers the whole day.
		return true
	}
	if s.StartTime < s.EndTime {
		return minutes >= s.StartTime && minutes < s.EndTime
	}
	// Wraps past midnight.
	return minutes >= s.StartTime || minutes < s.EndTime
}
