package usage

import (
	"fmt"
	"time"
)

// MonthKey formats t as the billing-month key, e.g. "2026-08".
func MonthKey(t time.Time) string {
	return t.Format("2006-01")
}

// DayKey formats t as the calendar-day key, e.g. "2026-08-24".
func DayKey(t time.Time) string {
	return t.Format("2006-01-02")
}

// Counter is the number of outbound provider requests charged against one
// billing month. It only ever grows within a month.
type Counter struct {
	Month     string
	Used      int64
	UpdatedAt time.Time
}

func (c Counter) Validate() error {
	if c.Month == "" {
		return fmt.Errorf("usage month is required")
	}
	if c.Used < 0 {
		return fmt.Errorf("usage count cannot be negative")
	}

	return nil
}

// Stamp is the state of both counters immediately after a reservation.
type Stamp struct {
	MonthUsed int64
	DayUsed   int64
}
