package core

import (
	"fmt"
	"strings"
	"time"
)

// Month identifies a calendar month in the local time zone. Monthly
// membership is decided by the year and month components of a record's
// date, never by raw interval arithmetic, so DST shifts and month
// lengths cannot move a record across a boundary.
type Month struct {
	Year  int
	Month time.Month
}

// MonthOf returns the month containing t in t's location.
func MonthOf(t time.Time) Month {
	return Month{Year: t.Year(), Month: t.Month()}
}

// CurrentMonth returns the month containing the present instant.
func CurrentMonth() Month {
	return MonthOf(time.Now())
}

// Previous returns the calendar month before m. time.Date normalizes
// month 0 into December of the prior year.
func (m Month) Previous() Month {
	t := time.Date(m.Year, m.Month-1, 1, 0, 0, 0, 0, time.Local)
	return MonthOf(t)
}

// Next returns the calendar month after m.
func (m Month) Next() Month {
	t := time.Date(m.Year, m.Month+1, 1, 0, 0, 0, 0, time.Local)
	return MonthOf(t)
}

// Range returns the first instant of m and the first instant of the
// following month, a half-open interval suitable for range queries.
func (m Month) Range() (start, end time.Time) {
	start = time.Date(m.Year, m.Month, 1, 0, 0, 0, 0, time.Local)
	end = time.Date(m.Year, m.Month+1, 1, 0, 0, 0, 0, time.Local)
	return start, end
}

// Contains reports whether t falls in m, judged on t's own calendar
// components.
func (m Month) Contains(t time.Time) bool {
	return t.Year() == m.Year && t.Month() == m.Month
}

// IsCurrent reports whether m is the present calendar month.
func (m Month) IsCurrent() bool {
	return m == CurrentMonth()
}

func (m Month) String() string {
	return fmt.Sprintf("%04d-%02d", m.Year, int(m.Month))
}

// MarshalJSON encodes m as its "2006-01" string form.
func (m Month) MarshalJSON() ([]byte, error) {
	return []byte(`"` + m.String() + `"`), nil
}

func (m *Month) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	parsed, err := ParseMonth(s)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// ParseMonth parses the "2006-01" form produced by String.
func ParseMonth(s string) (Month, error) {
	t, err := time.ParseInLocation("2006-01", s, time.Local)
	if err != nil {
		return Month{}, fmt.Errorf("parse month %q: %w", s, err)
	}
	return MonthOf(t), nil
}
