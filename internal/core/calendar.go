// Package core provides the billflow domain model: bills, income entries,
// payment state, money amounts, and the calendar arithmetic they rely on.
package core

import (
	"fmt"
	"time"
)

// MonthKey is a canonical "YYYY-MM" month identifier. It is used as the
// mapping key for instance overrides and payment state, and its natural
// string ordering matches chronological ordering.
type MonthKey string

// MonthKeyOf returns the month key for the given instant.
func MonthKeyOf(t time.Time) MonthKey {
	return MonthKey(fmt.Sprintf("%04d-%02d", t.Year(), int(t.Month())))
}

// NewMonthKey builds a month key from a year and a 1-based month.
func NewMonthKey(year, month int) MonthKey {
	return MonthKey(fmt.Sprintf("%04d-%02d", year, month))
}

// Valid reports whether the key matches the strict YYYY-MM shape with a
// month between 01 and 12.
func (m MonthKey) Valid() bool {
	if len(m) != 7 || m[4] != '-' {
		return false
	}
	for i, r := range m {
		if i == 4 {
			continue
		}
		if r < '0' || r > '9' {
			return false
		}
	}
	month := int(m[5]-'0')*10 + int(m[6]-'0')
	return month >= 1 && month <= 12
}

// Year returns the key's year. The key must be valid.
func (m MonthKey) Year() int {
	y := 0
	for i := 0; i < 4; i++ {
		y = y*10 + int(m[i]-'0')
	}
	return y
}

// Month returns the key's 1-based month. The key must be valid.
func (m MonthKey) Month() int {
	return int(m[5]-'0')*10 + int(m[6]-'0')
}

// Time returns midnight UTC on the first day of the month.
func (m MonthKey) Time() time.Time {
	return time.Date(m.Year(), time.Month(m.Month()), 1, 0, 0, 0, 0, time.UTC)
}

// AddMonths returns the key n months after (or before, for negative n) m.
func (m MonthKey) AddMonths(n int) MonthKey {
	total := m.Year()*12 + (m.Month() - 1) + n
	year := total / 12
	month := total%12 + 1
	if month < 1 {
		// Go's % keeps the dividend's sign for negative totals.
		month += 12
		year--
	}
	return NewMonthKey(year, month)
}

// ParseMonthKey validates s and returns it as a MonthKey.
func ParseMonthKey(s string) (MonthKey, bool) {
	m := MonthKey(s)
	if !m.Valid() {
		return "", false
	}
	return m, true
}

// MonthKeyOrCurrent parses s, falling back to the month containing now when
// s is missing or malformed. Invalid keys never raise; browsing state always
// degrades to the current real-world month.
func MonthKeyOrCurrent(s string, now time.Time) MonthKey {
	if m, ok := ParseMonthKey(s); ok {
		return m
	}
	return MonthKeyOf(now)
}

// MonthsBetween returns the signed whole-month distance from start to
// target: (targetYear*12+targetMonth) - (startYear*12+startMonth).
func MonthsBetween(start, target MonthKey) int {
	return (target.Year()*12 + target.Month()) - (start.Year()*12 + start.Month())
}

// DaysInMonth returns the number of calendar days in the keyed month.
func DaysInMonth(m MonthKey) int {
	return time.Date(m.Year(), time.Month(m.Month())+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// ClampDay clamps a 1-based day of month to the keyed month's length, so a
// day-31 rule lands on the 30th/29th/28th in shorter months instead of
// rolling over.
func ClampDay(day int, m MonthKey) int {
	if last := DaysInMonth(m); day > last {
		return last
	}
	if day < 1 {
		return 1
	}
	return day
}

// DateOf builds the ISO calendar date for a day within the keyed month,
// clamping the day to the month's length.
func DateOf(m MonthKey, day int) string {
	return fmt.Sprintf("%s-%02d", string(m), ClampDay(day, m))
}

// ParseISODate parses a YYYY-MM-DD calendar date at midnight UTC.
func ParseISODate(s string) (time.Time, error) {
	return time.Parse("2006-01-02", s)
}

// FormatISODate renders t as a YYYY-MM-DD calendar date.
func FormatISODate(t time.Time) string {
	return t.Format("2006-01-02")
}

// DayFromISO extracts the day of month from an ISO date, soft-failing to 1
// when the input is unparseable.
func DayFromISO(iso string) int {
	t, err := ParseISODate(iso)
	if err != nil {
		return 1
	}
	return t.Day()
}

// MonthKeyFromISO returns the month key containing an ISO date, soft-failing
// to the zero key when the input is unparseable.
func MonthKeyFromISO(iso string) (MonthKey, bool) {
	t, err := ParseISODate(iso)
	if err != nil {
		return "", false
	}
	return MonthKeyOf(t), true
}
