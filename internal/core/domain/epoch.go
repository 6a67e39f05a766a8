package domain

import (
	"fmt"
	"time"
)

// isoDateLayout formats TodayISO values.
const isoDateLayout = "20060102"

// WeekOf returns the ISO week label of t, e.g. "W07".
func WeekOf(t time.Time) string {
	_, week := t.ISOWeek()
	return fmt.Sprintf("W%02d", week)
}

// DateOf returns the compact ISO date of t, e.g. "20201110".
func DateOf(t time.Time) string {
	return t.Format(isoDateLayout)
}
