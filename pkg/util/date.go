package util

import (
	"strconv"
	"time"
)

// FromUnixMilli converts exchange millisecond timestamps to UTC.
func FromUnixMilli(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

// HourWindow returns the [from, to] range covering the last hours full hours
// before now, aligned to hour boundaries. The bar in progress at now is included.
func HourWindow(now time.Time, hours int) (time.Time, time.Time) {
	to := now.UTC().Truncate(time.Hour)
	from := to.Add(-time.Duration(hours-1) * time.Hour)
	return from, to
}

// ParseIntDefault parses string to int or returns default if empty/invalid.
func ParseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return v
}
