package util

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestHourWindow(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 34, 56, 0, time.UTC)
	from, to := HourWindow(now, 24)
	assert.Equal(t, time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC), to)
	assert.Equal(t, time.Date(2024, 2, 29, 13, 0, 0, 0, time.UTC), from)
	assert.Equal(t, 23*time.Hour, to.Sub(from))
}

func TestFromUnixMilli(t *testing.T) {
	got := FromUnixMilli(1709294400000)
	assert.Equal(t, time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC), got)
}

func TestParseIntDefault(t *testing.T) {
	assert.Equal(t, 72, ParseIntDefault("72", 5))
	assert.Equal(t, 5, ParseIntDefault("", 5))
	assert.Equal(t, 5, ParseIntDefault("x", 5))
}
