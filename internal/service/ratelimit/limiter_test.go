package ratelimit

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLimiterIsPerKey(t *testing.T) {
	l := New(0.001, 2)

	assert.True(t, l.Allow("BTCUSDT"))
	assert.True(t, l.Allow("BTCUSDT"))
	assert.False(t, l.Allow("BTCUSDT"))

	assert.True(t, l.Allow("ETHUSDT"))
}
