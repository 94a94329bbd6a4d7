package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingCollector struct {
	calls atomic.Int32
	err   error
}

func (c *countingCollector) CollectAll(ctx context.Context) error {
	c.calls.Add(1)
	if _, ok := ctx.Deadline(); !ok {
		return errors.New("expected a deadline")
	}
	return c.err
}

func TestRegisterRejectsBadSpec(t *testing.T) {
	s := New(&countingCollector{}, time.Second, nil)
	assert.Error(t, s.Register("every hour please"))
	assert.NoError(t, s.Register("5 * * * *"))
}

func TestRunNowInvokesCollector(t *testing.T) {
	c := &countingCollector{}
	s := New(c, time.Second, nil)
	s.RunNow()
	assert.Equal(t, int32(1), c.calls.Load())

	c.err = errors.New("exchange down")
	s.RunNow()
	assert.Equal(t, int32(2), c.calls.Load())
}

func TestStartStop(t *testing.T) {
	c := &countingCollector{}
	s := New(c, time.Second, nil)
	require.NoError(t, s.Register("@every 10ms"))
	s.Start()
	assert.Eventually(t, func() bool { return c.calls.Load() > 0 }, time.Second, 5*time.Millisecond)
	s.Stop()
}
