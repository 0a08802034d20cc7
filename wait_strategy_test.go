package disruptor

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errorx "github.com/panjf2000/disruptor/pkg/errors"
)

type strategyCase struct {
	name string
	new  func() WaitStrategy
}

var strategyCases = []strategyCase{
	{"busy-spin", func() WaitStrategy { return NewBusySpinWaitStrategy() }},
	{"yielding", func() WaitStrategy { return NewYieldingWaitStrategy() }},
	{"sleeping", func() WaitStrategy { return NewSleepingWaitStrategy(0) }},
	{"blocking", func() WaitStrategy { return NewBlockingWaitStrategy() }},
	{"timeout-blocking", func() WaitStrategy { return NewTimeoutBlockingWaitStrategy(time.Second) }},
}

type waitResult struct {
	available int64
	err       error
}

func waitAsync(b *SequenceBarrier, sequence int64) <-chan waitResult {
	ch := make(chan waitResult, 1)
	go func() {
		available, err := b.WaitFor(sequence)
		ch <- waitResult{available, err}
	}()
	return ch
}

func receive(t *testing.T, ch <-chan waitResult) waitResult {
	t.Helper()
	select {
	case r := <-ch:
		return r
	case <-time.After(5 * time.Second):
		require.FailNow(t, "WaitFor did not return in time")
		return waitResult{}
	}
}

func assertPending(t *testing.T, ch <-chan waitResult) {
	t.Helper()
	select {
	case r := <-ch:
		require.FailNowf(t, "WaitFor returned early", "available=%d err=%v", r.available, r.err)
	case <-time.After(20 * time.Millisecond):
	}
}

func TestWaitStrategyReturnsWhenAvailable(t *testing.T) {
	for _, tc := range strategyCases {
		t.Run(tc.name, func(t *testing.T) {
			strategy := tc.new()
			cursor := NewSequence(7)
			b := newSequenceBarrier(strategy, cursor, nil)

			available, err := b.WaitFor(3)
			require.NoError(t, err)
			assert.EqualValues(t, 7, available, "expect the highest available sequence, not the requested one")
		})
	}
}

func TestWaitStrategyWakesOnPublish(t *testing.T) {
	for _, tc := range strategyCases {
		t.Run(tc.name, func(t *testing.T) {
			strategy := tc.new()
			cursor := NewSequence(InitialSequenceValue)
			b := newSequenceBarrier(strategy, cursor, nil)

			ch := waitAsync(b, 0)
			assertPending(t, ch)

			cursor.Set(5)
			strategy.SignalAllWhenBlocking()

			r := receive(t, ch)
			require.NoError(t, r.err)
			assert.EqualValues(t, 5, r.available)
		})
	}
}

func TestWaitStrategyHeldBackByDependents(t *testing.T) {
	for _, tc := range strategyCases {
		t.Run(tc.name, func(t *testing.T) {
			strategy := tc.new()
			cursor := NewSequence(10)
			upstream := NewSequence(2)
			b := newSequenceBarrier(strategy, cursor, []*Sequence{upstream})

			ch := waitAsync(b, 3)
			assertPending(t, ch)

			upstream.Set(4)
			strategy.SignalAllWhenBlocking()

			r := receive(t, ch)
			require.NoError(t, r.err)
			assert.EqualValues(t, 4, r.available, "a consumer must never get ahead of its dependents")
		})
	}
}

func TestWaitStrategyAlert(t *testing.T) {
	for _, tc := range strategyCases {
		t.Run(tc.name, func(t *testing.T) {
			b := newSequenceBarrier(tc.new(), NewSequence(InitialSequenceValue), nil)

			ch := waitAsync(b, 100)
			assertPending(t, ch)

			b.Alert()
			r := receive(t, ch)
			assert.ErrorIs(t, r.err, errorx.ErrAlerted)
		})
	}
}

func TestWaitStrategyAlertWhileHeldByDependents(t *testing.T) {
	for _, tc := range strategyCases {
		t.Run(tc.name, func(t *testing.T) {
			b := newSequenceBarrier(tc.new(), NewSequence(10), []*Sequence{NewSequence(0)})

			ch := waitAsync(b, 5)
			assertPending(t, ch)

			b.Alert()
			r := receive(t, ch)
			assert.ErrorIs(t, r.err, errorx.ErrAlerted)
		})
	}
}

func TestTimeoutBlockingWaitStrategyTimesOut(t *testing.T) {
	strategy := NewTimeoutBlockingWaitStrategy(10 * time.Millisecond)
	b := newSequenceBarrier(strategy, NewSequence(InitialSequenceValue), nil)

	start := time.Now()
	_, err := b.WaitFor(0)
	assert.ErrorIs(t, err, errorx.ErrTimeout)
	assert.GreaterOrEqual(t, time.Since(start), 10*time.Millisecond)

	// A later publication is still seen after a timeout.
	b.cursor.Set(0)
	strategy.SignalAllWhenBlocking()
	available, err := b.WaitFor(0)
	require.NoError(t, err)
	assert.EqualValues(t, 0, available)
}

func TestSleepingWaitStrategyDefaultDuration(t *testing.T) {
	assert.Equal(t, defaultSleepDuration, NewSleepingWaitStrategy(0).sleepDuration)
	assert.Equal(t, time.Millisecond, NewSleepingWaitStrategy(time.Millisecond).sleepDuration)
}
