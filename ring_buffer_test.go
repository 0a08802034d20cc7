package disruptor

import (
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errorx "github.com/panjf2000/disruptor/pkg/errors"
)

type testEvent struct {
	value int64
}

func newTestEvent() testEvent {
	return testEvent{}
}

func TestCreateSingleProducerConfigurationErrors(t *testing.T) {
	tests := []struct {
		name     string
		factory  EventFactory[testEvent]
		capacity int
		field    string
		err      error
	}{
		{"nil factory", nil, 8, "factory", errorx.ErrNilFactory},
		{"zero capacity", newTestEvent, 0, "capacity", errorx.ErrNonPositiveCapacity},
		{"negative capacity", newTestEvent, -4, "capacity", errorx.ErrNonPositiveCapacity},
		{"capacity 3", newTestEvent, 3, "capacity", errorx.ErrNotPowerOfTwo},
		{"capacity 6", newTestEvent, 6, "capacity", errorx.ErrNotPowerOfTwo},
		{"capacity 1000", newTestEvent, 1000, "capacity", errorx.ErrNotPowerOfTwo},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rb, err := CreateSingleProducer(tt.factory, tt.capacity, nil)
			assert.Nil(t, rb)
			assert.ErrorIs(t, err, tt.err)

			var cfgErr *ConfigurationError
			require.True(t, errors.As(err, &cfgErr), "expect a *ConfigurationError, got %T", err)
			assert.Equal(t, tt.field, cfgErr.Field)
		})
	}
}

func TestCreateSingleProducer(t *testing.T) {
	var calls int
	factory := func() testEvent {
		calls++
		return testEvent{value: -1}
	}

	rb, err := CreateSingleProducer(factory, 1, nil)
	require.NoError(t, err, "capacity 1 is a power of two")
	assert.EqualValues(t, 1, rb.BufferSize())

	calls = 0
	rb, err = CreateSingleProducer(factory, 16, nil)
	require.NoError(t, err)
	assert.Equal(t, 16, calls, "every slot is allocated up front")
	assert.EqualValues(t, 16, rb.BufferSize())
	assert.EqualValues(t, InitialSequenceValue, rb.Cursor())
	assert.IsType(t, &YieldingWaitStrategy{}, rb.WaitStrategy(), "expect the default wait strategy")
	for seq := int64(0); seq < 16; seq++ {
		assert.EqualValues(t, -1, rb.Get(seq).value)
	}
}

func TestCapacityFor(t *testing.T) {
	for n, want := range map[int]int{-3: 1, 0: 1, 1: 1, 2: 2, 3: 4, 1000: 1024, 1024: 1024} {
		assert.Equal(t, want, CapacityFor(n), "CapacityFor(%d)", n)
	}
}

func TestRingBufferClaimAndGet(t *testing.T) {
	rb, err := CreateSingleProducer(newTestEvent, 8, NewBusySpinWaitStrategy())
	require.NoError(t, err)

	assert.EqualValues(t, 0, rb.Next())
	assert.EqualValues(t, 1, rb.Next())
	assert.EqualValues(t, 4, rb.NextN(3), "NextN returns the highest claimed sequence")

	// Sequences that are a capacity apart share a slot.
	assert.Same(t, rb.Get(3), rb.Get(11))
	assert.Same(t, rb.Get(0), rb.Get(8))
	assert.NotSame(t, rb.Get(0), rb.Get(1))
}

func TestRingBufferPublish(t *testing.T) {
	rb, err := CreateSingleProducer(newTestEvent, 8, NewBlockingWaitStrategy())
	require.NoError(t, err)

	seq := rb.Next()
	rb.Get(seq).value = 42
	assert.EqualValues(t, InitialSequenceValue, rb.Cursor())
	rb.Publish(seq)
	assert.EqualValues(t, 0, rb.Cursor())

	hi := rb.NextN(4)
	rb.PublishRange(hi-3, hi)
	assert.EqualValues(t, 4, rb.Cursor())
	assert.Same(t, rb.cursor, rb.CursorSequence())

	seq = rb.PublishEvent(func(e *testEvent, sequence int64) { e.value = sequence * 10 })
	assert.EqualValues(t, 5, seq)
	assert.EqualValues(t, 50, rb.Get(5).value)

	hi = rb.PublishEvents(func(e *testEvent, sequence int64) { e.value = sequence * 10 }, 2)
	assert.EqualValues(t, 7, hi)
	assert.EqualValues(t, 7, rb.Cursor())
	assert.EqualValues(t, 60, rb.Get(6).value)
	assert.EqualValues(t, 70, rb.Get(7).value)
}

func TestRingBufferWithoutGatingNeverWaits(t *testing.T) {
	rb, err := CreateSingleProducer(newTestEvent, 4, NewBusySpinWaitStrategy())
	require.NoError(t, err)

	for i := int64(0); i < 100; i++ {
		require.EqualValues(t, i, rb.Next())
		rb.Publish(i)
	}
	assert.True(t, rb.HasAvailableCapacity(4))
	assert.EqualValues(t, 4, rb.RemainingCapacity())
	assert.EqualValues(t, 99, rb.MinimumGatingSequence())
}

func TestRingBufferTryNext(t *testing.T) {
	rb, err := CreateSingleProducer(newTestEvent, 4, NewBusySpinWaitStrategy())
	require.NoError(t, err)
	consumer := NewSequence(InitialSequenceValue)
	rb.AddGatingSequences(consumer)

	assert.EqualValues(t, 4, rb.RemainingCapacity())
	assert.True(t, rb.HasAvailableCapacity(4))
	assert.False(t, rb.HasAvailableCapacity(5))

	hi, err := rb.TryNextN(4)
	require.NoError(t, err)
	assert.EqualValues(t, 3, hi)
	rb.PublishRange(0, hi)
	assert.EqualValues(t, 0, rb.RemainingCapacity())
	assert.False(t, rb.HasAvailableCapacity(1))

	_, err = rb.TryNext()
	assert.ErrorIs(t, err, errorx.ErrInsufficientCapacity)
	_, err = rb.TryNextN(2)
	assert.ErrorIs(t, err, errorx.ErrInsufficientCapacity)

	consumer.Set(0)
	assert.EqualValues(t, 1, rb.RemainingCapacity())
	seq, err := rb.TryNext()
	require.NoError(t, err)
	assert.EqualValues(t, 4, seq, "a failed TryNext must not consume sequences")
	_, err = rb.TryNext()
	assert.ErrorIs(t, err, errorx.ErrInsufficientCapacity)
}

func TestRingBufferProducerWaitsForSlowestConsumer(t *testing.T) {
	rb, err := CreateSingleProducer(newTestEvent, 4, NewBusySpinWaitStrategy())
	require.NoError(t, err)
	consumer := NewSequence(InitialSequenceValue)
	rb.AddGatingSequences(consumer)

	for i := int64(0); i < 4; i++ {
		rb.PublishEvent(func(e *testEvent, sequence int64) { e.value = sequence })
	}
	require.EqualValues(t, 3, rb.Cursor())

	claimed := make(chan int64, 1)
	go func() {
		claimed <- rb.Next()
	}()

	select {
	case seq := <-claimed:
		require.FailNowf(t, "producer overtook the consumer", "claimed %d while the consumer is at -1", seq)
	case <-time.After(50 * time.Millisecond):
	}

	consumer.Set(0)
	select {
	case seq := <-claimed:
		assert.EqualValues(t, 4, seq)
	case <-time.After(5 * time.Second):
		require.FailNow(t, "producer did not resume after the consumer moved on")
	}
}

func TestRingBufferGatingSequences(t *testing.T) {
	rb, err := CreateSingleProducer(newTestEvent, 8, NewBusySpinWaitStrategy())
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		rb.Publish(rb.Next())
	}

	a, b := NewSequence(InitialSequenceValue), NewSequence(InitialSequenceValue)
	rb.AddGatingSequences(a, b)
	assert.EqualValues(t, 2, a.Get(), "gating sequences join at the cursor")
	assert.EqualValues(t, 2, b.Get(), "gating sequences join at the cursor")

	a.Set(1)
	assert.EqualValues(t, 1, rb.MinimumGatingSequence())

	assert.True(t, rb.RemoveGatingSequence(a))
	assert.False(t, rb.RemoveGatingSequence(a))
	assert.EqualValues(t, 2, rb.MinimumGatingSequence())

	assert.True(t, rb.RemoveGatingSequence(b))
	assert.EqualValues(t, rb.Cursor(), rb.MinimumGatingSequence())
}

// TestRingBufferNeverOverwritesUnconsumedSlots has the producer stamp every slot with its
// sequence while a slow consumer checks the stamp, an overwritten slot would carry a later one.
func TestRingBufferNeverOverwritesUnconsumedSlots(t *testing.T) {
	const total = 20000

	rb, err := CreateSingleProducer(newTestEvent, 16, NewYieldingWaitStrategy())
	require.NoError(t, err)

	r := rand.New(rand.NewSource(1))
	pauses := make([]bool, total)
	for i := range pauses {
		pauses[i] = r.Intn(64) == 0
	}

	var (
		expected int64
		mismatch = make(chan int64, 1)
	)
	handler := EventHandlerFunc[testEvent](func(e *testEvent, sequence int64, _ bool) error {
		if e.value != sequence || sequence != expected {
			select {
			case mismatch <- sequence:
			default:
			}
		}
		expected++
		if pauses[sequence] {
			time.Sleep(10 * time.Microsecond)
		}
		return nil
	})
	p, err := NewBatchEventProcessor(rb, rb.NewBarrier(), handler)
	require.NoError(t, err)
	rb.AddGatingSequences(p.Sequence())

	task, err := p.Start()
	require.NoError(t, err)
	require.NoError(t, p.WaitUntilStarted(time.Second))

	var published int64
	for published < total {
		n := int64(r.Intn(int(rb.BufferSize())) + 1)
		if published+n > total {
			n = total - published
		}
		hi := rb.NextN(n)
		require.LessOrEqual(t, hi-rb.BufferSize(), p.Sequence().Get(), "claimed a slot the consumer still holds")
		for seq := hi - n + 1; seq <= hi; seq++ {
			rb.Get(seq).value = seq
		}
		rb.PublishRange(hi-n+1, hi)
		published += n
	}

	require.Eventually(t, func() bool { return p.Sequence().Get() == total-1 }, 10*time.Second, time.Millisecond)
	p.Halt()
	require.NoError(t, task.Wait())

	select {
	case seq := <-mismatch:
		assert.Failf(t, "slot overwritten before it was consumed", "sequence %d", seq)
	default:
	}
	assert.EqualValues(t, total, expected)
}
