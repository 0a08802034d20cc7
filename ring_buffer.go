// Copyright (c) 2026 Andy Pan
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package disruptor

import (
	"runtime"

	"golang.org/x/sys/cpu"

	"github.com/panjf2000/disruptor/internal/math"
	errorx "github.com/panjf2000/disruptor/pkg/errors"
)

// claimSpinMask decides how often a producer blocked on the gating sequences yields the processor.
const claimSpinMask = 1<<10 - 1

// EventFactory allocates one event slot, it is called once per slot when the ring buffer is created.
type EventFactory[T any] func() T

// EventTranslator writes the payload of the event claimed at sequence in place.
type EventTranslator[T any] func(event *T, sequence int64)

// CapacityFor returns the smallest valid ring buffer capacity holding at least n events.
func CapacityFor(n int) int {
	return int(math.CeilToPowerOfTwo(int64(n)))
}

// RingBuffer is a fixed-size circular array of preallocated event slots for a single producer.
//
// The producer claims sequences with Next or NextN, writes the slots returned by Get in place
// and makes them visible with Publish or PublishRange. Consumers read through a SequenceBarrier
// built by NewBarrier and register their sequences with AddGatingSequences, the producer never
// claims a slot that the slowest gating sequence has not released yet.
//
// Next, NextN, TryNext, TryNextN, Publish, PublishRange, PublishEvent, PublishEvents,
// HasAvailableCapacity and RemainingCapacity belong to the producer and must be called
// from one goroutine only.
type RingBuffer[T any] struct {
	_          cpu.CacheLinePad
	entries    []T
	mask       int64
	bufferSize int64
	strategy   WaitStrategy
	cursor     *Sequence
	gating     sequenceGroup
	opts       *Options
	_          cpu.CacheLinePad

	// Producer-local state.
	nextValue   int64 // highest sequence claimed so far
	cachedValue int64 // last observed minimum of the gating sequences
	_           cpu.CacheLinePad
}

// CreateSingleProducer creates a ring buffer of capacity slots, each one allocated by factory,
// for exactly one producer goroutine. The capacity must be a power of two, strategy is used by
// every barrier built from this ring buffer and falls back to a YieldingWaitStrategy when nil.
func CreateSingleProducer[T any](factory EventFactory[T], capacity int, strategy WaitStrategy, opts ...Option) (*RingBuffer[T], error) {
	if factory == nil {
		return nil, &ConfigurationError{Field: "factory", Err: errorx.ErrNilFactory}
	}
	if capacity < 1 {
		return nil, &ConfigurationError{Field: "capacity", Err: errorx.ErrNonPositiveCapacity}
	}
	if !math.IsPowerOfTwo(int64(capacity)) {
		return nil, &ConfigurationError{Field: "capacity", Err: errorx.ErrNotPowerOfTwo}
	}
	if strategy == nil {
		strategy = NewYieldingWaitStrategy()
	}

	rb := &RingBuffer[T]{
		entries:     make([]T, capacity),
		mask:        int64(capacity - 1),
		bufferSize:  int64(capacity),
		strategy:    strategy,
		cursor:      NewSequence(InitialSequenceValue),
		opts:        loadOptions(opts...),
		nextValue:   InitialSequenceValue,
		cachedValue: InitialSequenceValue,
	}
	for i := range rb.entries {
		rb.entries[i] = factory()
	}
	rb.opts.getLogger().Debugf("ring buffer created with capacity %d and %T", capacity, strategy)

	return rb, nil
}

// Get returns the slot of sequence, it is only valid to write it between claiming and publishing sequence.
func (rb *RingBuffer[T]) Get(sequence int64) *T {
	return &rb.entries[sequence&rb.mask]
}

// Next claims the next sequence, see NextN.
func (rb *RingBuffer[T]) Next() int64 {
	return rb.NextN(1)
}

// NextN claims the next n contiguous sequences and returns the highest of them,
// the lowest one is the returned value - n + 1. n must be in [1, BufferSize()].
//
// NextN spins until the slowest gating sequence has released every slot being claimed,
// this is the back-pressure that caps the producer at the pace of its consumers.
func (rb *RingBuffer[T]) NextN(n int64) int64 {
	assertf(n >= 1 && n <= rb.bufferSize, "claim of %d sequences is out of [1, %d]", n, rb.bufferSize)

	nextValue := rb.nextValue
	nextSequence := nextValue + n
	wrapPoint := nextSequence - rb.bufferSize
	cachedGatingSequence := rb.cachedValue

	if wrapPoint > cachedGatingSequence || cachedGatingSequence > nextValue {
		var minSequence int64
		for spin := 0; ; spin++ {
			if minSequence = minimumSequence(rb.gating.load(), nextValue); wrapPoint <= minSequence {
				break
			}
			if spin&claimSpinMask == 0 {
				runtime.Gosched()
			}
		}
		rb.cachedValue = minSequence
	}

	rb.nextValue = nextSequence
	return nextSequence
}

// TryNext claims the next sequence without waiting, see TryNextN.
func (rb *RingBuffer[T]) TryNext() (int64, error) {
	return rb.TryNextN(1)
}

// TryNextN claims the next n sequences if the ring buffer has room for them right now,
// otherwise it claims nothing and returns errorx.ErrInsufficientCapacity.
func (rb *RingBuffer[T]) TryNextN(n int64) (int64, error) {
	assertf(n >= 1 && n <= rb.bufferSize, "claim of %d sequences is out of [1, %d]", n, rb.bufferSize)

	if !rb.hasAvailableCapacity(n) {
		return InitialSequenceValue, errorx.ErrInsufficientCapacity
	}
	rb.nextValue += n
	return rb.nextValue, nil
}

// HasAvailableCapacity reports whether n more sequences can be claimed without waiting.
func (rb *RingBuffer[T]) HasAvailableCapacity(n int64) bool {
	return rb.hasAvailableCapacity(n)
}

func (rb *RingBuffer[T]) hasAvailableCapacity(n int64) bool {
	nextValue := rb.nextValue
	wrapPoint := nextValue + n - rb.bufferSize
	cachedGatingSequence := rb.cachedValue

	if wrapPoint > cachedGatingSequence || cachedGatingSequence > nextValue {
		minSequence := minimumSequence(rb.gating.load(), nextValue)
		rb.cachedValue = minSequence
		if wrapPoint > minSequence {
			return false
		}
	}
	return true
}

// RemainingCapacity returns how many slots can still be claimed before the producer has to wait.
func (rb *RingBuffer[T]) RemainingCapacity() int64 {
	consumed := minimumSequence(rb.gating.load(), rb.nextValue)
	return rb.bufferSize - (rb.nextValue - consumed)
}

// Publish makes sequence, and every sequence claimed before it, visible to the consumers.
func (rb *RingBuffer[T]) Publish(sequence int64) {
	assertf(sequence <= rb.nextValue, "publishing sequence %d which has not been claimed (claimed up to %d)", sequence, rb.nextValue)
	assertf(sequence >= rb.cursor.Get(), "publishing sequence %d behind the cursor %d", sequence, rb.cursor.Get())

	rb.cursor.Set(sequence)
	rb.strategy.SignalAllWhenBlocking()
}

// PublishRange makes the batch lo..hi visible at once, consumers observe either none or all of it.
func (rb *RingBuffer[T]) PublishRange(lo, hi int64) {
	assertf(lo <= hi, "publishing an inverted range [%d, %d]", lo, hi)
	assertf(hi-lo < rb.bufferSize, "publishing range [%d, %d] larger than the capacity %d", lo, hi, rb.bufferSize)

	rb.Publish(hi)
}

// PublishEvent claims the next sequence, lets translator fill its slot and publishes it.
func (rb *RingBuffer[T]) PublishEvent(translator EventTranslator[T]) int64 {
	sequence := rb.Next()
	translator(rb.Get(sequence), sequence)
	rb.Publish(sequence)
	return sequence
}

// PublishEvents claims count sequences, lets translator fill each slot in order
// and publishes them as one batch. It returns the highest sequence published.
func (rb *RingBuffer[T]) PublishEvents(translator EventTranslator[T], count int64) int64 {
	hi := rb.NextN(count)
	lo := hi - count + 1
	for sequence := lo; sequence <= hi; sequence++ {
		translator(rb.Get(sequence), sequence)
	}
	rb.PublishRange(lo, hi)
	return hi
}

// AddGatingSequences registers consumer sequences the producer must not overtake by more than
// the capacity. They are moved to the current cursor, register them before publishing.
func (rb *RingBuffer[T]) AddGatingSequences(seqs ...*Sequence) {
	rb.gating.add(rb.cursor, seqs...)
}

// RemoveGatingSequence stops gating the producer on seq and reports whether it was registered.
func (rb *RingBuffer[T]) RemoveGatingSequence(seq *Sequence) bool {
	return rb.gating.remove(seq)
}

// MinimumGatingSequence returns the lowest gating sequence, or the cursor when there is none.
func (rb *RingBuffer[T]) MinimumGatingSequence() int64 {
	return minimumSequence(rb.gating.load(), rb.cursor.Get())
}

// NewBarrier creates a SequenceBarrier tracking the cursor of this ring buffer,
// held back by the dependents when the consumer sits behind other consumers.
func (rb *RingBuffer[T]) NewBarrier(dependents ...*Sequence) *SequenceBarrier {
	return newSequenceBarrier(rb.strategy, rb.cursor, dependents)
}

// Cursor returns the highest published sequence.
func (rb *RingBuffer[T]) Cursor() int64 {
	return rb.cursor.Get()
}

// CursorSequence returns the producer cursor itself.
func (rb *RingBuffer[T]) CursorSequence() *Sequence {
	return rb.cursor
}

// BufferSize returns the capacity of the ring buffer.
func (rb *RingBuffer[T]) BufferSize() int64 {
	return rb.bufferSize
}

// WaitStrategy returns the strategy barriers of this ring buffer wait with.
func (rb *RingBuffer[T]) WaitStrategy() WaitStrategy {
	return rb.strategy
}
