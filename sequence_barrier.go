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
	"sync/atomic"

	errorx "github.com/panjf2000/disruptor/pkg/errors"
)

// SequenceBarrier tells a consumer the highest sequence it may read: the ring buffer cursor,
// held back by the sequences of the consumers it depends on.
type SequenceBarrier struct {
	strategy   WaitStrategy
	cursor     *Sequence
	dependents []*Sequence
	alerted    atomic.Bool
}

func newSequenceBarrier(strategy WaitStrategy, cursor *Sequence, dependents []*Sequence) *SequenceBarrier {
	deps := make([]*Sequence, len(dependents))
	copy(deps, dependents)
	return &SequenceBarrier{strategy: strategy, cursor: cursor, dependents: deps}
}

// WaitFor waits until sequence is available and returns the highest available sequence,
// which may be well beyond sequence, the caller should drain everything up to it.
// It returns errorx.ErrAlerted once the barrier is alerted.
func (b *SequenceBarrier) WaitFor(sequence int64) (int64, error) {
	if b.alerted.Load() {
		return InitialSequenceValue, errorx.ErrAlerted
	}
	// A single producer moves the cursor once per batch after writing every slot of it,
	// so everything up to the returned value is readable without checking slot by slot.
	return b.strategy.WaitFor(sequence, b.cursor, b.dependents, b)
}

// Cursor returns the highest available sequence without waiting.
func (b *SequenceBarrier) Cursor() int64 {
	return availableSequence(b.cursor, b.dependents)
}

// Alert cancels any in-progress or future WaitFor until ClearAlert is called.
func (b *SequenceBarrier) Alert() {
	b.alerted.Store(true)
	b.strategy.SignalAllWhenBlocking()
}

// ClearAlert resets the alert flag.
func (b *SequenceBarrier) ClearAlert() {
	b.alerted.Store(false)
}

// IsAlerted reports whether the barrier has been alerted.
func (b *SequenceBarrier) IsAlerted() bool {
	return b.alerted.Load()
}

// CheckAlert returns errorx.ErrAlerted if the barrier has been alerted.
func (b *SequenceBarrier) CheckAlert() error {
	if b.alerted.Load() {
		return errorx.ErrAlerted
	}
	return nil
}
