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
	"math"
	"strconv"
	"sync/atomic"

	"golang.org/x/sys/cpu"
)

const (
	// InitialSequenceValue is the value every Sequence starts from, nothing has been claimed or processed yet.
	InitialSequenceValue int64 = -1
	// MaxSequenceValue is the upper bound of a Sequence.
	MaxSequenceValue int64 = math.MaxInt64
)

// Sequence is a monotonically increasing 64-bit counter shared between the producer and the consumers.
//
// The value is surrounded by cache-line pads, the producer cursor and every consumer sequence are
// polled from different goroutines at a high frequency and must never share a cache line.
type Sequence struct {
	_     cpu.CacheLinePad
	value atomic.Int64
	_     cpu.CacheLinePad
}

// NewSequence returns a Sequence holding the given initial value.
func NewSequence(initial int64) *Sequence {
	s := new(Sequence)
	s.value.Store(initial)
	return s
}

// Get reads the current value.
func (s *Sequence) Get() int64 {
	return s.value.Load()
}

// Set writes v, every write made before Set is visible to a goroutine observing v through Get.
func (s *Sequence) Set(v int64) {
	s.value.Store(v)
}

// CompareAndSet sets the value to v if it currently holds expected.
func (s *Sequence) CompareAndSet(expected, v int64) bool {
	return s.value.CompareAndSwap(expected, v)
}

// AddAndGet atomically adds delta and returns the new value.
func (s *Sequence) AddAndGet(delta int64) int64 {
	return s.value.Add(delta)
}

// IncrementAndGet atomically adds one and returns the new value.
func (s *Sequence) IncrementAndGet() int64 {
	return s.value.Add(1)
}

func (s *Sequence) String() string {
	return strconv.FormatInt(s.Get(), 10)
}

// minimumSequence returns the smallest value among seqs and min.
func minimumSequence(seqs []*Sequence, min int64) int64 {
	for _, s := range seqs {
		if v := s.Get(); v < min {
			min = v
		}
	}
	return min
}

// availableSequence is the highest sequence a consumer may read: the cursor, held back by the dependents.
func availableSequence(cursor *Sequence, dependents []*Sequence) int64 {
	return minimumSequence(dependents, cursor.Get())
}

// sequenceGroup is a copy-on-write set of sequences, the producer reads it without locking
// while consumers are being added or removed.
type sequenceGroup struct {
	seqs atomic.Pointer[[]*Sequence]
}

func (g *sequenceGroup) load() []*Sequence {
	if p := g.seqs.Load(); p != nil {
		return *p
	}
	return nil
}

// add appends seqs to the group, every new sequence starts from the current cursor
// so that it never gates the producer on slots it will not read.
func (g *sequenceGroup) add(cursor *Sequence, seqs ...*Sequence) {
	for {
		current := g.seqs.Load()
		var old []*Sequence
		if current != nil {
			old = *current
		}
		updated := make([]*Sequence, 0, len(old)+len(seqs))
		updated = append(updated, old...)
		updated = append(updated, seqs...)

		cursorSequence := cursor.Get()
		for _, s := range seqs {
			s.Set(cursorSequence)
		}
		if g.seqs.CompareAndSwap(current, &updated) {
			break
		}
	}

	// The cursor may have moved while the group was swapped.
	cursorSequence := cursor.Get()
	for _, s := range seqs {
		s.Set(cursorSequence)
	}
}

// remove drops every occurrence of seq and reports whether it was found.
func (g *sequenceGroup) remove(seq *Sequence) bool {
	for {
		current := g.seqs.Load()
		if current == nil {
			return false
		}
		updated := make([]*Sequence, 0, len(*current))
		for _, s := range *current {
			if s != seq {
				updated = append(updated, s)
			}
		}
		if len(updated) == len(*current) {
			return false
		}
		if g.seqs.CompareAndSwap(current, &updated) {
			return true
		}
	}
}
