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
	"sync"
	"time"

	errorx "github.com/panjf2000/disruptor/pkg/errors"
)

const (
	defaultSpinTries     = 100
	defaultSleepRetries  = 200
	defaultSleepDuration = 100 * time.Nanosecond
)

// Alerter is the cancellation signal a WaitStrategy polls while waiting.
type Alerter interface {
	IsAlerted() bool
}

// WaitStrategy decides what a consumer does while the sequence it needs is not yet available.
//
// WaitFor returns the highest available sequence as soon as the minimum of cursor and dependents
// reaches sequence, it returns errorx.ErrAlerted promptly once alerter is alerted.
// The choice of strategy trades latency against CPU usage, it never changes what is delivered.
type WaitStrategy interface {
	WaitFor(sequence int64, cursor *Sequence, dependents []*Sequence, alerter Alerter) (int64, error)
	// SignalAllWhenBlocking wakes up the consumers parked by a blocking strategy,
	// the producer calls it after every publication.
	SignalAllWhenBlocking()
}

// BusySpinWaitStrategy re-checks the sequences in a tight loop,
// lowest latency at the cost of a whole CPU core per waiting consumer.
type BusySpinWaitStrategy struct{}

// NewBusySpinWaitStrategy returns a BusySpinWaitStrategy.
func NewBusySpinWaitStrategy() *BusySpinWaitStrategy {
	return new(BusySpinWaitStrategy)
}

// WaitFor implements WaitStrategy.
func (*BusySpinWaitStrategy) WaitFor(sequence int64, cursor *Sequence, dependents []*Sequence, alerter Alerter) (int64, error) {
	for {
		if available := availableSequence(cursor, dependents); available >= sequence {
			return available, nil
		}
		if alerter.IsAlerted() {
			return InitialSequenceValue, errorx.ErrAlerted
		}
	}
}

// SignalAllWhenBlocking implements WaitStrategy.
func (*BusySpinWaitStrategy) SignalAllWhenBlocking() {}

// YieldingWaitStrategy spins for a number of tries and then yields the processor
// on every further miss, a good compromise between latency and CPU usage.
type YieldingWaitStrategy struct {
	spinTries int
}

// NewYieldingWaitStrategy returns a YieldingWaitStrategy.
func NewYieldingWaitStrategy() *YieldingWaitStrategy {
	return &YieldingWaitStrategy{spinTries: defaultSpinTries}
}

// WaitFor implements WaitStrategy.
func (y *YieldingWaitStrategy) WaitFor(sequence int64, cursor *Sequence, dependents []*Sequence, alerter Alerter) (int64, error) {
	counter := y.spinTries
	for {
		if available := availableSequence(cursor, dependents); available >= sequence {
			return available, nil
		}
		if alerter.IsAlerted() {
			return InitialSequenceValue, errorx.ErrAlerted
		}
		if counter == 0 {
			runtime.Gosched()
		} else {
			counter--
		}
	}
}

// SignalAllWhenBlocking implements WaitStrategy.
func (*YieldingWaitStrategy) SignalAllWhenBlocking() {}

// SleepingWaitStrategy spins, then yields, then sleeps between checks once the retries are used up.
// It suits consumers that can afford some latency but must not burn a core while idle.
type SleepingWaitStrategy struct {
	retries       int
	sleepDuration time.Duration
}

// NewSleepingWaitStrategy returns a SleepingWaitStrategy sleeping for d between checks,
// a non-positive d falls back to 100ns.
func NewSleepingWaitStrategy(d time.Duration) *SleepingWaitStrategy {
	if d <= 0 {
		d = defaultSleepDuration
	}
	return &SleepingWaitStrategy{retries: defaultSleepRetries, sleepDuration: d}
}

// WaitFor implements WaitStrategy.
func (s *SleepingWaitStrategy) WaitFor(sequence int64, cursor *Sequence, dependents []*Sequence, alerter Alerter) (int64, error) {
	counter := s.retries
	for {
		if available := availableSequence(cursor, dependents); available >= sequence {
			return available, nil
		}
		if alerter.IsAlerted() {
			return InitialSequenceValue, errorx.ErrAlerted
		}
		switch {
		case counter > defaultSpinTries:
			counter--
		case counter > 0:
			counter--
			runtime.Gosched()
		default:
			time.Sleep(s.sleepDuration)
		}
	}
}

// SignalAllWhenBlocking implements WaitStrategy.
func (*SleepingWaitStrategy) SignalAllWhenBlocking() {}

// BlockingWaitStrategy parks the consumer on a condition variable until the producer signals
// a publication, lowest CPU usage and highest latency.
type BlockingWaitStrategy struct {
	mu   sync.Mutex
	cond *sync.Cond
}

// NewBlockingWaitStrategy returns a BlockingWaitStrategy.
func NewBlockingWaitStrategy() *BlockingWaitStrategy {
	b := new(BlockingWaitStrategy)
	b.cond = sync.NewCond(&b.mu)
	return b
}

// WaitFor implements WaitStrategy.
func (b *BlockingWaitStrategy) WaitFor(sequence int64, cursor *Sequence, dependents []*Sequence, alerter Alerter) (int64, error) {
	if cursor.Get() < sequence {
		b.mu.Lock()
		for cursor.Get() < sequence {
			if alerter.IsAlerted() {
				b.mu.Unlock()
				return InitialSequenceValue, errorx.ErrAlerted
			}
			b.cond.Wait()
		}
		b.mu.Unlock()
	}

	// The cursor is past sequence, upstream consumers are only ever briefly behind it.
	for {
		if available := availableSequence(cursor, dependents); available >= sequence {
			return available, nil
		}
		if alerter.IsAlerted() {
			return InitialSequenceValue, errorx.ErrAlerted
		}
		runtime.Gosched()
	}
}

// SignalAllWhenBlocking implements WaitStrategy.
func (b *BlockingWaitStrategy) SignalAllWhenBlocking() {
	b.mu.Lock()
	b.cond.Broadcast()
	b.mu.Unlock()
}

// TimeoutBlockingWaitStrategy behaves like BlockingWaitStrategy but gives up after a timeout
// and returns errorx.ErrTimeout, which lets a processor run periodic work while the ring is idle.
type TimeoutBlockingWaitStrategy struct {
	mu      sync.Mutex
	signal  chan struct{}
	timeout time.Duration
}

// NewTimeoutBlockingWaitStrategy returns a TimeoutBlockingWaitStrategy waiting at most timeout per call.
func NewTimeoutBlockingWaitStrategy(timeout time.Duration) *TimeoutBlockingWaitStrategy {
	return &TimeoutBlockingWaitStrategy{signal: make(chan struct{}), timeout: timeout}
}

func (t *TimeoutBlockingWaitStrategy) notified() <-chan struct{} {
	t.mu.Lock()
	ch := t.signal
	t.mu.Unlock()
	return ch
}

// WaitFor implements WaitStrategy.
func (t *TimeoutBlockingWaitStrategy) WaitFor(sequence int64, cursor *Sequence, dependents []*Sequence, alerter Alerter) (int64, error) {
	if cursor.Get() < sequence {
		timer := time.NewTimer(t.timeout)
		defer timer.Stop()

		for {
			// Grab the channel before re-checking so that a signal in between is not lost.
			ch := t.notified()
			if cursor.Get() >= sequence {
				break
			}
			if alerter.IsAlerted() {
				return InitialSequenceValue, errorx.ErrAlerted
			}
			select {
			case <-ch:
			case <-timer.C:
				return InitialSequenceValue, errorx.ErrTimeout
			}
		}
	}

	for {
		if available := availableSequence(cursor, dependents); available >= sequence {
			return available, nil
		}
		if alerter.IsAlerted() {
			return InitialSequenceValue, errorx.ErrAlerted
		}
		runtime.Gosched()
	}
}

// SignalAllWhenBlocking implements WaitStrategy.
func (t *TimeoutBlockingWaitStrategy) SignalAllWhenBlocking() {
	t.mu.Lock()
	close(t.signal)
	t.signal = make(chan struct{})
	t.mu.Unlock()
}
