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
	"errors"
	"fmt"
	"runtime"
	"sync/atomic"
	"time"

	errorx "github.com/panjf2000/disruptor/pkg/errors"
	"github.com/panjf2000/disruptor/pkg/pool/goroutine"
)

// State is the lifecycle state of an event processor.
type State int32

const (
	// StateIdle is the state of an event processor that has not been started yet.
	StateIdle State = iota
	// StateRunning is the state of an event processor whose loop has been submitted.
	StateRunning
	// StateHalted is the state of an event processor stopped by Halt.
	StateHalted
	// StateFaulted is the state of an event processor stopped by a handler fault.
	StateFaulted
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateHalted:
		return "halted"
	case StateFaulted:
		return "faulted"
	default:
		return fmt.Sprintf("State(%d)", int32(s))
	}
}

// BatchEventProcessor drives an EventHandler with the events of a ring buffer.
//
// Each wake-up it delivers every sequence that became available since the previous one, then
// moves its own Sequence to the end of that batch with a single store. Register Sequence() as
// a gating sequence of the ring buffer, and give every processor a barrier of its own since
// Halt alerts it.
type BatchEventProcessor[T any] struct {
	sequence *Sequence
	ring     *RingBuffer[T]
	barrier  *SequenceBarrier
	handler  EventHandler[T]
	opts     *Options
	state    atomic.Int32
	started  chan struct{}
	startErr error

	batchStartAware BatchStartAware
	timeoutHandler  TimeoutHandler
	lifecycleAware  LifecycleAware
}

// NewBatchEventProcessor creates an idle event processor reading ring through barrier.
func NewBatchEventProcessor[T any](ring *RingBuffer[T], barrier *SequenceBarrier, handler EventHandler[T], opts ...Option) (*BatchEventProcessor[T], error) {
	switch {
	case ring == nil:
		return nil, &ConfigurationError{Field: "ring", Err: errorx.ErrNilRingBuffer}
	case barrier == nil:
		return nil, &ConfigurationError{Field: "barrier", Err: errorx.ErrNilBarrier}
	case handler == nil:
		return nil, &ConfigurationError{Field: "handler", Err: errorx.ErrNilHandler}
	}

	p := &BatchEventProcessor[T]{
		sequence: NewSequence(InitialSequenceValue),
		ring:     ring,
		barrier:  barrier,
		handler:  handler,
		opts:     loadOptions(opts...),
		started:  make(chan struct{}),
	}
	p.batchStartAware, _ = handler.(BatchStartAware)
	p.timeoutHandler, _ = handler.(TimeoutHandler)
	p.lifecycleAware, _ = handler.(LifecycleAware)
	if reporter, ok := handler.(SequenceReportingEventHandler); ok {
		reporter.SetSequenceCallback(p.sequence)
	}

	return p, nil
}

// Sequence returns the last sequence this processor has fully handled.
func (p *BatchEventProcessor[T]) Sequence() *Sequence {
	return p.sequence
}

// State returns the current lifecycle state.
func (p *BatchEventProcessor[T]) State() State {
	return State(p.state.Load())
}

// IsRunning reports whether the processor has been started and has not stopped yet.
func (p *BatchEventProcessor[T]) IsRunning() bool {
	return p.State() == StateRunning
}

// Start runs the processor loop on the worker pool set with WithWorkerPool, or on a new goroutine,
// and returns the Task to join it with. A processor can only be started once, a pool with no free
// worker is rejected with errorx.ErrInsufficientWorkers and leaves the processor idle.
func (p *BatchEventProcessor[T]) Start() (*Task, error) {
	return p.start(p.opts.WorkerPool)
}

func (p *BatchEventProcessor[T]) start(pool *goroutine.Pool) (*Task, error) {
	if !p.state.CompareAndSwap(int32(StateIdle), int32(StateRunning)) {
		if p.State() == StateRunning {
			return nil, errorx.ErrProcessorRunning
		}
		return nil, errorx.ErrProcessorStopped
	}

	task := newTask()
	run := func() { p.run(task) }
	if pool == nil {
		go run()
		return task, nil
	}
	// Event processors hold on to their workers, submitting to a full blocking pool never returns.
	if pool.Free() == 0 {
		p.state.Store(int32(StateIdle))
		return nil, errorx.ErrInsufficientWorkers
	}
	if err := pool.Submit(run); err != nil {
		p.state.Store(int32(StateIdle))
		return nil, fmt.Errorf("disruptor: failed to submit event processor: %w", err)
	}
	return task, nil
}

// WaitUntilStarted blocks until the processor loop has begun, or returns errorx.ErrStartupTimeout
// once timeout elapses. Timing out leaves the processor and the ring buffer untouched.
// It returns the *HandlerError of a LifecycleAware handler whose OnStart panicked.
func (p *BatchEventProcessor[T]) WaitUntilStarted(timeout time.Duration) error {
	if timeout <= 0 {
		select {
		case <-p.started:
			return p.startErr
		default:
			return errorx.ErrStartupTimeout
		}
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case <-p.started:
		return p.startErr
	case <-timer.C:
		return errorx.ErrStartupTimeout
	}
}

// Halt asks a running processor to stop once the batch in flight is done.
// It does not wait, join the Task for that, and it is a no-op on a processor which is not running.
func (p *BatchEventProcessor[T]) Halt() {
	if p.IsRunning() {
		p.barrier.Alert()
	}
}

func (p *BatchEventProcessor[T]) run(task *Task) {
	if p.opts.LockOSThread {
		runtime.LockOSThread()
		defer runtime.UnlockOSThread()
	}

	var onStart, onShutdown func()
	if p.lifecycleAware != nil {
		onStart, onShutdown = p.lifecycleAware.OnStart, p.lifecycleAware.OnShutdown
	}

	logger := p.opts.getLogger()
	err := p.callHook(onStart)
	p.startErr = err
	close(p.started)

	if err == nil {
		logger.Debugf("event processor started after sequence %d", p.sequence.Get())
		if err = p.processEvents(); errors.Is(err, errorx.ErrAlerted) {
			err = nil
		}
		if herr := p.callHook(onShutdown); err == nil {
			err = herr
		}
	}

	if err == nil {
		p.state.Store(int32(StateHalted))
		logger.Debugf("event processor is exiting in terms of the demand from user at sequence %d", p.sequence.Get())
	} else {
		p.state.Store(int32(StateFaulted))
		logger.Errorf("event processor is exiting due to error: %v", err)
	}
	task.finish(err)
}

// callHook runs a lifecycle hook and turns a panic into a HandlerError at the current sequence.
func (p *BatchEventProcessor[T]) callHook(hook func()) (err error) {
	if hook == nil {
		return nil
	}
	defer func() {
		if r := recover(); r != nil {
			err = &HandlerError{Sequence: p.sequence.Get(), Err: fmt.Errorf("panic: %v", r)}
		}
	}()
	hook()
	return nil
}

// processEvents only returns on alert or on a fault, the sequence is advanced
// after a whole batch has been handled and never in the middle of one.
func (p *BatchEventProcessor[T]) processEvents() (err error) {
	next := p.sequence.Get() + 1
	defer func() {
		if r := recover(); r != nil {
			err = &HandlerError{Sequence: next, Err: fmt.Errorf("panic: %v", r)}
		}
	}()

	for {
		available, werr := p.barrier.WaitFor(next)
		if werr != nil {
			if !errors.Is(werr, errorx.ErrTimeout) {
				return werr
			}
			if p.timeoutHandler != nil {
				current := p.sequence.Get()
				if terr := p.timeoutHandler.OnTimeout(current); terr != nil {
					return &HandlerError{Sequence: current, Err: terr}
				}
			}
			continue
		}

		if p.batchStartAware != nil {
			p.batchStartAware.OnBatchStart(available - next + 1)
		}
		for ; next <= available; next++ {
			if herr := p.handler.OnEvent(p.ring.Get(next), next, next == available); herr != nil {
				return &HandlerError{Sequence: next, Err: herr}
			}
		}
		p.sequence.Set(available)
	}
}
