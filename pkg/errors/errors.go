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

// Package errors defines common errors for disruptor.
package errors

import "errors"

var (
	// ErrNilFactory occurs when a ring buffer is created without an event factory.
	ErrNilFactory = errors.New("disruptor: the event factory is nil")
	// ErrNonPositiveCapacity occurs when a ring buffer is created with a capacity less than one.
	ErrNonPositiveCapacity = errors.New("disruptor: capacity must not be less than 1")
	// ErrNotPowerOfTwo occurs when a ring buffer is created with a capacity that is not a power of two.
	ErrNotPowerOfTwo = errors.New("disruptor: capacity must be a power of 2")
	// ErrNilRingBuffer occurs when an event processor is created without a ring buffer.
	ErrNilRingBuffer = errors.New("disruptor: the ring buffer is nil")
	// ErrNilBarrier occurs when an event processor is created without a sequence barrier.
	ErrNilBarrier = errors.New("disruptor: the sequence barrier is nil")
	// ErrNilHandler occurs when an event processor is created without an event handler.
	ErrNilHandler = errors.New("disruptor: the event handler is nil")
	// ErrAlerted occurs when a sequence barrier has been alerted while waiting.
	ErrAlerted = errors.New("disruptor: the sequence barrier is alerted")
	// ErrTimeout occurs when a wait strategy gives up waiting after its timeout.
	ErrTimeout = errors.New("disruptor: timed out waiting for sequence")
	// ErrInsufficientCapacity occurs when a non-blocking claim finds the ring buffer full.
	ErrInsufficientCapacity = errors.New("disruptor: insufficient capacity in the ring buffer")
	// ErrStartupTimeout occurs when an event processor does not start within the given timeout.
	ErrStartupTimeout = errors.New("disruptor: event processor did not start in time")
	// ErrProcessorRunning occurs when starting an event processor which is already running.
	ErrProcessorRunning = errors.New("disruptor: event processor is already running")
	// ErrProcessorStopped occurs when starting an event processor which has already stopped.
	ErrProcessorStopped = errors.New("disruptor: event processor has already stopped")
	// ErrInsufficientWorkers occurs when a worker pool has fewer free workers than there are event processors to run.
	ErrInsufficientWorkers = errors.New("disruptor: not enough free workers in the worker pool")
	// ErrDisruptorStarted occurs when wiring or starting a disruptor that has already been started.
	ErrDisruptorStarted = errors.New("disruptor: the disruptor has already been started")
	// ErrNoHandlers occurs when starting a disruptor without any event handler.
	ErrNoHandlers = errors.New("disruptor: no event handler has been registered")
	// ErrShutdownTimeout occurs when the consumers do not drain the ring buffer within the shutdown timeout.
	ErrShutdownTimeout = errors.New("disruptor: timed out draining the ring buffer")
)
