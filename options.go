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
	"time"

	"github.com/panjf2000/disruptor/pkg/logging"
	"github.com/panjf2000/disruptor/pkg/pool/goroutine"
)

// DefaultStartTimeout is how long Disruptor.Start waits for every event processor to come up.
const DefaultStartTimeout = 5 * time.Second

// Option is a function that will set up option.
type Option func(opts *Options)

func loadOptions(options ...Option) *Options {
	opts := new(Options)
	for _, option := range options {
		option(opts)
	}
	return opts
}

// Options are configurations shared by ring buffers, event processors and disruptors.
type Options struct {
	// WaitStrategy is the strategy a Disruptor builds its ring buffer with,
	// a YieldingWaitStrategy is used if it's nil.
	WaitStrategy WaitStrategy

	// Logger is the customized logger for logging info, if it is not set,
	// then disruptor will use the default logger powered by go.uber.org/zap.
	Logger logging.Logger

	// WorkerPool is the goroutine pool event processors are submitted to, if it is not set,
	// every event processor runs on its own goroutine. A Disruptor creates and releases
	// a pool of its own when this is nil.
	WorkerPool *goroutine.Pool

	// LockOSThread is used to determine whether each event processor will be bound to an OS thread,
	// it is useful when a handler needs to make cgo calls or rely on thread-local state.
	LockOSThread bool

	// StartTimeout bounds how long Disruptor.Start waits for the event processors to start,
	// DefaultStartTimeout is used if it's not positive.
	StartTimeout time.Duration
}

func (opts *Options) getLogger() logging.Logger {
	if opts.Logger != nil {
		return opts.Logger
	}
	return logging.GetDefaultLogger()
}

// WithOptions sets up all options.
func WithOptions(options Options) Option {
	return func(opts *Options) {
		*opts = options
	}
}

// WithWaitStrategy sets up the wait strategy of the ring buffer built by a Disruptor.
func WithWaitStrategy(strategy WaitStrategy) Option {
	return func(opts *Options) {
		opts.WaitStrategy = strategy
	}
}

// WithLogger sets up a customized logger.
func WithLogger(logger logging.Logger) Option {
	return func(opts *Options) {
		opts.Logger = logger
	}
}

// WithWorkerPool sets up the goroutine pool event processors run on.
func WithWorkerPool(pool *goroutine.Pool) Option {
	return func(opts *Options) {
		opts.WorkerPool = pool
	}
}

// WithLockOSThread sets up LockOSThread mode for event processors.
func WithLockOSThread(lockOSThread bool) Option {
	return func(opts *Options) {
		opts.LockOSThread = lockOSThread
	}
}

// WithStartTimeout sets up how long a Disruptor waits for its event processors to start.
func WithStartTimeout(timeout time.Duration) Option {
	return func(opts *Options) {
		opts.StartTimeout = timeout
	}
}
