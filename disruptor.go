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
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	errorx "github.com/panjf2000/disruptor/pkg/errors"
	"github.com/panjf2000/disruptor/pkg/pool/goroutine"
)

// Disruptor wires a single-producer ring buffer with its event processors.
//
// Handlers registered with HandleEventsWith read straight off the ring buffer, handlers chained
// with Then only see an event once every handler of the previous group has handled it.
// Only the last group of every chain gates the producer.
type Disruptor[T any] struct {
	ring        *RingBuffer[T]
	opts        *Options
	processors  []*BatchEventProcessor[T]
	tasks       []*Task
	pool        *goroutine.Pool
	ownPool     bool
	releaseOnce sync.Once
	started     atomic.Bool
}

// New creates a Disruptor over a ring buffer of capacity slots allocated by factory.
func New[T any](factory EventFactory[T], capacity int, opts ...Option) (*Disruptor[T], error) {
	options := loadOptions(opts...)
	ring, err := CreateSingleProducer(factory, capacity, options.WaitStrategy, WithOptions(*options))
	if err != nil {
		return nil, err
	}
	return &Disruptor[T]{ring: ring, opts: options}, nil
}

// EventHandlerGroup is a set of event processors at the same stage of a pipeline.
type EventHandlerGroup[T any] struct {
	d         *Disruptor[T]
	sequences []*Sequence
}

// Then adds one event processor per handler, each of them waiting for the whole group.
func (g *EventHandlerGroup[T]) Then(handlers ...EventHandler[T]) (*EventHandlerGroup[T], error) {
	return g.d.createEventProcessors(g.sequences, handlers)
}

// Sequences returns the sequences of the event processors in the group.
func (g *EventHandlerGroup[T]) Sequences() []*Sequence {
	seqs := make([]*Sequence, len(g.sequences))
	copy(seqs, g.sequences)
	return seqs
}

// HandleEventsWith adds one event processor per handler, all of them reading the ring buffer in parallel.
func (d *Disruptor[T]) HandleEventsWith(handlers ...EventHandler[T]) (*EventHandlerGroup[T], error) {
	return d.createEventProcessors(nil, handlers)
}

func (d *Disruptor[T]) createEventProcessors(barrierSequences []*Sequence, handlers []EventHandler[T]) (*EventHandlerGroup[T], error) {
	if d.started.Load() {
		return nil, errorx.ErrDisruptorStarted
	}
	if len(handlers) == 0 {
		return nil, errorx.ErrNoHandlers
	}

	processors := make([]*BatchEventProcessor[T], 0, len(handlers))
	sequences := make([]*Sequence, 0, len(handlers))
	for _, handler := range handlers {
		p, err := NewBatchEventProcessor(d.ring, d.ring.NewBarrier(barrierSequences...), handler, WithOptions(*d.opts))
		if err != nil {
			return nil, err
		}
		processors = append(processors, p)
		sequences = append(sequences, p.Sequence())
	}
	d.processors = append(d.processors, processors...)

	d.ring.AddGatingSequences(sequences...)
	for _, seq := range barrierSequences {
		d.ring.RemoveGatingSequence(seq)
	}

	return &EventHandlerGroup[T]{d: d, sequences: sequences}, nil
}

// Start starts every event processor and waits until all of them are running.
// Without a pool set by WithWorkerPool, the Disruptor runs them on a pool of its own,
// a given pool must have a free worker for every event processor.
func (d *Disruptor[T]) Start() error {
	if len(d.processors) == 0 {
		return errorx.ErrNoHandlers
	}
	// Every event processor keeps its worker until it stops.
	if pool := d.opts.WorkerPool; pool != nil {
		if free := pool.Free(); free >= 0 && free < len(d.processors) {
			return fmt.Errorf("%w: %d free for %d event processors", errorx.ErrInsufficientWorkers, free, len(d.processors))
		}
	}
	if !d.started.CompareAndSwap(false, true) {
		return errorx.ErrDisruptorStarted
	}

	if d.pool = d.opts.WorkerPool; d.pool == nil {
		d.pool, d.ownPool = goroutine.New(len(d.processors)), true
	}
	timeout := d.opts.StartTimeout
	if timeout <= 0 {
		timeout = DefaultStartTimeout
	}

	for _, p := range d.processors {
		task, err := p.start(d.pool)
		if err != nil {
			d.abort()
			return err
		}
		d.tasks = append(d.tasks, task)
	}
	for _, p := range d.processors {
		if err := p.WaitUntilStarted(timeout); err != nil {
			d.abort()
			return err
		}
	}
	d.opts.getLogger().Infof("disruptor started with %d event processors on a ring of %d slots",
		len(d.processors), d.ring.BufferSize())

	return nil
}

func (d *Disruptor[T]) abort() {
	d.Halt()
	_ = d.Wait()
}

// Halt asks every event processor to stop, events still in the ring buffer are left unprocessed.
func (d *Disruptor[T]) Halt() {
	for _, p := range d.processors {
		p.Halt()
	}
}

// Wait blocks until every event processor has stopped and returns the first handler fault.
func (d *Disruptor[T]) Wait() error {
	if !d.started.Load() {
		return nil
	}

	var g errgroup.Group
	for _, task := range d.tasks {
		g.Go(task.Wait)
	}
	err := g.Wait()
	d.releaseOnce.Do(func() {
		if !d.ownPool {
			return
		}
		if rerr := goroutine.Release(d.pool); rerr != nil {
			err = errors.Join(err, fmt.Errorf("disruptor: failed to release the worker pool: %w", rerr))
		}
	})
	return err
}

// Shutdown waits until every event published so far has been handled, then halts the event
// processors and joins them. It gives up draining after timeout, a non-positive timeout
// waits as long as it takes. A faulted processor ends the draining early.
func (d *Disruptor[T]) Shutdown(timeout time.Duration) error {
	if !d.started.Load() {
		return nil
	}

	deadline := time.Now().Add(timeout)
	for d.hasBacklog() && !d.hasStopped() {
		if timeout > 0 && time.Now().After(deadline) {
			d.Halt()
			return errors.Join(errorx.ErrShutdownTimeout, d.Wait())
		}
		runtime.Gosched()
	}

	d.Halt()
	return d.Wait()
}

func (d *Disruptor[T]) hasBacklog() bool {
	cursor := d.ring.Cursor()
	for _, p := range d.processors {
		if p.Sequence().Get() < cursor {
			return true
		}
	}
	return false
}

func (d *Disruptor[T]) hasStopped() bool {
	for _, task := range d.tasks {
		select {
		case <-task.Done():
			return true
		default:
		}
	}
	return false
}

// PublishEvent claims a slot, fills it with translator and publishes it.
func (d *Disruptor[T]) PublishEvent(translator EventTranslator[T]) int64 {
	return d.ring.PublishEvent(translator)
}

// RingBuffer returns the ring buffer, producers publish to it directly.
func (d *Disruptor[T]) RingBuffer() *RingBuffer[T] {
	return d.ring
}

// Cursor returns the highest published sequence.
func (d *Disruptor[T]) Cursor() int64 {
	return d.ring.Cursor()
}
