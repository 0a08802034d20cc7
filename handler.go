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

// EventHandler consumes the events published to a ring buffer.
//
// OnEvent is called once per sequence in strictly increasing order, endOfBatch is true for the
// last sequence currently available, handlers that buffer work should flush on it.
// The event is owned by the handler only for the duration of the call. A non-nil error stops
// the event processor.
type EventHandler[T any] interface {
	OnEvent(event *T, sequence int64, endOfBatch bool) error
}

// EventHandlerFunc is an adapter to allow the use of an ordinary function as an EventHandler.
type EventHandlerFunc[T any] func(event *T, sequence int64, endOfBatch bool) error

// OnEvent calls f(event, sequence, endOfBatch).
func (f EventHandlerFunc[T]) OnEvent(event *T, sequence int64, endOfBatch bool) error {
	return f(event, sequence, endOfBatch)
}

// LifecycleAware is implemented by handlers that want to be told when their
// event processor starts and stops, both are called on the processor goroutine.
type LifecycleAware interface {
	OnStart()
	OnShutdown()
}

// BatchStartAware is implemented by handlers that want to know the size of a batch before it is delivered.
type BatchStartAware interface {
	OnBatchStart(batchSize int64)
}

// TimeoutHandler is implemented by handlers that want to run periodic work while the ring is idle,
// OnTimeout is called every time a TimeoutBlockingWaitStrategy gives up waiting.
type TimeoutHandler interface {
	OnTimeout(sequence int64) error
}

// SequenceReportingEventHandler is implemented by handlers that release slots before the end of
// a batch by setting the given sequence themselves.
type SequenceReportingEventHandler interface {
	SetSequenceCallback(sequence *Sequence)
}
