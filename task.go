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

import "context"

// Task is the handle of a running event processor.
type Task struct {
	done chan struct{}
	err  error
}

func newTask() *Task {
	return &Task{done: make(chan struct{})}
}

// finish must be called exactly once.
func (t *Task) finish(err error) {
	t.err = err
	close(t.done)
}

// Done returns a channel that is closed when the event processor has stopped.
func (t *Task) Done() <-chan struct{} {
	return t.done
}

// Wait blocks until the event processor has stopped and returns the fault that stopped it,
// nil if it was halted.
func (t *Task) Wait() error {
	<-t.done
	return t.err
}

// WaitContext is like Wait but gives up when ctx is done.
func (t *Task) WaitContext(ctx context.Context) error {
	select {
	case <-t.done:
		return t.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Err returns the fault that stopped the event processor, nil while it is still running.
func (t *Task) Err() error {
	select {
	case <-t.done:
		return t.err
	default:
		return nil
	}
}
