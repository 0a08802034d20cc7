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

import "fmt"

// ConfigurationError reports an invalid argument given when building a ring buffer or an event processor.
// It wraps one of the sentinel errors from pkg/errors.
type ConfigurationError struct {
	Field string
	Err   error
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("%v (field: %s)", e.Err, e.Field)
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

// HandlerError is the fault an event handler raised, by returning an error or panicking,
// while it was processing the event at Sequence. It stops the event processor.
type HandlerError struct {
	Sequence int64
	Err      error
}

func (e *HandlerError) Error() string {
	return fmt.Sprintf("disruptor: event handler failed at sequence %d: %v", e.Sequence, e.Err)
}

func (e *HandlerError) Unwrap() error {
	return e.Err
}
