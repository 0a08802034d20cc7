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

import "github.com/panjf2000/disruptor/pkg/pool/bytebuffer"

// BufferEvent is an event slot carrying a byte payload, the buffer is taken from the pool
// once when the ring buffer is created and reused on every wrap.
type BufferEvent struct {
	Buffer *bytebuffer.ByteBuffer
}

// NewBufferEventFactory returns the EventFactory of BufferEvent slots.
func NewBufferEventFactory() EventFactory[BufferEvent] {
	return func() BufferEvent {
		return BufferEvent{Buffer: bytebuffer.Get()}
	}
}

// Set replaces the payload with a copy of p.
func (e *BufferEvent) Set(p []byte) {
	e.Buffer.Reset()
	_, _ = e.Buffer.Write(p)
}

// SetString replaces the payload with s.
func (e *BufferEvent) SetString(s string) {
	e.Buffer.Reset()
	_, _ = e.Buffer.WriteString(s)
}

// Bytes returns the payload, it is only valid until the slot is claimed again.
func (e *BufferEvent) Bytes() []byte {
	return e.Buffer.B
}

// Len returns the length of the payload.
func (e *BufferEvent) Len() int {
	return e.Buffer.Len()
}

// ReleaseBuffers hands the buffers of every slot back to the pool, the ring buffer
// must not be used afterwards.
func ReleaseBuffers(rb *RingBuffer[BufferEvent]) {
	for i := range rb.entries {
		bytebuffer.Put(rb.entries[i].Buffer)
		rb.entries[i].Buffer = nil
	}
}

// BufferTranslator returns an EventTranslator copying p into the slot.
func BufferTranslator(p []byte) EventTranslator[BufferEvent] {
	return func(event *BufferEvent, _ int64) {
		event.Set(p)
	}
}
