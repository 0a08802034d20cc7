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

/*
Package disruptor is a single-producer messaging primitive for passing events between goroutines
in strict order without locks, in the manner of the LMAX Disruptor.

A RingBuffer holds a fixed number of preallocated event slots. The producer claims sequences,
writes the claimed slots in place and publishes them by moving the ring cursor, which is the one
point where producer writes become visible to consumers. A BatchEventProcessor waits on a
SequenceBarrier for the cursor to move, hands every newly available event to its EventHandler
and then advances its own Sequence once per batch. The ring buffer gates the producer on the
sequences of its consumers, so a slot is never reused before every consumer is done with it.
How a waiting consumer spends its time is up to the WaitStrategy: busy-spin, yield, sleep or block.

A producer and a consumer wired by hand:

	package main

	import (
		"fmt"
		"time"

		"github.com/panjf2000/disruptor"
	)

	type event struct{ value int64 }

	func main() {
		rb, _ := disruptor.CreateSingleProducer(func() event { return event{} }, 1024, disruptor.NewYieldingWaitStrategy())
		p, _ := disruptor.NewBatchEventProcessor(rb, rb.NewBarrier(),
			disruptor.EventHandlerFunc[event](func(e *event, seq int64, endOfBatch bool) error {
				fmt.Println(seq, e.value)
				return nil
			}))
		rb.AddGatingSequences(p.Sequence())

		task, _ := p.Start()
		_ = p.WaitUntilStarted(time.Second)

		hi := rb.NextN(10)
		for seq := hi - 9; seq <= hi; seq++ {
			rb.Get(seq).value = seq * seq
		}
		rb.PublishRange(hi-9, hi)

		for p.Sequence().Get() < hi {
		}
		p.Halt()
		_ = task.Wait()
	}

Build with the disruptor_debug tag to turn misuse of the producer API, such as claiming more
than the capacity or publishing an unclaimed sequence, into panics.
*/
package disruptor
