// Copyright (c) 2019 Andy Pan
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

// Package goroutine provides the worker pool that event processors run on.
package goroutine

import (
	"time"

	"github.com/panjf2000/ants/v2"
)

const (
	// DefaultAntsPoolSize sets up the capacity of worker pool, 1024.
	DefaultAntsPoolSize = 1 << 10

	// ExpiryDuration is the interval time to clean up those expired workers.
	ExpiryDuration = 10 * time.Second

	// DefaultReleaseTimeout bounds how long Release waits for the workers of a pool to exit.
	DefaultReleaseTimeout = 5 * time.Second
)

func init() {
	// It closes the default pool from ants, its background goroutines are left running.
	ants.Release()
}

// Pool is the alias of ants.Pool.
type Pool = ants.Pool

// Default instantiates a blocking *Pool with the capacity of DefaultAntsPoolSize.
func Default() *Pool {
	return New(DefaultAntsPoolSize)
}

// New instantiates a blocking *Pool which is able to run size event processors at once.
//
// Event processors never return until they are halted, so the pool blocks instead of
// rejecting a submission when every worker is busy, and workers are allocated on demand.
func New(size int) *Pool {
	if size < 1 {
		size = 1
	}
	options := ants.Options{ExpiryDuration: ExpiryDuration, Nonblocking: false}
	p, _ := ants.NewPool(size, ants.WithOptions(options))
	return p
}

// Release closes p and waits for its workers and its background goroutines to exit.
// Pool.Release alone leaves the purging and ticking goroutines of ants behind.
func Release(p *Pool) error {
	return p.ReleaseTimeout(DefaultReleaseTimeout)
}
