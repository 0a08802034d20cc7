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

//go:build !disruptor_debug

package disruptor

// debugBuild reports whether precondition checks are compiled in.
const debugBuild = false

// assertf is compiled out of release builds, misuse of the producer API is undefined behavior.
func assertf(bool, string, ...interface{}) {}
