// Copyright (c) 2025 The echod Authors. All rights reserved.
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

// Package goroutine is a bounded worker pool backed by ants.
package goroutine

import (
	"time"

	"github.com/panjf2000/ants/v2"
)

const (
	// DefaultPoolSize caps the number of concurrent probe clients.
	DefaultPoolSize = 1 << 10

	// ExpiryDuration is the interval time to clean up those expired workers.
	ExpiryDuration = 10 * time.Second
)

// Pool is the alias of ants.Pool.
type Pool = ants.Pool

// New returns a blocking pool of the given size: Submit waits for a free
// worker instead of failing, so no task is ever dropped.
func New(size int) (*Pool, error) {
	if size <= 0 {
		size = DefaultPoolSize
	}
	options := ants.Options{ExpiryDuration: ExpiryDuration, Nonblocking: false}
	return ants.NewPool(size, ants.WithOptions(options))
}
