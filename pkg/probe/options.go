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

package probe

import (
	"time"

	"github.com/tlg/echod/pkg/logging"
)

// DefaultTimeout bounds the dial and every single round trip.
const DefaultTimeout = 5 * time.Second

// Option is a function that will set up option.
type Option func(opts *Options)

func loadOptions(options ...Option) *Options {
	opts := &Options{
		Timeout: DefaultTimeout,
		Logger:  logging.Nop(),
	}
	for _, option := range options {
		option(opts)
	}
	return opts
}

// Options are configurations for probe clients.
type Options struct {
	// Timeout bounds the handshake and each echo round trip.
	Timeout time.Duration

	// Logger receives one line per client outcome in Fanout.
	Logger logging.Logger

	// PoolSize caps the number of clients running at once in Fanout,
	// all of them when zero.
	PoolSize int
}

// WithTimeout sets up the dial and round trip timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(opts *Options) {
		if timeout > 0 {
			opts.Timeout = timeout
		}
	}
}

// WithLogger sets up a customized logger.
func WithLogger(logger logging.Logger) Option {
	return func(opts *Options) {
		if logger != nil {
			opts.Logger = logger
		}
	}
}

// WithPoolSize sets up the number of clients Fanout runs at once.
func WithPoolSize(size int) Option {
	return func(opts *Options) {
		opts.PoolSize = size
	}
}
