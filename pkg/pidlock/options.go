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

package pidlock

import (
	"os"

	"github.com/tlg/echod/pkg/logging"
)

// Option is a function that will set up option.
type Option func(opts *Options)

func loadOptions(options ...Option) *Options {
	opts := &Options{
		PID:    os.Getpid(),
		Logger: logging.Nop(),
		Alive:  IsProcessAlive,
	}
	for _, option := range options {
		option(opts)
	}
	return opts
}

// Options are configurations for a Guard.
type Options struct {
	// PID is written into the lock file, the current process by default.
	PID int

	// Logger receives the lifecycle of the lock.
	Logger logging.Logger

	// Alive probes whether the owner recorded in an existing lock is running.
	Alive func(pid int) bool
}

// WithLogger sets up the logger.
func WithLogger(logger logging.Logger) Option {
	return func(opts *Options) {
		if logger != nil {
			opts.Logger = logger
		}
	}
}

// WithPID sets up the pid written into the lock file.
func WithPID(pid int) Option {
	return func(opts *Options) {
		opts.PID = pid
	}
}

// WithLivenessProbe replaces IsProcessAlive.
func WithLivenessProbe(alive func(pid int) bool) Option {
	return func(opts *Options) {
		if alive != nil {
			opts.Alive = alive
		}
	}
}
