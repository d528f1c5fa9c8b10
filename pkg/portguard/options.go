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

package portguard

import (
	"net"

	"github.com/tlg/echod/pkg/logging"
)

// ListenFunc opens the probe listener for one candidate.
type ListenFunc func(network, address string) (net.Listener, error)

// Option is a function that will set up option.
type Option func(opts *Options)

func loadOptions(options ...Option) *Options {
	opts := &Options{
		Logger: logging.Nop(),
		Listen: net.Listen,
	}
	for _, option := range options {
		option(opts)
	}
	return opts
}

// Options are configurations for Negotiate.
type Options struct {
	// Host is the address probed, all interfaces when empty.
	Host string

	// Logger receives one line per candidate outcome.
	Logger logging.Logger

	// Listen opens probe listeners, net.Listen by default.
	Listen ListenFunc
}

// WithHost sets up the probed address.
func WithHost(host string) Option {
	return func(opts *Options) {
		opts.Host = host
	}
}

// WithLogger sets up the logger.
func WithLogger(logger logging.Logger) Option {
	return func(opts *Options) {
		if logger != nil {
			opts.Logger = logger
		}
	}
}

// WithListen replaces net.Listen for probing.
func WithListen(listen ListenFunc) Option {
	return func(opts *Options) {
		if listen != nil {
			opts.Listen = listen
		}
	}
}
