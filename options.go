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

package echod

import (
	"time"

	"github.com/tlg/echod/pkg/logging"
)

const (
	// DefaultTag prefixes every reply.
	DefaultTag = "echod"

	// DefaultMaxFrameSize bounds the payload of a single inbound frame.
	DefaultMaxFrameSize = 16 << 20
)

// Option is a function that will set up option.
type Option func(opts *Options)

func loadOptions(options ...Option) *Options {
	opts := &Options{
		Tag:          DefaultTag,
		Logger:       logging.Nop(),
		MaxFrameSize: DefaultMaxFrameSize,
	}
	for _, option := range options {
		option(opts)
	}
	return opts
}

// Options are configurations for the echo server.
type Options struct {
	// Host is the address to listen on, all interfaces when empty.
	Host string

	// Tag is the server tag of every reply.
	Tag string

	// Logger receives the connection and traffic events.
	Logger logging.Logger

	// EngineLogger receives the internal messages of the gnet engine,
	// gnet's own default logger is used when it is nil.
	EngineLogger logging.Logger

	// TCPKeepAlive sets up the SO_KEEPALIVE period of accepted sockets, disabled when zero.
	TCPKeepAlive time.Duration

	// MaxFrameSize is the largest payload accepted in one frame; larger frames close the connection.
	MaxFrameSize int

	// OnReady is called once, after the server listens.
	OnReady func(srv *Server)
}

// WithOptions sets up all options.
func WithOptions(options Options) Option {
	return func(opts *Options) {
		*opts = options
	}
}

// WithHost sets up the listen address.
func WithHost(host string) Option {
	return func(opts *Options) {
		opts.Host = host
	}
}

// WithTag sets up the reply tag.
func WithTag(tag string) Option {
	return func(opts *Options) {
		opts.Tag = tag
	}
}

// WithLogger sets up the event logger.
func WithLogger(logger logging.Logger) Option {
	return func(opts *Options) {
		if logger != nil {
			opts.Logger = logger
		}
	}
}

// WithEngineLogger sets up the logger of the gnet engine.
func WithEngineLogger(logger logging.Logger) Option {
	return func(opts *Options) {
		opts.EngineLogger = logger
	}
}

// WithTCPKeepAlive sets up the SO_KEEPALIVE socket option with duration.
func WithTCPKeepAlive(tcpKeepAlive time.Duration) Option {
	return func(opts *Options) {
		opts.TCPKeepAlive = tcpKeepAlive
	}
}

// WithMaxFrameSize sets up the largest accepted frame payload.
func WithMaxFrameSize(size int) Option {
	return func(opts *Options) {
		opts.MaxFrameSize = size
	}
}

// WithOnReady sets up the callback run once the server listens.
func WithOnReady(onReady func(srv *Server)) Option {
	return func(opts *Options) {
		opts.OnReady = onReady
	}
}
