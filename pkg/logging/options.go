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

package logging

import (
	"io"
	"os"
	"time"
)

// Option is a function that will set up option.
type Option func(opts *Options)

func loadOptions(options ...Option) *Options {
	opts := &Options{
		Dir:         "logs",
		SegmentSize: DefaultSegmentSize,
		Level:       InfoLevel,
		StartTime:   time.Now(),
		ErrorOutput: os.Stderr,
	}
	for _, option := range options {
		option(opts)
	}
	return opts
}

// Options are configurations for the audit log.
type Options struct {
	// Dir is the directory segments are written to, created on first write.
	Dir string

	// SegmentSize is the size ceiling of one segment in bytes.
	SegmentSize int64

	// Level is the lowest level written.
	Level Level

	// StartTime names the segments; it defaults to the time New is called.
	StartTime time.Time

	// Console, when set, receives a copy of every line.
	Console io.Writer

	// ErrorOutput receives failures of the printf-style methods, which have no error to return.
	ErrorOutput io.Writer
}

// WithDir sets up the segment directory.
func WithDir(dir string) Option {
	return func(opts *Options) {
		opts.Dir = dir
	}
}

// WithSegmentSize sets up the segment size ceiling.
func WithSegmentSize(size int64) Option {
	return func(opts *Options) {
		opts.SegmentSize = size
	}
}

// WithLevel sets up the lowest level written.
func WithLevel(level Level) Option {
	return func(opts *Options) {
		opts.Level = level
	}
}

// WithStartTime sets up the time the segment names derive from.
func WithStartTime(t time.Time) Option {
	return func(opts *Options) {
		opts.StartTime = t
	}
}

// WithConsole mirrors every line to w.
func WithConsole(w io.Writer) Option {
	return func(opts *Options) {
		opts.Console = w
	}
}

// WithErrorOutput sets up where write failures of the printf-style methods go.
func WithErrorOutput(w io.Writer) Option {
	return func(opts *Options) {
		opts.ErrorOutput = w
	}
}
