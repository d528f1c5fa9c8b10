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

package bootstrap

import (
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/tlg/echod"
	"github.com/tlg/echod/pkg/logging"
	"github.com/tlg/echod/pkg/pidlock"
	"github.com/tlg/echod/pkg/portguard"
)

// DefaultShutdownTimeout bounds the graceful stop of the server.
const DefaultShutdownTimeout = 10 * time.Second

// Config describes one run of the service.
type Config struct {
	// BasePort is the first candidate port.
	BasePort int
	// MaxAttempts is the number of consecutive candidates tried.
	MaxAttempts int
	// Host is the interface probed and listened on, all when empty.
	Host string

	// LockFile is the single-instance lock.
	LockFile string

	// LogDir holds the audit segments.
	LogDir string
	// SegmentSize is the rotation ceiling of a segment.
	SegmentSize int64
	// Console mirrors audit lines when set.
	Console io.Writer
	// EngineLog is the diagnostics file of the gnet engine, <LogDir>/engine.log
	// when empty. "-" leaves the engine on its own default logger.
	EngineLog string

	// Tag prefixes every reply.
	Tag string
	// TCPKeepAlive is the keepalive period of accepted sockets, off when zero.
	TCPKeepAlive time.Duration
	// ShutdownTimeout bounds the graceful stop.
	ShutdownTimeout time.Duration

	// OnReady is called once the server listens.
	OnReady func(srv *echod.Server)
}

// DefaultConfig returns the configuration used when nothing is overridden.
func DefaultConfig() Config {
	return Config{
		BasePort:        portguard.DefaultBasePort,
		MaxAttempts:     portguard.DefaultMaxAttempts,
		LockFile:        pidlock.DefaultPath,
		LogDir:          "logs",
		SegmentSize:     logging.DefaultSegmentSize,
		Tag:             echod.DefaultTag,
		ShutdownTimeout: DefaultShutdownTimeout,
	}
}

// normalize fills the zero fields of c with defaults.
func (c *Config) normalize() {
	def := DefaultConfig()
	if c.LockFile == "" {
		c.LockFile = def.LockFile
	}
	if c.LogDir == "" {
		c.LogDir = def.LogDir
	}
	if c.SegmentSize <= 0 {
		c.SegmentSize = def.SegmentSize
	}
	if c.EngineLog == "" {
		c.EngineLog = filepath.Join(c.LogDir, "engine.log")
	}
	if c.Tag == "" {
		c.Tag = def.Tag
	}
	if c.ShutdownTimeout <= 0 {
		c.ShutdownTimeout = def.ShutdownTimeout
	}
}

func (c *Config) String() string {
	return fmt.Sprintf("ports %d+%d, lock %s, logs %s (segments of %s), tag %q",
		c.BasePort, c.MaxAttempts, c.LockFile, c.LogDir, humanize.IBytes(uint64(c.SegmentSize)), c.Tag)
}
