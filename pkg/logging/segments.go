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
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/dustin/go-humanize"

	errorx "github.com/tlg/echod/pkg/errors"
)

// DefaultSegmentSize is the size ceiling of one segment, 5 MiB.
const DefaultSegmentSize = 5 * 1024 * 1024

const baseLayout = "2006-01-02T15-04-05.000Z"

// Segments is a zapcore.WriteSyncer that appends to
//
//	<dir>/server_<start>_part<N>.log
//
// starting at part 1. A write that would push the active part past the ceiling
// goes whole into part N+1; parts are never merged, truncated or removed.
// Every write is fsynced before Write returns.
type Segments struct {
	mu    sync.Mutex
	dir   string
	base  string
	limit int64
	part  int
	size  int64
	file  *os.File
}

// NewSegments returns a writer whose file names derive from start.
// A non-positive limit means DefaultSegmentSize.
func NewSegments(dir string, start time.Time, limit int64) *Segments {
	if limit <= 0 {
		limit = DefaultSegmentSize
	}
	return &Segments{
		dir:   dir,
		base:  "server_" + start.UTC().Format(baseLayout),
		limit: limit,
		part:  1,
	}
}

// Write appends p to the active part, rotating first when p does not fit.
// An empty part is never rotated away from, so an entry larger than the
// ceiling still lands in exactly one part.
func (s *Segments) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.file == nil {
		if err := s.open(); err != nil {
			return 0, err
		}
	}
	if s.size > 0 && s.size+int64(len(p)) > s.limit {
		if err := s.rotate(); err != nil {
			return 0, err
		}
	}

	n, err := s.file.Write(p)
	s.size += int64(n)
	if err != nil {
		return n, fmt.Errorf("%w: write %s: %w", errorx.ErrLogSink, s.file.Name(), err)
	}
	if err = s.file.Sync(); err != nil {
		return n, fmt.Errorf("%w: sync %s: %w", errorx.ErrLogSink, s.file.Name(), err)
	}
	return n, nil
}

// Sync flushes the active part.
func (s *Segments) Sync() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.file == nil {
		return nil
	}
	return s.file.Sync()
}

// Close closes the active part. A later Write reopens it.
func (s *Segments) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.file == nil {
		return nil
	}
	err := s.file.Close()
	s.file = nil
	return err
}

// Part returns the number of the active part.
func (s *Segments) Part() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.part
}

// Path returns the file path of the active part.
func (s *Segments) Path() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.path(s.part)
}

// Limit returns the size ceiling of one part in bytes.
func (s *Segments) Limit() int64 {
	return s.limit
}

// String describes the writer for log lines.
func (s *Segments) String() string {
	return fmt.Sprintf("%s (parts of %s)", filepath.Join(s.dir, s.base+"_part*.log"), humanize.IBytes(uint64(s.limit)))
}

func (s *Segments) path(part int) string {
	return filepath.Join(s.dir, fmt.Sprintf("%s_part%d.log", s.base, part))
}

func (s *Segments) open() error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("%w: create log directory: %w", errorx.ErrLogSink, err)
	}
	f, err := os.OpenFile(s.path(s.part), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("%w: open segment: %w", errorx.ErrLogSink, err)
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return fmt.Errorf("%w: stat segment: %w", errorx.ErrLogSink, err)
	}
	s.file, s.size = f, info.Size()
	return nil
}

func (s *Segments) rotate() error {
	err := s.file.Close()
	s.file = nil
	s.part++
	if err != nil {
		return fmt.Errorf("%w: close segment: %w", errorx.ErrLogSink, err)
	}
	return s.open()
}
