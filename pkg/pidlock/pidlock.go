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

// Package pidlock keeps a single live echod per host through a lock file that
// holds the pid of its owner.
//
// A lock whose owner is gone is stale and is replaced. Liveness is a signal-free
// probe, see IsProcessAlive for its limits.
package pidlock

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"sync"

	errorx "github.com/tlg/echod/pkg/errors"
	"github.com/tlg/echod/pkg/logging"
)

// DefaultPath is the lock file used when none is configured.
const DefaultPath = ".server.lock"

// Guard owns the lock file of one process.
type Guard struct {
	mu    sync.Mutex
	path  string
	pid   int
	log   logging.Logger
	alive func(pid int) bool
	held  bool
}

// New returns a Guard for the lock file at path.
func New(path string, options ...Option) *Guard {
	opts := loadOptions(options...)
	if path == "" {
		path = DefaultPath
	}
	return &Guard{
		path:  path,
		pid:   opts.PID,
		log:   opts.Logger,
		alive: opts.Alive,
	}
}

// Path returns the lock file path.
func (g *Guard) Path() string {
	return g.path
}

// Acquire claims the lock for the current process.
//
// A lock held by a live process yields a *errors.FatalError with status 101 and
// leaves the file as it is. A stale lock is removed and replaced.
func (g *Guard) Acquire() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	for {
		err := g.create()
		if err == nil {
			g.held = true
			g.log.Infof("[pidlock] lock file %s written, pid=%d", g.path, g.pid)
			return nil
		}
		if !errors.Is(err, fs.ErrExist) {
			g.log.Errorf("[pidlock] cannot write lock file %s: %v", g.path, err)
			return fmt.Errorf("pidlock: %w", err)
		}

		owner, err := g.owner()
		switch {
		case errors.Is(err, fs.ErrNotExist):
			// Removed between our create and read; try again.
			continue
		case err != nil && !errors.Is(err, errMalformed):
			g.log.Errorf("[pidlock] cannot read lock file %s: %v", g.path, err)
			return fmt.Errorf("pidlock: %w", err)
		case err == nil && owner == g.pid:
			g.held = true
			g.log.Infof("[pidlock] lock file %s already held by this process, pid=%d", g.path, g.pid)
			return nil
		case err == nil && g.alive(owner):
			g.log.Errorf("[pidlock] %d another instance is running, pid=%d, refusing to start",
				errorx.ExitSingletonConflict, owner)
			return errorx.Fatal(errorx.ExitSingletonConflict, fmt.Errorf("%w: pid %d holds %s",
				errorx.ErrInstanceRunning, owner, g.path))
		}

		if err != nil {
			g.log.Warnf("[pidlock] %d lock file %s is unreadable (%v), treating it as stale",
				errorx.CodeStaleLock, g.path, err)
		} else {
			g.log.Warnf("[pidlock] %d stale lock file found, pid=%d is not running, continuing",
				errorx.CodeStaleLock, owner)
		}
		if err := os.Remove(g.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			g.log.Errorf("[pidlock] cannot remove stale lock file %s: %v", g.path, err)
			return fmt.Errorf("pidlock: remove stale lock: %w", err)
		}
	}
}

// Release removes the lock file if it is present. It is safe to call any number
// of times, with or without a prior Acquire. A lock file recording another pid
// belongs to someone else and is left alone.
func (g *Guard) Release() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.held = false
	if owner, err := g.owner(); err == nil && owner != g.pid {
		g.log.Warnf("[pidlock] lock file %s belongs to pid=%d, not removing it", g.path, owner)
		return nil
	}
	err := os.Remove(g.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		g.log.Errorf("[pidlock] cannot remove lock file %s: %v", g.path, err)
		return fmt.Errorf("pidlock: %w", err)
	}
	g.log.Infof("[pidlock] shutting down, lock file %s removed", g.path)
	return nil
}

// Held reports whether this Guard acquired the lock and has not released it.
func (g *Guard) Held() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.held
}

// create writes the pid into a lock file that must not exist yet, so two
// processes racing past the same stale lock cannot both win.
func (g *Guard) create() error {
	f, err := os.OpenFile(g.path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return err
	}
	if _, err = f.WriteString(strconv.Itoa(g.pid)); err != nil {
		_ = f.Close()
		_ = os.Remove(g.path)
		return err
	}
	if err = f.Sync(); err != nil {
		_ = f.Close()
		_ = os.Remove(g.path)
		return err
	}
	return f.Close()
}

var errMalformed = errors.New("malformed pid")

func (g *Guard) owner() (int, error) {
	raw, err := os.ReadFile(g.path)
	if err != nil {
		return 0, err
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(raw)))
	if err != nil || pid <= 0 {
		return 0, fmt.Errorf("%w: %q", errMalformed, raw)
	}
	return pid, nil
}

// ReadPID returns the pid stored in the lock file at path.
func ReadPID(path string) (int, error) {
	return (&Guard{path: path}).owner()
}
