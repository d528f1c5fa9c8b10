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
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errorx "github.com/tlg/echod/pkg/errors"
	"github.com/tlg/echod/pkg/logging"
)

func newSink(t *testing.T) (*logging.Sink, string) {
	t.Helper()
	dir := t.TempDir()
	sink := logging.New(logging.WithDir(dir))
	t.Cleanup(func() { _ = sink.Close() })
	return sink, dir
}

func logText(t *testing.T, sink *logging.Sink) string {
	t.Helper()
	data, err := os.ReadFile(sink.Segments().Path())
	require.NoError(t, err)
	return string(data)
}

func aliveIn(alive map[int]bool) func(int) bool {
	return func(pid int) bool { return alive[pid] }
}

func TestAcquireFresh(t *testing.T) {
	sink, _ := newSink(t)
	path := filepath.Join(t.TempDir(), ".server.lock")
	g := New(path, WithLogger(sink), WithPID(4242))

	require.NoError(t, g.Acquire())
	assert.True(t, g.Held())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "4242", string(data))
	assert.Contains(t, logText(t, sink), "[INFO]")
}

func TestAcquireReplacesStaleLock(t *testing.T) {
	sink, _ := newSink(t)
	path := filepath.Join(t.TempDir(), ".server.lock")
	require.NoError(t, os.WriteFile(path, []byte("31337"), 0o644))

	g := New(path, WithLogger(sink), WithPID(4242), WithLivenessProbe(aliveIn(map[int]bool{})))
	require.NoError(t, g.Acquire())

	pid, err := ReadPID(path)
	require.NoError(t, err)
	assert.Equal(t, 4242, pid)

	text := logText(t, sink)
	assert.Contains(t, text, "[WARN]")
	assert.Contains(t, text, "102 stale lock file found, pid=31337")
}

func TestAcquireConflictLeavesLockUntouched(t *testing.T) {
	sink, _ := newSink(t)
	path := filepath.Join(t.TempDir(), ".server.lock")
	require.NoError(t, os.WriteFile(path, []byte("777"), 0o644))
	before, err := os.Stat(path)
	require.NoError(t, err)

	g := New(path, WithLogger(sink), WithPID(4242), WithLivenessProbe(aliveIn(map[int]bool{777: true})))
	err = g.Acquire()
	require.Error(t, err)
	assert.ErrorIs(t, err, errorx.ErrInstanceRunning)
	assert.Equal(t, errorx.ExitSingletonConflict, errorx.ExitCode(err))
	assert.False(t, g.Held())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "777", string(data))
	after, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, before.ModTime(), after.ModTime())

	text := logText(t, sink)
	assert.Contains(t, text, "[ERROR]")
	assert.Contains(t, text, "101 another instance is running, pid=777")
}

func TestAcquireMalformedLockIsStale(t *testing.T) {
	for _, content := range []string{"", "not-a-pid", "-5", "0"} {
		t.Run(strconv.Quote(content), func(t *testing.T) {
			sink, _ := newSink(t)
			path := filepath.Join(t.TempDir(), ".server.lock")
			require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

			g := New(path, WithLogger(sink), WithPID(99))
			require.NoError(t, g.Acquire())
			pid, err := ReadPID(path)
			require.NoError(t, err)
			assert.Equal(t, 99, pid)
			assert.Contains(t, logText(t, sink), "treating it as stale")
		})
	}
}

func TestAcquireOwnLock(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".server.lock")
	require.NoError(t, os.WriteFile(path, []byte("4242\n"), 0o644))

	g := New(path, WithPID(4242), WithLivenessProbe(func(int) bool { return true }))
	require.NoError(t, g.Acquire())
	assert.True(t, g.Held())
}

func TestReleaseIsIdempotent(t *testing.T) {
	sink, _ := newSink(t)
	path := filepath.Join(t.TempDir(), ".server.lock")
	g := New(path, WithLogger(sink))

	require.NoError(t, g.Release(), "release without acquire")
	require.NoError(t, g.Acquire())
	require.NoError(t, g.Release())
	require.NoError(t, g.Release())

	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))
	assert.Equal(t, 1, strings.Count(logText(t, sink), "lock file "+path+" removed"))
}

func TestReleaseKeepsForeignLock(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".server.lock")
	require.NoError(t, os.WriteFile(path, []byte("777"), 0o644))

	g := New(path, WithPID(4242))
	require.NoError(t, g.Release())
	_, err := os.Stat(path)
	assert.NoError(t, err)
}

func TestAcquireAfterReleaseBySecondGuard(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".server.lock")
	first := New(path, WithPID(1001), WithLivenessProbe(func(int) bool { return true }))
	second := New(path, WithPID(1002), WithLivenessProbe(func(int) bool { return true }))

	require.NoError(t, first.Acquire())
	assert.Equal(t, errorx.ExitSingletonConflict, errorx.ExitCode(second.Acquire()))
	require.NoError(t, first.Release())
	require.NoError(t, second.Acquire())
}

func TestDefaultPath(t *testing.T) {
	assert.Equal(t, DefaultPath, New("").Path())
}
