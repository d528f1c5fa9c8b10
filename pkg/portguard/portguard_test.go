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
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errorx "github.com/tlg/echod/pkg/errors"
	"github.com/tlg/echod/pkg/logging"
)

// freeWindow finds n consecutive ports that can all be bound right now.
func freeWindow(t *testing.T, n int) int {
	t.Helper()
	for attempt := 0; attempt < 50; attempt++ {
		ln, err := net.Listen("tcp", ":0")
		require.NoError(t, err)
		base := ln.Addr().(*net.TCPAddr).Port
		_ = ln.Close()
		if base+n-1 > maxPort {
			continue
		}
		ok := true
		for p := base; p < base+n; p++ {
			l, err := net.Listen("tcp", ":"+strconv.Itoa(p))
			if err != nil {
				ok = false
				break
			}
			_ = l.Close()
		}
		if ok {
			return base
		}
	}
	t.Fatalf("no window of %d free ports found", n)
	return 0
}

func occupy(t *testing.T, port int) {
	t.Helper()
	ln, err := net.Listen("tcp", ":"+strconv.Itoa(port))
	require.NoError(t, err)
	t.Cleanup(func() { _ = ln.Close() })
}

func newSink(t *testing.T) *logging.Sink {
	t.Helper()
	sink := logging.New(logging.WithDir(t.TempDir()))
	t.Cleanup(func() { _ = sink.Close() })
	return sink
}

func logLines(t *testing.T, sink *logging.Sink, level string) []string {
	t.Helper()
	data, err := os.ReadFile(sink.Segments().Path())
	require.NoError(t, err)
	var out []string
	for _, line := range strings.Split(string(data), "\n") {
		if strings.HasPrefix(line, "["+level+"]") {
			out = append(out, line)
		}
	}
	return out
}

func TestCandidates(t *testing.T) {
	assert.Equal(t, []int{8080, 8081, 8082}, Candidates(8080, 3))
	assert.Nil(t, Candidates(8080, 0))
	assert.Len(t, Candidates(DefaultBasePort, DefaultMaxAttempts), 8)
}

func TestNegotiateFirstFree(t *testing.T) {
	base := freeWindow(t, 4)

	var got []int
	err := Negotiate(base, 4, func(port int) error {
		got = append(got, port)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []int{base}, got)
}

func TestNegotiateSkipsOccupiedBase(t *testing.T) {
	// The 8080-occupied scenario, relocated to a window known to be free.
	base := freeWindow(t, DefaultMaxAttempts)
	occupy(t, base)
	sink := newSink(t)

	var got []int
	err := Negotiate(base, DefaultMaxAttempts, func(port int) error {
		got = append(got, port)
		return nil
	}, WithLogger(sink))
	require.NoError(t, err)
	assert.Equal(t, []int{base + 1}, got)

	warns := logLines(t, sink, "WARN")
	require.Len(t, warns, 1)
	assert.Contains(t, warns[0], fmt.Sprintf("112 port %d is in use", base))
	assert.Empty(t, logLines(t, sink, "ERROR"))
}

func TestNegotiateExhausted(t *testing.T) {
	base := freeWindow(t, 3)
	for p := base; p < base+3; p++ {
		occupy(t, p)
	}
	sink := newSink(t)

	called := 0
	err := Negotiate(base, 3, func(int) error {
		called++
		return nil
	}, WithLogger(sink))
	require.Error(t, err)
	assert.ErrorIs(t, err, errorx.ErrNoPortAvailable)
	assert.Equal(t, errorx.ExitNoPortAvailable, errorx.ExitCode(err))
	assert.Zero(t, called)
	assert.Len(t, logLines(t, sink, "WARN"), 3)
	errs := logLines(t, sink, "ERROR")
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0], "111 no port available")
}

func TestNegotiateUnexpectedProbeError(t *testing.T) {
	denied := errors.New("permission denied")
	var checked []string
	listen := func(network, address string) (net.Listener, error) {
		checked = append(checked, address)
		return nil, &net.OpError{Op: "listen", Net: network, Err: denied}
	}

	called := false
	err := Negotiate(1000, 5, func(int) error {
		called = true
		return nil
	}, WithListen(listen), WithHost("127.0.0.1"))
	require.Error(t, err)
	assert.ErrorIs(t, err, errorx.ErrPortProbe)
	assert.ErrorIs(t, err, denied)
	assert.Equal(t, errorx.ExitPortProbe, errorx.ExitCode(err))
	assert.False(t, called)
	assert.Equal(t, []string{"127.0.0.1:1000"}, checked, "no candidate after a fatal check error")
}

func TestNegotiateProbesInOrder(t *testing.T) {
	var checked []string
	listen := func(network, address string) (net.Listener, error) {
		checked = append(checked, address)
		if len(checked) < 3 {
			return nil, &net.OpError{Op: "listen", Net: network, Err: os.NewSyscallError("bind", addrInUse)}
		}
		return net.Listen("tcp", "127.0.0.1:0")
	}

	var got int
	err := Negotiate(9000, 8, func(port int) error {
		got = port
		return nil
	}, WithListen(listen))
	require.NoError(t, err)
	assert.Equal(t, 9002, got)
	assert.Equal(t, []string{":9000", ":9001", ":9002"}, checked)
}

func TestNegotiateReturnsCallbackError(t *testing.T) {
	base := freeWindow(t, 2)
	boom := errors.New("server failed")
	calls := 0
	err := Negotiate(base, 2, func(int) error {
		calls++
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, calls, "a failing callback is not retried on the next port")
}

func TestNegotiatePreconditions(t *testing.T) {
	noop := func(int) error { return nil }
	listen := func(string, string) (net.Listener, error) {
		t.Fatal("no socket may be opened for invalid arguments")
		return nil, nil
	}

	cases := []struct {
		name     string
		base     int
		attempts int
		onReady  func(int) error
		want     error
	}{
		{"zero base", 0, 8, noop, errorx.ErrInvalidPortRange},
		{"negative base", -80, 8, noop, errorx.ErrInvalidPortRange},
		{"zero attempts", 8080, 0, noop, errorx.ErrInvalidPortRange},
		{"negative attempts", 8080, -1, noop, errorx.ErrInvalidPortRange},
		{"past last port", 65530, 8, noop, errorx.ErrInvalidPortRange},
		{"nil callback", 8080, 8, nil, errorx.ErrNilCallback},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := Negotiate(tc.base, tc.attempts, tc.onReady, WithListen(listen))
			assert.ErrorIs(t, err, tc.want)
			assert.Equal(t, errorx.ExitFailure, errorx.ExitCode(err))
		})
	}
}
