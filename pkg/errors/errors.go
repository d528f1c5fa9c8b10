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

// Package errors defines common errors for echod and the fatal error type
// that carries a process exit status up to the single place allowed to exit.
package errors

import (
	"errors"
	"fmt"
)

var (
	// ErrInstanceRunning occurs when the lock file belongs to a live process.
	ErrInstanceRunning = errors.New("echod: another instance is running")
	// ErrNoPortAvailable occurs when every candidate port is already in use.
	ErrNoPortAvailable = errors.New("echod: no port available")
	// ErrPortProbe occurs when probing a candidate port fails for any reason other than the port being in use.
	ErrPortProbe = errors.New("echod: unexpected port probe error")
	// ErrInvalidPortRange occurs when the base port or the number of attempts is out of range.
	ErrInvalidPortRange = errors.New("echod: invalid port range")
	// ErrNilCallback occurs when a required callback is nil.
	ErrNilCallback = errors.New("echod: nil callback is not allowed")
	// ErrServerBind occurs when the connection server cannot listen on the negotiated port.
	ErrServerBind = errors.New("echod: server failed to bind")
	// ErrServerStopped occurs when trying to stop a server that is not running.
	ErrServerStopped = errors.New("echod: server is not running")
	// ErrLogSink occurs when the log sink cannot be opened or written.
	ErrLogSink = errors.New("echod: log sink failure")
)

// Process exit statuses. 102 and 112 are log codes only, the process keeps running.
const (
	ExitFailure           = 1
	ExitSingletonConflict = 101
	CodeStaleLock         = 102
	ExitNoPortAvailable   = 111
	CodePortInUse         = 112
	ExitPortProbe         = 113
)

// FatalError is a startup failure that must terminate the process with Code.
type FatalError struct {
	Code int
	Err  error
}

func (e *FatalError) Error() string {
	return fmt.Sprintf("%v (exit status %d)", e.Err, e.Code)
}

func (e *FatalError) Unwrap() error {
	return e.Err
}

// Fatal wraps err into a *FatalError with the given exit status.
func Fatal(code int, err error) error {
	if err == nil {
		return nil
	}
	return &FatalError{Code: code, Err: err}
}

// ExitCode returns the exit status err calls for: 0 for nil, the code of the
// outermost *FatalError in the chain, ExitFailure otherwise.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var fe *FatalError
	if errors.As(err, &fe) {
		return fe.Code
	}
	return ExitFailure
}
