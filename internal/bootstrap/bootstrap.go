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

// Package bootstrap runs the service: audit log, single-instance lock, port
// negotiation and the echo server, in that order, and tears them down in
// reverse.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/tlg/echod"
	errorx "github.com/tlg/echod/pkg/errors"
	"github.com/tlg/echod/pkg/logging"
	"github.com/tlg/echod/pkg/pidlock"
	"github.com/tlg/echod/pkg/portguard"
)

// Run serves until ctx is cancelled or the server exits on its own. Startup
// failures come back as returned errors, fatal ones as *errors.FatalError
// carrying the exit status; errors.ExitCode maps any of them to a status.
func Run(ctx context.Context, cfg Config) (err error) {
	cfg.normalize()

	sink := logging.New(
		logging.WithDir(cfg.LogDir),
		logging.WithSegmentSize(cfg.SegmentSize),
		logging.WithConsole(cfg.Console),
	)
	defer func() {
		if cerr := sink.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	// The audit log must be usable before anything else happens.
	if err = sink.Log(logging.InfoLevel, fmt.Sprintf("[server] starting, pid=%d, %s", os.Getpid(), cfg.String())); err != nil {
		fmt.Fprintf(os.Stderr, "echod: cannot write the audit log: %v\n", err)
		return err
	}

	guard := pidlock.New(cfg.LockFile, pidlock.WithLogger(sink))
	if err = guard.Acquire(); err != nil {
		return err
	}
	defer func() {
		if rerr := guard.Release(); rerr != nil {
			sink.Errorf("[pidlock] cannot remove lock file %s: %v", guard.Path(), rerr)
		}
	}()

	// The engine log is shared with a running instance until the lock is ours.
	var engineLogger logging.Logger
	if cfg.EngineLog != "-" {
		logger, closer, lerr := logging.NewDiagnostics(cfg.EngineLog, logging.InfoLevel)
		if lerr != nil {
			sink.Errorf("[server] cannot open the engine log %s: %v", cfg.EngineLog, lerr)
			return lerr
		}
		defer func() { _ = closer() }()
		logger.Infof("engine diagnostics of pid=%d", os.Getpid())
		engineLogger = logger
	}

	var srv *echod.Server
	start := func(port int) error {
		srv, err = echod.Start(port,
			echod.WithHost(cfg.Host),
			echod.WithTag(cfg.Tag),
			echod.WithLogger(sink),
			echod.WithEngineLogger(engineLogger),
			echod.WithTCPKeepAlive(cfg.TCPKeepAlive),
			echod.WithOnReady(cfg.OnReady),
		)
		return err
	}
	err = portguard.Negotiate(cfg.BasePort, cfg.MaxAttempts, start,
		portguard.WithHost(cfg.Host),
		portguard.WithLogger(sink),
	)
	if err != nil {
		if errors.Is(err, errorx.ErrServerBind) {
			sink.Errorf("[server] cannot start: %v", err)
		}
		return err
	}

	select {
	case <-ctx.Done():
		sink.Infof("[server] shutting down: %v", context.Cause(ctx))
	case <-srv.Done():
		err = srv.Err()
		if err == nil {
			err = errorx.ErrServerStopped
		}
		sink.Errorf("[server] stopped unexpectedly: %v", err)
		return err
	}

	stopCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err = srv.Stop(stopCtx); err != nil && !errors.Is(err, errorx.ErrServerStopped) {
		sink.Errorf("[server] graceful stop failed: %v", err)
		return err
	}
	return nil
}
