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
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"

	"github.com/panjf2000/gnet/v2"
	gerrors "github.com/panjf2000/gnet/v2/pkg/errors"

	errorx "github.com/tlg/echod/pkg/errors"
	"github.com/tlg/echod/pkg/logging"
)

// Server is a running echo server.
type Server struct {
	opts     *Options
	port     int
	addr     string
	log      logging.Logger
	registry *Registry

	eng    gnet.Engine
	booted chan struct{}
	done   chan struct{}
	err    error
}

// Start listens on port and serves until Stop is called or the engine fails.
// It returns once the server listens, after OnReady has run; a bind failure is
// returned wrapped in errors.ErrServerBind.
func Start(port int, options ...Option) (*Server, error) {
	opts := loadOptions(options...)
	if opts.Logger == nil {
		opts.Logger = logging.Nop()
	}
	if opts.Tag == "" {
		opts.Tag = DefaultTag
	}
	if opts.MaxFrameSize <= 0 {
		opts.MaxFrameSize = DefaultMaxFrameSize
	}
	if port <= 0 || port > 65535 {
		return nil, fmt.Errorf("%w: invalid port %d", errorx.ErrServerBind, port)
	}

	s := &Server{
		opts:     opts,
		port:     port,
		addr:     net.JoinHostPort(opts.Host, strconv.Itoa(port)),
		log:      opts.Logger,
		registry: newRegistry(),
		booted:   make(chan struct{}),
		done:     make(chan struct{}),
	}

	engineOpts := []gnet.Option{
		gnet.WithMulticore(false),
		gnet.WithReusePort(false),
	}
	if opts.TCPKeepAlive > 0 {
		engineOpts = append(engineOpts, gnet.WithTCPKeepAlive(opts.TCPKeepAlive))
	}
	if opts.EngineLogger != nil {
		engineOpts = append(engineOpts, gnet.WithLogger(opts.EngineLogger))
	}

	go func() {
		s.err = gnet.Run(&eventHandler{srv: s}, "tcp://"+s.addr, engineOpts...)
		close(s.done)
	}()

	select {
	case <-s.booted:
	case <-s.done:
		err := s.err
		if err == nil {
			err = errorx.ErrServerStopped
		}
		s.log.Errorf("[server] cannot listen on %s: %v", s.addr, err)
		return nil, fmt.Errorf("%w: %s: %w", errorx.ErrServerBind, s.addr, err)
	}

	s.log.Infof("[server] started, listening on ws://%s", s.displayAddr())
	if opts.OnReady != nil {
		opts.OnReady(s)
	}
	return s, nil
}

// Stop shuts the engine down, closing every connection, and waits for it to
// exit or for ctx to end. Stopping a server that has already exited returns
// errors.ErrServerStopped.
func (s *Server) Stop(ctx context.Context) error {
	select {
	case <-s.done:
		return errorx.ErrServerStopped
	default:
	}

	if err := s.eng.Stop(ctx); err != nil && !errors.Is(err, gerrors.ErrEngineInShutdown) {
		return err
	}
	select {
	case <-s.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Done is closed when the engine has exited.
func (s *Server) Done() <-chan struct{} {
	return s.done
}

// Err returns the error the engine exited with, valid once Done is closed.
func (s *Server) Err() error {
	select {
	case <-s.done:
		return s.err
	default:
		return nil
	}
}

// Port returns the port the server listens on.
func (s *Server) Port() int {
	return s.port
}

// Addr returns the listen address.
func (s *Server) Addr() string {
	return s.addr
}

// Tag returns the reply tag.
func (s *Server) Tag() string {
	return s.opts.Tag
}

// Registry returns the sessions of this server.
func (s *Server) Registry() *Registry {
	return s.registry
}

func (s *Server) displayAddr() string {
	if s.opts.Host == "" {
		return net.JoinHostPort("localhost", strconv.Itoa(s.port))
	}
	return s.addr
}
