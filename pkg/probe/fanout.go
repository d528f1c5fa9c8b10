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

package probe

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/multierr"

	"github.com/tlg/echod/pkg/pool/goroutine"
)

// ErrBadEcho occurs when a reply does not end with the message it answers.
var ErrBadEcho = errors.New("probe: reply does not echo the message")

// Report sums up a Fanout run.
type Report struct {
	Clients  int
	Sent     int
	Echoed   int
	Failed   int
	Elapsed  time.Duration
	Failures error
}

func (r *Report) String() string {
	return fmt.Sprintf("%d client(s), %d sent, %d echoed, %d failed in %s",
		r.Clients, r.Sent, r.Echoed, r.Failed, r.Elapsed.Round(time.Millisecond))
}

// Fanout connects clients clients to url at once; each sends every message in
// order and checks its own replies. The returned error is the combination of
// every client failure, nil when all messages came back.
func Fanout(ctx context.Context, url string, clients int, messages []string, options ...Option) (*Report, error) {
	opts := loadOptions(options...)
	if clients <= 0 {
		return nil, fmt.Errorf("probe: invalid client count %d", clients)
	}
	size := opts.PoolSize
	if size <= 0 || size > clients {
		size = clients
	}
	pool, err := goroutine.New(size)
	if err != nil {
		return nil, err
	}
	defer pool.Release()

	var (
		mu     sync.Mutex
		wg     sync.WaitGroup
		report = &Report{Clients: clients}
	)
	record := func(sent, echoed int, err error) {
		mu.Lock()
		defer mu.Unlock()
		report.Sent += sent
		report.Echoed += echoed
		if err != nil {
			report.Failed++
			report.Failures = multierr.Append(report.Failures, err)
		}
	}

	start := time.Now()
	for i := 0; i < clients; i++ {
		id := i
		wg.Add(1)
		err := pool.Submit(func() {
			defer wg.Done()
			sent, echoed, err := runClient(ctx, url, messages, opts)
			if err != nil {
				err = fmt.Errorf("client %d: %w", id, err)
				opts.Logger.Warnf("[probe] %v", err)
			} else {
				opts.Logger.Infof("[probe] client %d: %d message(s) echoed", id, echoed)
			}
			record(sent, echoed, err)
		})
		if err != nil {
			wg.Done()
			record(0, 0, fmt.Errorf("client %d: %w", id, err))
		}
	}
	wg.Wait()
	report.Elapsed = time.Since(start)
	return report, report.Failures
}

func runClient(ctx context.Context, url string, messages []string, opts *Options) (sent, echoed int, err error) {
	c, err := Dial(ctx, url, WithTimeout(opts.Timeout))
	if err != nil {
		return 0, 0, err
	}
	defer func() {
		err = multierr.Append(err, c.Close())
	}()

	for _, msg := range messages {
		if err = ctx.Err(); err != nil {
			return
		}
		if err = c.Send(msg); err != nil {
			return
		}
		sent++
		var reply string
		if reply, _, err = c.Receive(); err != nil {
			return
		}
		if !strings.HasSuffix(reply, msg) {
			err = fmt.Errorf("%w: sent %q, got %q", ErrBadEcho, msg, reply)
			return
		}
		echoed++
	}
	return
}
