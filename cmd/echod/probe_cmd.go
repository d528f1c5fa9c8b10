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

package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/multierr"

	"github.com/tlg/echod/pkg/probe"
)

func newProbeCommand() *cobra.Command {
	var (
		url      string
		clients  int
		poolSize int
		messages []string
		timeout  time.Duration
	)
	cmd := &cobra.Command{
		Use:   "probe",
		Short: "Check a running echod by sending messages from concurrent clients",
		Example: `
  echod probe --url ws://localhost:8080 --clients 16 -m ping -m pong
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			report, err := probe.Fanout(cmd.Context(), url, clients, messages,
				probe.WithTimeout(timeout),
				probe.WithPoolSize(poolSize),
			)
			if report != nil {
				fmt.Fprintln(cmd.OutOrStdout(), report)
			}
			for _, e := range multierr.Errors(err) {
				fmt.Fprintln(cmd.ErrOrStderr(), e)
			}
			if err != nil {
				return fmt.Errorf("probe failed for %d client(s)", len(multierr.Errors(err)))
			}
			return nil
		},
	}
	flags := cmd.Flags()
	flags.StringVar(&url, "url", "ws://localhost:8080", "address of the echo server")
	flags.IntVar(&clients, "clients", 1, "number of concurrent clients")
	flags.IntVar(&poolSize, "pool-size", 0, "clients running at once, all when 0")
	flags.StringArrayVarP(&messages, "message", "m", []string{"ping"}, "message to send, repeatable")
	flags.DurationVar(&timeout, "timeout", probe.DefaultTimeout, "dial and round trip timeout")
	return cmd
}
