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
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/tlg/echod/internal/bootstrap"
	errorx "github.com/tlg/echod/pkg/errors"
)

const envPrefix = "ECHOD"

func submain(ctx context.Context, args []string) int {
	cmd := newRootCommand()
	cmd.SetArgs(args)
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := cmd.ExecuteContext(ctx); err != nil {
		if !errors.Is(err, context.Canceled) {
			fmt.Fprintf(os.Stderr, "echod: %s\n", err)
		}
		return errorx.ExitCode(err)
	}
	return 0
}

func newRootCommand() *cobra.Command {
	return buildRootCommand(viper.New())
}

func buildRootCommand(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "echod",
		Short:         "echod is a single-instance WebSocket echo server with a rotating audit log",
		SilenceErrors: true,
		Example: `
  # Serve on the first free port of 8080-8087
  echod

  # Another range, smaller segments, lines mirrored to the terminal
  echod --base-port 9000 --max-attempts 4 --log-segment-size 1MiB --console

  # Same through the environment
  ECHOD_BASE_PORT=9000 ECHOD_TAG=edge echod
`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			if _, err := loadConfigFile(v); err != nil {
				return err
			}
			cfg, err := bindConfig(v)
			if err != nil {
				return err
			}
			if v.GetBool("console") {
				cfg.Console = cmd.OutOrStdout()
			}
			return bootstrap.Run(cmd.Context(), cfg)
		},
	}

	def := bootstrap.DefaultConfig()
	flags := cmd.Flags()
	flags.String("config", "", "path to a YAML, TOML or JSON config file")
	flags.Int("base-port", def.BasePort, "first candidate port")
	flags.Int("max-attempts", def.MaxAttempts, "number of consecutive ports to try")
	flags.String("host", "", "interface to listen on, all when empty")
	flags.String("lock-file", def.LockFile, "single-instance lock file")
	flags.String("log-dir", def.LogDir, "directory of the audit log segments")
	flags.String("log-segment-size", humanizeBytes(def.SegmentSize), "size at which the audit log rotates to a new part")
	flags.String("engine-log", "", "diagnostics file of the network engine (default <log-dir>/engine.log, - to disable)")
	flags.Bool("console", false, "mirror audit lines to stdout")
	flags.String("tag", def.Tag, "tag prefixed to every reply")
	flags.Duration("tcp-keepalive", 0, "keepalive period of client sockets, 0 to disable")
	flags.Duration("shutdown-timeout", def.ShutdownTimeout, "bound of the graceful stop")

	bindFlags(v, flags)

	cmd.AddCommand(newProbeCommand())
	cmd.AddCommand(newVersionCommand())
	return cmd
}

func bindFlags(v *viper.Viper, flags *pflag.FlagSet) {
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	flags.VisitAll(func(flag *pflag.Flag) {
		if err := v.BindPFlag(flag.Name, flag); err != nil {
			panic(err)
		}
	})
}

func bindConfig(v *viper.Viper) (bootstrap.Config, error) {
	cfg := bootstrap.DefaultConfig()
	cfg.BasePort = v.GetInt("base-port")
	cfg.MaxAttempts = v.GetInt("max-attempts")
	cfg.Host = v.GetString("host")
	cfg.LockFile = v.GetString("lock-file")
	cfg.LogDir = v.GetString("log-dir")
	cfg.EngineLog = v.GetString("engine-log")
	cfg.Tag = v.GetString("tag")
	cfg.TCPKeepAlive = v.GetDuration("tcp-keepalive")
	cfg.ShutdownTimeout = v.GetDuration("shutdown-timeout")
	if segment := v.GetString("log-segment-size"); segment != "" {
		size, err := humanize.ParseBytes(segment)
		if err != nil {
			return cfg, fmt.Errorf("parse log-segment-size: %w", err)
		}
		if size == 0 {
			return cfg, fmt.Errorf("log-segment-size must be positive")
		}
		cfg.SegmentSize = int64(size)
	}
	return cfg, nil
}

func loadConfigFile(v *viper.Viper) (string, error) {
	path := strings.TrimSpace(v.GetString("config"))
	if path == "" {
		return "", nil
	}
	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("config file %q: %w", path, err)
	}
	if info.IsDir() {
		return "", fmt.Errorf("config file %q is a directory", path)
	}
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return "", fmt.Errorf("read config file %q: %w", path, err)
	}
	return path, nil
}

func humanizeBytes(n int64) string {
	return strings.ReplaceAll(humanize.IBytes(uint64(n)), " ", "")
}
