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

// Package portguard picks the first free TCP port out of a consecutive range.
package portguard

import (
	"fmt"
	"net"
	"strconv"
	"strings"

	errorx "github.com/tlg/echod/pkg/errors"
)

const (
	// DefaultBasePort is the first candidate port.
	DefaultBasePort = 8080
	// DefaultMaxAttempts is the number of candidates.
	DefaultMaxAttempts = 8

	maxPort = 65535
)

// Candidates returns [basePort, basePort+1, ..., basePort+maxAttempts-1].
func Candidates(basePort, maxAttempts int) []int {
	if maxAttempts <= 0 {
		return nil
	}
	ports := make([]int, maxAttempts)
	for i := range ports {
		ports[i] = basePort + i
	}
	return ports
}

// Negotiate probes the candidate ports one at a time, in order, and hands the
// first one it can bind to onReady. It returns whatever onReady returns.
//
// onReady runs at most once. A port in use moves on to the next candidate; any
// other bind error stops with a fatal error of status 113, and running out of
// candidates stops with a fatal error of status 111. Invalid arguments are
// rejected before any socket is opened.
func Negotiate(basePort, maxAttempts int, onReady func(port int) error, options ...Option) error {
	opts := loadOptions(options...)
	log := opts.Logger

	if basePort <= 0 || maxAttempts <= 0 || basePort+maxAttempts-1 > maxPort {
		log.Errorf("[portguard] 115 invalid port range: basePort=%d maxAttempts=%d", basePort, maxAttempts)
		return fmt.Errorf("%w: basePort=%d maxAttempts=%d, want positive values ending at or below %d",
			errorx.ErrInvalidPortRange, basePort, maxAttempts, maxPort)
	}
	if onReady == nil {
		log.Errorf("[portguard] 116 onReady callback is nil")
		return fmt.Errorf("%w: onReady", errorx.ErrNilCallback)
	}

	candidates := Candidates(basePort, maxAttempts)
	log.Infof("[portguard] candidate ports: %s", joinPorts(candidates))

	for _, port := range candidates {
		ln, err := opts.Listen("tcp", net.JoinHostPort(opts.Host, strconv.Itoa(port)))
		if err != nil {
			if IsAddrInUse(err) {
				log.Warnf("[portguard] %d port %d is in use, trying the next one", errorx.CodePortInUse, port)
				continue
			}
			log.Errorf("[portguard] %d probing port %d failed: %v", errorx.ExitPortProbe, port, err)
			return errorx.Fatal(errorx.ExitPortProbe, fmt.Errorf("%w: port %d: %w", errorx.ErrPortProbe, port, err))
		}
		if err = ln.Close(); err != nil {
			log.Warnf("[portguard] closing probe listener on port %d: %v", port, err)
		}
		log.Infof("[portguard] port %d is available, probe listener closed", port)
		return onReady(port)
	}

	log.Errorf("[portguard] %d no port available in %d-%d, cannot start",
		errorx.ExitNoPortAvailable, basePort, basePort+maxAttempts-1)
	return errorx.Fatal(errorx.ExitNoPortAvailable, fmt.Errorf("%w: tried %d-%d",
		errorx.ErrNoPortAvailable, basePort, basePort+maxAttempts-1))
}

func joinPorts(ports []int) string {
	var sb strings.Builder
	for i, p := range ports {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(strconv.Itoa(p))
	}
	return sb.String()
}
