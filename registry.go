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
	"net"
	"sort"
	"sync"
	"time"
)

// State is the lifecycle stage of a session.
type State int

const (
	// Handshaking sessions have not completed the WebSocket upgrade yet.
	Handshaking State = iota
	// Connected sessions exchange messages.
	Connected
	// Closed sessions are gone from the registry.
	Closed
)

func (s State) String() string {
	switch s {
	case Handshaking:
		return "handshaking"
	case Connected:
		return "connected"
	case Closed:
		return "closed"
	}
	return "unknown"
}

// Session describes one client connection.
type Session struct {
	ID       uint64
	Remote   string
	OpenedAt time.Time
	State    State
}

// Registry tracks the open sessions of one Server. The event loop writes it;
// any goroutine may read it.
type Registry struct {
	mu       sync.RWMutex
	nextID   uint64
	sessions map[uint64]*Session
}

func newRegistry() *Registry {
	return &Registry{sessions: make(map[uint64]*Session)}
}

func (r *Registry) open(remote net.Addr) Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	s := &Session{ID: r.nextID, Remote: addrString(remote), OpenedAt: time.Now(), State: Handshaking}
	r.sessions[s.ID] = s
	return *s
}

func (r *Registry) connect(id uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.sessions[id]; ok {
		s.State = Connected
	}
}

func (r *Registry) close(id uint64) (Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok {
		return Session{}, false
	}
	delete(r.sessions, id)
	s.State = Closed
	return *s, true
}

// Len returns the number of open sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Get returns the open session with the given id.
func (r *Registry) Get(id uint64) (Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[id]
	if !ok {
		return Session{}, false
	}
	return *s, true
}

// Snapshot returns copies of the open sessions, oldest first.
func (r *Registry) Snapshot() []Session {
	r.mu.RLock()
	out := make([]Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		out = append(out, *s)
	}
	r.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func addrString(addr net.Addr) string {
	if addr == nil {
		return "unknown"
	}
	return addr.String()
}
