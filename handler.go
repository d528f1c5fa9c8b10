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
	"github.com/gobwas/ws"
	"github.com/gobwas/ws/wsutil"
	"github.com/panjf2000/gnet/v2"
)

// connState is the per-connection context attached to a gnet.Conn.
type connState struct {
	id     uint64
	remote string
	codec  *wsCodec
}

// eventHandler runs on the single event loop of a Server.
type eventHandler struct {
	gnet.BuiltinEventEngine

	srv *Server
}

func (h *eventHandler) OnBoot(eng gnet.Engine) gnet.Action {
	h.srv.eng = eng
	close(h.srv.booted)
	return gnet.None
}

func (h *eventHandler) OnShutdown(_ gnet.Engine) {
	h.srv.log.Infof("[server] stopped, %d connection(s) dropped", h.srv.registry.Len())
}

func (h *eventHandler) OnOpen(c gnet.Conn) ([]byte, gnet.Action) {
	sess := h.srv.registry.open(c.RemoteAddr())
	c.SetContext(&connState{
		id:     sess.ID,
		remote: sess.Remote,
		codec:  newWSCodec(h.srv.opts.MaxFrameSize),
	})
	return nil, gnet.None
}

func (h *eventHandler) OnClose(c gnet.Conn, err error) gnet.Action {
	st, ok := c.Context().(*connState)
	if !ok {
		return gnet.None
	}
	sess, ok := h.srv.registry.close(st.id)
	if !ok {
		return gnet.None
	}
	if err != nil {
		h.srv.log.Warnf("[server] client disconnected: %s (id=%d, error: %v)", sess.Remote, sess.ID, err)
	} else {
		h.srv.log.Infof("[server] client disconnected: %s (id=%d)", sess.Remote, sess.ID)
	}
	return gnet.None
}

func (h *eventHandler) OnTraffic(c gnet.Conn) gnet.Action {
	st, ok := c.Context().(*connState)
	if !ok {
		return gnet.Close
	}
	buf, err := c.Next(-1)
	if err != nil {
		h.srv.log.Warnf("[server] read from %s failed: %v", st.remote, err)
		return gnet.Close
	}
	st.codec.feed(buf)

	if !st.codec.upgraded {
		ok, err := st.codec.upgrade(c)
		if err != nil {
			h.srv.log.Warnf("[server] upgrade of %s failed: %v", st.remote, err)
			return gnet.Close
		}
		if !ok {
			return gnet.None
		}
		h.srv.registry.connect(st.id)
		h.srv.log.Infof("[server] client connected: %s (id=%d)", st.remote, st.id)
	}

	messages, err := st.codec.decode()
	for _, msg := range messages {
		if action := h.handle(c, st, msg); action != gnet.None {
			return action
		}
	}
	if err != nil {
		h.srv.log.Warnf("[server] bad frame from %s: %v", st.remote, err)
		return gnet.Close
	}
	return gnet.None
}

// handle answers one client message.
func (h *eventHandler) handle(c gnet.Conn, st *connState, msg wsutil.Message) gnet.Action {
	switch msg.OpCode {
	case ws.OpText, ws.OpBinary:
		h.srv.log.Infof("[server] message received from %s: %s", st.remote, msg.Payload)
		if err := writeEcho(c, h.srv.opts.Tag, msg); err != nil {
			h.srv.log.Warnf("[server] reply to %s failed: %v", st.remote, err)
			return gnet.Close
		}
	case ws.OpPing:
		if err := wsutil.WriteServerMessage(c, ws.OpPong, msg.Payload); err != nil {
			return gnet.Close
		}
	case ws.OpClose:
		_ = wsutil.WriteServerMessage(c, ws.OpClose, closeReply(msg.Payload))
		return gnet.Close
	}
	return gnet.None
}
