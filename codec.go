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
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/gobwas/ws"
	"github.com/gobwas/ws/wsutil"
)

var (
	// errFrameTooLarge occurs when a client frame announces more payload than allowed.
	errFrameTooLarge = errors.New("echod: frame too large")
	// errRequestTooLarge occurs when the upgrade request does not end within maxRequestSize bytes.
	errRequestTooLarge = errors.New("echod: upgrade request too large")
)

// maxRequestSize bounds the HTTP upgrade request.
const maxRequestSize = 8 << 10

var headerEnd = []byte("\r\n\r\n")

// wsCodec turns the byte stream of one connection into WebSocket messages.
//
// The event loop hands over whatever bytes have arrived, which may end in the
// middle of the upgrade request or of a frame; incomplete input stays buffered
// until the next call.
type wsCodec struct {
	upgraded bool
	maxFrame int

	in     bytes.Buffer // bytes received and not consumed yet
	msg    bytes.Buffer // frames of the data message being assembled
	ctrl   bytes.Buffer // the control frame being assembled
	header *ws.Header   // header of the frame whose payload is pending

	assembled int64 // payload bytes of the data message in msg, bounded by maxFrame
}

func newWSCodec(maxFrame int) *wsCodec {
	return &wsCodec{maxFrame: maxFrame}
}

type readWriter struct {
	io.Reader
	io.Writer
}

func isShortRead(err error) bool {
	return errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF)
}

func (w *wsCodec) feed(p []byte) {
	_, _ = w.in.Write(p)
}

// upgrade answers the HTTP upgrade request through out once it is complete.
// It reports false while the request is still partial.
func (w *wsCodec) upgrade(out io.Writer) (bool, error) {
	if w.upgraded {
		return true, nil
	}
	end := bytes.Index(w.in.Bytes(), headerEnd)
	if end < 0 {
		if w.in.Len() > maxRequestSize {
			return false, errRequestTooLarge
		}
		return false, nil
	}
	request := w.in.Next(end + len(headerEnd))
	if _, err := ws.Upgrade(readWriter{bytes.NewReader(request), out}); err != nil {
		return false, err
	}
	w.upgraded = true
	return true, nil
}

// decode returns every message completed by the buffered input, in order.
// Control frames are returned on their own, even in the middle of a fragmented
// data message.
func (w *wsCodec) decode() (messages []wsutil.Message, err error) {
	for {
		if w.header == nil {
			if w.in.Len() < ws.MinHeaderSize {
				return messages, nil
			}
			r := bytes.NewReader(w.in.Bytes())
			size := r.Len()
			head, err := ws.ReadHeader(r)
			if err != nil {
				if isShortRead(err) {
					return messages, nil
				}
				return messages, err
			}
			total := head.Length
			if !head.OpCode.IsControl() {
				total += w.assembled
			}
			if total > int64(w.maxFrame) {
				return messages, fmt.Errorf("%w: %d bytes", errFrameTooLarge, total)
			}
			if !head.OpCode.IsControl() {
				w.assembled = total
			}
			w.in.Next(size - r.Len())
			w.header = &head
			if err = ws.WriteHeader(w.target(), head); err != nil {
				return messages, err
			}
		}

		n := int(w.header.Length)
		if w.in.Len() < n {
			return messages, nil
		}
		dst := w.target()
		_, _ = dst.Write(w.in.Next(n))

		fin := w.header.Fin
		w.header = nil
		if !fin {
			continue
		}
		if dst == &w.msg {
			w.assembled = 0
		}
		if messages, err = wsutil.ReadClientMessage(dst, messages); err != nil {
			return messages, err
		}
		dst.Reset()
	}
}

func (w *wsCodec) target() *bytes.Buffer {
	if w.header != nil && w.header.OpCode.IsControl() {
		return &w.ctrl
	}
	return &w.msg
}
