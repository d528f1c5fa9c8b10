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
	"io"

	"github.com/gobwas/ws"
	"github.com/gobwas/ws/wsutil"

	"github.com/tlg/echod/pkg/pool/bytebuffer"
)

// ReplyPrefix is the text between the tag and the echoed message.
const ReplyPrefix = " server received: "

// FormatReply returns the payload of the reply to message.
func FormatReply(tag string, message []byte) []byte {
	buf := bytebuffer.Get()
	defer bytebuffer.Put(buf)
	bytebuffer.AppendTagged(buf, tag, ReplyPrefix, message)
	return append([]byte(nil), buf.B...)
}

// writeEcho sends the tagged echo of msg with the opcode msg arrived with.
func writeEcho(w io.Writer, tag string, msg wsutil.Message) error {
	buf := bytebuffer.Get()
	defer bytebuffer.Put(buf)
	bytebuffer.AppendTagged(buf, tag, ReplyPrefix, msg.Payload)
	return wsutil.WriteServerMessage(w, msg.OpCode, buf.B)
}

// closeReply echoes the status code of a close frame, or answers with a
// normal closure when the client sent none.
func closeReply(payload []byte) []byte {
	if len(payload) >= 2 {
		return payload[:2]
	}
	return ws.NewCloseFrameBody(ws.StatusNormalClosure, "")
}
