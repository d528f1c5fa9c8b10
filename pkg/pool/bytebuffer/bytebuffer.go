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

// Package bytebuffer holds the buffers echo replies are assembled in before
// they are framed and written out.
package bytebuffer

import "github.com/valyala/bytebufferpool"

// ByteBuffer holds one reply payload.
type ByteBuffer = bytebufferpool.ByteBuffer

// Reply sizes follow client message sizes, so they get their own calibrated
// pool instead of sharing the package default.
var replies bytebufferpool.Pool

// Get returns an empty reply buffer.
func Get() *ByteBuffer {
	return replies.Get()
}

// Put gives b back to the pool, nil is ignored. b must not be used afterwards.
func Put(b *ByteBuffer) {
	if b != nil {
		replies.Put(b)
	}
}

// AppendTagged appends "[tag]", infix and payload to b, in that order.
func AppendTagged(b *ByteBuffer, tag, infix string, payload []byte) {
	b.B = append(b.B, '[')
	b.B = append(b.B, tag...)
	b.B = append(b.B, ']')
	b.B = append(b.B, infix...)
	b.B = append(b.B, payload...)
}
