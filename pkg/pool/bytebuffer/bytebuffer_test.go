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

package bytebuffer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppendTagged(t *testing.T) {
	b := Get()
	defer Put(b)

	AppendTagged(b, "echod", " server received: ", []byte("ping"))
	assert.Equal(t, "[echod] server received: ping", b.String())

	b.Reset()
	AppendTagged(b, "", ": ", nil)
	assert.Equal(t, "[]: ", b.String())
}

func TestGetAfterPutIsEmpty(t *testing.T) {
	b := Get()
	AppendTagged(b, "x", " ", []byte("leftover"))
	Put(b)

	b = Get()
	defer Put(b)
	assert.Zero(t, b.Len())
}

func TestPutNil(t *testing.T) {
	assert.NotPanics(t, func() { Put(nil) })
}
