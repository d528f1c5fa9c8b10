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

package logging

import (
	"bytes"

	"go.uber.org/zap/buffer"
	"go.uber.org/zap/zapcore"
)

const timeLayout = "2006-01-02T15:04:05.000Z07:00"

// lineEncoder renders "[LEVEL] [time] message" and leaves structured fields
// to the embedded JSON encoder, appended after the message when there are any.
type lineEncoder struct {
	zapcore.Encoder

	bufPool buffer.Pool
}

func newLineEncoder() zapcore.Encoder {
	// Every key is empty, so the JSON encoder only ever emits the fields.
	fieldsOnly := zapcore.EncoderConfig{
		LineEnding:     "\n",
		EncodeDuration: zapcore.StringDurationEncoder,
		EncodeTime:     zapcore.RFC3339TimeEncoder,
	}
	return &lineEncoder{
		Encoder: zapcore.NewJSONEncoder(fieldsOnly),
		bufPool: buffer.NewPool(),
	}
}

func (e *lineEncoder) Clone() zapcore.Encoder {
	return &lineEncoder{
		Encoder: e.Encoder.Clone(),
		bufPool: e.bufPool,
	}
}

func (e *lineEncoder) EncodeEntry(entry zapcore.Entry, fields []zapcore.Field) (*buffer.Buffer, error) {
	buf := e.bufPool.Get()

	buf.AppendByte('[')
	buf.AppendString(entry.Level.CapitalString())
	buf.AppendString("] [")
	buf.AppendString(entry.Time.UTC().Format(timeLayout))
	buf.AppendString("] ")
	appendOneLine(buf, entry.Message)

	extra, err := e.Encoder.EncodeEntry(zapcore.Entry{}, fields)
	if err != nil {
		buf.Free()
		return nil, err
	}
	if obj := bytes.TrimRight(extra.Bytes(), "\n"); len(obj) > 0 && !bytes.Equal(obj, []byte("{}")) {
		buf.AppendByte(' ')
		_, _ = buf.Write(obj)
	}
	extra.Free()

	buf.AppendByte('\n')
	return buf, nil
}

// appendOneLine writes msg with CR, LF and backslash escaped, so one entry is
// always one line.
func appendOneLine(buf *buffer.Buffer, msg string) {
	start := 0
	for i := 0; i < len(msg); i++ {
		var esc string
		switch msg[i] {
		case '\n':
			esc = `\n`
		case '\r':
			esc = `\r`
		case '\\':
			esc = `\\`
		default:
			continue
		}
		buf.AppendString(msg[start:i])
		buf.AppendString(esc)
		start = i + 1
	}
	buf.AppendString(msg[start:])
}
