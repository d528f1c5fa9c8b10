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
	"time"

	"go.uber.org/zap/zapcore"
)

func zapcoreEntry(level Level, msg string) zapcore.Entry {
	return zapcore.Entry{
		Level:   level,
		Time:    time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
		Message: msg,
	}
}
