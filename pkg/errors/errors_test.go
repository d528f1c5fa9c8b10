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

package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExitCode(t *testing.T) {
	assert.Equal(t, 0, ExitCode(nil))
	assert.Equal(t, ExitFailure, ExitCode(errors.New("boom")))
	assert.Equal(t, ExitSingletonConflict, ExitCode(Fatal(ExitSingletonConflict, ErrInstanceRunning)))

	wrapped := fmt.Errorf("bootstrap: %w", Fatal(ExitNoPortAvailable, ErrNoPortAvailable))
	assert.Equal(t, ExitNoPortAvailable, ExitCode(wrapped))
	assert.ErrorIs(t, wrapped, ErrNoPortAvailable)
}

func TestFatalNil(t *testing.T) {
	assert.NoError(t, Fatal(ExitPortProbe, nil))
}

func TestFatalErrorMessage(t *testing.T) {
	err := Fatal(ExitPortProbe, fmt.Errorf("%w: port 8080: permission denied", ErrPortProbe))
	assert.EqualError(t, err, "echod: unexpected port probe error: port 8080: permission denied (exit status 113)")
}
