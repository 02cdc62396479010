// Copyright 2025 Google LLC
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

package common

import (
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetVersion(t *testing.T) {
	saved := taskpoolVersion
	t.Cleanup(func() { taskpoolVersion = saved })

	taskpoolVersion = ""
	assert.Equal(t, "unknown (Go version "+runtime.Version()+")", GetVersion())

	taskpoolVersion = "1.2.3"
	assert.Equal(t, "1.2.3 (Go version "+runtime.Version()+")", GetVersion())
}
