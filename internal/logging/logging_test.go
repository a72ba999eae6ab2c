//
// Copyright (c) SAS Institute Inc.
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
//

package logging

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func restoreLogger(t *testing.T) {
	saved := log.Logger
	t.Cleanup(func() { log.Logger = saved })
}

func TestSetupJSON(t *testing.T) {
	restoreLogger(t)
	var buf bytes.Buffer
	closer, err := setup(&buf, "warn", "-")
	require.NoError(t, err)
	defer closer.Close()
	assert.Equal(t, zerolog.WarnLevel, log.Logger.GetLevel())
	log.Info().Msg("dropped")
	log.Warn().Int("n", 3).Msg("kept")
	var ev map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &ev))
	assert.Equal(t, "kept", ev["message"])
	assert.Equal(t, "warn", ev["level"])
	assert.Equal(t, float64(3), ev["n"])
}

func TestSetupConsole(t *testing.T) {
	restoreLogger(t)
	var buf bytes.Buffer
	closer, err := setup(&buf, "", "")
	require.NoError(t, err)
	defer closer.Close()
	assert.Equal(t, zerolog.InfoLevel, log.Logger.GetLevel())
	log.Info().Msg("hello")
	assert.Contains(t, buf.String(), "hello")
	assert.NotContains(t, buf.String(), "{")
}

func TestSetupFile(t *testing.T) {
	restoreLogger(t)
	fp := filepath.Join(t.TempDir(), "oeprops.log")
	closer, err := setup(os.Stderr, "debug", fp)
	require.NoError(t, err)
	log.Debug().Msg("to file")
	require.NoError(t, closer.Close())
	d, err := os.ReadFile(fp)
	require.NoError(t, err)
	assert.Contains(t, string(d), `"message":"to file"`)
}

func TestSetupBadLevel(t *testing.T) {
	restoreLogger(t)
	_, err := setup(os.Stderr, "loud", "-")
	assert.ErrorContains(t, err, "log_level")
}
