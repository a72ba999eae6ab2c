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

package shared

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sassoftware/oeprops/config"
)

func TestOpenForPatch(t *testing.T) {
	dir := t.TempDir()
	fp := filepath.Join(dir, "enclave.so")
	require.NoError(t, os.WriteFile(fp, []byte("0123"), 0644))
	link := filepath.Join(dir, "hardlink.so")
	require.NoError(t, os.Link(fp, link))

	writable := []string{"", fp, dir + "/./enclave.so", link}
	for _, out := range writable {
		f, err := OpenForPatch(fp, out)
		require.NoError(t, err)
		_, err = f.WriteAt([]byte("x"), 0)
		assert.NoError(t, err, "output %q", out)
		f.Close()
	}

	f, err := OpenForPatch(fp, filepath.Join(dir, "other.so"))
	require.NoError(t, err)
	defer f.Close()
	_, err = f.WriteAt([]byte("x"), 0)
	assert.Error(t, err, "separate output keeps the input read-only")
}

func TestInitConfig(t *testing.T) {
	saved, savedArg := CurrentConfig, ArgConfig
	t.Cleanup(func() { CurrentConfig, ArgConfig = saved, savedArg })
	dir := t.TempDir()
	t.Setenv("USERPROFILE", "")
	t.Setenv("HOME", dir)

	t.Run("MissingUserFile", func(t *testing.T) {
		CurrentConfig, ArgConfig = nil, ""
		t.Setenv(config.EnvConfig, "")
		require.NoError(t, InitConfig())
		assert.Equal(t, "sgx", CurrentConfig.Enclave.Type)
	})
	t.Run("Env", func(t *testing.T) {
		fp := filepath.Join(dir, "ci.yaml")
		require.NoError(t, os.WriteFile(fp, []byte("enclave: {num_tcs: 3}\n"), 0644))
		CurrentConfig, ArgConfig = nil, ""
		t.Setenv(config.EnvConfig, fp)
		require.NoError(t, InitConfig())
		assert.Equal(t, uint64(3), CurrentConfig.Enclave.NumTCS)
		assert.Equal(t, fp, CurrentConfig.Path())
	})
	t.Run("MissingEnvFile", func(t *testing.T) {
		CurrentConfig, ArgConfig = nil, ""
		t.Setenv(config.EnvConfig, filepath.Join(dir, "missing.yaml"))
		assert.ErrorIs(t, InitConfig(), os.ErrNotExist)
	})
}
