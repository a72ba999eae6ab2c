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

package buildcmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sassoftware/oeprops/cmdline/shared"
	"github.com/sassoftware/oeprops/config"
	"github.com/sassoftware/oeprops/internal/elftest"
	"github.com/sassoftware/oeprops/lib/oeinfo"
	"github.com/sassoftware/oeprops/lib/oesection"

	_ "github.com/sassoftware/oeprops/enclaves/sgx"
)

func useConfig(t *testing.T, doc string) {
	cfg, err := config.Parse([]byte(doc), "test.yaml")
	require.NoError(t, err)
	saved := shared.CurrentConfig
	shared.CurrentConfig = cfg
	t.Cleanup(func() { shared.CurrentConfig = saved })
}

const testConfig = `
enclave:
  product_id: 1
  security_version: 2
  debug: true
  num_heap_pages: 10
  num_stack_pages: 5
  num_tcs: 2
`

func TestBuildRecord(t *testing.T) {
	useConfig(t, testConfig)
	kind, blob, err := buildRecord(buildPolicy)
	require.NoError(t, err)
	assert.Equal(t, "sgx", kind.Name)
	require.Len(t, blob, oeinfo.PropertiesSGXSize)
	var rec oeinfo.PropertiesSGX
	require.NoError(t, rec.UnmarshalBinary(blob))
	assert.Equal(t, oeinfo.Policy{
		ProductID:       1,
		SecurityVersion: 2,
		Debug:           oeinfo.DebugAllowed,
		NumHeapPages:    10,
		NumStackPages:   5,
		NumTCS:          2,
	}, rec.Policy())
}

func TestFormatRecord(t *testing.T) {
	useConfig(t, testConfig)
	kind, blob, err := buildRecord(buildPolicy)
	require.NoError(t, err)

	out, binary, err := formatRecord(kind, blob, "raw", "")
	require.NoError(t, err)
	assert.True(t, binary)
	assert.Equal(t, blob, out)

	out, binary, err = formatRecord(kind, blob, "hex", "")
	require.NoError(t, err)
	assert.False(t, binary)
	assert.True(t, strings.HasPrefix(string(out), "00000000  40 07 00 00"))

	out, _, err = formatRecord(kind, blob, "asm", "")
	require.NoError(t, err)
	assert.Contains(t, string(out), ".globl oe_enclavePropertiesSGX\n")
	out, _, err = formatRecord(kind, blob, "asm", "my_props")
	require.NoError(t, err)
	assert.Contains(t, string(out), ".globl my_props\n")

	_, _, err = formatRecord(kind, blob, "pdf", "")
	assert.Error(t, err)
}

func TestBuildCmd(t *testing.T) {
	useConfig(t, testConfig)
	fp := filepath.Join(t.TempDir(), "props.bin")
	argFormat, argOutput = "raw", fp
	t.Cleanup(func() { argFormat, argOutput = "asm", "-" })
	require.NoError(t, buildCmd(BuildCmd, nil))
	d, err := os.ReadFile(fp)
	require.NoError(t, err)
	_, blob, err := buildRecord(buildPolicy)
	require.NoError(t, err)
	assert.Equal(t, blob, d)

	// text formats go to the command output
	var buf bytes.Buffer
	BuildCmd.SetOut(&buf)
	t.Cleanup(func() { BuildCmd.SetOut(nil) })
	argFormat, argOutput = "asm", "-"
	require.NoError(t, buildCmd(BuildCmd, nil))
	assert.Contains(t, buf.String(), ".section .oeinfo")
}

func TestInjectCmd(t *testing.T) {
	useConfig(t, testConfig)
	dir := t.TempDir()
	fp := filepath.Join(dir, "enclave.so")
	orig := elftest.Placeholder(t, 0)
	require.NoError(t, os.WriteFile(fp, orig, 0755))

	t.Run("Copy", func(t *testing.T) {
		out := filepath.Join(dir, "patched.so")
		argInjectOut = out
		t.Cleanup(func() { argInjectOut = "" })
		require.NoError(t, injectCmd(InjectCmd, []string{fp}))
		d, err := os.ReadFile(fp)
		require.NoError(t, err)
		assert.Equal(t, orig, d, "input untouched")
		blob, err := oesection.Read(bytes.NewReader(mustRead(t, out)))
		require.NoError(t, err)
		assert.Equal(t, uint32(oeinfo.PropertiesSGXSize), uint32(blob[0])|uint32(blob[1])<<8)
	})
	t.Run("InPlace", func(t *testing.T) {
		require.NoError(t, injectCmd(InjectCmd, []string{fp}))
		blob, err := oesection.Read(bytes.NewReader(mustRead(t, fp)))
		require.NoError(t, err)
		var rec oeinfo.PropertiesSGX
		require.NoError(t, rec.UnmarshalBinary(blob))
		assert.Equal(t, uint64(2), rec.Header.SizeSettings.NumTCS)
		assert.NoError(t, rec.Validate())
	})
	t.Run("SameFileOtherSpelling", func(t *testing.T) {
		require.NoError(t, os.WriteFile(fp, orig, 0755))
		argInjectOut = dir + "/./enclave.so"
		t.Cleanup(func() { argInjectOut = "" })
		require.NoError(t, injectCmd(InjectCmd, []string{fp}))
		blob, err := oesection.Read(bytes.NewReader(mustRead(t, fp)))
		require.NoError(t, err)
		var rec oeinfo.PropertiesSGX
		require.NoError(t, rec.UnmarshalBinary(blob))
		assert.Equal(t, uint64(10), rec.Header.SizeSettings.NumHeapPages)
	})
	t.Run("NotELF", func(t *testing.T) {
		other := filepath.Join(dir, "data.bin")
		require.NoError(t, os.WriteFile(other, make([]byte, 128), 0644))
		assert.Error(t, injectCmd(InjectCmd, []string{other}))
	})
}

func mustRead(t *testing.T, fp string) []byte {
	d, err := os.ReadFile(fp)
	require.NoError(t, err)
	return d
}
