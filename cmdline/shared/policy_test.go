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
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sassoftware/oeprops/config"
	"github.com/sassoftware/oeprops/enclaves"
	"github.com/sassoftware/oeprops/lib/oeinfo"

	_ "github.com/sassoftware/oeprops/enclaves/sgx"
)

func TestResolve(t *testing.T) {
	cfg, err := config.Parse([]byte(`
enclave:
  product_id: 7
  security_version: 3
  debug: true
  num_heap_pages: 100
  num_stack_pages: 10
  num_tcs: 4
`), "test.yaml")
	require.NoError(t, err)

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	pf := AddPolicyFlags(fs)
	require.NoError(t, fs.Parse([]string{"--security-version", "9", "--debug=false", "--tcs", "8"}))
	kind, p, err := pf.Resolve(cfg)
	require.NoError(t, err)
	assert.Equal(t, "sgx", kind.Name)
	assert.Equal(t, oeinfo.Policy{
		ProductID:       7,
		SecurityVersion: 9,
		Debug:           oeinfo.DebugDisallowed,
		NumHeapPages:    100,
		NumStackPages:   10,
		NumTCS:          8,
	}, p)
}

func TestResolveNoConfig(t *testing.T) {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	pf := AddPolicyFlags(fs)
	require.NoError(t, fs.Parse([]string{"--debug", "--heap-pages", "16"}))
	_, p, err := pf.Resolve(nil)
	require.NoError(t, err)
	assert.Equal(t, oeinfo.DebugAllowed, p.Debug)
	assert.Equal(t, uint64(16), p.NumHeapPages)

	fs = pflag.NewFlagSet("test", pflag.ContinueOnError)
	pf = AddPolicyFlags(fs)
	require.NoError(t, fs.Parse([]string{"--type", "tdx"}))
	_, _, err = pf.Resolve(nil)
	assert.ErrorIs(t, err, enclaves.ErrUnknownKind)

	// uint16 flags reject out of range values at parse time
	fs = pflag.NewFlagSet("test", pflag.ContinueOnError)
	AddPolicyFlags(fs)
	assert.Error(t, fs.Parse([]string{"--product-id", "70000"}))
}

func TestTypeUsageListsKinds(t *testing.T) {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	AddPolicyFlags(fs)
	assert.Equal(t, "Enclave type", fs.Lookup("type").Usage)
	runLateHooks()
	assert.Equal(t, "Enclave type (sgx)", fs.Lookup("type").Usage)
}
