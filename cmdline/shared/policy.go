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
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"

	"github.com/sassoftware/oeprops/config"
	"github.com/sassoftware/oeprops/enclaves"
	"github.com/sassoftware/oeprops/lib/oeinfo"
)

// PolicyFlags are command-line overrides for the enclave section of the
// configuration file
type PolicyFlags struct {
	flags *pflag.FlagSet

	kind            string
	productID       uint16
	securityVersion uint16
	debug           bool
	numHeapPages    uint64
	numStackPages   uint64
	numTCS          uint64
}

func AddPolicyFlags(fs *pflag.FlagSet) *PolicyFlags {
	pf := &PolicyFlags{flags: fs}
	fs.StringVar(&pf.kind, "type", "", "Enclave type")
	// deferred so enclave kinds can register in init()
	AddLateHook(func() {
		fs.Lookup("type").Usage = fmt.Sprintf("Enclave type (%s)", strings.Join(enclaves.Names(), ", "))
	})
	fs.Uint16Var(&pf.productID, "product-id", 0, "ISV product identity")
	fs.Uint16Var(&pf.securityVersion, "security-version", 0, "ISV security version")
	fs.BoolVar(&pf.debug, "debug", false, "Allow the enclave to be debugged")
	fs.Uint64Var(&pf.numHeapPages, "heap-pages", 0, "Number of heap pages")
	fs.Uint64Var(&pf.numStackPages, "stack-pages", 0, "Number of stack pages per thread")
	fs.Uint64Var(&pf.numTCS, "tcs", 0, "Number of thread control structures")
	return pf
}

// Resolve merges flags that were set on the command line over cfg and returns
// the enclave kind and builder inputs
func (pf *PolicyFlags) Resolve(cfg *config.Config) (*enclaves.Kind, oeinfo.Policy, error) {
	if cfg == nil {
		cfg = config.New()
	}
	policy, err := cfg.Policy()
	if err != nil {
		return nil, policy, err
	}
	kindName := cfg.Enclave.Type
	if pf.flags.Changed("type") {
		kindName = pf.kind
	}
	if pf.flags.Changed("product-id") {
		policy.ProductID = pf.productID
	}
	if pf.flags.Changed("security-version") {
		policy.SecurityVersion = pf.securityVersion
	}
	if pf.flags.Changed("debug") {
		policy.Debug = oeinfo.PolicyFromBool(pf.debug)
	}
	if pf.flags.Changed("heap-pages") {
		policy.NumHeapPages = pf.numHeapPages
	}
	if pf.flags.Changed("stack-pages") {
		policy.NumStackPages = pf.numStackPages
	}
	if pf.flags.Changed("tcs") {
		policy.NumTCS = pf.numTCS
	}
	kind, err := enclaves.ByName(kindName)
	if err != nil {
		return nil, policy, err
	}
	if policy.NumTCS == 0 {
		log.Warn().Msg("enclave has no thread control structures and cannot be entered")
	}
	log.Debug().
		Str("type", kind.Name).
		Uint16("product_id", policy.ProductID).
		Uint16("security_version", policy.SecurityVersion).
		Stringer("debug", policy.Debug).
		Uint64("num_heap_pages", policy.NumHeapPages).
		Uint64("num_stack_pages", policy.NumStackPages).
		Uint64("num_tcs", policy.NumTCS).
		Msg("enclave policy")
	return kind, policy, nil
}
