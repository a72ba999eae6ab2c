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

// Package sgx registers the Intel SGX enclave kind
package sgx

import (
	"github.com/sassoftware/oeprops/enclaves"
	"github.com/sassoftware/oeprops/lib/oeinfo"
)

var Kind = &enclaves.Kind{
	Name:            "sgx",
	Aliases:         []string{"SGX"},
	Type:            oeinfo.EnclaveTypeSGX,
	Symbol:          oeinfo.SymbolName,
	RecordSize:      oeinfo.PropertiesSGXSize,
	SigStructOffset: oeinfo.SigStructOffset,
	SigStructSize:   oeinfo.SigStructSize,
	Build:           build,
	Parse:           parse,
}

func init() {
	enclaves.Register(Kind)
}

func build(p oeinfo.Policy) enclaves.Record {
	rec := oeinfo.DefineSGX(p)
	return &rec
}

func parse(blob []byte) (enclaves.Record, error) {
	rec := new(oeinfo.PropertiesSGX)
	if err := rec.UnmarshalBinary(blob); err != nil {
		return nil, err
	}
	return rec, nil
}
