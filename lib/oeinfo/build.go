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

package oeinfo

// Policy is the set of static inputs an SGX properties record is built from
type Policy struct {
	ProductID       uint16
	SecurityVersion uint16
	Debug           DebugPolicy
	NumHeapPages    uint64
	NumStackPages   uint64
	NumTCS          uint64
}

// DefineSGX assembles the SGX properties record for a policy.
//
// The record starts from the zero value, so every reserved region and the
// whole SIGSTRUCT are zero until the signing tool fills in the latter.
func DefineSGX(p Policy) PropertiesSGX {
	var rec PropertiesSGX
	rec.Header = PropertiesHeader{
		Size:        PropertiesSGXSize,
		EnclaveType: EnclaveTypeSGX,
		SizeSettings: SizeSettings{
			NumHeapPages:  p.NumHeapPages,
			NumStackPages: p.NumStackPages,
			NumTCS:        p.NumTCS,
		},
	}
	rec.Settings = EnclaveSettings{
		ProductID:       p.ProductID,
		SecurityVersion: p.SecurityVersion,
		Padding:         0,
		Attributes:      MakeAttributes(p.Debug),
	}
	return rec
}

// Policy recovers the inputs a record was built from
func (rec *PropertiesSGX) Policy() Policy {
	return Policy{
		ProductID:       rec.Settings.ProductID,
		SecurityVersion: rec.Settings.SecurityVersion,
		Debug:           PolicyFromBool(rec.Settings.DebugAllowed()),
		NumHeapPages:    rec.Header.SizeSettings.NumHeapPages,
		NumStackPages:   rec.Header.SizeSettings.NumStackPages,
		NumTCS:          rec.Header.SizeSettings.NumTCS,
	}
}
