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

// Package enclaves keeps a registry of enclave kinds. Each kind knows how to
// build, parse and patch the properties record that follows the generic
// header for its enclave type.
package enclaves

import (
	"errors"
	"fmt"
	"sort"

	"github.com/sassoftware/oeprops/lib/oeinfo"
)

var ErrUnknownKind = errors.New("unknown enclave kind")

// Record is the structured form of a type-specific properties record
type Record interface {
	// Validate returns every structural problem with the record
	Validate() error
	// Policy returns the inputs the record was built from
	Policy() oeinfo.Policy
	MarshalBinary() ([]byte, error)
}

type Kind struct {
	Name    string
	Aliases []string
	Type    oeinfo.EnclaveType
	// Symbol the record is emitted under
	Symbol string
	// Total size of the record, equal to header.size
	RecordSize int
	// Location of the signing structure within the record
	SigStructOffset int
	SigStructSize   int
	// Build a record from policy inputs
	Build func(oeinfo.Policy) Record
	// Parse a serialized record
	Parse func([]byte) (Record, error)
}

var registered []*Kind

func Register(k *Kind) {
	registered = append(registered, k)
}

// ByName returns the kind with the given name or alias
func ByName(name string) (*Kind, error) {
	for _, k := range registered {
		if k.Name == name {
			return k, nil
		}
		for _, n2 := range k.Aliases {
			if n2 == name {
				return k, nil
			}
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownKind, name)
}

// ByType returns the kind responsible for an enclave type
func ByType(t oeinfo.EnclaveType) (*Kind, error) {
	for _, k := range registered {
		if k.Type == t {
			return k, nil
		}
	}
	return nil, fmt.Errorf("%w: enclave type %d", ErrUnknownKind, uint32(t))
}

// ByHeader reads the generic header of a serialized record and returns the
// kind that interprets the rest of it
func ByHeader(blob []byte) (*Kind, error) {
	hdr, err := oeinfo.PeekHeader(blob)
	if err != nil {
		return nil, err
	}
	return ByType(hdr.EnclaveType)
}

// Names lists the primary name of every registered kind
func Names() []string {
	names := make([]string, 0, len(registered))
	for _, k := range registered {
		names = append(names, k.Name)
	}
	sort.Strings(names)
	return names
}

// CheckSigStruct returns an error if blob is not the right size to replace
// this kind's signing structure
func (k *Kind) CheckSigStruct(blob []byte) error {
	if k.SigStructSize == 0 {
		return fmt.Errorf("enclave kind %s has no signing structure", k.Name)
	}
	if len(blob) != k.SigStructSize {
		return fmt.Errorf("%s sigstruct: %w: expected %d bytes, got %d", k.Name, oeinfo.ErrInvalidLength, k.SigStructSize, len(blob))
	}
	return nil
}

// Validate parses blob as this kind's record and returns every structural
// problem found
func (k *Kind) Validate(blob []byte) error {
	rec, err := k.Parse(blob)
	if err != nil {
		return err
	}
	return rec.Validate()
}
