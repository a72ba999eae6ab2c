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

import (
	"errors"
	"fmt"
)

var ErrSigStructMagic = errors.New("sigstruct header magic is wrong")

// Validate checks that the record is structurally well-formed and returns
// every problem found, joined. A nil result means the loader and the signing
// tool can operate on it.
func (rec *PropertiesSGX) Validate() error {
	var errs []error
	if rec.Header.Size != PropertiesSGXSize {
		errs = append(errs, fmt.Errorf("header.size: %w: %d != %d", ErrHeaderSize, rec.Header.Size, PropertiesSGXSize))
	}
	if rec.Header.EnclaveType != EnclaveTypeSGX {
		errs = append(errs, fmt.Errorf("header.enclaveType: %w: %d", ErrWrongType, uint32(rec.Header.EnclaveType)))
	}
	if err := rec.Settings.Validate(); err != nil {
		errs = append(errs, err)
	}
	if err := rec.SigStruct.Validate(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Validate checks padding and attribute bits of the settings
func (s *EnclaveSettings) Validate() error {
	var errs []error
	if s.Padding != 0 {
		errs = append(errs, fmt.Errorf("settings.padding: %w", ErrReservedNonZero))
	}
	if s.Attributes&FlagMode64Bit == 0 {
		errs = append(errs, fmt.Errorf("settings.attributes: %w: MODE64BIT is not set", ErrAttributes))
	}
	if extra := s.Attributes &^ KnownFlags; extra != 0 {
		errs = append(errs, fmt.Errorf("settings.attributes: %w: unexpected bits %#x", ErrAttributes, uint64(extra)))
	}
	return errors.Join(errs...)
}

// Validate checks that every must-be-zero region of the SIGSTRUCT is zero and,
// once the signing tool has filled it in, that the header magic is intact.
func (s *SigStruct) Validate() error {
	var errs []error
	regions := []struct {
		name string
		data []byte
	}{
		{"sigstruct.reserved", s.Reserved[:]},
		{"sigstruct.reserved2", s.Reserved2[:]},
		{"sigstruct.reserved3", s.Reserved3[:]},
		{"sigstruct.reserved4", s.Reserved4[:]},
	}
	for _, r := range regions {
		if i := firstNonZero(r.data); i >= 0 {
			errs = append(errs, fmt.Errorf("%s: %w at byte %d", r.name, ErrReservedNonZero, i))
		}
	}
	if s.Type&^(1<<31) != 0 {
		errs = append(errs, fmt.Errorf("sigstruct.type: %w: bits 30-0 are %#x", ErrReservedNonZero, s.Type&^(1<<31)))
	}
	if !s.IsZero() && !s.HasHeaderMagic() {
		errs = append(errs, ErrSigStructMagic)
	}
	return errors.Join(errs...)
}

func firstNonZero(d []byte) int {
	for i, b := range d {
		if b != 0 {
			return i
		}
	}
	return -1
}
