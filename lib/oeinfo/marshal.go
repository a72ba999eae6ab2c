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
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"time"
)

var (
	ErrLayout          = errors.New("structure layout mismatch")
	ErrInvalidLength   = errors.New("invalid length")
	ErrReservedNonZero = errors.New("reserved field is not zero")
	ErrWrongType       = errors.New("unexpected enclave type")
	ErrHeaderSize      = errors.New("header size does not match record")
	ErrAttributes      = errors.New("invalid attributes")
)

// little-endian, no padding
func marshal(v interface{}, size int) []byte {
	buf := bytes.NewBuffer(make([]byte, 0, size))
	if err := binary.Write(buf, binary.LittleEndian, v); err != nil {
		// only fixed-size values are passed in
		panic(err)
	}
	return buf.Bytes()
}

func unmarshal(blob []byte, v interface{}, size int, name string) error {
	if len(blob) != size {
		return fmt.Errorf("%s: %w: expected %d bytes, got %d", name, ErrInvalidLength, size, len(blob))
	}
	return binary.Read(bytes.NewReader(blob), binary.LittleEndian, v)
}

// MarshalBinary encodes the record exactly as it is laid out in the section
func (rec *PropertiesSGX) MarshalBinary() ([]byte, error) {
	return marshal(rec, PropertiesSGXSize), nil
}

// UnmarshalBinary decodes a record. The input must be exactly
// PropertiesSGXSize bytes.
func (rec *PropertiesSGX) UnmarshalBinary(blob []byte) error {
	return unmarshal(blob, rec, PropertiesSGXSize, "oeinfo")
}

// MarshalBinary encodes the SIGSTRUCT
func (s *SigStruct) MarshalBinary() ([]byte, error) {
	return marshal(s, SigStructSize), nil
}

// UnmarshalBinary decodes a SIGSTRUCT. The input must be exactly
// SigStructSize bytes.
func (s *SigStruct) UnmarshalBinary(blob []byte) error {
	return unmarshal(blob, s, SigStructSize, "sigstruct")
}

// PeekHeader decodes just the generic header at the start of a record, so the
// caller can pick the type-specific layout for the rest.
func PeekHeader(blob []byte) (*PropertiesHeader, error) {
	if len(blob) < PropertiesHeaderSize {
		return nil, fmt.Errorf("oeinfo header: %w: need %d bytes, got %d", ErrInvalidLength, PropertiesHeaderSize, len(blob))
	}
	hdr := new(PropertiesHeader)
	if err := unmarshal(blob[:PropertiesHeaderSize], hdr, PropertiesHeaderSize, "oeinfo header"); err != nil {
		return nil, err
	}
	return hdr, nil
}

// IsZero reports whether the SIGSTRUCT is still the unsigned placeholder
func (s *SigStruct) IsZero() bool {
	return *s == SigStruct{}
}

// HasHeaderMagic reports whether both fixed header fields hold their
// required values
func (s *SigStruct) HasHeaderMagic() bool {
	return s.Header == SigStructHeader && s.Header2 == SigStructHeader2
}

// IsDebug reports whether the TYPE field marks a debug-signed enclave
func (s *SigStruct) IsDebug() bool {
	return s.Type&(1<<31) != 0
}

// BuildDate decodes the DATE field, which holds yyyymmdd as BCD
func (s *SigStruct) BuildDate() (time.Time, error) {
	v := fmt.Sprintf("%08x", s.Date)
	t, err := time.ParseInLocation("20060102", v, time.UTC)
	if err != nil {
		return t, fmt.Errorf("sigstruct: malformed date: %w", err)
	}
	return t, nil
}
