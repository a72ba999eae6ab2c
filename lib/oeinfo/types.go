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

// Package oeinfo defines the enclave property records that are placed in the
// ".oeinfo" section of an enclave image, either by the build or by the signing
// tool.
//
// Field sizes were chosen so that the packed and unpacked sizes of every
// structure are the same. All multi-byte fields are little-endian.
package oeinfo

const (
	// SectionName is the name of the image section holding the record
	SectionName = ".oeinfo"
	// SymbolName is the symbol under which the SGX record is emitted
	SymbolName = "oe_enclavePropertiesSGX"

	KeySize      = 384
	ExponentSize = 4
	HashSize     = 32

	SizeSettingsSize     = 24
	PropertiesHeaderSize = 32
	AttributesSize       = 16
	EnclaveSettingsSize  = 16
	SigStructSize        = 1808
	PropertiesSGXSize    = 1856

	// offsets within PropertiesSGX
	SettingsOffset  = PropertiesHeaderSize
	SigStructOffset = SettingsOffset + EnclaveSettingsSize
)

// EnclaveType selects the type-specific layout that follows the generic
// header.
type EnclaveType uint32

const (
	EnclaveTypeSGX EnclaveType = iota
)

func (t EnclaveType) String() string {
	switch t {
	case EnclaveTypeSGX:
		return "sgx"
	default:
		return "unknown"
	}
}

// SizeSettings holds the resource counts used to size enclave memory.
type SizeSettings struct {
	NumHeapPages  uint64
	NumStackPages uint64
	NumTCS        uint64
}

// PropertiesHeader is the generic base of every enclave properties record.
type PropertiesHeader struct {
	// (0) size of the extended structure
	Size uint32
	// (4) type of enclave
	EnclaveType EnclaveType
	// (8)
	SizeSettings SizeSettings
}

// Attributes is the SGX attribute pair of flags and XFRM.
type Attributes struct {
	Flags AttributeFlags
	XFRM  uint64
}

// EnclaveSettings is the caller-supplied policy for one SGX enclave.
type EnclaveSettings struct {
	ProductID       uint16
	SecurityVersion uint16
	// keeps packed and unpacked sizes the same
	Padding uint32
	// FlagDebug | FlagMode64Bit
	Attributes AttributeFlags
}

// SigStruct mirrors the hardware enclave signature structure (SIGSTRUCT).
//
// Nothing in this package computes the key, signature, or measurement fields.
// They are filled in by the signing tool after the image is linked.
type SigStruct struct {
	// ======== HEADER-SECTION ========

	// (0) must be 06000000E100000000000100H
	Header [12]byte
	// (12) bit 31: 0 = prod, 1 = debug; bits 30-0 must be zero
	Type uint32
	// (16) Intel=0x8086, ISV=0x0000
	Vendor uint32
	// (20) build date as yyyymmdd BCD
	Date uint32
	// (24) must be 01010000600000006000000001000000H
	Header2 [16]byte
	// (40) for launch enclaves HWVERSION != 0, otherwise 0
	SwDefined uint32
	// (44) must be 0
	Reserved [84]byte

	// ======== KEY-SECTION ========

	// (128) module public key, 3072 bits
	Modulus [KeySize]byte
	// (512) RSA exponent = 3
	Exponent [ExponentSize]byte
	// (516) signature over HEADER-SECTION | BODY-SECTION
	Signature [KeySize]byte

	// ======== BODY-SECTION ========

	// (900)
	MiscSelect uint32
	// (904)
	MiscMask uint32
	// (908) must be 0
	Reserved2 [20]byte
	// (928) attributes that must be set
	Attributes Attributes
	// (944) mask of attributes to enforce
	AttributeMask Attributes
	// (960) MRENCLAVE
	EnclaveHash [HashSize]byte
	// (992) must be 0
	Reserved3 [32]byte
	// (1024)
	ISVProdID uint16
	// (1026)
	ISVSVN uint16

	// ======== BUFFER-SECTION ========

	// (1028) must be 0
	Reserved4 [12]byte
	// (1040) Q1 value for RSA signature verification
	Q1 [KeySize]byte
	// (1424) Q2 value for RSA signature verification
	Q2 [KeySize]byte
}

// PropertiesSGX extends PropertiesHeader with the SGX settings and SIGSTRUCT.
// This is the full record stored at offset 0 of the ".oeinfo" section.
type PropertiesSGX struct {
	// (0)
	Header PropertiesHeader
	// (32)
	Settings EnclaveSettings
	// (48)
	SigStruct SigStruct
}

var (
	// SigStructHeader is the required value of SigStruct.Header
	SigStructHeader = [12]byte{0x06, 0x00, 0x00, 0x00, 0xe1, 0x00, 0x00, 0x00, 0x00, 0x00, 0x01, 0x00}
	// SigStructHeader2 is the required value of SigStruct.Header2
	SigStructHeader2 = [16]byte{0x01, 0x01, 0x00, 0x00, 0x60, 0x00, 0x00, 0x00, 0x60, 0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00}
)
