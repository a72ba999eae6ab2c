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
	"encoding/binary"
	"fmt"
	"unsafe"
)

// Build-time layout checks. Indexing a one-element array with a constant
// fails to compile unless the constant is exactly zero, and a negative
// uintptr constant overflows, so each line below breaks the build if a size
// or offset drifts from the hardware definition.

// packed sizes: the sum of the field sizes with no padding
const (
	sizeSettingsPacked = unsafe.Sizeof(SizeSettings{}.NumHeapPages) +
		unsafe.Sizeof(SizeSettings{}.NumStackPages) +
		unsafe.Sizeof(SizeSettings{}.NumTCS)
	headerPacked = unsafe.Sizeof(PropertiesHeader{}.Size) +
		unsafe.Sizeof(PropertiesHeader{}.EnclaveType) +
		sizeSettingsPacked
	attributesPacked = unsafe.Sizeof(Attributes{}.Flags) +
		unsafe.Sizeof(Attributes{}.XFRM)
	settingsPacked = unsafe.Sizeof(EnclaveSettings{}.ProductID) +
		unsafe.Sizeof(EnclaveSettings{}.SecurityVersion) +
		unsafe.Sizeof(EnclaveSettings{}.Padding) +
		unsafe.Sizeof(EnclaveSettings{}.Attributes)
	sigStructPacked = unsafe.Sizeof(SigStruct{}.Header) +
		unsafe.Sizeof(SigStruct{}.Type) +
		unsafe.Sizeof(SigStruct{}.Vendor) +
		unsafe.Sizeof(SigStruct{}.Date) +
		unsafe.Sizeof(SigStruct{}.Header2) +
		unsafe.Sizeof(SigStruct{}.SwDefined) +
		unsafe.Sizeof(SigStruct{}.Reserved) +
		unsafe.Sizeof(SigStruct{}.Modulus) +
		unsafe.Sizeof(SigStruct{}.Exponent) +
		unsafe.Sizeof(SigStruct{}.Signature) +
		unsafe.Sizeof(SigStruct{}.MiscSelect) +
		unsafe.Sizeof(SigStruct{}.MiscMask) +
		unsafe.Sizeof(SigStruct{}.Reserved2) +
		2*attributesPacked +
		unsafe.Sizeof(SigStruct{}.EnclaveHash) +
		unsafe.Sizeof(SigStruct{}.Reserved3) +
		unsafe.Sizeof(SigStruct{}.ISVProdID) +
		unsafe.Sizeof(SigStruct{}.ISVSVN) +
		unsafe.Sizeof(SigStruct{}.Reserved4) +
		unsafe.Sizeof(SigStruct{}.Q1) +
		unsafe.Sizeof(SigStruct{}.Q2)
	propertiesSGXPacked = headerPacked + settingsPacked + sigStructPacked
)

var (
	_ = [1]struct{}{}[unsafe.Sizeof(SizeSettings{})-SizeSettingsSize]
	_ = [1]struct{}{}[sizeSettingsPacked-SizeSettingsSize]

	_ = [1]struct{}{}[unsafe.Sizeof(PropertiesHeader{})-PropertiesHeaderSize]
	_ = [1]struct{}{}[headerPacked-PropertiesHeaderSize]

	_ = [1]struct{}{}[unsafe.Sizeof(Attributes{})-AttributesSize]
	_ = [1]struct{}{}[attributesPacked-AttributesSize]

	_ = [1]struct{}{}[unsafe.Sizeof(EnclaveSettings{})-EnclaveSettingsSize]
	_ = [1]struct{}{}[settingsPacked-EnclaveSettingsSize]

	_ = [1]struct{}{}[unsafe.Sizeof(SigStruct{})-SigStructSize]
	_ = [1]struct{}{}[sigStructPacked-SigStructSize]

	_ = [1]struct{}{}[unsafe.Sizeof(PropertiesSGX{})-PropertiesSGXSize]
	_ = [1]struct{}{}[propertiesSGXPacked-PropertiesSGXSize]
)

// composite offsets
var (
	_ = [1]struct{}{}[unsafe.Offsetof(PropertiesHeader{}.EnclaveType)-4]
	_ = [1]struct{}{}[unsafe.Offsetof(PropertiesHeader{}.SizeSettings)-8]
	_ = [1]struct{}{}[unsafe.Offsetof(PropertiesSGX{}.Settings)-SettingsOffset]
	_ = [1]struct{}{}[unsafe.Offsetof(PropertiesSGX{}.SigStruct)-SigStructOffset]
	_ = [1]struct{}{}[unsafe.Offsetof(EnclaveSettings{}.Attributes)-8]
)

// SIGSTRUCT offsets
var (
	_ = [1]struct{}{}[unsafe.Offsetof(SigStruct{}.Type)-12]
	_ = [1]struct{}{}[unsafe.Offsetof(SigStruct{}.Vendor)-16]
	_ = [1]struct{}{}[unsafe.Offsetof(SigStruct{}.Date)-20]
	_ = [1]struct{}{}[unsafe.Offsetof(SigStruct{}.Header2)-24]
	_ = [1]struct{}{}[unsafe.Offsetof(SigStruct{}.SwDefined)-40]
	_ = [1]struct{}{}[unsafe.Offsetof(SigStruct{}.Reserved)-44]
	_ = [1]struct{}{}[unsafe.Offsetof(SigStruct{}.Modulus)-128]
	_ = [1]struct{}{}[unsafe.Offsetof(SigStruct{}.Exponent)-512]
	_ = [1]struct{}{}[unsafe.Offsetof(SigStruct{}.Signature)-516]
	_ = [1]struct{}{}[unsafe.Offsetof(SigStruct{}.MiscSelect)-900]
	_ = [1]struct{}{}[unsafe.Offsetof(SigStruct{}.MiscMask)-904]
	_ = [1]struct{}{}[unsafe.Offsetof(SigStruct{}.Reserved2)-908]
	_ = [1]struct{}{}[unsafe.Offsetof(SigStruct{}.Attributes)-928]
	_ = [1]struct{}{}[unsafe.Offsetof(SigStruct{}.AttributeMask)-944]
	_ = [1]struct{}{}[unsafe.Offsetof(SigStruct{}.EnclaveHash)-960]
	_ = [1]struct{}{}[unsafe.Offsetof(SigStruct{}.Reserved3)-992]
	_ = [1]struct{}{}[unsafe.Offsetof(SigStruct{}.ISVProdID)-1024]
	_ = [1]struct{}{}[unsafe.Offsetof(SigStruct{}.ISVSVN)-1026]
	_ = [1]struct{}{}[unsafe.Offsetof(SigStruct{}.Reserved4)-1028]
	_ = [1]struct{}{}[unsafe.Offsetof(SigStruct{}.Q1)-1040]
	_ = [1]struct{}{}[unsafe.Offsetof(SigStruct{}.Q2)-1424]
)

// LayoutEntry describes the size of one structure three ways
type LayoutEntry struct {
	Name     string `json:"name" yaml:"name"`
	Expected int    `json:"expected" yaml:"expected"`
	Packed   int    `json:"packed" yaml:"packed"`
	Natural  int    `json:"natural" yaml:"natural"`
}

// OK reports whether the packed, natural and expected sizes all agree
func (e LayoutEntry) OK() bool {
	return e.Packed == e.Expected && e.Natural == e.Expected
}

// Layout returns the size table for every structure, leaf first. Packed sizes
// come from encoding/binary, which never inserts padding.
func Layout() []LayoutEntry {
	return []LayoutEntry{
		{"SizeSettings", SizeSettingsSize, binary.Size(SizeSettings{}), int(unsafe.Sizeof(SizeSettings{}))},
		{"PropertiesHeader", PropertiesHeaderSize, binary.Size(PropertiesHeader{}), int(unsafe.Sizeof(PropertiesHeader{}))},
		{"Attributes", AttributesSize, binary.Size(Attributes{}), int(unsafe.Sizeof(Attributes{}))},
		{"EnclaveSettings", EnclaveSettingsSize, binary.Size(EnclaveSettings{}), int(unsafe.Sizeof(EnclaveSettings{}))},
		{"SigStruct", SigStructSize, binary.Size(SigStruct{}), int(unsafe.Sizeof(SigStruct{}))},
		{"PropertiesSGX", PropertiesSGXSize, binary.Size(PropertiesSGX{}), int(unsafe.Sizeof(PropertiesSGX{}))},
	}
}

// CheckLayout returns an error wrapping ErrLayout if any structure's packed
// size differs from its natural size.
func CheckLayout() error {
	for _, e := range Layout() {
		if !e.OK() {
			return fmt.Errorf("%w: %s: expected %d bytes, packed %d, natural %d",
				ErrLayout, e.Name, e.Expected, e.Packed, e.Natural)
		}
	}
	return nil
}
