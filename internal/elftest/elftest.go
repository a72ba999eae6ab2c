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

// Package elftest synthesizes small ELF images for tests
package elftest

import (
	"bytes"
	"debug/elf"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sassoftware/oeprops/lib/oeinfo"
)

// HeaderSize is the file offset of the first section's contents
const HeaderSize = 64

// Build produces a minimal ELF64 image with a single named section, at
// offset HeaderSize, followed by the section name table. size is the size
// recorded in the section header and may differ from len(data).
func Build(t testing.TB, name string, typ elf.SectionType, data []byte, size uint64) []byte {
	t.Helper()
	return BuildFlags(t, name, typ, elf.SHF_ALLOC, data, size)
}

// BuildFlags is Build with explicit section flags
func BuildFlags(t testing.TB, name string, typ elf.SectionType, flags elf.SectionFlag, data []byte, size uint64) []byte {
	t.Helper()
	shstrtab := []byte("\x00" + name + "\x00.shstrtab\x00")
	dataOff := uint64(HeaderSize)
	strOff := dataOff + uint64(len(data))
	shOff := (strOff + uint64(len(shstrtab)) + 7) &^ 7
	hdr := elf.Header64{
		Type:      uint16(elf.ET_DYN),
		Machine:   uint16(elf.EM_X86_64),
		Version:   uint32(elf.EV_CURRENT),
		Shoff:     shOff,
		Ehsize:    HeaderSize,
		Phentsize: 56,
		Shentsize: 64,
		Shnum:     3,
		Shstrndx:  2,
	}
	copy(hdr.Ident[:], elf.ELFMAG)
	hdr.Ident[elf.EI_CLASS] = byte(elf.ELFCLASS64)
	hdr.Ident[elf.EI_DATA] = byte(elf.ELFDATA2LSB)
	hdr.Ident[elf.EI_VERSION] = byte(elf.EV_CURRENT)
	sections := []elf.Section64{
		{},
		{
			Name:      1,
			Type:      uint32(typ),
			Flags:     uint64(flags),
			Addr:      0x1000,
			Off:       dataOff,
			Size:      size,
			Addralign: 8,
		},
		{
			Name:      uint32(len(name) + 2),
			Type:      uint32(elf.SHT_STRTAB),
			Off:       strOff,
			Size:      uint64(len(shstrtab)),
			Addralign: 1,
		},
	}
	var buf bytes.Buffer
	require.NoError(t, binary.Write(&buf, binary.LittleEndian, &hdr))
	buf.Write(data)
	buf.Write(shstrtab)
	buf.Write(make([]byte, shOff-uint64(buf.Len())))
	require.NoError(t, binary.Write(&buf, binary.LittleEndian, sections))
	return buf.Bytes()
}

// Placeholder returns an image whose .oeinfo section is a zeroed SGX record
// plus extra bytes of padding
func Placeholder(t testing.TB, extra int) []byte {
	data := make([]byte, oeinfo.PropertiesSGXSize+extra)
	return Build(t, oeinfo.SectionName, elf.SHT_PROGBITS, data, uint64(len(data)))
}
