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

package oesection

import (
	"bytes"
	"debug/elf"
	"encoding/binary"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sassoftware/oeprops/internal/elftest"
	"github.com/sassoftware/oeprops/lib/oeinfo"
)

const ehsize = elftest.HeaderSize

var buildELF = elftest.Build

func placeholderImage(t *testing.T, extra int) []byte {
	return elftest.Placeholder(t, extra)
}

func writeImage(t *testing.T, image []byte) string {
	fp := filepath.Join(t.TempDir(), "enclave.so")
	require.NoError(t, os.WriteFile(fp, image, 0755))
	return fp
}

func testRecord(t *testing.T) []byte {
	rec := oeinfo.DefineSGX(oeinfo.Policy{
		ProductID:       1,
		SecurityVersion: 2,
		Debug:           oeinfo.DebugAllowed,
		NumHeapPages:    10,
		NumStackPages:   5,
		NumTCS:          2,
	})
	blob, err := rec.MarshalBinary()
	require.NoError(t, err)
	return blob
}

func TestFind(t *testing.T) {
	image := placeholderImage(t, 0)
	s, err := Find(bytes.NewReader(image))
	require.NoError(t, err)
	assert.Equal(t, int64(ehsize), s.Offset)
	assert.Equal(t, int64(oeinfo.PropertiesSGXSize), s.Size)
	assert.Equal(t, uint64(0x1000), s.Addr)
	assert.False(t, s.Writable)

	data := make([]byte, oeinfo.PropertiesSGXSize)
	image = elftest.BuildFlags(t, oeinfo.SectionName, elf.SHT_PROGBITS, elf.SHF_ALLOC|elf.SHF_WRITE, data, uint64(len(data)))
	s, err = Find(bytes.NewReader(image))
	require.NoError(t, err)
	assert.True(t, s.Writable)
}

func TestFindErrors(t *testing.T) {
	t.Run("NotELF", func(t *testing.T) {
		_, err := Find(bytes.NewReader(make([]byte, 128)))
		assert.Error(t, err)
	})
	t.Run("Missing", func(t *testing.T) {
		image := buildELF(t, ".data", elf.SHT_PROGBITS, make([]byte, 64), 64)
		_, err := Find(bytes.NewReader(image))
		assert.ErrorIs(t, err, ErrNoSection)
	})
	t.Run("NoBits", func(t *testing.T) {
		image := buildELF(t, oeinfo.SectionName, elf.SHT_NOBITS, nil, oeinfo.PropertiesSGXSize)
		_, err := Find(bytes.NewReader(image))
		assert.ErrorIs(t, err, ErrNoBits)
	})
	t.Run("TooSmall", func(t *testing.T) {
		image := buildELF(t, oeinfo.SectionName, elf.SHT_PROGBITS, make([]byte, 16), 16)
		_, err := Find(bytes.NewReader(image))
		assert.ErrorIs(t, err, ErrSectionTooSmall)
	})
}

func TestWriteAndRead(t *testing.T) {
	fp := writeImage(t, placeholderImage(t, 0))
	rec := testRecord(t)
	f, err := os.OpenFile(fp, os.O_RDWR, 0)
	require.NoError(t, err)
	require.NoError(t, WriteRecord(f, fp, rec))
	require.NoError(t, f.Close())

	image, err := os.ReadFile(fp)
	require.NoError(t, err)
	assert.Equal(t, rec, image[ehsize:ehsize+oeinfo.PropertiesSGXSize])
	blob, err := Read(bytes.NewReader(image))
	require.NoError(t, err)
	assert.Equal(t, rec, blob)

	var parsed oeinfo.PropertiesSGX
	require.NoError(t, parsed.UnmarshalBinary(blob))
	assert.Equal(t, oeinfo.SizeSettings{NumHeapPages: 10, NumStackPages: 5, NumTCS: 2}, parsed.Header.SizeSettings)
}

func TestWriteCopy(t *testing.T) {
	orig := placeholderImage(t, 8)
	fp := writeImage(t, orig)
	out := filepath.Join(t.TempDir(), "signed.so")
	f, err := os.Open(fp)
	require.NoError(t, err)
	defer f.Close()
	rec := testRecord(t)
	require.NoError(t, WriteRecord(f, out, rec))
	// input is untouched
	d, err := os.ReadFile(fp)
	require.NoError(t, err)
	assert.Equal(t, orig, d)
	// output differs only in the record
	d, err = os.ReadFile(out)
	require.NoError(t, err)
	require.Len(t, d, len(orig))
	assert.Equal(t, orig[:ehsize], d[:ehsize])
	assert.Equal(t, rec, d[ehsize:ehsize+len(rec)])
	assert.Equal(t, orig[ehsize+len(rec):], d[ehsize+len(rec):])
}

func TestPatchSigStruct(t *testing.T) {
	fp := writeImage(t, placeholderImage(t, 0))
	rec := testRecord(t)
	f, err := os.OpenFile(fp, os.O_RDWR, 0)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, WriteRecord(f, fp, rec))

	sig := oeinfo.SigStruct{Header: oeinfo.SigStructHeader, Header2: oeinfo.SigStructHeader2, ISVSVN: 2}
	sig.Modulus[0] = 0xab
	sigBlob, err := sig.MarshalBinary()
	require.NoError(t, err)
	require.NoError(t, Patch(f, fp, oeinfo.SigStructOffset, sigBlob))

	blob, err := Read(f)
	require.NoError(t, err)
	var parsed oeinfo.PropertiesSGX
	require.NoError(t, parsed.UnmarshalBinary(blob))
	// header and settings are left alone
	assert.Equal(t, rec[:oeinfo.SigStructOffset], blob[:oeinfo.SigStructOffset])
	assert.Equal(t, sig, parsed.SigStruct)
	assert.NoError(t, parsed.Validate())

	// does not fit past the end of the section
	err = Patch(f, fp, oeinfo.SigStructOffset+1, sigBlob)
	assert.ErrorIs(t, err, ErrSectionTooSmall)
}

func TestReadBadHeader(t *testing.T) {
	data := make([]byte, oeinfo.PropertiesSGXSize)
	binary.LittleEndian.PutUint32(data, 4096)
	image := buildELF(t, oeinfo.SectionName, elf.SHT_PROGBITS, data, uint64(len(data)))
	_, err := Read(bytes.NewReader(image))
	assert.ErrorIs(t, err, ErrSectionTooSmall)

	binary.LittleEndian.PutUint32(data, 8)
	image = buildELF(t, oeinfo.SectionName, elf.SHT_PROGBITS, data, uint64(len(data)))
	_, err = Read(bytes.NewReader(image))
	assert.ErrorIs(t, err, oeinfo.ErrHeaderSize)
}

func TestEmitAsm(t *testing.T) {
	rec := testRecord(t)
	var buf bytes.Buffer
	require.NoError(t, EmitAsm(&buf, oeinfo.SymbolName, rec))
	out := buf.String()
	assert.Contains(t, out, "\t.section .oeinfo,\"a\",@progbits\n")
	assert.Contains(t, out, "\t.globl oe_enclavePropertiesSGX\n")
	assert.Contains(t, out, "\t.size oe_enclavePropertiesSGX, 1856\n")
	assert.Equal(t, oeinfo.PropertiesSGXSize/bytesPerLine, strings.Count(out, "\t.byte "))
	// header.size = 0x740 comes first
	assert.Contains(t, out, "oe_enclavePropertiesSGX:\n\t.byte 0x40,0x07,0x00,0x00,")
	// parse the bytes back
	var parsed []byte
	for _, line := range strings.Split(out, "\n") {
		if !strings.HasPrefix(line, "\t.byte ") {
			continue
		}
		for _, v := range strings.Split(strings.TrimPrefix(line, "\t.byte "), ",") {
			b, err := strconv.ParseUint(v, 0, 8)
			require.NoError(t, err)
			parsed = append(parsed, byte(b))
		}
	}
	assert.Equal(t, rec, parsed)
}
