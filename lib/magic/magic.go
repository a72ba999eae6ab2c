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

// Package magic identifies the kinds of input the tools accept by looking at
// the first few bytes.
package magic

import (
	"bytes"
	"encoding/binary"
	"io"

	"github.com/sassoftware/oeprops/lib/oeinfo"
)

type FileType int

const (
	FileTypeUnknown FileType = iota
	// ELF image that may carry an .oeinfo section
	FileTypeELF
	// bare properties record, as written by "build --format raw"
	FileTypeProperties
	// bare SIGSTRUCT with a valid header
	FileTypeSigStruct
)

func (t FileType) String() string {
	switch t {
	case FileTypeELF:
		return "elf"
	case FileTypeProperties:
		return "properties"
	case FileTypeSigStruct:
		return "sigstruct"
	default:
		return "unknown"
	}
}

var elfMagic = []byte("\x7fELF")

// Detect reads the start of r and returns the file type
func Detect(r io.Reader) FileType {
	var buf [64]byte
	n, err := io.ReadFull(r, buf[:])
	if err != nil && err != io.ErrUnexpectedEOF {
		return FileTypeUnknown
	}
	blob := buf[:n]
	switch {
	case bytes.HasPrefix(blob, elfMagic):
		return FileTypeELF
	case bytes.HasPrefix(blob, oeinfo.SigStructHeader[:]):
		return FileTypeSigStruct
	case len(blob) >= 8 &&
		binary.LittleEndian.Uint32(blob) == oeinfo.PropertiesSGXSize &&
		oeinfo.EnclaveType(binary.LittleEndian.Uint32(blob[4:])) == oeinfo.EnclaveTypeSGX:
		return FileTypeProperties
	}
	return FileTypeUnknown
}
