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

package shared

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/sassoftware/oeprops/enclaves"
	"github.com/sassoftware/oeprops/lib/magic"
	"github.com/sassoftware/oeprops/lib/oesection"
)

// Loaded is a properties record read from an image or a bare record file
type Loaded struct {
	Path     string
	FileType magic.FileType
	// location of the record within an ELF image, nil for bare records
	Section *oesection.Section
	Kind     *enclaves.Kind
	Blob     []byte
	Record   enclaves.Record
}

// LoadRecord reads path, which may be an ELF enclave image or a bare record,
// and parses the properties record it holds
func LoadRecord(path string) (*Loaded, error) {
	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, err
	}
	l := &Loaded{Path: path, FileType: magic.Detect(bytes.NewReader(data))}
	switch l.FileType {
	case magic.FileTypeELF:
		r := bytes.NewReader(data)
		l.Section, err = oesection.Find(r)
		if err != nil {
			return nil, err
		}
		l.Blob, err = l.Section.ReadRecord(r)
		if err != nil {
			return nil, err
		}
	case magic.FileTypeProperties:
		l.Blob = data
	default:
		return nil, fmt.Errorf("%s: not an enclave image or properties record (%s)", path, l.FileType)
	}
	l.Kind, err = enclaves.ByHeader(l.Blob)
	if err != nil {
		return nil, err
	}
	l.Record, err = l.Kind.Parse(l.Blob)
	if err != nil {
		return nil, err
	}
	return l, nil
}
