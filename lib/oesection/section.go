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

// Package oesection finds, reads and rewrites the enclave properties record
// held in the ".oeinfo" section of an ELF enclave image.
package oesection

import (
	"debug/elf"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog/log"

	"github.com/sassoftware/oeprops/lib/binpatch"
	"github.com/sassoftware/oeprops/lib/oeinfo"
)

var (
	ErrNoSection       = errors.New("image has no " + oeinfo.SectionName + " section")
	ErrNoBits          = errors.New(oeinfo.SectionName + " section occupies no file space")
	ErrSectionTooSmall = errors.New(oeinfo.SectionName + " section is too small")
)

// Section locates the properties section within an image file
type Section struct {
	// file offset of the start of the section
	Offset int64
	// size of the section in the file
	Size int64
	// virtual address the section is loaded at
	Addr uint64
	// section is writable at run time
	Writable bool
}

// Find parses an ELF image and locates its ".oeinfo" section. The section must
// be big enough to hold at least the generic header.
func Find(r io.ReaderAt) (*Section, error) {
	f, err := elf.NewFile(r)
	if err != nil {
		return nil, fmt.Errorf("parsing ELF image: %w", err)
	}
	sh := f.Section(oeinfo.SectionName)
	if sh == nil {
		return nil, ErrNoSection
	}
	if sh.Type == elf.SHT_NOBITS {
		return nil, ErrNoBits
	}
	if sh.Size < oeinfo.PropertiesHeaderSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrSectionTooSmall, sh.Size)
	}
	return &Section{
		Offset:   int64(sh.Offset),
		Size:     int64(sh.Size),
		Addr:     sh.Addr,
		Writable: sh.Flags&elf.SHF_WRITE != 0,
	}, nil
}

// ReadRecord returns the record at offset 0 of the section. Its length is
// taken from the generic header.
func (s *Section) ReadRecord(r io.ReaderAt) ([]byte, error) {
	var hbuf [oeinfo.PropertiesHeaderSize]byte
	if _, err := r.ReadAt(hbuf[:], s.Offset); err != nil {
		return nil, fmt.Errorf("reading %s header: %w", oeinfo.SectionName, err)
	}
	hdr, err := oeinfo.PeekHeader(hbuf[:])
	if err != nil {
		return nil, err
	}
	size := int64(hdr.Size)
	if size < oeinfo.PropertiesHeaderSize {
		return nil, fmt.Errorf("%s header: %w: %d", oeinfo.SectionName, oeinfo.ErrHeaderSize, size)
	}
	if err := s.checkFits(0, size); err != nil {
		return nil, err
	}
	blob := make([]byte, size)
	if _, err := r.ReadAt(blob, s.Offset); err != nil {
		return nil, fmt.Errorf("reading %s: %w", oeinfo.SectionName, err)
	}
	return blob, nil
}

func (s *Section) checkFits(offset, length int64) error {
	if offset < 0 || offset+length > s.Size {
		return fmt.Errorf("%w: need %d bytes at offset %d, section has %d", ErrSectionTooSmall, length, offset, s.Size)
	}
	return nil
}

// Read locates the section in an image and returns the record it holds
func Read(r io.ReaderAt) ([]byte, error) {
	s, err := Find(r)
	if err != nil {
		return nil, err
	}
	return s.ReadRecord(r)
}

// Patch overwrites blob at offset bytes from the start of the section and
// writes the result to outpath, which may be the input file itself. Nothing
// outside the given range changes.
func Patch(infile *os.File, outpath string, offset int64, blob []byte) error {
	s, err := Find(infile)
	if err != nil {
		return err
	}
	if err := s.checkFits(offset, int64(len(blob))); err != nil {
		return err
	}
	log.Debug().
		Str("section", oeinfo.SectionName).
		Int64("file_offset", s.Offset+offset).
		Int("length", len(blob)).
		Msg("patching image")
	patch := binpatch.New()
	patch.Add(s.Offset+offset, int64(len(blob)), blob)
	return patch.Apply(infile, outpath)
}

// WriteRecord places a complete record at offset 0 of the section. The record
// is expected to fill the section; a larger section is accepted since linkers
// may pad it, but the extra bytes are reported.
func WriteRecord(infile *os.File, outpath string, rec []byte) error {
	s, err := Find(infile)
	if err != nil {
		return err
	}
	if err := s.checkFits(0, int64(len(rec))); err != nil {
		return err
	}
	if extra := s.Size - int64(len(rec)); extra > 0 {
		log.Warn().
			Int64("section_size", s.Size).
			Int("record_size", len(rec)).
			Msgf("%s section has %d bytes after the record", oeinfo.SectionName, extra)
	}
	return Patch(infile, outpath, 0, rec)
}
