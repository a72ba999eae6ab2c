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

// Package binpatch applies a set of byte-range replacements to a file, in
// place when possible and otherwise by writing a patched copy.
package binpatch

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/sassoftware/oeprops/lib/atomicfile"
)

var ErrOverlap = errors.New("patches overlap")

type Patch struct {
	Offset int64
	OldLen int64
	Blob   []byte
}

type PatchSet struct {
	Patches []Patch
}

func New() *PatchSet {
	return new(PatchSet)
}

// Add a patch that replaces oldLen bytes at offset with blob
func (p *PatchSet) Add(offset, oldLen int64, blob []byte) {
	p.Patches = append(p.Patches, Patch{Offset: offset, OldLen: oldLen, Blob: blob})
}

// sameSize reports whether no patch changes the length of the file
func (p *PatchSet) sameSize() bool {
	for _, pp := range p.Patches {
		if int64(len(pp.Blob)) != pp.OldLen {
			return false
		}
	}
	return true
}

func (p *PatchSet) check() error {
	sort.Stable(sorter{p})
	var last int64
	for i, pp := range p.Patches {
		if pp.Offset < 0 || pp.OldLen < 0 {
			return fmt.Errorf("patch %d: negative offset or length", i)
		}
		if i > 0 && pp.Offset < last {
			return fmt.Errorf("patch %d at %d: %w", i, pp.Offset, ErrOverlap)
		}
		last = pp.Offset + pp.OldLen
	}
	return nil
}

// Apply the patch set to infile and write the result to outpath. If outpath
// is the same file and no patch changes the file length then the changes are
// written in place, otherwise a patched copy replaces outpath atomically.
func (p *PatchSet) Apply(infile *os.File, outpath string) error {
	if err := p.check(); err != nil {
		return err
	}
	ininfo, err := infile.Stat()
	if err != nil {
		return err
	}
	if outinfo, err := os.Lstat(outpath); err == nil && p.sameSize() && canOverwrite(ininfo, outinfo) {
		return p.applyInPlace(infile)
	}
	out, err := atomicfile.WriteAny(outpath)
	if err != nil {
		return err
	}
	defer out.Close()
	if err := p.apply(infile, out); err != nil {
		return err
	}
	return out.Commit()
}

func (p *PatchSet) apply(infile io.ReadSeeker, out io.Writer) error {
	if _, err := infile.Seek(0, io.SeekStart); err != nil {
		return err
	}
	var pos int64
	for _, pp := range p.Patches {
		if _, err := io.CopyN(out, infile, pp.Offset-pos); err != nil {
			return fmt.Errorf("copying to offset %d: %w", pp.Offset, err)
		}
		if _, err := out.Write(pp.Blob); err != nil {
			return err
		}
		pos = pp.Offset + pp.OldLen
		if _, err := infile.Seek(pos, io.SeekStart); err != nil {
			return err
		}
	}
	_, err := io.Copy(out, infile)
	return err
}

func (p *PatchSet) applyInPlace(f *os.File) error {
	for _, pp := range p.Patches {
		if _, err := f.WriteAt(pp.Blob, pp.Offset); err != nil {
			return err
		}
	}
	return f.Sync()
}

func canOverwrite(ininfo, outinfo os.FileInfo) bool {
	return outinfo.Mode().IsRegular() && os.SameFile(ininfo, outinfo)
}
