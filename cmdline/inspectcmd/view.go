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

package inspectcmd

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/fxamacker/cbor/v2"
	"gopkg.in/yaml.v3"

	"github.com/sassoftware/oeprops/cmdline/shared"
	"github.com/sassoftware/oeprops/lib/oeinfo"
)

type recordView struct {
	File            string         `json:"file" yaml:"file"`
	Source          string         `json:"source" yaml:"source"`
	SectionAddr     string         `json:"section_addr,omitempty" yaml:"section_addr,omitempty"`
	SectionWritable bool           `json:"section_writable,omitempty" yaml:"section_writable,omitempty"`
	Type            string         `json:"type" yaml:"type"`
	Size            uint32         `json:"size" yaml:"size"`
	NumHeapPages    uint64         `json:"num_heap_pages" yaml:"num_heap_pages"`
	NumStackPages   uint64         `json:"num_stack_pages" yaml:"num_stack_pages"`
	NumTCS          uint64         `json:"num_tcs" yaml:"num_tcs"`
	ProductID       uint16         `json:"product_id" yaml:"product_id"`
	SecurityVersion uint16         `json:"security_version" yaml:"security_version"`
	Attributes      string         `json:"attributes" yaml:"attributes"`
	Debug           bool           `json:"debug" yaml:"debug"`
	SigStruct       *sigStructView `json:"sigstruct,omitempty" yaml:"sigstruct,omitempty"`
	Problems        []string       `json:"problems,omitempty" yaml:"problems,omitempty"`
}

type sigStructView struct {
	Vendor          uint32 `json:"vendor" yaml:"vendor"`
	Date            string `json:"date,omitempty" yaml:"date,omitempty"`
	DebugSigned     bool   `json:"debug_signed" yaml:"debug_signed"`
	UniqueID        string `json:"unique_id" yaml:"unique_id"`
	SignerID        string `json:"signer_id" yaml:"signer_id"`
	ProductID       uint16 `json:"product_id" yaml:"product_id"`
	SecurityVersion uint16 `json:"security_version" yaml:"security_version"`
	MiscSelect      uint32 `json:"misc_select" yaml:"misc_select"`
	Attributes      string `json:"attributes" yaml:"attributes"`
	AttributeMask   string `json:"attribute_mask" yaml:"attribute_mask"`
	Exponent        string `json:"exponent" yaml:"exponent"`
}

func viewSGX(l *shared.Loaded, rec *oeinfo.PropertiesSGX) *recordView {
	v := &recordView{
		File:            l.Path,
		Source:          l.FileType.String(),
		Type:            rec.Header.EnclaveType.String(),
		Size:            rec.Header.Size,
		NumHeapPages:    rec.Header.SizeSettings.NumHeapPages,
		NumStackPages:   rec.Header.SizeSettings.NumStackPages,
		NumTCS:          rec.Header.SizeSettings.NumTCS,
		ProductID:       rec.Settings.ProductID,
		SecurityVersion: rec.Settings.SecurityVersion,
		Attributes:      rec.Settings.Attributes.String(),
		Debug:           rec.Settings.DebugAllowed(),
	}
	if l.Section != nil {
		v.SectionAddr = fmt.Sprintf("%#x", l.Section.Addr)
		v.SectionWritable = l.Section.Writable
	}
	if err := rec.Validate(); err != nil {
		v.Problems = strings.Split(err.Error(), "\n")
	}
	s := &rec.SigStruct
	if s.IsZero() {
		return v
	}
	sv := &sigStructView{
		Vendor:          s.Vendor,
		DebugSigned:     s.IsDebug(),
		UniqueID:        s.UniqueID(),
		SignerID:        s.SignerID(),
		ProductID:       s.ISVProdID,
		SecurityVersion: s.ISVSVN,
		MiscSelect:      s.MiscSelect,
		Attributes:      fmt.Sprintf("%s xfrm=%#x", s.Attributes.Flags, s.Attributes.XFRM),
		AttributeMask:   fmt.Sprintf("%s xfrm=%#x", s.AttributeMask.Flags, s.AttributeMask.XFRM),
		Exponent:        hex.EncodeToString(s.Exponent[:]),
	}
	if d, err := s.BuildDate(); err == nil {
		sv.Date = d.Format("2006-01-02")
	}
	v.SigStruct = sv
	return v
}

func writeView(w io.Writer, v *recordView, format string) error {
	switch format {
	case "", "text":
		return writeText(w, v)
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	case "cbor":
		blob, err := cbor.Marshal(v)
		if err != nil {
			return err
		}
		_, err = w.Write(blob)
		return err
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}

func writeText(w io.Writer, v *recordView) error {
	tw := tabwriter.NewWriter(w, 0, 8, 1, ' ', 0)
	fmt.Fprintf(tw, "File:\t%s (%s)\n", v.File, v.Source)
	if v.SectionAddr != "" {
		access := "read-only"
		if v.SectionWritable {
			access = "writable"
		}
		fmt.Fprintf(tw, "Section:\t%s at %s (%s)\n", oeinfo.SectionName, v.SectionAddr, access)
	}
	fmt.Fprintf(tw, "Type:\t%s\n", v.Type)
	fmt.Fprintf(tw, "Size:\t%d\n", v.Size)
	fmt.Fprintf(tw, "Heap pages:\t%d\n", v.NumHeapPages)
	fmt.Fprintf(tw, "Stack pages:\t%d\n", v.NumStackPages)
	fmt.Fprintf(tw, "TCS count:\t%d\n", v.NumTCS)
	fmt.Fprintf(tw, "ProductID (ISVPRODID):\t%d\n", v.ProductID)
	fmt.Fprintf(tw, "SecurityVersion (ISVSVN):\t%d\n", v.SecurityVersion)
	fmt.Fprintf(tw, "Attributes:\t%s\n", v.Attributes)
	fmt.Fprintf(tw, "Debug:\t%t\n", v.Debug)
	if s := v.SigStruct; s != nil {
		fmt.Fprintf(tw, "Signed:\tyes\n")
		fmt.Fprintf(tw, "  UniqueID (MRENCLAVE):\t%s\n", s.UniqueID)
		fmt.Fprintf(tw, "  SignerID (MRSIGNER):\t%s\n", s.SignerID)
		fmt.Fprintf(tw, "  ProductID (ISVPRODID):\t%d\n", s.ProductID)
		fmt.Fprintf(tw, "  SecurityVersion (ISVSVN):\t%d\n", s.SecurityVersion)
		fmt.Fprintf(tw, "  Vendor:\t%#x\n", s.Vendor)
		if s.Date != "" {
			fmt.Fprintf(tw, "  Date:\t%s\n", s.Date)
		}
		fmt.Fprintf(tw, "  Debug signed:\t%t\n", s.DebugSigned)
		fmt.Fprintf(tw, "  MiscSelect:\t%#x\n", s.MiscSelect)
		fmt.Fprintf(tw, "  Attributes:\t%s\n", s.Attributes)
		fmt.Fprintf(tw, "  AttributeMask:\t%s\n", s.AttributeMask)
	} else {
		fmt.Fprintf(tw, "Signed:\tno\n")
	}
	for _, p := range v.Problems {
		fmt.Fprintf(tw, "Problem:\t%s\n", p)
	}
	return tw.Flush()
}
