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
	"bufio"
	"fmt"
	"io"

	"github.com/sassoftware/oeprops/lib/oeinfo"
)

const bytesPerLine = 16

// EmitAsm writes GNU assembler source that places rec, read-only, at the
// start of the ".oeinfo" section under a global symbol. Assembling the output
// and linking it into the enclave is how the record gets into the image.
func EmitAsm(w io.Writer, symbol string, rec []byte) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "/* enclave properties generated by oeprops, do not edit */\n")
	fmt.Fprintf(bw, "\t.section %s,\"a\",@progbits\n", oeinfo.SectionName)
	fmt.Fprintf(bw, "\t.balign 8\n")
	fmt.Fprintf(bw, "\t.globl %s\n", symbol)
	fmt.Fprintf(bw, "\t.type %s, @object\n", symbol)
	fmt.Fprintf(bw, "\t.size %s, %d\n", symbol, len(rec))
	fmt.Fprintf(bw, "%s:\n", symbol)
	for i := 0; i < len(rec); i += bytesPerLine {
		end := i + bytesPerLine
		if end > len(rec) {
			end = len(rec)
		}
		bw.WriteString("\t.byte ")
		for j, b := range rec[i:end] {
			if j > 0 {
				bw.WriteByte(',')
			}
			fmt.Fprintf(bw, "0x%02x", b)
		}
		bw.WriteByte('\n')
	}
	fmt.Fprintf(bw, "\t.section .note.GNU-stack,\"\",@progbits\n")
	return bw.Flush()
}
