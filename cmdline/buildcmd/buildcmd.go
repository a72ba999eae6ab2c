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

// Package buildcmd produces properties records from the enclave policy and
// places them into enclave images
package buildcmd

import (
	"bytes"
	"encoding/hex"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/sassoftware/oeprops/cmdline/shared"
	"github.com/sassoftware/oeprops/enclaves"
	"github.com/sassoftware/oeprops/lib/magic"
	"github.com/sassoftware/oeprops/lib/oeinfo"
	"github.com/sassoftware/oeprops/lib/oesection"
)

var BuildCmd = &cobra.Command{
	Use:   "build",
	Short: "Build a properties record from the enclave policy",
	Args:  cobra.NoArgs,
	RunE:  buildCmd,
}

var InjectCmd = &cobra.Command{
	Use:   "inject FILE",
	Short: "Write a freshly built properties record into an enclave image",
	Args:  cobra.ExactArgs(1),
	RunE:  injectCmd,
}

var (
	argFormat    string
	argOutput    string
	argForce     bool
	argSymbol    string
	argInjectOut string
	buildPolicy  *shared.PolicyFlags
	injectPolicy *shared.PolicyFlags
)

func init() {
	shared.RootCmd.AddCommand(BuildCmd)
	BuildCmd.Flags().StringVarP(&argFormat, "format", "f", "asm", "Output format: raw, asm or hex")
	BuildCmd.Flags().StringVarP(&argOutput, "output", "o", "-", "Write output to file")
	BuildCmd.Flags().BoolVar(&argForce, "force", false, "Write raw output even if stdout is a terminal")
	BuildCmd.Flags().StringVar(&argSymbol, "symbol", "", "Symbol name for asm output")
	buildPolicy = shared.AddPolicyFlags(BuildCmd.Flags())

	shared.RootCmd.AddCommand(InjectCmd)
	InjectCmd.Flags().StringVarP(&argInjectOut, "output", "o", "", "Write the patched image here instead of modifying it in place")
	injectPolicy = shared.AddPolicyFlags(InjectCmd.Flags())
}

// buildRecord resolves the policy and serializes a new record
func buildRecord(pf *shared.PolicyFlags) (*enclaves.Kind, []byte, error) {
	kind, policy, err := pf.Resolve(shared.CurrentConfig)
	if err != nil {
		return nil, nil, err
	}
	rec := kind.Build(policy)
	if err := rec.Validate(); err != nil {
		return nil, nil, err
	}
	blob, err := rec.MarshalBinary()
	if err != nil {
		return nil, nil, err
	}
	if len(blob) != kind.RecordSize {
		return nil, nil, fmt.Errorf("%s record: %w: expected %d bytes, got %d", kind.Name, oeinfo.ErrInvalidLength, kind.RecordSize, len(blob))
	}
	return kind, blob, nil
}

// formatRecord renders blob in one of the build output formats. The second
// return value is true for binary output.
func formatRecord(kind *enclaves.Kind, blob []byte, format, symbol string) ([]byte, bool, error) {
	switch format {
	case "raw":
		return blob, true, nil
	case "hex":
		return []byte(hex.Dump(blob)), false, nil
	case "asm":
		if symbol == "" {
			symbol = kind.Symbol
		}
		var buf bytes.Buffer
		if err := oesection.EmitAsm(&buf, symbol, blob); err != nil {
			return nil, false, err
		}
		return buf.Bytes(), false, nil
	default:
		return nil, false, fmt.Errorf("unknown output format %q", format)
	}
}

func buildCmd(cmd *cobra.Command, args []string) error {
	kind, blob, err := buildRecord(buildPolicy)
	if err != nil {
		return err
	}
	out, binary, err := formatRecord(kind, blob, argFormat, argSymbol)
	if err != nil {
		return err
	}
	if err := shared.WriteOutput(cmd.OutOrStdout(), argOutput, out, binary, argForce); err != nil {
		return shared.Fail(err)
	}
	log.Info().Str("type", kind.Name).Str("format", argFormat).Str("output", argOutput).Msg("built properties record")
	return nil
}

func injectCmd(cmd *cobra.Command, args []string) error {
	path := args[0]
	kind, blob, err := buildRecord(injectPolicy)
	if err != nil {
		return err
	}
	outpath := argInjectOut
	if outpath == "" {
		outpath = path
	}
	f, err := shared.OpenForPatch(path, outpath)
	if err != nil {
		return shared.Fail(err)
	}
	defer f.Close()
	if ft := magic.Detect(f); ft != magic.FileTypeELF {
		return fmt.Errorf("%s: expected an ELF image, found %s", path, ft)
	}
	if _, err := f.Seek(0, 0); err != nil {
		return shared.Fail(err)
	}
	if err := oesection.WriteRecord(f, outpath, blob); err != nil {
		return err
	}
	log.Info().Str("type", kind.Name).Str("input", path).Str("output", outpath).Msg("injected properties record")
	return nil
}
