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

// Package sigcmd installs an externally produced signing structure into a
// properties record
package sigcmd

import (
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/sassoftware/oeprops/cmdline/shared"
	"github.com/sassoftware/oeprops/lib/binpatch"
	"github.com/sassoftware/oeprops/lib/magic"
	"github.com/sassoftware/oeprops/lib/oesection"
)

var SetSigStructCmd = &cobra.Command{
	Use:   "set-sigstruct FILE",
	Short: "Replace the signing structure of an enclave image or record file",
	Args:  cobra.ExactArgs(1),
	RunE:  setSigStructCmd,
}

var (
	argSigStruct string
	argOutput    string
)

func init() {
	shared.RootCmd.AddCommand(SetSigStructCmd)
	SetSigStructCmd.Flags().StringVarP(&argSigStruct, "sigstruct", "s", "", "File holding the signing structure")
	SetSigStructCmd.Flags().StringVarP(&argOutput, "output", "o", "", "Write the result here instead of modifying the input in place")
}

func setSigStructCmd(cmd *cobra.Command, args []string) error {
	if argSigStruct == "" {
		return fmt.Errorf("--sigstruct is required")
	}
	return setSigStruct(args[0], argSigStruct, argOutput)
}

func setSigStruct(path, sigPath, outpath string) error {
	sig, err := os.ReadFile(sigPath)
	if err != nil {
		return shared.Fail(err)
	}
	l, err := shared.LoadRecord(path)
	if err != nil {
		return err
	}
	kind := l.Kind
	if err := kind.CheckSigStruct(sig); err != nil {
		return err
	}
	// validate the record as it will be once patched
	updated := append([]byte(nil), l.Blob...)
	copy(updated[kind.SigStructOffset:], sig)
	if err := kind.Validate(updated); err != nil {
		return fmt.Errorf("%s: %w", sigPath, err)
	}
	if outpath == "" {
		outpath = path
	}
	f, err := shared.OpenForPatch(path, outpath)
	if err != nil {
		return shared.Fail(err)
	}
	defer f.Close()
	switch l.FileType {
	case magic.FileTypeELF:
		err = oesection.Patch(f, outpath, int64(kind.SigStructOffset), sig)
	default:
		patch := binpatch.New()
		patch.Add(int64(kind.SigStructOffset), int64(len(sig)), sig)
		err = patch.Apply(f, outpath)
	}
	if err != nil {
		return err
	}
	log.Info().Str("input", path).Str("output", outpath).Str("sigstruct", sigPath).Msg("installed signing structure")
	return nil
}
