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

// Package inspectcmd decodes and checks properties records in enclave images
package inspectcmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/sassoftware/oeprops/cmdline/shared"
	"github.com/sassoftware/oeprops/lib/oeinfo"
)

var ShowCmd = &cobra.Command{
	Use:   "show FILE",
	Short: "Decode the properties record of an enclave image or record file",
	Args:  cobra.ExactArgs(1),
	RunE:  showCmd,
}

var CheckCmd = &cobra.Command{
	Use:   "check FILE...",
	Short: "Validate the properties records of enclave images",
	Args:  cobra.MinimumNArgs(1),
	RunE:  checkCmd,
}

var LayoutCmd = &cobra.Command{
	Use:   "layout",
	Short: "Print the binary layout of the record types",
	Args:  cobra.NoArgs,
	RunE:  layoutCmd,
}

var ErrCheckFailed = errors.New("1 or more files did not validate")

var (
	argFormat       string
	argForce        bool
	argRequireSign  bool
	argNoDebug      bool
	argLayoutFormat string
)

func init() {
	shared.RootCmd.AddCommand(ShowCmd)
	ShowCmd.Flags().StringVarP(&argFormat, "format", "f", "text", "Output format: text, json, yaml or cbor")
	ShowCmd.Flags().BoolVar(&argForce, "force", false, "Write cbor output even if stdout is a terminal")

	shared.RootCmd.AddCommand(CheckCmd)
	CheckCmd.Flags().BoolVar(&argRequireSign, "require-signed", false, "Fail if the record has not been signed")
	CheckCmd.Flags().BoolVar(&argNoDebug, "no-debug", false, "Fail if the enclave allows debugging")

	shared.RootCmd.AddCommand(LayoutCmd)
	LayoutCmd.Flags().StringVarP(&argLayoutFormat, "format", "f", "text", "Output format: text, json or yaml")
}

func loadView(path string) (*recordView, error) {
	l, err := shared.LoadRecord(path)
	if err != nil {
		return nil, err
	}
	rec, ok := l.Record.(*oeinfo.PropertiesSGX)
	if !ok {
		return nil, fmt.Errorf("%s: no decoder for enclave type %s", path, l.Kind.Name)
	}
	return viewSGX(l, rec), nil
}

func showCmd(cmd *cobra.Command, args []string) error {
	v, err := loadView(args[0])
	if err != nil {
		return err
	}
	w := cmd.OutOrStdout()
	if argFormat == "cbor" {
		if err := shared.RefuseTerminal(w, argForce); err != nil {
			return err
		}
	}
	return writeView(w, v, argFormat)
}

// checkOne returns every reason path does not pass
func checkOne(path string, requireSigned, noDebug bool) error {
	l, err := shared.LoadRecord(path)
	if err != nil {
		return err
	}
	if l.Section != nil && l.Section.Writable {
		log.Warn().Str("path", path).Msgf("%s section is writable at run time", oeinfo.SectionName)
	}
	var errs []error
	if err := l.Record.Validate(); err != nil {
		errs = append(errs, err)
	}
	if rec, ok := l.Record.(*oeinfo.PropertiesSGX); ok {
		if requireSigned && rec.SigStruct.IsZero() {
			errs = append(errs, errors.New("record is not signed"))
		}
		if noDebug && rec.Settings.DebugAllowed() {
			errs = append(errs, errors.New("enclave allows debugging"))
		}
	}
	return errors.Join(errs...)
}

func checkCmd(cmd *cobra.Command, args []string) error {
	w := cmd.OutOrStdout()
	pass := color.New(color.FgGreen).SprintFunc()
	fail := color.New(color.FgRed).SprintFunc()
	failed := 0
	for _, path := range args {
		if err := checkOne(path, argRequireSign, argNoDebug); err != nil {
			fmt.Fprintf(w, "%s %s: %s\n", fail("FAIL"), path, strings.ReplaceAll(err.Error(), "\n", "; "))
			log.Debug().Err(err).Str("path", path).Msg("check failed")
			failed++
			continue
		}
		fmt.Fprintf(w, "%s %s\n", pass("PASS"), path)
	}
	if failed != 0 {
		return ErrCheckFailed
	}
	return nil
}

func layoutCmd(cmd *cobra.Command, args []string) error {
	entries := oeinfo.Layout()
	if err := writeLayout(cmd.OutOrStdout(), entries, argLayoutFormat); err != nil {
		return err
	}
	return oeinfo.CheckLayout()
}

func writeLayout(w io.Writer, entries []oeinfo.LayoutEntry, format string) error {
	switch format {
	case "", "text":
		tw := tabwriter.NewWriter(w, 0, 8, 2, ' ', tabwriter.AlignRight)
		fmt.Fprintln(tw, "TYPE\tEXPECTED\tPACKED\tNATURAL\tOK\t")
		for _, e := range entries {
			fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%t\t\n", e.Name, e.Expected, e.Packed, e.Natural, e.OK())
		}
		return tw.Flush()
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(entries)
	case "yaml":
		enc := yaml.NewEncoder(w)
		if err := enc.Encode(entries); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}
