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
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/sassoftware/oeprops/config"
	"github.com/sassoftware/oeprops/internal/logging"
)

var (
	ArgConfig     string
	ArgLogLevel   string
	CurrentConfig *config.Config
	argVersion    bool

	logCloser io.Closer
	lateHooks []func()
)

var RootCmd = &cobra.Command{
	Use:               "oeprops",
	Short:             "Build, inspect and patch Open Enclave properties records",
	PersistentPreRunE: setup,
	RunE:              bailUnlessVersion,
	SilenceUsage:      true,
	SilenceErrors:     true,
}

func init() {
	RootCmd.PersistentFlags().StringVarP(&ArgConfig, "config", "c", "", "Configuration file")
	RootCmd.PersistentFlags().StringVar(&ArgLogLevel, "log-level", "", "Log level (debug, info, warn, error)")
	RootCmd.PersistentFlags().BoolVar(&argVersion, "version", false, "Show version and exit")
}

func setup(cmd *cobra.Command, args []string) error {
	if argVersion {
		fmt.Fprintf(cmd.OutOrStdout(), "oeprops version %s (%s)\n", config.Version, config.Commit)
		os.Exit(0)
	}
	if err := InitConfig(); err != nil {
		return err
	}
	level := CurrentConfig.LogLevel
	if ArgLogLevel != "" {
		level = ArgLogLevel
	}
	closer, err := logging.Setup(level, CurrentConfig.LogFile)
	if err != nil {
		return err
	}
	logCloser = closer
	return nil
}

func bailUnlessVersion(cmd *cobra.Command, args []string) error {
	if !argVersion {
		return errors.New("expected a command")
	}
	return nil
}

func AddLateHook(f func()) {
	lateHooks = append(lateHooks, f)
}

func runLateHooks() {
	for _, f := range lateHooks {
		f()
	}
	lateHooks = nil
}

func Main() {
	runLateHooks()
	err := RootCmd.Execute()
	if logCloser != nil {
		logCloser.Close()
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "ERROR:", err)
		os.Exit(1)
	}
}
