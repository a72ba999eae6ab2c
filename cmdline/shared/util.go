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
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog/log"
	"golang.org/x/term"

	"github.com/sassoftware/oeprops/config"
	"github.com/sassoftware/oeprops/lib/atomicfile"
)

// InitConfig loads the configuration named by --config or $OEPROPS_CONFIG.
// Otherwise the per-user file is used if it exists, and built-in defaults
// apply if it does not.
func InitConfig() error {
	if CurrentConfig != nil {
		return nil
	}
	usedDefault := false
	path := ArgConfig
	if path == "" {
		path = config.DefaultConfig()
		// a file named by the environment must exist
		usedDefault = os.Getenv(config.EnvConfig) == ""
	}
	if path == "" {
		CurrentConfig = config.New()
		return nil
	}
	cfg, err := config.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && usedDefault {
			CurrentConfig = config.New()
			return nil
		}
		return err
	}
	CurrentConfig = cfg
	return nil
}

func OpenFile(path string) (*os.File, error) {
	if path == "-" {
		return os.Stdin, nil
	}
	return os.Open(path)
}

// OpenForPatch opens an image to be modified. If the result goes back to the
// same file, however it is spelled, it is opened for writing so it can be
// patched in place.
func OpenForPatch(inpath, outpath string) (*os.File, error) {
	if outpath == "" || outpath == inpath || sameFile(inpath, outpath) {
		return os.OpenFile(inpath, os.O_RDWR, 0)
	}
	return os.Open(inpath)
}

func sameFile(a, b string) bool {
	ainfo, err := os.Stat(a)
	if err != nil {
		return false
	}
	binfo, err := os.Stat(b)
	if err != nil {
		return false
	}
	return os.SameFile(ainfo, binfo)
}

func Fail(err error) error {
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(70)
	}
	return err
}

type fder interface {
	Fd() uintptr
}

// RefuseTerminal returns an error if binary output would go to a terminal
func RefuseTerminal(w io.Writer, force bool) error {
	if force {
		return nil
	}
	if f, ok := w.(fder); ok && term.IsTerminal(int(f.Fd())) {
		return fmt.Errorf("refusing to write binary output to a terminal, use -o or --force")
	}
	return nil
}

// WriteOutput writes data to path, or to the command's output for "-". Files
// are replaced atomically.
func WriteOutput(stdout io.Writer, path string, data []byte, binary, force bool) error {
	if path == "" || path == "-" {
		if binary {
			if err := RefuseTerminal(stdout, force); err != nil {
				return err
			}
		}
		_, err := stdout.Write(data)
		return err
	}
	out, err := atomicfile.WriteAny(path)
	if err != nil {
		return err
	}
	defer out.Close()
	if _, err := out.Write(data); err != nil {
		return err
	}
	if err := out.Commit(); err != nil {
		return err
	}
	log.Debug().Str("path", path).Int("length", len(data)).Msg("wrote output")
	return nil
}
