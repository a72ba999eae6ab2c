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

// Package logging configures the global zerolog logger for the command-line
// tools
package logging

import (
	"fmt"
	"io"
	stdlog "log"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const rfc3339Milli = "2006-01-02T15:04:05.000Z07:00" // RFC3339 with 3 decimal places, padded

// Setup initializes zerolog. An empty logFile writes readable text to
// stderr, "-" writes JSON to stderr and anything else appends JSON to that
// file. The returned closer releases the log file, if any.
func Setup(levelName, logFile string) (io.Closer, error) {
	return setup(os.Stderr, levelName, logFile)
}

func setup(stderr io.Writer, levelName, logFile string) (io.Closer, error) {
	zerolog.TimeFieldFormat = rfc3339Milli
	zerolog.DurationFieldInteger = true
	var closer io.Closer = nopCloser{}
	logger := zerolog.New(stderr).With().Timestamp().Logger()
	switch logFile {
	case "-":
		// write JSON to stderr
	case "":
		// write pretty text to stderr
		logger = logger.Output(zerolog.ConsoleWriter{
			Out:        stderr,
			TimeFormat: "15:04:05",
		})
	default:
		f, err := os.OpenFile(logFile, os.O_WRONLY|os.O_APPEND|os.O_CREATE, 0666)
		if err != nil {
			return nil, fmt.Errorf("log_file: %w", err)
		}
		logger = logger.Output(f)
		closer = f
	}
	if levelName == "" {
		levelName = zerolog.InfoLevel.String()
	}
	level, err := zerolog.ParseLevel(levelName)
	if err != nil {
		closer.Close()
		return nil, fmt.Errorf("log_level: %w", err)
	}
	log.Logger = logger.Level(level)
	// pass stdlib logger through
	stdlog.SetFlags(0)
	stdlog.SetOutput(log.Logger)
	return closer, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
