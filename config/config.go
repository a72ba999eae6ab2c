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

// Package config reads the YAML file describing the enclave to build
package config

import (
	"errors"
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/sassoftware/oeprops/lib/oeinfo"
)

var (
	Version = "unknown" // set this at link time
	Commit  = "unknown" // set this at link time
)

type EnclaveConfig struct {
	Type            string `yaml:"type"`             // Enclave kind, default "sgx"
	ProductID       int64  `yaml:"product_id"`       // ISV product identity, 0-65535
	SecurityVersion int64  `yaml:"security_version"` // ISV security version, 0-65535
	Debug           bool   `yaml:"debug"`            // Allow the enclave to be debugged
	NumHeapPages    uint64 `yaml:"num_heap_pages"`
	NumStackPages   uint64 `yaml:"num_stack_pages"`
	NumTCS          uint64 `yaml:"num_tcs"` // Number of thread control structures
}

type Config struct {
	Enclave  *EnclaveConfig `yaml:"enclave"`
	LogLevel string         `yaml:"log_level"` // zerolog level name, default "info"
	LogFile  string         `yaml:"log_file"`  // "-" for JSON on stderr, or a path

	path string
}

// New returns a configuration with default values
func New() *Config {
	return &Config{Enclave: &EnclaveConfig{Type: "sgx"}}
}

func ReadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data, path)
}

// Parse a configuration document. path is used only for error messages.
func Parse(data []byte, path string) (*Config, error) {
	config := New()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	config.path = path
	return config, config.Normalize()
}

// Normalize fills in defaults and checks that values are in range
func (config *Config) Normalize() error {
	if config.Enclave == nil {
		config.Enclave = new(EnclaveConfig)
	}
	if config.Enclave.Type == "" {
		config.Enclave.Type = "sgx"
	}
	var errs []error
	if err := checkUint16("product_id", config.Enclave.ProductID); err != nil {
		errs = append(errs, err)
	}
	if err := checkUint16("security_version", config.Enclave.SecurityVersion); err != nil {
		errs = append(errs, err)
	}
	if err := errors.Join(errs...); err != nil {
		if config.path != "" {
			return fmt.Errorf("%s: %w", config.path, err)
		}
		return err
	}
	return nil
}

func checkUint16(name string, v int64) error {
	if v < 0 || v > math.MaxUint16 {
		return fmt.Errorf("enclave.%s: value %d is out of range 0-%d", name, v, math.MaxUint16)
	}
	return nil
}

// Policy converts the enclave section to the inputs of the record builder
func (config *Config) Policy() (oeinfo.Policy, error) {
	if err := config.Normalize(); err != nil {
		return oeinfo.Policy{}, err
	}
	e := config.Enclave
	return oeinfo.Policy{
		ProductID:       uint16(e.ProductID),
		SecurityVersion: uint16(e.SecurityVersion),
		Debug:           oeinfo.PolicyFromBool(e.Debug),
		NumHeapPages:    e.NumHeapPages,
		NumStackPages:   e.NumStackPages,
		NumTCS:          e.NumTCS,
	}, nil
}

// Path returns the file the configuration was read from, if any
func (config *Config) Path() string {
	return config.path
}
