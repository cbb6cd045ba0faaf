// Copyright 2020 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package config reads the lists of banned APIs given to bancheck.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// BannedAPI is a banned import or function.
type BannedAPI struct {
	// Name is the import path, or the full name of the function as printed
	// by go/types, e.g. "fmt.Printf" or "(*example.com/pkg.T).Method".
	Name string `json:"name" yaml:"name"`
	// Msg is shown with every finding, e.g. the reason for the ban.
	Msg        string      `json:"msg" yaml:"msg"`
	Exemptions []Exemption `json:"exemptions" yaml:"exemptions"`
}

// Exemption allows the packages matching AllowedPkg, a path.Match pattern,
// to use a banned API.
type Exemption struct {
	Justification string `json:"justification" yaml:"justification"`
	AllowedPkg    string `json:"allowedPkg" yaml:"allowedPkg"`
}

// Config is the content of a configuration file.
type Config struct {
	Imports   []BannedAPI `json:"imports" yaml:"imports"`
	Functions []BannedAPI `json:"functions" yaml:"functions"`
}

// ReadConfigs reads the files and concatenates their content. Files ending
// in .yaml or .yml are YAML, the others JSON.
func ReadConfigs(files []string) (*Config, error) {
	cfg := &Config{}
	for _, file := range files {
		c, err := readConfig(file)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", file, err)
		}
		if err := c.validate(); err != nil {
			return nil, fmt.Errorf("%s: %w", file, err)
		}
		cfg.Imports = append(cfg.Imports, c.Imports...)
		cfg.Functions = append(cfg.Functions, c.Functions...)
	}
	return cfg, nil
}

func readConfig(file string) (*Config, error) {
	info, err := os.Stat(file)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return nil, errors.New("file is a directory")
	}
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, err
	}
	var c Config
	switch strings.ToLower(filepath.Ext(file)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &c)
	default:
		err = json.Unmarshal(data, &c)
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Config) validate() error {
	for _, list := range [][]BannedAPI{c.Imports, c.Functions} {
		for _, api := range list {
			if api.Name == "" {
				return errors.New("banned API without a name")
			}
			for _, e := range api.Exemptions {
				if strings.TrimSpace(e.Justification) == "" {
					return fmt.Errorf("exemption of %q for %q has no justification", api.Name, e.AllowedPkg)
				}
				if _, err := filepath.Match(e.AllowedPkg, ""); err != nil {
					return fmt.Errorf("exemption of %q: invalid package pattern %q", api.Name, e.AllowedPkg)
				}
			}
		}
	}
	return nil
}

const websecurityPkg = "github.com/google/go-safeweb-dsl/websecurity"

func method(recv, name string) string {
	return "(*" + websecurityPkg + "." + recv + ")." + name
}

// Defaults bans the configuration methods that switch a protection off.
func Defaults() *Config {
	const msg = "switches off a protection that is on by default; add a justified exemption if this is intended"
	var fns []BannedAPI
	for _, recv := range []string{
		"CSRF",
		"Headers",
		"ContentTypeOptions",
		"XSSProtection",
		"CacheControl",
		"HTTPStrictTransportSecurity",
		"FrameOptions",
	} {
		fns = append(fns, BannedAPI{Name: method(recv, "Disable"), Msg: msg})
	}
	return &Config{Functions: fns}
}

// Merge returns the union of the configurations.
func Merge(cfgs ...*Config) *Config {
	out := &Config{}
	for _, c := range cfgs {
		out.Imports = append(out.Imports, c.Imports...)
		out.Functions = append(out.Functions, c.Functions...)
	}
	return out
}
