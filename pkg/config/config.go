// Copyright (C) 2021  Antonio Lassandro

// This program is free software: you can redistribute it and/or modify it
// under the terms of the GNU General Public License as published by the Free
// Software Foundation, either version 3 of the License, or (at your option)
// any later version.

// This program is distributed in the hope that it will be useful, but WITHOUT
// ANY WARRANTY; without even the implied warranty of MERCHANTABILITY or
// FITNESS FOR A PARTICULAR PURPOSE.  See the GNU General Public License for
// more details.

// You should have received a copy of the GNU General Public License along
// with this program.  If not, see <http://www.gnu.org/licenses/>.

// Package config reads the gosynacor.toml file that tunes a session.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/lassandro/gosynacor/pkg/encoding"
)

const CONFIG_NAME = "gosynacor.toml"

type Config struct {
	Input    Input    `toml:"input"`
	Debugger Debugger `toml:"debugger"`

	// Directory holding the config file, empty for defaults
	Dir string `toml:"-"`
}

type Input struct {
	// Lines replayed to the program before standard input
	Script string `toml:"script"`
}

type Debugger struct {
	Breakpoints []string `toml:"breakpoints"`
	Snapshot    string   `toml:"snapshot"`
	BreakWord   string   `toml:"break_word"`
	DumpWord    string   `toml:"dump_word"`
	History     string   `toml:"history"`
	Trace       bool     `toml:"trace"`
}

func Default() *Config {
	return &Config{
		Debugger: Debugger{
			Snapshot:  "gosynacor.snap",
			BreakWord: "debug",
			DumpWord:  "dump",
			History:   ".gosynacor_history",
		},
	}
}

// Parse decodes a config document over the defaults. Unknown keys are
// rejected.
func Parse(data string) (*Config, error) {
	cfg := Default()

	meta, err := toml.Decode(data, cfg)

	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))

		for _, key := range undecoded {
			keys = append(keys, key.String())
		}

		return nil, fmt.Errorf("config: unknown keys: %s", strings.Join(keys, ", "))
	}

	if _, err := cfg.BreakpointAddrs(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Load reads the config file at path. Relative paths inside it are taken
// relative to the file's directory.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)

	if err != nil {
		return nil, err
	}

	cfg, err := Parse(string(data))

	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	cfg.Dir, err = filepath.Abs(filepath.Dir(path))

	if err != nil {
		return nil, err
	}

	return cfg, nil
}

// FindAndLoad walks up from dir looking for gosynacor.toml. Defaults are
// returned when none is found.
func FindAndLoad(dir string) (*Config, error) {
	dir, err := filepath.Abs(dir)

	if err != nil {
		return nil, err
	}

	for {
		path := filepath.Join(dir, CONFIG_NAME)

		if _, err := os.Stat(path); err == nil {
			return Load(path)
		} else if !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}

		parent := filepath.Dir(dir)

		if parent == dir {
			return Default(), nil
		}

		dir = parent
	}
}

// Resolve makes a path from the config absolute. Empty stays empty.
func (cfg *Config) Resolve(path string) string {
	if path == "" || filepath.IsAbs(path) || cfg.Dir == "" {
		return path
	}

	return filepath.Join(cfg.Dir, path)
}

// BreakpointAddrs parses the configured breakpoints. Hex and decimal forms
// are accepted.
func (cfg *Config) BreakpointAddrs() ([]uint16, error) {
	addrs := make([]uint16, 0, len(cfg.Debugger.Breakpoints))

	for _, breakpoint := range cfg.Debugger.Breakpoints {
		addr, err := encoding.DecodeWord(breakpoint)

		if err != nil {
			return nil, fmt.Errorf("config: breakpoint %q: %w", breakpoint, err)
		}

		addrs = append(addrs, addr)
	}

	return addrs, nil
}
