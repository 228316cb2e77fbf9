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

package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lassandro/gosynacor/pkg/config"
)

func TestDefaults(t *testing.T) {
	cfg, err := config.Parse("")
	require.NoError(t, err)
	require.Equal(t, config.Default(), cfg)
	require.Equal(t, "debug", cfg.Debugger.BreakWord)
	require.Equal(t, "dump", cfg.Debugger.DumpWord)
}

func TestParse(t *testing.T) {
	cfg, err := config.Parse(`
[input]
script = "solution.txt"

[debugger]
breakpoints = ["0x0aae", "6027", "#12"]
break_word = "halt!"
trace = true
`)
	require.NoError(t, err)

	require.Equal(t, "solution.txt", cfg.Input.Script)
	require.Equal(t, "halt!", cfg.Debugger.BreakWord)
	require.Equal(t, "dump", cfg.Debugger.DumpWord, "unset keys keep defaults")
	require.True(t, cfg.Debugger.Trace)

	addrs, err := cfg.BreakpointAddrs()
	require.NoError(t, err)
	require.Equal(t, []uint16{0x0aae, 6027, 12}, addrs)
}

func TestParseRejects(t *testing.T) {
	for name, doc := range map[string]string{
		"Unknown Key":    "[debugger]\nbreakpoint = [\"1\"]\n",
		"Bad Breakpoint": "[debugger]\nbreakpoints = [\"zz\"]\n",
		"Bad Syntax":     "[input\n",
		"Wrong Type":     "[debugger]\ntrace = \"yes\"\n",
	} {
		_, err := config.Parse(doc)
		require.Error(t, err, name)
	}
}

func TestLoadResolvesPaths(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, config.CONFIG_NAME)

	require.NoError(t, os.WriteFile(path, []byte(`
[input]
script = "scripts/solution.txt"

[debugger]
snapshot = "/var/tmp/session.snap"
`), 0644))

	nested := filepath.Join(dir, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0755))

	cfg, err := config.FindAndLoad(nested)
	require.NoError(t, err)

	abs, err := filepath.Abs(dir)
	require.NoError(t, err)

	require.Equal(t, abs, cfg.Dir)
	require.Equal(
		t,
		filepath.Join(abs, "scripts", "solution.txt"),
		cfg.Resolve(cfg.Input.Script),
	)
	require.Equal(t, "/var/tmp/session.snap", cfg.Resolve(cfg.Debugger.Snapshot))
	require.Equal(t, "", cfg.Resolve(""))
}

func TestDefaultsDoNotResolve(t *testing.T) {
	cfg := config.Default()
	require.Equal(t, "gosynacor.snap", cfg.Resolve(cfg.Debugger.Snapshot))
}
