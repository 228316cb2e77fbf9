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

package snapshot_test

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lassandro/gosynacor/pkg/machine"
	"github.com/lassandro/gosynacor/pkg/snapshot"
)

func newMachine(t *testing.T) *machine.Machine {
	mc := &machine.Machine{}

	// add r0 4 5; push r0; out r0; halt
	require.NoError(t, mc.LoadWords([]uint16{
		9, 32768, 4, 5, 2, 32768, 0,
	}))

	mc.State.Memory.Write(0x1000, 7)
	mc.State.Memory.Write(0x1001, 8)
	mc.State.Memory.Write(0x7FFF, 9)
	mc.State.Input.Fill("go north\n")
	mc.State.Input.Next()

	require.NoError(t, mc.Step())
	require.NoError(t, mc.Step())

	return mc
}

func TestCaptureSegments(t *testing.T) {
	mc := newMachine(t)
	snap := snapshot.Capture(mc)

	require.Equal(t, snapshot.SNAPSHOT_VERSION, snap.Version)
	require.Equal(t, uint16(6), snap.IP)
	require.Equal(t, uint16(9), snap.Registers[0])
	require.Equal(t, []uint16{9}, snap.Stack)
	require.Equal(t, "o north\n", snap.Input)
	require.Equal(t, uint64(2), snap.Cycles)
	require.Equal(t, []snapshot.Segment{
		{Start: 0, Words: []uint16{9, 32768, 4, 5, 2, 32768, 0}},
		{Start: 0x1000, Words: []uint16{7, 8}},
		{Start: 0x7FFF, Words: []uint16{9}},
	}, snap.Memory)
}

func TestRoundTrip(t *testing.T) {
	mc := newMachine(t)

	var buffer bytes.Buffer
	require.NoError(t, snapshot.Write(&buffer, snapshot.Capture(mc)))

	snap, err := snapshot.Read(&buffer)
	require.NoError(t, err)

	restored := &machine.Machine{}
	restored.State.Memory.Write(0x2000, 1)
	require.NoError(t, snap.Restore(restored))

	require.Equal(t, mc.State.Registers, restored.State.Registers)
	require.Equal(t, mc.State.Program, restored.State.Program)
	require.Equal(t, mc.State.Stack, restored.State.Stack)
	require.Equal(t, mc.State.Cycles, restored.State.Cycles)
	require.Equal(t, mc.State.Input.Pending(), restored.State.Input.Pending())
	require.Equal(t, mc.State.Memory.Len(), restored.State.Memory.Len())

	_, set := restored.ReadMemory(0x2000)
	require.False(t, set, "restore must clear memory not in the snapshot")

	value, set := restored.ReadMemory(0x1001)
	require.True(t, set)
	require.Equal(t, uint16(8), value)
}

func TestCanonicalEncoding(t *testing.T) {
	var first, second bytes.Buffer

	require.NoError(t, snapshot.Write(&first, snapshot.Capture(newMachine(t))))
	require.NoError(t, snapshot.Write(&second, snapshot.Capture(newMachine(t))))
	require.Equal(t, first.Bytes(), second.Bytes())
}

func TestRestoreRejects(t *testing.T) {
	mc := newMachine(t)
	before := mc.State.Program

	err := (&snapshot.Snapshot{Version: 99}).Restore(mc)
	require.Error(t, err)

	err = (&snapshot.Snapshot{
		Version: snapshot.SNAPSHOT_VERSION,
		Memory:  []snapshot.Segment{{Start: 0xFFFF, Words: []uint16{1, 2}}},
	}).Restore(mc)
	require.Error(t, err)

	require.Equal(t, before, mc.State.Program)
}

func TestReadEmpty(t *testing.T) {
	_, err := snapshot.Read(bytes.NewReader(nil))
	require.Error(t, err)

	_, err = snapshot.Read(bytes.NewReader([]byte{0xFF, 0x00}))
	require.Error(t, err)
}

func TestSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.snap")
	mc := newMachine(t)

	require.NoError(t, snapshot.Save(path, mc))

	restored := &machine.Machine{}
	require.NoError(t, snapshot.Load(path, restored))

	// The restored machine picks up where the original left off.
	require.NoError(t, restored.Step())
	require.True(t, restored.Halted())
	require.Equal(t, uint16(7), restored.IP())
}
