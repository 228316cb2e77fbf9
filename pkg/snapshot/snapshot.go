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

// Package snapshot saves and restores the complete machine state so a long
// session can be resumed or inspected offline.
package snapshot

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/fxamacker/cbor/v2"

	"github.com/lassandro/gosynacor/pkg/machine"
)

const SNAPSHOT_VERSION = 1

var encMode cbor.EncMode

func init() {
	mode, err := cbor.CanonicalEncOptions().EncMode()

	if err != nil {
		panic(fmt.Sprintf("snapshot: failed to create CBOR enc mode: %v", err))
	}

	encMode = mode
}

// Segment is a run of consecutive set addresses.
type Segment struct {
	Start uint16   `cbor:"1,keyasint"`
	Words []uint16 `cbor:"2,keyasint"`
}

type Snapshot struct {
	Version   int                            `cbor:"1,keyasint"`
	IP        uint16                         `cbor:"2,keyasint"`
	Registers [machine.REGISTER_COUNT]uint16 `cbor:"3,keyasint"`
	Stack     []uint16                       `cbor:"4,keyasint,omitempty"`
	Memory    []Segment                      `cbor:"5,keyasint"`
	Input     string                         `cbor:"6,keyasint,omitempty"`
	Halted    bool                           `cbor:"7,keyasint,omitempty"`
	Cycles    uint64                         `cbor:"8,keyasint"`
}

// Capture copies the state of mc. Unset addresses are left out so they stay
// unset after a restore.
func Capture(mc *machine.Machine) *Snapshot {
	snap := &Snapshot{
		Version:   SNAPSHOT_VERSION,
		IP:        mc.State.Program,
		Registers: mc.State.Registers,
		Stack:     mc.ReadStack(),
		Input:     mc.State.Input.Pending(),
		Halted:    mc.State.Halted,
		Cycles:    mc.State.Cycles,
	}

	var current *Segment

	mc.State.Memory.Range(func(addr, value uint16) bool {
		if current == nil ||
			int(current.Start)+len(current.Words) != int(addr) {
			snap.Memory = append(snap.Memory, Segment{Start: addr})
			current = &snap.Memory[len(snap.Memory)-1]
		}

		current.Words = append(current.Words, value)
		return true
	})

	return snap
}

// Restore replaces the state of mc with the snapshot. The snapshot is
// validated first, so a bad snapshot leaves mc untouched.
func (snap *Snapshot) Restore(mc *machine.Machine) error {
	if snap.Version != SNAPSHOT_VERSION {
		return fmt.Errorf("snapshot: unsupported version %d", snap.Version)
	}

	for _, segment := range snap.Memory {
		if int(segment.Start)+len(segment.Words) > machine.MEMORY_SIZE {
			return fmt.Errorf(
				"snapshot: segment at %#04x overruns memory", segment.Start,
			)
		}
	}

	mc.State.Reset()
	mc.State.Registers = snap.Registers
	mc.State.Program = snap.IP
	mc.State.Stack = append([]uint16(nil), snap.Stack...)
	mc.State.Input.Fill(snap.Input)
	mc.State.Halted = snap.Halted
	mc.State.Cycles = snap.Cycles

	for _, segment := range snap.Memory {
		for i, word := range segment.Words {
			mc.State.Memory.Write(segment.Start+uint16(i), word)
		}
	}

	return nil
}

func Write(w io.Writer, snap *Snapshot) error {
	return encMode.NewEncoder(w).Encode(snap)
}

func Read(r io.Reader) (*Snapshot, error) {
	var snap Snapshot

	if err := cbor.NewDecoder(r).Decode(&snap); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("snapshot: empty file")
		}

		return nil, fmt.Errorf("snapshot: decode: %w", err)
	}

	return &snap, nil
}

// Save captures mc into the file at path.
func Save(path string, mc *machine.Machine) error {
	file, err := os.Create(path)

	if err != nil {
		return err
	}

	writer := bufio.NewWriter(file)

	if err := Write(writer, Capture(mc)); err != nil {
		file.Close()
		return err
	}

	if err := writer.Flush(); err != nil {
		file.Close()
		return err
	}

	return file.Close()
}

// Load restores mc from the file at path.
func Load(path string, mc *machine.Machine) error {
	file, err := os.Open(path)

	if err != nil {
		return err
	}

	defer file.Close()

	snap, err := Read(bufio.NewReader(file))

	if err != nil {
		return err
	}

	return snap.Restore(mc)
}
