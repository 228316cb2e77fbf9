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

package debugger

import (
	"io"
	"sync/atomic"

	"github.com/lassandro/gosynacor/pkg/assembler"
	"github.com/lassandro/gosynacor/pkg/machine"
)

type WatchpointType uint

func (wtype WatchpointType) String() string {
	switch wtype {
	case ReadWatch:
		return "read"
	case WriteWatch:
		return "write"
	case ReadWriteWatch:
		return "rwrite"
	}

	return "unknown"
}

type Watchpoint struct {
	Addr uint16
	Type WatchpointType
}

type Breakpoint struct {
	Addr uint16
}

// Stats counts retired instructions per opcode.
type Stats struct {
	Counts [machine.OP_NOOP + 1]uint64
}

type Debugger struct {
	// Stop at the next instruction boundary. Safe to set from a signal
	// handler goroutine.
	Break atomic.Bool

	// Set once the user asked to end the session
	Quit bool

	Breakpoints []Breakpoint
	Watchpoints []Watchpoint

	Source   io.ReadSeeker
	SymTable *assembler.SymTable

	// Program image restored by the reset command
	Image []uint16

	Console CommandSource
	Out     io.Writer

	// Input lines that open the debugger or write a snapshot instead of
	// reaching the program
	BreakWord string
	DumpWord  string

	SnapshotPath string

	// Print every retired instruction
	Trace bool

	// XOR key applied when viewing memory
	Mask uint16

	Stats Stats

	HandleBreak func(*Debugger, *machine.Machine)
	HandleRead  func(uint16, *Debugger, *machine.Machine)
	HandleWrite func(uint16, *Debugger, *machine.Machine)

	lastcmd []string
}
