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

package debugger_test

import (
	"bufio"
	"bytes"
	"io"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/require"

	"github.com/lassandro/gosynacor/pkg/assembler"
	"github.com/lassandro/gosynacor/pkg/debugger"
	"github.com/lassandro/gosynacor/pkg/machine"
)

func init() {
	color.NoColor = true
}

type session struct {
	mc      *machine.Machine
	dbg     *debugger.Debugger
	display *bytes.Buffer
	out     *bytes.Buffer
}

func newSession(t *testing.T, words []uint16, keyboard, commands string) *session {
	s := &session{
		display: &bytes.Buffer{},
		out:     &bytes.Buffer{},
	}

	s.dbg = debugger.New(
		s.out, debugger.NewReaderSource(strings.NewReader(commands), nil),
	)

	s.mc = &machine.Machine{
		Devices: &machine.DeviceHandler{
			Keyboard: bufio.NewReader(strings.NewReader(keyboard)),
			Display:  bufio.NewWriter(s.display),
		},
		Debugger: s.dbg,
	}

	require.NoError(t, s.mc.LoadWords(words))
	s.dbg.Image = words

	return s
}

// scriptSource replays fixed results, then reports EOF.
type scriptSource struct {
	lines []string
	errs  []error
}

func (src *scriptSource) Command(prompt string) (string, error) {
	if len(src.lines) == 0 {
		return "", io.EOF
	}

	line, err := src.lines[0], src.errs[0]
	src.lines, src.errs = src.lines[1:], src.errs[1:]
	return line, err
}

var printA = []uint16{
	21,     // 0: noop
	21,     // 1: noop
	19, 65, // 2: out 'A'
	0, // 4: halt
}

func TestBreakpoint(t *testing.T) {
	s := newSession(t, printA, "", "r\nc\n")
	require.True(t, s.dbg.AddBreakpoint(2))
	require.False(t, s.dbg.AddBreakpoint(2))

	require.NoError(t, s.mc.Run())

	require.Equal(t, "A", s.display.String())
	require.Contains(t, s.out.String(), "Program stopped")
	require.Contains(t, s.out.String(), "=>     2: out / 65 / 65")
	require.Contains(t, s.out.String(), "ip")
	require.False(t, s.dbg.Quit)
}

func TestNextStops(t *testing.T) {
	s := newSession(t, printA, "", "n\nn\nc\n")
	s.dbg.AddBreakpoint(1)

	require.NoError(t, s.mc.Run())

	require.Equal(t, 1, strings.Count(s.out.String(), "Program stopped"))
	require.True(t, s.mc.Halted())
	require.Equal(t, uint64(4), s.mc.State.Cycles)
}

func TestQuit(t *testing.T) {
	for name, commands := range map[string]string{
		"Command":        "quit\n",
		"Closed Console": "",
	} {
		s := newSession(t, printA, "", commands)
		s.dbg.AddBreakpoint(2)

		require.NoError(t, s.mc.Run(), name)
		require.True(t, s.dbg.Quit, name)
		require.True(t, s.mc.Halted(), name)
		require.Empty(t, s.display.String(), name)
	}
}

func TestInterruptedPrompt(t *testing.T) {
	s := newSession(t, printA, "", "")
	s.dbg.Console = &scriptSource{
		lines: []string{"", "continue"},
		errs:  []error{debugger.ErrInterrupted, nil},
	}
	s.dbg.AddBreakpoint(2)

	require.NoError(t, s.mc.Run())
	require.False(t, s.dbg.Quit)
	require.Equal(t, "A", s.display.String())
}

func TestBreakWord(t *testing.T) {
	words := []uint16{
		20, 32768, // 0: in r0
		19, 32768, // 2: out r0
		0, // 4: halt
	}

	s := newSession(t, words, "debug\nx\n", "log 1\nc\n")

	require.NoError(t, s.mc.Run())

	require.Equal(t, "x", s.display.String())
	require.Equal(t, 2, strings.Count(s.out.String(), "=>     0: in / 32768 / r0"))
	require.Equal(t, uint16('x'), s.mc.State.Registers[0])
	require.Equal(t, uint64(3), s.mc.State.Cycles)
}

func TestDumpWord(t *testing.T) {
	words := []uint16{20, 32768, 0}
	path := filepath.Join(t.TempDir(), "session.snap")

	s := newSession(t, words, "dump\nq\n", "")
	s.dbg.SnapshotPath = path

	require.NoError(t, s.mc.Run())
	require.Contains(t, s.out.String(), "Snapshot written to "+path)
	require.Equal(t, uint16('q'), s.mc.State.Registers[0])

	restored := newSession(t, []uint16{0}, "", "")
	restored.dbg.SnapshotPath = path
	restored.dbg.Exec(restored.mc, "restore")

	require.Equal(t, uint16(0), restored.mc.IP())
	value, set := restored.mc.ReadMemory(1)
	require.True(t, set)
	require.Equal(t, uint16(32768), value)
}

func TestWatchpoints(t *testing.T) {
	words := []uint16{
		16, 100, 7, // 0: wmem 100 7
		15, 32768, 100, // 3: rmem r0 100
		0, // 6: halt
	}

	s := newSession(t, words, "", "c\nc\n")
	s.dbg.Exec(s.mc, "watch add 100 rw")
	s.dbg.Exec(s.mc, "watch add 100 rw")

	require.Len(t, s.dbg.Watchpoints, 1)
	require.NoError(t, s.mc.Run())

	require.Equal(t, 2, strings.Count(s.out.String(), "Program stopped"))
	require.Contains(t, s.out.String(), "[0x0064] 0x0007  |.|")
	require.Equal(t, uint16(7), s.mc.State.Registers[0])
}

func TestWatchpointKinds(t *testing.T) {
	words := []uint16{16, 100, 7, 15, 32768, 100, 0}

	s := newSession(t, words, "", "c\n")
	s.dbg.AddWatchpoint(100, debugger.ReadWatch)

	require.NoError(t, s.mc.Run())
	require.Equal(t, 1, strings.Count(s.out.String(), "Program stopped"))

	s.out.Reset()
	s.dbg.Exec(s.mc, "w ls")
	require.Equal(t, "#0: 0x0064 read\n", s.out.String())
}

func TestBreakCommands(t *testing.T) {
	s := newSession(t, printA, "", "")

	s.dbg.Exec(s.mc, "b a 0x20")
	s.dbg.Exec(s.mc, "b a 33")
	s.dbg.Exec(s.mc, "b a 0x20")
	require.Len(t, s.dbg.Breakpoints, 2)

	s.out.Reset()
	s.dbg.Exec(s.mc, "b")
	require.Equal(t, "#0: 0x0020\n#1: 0x0021\n", s.out.String())

	s.dbg.Exec(s.mc, "b rm 0")
	require.Equal(t, []debugger.Breakpoint{{Addr: 33}}, s.dbg.Breakpoints)

	s.dbg.Exec(s.mc, "b rm 4")
	require.Contains(t, s.out.String(), "Invalid breakpoint number")

	s.dbg.Exec(s.mc, "b clear")
	require.Empty(t, s.dbg.Breakpoints)
}

func TestMemoryCommands(t *testing.T) {
	s := newSession(t, printA, "", "")

	s.dbg.Exec(s.mc, "set 0x10 72 105")
	require.Equal(t, "[0x0010] 0x0048 0x0069  |Hi|\n", s.out.String())

	s.out.Reset()
	s.dbg.Exec(s.mc, "m 0x10 6")
	require.Equal(
		t,
		"[0x0010] 0x0048 0x0069 ------ ------  |Hi  |\n"+
			"[0x0014] ------ ------  |  |\n",
		s.out.String(),
	)

	s.out.Reset()
	s.dbg.Exec(s.mc, "text 0x10 2")
	require.Equal(t, "Hi\n", s.out.String())

	s.out.Reset()
	s.dbg.Exec(s.mc, "mask 0x20")
	s.dbg.Exec(s.mc, "text 0x10")
	require.Equal(t, "Mask key 0x0020\nhI\n", s.out.String())

	s.dbg.Exec(s.mc, "mask off")
	require.Equal(t, uint16(0), s.dbg.Mask)

	s.out.Reset()
	s.dbg.Exec(s.mc, "text")
	require.Equal(t, "\x15\x15\x13A\x00\n", s.out.String())
}

func TestRegisterCommands(t *testing.T) {
	s := newSession(t, printA, "", "")

	s.dbg.Exec(s.mc, "r r3 0x10")
	value, err := s.mc.ReadRegister(3)
	require.NoError(t, err)
	require.Equal(t, uint16(16), value)

	s.dbg.Exec(s.mc, "reg ip 4")
	require.Equal(t, uint16(4), s.mc.IP())

	s.out.Reset()
	s.dbg.Exec(s.mc, "r r9 1")
	require.Equal(t, "Invalid register\n", s.out.String())

	s.out.Reset()
	s.dbg.Exec(s.mc, "r")
	require.Contains(t, s.out.String(), "r7")
	require.Contains(t, s.out.String(), "16")
}

func TestStackCommand(t *testing.T) {
	s := newSession(t, printA, "", "")

	s.dbg.Exec(s.mc, "stack")
	require.Equal(t, "Stack empty\n", s.out.String())

	s.mc.State.Stack = []uint16{1, 2}
	s.out.Reset()
	s.dbg.Exec(s.mc, "t")
	s.dbg.Exec(s.mc, "")
	require.Equal(t, "1 2\n1 2\n", s.out.String())
}

func TestUnknownCommand(t *testing.T) {
	s := newSession(t, printA, "", "")

	require.False(t, s.dbg.Exec(s.mc, "frob"))
	require.Equal(t, "error: 'frob' is not a valid command\n", s.out.String())
}

func TestLabelsAndJump(t *testing.T) {
	s := newSession(t, printA, "", "")
	s.dbg.SymTable = &assembler.SymTable{
		Symbols: map[uint16]int64{},
		Labels:  map[uint16]string{2: "print", 4: "done"},
	}

	s.dbg.Exec(s.mc, "labels")
	require.Equal(t, "[0x0002] print\n[0x0004] done\n", s.out.String())

	s.out.Reset()
	s.dbg.Exec(s.mc, "jump print")
	require.Equal(t, uint16(2), s.mc.IP())
	require.Equal(t, "ip: 2 (print)\n", s.out.String())

	s.dbg.Exec(s.mc, "b add done")
	require.Equal(t, []debugger.Breakpoint{{Addr: 4}}, s.dbg.Breakpoints)

	s.out.Reset()
	s.dbg.Exec(s.mc, "jump nowhere")
	require.Equal(t, "Unable to find 'nowhere'\n", s.out.String())
}

func TestDisasmCommand(t *testing.T) {
	s := newSession(t, printA, "", "")

	s.dbg.Exec(s.mc, "d 2 2")
	require.Equal(t, "    2: out (A)65\n    4: halt\n", s.out.String())
}

func TestLogStopsAtFault(t *testing.T) {
	s := newSession(t, []uint16{21, 9999}, "", "")

	s.dbg.Exec(s.mc, "log 3")

	lines := strings.Split(strings.TrimSpace(s.out.String()), "\n")
	require.Len(t, lines, 2)
	require.Equal(t, "=>     0: noop /  / ", lines[0])
	require.Contains(t, lines[1], "invalid opcode")
}

func TestStatsAndTrace(t *testing.T) {
	s := newSession(t, printA, "", "")
	s.dbg.Trace = true

	require.NoError(t, s.mc.Run())
	require.Contains(t, s.out.String(), "    2: out / 65 / 65\n")

	require.Equal(t, uint64(2), s.dbg.Stats.Counts[machine.OP_NOOP])
	require.Equal(t, uint64(1), s.dbg.Stats.Counts[machine.OP_OUT])
	require.Equal(t, uint64(1), s.dbg.Stats.Counts[machine.OP_HALT])

	s.out.Reset()
	s.dbg.Exec(s.mc, "stats")
	require.Contains(t, s.out.String(), "noop")
	require.Contains(t, s.out.String(), "cycles")

	s.dbg.Exec(s.mc, "trace off")
	require.False(t, s.dbg.Trace)

	s.dbg.Exec(s.mc, "stats reset")
	require.Equal(t, debugger.Stats{}, s.dbg.Stats)
}

func TestReset(t *testing.T) {
	s := newSession(t, printA, "", "")

	require.NoError(t, s.mc.Run())
	s.mc.WriteMemory(0, 0)

	s.dbg.Exec(s.mc, "reset")

	require.False(t, s.mc.Halted())
	require.Equal(t, uint16(0), s.mc.IP())
	value, _ := s.mc.ReadMemory(0)
	require.Equal(t, uint16(21), value)

	s.dbg.Image = nil
	s.out.Reset()
	s.dbg.Exec(s.mc, "reset")
	require.Equal(t, "No program image loaded\n", s.out.String())
}

func TestSource(t *testing.T) {
	const source = "start: out 'A'\n       halt\n"

	symtable := &assembler.SymTable{
		Symbols: make(map[uint16]int64),
		Labels:  make(map[uint16]string),
	}

	words, errs := assembler.AssembleSource(strings.NewReader(source), symtable)
	require.Empty(t, errs)

	s := newSession(t, words, "", "")
	s.dbg.Source = strings.NewReader(source)
	s.dbg.SymTable = symtable

	s.dbg.Exec(s.mc, "source start 2")
	require.Equal(
		t,
		"[0x0000] start: out 'A'\n[0x0002]        halt\n",
		s.out.String(),
	)

	s.out.Reset()
	s.dbg.PrintSource(9, 1)
	require.Equal(t, "No instruction found at 0x0009\n", s.out.String())
}

func TestReaderSource(t *testing.T) {
	var prompt bytes.Buffer
	src := debugger.NewReaderSource(strings.NewReader("a\r\nb"), &prompt)

	line, err := src.Command("> ")
	require.NoError(t, err)
	require.Equal(t, "a", line)

	line, err = src.Command("> ")
	require.NoError(t, err)
	require.Equal(t, "b", line)

	_, err = src.Command("> ")
	require.Equal(t, io.EOF, err)

	require.Equal(t, "> > > ", prompt.String())
}

func TestBreakFromAnotherGoroutine(t *testing.T) {
	// 0: jmp 0
	s := newSession(t, []uint16{6, 0}, "", "quit\n")

	go s.dbg.Break.Store(true)

	require.NoError(t, s.mc.Run())
	require.True(t, s.dbg.Quit)
	require.True(t, s.mc.Halted())
	require.False(t, s.dbg.Break.Load())
}
