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
	"bufio"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"

	"github.com/lassandro/gosynacor/pkg/encoding"
	"github.com/lassandro/gosynacor/pkg/machine"
	"github.com/lassandro/gosynacor/pkg/snapshot"
)

var (
	bold  = color.New(color.Bold)
	faint = color.New(color.FgHiBlack)
)

// New returns a debugger writing to out and reading commands from console.
// The stop handlers print where the machine stopped and open the REPL.
func New(out io.Writer, console CommandSource) *Debugger {
	return &Debugger{
		Out:         out,
		Console:     console,
		BreakWord:   "debug",
		DumpWord:    "dump",
		HandleBreak: handleBreak,
		HandleRead:  handleWatch,
		HandleWrite: handleWatch,
	}
}

func handleBreak(dbg *Debugger, mc *machine.Machine) {
	if !dbg.Break.Load() {
		fmt.Fprintln(dbg.Out)
		fmt.Fprintln(dbg.Out, "Program stopped")

		if dbg.Source != nil && dbg.SymTable != nil {
			dbg.PrintSource(mc.State.Program, SOURCE_CONTEXT)
		} else {
			dbg.PrintLog(mc, 1)
		}
	}

	dbg.REPL(mc)
}

func handleWatch(addr uint16, dbg *Debugger, mc *machine.Machine) {
	fmt.Fprintln(dbg.Out)
	fmt.Fprintln(dbg.Out, "Program stopped")
	dbg.PrintMem(mc, addr, 1)
	dbg.REPL(mc)
}

// Step runs after every retired instruction. The program counter already
// points at the next instruction.
func (dbg *Debugger) Step(inst *machine.Instruction, mc *machine.Machine) {
	if inst.Opcode.Valid() {
		dbg.Stats.Counts[inst.Opcode]++
	}

	if dbg.Trace {
		fmt.Fprintf(dbg.Out, "%5d: %s\n", inst.Addr, inst)
	}

	if dbg.Break.Load() {
		dbg.HandleBreak(dbg, mc)
		return
	}

	for _, breakpoint := range dbg.Breakpoints {
		if mc.State.Program == breakpoint.Addr {
			dbg.HandleBreak(dbg, mc)
			break
		}
	}
}

func (dbg *Debugger) Read(addr uint16, mc *machine.Machine) {
	for _, watchpoint := range dbg.Watchpoints {
		if watchpoint.Type == WriteWatch {
			continue
		}

		if addr == watchpoint.Addr {
			dbg.HandleRead(addr, dbg, mc)
			break
		}
	}
}

func (dbg *Debugger) Write(addr uint16, mc *machine.Machine) {
	for _, watchpoint := range dbg.Watchpoints {
		if watchpoint.Type == ReadWatch {
			continue
		}

		if addr == watchpoint.Addr {
			dbg.HandleWrite(addr, dbg, mc)
			break
		}
	}
}

// Line intercepts the break and dump words. The pending in instruction is
// retried once the debugger returns.
func (dbg *Debugger) Line(line string, mc *machine.Machine) bool {
	word := strings.TrimRight(line, "\r\n")

	switch {
	case dbg.BreakWord != "" && word == dbg.BreakWord:
		dbg.HandleBreak(dbg, mc)
		return true

	case dbg.DumpWord != "" && word == dbg.DumpWord:
		dbg.Dump(mc, "")
		return true
	}

	return false
}

// AddBreakpoint registers addr, reporting false when it already exists.
func (dbg *Debugger) AddBreakpoint(addr uint16) bool {
	for _, breakpoint := range dbg.Breakpoints {
		if breakpoint.Addr == addr {
			return false
		}
	}

	dbg.Breakpoints = append(dbg.Breakpoints, Breakpoint{addr})
	return true
}

func (dbg *Debugger) AddWatchpoint(addr uint16, wtype WatchpointType) bool {
	for _, watchpoint := range dbg.Watchpoints {
		if watchpoint.Addr == addr && watchpoint.Type == wtype {
			return false
		}
	}

	dbg.Watchpoints = append(dbg.Watchpoints, Watchpoint{addr, wtype})
	return true
}

// Dump writes a snapshot of mc to path, or to SnapshotPath when path is
// empty.
func (dbg *Debugger) Dump(mc *machine.Machine, path string) {
	if path == "" {
		path = dbg.SnapshotPath
	}

	if path == "" {
		fmt.Fprintln(dbg.Out, "No snapshot path configured")
		return
	}

	if err := snapshot.Save(path, mc); err != nil {
		fmt.Fprintln(dbg.Out, err)
		return
	}

	fmt.Fprintf(dbg.Out, "Snapshot written to %s\n", path)
}

func (dbg *Debugger) Restore(mc *machine.Machine, path string) {
	if path == "" {
		path = dbg.SnapshotPath
	}

	if path == "" {
		fmt.Fprintln(dbg.Out, "No snapshot path configured")
		return
	}

	if err := snapshot.Load(path, mc); err != nil {
		fmt.Fprintln(dbg.Out, err)
		return
	}

	fmt.Fprintf(dbg.Out, "Snapshot restored from %s\n", path)
}

func (dbg *Debugger) PrintSource(addr uint16, count uint16) {
	if dbg.Source == nil {
		fmt.Fprintln(dbg.Out, "No source file loaded")
		return
	}

	if dbg.SymTable == nil {
		fmt.Fprintln(dbg.Out, "No symbol table loaded")
		return
	}

	offset, exists := dbg.SymTable.Symbols[addr]

	if !exists {
		fmt.Fprintf(dbg.Out, "No instruction found at %#04x\n", addr)
		return
	}

	if _, err := dbg.Source.Seek(offset, io.SeekStart); err != nil {
		fmt.Fprintln(dbg.Out, err)
		return
	}

	scanner := bufio.NewScanner(dbg.Source)
	scanner.Split(bufio.ScanLines)

	for i := uint16(0); i < count; i++ {
		if !scanner.Scan() {
			break
		}

		line := scanner.Text()

		// A line emitting several words is shown at its first address.
		foundaddr := false
		var lineaddr uint16
		for addr, linebyte := range dbg.SymTable.Symbols {
			if linebyte == offset && (!foundaddr || addr < lineaddr) {
				lineaddr = addr
				foundaddr = true
			}
		}

		if foundaddr {
			fmt.Fprint(dbg.Out, bold.Sprintf("[%#04x]", lineaddr), " ")
		} else {
			fmt.Fprint(dbg.Out, faint.Sprint("~~~~~~~~"), " ")
		}

		fmt.Fprintln(dbg.Out, line)

		offset += int64(len(line) + 1)
	}

	if err := scanner.Err(); err != nil {
		fmt.Fprintln(dbg.Out, err)
	}
}

// PrintMem shows count words from addr in rows, with an ASCII column.
// Values are unmasked with the current key first.
func (dbg *Debugger) PrintMem(mc *machine.Machine, addr uint16, count int) {
	for row := 0; row < count; row += MEMORY_ROW_WORDS {
		rowaddr := addr + uint16(row)
		var text strings.Builder

		fmt.Fprint(dbg.Out, bold.Sprintf("[%#04x]", rowaddr))

		for i := row; i < row+MEMORY_ROW_WORDS && i < count; i++ {
			value, set := mc.ReadMemory(addr + uint16(i))

			if !set {
				fmt.Fprint(dbg.Out, " ", faint.Sprint("------"))
				text.WriteRune(' ')
				continue
			}

			value = encoding.Unmask(value, dbg.Mask)

			if value == 0 {
				fmt.Fprint(dbg.Out, " ", faint.Sprintf("%#04x", value))
			} else {
				fmt.Fprintf(dbg.Out, " %#04x", value)
			}

			char, _ := encoding.ToPrintable(value)
			text.WriteRune(char)
		}

		fmt.Fprintf(dbg.Out, "  |%s|\n", text.String())
	}
}

// PrintText renders memory from addr as characters until the first unset
// address, or count words when count is positive.
func (dbg *Debugger) PrintText(mc *machine.Machine, addr uint16, count int) {
	var text strings.Builder

	for i := 0; count <= 0 || i < count; i++ {
		if int(addr)+i >= machine.MEMORY_SIZE {
			break
		}

		value, set := mc.ReadMemory(addr + uint16(i))

		if !set {
			break
		}

		text.WriteRune(encoding.ToASCII(encoding.Unmask(value, dbg.Mask)))
	}

	fmt.Fprintln(dbg.Out, text.String())
}

// PrintLog decodes count instructions ahead of the program counter without
// executing them.
func (dbg *Debugger) PrintLog(mc *machine.Machine, count int) {
	addr := mc.State.Program

	for i := 0; i < count; i++ {
		inst, err := mc.Decode(addr)

		if err != nil {
			fmt.Fprintln(dbg.Out, err)
			return
		}

		marker := "  "
		if i == 0 {
			marker = "=>"
		}

		fmt.Fprintf(dbg.Out, "%s %5d: %s\n", marker, inst.Addr, inst)
		addr = inst.Next()
	}
}

func (dbg *Debugger) PrintStack(mc *machine.Machine) {
	stack := mc.ReadStack()

	if len(stack) == 0 {
		fmt.Fprintln(dbg.Out, "Stack empty")
		return
	}

	words := make([]string, 0, len(stack))

	for _, word := range stack {
		words = append(words, fmt.Sprint(word))
	}

	fmt.Fprintln(dbg.Out, strings.Join(words, " "))
}

func (dbg *Debugger) PrintRegisters(mc *machine.Machine) {
	table := tablewriter.NewWriter(dbg.Out)
	header := make([]string, 0, machine.REGISTER_COUNT+2)
	row := make([]string, 0, machine.REGISTER_COUNT+2)

	for i, register := range mc.State.Registers {
		header = append(header, fmt.Sprintf("r%d", i))
		row = append(row, fmt.Sprint(register))
	}

	header = append(header, "ip", "sp")
	row = append(row, fmt.Sprint(mc.State.Program), fmt.Sprint(len(mc.State.Stack)))

	table.SetAutoFormatHeaders(false)
	table.SetHeader(header)
	table.Append(row)
	table.Render()
}

// PrintStats lists opcode counts, most frequent first.
func (dbg *Debugger) PrintStats(mc *machine.Machine) {
	type entry struct {
		Opcode machine.Opcode
		Count  uint64
	}

	entries := make([]entry, 0, len(dbg.Stats.Counts))

	for op, count := range dbg.Stats.Counts {
		if count > 0 {
			entries = append(entries, entry{machine.Opcode(op), count})
		}
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Count != entries[j].Count {
			return entries[i].Count > entries[j].Count
		}

		return entries[i].Opcode < entries[j].Opcode
	})

	table := tablewriter.NewWriter(dbg.Out)
	table.SetAutoFormatHeaders(false)
	table.SetHeader([]string{"opcode", "count"})
	table.SetAlignment(tablewriter.ALIGN_RIGHT)

	for _, entry := range entries {
		table.Append([]string{entry.Opcode.String(), fmt.Sprint(entry.Count)})
	}

	table.SetFooter([]string{"cycles", fmt.Sprint(mc.State.Cycles)})
	table.Render()
}
