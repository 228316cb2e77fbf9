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
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/lassandro/gosynacor/pkg/disasm"
	"github.com/lassandro/gosynacor/pkg/encoding"
	"github.com/lassandro/gosynacor/pkg/machine"
)

const helpText = `break [add|list|remove|clear]     manage breakpoints
watch [add|list|remove|clear]     manage watchpoints
register [r#|ip] [value]          show or edit registers
memory [addr] [#]                 show memory
set [addr] [value...]             write memory
text [addr] [#]                   show memory as characters
stack                             show the stack
log [#]                           decode instructions ahead of ip
disasm [addr] [#]                 list instructions
source [addr|label] [#]           show assembler source
labels                            list labels
jump [addr|label]                 move ip
mask [key]                        unmask memory views with an XOR key
stats [reset]                     opcode counts
trace [on|off]                    print every instruction
dump [path]                       write a snapshot
restore [path]                    load a snapshot
reset                             reload the program
continue | next | quit | clear`

// parseAddr accepts a label when a symbol table is loaded, otherwise a hex
// or decimal word.
func (dbg *Debugger) parseAddr(arg string) (uint16, error) {
	if dbg.SymTable != nil {
		if addr, ok := dbg.SymTable.Lookup(arg); ok {
			return addr, nil
		}
	}

	return encoding.DecodeWord(arg)
}

func parseCount(arg string) (int, error) {
	count, err := strconv.ParseInt(arg, 10, 32)

	if err != nil {
		return 0, err
	}

	if count < 0 {
		return 0, fmt.Errorf("negative count %d", count)
	}

	return int(count), nil
}

func indexFormat(count int, suffix string) string {
	digits := math.Floor(math.Log10(float64(count + 1)))
	return fmt.Sprintf("#%%0%dd: %%#04x%s\n", int64(digits)+1, suffix)
}

func (dbg *Debugger) usage(text string) {
	fmt.Fprintln(dbg.Out, "usage:", text)
}

func (dbg *Debugger) debugBreak(args []string) {
	const usage = "break [add|list|remove|clear]"

	if len(args) == 0 {
		args = append(args, "l")
	}

	cmd := args[0]
	args = args[1:]

	switch cmd {
	case "a", "add":
		const usage = "break add [addr|label]"

		if len(args) != 1 {
			dbg.usage(usage)
			return
		}

		addr, err := dbg.parseAddr(args[0])

		if err != nil {
			fmt.Fprintln(dbg.Out, err)
			return
		}

		if dbg.AddBreakpoint(addr) {
			fmt.Fprintf(dbg.Out, "Breakpoint added [%#04x]\n", addr)
		}

	case "l", "ls", "list":
		format := indexFormat(len(dbg.Breakpoints), "")

		for i, breakpoint := range dbg.Breakpoints {
			fmt.Fprintf(dbg.Out, format, i, breakpoint.Addr)
		}

	case "r", "rm", "remove":
		const usage = "break remove [#]"

		if len(args) != 1 {
			dbg.usage(usage)
			return
		}

		i, err := strconv.ParseInt(args[0], 10, 64)

		if err != nil {
			fmt.Fprintln(dbg.Out, err)
			return
		}

		if i < 0 || i >= int64(len(dbg.Breakpoints)) {
			fmt.Fprintln(dbg.Out, "Invalid breakpoint number")
			return
		}

		dbg.Breakpoints[i] = dbg.Breakpoints[len(dbg.Breakpoints)-1]
		dbg.Breakpoints = dbg.Breakpoints[:len(dbg.Breakpoints)-1]
		fmt.Fprintf(dbg.Out, "Breakpoint removed [%d]\n", i)

	case "clear":
		dbg.Breakpoints = nil
		fmt.Fprintln(dbg.Out, "Breakpoints reset")

	default:
		fmt.Fprintf(dbg.Out, "break: '%s' is not a valid command\n", cmd)
		dbg.usage(usage)
	}
}

func (dbg *Debugger) debugWatch(args []string) {
	const usage = "watch [add|list|remove|clear]"

	if len(args) == 0 {
		dbg.usage(usage)
		return
	}

	cmd := args[0]
	args = args[1:]

	switch cmd {
	case "a", "add":
		const usage = "watch add [addr|label] [read|write|readwrite]"

		if len(args) != 2 {
			dbg.usage(usage)
			return
		}

		addr, err := dbg.parseAddr(args[0])

		if err != nil {
			fmt.Fprintln(dbg.Out, err)
			return
		}

		var wtype WatchpointType

		switch args[1] {
		case "r", "read":
			wtype = ReadWatch
		case "w", "write":
			wtype = WriteWatch
		case "rw", "rwrite", "readwrite":
			wtype = ReadWriteWatch
		default:
			dbg.usage(usage)
			return
		}

		if dbg.AddWatchpoint(addr, wtype) {
			fmt.Fprintf(dbg.Out, "Watchpoint added [%#04x] (%s)\n", addr, wtype)
		}

	case "l", "ls", "list":
		format := indexFormat(len(dbg.Watchpoints), " %s")

		for i, watchpoint := range dbg.Watchpoints {
			fmt.Fprintf(dbg.Out, format, i, watchpoint.Addr, watchpoint.Type)
		}

	case "r", "rm", "remove":
		const usage = "watch remove [#]"

		if len(args) != 1 {
			dbg.usage(usage)
			return
		}

		i, err := strconv.ParseInt(args[0], 10, 64)

		if err != nil {
			fmt.Fprintln(dbg.Out, err)
			return
		}

		if i < 0 || i >= int64(len(dbg.Watchpoints)) {
			fmt.Fprintln(dbg.Out, "Invalid watchpoint number")
			return
		}

		dbg.Watchpoints[i] = dbg.Watchpoints[len(dbg.Watchpoints)-1]
		dbg.Watchpoints = dbg.Watchpoints[:len(dbg.Watchpoints)-1]
		fmt.Fprintf(dbg.Out, "Watchpoint removed [%d]\n", i)

	case "clear":
		dbg.Watchpoints = nil
		fmt.Fprintln(dbg.Out, "Watchpoints reset")

	default:
		fmt.Fprintf(dbg.Out, "watch: '%s' is not a valid command\n", cmd)
	}
}

func (dbg *Debugger) debugReg(mc *machine.Machine, args []string) {
	const usage = "register [r#|ip] [value]"

	if len(args) == 0 {
		dbg.PrintRegisters(mc)
		return
	}

	if len(args) != 2 {
		dbg.usage(usage)
		return
	}

	value, err := encoding.DecodeWord(args[1])

	if err != nil {
		fmt.Fprintln(dbg.Out, err)
		return
	}

	name := strings.ToLower(args[0])

	if name == "ip" || name == "pc" {
		mc.SetIP(value)
	} else if index, ok := encoding.DecodeRegister(name); ok {
		if err := mc.WriteRegister(index, value); err != nil {
			fmt.Fprintln(dbg.Out, err)
			return
		}
	} else {
		fmt.Fprintln(dbg.Out, "Invalid register")
		return
	}

	fmt.Fprintf(dbg.Out, "%s %d\n", bold.Sprintf("%s:", name), value)
}

func (dbg *Debugger) debugSource(mc *machine.Machine, args []string) {
	const usage = "source [addr|label] [#]"

	if len(args) > 2 {
		dbg.usage(usage)
		return
	}

	if dbg.SymTable == nil {
		fmt.Fprintln(dbg.Out, "No symbol table loaded")
		return
	}

	addr := mc.IP()
	var size uint16 = 3

	if len(args) > 0 {
		value, err := dbg.parseAddr(args[0])

		if err != nil {
			fmt.Fprintln(dbg.Out, err)
			return
		}

		addr = value
	}

	if len(args) > 1 {
		count, err := parseCount(args[1])

		if err != nil {
			fmt.Fprintln(dbg.Out, err)
			return
		}

		size = uint16(count)
	}

	dbg.PrintSource(addr, size)
}

func (dbg *Debugger) debugLabels(args []string) {
	const usage = "labels"

	if len(args) > 0 {
		dbg.usage(usage)
		return
	}

	if dbg.SymTable == nil {
		fmt.Fprintln(dbg.Out, "No symbol table loaded")
		return
	}

	keys := make([]uint16, 0, len(dbg.SymTable.Labels))
	for addr := range dbg.SymTable.Labels {
		keys = append(keys, addr)
	}

	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	for _, addr := range keys {
		fmt.Fprintln(
			dbg.Out, bold.Sprintf("[%#04x]", addr), dbg.SymTable.Labels[addr],
		)
	}
}

func (dbg *Debugger) debugJump(mc *machine.Machine, args []string) {
	const usage = "jump [addr|label]"

	if len(args) != 1 {
		dbg.usage(usage)
		return
	}

	addr, err := dbg.parseAddr(args[0])

	if err != nil {
		fmt.Fprintf(dbg.Out, "Unable to find '%s'\n", args[0])
		return
	}

	mc.SetIP(addr)

	if dbg.SymTable != nil {
		if label, exists := dbg.SymTable.Labels[addr]; exists {
			fmt.Fprintf(dbg.Out, "%s %d %s\n", bold.Sprint("ip:"), addr, faint.Sprintf("(%s)", label))
			return
		}
	}

	fmt.Fprintf(dbg.Out, "%s %d\n", bold.Sprint("ip:"), addr)
}

// addrCount parses the common "[addr] [#]" argument pair.
func (dbg *Debugger) addrCount(
	mc *machine.Machine, args []string, count int,
) (uint16, int, bool) {
	addr := mc.IP()

	if len(args) > 0 {
		value, err := dbg.parseAddr(args[0])

		if err != nil {
			fmt.Fprintln(dbg.Out, err)
			return 0, 0, false
		}

		addr = value
	}

	if len(args) > 1 {
		value, err := parseCount(args[1])

		if err != nil {
			fmt.Fprintln(dbg.Out, err)
			return 0, 0, false
		}

		count = value
	}

	return addr, count, true
}

func (dbg *Debugger) debugMemory(mc *machine.Machine, args []string) {
	const usage = "memory [addr] [#]"

	if len(args) > 2 {
		dbg.usage(usage)
		return
	}

	if addr, count, ok := dbg.addrCount(mc, args, 1); ok {
		dbg.PrintMem(mc, addr, count)
	}
}

func (dbg *Debugger) debugText(mc *machine.Machine, args []string) {
	const usage = "text [addr] [#]"

	if len(args) > 2 {
		dbg.usage(usage)
		return
	}

	if len(args) == 0 {
		args = []string{"0"}
	}

	if addr, count, ok := dbg.addrCount(mc, args, 0); ok {
		dbg.PrintText(mc, addr, count)
	}
}

func (dbg *Debugger) debugDisasm(mc *machine.Machine, args []string) {
	const usage = "disasm [addr] [#]"

	if len(args) > 2 {
		dbg.usage(usage)
		return
	}

	addr, count, ok := dbg.addrCount(mc, args, 10)

	if !ok {
		return
	}

	var labels map[uint16]string
	if dbg.SymTable != nil {
		labels = dbg.SymTable.Labels
	}

	if _, err := disasm.Disassemble(dbg.Out, mc, addr, count, labels); err != nil {
		fmt.Fprintln(dbg.Out, err)
	}
}

func (dbg *Debugger) debugSet(mc *machine.Machine, args []string) {
	const usage = "set [addr] [value...]"

	if len(args) < 2 {
		dbg.usage(usage)
		return
	}

	addr, err := dbg.parseAddr(args[0])

	if err != nil {
		fmt.Fprintln(dbg.Out, err)
		return
	}

	values := make([]uint16, 0, len(args)-1)

	for _, arg := range args[1:] {
		value, err := encoding.DecodeWord(arg)

		if err != nil {
			fmt.Fprintln(dbg.Out, err)
			return
		}

		values = append(values, value)
	}

	for i, value := range values {
		mc.WriteMemory(addr+uint16(i), value)
	}

	dbg.PrintMem(mc, addr, len(values))
}

func (dbg *Debugger) debugLog(mc *machine.Machine, args []string) {
	const usage = "log [#]"

	count := LOG_DEFAULT

	if len(args) > 1 {
		dbg.usage(usage)
		return
	} else if len(args) == 1 {
		value, err := parseCount(args[0])

		if err != nil {
			fmt.Fprintln(dbg.Out, err)
			return
		}

		count = value
	}

	dbg.PrintLog(mc, count)
}

func (dbg *Debugger) debugMask(args []string) {
	const usage = "mask [key|off]"

	switch {
	case len(args) == 0:
		fmt.Fprintf(dbg.Out, "Mask key %#04x\n", dbg.Mask)

	case len(args) == 1 && args[0] == "off":
		dbg.Mask = 0
		fmt.Fprintln(dbg.Out, "Mask cleared")

	case len(args) == 1:
		key, err := encoding.DecodeWord(args[0])

		if err != nil {
			fmt.Fprintln(dbg.Out, err)
			return
		}

		dbg.Mask = key
		fmt.Fprintf(dbg.Out, "Mask key %#04x\n", dbg.Mask)

	default:
		dbg.usage(usage)
	}
}

func (dbg *Debugger) debugTrace(args []string) {
	const usage = "trace [on|off]"

	switch {
	case len(args) == 0:
		dbg.Trace = !dbg.Trace
	case len(args) == 1 && args[0] == "on":
		dbg.Trace = true
	case len(args) == 1 && args[0] == "off":
		dbg.Trace = false
	default:
		dbg.usage(usage)
		return
	}

	if dbg.Trace {
		fmt.Fprintln(dbg.Out, "Trace on")
	} else {
		fmt.Fprintln(dbg.Out, "Trace off")
	}
}

func (dbg *Debugger) debugReset(mc *machine.Machine) {
	if dbg.Image == nil {
		fmt.Fprintln(dbg.Out, "No program image loaded")
		return
	}

	if err := mc.LoadWords(dbg.Image); err != nil {
		fmt.Fprintln(dbg.Out, err)
		return
	}

	dbg.Stats = Stats{}
	fmt.Fprintln(dbg.Out, "Program reset")
}

func (dbg *Debugger) quit(mc *machine.Machine) {
	dbg.Quit = true
	dbg.Break.Store(false)
	mc.State.Halted = true
}

// Exec runs one command line. It reports true when the machine should
// resume. An empty line repeats the last command.
func (dbg *Debugger) Exec(mc *machine.Machine, line string) bool {
	args := strings.Fields(line)

	if len(args) == 0 {
		if len(dbg.lastcmd) == 0 {
			return false
		}
		args = dbg.lastcmd
	} else {
		dbg.lastcmd = make([]string, len(args))
		copy(dbg.lastcmd, args)
	}

	cmd := args[0]
	args = args[1:]

	switch cmd {
	case "b", "bp", "break", "breakpoint":
		dbg.debugBreak(args)

	case "w", "wp", "watch", "watchpoint":
		dbg.debugWatch(args)

	case "r", "reg", "register", "registers":
		dbg.debugReg(mc, args)

	case "s", "src", "source":
		dbg.debugSource(mc, args)

	case "l", "label", "labels":
		dbg.debugLabels(args)

	case "j", "jmp", "jump":
		dbg.debugJump(mc, args)

	case "m", "mem", "memory":
		dbg.debugMemory(mc, args)

	case "set":
		dbg.debugSet(mc, args)

	case "text":
		dbg.debugText(mc, args)

	case "t", "stack":
		dbg.PrintStack(mc)

	case "log":
		dbg.debugLog(mc, args)

	case "d", "dis", "disasm":
		dbg.debugDisasm(mc, args)

	case "mask":
		dbg.debugMask(args)

	case "stats":
		if len(args) == 1 && args[0] == "reset" {
			dbg.Stats = Stats{}
		}
		dbg.PrintStats(mc)

	case "trace":
		dbg.debugTrace(args)

	case "dump":
		dbg.Dump(mc, strings.Join(args, " "))

	case "restore":
		dbg.Restore(mc, strings.Join(args, " "))

	case "reset":
		dbg.debugReset(mc)

	case "c", "continue":
		dbg.Break.Store(false)
		return true

	case "n", "next", "step":
		dbg.Break.Store(true)
		return true

	case "q", "quit", "exit":
		dbg.quit(mc)
		return true

	case "clear":
		fmt.Fprint(dbg.Out, "\033[H\033[2J")

	case "h", "help", "?":
		fmt.Fprintln(dbg.Out, helpText)

	default:
		fmt.Fprintf(dbg.Out, "error: '%s' is not a valid command\n", cmd)
	}

	return false
}

// REPL reads commands until one resumes the machine. A closed console ends
// the session.
func (dbg *Debugger) REPL(mc *machine.Machine) {
	for {
		line, err := dbg.Console.Command(PROMPT)

		if err == ErrInterrupted {
			fmt.Fprintln(dbg.Out)
			continue
		} else if err != nil {
			fmt.Fprintln(dbg.Out)
			dbg.quit(mc)
			return
		}

		if dbg.Exec(mc, line) {
			return
		}
	}
}
