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

package main

import (
	"os"
	"strings"

	"github.com/peterh/liner"

	"github.com/lassandro/gosynacor/pkg/debugger"
)

var completions = []string{
	"break", "watch", "register", "memory", "set", "text", "stack", "log",
	"disasm", "source", "labels", "jump", "mask", "stats", "trace", "dump",
	"restore", "reset", "continue", "next", "quit", "clear", "help",
}

// console is a line-editing debugger prompt. The terminal is only in raw
// mode while a prompt is showing so the program keeps cooked input.
type console struct {
	state    *liner.State
	original liner.ModeApplier
	prompt   liner.ModeApplier
	history  string
}

func newConsole(history string) (*console, error) {
	original, err := liner.TerminalMode()

	if err != nil {
		return nil, err
	}

	c := &console{state: liner.NewLiner(), original: original, history: history}

	if c.prompt, err = liner.TerminalMode(); err != nil {
		c.state.Close()
		return nil, err
	}

	if err := c.original.ApplyMode(); err != nil {
		c.state.Close()
		return nil, err
	}

	c.state.SetCtrlCAborts(true)
	c.state.SetCompleter(func(line string) []string {
		matches := make([]string, 0, 1)

		for _, name := range completions {
			if strings.HasPrefix(name, line) {
				matches = append(matches, name)
			}
		}

		return matches
	})

	if history != "" {
		if file, err := os.Open(history); err == nil {
			c.state.ReadHistory(file)
			file.Close()
		}
	}

	return c, nil
}

func (c *console) Command(prompt string) (string, error) {
	if err := c.prompt.ApplyMode(); err != nil {
		return "", err
	}

	defer c.original.ApplyMode()

	line, err := c.state.Prompt(prompt)

	if err == liner.ErrPromptAborted {
		return "", debugger.ErrInterrupted
	} else if err != nil {
		return "", err
	}

	if strings.TrimSpace(line) != "" {
		c.state.AppendHistory(line)
	}

	return line, nil
}

func (c *console) Close() error {
	if c.history != "" {
		if file, err := os.Create(c.history); err == nil {
			c.state.WriteHistory(file)
			file.Close()
		}
	}

	return c.state.Close()
}
