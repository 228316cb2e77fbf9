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
	"errors"
	"fmt"
	"io"
	"strings"
)

// ErrInterrupted is returned by a CommandSource when the user aborted the
// prompt without ending the session.
var ErrInterrupted = errors.New("debugger: interrupted")

// CommandSource supplies debugger commands, one line per call, without the
// trailing newline.
type CommandSource interface {
	Command(prompt string) (string, error)
}

// ReaderSource reads commands from a plain stream. The prompt is written to
// Prompt when it is set.
type ReaderSource struct {
	Reader *bufio.Reader
	Prompt io.Writer
}

func NewReaderSource(reader io.Reader, prompt io.Writer) *ReaderSource {
	buffered, ok := reader.(*bufio.Reader)

	if !ok {
		buffered = bufio.NewReader(reader)
	}

	return &ReaderSource{Reader: buffered, Prompt: prompt}
}

func (src *ReaderSource) Command(prompt string) (string, error) {
	if src.Prompt != nil {
		fmt.Fprint(src.Prompt, prompt)
	}

	line, err := src.Reader.ReadString('\n')

	if err == io.EOF && len(line) > 0 {
		err = nil
	}

	return strings.TrimRight(line, "\r\n"), err
}
