// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package cli

import (
	"fmt"
	"strings"

	"golang.org/x/term"
)

// WriteErr prints a failed command message in red on its own line.
func WriteErr(tt *term.Terminal, format string, a ...any) {
	writeLine(tt, tt.Escape.Red, format, a...)
}

// WriteSuccess prints the summary of a command in green on its own line.
func WriteSuccess(tt *term.Terminal, format string, a ...any) {
	writeLine(tt, tt.Escape.Green, format, a...)
}

// writeFmt prints format as is when a is empty, so that method bodies holding a % print unchanged.
func writeFmt(tt *term.Terminal, format string, a ...any) {
	if len(a) > 0 {
		format = fmt.Sprintf(format, a...)
	}
	tt.Write([]byte(format))
}

func writeLine(tt *term.Terminal, escape []byte, format string, a ...any) {
	tt.Write(escape)
	writeFmt(tt, format, a...)
	tt.Write(tt.Escape.Reset)
	tt.Write([]byte("\n"))
}

// writeHelp prints the usage line of a session command
func writeHelp(tt *term.Terminal, name string, help string) {
	writeFmt(tt, "\t- %s%s%s : %s\n", tt.Escape.Blue, name, tt.Escape.Reset, help)
}

// methodEntry is a method name in a listing, with the escape sequence it is printed with
type methodEntry struct {
	name   string
	escape []byte
}

// writeColumns lists the method names column by column, in as many columns as the terminal width allows.
func writeColumns(tt *term.Terminal, width int, entries []methodEntry, indent string) {
	if len(entries) == 0 {
		return
	}
	colWidth := 0
	for _, e := range entries {
		if len(e.name) > colWidth {
			colWidth = len(e.name)
		}
	}
	colWidth += 3
	cols := (width - len(indent)) / colWidth
	if cols < 1 {
		cols = 1
	}
	rows := (len(entries) + cols - 1) / cols
	for row := 0; row < rows; row++ {
		var b strings.Builder
		b.WriteString(indent)
		for i := row; i < len(entries); i += rows {
			fmt.Fprintf(&b, "%s%-*s%s", entries[i].escape, colWidth, entries[i].name, tt.Escape.Reset)
		}
		b.WriteString("\n")
		tt.Write([]byte(b.String()))
	}
}
