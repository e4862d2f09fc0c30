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
	"strings"

	"github.com/google/shlex"
)

// Command is a line typed in the interactive session, such as "solve --analysis liveness -dot loop".
type Command struct {
	// Name is the first word of the line
	Name string

	// Args are the method regexes
	Args []string

	// NamedArgs maps each --key option to the word that follows it
	NamedArgs map[string]string

	// Flags holds the -flag options
	Flags map[string]bool
}

// ParseCommand splits a line with shell quoting rules. A word starting with "--" names an option whose value is the
// next word that is not a flag, and a word starting with "-" is a flag. A line that cannot be split gives a command
// without a name.
func ParseCommand(line string) Command {
	cmd := Command{NamedArgs: map[string]string{}, Flags: map[string]bool{}}
	words, err := shlex.Split(line)
	if err != nil || len(words) == 0 {
		return cmd
	}
	cmd.Name = words[0]
	option := ""
	for _, w := range words[1:] {
		switch {
		case option != "" && !strings.HasPrefix(w, "-"):
			cmd.NamedArgs[option] = w
			option = ""
		case strings.HasPrefix(w, "--"):
			option = w[2:]
		case strings.HasPrefix(w, "-"):
			cmd.Flags[w[1:]] = true
		default:
			cmd.Args = append(cmd.Args, w)
		}
	}
	return cmd
}
