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
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/awslabs/ar-gflow/analysis"
	"github.com/awslabs/ar-gflow/analysis/config"
	"github.com/awslabs/ar-gflow/cmd/gflow/tools"
	"github.com/awslabs/ar-gflow/internal/formatutil"
	"golang.org/x/term"
)

// Usage for CLI
const Usage = `Interactive CLI for exploring the methods of a program and running the analyses on them.
Usage:
  gflow cli [options] <.jv file(s) or Go package(s)>`

// State is the state of the CLI: the program being explored and its configuration
type State struct {
	// Args are the arguments the program was loaded from
	Args []string
	// Flags are the flags the CLI was started with
	Flags tools.CommonFlags
	// ConfigPath is the path of the config file, empty when the default config is used
	ConfigPath string
	Config     *config.Config
	Logger     *config.LogGroup
	Program    analysis.LoadedProgram
	// TermWidth is the width of the terminal, used to print lists in columns
	TermWidth int
}

// NewState loads the program designated by args and returns the initial state of the CLI
func NewState(flags tools.CommonFlags, args []string) (*State, error) {
	s := &State{Args: args, Flags: flags, ConfigPath: seekConfig(flags.ConfigPath, args), TermWidth: 80}
	if err := s.reload(); err != nil {
		return nil, err
	}
	return s, nil
}

// reload reads the config and the program again
func (s *State) reload() error {
	c, err := tools.LoadConfig(tools.CommonFlags{ConfigPath: s.ConfigPath, Verbose: s.Flags.Verbose})
	if err != nil {
		return err
	}
	program, err := tools.LoadProgram(s.Flags, s.Args)
	if err != nil {
		return err
	}
	s.Config = c
	s.Logger = config.NewLogGroup(c)
	s.Program = program
	return nil
}

// seekConfig returns configPath, or a config.yaml file next to the program when it is a single file
func seekConfig(configPath string, args []string) string {
	if configPath != "" || len(args) != 1 || !strings.HasSuffix(args[0], analysis.IRFileExt) {
		return configPath
	}
	candidate := filepath.Join(filepath.Dir(args[0]), "config.yaml")
	if _, err := os.Stat(candidate); err == nil {
		return candidate
	}
	return ""
}

// Run runs a simple CLI-based stdin-stdout server to allow us to explore the code.
func Run(flags tools.CommonFlags) error {
	fmt.Fprintln(os.Stderr, formatutil.Faint("Reading sources"))
	s, err := NewState(flags, flags.FlagSet.Args())
	if err != nil {
		return err
	}
	return run(s)
}

// run implements the command line tool, calling interpret for each command until the exit command is input
func run(s *State) error {
	oldState /* const */, err := term.MakeRaw(int(os.Stdin.Fd()))
	if err != nil {
		return fmt.Errorf("could not start the terminal: %w", err)
	}
	defer term.Restore(int(os.Stdin.Fd()), oldState)
	if width, _, err := term.GetSize(int(os.Stdin.Fd())); err == nil {
		s.TermWidth = width
	}
	tt := term.NewTerminal(os.Stdin, "> ")
	s.Logger.SetAllOutput(tt)
	s.Logger.SetAllFlags(0) // no prefix
	tt.AutoCompleteCallback = autoComplete
	// Capture ctrl+c and exit by returning
	captureChan := make(chan os.Signal, 1)
	signal.Notify(captureChan, os.Interrupt)
	go exitOnReceive(captureChan, tt, oldState)
	// the infinite loop terminates when interpret returns true
	for {
		command, err := tt.ReadLine()
		if err != nil {
			return nil
		}
		if interpret(tt, s, strings.TrimSpace(command)) {
			return nil
		}
	}
}

// interpret returns true to stop
func interpret(tt *term.Terminal, s *State, command string) bool {
	if command == "" {
		return false
	}
	cmd := ParseCommand(command)

	if cmd.Name == "" {
		return false
	}

	if f, ok := commands[cmd.Name]; ok {
		return f(tt, s, cmd)
	}
	if cmd.Name == cmdHelpName {
		cmdHelp(tt, s, cmd)
	} else {
		WriteErr(tt, "Command name %q not recognized.", cmd.Name)
		cmdHelp(tt, s, cmd)
	}
	return false
}

// autoComplete completes the command names
func autoComplete(line string, pos int, key rune) (string, int, bool) {
	if key != '\t' || len(line) == 0 || pos != len(line) || strings.Contains(line, " ") {
		return "", 0, false
	}
	matches := 0
	completion := line
	for _, name := range commandNames() {
		if strings.HasPrefix(name, line) {
			matches++
			completion = name
		}
	}
	if matches == 1 {
		return completion, len(completion), true
	}
	return "", 0, false
}

func exitOnReceive(c chan os.Signal, tt *term.Terminal, oldState *term.State) {
	for range c {
		writeFmt(tt, formatutil.Red("Caught SIGINT, exiting!"))
		term.Restore(int(os.Stdin.Fd()), oldState)
		os.Exit(0)
	}
}
