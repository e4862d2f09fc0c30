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
	"regexp"
	"strings"

	"github.com/awslabs/ar-gflow/analysis"
	"github.com/awslabs/ar-gflow/analysis/cfg"
	"github.com/awslabs/ar-gflow/analysis/config"
	"github.com/awslabs/ar-gflow/analysis/flow"
	"github.com/awslabs/ar-gflow/analysis/ir"
	"github.com/awslabs/ar-gflow/analysis/optimize"
	cfgtool "github.com/awslabs/ar-gflow/cmd/gflow/cfg"
	optimizetool "github.com/awslabs/ar-gflow/cmd/gflow/optimize"
	solvetool "github.com/awslabs/ar-gflow/cmd/gflow/solve"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
	"golang.org/x/term"
)

const (
	cmdCfgName      = "cfg"
	cmdExitName     = "exit"
	cmdHelpName     = "help"
	cmdLsName       = "ls"
	cmdOptimizeName = "optimize"
	cmdReloadName   = "reload"
	cmdShowName     = "show"
	cmdSolveName    = "solve"
	cmdStateName    = "state?"
)

// A command prints its help message when called with a nil state. It returns true to stop the CLI.
type command func(tt *term.Terminal, s *State, command Command) bool

var commands = map[string]command{
	cmdCfgName:      cmdCfg,
	cmdExitName:     cmdExit,
	cmdLsName:       cmdLs,
	cmdOptimizeName: cmdOptimize,
	cmdReloadName:   cmdReload,
	cmdShowName:     cmdShow,
	cmdSolveName:    cmdSolve,
	cmdStateName:    cmdState,
}

func commandNames() []string {
	names := append(maps.Keys(commands), cmdHelpName)
	slices.Sort(names)
	return names
}

// ************ HELPERS *********

// methodsMatchingCommand returns the methods matching the arguments of the command or all methods if there
// is no argument
// Returns an empty list if any error is encountered
func methodsMatchingCommand(tt *term.Terminal, s *State, command Command) []*analysis.Method {
	rString := ".*" // default is to match anything
	if len(command.Args) >= 1 {
		// otherwise build regex from arguments
		var x []string
		for _, arg := range command.Args {
			x = append(x, "("+arg+")")
		}
		rString = strings.Join(x, "|")
	}
	r, err := regexp.Compile(rString)
	if err != nil {
		WriteErr(tt, "Error while compiling %s into regex:", rString)
		WriteErr(tt, "  %s", err)
		return nil
	}
	var methods []*analysis.Method
	for _, m := range s.Program.Methods {
		if r.MatchString(m.Name) {
			methods = append(methods, m)
		}
	}
	if len(methods) == 0 {
		WriteErr(tt, "No matching method found.")
	}
	return methods
}

// ************ COMMANDS *********

// cmdHelp prints the help message of every command
func cmdHelp(tt *term.Terminal, s *State, _ Command) bool {
	if s == nil {
		writeHelp(tt, cmdHelpName, "print this message")
		return false
	}
	writeFmt(tt, "Commands:\n")
	for _, name := range commandNames() {
		if name == cmdHelpName {
			cmdHelp(tt, nil, Command{})
		} else {
			commands[name](tt, nil, Command{})
		}
	}
	return false
}

func cmdExit(tt *term.Terminal, s *State, _ Command) bool {
	if s == nil {
		writeHelp(tt, cmdExitName, "exit the program")
		return false
	}
	writeLine(tt, tt.Escape.Magenta, "Exiting...")
	return true
}

// cmdState implements the "state?" command, which prints information about the current state of the tool
func cmdState(tt *term.Terminal, s *State, _ Command) bool {
	if s == nil {
		writeHelp(tt, cmdStateName, "print information about the current state")
		return false
	}
	configPath := s.ConfigPath
	if configPath == "" {
		configPath = "none (default config)"
	}
	writeFmt(tt, "Program path      : %s\n", strings.Join(s.Args, " "))
	writeFmt(tt, "Config path       : %s\n", configPath)
	writeFmt(tt, "Optimizations     : %s\n", strings.Join(s.Config.Optimizations, ", "))
	writeFmt(tt, "# methods         : %d\n", len(s.Program.Methods))
	writeFmt(tt, "# skipped         : %d\n", len(s.Program.Skipped))
	writeFmt(tt, "# directives      : %d\n", len(s.Program.Directives))
	return false
}

// cmdReload reloads the config and the program, discarding the optimizations done in the CLI
func cmdReload(tt *term.Terminal, s *State, _ Command) bool {
	if s == nil {
		writeHelp(tt, cmdReloadName, "reload the config and the program from disk")
		return false
	}
	if err := s.reload(); err != nil {
		WriteErr(tt, "Could not reload: %s", err)
		return false
	}
	WriteSuccess(tt, "Reloaded %d methods.", len(s.Program.Methods))
	return false
}

// cmdLs lists the methods of the program
func cmdLs(tt *term.Terminal, s *State, command Command) bool {
	if s == nil {
		writeHelp(tt, cmdLsName, "list the methods matching the regexes, or all methods")
		writeFmt(tt, "\t  Options:\n")
		writeFmt(tt, "\t    -s     list the Go functions that could not be loaded, with the reason\n")
		return false
	}
	if command.Flags["s"] {
		for _, skipped := range s.Program.Skipped {
			writeFmt(tt, "%s%s%s: %s\n", tt.Escape.Red, skipped.Name, tt.Escape.Reset, skipped.Err)
		}
		WriteSuccess(tt, "(%d skipped functions)", len(s.Program.Skipped))
		return false
	}
	methods := methodsMatchingCommand(tt, s, command)
	if len(methods) == 0 {
		return false
	}
	entries := make([]methodEntry, len(methods))
	for i, m := range methods {
		entries[i] = methodEntry{name: m.Name}
		if m.Ignored {
			entries[i].escape = tt.Escape.Yellow
		}
	}
	WriteSuccess(tt, "Found %d matching methods (ignored methods in yellow):", len(methods))
	writeColumns(tt, s.TermWidth, entries, "  ")
	return false
}

// cmdShow prints the methods
func cmdShow(tt *term.Terminal, s *State, command Command) bool {
	if s == nil {
		writeHelp(tt, cmdShowName, "print the methods matching the regexes")
		return false
	}
	for _, m := range methodsMatchingCommand(tt, s, command) {
		writeFmt(tt, "%s\n", ir.FormatMethod(m.Method))
	}
	return false
}

// cmdCfg prints the control-flow graphs of methods
func cmdCfg(tt *term.Terminal, s *State, command Command) bool {
	if s == nil {
		writeHelp(tt, cmdCfgName, "print the control-flow graphs of the methods matching the regexes")
		writeFmt(tt, "\t  Options:\n")
		writeFmt(tt, "\t    -dot   print the graphs in the GraphViz format\n")
		return false
	}
	for _, m := range methodsMatchingCommand(tt, s, command) {
		g, err := cfg.Build(m.Method)
		if err != nil {
			WriteErr(tt, "%s: %s", m.Name, err)
			continue
		}
		if err := cfgtool.Print(g, tt, command.Flags["dot"]); err != nil {
			WriteErr(tt, "%s: %s", m.Name, err)
		}
	}
	return false
}

// cmdSolve solves an analysis on methods and prints the assumptions of the edges
func cmdSolve(tt *term.Terminal, s *State, command Command) bool {
	if s == nil {
		writeHelp(tt, cmdSolveName, "solve an analysis on the methods matching the regexes and print the result")
		writeFmt(tt, "\t  Options:\n")
		writeFmt(tt, "\t    --analysis name  the analysis to solve (constants, copies or liveness)\n")
		writeFmt(tt, "\t    -dot             print the solved graphs in the GraphViz format\n")
		return false
	}
	name, ok := command.NamedArgs["analysis"]
	if !ok {
		name = config.ConstantsOptimization
	}
	for _, m := range methodsMatchingCommand(tt, s, command) {
		g, err := cfg.Build(m.Method)
		if err != nil {
			WriteErr(tt, "%s: %s", m.Name, err)
			continue
		}
		opts := []flow.Option{flow.WithMaxIterations(s.Config.MaxIterations), flow.WithLogger(s.Logger)}
		if err := solvetool.Print(name, g, tt, command.Flags["dot"], opts...); err != nil {
			WriteErr(tt, "%s: %s", m.Name, err)
		}
	}
	return false
}

// cmdOptimize optimizes methods in place and prints the result
func cmdOptimize(tt *term.Terminal, s *State, command Command) bool {
	if s == nil {
		writeHelp(tt, cmdOptimizeName, "optimize the methods matching the regexes and print them")
		return false
	}
	methods := methodsMatchingCommand(tt, s, command)
	irMethods := make([]*ir.Method, len(methods))
	for i, m := range methods {
		irMethods[i] = m.Method
	}
	for _, o := range optimize.All(irMethods, s.Config, optimize.WithLogger(s.Logger),
		optimize.WithIgnore(s.Program.IsIgnored)) {
		if o.Err != nil {
			WriteErr(tt, "%s", optimizetool.StatsLine(o))
			continue
		}
		WriteSuccess(tt, "%s", optimizetool.StatsLine(o))
		writeFmt(tt, "%s\n", ir.FormatMethod(o.Method))
	}
	return false
}
