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

// Package optimize implements the gflow optimize tool, which runs the optimizations of a config on ir files or on
// the functions of Go packages, and prints the optimized sources.
package optimize

import (
	"fmt"
	"io"
	"os"

	"github.com/awslabs/ar-gflow/analysis"
	"github.com/awslabs/ar-gflow/analysis/config"
	"github.com/awslabs/ar-gflow/analysis/gofront"
	"github.com/awslabs/ar-gflow/analysis/ir"
	"github.com/awslabs/ar-gflow/analysis/optimize"
	"github.com/awslabs/ar-gflow/cmd/gflow/tools"
	"github.com/awslabs/ar-gflow/internal/formatutil"
	"github.com/dave/dst"
	"github.com/dave/dst/decorator/resolver"
	"github.com/dave/dst/decorator/resolver/gopackages"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// Usage for the optimize tool
const Usage = `Optimize the methods of .jv files or the functions of Go packages.
Usage:
  gflow optimize [options] <.jv file(s) or Go package(s)>
Examples:
Print the optimized methods of a file
  % gflow optimize -config config.yaml example.jv
Rewrite the optimized functions of Go packages in place
  % gflow optimize -write ./...
`

// Flags represents the parsed optimize sub-command flags.
type Flags struct {
	tools.CommonFlags
	write bool
	stats bool
}

// NewFlags returns the parsed optimize sub-command flags from args.
func NewFlags(args []string) (Flags, error) {
	flags := tools.NewUnparsedCommonFlags("optimize")
	write := flags.FlagSet.Bool("write", false, "write the optimized Go files in place instead of printing them")
	stats := flags.FlagSet.Bool("stats", false, "print the optimizations applied to each method")
	tools.SetUsage(flags.FlagSet, Usage)
	common, err := flags.Parse(args)
	if err != nil {
		return Flags{}, err
	}
	return Flags{CommonFlags: common, write: *write, stats: *stats}, nil
}

// Run runs the optimize tool with flags. Optimized ir files, and Go files unless they are written in place, are
// printed on w.
func Run(flags Flags, w io.Writer) error {
	c, err := tools.LoadConfig(flags.CommonFlags)
	if err != nil {
		return err
	}
	logger := config.NewLogGroup(c)
	logger.Infof(formatutil.Faint("Reading sources"))
	program, err := tools.LoadProgram(flags.CommonFlags, flags.FlagSet.Args())
	if err != nil {
		return err
	}
	for _, skipped := range program.Skipped {
		logger.Warnf("%s: %s left unoptimized: %v", skipped.Position, skipped.Name, skipped.Err)
	}

	outcomes := optimize.All(program.IRMethods(), c, optimize.WithLogger(logger),
		optimize.WithIgnore(program.IsIgnored))
	optimized, failed := 0, 0
	for _, o := range outcomes {
		if o.Err != nil {
			failed++
		} else if o.Stats.Changed() {
			optimized++
		}
		if flags.stats && !o.Skipped {
			fmt.Fprintln(w, StatsLine(o))
		}
	}
	logger.Infof("%d methods optimized, %d failed, %d unchanged", optimized, failed,
		len(outcomes)-optimized-failed)

	for _, f := range program.Files {
		fmt.Fprintln(w, ir.FormatFile(f))
	}
	if len(program.Packages) > 0 {
		return writeGoFiles(program, outcomes, flags.write, w, logger)
	}
	return nil
}

// StatsLine returns a one-line summary of the outcome of the optimization of a method
func StatsLine(o optimize.Outcome) string {
	if o.Skipped {
		return fmt.Sprintf("%s: skipped", o.Method.Name)
	}
	if o.Err != nil {
		return fmt.Sprintf("%s: %s %v", o.Method.Name, formatutil.Red("failed"), o.Err)
	}
	names := maps.Keys(o.Stats.Changes)
	slices.Sort(names)
	s := fmt.Sprintf("%s: %d passes", o.Method.Name, o.Stats.Passes)
	for _, name := range names {
		s += fmt.Sprintf(", %s %d", name, o.Stats.Changes[name])
	}
	if !o.Stats.Fixpoint {
		s += " " + formatutil.Yellow("(no fixpoint)")
	}
	return s
}

// writeGoFiles raises the optimized bodies into their Go functions, and prints or writes the files that changed
func writeGoFiles(program analysis.LoadedProgram, outcomes []optimize.Outcome, write bool, w io.Writer,
	logger *config.LogGroup) error {
	dirty := map[*dst.File]bool{}
	for i, o := range outcomes {
		m := program.Methods[i]
		if o.Err != nil || o.Skipped || !o.Stats.Changed() {
			continue
		}
		if err := gofront.Raise(m.Lowered); err != nil {
			logger.Warnf("%s: %s left unoptimized: %v", m.Lowered.Func.Position(), m.Name, err)
			continue
		}
		dirty[m.Lowered.Func.File] = true
	}

	for _, pkg := range program.Packages {
		r := gopackages.New(pkg.Dir)
		for _, file := range pkg.Syntax {
			if !dirty[file] {
				continue
			}
			filename := pkg.Decorator.Filenames[file]
			if !write {
				fmt.Fprintf(w, "// %s\n", filename)
				if err := gofront.Fprint(w, file, pkg.PkgPath, r); err != nil {
					return fmt.Errorf("failed to print %s: %w", filename, err)
				}
				continue
			}
			if err := writeFile(filename, file, pkg.PkgPath, r); err != nil {
				return err
			}
			logger.Infof("wrote %s", filename)
		}
	}
	return nil
}

func writeFile(filename string, file *dst.File, path string, r resolver.RestorerResolver) error {
	out, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", filename, err)
	}
	defer out.Close()
	if err := gofront.Fprint(out, file, path, r); err != nil {
		return fmt.Errorf("failed to write %s: %w", filename, err)
	}
	return nil
}
