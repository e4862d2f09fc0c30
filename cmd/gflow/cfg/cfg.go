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

// Package cfg implements the gflow cfg tool, which prints the control-flow graphs of methods.
package cfg

import (
	"fmt"
	"io"

	"github.com/awslabs/ar-gflow/analysis/cfg"
	"github.com/awslabs/ar-gflow/analysis/render"
	"github.com/awslabs/ar-gflow/cmd/gflow/tools"
)

// Usage for the cfg tool
const Usage = `Print the control-flow graphs of methods.
Usage:
  gflow cfg [options] <.jv file(s) or Go package(s)>
Examples:
Print the graph of every method of a file
  % gflow cfg example.jv
Render the graph of a method with GraphViz
  % gflow cfg -dot -method loop example.jv | dot -Tsvg > loop.svg
`

// Flags represents the parsed cfg sub-command flags.
type Flags struct {
	tools.CommonFlags
	dot    bool
	method string
}

// NewFlags returns the parsed cfg sub-command flags from args.
func NewFlags(args []string) (Flags, error) {
	flags := tools.NewUnparsedCommonFlags("cfg")
	dot := flags.FlagSet.Bool("dot", false, "print the graphs in the GraphViz format")
	method := flags.FlagSet.String("method", "", "regular expression selecting the methods to print")
	tools.SetUsage(flags.FlagSet, Usage)
	common, err := flags.Parse(args)
	if err != nil {
		return Flags{}, err
	}
	return Flags{CommonFlags: common, dot: *dot, method: *method}, nil
}

// Run runs the cfg tool with flags, writing the graphs to w.
func Run(flags Flags, w io.Writer) error {
	program, err := tools.LoadProgram(flags.CommonFlags, flags.FlagSet.Args())
	if err != nil {
		return err
	}
	methods, err := tools.SelectMethods(program, flags.method)
	if err != nil {
		return err
	}
	for _, m := range methods {
		g, err := cfg.Build(m.Method)
		if err != nil {
			return fmt.Errorf("could not build the graph of %s: %w", m.Name, err)
		}
		if err := Print(g, w, flags.dot); err != nil {
			return err
		}
	}
	return nil
}

// Print writes the graph g to w, in the GraphViz format when dot is set
func Print(g *cfg.Cfg, w io.Writer, dot bool) error {
	if dot {
		return render.WriteGraphviz(g, w)
	}
	fmt.Fprintf(w, "%s: %d nodes, %d edges, %d loops\n", g.Method.Name, len(g.Nodes), len(g.Edges), len(g.Loops()))
	g.Fprint(w)
	return nil
}
