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

// Package solve implements the gflow solve tool, which prints the assumptions an analysis computes on the edges
// of control-flow graphs.
package solve

import (
	"fmt"
	"io"

	"github.com/awslabs/ar-gflow/analysis/cfg"
	"github.com/awslabs/ar-gflow/analysis/config"
	"github.com/awslabs/ar-gflow/analysis/constants"
	"github.com/awslabs/ar-gflow/analysis/copies"
	"github.com/awslabs/ar-gflow/analysis/flow"
	"github.com/awslabs/ar-gflow/analysis/liveness"
	"github.com/awslabs/ar-gflow/analysis/render"
	"github.com/awslabs/ar-gflow/cmd/gflow/tools"
)

// Usage for the solve tool
const Usage = `Solve an analysis and print the assumption of every edge.
Usage:
  gflow solve -analysis constants|copies|liveness [options] <.jv file(s) or Go package(s)>
Examples:
Print the constants known on each edge of a method
  % gflow solve -analysis constants -method branch example.jv
`

// Flags represents the parsed solve sub-command flags.
type Flags struct {
	tools.CommonFlags
	analysis string
	method   string
	dot      bool
}

// NewFlags returns the parsed solve sub-command flags from args.
func NewFlags(args []string) (Flags, error) {
	flags := tools.NewUnparsedCommonFlags("solve")
	analysis := flags.FlagSet.String("analysis", config.ConstantsOptimization,
		"analysis to solve. One of: constants, copies, liveness")
	method := flags.FlagSet.String("method", "", "regular expression selecting the methods to analyze")
	dot := flags.FlagSet.Bool("dot", false, "print the solved graphs in the GraphViz format")
	tools.SetUsage(flags.FlagSet, Usage)
	common, err := flags.Parse(args)
	if err != nil {
		return Flags{}, err
	}
	return Flags{CommonFlags: common, analysis: *analysis, method: *method, dot: *dot}, nil
}

// Run runs the solve tool with flags, writing the results to w.
func Run(flags Flags, w io.Writer) error {
	if _, err := solver(flags.analysis); err != nil {
		return err
	}
	c, err := tools.LoadConfig(flags.CommonFlags)
	if err != nil {
		return err
	}
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
		if err := Print(flags.analysis, g, w, flags.dot, flow.WithConfig(c)); err != nil {
			return err
		}
	}
	return nil
}

// Print solves the analysis named name on g and writes the assumption of every edge to w, in the GraphViz format
// when dot is set.
func Print(name string, g *cfg.Cfg, w io.Writer, dot bool, opts ...flow.Option) error {
	solve, err := solver(name)
	if err != nil {
		return err
	}
	return solve(g, w, dot, opts...)
}

type printer func(g *cfg.Cfg, w io.Writer, dot bool, opts ...flow.Option) error

func solver(name string) (printer, error) {
	switch name {
	case config.ConstantsOptimization:
		return solveWith(constants.Solve), nil
	case config.CopiesOptimization:
		return solveWith(copies.Solve), nil
	case config.LivenessOptimization:
		return solveWith(liveness.Solve), nil
	}
	return nil, fmt.Errorf("analysis %q not recognized", name)
}

func solveWith[A flow.Assumption[A]](solve func(*cfg.Cfg, ...flow.Option) (*flow.Result[A], error)) printer {
	return func(g *cfg.Cfg, w io.Writer, dot bool, opts ...flow.Option) error {
		r, err := solve(g, opts...)
		if err != nil {
			return err
		}
		if dot {
			return render.WriteResultGraphviz(r, w)
		}
		fmt.Fprintf(w, "%s: %s fixpoint after %d node visits\n", g.Method.Name, r.Direction(), r.Iterations())
		r.Fprint(w)
		return nil
	}
}
