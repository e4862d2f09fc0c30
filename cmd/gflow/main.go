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

package main

import (
	"fmt"
	"os"

	"github.com/awslabs/ar-gflow/analysis"
	"github.com/awslabs/ar-gflow/cmd/gflow/cfg"
	"github.com/awslabs/ar-gflow/cmd/gflow/cli"
	"github.com/awslabs/ar-gflow/cmd/gflow/optimize"
	"github.com/awslabs/ar-gflow/cmd/gflow/solve"
	"github.com/awslabs/ar-gflow/cmd/gflow/tools"
)

const usage = `gflow: dataflow analyses and optimizations of method bodies
Usage:
  gflow [tool] [options] <.jv file(s) or Go package(s)>
Tools:
  - cfg: prints the control-flow graphs of methods, as text or in the GraphViz format
  - solve: solves an analysis and prints the assumption of every edge of the graphs
  - optimize: runs the optimizations of a config and prints the optimized sources
  - cli: interactive terminal-like interface to inspect, analyze and optimize methods
Examples:
  Print the constants known on every edge: gflow solve -analysis constants example.jv
  Optimize Go functions in place: gflow optimize -config config.yaml -write ./...`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintf(os.Stderr, "error: expected subcommand\n%s\n", usage)
		os.Exit(2)
	}

	// hardcode help flag
	if snd := os.Args[1]; snd == "-help" || snd == "--help" {
		fmt.Println(usage)
		return
	}

	// hardcode version flag
	if snd := os.Args[1]; snd == "-version" || snd == "--version" {
		fmt.Println(analysis.Version)
		return
	}

	args := os.Args[2:]
	switch cmd := os.Args[1]; cmd {
	case "cfg":
		flags, err := cfg.NewFlags(args)
		if err != nil {
			errExit(err)
		}
		if err := cfg.Run(flags, os.Stdout); err != nil {
			errExit(err)
		}
	case "solve":
		flags, err := solve.NewFlags(args)
		if err != nil {
			errExit(err)
		}
		if err := solve.Run(flags, os.Stdout); err != nil {
			errExit(err)
		}
	case "optimize":
		flags, err := optimize.NewFlags(args)
		if err != nil {
			errExit(err)
		}
		if err := optimize.Run(flags, os.Stdout); err != nil {
			errExit(err)
		}
	case "cli":
		flags, err := tools.NewCommonFlags("cli", args, cli.Usage)
		if err != nil {
			errExit(err)
		}
		if err := cli.Run(flags); err != nil {
			errExit(err)
		}
	default:
		fmt.Fprintf(os.Stderr, "error: unexpected command: %v\n", cmd)
		fmt.Fprintf(os.Stderr, "usage:\n%s\n", usage)
		os.Exit(2)
	}
}

func errExit(err error) {
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	hint := tools.HintForErrorMessage(err.Error())
	if hint != "" {
		fmt.Fprintf(os.Stderr, "Hint: %s\n", hint)
	}
	os.Exit(2)
}
