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

/*
Package cli implements the gflow interactive CLI: a terminal application that lets you inspect the methods of a
program, print their control-flow graphs, solve the analyses on them and run the optimizer step by step.

Usage:

	gflow cli [flags] [program files]

The flags are:

	-verbose=false
		verbose mode, overrides the log level of the config file
	-config config-file.yaml
		a configuration file for the optimizer. If [program files] is only one .jv file, the program will look
		for a file config.yaml in the same folder as the file.

# Basic Commands

	help             print a list of the commands, with short help messages for each

	exit             exit the program gracefully

	state?           show a summary of the state, including path to config file and program

	reload           reload the config and the program from disk, discarding optimizations

# Inspecting Methods

Commands take regular expressions that select the methods by name. Without arguments, they apply to all methods.

	ls [regex]       list the methods; -s lists the Go functions that could not be loaded instead

	show regex       print the methods

	cfg regex        print the control-flow graphs of the methods; -dot prints them in the GraphViz format

# Running Analyses

	solve [--analysis name] regex
	                 solve one of the analyses (constants, copies or liveness) and print the assumption
	                 of every edge

	optimize regex   run the optimizations of the config on the methods and print the optimized methods.
	                 The methods stay optimized until the program is reloaded.
*/
package cli
