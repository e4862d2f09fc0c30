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

// Package formatutil colors the messages of the gflow tools.
package formatutil

import (
	"fmt"
	"os"

	"golang.org/x/term"
)

const reset = "\033[0m"

// Faint marks progress messages. Red and Yellow mark the methods that failed to optimize or did not reach a
// fixpoint.
var (
	Faint  = Color("\033[2m")
	Red    = Color("\033[1;31m")
	Yellow = Color("\033[1;33m")
)

// Color returns a function printing its arguments like fmt.Sprint, between escape and a reset sequence when the
// standard output is a terminal.
func Color(escape string) func(...any) string {
	return colorIf(escape, func() bool { return term.IsTerminal(int(os.Stdout.Fd())) })
}

func colorIf(escape string, isTerminal func() bool) func(...any) string {
	return func(args ...any) string {
		s := fmt.Sprint(args...)
		if !isTerminal() {
			return s
		}
		return escape + s + reset
	}
}
