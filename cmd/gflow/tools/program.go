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

package tools

import (
	"fmt"
	"regexp"

	"github.com/awslabs/ar-gflow/analysis"
)

// LoadProgram loads the ir files or Go packages named by args
func LoadProgram(flags CommonFlags, args []string) (analysis.LoadedProgram, error) {
	program, err := analysis.LoadProgram(analysis.LoadProgramOptions{LoadTests: flags.WithTest}, args)
	if err != nil {
		return analysis.LoadedProgram{}, fmt.Errorf("could not load program: %w", err)
	}
	return program, nil
}

// SelectMethods returns the methods of the program whose name matches the regular expression filter, or all
// methods when filter is empty. It fails when no method matches.
func SelectMethods(program analysis.LoadedProgram, filter string) ([]*analysis.Method, error) {
	if filter == "" {
		if len(program.Methods) == 0 {
			return nil, fmt.Errorf("no methods in program")
		}
		return program.Methods, nil
	}
	r, err := regexp.Compile("^(" + filter + ")$")
	if err != nil {
		return nil, fmt.Errorf("invalid method filter %q: %w", filter, err)
	}
	var methods []*analysis.Method
	for _, m := range program.Methods {
		if r.MatchString(m.Name) {
			methods = append(methods, m)
		}
	}
	if len(methods) == 0 {
		return nil, fmt.Errorf("no method matching %q", filter)
	}
	return methods, nil
}
