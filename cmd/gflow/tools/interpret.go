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

import "regexp"

// Captures errors happening before any analysis starts (program could not load)
var regexCouldNotLoad = regexp.MustCompile("could not load program")

// Captures the kind of error that happen when you put a flag at the end instead of the files
var namedFilesMustBeGoFiles = regexp.MustCompile("named files must be .go files: -(\\w)")

// Captures parse errors of ir files
var regexParseError = regexp.MustCompile("failed to parse file")

// Captures the mix of ir files and packages on the command line
var regexMixedArgs = regexp.MustCompile("cannot load \\.jv files and Go packages together")

// Captures errors on optimization names in config files
var regexUnknownOptimization = regexp.MustCompile("unknown optimization")

// Captures method filters that do not match
var regexNoMethod = regexp.MustCompile("no method matching")

// HintForErrorMessage looks for specific error message and returns some other message that might help the user
// resolve the problem.
func HintForErrorMessage(errMsg string) string {
	if regexCouldNotLoad.MatchString(errMsg) {
		if namedFilesMustBeGoFiles.MatchString(errMsg) {
			return "all command line flags should be before the paths to the files to optimize"
		}
		if regexMixedArgs.MatchString(errMsg) {
			return "run the tool separately on the .jv files and on the Go packages"
		}
		if regexParseError.MatchString(errMsg) {
			return ".jv files contain method declarations; use the position in the error to locate the problem"
		}
		return "make sure you have provided the right arguments to load .jv files or Go packages"
	}
	if regexUnknownOptimization.MatchString(errMsg) {
		return "the optimizations section of the config file may only list constants, copies and liveness"
	}
	if regexNoMethod.MatchString(errMsg) {
		return "the -method flag is a regular expression matched against the whole method name"
	}
	return ""
}
