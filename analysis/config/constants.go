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

package config

const (
	// DefaultMaxIterations is the default bound on solver iterations of a config loaded from a file. The solver
	// itself is unbounded unless a bound is given.
	DefaultMaxIterations = 100000
	// DefaultMaxPasses is the default number of rebuild and re-solve rounds per method
	DefaultMaxPasses = 16
	// DefaultParallelism is the default number of methods optimized concurrently
	DefaultParallelism = 4

	// ConstantsOptimization is the name of constant propagation
	ConstantsOptimization = "constants"
	// CopiesOptimization is the name of copy propagation
	CopiesOptimization = "copies"
	// LivenessOptimization is the name of dead store elimination based on liveness
	LivenessOptimization = "liveness"
)

// KnownOptimizations lists the optimizations a config may name
var KnownOptimizations = []string{ConstantsOptimization, CopiesOptimization, LivenessOptimization}

// DefaultOptimizations is the pipeline run when the config does not list optimizations
var DefaultOptimizations = []string{ConstantsOptimization, CopiesOptimization, LivenessOptimization}
