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

// Package optimize runs the configured optimizations on methods until they stop changing them.
package optimize

import (
	"errors"
	"fmt"
	"runtime/debug"

	"github.com/awslabs/ar-gflow/analysis/cfg"
	"github.com/awslabs/ar-gflow/analysis/config"
	"github.com/awslabs/ar-gflow/analysis/constants"
	"github.com/awslabs/ar-gflow/analysis/copies"
	"github.com/awslabs/ar-gflow/analysis/flow"
	"github.com/awslabs/ar-gflow/analysis/ir"
	"github.com/awslabs/ar-gflow/analysis/liveness"
	"github.com/awslabs/ar-gflow/internal/funcutil"
)

// An Optimizer solves an integrated analysis on a graph and rewrites its method. It returns true when the method
// changed.
type Optimizer func(g *cfg.Cfg, opts ...flow.Option) (bool, error)

// optimizers maps the optimization names of the config to their implementation
var optimizers = map[string]Optimizer{
	config.ConstantsOptimization: constants.Optimize,
	config.CopiesOptimization:    copies.Optimize,
	config.LivenessOptimization:  liveness.Optimize,
}

// Stats summarizes the optimization of one method
type Stats struct {
	// Passes is the number of rounds of optimizations run on the method
	Passes int
	// Changes counts, per optimization, the passes in which the optimization rewrote the method
	Changes map[string]int
	// Fixpoint is true when the last pass did not change the method
	Fixpoint bool
}

// Changed returns true when some optimization rewrote the method
func (s Stats) Changed() bool {
	for _, n := range s.Changes {
		if n > 0 {
			return true
		}
	}
	return false
}

// Outcome is the result of the optimization of one method by All
type Outcome struct {
	Method *ir.Method
	Stats  Stats
	// Skipped is true when the method was excluded by the method filter of the config or by the ignore option
	Skipped bool
	// Err is the reason the method was left unoptimized
	Err error
}

type options struct {
	logger *config.LogGroup
	ignore func(*ir.Method) bool
}

// Option configures the optimizer
type Option func(*options)

// WithLogger sets the logger of the optimizer and its solvers
func WithLogger(l *config.LogGroup) Option {
	return func(o *options) { o.logger = l }
}

// WithIgnore excludes the methods for which ignore returns true
func WithIgnore(ignore func(*ir.Method) bool) Option {
	return func(o *options) { o.ignore = ignore }
}

func makeOptions(c *config.Config, opts []Option) *options {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = config.NewLogGroup(c)
	}
	return o
}

// Method optimizes m in place with the optimizations of c, rebuilding the control-flow graph before each
// optimization, until a pass changes nothing or c.MaxPasses passes have run.
//
// The optimizations work on a copy of m, which replaces m only when every pass succeeded: a method whose
// optimization fails is left unchanged. In strict mode, an invariant violation panics.
func Method(m *ir.Method, c *config.Config, opts ...Option) (Stats, error) {
	o := makeOptions(c, opts)
	work := ir.Clone(m)
	stats, err := run(work, c, o.logger)
	if err != nil {
		var iv *flow.InvariantViolationError
		if c.Strict && errors.As(err, &iv) {
			panic(err)
		}
		return stats, err
	}
	*m = *work
	return stats, nil
}

// PanicError is a panic recovered during the optimization of a method
type PanicError struct {
	Method string
	Value  any
	Stack  []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic while optimizing %s: %v", e.Method, e.Value)
}

func run(m *ir.Method, c *config.Config, logger *config.LogGroup) (stats Stats, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &PanicError{Method: m.Name, Value: r, Stack: debug.Stack()}
		}
	}()
	stats.Changes = map[string]int{}
	solverOpts := []flow.Option{flow.WithMaxIterations(c.MaxIterations), flow.WithLogger(logger)}
	for stats.Passes < c.MaxPasses {
		stats.Passes++
		changed := false
		for _, name := range c.Optimizations {
			opt, ok := optimizers[name]
			if !ok {
				return stats, fmt.Errorf("unknown optimization %q", name)
			}
			g, err := cfg.Build(m)
			if err != nil {
				return stats, err
			}
			rewritten, err := opt(g, solverOpts...)
			if err != nil {
				return stats, fmt.Errorf("%s: %w", name, err)
			}
			if rewritten {
				changed = true
				stats.Changes[name]++
				ir.Simplify(m)
				logger.Debugf("%s: %s rewrote the method in pass %d", m.Name, name, stats.Passes)
			}
		}
		if !changed {
			stats.Fixpoint = true
			return stats, nil
		}
	}
	logger.Warnf("%s: still changing after %d passes", m.Name, stats.Passes)
	return stats, nil
}

// All optimizes the methods, c.Parallelism at a time. Failures are scoped to their method: the outcome of a
// method that could not be optimized carries the error and the method is left unchanged.
func All(methods []*ir.Method, c *config.Config, opts ...Option) []Outcome {
	o := makeOptions(c, opts)
	return funcutil.MapParallel(methods, func(m *ir.Method) Outcome {
		if !c.MatchMethodFilter(m.Name) || (o.ignore != nil && o.ignore(m)) {
			o.logger.Debugf("%s: skipped", m.Name)
			return Outcome{Method: m, Skipped: true}
		}
		stats, err := Method(m, c, WithLogger(o.logger))
		if err != nil {
			o.logger.Warnf("%s left unoptimized: %v", m.Name, err)
		}
		return Outcome{Method: m, Stats: stats, Err: err}
	}, c.Parallelism)
}
