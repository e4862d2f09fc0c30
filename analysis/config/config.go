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

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"golang.org/x/exp/slices"
	"gopkg.in/yaml.v3"
)

// Config contains the options of the optimizer and the list of optimizations to run.
// To add elements to a config file, add fields to this struct.
// If some field is not defined in the config file, it will be empty/zero in the struct.
// private fields are not populated from a yaml file, but computed after initialization
type Config struct {
	Options `yaml:"options"`

	// Optimizations lists the names of the optimizations run on each method, in order
	Optimizations []string `yaml:"optimizations"`

	// if the MethodFilter is specified
	methodFilterRegex *regexp.Regexp
}

type Options struct {
	// Loglevel controls the verbosity of the tool
	LogLevel int `yaml:"log-level"`

	// MaxIterations bounds the number of nodes a solver visits before giving up on an analysis. An analysis that
	// does not converge within the bound has a non-monotone transfer function or an infinite-height lattice.
	// If MaxIterations <= 0, it is ignored.
	MaxIterations int `yaml:"max-iterations"`

	// MaxPasses bounds the number of times the optimizer rebuilds the control-flow graph of a method and reruns the
	// optimizations. Default is DefaultMaxPasses.
	MaxPasses int `yaml:"max-passes"`

	// Parallelism is the number of methods optimized concurrently. Default is DefaultParallelism.
	Parallelism int `yaml:"parallelism"`

	// Strict makes violations of the invariants of a transformation fatal instead of skipping the method
	Strict bool `yaml:"strict"`

	// MethodFilter restricts the optimizations to the methods whose name matches the filter
	MethodFilter string `yaml:"method-filter"`

	// Suppress warnings
	SilenceWarn bool `yaml:"silence-warn"`
}

// NewDefault returns a default config: all the optimizations, with the default bounds.
func NewDefault() *Config {
	return &Config{
		Optimizations: append([]string(nil), DefaultOptimizations...),
		Options: Options{
			LogLevel:      int(InfoLevel),
			MaxIterations: DefaultMaxIterations,
			MaxPasses:     DefaultMaxPasses,
			Parallelism:   DefaultParallelism,
			Strict:        false,
			MethodFilter:  "",
			SilenceWarn:   false,
		},
	}
}

// Load reads a configuration from a file
func Load(filename string) (*Config, error) {
	b, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("could not read config file: %w", err)
	}
	return LoadFromBytes(filename, b)
}

// LoadFromBytes parses the yaml configuration in b, read from the file filename
func LoadFromBytes(filename string, b []byte) (*Config, error) {
	cfg := NewDefault()
	if err := yaml.Unmarshal(b, cfg); err != nil {
		return nil, fmt.Errorf("could not unmarshal config file %s: %w", filename, err)
	}

	// If logLevel has not been specified (i.e. it is 0) set the default to Info
	if cfg.LogLevel == 0 {
		cfg.LogLevel = int(InfoLevel)
	}

	if cfg.MaxPasses <= 0 {
		cfg.MaxPasses = DefaultMaxPasses
	}

	if cfg.Parallelism <= 0 {
		cfg.Parallelism = DefaultParallelism
	}

	for _, name := range cfg.Optimizations {
		if !slices.Contains(KnownOptimizations, name) {
			return nil, fmt.Errorf("unknown optimization %q (known: %s)", name,
				strings.Join(KnownOptimizations, ", "))
		}
	}

	if cfg.MethodFilter != "" {
		r, err := regexp.Compile(cfg.MethodFilter)
		if err == nil {
			cfg.methodFilterRegex = r
		}
	}

	return cfg, nil
}

// MatchMethodFilter returns true if the method name matches the method filter set in the config file. If no
// method filter has been set in the config file, the regex will match anything and return true. This function
// safely considers the case where a filter has been specified by the user, but it could not be compiled to a
// regex. The safe case is to check whether the method filter string is a prefix of the name.
func (c Config) MatchMethodFilter(name string) bool {
	if c.methodFilterRegex != nil {
		return c.methodFilterRegex.MatchString(name)
	} else if c.MethodFilter != "" {
		return strings.HasPrefix(name, c.MethodFilter)
	} else {
		return true
	}
}

// Verbose returns true is the configuration verbosity setting is larger than Info (i.e. Debug or Trace)
func (c Config) Verbose() bool {
	return c.LogLevel >= int(DebugLevel)
}

// ExceedsMaxIterations returns true if the input exceeds the maximum number of solver iterations of the
// options. If the setting is <= 0, then this returns false.
func (c Options) ExceedsMaxIterations(n int) bool {
	if c.MaxIterations <= 0 {
		return false
	}
	return n > c.MaxIterations
}
