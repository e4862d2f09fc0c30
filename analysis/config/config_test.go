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
	"embed"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"
)

//go:embed testdata
var testfsys embed.FS

func loadFromTestDir(filename string) (string, *Config, error) {
	filename = filepath.Join("testdata", filename)
	b, err := testfsys.ReadFile(filename)
	if err != nil {
		return "", nil, fmt.Errorf("failed to read file %v: %v", filename, err)
	}
	config, err := LoadFromBytes(filename, b)
	if err != nil {
		return filename, nil, fmt.Errorf("failed to load file %v: %v", filename, err)
	}
	return filename, config, err
}

func testLoadOneFile(t *testing.T, filename string, expected Config) {
	configFileName, config, err := loadFromTestDir(filename)
	if err != nil {
		t.Fatalf("Error loading %q: %v", configFileName, err)
	}
	c1, err1 := yaml.Marshal(config)
	c2, err2 := yaml.Marshal(expected)
	if err1 != nil {
		t.Errorf("Error marshalling %v", config)
	}
	if err2 != nil {
		t.Errorf("Error marshalling %v", expected)
	}
	if string(c1) != string(c2) {
		t.Errorf("Error in %q:\n%q is not\n%q\n", filename, c1, c2)
	}
}

func TestNewDefault(t *testing.T) {
	c := NewDefault()
	if c.LogLevel != int(InfoLevel) {
		t.Errorf("default log level should be info, got %d", c.LogLevel)
	}
	if c.MaxPasses != DefaultMaxPasses || c.Parallelism != DefaultParallelism {
		t.Errorf("default bounds not set: %+v", c.Options)
	}
	if len(c.Optimizations) != len(DefaultOptimizations) {
		t.Errorf("default config should run %v, got %v", DefaultOptimizations, c.Optimizations)
	}
	if !c.MatchMethodFilter("anything") {
		t.Errorf("default method filter should match any method")
	}
	if c.Verbose() {
		t.Errorf("default config should not be verbose")
	}
}

func TestNewDefaultDoesNotAlias(t *testing.T) {
	c := NewDefault()
	c.Optimizations[0] = "changed"
	if DefaultOptimizations[0] == "changed" {
		t.Fatalf("NewDefault should copy the default optimizations")
	}
}

func TestLoadFullConfig(t *testing.T) {
	expected := NewDefault()
	expected.LogLevel = int(DebugLevel)
	expected.MaxIterations = 5000
	expected.MaxPasses = 3
	expected.Parallelism = 2
	expected.Strict = true
	expected.MethodFilter = "^(compute|run)"
	expected.Optimizations = []string{LivenessOptimization, ConstantsOptimization}
	testLoadOneFile(t, "full.yaml", *expected)

	_, c, err := loadFromTestDir("full.yaml")
	if err != nil {
		t.Fatal(err)
	}
	if !c.Verbose() {
		t.Errorf("debug level config should be verbose")
	}
	if !c.MatchMethodFilter("computeTotal") || c.MatchMethodFilter("main") {
		t.Errorf("method filter %q not applied", c.MethodFilter)
	}
}

func TestLoadKeepsDefaults(t *testing.T) {
	expected := NewDefault()
	expected.Optimizations = []string{CopiesOptimization}
	testLoadOneFile(t, "defaults.yaml", *expected)
}

func TestLoadUnknownOptimizationReturnsError(t *testing.T) {
	_, _, err := loadFromTestDir("unknown_optimization.yaml")
	if err == nil {
		t.Fatalf("expected an error for an unknown optimization")
	}
	if !strings.Contains(err.Error(), "inlining") {
		t.Errorf("error should name the unknown optimization: %v", err)
	}
}

func TestLoadBadFormatFileReturnsError(t *testing.T) {
	_, c, err := loadFromTestDir("bad_format.yaml")
	if err == nil {
		t.Errorf("expected an error for a malformed file, got config %v", c)
	}
}

func TestLoadNonExistentFileReturnsError(t *testing.T) {
	c, err := Load(filepath.Join("testdata", "does_not_exist.yaml"))
	if err == nil {
		t.Errorf("expected an error for a missing file, got config %v", c)
	}
}

func TestMatchMethodFilterFallsBackToPrefix(t *testing.T) {
	_, c, err := loadFromTestDir("prefix_filter.yaml")
	if err != nil {
		t.Fatal(err)
	}
	if !c.MatchMethodFilter("run(int)") {
		t.Errorf("invalid regex filter should be matched as a prefix")
	}
	if c.MatchMethodFilter("compute") {
		t.Errorf("invalid regex filter should not match names without the prefix")
	}
}

func TestExceedsMaxIterations(t *testing.T) {
	c := NewDefault()
	c.MaxIterations = 10
	if c.ExceedsMaxIterations(10) || !c.ExceedsMaxIterations(11) {
		t.Errorf("bound of 10 not applied")
	}
	c.MaxIterations = 0
	if c.ExceedsMaxIterations(1 << 30) {
		t.Errorf("bound <= 0 should be ignored")
	}
}

func TestDiscardLogGroup(t *testing.T) {
	l := NewDiscardLogGroup()
	if l.Level() >= ErrLevel {
		t.Errorf("discard log group should not log errors")
	}
	var b strings.Builder
	l.SetAllOutput(&b)
	l.Errorf("hidden")
	if b.Len() != 0 {
		t.Errorf("discard log group wrote %q", b.String())
	}
}

func TestLogGroupLevels(t *testing.T) {
	c := NewDefault()
	c.LogLevel = int(WarnLevel)
	l := NewLogGroup(c)
	var b strings.Builder
	l.SetAllOutput(&b)
	l.SetAllFlags(0)
	l.Infof("info")
	l.Warnf("warn %d", 1)
	l.Errorf("error")
	if got := b.String(); got != "[WARN] warn 1\n[ERROR] error\n" {
		t.Errorf("unexpected log output %q", got)
	}
}

func TestSilenceWarn(t *testing.T) {
	c, err := LoadFromBytes("inline.yaml", []byte("options:\n  silence-warn: true\n"))
	if err != nil {
		t.Fatalf("error loading config: %v", err)
	}
	l := NewLogGroup(c)
	var b strings.Builder
	l.SetAllOutput(&b)
	l.SetAllFlags(0)
	l.Warnf("warn")
	l.Errorf("error")
	if got := b.String(); got != "[ERROR] error\n" {
		t.Errorf("unexpected log output %q", got)
	}
}
