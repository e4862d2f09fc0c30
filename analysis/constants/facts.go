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

package constants

import (
	"strings"

	"github.com/awslabs/ar-gflow/analysis/ir"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// Value is the abstract value of a local: a constant, or NotConst when the local may hold different values.
type Value struct {
	c ir.Const
}

// NotConst is the value of a local that is not a constant
var NotConst = Value{}

// Constant returns the value of a local that always holds c
func Constant(c ir.Const) Value { return Value{c} }

// Const returns the constant held by the local, if any
func (v Value) Const() (ir.Const, bool) {
	return v.c, v.c.Kind != 0
}

// Join returns v when both values are equal, and NotConst otherwise
func (v Value) Join(o Value) Value {
	if v == o {
		return v
	}
	return NotConst
}

func (v Value) String() string {
	if c, ok := v.Const(); ok {
		return c.String()
	}
	return "nonconst"
}

// Facts maps the locals of a method to their values. A local that has no value is undefined on the paths that
// reach the edge: it has not been assigned since its declaration.
//
// The nil *Facts is the bottom element: the edge cannot be taken. Facts are immutable.
type Facts struct {
	values map[*ir.Local]Value
}

func newFacts() *Facts {
	return &Facts{values: map[*ir.Local]Value{}}
}

// Reachable returns false when f is the assumption of edges that cannot be taken
func (f *Facts) Reachable() bool { return f != nil }

// Get returns the value of l. It returns false when l is undefined or the edge unreachable.
func (f *Facts) Get(l *ir.Local) (Value, bool) {
	if f == nil {
		return NotConst, false
	}
	v, ok := f.values[l]
	return v, ok
}

// lookup returns the constant held by l. It is the lookup function of ir.Eval.
func (f *Facts) lookup(l *ir.Local) (ir.Const, bool) {
	v, ok := f.Get(l)
	if !ok {
		return ir.Const{}, false
	}
	return v.Const()
}

// Join merges the facts of two paths. A local defined on one path only keeps its value: reads of a local are
// preceded by an assignment on every path.
func (f *Facts) Join(o *Facts) *Facts {
	if f == nil {
		return o
	}
	if o == nil {
		return f
	}
	r := &Facts{values: maps.Clone(f.values)}
	for l, v := range o.values {
		if w, ok := r.values[l]; ok {
			r.values[l] = w.Join(v)
		} else {
			r.values[l] = v
		}
	}
	return r
}

// Equal returns true when both facts map the same locals to the same values
func (f *Facts) Equal(o *Facts) bool {
	if f == nil || o == nil {
		return f == o
	}
	return maps.Equal(f.values, o.values)
}

func (f *Facts) with(l *ir.Local, v Value) *Facts {
	if w, ok := f.values[l]; ok && w == v {
		return f
	}
	r := &Facts{values: maps.Clone(f.values)}
	r.values[l] = v
	return r
}

func (f *Facts) without(l *ir.Local) *Facts {
	if _, ok := f.values[l]; !ok {
		return f
	}
	r := &Facts{values: maps.Clone(f.values)}
	delete(r.values, l)
	return r
}

func (f *Facts) String() string {
	if f == nil {
		return "unreachable"
	}
	locals := maps.Keys(f.values)
	slices.SortFunc(locals, func(a, b *ir.Local) bool { return a.Index < b.Index })
	var b strings.Builder
	b.WriteString("{")
	for i, l := range locals {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(l.Name)
		b.WriteString("=")
		b.WriteString(f.values[l].String())
	}
	b.WriteString("}")
	return b.String()
}
