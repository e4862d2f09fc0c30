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

package graphutil

import (
	"github.com/yourbasic/graph"
)

// FindAllElementaryCycles finds all elementary cycles in the graph g. Each cycle starts and ends with its smallest
// vertex.
// This uses Donald B. Johnson's algorithm presented in
// "Finding All The Elementary Circuits of a Directed Graph", 1975
func FindAllElementaryCycles(g *Digraph) [][]int {
	s := &state{}
	for start := 0; start < g.Order(); {
		sub := &subgraph{g: g, min: start}
		least := -1
		var comp map[int]bool
		for _, c := range graph.StrongComponents(sub) {
			for _, v := range c {
				if v < start {
					break
				}
				if (len(c) > 1 || sub.selfLoop(v)) && (least < 0 || v < least) {
					least = v
					comp = map[int]bool{}
					for _, w := range c {
						comp[w] = true
					}
				}
			}
		}
		if least < 0 {
			break
		}
		s.stack = nil
		s.blocked = map[int]bool{}
		s.blist = map[int]map[int]bool{}
		s.circuit(least, least, g, comp)
		start = least + 1
	}
	return s.cycles
}

// subgraph is the subgraph of g induced by the vertices greater than or equal to min
type subgraph struct {
	g   *Digraph
	min int
}

func (s *subgraph) Order() int { return s.g.Order() }

func (s *subgraph) Visit(v int, do func(w int, c int64) (skip bool)) (aborted bool) {
	if v < s.min {
		return false
	}
	return s.g.Visit(v, func(w int, c int64) bool {
		if w < s.min {
			return false
		}
		return do(w, c)
	})
}

func (s *subgraph) selfLoop(v int) bool {
	return s.g.HasEdgeFromTo(int64(v), int64(v))
}

type state struct {
	blocked map[int]bool
	blist   map[int]map[int]bool
	stack   []int
	cycles  [][]int
}

func (s *state) unblock(u int) {
	s.blocked[u] = false
	for w := range s.blist[u] {
		delete(s.blist[u], w)
		if s.blocked[w] {
			s.unblock(w)
		}
	}
}

func (s *state) circuit(v int, i int, g *Digraph, comp map[int]bool) bool {
	f := false
	s.stack = append(s.stack, v)
	s.blocked[v] = true
	for _, w := range g.Succs(v) {
		if !comp[w] {
			continue
		}
		if w == i {
			stackCopy := make([]int, len(s.stack))
			copy(stackCopy, s.stack)
			stackCopy = append(stackCopy, w)
			s.cycles = append(s.cycles, stackCopy)
			f = true
		} else if !s.blocked[w] {
			if s.circuit(w, i, g, comp) {
				f = true
			}
		}
	}

	if f {
		s.unblock(v)
	} else {
		for _, w := range g.Succs(v) {
			if !comp[w] {
				continue
			}
			m := s.blist[w]
			if m != nil {
				s.blist[w][v] = true
			} else {
				s.blist[w] = map[int]bool{v: true}
			}
		}
	}
	s.stack = s.stack[:len(s.stack)-1]
	return f
}
