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

// Package funcutil contains generic helpers over collections.
package funcutil

import "sync"

// MapParallel returns the slice of f(x) for every x of a, in the order of a. The calls to f are distributed over
// numRoutines goroutines; a numRoutines below one runs them on a single goroutine.
func MapParallel[T any, S any](a []T, f func(T) S, numRoutines int) []S {
	if numRoutines <= 0 {
		numRoutines = 1
	}
	indices := make(chan int)
	go func() {
		defer close(indices)
		for i := range a {
			indices <- i
		}
	}()

	// each index is written by exactly one goroutine
	res := make([]S, len(a))
	wg := &sync.WaitGroup{}
	wg.Add(numRoutines)
	for i := 0; i < numRoutines; i++ {
		go func() {
			defer wg.Done()
			for idx := range indices {
				res[idx] = f(a[idx])
			}
		}()
	}
	wg.Wait()
	return res
}
