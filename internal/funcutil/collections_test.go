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

package funcutil

import (
	"sync/atomic"
	"testing"
)

func TestMapParallel(t *testing.T) {
	a := make([]int, 100)
	for i := range a {
		a[i] = i
	}
	for _, routines := range []int{-1, 0, 1, 4, 200} {
		var calls int32
		res := MapParallel(a, func(x int) int {
			atomic.AddInt32(&calls, 1)
			return x * x
		}, routines)
		if len(res) != len(a) || calls != int32(len(a)) {
			t.Fatalf("%d routines: expected %d results and calls, got %d and %d", routines, len(a), len(res), calls)
		}
		for i, x := range res {
			if x != i*i {
				t.Errorf("%d routines: element %d is %d, expected %d", routines, i, x, i*i)
			}
		}
	}
	if res := MapParallel(nil, func(x string) int { return len(x) }, 2); len(res) != 0 {
		t.Errorf("expected no result for an empty slice, got %v", res)
	}
}
