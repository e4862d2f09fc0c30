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

package formatutil

import "testing"

func TestColorIf(t *testing.T) {
	red := "\033[1;31m"
	if s := colorIf(red, func() bool { return true })("failed ", 2); s != "\033[1;31mfailed 2\033[0m" {
		t.Errorf("unexpected colored string %q", s)
	}
	if s := colorIf(red, func() bool { return false })("failed ", 2); s != "failed 2" {
		t.Errorf("unexpected plain string %q", s)
	}
}
