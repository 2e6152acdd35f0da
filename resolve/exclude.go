// Copyright 2024 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package resolve

import "resolvecache/maven"

// isExcluded reports whether (group, artifact) is pruned by any
// exclusion accumulated along the current path.
func isExcluded(exclusions []maven.Exclusion, group, artifact string) bool {
	for _, e := range exclusions {
		if e.Matches(group, artifact) {
			return true
		}
	}
	return false
}

// unionExclusions appends to `inherited` every exclusion from `declared`
// not already present, so the child path carries forward both its
// parent's exclusions and its own; exclusions propagate transitively.
func unionExclusions(inherited, declared []maven.Exclusion) []maven.Exclusion {
	if len(declared) == 0 {
		return inherited
	}
	out := append([]maven.Exclusion(nil), inherited...)
	seen := make(map[maven.Exclusion]bool, len(inherited))
	for _, e := range inherited {
		seen[e] = true
	}
	for _, e := range declared {
		if !seen[e] {
			out = append(out, e)
			seen[e] = true
		}
	}
	return out
}
