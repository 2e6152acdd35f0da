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

// scopeTable is the declared x inherited scope transition table.
// Entries absent from the inner map (including the entirely-absent
// "provided" and "test" rows) mean the edge is dropped from the
// transitive closure.
var scopeTable = map[maven.Scope]map[maven.Scope]maven.Scope{
	maven.ScopeCompile: {
		maven.ScopeCompile: maven.ScopeCompile,
		maven.ScopeRuntime: maven.ScopeRuntime,
	},
	maven.ScopeRuntime: {
		maven.ScopeCompile: maven.ScopeRuntime,
		maven.ScopeRuntime: maven.ScopeRuntime,
	},
}

// effectiveScope looks up the transitive scope of a dependency declared
// with scope `declared`, reached through an edge carrying `inherited`
// scope. ok is false when the edge should be dropped.
func effectiveScope(declared, inherited maven.Scope) (eff maven.Scope, ok bool) {
	if declared == "" {
		declared = maven.ScopeCompile
	}
	row, ok := scopeTable[declared]
	if !ok {
		return "", false
	}
	eff, ok = row[inherited]
	return eff, ok
}
