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

import "resolvecache/maven/version"

// Events is the Resolver's callback-hook surface, alongside
// cache.FetchEvents: the Resolver never logs directly, it
// only reports through this interface, which embedders implement as
// they see fit (a logrus-backed default lives in internal/observability).
type Events interface {
	NodeResolved(mk version.ModuleKey, ver string, depth int)
	VersionConflict(mk version.ModuleKey, versions []string)
	DependencyError(mk version.ModuleKey, requirement string, err error)
}

// NopEvents implements Events by doing nothing; it is the default when
// a caller supplies none.
type NopEvents struct{}

func (NopEvents) NodeResolved(version.ModuleKey, string, int)   {}
func (NopEvents) VersionConflict(version.ModuleKey, []string)   {}
func (NopEvents) DependencyError(version.ModuleKey, string, error) {}
