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

import (
	"sort"
	"strings"

	"resolvecache/maven/version"
	"resolvecache/resolveerr"
)

// claim is one path's vote for the version of a module key.
type claim struct {
	version string
	depth   int
	path    string // requesting path joined by '>', for the tie-break
	root    bool   // depth == 0: a root-declared version is sticky
}

// reconciler implements the default "nearest wins with root-overrides"
// policy and the strict alternative. Ties never fall back to insertion
// order, so the winner does not depend on the arrival order of
// concurrent descriptor fetches.
type reconciler struct {
	strict bool
	forced map[version.ModuleKey]string
	chosen map[version.ModuleKey]claim
	seen   map[version.ModuleKey]map[string]bool
}

func newReconciler(strict bool, forced map[version.ModuleKey]string) *reconciler {
	return &reconciler{
		strict: strict,
		forced: forced,
		chosen: make(map[version.ModuleKey]claim),
		seen:   make(map[version.ModuleKey]map[string]bool),
	}
}

// reconcile folds in a new claim for mk, returning the winning version
// and whether it differs from whatever was previously chosen (the
// signal to re-enqueue the module for re-expansion at the new version).
func (rc *reconciler) reconcile(mk version.ModuleKey, c claim) (winner string, changed bool, err error) {
	if s, ok := rc.seen[mk]; ok {
		s[c.version] = true
	} else {
		rc.seen[mk] = map[string]bool{c.version: true}
	}

	if fv, ok := rc.forced[mk]; ok {
		prev, existed := rc.chosen[mk]
		rc.chosen[mk] = claim{version: fv, depth: c.depth, path: c.path, root: c.root}
		return fv, !existed || prev.version != fv, nil
	}

	prev, existed := rc.chosen[mk]
	if !existed {
		rc.chosen[mk] = c
		return c.version, true, nil
	}
	if prev.version == c.version {
		return prev.version, false, nil
	}
	if rc.strict {
		versions := make([]string, 0, len(rc.seen[mk]))
		for v := range rc.seen[mk] {
			versions = append(versions, v)
		}
		sort.Strings(versions)
		return "", false, &resolveerr.VersionConflictError{
			Group:    mk.Group,
			Artifact: mk.Artifact,
			Versions: versions,
		}
	}
	winnerClaim := pickWinner(prev, c)
	rc.chosen[mk] = winnerClaim
	return winnerClaim.version, winnerClaim.version != prev.version, nil
}

// pickWinner applies the default reconciliation policy: a root claim
// always beats a non-root claim; among two claims of the same rootness,
// the shallower path wins; at equal depth the higher version wins; and
// only when the versions compare equal is the lexicographically
// smallest requesting path used, keeping the outcome independent of
// descriptor arrival order.
func pickWinner(a, b claim) claim {
	if a.root != b.root {
		if a.root {
			return a
		}
		return b
	}
	if a.depth != b.depth {
		if a.depth < b.depth {
			return a
		}
		return b
	}
	if c := compareVersions(a.version, b.version); c != 0 {
		if c > 0 {
			return a
		}
		return b
	}
	if strings.Compare(a.path, b.path) <= 0 {
		return a
	}
	return b
}
