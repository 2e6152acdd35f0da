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
	"errors"
	"testing"

	"resolvecache/maven/version"
	"resolvecache/resolveerr"
)

func TestPickWinner(t *testing.T) {
	for _, test := range []struct {
		name string
		a, b claim
		want string
	}{
		{
			name: "root beats non-root regardless of version",
			a:    claim{version: "1.0", depth: 0, root: true, path: "r"},
			b:    claim{version: "9.0", depth: 1, path: "r>x"},
			want: "1.0",
		},
		{
			name: "nearer claim wins",
			a:    claim{version: "1.0", depth: 3, path: "r>a>b>z"},
			b:    claim{version: "2.0", depth: 1, path: "r>z"},
			want: "2.0",
		},
		{
			name: "depth tie goes to higher version",
			a:    claim{version: "1.0", depth: 2, path: "r>x>z"},
			b:    claim{version: "2.0", depth: 2, path: "r>y>z"},
			want: "2.0",
		},
		{
			name: "equal versions tie-break on smallest path",
			a:    claim{version: "1.0", depth: 2, path: "r>y>z"},
			b:    claim{version: "1.0", depth: 2, path: "r>x>z"},
			want: "1.0",
		},
	} {
		t.Run(test.name, func(t *testing.T) {
			if got := pickWinner(test.a, test.b); got.version != test.want {
				t.Errorf("pickWinner = %q, want %q", got.version, test.want)
			}
			// The outcome must not depend on argument order, except for
			// the pure path tie-break where both claims are equivalent.
			if got := pickWinner(test.b, test.a); got.version != test.want {
				t.Errorf("pickWinner (swapped) = %q, want %q", got.version, test.want)
			}
		})
	}
}

func TestReconcilerForcedVersion(t *testing.T) {
	key := version.ModuleKey{Group: "org", Artifact: "z"}
	rc := newReconciler(false, map[version.ModuleKey]string{key: "5.0"})

	winner, changed, err := rc.reconcile(key, claim{version: "1.0", depth: 2, path: "r>x>z"})
	if err != nil {
		t.Fatal(err)
	}
	if winner != "5.0" || !changed {
		t.Errorf("reconcile = (%q, %v), want (5.0, true)", winner, changed)
	}

	// A later, nearer, higher claim still loses to the forced entry.
	winner, changed, err = rc.reconcile(key, claim{version: "9.0", depth: 1, path: "r>z"})
	if err != nil {
		t.Fatal(err)
	}
	if winner != "5.0" || changed {
		t.Errorf("reconcile = (%q, %v), want (5.0, false)", winner, changed)
	}
}

func TestReconcilerStrictReportsAllVersions(t *testing.T) {
	key := version.ModuleKey{Group: "org", Artifact: "z"}
	rc := newReconciler(true, nil)

	if _, _, err := rc.reconcile(key, claim{version: "1.0", depth: 1, path: "r>z"}); err != nil {
		t.Fatal(err)
	}
	// The same version from another path is not a conflict.
	if _, _, err := rc.reconcile(key, claim{version: "1.0", depth: 2, path: "r>a>z"}); err != nil {
		t.Fatalf("same-version claim treated as conflict: %v", err)
	}
	_, _, err := rc.reconcile(key, claim{version: "2.0", depth: 2, path: "r>b>z"})
	if err == nil {
		t.Fatal("strict reconciler accepted a conflicting version")
	}
	var vc *resolveerr.VersionConflictError
	if !errors.As(err, &vc) {
		t.Fatalf("err = %v, want *resolveerr.VersionConflictError", err)
	}
	if len(vc.Versions) != 2 || vc.Versions[0] != "1.0" || vc.Versions[1] != "2.0" {
		t.Errorf("conflict versions = %v, want [1.0 2.0]", vc.Versions)
	}
}
