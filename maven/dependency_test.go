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

package maven

import (
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestExclusionMatches(t *testing.T) {
	for _, test := range []struct {
		pattern  Exclusion
		group    string
		artifact string
		want     bool
	}{
		{Exclusion{GroupID: "org", ArtifactID: "lib"}, "org", "lib", true},
		{Exclusion{GroupID: "org", ArtifactID: "lib"}, "org", "other", false},
		{Exclusion{GroupID: "org", ArtifactID: "*"}, "org", "anything", true},
		{Exclusion{GroupID: "*", ArtifactID: "lib"}, "whatever", "lib", true},
		{Exclusion{GroupID: "*", ArtifactID: "*"}, "a", "b", true},
		{Exclusion{GroupID: "org", ArtifactID: "*"}, "com", "lib", false},
	} {
		t.Run(fmt.Sprintf("%s:%s vs %s:%s", test.pattern.GroupID, test.pattern.ArtifactID, test.group, test.artifact), func(t *testing.T) {
			if got := test.pattern.Matches(test.group, test.artifact); got != test.want {
				t.Errorf("Matches = %v, want %v", got, test.want)
			}
		})
	}
}

func TestProcessDependenciesFillsFromManagement(t *testing.T) {
	p := Project{
		ProjectKey: ProjectKey{GroupID: "demo", ArtifactID: "app", Version: "1"},
		DependencyManagement: DependencyManagement{Dependencies: []Dependency{
			{
				GroupID: "org", ArtifactID: "lib", Version: "2.0", Scope: "runtime",
				Exclusions: []Exclusion{{GroupID: "org", ArtifactID: "unwanted"}},
			},
		}},
		Dependencies: []Dependency{
			{GroupID: "org", ArtifactID: "lib"},
			{GroupID: "org", ArtifactID: "pinned", Version: "9"},
		},
	}
	p.ProcessDependencies(func(g, a, v String) (DependencyManagement, error) {
		t.Fatalf("unexpected BOM lookup %s:%s:%s", g, a, v)
		return DependencyManagement{}, nil
	})

	want := []Dependency{
		{
			GroupID: "org", ArtifactID: "lib", Version: "2.0", Type: "jar", Scope: "runtime",
			Exclusions: []Exclusion{{GroupID: "org", ArtifactID: "unwanted"}},
		},
		{GroupID: "org", ArtifactID: "pinned", Version: "9", Type: "jar"},
	}
	if diff := cmp.Diff(want, p.Dependencies); diff != "" {
		t.Errorf("dependencies (-want +got):\n%s", diff)
	}
}

func TestProcessDependenciesImportsBOM(t *testing.T) {
	p := Project{
		ProjectKey: ProjectKey{GroupID: "demo", ArtifactID: "app", Version: "1"},
		DependencyManagement: DependencyManagement{Dependencies: []Dependency{
			{GroupID: "demo", ArtifactID: "bom", Version: "1", Type: "pom", Scope: "import"},
		}},
		Dependencies: []Dependency{
			{GroupID: "org", ArtifactID: "managed"},
		},
	}
	p.ProcessDependencies(func(g, a, v String) (DependencyManagement, error) {
		if g != "demo" || a != "bom" || v != "1" {
			return DependencyManagement{}, fmt.Errorf("unknown BOM %s:%s:%s", g, a, v)
		}
		return DependencyManagement{Dependencies: []Dependency{
			{GroupID: "org", ArtifactID: "managed", Version: "5.5"},
		}}, nil
	})

	if len(p.Dependencies) != 1 || p.Dependencies[0].Version != "5.5" {
		t.Errorf("BOM-managed version not applied: %v", p.Dependencies)
	}
	for _, d := range p.Dependencies {
		if d.ArtifactID == "bom" {
			t.Error("imported BOM leaked into dependencies")
		}
	}
	for _, d := range p.DependencyManagement.Dependencies {
		if d.Scope == "import" {
			t.Error("import entry survived in dependencyManagement")
		}
	}
}

func TestProcessDependenciesDedupes(t *testing.T) {
	p := Project{
		ProjectKey: ProjectKey{GroupID: "demo", ArtifactID: "app", Version: "1"},
		Dependencies: []Dependency{
			{GroupID: "org", ArtifactID: "lib", Version: "1.0"},
			{GroupID: "org", ArtifactID: "lib", Version: "2.0"},
		},
	}
	p.ProcessDependencies(func(g, a, v String) (DependencyManagement, error) {
		return DependencyManagement{}, nil
	})
	if len(p.Dependencies) != 1 || p.Dependencies[0].Version != "1.0" {
		t.Errorf("first declaration should win: %v", p.Dependencies)
	}
}
