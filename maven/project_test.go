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
	"encoding/xml"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"resolvecache/resolveerr"
)

func TestProjectUnmarshal(t *testing.T) {
	data := `
<project>
  <groupId> com.example </groupId>
  <artifactId>widget</artifactId>
  <version>2.1.0</version>
  <packaging>jar</packaging>
  <parent>
    <groupId>com.example</groupId>
    <artifactId>parent</artifactId>
    <version>7</version>
  </parent>
  <properties>
    <guava.version>32.1.3-jre</guava.version>
  </properties>
  <dependencies>
    <dependency>
      <groupId>com.google.guava</groupId>
      <artifactId>guava</artifactId>
      <version>${guava.version}</version>
      <exclusions>
        <exclusion>
          <groupId>com.google.code.findbugs</groupId>
          <artifactId>jsr305</artifactId>
        </exclusion>
      </exclusions>
    </dependency>
    <dependency>
      <groupId>junit</groupId>
      <artifactId>junit</artifactId>
      <version>4.13.2</version>
      <scope>test</scope>
      <optional> true </optional>
    </dependency>
  </dependencies>
</project>`
	var p Project
	if err := xml.Unmarshal([]byte(data), &p); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	want := Project{
		ProjectKey: ProjectKey{GroupID: "com.example", ArtifactID: "widget", Version: "2.1.0"},
		Packaging:  "jar",
		Parent: Parent{
			ProjectKey: ProjectKey{GroupID: "com.example", ArtifactID: "parent", Version: "7"},
		},
		Properties: Properties{Properties: []Property{
			{Name: "guava.version", Value: "32.1.3-jre"},
		}},
		Dependencies: []Dependency{
			{
				GroupID: "com.google.guava", ArtifactID: "guava", Version: "${guava.version}",
				Exclusions: []Exclusion{
					{GroupID: "com.google.code.findbugs", ArtifactID: "jsr305"},
				},
			},
			{
				GroupID: "junit", ArtifactID: "junit", Version: "4.13.2",
				Scope:    "test",
				Optional: FalsyBool{BoolString: "true"},
			},
		},
	}
	if diff := cmp.Diff(want, p); diff != "" {
		t.Errorf("project mismatch (-want +got):\n%s", diff)
	}
}

func TestMergeParent(t *testing.T) {
	child := Project{
		ProjectKey: ProjectKey{ArtifactID: "child"},
		Parent: Parent{
			ProjectKey: ProjectKey{GroupID: "demo", ArtifactID: "parent", Version: "1"},
		},
		Properties: Properties{Properties: []Property{{Name: "own", Value: "child-value"}}},
	}
	parent := Project{
		ProjectKey: ProjectKey{GroupID: "demo", ArtifactID: "parent", Version: "1"},
		Properties: Properties{Properties: []Property{{Name: "shared", Value: "parent-value"}}},
		DependencyManagement: DependencyManagement{Dependencies: []Dependency{
			{GroupID: "org", ArtifactID: "lib", Version: "3.0"},
		}},
		Dependencies: []Dependency{{GroupID: "org", ArtifactID: "base", Version: "1.0"}},
	}

	child.MergeParent(parent)

	if child.GroupID != "demo" || child.Version != "1" {
		t.Errorf("coordinates not inherited: %s:%s", child.GroupID, child.Version)
	}
	if child.ArtifactID != "child" {
		t.Errorf("artifactId overwritten: %s", child.ArtifactID)
	}
	props := map[string]string{}
	for _, p := range child.Properties.Properties {
		props[p.Name] = p.Value
	}
	if props["own"] != "child-value" || props["shared"] != "parent-value" {
		t.Errorf("properties merged wrong: %v", props)
	}
	if len(child.DependencyManagement.Dependencies) != 1 {
		t.Errorf("dependencyManagement not inherited")
	}
	if len(child.Dependencies) != 1 || child.Dependencies[0].ArtifactID != "base" {
		t.Errorf("dependencies not inherited: %v", child.Dependencies)
	}
}

func TestInterpolate(t *testing.T) {
	p := Project{
		ProjectKey: ProjectKey{GroupID: "demo", ArtifactID: "app", Version: "1.4"},
		Properties: Properties{Properties: []Property{
			{Name: "lib.version", Value: "2.0"},
			{Name: "alias", Value: "${lib.version}"},
		}},
		Dependencies: []Dependency{
			{GroupID: "org", ArtifactID: "direct", Version: "${lib.version}"},
			{GroupID: "org", ArtifactID: "chained", Version: "${alias}"},
			{GroupID: "org", ArtifactID: "builtin", Version: "${project.version}"},
			{GroupID: "org", ArtifactID: "dangling", Version: "${no.such.property}"},
		},
	}
	if err := p.Interpolate(); err != nil {
		t.Fatalf("Interpolate: %v", err)
	}

	got := map[string]string{}
	for _, d := range p.Dependencies {
		got[string(d.ArtifactID)] = string(d.Version)
	}
	want := map[string]string{
		"direct":  "2.0",
		"chained": "2.0",
		"builtin": "1.4",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("interpolated dependencies (-want +got):\n%s", diff)
	}
	if _, ok := got["dangling"]; ok {
		t.Error("dependency with an unresolvable version survived interpolation")
	}
}

func TestInterpolatePropertyCycle(t *testing.T) {
	p := Project{
		ProjectKey: ProjectKey{GroupID: "demo", ArtifactID: "app", Version: "1"},
		Properties: Properties{Properties: []Property{
			{Name: "a", Value: "${b}"},
			{Name: "b", Value: "${a}"},
		}},
	}
	err := p.Interpolate()
	if !errors.Is(err, resolveerr.ErrPropertyCycle) {
		t.Fatalf("err = %v, want ErrPropertyCycle", err)
	}
}

func TestInterpolateSelfReferenceIsCycle(t *testing.T) {
	p := Project{
		ProjectKey: ProjectKey{GroupID: "demo", ArtifactID: "app", Version: "1"},
		Properties: Properties{Properties: []Property{
			{Name: "loop", Value: "prefix-${loop}"},
		}},
	}
	if err := p.Interpolate(); !errors.Is(err, resolveerr.ErrPropertyCycle) {
		t.Fatalf("err = %v, want ErrPropertyCycle", err)
	}
}
