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

import "fmt"

// Scope is a dependency's declared or inherited classpath scope.
type Scope string

const (
	ScopeCompile  Scope = "compile"
	ScopeRuntime  Scope = "runtime"
	ScopeProvided Scope = "provided"
	ScopeTest     Scope = "test"
	ScopeSystem   Scope = "system"
	ScopeImport   Scope = "import"
)

// Dependency is one <dependency> entry: a coordinate plus the scoping and
// exclusion information that governs how it contributes to the graph.
type Dependency struct {
	GroupID    String      `xml:"groupId,omitempty"`
	ArtifactID String      `xml:"artifactId,omitempty"`
	Version    String      `xml:"version,omitempty"`
	Type       String      `xml:"type,omitempty"`
	Classifier String      `xml:"classifier,omitempty"`
	Scope      String      `xml:"scope,omitempty"`
	Exclusions []Exclusion `xml:"exclusions>exclusion,omitempty"`
	Optional   FalsyBool   `xml:"optional,omitempty"`
}

// Exclusion is one <exclusion> entry: a (possibly wildcarded) module
// pattern to drop from this dependency's own transitive closure.
type Exclusion struct {
	GroupID    String `xml:"groupId,omitempty"`
	ArtifactID String `xml:"artifactId,omitempty"`
}

// Matches reports whether the exclusion pattern covers (group, artifact),
// honoring Maven's "*" wildcard in either field.
func (e Exclusion) Matches(group, artifact string) bool {
	return (e.GroupID == "*" || string(e.GroupID) == group) &&
		(e.ArtifactID == "*" || string(e.ArtifactID) == artifact)
}

func (d *Dependency) Name() string {
	return fmt.Sprintf("%s:%s", d.GroupID, d.ArtifactID)
}

// DependencyKey uniquely identifies a dependency entry within a single
// project: module key plus the classifier/type that select an artifact.
type DependencyKey struct {
	GroupID    String
	ArtifactID String
	Type       String
	Classifier String
}

// Key returns d's DependencyKey, defaulting Type to "jar" as Maven does
// when the element is omitted.
func (d *Dependency) Key() DependencyKey {
	if d.Type == "" {
		d.Type = "jar"
	}
	return DependencyKey{
		GroupID:    d.GroupID,
		ArtifactID: d.ArtifactID,
		Type:       d.Type,
		Classifier: d.Classifier,
	}
}

func (d *Dependency) interpolate(properties map[string]string) bool {
	ok := d.GroupID.interpolate(properties)
	ok = d.ArtifactID.interpolate(properties) && ok
	ok = d.Version.interpolate(properties) && ok
	ok = d.Scope.interpolate(properties) && ok
	ok = d.Type.interpolate(properties) && ok
	ok = d.Classifier.interpolate(properties) && ok
	ok = d.Optional.interpolate(properties) && ok
	return ok
}

// DependencyManagement is a <dependencyManagement> block: version/scope/
// exclusion defaults that declared dependencies inherit when they omit
// those fields, plus BOM entries to be imported (scope="import").
type DependencyManagement struct {
	Dependencies []Dependency `xml:"dependencies>dependency,omitempty"`
}

func (dm *DependencyManagement) merge(parent DependencyManagement) {
	dm.Dependencies = append(dm.Dependencies, parent.Dependencies...)
}

// MaxImports bounds the number of transitive BOM imports ProcessDependencies
// will follow, guarding against import cycles between POMs.
const MaxImports = 300

// ProcessDependencies dedupes p's dependencies and dependency-management
// entries, imports any scope="import" BOM entries (transitively, up to
// MaxImports), and fills each dependency's version/scope/exclusions from
// dependency management where the dependency itself left them blank.
//
// getDependencyManagement fetches another project's dependencyManagement
// block by (group, artifact, version), since BOM imports reference
// artifacts outside the current project.
func (p *Project) ProcessDependencies(getDependencyManagement func(group, artifact, version String) (DependencyManagement, error)) {
	addDepManagement := func(deps []Dependency, m map[DependencyKey]Dependency) (keys []DependencyKey, imports []Dependency) {
		for _, dep := range deps {
			if dep.Scope == "import" {
				imports = append(imports, dep)
				continue
			}
			dk := dep.Key()
			if _, ok := m[dk]; !ok {
				m[dk] = dep
				keys = append(keys, dk)
			}
		}
		return keys, imports
	}

	deps := make(map[DependencyKey]Dependency, len(p.Dependencies))
	depKeys := make([]DependencyKey, 0, len(p.Dependencies))
	for _, dep := range p.Dependencies {
		dk := dep.Key()
		if _, ok := deps[dk]; !ok {
			deps[dk] = dep
			depKeys = append(depKeys, dk)
		}
	}

	depManagement := make(map[DependencyKey]Dependency, len(p.DependencyManagement.Dependencies))
	depManagementKeys, pendingImports := addDepManagement(p.DependencyManagement.Dependencies, depManagement)

	imported := make(map[DependencyKey]bool)
	for n := 0; n < MaxImports && len(pendingImports) > 0; n++ {
		dep := pendingImports[0]
		pendingImports = pendingImports[1:]
		dk := dep.Key()
		if imported[dk] {
			continue
		}
		imported[dk] = true
		if dep.Type != "pom" {
			continue
		}
		dm, err := getDependencyManagement(dep.GroupID, dep.ArtifactID, dep.Version)
		if err != nil {
			continue
		}
		newKeys, newImports := addDepManagement(dm.Dependencies, depManagement)
		depManagementKeys = append(depManagementKeys, newKeys...)
		pendingImports = append(newImports, pendingImports...)
	}

	p.Dependencies = make([]Dependency, 0, len(depKeys))
	for _, dk := range depKeys {
		dep := deps[dk]
		if dm, ok := depManagement[dk]; ok {
			if dep.Version == "" {
				dep.Version = dm.Version
			}
			if dep.Scope == "" {
				dep.Scope = dm.Scope
			}
			if len(dep.Exclusions) == 0 {
				dep.Exclusions = dm.Exclusions
			}
		}
		p.Dependencies = append(p.Dependencies, dep)
	}

	p.DependencyManagement.Dependencies = nil
	for _, dk := range depManagementKeys {
		p.DependencyManagement.Dependencies = append(p.DependencyManagement.Dependencies, depManagement[dk])
	}
}
