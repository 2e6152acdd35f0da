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
	"errors"
	"fmt"
	"strings"

	"resolvecache/resolveerr"
)

// ProjectKey identifies a project by its Maven coordinates.
type ProjectKey struct {
	GroupID    String `xml:"groupId,omitempty"`
	ArtifactID String `xml:"artifactId,omitempty"`
	Version    String `xml:"version,omitempty"`
}

func (pk ProjectKey) Name() string {
	return fmt.Sprintf("%s:%s", pk.GroupID, pk.ArtifactID)
}

// MakeProjectKey builds a ProjectKey from a "group:artifact" name and a
// version string.
func MakeProjectKey(name, version string) (ProjectKey, error) {
	group, artifact, ok := strings.Cut(name, ":")
	if !ok {
		return ProjectKey{}, errors.New("maven: invalid project name, want group:artifact")
	}
	return ProjectKey{
		GroupID:    String(group),
		ArtifactID: String(artifact),
		Version:    String(version),
	}, nil
}

// Parent is the <parent> reference: the project a POM inherits from.
type Parent struct {
	ProjectKey
	RelativePath String `xml:"relativePath,omitempty"`
}

// Project is the in-memory form of a parsed project descriptor (a POM, or
// the tabular dialect's equivalent).
// https://maven.apache.org/ref/3.9.3/maven-model/maven.html
type Project struct {
	ProjectKey

	Parent      Parent `xml:"parent,omitempty"`
	Packaging   String `xml:"packaging,omitempty"`
	Name        String `xml:"name,omitempty"`
	Description String `xml:"description,omitempty"`
	URL         String `xml:"url,omitempty"`

	Properties Properties `xml:"properties,omitempty"`

	SCM                    SCM                    `xml:"scm,omitempty"`
	IssueManagement        IssueManagement        `xml:"issueManagement,omitempty"`
	DistributionManagement DistributionManagement `xml:"distributionManagement,omitempty"`
	DependencyManagement   DependencyManagement   `xml:"dependencyManagement,omitempty"`
	Dependencies           []Dependency           `xml:"dependencies>dependency,omitempty"`
	Repositories           []Repository           `xml:"repositories>repository,omitempty"`
	Profiles               []Profile              `xml:"profiles>profile,omitempty"`
}

type SCM struct {
	Tag String `xml:"tag,omitempty"`
	URL String `xml:"url,omitempty"`
}

func (s *SCM) merge(parent SCM) {
	if s.Tag == "" && s.URL == "" {
		*s = parent
	}
}

func (s *SCM) interpolate(properties map[string]string) bool {
	ok1 := s.Tag.interpolate(properties)
	ok2 := s.URL.interpolate(properties)
	return ok1 && ok2
}

type IssueManagement struct {
	System String `xml:"system,omitempty"`
	URL    String `xml:"url,omitempty"`
}

func (im *IssueManagement) merge(parent IssueManagement) {
	if im.System == "" && im.URL == "" {
		*im = parent
	}
}

func (im *IssueManagement) interpolate(properties map[string]string) bool {
	ok1 := im.System.interpolate(properties)
	ok2 := im.URL.interpolate(properties)
	return ok1 && ok2
}

type DistributionManagement struct {
	Relocation Relocation `xml:"relocation,omitempty"`
}

func (dm *DistributionManagement) interpolate(properties map[string]string) bool {
	return dm.Relocation.interpolate(properties)
}

type Relocation struct {
	GroupID    String `xml:"groupId,omitempty"`
	ArtifactID String `xml:"artifactId,omitempty"`
	Version    String `xml:"version,omitempty"`
}

func (r *Relocation) interpolate(properties map[string]string) bool {
	ok1 := r.GroupID.interpolate(properties)
	ok2 := r.ArtifactID.interpolate(properties)
	ok3 := r.Version.interpolate(properties)
	return ok1 && ok2 && ok3
}

// Repository describes one remote (or mirrored-local) repository a
// project declares, beyond whatever default repositories the caller
// already consults.
// https://maven.apache.org/ref/3.9.3/maven-model/maven.html#repository-1
type Repository struct {
	ID        String           `xml:"id,omitempty"`
	URL       String           `xml:"url,omitempty"`
	Layout    String           `xml:"layout,omitempty"`
	Releases  RepositoryPolicy `xml:"releases,omitempty"`
	Snapshots RepositoryPolicy `xml:"snapshots,omitempty"`
}

func (r *Repository) interpolate(properties map[string]string) bool {
	ok1 := r.ID.interpolate(properties)
	ok2 := r.URL.interpolate(properties)
	ok3 := r.Layout.interpolate(properties)
	ok4 := r.Releases.interpolate(properties)
	ok5 := r.Snapshots.interpolate(properties)
	return ok1 && ok2 && ok3 && ok4 && ok5
}

type RepositoryPolicy struct {
	Enabled TruthyBool `xml:"enabled"`
}

func (rp *RepositoryPolicy) interpolate(properties map[string]string) bool {
	return rp.Enabled.interpolate(properties)
}

// MergeParent folds parent's inheritable fields into p wherever p left
// them unset, per Maven's project-inheritance rules.
// https://maven.apache.org/guides/introduction/introduction-to-the-pom.html#Project_Inheritance
func (p *Project) MergeParent(parent Project) {
	p.GroupID.merge(parent.GroupID)
	p.Version.merge(parent.Version)
	p.Description.merge(parent.Description)
	p.URL.merge(parent.URL)
	p.SCM.merge(parent.SCM)
	p.IssueManagement.merge(parent.IssueManagement)
	p.Properties.merge(parent.Properties)
	p.DependencyManagement.merge(parent.DependencyManagement)
	p.Dependencies = append(p.Dependencies, parent.Dependencies...)
	p.Repositories = append(p.Repositories, parent.Repositories...)
}

// Interpolate resolves every ${...} placeholder reachable from p's
// fields. Dependencies, managed dependencies, and repositories that fail
// to fully resolve are dropped rather than left half-substituted, matching
// Maven's own behavior of silently discarding dependencies whose
// coordinates don't resolve; other fields keep their partially
// substituted text.
func (p *Project) Interpolate() error {
	properties := p.propertyMap()
	if key, found := findPropertyCycle(properties); found {
		return fmt.Errorf("maven: property %q: %w", key, resolveerr.ErrPropertyCycle)
	}

	p.Packaging.interpolate(properties)
	p.SCM.interpolate(properties)
	p.IssueManagement.interpolate(properties)
	p.DistributionManagement.interpolate(properties)

	var deps []Dependency
	for _, dep := range p.Dependencies {
		if dep.GroupID == "" || dep.ArtifactID == "" {
			continue
		}
		if dep.interpolate(properties) {
			deps = append(deps, dep)
		}
	}
	p.Dependencies = deps

	var dmDeps []Dependency
	for _, dm := range p.DependencyManagement.Dependencies {
		if dm.GroupID == "" || dm.ArtifactID == "" {
			continue
		}
		if dm.interpolate(properties) {
			dmDeps = append(dmDeps, dm)
		}
	}
	p.DependencyManagement = DependencyManagement{Dependencies: dmDeps}

	var repos []Repository
	for _, r := range p.Repositories {
		if r.interpolate(properties) {
			repos = append(repos, r)
		}
	}
	p.Repositories = repos

	return nil
}
