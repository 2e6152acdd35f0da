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

// Package repository adapts a Maven coordinate into the URLs a concrete
// repository publishes it under, and dispatches descriptor bytes to the
// dialect-appropriate parser. An ordered Set of repositories is
// consulted in priority order, the way Maven itself resolves against a
// <repositories> list, with the first repository to produce a usable
// result winning.
package repository

import (
	"fmt"
	"strings"

	"resolvecache/maven"
	"resolvecache/maven/version"
)

// Dialect selects how descriptor bytes for a repository are parsed.
type Dialect int

const (
	// DialectXML is a standard Maven POM.
	DialectXML Dialect = iota
	// DialectTabular is the repository pack's simpler key: value format
	// with an explicit "dependencies:" block.
	DialectTabular
)

func (d Dialect) String() string {
	switch d {
	case DialectXML:
		return "xml"
	case DialectTabular:
		return "tabular"
	default:
		return "unknown"
	}
}

// descriptorExt is the file extension a repository publishes descriptors
// under, per dialect.
func (d Dialect) descriptorExt() string {
	if d == DialectTabular {
		return ".meta"
	}
	return ".pom"
}

// Repository describes one artifact origin: a base URL and the layout
// rules that apply to it.
type Repository struct {
	Name string
	// BaseURL has no trailing slash, e.g. "https://repo1.maven.org/maven2".
	BaseURL string
	Dialect Dialect
	// Changing marks every artifact served by this repository as subject
	// to TTL-based revalidation (cache.Request.Changing), the way a
	// SNAPSHOT repository or an internal nightly mirror would be
	// configured.
	Changing bool
}

// modulePath returns "<org-with-slashes>/<artifact>", Maven's layout
// convention for turning a groupId into directory segments.
func modulePath(mk version.ModuleKey) string {
	return strings.ReplaceAll(mk.Group, ".", "/") + "/" + mk.Artifact
}

// DescriptorURL returns the URL of the project descriptor (POM or
// tabular metadata) for one concrete version.
func (r Repository) DescriptorURL(mk version.ModuleKey, ver string) string {
	return fmt.Sprintf("%s/%s/%s/%s-%s%s", r.BaseURL, modulePath(mk), ver, mk.Artifact, ver, r.Dialect.descriptorExt())
}

// ArtifactURL returns the URL of one published artifact file:
// "<name>-<version>[-<classifier>].<ext>", ext defaulting to "jar".
func (r Repository) ArtifactURL(mk version.ModuleKey, ver, classifier, typ string) string {
	if typ == "" {
		typ = "jar"
	}
	name := fmt.Sprintf("%s-%s", mk.Artifact, ver)
	if classifier != "" {
		name += "-" + classifier
	}
	return fmt.Sprintf("%s/%s/%s/%s.%s", r.BaseURL, modulePath(mk), ver, name, typ)
}

// VersionListingURL returns the URL this repository publishes the set of
// known versions of a module under: "maven-metadata.xml" for the XML
// dialect, a flat "versions.list" for the tabular one.
func (r Repository) VersionListingURL(mk version.ModuleKey) string {
	name := "maven-metadata.xml"
	if r.Dialect == DialectTabular {
		name = "versions.list"
	}
	return fmt.Sprintf("%s/%s/%s", r.BaseURL, modulePath(mk), name)
}

// Parse dispatches descriptor bytes to the dialect-appropriate parser,
// returning a maven.Project regardless of source dialect so the resolver
// never needs to know which format produced it.
func Parse(data []byte, dialect Dialect) (*maven.Project, error) {
	switch dialect {
	case DialectXML:
		return parseXML(data)
	case DialectTabular:
		return parseTabular(data)
	default:
		return nil, fmt.Errorf("repository: unknown dialect %v", dialect)
	}
}

// Set is an ordered list of repositories, consulted in priority order
// for both descriptor and artifact lookups: the first repository
// whose descriptor or artifact URL resolves successfully wins.
type Set struct {
	repos []Repository
}

// NewSet builds a Set that consults repos in the given order.
func NewSet(repos ...Repository) *Set {
	return &Set{repos: append([]Repository(nil), repos...)}
}

// Repositories returns the Set's repositories in priority order.
func (s *Set) Repositories() []Repository {
	return s.repos
}
