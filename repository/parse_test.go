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

package repository

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"resolvecache/maven"
	"resolvecache/resolveerr"
)

func TestParseXML(t *testing.T) {
	const pom = `<project>
  <groupId>com.example</groupId>
  <artifactId>widget</artifactId>
  <version>2.1.0</version>
  <dependencies>
    <dependency>
      <groupId>com.google.guava</groupId>
      <artifactId>guava</artifactId>
      <version>32.1.3-jre</version>
    </dependency>
  </dependencies>
</project>`
	got, err := Parse([]byte(pom), DialectXML)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	want := &maven.Project{
		ProjectKey: maven.ProjectKey{
			GroupID:    "com.example",
			ArtifactID: "widget",
			Version:    "2.1.0",
		},
		Dependencies: []maven.Dependency{
			{GroupID: "com.google.guava", ArtifactID: "guava", Version: "32.1.3-jre"},
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Parse(xml) mismatch (-want +got):\n%s", diff)
	}
}

func TestParseTabular(t *testing.T) {
	const meta = `# a tabular descriptor
groupId: com.example
artifactId: widget
version: 2.1.0
packaging: jar
dependencies:
  com.google.guava:guava:32.1.3-jre:compile
  junit:junit:4.13.2:test
`
	got, err := Parse([]byte(meta), DialectTabular)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	want := &maven.Project{
		ProjectKey: maven.ProjectKey{
			GroupID:    "com.example",
			ArtifactID: "widget",
			Version:    "2.1.0",
		},
		Packaging: "jar",
		Dependencies: []maven.Dependency{
			{GroupID: "com.google.guava", ArtifactID: "guava", Version: "32.1.3-jre", Scope: "compile"},
			{GroupID: "junit", ArtifactID: "junit", Version: "4.13.2", Scope: "test"},
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Parse(tabular) mismatch (-want +got):\n%s", diff)
	}
}

func TestParseTabularRejectsUnknownKey(t *testing.T) {
	_, err := Parse([]byte("bogus: 1\n"), DialectTabular)
	if err == nil {
		t.Fatal("Parse accepted an unrecognized top-level key")
	}
}

func TestParseTabularRejectsMalformedDependency(t *testing.T) {
	const meta = "groupId: g\nartifactId: a\nversion: 1\ndependencies:\n  not-enough-parts\n"
	_, err := Parse([]byte(meta), DialectTabular)
	if err == nil {
		t.Fatal("Parse accepted a malformed dependency line")
	}
}

// formatTabular renders the canonical field subset of a Project in the
// tabular dialect, for the round-trip check below.
func formatTabular(p *maven.Project) []byte {
	var b []byte
	add := func(key string, v maven.String) {
		if v != "" {
			b = append(b, key...)
			b = append(b, ": "...)
			b = append(b, v...)
			b = append(b, '\n')
		}
	}
	add("groupId", p.GroupID)
	add("artifactId", p.ArtifactID)
	add("version", p.Version)
	add("packaging", p.Packaging)
	if len(p.Dependencies) > 0 {
		b = append(b, "dependencies:\n"...)
		for _, d := range p.Dependencies {
			line := string(d.GroupID) + ":" + string(d.ArtifactID) + ":" + string(d.Version)
			if d.Scope != "" {
				line += ":" + string(d.Scope)
			}
			b = append(b, "  "+line+"\n"...)
		}
	}
	return b
}

func TestTabularRoundTrip(t *testing.T) {
	orig := &maven.Project{
		ProjectKey: maven.ProjectKey{
			GroupID:    "com.example",
			ArtifactID: "widget",
			Version:    "2.1.0",
		},
		Packaging: "jar",
		Dependencies: []maven.Dependency{
			{GroupID: "org.slf4j", ArtifactID: "slf4j-api", Version: "2.0.9"},
			{GroupID: "junit", ArtifactID: "junit", Version: "4.13.2", Scope: "test"},
		},
	}
	got, err := Parse(formatTabular(orig), DialectTabular)
	if err != nil {
		t.Fatalf("Parse(formatTabular): %v", err)
	}
	if diff := cmp.Diff(orig, got); diff != "" {
		t.Errorf("round trip not lossless (-orig +reparsed):\n%s", diff)
	}
}

func TestParseXMLMalformedCarriesOffset(t *testing.T) {
	const pom = "<project>\n  <groupId>g</groupId>\n  </mismatch>\n"
	_, err := Parse([]byte(pom), DialectXML)
	var perr *resolveerr.ParseError
	if !errors.As(err, &perr) {
		t.Fatalf("err = %v, want *resolveerr.ParseError", err)
	}
	if perr.Offset <= 0 || perr.Offset > int64(len(pom)) {
		t.Errorf("Offset = %d, want within (0, %d]", perr.Offset, len(pom))
	}
}

func TestParseTabularErrorCarriesOffset(t *testing.T) {
	const meta = "groupId: g\nartifactId: a\nbogus-line\n"
	_, err := Parse([]byte(meta), DialectTabular)
	var perr *resolveerr.ParseError
	if !errors.As(err, &perr) {
		t.Fatalf("err = %v, want *resolveerr.ParseError", err)
	}
	want := int64(len("groupId: g\n") + len("artifactId: a\n"))
	if perr.Offset != want {
		t.Errorf("Offset = %d, want %d (start of the offending line)", perr.Offset, want)
	}
}

func TestParseMetadataXMLMalformedCarriesOffset(t *testing.T) {
	_, err := ParseMetadata([]byte("<metadata><versioning></metadata>"), DialectXML)
	var perr *resolveerr.ParseError
	if !errors.As(err, &perr) {
		t.Fatalf("err = %v, want *resolveerr.ParseError", err)
	}
	if perr.Offset <= 0 {
		t.Errorf("Offset = %d, want > 0", perr.Offset)
	}
}
