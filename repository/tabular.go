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
	"bufio"
	"bytes"
	"fmt"
	"strings"

	"resolvecache/maven"
	"resolvecache/resolveerr"
)

// parseTabular reads the repository pack's simpler non-XML metadata
// format: top-level "key: value" lines, tolerant of blank lines
// and "#" comments, plus an explicit "dependencies:" section whose
// indented child lines are "group:artifact:version[:scope]" entries.
//
//	groupId: com.example
//	artifactId: widget
//	version: 2.1.0
//	packaging: jar
//	dependencies:
//	  com.google.guava:guava:32.1.3-jre:compile
//	  junit:junit:4.13.2:test
func parseTabular(data []byte) (*maven.Project, error) {
	var p maven.Project
	sc := bufio.NewScanner(bytes.NewReader(data))
	lineNo := 0
	var offset, lineStart int64
	inDeps := false
	for sc.Scan() {
		lineNo++
		raw := sc.Text()
		lineStart = offset
		offset += int64(len(raw)) + 1
		trimmed := strings.TrimSpace(raw)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		indented := raw != trimmed

		if inDeps && indented {
			dep, err := parseTabularDependency(trimmed)
			if err != nil {
				return nil, &resolveerr.ParseError{
					Offset: lineStart,
					Err:    fmt.Errorf("tabular line %d: %w", lineNo, err),
				}
			}
			p.Dependencies = append(p.Dependencies, dep)
			continue
		}
		inDeps = false

		key, value, ok := strings.Cut(trimmed, ":")
		if !ok {
			return nil, &resolveerr.ParseError{
				Offset: lineStart,
				Err:    fmt.Errorf("tabular line %d: missing ':'", lineNo),
			}
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)

		if key == "dependencies" && value == "" {
			inDeps = true
			continue
		}
		switch key {
		case "groupId":
			p.GroupID = maven.String(value)
		case "artifactId":
			p.ArtifactID = maven.String(value)
		case "version":
			p.Version = maven.String(value)
		case "packaging":
			p.Packaging = maven.String(value)
		case "name":
			p.Name = maven.String(value)
		default:
			return nil, &resolveerr.ParseError{
				Offset: lineStart,
				Err:    fmt.Errorf("tabular line %d: unrecognized key %q", lineNo, key),
			}
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return &p, nil
}

// parseTabularDependency parses one "group:artifact:version[:scope]" line
// from a tabular descriptor's dependencies: section.
func parseTabularDependency(line string) (maven.Dependency, error) {
	parts := strings.Split(line, ":")
	if len(parts) < 3 {
		return maven.Dependency{}, fmt.Errorf("dependency %q: want group:artifact:version[:scope]", line)
	}
	dep := maven.Dependency{
		GroupID:    maven.String(parts[0]),
		ArtifactID: maven.String(parts[1]),
		Version:    maven.String(parts[2]),
	}
	if len(parts) >= 4 && parts[3] != "" {
		dep.Scope = maven.String(parts[3])
	}
	if dep.GroupID == "" || dep.ArtifactID == "" {
		return maven.Dependency{}, fmt.Errorf("dependency %q: empty group or artifact", line)
	}
	return dep, nil
}
