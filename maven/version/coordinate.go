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

package version

import (
	"fmt"
	"strings"
)

// ModuleKey identifies a Maven module independent of version: the
// (groupId, artifactId) pair.
type ModuleKey struct {
	Group    string
	Artifact string
}

func (k ModuleKey) String() string { return k.Group + ":" + k.Artifact }

// Coordinate identifies a specific artifact: a module key plus a
// constraint on its version, and the classifier/type that select among
// the artifacts a single (module, version) publishes.
type Coordinate struct {
	ModuleKey
	Constraint *Constraint
	Classifier string
	Type       string // "jar" if empty, by convention of the caller
}

// ParseCoordinate parses "group:artifact[:version][:classifier]" into a
// Coordinate. When the version is omitted, Constraint is left nil.
func ParseCoordinate(s string) (Coordinate, error) {
	parts := strings.Split(s, ":")
	if len(parts) < 2 {
		return Coordinate{}, fmt.Errorf("maven coordinate %q: need at least group:artifact", s)
	}
	c := Coordinate{ModuleKey: ModuleKey{Group: parts[0], Artifact: parts[1]}}
	if c.Group == "" || c.Artifact == "" {
		return Coordinate{}, fmt.Errorf("maven coordinate %q: empty group or artifact", s)
	}
	if len(parts) >= 3 && parts[2] != "" {
		cons, err := ParseConstraint(parts[2])
		if err != nil {
			return Coordinate{}, fmt.Errorf("maven coordinate %q: %w", s, err)
		}
		c.Constraint = cons
	}
	if len(parts) >= 4 {
		c.Classifier = parts[3]
	}
	if len(parts) > 4 {
		return Coordinate{}, fmt.Errorf("maven coordinate %q: too many segments", s)
	}
	return c, nil
}

func (c Coordinate) String() string {
	s := c.ModuleKey.String()
	if c.Constraint != nil {
		s += ":" + c.Constraint.String()
	}
	if c.Classifier != "" {
		s += ":" + c.Classifier
	}
	return s
}
