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
	"os"
	"strings"

	mvn "resolvecache/maven/version"
)

// Profile is a <profile> block: conditionally-activated overlay
// properties, dependencies, and dependency management.
type Profile struct {
	ID                   String               `xml:"id,omitempty"`
	Activation           Activation           `xml:"activation,omitempty"`
	Properties           Properties           `xml:"properties,omitempty"`
	DependencyManagement DependencyManagement `xml:"dependencyManagement,omitempty"`
	Dependencies         []Dependency         `xml:"dependencies>dependency,omitempty"`
	Repositories         []Repository         `xml:"repositories>repository,omitempty"`
}

// Activation holds a profile's activation criteria. A profile is active
// when every criterion it specifies is satisfied.
type Activation struct {
	ActiveByDefault FalsyBool          `xml:"activeByDefault,omitempty"`
	JDK             String             `xml:"jdk,omitempty"`
	OS              ActivationOS       `xml:"os,omitempty"`
	Property        ActivationProperty `xml:"property,omitempty"`
	File            ActivationFile     `xml:"file,omitempty"`
}

type ActivationOS struct {
	Name    String `xml:"name,omitempty"`
	Family  String `xml:"family,omitempty"`
	Arch    String `xml:"arch,omitempty"`
	Version String `xml:"version,omitempty"`
}

func (ao ActivationOS) blank() bool {
	return ao.Name == "" && ao.Family == "" && ao.Arch == "" && ao.Version == ""
}

type ActivationProperty struct {
	Name  String `xml:"name,omitempty"`
	Value String `xml:"value,omitempty"`
}

type ActivationFile struct {
	Missing String `xml:"missing,omitempty"`
	Exists  String `xml:"exists,omitempty"`
}

// activated reports whether p's activation criteria are met given the
// caller's JDK version and OS description. A profile with no JDK, OS,
// property, or file criterion is never implicitly activated this way (it
// activates only via activeByDefault, handled by the caller).
func (p *Profile) activated(jdk string, host ActivationOS) (bool, error) {
	act := p.Activation
	if act.JDK == "" && act.OS.blank() && act.Property.Name == "" &&
		act.File.Exists == "" && act.File.Missing == "" {
		return false, nil
	}
	res := false
	if act.JDK != "" {
		c, err := mvn.ParseConstraint(string(act.JDK))
		if err != nil {
			return false, fmt.Errorf("profile %q: activation jdk: %w", p.ID, err)
		}
		if c.IsSoft() {
			// A bare JDK version activates when major and minor match.
			want := c.Recommended()
			got, err := mvn.Parse(jdk)
			if err != nil {
				return false, fmt.Errorf("profile %q: caller jdk %q: %w", p.ID, jdk, err)
			}
			cmp := want.Compare(got)
			if cmp > 0 || (cmp < 0 && (mvn.Difference(want, got) == mvn.DiffMajor || mvn.Difference(want, got) == mvn.DiffMinor)) {
				return false, nil
			}
		} else {
			got, err := mvn.Parse(jdk)
			if err != nil {
				return false, fmt.Errorf("profile %q: caller jdk %q: %w", p.ID, jdk, err)
			}
			if !c.Matches(got) {
				return false, nil
			}
		}
		res = true
	}
	if !act.OS.blank() {
		// isAllowed mirrors Maven's requireOS enforcer rule: case-insensitive
		// match, negated by a leading "!".
		isAllowed := func(value, expected String) bool {
			got, want := string(value), string(expected)
			if got == "" {
				return true
			}
			negate := strings.HasPrefix(got, "!")
			got = strings.ToLower(strings.TrimPrefix(got, "!"))
			if negate {
				return got != want
			}
			return got == want
		}
		if !isAllowed(act.OS.Family, host.Family) ||
			!isAllowed(act.OS.Name, host.Name) ||
			!isAllowed(act.OS.Version, host.Version) ||
			!isAllowed(act.OS.Arch, host.Arch) {
			return false, nil
		}
		res = true
	}
	if act.File.Exists != "" || act.File.Missing != "" {
		if e := string(act.File.Exists); e != "" {
			if _, err := os.Stat(e); err != nil {
				return false, nil
			}
		}
		if m := string(act.File.Missing); m != "" {
			if _, err := os.Stat(m); err == nil {
				return false, nil
			}
		}
		res = true
	}
	if name := string(act.Property.Name); name != "" {
		want := string(act.Property.Value)
		negate := strings.HasPrefix(name, "!")
		if negate && want == "" {
			// "!propertyName" activates when the property is absent; no
			// user-property set is wired in, so it is treated as
			// inactive.
			return false, nil
		}
		res = true
	}
	return res, nil
}

const (
	// DefaultJDKActivation is the JDK version used for profile activation
	// when the caller supplies none.
	DefaultJDKActivation = "11.0.8"
)

var (
	// DefaultOSActivation is the OS description used for profile
	// activation when the caller supplies none: a generic Linux/amd64
	// build host.
	DefaultOSActivation = ActivationOS{
		Name:    "linux",
		Family:  "unix",
		Arch:    "amd64",
	}
)

// MergeProfiles overlays the properties, dependency management, and
// dependencies of every profile activated by (jdk, host) onto p. If no
// profile is activated, the profiles marked activeByDefault are used
// instead.
func (p *Project) MergeProfiles(jdk string, host ActivationOS) (err error) {
	var active, byDefault []Profile
	for _, prof := range p.Profiles {
		act, actErr := prof.activated(jdk, host)
		if actErr != nil {
			err = appendError(err, actErr)
		}
		if act {
			active = append(active, prof)
		}
		if prof.Activation.ActiveByDefault.Boolean() {
			byDefault = append(byDefault, prof)
		}
	}
	if len(active) == 0 {
		active = byDefault
	}
	for _, prof := range active {
		prof.Properties.merge(p.Properties)
		p.Properties = prof.Properties

		p.DependencyManagement.merge(prof.DependencyManagement)
		p.Dependencies = append(p.Dependencies, prof.Dependencies...)
		p.Repositories = append(p.Repositories, prof.Repositories...)
	}
	return err
}

func appendError(e1, e2 error) error {
	if e1 == nil {
		return e2
	}
	return fmt.Errorf("%w, %w", e1, e2)
}
