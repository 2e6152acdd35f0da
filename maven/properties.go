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
	"strings"
)

// Properties holds the <properties> section of a POM: an ordered list of
// name/value pairs, since XML doesn't give us a map directly and Maven's
// own semantics care about declaration order for overlay/merge purposes.
type Properties struct {
	Properties []Property
}

type Property struct {
	Name  string
	Value string
}

// UnmarshalXML reads each child element of <properties> as one Property,
// named by the element's tag.
func (p *Properties) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	for {
		t, err := d.Token()
		if err != nil {
			return err
		}
		switch t1 := t.(type) {
		case xml.StartElement:
			var s string
			if err := d.DecodeElement(&s, &t1); err != nil {
				return err
			}
			p.Properties = append(p.Properties, Property{
				Name:  t1.Name.Local,
				Value: strings.TrimSpace(s),
			})
		case xml.EndElement:
			return nil
		}
	}
}

func (p *Properties) merge(parent Properties) {
	p.Properties = append(append([]Property{}, parent.Properties...), p.Properties...)
}

// findPropertyCycle walks the reference graph of a property dictionary
// and reports a key participating in a ${...} reference cycle, if one
// exists. Substitution must fail outright on a cycle rather than leave
// placeholders half-resolved.
func findPropertyCycle(dictionary map[string]string) (string, bool) {
	const (
		unvisited = iota
		visiting
		done
	)
	state := make(map[string]int, len(dictionary))
	var visit func(key string) (string, bool)
	visit = func(key string) (string, bool) {
		switch state[key] {
		case visiting:
			return key, true
		case done:
			return "", false
		}
		state[key] = visiting
		for _, ref := range propertyRefs(dictionary[key]) {
			if _, ok := dictionary[ref]; !ok {
				continue
			}
			if k, found := visit(ref); found {
				return k, true
			}
		}
		state[key] = done
		return "", false
	}
	for key := range dictionary {
		if k, found := visit(key); found {
			return k, true
		}
	}
	return "", false
}

// propertyRefs extracts the ${...} reference names appearing in s.
func propertyRefs(s string) []string {
	var refs []string
	for {
		i := strings.Index(s, "${")
		if i < 0 {
			break
		}
		j := strings.Index(s[i:], "}")
		if j < 0 {
			break
		}
		refs = append(refs, s[i+2:i+j])
		s = s[i+j+1:]
	}
	return refs
}

// propertyMap builds the dictionary used for ${...} interpolation: the
// project's own declared properties, overlaid with the well-known
// project.*/pom.* built-ins, which cannot be shadowed.
func (p *Project) propertyMap() map[string]string {
	m := make(map[string]string, len(p.Properties.Properties)+8)
	for _, prop := range p.Properties.Properties {
		m[prop.Name] = prop.Value
	}
	addBuiltin := func(k string, v String) {
		if v == "" {
			return
		}
		if _, ok := m[k]; !ok {
			m[k] = string(v)
		}
		m["pom."+k] = string(v)
		m["project."+k] = string(v)
	}
	addBuiltin("groupId", p.GroupID)
	addBuiltin("artifactId", p.ArtifactID)
	addBuiltin("version", p.Version)
	addBuiltin("parent.groupId", p.Parent.GroupID)
	addBuiltin("parent.artifactId", p.Parent.ArtifactID)
	addBuiltin("parent.version", p.Parent.Version)
	return m
}
