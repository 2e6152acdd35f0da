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
	"os"
	"path/filepath"
	"testing"
)

func TestProfileActivationJDK(t *testing.T) {
	for _, test := range []struct {
		name string
		jdk  String
		host string
		want bool
	}{
		{"range matches", "[1.8,)", "11.0.8", true},
		{"range excludes", "[17,)", "11.0.8", false},
		{"soft version same minor", "11.0", "11.0.8", true},
		{"soft version newer host", "1.8", "11.0.8", false},
	} {
		t.Run(test.name, func(t *testing.T) {
			p := Profile{ID: "jdk", Activation: Activation{JDK: test.jdk}}
			got, err := p.activated(test.host, DefaultOSActivation)
			if err != nil {
				t.Fatalf("activated: %v", err)
			}
			if got != test.want {
				t.Errorf("activated(jdk=%s, host=%s) = %v, want %v", test.jdk, test.host, got, test.want)
			}
		})
	}
}

func TestProfileActivationOS(t *testing.T) {
	linux := ActivationOS{Name: "linux", Family: "unix", Arch: "amd64"}
	for _, test := range []struct {
		name string
		os   ActivationOS
		want bool
	}{
		{"family match", ActivationOS{Family: "unix"}, true},
		{"family mismatch", ActivationOS{Family: "windows"}, false},
		{"negated family", ActivationOS{Family: "!windows"}, true},
		{"name and arch", ActivationOS{Name: "Linux", Arch: "amd64"}, true},
	} {
		t.Run(test.name, func(t *testing.T) {
			p := Profile{ID: "os", Activation: Activation{OS: test.os}}
			got, err := p.activated("11.0.8", linux)
			if err != nil {
				t.Fatalf("activated: %v", err)
			}
			if got != test.want {
				t.Errorf("activated(os=%+v) = %v, want %v", test.os, got, test.want)
			}
		})
	}
}

func TestMergeProfiles(t *testing.T) {
	p := Project{
		ProjectKey: ProjectKey{GroupID: "demo", ArtifactID: "app", Version: "1"},
		Properties: Properties{Properties: []Property{{Name: "base", Value: "yes"}}},
		Profiles: []Profile{
			{
				ID:         "active",
				Activation: Activation{JDK: String("[1.8,)")},
				Properties: Properties{Properties: []Property{{Name: "from.profile", Value: "set"}}},
				Dependencies: []Dependency{
					{GroupID: "org", ArtifactID: "extra", Version: "1"},
				},
			},
			{
				ID:         "inactive",
				Activation: Activation{JDK: String("[99,)")},
				Dependencies: []Dependency{
					{GroupID: "org", ArtifactID: "never", Version: "1"},
				},
			},
		},
	}
	if err := p.MergeProfiles("11.0.8", DefaultOSActivation); err != nil {
		t.Fatalf("MergeProfiles: %v", err)
	}

	props := map[string]string{}
	for _, prop := range p.Properties.Properties {
		props[prop.Name] = prop.Value
	}
	if props["base"] != "yes" || props["from.profile"] != "set" {
		t.Errorf("properties after merge: %v", props)
	}
	if len(p.Dependencies) != 1 || p.Dependencies[0].ArtifactID != "extra" {
		t.Errorf("dependencies after merge: %v", p.Dependencies)
	}
}

func TestMergeProfilesActiveByDefault(t *testing.T) {
	p := Project{
		ProjectKey: ProjectKey{GroupID: "demo", ArtifactID: "app", Version: "1"},
		Profiles: []Profile{
			{
				ID:         "fallback",
				Activation: Activation{ActiveByDefault: FalsyBool{BoolString: "true"}},
				Dependencies: []Dependency{
					{GroupID: "org", ArtifactID: "default-dep", Version: "1"},
				},
			},
		},
	}
	if err := p.MergeProfiles("11.0.8", DefaultOSActivation); err != nil {
		t.Fatalf("MergeProfiles: %v", err)
	}
	if len(p.Dependencies) != 1 || p.Dependencies[0].ArtifactID != "default-dep" {
		t.Errorf("activeByDefault profile not applied: %v", p.Dependencies)
	}
}

func TestProfileActivationFile(t *testing.T) {
	existing := filepath.Join(t.TempDir(), "marker")
	if err := os.WriteFile(existing, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	missing := filepath.Join(t.TempDir(), "absent")

	for _, test := range []struct {
		name string
		file ActivationFile
		want bool
	}{
		{"exists satisfied", ActivationFile{Exists: String(existing)}, true},
		{"exists unsatisfied", ActivationFile{Exists: String(missing)}, false},
		{"missing satisfied", ActivationFile{Missing: String(missing)}, true},
		{"missing unsatisfied", ActivationFile{Missing: String(existing)}, false},
	} {
		t.Run(test.name, func(t *testing.T) {
			p := Profile{ID: "file", Activation: Activation{File: test.file}}
			got, err := p.activated("11.0.8", DefaultOSActivation)
			if err != nil {
				t.Fatalf("activated: %v", err)
			}
			if got != test.want {
				t.Errorf("activated = %v, want %v", got, test.want)
			}
		})
	}
}
