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

import "testing"

func TestParseCoordinate(t *testing.T) {
	tests := []struct {
		in          string
		wantGroup   string
		wantArt     string
		wantVersion string
		wantClass   string
		wantErr     bool
	}{
		{in: "com.google.guava:guava", wantGroup: "com.google.guava", wantArt: "guava"},
		{in: "com.google.guava:guava:31.1-jre", wantGroup: "com.google.guava", wantArt: "guava", wantVersion: "31.1-jre"},
		{in: "org.foo:bar:[1.0,2.0)", wantGroup: "org.foo", wantArt: "bar", wantVersion: "[1.0,2.0)"},
		{in: "org.foo:bar:1.0:sources", wantGroup: "org.foo", wantArt: "bar", wantVersion: "1.0", wantClass: "sources"},
		{in: "org.foo:bar:1.0:sources:extra", wantErr: true},
		{in: "org.foo", wantErr: true},
		{in: ":bar", wantErr: true},
	}
	for _, tc := range tests {
		c, err := ParseCoordinate(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Errorf("ParseCoordinate(%q): want error, got nil", tc.in)
			}
			continue
		}
		if err != nil {
			t.Fatalf("ParseCoordinate(%q): %v", tc.in, err)
		}
		if c.Group != tc.wantGroup || c.Artifact != tc.wantArt || c.Classifier != tc.wantClass {
			t.Errorf("ParseCoordinate(%q) = %+v", tc.in, c)
		}
		if tc.wantVersion == "" {
			if c.Constraint != nil {
				t.Errorf("ParseCoordinate(%q).Constraint = %v, want nil", tc.in, c.Constraint)
			}
		} else if c.Constraint == nil || c.Constraint.String() != tc.wantVersion {
			t.Errorf("ParseCoordinate(%q).Constraint = %v, want %v", tc.in, c.Constraint, tc.wantVersion)
		}
	}
}

func TestModuleKeyString(t *testing.T) {
	k := ModuleKey{Group: "com.google.guava", Artifact: "guava"}
	if got, want := k.String(), "com.google.guava:guava"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}
