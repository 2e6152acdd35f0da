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

func TestParseConstraintSoft(t *testing.T) {
	c, err := ParseConstraint("1.2.3")
	if err != nil {
		t.Fatalf("ParseConstraint: %v", err)
	}
	if !c.IsSoft() {
		t.Fatalf("IsSoft() = false, want true")
	}
	if got := c.Recommended().String(); got != "1.2.3" {
		t.Errorf("Recommended() = %q, want %q", got, "1.2.3")
	}
	// Soft constraints accept any version.
	if !c.Matches(mustParse(t, "9.9.9")) {
		t.Errorf("soft constraint should match any version")
	}
}

func TestConstraintMatches(t *testing.T) {
	tests := []struct {
		constraint string
		version    string
		want       bool
	}{
		{"[1.0,2.0]", "1.0", true},
		{"[1.0,2.0]", "2.0", true},
		{"[1.0,2.0]", "1.5", true},
		{"[1.0,2.0]", "0.9", false},
		{"[1.0,2.0]", "2.1", false},
		{"[1.0,2.0)", "2.0", false},
		{"(1.0,2.0)", "1.0", false},
		{"(1.0,2.0)", "1.5", true},
		{"[1.0,)", "99.0", true},
		{"[1.0,)", "0.5", false},
		{"(,1.0]", "0.5", true},
		{"(,1.0]", "1.0", true},
		{"(,1.0]", "1.1", false},
		{"[1.5]", "1.5", true},
		{"[1.5]", "1.6", false},
		{"[1.0,2.0),[3.0,)", "2.5", false},
		{"[1.0,2.0),[3.0,)", "1.5", true},
		{"[1.0,2.0),[3.0,)", "3.5", true},
	}
	for _, tc := range tests {
		c, err := ParseConstraint(tc.constraint)
		if err != nil {
			t.Fatalf("ParseConstraint(%q): %v", tc.constraint, err)
		}
		if c.IsSoft() {
			t.Fatalf("ParseConstraint(%q).IsSoft() = true, want false", tc.constraint)
		}
		got := c.Matches(mustParse(t, tc.version))
		if got != tc.want {
			t.Errorf("ParseConstraint(%q).Matches(%q) = %v, want %v", tc.constraint, tc.version, got, tc.want)
		}
	}
}

func TestParseConstraintInvalid(t *testing.T) {
	for _, s := range []string{
		"",
		"[1.0,2.0",
		"1.0,2.0]",
		"[,]",
		"[1.0,2.0,3.0]",
		"[1.0,2.0],",
	} {
		if _, err := ParseConstraint(s); err == nil {
			t.Errorf("ParseConstraint(%q): want error, got nil", s)
		}
	}
}

func TestConstraintFilter(t *testing.T) {
	c, err := ParseConstraint("[1.0,2.0)")
	if err != nil {
		t.Fatalf("ParseConstraint: %v", err)
	}
	vs := []*Version{
		mustParse(t, "0.9"),
		mustParse(t, "1.0"),
		mustParse(t, "1.5"),
		mustParse(t, "2.0"),
	}
	got := c.Filter(vs)
	if len(got) != 2 || got[0].String() != "1.0" || got[1].String() != "1.5" {
		t.Errorf("Filter() = %v, want [1.0 1.5]", got)
	}
}
