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

// bound is one endpoint of a range: nil means unbounded.
type bound struct {
	v         *Version
	inclusive bool
}

// span is a single (possibly unbounded) interval, e.g. "[1.0,2.0)".
type span struct {
	lo, hi bound
}

func (s span) contains(v *Version) bool {
	if s.lo.v != nil {
		c := s.lo.v.Compare(v)
		if c > 0 || (c == 0 && !s.lo.inclusive) {
			return false
		}
	}
	if s.hi.v != nil {
		c := v.Compare(s.hi.v)
		if c > 0 || (c == 0 && !s.hi.inclusive) {
			return false
		}
	}
	return true
}

func (s span) String() string {
	var sb strings.Builder
	if s.lo.v == nil && s.hi.v == nil {
		return "(,)"
	}
	if s.lo.inclusive {
		sb.WriteByte('[')
	} else {
		sb.WriteByte('(')
	}
	if s.lo.v != nil {
		sb.WriteString(s.lo.v.String())
	}
	sb.WriteByte(',')
	if s.hi.v != nil {
		sb.WriteString(s.hi.v.String())
	}
	if s.hi.inclusive {
		sb.WriteByte(']')
	} else {
		sb.WriteByte(')')
	}
	return sb.String()
}

// Constraint is a Maven version-range constraint: either a soft
// recommendation ("1.2" — matches anything, prefers this version), or a
// hard union of one or more closed/open/half-open intervals
// ("[1.0,2.0),[3.0,)").
type Constraint struct {
	str   string
	soft  *Version // non-nil for a bare recommended-version constraint
	spans []span   // non-nil for a hard range constraint (OR'd)
}

// ParseConstraint parses a Maven dependency version specifier.
func ParseConstraint(str string) (*Constraint, error) {
	s := strings.TrimSpace(str)
	if s == "" {
		return nil, fmt.Errorf("maven constraint: empty")
	}
	if s[0] != '[' && s[0] != '(' {
		if strings.ContainsAny(s, "[](),") {
			return nil, fmt.Errorf("maven constraint: unexpected bracket or comma in bare version %q", s)
		}
		v, err := Parse(s)
		if err != nil {
			return nil, fmt.Errorf("maven constraint: %w", err)
		}
		return &Constraint{str: str, soft: v}, nil
	}
	spans, err := parseSpans(s)
	if err != nil {
		return nil, fmt.Errorf("maven constraint %q: %w", str, err)
	}
	return &Constraint{str: str, spans: spans}, nil
}

// parseSpans splits a comma-separated union of ranges and parses each.
// Maven (like NuGet) treats every top-level comma as a union separator
// between full bracketed spans; it is never an AND as in npm or cargo.
func parseSpans(s string) ([]span, error) {
	var spans []span
	i := 0
	for i < len(s) {
		if s[i] != '[' && s[i] != '(' {
			return nil, fmt.Errorf("expected '[' or '(' at offset %d", i)
		}
		end := matchingClose(s, i)
		if end < 0 {
			return nil, fmt.Errorf("unterminated span starting at offset %d", i)
		}
		sp, err := parseSpan(s[i : end+1])
		if err != nil {
			return nil, err
		}
		spans = append(spans, sp)
		i = end + 1
		if i == len(s) {
			break
		}
		if s[i] != ',' {
			return nil, fmt.Errorf("expected ',' at offset %d", i)
		}
		i++
		if i == len(s) {
			return nil, fmt.Errorf("trailing ',' with no following span")
		}
	}
	return spans, nil
}

func matchingClose(s string, open int) int {
	depth := 0
	for i := open; i < len(s); i++ {
		switch s[i] {
		case '[', '(':
			depth++
		case ']', ')':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

func parseSpan(s string) (span, error) {
	if len(s) < 3 {
		return span{}, fmt.Errorf("malformed span %q", s)
	}
	loInclusive := s[0] == '['
	hiInclusive := s[len(s)-1] == ']'
	inner := s[1 : len(s)-1]
	parts := strings.SplitN(inner, ",", 2)
	if len(parts) == 1 {
		// "[1.0]" pins an exact version: both bounds equal and inclusive.
		if !loInclusive || !hiInclusive {
			return span{}, fmt.Errorf("malformed span %q: exact pin must use '[' and ']'", s)
		}
		v, err := Parse(strings.TrimSpace(parts[0]))
		if err != nil {
			return span{}, fmt.Errorf("malformed span %q: %w", s, err)
		}
		return span{
			lo: bound{v: v, inclusive: true},
			hi: bound{v: v, inclusive: true},
		}, nil
	}
	sp := span{
		lo: bound{inclusive: loInclusive},
		hi: bound{inclusive: hiInclusive},
	}
	lo, hi := strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1])
	if strings.ContainsAny(hi, "[](),") {
		return span{}, fmt.Errorf("malformed span %q: unexpected character in upper bound", s)
	}
	if lo != "" {
		v, err := Parse(lo)
		if err != nil {
			return span{}, fmt.Errorf("malformed span %q: %w", s, err)
		}
		sp.lo.v = v
	}
	if hi != "" {
		v, err := Parse(hi)
		if err != nil {
			return span{}, fmt.Errorf("malformed span %q: %w", s, err)
		}
		sp.hi.v = v
	}
	if sp.lo.v == nil && sp.hi.v == nil {
		return span{}, fmt.Errorf("malformed span %q: both bounds open", s)
	}
	return sp, nil
}

func (c *Constraint) String() string { return c.str }

// IsSoft reports whether this is a bare recommended-version specifier
// rather than a hard range: a soft constraint matches any version but
// expresses a preference used for nearest-wins reconciliation.
func (c *Constraint) IsSoft() bool { return c.soft != nil }

// Recommended returns the recommended version for a soft constraint, or
// nil for a hard range.
func (c *Constraint) Recommended() *Version { return c.soft }

// Matches reports whether v satisfies the constraint. A soft constraint
// matches every version; a hard constraint matches only versions falling
// inside one of its spans.
func (c *Constraint) Matches(v *Version) bool {
	if c.soft != nil {
		return true
	}
	for _, sp := range c.spans {
		if sp.contains(v) {
			return true
		}
	}
	return false
}

// Filter returns the subset of vs satisfying c, preserving order.
func (c *Constraint) Filter(vs []*Version) []*Version {
	var out []*Version
	for _, v := range vs {
		if c.Matches(v) {
			out = append(out, v)
		}
	}
	return out
}
