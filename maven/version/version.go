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

// Package version implements Maven's version ordering and range-constraint
// syntax, as defined by https://maven.apache.org/pom.html#Version_Order_Specification.
package version

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

const infinity = 1<<63 - 1

// Diff reports the most significant component in which two versions differ.
type Diff int

const (
	DiffNone Diff = iota
	DiffMajor
	DiffMinor
	DiffPatch
	DiffOther
)

// category classifies a rune for the purposes of tokenizing a Maven version.
type category int

const (
	catEOF category = iota
	catNumeric
	catSeparator
	catQualifier
)

// element is a single component of a tokenized version string, along with
// the separator that preceded it (zero for the first element).
type element struct {
	sep byte
	str string
	num int64
}

// Version is a parsed Maven version, ordered per Maven's rules: numeric
// segments compare numerically, qualifiers compare against a fixed table,
// and trailing zero/empty segments are equivalent to their prefix.
type Version struct {
	str          string
	elems        []element
	isPrerelease bool
}

func mavenCategory(s string) (cat category, width int) {
	if len(s) == 0 {
		return catEOF, 0
	}
	c, w := utf8.DecodeRuneInString(s)
	switch {
	case c == '∞':
		return catNumeric, w
	case '0' <= c && c <= '9':
		return catNumeric, w
	case c == '.', c == '-':
		return catSeparator, w
	}
	return catQualifier, w
}

// nextElem collects the next token of s: an optional leading separator
// followed by a run of same-category runes.
func nextElem(s string) (string, string) {
	if len(s) <= 1 {
		return s, ""
	}
	i := 0
	prev, _ := mavenCategory(s)
	if prev == catSeparator {
		i++
		prev, _ = mavenCategory(s[1:])
	}
	for i < len(s) {
		cat, w := mavenCategory(s[i:])
		if cat != prev || cat == catSeparator {
			return s[:i], s[i:]
		}
		i += w
	}
	return s, ""
}

func isEmptyElem(s string) bool {
	if s == "0" {
		return true
	}
	return qualifierOrder[s] == emptyQualifier
}

// Parse parses a Maven version string.
func Parse(str string) (*Version, error) {
	v := &Version{str: str}
	if err := v.init(strings.ToLower(str)); err != nil {
		return nil, err
	}
	return v, nil
}

func (v *Version) init(input string) error {
	elems := make([]element, 0, 6)
	first := true
	prevCat := catEOF
	for str, s := "", input; s != ""; {
		var e element
		str, s = nextElem(s)
		cat, _ := mavenCategory(str)
		if cat == catEOF {
			return fmt.Errorf("maven version: invalid version %q", input)
		}
		if cat == catSeparator {
			e.sep = str[0]
			str = str[1:]
			if str == "" {
				str = "0"
			}
			cat, _ = mavenCategory(str)
		} else if !first {
			e.sep = '-'
			if cat == catNumeric {
				if prevCat == catNumeric {
					e.sep = '.'
				} else if prevCat == catQualifier {
					prev := len(elems) - 1
					switch elems[prev].str {
					case "a":
						elems[prev].str = "alpha"
					case "b":
						elems[prev].str = "beta"
					case "m":
						elems[prev].str = "milestone"
					}
				}
			}
		}
		e.str = str
		elems = append(elems, e)
		prevCat = cat
		first = false
	}
	// Trim trailing zero/empty segments before each '-' and at the end.
	for i := 1; i < len(elems); i++ {
		if i < len(elems)-1 && elems[i+1].sep != '-' {
			continue
		}
		for i > 0 && isEmptyElem(elems[i].str) {
			copy(elems[i:], elems[i+1:])
			elems = elems[:len(elems)-1]
			i--
		}
	}
	for i, e := range elems {
		if cat, _ := mavenCategory(e.str); cat == catNumeric {
			if e.str == "∞" {
				elems[i].num = infinity
			} else {
				n, err := parseNum(e.str)
				if err != nil {
					return err
				}
				elems[i].num = n
			}
		} else {
			v.isPrerelease = true
		}
	}
	v.elems = elems
	return nil
}

func parseNum(s string) (int64, error) {
	var n int64
	for _, c := range s {
		if c < '0' || c > '9' {
			return 0, fmt.Errorf("maven version: invalid numeric segment %q", s)
		}
		n = n*10 + int64(c-'0')
		if n < 0 {
			return infinity, nil // overflow, treat as unbounded
		}
	}
	return n, nil
}

func (v *Version) String() string { return v.str }

// IsPrerelease reports whether the version contains any non-numeric
// qualifier segment, a rough proxy for "this is not a final release".
func (v *Version) IsPrerelease() bool { return v.isPrerelease }

func padElement(sep byte) element {
	if sep == '-' {
		return element{sep: '-'}
	}
	return element{sep: '.', str: "0"}
}

const emptyQualifier = -2

// qualifierOrder defines Maven's fixed qualifier ordering:
// alpha < beta < milestone < rc/cr < snapshot < (""/release/final/ga) < sp
// Anything absent from this table sorts after all of the above, ordered
// lexicographically among themselves.
var qualifierOrder = map[string]int{
	"alpha":     emptyQualifier - 5,
	"beta":      emptyQualifier - 4,
	"milestone": emptyQualifier - 3,
	"rc":        emptyQualifier - 2,
	"cr":        emptyQualifier - 2,
	"snapshot":  emptyQualifier - 1,
	"":          emptyQualifier,
	"release":   emptyQualifier,
	"final":     emptyQualifier,
	"ga":        emptyQualifier,
	"sp":        emptyQualifier + 1,
}

func compareQualifier(a, b string) int {
	ao, bo := qualifierOrder[a], qualifierOrder[b]
	if ao < 0 || bo < 0 {
		return sgn(ao, bo)
	}
	return sgnStr(a, b)
}

func sgn(a, b int) int {
	if a < b {
		return -1
	}
	if a > b {
		return 1
	}
	return 0
}

func sgn64(a, b int64) int {
	if a < b {
		return -1
	}
	if a > b {
		return 1
	}
	return 0
}

func sgnStr(a, b string) int {
	if a < b {
		return -1
	}
	if a > b {
		return 1
	}
	return 0
}

// Compare reports whether v sorts before, the same as, or after w: -1, 0, 1.
func (v *Version) Compare(w *Version) int {
	as, bs := v.elems, w.elems
	max := len(as)
	if len(bs) > max {
		max = len(bs)
	}
	for i := 0; i < max; i++ {
		var a, b element
		var ac, bc category
		if i >= len(as) {
			a = padElement(bs[i].sep)
			ac = catEOF
		} else {
			a = as[i]
			ac, _ = mavenCategory(a.str)
		}
		if i >= len(bs) {
			b = padElement(as[i].sep)
			bc = catEOF
		} else {
			b = bs[i]
			bc, _ = mavenCategory(b.str)
		}
		if a == b {
			continue
		}
		if ac == catQualifier {
			if ao := qualifierOrder[a.str]; ao > emptyQualifier {
				return unknownQualifierCompare(a, b, ao, bc)
			}
		}
		if bc == catQualifier {
			if bo := qualifierOrder[b.str]; bo > emptyQualifier {
				return -unknownQualifierCompare(b, a, bo, ac)
			}
		}
		if ac == catEOF {
			ac = catQualifier
		}
		if bc == catEOF {
			bc = catQualifier
		}
		// A numeric segment sorts above a qualifier (or padding) in the
		// same position.
		if ac < bc {
			return 1
		}
		if ac > bc {
			return -1
		}
		if ac == catNumeric {
			if a.sep != b.sep {
				return int(a.sep) - int(b.sep)
			}
			return sgn64(a.num, b.num)
		}
		if a.sep != b.sep {
			return int(b.sep) - int(a.sep)
		}
		if c := compareQualifier(a.str, b.str); c != 0 {
			return c
		}
	}
	if len(bs) > len(as) {
		return -1
	}
	return 0
}

// unknownQualifierCompare handles comparisons where a is a qualifier sorting
// after the empty qualifier (an unrecognized string, or "sp").
func unknownQualifierCompare(a, b element, aOrder int, bCategory category) int {
	switch bCategory {
	case catQualifier:
		bOrder := qualifierOrder[b.str]
		if aOrder == bOrder {
			if a.sep != b.sep {
				return int(b.sep) - int(a.sep)
			}
			return sgnStr(a.str, b.str)
		}
		return sgn(aOrder, bOrder)
	case catEOF:
		return sgn(aOrder, emptyQualifier)
	case catNumeric:
		return -1
	}
	panic(bCategory)
}

// Less reports whether v sorts strictly before w.
func (v *Version) Less(w *Version) bool { return v.Compare(w) < 0 }

// numAt returns the i'th zero-indexed element (0=major, 1=minor, 2=patch)
// of v's leading run of numeric elements, or 0 if that run ends before i.
func (v *Version) numAt(i int) int64 {
	for j := 0; j <= i; j++ {
		if j >= len(v.elems) {
			return 0
		}
		if s := v.elems[j].str; s == "" || s[0] < '0' || s[0] > '9' {
			return 0
		}
	}
	return v.elems[i].num
}

// Difference reports the most significant component in which v and w
// differ, inspecting only the first three numeric segments (major, minor,
// patch); anything else is reported as DiffOther.
func Difference(v, w *Version) Diff {
	if v.Compare(w) == 0 {
		return DiffNone
	}
	switch {
	case v.numAt(0) != w.numAt(0):
		return DiffMajor
	case v.numAt(1) != w.numAt(1):
		return DiffMinor
	case v.numAt(2) != w.numAt(2):
		return DiffPatch
	}
	return DiffOther
}
