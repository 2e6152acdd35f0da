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

// Package credential models the shape of a repository credential record
// and the host/realm matching rule the cache fetcher applies to
// requests, plus a parser for the line-oriented credentials file
// format. Locating and merging credential files is left to the
// embedding program.
package credential

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Credential is one entry of a credentials file: a host-scoped Basic
// auth pair plus its matching refinements.
type Credential struct {
	Name           string
	HostPattern    string
	Username       string
	Password       string
	Realm          string // empty matches any realm
	HTTPSOnly      bool
	MatchHost      bool // require exact host match rather than suffix match
	Auto           bool
	PassOnRedirect bool
}

// hostMatches reports whether host satisfies c's HostPattern, honoring
// MatchHost (exact) versus the default suffix match ("repo.example.com"
// matches host "mirror.repo.example.com").
func (c Credential) hostMatches(host string) bool {
	if c.HostPattern == "" || c.HostPattern == "*" {
		return true
	}
	if c.MatchHost {
		return strings.EqualFold(c.HostPattern, host)
	}
	return strings.EqualFold(c.HostPattern, host) || strings.HasSuffix(strings.ToLower(host), "."+strings.ToLower(c.HostPattern))
}

// Matches reports whether c applies to a request to host over scheme,
// with the realm (if any) the server challenged with via WWW-Authenticate.
func (c Credential) Matches(host, scheme, realm string) bool {
	if !c.hostMatches(host) {
		return false
	}
	if c.HTTPSOnly && !strings.EqualFold(scheme, "https") {
		return false
	}
	if realm != "" && c.Realm != "" && !strings.EqualFold(c.Realm, realm) {
		return false
	}
	return true
}

// Store is an ordered list of credentials. Matching is
// most-specific-first: an exact (MatchHost) or longer literal
// HostPattern outranks a shorter suffix match, and ties fall back to
// first-declared configuration order.
type Store struct {
	creds []Credential
}

// NewStore builds a Store from credentials in configuration order.
func NewStore(creds []Credential) *Store {
	return &Store{creds: append([]Credential(nil), creds...)}
}

// Match returns the best-matching credential for a request to host over
// scheme, optionally narrowed by a server-supplied realm challenge.
func (s *Store) Match(host, scheme, realm string) (Credential, bool) {
	best := -1
	bestSpecificity := -1
	for i, c := range s.creds {
		if !c.Matches(host, scheme, realm) {
			continue
		}
		specificity := len(c.HostPattern)
		if c.MatchHost {
			specificity += 1 << 20 // exact-host match always outranks a suffix match
		}
		if specificity > bestSpecificity {
			best = i
			bestSpecificity = specificity
		}
	}
	if best < 0 {
		return Credential{}, false
	}
	return s.creds[best], true
}

// Parse reads the line-oriented credentials format:
//
//	host.central.host=repo.maven.apache.org
//	host.central.username=deploy
//	host.central.password=secret
//	host.central.realm=Sonatype Nexus Repository Manager
//	host.central.https-only=true
//	host.central.auto=true
//	host.central.pass-on-redirect=false
//
// Blank lines and lines beginning with '#' are ignored.
func Parse(r io.Reader) ([]Credential, error) {
	named := make(map[string]*Credential)
	var order []string

	sc := bufio.NewScanner(r)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			return nil, fmt.Errorf("credentials line %d: missing '='", lineNo)
		}
		key, value = strings.TrimSpace(key), strings.TrimSpace(value)
		parts := strings.SplitN(key, ".", 3)
		if len(parts) != 3 || parts[0] != "host" {
			return nil, fmt.Errorf("credentials line %d: key %q must be host.<name>.<field>", lineNo, key)
		}
		name, field := parts[1], parts[2]
		c, ok := named[name]
		if !ok {
			c = &Credential{Name: name}
			named[name] = c
			order = append(order, name)
		}
		if err := setField(c, field, value); err != nil {
			return nil, fmt.Errorf("credentials line %d: %w", lineNo, err)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}

	out := make([]Credential, 0, len(order))
	for _, name := range order {
		out = append(out, *named[name])
	}
	return out, nil
}

func setField(c *Credential, field, value string) error {
	switch field {
	case "host":
		c.HostPattern = value
	case "username":
		c.Username = value
	case "password":
		c.Password = value
	case "realm":
		c.Realm = value
	case "https-only":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("https-only: %w", err)
		}
		c.HTTPSOnly = b
	case "match-host":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("match-host: %w", err)
		}
		c.MatchHost = b
	case "auto":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("auto: %w", err)
		}
		c.Auto = b
	case "pass-on-redirect":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("pass-on-redirect: %w", err)
		}
		c.PassOnRedirect = b
	default:
		return fmt.Errorf("unrecognized field %q", field)
	}
	return nil
}
