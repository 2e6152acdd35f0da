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

// Package config holds the plain-struct configuration surface shared by
// the cache fetcher and resolver: cache root, TTL, policy list, retry
// counts, concurrency, and credentials. It is deliberately not a
// config-file loader; FromEnv reads only the handful of COURSIER_*
// environment variables listed below, and everything else arrives as
// explicit struct fields from the embedding program.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"resolvecache/cache"
	"resolvecache/credential"
)

// Config is the full set of caller-supplied knobs threaded into the
// Cache fetcher and Resolver constructors.
type Config struct {
	CacheRoot       string
	TTL             time.Duration
	Policies        []cache.Policy
	Concurrency     int
	RetryCount      int
	SSLRetryCount   int
	ConnectTimeout  time.Duration
	ReadTimeout     time.Duration
	// RequestTimeout is the wall-clock budget for a single fetch
	// including retries; zero leaves it unbounded.
	RequestTimeout  time.Duration
	MaxRedirections int
	Credentials     []credential.Credential
	Strict          bool
}

// Default returns the standard defaults: a 6-worker pool, 24h TTL,
// 1 retry (3 for TLS handshakes), 20 max redirects, 10s connect / 60s
// read timeouts, and the "default" cache policy (LocalUpdateChanging).
func Default() Config {
	return Config{
		TTL:             24 * time.Hour,
		Policies:        []cache.Policy{cache.LocalUpdateChanging},
		Concurrency:     6,
		RetryCount:      1,
		SSLRetryCount:   3,
		ConnectTimeout:  10 * time.Second,
		ReadTimeout:     60 * time.Second,
		MaxRedirections: 20,
	}
}

// Environment variable names recognized by FromEnv.
const (
	envCacheRoot   = "COURSIER_CACHE"
	envTTL         = "COURSIER_TTL"
	envMode        = "COURSIER_MODE"
	envCredentials = "COURSIER_CREDENTIALS"
)

// FromEnv starts from Default and overlays any of the recognized
// environment variables that are set. Process-property equivalents are the
// functional options a caller applies afterwards, which is why they are
// described as "shadowing with lower precedence": FromEnv must run
// first, its result then overridden by explicit options.
func FromEnv() (Config, error) {
	c := Default()
	if v := os.Getenv(envCacheRoot); v != "" {
		c.CacheRoot = v
	}
	if v := os.Getenv(envTTL); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return c, fmt.Errorf("%s=%q: %w", envTTL, v, err)
		}
		c.TTL = d
	}
	if v := os.Getenv(envMode); v != "" {
		policies, err := ParsePolicies(v)
		if err != nil {
			return c, fmt.Errorf("%s=%q: %w", envMode, v, err)
		}
		c.Policies = policies
	}
	if v := os.Getenv(envCredentials); v != "" {
		creds, err := credentialsFromEnvValue(v)
		if err != nil {
			return c, fmt.Errorf("%s: %w", envCredentials, err)
		}
		c.Credentials = creds
	}
	return c, nil
}

// credentialsFromEnvValue accepts either a path to a credentials file or
// an inline newline-escaped ("\n") representation of the same format.
func credentialsFromEnvValue(v string) ([]credential.Credential, error) {
	if data, err := os.ReadFile(v); err == nil {
		return credential.Parse(strings.NewReader(string(data)))
	}
	return credential.Parse(strings.NewReader(strings.ReplaceAll(v, `\n`, "\n")))
}

// policyTokens maps the user-facing cache-policy tokens to cache.Policy values.
// "offline" is LocalOnly under another name; "default" is
// LocalUpdateChanging, Maven/Coursier's normal mode.
var policyTokens = map[string]cache.Policy{
	"default":         cache.LocalUpdateChanging,
	"update":          cache.Update,
	"update-changing": cache.LocalUpdateChanging,
	"force":           cache.Update,
	"missing":         cache.FetchMissing,
	"offline":         cache.LocalOnly,
}

// ParsePolicies parses a comma- and/or space-separated list of cache
// policy tokens into an ordered policy list: the cache fetcher evaluates
// them in this order and takes the first that yields a result.
func ParsePolicies(s string) ([]cache.Policy, error) {
	fields := strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == ' ' || r == '\t' })
	if len(fields) == 0 {
		return nil, fmt.Errorf("empty policy list")
	}
	out := make([]cache.Policy, 0, len(fields))
	for _, f := range fields {
		p, ok := policyTokens[strings.ToLower(strings.TrimSpace(f))]
		if !ok {
			return nil, fmt.Errorf("unrecognized cache policy token %q", f)
		}
		out = append(out, p)
	}
	return out, nil
}

// ParseBoolDefault parses s as a bool, returning def if s is empty.
// Used by the (excluded) CLI layer's flag wiring; kept here since it is
// the one fiddly bit of env/flag interop the config surface owns.
func ParseBoolDefault(s string, def bool) (bool, error) {
	if s == "" {
		return def, nil
	}
	return strconv.ParseBool(s)
}
