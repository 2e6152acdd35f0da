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

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"resolvecache/cache"
)

func TestParsePolicies(t *testing.T) {
	for _, test := range []struct {
		in      string
		want    []cache.Policy
		wantErr bool
	}{
		{in: "default", want: []cache.Policy{cache.LocalUpdateChanging}},
		{in: "offline", want: []cache.Policy{cache.LocalOnly}},
		{in: "force", want: []cache.Policy{cache.Update}},
		{in: "missing,update-changing", want: []cache.Policy{cache.FetchMissing, cache.LocalUpdateChanging}},
		{in: "offline missing", want: []cache.Policy{cache.LocalOnly, cache.FetchMissing}},
		{in: "Update, missing", want: []cache.Policy{cache.Update, cache.FetchMissing}},
		{in: "bogus", wantErr: true},
		{in: "", wantErr: true},
		{in: " ,", wantErr: true},
	} {
		t.Run(test.in, func(t *testing.T) {
			got, err := ParsePolicies(test.in)
			if test.wantErr {
				if err == nil {
					t.Fatalf("ParsePolicies(%q) succeeded, want error", test.in)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParsePolicies(%q): %v", test.in, err)
			}
			if diff := cmp.Diff(test.want, got); diff != "" {
				t.Errorf("policies (-want +got):\n%s", diff)
			}
		})
	}
}

func TestFromEnv(t *testing.T) {
	credFile := filepath.Join(t.TempDir(), "credentials.properties")
	if err := os.WriteFile(credFile, []byte(
		"host.central.host=repo.example.com\nhost.central.username=alice\nhost.central.password=s3cret\n",
	), 0o600); err != nil {
		t.Fatal(err)
	}

	t.Setenv("COURSIER_CACHE", "/tmp/alt-cache")
	t.Setenv("COURSIER_TTL", "48h")
	t.Setenv("COURSIER_MODE", "offline,missing")
	t.Setenv("COURSIER_CREDENTIALS", credFile)

	c, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv: %v", err)
	}
	if c.CacheRoot != "/tmp/alt-cache" {
		t.Errorf("CacheRoot = %q", c.CacheRoot)
	}
	if c.TTL != 48*time.Hour {
		t.Errorf("TTL = %v", c.TTL)
	}
	wantPolicies := []cache.Policy{cache.LocalOnly, cache.FetchMissing}
	if diff := cmp.Diff(wantPolicies, c.Policies); diff != "" {
		t.Errorf("policies (-want +got):\n%s", diff)
	}
	if len(c.Credentials) != 1 || c.Credentials[0].Username != "alice" {
		t.Errorf("credentials = %+v", c.Credentials)
	}
	// Untouched fields keep their Default() values.
	if c.Concurrency != 6 || c.RetryCount != 1 || c.SSLRetryCount != 3 {
		t.Errorf("defaults clobbered: %+v", c)
	}
}

func TestFromEnvInlineCredentials(t *testing.T) {
	t.Setenv("COURSIER_CREDENTIALS", `host.m.host=mirror.example.org\nhost.m.username=bob\nhost.m.password=pw`)
	c, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv: %v", err)
	}
	if len(c.Credentials) != 1 || c.Credentials[0].HostPattern != "mirror.example.org" {
		t.Errorf("inline credentials = %+v", c.Credentials)
	}
}

func TestFromEnvBadTTL(t *testing.T) {
	t.Setenv("COURSIER_TTL", "not-a-duration")
	if _, err := FromEnv(); err == nil {
		t.Fatal("FromEnv accepted a malformed TTL")
	}
}
