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

package cache

import (
	"net/url"
	"path/filepath"
	"strings"
)

const (
	sidecarChecksum  = ".sha1"
	sidecarLastCheck = ".lastCheck"
	sidecarLock      = ".lock"
	sidecarPart      = ".part"
)

// localPath maps a remote URL to its on-disk location under root:
// "<scheme>/<host>/<path>", UTF-8, the path
// component kept percent-encoded exactly as it arrived (no
// percent-decoding), and the query string appended as a deterministic
// "?q=<urlencoded>" suffix so two URLs differing only in query string
// don't collide.
func localPath(root, rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}
	segments := []string{root, u.Scheme, u.Host}
	p := strings.TrimPrefix(u.EscapedPath(), "/")
	if u.RawQuery != "" {
		p += "?q=" + url.QueryEscape(u.RawQuery)
	}
	segments = append(segments, filepath.FromSlash(p))
	return filepath.Join(segments...), nil
}

// sidecarPath returns the path of one of base's sidecar files.
func sidecarPath(base, suffix string) string { return base + suffix }

// partPath is the temporary file a download streams into before the
// atomic rename to its final path.
func partPath(base string) string { return sidecarPath(base, sidecarPart) }

func lockPath(base string) string { return sidecarPath(base, sidecarLock) }

func checksumSidecarPath(base, alg string) string {
	if alg == "" {
		alg = "sha1"
	}
	return base + "." + alg
}

func lastCheckPath(base string) string { return sidecarPath(base, sidecarLastCheck) }
