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

// Policy governs whether and when Fetch contacts the network for a
// given URL. A caller supplies an ordered list; the first
// policy that yields a usable result wins.
type Policy int

const (
	// LocalOnly returns a usable local file if one exists, otherwise
	// fails with resolveerr.ErrNotInCache.
	LocalOnly Policy = iota
	// LocalUpdateChanging keeps an existing local file, except a
	// "changing" URL whose .lastCheck sidecar is older than the configured
	// TTL is revalidated against the origin. Unlike LocalOnly, a missing
	// file is downloaded rather than failing with ErrNotInCache.
	LocalUpdateChanging
	// LocalUpdate revalidates every URL regardless of the changing flag.
	LocalUpdate
	// Update unconditionally re-downloads, ignoring any local copy.
	Update
	// FetchMissing downloads only if no local file exists; an existing
	// file is kept without revalidation.
	FetchMissing
)

func (p Policy) String() string {
	switch p {
	case LocalOnly:
		return "local-only"
	case LocalUpdateChanging:
		return "local-update-changing"
	case LocalUpdate:
		return "local-update"
	case Update:
		return "update"
	case FetchMissing:
		return "fetch-missing"
	default:
		return "unknown"
	}
}
