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

package resolve

import (
	"context"

	"resolvecache/maven"
	"resolvecache/maven/version"
)

// Client is how the Resolver obtains descriptors and version listings.
// The Resolver never performs I/O itself, it only asks its Client,
// which the orchestrate package implements over a repository set and
// cache fetcher.
type Client interface {
	// Project fetches and parses the project descriptor for one concrete
	// (module, version) pair. It must return the raw parsed descriptor,
	// before parent inheritance, profile activation, or interpolation —
	// the Resolver applies those steps itself so it can apply the same
	// treatment to parent and BOM lookups.
	Project(ctx context.Context, mk version.ModuleKey, ver string) (*maven.Project, error)
	// Metadata fetches the module's maven-metadata listing, used to
	// resolve "LATEST"/"RELEASE" tokens and hard version ranges.
	Metadata(ctx context.Context, mk version.ModuleKey) (*maven.Metadata, error)
}
