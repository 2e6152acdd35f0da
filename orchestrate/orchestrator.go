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

package orchestrate

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"resolvecache/cache"
	"resolvecache/maven"
	"resolvecache/maven/version"
	"resolvecache/repository"
	"resolvecache/resolve"
	"resolvecache/resolveerr"
)

// Options configures an Orchestrator.
type Options struct {
	Resolver *resolve.Resolver
	Fetcher  *cache.Fetcher
	Repos    *repository.Set
	// Concurrency bounds the number of artifact fetches scheduled at
	// once; zero defaults to 6, matching config.Default's worker pool.
	// The limit is the orchestrator's own: each fetch calls Fetcher.Fetch
	// directly, so it is separate from the Fetcher's FetchMany concurrency.
	Concurrency int
}

// Artifact is the outcome of materializing one resolved node's primary
// artifact.
type Artifact struct {
	Node    resolve.Node
	Path    string
	Trusted bool
	Err     error
}

// Outcome bundles a resolution with its scheduled artifact fetches and a
// rendered resolution report.
type Outcome struct {
	Graph     *resolve.Graph
	Artifacts []Artifact
	Report    string
}

// Orchestrator drives a resolve.Resolver with a resolve.Client backed by
// a repository.Set and cache.Fetcher, then schedules the graph's
// artifact fetches in parallel.
type Orchestrator struct {
	opts Options
}

// New constructs an Orchestrator.
func New(opts Options) *Orchestrator {
	if opts.Concurrency == 0 {
		opts.Concurrency = 6
	}
	return &Orchestrator{opts: opts}
}

// Resolve runs the full pipeline: resolve the dependency graph spanning
// the requested root coordinates under scope, then fetch every resolved
// node's primary artifact. A per-artifact failure is recorded in the
// returned Outcome rather than aborting the sibling fetches.
func (o *Orchestrator) Resolve(ctx context.Context, roots []version.Coordinate, scope maven.Scope) (*Outcome, error) {
	g, err := o.opts.Resolver.Resolve(ctx, roots, scope)
	if err != nil {
		return nil, fmt.Errorf("orchestrate: %w", err)
	}

	artifacts := o.fetchArtifacts(ctx, g)
	return &Outcome{Graph: g, Artifacts: artifacts, Report: g.String()}, nil
}

// fetchArtifacts schedules one fetch per graph node on a bounded
// errgroup, preserving the node order of g.Nodes for the returned slice so
// callers can build a deterministic classpath regardless of completion
// order. That order is the one resolve.Graph.Canon leaves: the requested
// roots first, then the other nodes by module key; it is not a
// dependency-topological order.
func (o *Orchestrator) fetchArtifacts(ctx context.Context, g *resolve.Graph) []Artifact {
	artifacts := make([]Artifact, len(g.Nodes))
	grp, gctx := errgroup.WithContext(ctx)
	grp.SetLimit(o.opts.Concurrency)

	for i, n := range g.Nodes {
		i, n := i, n
		if len(n.Errors) > 0 {
			artifacts[i] = Artifact{Node: n, Err: fmt.Errorf("orchestrate: %s: unresolved", n.ModuleKey)}
			continue
		}
		grp.Go(func() error {
			path, trusted, err := o.fetchOne(gctx, n)
			artifacts[i] = Artifact{Node: n, Path: path, Trusted: trusted, Err: err}
			// Never propagate the artifact error through the group: a single
			// artifact failure must not cancel its siblings.
			return nil
		})
	}
	_ = grp.Wait()
	return artifacts
}

// fetchOne tries o's repositories, in priority order, for one node's
// primary artifact.
func (o *Orchestrator) fetchOne(ctx context.Context, n resolve.Node) (string, bool, error) {
	var lastErr error
	for _, repo := range o.opts.Repos.Repositories() {
		url := repo.ArtifactURL(n.ModuleKey, n.Version, n.Classifier, n.Type)
		path, trusted, err := o.opts.Fetcher.Fetch(ctx, cache.Request{
			URL:            url,
			Changing:       repo.Changing,
			VerifyChecksum: true,
		})
		if err == nil {
			return path, trusted, nil
		}
		lastErr = err
	}
	if lastErr == nil {
		lastErr = resolveerr.ErrNotFound
	}
	return "", false, fmt.Errorf("orchestrate: artifact %s:%s: %w", n.ModuleKey, n.Version, lastErr)
}
