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

// Package orchestrate ties the pipeline together: it drives the
// Resolver by implementing resolve.Client over a repository.Set and a
// cache.Fetcher, then schedules the resolved graph's artifact fetches
// in parallel and renders the final report.
package orchestrate

import (
	"context"
	"errors"
	"fmt"
	"os"

	"resolvecache/cache"
	"resolvecache/maven"
	"resolvecache/maven/version"
	"resolvecache/repository"
	"resolvecache/resolveerr"
)

// Client implements resolve.Client over an ordered repository.Set,
// consulting each repository in priority order until one produces a
// usable descriptor or version listing.
type Client struct {
	repos   *repository.Set
	fetcher *cache.Fetcher
}

// NewClient builds the resolve.Client the Orchestrator hands to a
// resolve.Resolver.
func NewClient(repos *repository.Set, fetcher *cache.Fetcher) *Client {
	return &Client{repos: repos, fetcher: fetcher}
}

func (c *Client) Project(ctx context.Context, mk version.ModuleKey, ver string) (*maven.Project, error) {
	var lastErr error
	for _, repo := range c.repos.Repositories() {
		url := repo.DescriptorURL(mk, ver)
		path, _, err := c.fetcher.Fetch(ctx, cache.Request{URL: url, Changing: repo.Changing})
		if err != nil {
			lastErr = err
			continue
		}
		data, err := os.ReadFile(path)
		if err != nil {
			lastErr = err
			continue
		}
		proj, err := repository.Parse(data, repo.Dialect)
		if err != nil {
			return nil, parseErrorWithSource(url, err)
		}
		return proj, nil
	}
	if lastErr == nil {
		lastErr = resolveerr.ErrNotFound
	}
	return nil, fmt.Errorf("orchestrate: descriptor %s:%s: %w", mk, ver, lastErr)
}

func (c *Client) Metadata(ctx context.Context, mk version.ModuleKey) (*maven.Metadata, error) {
	var lastErr error
	for _, repo := range c.repos.Repositories() {
		url := repo.VersionListingURL(mk)
		path, _, err := c.fetcher.Fetch(ctx, cache.Request{URL: url, Changing: true})
		if err != nil {
			lastErr = err
			continue
		}
		data, err := os.ReadFile(path)
		if err != nil {
			lastErr = err
			continue
		}
		md, err := repository.ParseMetadata(data, repo.Dialect)
		if err != nil {
			return nil, parseErrorWithSource(url, err)
		}
		return md, nil
	}
	if lastErr == nil {
		lastErr = resolveerr.ErrNotFound
	}
	return nil, fmt.Errorf("orchestrate: metadata %s: %w", mk, lastErr)
}

// parseErrorWithSource stamps the fetched URL onto a parser error. The
// dialect parsers already report the byte offset they failed at; the
// offset is preserved and only the source context is added here.
func parseErrorWithSource(url string, err error) error {
	var perr *resolveerr.ParseError
	if errors.As(err, &perr) {
		perr.Source = url
		return perr
	}
	return &resolveerr.ParseError{Source: url, Err: err}
}
