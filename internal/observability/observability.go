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

// Package observability is the orchestrator's own diagnostic output: a
// logrus-backed implementation of cache.FetchEvents and resolve.Events,
// the two callback-hook surfaces the core library reports through
// instead of logging directly. Neither cache nor resolve imports
// this package; it is wired in only by the binary that embeds them.
package observability

import (
	"github.com/sirupsen/logrus"

	"resolvecache/cache"
	"resolvecache/maven/version"
	"resolvecache/resolve"
)

var (
	_ cache.FetchEvents = FetchLogger{}
	_ resolve.Events    = ResolveLogger{}
)

// FetchLogger implements cache.FetchEvents over a logrus.FieldLogger.
type FetchLogger struct {
	Log logrus.FieldLogger
}

// NewFetchLogger wraps log, or logrus.StandardLogger() if log is nil.
func NewFetchLogger(log logrus.FieldLogger) FetchLogger {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return FetchLogger{Log: log}
}

func (f FetchLogger) Started(url string) {
	f.Log.WithField("url", url).Debug("fetch started")
}

func (f FetchLogger) Progress(url string, bytes int64) {
	f.Log.WithField("url", url).WithField("bytes", bytes).Trace("fetch progress")
}

func (f FetchLogger) Finished(url string, localPath string) {
	f.Log.WithField("url", url).WithField("path", localPath).Debug("fetch finished")
}

func (f FetchLogger) Failed(url string, err error) {
	f.Log.WithField("url", url).WithError(err).Warn("fetch failed")
}

// ResolveLogger implements resolve.Events over a logrus.FieldLogger.
type ResolveLogger struct {
	Log logrus.FieldLogger
}

// NewResolveLogger wraps log, or logrus.StandardLogger() if log is nil.
func NewResolveLogger(log logrus.FieldLogger) ResolveLogger {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return ResolveLogger{Log: log}
}

func (r ResolveLogger) NodeResolved(mk version.ModuleKey, ver string, depth int) {
	r.Log.WithField("module", mk.String()).WithField("version", ver).WithField("depth", depth).Debug("node resolved")
}

func (r ResolveLogger) VersionConflict(mk version.ModuleKey, versions []string) {
	r.Log.WithField("module", mk.String()).WithField("versions", versions).Warn("version conflict")
}

func (r ResolveLogger) DependencyError(mk version.ModuleKey, requirement string, err error) {
	r.Log.WithField("module", mk.String()).WithField("requirement", requirement).WithError(err).Warn("dependency error")
}
