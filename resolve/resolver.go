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

// Package resolve implements the resolver core: a fixed-point
// iteration over the dependency graph with per-node version
// reconciliation, exclusion propagation, dependency-management
// overrides, profile activation, scope filtering, and parent/import
// inheritance of metadata.
package resolve

import (
	"context"
	"fmt"
	"strings"

	"resolvecache/maven"
	"resolvecache/maven/version"
	"resolvecache/resolveerr"
)

// Options configures a Resolver.
type Options struct {
	Client Client
	// Strict fails the whole resolution with VersionConflict on any
	// reconciliation conflict instead of applying nearest-wins.
	Strict bool
	// JDK and OS drive profile activation; zero values fall back to
	// maven.DefaultJDKActivation / maven.DefaultOSActivation.
	JDK string
	OS  maven.ActivationOS
	// MaxIterations guards the fixed-point loop; zero means the
	// default of 200.
	MaxIterations int
	// MaxParentDepth guards <parent> chain inheritance; zero means the
	// default of 20.
	MaxParentDepth int
	// Events receives the Resolver's progress/diagnostic callbacks; nil
	// defaults to NopEvents.
	Events Events
}

func (o *Options) setDefaults() {
	if o.JDK == "" {
		o.JDK = maven.DefaultJDKActivation
	}
	if o.OS == (maven.ActivationOS{}) {
		o.OS = maven.DefaultOSActivation
	}
	if o.MaxIterations == 0 {
		o.MaxIterations = 200
	}
	if o.MaxParentDepth == 0 {
		o.MaxParentDepth = 20
	}
	if o.Events == nil {
		o.Events = NopEvents{}
	}
}

// Resolver drives the expansion loop to its fixed point.
type Resolver struct {
	opts Options
}

// New constructs a Resolver. opts.Client must be non-nil.
func New(opts Options) *Resolver {
	opts.setDefaults()
	return &Resolver{opts: opts}
}

// pending is one module-key expansion waiting in the BFS queue.
type pending struct {
	id         NodeID
	mk         version.ModuleKey
	ver        string
	classifier string
	typ        string
	scope      maven.Scope
	exclusions []maven.Exclusion
	path       string
	depth      int
	root       bool
	// stopExpand marks subtrees that are never traversed: a packaging
	// of war/ear/rar embeds its dependencies in the archive, and an
	// optional dependency's subtree is only visible to its declarer.
	stopExpand bool
	// reexpand marks a re-enqueue caused by reconciliation changing the
	// module's chosen version; only these count against MaxIterations.
	reexpand bool
}

// Resolve expands the requested root coordinates (at the given root
// scope, typically maven.ScopeCompile) into one closed, reconciled
// Graph. All roots share a single reconciliation pass, so at most one
// version survives per module key across the whole set, not merely
// within each root's own subtree.
func (r *Resolver) Resolve(ctx context.Context, roots []version.Coordinate, rootScope maven.Scope) (*Graph, error) {
	if len(roots) == 0 {
		return nil, fmt.Errorf("resolve: no root coordinates")
	}

	type rootState struct {
		coord version.Coordinate
		ver   string
		proj  *maven.Project
	}
	states := make([]rootState, 0, len(roots))
	forced := make(map[version.ModuleKey]string)
	for _, root := range roots {
		if root.Constraint == nil {
			return nil, fmt.Errorf("resolve: root coordinate %s has no version", root)
		}
		ver, err := r.concreteVersion(ctx, root.ModuleKey, root.Constraint.String())
		if err != nil {
			return nil, fmt.Errorf("resolve: root %s version: %w", root.ModuleKey, err)
		}
		proj, err := r.loadProject(ctx, root.ModuleKey, ver)
		if err != nil {
			return nil, fmt.Errorf("resolve: root %s descriptor: %w", root.ModuleKey, err)
		}
		// The forced-versions map is the union of every root's
		// dependency management; the first root to pin a module wins.
		for _, dm := range proj.DependencyManagement.Dependencies {
			if dm.Version == "" {
				continue
			}
			mk := version.ModuleKey{Group: string(dm.GroupID), Artifact: string(dm.ArtifactID)}
			if _, ok := forced[mk]; !ok {
				forced[mk] = string(dm.Version)
			}
		}
		states = append(states, rootState{coord: root, ver: ver, proj: proj})
	}

	g := &Graph{}
	rc := newReconciler(r.opts.Strict, forced)
	nodeID := make(map[version.ModuleKey]NodeID, len(states))
	descriptors := make(map[version.ModuleKey]*maven.Project, len(states))
	todo := make([]pending, 0, len(states))
	for _, st := range states {
		mk := st.coord.ModuleKey
		if _, ok := nodeID[mk]; ok {
			return nil, fmt.Errorf("resolve: duplicate root module %s", mk)
		}
		id := g.AddNode(Node{ModuleKey: mk, Version: st.ver, Classifier: st.coord.Classifier, Type: st.coord.Type})
		if _, _, err := rc.reconcile(mk, claim{version: st.ver, depth: 0, path: mk.String(), root: true}); err != nil {
			return nil, err
		}
		nodeID[mk] = id
		descriptors[mk] = st.proj
		todo = append(todo, pending{
			id:    id,
			mk:    mk,
			ver:   st.ver,
			scope: rootScope,
			path:  mk.String(),
			root:  true,
		})
	}
	g.RootCount = len(states)

	reexpansions := 0
	for len(todo) > 0 {
		cur := todo[0]
		todo = todo[1:]
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("resolve: %w", resolveerr.ErrCancelled)
		}
		if cur.reexpand {
			// Each re-expansion strictly advances the chosen version
			// under the reconciliation order, so this terminates; the
			// guard defends against pathological inputs.
			if reexpansions >= r.opts.MaxIterations {
				g.Error = "max iterations exceeded"
				return g, fmt.Errorf("resolve: %w", resolveerr.ErrMaxIterations)
			}
			reexpansions++
		}
		if cur.stopExpand {
			continue
		}
		if !cur.root {
			// Reconciliation may have moved this module to another
			// version while this entry sat in the queue; expanding the
			// superseded version would pull in its dependencies.
			if c, ok := rc.chosen[cur.mk]; ok && c.version != cur.ver {
				continue
			}
		}

		proj, ok := descriptors[cur.mk]
		if !ok || proj.Version != maven.String(cur.ver) {
			p, err := r.loadProject(ctx, cur.mk, cur.ver)
			if err != nil {
				if cur.root {
					return nil, fmt.Errorf("resolve: root descriptor: %w", err)
				}
				g.AddError(cur.id, cur.ver, err.Error())
				continue
			}
			proj = p
			descriptors[cur.mk] = proj
		}

		r.opts.Events.NodeResolved(cur.mk, cur.ver, cur.depth)

		switch strings.ToLower(string(proj.Packaging)) {
		case "war", "ear", "rar":
			continue
		}

		for _, d := range proj.Dependencies {
			if err := r.expandDependency(ctx, g, rc, nodeID, descriptors, &todo, cur, d); err != nil {
				return nil, err
			}
		}
	}

	if err := g.Canon(); err != nil {
		return nil, fmt.Errorf("resolve: canon: %w", err)
	}
	return g, nil
}

func (r *Resolver) expandDependency(
	ctx context.Context,
	g *Graph,
	rc *reconciler,
	nodeID map[version.ModuleKey]NodeID,
	descriptors map[version.ModuleKey]*maven.Project,
	todo *[]pending,
	cur pending,
	d maven.Dependency,
) error {
	declaredScope := maven.Scope(strings.ToLower(string(d.Scope)))
	if declaredScope == "" {
		declaredScope = maven.ScopeCompile
	}

	optional := d.Optional.Boolean()
	if optional && !cur.root {
		// An optional dependency declared by a transitive node is not
		// pulled in for downstream consumers; only the project that
		// directly depends on it sees it.
		return nil
	}

	var eff maven.Scope
	if cur.root {
		// A root-declared dependency keeps its own scope verbatim; the
		// requested root scope only gates whether test-scope deps are
		// part of this resolution (building the test classpath asks for
		// ScopeTest, anything else does not want them).
		if declaredScope == maven.ScopeTest && cur.scope != maven.ScopeTest {
			return nil
		}
		eff = declaredScope
	} else {
		var ok bool
		eff, ok = effectiveScope(declaredScope, cur.scope)
		if !ok {
			return nil
		}
	}

	mk := version.ModuleKey{Group: string(d.GroupID), Artifact: string(d.ArtifactID)}
	if isExcluded(cur.exclusions, mk.Group, mk.Artifact) {
		return nil
	}

	childExclusions := unionExclusions(cur.exclusions, d.Exclusions)

	rawVersion := string(d.Version)
	if rawVersion == "" {
		g.AddError(cur.id, d.Name(), "no version available (not declared, not in dependency management)")
		return nil
	}
	ver, err := r.concreteVersion(ctx, mk, rawVersion)
	if err != nil {
		g.AddError(cur.id, d.Name()+":"+rawVersion, err.Error())
		r.opts.Events.DependencyError(mk, rawVersion, err)
		return nil
	}

	path := cur.path + ">" + mk.String()
	c := claim{version: ver, depth: cur.depth + 1, path: path, root: false}
	winner, changed, err := rc.reconcile(mk, c)
	if err != nil {
		if vce, ok := err.(*resolveerr.VersionConflictError); ok {
			r.opts.Events.VersionConflict(mk, vce.Versions)
		}
		// Strict-mode VersionConflictError: abort the whole resolution
		// rather than silently picking a winner.
		return err
	}

	depType := string(d.Type)
	if depType == "" {
		depType = "jar"
	}

	id, known := nodeID[mk]
	if !known {
		id = g.AddNode(Node{ModuleKey: mk, Version: winner, Classifier: string(d.Classifier), Type: depType})
		nodeID[mk] = id
	} else if changed {
		g.Nodes[id].Version = winner
	}

	if err := g.AddEdge(cur.id, id, rawVersion, eff, optional); err != nil {
		return err
	}

	if !changed && known {
		// Already expanded at this version; just record the extra edge.
		return nil
	}

	stop := cur.stopExpand || optional
	if typ := strings.ToLower(depType); typ == "war" || typ == "ear" || typ == "rar" {
		stop = true
	}

	*todo = append(*todo, pending{
		id:         id,
		mk:         mk,
		ver:        winner,
		classifier: string(d.Classifier),
		typ:        depType,
		scope:      eff,
		exclusions: childExclusions,
		path:       path,
		depth:      cur.depth + 1,
		root:       false,
		stopExpand: stop,
		reexpand:   changed && known,
	})
	return nil
}

// loadProject fetches a descriptor and prepares it for expansion:
// parent inheritance (depth-limited), profile activation,
// dependency-management merge (including BOM import splicing), and
// property interpolation.
func (r *Resolver) loadProject(ctx context.Context, mk version.ModuleKey, ver string) (*maven.Project, error) {
	proj, err := r.loadProjectForManagement(ctx, mk, ver)
	if err != nil {
		return nil, err
	}
	proj.ProcessDependencies(func(group, artifact, version_ maven.String) (maven.DependencyManagement, error) {
		bomProj, err := r.loadProjectForManagement(ctx, version.ModuleKey{Group: string(group), Artifact: string(artifact)}, string(version_))
		if err != nil {
			return maven.DependencyManagement{}, err
		}
		return bomProj.DependencyManagement, nil
	})
	return proj, nil
}

// loadProjectForManagement fetches, inherits, and interpolates a
// descriptor without splicing BOM imports — used both for a node's own
// descriptor and for fetching another project's dependencyManagement
// block when processing a BOM import.
func (r *Resolver) loadProjectForManagement(ctx context.Context, mk version.ModuleKey, ver string) (*maven.Project, error) {
	proj, err := r.opts.Client.Project(ctx, mk, ver)
	if err != nil {
		return nil, err
	}
	if err := r.inheritParents(ctx, proj, 0, map[string]bool{}); err != nil {
		return nil, err
	}
	if err := proj.MergeProfiles(r.opts.JDK, r.opts.OS); err != nil {
		return nil, err
	}
	if err := proj.Interpolate(); err != nil {
		return nil, err
	}
	return proj, nil
}

// inheritParents recursively folds parent descriptors into proj,
// failing ParentCycle past MaxParentDepth or on a repeated
// (group, artifact, version) in the chain.
func (r *Resolver) inheritParents(ctx context.Context, proj *maven.Project, depth int, visited map[string]bool) error {
	if proj.Parent.GroupID == "" && proj.Parent.ArtifactID == "" {
		return nil
	}
	if depth >= r.opts.MaxParentDepth {
		return fmt.Errorf("resolve: %w", resolveerr.ErrParentCycle)
	}
	key := fmt.Sprintf("%s:%s:%s", proj.Parent.GroupID, proj.Parent.ArtifactID, proj.Parent.Version)
	if visited[key] {
		return fmt.Errorf("resolve: %w", resolveerr.ErrParentCycle)
	}
	visited[key] = true

	pmk := version.ModuleKey{Group: string(proj.Parent.GroupID), Artifact: string(proj.Parent.ArtifactID)}
	parent, err := r.opts.Client.Project(ctx, pmk, string(proj.Parent.Version))
	if err != nil {
		return fmt.Errorf("resolve: parent %s: %w", key, err)
	}
	if err := r.inheritParents(ctx, parent, depth+1, visited); err != nil {
		return err
	}
	proj.MergeParent(*parent)
	return nil
}

// concreteVersion resolves a dependency's declared version string (an
// exact version, a soft recommendation, a hard range, or a "LATEST"/
// "RELEASE" token) to one concrete version.
func (r *Resolver) concreteVersion(ctx context.Context, mk version.ModuleKey, raw string) (string, error) {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "LATEST", "RELEASE":
		md, err := r.opts.Client.Metadata(ctx, mk)
		if err != nil {
			return "", fmt.Errorf("%s: %w", mk, resolveerr.ErrUnknownVersion)
		}
		v := md.Versioning.Latest
		if strings.ToUpper(raw) == "RELEASE" {
			v = md.Versioning.Release
		}
		if v == "" {
			return "", fmt.Errorf("%s: %w", mk, resolveerr.ErrUnknownVersion)
		}
		return string(v), nil
	}

	cons, err := version.ParseConstraint(raw)
	if err != nil {
		return "", fmt.Errorf("%s: %w", mk, err)
	}
	if cons.IsSoft() {
		return cons.Recommended().String(), nil
	}

	md, err := r.opts.Client.Metadata(ctx, mk)
	if err != nil {
		return "", fmt.Errorf("%s: range %s: %w", mk, raw, resolveerr.ErrUnknownVersion)
	}
	var candidates []*version.Version
	for _, vs := range md.Versioning.Versions {
		v, err := version.Parse(string(vs))
		if err != nil {
			continue
		}
		candidates = append(candidates, v)
	}
	matched := cons.Filter(candidates)
	if len(matched) == 0 {
		return "", fmt.Errorf("%s: no version satisfies %s: %w", mk, raw, resolveerr.ErrUnknownVersion)
	}
	best := matched[0]
	for _, v := range matched[1:] {
		if v.Compare(best) > 0 {
			best = v
		}
	}
	return best.String(), nil
}
