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
	"fmt"
	"sort"
	"strings"

	"resolvecache/maven"
	"resolvecache/maven/version"
)

// NodeID identifies a node in a Graph: an index into Graph.Nodes. It is
// always scoped to the Graph that produced it.
type NodeID int

// Node is a single resolved module-key/version pair in the graph: at most
// one Node exists per module key.
type Node struct {
	version.ModuleKey
	Version    string
	Classifier string
	Type       string
	Errors     []NodeError
}

// Compare orders nodes by module key, then classifier/type, then version,
// then by their accumulated errors; used by Canon to produce a
// deterministic node ordering independent of arrival order.
func (n Node) Compare(o Node) int {
	if c := strings.Compare(n.Group, o.Group); c != 0 {
		return c
	}
	if c := strings.Compare(n.Artifact, o.Artifact); c != 0 {
		return c
	}
	if c := strings.Compare(n.Classifier, o.Classifier); c != 0 {
		return c
	}
	if c := strings.Compare(n.Type, o.Type); c != 0 {
		return c
	}
	if c := compareVersions(n.Version, o.Version); c != 0 {
		return c
	}
	if li, lj := len(n.Errors), len(o.Errors); li != lj {
		if li < lj {
			return -1
		}
		return 1
	}
	for i := range n.Errors {
		if c := n.Errors[i].Compare(o.Errors[i]); c != 0 {
			return c
		}
	}
	return 0
}

// NodeError records a resolution failure encountered while expanding one
// of a node's requirements (e.g. an exclusive version conflict, or a
// dependency that matched no available version).
type NodeError struct {
	Requirement string
	Err         string
}

func (e NodeError) Compare(o NodeError) int {
	if c := strings.Compare(e.Requirement, o.Requirement); c != 0 {
		return c
	}
	return strings.Compare(e.Err, o.Err)
}

// Edge represents one resolved dependency: From imports To, under the
// declared Requirement string and effective Scope.
type Edge struct {
	From        NodeID
	To          NodeID
	Requirement string
	Scope       maven.Scope
	// Optional marks whether the declaring dependency carried the
	// <optional>true</optional> flag; the Orchestrator's classpath
	// ordering carries optional dependencies but need not fetch them.
	Optional bool
}

// Graph holds the result of a dependency resolution: the requested
// roots occupy the head of Nodes, in request order.
type Graph struct {
	Nodes []Node
	Edges []Edge

	// RootCount is the number of requested top-level modules at the
	// head of Nodes. Canon keeps them pinned there, in request order;
	// zero is read as one for graphs built before the count is set.
	RootCount int

	// Error is a graph-wide message set when the resolver could not fully
	// close the graph (e.g. MaxIterations), distinct from a per-node
	// NodeError.
	Error string
}

func (g *Graph) rootCount() int {
	if g.RootCount > 0 {
		return g.RootCount
	}
	if len(g.Nodes) > 0 {
		return 1
	}
	return 0
}

// AddNode inserts an unconnected node, returning the ID required to add
// edges to or from it.
func (g *Graph) AddNode(n Node) NodeID {
	g.Nodes = append(g.Nodes, n)
	return NodeID(len(g.Nodes) - 1)
}

// AddEdge inserts an edge between two nodes already in the graph.
func (g *Graph) AddEdge(from, to NodeID, req string, scope maven.Scope, optional bool) error {
	if !g.contains(from) {
		return fmt.Errorf("resolve: node not in graph: %v", from)
	}
	if !g.contains(to) {
		return fmt.Errorf("resolve: node not in graph: %v", to)
	}
	g.Edges = append(g.Edges, Edge{From: from, To: to, Requirement: req, Scope: scope, Optional: optional})
	return nil
}

// AddError associates a resolution error with a node and the requirement
// string that produced it.
func (g *Graph) AddError(n NodeID, req, msg string) error {
	if !g.contains(n) {
		return fmt.Errorf("resolve: node not in graph: %v", n)
	}
	g.Nodes[n].Errors = append(g.Nodes[n].Errors, NodeError{Requirement: req, Err: msg})
	return nil
}

func (g *Graph) contains(n NodeID) bool {
	return n >= 0 && int(n) < len(g.Nodes)
}

// Canon canonicalizes the graph in place so that two graphs produced from
// the same logical input, regardless of the arrival order of concurrent
// descriptor fetches, compare equal: reconciliation does not depend on
// I/O completion order, and Canon makes the node numbering
// deterministic too.
func (g *Graph) Canon() error {
	for i := range g.Nodes {
		errs := g.Nodes[i].Errors
		sort.Slice(errs, func(a, b int) bool { return errs[a].Compare(errs[b]) < 0 })
	}

	on := newOrderedNodes(g.Nodes, g.rootCount())
	sort.Sort(on)
	for i := 0; i < on.rootCount; i++ {
		if on.ids[i] != i {
			panic("resolve: requested root moved during sort canonicalization")
		}
	}
	g.renumber(on.mapping(), false)

	if on.dupe {
		m, err := g.canonBFS()
		if err != nil {
			return err
		}
		g.renumber(m, true)
	}
	return nil
}

func (g *Graph) renumber(oldToNew []int, includeNodes bool) {
	if includeNodes {
		nn := make([]Node, len(g.Nodes))
		for i, j := range oldToNew {
			nn[j] = g.Nodes[i]
		}
		g.Nodes = nn
	}
	for i, e := range g.Edges {
		e.From = NodeID(oldToNew[e.From])
		e.To = NodeID(oldToNew[e.To])
		g.Edges[i] = e
	}
	sort.Slice(g.Edges, func(i, j int) bool {
		ei, ej := g.Edges[i], g.Edges[j]
		if ei.From != ej.From {
			return ei.From < ej.From
		}
		if ei.To != ej.To {
			return ei.To < ej.To
		}
		if ei.Requirement != ej.Requirement {
			return ei.Requirement < ej.Requirement
		}
		return ei.Scope < ej.Scope
	})
}

func (g *Graph) canonBFS() ([]int, error) {
	edges := make([][]int, len(g.Nodes))
	for _, e := range g.Edges {
		edges[int(e.From)] = append(edges[int(e.From)], int(e.To))
	}

	oldToNew := make([]int, len(g.Nodes))
	for i := range oldToNew {
		oldToNew[i] = -1
	}
	nextLabel := 0
	queue := make([]int, 0, g.rootCount())
	for i := 0; i < g.rootCount(); i++ {
		queue = append(queue, i)
	}

	var scratch orderedNodes
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		if oldToNew[n] > -1 {
			continue
		}
		oldToNew[n] = nextLabel
		nextLabel++

		scratch.nodes, scratch.ids = scratch.nodes[:0], scratch.ids[:0]
		for _, to := range edges[n] {
			if oldToNew[to] == -1 {
				scratch.nodes = append(scratch.nodes, g.Nodes[to])
				scratch.ids = append(scratch.ids, to)
			}
		}
		if len(scratch.nodes) > 1 {
			sort.Sort(&scratch)
			if scratch.dupe {
				return nil, fmt.Errorf("resolve: node %v has duplicate direct dependency", g.Nodes[n].ModuleKey)
			}
		}
		queue = append(queue, scratch.ids...)
	}
	if rem := len(g.Nodes) - nextLabel; rem > 0 {
		return nil, fmt.Errorf("resolve: %d nodes unreachable from any root", rem)
	}
	return oldToNew, nil
}

// orderedNodes is a sort.Interface over a slice of Nodes that keeps the
// requested roots (original ids below rootCount) pinned at the front in
// request order, and tracks whether a duplicate was observed.
type orderedNodes struct {
	rootCount int
	nodes     []Node
	ids       []int
	dupe      bool
}

func newOrderedNodes(nodes []Node, rootCount int) *orderedNodes {
	ids := make([]int, len(nodes))
	for i := range ids {
		ids[i] = i
	}
	return &orderedNodes{rootCount: rootCount, nodes: nodes, ids: ids}
}

func (n *orderedNodes) mapping() []int {
	m := make([]int, len(n.ids))
	for i, j := range n.ids {
		m[j] = i
	}
	return m
}

func (n *orderedNodes) Len() int { return len(n.ids) }
func (n *orderedNodes) Swap(i, j int) {
	n.nodes[i], n.nodes[j] = n.nodes[j], n.nodes[i]
	n.ids[i], n.ids[j] = n.ids[j], n.ids[i]
}
func (n *orderedNodes) Less(i, j int) bool {
	c := n.nodes[i].Compare(n.nodes[j])
	if c == 0 {
		n.dupe = true
	}
	ri, rj := n.ids[i] < n.rootCount, n.ids[j] < n.rootCount
	if ri || rj {
		if ri && rj {
			return n.ids[i] < n.ids[j]
		}
		return ri
	}
	return c < 0
}

// String renders a plain-text tree view of the graph, one tree per
// requested root, the library-level resolution report.
func (g *Graph) String() string {
	var b strings.Builder
	if g.Error != "" {
		fmt.Fprintf(&b, "ERROR: %s\n", g.Error)
	}
	if len(g.Nodes) == 0 {
		return b.String()
	}

	children := make([][]Edge, len(g.Nodes))
	for _, e := range g.Edges {
		children[e.From] = append(children[e.From], e)
	}
	for _, cs := range children {
		sort.Slice(cs, func(i, j int) bool { return cs[i].To < cs[j].To })
	}

	var walk func(id NodeID, prefix1, prefix2 string, visited map[NodeID]bool)
	walk = func(id NodeID, prefix1, prefix2 string, visited map[NodeID]bool) {
		n := g.Nodes[id]
		fmt.Fprintf(&b, "%s%s:%s:%s", prefix1, n.Group, n.Artifact, n.Version)
		if n.Classifier != "" {
			fmt.Fprintf(&b, ":%s", n.Classifier)
		}
		b.WriteByte('\n')
		for _, ne := range n.Errors {
			fmt.Fprintf(&b, "%sERROR: %s (%s)\n", prefix2, ne.Err, ne.Requirement)
		}
		if visited[id] {
			return
		}
		visited[id] = true
		cs := children[id]
		for i, e := range cs {
			p1, p2 := prefix2+"├─ ", prefix2+"│  "
			if i == len(cs)-1 {
				p1, p2 = prefix2+"└─ ", prefix2+"   "
			}
			fmt.Fprintf(&b, "%s[%s] ", p1, e.Scope)
			p1 = ""
			walk(e.To, p1, p2, visited)
		}
	}
	visited := map[NodeID]bool{}
	for i := 0; i < g.rootCount(); i++ {
		walk(NodeID(i), "", "", visited)
	}
	return b.String()
}

func compareVersions(a, b string) int {
	if a == b {
		return 0
	}
	va, erra := version.Parse(a)
	vb, errb := version.Parse(b)
	if erra != nil || errb != nil {
		return strings.Compare(a, b)
	}
	return va.Compare(vb)
}
