package graph

import (
	"fmt"
	"sort"
	"sync"

	"github.com/skillhub-dev/skillhub/internal/skill"
)

// NodeKind discriminates the node variants.
type NodeKind string

const (
	NodeSkill    NodeKind = "skill"
	NodeTag      NodeKind = "tag"
	NodeCategory NodeKind = "category"
)

// EdgeKind discriminates the edge variants. SharesTag is a derived
// projection over HasTag and is never stored.
type EdgeKind string

const (
	EdgeHasTag     EdgeKind = "has_tag"
	EdgeInCategory EdgeKind = "in_category"
	EdgeDependsOn  EdgeKind = "depends_on"
)

// Node is a typed graph vertex. Skill nodes carry name and repo id;
// tag and category nodes carry only their token (the ID).
type Node struct {
	Kind   NodeKind `json:"kind"`
	ID     string   `json:"id"`
	Name   string   `json:"name,omitempty"`
	RepoID string   `json:"repo_id,omitempty"`

	// Placeholder marks a skill node created to satisfy a dependency
	// edge before the target itself was indexed.
	Placeholder bool `json:"placeholder,omitempty"`
}

// Edge is a typed directed link between two nodes.
type Edge struct {
	Kind EdgeKind `json:"kind"`
	From string   `json:"from"`
	To   string   `json:"to"`
}

// key returns the node's unique key, namespaced by kind so a tag named
// "testing" never collides with the category "testing".
func key(kind NodeKind, id string) string {
	return string(kind) + ":" + id
}

// Graph is the in-memory typed graph over skills, tags, and categories.
// Reads may run concurrently; writes are serialized by the internal lock.
type Graph struct {
	mu    sync.RWMutex
	nodes map[string]Node
	out   map[string][]Edge
	in    map[string][]Edge
}

// New creates an empty graph.
func New() *Graph {
	g := &Graph{}
	g.reset()
	return g
}

func (g *Graph) reset() {
	g.nodes = make(map[string]Node)
	g.out = make(map[string][]Edge)
	g.in = make(map[string][]Edge)
}

// AddSkill upserts the skill node and its tag, category, and dependency
// edges. Dependency targets that are not yet known get placeholder nodes.
// Self-dependencies are rejected.
func (g *Graph) AddSkill(s *skill.Skill) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	skillKey := key(NodeSkill, s.ID)

	// Re-adding a skill replaces its outgoing edges wholesale, so a
	// re-parse never leaves stale links behind.
	g.dropOutgoingLocked(skillKey)

	g.nodes[skillKey] = Node{Kind: NodeSkill, ID: s.ID, Name: s.Name, RepoID: s.RepoID}

	for _, tag := range s.Tags {
		tagKey := key(NodeTag, tag)
		if _, ok := g.nodes[tagKey]; !ok {
			g.nodes[tagKey] = Node{Kind: NodeTag, ID: tag}
		}
		g.addEdgeLocked(Edge{Kind: EdgeHasTag, From: skillKey, To: tagKey})
	}

	catKey := key(NodeCategory, string(s.Category))
	if _, ok := g.nodes[catKey]; !ok {
		g.nodes[catKey] = Node{Kind: NodeCategory, ID: string(s.Category)}
	}
	g.addEdgeLocked(Edge{Kind: EdgeInCategory, From: skillKey, To: catKey})

	for _, dep := range s.Dependencies {
		if dep == s.ID {
			return fmt.Errorf("skill %s declares a dependency on itself", s.ID)
		}
		depKey := key(NodeSkill, dep)
		if _, ok := g.nodes[depKey]; !ok {
			g.nodes[depKey] = Node{Kind: NodeSkill, ID: dep, Placeholder: true}
		}
		g.addEdgeLocked(Edge{Kind: EdgeDependsOn, From: skillKey, To: depKey})
	}

	return nil
}

// RemoveSkill deletes the skill node and every edge touching it. Tag and
// category nodes left without edges are pruned.
func (g *Graph) RemoveSkill(id string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	skillKey := key(NodeSkill, id)
	g.dropOutgoingLocked(skillKey)

	for _, e := range g.in[skillKey] {
		g.out[e.From] = removeEdge(g.out[e.From], e)
	}
	delete(g.in, skillKey)
	delete(g.nodes, skillKey)
}

// Clear empties the graph.
func (g *Graph) Clear() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.reset()
}

// NodeCount returns the number of nodes.
func (g *Graph) NodeCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.nodes)
}

// EdgeCount returns the number of stored edges.
func (g *Graph) EdgeCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	n := 0
	for _, edges := range g.out {
		n += len(edges)
	}
	return n
}

// HasSkill reports whether a non-placeholder skill node exists.
func (g *Graph) HasSkill(id string) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	n, ok := g.nodes[key(NodeSkill, id)]
	return ok && !n.Placeholder
}

// SkillNode returns the node for a skill id.
func (g *Graph) SkillNode(id string) (Node, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	n, ok := g.nodes[key(NodeSkill, id)]
	return n, ok
}

// addEdgeLocked appends the edge to both adjacency maps, skipping exact
// duplicates.
func (g *Graph) addEdgeLocked(e Edge) {
	for _, existing := range g.out[e.From] {
		if existing == e {
			return
		}
	}
	g.out[e.From] = append(g.out[e.From], e)
	g.in[e.To] = append(g.in[e.To], e)
}

// dropOutgoingLocked removes every outgoing edge of the given node and
// prunes tag/category nodes that end up orphaned.
func (g *Graph) dropOutgoingLocked(from string) {
	for _, e := range g.out[from] {
		g.in[e.To] = removeEdge(g.in[e.To], e)
		if len(g.in[e.To]) == 0 && len(g.out[e.To]) == 0 {
			if n, ok := g.nodes[e.To]; ok && n.Kind != NodeSkill {
				delete(g.nodes, e.To)
			}
		}
	}
	delete(g.out, from)
}

func removeEdge(edges []Edge, e Edge) []Edge {
	out := edges[:0]
	for _, existing := range edges {
		if existing != e {
			out = append(out, existing)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// sortedNodes returns all nodes in canonical order.
func (g *Graph) sortedNodes() []Node {
	nodes := make([]Node, 0, len(g.nodes))
	for _, n := range g.nodes {
		nodes = append(nodes, n)
	}
	sort.Slice(nodes, func(i, j int) bool {
		if nodes[i].Kind != nodes[j].Kind {
			return nodes[i].Kind < nodes[j].Kind
		}
		return nodes[i].ID < nodes[j].ID
	})
	return nodes
}

// sortedEdges returns all stored edges in canonical order.
func (g *Graph) sortedEdges() []Edge {
	var edges []Edge
	for _, es := range g.out {
		edges = append(edges, es...)
	}
	sort.Slice(edges, func(i, j int) bool {
		if edges[i].From != edges[j].From {
			return edges[i].From < edges[j].From
		}
		if edges[i].Kind != edges[j].Kind {
			return edges[i].Kind < edges[j].Kind
		}
		return edges[i].To < edges[j].To
	})
	return edges
}
