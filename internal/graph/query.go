package graph

import (
	"sort"
	"strings"
)

// Neighbor is a skill reached during neighborhood expansion, with its
// shortest-path distance from the origin.
type Neighbor struct {
	SkillID  string
	Distance int
}

// Neighbors expands breadth-first from the given skill over HasTag,
// InCategory, and DependsOn edges (in both directions) up to depth hops,
// returning the skill ids encountered with their shortest-path distance.
// The origin itself is not included.
func (g *Graph) Neighbors(id string, depth int) []Neighbor {
	g.mu.RLock()
	defer g.mu.RUnlock()

	origin := key(NodeSkill, id)
	if _, ok := g.nodes[origin]; !ok {
		return nil
	}

	visited := map[string]int{origin: 0}
	frontier := []string{origin}

	for hop := 1; hop <= depth && len(frontier) > 0; hop++ {
		var next []string
		for _, cur := range frontier {
			for _, adj := range g.adjacentLocked(cur) {
				if _, seen := visited[adj]; seen {
					continue
				}
				visited[adj] = hop
				next = append(next, adj)
			}
		}
		frontier = next
	}

	var out []Neighbor
	for nodeKey, dist := range visited {
		if nodeKey == origin {
			continue
		}
		n := g.nodes[nodeKey]
		if n.Kind != NodeSkill || n.Placeholder {
			continue
		}
		out = append(out, Neighbor{SkillID: n.ID, Distance: dist})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Distance != out[j].Distance {
			return out[i].Distance < out[j].Distance
		}
		return out[i].SkillID < out[j].SkillID
	})
	return out
}

// adjacentLocked returns every node one edge away from the given node,
// following edges in both directions.
func (g *Graph) adjacentLocked(nodeKey string) []string {
	var adj []string
	for _, e := range g.out[nodeKey] {
		adj = append(adj, e.To)
	}
	for _, e := range g.in[nodeKey] {
		adj = append(adj, e.From)
	}
	return adj
}

// TagOverlap reports how many tags another skill shares with the origin.
type TagOverlap struct {
	SkillID string
	Shared  int
}

// RelatedByTags computes the derived SharesTag projection for one skill:
// every other skill sharing at least minShared tags, ordered by shared
// count descending, ties broken by skill id ascending.
func (g *Graph) RelatedByTags(id string, minShared int) []TagOverlap {
	g.mu.RLock()
	defer g.mu.RUnlock()

	if minShared < 1 {
		minShared = 1
	}

	origin := key(NodeSkill, id)
	shared := make(map[string]int)

	for _, e := range g.out[origin] {
		if e.Kind != EdgeHasTag {
			continue
		}
		for _, back := range g.in[e.To] {
			if back.Kind != EdgeHasTag || back.From == origin {
				continue
			}
			shared[back.From]++
		}
	}

	var out []TagOverlap
	for nodeKey, count := range shared {
		if count < minShared {
			continue
		}
		out = append(out, TagOverlap{SkillID: g.nodes[nodeKey].ID, Shared: count})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Shared != out[j].Shared {
			return out[i].Shared > out[j].Shared
		}
		return out[i].SkillID < out[j].SkillID
	})
	return out
}

// DependenciesOf returns the declared dependencies of a skill. With
// transitive set, the full reachable closure is returned in breadth-first
// order; cycles are tolerated.
func (g *Graph) DependenciesOf(id string, transitive bool) []string {
	g.mu.RLock()
	defer g.mu.RUnlock()

	origin := key(NodeSkill, id)
	visited := map[string]bool{origin: true}
	frontier := []string{origin}
	var out []string

	for len(frontier) > 0 {
		var next []string
		for _, cur := range frontier {
			var deps []string
			for _, e := range g.out[cur] {
				if e.Kind == EdgeDependsOn && !visited[e.To] {
					visited[e.To] = true
					deps = append(deps, e.To)
				}
			}
			sort.Strings(deps)
			for _, dep := range deps {
				out = append(out, g.nodes[dep].ID)
				next = append(next, dep)
			}
		}
		if !transitive {
			break
		}
		frontier = next
	}

	return out
}

// SkillsWithTag returns the ids of skills carrying the given tag.
func (g *Graph) SkillsWithTag(tag string) []string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.skillsPointingAtLocked(key(NodeTag, strings.ToLower(tag)), EdgeHasTag)
}

// SkillsInCategory returns the ids of skills in the given category.
func (g *Graph) SkillsInCategory(category string) []string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.skillsPointingAtLocked(key(NodeCategory, strings.ToLower(category)), EdgeInCategory)
}

func (g *Graph) skillsPointingAtLocked(nodeKey string, kind EdgeKind) []string {
	var out []string
	for _, e := range g.in[nodeKey] {
		if e.Kind != kind {
			continue
		}
		if n := g.nodes[e.From]; n.Kind == NodeSkill && !n.Placeholder {
			out = append(out, n.ID)
		}
	}
	sort.Strings(out)
	return out
}
