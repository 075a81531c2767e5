package graph

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/skillhub-dev/skillhub/internal/skill"
)

func mkSkill(id, name string, tags, deps []string, category skill.Category) *skill.Skill {
	if category == "" {
		category = skill.CategoryGeneral
	}
	return &skill.Skill{
		ID:           id,
		Name:         name,
		Category:     category,
		Tags:         tags,
		Dependencies: deps,
		RepoID:       "repo-a",
	}
}

func TestGraph_AddSkillNodesAndEdges(t *testing.T) {
	g := New()

	s := mkSkill("repo-a/tdd", "tdd", []string{"testing", "red-green"}, []string{"repo-a/unit-basics"}, skill.CategoryTesting)
	if err := g.AddSkill(s); err != nil {
		t.Fatalf("AddSkill: %v", err)
	}

	// skill + 2 tags + category + placeholder dependency
	if got := g.NodeCount(); got != 5 {
		t.Errorf("NodeCount = %d, want 5", got)
	}
	// 2 has_tag + 1 in_category + 1 depends_on
	if got := g.EdgeCount(); got != 4 {
		t.Errorf("EdgeCount = %d, want 4", got)
	}

	if !g.HasSkill("repo-a/tdd") {
		t.Error("HasSkill(repo-a/tdd) = false")
	}
	if g.HasSkill("repo-a/unit-basics") {
		t.Error("placeholder dependency should not count as a real skill")
	}
}

func TestGraph_RejectsSelfDependency(t *testing.T) {
	g := New()
	s := mkSkill("repo-a/x", "x", nil, []string{"repo-a/x"}, "")
	if err := g.AddSkill(s); err == nil {
		t.Fatal("expected self-dependency to be rejected")
	}
}

func TestGraph_ReAddReplacesEdges(t *testing.T) {
	g := New()

	s := mkSkill("repo-a/x", "x", []string{"old-tag"}, nil, skill.CategoryTesting)
	if err := g.AddSkill(s); err != nil {
		t.Fatalf("AddSkill: %v", err)
	}

	s.Tags = []string{"new-tag"}
	if err := g.AddSkill(s); err != nil {
		t.Fatalf("re-AddSkill: %v", err)
	}

	if ids := g.SkillsWithTag("old-tag"); len(ids) != 0 {
		t.Errorf("stale tag edge survived re-add: %v", ids)
	}
	if ids := g.SkillsWithTag("new-tag"); len(ids) != 1 || ids[0] != "repo-a/x" {
		t.Errorf("SkillsWithTag(new-tag) = %v", ids)
	}
}

func TestGraph_RemoveSkillPrunesOrphans(t *testing.T) {
	g := New()

	a := mkSkill("repo-a/a", "a", []string{"shared", "only-a"}, nil, "")
	b := mkSkill("repo-a/b", "b", []string{"shared"}, nil, "")
	for _, s := range []*skill.Skill{a, b} {
		if err := g.AddSkill(s); err != nil {
			t.Fatalf("AddSkill: %v", err)
		}
	}

	g.RemoveSkill("repo-a/a")

	if g.HasSkill("repo-a/a") {
		t.Error("removed skill still present")
	}
	if ids := g.SkillsWithTag("only-a"); len(ids) != 0 {
		t.Errorf("orphaned tag still resolves: %v", ids)
	}
	if ids := g.SkillsWithTag("shared"); len(ids) != 1 || ids[0] != "repo-a/b" {
		t.Errorf("SkillsWithTag(shared) = %v", ids)
	}
}

func TestGraph_Neighbors(t *testing.T) {
	g := New()

	a := mkSkill("repo-a/a", "a", []string{"go"}, []string{"repo-a/b"}, skill.CategoryTesting)
	b := mkSkill("repo-a/b", "b", []string{"rust"}, nil, skill.CategoryDebugging)
	c := mkSkill("repo-a/c", "c", []string{"go"}, nil, skill.CategoryDevops)
	for _, s := range []*skill.Skill{a, b, c} {
		if err := g.AddSkill(s); err != nil {
			t.Fatalf("AddSkill: %v", err)
		}
	}

	// Depth 1: b via depends_on (direct skill edge). c is 2 hops away
	// (a -> tag:go -> c).
	n1 := g.Neighbors("repo-a/a", 1)
	if len(n1) != 1 || n1[0].SkillID != "repo-a/b" || n1[0].Distance != 1 {
		t.Errorf("Neighbors depth 1 = %+v, want only repo-a/b at distance 1", n1)
	}

	n2 := g.Neighbors("repo-a/a", 2)
	found := map[string]int{}
	for _, n := range n2 {
		found[n.SkillID] = n.Distance
	}
	if found["repo-a/b"] != 1 || found["repo-a/c"] != 2 {
		t.Errorf("Neighbors depth 2 = %+v", n2)
	}
}

func TestGraph_RelatedByTags(t *testing.T) {
	g := New()

	a := mkSkill("repo-a/a", "a", []string{"go", "testing", "ci"}, nil, "")
	b := mkSkill("repo-a/b", "b", []string{"go", "testing"}, nil, "")
	c := mkSkill("repo-a/c", "c", []string{"go"}, nil, "")
	d := mkSkill("repo-a/d", "d", []string{"rust"}, nil, "")
	for _, s := range []*skill.Skill{a, b, c, d} {
		if err := g.AddSkill(s); err != nil {
			t.Fatalf("AddSkill: %v", err)
		}
	}

	related := g.RelatedByTags("repo-a/a", 1)
	if len(related) != 2 {
		t.Fatalf("RelatedByTags = %+v, want 2 entries", related)
	}
	if related[0].SkillID != "repo-a/b" || related[0].Shared != 2 {
		t.Errorf("related[0] = %+v, want repo-a/b with 2 shared", related[0])
	}
	if related[1].SkillID != "repo-a/c" || related[1].Shared != 1 {
		t.Errorf("related[1] = %+v, want repo-a/c with 1 shared", related[1])
	}

	if strict := g.RelatedByTags("repo-a/a", 2); len(strict) != 1 {
		t.Errorf("min_shared=2: got %+v, want only repo-a/b", strict)
	}
}

func TestGraph_DependenciesOf(t *testing.T) {
	g := New()

	a := mkSkill("repo-a/a", "a", nil, []string{"repo-a/b"}, "")
	b := mkSkill("repo-a/b", "b", nil, []string{"repo-a/c"}, "")
	c := mkSkill("repo-a/c", "c", nil, nil, "")
	for _, s := range []*skill.Skill{a, b, c} {
		if err := g.AddSkill(s); err != nil {
			t.Fatalf("AddSkill: %v", err)
		}
	}

	direct := g.DependenciesOf("repo-a/a", false)
	if len(direct) != 1 || direct[0] != "repo-a/b" {
		t.Errorf("direct dependencies = %v", direct)
	}

	transitive := g.DependenciesOf("repo-a/a", true)
	if len(transitive) != 2 || transitive[0] != "repo-a/b" || transitive[1] != "repo-a/c" {
		t.Errorf("transitive dependencies = %v", transitive)
	}
}

func TestGraph_SaveLoadRoundTrip(t *testing.T) {
	g := New()

	a := mkSkill("repo-a/a", "a", []string{"go", "testing"}, []string{"repo-a/b"}, skill.CategoryTesting)
	b := mkSkill("repo-a/b", "b", []string{"go"}, nil, skill.CategoryDebugging)
	for _, s := range []*skill.Skill{a, b} {
		if err := g.AddSkill(s); err != nil {
			t.Fatalf("AddSkill: %v", err)
		}
	}

	path := filepath.Join(t.TempDir(), "graph.snapshot")
	if err := g.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}

	nodes, edges := g.NodeCount(), g.EdgeCount()

	g.Clear()
	if g.NodeCount() != 0 {
		t.Fatal("Clear did not empty the graph")
	}

	if err := g.Load(path); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if g.NodeCount() != nodes || g.EdgeCount() != edges {
		t.Errorf("round trip: %d/%d nodes/edges, want %d/%d",
			g.NodeCount(), g.EdgeCount(), nodes, edges)
	}
	if !g.HasSkill("repo-a/a") || !g.HasSkill("repo-a/b") {
		t.Error("skills lost in round trip")
	}
	if related := g.RelatedByTags("repo-a/a", 1); len(related) != 1 || related[0].SkillID != "repo-a/b" {
		t.Errorf("tag projection broken after load: %+v", related)
	}
}

func TestGraph_SnapshotDeterministic(t *testing.T) {
	build := func() *Graph {
		g := New()
		// Insertion order differs between the two builds.
		skills := []*skill.Skill{
			mkSkill("repo-a/a", "a", []string{"go", "testing"}, []string{"repo-a/b"}, skill.CategoryTesting),
			mkSkill("repo-a/b", "b", []string{"go"}, nil, skill.CategoryDebugging),
		}
		for _, s := range skills {
			if err := g.AddSkill(s); err != nil {
				t.Fatalf("AddSkill: %v", err)
			}
		}
		return g
	}
	buildReversed := func() *Graph {
		g := New()
		skills := []*skill.Skill{
			mkSkill("repo-a/b", "b", []string{"go"}, nil, skill.CategoryDebugging),
			mkSkill("repo-a/a", "a", []string{"go", "testing"}, []string{"repo-a/b"}, skill.CategoryTesting),
		}
		for _, s := range skills {
			if err := g.AddSkill(s); err != nil {
				t.Fatalf("AddSkill: %v", err)
			}
		}
		return g
	}

	dir := t.TempDir()
	p1 := filepath.Join(dir, "one.snapshot")
	p2 := filepath.Join(dir, "two.snapshot")
	if err := build().Save(p1); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := buildReversed().Save(p2); err != nil {
		t.Fatalf("Save: %v", err)
	}

	d1, err := os.ReadFile(p1)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	d2, err := os.ReadFile(p2)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !bytes.Equal(d1, d2) {
		t.Error("snapshots differ for identical graphs built in different orders")
	}
}
