package engine

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/skillhub-dev/skillhub/internal/discovery"
	"github.com/skillhub-dev/skillhub/internal/embeddings"
	"github.com/skillhub-dev/skillhub/internal/graph"
	"github.com/skillhub-dev/skillhub/internal/metadata"
	"github.com/skillhub-dev/skillhub/internal/skill"
	"github.com/skillhub-dev/skillhub/internal/vectordb"
)

// testEnv is a fully wired engine over temp directories.
type testEnv struct {
	engine   *Engine
	store    *metadata.Store
	snapshot string
	corpus   map[string]string // repo id -> root dir
}

func newTestEnv(t *testing.T, repoIDs ...string) *testEnv {
	t.Helper()

	db, err := metadata.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	store := metadata.NewStore(db)

	corpus := make(map[string]string)
	for _, id := range repoIDs {
		dir := t.TempDir()
		corpus[id] = dir
		if err := store.AddRepo(context.Background(), &metadata.Repository{
			ID:        id,
			URL:       "https://example.com/" + id,
			LocalPath: dir,
		}); err != nil {
			t.Fatalf("AddRepo: %v", err)
		}
	}

	embedder, err := embeddings.NewHashEmbedder(256)
	if err != nil {
		t.Fatalf("NewHashEmbedder: %v", err)
	}
	vec, err := vectordb.NewChromemStore(t.TempDir(), embedder)
	if err != nil {
		t.Fatalf("NewChromemStore: %v", err)
	}

	snapshot := filepath.Join(t.TempDir(), "graph.snapshot")
	disc := discovery.New("SKILL.md", &skill.Parser{CompatibilityMode: true})
	eng := New(vec, graph.New(), store, disc, snapshot, DefaultOptions())

	return &testEnv{engine: eng, store: store, snapshot: snapshot, corpus: corpus}
}

// addSkillFile writes a skill file under the given repository.
func (env *testEnv) addSkillFile(t *testing.T, repoID, relDir, front, body string) {
	t.Helper()
	root, ok := env.corpus[repoID]
	if !ok {
		t.Fatalf("unknown repo %s", repoID)
	}
	path := filepath.Join(root, filepath.FromSlash(relDir), "SKILL.md")
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	if err := os.WriteFile(path, []byte("---\n"+front+"\n---\n"+body), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
}

const tddFront = `name: test-driven-development
description: TDD patterns and practices.
category: testing
tags: [testing, tdd]`

const tddBody = `Write the failing test first, watch the test fail, then make the
test pass with the smallest change. Repeat the test driven development
loop: red, green, refactor. Test driven development keeps every change
covered by a test.`

func TestReindexAll_EmptyCorpus(t *testing.T) {
	env := newTestEnv(t)

	stats, errs := env.engine.ReindexAll(context.Background(), false)
	if len(errs) != 0 {
		t.Fatalf("ReindexAll errors: %v", errs)
	}
	if stats.TotalSkills != 0 || stats.Indexed != 0 {
		t.Errorf("stats = %+v, want empty", stats)
	}
	if _, err := os.Stat(env.snapshot); err != nil {
		t.Errorf("snapshot not written: %v", err)
	}
}

func TestReindexAll_IndexesCorpus(t *testing.T) {
	env := newTestEnv(t, "repo-a")
	env.addSkillFile(t, "repo-a", "skills/tdd", tddFront, tddBody)
	env.addSkillFile(t, "repo-a", "skills/docker",
		"name: container-basics\ndescription: Building container images.\ncategory: devops\ntags: [docker]",
		"How to structure container builds for caching and reproducibility in CI pipelines.")

	stats, errs := env.engine.ReindexAll(context.Background(), false)
	if len(errs) != 0 {
		t.Fatalf("ReindexAll errors: %v", errs)
	}
	if stats.TotalSkills != 2 || stats.Indexed != 2 || stats.Failed != 0 {
		t.Errorf("stats = %+v", stats)
	}
	if stats.GraphNodes == 0 || stats.GraphEdges == 0 {
		t.Errorf("graph empty after reindex: %+v", stats)
	}
	if stats.LastIndexed.IsZero() {
		t.Error("LastIndexed not set")
	}
}

func TestReindexAll_BadFileCountedNotFatal(t *testing.T) {
	env := newTestEnv(t, "repo-a")
	env.addSkillFile(t, "repo-a", "skills/good", tddFront, tddBody)
	env.addSkillFile(t, "repo-a", "skills/bad", "name: broken", "too short")

	stats, errs := env.engine.ReindexAll(context.Background(), false)
	if stats.Indexed != 1 {
		t.Errorf("Indexed = %d, want 1", stats.Indexed)
	}
	if stats.Failed != 1 {
		t.Errorf("Failed = %d, want 1", stats.Failed)
	}
	if len(errs) != 1 {
		t.Errorf("errs = %v, want exactly one", errs)
	}
}

func TestReindexAll_ForceIdempotent(t *testing.T) {
	env := newTestEnv(t, "repo-a")
	env.addSkillFile(t, "repo-a", "skills/tdd", tddFront, tddBody)
	env.addSkillFile(t, "repo-a", "skills/docker",
		"name: container-basics\ndescription: Building container images.\ncategory: devops\ntags: [docker, ci]",
		"How to structure container builds for caching and reproducibility in CI pipelines.")

	first, errs := env.engine.ReindexAll(context.Background(), true)
	if len(errs) != 0 {
		t.Fatalf("first pass errors: %v", errs)
	}
	firstSnap, err := os.ReadFile(env.snapshot)
	if err != nil {
		t.Fatalf("reading snapshot: %v", err)
	}

	second, errs := env.engine.ReindexAll(context.Background(), true)
	if len(errs) != 0 {
		t.Fatalf("second pass errors: %v", errs)
	}
	secondSnap, err := os.ReadFile(env.snapshot)
	if err != nil {
		t.Fatalf("reading snapshot: %v", err)
	}

	if first.TotalSkills != second.TotalSkills ||
		first.GraphNodes != second.GraphNodes ||
		first.GraphEdges != second.GraphEdges {
		t.Errorf("passes differ: %+v vs %+v", first, second)
	}
	if !bytes.Equal(firstSnap, secondSnap) {
		t.Error("graph snapshots differ between identical passes")
	}

	stats, err := env.engine.Stats(context.Background())
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.Skills != 2 {
		t.Errorf("vector store has %d records, want 2", stats.Skills)
	}
}

func TestListSkillsAndGetSkill(t *testing.T) {
	env := newTestEnv(t, "repo-a")
	env.addSkillFile(t, "repo-a", "skills/tdd", tddFront, tddBody)
	env.addSkillFile(t, "repo-a", "skills/docker",
		"name: container-basics\ndescription: Building container images.\ncategory: devops\ntags: [docker]",
		"How to structure container builds for caching and reproducibility in CI pipelines.")

	ctx := context.Background()
	if _, errs := env.engine.ReindexAll(ctx, true); len(errs) != 0 {
		t.Fatalf("ReindexAll: %v", errs)
	}

	all, err := env.engine.ListSkills(ctx, nil)
	if err != nil {
		t.Fatalf("ListSkills: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("ListSkills returned %d, want 2", len(all))
	}
	if all[0].ID > all[1].ID {
		t.Error("listing not ordered by id")
	}

	filtered, err := env.engine.ListSkills(ctx, &Filters{Category: "testing"})
	if err != nil {
		t.Fatalf("ListSkills filtered: %v", err)
	}
	if len(filtered) != 1 || filtered[0].ID != "repo-a/skills/tdd" {
		t.Errorf("category filter: %+v", filtered)
	}

	got, err := env.engine.GetSkill(ctx, "repo-a/skills/tdd")
	if err != nil {
		t.Fatalf("GetSkill: %v", err)
	}
	if got.Name != "test-driven-development" {
		t.Errorf("GetSkill name = %q", got.Name)
	}
	if !strings.Contains(got.Instructions, "red, green, refactor") {
		t.Error("GetSkill did not return the full body")
	}

	if _, err := env.engine.GetSkill(ctx, "repo-a/skills/missing"); err == nil {
		t.Error("expected error for unknown skill id")
	}
}

func TestRemoveSkill(t *testing.T) {
	env := newTestEnv(t, "repo-a")
	env.addSkillFile(t, "repo-a", "skills/tdd", tddFront, tddBody)

	ctx := context.Background()
	if _, errs := env.engine.ReindexAll(ctx, true); len(errs) != 0 {
		t.Fatalf("ReindexAll: %v", errs)
	}

	if err := env.engine.RemoveSkill(ctx, "repo-a/skills/tdd"); err != nil {
		t.Fatalf("RemoveSkill: %v", err)
	}

	stats, err := env.engine.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.Skills != 0 {
		t.Errorf("vector store still has %d records", stats.Skills)
	}
	if env.engine.Graph().HasSkill("repo-a/skills/tdd") {
		t.Error("graph still has the removed skill")
	}
}

func TestSnapshotRestoredOnLoad(t *testing.T) {
	env := newTestEnv(t, "repo-a")
	env.addSkillFile(t, "repo-a", "skills/tdd", tddFront, tddBody)

	ctx := context.Background()
	if _, errs := env.engine.ReindexAll(ctx, true); len(errs) != 0 {
		t.Fatalf("ReindexAll: %v", errs)
	}

	nodes := env.engine.Graph().NodeCount()
	env.engine.Graph().Clear()

	if err := env.engine.LoadSnapshot(); err != nil {
		t.Fatalf("LoadSnapshot: %v", err)
	}
	if got := env.engine.Graph().NodeCount(); got != nodes {
		t.Errorf("snapshot restore: %d nodes, want %d", got, nodes)
	}
}
