package mcp

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/skillhub-dev/skillhub/internal/discovery"
	"github.com/skillhub-dev/skillhub/internal/embeddings"
	"github.com/skillhub-dev/skillhub/internal/engine"
	"github.com/skillhub-dev/skillhub/internal/gitrepo"
	"github.com/skillhub-dev/skillhub/internal/graph"
	"github.com/skillhub-dev/skillhub/internal/metadata"
	"github.com/skillhub-dev/skillhub/internal/skill"
	"github.com/skillhub-dev/skillhub/internal/vectordb"
)

// newTestServer wires a server over temp stores with one indexed skill.
func newTestServer(t *testing.T) *Server {
	t.Helper()

	db, err := metadata.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	store := metadata.NewStore(db)

	repoDir := t.TempDir()
	skillPath := filepath.Join(repoDir, "skills", "tdd", "SKILL.md")
	if err := os.MkdirAll(filepath.Dir(skillPath), 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	content := `---
name: test-driven-development
description: TDD patterns and practices.
category: testing
tags: [testing, tdd]
---
Write the failing test first, watch it fail, then make it pass with the
smallest possible change before refactoring.
`
	if err := os.WriteFile(skillPath, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if err := store.AddRepo(context.Background(), &metadata.Repository{
		ID:        "repo-a",
		URL:       "https://example.com/repo-a",
		LocalPath: repoDir,
	}); err != nil {
		t.Fatalf("AddRepo: %v", err)
	}

	embedder, err := embeddings.NewHashEmbedder(128)
	if err != nil {
		t.Fatalf("NewHashEmbedder: %v", err)
	}
	vec, err := vectordb.NewChromemStore(t.TempDir(), embedder)
	if err != nil {
		t.Fatalf("NewChromemStore: %v", err)
	}

	disc := discovery.New("SKILL.md", &skill.Parser{CompatibilityMode: true})
	eng := engine.New(vec, graph.New(), store, disc,
		filepath.Join(t.TempDir(), "graph.snapshot"), engine.DefaultOptions())
	if _, errs := eng.ReindexAll(context.Background(), true); len(errs) != 0 {
		t.Fatalf("ReindexAll: %v", errs)
	}

	manager := gitrepo.NewManager(t.TempDir(), store, "SKILL.md")
	return NewServer(eng, manager, 24*time.Hour)
}

func textContent(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	if result == nil || len(result.Content) == 0 {
		t.Fatal("empty tool result")
	}
	tc, ok := mcp.AsTextContent(result.Content[0])
	if !ok {
		t.Fatalf("result content is not text: %#v", result.Content[0])
	}
	return tc.Text
}

func callReq(name string, args map[string]any) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Name = name
	req.Params.Arguments = args
	return req
}

func TestToolDefinitions(t *testing.T) {
	tests := []struct {
		name string
		tool mcp.Tool
	}{
		{"search_skills", searchSkillsTool},
		{"recommend_skills", recommendSkillsTool},
		{"list_skills", listSkillsTool},
		{"get_skill", getSkillTool},
		{"get_stats", getStatsTool},
		{"reindex", reindexTool},
		{"repo_add", repoAddTool},
		{"repo_update", repoUpdateTool},
		{"repo_remove", repoRemoveTool},
		{"repo_list", repoListTool},
		{"check_auto_updates", checkAutoUpdatesTool},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.tool.Name != tt.name {
				t.Errorf("tool name = %q, want %q", tt.tool.Name, tt.name)
			}
			if tt.tool.Description == "" {
				t.Error("tool description should not be empty")
			}
		})
	}
}

func TestHandleSearchSkills(t *testing.T) {
	srv := newTestServer(t)

	result, err := srv.handleSearchSkills(context.Background(),
		callReq("search_skills", map[string]any{"query": "test driven development"}))
	if err != nil {
		t.Fatalf("handleSearchSkills: %v", err)
	}

	text := textContent(t, result)
	if !strings.Contains(text, "repo-a/skills/tdd") {
		t.Errorf("result does not mention the indexed skill:\n%s", text)
	}
}

func TestHandleSearchSkills_MissingQuery(t *testing.T) {
	srv := newTestServer(t)

	result, err := srv.handleSearchSkills(context.Background(),
		callReq("search_skills", map[string]any{}))
	if err != nil {
		t.Fatalf("handleSearchSkills: %v", err)
	}
	if !result.IsError {
		t.Error("expected an error result for a missing query")
	}
}

func TestHandleListSkills(t *testing.T) {
	srv := newTestServer(t)

	result, err := srv.handleListSkills(context.Background(),
		callReq("list_skills", map[string]any{"category": "testing"}))
	if err != nil {
		t.Fatalf("handleListSkills: %v", err)
	}
	text := textContent(t, result)
	if !strings.Contains(text, "repo-a/skills/tdd") {
		t.Errorf("listing missing the skill:\n%s", text)
	}

	result, err = srv.handleListSkills(context.Background(),
		callReq("list_skills", map[string]any{"category": "devops"}))
	if err != nil {
		t.Fatalf("handleListSkills: %v", err)
	}
	if text := textContent(t, result); !strings.Contains(text, "No skills") {
		t.Errorf("expected empty listing, got:\n%s", text)
	}
}

func TestHandleGetSkill(t *testing.T) {
	srv := newTestServer(t)

	result, err := srv.handleGetSkill(context.Background(),
		callReq("get_skill", map[string]any{"id": "repo-a/skills/tdd"}))
	if err != nil {
		t.Fatalf("handleGetSkill: %v", err)
	}
	text := textContent(t, result)
	if !strings.Contains(text, "failing test first") {
		t.Errorf("full instructions missing:\n%s", text)
	}

	result, err = srv.handleGetSkill(context.Background(),
		callReq("get_skill", map[string]any{"id": "repo-a/skills/nope"}))
	if err != nil {
		t.Fatalf("handleGetSkill: %v", err)
	}
	if !result.IsError {
		t.Error("expected an error result for an unknown id")
	}
}

func TestHandleGetStats(t *testing.T) {
	srv := newTestServer(t)

	result, err := srv.handleGetStats(context.Background(), callReq("get_stats", nil))
	if err != nil {
		t.Fatalf("handleGetStats: %v", err)
	}
	text := textContent(t, result)
	if !strings.Contains(text, "Skills indexed: 1") {
		t.Errorf("stats missing skill count:\n%s", text)
	}
}

func TestHandleReindex(t *testing.T) {
	srv := newTestServer(t)

	result, err := srv.handleReindex(context.Background(),
		callReq("reindex", map[string]any{"force": true}))
	if err != nil {
		t.Fatalf("handleReindex: %v", err)
	}
	text := textContent(t, result)
	if !strings.Contains(text, "Indexed 1/1") {
		t.Errorf("reindex summary unexpected:\n%s", text)
	}
}

func TestHandleRepoList(t *testing.T) {
	srv := newTestServer(t)

	result, err := srv.handleRepoList(context.Background(), callReq("repo_list", nil))
	if err != nil {
		t.Fatalf("handleRepoList: %v", err)
	}
	text := textContent(t, result)
	if !strings.Contains(text, "repo-a") {
		t.Errorf("repo listing missing repo-a:\n%s", text)
	}
}

func TestHandleCheckAutoUpdates(t *testing.T) {
	srv := newTestServer(t)

	// The only repository has auto_update off, so nothing is stale.
	result, err := srv.handleCheckAutoUpdates(context.Background(),
		callReq("check_auto_updates", map[string]any{"max_age_hours": 1}))
	if err != nil {
		t.Fatalf("handleCheckAutoUpdates: %v", err)
	}
	if text := textContent(t, result); !strings.Contains(text, "fresh") {
		t.Errorf("expected fresh report, got:\n%s", text)
	}
}

func TestHandleRecommendSkills(t *testing.T) {
	srv := newTestServer(t)

	result, err := srv.handleRecommendSkills(context.Background(),
		callReq("recommend_skills", map[string]any{"context": "introducing tdd to a testing-heavy service"}))
	if err != nil {
		t.Fatalf("handleRecommendSkills: %v", err)
	}
	text := textContent(t, result)
	if !strings.Contains(text, "repo-a/skills/tdd") {
		t.Errorf("recommendation missing the skill:\n%s", text)
	}
}
