package engine

import (
	"context"
	"testing"
)

func TestSearch_EmptyCorpus(t *testing.T) {
	env := newTestEnv(t)

	results, err := env.engine.Search(context.Background(), "testing", SearchOptions{TopK: 5})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("empty corpus returned %d results", len(results))
	}
}

func TestSearch_TopKZero(t *testing.T) {
	env := newTestEnv(t, "repo-a")
	env.addSkillFile(t, "repo-a", "skills/tdd", tddFront, tddBody)
	if _, errs := env.engine.ReindexAll(context.Background(), true); len(errs) != 0 {
		t.Fatalf("ReindexAll: %v", errs)
	}

	results, err := env.engine.Search(context.Background(), "testing", SearchOptions{TopK: 0})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("topK=0 returned %d results", len(results))
	}
}

func TestSearch_SingleSkillExactMatch(t *testing.T) {
	env := newTestEnv(t, "repo-a")
	env.addSkillFile(t, "repo-a", "skills/test-driven-development", tddFront, tddBody)

	ctx := context.Background()
	if _, errs := env.engine.ReindexAll(ctx, true); len(errs) != 0 {
		t.Fatalf("ReindexAll: %v", errs)
	}

	results, err := env.engine.Search(ctx, "test driven development", SearchOptions{TopK: 5})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("got %d results, want 1", len(results))
	}
	r := results[0]
	if r.ID != "repo-a/skills/test-driven-development" {
		t.Errorf("result id = %q", r.ID)
	}
	if r.VectorScore < 0.7 {
		t.Errorf("similarity = %f, want >= 0.7 for a near-exact match", r.VectorScore)
	}
}

func TestSearch_CategoryFilter(t *testing.T) {
	env := newTestEnv(t, "repo-a")
	env.addSkillFile(t, "repo-a", "skills/test-review",
		"name: test-review\ndescription: Reviewing test suites for coverage gaps.\ncategory: testing\ntags: [review]",
		"Review the test suite for missing edge cases and flaky setup code before shipping.")
	env.addSkillFile(t, "repo-a", "skills/security-review",
		"name: security-review\ndescription: Reviewing changes for vulnerabilities.\ncategory: security\ntags: [review]",
		"Review each change for injection risks, secret leaks, and unsafe deserialization paths.")

	ctx := context.Background()
	if _, errs := env.engine.ReindexAll(ctx, true); len(errs) != 0 {
		t.Fatalf("ReindexAll: %v", errs)
	}

	results, err := env.engine.Search(ctx, "review", SearchOptions{
		TopK:    10,
		Filters: &Filters{Category: "security"},
	})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("got %d results, want 1", len(results))
	}
	if results[0].ID != "repo-a/skills/security-review" {
		t.Errorf("got %q, want the security skill only", results[0].ID)
	}
}

func TestSearch_TagBoostBreaksTie(t *testing.T) {
	env := newTestEnv(t, "repo-a")
	body := "A shared body used by both skills so their dense vectors come out very close together."
	env.addSkillFile(t, "repo-a", "skills/alpha",
		"name: alpha-skill\ndescription: One of two near-identical skills.\ntags: [postgres]",
		body)
	env.addSkillFile(t, "repo-a", "skills/beta",
		"name: beta-skill\ndescription: Two of two near-identical skills.\ntags: [mysql]",
		body)

	ctx := context.Background()
	if _, errs := env.engine.ReindexAll(ctx, true); len(errs) != 0 {
		t.Fatalf("ReindexAll: %v", errs)
	}

	results, err := env.engine.Search(ctx, "near identical skills", SearchOptions{
		TopK:    2,
		Mode:    ModeHybrid,
		Filters: &Filters{Tags: []string{"postgres"}},
	})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("got %d results, want both near-identical skills", len(results))
	}
	if results[0].ID != "repo-a/skills/alpha" {
		t.Errorf("tagged skill did not outrank: %+v", results)
	}
	if results[0].GraphScore == 0 {
		t.Error("tag hint did not contribute a graph boost")
	}

	// In vector-only mode the hint has no effect on ranking; both skills
	// still come back and the test makes no ordering assumption.
	vecResults, err := env.engine.Search(ctx, "near identical skills", SearchOptions{
		TopK:    2,
		Mode:    ModeVectorOnly,
		Filters: &Filters{Tags: []string{"postgres"}},
	})
	if err != nil {
		t.Fatalf("vector-only Search: %v", err)
	}
	if len(vecResults) != 2 {
		t.Errorf("vector-only returned %d results, want 2", len(vecResults))
	}
}

func TestSearch_HybridCategoryFilterAndBoost(t *testing.T) {
	env := newTestEnv(t, "repo-a")
	body := "A shared body used by both skills so their dense vectors come out very close together."
	env.addSkillFile(t, "repo-a", "skills/alpha",
		"name: alpha-skill\ndescription: One of two near-identical skills.\ncategory: testing\ntags: [shared]",
		body)
	env.addSkillFile(t, "repo-a", "skills/beta",
		"name: beta-skill\ndescription: Two of two near-identical skills.\ncategory: debugging\ntags: [shared]",
		body)

	ctx := context.Background()
	if _, errs := env.engine.ReindexAll(ctx, true); len(errs) != 0 {
		t.Fatalf("ReindexAll: %v", errs)
	}

	results, err := env.engine.Search(ctx, "near identical skills", SearchOptions{
		TopK:    2,
		Mode:    ModeHybrid,
		Filters: &Filters{Category: "testing"},
	})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	// The category filter restricts candidates, and the category boost
	// gives the surviving skill a non-zero graph score.
	if len(results) != 1 || results[0].ID != "repo-a/skills/alpha" {
		t.Fatalf("results = %+v", results)
	}
	if results[0].GraphScore == 0 {
		t.Error("category match did not contribute a graph boost")
	}
}

func TestSearch_GraphOnlyMode(t *testing.T) {
	env := newTestEnv(t, "repo-a")
	env.addSkillFile(t, "repo-a", "skills/tdd", tddFront, tddBody)
	env.addSkillFile(t, "repo-a", "skills/docker",
		"name: container-basics\ndescription: Building container images.\ncategory: devops\ntags: [docker]",
		"How to structure container builds for caching and reproducibility in CI pipelines.")

	ctx := context.Background()
	if _, errs := env.engine.ReindexAll(ctx, true); len(errs) != 0 {
		t.Fatalf("ReindexAll: %v", errs)
	}

	// The query is read as a bag of tag/category tokens.
	results, err := env.engine.Search(ctx, "tdd", SearchOptions{TopK: 5, Mode: ModeGraphOnly})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 || results[0].ID != "repo-a/skills/tdd" {
		t.Errorf("graph-only results = %+v", results)
	}
	if results[0].Provenance != "graph" {
		t.Errorf("provenance = %q", results[0].Provenance)
	}

	// A category token also seeds candidates.
	results, err = env.engine.Search(ctx, "devops", SearchOptions{TopK: 5, Mode: ModeGraphOnly})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 || results[0].ID != "repo-a/skills/docker" {
		t.Errorf("graph-only category results = %+v", results)
	}
}

func TestSearch_HybridDegradesWithoutGraph(t *testing.T) {
	env := newTestEnv(t, "repo-a")
	env.addSkillFile(t, "repo-a", "skills/tdd", tddFront, tddBody)

	ctx := context.Background()
	if _, errs := env.engine.ReindexAll(ctx, true); len(errs) != 0 {
		t.Fatalf("ReindexAll: %v", errs)
	}
	env.engine.Graph().Clear()

	results, err := env.engine.Search(ctx, "test driven development", SearchOptions{TopK: 5, Mode: ModeHybrid})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("degraded search returned %d results", len(results))
	}
	if results[0].Provenance != "vector" {
		t.Errorf("provenance = %q, want vector after degradation", results[0].Provenance)
	}
}

func TestSearch_UnknownMode(t *testing.T) {
	env := newTestEnv(t)
	if _, err := env.engine.Search(context.Background(), "x", SearchOptions{TopK: 1, Mode: "telepathy"}); err == nil {
		t.Error("expected error for unknown mode")
	}
}
