package mcp

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/skillhub-dev/skillhub/internal/engine"
	"github.com/skillhub-dev/skillhub/internal/gitrepo"
	"github.com/skillhub-dev/skillhub/internal/skill"
)

const defaultSearchLimit = 5

// handleSearchSkills searches the skill index in the requested mode
// (hybrid by default).
func (s *Server) handleSearchSkills(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := request.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: query"), nil
	}

	limit := request.GetInt("limit", defaultSearchLimit)
	if limit <= 0 {
		limit = defaultSearchLimit
	}

	filters := &engine.Filters{
		Category: request.GetString("category", ""),
	}
	if repoID := request.GetString("repo_id", ""); repoID != "" {
		filters.RepoIDs = []string{repoID}
	}
	if tags := request.GetString("tags", ""); tags != "" {
		for _, tag := range strings.Split(tags, ",") {
			if tag = strings.ToLower(strings.TrimSpace(tag)); tag != "" {
				filters.Tags = append(filters.Tags, tag)
			}
		}
	}

	results, err := s.engine.Search(ctx, query, engine.SearchOptions{
		TopK:    limit,
		Mode:    engine.SearchMode(request.GetString("mode", string(engine.ModeHybrid))),
		Filters: filters,
	})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("search failed: %v", err)), nil
	}

	if len(results) == 0 {
		return mcp.NewToolResultText("No matching skills. The index may be empty; run the reindex tool or `skillhub index` first."), nil
	}
	return mcp.NewToolResultText(formatResults(results)), nil
}

// handleRecommendSkills searches with tag hints derived from the caller's
// project context: context tokens that exist as tags in the graph become
// explicit hints.
func (s *Server) handleRecommendSkills(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	projectContext, err := request.RequireString("context")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: context"), nil
	}

	limit := request.GetInt("limit", defaultSearchLimit)
	if limit <= 0 {
		limit = defaultSearchLimit
	}

	filters := &engine.Filters{}
	seen := make(map[string]bool)
	for _, token := range strings.Fields(strings.ToLower(projectContext)) {
		token = strings.Trim(token, ".,;:()[]\"'")
		if token == "" || seen[token] {
			continue
		}
		seen[token] = true
		if len(s.engine.Graph().SkillsWithTag(token)) > 0 {
			filters.Tags = append(filters.Tags, token)
		}
	}

	results, err := s.engine.Search(ctx, projectContext, engine.SearchOptions{
		TopK:    limit,
		Mode:    engine.ModeHybrid,
		Filters: filters,
	})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("recommend failed: %v", err)), nil
	}

	if len(results) == 0 {
		return mcp.NewToolResultText("No recommendations available for this context."), nil
	}
	return mcp.NewToolResultText(formatResults(results)), nil
}

// handleListSkills enumerates the corpus with optional filters.
func (s *Server) handleListSkills(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	filters := &engine.Filters{
		Category: request.GetString("category", ""),
	}
	if repoID := request.GetString("repo_id", ""); repoID != "" {
		filters.RepoIDs = []string{repoID}
	}
	if tag := request.GetString("tag", ""); tag != "" {
		filters.Tags = []string{strings.ToLower(tag)}
	}

	skills, err := s.engine.ListSkills(ctx, filters)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("list failed: %v", err)), nil
	}
	if len(skills) == 0 {
		return mcp.NewToolResultText("No skills found."), nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%d skill(s):\n", len(skills))
	for _, sk := range skills {
		fmt.Fprintf(&sb, "- %s [%s]", sk.ID, sk.Category)
		if len(sk.Tags) > 0 {
			fmt.Fprintf(&sb, " (%s)", strings.Join(sk.Tags, ", "))
		}
		sb.WriteString("\n")
	}
	return mcp.NewToolResultText(sb.String()), nil
}

// handleGetSkill returns one skill's full instructions and metadata.
func (s *Server) handleGetSkill(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := request.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: id"), nil
	}

	sk, err := s.engine.GetSkill(ctx, id)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("get_skill failed: %v", err)), nil
	}
	return mcp.NewToolResultText(formatSkill(sk)), nil
}

// handleGetStats reports index statistics.
func (s *Server) handleGetStats(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	stats, err := s.engine.Stats(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("stats failed: %v", err)), nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Skills indexed: %d\n", stats.Skills)
	fmt.Fprintf(&sb, "Graph: %d nodes, %d edges\n", stats.GraphNodes, stats.GraphEdges)
	fmt.Fprintf(&sb, "Repositories: %d\n", stats.Repositories)
	fmt.Fprintf(&sb, "Index size on disk: %d bytes\n", stats.DiskBytes)
	if !stats.LastIndexed.IsZero() {
		fmt.Fprintf(&sb, "Last indexed: %s\n", stats.LastIndexed.Format(time.RFC3339))
	}
	return mcp.NewToolResultText(sb.String()), nil
}

// handleReindex rebuilds both indices.
func (s *Server) handleReindex(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	force := request.GetBool("force", false)

	stats, errs := s.engine.ReindexAll(ctx, force)

	var sb strings.Builder
	fmt.Fprintf(&sb, "Indexed %d/%d skill(s), %d failed, %d warning(s)\n",
		stats.Indexed, stats.TotalSkills, stats.Failed, stats.Warnings)
	fmt.Fprintf(&sb, "Graph: %d nodes, %d edges\n", stats.GraphNodes, stats.GraphEdges)
	for _, err := range errs {
		fmt.Fprintf(&sb, "error: %v\n", err)
	}
	return mcp.NewToolResultText(sb.String()), nil
}

// handleRepoAdd clones and registers a repository.
func (s *Server) handleRepoAdd(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	url, err := request.RequireString("url")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: url"), nil
	}

	repo, err := s.manager.Add(ctx, url, request.GetInt("priority", gitrepo.DefaultPriority), request.GetString("license", ""))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("repo_add failed: %v", err)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf(
		"Repository %s added (%d skill file(s) at %s). Run the reindex tool to index it.",
		repo.ID, repo.SkillCount, repo.LocalPath)), nil
}

// handleRepoUpdate syncs one repository to upstream.
func (s *Server) handleRepoUpdate(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := request.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: id"), nil
	}

	repo, err := s.manager.Update(ctx, id)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("repo_update failed: %v", err)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf(
		"Repository %s updated (%d skill file(s)).", repo.ID, repo.SkillCount)), nil
}

// handleRepoRemove removes a repository and its clone.
func (s *Server) handleRepoRemove(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := request.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: id"), nil
	}

	if err := s.manager.Remove(ctx, id); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("repo_remove failed: %v", err)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Repository %s removed.", id)), nil
}

// handleRepoList lists registered repositories.
func (s *Server) handleRepoList(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	repos, err := s.manager.List(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("repo_list failed: %v", err)), nil
	}
	if len(repos) == 0 {
		return mcp.NewToolResultText("No repositories registered."), nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%d repositor(ies):\n", len(repos))
	for _, r := range repos {
		updated := "never"
		if r.LastUpdated != nil {
			updated = r.LastUpdated.Format(time.RFC3339)
		}
		fmt.Fprintf(&sb, "- %s: %s (priority %d, %d skill(s), updated %s)\n",
			r.ID, r.URL, r.Priority, r.SkillCount, updated)
	}
	return mcp.NewToolResultText(sb.String()), nil
}

// handleCheckAutoUpdates reports which auto-update repositories are stale.
func (s *Server) handleCheckAutoUpdates(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	maxAge := s.defaultMaxAge
	if hours := request.GetInt("max_age_hours", 0); hours > 0 {
		maxAge = time.Duration(hours) * time.Hour
	}

	repos, err := s.manager.List(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("check_auto_updates failed: %v", err)), nil
	}

	var stale []string
	for _, r := range repos {
		repo := r
		if repo.AutoUpdate && gitrepo.ShouldUpdate(&repo, maxAge) {
			stale = append(stale, repo.ID)
		}
	}
	if len(stale) == 0 {
		return mcp.NewToolResultText("All auto-update repositories are fresh."), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf(
		"%d repositor(ies) stale: %s", len(stale), strings.Join(stale, ", "))), nil
}

// formatResults renders ranked results as text optimized for AI agent
// consumption.
func formatResults(results []engine.ScoredSkill) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Found %d skill(s):\n", len(results))

	for i, r := range results {
		fmt.Fprintf(&sb, "\n--- Result %d ---\n", i+1)
		fmt.Fprintf(&sb, "ID: %s\n", r.ID)
		fmt.Fprintf(&sb, "Name: %s\n", r.Name)
		if r.Description != "" {
			fmt.Fprintf(&sb, "Description: %s\n", r.Description)
		}
		if r.Category != "" {
			fmt.Fprintf(&sb, "Category: %s\n", r.Category)
		}
		if len(r.Tags) > 0 {
			fmt.Fprintf(&sb, "Tags: %s\n", strings.Join(r.Tags, ", "))
		}
		fmt.Fprintf(&sb, "Score: %.3f (vector %.3f, graph %.3f, via %s)\n",
			r.Score, r.VectorScore, r.GraphScore, r.Provenance)
	}
	return sb.String()
}

// formatSkill renders one full skill, instructions included.
func formatSkill(sk *skill.Skill) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# %s\n\n", sk.Name)
	fmt.Fprintf(&sb, "ID: %s\n", sk.ID)
	fmt.Fprintf(&sb, "Category: %s\n", sk.Category)
	if len(sk.Tags) > 0 {
		fmt.Fprintf(&sb, "Tags: %s\n", strings.Join(sk.Tags, ", "))
	}
	if len(sk.Dependencies) > 0 {
		fmt.Fprintf(&sb, "Depends on: %s\n", strings.Join(sk.Dependencies, ", "))
	}
	if sk.Version != "" {
		fmt.Fprintf(&sb, "Version: %s\n", sk.Version)
	}
	fmt.Fprintf(&sb, "\n%s\n", sk.Description)
	fmt.Fprintf(&sb, "\n%s\n", sk.Instructions)
	return sb.String()
}
