package mcp

import "github.com/mark3labs/mcp-go/mcp"

// searchSkillsTool defines the search_skills MCP tool.
var searchSkillsTool = mcp.NewTool("search_skills",
	mcp.WithDescription("Search indexed skills by semantic similarity with graph-aware ranking. Returns skills ordered by relevance."),
	mcp.WithString("query",
		mcp.Required(),
		mcp.Description("Natural language search query"),
	),
	mcp.WithNumber("limit",
		mcp.Description("Maximum number of results to return (default 5)"),
	),
	mcp.WithString("mode",
		mcp.Description("Retrieval mode (default hybrid)"),
		mcp.Enum("hybrid", "vector_only", "graph_only"),
	),
	mcp.WithString("category",
		mcp.Description("Restrict results to one category"),
		mcp.Enum("testing", "debugging", "refactoring", "architecture", "data", "security", "devops", "toolchain", "general", "other"),
	),
	mcp.WithString("repo_id",
		mcp.Description("Restrict results to one repository"),
	),
	mcp.WithString("tags",
		mcp.Description("Comma-separated tag hints; matching skills rank higher"),
	),
)

// recommendSkillsTool defines the recommend_skills MCP tool.
var recommendSkillsTool = mcp.NewTool("recommend_skills",
	mcp.WithDescription("Recommend skills for a project context (languages, frameworks, current task). Tag hints are derived from the context automatically."),
	mcp.WithString("context",
		mcp.Required(),
		mcp.Description("Free-form description of the project or task"),
	),
	mcp.WithNumber("limit",
		mcp.Description("Maximum number of results to return (default 5)"),
	),
)

// listSkillsTool defines the list_skills MCP tool.
var listSkillsTool = mcp.NewTool("list_skills",
	mcp.WithDescription("List indexed skills, optionally filtered by category, repository, or tag."),
	mcp.WithString("category", mcp.Description("Only skills in this category")),
	mcp.WithString("repo_id", mcp.Description("Only skills from this repository")),
	mcp.WithString("tag", mcp.Description("Only skills carrying this tag")),
)

// getSkillTool defines the get_skill MCP tool.
var getSkillTool = mcp.NewTool("get_skill",
	mcp.WithDescription("Get the full instructions and metadata for one skill."),
	mcp.WithString("id",
		mcp.Required(),
		mcp.Description("Skill identifier ({repo_id}/{path})"),
	),
)

// getStatsTool defines the get_stats MCP tool.
var getStatsTool = mcp.NewTool("get_stats",
	mcp.WithDescription("Get index statistics: skill count, graph size, repositories, last index time."),
)

// reindexTool defines the reindex MCP tool.
var reindexTool = mcp.NewTool("reindex",
	mcp.WithDescription("Rebuild the vector and graph indices from the cloned repositories."),
	mcp.WithBoolean("force",
		mcp.Description("Clear both indices before rebuilding"),
	),
)

// repoAddTool defines the repo_add MCP tool.
var repoAddTool = mcp.NewTool("repo_add",
	mcp.WithDescription("Clone a skill repository and register it as a source."),
	mcp.WithString("url",
		mcp.Required(),
		mcp.Description("Git URL of the repository"),
	),
	mcp.WithNumber("priority",
		mcp.Description("Source priority 0-100 (default 50)"),
	),
	mcp.WithString("license",
		mcp.Description("License label for the source"),
	),
)

// repoUpdateTool defines the repo_update MCP tool.
var repoUpdateTool = mcp.NewTool("repo_update",
	mcp.WithDescription("Fetch and hard-reset a repository to upstream."),
	mcp.WithString("id",
		mcp.Required(),
		mcp.Description("Repository identifier"),
	),
)

// repoRemoveTool defines the repo_remove MCP tool.
var repoRemoveTool = mcp.NewTool("repo_remove",
	mcp.WithDescription("Remove a repository record and its on-disk clone."),
	mcp.WithString("id",
		mcp.Required(),
		mcp.Description("Repository identifier"),
	),
)

// repoListTool defines the repo_list MCP tool.
var repoListTool = mcp.NewTool("repo_list",
	mcp.WithDescription("List registered skill repositories."),
)

// checkAutoUpdatesTool defines the check_auto_updates MCP tool.
var checkAutoUpdatesTool = mcp.NewTool("check_auto_updates",
	mcp.WithDescription("List auto-update repositories whose last sync is older than the given age. Advisory only; nothing is updated."),
	mcp.WithNumber("max_age_hours",
		mcp.Description("Staleness threshold in hours (default from config)"),
	),
)
