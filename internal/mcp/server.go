package mcp

import (
	"time"

	"github.com/mark3labs/mcp-go/server"

	"github.com/skillhub-dev/skillhub/internal/engine"
	"github.com/skillhub-dev/skillhub/internal/gitrepo"
)

// Version is set via ldflags at build time.
var Version = "dev"

// Server wraps an MCP server that exposes skill discovery tools to AI
// coding assistants.
type Server struct {
	engine        *engine.Engine
	manager       *gitrepo.Manager
	defaultMaxAge time.Duration
	mcp           *server.MCPServer
}

// NewServer creates a new MCP server over the indexing engine and
// repository manager. defaultMaxAge is the advisory staleness threshold
// used when check_auto_updates is called without one.
func NewServer(eng *engine.Engine, manager *gitrepo.Manager, defaultMaxAge time.Duration) *Server {
	s := &Server{
		engine:        eng,
		manager:       manager,
		defaultMaxAge: defaultMaxAge,
	}

	s.mcp = server.NewMCPServer(
		"skillhub",
		Version,
		server.WithToolCapabilities(false),
	)

	s.registerTools()

	return s
}

// registerTools adds all tool definitions and their handlers.
func (s *Server) registerTools() {
	s.mcp.AddTool(searchSkillsTool, s.handleSearchSkills)
	s.mcp.AddTool(recommendSkillsTool, s.handleRecommendSkills)
	s.mcp.AddTool(listSkillsTool, s.handleListSkills)
	s.mcp.AddTool(getSkillTool, s.handleGetSkill)
	s.mcp.AddTool(getStatsTool, s.handleGetStats)
	s.mcp.AddTool(reindexTool, s.handleReindex)
	s.mcp.AddTool(repoAddTool, s.handleRepoAdd)
	s.mcp.AddTool(repoUpdateTool, s.handleRepoUpdate)
	s.mcp.AddTool(repoRemoveTool, s.handleRepoRemove)
	s.mcp.AddTool(repoListTool, s.handleRepoList)
	s.mcp.AddTool(checkAutoUpdatesTool, s.handleCheckAutoUpdates)
}

// Serve starts the MCP server on stdio. Stdout carries MCP protocol
// messages; all logging must go to stderr.
func (s *Server) Serve() error {
	return server.ServeStdio(s.mcp)
}
