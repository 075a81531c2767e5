package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	mcpserver "github.com/skillhub-dev/skillhub/internal/mcp"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server for AI agent integration",
	Long:  `Starts a Model Context Protocol (MCP) server on stdio, exposing skill search, recommendation, and repository management tools for AI agents.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := openCore()
		if err != nil {
			return err
		}
		defer c.Close()

		mcpserver.Version = Version

		maxAge := time.Duration(c.cfg.AutoUpdateMaxAgeHours) * time.Hour
		fmt.Fprintf(os.Stderr, "skillhub MCP server started on stdio (data=%s)\n", c.cfg.DataRoot)

		srv := mcpserver.NewServer(c.engine, c.manager, maxAge)
		return srv.Serve()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
