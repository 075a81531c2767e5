package cmd

import (
	"github.com/spf13/cobra"
)

var (
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "skillhub",
	Short: "Hybrid skill discovery for AI coding assistants",
	Long: `Skillhub indexes skill documents from cloned git repositories into a
dense vector index and a typed knowledge graph, and serves ranked
skill lookups to AI coding assistants over MCP.`,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", ".skillhub.yml", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
