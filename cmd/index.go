package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var indexForce bool

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Build or refresh the skill indices",
	Long:  `Walks every registered repository, parses skill files, and upserts them into the vector and graph indices. With --force both indices are cleared and rebuilt from scratch.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := openCore()
		if err != nil {
			return err
		}
		defer c.Close()

		ensureDeclaredRepos(cmd.Context(), c)

		stats, errs := c.engine.ReindexAll(cmd.Context(), indexForce)

		for _, err := range errs {
			fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
		}

		fmt.Printf("Indexed %d/%d skill(s)", stats.Indexed, stats.TotalSkills)
		if stats.Failed > 0 {
			fmt.Printf(", %d failed", stats.Failed)
		}
		if stats.Warnings > 0 {
			fmt.Printf(", %d warning(s)", stats.Warnings)
		}
		fmt.Printf("\nGraph: %d nodes, %d edges\n", stats.GraphNodes, stats.GraphEdges)
		return nil
	},
}

func init() {
	indexCmd.Flags().BoolVar(&indexForce, "force", false, "clear both indices before rebuilding")
	rootCmd.AddCommand(indexCmd)
}
