package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show index statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := openCore()
		if err != nil {
			return err
		}
		defer c.Close()

		stats, err := c.engine.Stats(cmd.Context())
		if err != nil {
			return err
		}

		fmt.Printf("Skills indexed: %d\n", stats.Skills)
		fmt.Printf("Graph: %d nodes, %d edges\n", stats.GraphNodes, stats.GraphEdges)
		fmt.Printf("Repositories: %d\n", stats.Repositories)
		fmt.Printf("Index size on disk: %d bytes\n", stats.DiskBytes)
		if !stats.LastIndexed.IsZero() {
			fmt.Printf("Last indexed: %s\n", stats.LastIndexed.Format(time.RFC3339))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statsCmd)
}
