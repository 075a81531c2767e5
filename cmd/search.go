package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/skillhub-dev/skillhub/internal/engine"
)

var (
	searchLimit    int
	searchMode     string
	searchCategory string
	searchRepo     string
	searchTags     []string
)

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search indexed skills",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := openCore()
		if err != nil {
			return err
		}
		defer c.Close()

		filters := &engine.Filters{Category: searchCategory}
		if searchRepo != "" {
			filters.RepoIDs = []string{searchRepo}
		}
		for _, tag := range searchTags {
			if tag = strings.ToLower(strings.TrimSpace(tag)); tag != "" {
				filters.Tags = append(filters.Tags, tag)
			}
		}

		results, err := c.engine.Search(cmd.Context(), strings.Join(args, " "), engine.SearchOptions{
			TopK:    searchLimit,
			Mode:    engine.SearchMode(searchMode),
			Filters: filters,
		})
		if err != nil {
			return err
		}

		if len(results) == 0 {
			fmt.Println("No matching skills. Run `skillhub index` if the index is empty.")
			return nil
		}
		for i, r := range results {
			fmt.Printf("%2d. %-50s %.3f", i+1, r.ID, r.Score)
			if verbose {
				fmt.Printf("  (vector %.3f, graph %.3f)", r.VectorScore, r.GraphScore)
			}
			fmt.Println()
		}
		return nil
	},
}

func init() {
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", 5, "maximum results")
	searchCmd.Flags().StringVar(&searchMode, "mode", string(engine.ModeHybrid), "retrieval mode: hybrid, vector_only, graph_only")
	searchCmd.Flags().StringVar(&searchCategory, "category", "", "restrict to one category")
	searchCmd.Flags().StringVar(&searchRepo, "repo", "", "restrict to one repository id")
	searchCmd.Flags().StringSliceVar(&searchTags, "tag", nil, "tag hints; matching skills rank higher")
	rootCmd.AddCommand(searchCmd)
}
