package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/skillhub-dev/skillhub/internal/gitrepo"
	"github.com/skillhub-dev/skillhub/internal/progress"
)

var repoCmd = &cobra.Command{
	Use:   "repo",
	Short: "Manage skill repositories",
	Long:  `Add, list, update, and remove the git repositories skills are sourced from.`,
}

var (
	repoAddPriority int
	repoAddLicense  string
)

var repoAddCmd = &cobra.Command{
	Use:   "add <url>",
	Short: "Clone a skill repository and register it",
	Args:  cobra.ExactArgs(1),
	RunE:  runRepoAdd,
}

var repoListCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered repositories",
	RunE:  runRepoList,
}

var repoRemoveCmd = &cobra.Command{
	Use:   "remove <id>",
	Short: "Remove a repository and its clone",
	Args:  cobra.ExactArgs(1),
	RunE:  runRepoRemove,
}

var repoUpdateCmd = &cobra.Command{
	Use:   "update <id>",
	Short: "Fetch and hard-reset a repository to upstream",
	Args:  cobra.ExactArgs(1),
	RunE:  runRepoUpdate,
}

var repoUpdateAllCmd = &cobra.Command{
	Use:   "update-all",
	Short: "Update every registered repository",
	RunE:  runRepoUpdateAll,
}

func init() {
	repoAddCmd.Flags().IntVar(&repoAddPriority, "priority", gitrepo.DefaultPriority, "source priority 0-100")
	repoAddCmd.Flags().StringVar(&repoAddLicense, "license", "", "license label for the source")

	repoCmd.AddCommand(repoAddCmd)
	repoCmd.AddCommand(repoListCmd)
	repoCmd.AddCommand(repoRemoveCmd)
	repoCmd.AddCommand(repoUpdateCmd)
	repoCmd.AddCommand(repoUpdateAllCmd)
	rootCmd.AddCommand(repoCmd)
}

// reporterCallback bridges git transfer progress into a progress.Reporter.
func reporterCallback(r progress.Reporter) gitrepo.ProgressFunc {
	return func(current, total int64, message string) {
		r.Update(current, total, message)
	}
}

func runRepoAdd(cmd *cobra.Command, args []string) error {
	url := args[0]

	c, err := openCore()
	if err != nil {
		return err
	}
	defer c.Close()

	reporter := progress.NewReporter()
	reporter.Start("Cloning " + url)
	repo, err := c.manager.AddWithProgress(cmd.Context(), url, repoAddPriority, repoAddLicense, reporterCallback(reporter))
	reporter.Finish()
	if err != nil {
		return fmt.Errorf("adding repository: %w", err)
	}

	fmt.Printf("Repository %s added\n", repo.ID)
	fmt.Printf("  URL: %s\n", repo.URL)
	fmt.Printf("  Path: %s\n", repo.LocalPath)
	fmt.Printf("  Skill files: %d\n", repo.SkillCount)
	fmt.Println("Run `skillhub index` to index it.")
	return nil
}

func runRepoList(cmd *cobra.Command, args []string) error {
	c, err := openCore()
	if err != nil {
		return err
	}
	defer c.Close()

	repos, err := c.manager.List(cmd.Context())
	if err != nil {
		return fmt.Errorf("listing repositories: %w", err)
	}
	if len(repos) == 0 {
		fmt.Println("No repositories registered. Use `skillhub repo add <url>` to register one.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tPRIORITY\tSKILLS\tAUTO\tLAST UPDATED\tURL")
	for _, r := range repos {
		updated := "-"
		if r.LastUpdated != nil {
			updated = r.LastUpdated.Format("2006-01-02 15:04")
		}
		auto := ""
		if r.AutoUpdate {
			auto = "yes"
		}
		fmt.Fprintf(w, "%s\t%d\t%d\t%s\t%s\t%s\n",
			r.ID, r.Priority, r.SkillCount, auto, updated, r.URL)
	}
	w.Flush()
	return nil
}

func runRepoRemove(cmd *cobra.Command, args []string) error {
	c, err := openCore()
	if err != nil {
		return err
	}
	defer c.Close()

	if err := c.manager.Remove(cmd.Context(), args[0]); err != nil {
		return fmt.Errorf("removing repository: %w", err)
	}
	fmt.Printf("Repository %s removed. Run `skillhub index --force` to drop its skills from the index.\n", args[0])
	return nil
}

func runRepoUpdate(cmd *cobra.Command, args []string) error {
	c, err := openCore()
	if err != nil {
		return err
	}
	defer c.Close()

	reporter := progress.NewReporter()
	reporter.Start("Updating " + args[0])
	repo, err := c.manager.UpdateWithProgress(cmd.Context(), args[0], reporterCallback(reporter))
	reporter.Finish()
	if err != nil {
		return fmt.Errorf("updating repository: %w", err)
	}

	fmt.Printf("Repository %s updated (%d skill file(s))\n", repo.ID, repo.SkillCount)
	return nil
}

// runRepoUpdateAll drives updates serially; one repository failing must
// not stop the rest.
func runRepoUpdateAll(cmd *cobra.Command, args []string) error {
	c, err := openCore()
	if err != nil {
		return err
	}
	defer c.Close()

	repos, err := c.manager.List(cmd.Context())
	if err != nil {
		return fmt.Errorf("listing repositories: %w", err)
	}
	if len(repos) == 0 {
		fmt.Println("No repositories registered.")
		return nil
	}

	maxAge := time.Duration(c.cfg.AutoUpdateMaxAgeHours) * time.Hour
	failed := 0
	for _, r := range repos {
		repo := r
		if verbose && !gitrepo.ShouldUpdate(&repo, maxAge) {
			fmt.Fprintf(os.Stderr, "%s is fresh, updating anyway\n", repo.ID)
		}
		fmt.Fprintf(os.Stderr, "Updating %s...\n", repo.ID)
		if _, err := c.manager.Update(cmd.Context(), repo.ID); err != nil {
			failed++
			fmt.Fprintf(os.Stderr, "  %s: %v\n", repo.ID, err)
		}
	}

	fmt.Printf("Updated %d/%d repositor(ies)\n", len(repos)-failed, len(repos))
	return nil
}
