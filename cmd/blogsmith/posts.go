package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ssohn/blogsmith/internal/archive"
	"github.com/ssohn/blogsmith/pkg/types"
)

var postsCmd = &cobra.Command{
	Use:   "posts",
	Short: "Index and search the local post archive",
}

// --- index subcommand ---

var postsIndexCmd = &cobra.Command{
	Use:   "index",
	Short: "Index downloaded posts into the archive",
	Long: `Index scans the posts directory for downloaded blog posts and adds
their bodies to the archive's full-text index. Unchanged files are
skipped on subsequent runs.`,
	RunE: runPostsIndex,
}

func runPostsIndex(cmd *cobra.Command, args []string) error {
	store, err := openArchive(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	postsDir, _ := cmd.Flags().GetString("posts-dir")
	summary, err := store.IndexDir(context.Background(), postsDir, os.Stdout)
	if err != nil {
		return err
	}
	if summary.Failed > 0 {
		return fmt.Errorf("%d post(s) failed indexing", summary.Failed)
	}
	return nil
}

// --- search subcommand ---

var postsSearchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search archived posts with full-text search and filters",
	RunE:  runPostsSearch,
}

func runPostsSearch(cmd *cobra.Command, args []string) error {
	store, err := openArchive(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	topic, _ := cmd.Flags().GetString("topic")
	runID, _ := cmd.Flags().GetString("run")
	limit, _ := cmd.Flags().GetInt("limit")

	opts := archive.QueryOptions{
		Query:      strings.Join(args, " "),
		Topic:      topic,
		RunID:      runID,
		MaxResults: limit,
	}
	if opts.IsEmpty() {
		return fmt.Errorf("query or filter required: provide a search query, --topic, or --run")
	}

	results, err := store.Search(context.Background(), opts)
	if err != nil {
		return err
	}

	jsonOutput, _ := cmd.Flags().GetBool("json")
	return formatSearchOutput(results, jsonOutput)
}

func formatSearchOutput(results []archive.SearchResult, jsonOutput bool) error {
	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}

	if len(results) == 0 {
		fmt.Println("No results found.")
		return nil
	}

	for i, r := range results {
		fmt.Printf("%d. %s  (%d chars, %s)\n", i+1, r.Topic, r.Chars, r.CreatedAt.Format("2006-01-02"))
		fmt.Printf("   %s\n", r.Path)
		if r.Snippet != "" {
			fmt.Printf("   %s\n", r.Snippet)
		}
	}
	fmt.Printf("\n%d result(s)\n", len(results))
	return nil
}

// --- runs subcommand ---

var postsRunsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List recorded pipeline runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openArchive(cmd)
		if err != nil {
			return err
		}
		defer store.Close()

		limit, _ := cmd.Flags().GetInt("limit")
		runs, err := store.Runs(context.Background(), limit)
		if err != nil {
			return err
		}

		if len(runs) == 0 {
			fmt.Println("No runs recorded.")
			return nil
		}
		for _, r := range runs {
			fmt.Printf("%-36s  %s  %d/%d generated\n",
				r.ID, r.Started.Format("2006-01-02 15:04"), r.Generated, r.Topics)
		}
		return nil
	},
}

// --- shared helpers ---

func openArchive(cmd *cobra.Command) (*archive.Store, error) {
	dir, _ := cmd.Flags().GetString("archive-dir")
	if dir == "" {
		dir = viper.GetString("archive.dir")
	}
	if dir == "" {
		dir = "archive"
	}
	maxResults, _ := cmd.Flags().GetInt("max-results")
	if maxResults == 0 {
		maxResults = viper.GetInt("archive.max_results")
	}

	return archive.NewStore(types.ArchiveConfig{Dir: dir, MaxResults: maxResults})
}

func init() {
	postsCmd.PersistentFlags().String("archive-dir", "", "base directory for the archive database (default archive)")
	postsCmd.PersistentFlags().Int("max-results", 0, "default maximum number of search results")

	postsIndexCmd.Flags().String("posts-dir", "posts", "directory holding downloaded posts")

	postsSearchCmd.Flags().String("topic", "", "filter by topic name")
	postsSearchCmd.Flags().String("run", "", "filter by run ID")
	postsSearchCmd.Flags().Int("limit", 0, "maximum results (0 = use default)")
	postsSearchCmd.Flags().Bool("json", false, "output results as JSON")

	postsRunsCmd.Flags().Int("limit", 0, "maximum runs to list (0 = use default)")

	postsCmd.AddCommand(postsIndexCmd)
	postsCmd.AddCommand(postsSearchCmd)
	postsCmd.AddCommand(postsRunsCmd)

	rootCmd.AddCommand(postsCmd)
}
