package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ssohn/blogsmith/internal/notebook"
	"github.com/ssohn/blogsmith/internal/poll"
	"github.com/ssohn/blogsmith/pkg/types"
)

var researchCmd = &cobra.Command{
	Use:   "research",
	Short: "Drive deep research jobs on a notebook",
}

// --- start subcommand ---

var researchStartCmd = &cobra.Command{
	Use:   "start <query...>",
	Short: "Start a research job on a notebook",
	Long: `Start submits a research query to a notebook. The service runs the
research asynchronously; poll with research status, or pass --wait to
block until the job reaches a terminal state.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runResearchStart,
}

func runResearchStart(cmd *cobra.Command, args []string) error {
	notebookID, _ := cmd.Flags().GetString("notebook")
	if notebookID == "" {
		return fmt.Errorf("--notebook is required")
	}
	mode, _ := cmd.Flags().GetString("mode")
	wait, _ := cmd.Flags().GetBool("wait")

	client, err := newClient(cmd)
	if err != nil {
		return err
	}

	ctx := context.Background()
	task, err := client.StartResearch(ctx, notebookID, strings.Join(args, " "), mode)
	if err != nil {
		return err
	}
	fmt.Printf("Research started: task %s\n", task.TaskID)

	if !wait {
		return nil
	}
	status, err := awaitResearchStatus(ctx, client, notebookID)
	if err != nil {
		return err
	}
	fmt.Printf("Research %s: %d source(s)\n", status.State, len(status.Sources))
	return nil
}

// --- status subcommand ---

var researchStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the research state of a notebook",
	RunE: func(cmd *cobra.Command, args []string) error {
		notebookID, _ := cmd.Flags().GetString("notebook")
		if notebookID == "" {
			return fmt.Errorf("--notebook is required")
		}

		client, err := newClient(cmd)
		if err != nil {
			return err
		}
		status, err := client.PollResearch(context.Background(), notebookID)
		if err != nil {
			return err
		}

		fmt.Printf("State: %s\n", status.State)
		if status.Detail != "" {
			fmt.Printf("Detail: %s\n", status.Detail)
		}
		fmt.Printf("Sources: %d\n", len(status.Sources))
		for _, src := range status.Sources {
			fmt.Printf("  %-36s  %s\n", src.ID, src.URL)
		}
		return nil
	},
}

// --- import subcommand ---

var researchImportCmd = &cobra.Command{
	Use:   "import",
	Short: "Import discovered sources into a notebook",
	Long: `Import fetches the current research result for a notebook and imports
the discovered sources so generation can cite them. The research must
have produced at least one source.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		notebookID, _ := cmd.Flags().GetString("notebook")
		if notebookID == "" {
			return fmt.Errorf("--notebook is required")
		}
		taskID, _ := cmd.Flags().GetString("task")

		client, err := newClient(cmd)
		if err != nil {
			return err
		}

		ctx := context.Background()
		status, err := client.PollResearch(ctx, notebookID)
		if err != nil {
			return err
		}
		if len(status.Sources) == 0 {
			return fmt.Errorf("research has produced no sources yet (state: %s)", status.State)
		}

		if err := client.ImportSources(ctx, notebookID, taskID, status.Sources); err != nil {
			return err
		}
		fmt.Printf("Imported %d source(s)\n", len(status.Sources))
		return nil
	},
}

// researchWaitConfig reads the polling knobs, falling back to the same
// defaults the pipeline uses.
func researchWaitConfig() types.ResearchConfig {
	cfg := types.ResearchConfig{
		PollInterval: viper.GetDuration("research.poll_interval"),
		Deadline:     viper.GetDuration("research.deadline"),
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 25 * time.Second
	}
	if cfg.Deadline <= 0 {
		cfg.Deadline = 8 * time.Minute
	}
	return cfg
}

func awaitResearchStatus(ctx context.Context, client *notebook.Client, notebookID string) (types.ResearchStatus, error) {
	cfg := researchWaitConfig()
	res := poll.Until(ctx,
		func(ctx context.Context) (types.ResearchStatus, error) {
			return client.PollResearch(ctx, notebookID)
		},
		types.ResearchStatus.Done,
		func(s types.ResearchStatus) (string, bool) {
			if s.State == types.ResearchFailed {
				return s.Detail, true
			}
			return "", false
		},
		poll.Options{Interval: cfg.PollInterval, Deadline: cfg.Deadline})

	switch res.Outcome {
	case poll.Success:
		return res.Payload, nil
	case poll.Failed:
		return types.ResearchStatus{}, fmt.Errorf("%w: %s", notebook.ErrResearchFailed, res.Reason)
	default:
		return types.ResearchStatus{}, fmt.Errorf("research timed out after %s", res.Elapsed.Round(time.Second))
	}
}

func init() {
	researchCmd.PersistentFlags().String("notebook", "", "notebook ID")

	researchStartCmd.Flags().String("mode", "deep", "research mode: deep or fast")
	researchStartCmd.Flags().Bool("wait", false, "block until the research reaches a terminal state")

	researchImportCmd.Flags().String("task", "", "research task ID (optional)")

	researchCmd.AddCommand(researchStartCmd)
	researchCmd.AddCommand(researchStatusCmd)
	researchCmd.AddCommand(researchImportCmd)

	rootCmd.AddCommand(researchCmd)
}
