package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ssohn/blogsmith/internal/notebook"
	"github.com/ssohn/blogsmith/internal/poll"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Generate and download blog post artifacts",
}

// --- generate subcommand ---

var reportGenerateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Request blog post generation on a notebook",
	Long: `Generate requests a report artifact from the notebook's sources.
Generation runs asynchronously on the service; download the result with
report download once it is ready, or pass --wait to block and save it
in one step.`,
	RunE: runReportGenerate,
}

func runReportGenerate(cmd *cobra.Command, args []string) error {
	notebookID, _ := cmd.Flags().GetString("notebook")
	if notebookID == "" {
		return fmt.Errorf("--notebook is required")
	}
	format, _ := cmd.Flags().GetString("format")
	language, _ := cmd.Flags().GetString("language")
	wait, _ := cmd.Flags().GetBool("wait")

	client, err := newClient(cmd)
	if err != nil {
		return err
	}

	ctx := context.Background()
	artifact, err := client.CreateReport(ctx, notebookID, format, language)
	if err != nil {
		return err
	}
	fmt.Printf("Generation started: artifact %s\n", artifact.ID)

	if !wait {
		return nil
	}

	content, err := awaitReportContent(ctx, client, notebookID, artifact.ID)
	if err != nil {
		return err
	}
	return saveReport(cmd, content)
}

// --- download subcommand ---

var reportDownloadCmd = &cobra.Command{
	Use:   "download",
	Short: "Download a generated artifact",
	RunE: func(cmd *cobra.Command, args []string) error {
		notebookID, _ := cmd.Flags().GetString("notebook")
		if notebookID == "" {
			return fmt.Errorf("--notebook is required")
		}
		artifactID, _ := cmd.Flags().GetString("artifact")

		client, err := newClient(cmd)
		if err != nil {
			return err
		}

		ctx := context.Background()
		if artifactID == "" {
			// Fall back to the newest ready artifact on the notebook.
			artifacts, err := client.PollStudio(ctx, notebookID)
			if err != nil {
				return err
			}
			for _, a := range artifacts {
				if a.Ready() {
					artifactID = a.ID
					break
				}
			}
			if artifactID == "" {
				return fmt.Errorf("no ready artifact on notebook %s: pass --artifact or wait for generation", notebookID)
			}
		}

		content, err := client.DownloadReport(ctx, notebookID, artifactID)
		if err != nil {
			return err
		}
		return saveReport(cmd, content)
	},
}

// awaitReportContent waits out the generation grace period, then polls
// the download until the body arrives.
func awaitReportContent(ctx context.Context, client *notebook.Client, notebookID, artifactID string) (string, error) {
	initialWait := viper.GetDuration("report.initial_wait")
	if initialWait <= 0 {
		initialWait = 60 * time.Second
	}
	interval := viper.GetDuration("report.poll_interval")
	if interval <= 0 {
		interval = 20 * time.Second
	}
	deadline := viper.GetDuration("report.deadline")
	if deadline <= 0 {
		deadline = 5 * time.Minute
	}

	fmt.Printf("Waiting %s for generation...\n", initialWait)
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case <-time.After(initialWait):
	}

	res := poll.Until(ctx,
		func(ctx context.Context) (string, error) {
			return client.DownloadReport(ctx, notebookID, artifactID)
		},
		func(content string) bool { return content != "" },
		nil,
		poll.Options{Interval: interval, Deadline: deadline})

	if res.Outcome != poll.Success {
		return "", fmt.Errorf("download %s after %d attempt(s)", res.Outcome, res.Attempts)
	}
	return res.Payload, nil
}

// saveReport writes content to --output, or stdout when unset.
func saveReport(cmd *cobra.Command, content string) error {
	output, _ := cmd.Flags().GetString("output")
	if output == "" {
		fmt.Print(content)
		return nil
	}
	if dir := filepath.Dir(output); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating output directory: %w", err)
		}
	}
	if err := os.WriteFile(output, []byte(content), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", output, err)
	}
	fmt.Fprintf(os.Stderr, "Saved %s (%d chars)\n", output, len([]rune(content)))
	return nil
}

func init() {
	reportCmd.PersistentFlags().String("notebook", "", "notebook ID")
	reportCmd.PersistentFlags().String("output", "", "write the post to this file instead of stdout")

	reportGenerateCmd.Flags().String("format", "Blog Post", "report format requested from the service")
	reportGenerateCmd.Flags().String("language", "ko", "generation language code")
	reportGenerateCmd.Flags().Bool("wait", false, "block until the artifact is ready and save it")

	reportDownloadCmd.Flags().String("artifact", "", "artifact ID (default: newest ready artifact)")

	reportCmd.AddCommand(reportGenerateCmd)
	reportCmd.AddCommand(reportDownloadCmd)

	rootCmd.AddCommand(reportCmd)
}
