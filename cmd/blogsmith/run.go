package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ssohn/blogsmith/internal/archive"
	"github.com/ssohn/blogsmith/internal/pipeline"
	"github.com/ssohn/blogsmith/internal/trends"
	"github.com/ssohn/blogsmith/pkg/types"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the full topic-to-blog-post pipeline",
	Long: `Run processes a batch of topics end to end: create a notebook per
topic, run deep research, import the discovered sources, generate a
blog post, and download it to the output directory. Generated posts are
recorded in the local archive.

Topics come from a topic file (--topics) or straight from the current
trending searches (--from-trends). A failing topic is logged and
skipped; the batch continues.`,
	RunE: runRun,
}

func init() {
	runCmd.Flags().String("topics", "", "topic file to process")
	runCmd.Flags().Bool("from-trends", false, "build topics from current trending searches")
	runCmd.Flags().String("output-dir", "", "directory for downloaded posts (default posts)")
	runCmd.Flags().String("log", "", "tee progress output to this file")
	runCmd.Flags().Bool("no-archive", false, "skip recording the run in the local archive")
	runCmd.Flags().StringSlice("geo", nil, "trend regions for --from-trends (default KR)")
	runCmd.Flags().Int("max-topics", 0, "number of topics for --from-trends (default 2)")
	runCmd.Flags().StringSlice("exclude", nil, "trend exclusion keywords for --from-trends")

	rootCmd.AddCommand(runCmd)
}

// pipelineConfig assembles the full run configuration from config file
// and flags. Zero values are filled by the pipeline's own defaults.
func pipelineConfig(cmd *cobra.Command) types.PipelineConfig {
	cfg := types.PipelineConfig{
		Client: clientConfig(cmd),
		Research: types.ResearchConfig{
			Mode:            viper.GetString("research.mode"),
			StartRetries:    viper.GetInt("research.start_retries"),
			StartRetryDelay: viper.GetDuration("research.start_retry_delay"),
			PollInterval:    viper.GetDuration("research.poll_interval"),
			Deadline:        viper.GetDuration("research.deadline"),
		},
		Report: types.ReportConfig{
			Format:       viper.GetString("report.format"),
			Language:     viper.GetString("report.language"),
			InitialWait:  viper.GetDuration("report.initial_wait"),
			PollInterval: viper.GetDuration("report.poll_interval"),
			Deadline:     viper.GetDuration("report.deadline"),
			OutputDir:    viper.GetString("report.output_dir"),
		},
		Archive: types.ArchiveConfig{
			Dir:        viper.GetString("archive.dir"),
			MaxResults: viper.GetInt("archive.max_results"),
		},
		LogPath: viper.GetString("log_path"),
	}

	if outputDir, _ := cmd.Flags().GetString("output-dir"); outputDir != "" {
		cfg.Report.OutputDir = outputDir
	}
	if logPath, _ := cmd.Flags().GetString("log"); logPath != "" {
		cfg.LogPath = logPath
	}
	if cfg.Archive.Dir == "" {
		cfg.Archive.Dir = "archive"
	}
	return cfg
}

func runRun(cmd *cobra.Command, args []string) error {
	topicsPath, _ := cmd.Flags().GetString("topics")
	fromTrends, _ := cmd.Flags().GetBool("from-trends")
	if topicsPath == "" && !fromTrends {
		return fmt.Errorf("provide --topics or --from-trends")
	}
	if topicsPath != "" && fromTrends {
		return fmt.Errorf("--topics and --from-trends are mutually exclusive")
	}

	cfg := pipelineConfig(cmd)

	// Ctrl-C finishes the current step and stops the batch.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	w, closeLog, err := progressWriter(cfg.LogPath)
	if err != nil {
		return err
	}
	defer closeLog()

	var tf *types.TopicFile
	if fromTrends {
		tf, err = trends.TopicsFromTrends(ctx, webClient(), trendsConfig(cmd), w)
	} else {
		tf, err = trends.ReadTopicFile(topicsPath)
	}
	if err != nil {
		return err
	}

	client, err := newClient(cmd)
	if err != nil {
		return err
	}

	p := pipeline.New(client, webClient(), cfg, w)
	summary := p.Run(ctx, tf.Topics)

	noArchive, _ := cmd.Flags().GetBool("no-archive")
	if !noArchive {
		if err := recordRun(ctx, cfg.Archive, summary); err != nil {
			fmt.Fprintf(w, "warning: archiving run failed: %v\n", err)
		}
	}

	if summary.Generated() == 0 {
		return fmt.Errorf("no posts generated from %d topic(s)", len(tf.Topics))
	}
	return nil
}

// progressWriter returns the run's progress writer, teeing stdout into
// logPath when set.
func progressWriter(logPath string) (io.Writer, func(), error) {
	if logPath == "" {
		return os.Stdout, func() {}, nil
	}
	if dir := filepath.Dir(logPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, nil, fmt.Errorf("creating log directory: %w", err)
		}
	}
	f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("opening log file: %w", err)
	}
	return io.MultiWriter(os.Stdout, f), func() { f.Close() }, nil
}

// recordRun stores the run summary and its generated posts in the
// archive.
func recordRun(ctx context.Context, cfg types.ArchiveConfig, summary pipeline.RunSummary) error {
	store, err := archive.NewStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	var posts []types.Post
	for _, r := range summary.Results {
		if !r.Generated() {
			continue
		}
		posts = append(posts, types.Post{
			ID:         summary.RunID + ":" + r.Topic.Name,
			RunID:      summary.RunID,
			Topic:      r.Topic.Name,
			NotebookID: r.NotebookID,
			ArtifactID: r.ArtifactID,
			Path:       r.OutputPath,
			Chars:      r.Chars,
			CreatedAt:  time.Now(),
		})
	}

	run := archive.RunRecord{
		ID:        summary.RunID,
		Started:   summary.Started,
		Finished:  summary.Finished,
		Topics:    len(summary.Results),
		Generated: summary.Generated(),
	}
	return store.RecordRun(ctx, run, posts)
}
