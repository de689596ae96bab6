// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pipeline runs the full topic-to-blog-post sequence against the
// notebook service: create a notebook, seed sources, run deep research,
// import the discovered sources, generate a Korean blog post, and
// download the result. Topics are processed sequentially; a failing topic
// is logged and skipped, never aborting the batch.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ssohn/blogsmith/internal/notebook"
	"github.com/ssohn/blogsmith/internal/poll"
	"github.com/ssohn/blogsmith/pkg/types"
)

// Service is the slice of the notebook client the pipeline drives.
type Service interface {
	CreateNotebook(ctx context.Context, title string) (types.Notebook, error)
	AddURLSource(ctx context.Context, notebookID, pageURL, title string) error
	StartResearch(ctx context.Context, notebookID, query, mode string) (types.ResearchTask, error)
	PollResearch(ctx context.Context, notebookID string) (types.ResearchStatus, error)
	ImportSources(ctx context.Context, notebookID, taskID string, sources []types.Source) error
	CreateReport(ctx context.Context, notebookID, format, language string) (types.Artifact, error)
	DownloadReport(ctx context.Context, notebookID, artifactID string) (string, error)
}

// seedSourceDelay paces seed-URL attachment; the service drops sources
// added back-to-back. Tests override this.
var seedSourceDelay = 3 * time.Second

// notebookTitleLimit is the longest title the service accepts.
const notebookTitleLimit = 40

// TopicResult records the outcome of one topic.
type TopicResult struct {
	Topic      types.Topic
	NotebookID string
	TaskID     string
	ArtifactID string
	Sources    int
	OutputPath string
	Chars      int

	// Err is non-nil when the topic was abandoned, wrapping the failing
	// stage's error.
	Err error
}

// Generated reports whether the topic produced a downloaded post.
func (r TopicResult) Generated() bool {
	return r.Err == nil && r.OutputPath != ""
}

// RunSummary is the outcome of a batch run.
type RunSummary struct {
	RunID    string
	Started  time.Time
	Finished time.Time
	Results  []TopicResult
}

// Generated counts topics that produced a post.
func (s RunSummary) Generated() int {
	n := 0
	for _, r := range s.Results {
		if r.Generated() {
			n++
		}
	}
	return n
}

// Pipeline drives the per-topic sequence.
type Pipeline struct {
	svc Service
	web *http.Client
	cfg types.PipelineConfig
	w   io.Writer
}

// New constructs a Pipeline. web is used only for resolving seed-URL page
// titles and may be nil to skip title resolution. Zero config values are
// filled with the defaults the operation settled on.
func New(svc Service, web *http.Client, cfg types.PipelineConfig, w io.Writer) *Pipeline {
	applyDefaults(&cfg)
	return &Pipeline{svc: svc, web: web, cfg: cfg, w: w}
}

func applyDefaults(cfg *types.PipelineConfig) {
	r := &cfg.Research
	if r.Mode == "" {
		r.Mode = "deep"
	}
	if r.StartRetries <= 0 {
		r.StartRetries = 3
	}
	if r.StartRetryDelay <= 0 {
		r.StartRetryDelay = 10 * time.Second
	}
	if r.PollInterval <= 0 {
		r.PollInterval = 25 * time.Second
	}
	if r.Deadline <= 0 {
		r.Deadline = 8 * time.Minute
	}

	rep := &cfg.Report
	if rep.Format == "" {
		rep.Format = "Blog Post"
	}
	if rep.Language == "" {
		rep.Language = "ko"
	}
	if rep.InitialWait <= 0 {
		rep.InitialWait = 60 * time.Second
	}
	if rep.PollInterval <= 0 {
		rep.PollInterval = 20 * time.Second
	}
	if rep.Deadline <= 0 {
		rep.Deadline = 5 * time.Minute
	}
	if rep.OutputDir == "" {
		rep.OutputDir = "posts"
	}
}

// Run processes topics sequentially and returns a summary. Individual
// topic failures are logged and do not stop the batch.
func (p *Pipeline) Run(ctx context.Context, topics []types.Topic) RunSummary {
	summary := RunSummary{
		RunID:   uuid.NewString(),
		Started: time.Now(),
	}

	for i, topic := range topics {
		fmt.Fprintf(p.w, "\n%s\n[TOPIC %d/%d] %s\n%s\n",
			strings.Repeat("=", 60), i+1, len(topics), topic.Name, strings.Repeat("=", 60))

		result := p.RunTopic(ctx, topic)
		if result.Err != nil {
			fmt.Fprintf(p.w, "  abandoned: %v\n", result.Err)
		}
		summary.Results = append(summary.Results, result)

		if ctx.Err() != nil {
			break
		}
	}

	summary.Finished = time.Now()

	fmt.Fprintf(p.w, "\n%s\nSUMMARY\n%s\n", strings.Repeat("=", 60), strings.Repeat("=", 60))
	for _, r := range summary.Results {
		if r.Generated() {
			fmt.Fprintf(p.w, "  ok   %s: %s (%d chars)\n", r.Topic.Name, r.OutputPath, r.Chars)
		} else {
			fmt.Fprintf(p.w, "  fail %s\n", r.Topic.Name)
		}
	}
	fmt.Fprintf(p.w, "\nTotal: %d/%d posts generated\n", summary.Generated(), len(topics))

	return summary
}

// RunTopic runs the full sequence for one topic.
func (p *Pipeline) RunTopic(ctx context.Context, topic types.Topic) TopicResult {
	result := TopicResult{Topic: topic}

	// 1. Notebook.
	fmt.Fprintf(p.w, "[1/5] Creating notebook...\n")
	nb, err := p.svc.CreateNotebook(ctx, truncateTitle(topic.Name))
	if err != nil {
		result.Err = fmt.Errorf("creating notebook: %w", err)
		return result
	}
	result.NotebookID = nb.ID
	fmt.Fprintf(p.w, "  notebook: %s\n", nb.ID)

	// Seed URLs before research so generation can cite them.
	if len(topic.SeedURLs) > 0 {
		p.seedSources(ctx, nb.ID, topic.SeedURLs)
	}

	// 2. Research start, with a small fixed retry budget.
	fmt.Fprintf(p.w, "[2/5] Starting %s research...\n", p.cfg.Research.Mode)
	task, err := p.startResearch(ctx, nb.ID, topic.Query)
	if err != nil {
		result.Err = fmt.Errorf("starting research: %w", err)
		return result
	}
	result.TaskID = task.TaskID
	fmt.Fprintf(p.w, "  task: %s\n", task.TaskID)

	// 3. Poll until the research completes, fails, or times out.
	fmt.Fprintf(p.w, "[3/5] Polling research status (max %s)...\n", p.cfg.Research.Deadline)
	status, err := p.awaitResearch(ctx, nb.ID)
	if err != nil {
		result.Err = err
		return result
	}
	result.Sources = len(status.Sources)

	// 4. Import discovered sources. A failed import degrades generation
	// quality but does not abandon the topic.
	fmt.Fprintf(p.w, "[4/5] Importing %d sources...\n", len(status.Sources))
	if len(status.Sources) == 0 {
		fmt.Fprintf(p.w, "  skipping import (no sources)\n")
	} else if err := p.svc.ImportSources(ctx, nb.ID, task.TaskID, status.Sources); err != nil {
		fmt.Fprintf(p.w, "  warning: import failed: %v\n", err)
	}

	// 5. Generate and download the post.
	fmt.Fprintf(p.w, "[5/5] Generating %s post (%s)...\n", p.cfg.Report.Language, p.cfg.Report.Format)
	artifact, err := p.svc.CreateReport(ctx, nb.ID, p.cfg.Report.Format, p.cfg.Report.Language)
	if err != nil {
		result.Err = fmt.Errorf("creating report: %w", err)
		return result
	}
	result.ArtifactID = artifact.ID
	fmt.Fprintf(p.w, "  artifact: %s\n", artifact.ID)

	content, err := p.awaitDownload(ctx, nb.ID, artifact.ID)
	if err != nil {
		result.Err = err
		return result
	}

	path, err := p.writePost(topic.Name, content)
	if err != nil {
		result.Err = err
		return result
	}
	result.OutputPath = path
	result.Chars = len([]rune(content))
	fmt.Fprintf(p.w, "  downloaded: %s (%d chars)\n", path, result.Chars)

	return result
}

// startResearch attempts the research start up to the configured retry
// budget with a fixed sleep between attempts.
func (p *Pipeline) startResearch(ctx context.Context, notebookID, query string) (types.ResearchTask, error) {
	var lastErr error
	for attempt := 1; attempt <= p.cfg.Research.StartRetries; attempt++ {
		task, err := p.svc.StartResearch(ctx, notebookID, query, p.cfg.Research.Mode)
		if err == nil {
			return task, nil
		}
		lastErr = err
		fmt.Fprintf(p.w, "  attempt %d/%d failed: %v\n", attempt, p.cfg.Research.StartRetries, err)

		if attempt < p.cfg.Research.StartRetries {
			if err := sleep(ctx, p.cfg.Research.StartRetryDelay); err != nil {
				return types.ResearchTask{}, err
			}
		}
	}
	return types.ResearchTask{}, fmt.Errorf("after %d attempts: %w", p.cfg.Research.StartRetries, lastErr)
}

// awaitResearch polls the research job. A timeout with partial sources
// proceeds best effort; a timeout with nothing, or a failed job, abandons
// the topic.
func (p *Pipeline) awaitResearch(ctx context.Context, notebookID string) (types.ResearchStatus, error) {
	res := poll.Until(ctx,
		func(ctx context.Context) (types.ResearchStatus, error) {
			return p.svc.PollResearch(ctx, notebookID)
		},
		types.ResearchStatus.Done,
		func(s types.ResearchStatus) (string, bool) {
			if s.State == types.ResearchFailed {
				return s.Detail, true
			}
			return "", false
		},
		poll.Options{
			Interval: p.cfg.Research.PollInterval,
			Deadline: p.cfg.Research.Deadline,
		})

	switch res.Outcome {
	case poll.Success:
		fmt.Fprintf(p.w, "  completed after %d checks (%d sources)\n", res.Attempts, len(res.Payload.Sources))
		return res.Payload, nil
	case poll.Failed:
		return types.ResearchStatus{}, fmt.Errorf("%w: %s", notebook.ErrResearchFailed, res.Reason)
	default:
		if n := len(res.Payload.Sources); n > 0 {
			fmt.Fprintf(p.w, "  timeout after %s; proceeding with %d partial sources\n", res.Elapsed.Round(time.Second), n)
			return res.Payload, nil
		}
		return types.ResearchStatus{}, fmt.Errorf("research timed out after %s with no sources", res.Elapsed.Round(time.Second))
	}
}

// awaitDownload waits out the generation grace period, then polls the
// download until the artifact body arrives. Not-ready and transient
// errors are both retried inside the deadline.
func (p *Pipeline) awaitDownload(ctx context.Context, notebookID, artifactID string) (string, error) {
	fmt.Fprintf(p.w, "  waiting %s for generation...\n", p.cfg.Report.InitialWait)
	if err := sleep(ctx, p.cfg.Report.InitialWait); err != nil {
		return "", err
	}

	res := poll.Until(ctx,
		func(ctx context.Context) (string, error) {
			return p.svc.DownloadReport(ctx, notebookID, artifactID)
		},
		func(content string) bool { return content != "" },
		nil,
		poll.Options{
			Interval: p.cfg.Report.PollInterval,
			Deadline: p.cfg.Report.Deadline,
		})

	if res.Outcome != poll.Success {
		return "", fmt.Errorf("download %s after %d attempts", res.Outcome, res.Attempts)
	}
	return res.Payload, nil
}

// writePost saves the post body under the output directory as UTF-8
// markdown.
func (p *Pipeline) writePost(topicName, content string) (string, error) {
	if err := os.MkdirAll(p.cfg.Report.OutputDir, 0o755); err != nil {
		return "", fmt.Errorf("creating output directory: %w", err)
	}
	path := filepath.Join(p.cfg.Report.OutputDir, topicName+"_blog.md")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("writing post: %w", err)
	}
	return path, nil
}

func truncateTitle(name string) string {
	runes := []rune(name)
	if len(runes) > notebookTitleLimit {
		runes = runes[:notebookTitleLimit]
	}
	return string(runes)
}

// sleep blocks for d or until ctx is cancelled.
func sleep(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
