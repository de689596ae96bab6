package types

import "time"

// HTTPConfig holds shared HTTP settings used by stages that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "blogsmith/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// ClientConfig holds settings for the notebook service client.
type ClientConfig struct {
	HTTPConfig `yaml:",inline"`

	// BaseURL is the notebook service endpoint. Empty uses the production URL.
	BaseURL string `json:"base_url,omitempty" yaml:"base_url,omitempty"`

	// TokensPath is the path to the cached credentials file
	// (default ~/.blogsmith/tokens.json).
	TokensPath string `json:"tokens_path,omitempty" yaml:"tokens_path,omitempty"`

	// MaxRetries is the retry budget for rate-limited requests (default 5).
	MaxRetries int `json:"max_retries" yaml:"max_retries"`
}

// ResearchConfig holds settings for the deep research stage.
type ResearchConfig struct {
	// Mode selects the research depth ("deep" or "fast", default "deep").
	Mode string `json:"mode" yaml:"mode"`

	// StartRetries is the number of attempts for starting a research job
	// before the topic is abandoned (default 3).
	StartRetries int `json:"start_retries" yaml:"start_retries"`

	// StartRetryDelay is the fixed sleep between start attempts (default 10s).
	StartRetryDelay time.Duration `json:"start_retry_delay" yaml:"start_retry_delay"`

	// PollInterval is the delay between research status checks (default 25s).
	PollInterval time.Duration `json:"poll_interval" yaml:"poll_interval"`

	// Deadline is the wall-clock budget for research completion (default 8m).
	Deadline time.Duration `json:"deadline" yaml:"deadline"`
}

// ReportConfig holds settings for report generation and download.
type ReportConfig struct {
	// Format is the report type requested from the service (default "Blog Post").
	Format string `json:"format" yaml:"format"`

	// Language is the generation language code (default "ko").
	Language string `json:"language" yaml:"language"`

	// InitialWait is the grace period before the first download attempt;
	// generation never finishes faster than this (default 60s).
	InitialWait time.Duration `json:"initial_wait" yaml:"initial_wait"`

	// PollInterval is the delay between download attempts (default 20s).
	PollInterval time.Duration `json:"poll_interval" yaml:"poll_interval"`

	// Deadline is the wall-clock budget for artifact readiness (default 5m).
	Deadline time.Duration `json:"deadline" yaml:"deadline"`

	// OutputDir is the directory for downloaded posts (default "posts").
	OutputDir string `json:"output_dir" yaml:"output_dir"`
}

// TrendsConfig holds settings for the trending-topics stage.
type TrendsConfig struct {
	HTTPConfig `yaml:",inline"`

	// Geos lists the Google Trends geo codes to fetch (default ["KR"]).
	Geos []string `json:"geos" yaml:"geos"`

	// MaxTopics is the number of topics to select (default 2).
	MaxTopics int `json:"max_topics" yaml:"max_topics"`

	// Exclude lists keywords; a trend whose title contains one is skipped.
	Exclude []string `json:"exclude,omitempty" yaml:"exclude,omitempty"`
}

// ArchiveConfig holds settings for the local post archive.
type ArchiveConfig struct {
	// Dir is the base directory for the archive database (contains index/).
	Dir string `json:"dir" yaml:"dir"`

	// MaxResults is the default maximum number of search results (default 20).
	MaxResults int `json:"max_results" yaml:"max_results"`
}

// PipelineConfig groups all stage configurations for a full run.
type PipelineConfig struct {
	Client   ClientConfig   `json:"client" yaml:"client"`
	Research ResearchConfig `json:"research" yaml:"research"`
	Report   ReportConfig   `json:"report" yaml:"report"`
	Trends   TrendsConfig   `json:"trends" yaml:"trends"`
	Archive  ArchiveConfig  `json:"archive" yaml:"archive"`

	// LogPath is an optional UTF-8 log file; progress output is teed there.
	LogPath string `json:"log_path,omitempty" yaml:"log_path,omitempty"`
}
