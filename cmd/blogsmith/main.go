// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the blogsmith CLI.
package main

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ssohn/blogsmith/internal/auth"
	"github.com/ssohn/blogsmith/internal/notebook"
	"github.com/ssohn/blogsmith/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

const (
	defaultTimeout   = 60 * time.Second
	defaultUserAgent = "blogsmith/0.1"
)

// rootCmd is the base command for the blogsmith CLI.
var rootCmd = &cobra.Command{
	Use:   "blogsmith",
	Short: "Automated blog post generation from notebook deep research",
	Long: `blogsmith turns trending topics into Korean blog posts through a remote
notebook research service: it creates a notebook per topic, runs deep
research, imports the discovered sources, and generates and downloads a
blog post. Generated posts are archived in a local searchable index.

Each stage is a subcommand: trends, notebook, research, report, and posts.
The run command chains all stages for a batch of topics.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// A local .env is optional; absence is not an error.
		if err := godotenv.Load(); err == nil {
			fmt.Fprintln(os.Stderr, "Loaded environment from .env")
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./blogsmith.yaml or ~/.config/blogsmith/config.yaml)")
	rootCmd.PersistentFlags().String("tokens", "", "cached credentials file (default: ~/"+auth.DefaultTokensPath+")")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("blogsmith")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "blogsmith"))
		}
	}

	viper.SetEnvPrefix("BLOGSMITH")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// clientConfig assembles the notebook client settings from config file,
// environment, and the shared --tokens flag.
func clientConfig(cmd *cobra.Command) types.ClientConfig {
	tokensPath, _ := cmd.Flags().GetString("tokens")
	if tokensPath == "" {
		tokensPath = viper.GetString("client.tokens_path")
	}

	timeout := viper.GetDuration("client.timeout")
	if timeout == 0 {
		timeout = defaultTimeout
	}
	maxRetries := viper.GetInt("client.max_retries")
	if maxRetries == 0 {
		maxRetries = 5
	}

	return types.ClientConfig{
		HTTPConfig: types.HTTPConfig{
			Timeout:   timeout,
			UserAgent: defaultUserAgent,
		},
		BaseURL:    viper.GetString("client.base_url"),
		TokensPath: tokensPath,
		MaxRetries: maxRetries,
	}
}

// newClient loads credentials and constructs the notebook service client.
func newClient(cmd *cobra.Command) (*notebook.Client, error) {
	cfg := clientConfig(cmd)
	tokens, err := auth.LoadTokens(cfg.TokensPath)
	if err != nil {
		return nil, err
	}
	return notebook.New(tokens, cfg)
}

// webClient is the plain HTTP client for non-service requests (trend
// feeds, seed page titles).
func webClient() *http.Client {
	return &http.Client{Timeout: defaultTimeout}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
