package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ssohn/blogsmith/internal/trends"
	"github.com/ssohn/blogsmith/pkg/types"
)

var trendsCmd = &cobra.Command{
	Use:   "trends",
	Short: "Fetch trending topics and build a topic file",
	Long: `Trends pulls the current trending searches for the configured regions,
filters and deduplicates them, and turns the top entries into research
topics. Write the result to a topic file with --out and feed it to run,
or review it on stdout first.`,
	RunE: runTrends,
}

func init() {
	trendsCmd.Flags().StringSlice("geo", nil, "trend regions to fetch (default KR)")
	trendsCmd.Flags().Int("max-topics", 0, "number of topics to select (default 2)")
	trendsCmd.Flags().StringSlice("exclude", nil, "skip trends whose title contains one of these keywords")
	trendsCmd.Flags().String("out", "", "write the topic file to this path")

	rootCmd.AddCommand(trendsCmd)
}

func trendsConfig(cmd *cobra.Command) types.TrendsConfig {
	geos, _ := cmd.Flags().GetStringSlice("geo")
	if len(geos) == 0 {
		geos = viper.GetStringSlice("trends.geos")
	}
	maxTopics, _ := cmd.Flags().GetInt("max-topics")
	if maxTopics == 0 {
		maxTopics = viper.GetInt("trends.max_topics")
	}
	exclude, _ := cmd.Flags().GetStringSlice("exclude")
	if len(exclude) == 0 {
		exclude = viper.GetStringSlice("trends.exclude")
	}

	return types.TrendsConfig{
		HTTPConfig: types.HTTPConfig{
			Timeout:   defaultTimeout,
			UserAgent: defaultUserAgent,
		},
		Geos:      geos,
		MaxTopics: maxTopics,
		Exclude:   exclude,
	}
}

func runTrends(cmd *cobra.Command, args []string) error {
	cfg := trendsConfig(cmd)

	tf, err := trends.TopicsFromTrends(context.Background(), webClient(), cfg, os.Stderr)
	if err != nil {
		return err
	}

	for i, topic := range tf.Topics {
		fmt.Printf("%d. %s\n   query: %s\n", i+1, topic.Name, topic.Query)
	}

	out, _ := cmd.Flags().GetString("out")
	if out == "" {
		return nil
	}
	if err := trends.WriteTopicFile(out, tf); err != nil {
		return err
	}
	fmt.Printf("\nWrote %d topic(s) to %s\n", len(tf.Topics), out)
	return nil
}
