// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package trends fetches Google Trends RSS feeds and turns trending
// searches into pipeline topics.
package trends

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/mmcdole/gofeed"
	"golang.org/x/sync/errgroup"

	"github.com/ssohn/blogsmith/internal/httputil"
	"github.com/ssohn/blogsmith/pkg/types"
)

// feedURLPattern is the Google Trends daily-trends RSS endpoint. Declared
// as a var so tests can substitute an httptest server.
var feedURLPattern = "https://trends.google.com/trending/rss?geo=%s"

// Trend is one trending search parsed from a feed.
type Trend struct {
	// Title is the trending search phrase.
	Title string

	// Traffic is the approximate search volume (e.g. 200000 for "200K+").
	// Zero when the feed omits it.
	Traffic int

	// Geo is the region code the trend was fetched for.
	Geo string
}

// Fetch retrieves trending searches for every configured geo concurrently
// and returns them merged, highest traffic first. A failing feed degrades
// the result and is reported on w; only all feeds failing is an error.
func Fetch(ctx context.Context, client *http.Client, cfg types.TrendsConfig, w io.Writer) ([]Trend, error) {
	geos := cfg.Geos
	if len(geos) == 0 {
		geos = []string{"KR"}
	}

	var (
		mu  sync.Mutex
		all []Trend
	)

	g, ctx := errgroup.WithContext(ctx)
	for _, geo := range geos {
		geo := geo
		g.Go(func() error {
			trends, err := fetchGeo(ctx, client, geo, cfg)
			if err != nil {
				fmt.Fprintf(w, "warning: trends feed %s failed: %v\n", geo, err)
				return nil
			}
			mu.Lock()
			all = append(all, trends...)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if len(all) == 0 {
		return nil, fmt.Errorf("no trends retrieved from any geo (%s)", strings.Join(geos, ", "))
	}

	sort.SliceStable(all, func(i, j int) bool {
		return all[i].Traffic > all[j].Traffic
	})
	return all, nil
}

// fetchGeo retrieves and parses one geo's RSS feed.
func fetchGeo(ctx context.Context, client *http.Client, geo string, cfg types.TrendsConfig) ([]Trend, error) {
	url := fmt.Sprintf(feedURLPattern, geo)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", cfg.UserAgent)

	resp, err := httputil.DoWithRetry(ctx, client, req, 0)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	fp := gofeed.NewParser()
	feed, err := fp.Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("RSS parse failed: %w", err)
	}
	if len(feed.Items) == 0 {
		return nil, fmt.Errorf("no items in trends feed")
	}

	trends := make([]Trend, 0, len(feed.Items))
	for _, item := range feed.Items {
		title := strings.TrimSpace(item.Title)
		if title == "" {
			continue
		}
		trends = append(trends, Trend{
			Title:   title,
			Traffic: approxTraffic(item),
			Geo:     geo,
		})
	}
	return trends, nil
}

// approxTraffic reads the ht:approx_traffic extension ("200K+", "1M+").
func approxTraffic(item *gofeed.Item) int {
	ext, ok := item.Extensions["ht"]
	if !ok {
		return 0
	}
	values, ok := ext["approx_traffic"]
	if !ok || len(values) == 0 {
		return 0
	}
	return parseTraffic(values[0].Value)
}

// parseTraffic converts the feed's traffic notation to a number.
func parseTraffic(s string) int {
	s = strings.TrimSpace(strings.TrimSuffix(s, "+"))
	mult := 1
	switch {
	case strings.HasSuffix(s, "M"):
		mult = 1_000_000
		s = strings.TrimSuffix(s, "M")
	case strings.HasSuffix(s, "K"):
		mult = 1_000
		s = strings.TrimSuffix(s, "K")
	}
	n, err := strconv.Atoi(strings.ReplaceAll(s, ",", ""))
	if err != nil {
		return 0
	}
	return n * mult
}

// Select picks the top topics from trends, skipping any whose title
// contains an excluded keyword (case-insensitive). Each selected trend
// becomes a Topic with a research query built from its title.
func Select(trends []Trend, cfg types.TrendsConfig) []types.Topic {
	maxTopics := cfg.MaxTopics
	if maxTopics <= 0 {
		maxTopics = 2
	}

	var topics []types.Topic
	seen := make(map[string]bool)
	for _, tr := range trends {
		if len(topics) >= maxTopics {
			break
		}
		key := strings.ToLower(tr.Title)
		if seen[key] || excluded(tr.Title, cfg.Exclude) {
			continue
		}
		seen[key] = true
		topics = append(topics, types.Topic{
			Name:  slugify(tr.Title),
			Query: buildQuery(tr.Title),
			Kind:  "Trending",
		})
	}
	return topics
}

func excluded(title string, exclude []string) bool {
	lower := strings.ToLower(title)
	for _, kw := range exclude {
		if kw != "" && strings.Contains(lower, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}

// buildQuery expands a bare trending phrase into a research prompt. The
// angle suffixes match what produced usable Korean posts by hand.
func buildQuery(title string) string {
	return title + " 최신 뉴스 이슈 배경 분석 전망 정리"
}

// slugify turns a trend title into a filesystem- and notebook-safe name,
// truncated to the 40-rune title limit the service enforces.
func slugify(title string) string {
	slug := strings.Join(strings.Fields(title), "_")
	runes := []rune(slug)
	if len(runes) > 40 {
		runes = runes[:40]
	}
	return string(runes)
}

// TopicsFromTrends fetches, selects, and packages topics into a TopicFile.
func TopicsFromTrends(ctx context.Context, client *http.Client, cfg types.TrendsConfig, w io.Writer) (*types.TopicFile, error) {
	trends, err := Fetch(ctx, client, cfg, w)
	if err != nil {
		return nil, err
	}

	topics := Select(trends, cfg)
	if len(topics) == 0 {
		return nil, fmt.Errorf("all %d trends excluded by filters", len(trends))
	}

	return &types.TopicFile{Topics: topics, FetchedAt: time.Now()}, nil
}
