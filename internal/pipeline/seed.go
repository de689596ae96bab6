// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// seedSources attaches the topic's seed URLs to the notebook, labeling
// each with the page's <title> when it can be fetched. Unreachable pages
// are attached untitled; the service derives a label. Failed attachments
// are logged and skipped.
func (p *Pipeline) seedSources(ctx context.Context, notebookID string, urls []string) {
	fmt.Fprintf(p.w, "  seeding %d URL sources...\n", len(urls))

	added := 0
	for i, pageURL := range urls {
		if i > 0 {
			if err := sleep(ctx, seedSourceDelay); err != nil {
				return
			}
		}

		title := p.pageTitle(ctx, pageURL)
		if err := p.svc.AddURLSource(ctx, notebookID, pageURL, title); err != nil {
			fmt.Fprintf(p.w, "  skip: %s (%v)\n", pageURL, err)
			continue
		}
		added++
		fmt.Fprintf(p.w, "  [%d] %s\n", added, pageURL)
	}
	fmt.Fprintf(p.w, "  seeded %d/%d sources\n", added, len(urls))
}

// pageTitle fetches pageURL and extracts its <title>. Any failure returns
// an empty string; a label is nice to have, never required.
func (p *Pipeline) pageTitle(ctx context.Context, pageURL string) string {
	if p.web == nil {
		return ""
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return ""
	}
	req.Header.Set("User-Agent", p.cfg.Client.UserAgent)

	resp, err := p.web.Do(req)
	if err != nil {
		return ""
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return ""
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(doc.Find("title").First().Text())
}
