// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package archive

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/ssohn/blogsmith/pkg/types"
)

// QueryOptions holds parameters for archive queries.
type QueryOptions struct {
	// Query is the FTS5 full-text search string over topic and body.
	Query string

	// Topic filters by exact topic name.
	Topic string

	// RunID filters by the pipeline run that produced the post.
	RunID string

	// MaxResults limits result count. Zero uses the store default.
	MaxResults int
}

// IsEmpty reports whether the query has no search terms or filters.
func (q QueryOptions) IsEmpty() bool {
	return q.Query == "" && q.Topic == "" && q.RunID == ""
}

// SearchResult is a Post with a highlighted body snippet for full-text
// queries.
type SearchResult struct {
	types.Post
	Snippet string `json:"snippet,omitempty" yaml:"snippet,omitempty"`
}

// Search queries the archive with optional full-text search and
// structured filters. Results are ranked by relevance for full-text
// queries or sorted newest first for structured-only queries.
func (s *Store) Search(ctx context.Context, opts QueryOptions) ([]SearchResult, error) {
	maxResults := opts.MaxResults
	if maxResults <= 0 {
		maxResults = s.maxResults
	}

	var (
		qb     strings.Builder
		args   []any
		useFTS = opts.Query != ""
	)

	if useFTS {
		qb.WriteString(
			`SELECT p.id, p.run_id, p.topic, p.notebook_id, p.artifact_id,
				p.path, p.chars, p.created_at,
				snippet(posts_fts, 1, '[', ']', '…', 12)
			FROM posts_fts
			JOIN posts p ON p.rowid = posts_fts.rowid
			WHERE posts_fts MATCH ?`)
		args = append(args, opts.Query)
	} else {
		qb.WriteString(
			`SELECT p.id, p.run_id, p.topic, p.notebook_id, p.artifact_id,
				p.path, p.chars, p.created_at,
				'' AS snippet
			FROM posts p
			WHERE 1=1`)
	}

	if opts.Topic != "" {
		qb.WriteString(` AND p.topic = ?`)
		args = append(args, opts.Topic)
	}

	if opts.RunID != "" {
		qb.WriteString(` AND p.run_id = ?`)
		args = append(args, opts.RunID)
	}

	if useFTS {
		qb.WriteString(` ORDER BY posts_fts.rank`)
	} else {
		qb.WriteString(` ORDER BY p.created_at DESC`)
	}

	qb.WriteString(` LIMIT ?`)
	args = append(args, maxResults)

	rows, err := s.db.QueryContext(ctx, qb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("querying archive: %w", err)
	}
	defer rows.Close()

	var results []SearchResult
	for rows.Next() {
		var (
			sr         SearchResult
			notebookID sql.NullString
			artifactID sql.NullString
			createdAt  sql.NullString
			snippet    sql.NullString
		)

		if err := rows.Scan(
			&sr.ID, &sr.RunID, &sr.Topic, &notebookID, &artifactID,
			&sr.Path, &sr.Chars, &createdAt, &snippet,
		); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}

		if notebookID.Valid {
			sr.NotebookID = notebookID.String
		}
		if artifactID.Valid {
			sr.ArtifactID = artifactID.String
		}
		if createdAt.Valid {
			sr.CreatedAt, _ = time.Parse(time.RFC3339, createdAt.String)
		}
		if snippet.Valid {
			sr.Snippet = snippet.String
		}

		results = append(results, sr)
	}

	return results, rows.Err()
}

// Runs lists recorded runs, newest first.
func (s *Store) Runs(ctx context.Context, limit int) ([]RunRecord, error) {
	if limit <= 0 {
		limit = s.maxResults
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, started, finished, topics, generated
		 FROM runs WHERE id != ? ORDER BY started DESC LIMIT ?`,
		adhocRunID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var runs []RunRecord
	for rows.Next() {
		var (
			rec      RunRecord
			started  sql.NullString
			finished sql.NullString
			topics   sql.NullInt64
			gen      sql.NullInt64
		)
		if err := rows.Scan(&rec.ID, &started, &finished, &topics, &gen); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		if started.Valid {
			rec.Started, _ = time.Parse(time.RFC3339, started.String)
		}
		if finished.Valid {
			rec.Finished, _ = time.Parse(time.RFC3339, finished.String)
		}
		rec.Topics = int(topics.Int64)
		rec.Generated = int(gen.Int64)
		runs = append(runs, rec)
	}

	return runs, rows.Err()
}
