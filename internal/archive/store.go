// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package archive persists generated posts in a local SQLite database and
// builds a full-text index over their markdown bodies.
package archive

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/ssohn/blogsmith/pkg/types"
)

const (
	indexDir   = "index"
	dbFile     = "archive.db"
	postSuffix = "_blog.md"

	// adhocRunID groups posts indexed from disk without a recorded run.
	adhocRunID = "adhoc"
)

// Store manages the post archive SQLite database.
type Store struct {
	db         *sql.DB
	maxResults int
}

// NewStore opens or creates the archive database at dir/index/archive.db
// and creates the schema if it does not exist.
func NewStore(cfg types.ArchiveConfig) (*Store, error) {
	dbDir := filepath.Join(cfg.Dir, indexDir)
	if err := os.MkdirAll(dbDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating index directory: %w", err)
	}

	dbPath := filepath.Join(dbDir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = 20
	}

	s := &Store{db: db, maxResults: maxResults}

	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			started TEXT,
			finished TEXT,
			topics INTEGER,
			generated INTEGER
		)`,
		`CREATE TABLE IF NOT EXISTS posts (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			id TEXT NOT NULL UNIQUE,
			run_id TEXT NOT NULL REFERENCES runs(id),
			topic TEXT NOT NULL,
			notebook_id TEXT,
			artifact_id TEXT,
			path TEXT NOT NULL,
			chars INTEGER,
			created_at TEXT,
			content TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_posts_run_id ON posts(run_id)`,
		`CREATE INDEX IF NOT EXISTS idx_posts_topic ON posts(topic)`,
		`CREATE TABLE IF NOT EXISTS indexing_status (
			path TEXT PRIMARY KEY,
			file_mod_time TEXT
		)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}

	// FTS5 virtual table with triggers for sync.
	var ftsExists int
	if err := s.db.QueryRow(
		`SELECT count(*) FROM sqlite_master WHERE type='table' AND name='posts_fts'`,
	).Scan(&ftsExists); err != nil {
		return fmt.Errorf("checking FTS table: %w", err)
	}

	if ftsExists == 0 {
		ftsStatements := []string{
			`CREATE VIRTUAL TABLE posts_fts USING fts5(topic, content, content=posts, content_rowid=rowid)`,
			`CREATE TRIGGER posts_ai AFTER INSERT ON posts BEGIN
				INSERT INTO posts_fts(rowid, topic, content) VALUES (new.rowid, new.topic, new.content);
			END`,
			`CREATE TRIGGER posts_ad AFTER DELETE ON posts BEGIN
				INSERT INTO posts_fts(posts_fts, rowid, topic, content) VALUES('delete', old.rowid, old.topic, old.content);
			END`,
			`CREATE TRIGGER posts_au AFTER UPDATE ON posts BEGIN
				INSERT INTO posts_fts(posts_fts, rowid, topic, content) VALUES('delete', old.rowid, old.topic, old.content);
				INSERT INTO posts_fts(rowid, topic, content) VALUES (new.rowid, new.topic, new.content);
			END`,
		}
		for _, stmt := range ftsStatements {
			if _, err := s.db.Exec(stmt); err != nil {
				return fmt.Errorf("creating FTS infrastructure: %w", err)
			}
		}
	}

	return nil
}

// RunRecord is the archive row for one pipeline run.
type RunRecord struct {
	ID        string
	Started   time.Time
	Finished  time.Time
	Topics    int
	Generated int
}

// RecordRun stores a run and its generated posts. Post bodies are read
// from their Path; a post whose file cannot be read is recorded with an
// empty body rather than failing the run.
func (s *Store) RecordRun(ctx context.Context, run RunRecord, posts []types.Post) error {
	if run.ID == "" {
		return fmt.Errorf("run id is empty")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (id, started, finished, topics, generated)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			started=excluded.started, finished=excluded.finished,
			topics=excluded.topics, generated=excluded.generated`,
		run.ID,
		run.Started.UTC().Format(time.RFC3339),
		run.Finished.UTC().Format(time.RFC3339),
		run.Topics, run.Generated,
	)
	if err != nil {
		return fmt.Errorf("upserting run: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT OR REPLACE INTO posts (id, run_id, topic, notebook_id, artifact_id, path, chars, created_at, content)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for _, post := range posts {
		body, _ := os.ReadFile(post.Path)
		createdAt := post.CreatedAt
		if createdAt.IsZero() {
			createdAt = time.Now()
		}
		_, err := stmt.ExecContext(ctx,
			post.ID, run.ID, post.Topic, post.NotebookID, post.ArtifactID,
			post.Path, post.Chars, createdAt.UTC().Format(time.RFC3339), string(body),
		)
		if err != nil {
			return fmt.Errorf("inserting post %s: %w", post.ID, err)
		}
	}

	return tx.Commit()
}

// IngestSummary holds counts from an archive indexing pass.
type IngestSummary struct {
	Indexed int
	Updated int
	Skipped int
	Failed  int
}

// Total returns the number of files processed.
func (s IngestSummary) Total() int {
	return s.Indexed + s.Updated + s.Skipped + s.Failed
}

// IndexDir scans postsDir for *_blog.md files and indexes their bodies.
// Files already indexed with an unchanged modification time are skipped,
// so repeated passes are incremental. Posts found on disk without a
// recorded run are attributed to a stub run.
func (s *Store) IndexDir(ctx context.Context, postsDir string, w io.Writer) (IngestSummary, error) {
	entries, err := os.ReadDir(postsDir)
	if err != nil {
		return IngestSummary{}, fmt.Errorf("reading posts directory %s: %w", postsDir, err)
	}

	var summary IngestSummary

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), postSuffix) {
			continue
		}

		select {
		case <-ctx.Done():
			return summary, ctx.Err()
		default:
		}

		topic := strings.TrimSuffix(entry.Name(), postSuffix)
		filePath := filepath.Join(postsDir, entry.Name())

		info, err := entry.Info()
		if err != nil {
			fmt.Fprintf(w, "failed  %s: %v\n", topic, err)
			summary.Failed++
			continue
		}
		modTime := info.ModTime().UTC().Format(time.RFC3339Nano)

		var storedModTime string
		err = s.db.QueryRowContext(ctx,
			`SELECT file_mod_time FROM indexing_status WHERE path = ?`, filePath,
		).Scan(&storedModTime)

		if err == nil && storedModTime == modTime {
			fmt.Fprintf(w, "skipped %s\n", topic)
			summary.Skipped++
			continue
		}

		isUpdate := err == nil

		body, err := os.ReadFile(filePath)
		if err != nil {
			fmt.Fprintf(w, "failed  %s: %v\n", topic, err)
			summary.Failed++
			continue
		}

		if err := s.indexFile(ctx, topic, filePath, string(body), info.ModTime(), modTime); err != nil {
			fmt.Fprintf(w, "failed  %s: %v\n", topic, err)
			summary.Failed++
			continue
		}

		if isUpdate {
			fmt.Fprintf(w, "updated %s (%d chars)\n", topic, len([]rune(string(body))))
			summary.Updated++
		} else {
			fmt.Fprintf(w, "indexed %s (%d chars)\n", topic, len([]rune(string(body))))
			summary.Indexed++
		}
	}

	fmt.Fprintf(w, "\nindexed: %d, updated: %d, skipped: %d, failed: %d\n",
		summary.Indexed, summary.Updated, summary.Skipped, summary.Failed)

	return summary, nil
}

func (s *Store) indexFile(ctx context.Context, topic, path, body string, modTime time.Time, modTimeStr string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT OR IGNORE INTO runs (id) VALUES (?)`, adhocRunID,
	); err != nil {
		return fmt.Errorf("inserting stub run: %w", err)
	}

	// A post already recorded by RecordRun keeps its run attribution;
	// only the body and size are refreshed.
	var existingID string
	err = tx.QueryRowContext(ctx,
		`SELECT id FROM posts WHERE path = ?`, path,
	).Scan(&existingID)

	switch {
	case err == nil:
		_, err = tx.ExecContext(ctx,
			`UPDATE posts SET content = ?, chars = ? WHERE id = ?`,
			body, len([]rune(body)), existingID,
		)
		if err != nil {
			return fmt.Errorf("updating post %s: %w", existingID, err)
		}
	case err == sql.ErrNoRows:
		_, err = tx.ExecContext(ctx,
			`INSERT INTO posts (id, run_id, topic, path, chars, created_at, content)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			adhocRunID+":"+topic, adhocRunID, topic, path,
			len([]rune(body)), modTime.UTC().Format(time.RFC3339), body,
		)
		if err != nil {
			return fmt.Errorf("inserting post: %w", err)
		}
	default:
		return fmt.Errorf("looking up post: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO indexing_status (path, file_mod_time) VALUES (?, ?)
		 ON CONFLICT(path) DO UPDATE SET file_mod_time=excluded.file_mod_time`,
		path, modTimeStr,
	)
	if err != nil {
		return fmt.Errorf("updating indexing status: %w", err)
	}

	return tx.Commit()
}
