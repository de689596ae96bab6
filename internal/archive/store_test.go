package archive

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ssohn/blogsmith/pkg/types"
)

// --- test helpers ---

func testStore(t *testing.T) (*Store, string) {
	t.Helper()
	tmpDir := t.TempDir()

	postsDir := filepath.Join(tmpDir, "posts")
	if err := os.MkdirAll(postsDir, 0o755); err != nil {
		t.Fatal(err)
	}

	cfg := types.ArchiveConfig{
		Dir:        filepath.Join(tmpDir, "archive"),
		MaxResults: 20,
	}
	store, err := NewStore(cfg)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { store.Close() })

	return store, postsDir
}

func writePostFile(t *testing.T, postsDir, topic, body string) string {
	t.Helper()
	path := filepath.Join(postsDir, topic+postSuffix)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func sampleRun(id string) RunRecord {
	return RunRecord{
		ID:        id,
		Started:   time.Date(2026, 8, 14, 9, 0, 0, 0, time.UTC),
		Finished:  time.Date(2026, 8, 14, 9, 42, 0, 0, time.UTC),
		Topics:    2,
		Generated: 2,
	}
}

func recordSamplePosts(t *testing.T, store *Store, postsDir, runID string) {
	t.Helper()
	p1 := writePostFile(t, postsDir, "kbank_ipo",
		"# 케이뱅크 상장\n\n케이뱅크의 코스피 상장 일정과 공모가 분석입니다.")
	p2 := writePostFile(t, postsDir, "starlink_launch",
		"# 스타링크 국내 출시\n\n스타링크 위성 인터넷의 한국 서비스 전망입니다.")

	posts := []types.Post{
		{ID: runID + ":kbank_ipo", RunID: runID, Topic: "kbank_ipo",
			NotebookID: "nb-1", ArtifactID: "art-1", Path: p1, Chars: 30},
		{ID: runID + ":starlink_launch", RunID: runID, Topic: "starlink_launch",
			NotebookID: "nb-2", ArtifactID: "art-2", Path: p2, Chars: 28},
	}
	if err := store.RecordRun(context.Background(), sampleRun(runID), posts); err != nil {
		t.Fatal(err)
	}
}

// --- RecordRun / Search ---

func TestRecordRunAndFullTextSearch(t *testing.T) {
	store, postsDir := testStore(t)
	recordSamplePosts(t, store, postsDir, "run-1")

	results, err := store.Search(context.Background(), QueryOptions{Query: "스타링크"})
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 {
		t.Fatalf("got %d results, want 1", len(results))
	}
	if results[0].Topic != "starlink_launch" {
		t.Errorf("topic = %q, want starlink_launch", results[0].Topic)
	}
	if results[0].RunID != "run-1" {
		t.Errorf("run_id = %q, want run-1", results[0].RunID)
	}
	if !strings.Contains(results[0].Snippet, "[스타링크]") {
		t.Errorf("snippet %q does not highlight the match", results[0].Snippet)
	}
}

func TestRecordRunRequiresID(t *testing.T) {
	store, _ := testStore(t)
	if err := store.RecordRun(context.Background(), RunRecord{}, nil); err == nil {
		t.Fatal("expected error for empty run id")
	}
}

func TestRecordRunIsIdempotent(t *testing.T) {
	store, postsDir := testStore(t)
	recordSamplePosts(t, store, postsDir, "run-1")
	recordSamplePosts(t, store, postsDir, "run-1")

	results, err := store.Search(context.Background(), QueryOptions{RunID: "run-1"})
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 2 {
		t.Fatalf("got %d results after re-record, want 2", len(results))
	}
}

func TestSearchStructuredFilters(t *testing.T) {
	store, postsDir := testStore(t)
	recordSamplePosts(t, store, postsDir, "run-1")

	tests := []struct {
		name string
		opts QueryOptions
		want int
	}{
		{"by topic", QueryOptions{Topic: "kbank_ipo"}, 1},
		{"by run", QueryOptions{RunID: "run-1"}, 2},
		{"unknown topic", QueryOptions{Topic: "nope"}, 0},
		{"unknown run", QueryOptions{RunID: "run-9"}, 0},
		{"query plus topic", QueryOptions{Query: "상장", Topic: "kbank_ipo"}, 1},
		{"query excludes topic", QueryOptions{Query: "상장", Topic: "starlink_launch"}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			results, err := store.Search(context.Background(), tt.opts)
			if err != nil {
				t.Fatal(err)
			}
			if len(results) != tt.want {
				t.Errorf("got %d results, want %d", len(results), tt.want)
			}
		})
	}
}

func TestSearchMaxResults(t *testing.T) {
	store, postsDir := testStore(t)
	recordSamplePosts(t, store, postsDir, "run-1")

	results, err := store.Search(context.Background(), QueryOptions{RunID: "run-1", MaxResults: 1})
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 {
		t.Errorf("got %d results, want 1", len(results))
	}
}

// --- IndexDir ---

func TestIndexDirNewAndSkip(t *testing.T) {
	store, postsDir := testStore(t)
	writePostFile(t, postsDir, "kbank_ipo", "케이뱅크 상장 분석")
	writePostFile(t, postsDir, "starlink_launch", "스타링크 출시 전망")
	// Non-post files are ignored.
	if err := os.WriteFile(filepath.Join(postsDir, "notes.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	summary, err := store.IndexDir(context.Background(), postsDir, &buf)
	if err != nil {
		t.Fatal(err)
	}
	if summary.Indexed != 2 || summary.Total() != 2 {
		t.Fatalf("first pass summary = %+v, want 2 indexed", summary)
	}

	// Second pass skips unchanged files.
	summary, err = store.IndexDir(context.Background(), postsDir, &buf)
	if err != nil {
		t.Fatal(err)
	}
	if summary.Skipped != 2 || summary.Indexed != 0 {
		t.Fatalf("second pass summary = %+v, want 2 skipped", summary)
	}

	results, err := store.Search(context.Background(), QueryOptions{Query: "스타링크"})
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 {
		t.Fatalf("got %d results, want 1", len(results))
	}
	if results[0].RunID != adhocRunID {
		t.Errorf("run_id = %q, want %q", results[0].RunID, adhocRunID)
	}
}

func TestIndexDirDetectsChangedFile(t *testing.T) {
	store, postsDir := testStore(t)
	path := writePostFile(t, postsDir, "kbank_ipo", "케이뱅크 상장 분석")

	var buf bytes.Buffer
	if _, err := store.IndexDir(context.Background(), postsDir, &buf); err != nil {
		t.Fatal(err)
	}

	if err := os.WriteFile(path, []byte("케이뱅크 상장 일정 변경 소식"), 0o644); err != nil {
		t.Fatal(err)
	}
	future := time.Now().Add(2 * time.Second)
	if err := os.Chtimes(path, future, future); err != nil {
		t.Fatal(err)
	}

	summary, err := store.IndexDir(context.Background(), postsDir, &buf)
	if err != nil {
		t.Fatal(err)
	}
	if summary.Updated != 1 {
		t.Fatalf("summary = %+v, want 1 updated", summary)
	}

	results, err := store.Search(context.Background(), QueryOptions{Query: "변경"})
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 {
		t.Errorf("reindexed content not searchable: got %d results", len(results))
	}
}

func TestIndexDirPreservesRunAttribution(t *testing.T) {
	store, postsDir := testStore(t)
	recordSamplePosts(t, store, postsDir, "run-1")

	var buf bytes.Buffer
	if _, err := store.IndexDir(context.Background(), postsDir, &buf); err != nil {
		t.Fatal(err)
	}

	results, err := store.Search(context.Background(), QueryOptions{Topic: "kbank_ipo"})
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 {
		t.Fatalf("got %d results, want 1", len(results))
	}
	if results[0].RunID != "run-1" {
		t.Errorf("run_id = %q, want run-1 (indexing must not rewrite attribution)", results[0].RunID)
	}
}

func TestIndexDirMissingDirectory(t *testing.T) {
	store, _ := testStore(t)
	var buf bytes.Buffer
	if _, err := store.IndexDir(context.Background(), "/nonexistent/posts", &buf); err == nil {
		t.Fatal("expected error for missing directory")
	}
}

// --- Runs ---

func TestRunsListsNewestFirstAndExcludesAdhoc(t *testing.T) {
	store, postsDir := testStore(t)

	older := sampleRun("run-old")
	older.Started = older.Started.Add(-24 * time.Hour)
	if err := store.RecordRun(context.Background(), older, nil); err != nil {
		t.Fatal(err)
	}
	recordSamplePosts(t, store, postsDir, "run-new")
	writePostFile(t, postsDir, "loose_post", "직접 작성한 포스트")
	var buf bytes.Buffer
	if _, err := store.IndexDir(context.Background(), postsDir, &buf); err != nil {
		t.Fatal(err)
	}

	runs, err := store.Runs(context.Background(), 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 2 {
		t.Fatalf("got %d runs, want 2", len(runs))
	}
	if runs[0].ID != "run-new" || runs[1].ID != "run-old" {
		t.Errorf("order = [%s, %s], want [run-new, run-old]", runs[0].ID, runs[1].ID)
	}
	if runs[0].Generated != 2 {
		t.Errorf("generated = %d, want 2", runs[0].Generated)
	}
}
