// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// ResearchState is the canonical lifecycle state of a remote research task.
// The service reports state under several spellings; the client normalizes
// them to these values at the API boundary.
type ResearchState string

const (
	ResearchPending   ResearchState = "pending"
	ResearchRunning   ResearchState = "running"
	ResearchCompleted ResearchState = "completed"
	ResearchFailed    ResearchState = "failed"
)

// Terminal reports whether the state will never change again.
func (s ResearchState) Terminal() bool {
	return s == ResearchCompleted || s == ResearchFailed
}

// Notebook is a remote container resource grouping sources and generated
// artifacts. The service owns its structure; only the ID is authoritative
// locally.
type Notebook struct {
	// ID is the opaque notebook identifier assigned by the service.
	ID string `json:"id" yaml:"id"`

	// Title is the notebook display name.
	Title string `json:"title" yaml:"title"`

	// SourceCount is the number of sources attached to the notebook.
	SourceCount int `json:"source_count,omitempty" yaml:"source_count,omitempty"`

	// CreatedAt is the service-reported creation time, when available.
	CreatedAt time.Time `json:"created_at,omitempty" yaml:"created_at,omitempty"`
}

// Source is a reference attached to a notebook for use in generation:
// either a seeded URL or a document discovered by research.
type Source struct {
	// ID is the opaque source identifier, when the service assigns one.
	ID string `json:"id,omitempty" yaml:"id,omitempty"`

	// Title is the source display name.
	Title string `json:"title,omitempty" yaml:"title,omitempty"`

	// URL is the source location.
	URL string `json:"url,omitempty" yaml:"url,omitempty"`
}

// ResearchTask identifies a started research job.
type ResearchTask struct {
	// NotebookID is the notebook the job runs against.
	NotebookID string `json:"notebook_id" yaml:"notebook_id"`

	// TaskID is the opaque job identifier assigned by the service.
	TaskID string `json:"task_id" yaml:"task_id"`
}

// ResearchStatus is one observation of a research task's progress.
type ResearchStatus struct {
	// State is the normalized lifecycle state.
	State ResearchState `json:"state" yaml:"state"`

	// Sources lists the candidate sources discovered so far. Non-empty
	// sources with a missing state are treated as completion; the service
	// is eventually consistent about reporting both.
	Sources []Source `json:"sources,omitempty" yaml:"sources,omitempty"`

	// Detail carries the raw state string for failed jobs.
	Detail string `json:"detail,omitempty" yaml:"detail,omitempty"`
}

// Done reports whether the research produced a usable result.
func (s ResearchStatus) Done() bool {
	return s.State == ResearchCompleted || len(s.Sources) > 0
}

// ArtifactStatus is the lifecycle state of a generated artifact.
type ArtifactStatus string

const (
	ArtifactGenerating ArtifactStatus = "generating"
	ArtifactReady      ArtifactStatus = "ready"
	ArtifactFailed     ArtifactStatus = "failed"
)

// Artifact is a generated document (e.g. a blog post) produced by the
// service from a notebook's sources.
type Artifact struct {
	// ID is the opaque artifact identifier.
	ID string `json:"id" yaml:"id"`

	// Title is the artifact display name.
	Title string `json:"title,omitempty" yaml:"title,omitempty"`

	// Type is the service-reported artifact kind (e.g. "report").
	Type string `json:"type,omitempty" yaml:"type,omitempty"`

	// Status is the normalized generation state.
	Status ArtifactStatus `json:"status" yaml:"status"`

	// CreatedAt is the service-reported creation time, when available.
	CreatedAt time.Time `json:"created_at,omitempty" yaml:"created_at,omitempty"`
}

// Ready reports whether the artifact can be downloaded.
func (a Artifact) Ready() bool {
	return a.Status == ArtifactReady
}
