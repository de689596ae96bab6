// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// Topic is one blog subject to run through the pipeline.
type Topic struct {
	// Name is a short slug used for the notebook title and output filename
	// (e.g. "2026_K-Bank_IPO_Master_Guide").
	Name string `json:"name" yaml:"name"`

	// Query is the deep research prompt. Multi-line queries are common;
	// each line is one angle on the subject.
	Query string `json:"query" yaml:"query"`

	// Kind optionally classifies the topic (e.g. "How-to Guide",
	// "Product Review", "Evergreen Guide").
	Kind string `json:"kind,omitempty" yaml:"kind,omitempty"`

	// SeedURLs lists pages to attach as sources before research starts.
	SeedURLs []string `json:"seed_urls,omitempty" yaml:"seed_urls,omitempty"`
}

// TopicFile is the on-disk representation of a batch of topics, written by
// the trends stage or by hand and consumed by the run command.
type TopicFile struct {
	// Topics lists the subjects in run order.
	Topics []Topic `json:"topics" yaml:"topics"`

	// FetchedAt records when the trends stage produced the file, if it did.
	FetchedAt time.Time `json:"fetched_at,omitempty" yaml:"fetched_at,omitempty"`
}

// Post records one generated blog post for the local archive.
type Post struct {
	// ID is the archive row identifier.
	ID string `json:"id" yaml:"id"`

	// RunID links the post to the pipeline run that produced it.
	RunID string `json:"run_id,omitempty" yaml:"run_id,omitempty"`

	// Topic is the topic name the post was generated for.
	Topic string `json:"topic" yaml:"topic"`

	// NotebookID and ArtifactID are the remote resource identifiers.
	NotebookID string `json:"notebook_id" yaml:"notebook_id"`
	ArtifactID string `json:"artifact_id,omitempty" yaml:"artifact_id,omitempty"`

	// Path is the local markdown file holding the post body.
	Path string `json:"path" yaml:"path"`

	// Chars is the length of the downloaded body in runes.
	Chars int `json:"chars" yaml:"chars"`

	// CreatedAt is when the post was downloaded.
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
}
