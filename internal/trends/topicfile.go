// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package trends

import (
	"fmt"
	"os"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/ssohn/blogsmith/pkg/types"
)

// WriteTopicFile saves a topic batch to a YAML file so a run can be
// repeated, edited, or pointed at hand-written topics.
func WriteTopicFile(path string, tf *types.TopicFile) error {
	data, err := yaml.Marshal(tf)
	if err != nil {
		return fmt.Errorf("marshaling topic file: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// ReadTopicFile loads a topic batch from a YAML file and validates that
// every topic is runnable.
func ReadTopicFile(path string) (*types.TopicFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading topic file: %w", err)
	}

	var tf types.TopicFile
	if err := yaml.Unmarshal(data, &tf); err != nil {
		return nil, fmt.Errorf("parsing topic file: %w", err)
	}
	if len(tf.Topics) == 0 {
		return nil, fmt.Errorf("topic file %s contains no topics", path)
	}

	for i, topic := range tf.Topics {
		if strings.TrimSpace(topic.Name) == "" {
			return nil, fmt.Errorf("topic %d has no name", i+1)
		}
		if strings.TrimSpace(topic.Query) == "" {
			return nil, fmt.Errorf("topic %q has no query", topic.Name)
		}
	}
	return &tf, nil
}
