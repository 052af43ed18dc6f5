// Package localdir implements a Sink that writes attachment content to a
// local directory. It is the development and test counterpart of the S3 sink.
package localdir

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Sink writes attachment content to files under a base directory.
type Sink struct {
	dir string
}

// New creates a Sink rooted at dir. The directory is created on first Put.
func New(dir string) *Sink {
	return &Sink{dir: dir}
}

// Put writes data to a file under the base directory and returns its path.
// Path separators and parent references in key are flattened so a hostile
// filename cannot escape the base directory.
func (s *Sink) Put(_ context.Context, key, _ string, data []byte) (string, error) {
	path := filepath.Join(s.dir, sanitizeKey(key))

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create storage directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write attachment file: %w", err)
	}

	return path, nil
}

// Name returns the sink name.
func (s *Sink) Name() string {
	return "localdir"
}

// sanitizeKey flattens a storage key into a single safe file name.
func sanitizeKey(key string) string {
	key = strings.ReplaceAll(key, string(os.PathSeparator), "_")
	key = strings.ReplaceAll(key, "/", "_")
	key = strings.ReplaceAll(key, "..", "_")
	if key == "" {
		return "attachment"
	}
	return key
}
