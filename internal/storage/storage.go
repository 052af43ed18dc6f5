// Package storage defines the interface for attachment-content sinks.
package storage

import "context"

// Sink is the interface that attachment-content backends must implement.
// Each sink stores the raw bytes of one attachment under a caller-chosen
// key (e.g., S3, a local directory) and returns a URI for the stored copy.
type Sink interface {
	// Put stores data under key and returns the URI of the stored object.
	Put(ctx context.Context, key, contentType string, data []byte) (string, error)

	// Name returns the human-readable name of this sink.
	Name() string
}
