package store

import (
	"context"
	"time"
)

// DefaultListLimit is used by ListRuns when limit <= 0.
const DefaultListLimit = 20

// Store is the main interface for journaling pipeline runs
type Store interface {
	Close() error

	// Runs
	SaveRun(ctx context.Context, r Run) error
	GetRun(ctx context.Context, id string) (Run, error)
	RunsByDigest(ctx context.Context, digest string) ([]Run, error) // newest first
	ListRuns(ctx context.Context, limit int) ([]Run, error)
	CountRuns(ctx context.Context) (int64, error)

	// Stoplist persistence; Stoplist returns a nil view when none was stored.
	Stoplist(ctx context.Context) (StoplistView, error)
	UpsertStoplist(ctx context.Context, tokens []string) error
}

// Run is one journaled pipeline invocation
type Run struct {
	ID        string // ULID
	Digest    string // hex BLAKE3-256 of Input
	Input     string
	Tokens    []string // in order, empty tokens included
	Note      string
	CreatedAt time.Time
}

// StoplistView provides read access to the stopword list
type StoplistView interface {
	IsStop(ctx context.Context, token string) (bool, error)
	AllStops(ctx context.Context) ([]string, error)
}
