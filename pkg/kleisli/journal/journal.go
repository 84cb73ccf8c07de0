// Package journal turns pipeline results into store records.
package journal

import (
	"crypto/rand"
	"encoding/hex"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/zeebo/blake3"

	"github.com/cognicore/kleisli/pkg/kleisli/annotated"
	"github.com/cognicore/kleisli/pkg/kleisli/store"
)

// Builder constructs run records with sortable unique IDs
type Builder struct {
	mu      sync.Mutex
	entropy *ulid.MonotonicEntropy
}

// New creates a new run builder
func New() *Builder {
	return &Builder{
		entropy: ulid.Monotonic(rand.Reader, 0),
	}
}

// Build records input and its processed result as a run created at now.
func (b *Builder) Build(input string, result annotated.Annotated[[]string], now time.Time) store.Run {
	tokens := make([]string, len(result.Value))
	copy(tokens, result.Value)

	return store.Run{
		ID:        b.newID(now),
		Digest:    Digest(input),
		Input:     input,
		Tokens:    tokens,
		Note:      result.Note,
		CreatedAt: now,
	}
}

func (b *Builder) newID(now time.Time) string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return ulid.MustNew(ulid.Timestamp(now), b.entropy).String()
}

// Digest returns the hex BLAKE3-256 hash of input.
func Digest(input string) string {
	sum := blake3.Sum256([]byte(input))
	return hex.EncodeToString(sum[:])
}
