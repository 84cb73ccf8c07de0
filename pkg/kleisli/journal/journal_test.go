package journal

import (
	"testing"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/cognicore/kleisli/pkg/kleisli/annotated"
)

func TestBuild(t *testing.T) {
	b := New()
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	result := annotated.New([]string{"HELLO", "WORLD"}, "toUpper toWords ")

	run := b.Build("hello world", result, now)

	if run.Input != "hello world" || run.Note != "toUpper toWords " {
		t.Errorf("unexpected run %+v", run)
	}
	if len(run.Tokens) != 2 || run.Tokens[0] != "HELLO" {
		t.Errorf("unexpected tokens %q", run.Tokens)
	}
	if !run.CreatedAt.Equal(now) {
		t.Errorf("CreatedAt = %v, want %v", run.CreatedAt, now)
	}

	id, err := ulid.ParseStrict(run.ID)
	if err != nil {
		t.Fatalf("ID %q is not a ULID: %v", run.ID, err)
	}
	if id.Time() != ulid.Timestamp(now) {
		t.Errorf("ULID time = %d, want %d", id.Time(), ulid.Timestamp(now))
	}

	// The run must not alias the result's slice.
	result.Value[0] = "MUTATED"
	if run.Tokens[0] != "HELLO" {
		t.Error("Build should copy tokens")
	}
}

func TestBuildIDsAreMonotonic(t *testing.T) {
	b := New()
	now := time.Now()
	result := annotated.Return([]string{""})

	prev := ""
	for i := 0; i < 100; i++ {
		id := b.Build("", result, now).ID
		if id <= prev {
			t.Fatalf("ID %s is not greater than %s", id, prev)
		}
		prev = id
	}
}

func TestDigest(t *testing.T) {
	// BLAKE3 of the empty input.
	const empty = "af1349b9f5f9a1a6a0404dea36dcc9499bcb25c9adc112b7cc9a93cae41f3262"
	if got := Digest(""); got != empty {
		t.Errorf("Digest(\"\") = %s, want %s", got, empty)
	}

	if Digest("hello world") == Digest("hello  world") {
		t.Error("different inputs should have different digests")
	}
	if Digest("a") != Digest("a") {
		t.Error("digest should be deterministic")
	}
	if len(Digest("x")) != 64 {
		t.Errorf("expected 64 hex chars, got %d", len(Digest("x")))
	}
}
