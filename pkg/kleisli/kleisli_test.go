package kleisli

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/cognicore/kleisli/internal/logging"
	"github.com/cognicore/kleisli/pkg/kleisli/ingest"
	"github.com/cognicore/kleisli/pkg/kleisli/internalerr"
	"github.com/cognicore/kleisli/pkg/kleisli/journal"
	"github.com/cognicore/kleisli/pkg/kleisli/store"
	"github.com/cognicore/kleisli/pkg/kleisli/store/memstore"
)

func newTestEngine(t *testing.T, pipeline *ingest.Pipeline) (*Engine, *memstore.Store) {
	t.Helper()
	st := memstore.New()
	clock := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	engine := New(Options{
		Store:    st,
		Pipeline: pipeline,
		Logger:   logging.Discard(),
		Now: func() time.Time {
			clock = clock.Add(time.Second)
			return clock
		},
	})
	t.Cleanup(func() { engine.Close() })
	return engine, st
}

func TestRunHelloWorld(t *testing.T) {
	ctx := context.Background()
	engine, st := newTestEngine(t, nil)

	res, err := engine.Run(ctx, "hello world")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if !reflect.DeepEqual(res.Tokens, []string{"HELLO", "WORLD"}) {
		t.Errorf("Tokens = %q", res.Tokens)
	}
	if res.Note != "toUpper toWords " {
		t.Errorf("Note = %q", res.Note)
	}
	if res.Reused {
		t.Error("first run should not be reused")
	}

	run, err := st.GetRun(ctx, res.RunID)
	if err != nil {
		t.Fatalf("run not journaled: %v", err)
	}
	if run.Digest != journal.Digest("hello world") {
		t.Errorf("unexpected digest %s", run.Digest)
	}
	if !reflect.DeepEqual(res.Annotated(), ingest.Process("hello world")) {
		t.Errorf("Annotated() = %+v", res.Annotated())
	}
}

func TestRunReusesIdenticalInput(t *testing.T) {
	ctx := context.Background()
	engine, st := newTestEngine(t, nil)

	first, err := engine.Run(ctx, "a  b")
	if err != nil {
		t.Fatal(err)
	}
	second, err := engine.Run(ctx, "a  b")
	if err != nil {
		t.Fatal(err)
	}

	if !second.Reused || second.RunID != first.RunID {
		t.Errorf("expected reuse of %s, got %+v", first.RunID, second)
	}
	if !reflect.DeepEqual(second.Tokens, []string{"A", "", "B"}) {
		t.Errorf("Tokens = %q", second.Tokens)
	}

	n, _ := st.CountRuns(ctx)
	if n != 1 {
		t.Errorf("expected a single journaled run, got %d", n)
	}
}

func TestRunRecordsWhenNotesDiffer(t *testing.T) {
	ctx := context.Background()
	st := memstore.New()

	plain := New(Options{Store: st, Logger: logging.Discard()})
	custom := New(Options{
		Store:    st,
		Pipeline: ingest.NewPipeline(ingest.Notes{Normalize: "N", Tokenize: "T"}, nil),
		Logger:   logging.Discard(),
	})

	a, err := plain.Run(ctx, "x")
	if err != nil {
		t.Fatal(err)
	}
	b, err := custom.Run(ctx, "x")
	if err != nil {
		t.Fatal(err)
	}

	if b.Reused || a.RunID == b.RunID {
		t.Error("runs with different notes must be journaled separately")
	}
	if b.Note != "NT" {
		t.Errorf("Note = %q", b.Note)
	}
}

func TestRunRecordsWhenTokensDiffer(t *testing.T) {
	ctx := context.Background()
	st := memstore.New()

	engineFor := func(stops ...string) *Engine {
		return New(Options{
			Store:    st,
			Pipeline: ingest.NewPipeline(ingest.DefaultNotes(), ingest.NewStopFilter(stops)),
			Logger:   logging.Discard(),
		})
	}
	dropThe, dropCat := engineFor("the"), engineFor("cat")

	first, err := dropThe.Run(ctx, "the cat")
	if err != nil {
		t.Fatal(err)
	}
	second, err := dropCat.Run(ctx, "the cat")
	if err != nil {
		t.Fatal(err)
	}
	if first.Note != second.Note {
		t.Fatalf("both pipelines should emit the same note, got %q and %q", first.Note, second.Note)
	}
	if second.Reused || second.RunID == first.RunID {
		t.Errorf("runs with different tokens must be journaled separately: %+v", second)
	}

	for _, res := range []Result{first, second} {
		stored, err := st.GetRun(ctx, res.RunID)
		if err != nil {
			t.Fatalf("GetRun(%s): %v", res.RunID, err)
		}
		if !reflect.DeepEqual(stored.Tokens, res.Tokens) {
			t.Errorf("run %s stored %q but Run returned %q", res.RunID, stored.Tokens, res.Tokens)
		}
	}

	// Alternating back finds the older matching run instead of adding another.
	again, err := dropThe.Run(ctx, "the cat")
	if err != nil {
		t.Fatal(err)
	}
	if !again.Reused || again.RunID != first.RunID {
		t.Errorf("expected reuse of %s, got %+v", first.RunID, again)
	}
	if n, _ := st.CountRuns(ctx); n != 2 {
		t.Errorf("expected 2 journaled runs, got %d", n)
	}
}

func TestHistory(t *testing.T) {
	ctx := context.Background()
	engine, _ := newTestEngine(t, nil)

	for _, in := range []string{"one", "two", "three"} {
		if _, err := engine.Run(ctx, in); err != nil {
			t.Fatal(err)
		}
	}

	runs, err := engine.History(ctx, 2)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(runs) != 2 || runs[0].Input != "three" || runs[1].Input != "two" {
		t.Errorf("unexpected history %+v", runs)
	}

	got, err := engine.Get(ctx, runs[0].ID)
	if err != nil || got.Input != "three" {
		t.Errorf("Get = %+v, %v", got, err)
	}
	if _, err := engine.Get(ctx, "missing"); !errors.Is(err, internalerr.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

type failingStore struct{ store.Store }

func (failingStore) RunsByDigest(context.Context, string) ([]store.Run, error) {
	return nil, internalerr.ErrStoreUnavailable
}

func (failingStore) Close() error { return nil }

func TestRunPropagatesStoreErrors(t *testing.T) {
	engine := New(Options{Store: failingStore{}, Logger: logging.Discard()})

	_, err := engine.Run(context.Background(), "x")
	if !errors.Is(err, internalerr.ErrStoreUnavailable) {
		t.Errorf("expected ErrStoreUnavailable, got %v", err)
	}
}
