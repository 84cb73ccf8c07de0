package kleisli

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/cognicore/kleisli/internal/logging"
	"github.com/cognicore/kleisli/pkg/kleisli/annotated"
	"github.com/cognicore/kleisli/pkg/kleisli/ingest"
	"github.com/cognicore/kleisli/pkg/kleisli/journal"
	"github.com/cognicore/kleisli/pkg/kleisli/store"
)

// Engine runs text through a pipeline and journals every run
type Engine struct {
	store    store.Store
	pipeline *ingest.Pipeline
	journal  *journal.Builder
	logger   *slog.Logger
	now      func() time.Time
}

// Options configures an Engine instance
type Options struct {
	Store    store.Store
	Pipeline *ingest.Pipeline // defaults to the two-stage pipeline
	Logger   *slog.Logger     // defaults to the global logger
	Now      func() time.Time // defaults to time.Now
}

// New creates an Engine with the given dependencies
func New(opts Options) *Engine {
	e := &Engine{
		store:    opts.Store,
		pipeline: opts.Pipeline,
		journal:  journal.New(),
		logger:   opts.Logger,
		now:      opts.Now,
	}
	if e.pipeline == nil {
		e.pipeline = ingest.NewPipeline(ingest.DefaultNotes(), nil)
	}
	if e.logger == nil {
		e.logger = logging.GetLogger()
	}
	if e.now == nil {
		e.now = time.Now
	}
	return e
}

// Close cleanly shuts down the Engine instance
func (e *Engine) Close() error {
	return e.store.Close()
}

// Result is the outcome of one Run
type Result struct {
	RunID  string
	Tokens []string
	Note   string
	Reused bool // an identical earlier run was found in the journal
}

// Annotated returns the result as a (tokens, note) pair.
func (r Result) Annotated() annotated.Annotated[[]string] {
	return annotated.New(r.Tokens, r.Note)
}

// Run processes input and journals the result. An earlier run with the
// same input, note and tokens is reused instead of recording a duplicate.
func (e *Engine) Run(ctx context.Context, input string) (Result, error) {
	processed := e.pipeline.Process(input)
	digest := journal.Digest(input)

	candidates, err := e.store.RunsByDigest(ctx, digest)
	if err != nil {
		return Result{}, fmt.Errorf("lookup run: %w", err)
	}
	if existing, found := matchRun(candidates, processed); found {
		logging.FromContext(logging.WithRunID(ctx, existing.ID), e.logger).Debug("run reused",
			"digest", digest,
		)
		return Result{
			RunID:  existing.ID,
			Tokens: processed.Value,
			Note:   processed.Note,
			Reused: true,
		}, nil
	}

	run := e.journal.Build(input, processed, e.now())
	if err := e.store.SaveRun(ctx, run); err != nil {
		return Result{}, fmt.Errorf("save run: %w", err)
	}

	logging.FromContext(logging.WithRunID(ctx, run.ID), e.logger).Info("run recorded",
		"tokens", len(run.Tokens),
		"note", run.Note,
	)

	return Result{
		RunID:  run.ID,
		Tokens: processed.Value,
		Note:   processed.Note,
	}, nil
}

// matchRun finds a journaled run that recorded exactly this result.
func matchRun(runs []store.Run, processed annotated.Annotated[[]string]) (store.Run, bool) {
	for _, r := range runs {
		if r.Note == processed.Note && slices.Equal(r.Tokens, processed.Value) {
			return r, true
		}
	}
	return store.Run{}, false
}

// Get returns a journaled run by ID
func (e *Engine) Get(ctx context.Context, id string) (store.Run, error) {
	return e.store.GetRun(ctx, id)
}

// History returns up to limit journaled runs, newest first
func (e *Engine) History(ctx context.Context, limit int) ([]store.Run, error) {
	return e.store.ListRuns(ctx, limit)
}
