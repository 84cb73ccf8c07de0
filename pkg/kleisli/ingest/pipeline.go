package ingest

import "github.com/cognicore/kleisli/pkg/kleisli/annotated"

// Notes holds the labels each stage attaches to its result.
type Notes struct {
	Normalize string
	Tokenize  string
	Filter    string
}

// DefaultNotes returns the notes emitted by the built-in stages.
func DefaultNotes() Notes {
	return Notes{
		Normalize: NoteNormalize,
		Tokenize:  NoteTokenize,
		Filter:    NoteFilter,
	}
}

// Pipeline orchestrates the text flow:
// text → case normalization → tokenization → (optional) stopword filtering
//
// The stopword stage takes part only while its filter holds at least one
// word, so words added to or removed from the filter later are honoured.
type Pipeline struct {
	notes  Notes
	filter *StopFilter
	base   annotated.Stage[string, []string]
	stop   annotated.Stage[[]string, []string]
}

// NewPipeline creates a pipeline emitting the given notes. A nil filter
// leaves the stopword stage out for good.
func NewPipeline(notes Notes, filter *StopFilter) *Pipeline {
	p := &Pipeline{
		notes:  notes,
		filter: filter,
		base: annotated.Compose(
			relabel(NormalizeCase, notes.Normalize),
			relabel(Tokenize, notes.Tokenize),
		),
	}
	if filter != nil {
		p.stop = relabel(filter.Filter, notes.Filter)
	}
	return p
}

// Process runs text through every stage of the pipeline.
func (p *Pipeline) Process(text string) annotated.Annotated[[]string] {
	if !p.Filtering() {
		return p.base(text)
	}
	return annotated.Compose(p.base, p.stop)(text)
}

// Notes returns the notes this pipeline emits.
func (p *Pipeline) Notes() Notes {
	return p.notes
}

// Filtering reports whether the stopword stage currently takes part.
func (p *Pipeline) Filtering() bool {
	return p.filter != nil && p.filter.Len() > 0
}

// Process normalizes case and then tokenizes text. The note is
// NoteNormalize followed by NoteTokenize.
func Process(text string) annotated.Annotated[[]string] {
	return defaultRun(text)
}

var defaultRun = annotated.Compose(NormalizeCase, Tokenize)

// relabel replaces a stage's note with note.
func relabel[A, B any](stage func(A) annotated.Annotated[B], note string) func(A) annotated.Annotated[B] {
	return func(a A) annotated.Annotated[B] {
		return annotated.New(stage(a).Value, note)
	}
}
