package ingest

import (
	"sort"
	"strings"
	"sync"
	"unicode"
	"unicode/utf8"

	"github.com/cognicore/kleisli/pkg/kleisli/annotated"
)

// Fixed notes emitted by the built-in stages.
const (
	NoteNormalize = "toUpper "
	NoteTokenize  = "toWords "
	NoteFilter    = "filtered "
)

// NormalizeCase maps every letter of text to upper case, rune by rune.
// Non-letters are left alone, so the rune count never changes. Bytes that
// are not valid UTF-8 are copied through as they are.
func NormalizeCase(text string) annotated.Annotated[string] {
	return annotated.New(upper(text), NoteNormalize)
}

// Tokenize splits text on whitespace boundaries.
//
// Every whitespace rune starts a new token, so runs of whitespace produce
// empty tokens between them and leading or trailing whitespace produces an
// empty token at the edge. The result always holds exactly one more token
// than text has whitespace runes.
func Tokenize(text string) annotated.Annotated[[]string] {
	return annotated.New(words(text), NoteTokenize)
}

func upper(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	for i := 0; i < len(text); {
		r, size := utf8.DecodeRuneInString(text[i:])
		if r == utf8.RuneError && size == 1 {
			b.WriteByte(text[i])
		} else {
			if unicode.IsLetter(r) {
				r = toUpperRune(r)
			}
			b.WriteRune(r)
		}
		i += size
	}
	return b.String()
}

// toUpperRune keeps letters whose upper case form is not a single letter
// (or is not a letter at all) unchanged so that the mapping stays
// idempotent.
func toUpperRune(r rune) rune {
	u := unicode.ToUpper(r)
	if !unicode.IsLetter(u) || unicode.ToUpper(u) != u {
		return r
	}
	return u
}

// words slices text at whitespace runes. Tokens are substrings of text,
// so invalid UTF-8 inside a token survives untouched.
func words(text string) []string {
	tokens := make([]string, 0, 1)
	start := 0

	for i := 0; i < len(text); {
		r, size := utf8.DecodeRuneInString(text[i:])
		if unicode.IsSpace(r) {
			tokens = append(tokens, text[start:i])
			start = i + size
		}
		i += size
	}
	tokens = append(tokens, text[start:])

	return tokens
}

// StopFilter drops stopwords from a token sequence. It is safe for
// concurrent use; the stopword set may change while pipelines use it.
type StopFilter struct {
	mu        sync.RWMutex
	stopwords map[string]struct{}
}

// NewStopFilter creates a filter with the given stopword list.
// Matching is case-insensitive.
func NewStopFilter(stopwords []string) *StopFilter {
	f := &StopFilter{stopwords: make(map[string]struct{}, len(stopwords))}
	for _, w := range stopwords {
		f.AddStopword(w)
	}
	return f
}

// Filter returns tokens without stopwords, annotated with NoteFilter.
// Empty tokens are kept.
func (f *StopFilter) Filter(tokens []string) annotated.Annotated[[]string] {
	return annotated.New(f.keep(tokens), NoteFilter)
}

func (f *StopFilter) keep(tokens []string) []string {
	f.mu.RLock()
	defer f.mu.RUnlock()

	out := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		if f.isStop(tok) {
			continue
		}
		out = append(out, tok)
	}
	return out
}

// IsStop reports whether token is a stopword.
func (f *StopFilter) IsStop(token string) bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.isStop(token)
}

func (f *StopFilter) isStop(token string) bool {
	if token == "" {
		return false
	}
	_, ok := f.stopwords[strings.ToLower(token)]
	return ok
}

// Len returns the number of stopwords.
func (f *StopFilter) Len() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.stopwords)
}

// Stopwords returns the stopword list in sorted order.
func (f *StopFilter) Stopwords() []string {
	f.mu.RLock()
	defer f.mu.RUnlock()

	out := make([]string, 0, len(f.stopwords))
	for w := range f.stopwords {
		out = append(out, w)
	}
	sort.Strings(out)
	return out
}

// AddStopword adds a word to the stopword list. Blank words are ignored.
func (f *StopFilter) AddStopword(word string) {
	word = strings.ToLower(strings.TrimSpace(word))
	if word == "" {
		return
	}
	f.mu.Lock()
	f.stopwords[word] = struct{}{}
	f.mu.Unlock()
}

// RemoveStopword removes a word from the stopword list
func (f *StopFilter) RemoveStopword(word string) {
	f.mu.Lock()
	delete(f.stopwords, strings.ToLower(strings.TrimSpace(word)))
	f.mu.Unlock()
}
