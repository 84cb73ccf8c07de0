// Package annotated pairs a computed value with a short note describing
// the step that produced it, and composes functions returning such pairs.
//
// A function of shape func(A) Annotated[B] is an arrow in the Kleisli
// category of the writer: composing two of them threads the value left to
// right and concatenates the notes in call order.
package annotated

// Annotated is a value together with the note of the step that produced it.
type Annotated[T any] struct {
	Value T
	Note  string
}

// Stage is a function returning an annotated value.
type Stage[A, B any] func(A) Annotated[B]

// New pairs v with note.
func New[T any](v T, note string) Annotated[T] {
	return Annotated[T]{Value: v, Note: note}
}

// Return wraps v with an empty note. It is the identity arrow for Compose.
func Return[T any](v T) Annotated[T] {
	return Annotated[T]{Value: v}
}

// Compose runs f then g, feeding f's value to g. The resulting note is
// f's note followed by g's note.
func Compose[A, B, C any](f func(A) Annotated[B], g func(B) Annotated[C]) func(A) Annotated[C] {
	return func(a A) Annotated[C] {
		p1 := f(a)
		p2 := g(p1.Value)
		return Annotated[C]{Value: p2.Value, Note: p1.Note + p2.Note}
	}
}

// Bind applies f to a's value and appends f's note to a's note.
func Bind[A, B any](a Annotated[A], f func(A) Annotated[B]) Annotated[B] {
	next := f(a.Value)
	return Annotated[B]{Value: next.Value, Note: a.Note + next.Note}
}

// Map applies a plain function to the value and keeps the note.
func Map[A, B any](a Annotated[A], f func(A) B) Annotated[B] {
	return Annotated[B]{Value: f(a.Value), Note: a.Note}
}

// Chain composes same-typed stages left to right. With no stages it
// returns Return.
func Chain[T any](stages ...func(T) Annotated[T]) func(T) Annotated[T] {
	return func(v T) Annotated[T] {
		acc := Return(v)
		for _, stage := range stages {
			acc = Bind(acc, stage)
		}
		return acc
	}
}

// Lift turns a plain function into a stage that always emits note.
func Lift[A, B any](f func(A) B, note string) func(A) Annotated[B] {
	return func(a A) Annotated[B] {
		return Annotated[B]{Value: f(a), Note: note}
	}
}

// NoteNegate is emitted by Negate.
const NoteNegate = "Not so! "

// Negate returns !b annotated with NoteNegate. The log travels with the
// result instead of being appended to shared state.
func Negate(b bool) Annotated[bool] {
	return Annotated[bool]{Value: !b, Note: NoteNegate}
}
