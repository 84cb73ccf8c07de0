package annotated

import (
	"fmt"
	"strconv"
	"testing"
)

func double(n int) Annotated[int] { return New(n*2, "double ") }
func inc(n int) Annotated[int] { return New(n+1, "inc ") }
func show(n int) Annotated[string] {
	return New(strconv.Itoa(n), "show ")
}

func TestCompose(t *testing.T) {
	got := Compose(double, show)(21)
	if got.Value != "42" {
		t.Errorf("Value = %q, want %q", got.Value, "42")
	}
	if got.Note != "double show " {
		t.Errorf("Note = %q, want %q", got.Note, "double show ")
	}
}

func TestComposeIdentity(t *testing.T) {
	left := Compose(Return[int], double)(5)
	right := Compose(double, Return[int])(5)
	direct := double(5)

	if left != direct {
		t.Errorf("left identity: got %+v, want %+v", left, direct)
	}
	if right != direct {
		t.Errorf("right identity: got %+v, want %+v", right, direct)
	}
}

func TestComposeAssociative(t *testing.T) {
	a := Compose(Compose(double, inc), show)(3)
	b := Compose(double, Compose(inc, show))(3)
	if a != b {
		t.Errorf("(f>=>g)>=>h = %+v, f>=>(g>=>h) = %+v", a, b)
	}
	if a.Value != "7" || a.Note != "double inc show " {
		t.Errorf("unexpected result %+v", a)
	}
}

func TestBindAndMap(t *testing.T) {
	start := New(4, "start ")

	bound := Bind(start, inc)
	if bound.Value != 5 || bound.Note != "start inc " {
		t.Errorf("Bind = %+v", bound)
	}

	mapped := Map(bound, func(n int) string { return fmt.Sprint(n * 10) })
	if mapped.Value != "50" || mapped.Note != "start inc " {
		t.Errorf("Map = %+v", mapped)
	}
}

func TestChain(t *testing.T) {
	tests := []struct {
		name     string
		stages   []func(int) Annotated[int]
		in       int
		want     int
		wantNote string
	}{
		{"empty", nil, 7, 7, ""},
		{"single", []func(int) Annotated[int]{inc}, 7, 8, "inc "},
		{"ordered", []func(int) Annotated[int]{inc, double}, 1, 4, "inc double "},
		{"reversed", []func(int) Annotated[int]{double, inc}, 1, 3, "double inc "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Chain(tt.stages...)(tt.in)
			if got.Value != tt.want {
				t.Errorf("Value = %d, want %d", got.Value, tt.want)
			}
			if got.Note != tt.wantNote {
				t.Errorf("Note = %q, want %q", got.Note, tt.wantNote)
			}
		})
	}
}

func TestLift(t *testing.T) {
	stage := Lift(strconv.Itoa, "itoa ")
	got := stage(12)
	if got.Value != "12" || got.Note != "itoa " {
		t.Errorf("Lift = %+v", got)
	}
}

func TestNegate(t *testing.T) {
	got := Compose(Negate, Negate)(true)
	if got.Value != true {
		t.Errorf("double negation should restore value, got %v", got.Value)
	}
	if got.Note != "Not so! Not so! " {
		t.Errorf("Note = %q", got.Note)
	}

	// Repeated calls are independent of each other.
	first := Negate(false)
	second := Negate(false)
	if first != second {
		t.Errorf("Negate is not referentially transparent: %+v vs %+v", first, second)
	}
}

func ExampleCompose() {
	f := Compose(Negate, Lift(strconv.FormatBool, "format "))
	r := f(true)
	fmt.Printf("%s | %q\n", r.Value, r.Note)
	// Output: false | "Not so! format "
}
