// Package shape is a closed sum of plane shapes with operations defined by
// exhaustive type switches.
package shape

import (
	"fmt"
	"math"
)

// Shape is implemented only by Circle, Rect and Square. The functions of
// this package panic when given a nil Shape, the one value outside the
// sum that the type system lets through.
type Shape interface {
	isShape()
}

// Circle is a circle of radius R.
type Circle struct{ R float64 }

// Rect is a rectangle of width W and height H.
type Rect struct{ W, H float64 }

// Square is a square with sides of length Side.
type Square struct{ Side float64 }

func (Circle) isShape() {}
func (Rect) isShape() {}
func (Square) isShape() {}

// Area returns the area of s. It panics if s is nil.
func Area(s Shape) float64 {
	switch v := s.(type) {
	case Circle:
		return math.Pi * v.R * v.R
	case Rect:
		return v.W * v.H
	case Square:
		return v.Side * v.Side
	default:
		panic(fmt.Sprintf("shape: not a variant: %T", s))
	}
}

// Circumference returns the perimeter of s. It panics if s is nil.
func Circumference(s Shape) float64 {
	switch v := s.(type) {
	case Circle:
		return 2 * math.Pi * v.R
	case Rect:
		return 2 * (v.W + v.H)
	case Square:
		return 4 * v.Side
	default:
		panic(fmt.Sprintf("shape: not a variant: %T", s))
	}
}

// Name returns the variant name of s. It panics if s is nil.
func Name(s Shape) string {
	switch s.(type) {
	case Circle:
		return "circle"
	case Rect:
		return "rect"
	case Square:
		return "square"
	default:
		panic(fmt.Sprintf("shape: not a variant: %T", s))
	}
}
