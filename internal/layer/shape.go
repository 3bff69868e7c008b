package layer

import (
	"fmt"
	"math"
	"math/bits"
)

// Shape is a width x height x channels tensor shape, batch excluded.
type Shape struct {
	W int `yaml:"w"`
	H int `yaml:"h"`
	C int `yaml:"c"`
}

// Elements returns the number of values in one sample of this shape. The
// count saturates at math.MaxInt instead of wrapping.
func (s Shape) Elements() int {
	n, _ := s.CheckedElements()
	return n
}

// CheckedElements is Elements plus whether the count fit in an int. A shape
// with a negative dimension has no elements.
func (s Shape) CheckedElements() (int, bool) {
	if s.W < 0 || s.H < 0 || s.C < 0 {
		return 0, true
	}
	n := mulSat(math.MaxInt, uint64(s.W), uint64(s.H), uint64(s.C))
	return int(n), n < math.MaxInt
}

// mulSat multiplies factors, clamping the product at limit.
func mulSat(limit uint64, factors ...uint64) uint64 {
	p := uint64(1)
	for _, f := range factors {
		hi, lo := bits.Mul64(p, f)
		if hi != 0 || lo > limit {
			return limit
		}
		p = lo
	}
	return p
}

// Spatial reports whether the shape still has a 2D extent.
func (s Shape) Spatial() bool {
	return s.W > 1 && s.H > 1
}

// Valid reports whether every dimension is at least 1.
func (s Shape) Valid() bool {
	return s.W > 0 && s.H > 0 && s.C > 0
}

func (s Shape) String() string {
	return fmt.Sprintf("%d x %d x %d", s.W, s.H, s.C)
}
