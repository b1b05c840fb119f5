// Package weights averages model weight sets layer by layer.
//
// Nothing here performs I/O; inputs are never mutated, so callers may hand in
// snapshots shared with other goroutines.
package weights

import "fmt"

// StructureMismatchError is returned when a contributor has a different
// number of layers than the target. Contribution is the zero-based position
// in the contributor list.
type StructureMismatchError struct {
	Contribution int
	Want         int
	Got          int
}

func (e *StructureMismatchError) Error() string {
	return fmt.Sprintf("contribution %d has %d layers, target has %d", e.Contribution, e.Got, e.Want)
}

// ShapeMismatchError is returned when the tensors at one layer disagree on shape.
type ShapeMismatchError struct {
	Layer int
	Want  []int
	Got   []int
}

func (e *ShapeMismatchError) Error() string {
	return fmt.Sprintf("layer %d shape mismatch: want %v got %v", e.Layer, e.Want, e.Got)
}

// Aggregate returns the elementwise mean of target and every contributor,
// layer by layer. With no contributors it returns a copy of target.
func Aggregate(target []Tensor, contributors [][]Tensor) ([]Tensor, error) {
	L := len(target)
	for ci, c := range contributors {
		if len(c) != L {
			return nil, &StructureMismatchError{Contribution: ci, Want: L, Got: len(c)}
		}
	}
	for i := 0; i < L; i++ {
		want := target[i].Shape
		if volume(want) != len(target[i].Data) {
			return nil, &ShapeMismatchError{Layer: i, Want: want, Got: []int{len(target[i].Data)}}
		}
		for _, c := range contributors {
			if !sameShape(want, c[i].Shape) || len(c[i].Data) != len(target[i].Data) {
				return nil, &ShapeMismatchError{Layer: i, Want: want, Got: c[i].Shape}
			}
		}
	}

	k := float64(1 + len(contributors))
	out := make([]Tensor, L)
	for i := 0; i < L; i++ {
		sum := make([]float64, len(target[i].Data))
		copy(sum, target[i].Data)
		for _, c := range contributors {
			for j, v := range c[i].Data {
				sum[j] += v
			}
		}
		for j := range sum {
			sum[j] /= k
		}
		out[i] = Tensor{Shape: append([]int{}, target[i].Shape...), Data: sum}
	}
	return out, nil
}
