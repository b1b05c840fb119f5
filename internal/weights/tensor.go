package weights

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
)

// Tensor is a dense row-major array. A scalar has an empty Shape and one element.
type Tensor struct {
	Shape []int
	Data  []float64
}

// NewTensor validates that data fills shape exactly.
func NewTensor(shape []int, data []float64) (Tensor, error) {
	if n := volume(shape); n != len(data) {
		return Tensor{}, fmt.Errorf("tensor shape %v holds %d values, got %d", shape, n, len(data))
	}
	return Tensor{Shape: append([]int(nil), shape...), Data: append([]float64(nil), data...)}, nil
}

func volume(shape []int) int {
	n := 1
	for _, d := range shape {
		n *= d
	}
	return n
}

func sameShape(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

var errRagged = errors.New("ragged nested array")

// UnmarshalJSON accepts a number or an arbitrarily nested rectangular array of numbers.
func (t *Tensor) UnmarshalJSON(b []byte) error {
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	var raw any
	if err := dec.Decode(&raw); err != nil {
		return err
	}
	shape, err := inferShape(raw)
	if err != nil {
		return err
	}
	data := make([]float64, 0, volume(shape))
	data, err = flatten(raw, data)
	if err != nil {
		return err
	}
	t.Shape = shape
	t.Data = data
	return nil
}

func inferShape(v any) ([]int, error) {
	switch x := v.(type) {
	case json.Number:
		return []int{}, nil
	case []any:
		if len(x) == 0 {
			return []int{0}, nil
		}
		inner, err := inferShape(x[0])
		if err != nil {
			return nil, err
		}
		for _, child := range x[1:] {
			s, err := inferShape(child)
			if err != nil {
				return nil, err
			}
			if !sameShape(s, inner) {
				return nil, errRagged
			}
		}
		return append([]int{len(x)}, inner...), nil
	default:
		return nil, fmt.Errorf("tensor element must be a number or array, got %T", v)
	}
}

func flatten(v any, out []float64) ([]float64, error) {
	switch x := v.(type) {
	case json.Number:
		f, err := x.Float64()
		if err != nil {
			return nil, err
		}
		return append(out, f), nil
	case []any:
		var err error
		for _, child := range x {
			if out, err = flatten(child, out); err != nil {
				return nil, err
			}
		}
		return out, nil
	default:
		return nil, fmt.Errorf("tensor element must be a number or array, got %T", v)
	}
}

// MarshalJSON writes the tensor back as nested arrays.
func (t Tensor) MarshalJSON() ([]byte, error) {
	if volume(t.Shape) != len(t.Data) {
		return nil, fmt.Errorf("tensor shape %v does not match %d values", t.Shape, len(t.Data))
	}
	var buf bytes.Buffer
	writeNested(&buf, t.Shape, t.Data)
	return buf.Bytes(), nil
}

func writeNested(buf *bytes.Buffer, shape []int, data []float64) {
	if len(shape) == 0 {
		buf.WriteString(strconv.FormatFloat(data[0], 'g', -1, 64))
		return
	}
	buf.WriteByte('[')
	stride := volume(shape[1:])
	for i := 0; i < shape[0]; i++ {
		if i > 0 {
			buf.WriteByte(',')
		}
		writeNested(buf, shape[1:], data[i*stride:(i+1)*stride])
	}
	buf.WriteByte(']')
}
