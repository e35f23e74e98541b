// Package tensor holds the dense float32 arrays exchanged between the image
// preprocessor and the inference adapters.
package tensor

import (
	"fmt"
	"strconv"
	"strings"
)

type Shape []int

func (s Shape) Equal(other Shape) bool {
	if len(s) != len(other) {
		return false
	}
	for i := range s {
		if s[i] != other[i] {
			return false
		}
	}
	return true
}

// Size is the number of elements a tensor of this shape holds.
func (s Shape) Size() int {
	if len(s) == 0 {
		return 0
	}
	n := 1
	for _, d := range s {
		n *= d
	}
	return n
}

func (s Shape) String() string {
	parts := make([]string, len(s))
	for i, d := range s {
		parts[i] = strconv.Itoa(d)
	}
	return "(" + strings.Join(parts, ",") + ")"
}

// Tensor is a row-major float32 array.
type Tensor struct {
	Shape Shape
	Data  []float32
}

func New(shape Shape, data []float32) (Tensor, error) {
	for _, d := range shape {
		if d <= 0 {
			return Tensor{}, fmt.Errorf("invalid dimension %d in shape %s", d, shape)
		}
	}
	if shape.Size() != len(data) {
		return Tensor{}, fmt.Errorf("shape %s needs %d values, got %d", shape, shape.Size(), len(data))
	}

	return Tensor{Shape: append(Shape(nil), shape...), Data: data}, nil
}

func Zeros(shape Shape) Tensor {
	return Tensor{Shape: append(Shape(nil), shape...), Data: make([]float32, shape.Size())}
}

// Batch returns the i-th entry along the leading dimension as a view.
func (t Tensor) Batch(i int) (Tensor, error) {
	if len(t.Shape) < 2 {
		return Tensor{}, fmt.Errorf("tensor of shape %s has no batch dimension", t.Shape)
	}
	if i < 0 || i >= t.Shape[0] {
		return Tensor{}, fmt.Errorf("batch index %d out of range for shape %s", i, t.Shape)
	}

	inner := t.Shape[1:]
	stride := inner.Size()
	return Tensor{Shape: append(Shape(nil), inner...), Data: t.Data[i*stride : (i+1)*stride]}, nil
}

// MinMax reports the smallest and largest values held.
func (t Tensor) MinMax() (float32, float32) {
	if len(t.Data) == 0 {
		return 0, 0
	}
	lo, hi := t.Data[0], t.Data[0]
	for _, v := range t.Data[1:] {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	return lo, hi
}
