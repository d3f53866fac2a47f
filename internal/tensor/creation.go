package tensor

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Zeros creates a zero-filled float32 tensor.
func Zeros(shape Shape) *RawTensor {
	r, err := NewRaw(shape, Float32)
	if err != nil {
		panic(err)
	}
	return r
}

// FromFloat32 creates a float32 tensor from a Go slice.
func FromFloat32(data []float32, shape Shape) (*RawTensor, error) {
	if len(data) != shape.NumElements() {
		return nil, fmt.Errorf("data length %d does not match shape %v (%d elements)",
			len(data), shape, shape.NumElements())
	}
	raw := make([]byte, len(data)*4)
	for i, v := range data {
		binary.LittleEndian.PutUint32(raw[i*4:], math.Float32bits(v))
	}
	return FromBytes(raw, shape, Float32)
}

// Scalar creates a zero-dimensional float32 tensor holding v.
func Scalar(v float32) *RawTensor {
	r, err := FromFloat32([]float32{v}, Shape{})
	if err != nil {
		panic(err)
	}
	return r
}
