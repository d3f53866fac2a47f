// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package tensor provides the public API for tensor values used by
// exported models: shapes, data types and raw CPU tensors.
//
// Example:
//
//	w, _ := tensor.FromFloat32([]float32{1, 2, 3}, tensor.Shape{3})
//	fmt.Println(w.Shape(), w.DType())
package tensor

import (
	"github.com/born-ml/savedmodel/internal/tensor"
)

// DataType represents the underlying data type of a tensor.
type DataType = tensor.DataType

// Data type constants.
const (
	Float32 DataType = tensor.Float32
	Float64 DataType = tensor.Float64
	Int32   DataType = tensor.Int32
	Int64   DataType = tensor.Int64
	Uint8   DataType = tensor.Uint8
	Bool    DataType = tensor.Bool
)

// Shape represents the dimensions of a tensor.
// Example: Shape{2, 3, 4} represents a 3D tensor with dimensions 2×3×4.
type Shape = tensor.Shape

// RawTensor is a dense CPU tensor holding raw little-endian data.
type RawTensor = tensor.RawTensor

// Zeros creates a zero-filled float32 tensor with the given shape.
func Zeros(shape Shape) *RawTensor {
	return tensor.Zeros(shape)
}

// FromFloat32 creates a float32 tensor from a data slice.
func FromFloat32(data []float32, shape Shape) (*RawTensor, error) {
	return tensor.FromFloat32(data, shape)
}

// Scalar creates a float32 scalar tensor.
func Scalar(v float32) *RawTensor {
	return tensor.Scalar(v)
}

// FromBytes creates a tensor over raw little-endian data.
func FromBytes(data []byte, shape Shape, dtype DataType) (*RawTensor, error) {
	return tensor.FromBytes(data, shape, dtype)
}
