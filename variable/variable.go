// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package variable provides the public API for mutable model state:
// named variables with a fixed dtype and shape, identified by opaque
// resource handles.
//
// Example:
//
//	w := variable.New("weights", tensor.Zeros(tensor.Shape{2, 3}))
//	err := w.Assign(updated)
package variable

import (
	"github.com/born-ml/savedmodel/internal/tensor"
	"github.com/born-ml/savedmodel/internal/variable"
)

// Variable is a mutable tensor with a stable identity. It is a
// trackable leaf: track it from an export root to have its value
// persisted.
type Variable = variable.Variable

// Handle is the opaque resource identity of a variable.
type Handle = variable.Handle

// New creates a variable holding a copy of the given initial value.
func New(name string, value *tensor.RawTensor) *Variable {
	return variable.New(name, value)
}
