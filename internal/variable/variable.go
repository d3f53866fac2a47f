// Package variable implements live, eager-context variables. A
// Variable owns exactly one resource Handle; handles are opaque
// identities valid only in the live context and are never mutated by
// export.
package variable

import (
	"fmt"
	"sync/atomic"

	"github.com/born-ml/savedmodel/internal/tensor"
	"github.com/born-ml/savedmodel/internal/track"
)

var handleSeq atomic.Uint64

// Handle is an opaque reference to a variable's runtime-managed state.
// Two handles are the same resource iff they are the same pointer.
type Handle struct {
	id    uint64
	name  string
	dtype tensor.DataType
	shape tensor.Shape
}

// ID returns the process-unique handle id.
func (h *Handle) ID() uint64 { return h.id }

// Name returns the owning variable's name.
func (h *Handle) Name() string { return h.name }

// DType returns the handle's element type metadata.
func (h *Handle) DType() tensor.DataType { return h.dtype }

// Shape returns the handle's shape metadata.
func (h *Handle) Shape() tensor.Shape { return h.shape }

// String implements fmt.Stringer.
func (h *Handle) String() string {
	return fmt.Sprintf("resource %q (dtype=%s, shape=%v, id=%d)", h.name, h.dtype, h.shape, h.id)
}

// Variable is a stateful object holding a tensor value behind a
// resource handle.
type Variable struct {
	handle *Handle
	value  *tensor.RawTensor
}

// New creates a variable with an initial value. The variable's dtype
// and shape are fixed by the initial value.
func New(name string, value *tensor.RawTensor) *Variable {
	return &Variable{
		handle: &Handle{
			id:    handleSeq.Add(1),
			name:  name,
			dtype: value.DType(),
			shape: value.Shape().Clone(),
		},
		value: value.Clone(),
	}
}

// Name returns the variable's name.
func (v *Variable) Name() string { return v.handle.name }

// Handle returns the variable's resource handle.
func (v *Variable) Handle() *Handle { return v.handle }

// DType returns the variable's element type.
func (v *Variable) DType() tensor.DataType { return v.handle.dtype }

// Shape returns the variable's shape.
func (v *Variable) Shape() tensor.Shape { return v.handle.shape }

// Value returns the current value.
func (v *Variable) Value() *tensor.RawTensor { return v.value }

// Assign replaces the variable's value. The new value must match the
// variable's dtype and shape.
func (v *Variable) Assign(value *tensor.RawTensor) error {
	if value.DType() != v.handle.dtype {
		return fmt.Errorf("cannot assign %s value to %s variable %q",
			value.DType(), v.handle.dtype, v.handle.name)
	}
	if !value.Shape().Equal(v.handle.shape) {
		return fmt.Errorf("cannot assign value of shape %v to variable %q of shape %v",
			value.Shape(), v.handle.name, v.handle.shape)
	}
	v.value = value.Clone()
	return nil
}

// TrackableChildren implements the track.Trackable capability; a
// variable is a leaf in the object hierarchy.
func (v *Variable) TrackableChildren() map[string]track.Trackable { return nil }
