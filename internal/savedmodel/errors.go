package savedmodel

import "errors"

// Error taxonomy. Every failure aborts the whole export; nothing is
// retried internally.
var (
	// ErrNotTrackable: the export root does not support the trackable
	// capability.
	ErrNotTrackable = errors.New("root object is not trackable")
	// ErrAmbiguousSignature: a traced function without declared input
	// shapes was passed as a signature.
	ErrAmbiguousSignature = errors.New("signature function has no declared input shapes")
	// ErrInvalidSignature: a signature value of an unsupported type.
	ErrInvalidSignature = errors.New("invalid signature value")
	// ErrNonFlatOutputs: a signature function returned nested output
	// structures.
	ErrNonFlatOutputs = errors.New("signature outputs are not flat")
	// ErrNonTensorOutput: a string-keyed output mapping contains a
	// value that is not a single tensor.
	ErrNonTensorOutput = errors.New("output mapping contains a non-tensor value")
	// ErrUntrackedResource: a signature function captures state that is
	// not reachable from the export root.
	ErrUntrackedResource = errors.New("function references untracked stateful object")
	// ErrDuplicateArgumentName: two declared arguments of a signature
	// function resolve to the same name.
	ErrDuplicateArgumentName = errors.New("duplicate signature argument name")
)
