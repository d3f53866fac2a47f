// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package savedmodel provides the public API for exporting live models
// to self-contained directories and inspecting them.
//
// An export directory holds a protobuf container (saved_model.pb) with
// the exported graph, named signatures and restore metadata, plus a
// checkpoint with all variable values under variables/.
//
// Example:
//
//	root := track.NewContainer()
//	root.Track("weights", w)
//	err := savedmodel.Export(root, "model_dir", score)
package savedmodel

import (
	"github.com/born-ml/savedmodel/internal/savedmodel"
)

// DefaultServingSignatureKey is the key under which a single signature
// passed without a key is exported.
const DefaultServingSignatureKey = savedmodel.DefaultServingSignatureKey

// Exported container layout.
const (
	ContainerFileName = savedmodel.ContainerFileName
	VariablesDirName  = savedmodel.VariablesDirName
	VariablesFileName = savedmodel.VariablesFileName
)

// Export failure modes, matchable with errors.Is.
var (
	ErrNotTrackable          = savedmodel.ErrNotTrackable
	ErrAmbiguousSignature    = savedmodel.ErrAmbiguousSignature
	ErrInvalidSignature      = savedmodel.ErrInvalidSignature
	ErrNonFlatOutputs        = savedmodel.ErrNonFlatOutputs
	ErrNonTensorOutput       = savedmodel.ErrNonTensorOutput
	ErrUntrackedResource     = savedmodel.ErrUntrackedResource
	ErrDuplicateArgumentName = savedmodel.ErrDuplicateArgumentName
)

// SavedModel is a decoded container.
type SavedModel = savedmodel.SavedModel

// MetaGraph bundles the exported graph with its signatures and restore
// metadata.
type MetaGraph = savedmodel.MetaGraph

// SignatureDef describes one named callable entry point.
type SignatureDef = savedmodel.SignatureDef

// TensorInfo is a static descriptor of one tensor in the exported
// graph.
type TensorInfo = savedmodel.TensorInfo

// Info is a human-oriented summary of an export directory.
type Info = savedmodel.Info

// SignatureInfo summarizes one signature.
type SignatureInfo = savedmodel.SignatureInfo

// TensorSummary summarizes one signature input or output.
type TensorSummary = savedmodel.TensorSummary

// VariableInfo summarizes one persisted variable.
type VariableInfo = savedmodel.VariableInfo

// Export writes root's state and the given signatures to dir.
//
// The root must be trackable; every variable the signatures capture
// must be reachable from it. The signatures value may be nil, a single
// traced or compiled function, or a string-keyed map of either. All
// validation happens before anything touches the filesystem, so a
// failed export leaves no partial directory behind.
func Export(root any, dir string, signatures any) error {
	return savedmodel.Export(root, dir, signatures)
}

// Load reads and decodes the container from an export directory.
func Load(dir string) (*SavedModel, error) {
	return savedmodel.Load(dir)
}

// Inspect loads an export directory and summarizes its container and
// variable checkpoint, verifying the checkpoint's integrity checksum.
func Inspect(dir string) (*Info, error) {
	return savedmodel.Inspect(dir)
}
