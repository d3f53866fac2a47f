// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package track provides the public API for the trackable object
// hierarchy. Objects reachable from an export root through trackable
// children have their state discovered, persisted and restored.
//
// Example:
//
//	root := track.NewContainer()
//	root.Track("weights", w)
//	root.Track("bias", b)
//	err := savedmodel.Export(root, "model_dir", scoreFn)
package track

import (
	"github.com/born-ml/savedmodel/internal/track"
)

// Trackable is the capability required of every object participating
// in the tracked ownership hierarchy, including the export root.
type Trackable = track.Trackable

// Container is a ready-made Trackable that tracks children by name.
type Container = track.Container

// TrackedObject is one reachable object with its path from the root.
type TrackedObject = track.TrackedObject

// NewContainer creates an empty container.
func NewContainer() *Container {
	return track.NewContainer()
}

// List enumerates all objects reachable from root in deterministic
// order, together with their attribute paths.
func List(root Trackable) []TrackedObject {
	return track.List(root)
}

// ListObjects is List without paths.
func ListObjects(root Trackable) []Trackable {
	return track.ListObjects(root)
}
