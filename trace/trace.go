// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package trace provides the public API for declaring computations and
// compiling them into concrete functions that can be exported as model
// signatures.
//
// A computation is traced once over symbolic tensors. Variables read
// during tracing are captured and rebound to exported state at export
// time.
//
// Example:
//
//	score := trace.Declared("score",
//		func(tc *trace.Context, args []*trace.Tensor) any {
//			return tc.MatMul(args[0], tc.Read(w))
//		},
//		trace.ArgSpec{Name: "x", DType: tensor.Float32, Shape: tensor.Shape{1, 2}})
//	err := savedmodel.Export(root, "model_dir", score)
package trace

import (
	"github.com/born-ml/savedmodel/internal/graph"
	"github.com/born-ml/savedmodel/internal/trace"
)

// Tensor is a symbolic tensor flowing through a traced computation.
type Tensor = graph.Tensor

// ArgSpec declares the name, dtype and shape of one explicit argument.
type ArgSpec = trace.ArgSpec

// Fn is a user computation traced over symbolic tensors.
type Fn = trace.Fn

// Context is the tracing context passed to a computation while it is
// being traced.
type Context = trace.Context

// Traced is a declared computation that has not been compiled yet.
type Traced = trace.Traced

// Function is a compiled computation with a fixed input list and a
// capture table.
type Function = trace.Function

// New declares a computation without a fixed input shape. It cannot be
// exported as a signature until compiled with explicit specs.
func New(name string, fn Fn) *Traced {
	return trace.New(name, fn)
}

// Declared declares a computation with a fixed call shape. A function
// with zero arguments is declared by passing no specs.
func Declared(name string, fn Fn, specs ...ArgSpec) *Traced {
	return trace.Declared(name, fn, specs...)
}
