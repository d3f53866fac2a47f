// Package trace implements the compilation engine that turns a traced
// Go computation into a concrete Function with a fixed input list, a
// capture table for every live variable it reads, and a registrable
// function body.
//
// Tracing runs the user's computation once over symbolic tensors in a
// private body graph. Variables read during tracing become captures:
// interior placeholders in the body paired with the exterior live
// resource handles they stand in for.
package trace

import (
	"fmt"
	"sync/atomic"

	"github.com/born-ml/savedmodel/internal/graph"
	"github.com/born-ml/savedmodel/internal/tensor"
	"github.com/born-ml/savedmodel/internal/variable"
)

// ArgSpec declares the name, dtype and shape of one explicit argument.
type ArgSpec struct {
	Name  string
	DType tensor.DataType
	Shape tensor.Shape
}

// Fn is a user computation traced over symbolic tensors. It may return
// a *graph.Tensor, a slice of tensors, a string-keyed map of tensors,
// or nested combinations (nesting is rejected later when the function
// is used as a signature).
type Fn func(tc *Context, args []*graph.Tensor) any

// Traced is a declared computation that has not been compiled yet.
type Traced struct {
	name     string
	fn       Fn
	specs    []ArgSpec
	declared bool
	concrete *Function
}

// New declares a computation without a fixed input shape. It cannot be
// exported as a signature until compiled with explicit specs.
func New(name string, fn Fn) *Traced {
	return &Traced{name: name, fn: fn}
}

// Declared declares a computation with a fixed call shape. A function
// with zero arguments is declared by passing no specs.
func Declared(name string, fn Fn, specs ...ArgSpec) *Traced {
	return &Traced{name: name, fn: fn, specs: specs, declared: true}
}

// Name returns the declared name.
func (t *Traced) Name() string { return t.name }

// HasInputSpec reports whether the call shape was declared.
func (t *Traced) HasInputSpec() bool { return t.declared }

var funcSeq atomic.Uint64

// Concrete compiles the traced computation into a concrete Function.
// The result is cached; repeated calls return the same Function.
func (t *Traced) Concrete() (*Function, error) {
	if !t.declared {
		return nil, fmt.Errorf("function %q has no declared input shapes", t.name)
	}
	if t.concrete != nil {
		return t.concrete, nil
	}

	body := graph.New()
	tc := &Context{
		g:        body,
		byHandle: make(map[*variable.Handle]*graph.Tensor),
	}

	inputs := make([]Input, 0, len(t.specs))
	args := make([]*graph.Tensor, len(t.specs))
	for i, spec := range t.specs {
		name := spec.Name
		if name == "" {
			name = fmt.Sprintf("arg_%d", i)
		}
		ph, err := body.Placeholder(name, spec.DType, spec.Shape)
		if err != nil {
			return nil, fmt.Errorf("tracing %q: %w", t.name, err)
		}
		args[i] = ph
		inputs = append(inputs, Input{
			Placeholder: ph,
			Name:        name,
			StructName:  ph.Node().Name(),
		})
	}

	ret := t.fn(tc, args)
	flat := flattenTensors(ret)

	for _, capture := range tc.captures {
		inputs = append(inputs, Input{
			Placeholder: capture.Interior,
			StructName:  capture.Interior.Node().Name(),
			Captured:    true,
		})
	}

	name := fmt.Sprintf("__inference_%s_%d", t.name, funcSeq.Add(1))
	def := &graph.FunctionDef{Name: name}
	for _, in := range inputs {
		def.InputArgs = append(def.InputArgs, graph.ArgDef{
			Name:  in.StructName,
			DType: in.Placeholder.DType(),
			Shape: in.Placeholder.Shape().Clone(),
		})
	}
	for i, out := range flat {
		def.OutputArgs = append(def.OutputArgs, graph.ArgDef{
			Name:  fmt.Sprintf("output_%d", i),
			DType: out.DType(),
			Shape: out.Shape().Clone(),
		})
	}
	def.Nodes = body.Def(false).Nodes

	t.concrete = &Function{
		name:     name,
		body:     body,
		inputs:   inputs,
		captures: tc.captures,
		retVal:   ret,
		flatOuts: flat,
		def:      def,
	}
	return t.concrete, nil
}

// Context is handed to the traced computation. It records every
// operation into the function body and tracks captured variables.
type Context struct {
	g        *graph.Graph
	captures []Capture
	byHandle map[*variable.Handle]*graph.Tensor
}

// Read captures a live variable and returns its symbolic value inside
// the function body. Reading the same variable twice reuses the same
// capture.
func (tc *Context) Read(v *variable.Variable) *graph.Tensor {
	interior, ok := tc.byHandle[v.Handle()]
	if !ok {
		ph, err := tc.g.Placeholder(v.Name()+"_capture", v.DType(), v.Shape())
		if err != nil {
			panic(fmt.Sprintf("trace: capturing %q: %v", v.Name(), err))
		}
		interior = ph
		tc.byHandle[v.Handle()] = interior
		tc.captures = append(tc.captures, Capture{Interior: interior, Exterior: v.Handle()})
	}
	out, err := tc.g.AddNode("ReadVariable", v.Name()+"_read", []*graph.Tensor{interior}, nil,
		[]graph.Output{{DType: v.DType(), Shape: v.Shape()}})
	if err != nil {
		panic(fmt.Sprintf("trace: reading %q: %v", v.Name(), err))
	}
	return out.Output(0)
}

// Identity records an identity op.
func (tc *Context) Identity(x *graph.Tensor) *graph.Tensor {
	return tc.binaryless("Identity", x, x.Shape())
}

// Add records an element-wise addition. Operand shapes must match.
func (tc *Context) Add(a, b *graph.Tensor) *graph.Tensor {
	return tc.elementwise("Add", a, b)
}

// Mul records an element-wise multiplication. Operand shapes must match.
func (tc *Context) Mul(a, b *graph.Tensor) *graph.Tensor {
	return tc.elementwise("Mul", a, b)
}

// MatMul records a matrix multiplication of [m,k] x [k,n].
func (tc *Context) MatMul(a, b *graph.Tensor) *graph.Tensor {
	as, bs := a.Shape(), b.Shape()
	if len(as) != 2 || len(bs) != 2 || as[1] != bs[0] {
		panic(fmt.Sprintf("trace: MatMul shapes %v x %v are incompatible", as, bs))
	}
	return tc.record("MatMul", []*graph.Tensor{a, b}, a.DType(), tensor.Shape{as[0], bs[1]})
}

func (tc *Context) elementwise(op string, a, b *graph.Tensor) *graph.Tensor {
	if a.DType() != b.DType() {
		panic(fmt.Sprintf("trace: %s dtype mismatch: %s vs %s", op, a.DType(), b.DType()))
	}
	if !a.Shape().Equal(b.Shape()) {
		panic(fmt.Sprintf("trace: %s shape mismatch: %v vs %v", op, a.Shape(), b.Shape()))
	}
	return tc.record(op, []*graph.Tensor{a, b}, a.DType(), a.Shape())
}

func (tc *Context) binaryless(op string, x *graph.Tensor, shape tensor.Shape) *graph.Tensor {
	return tc.record(op, []*graph.Tensor{x}, x.DType(), shape)
}

func (tc *Context) record(op string, inputs []*graph.Tensor, dtype tensor.DataType, shape tensor.Shape) *graph.Tensor {
	n, err := tc.g.AddNode(op, opBaseName(op), inputs, nil,
		[]graph.Output{{DType: dtype, Shape: shape}})
	if err != nil {
		panic(fmt.Sprintf("trace: recording %s: %v", op, err))
	}
	return n.Output(0)
}

func opBaseName(op string) string {
	b := []byte(op)
	if b[0] >= 'A' && b[0] <= 'Z' {
		b[0] += 'a' - 'A'
	}
	return string(b)
}
