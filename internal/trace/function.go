package trace

import (
	"fmt"

	"github.com/born-ml/savedmodel/internal/graph"
	"github.com/born-ml/savedmodel/internal/variable"
)

// Input is one entry of a Function's ordered input list: either a
// capture (a reference to a live resource) or an explicit argument
// with a user-assigned name.
type Input struct {
	// Placeholder is the interior tensor in the function body.
	Placeholder *graph.Tensor
	// Name is the user-assigned argument name. Empty for captures.
	Name string
	// StructName is the structural node name the placeholder received
	// in the body graph. It differs from Name when the tracer had to
	// uniquify a colliding argument name.
	StructName string
	// Captured marks inputs captured from the live context.
	Captured bool
}

// Capture maps an interior placeholder in the function body to the
// exterior live resource handle it was captured from.
type Capture struct {
	Interior *graph.Tensor
	Exterior *variable.Handle
}

// Function is an immutable, compiled computation function: a fixed
// ordered input list, a capture table and a registrable body.
type Function struct {
	name     string
	body     *graph.Graph
	inputs   []Input
	captures []Capture
	retVal   any
	flatOuts []*graph.Tensor
	def      *graph.FunctionDef
	grad     *Function
}

// Name returns the registry name of the compiled function.
func (f *Function) Name() string { return f.name }

// Inputs returns the ordered input list (arguments first, captures
// after, in capture order). Calls must supply inputs in exactly this
// order.
func (f *Function) Inputs() []Input { return f.inputs }

// Captures returns the capture table.
func (f *Function) Captures() []Capture { return f.captures }

// NumOutputs returns the number of flattened outputs.
func (f *Function) NumOutputs() int { return len(f.flatOuts) }

// SetGradient associates a gradient function, registered alongside the
// function itself when gradient registration is requested.
func (f *Function) SetGradient(grad *Function) { f.grad = grad }

// AddToGraph registers the function body in the target graph's
// function library. With registerGradients set, any associated
// gradient function is registered too; signature export passes false
// since exported signatures are inference-only.
func (f *Function) AddToGraph(g *graph.Graph, registerGradients bool) error {
	if err := g.RegisterFunction(f.def); err != nil {
		return fmt.Errorf("registering %q: %w", f.name, err)
	}
	if registerGradients && f.grad != nil {
		if err := f.grad.AddToGraph(g, registerGradients); err != nil {
			return err
		}
	}
	return nil
}

// Call adds a call node invoking the function in the target graph with
// the given inputs, which must match the function's input order
// exactly. It returns the traced output structure with every interior
// tensor replaced by the corresponding call output.
func (f *Function) Call(g *graph.Graph, inputs []*graph.Tensor) (any, error) {
	if len(inputs) != len(f.inputs) {
		return nil, fmt.Errorf("calling %q: got %d inputs, want %d", f.name, len(inputs), len(f.inputs))
	}
	for i, in := range inputs {
		if in == nil {
			return nil, fmt.Errorf("calling %q: input %d is nil", f.name, i)
		}
		if want := f.inputs[i].Placeholder.DType(); in.DType() != want {
			return nil, fmt.Errorf("calling %q: input %d has dtype %s, want %s",
				f.name, i, in.DType(), want)
		}
	}
	if !g.HasFunction(f.name) {
		return nil, fmt.Errorf("calling %q: function is not registered in the target graph", f.name)
	}

	outputs := make([]graph.Output, len(f.flatOuts))
	for i, out := range f.flatOuts {
		outputs[i] = graph.Output{DType: out.DType(), Shape: out.Shape()}
	}
	node, err := g.AddNode(graph.OpCall, f.name+"_call", inputs, map[string]graph.Attr{
		"f": graph.StringAttr(f.name),
	}, outputs)
	if err != nil {
		return nil, fmt.Errorf("calling %q: %w", f.name, err)
	}

	callOuts := make([]*graph.Tensor, node.NumOutputs())
	for i := range callOuts {
		callOuts[i] = node.Output(i)
	}
	rebuilt, rest := substituteTensors(f.retVal, callOuts)
	if len(rest) != 0 {
		return nil, fmt.Errorf("calling %q: %d outputs left over after rebuild", f.name, len(rest))
	}
	return rebuilt, nil
}
