package savedmodel

import (
	"fmt"

	"github.com/born-ml/savedmodel/internal/graph"
	"github.com/born-ml/savedmodel/internal/trace"
	"github.com/born-ml/savedmodel/internal/variable"
)

// mapFunctionCaptures resolves every capture of fn through the
// resource map, yielding a mapping from interior placeholders in the
// function body to exported stand-in handles.
//
// A capture whose live handle is absent from the resource map means
// the function reaches state the declared root does not: a caller bug,
// reported as an untracked-state error naming the interior reference.
func mapFunctionCaptures(fn *trace.Function, resourceMap map[*variable.Handle]*graph.Tensor) (
	map[*graph.Tensor]*graph.Tensor, error,
) {
	exportCaptures := make(map[*graph.Tensor]*graph.Tensor, len(fn.Captures()))
	for _, capture := range fn.Captures() {
		mapped, ok := resourceMap[capture.Exterior]
		if !ok {
			return nil, fmt.Errorf("%w: function %q captures %s (via %s); stateful objects "+
				"must be tracked by the exported root, e.g. by assigning them to an attribute "+
				"of the root or of another tracked object", ErrUntrackedResource, fn.Name(),
				capture.Interior.Name(), capture.Exterior)
		}
		exportCaptures[capture.Interior] = mapped
	}
	return exportCaptures, nil
}

// mapFunctionInputs walks fn's ordered input list and produces the
// exact positional input slice for invoking it inside g, plus the
// named exterior placeholders created for its explicit arguments.
//
// Captures are substituted with their exported stand-ins directly.
// Each argument gets a fresh, externally addressable placeholder named
// "<sigKey>_<argName>" so names stay distinct across signatures.
func mapFunctionInputs(
	fn *trace.Function,
	exportCaptures map[*graph.Tensor]*graph.Tensor,
	g *graph.Graph,
	sigKey string,
) ([]*graph.Tensor, map[string]*graph.Tensor, error) {
	exterior := make(map[string]*graph.Tensor)
	mapped := make([]*graph.Tensor, 0, len(fn.Inputs()))
	for _, in := range fn.Inputs() {
		if in.Captured {
			substitute, ok := exportCaptures[in.Placeholder]
			if !ok {
				// exportCaptures is exhaustive over fn.Captures, so a
				// captured input missing here is a tracing defect.
				return nil, nil, fmt.Errorf("function %q: capture %s has no export mapping",
					fn.Name(), in.Placeholder.Name())
			}
			mapped = append(mapped, substitute)
			continue
		}
		// An assigned name that differs from the structural name means
		// the tracer had to uniquify a collision: several arguments
		// share one user-visible name and the signature would be
		// ambiguous to call.
		if in.Name != in.StructName {
			return nil, nil, fmt.Errorf("%w: more than one argument to %q for signature %q "+
				"was named %q; signatures have one tensor per named input, so supply explicit "+
				"unique names for every argument", ErrDuplicateArgumentName, fn.Name(), sigKey, in.Name)
		}
		placeholder, err := g.Placeholder(
			fmt.Sprintf("%s_%s", sigKey, in.Name),
			in.Placeholder.DType(), in.Placeholder.Shape())
		if err != nil {
			return nil, nil, fmt.Errorf("function %q: %w", fn.Name(), err)
		}
		exterior[in.Name] = placeholder
		mapped = append(mapped, placeholder)
	}
	return mapped, exterior, nil
}
