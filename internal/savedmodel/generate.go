package savedmodel

import (
	"fmt"
	"sort"

	"github.com/born-ml/savedmodel/internal/graph"
	"github.com/born-ml/savedmodel/internal/trace"
	"github.com/born-ml/savedmodel/internal/variable"
)

// generateSignatures materializes every canonical signature inside the
// export graph and returns the signature table for the container.
//
// Keys are processed in lexicographic order so repeated exports of the
// same model produce identical graphs. For each signature the function
// body is registered in g's library, its captures are rebound to the
// exported handles, fresh named placeholders are created for its
// arguments, and a call node wires the placeholders to the body. The
// signature descriptor references only tensors of g.
func generateSignatures(
	signatures map[string]*trace.Function,
	resourceMap map[*variable.Handle]*graph.Tensor,
	g *graph.Graph,
) (map[string]*SignatureDef, error) {
	keys := make([]string, 0, len(signatures))
	for key := range signatures {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	defs := make(map[string]*SignatureDef, len(signatures))
	for _, key := range keys {
		fn := signatures[key]
		if err := fn.AddToGraph(g, false); err != nil {
			return nil, fmt.Errorf("signature %q: %w", key, err)
		}
		exportCaptures, err := mapFunctionCaptures(fn, resourceMap)
		if err != nil {
			return nil, fmt.Errorf("signature %q: %w", key, err)
		}
		mapped, exterior, err := mapFunctionInputs(fn, exportCaptures, g, key)
		if err != nil {
			return nil, err
		}
		rawOutputs, err := fn.Call(g, mapped)
		if err != nil {
			return nil, fmt.Errorf("signature %q: %w", key, err)
		}
		outputs, err := normalizeOutputs(rawOutputs, fn.Name(), key)
		if err != nil {
			return nil, err
		}
		defs[key] = &SignatureDef{
			Inputs:     tensorDictToInfo(exterior),
			Outputs:    tensorDictToInfo(outputs),
			MethodName: PredictMethodName,
		}
	}
	return defs, nil
}
