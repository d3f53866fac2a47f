package savedmodel

import (
	"fmt"

	"github.com/born-ml/savedmodel/internal/graph"
	"github.com/born-ml/savedmodel/internal/trace"
)

// DefaultServingSignatureKey is the key under which a single signature
// passed without a key is exported.
const DefaultServingSignatureKey = "serving_default"

// canonicalizeSignatures converts the caller-supplied signatures value
// into a uniform mapping from string keys to compiled functions.
//
// Accepted forms: nil, a single *trace.Traced or *trace.Function, or a
// string-keyed map of either. Traced functions must carry declared
// input shapes; an already-canonical map is returned unchanged.
func canonicalizeSignatures(signatures any) (map[string]*trace.Function, error) {
	switch sigs := signatures.(type) {
	case nil:
		return map[string]*trace.Function{}, nil
	case map[string]*trace.Function:
		for key, fn := range sigs {
			if fn == nil {
				return nil, fmt.Errorf("%w: signature %q is nil", ErrInvalidSignature, key)
			}
		}
		return sigs, nil
	case map[string]*trace.Traced:
		out := make(map[string]*trace.Function, len(sigs))
		for key, traced := range sigs {
			fn, err := canonicalizeOne(key, traced)
			if err != nil {
				return nil, err
			}
			out[key] = fn
		}
		return out, nil
	case map[string]any:
		out := make(map[string]*trace.Function, len(sigs))
		for key, value := range sigs {
			fn, err := canonicalizeOne(key, value)
			if err != nil {
				return nil, err
			}
			out[key] = fn
		}
		return out, nil
	case *trace.Traced, *trace.Function:
		fn, err := canonicalizeOne(DefaultServingSignatureKey, sigs)
		if err != nil {
			return nil, err
		}
		return map[string]*trace.Function{DefaultServingSignatureKey: fn}, nil
	default:
		return nil, fmt.Errorf("%w: expected a traced function, a compiled function or a "+
			"string-keyed map of either, got %T", ErrInvalidSignature, signatures)
	}
}

func canonicalizeOne(key string, value any) (*trace.Function, error) {
	switch v := value.(type) {
	case *trace.Traced:
		if !v.HasInputSpec() {
			return nil, fmt.Errorf("%w: unable to use %q as signature %q directly; declare "+
				"input specs when tracing, or compile it to a concrete function first",
				ErrAmbiguousSignature, v.Name(), key)
		}
		fn, err := v.Concrete()
		if err != nil {
			return nil, fmt.Errorf("signature %q: %w", key, err)
		}
		return fn, nil
	case *trace.Function:
		return v, nil
	default:
		return nil, fmt.Errorf("%w: signature %q has unsupported type %T; traced functions "+
			"may be declared with input specs and passed directly, or compiled to concrete "+
			"functions first", ErrInvalidSignature, key, value)
	}
}

// normalizeOutputs produces a named output mapping from a function's
// raw return value.
//
// A string-keyed mapping is accepted as-is once every value is checked
// to be a single tensor. Any other value is treated as a sequence (a
// bare tensor becomes a one-element sequence) that must be flat; flat
// sequences get positional names output_0..output_{n-1}.
func normalizeOutputs(raw any, fnName, sigKey string) (map[string]*graph.Tensor, error) {
	switch outs := raw.(type) {
	case map[string]*graph.Tensor:
		for key, value := range outs {
			if value == nil {
				return nil, fmt.Errorf("%w: got nil for key %q in the output of function %q; "+
					"mapping outputs must have one tensor per string key", ErrNonTensorOutput, key, fnName)
			}
		}
		return outs, nil
	case map[string]any:
		named := make(map[string]*graph.Tensor, len(outs))
		for key, value := range outs {
			t, ok := value.(*graph.Tensor)
			if !ok || t == nil {
				return nil, fmt.Errorf("%w: got %v for key %q in the output of function %q; "+
					"mapping outputs must have one tensor per string key", ErrNonTensorOutput, value, key, fnName)
			}
			named[key] = t
		}
		return named, nil
	}

	sequence, err := asFlatSequence(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: got non-flat outputs %v from %q for signature %q; "+
			"signatures have one tensor per output, so functions used as signatures should "+
			"avoid returning tensors in nested structures", ErrNonFlatOutputs, raw, fnName, sigKey)
	}
	named := make(map[string]*graph.Tensor, len(sequence))
	for i, t := range sequence {
		named[fmt.Sprintf("output_%d", i)] = t
	}
	return named, nil
}

// asFlatSequence views raw as a sequence of single tensors. A sequence
// is flat when flattening it loses no structure, i.e. every element is
// itself one tensor.
func asFlatSequence(raw any) ([]*graph.Tensor, error) {
	switch v := raw.(type) {
	case nil:
		return nil, nil
	case *graph.Tensor:
		return []*graph.Tensor{v}, nil
	case []*graph.Tensor:
		for _, t := range v {
			if t == nil {
				return nil, fmt.Errorf("nil element")
			}
		}
		return v, nil
	case []any:
		flat := make([]*graph.Tensor, len(v))
		for i, e := range v {
			t, ok := e.(*graph.Tensor)
			if !ok || t == nil {
				return nil, fmt.Errorf("nested element %T", e)
			}
			flat[i] = t
		}
		return flat, nil
	default:
		return nil, fmt.Errorf("unsupported structure %T", raw)
	}
}
