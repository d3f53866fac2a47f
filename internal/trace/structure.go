package trace

import (
	"fmt"
	"sort"

	"github.com/born-ml/savedmodel/internal/graph"
)

// flattenTensors collects every tensor in a traced return value in
// deterministic order: slices positionally, maps by sorted key.
func flattenTensors(v any) []*graph.Tensor {
	var flat []*graph.Tensor
	walkTensors(v, func(t *graph.Tensor) { flat = append(flat, t) })
	return flat
}

func walkTensors(v any, visit func(*graph.Tensor)) {
	switch x := v.(type) {
	case nil:
	case *graph.Tensor:
		visit(x)
	case []*graph.Tensor:
		for _, t := range x {
			walkTensors(t, visit)
		}
	case []any:
		for _, e := range x {
			walkTensors(e, visit)
		}
	case map[string]*graph.Tensor:
		for _, key := range sortedKeys(x) {
			walkTensors(x[key], visit)
		}
	case map[string]any:
		for _, key := range sortedKeysAny(x) {
			walkTensors(x[key], visit)
		}
	default:
		panic(fmt.Sprintf("trace: unsupported output structure %T", v))
	}
}

// substituteTensors rebuilds v with each tensor replaced by the next
// replacement, consumed in the same order flattenTensors produces.
// It returns the rebuilt value and the unconsumed replacements.
func substituteTensors(v any, repl []*graph.Tensor) (any, []*graph.Tensor) {
	switch x := v.(type) {
	case nil:
		return nil, repl
	case *graph.Tensor:
		return repl[0], repl[1:]
	case []*graph.Tensor:
		out := make([]*graph.Tensor, len(x))
		for i := range x {
			var sub any
			sub, repl = substituteTensors(x[i], repl)
			out[i] = sub.(*graph.Tensor)
		}
		return out, repl
	case []any:
		out := make([]any, len(x))
		for i := range x {
			out[i], repl = substituteTensors(x[i], repl)
		}
		return out, repl
	case map[string]*graph.Tensor:
		out := make(map[string]*graph.Tensor, len(x))
		for _, key := range sortedKeys(x) {
			var sub any
			sub, repl = substituteTensors(x[key], repl)
			out[key] = sub.(*graph.Tensor)
		}
		return out, repl
	case map[string]any:
		out := make(map[string]any, len(x))
		for _, key := range sortedKeysAny(x) {
			out[key], repl = substituteTensors(x[key], repl)
		}
		return out, repl
	default:
		panic(fmt.Sprintf("trace: unsupported output structure %T", v))
	}
}

func sortedKeys(m map[string]*graph.Tensor) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func sortedKeysAny(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
