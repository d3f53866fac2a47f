package savedmodel

import (
	"fmt"

	"github.com/born-ml/savedmodel/internal/graph"
	"github.com/born-ml/savedmodel/internal/track"
	"github.com/born-ml/savedmodel/internal/variable"
)

// mapResources creates an uninitialized twin resource handle in g for
// every reachable variable, in walk order.
//
// It returns two views of the same 1:1 mapping: objectMap from the
// live object to its twin handle (consumed by the frozen saver) and
// resourceMap from the live resource handle to the twin (consumed by
// capture rebinding). Objects without resources appear in neither.
func mapResources(objects []track.Trackable, g *graph.Graph) (
	map[*variable.Variable]*graph.Tensor,
	map[*variable.Handle]*graph.Tensor,
	error,
) {
	objectMap := make(map[*variable.Variable]*graph.Tensor)
	resourceMap := make(map[*variable.Handle]*graph.Tensor)
	for _, obj := range objects {
		v, ok := obj.(*variable.Variable)
		if !ok {
			continue
		}
		if _, seen := objectMap[v]; seen {
			continue
		}
		twin, err := g.VarHandle(v.Name(), v.DType(), v.Shape())
		if err != nil {
			return nil, nil, fmt.Errorf("mapping resources: %w", err)
		}
		objectMap[v] = twin
		resourceMap[v.Handle()] = twin
	}
	return objectMap, resourceMap, nil
}
