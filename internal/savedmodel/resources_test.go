package savedmodel

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/savedmodel/internal/graph"
	"github.com/born-ml/savedmodel/internal/tensor"
	"github.com/born-ml/savedmodel/internal/track"
	"github.com/born-ml/savedmodel/internal/variable"
)

func TestMapResourcesBijection(t *testing.T) {
	w := variable.New("w", tensor.Zeros(tensor.Shape{2, 3}))
	b := variable.New("b", tensor.Zeros(tensor.Shape{3}))
	root := track.NewContainer()
	root.Track("w", w)
	root.Track("b", b)

	g := graph.New()
	objectMap, resourceMap, err := mapResources(track.ListObjects(root), g)
	require.NoError(t, err)

	require.Len(t, objectMap, 2)
	require.Len(t, resourceMap, 2)
	for _, v := range []*variable.Variable{w, b} {
		twin := objectMap[v]
		require.NotNil(t, twin)
		assert.Same(t, twin, resourceMap[v.Handle()], "both views map to the same twin")
		assert.Equal(t, v.DType(), twin.DType())
		assert.Equal(t, v.Shape(), twin.Shape())
		assert.Equal(t, graph.OpVarHandle, twin.Node().Op())
	}
	assert.NotSame(t, objectMap[w], objectMap[b])
}

func TestMapResourcesSkipsNonVariables(t *testing.T) {
	inner := track.NewContainer()
	inner.Track("w", variable.New("w", tensor.Zeros(tensor.Shape{1})))
	root := track.NewContainer()
	root.Track("layer", inner)

	g := graph.New()
	objectMap, resourceMap, err := mapResources(track.ListObjects(root), g)
	require.NoError(t, err)
	assert.Len(t, objectMap, 1)
	assert.Len(t, resourceMap, 1)
}

func TestMapResourcesSharedVariableOnce(t *testing.T) {
	w := variable.New("w", tensor.Zeros(tensor.Shape{1}))
	root := track.NewContainer()
	root.Track("first", w)
	root.Track("second", w)

	g := graph.New()
	objectMap, _, err := mapResources(track.ListObjects(root), g)
	require.NoError(t, err)
	assert.Len(t, objectMap, 1)
	assert.Equal(t, 1, g.NumNodes())
}

func TestMapFunctionCapturesUntracked(t *testing.T) {
	w := variable.New("w", tensor.Zeros(tensor.Shape{2}))
	fn := readVariableFn(t, "read_w", w)

	_, err := mapFunctionCaptures(fn, nil)
	require.ErrorIs(t, err, ErrUntrackedResource)
	assert.Contains(t, err.Error(), "read_w")
}
