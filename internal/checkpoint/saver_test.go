package checkpoint

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/savedmodel/internal/graph"
	"github.com/born-ml/savedmodel/internal/serialization"
	"github.com/born-ml/savedmodel/internal/tensor"
	"github.com/born-ml/savedmodel/internal/track"
	"github.com/born-ml/savedmodel/internal/variable"
)

func buildRoot(t *testing.T) (*track.Container, *variable.Variable, *variable.Variable) {
	t.Helper()
	w, err := tensor.FromFloat32([]float32{1, 2, 3, 4}, tensor.Shape{2, 2})
	require.NoError(t, err)
	weight := variable.New("weight", w)
	bias := variable.New("bias", tensor.Scalar(0.5))

	layer := track.NewContainer()
	layer.Track("weight", weight)
	layer.Track("bias", bias)
	root := track.NewContainer()
	root.Track("layer", layer)
	return root, weight, bias
}

func TestGatherKeysAndOrder(t *testing.T) {
	root, weight, bias := buildRoot(t)
	s := NewSaver(root)

	named := s.Gather()
	require.Len(t, named, 2)
	assert.Equal(t, "layer/bias", named[0].Key)
	assert.Equal(t, bias, named[0].Variable)
	assert.Equal(t, "layer/weight", named[1].Key)
	assert.Equal(t, weight, named[1].Variable)
}

func TestGatherRootVariable(t *testing.T) {
	v := variable.New("lonely", tensor.Scalar(1))
	named := NewSaver(v).Gather()
	require.Len(t, named, 1)
	assert.Equal(t, "lonely", named[0].Key)
}

func TestSaveWritesCurrentValues(t *testing.T) {
	root, weight, _ := buildRoot(t)
	path := filepath.Join(t.TempDir(), "vars.ckpt")
	require.NoError(t, NewSaver(root).Save(path))

	stateDict, _, err := serialization.Read(path)
	require.NoError(t, err)
	require.Len(t, stateDict, 2)
	assert.Equal(t, weight.Value().Data(), stateDict["layer/weight"].Data())
	assert.Equal(t, []float32{0.5}, stateDict["layer/bias"].AsFloat32())
}

func TestFreezeEmitsRestoreOps(t *testing.T) {
	root, weight, bias := buildRoot(t)
	s := NewSaver(root)

	g := graph.New()
	objectMap := make(map[*variable.Variable]*graph.Tensor)
	for _, v := range []*variable.Variable{weight, bias} {
		h, err := g.VarHandle(v.Name(), v.DType(), v.Shape())
		require.NoError(t, err)
		objectMap[v] = h
	}

	frozen, err := s.Freeze(objectMap, g)
	require.NoError(t, err)
	def := frozen.Def()

	assert.Equal(t, SaverDefVersion, def.Version)
	assert.Equal(t, "saver_filename:0", def.FilenameTensorName)
	assert.Equal(t, "restore_all", def.RestoreOpName)
	require.Len(t, def.Bindings, 2)
	assert.Equal(t, "layer/bias", def.Bindings[0].CheckpointKey)
	assert.Equal(t, objectMap[bias].Name(), def.Bindings[0].HandleTensorName)

	// Every referenced node exists in the target graph.
	for _, b := range def.Bindings {
		restoreNode := b.RestoreTensorName[:len(b.RestoreTensorName)-2]
		_, ok := g.Node(restoreNode)
		assert.True(t, ok, restoreNode)
	}
	_, ok := g.Node(def.RestoreOpName)
	assert.True(t, ok)
}

func TestFreezeFailsOnUnmappedVariable(t *testing.T) {
	root, weight, _ := buildRoot(t)
	g := graph.New()
	h, err := g.VarHandle("weight", weight.DType(), weight.Shape())
	require.NoError(t, err)

	// bias is missing from the object map.
	_, err = NewSaver(root).Freeze(map[*variable.Variable]*graph.Tensor{weight: h}, g)
	assert.Error(t, err)
}

func TestFreezeEmptyRoot(t *testing.T) {
	root := track.NewContainer()
	g := graph.New()
	frozen, err := NewSaver(root).Freeze(nil, g)
	require.NoError(t, err)
	assert.Empty(t, frozen.Def().Bindings)
	assert.Equal(t, "restore_all", frozen.Def().RestoreOpName)
}
