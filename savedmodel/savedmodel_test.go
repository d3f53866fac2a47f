package savedmodel_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/savedmodel/savedmodel"
	"github.com/born-ml/savedmodel/tensor"
	"github.com/born-ml/savedmodel/trace"
	"github.com/born-ml/savedmodel/track"
	"github.com/born-ml/savedmodel/variable"
)

func TestExportAndInspectPublicAPI(t *testing.T) {
	value, err := tensor.FromFloat32([]float32{1, 2, 3}, tensor.Shape{3})
	require.NoError(t, err)
	w := variable.New("weights", value)

	root := track.NewContainer()
	root.Track("weights", w)

	score := trace.Declared("score",
		func(tc *trace.Context, args []*trace.Tensor) any {
			return tc.Mul(args[0], tc.Read(w))
		},
		trace.ArgSpec{Name: "x", DType: tensor.Float32, Shape: tensor.Shape{3}})

	dir := filepath.Join(t.TempDir(), "model")
	require.NoError(t, savedmodel.Export(root, dir, score))

	sm, err := savedmodel.Load(dir)
	require.NoError(t, err)
	sig := sm.MetaGraph.Signatures[savedmodel.DefaultServingSignatureKey]
	require.NotNil(t, sig)
	assert.Contains(t, sig.Inputs, "x")
	assert.Contains(t, sig.Outputs, "output_0")

	info, err := savedmodel.Inspect(dir)
	require.NoError(t, err)
	require.Len(t, info.Variables, 1)
	assert.Equal(t, "weights", info.Variables[0].Key)
}

func TestExportRejectsPlainValue(t *testing.T) {
	err := savedmodel.Export("not a model", filepath.Join(t.TempDir(), "model"), nil)
	assert.ErrorIs(t, err, savedmodel.ErrNotTrackable)
}
