package savedmodel

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/savedmodel/internal/graph"
	"github.com/born-ml/savedmodel/internal/tensor"
	"github.com/born-ml/savedmodel/internal/trace"
)

func doubleFn(tc *trace.Context, args []*graph.Tensor) any {
	return tc.Add(args[0], args[0])
}

func xSpec() trace.ArgSpec {
	return trace.ArgSpec{Name: "x", DType: tensor.Float32, Shape: tensor.Shape{2}}
}

func TestCanonicalizeNil(t *testing.T) {
	sigs, err := canonicalizeSignatures(nil)
	require.NoError(t, err)
	assert.Empty(t, sigs)
}

func TestCanonicalizeSingleTraced(t *testing.T) {
	traced := trace.Declared("double", doubleFn, xSpec())
	sigs, err := canonicalizeSignatures(traced)
	require.NoError(t, err)
	require.Len(t, sigs, 1)
	assert.Contains(t, sigs, DefaultServingSignatureKey)
}

func TestCanonicalizeUndeclaredTraced(t *testing.T) {
	traced := trace.New("double", doubleFn)
	_, err := canonicalizeSignatures(traced)
	assert.ErrorIs(t, err, ErrAmbiguousSignature)

	_, err = canonicalizeSignatures(map[string]*trace.Traced{"score": traced})
	assert.ErrorIs(t, err, ErrAmbiguousSignature)
}

func TestCanonicalizeIdempotent(t *testing.T) {
	traced := trace.Declared("double", doubleFn, xSpec())
	first, err := canonicalizeSignatures(traced)
	require.NoError(t, err)

	second, err := canonicalizeSignatures(first)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Same(t, first[DefaultServingSignatureKey], second[DefaultServingSignatureKey])
}

func TestCanonicalizeMixedMap(t *testing.T) {
	traced := trace.Declared("double", doubleFn, xSpec())
	concrete, err := traced.Concrete()
	require.NoError(t, err)

	sigs, err := canonicalizeSignatures(map[string]any{
		"a": traced,
		"b": concrete,
	})
	require.NoError(t, err)
	require.Len(t, sigs, 2)
	assert.Same(t, concrete, sigs["a"], "compilation is cached")
	assert.Same(t, concrete, sigs["b"])
}

func TestCanonicalizeRejectsUnsupported(t *testing.T) {
	_, err := canonicalizeSignatures(42)
	assert.ErrorIs(t, err, ErrInvalidSignature)

	_, err = canonicalizeSignatures(map[string]any{"f": "not a function"})
	assert.ErrorIs(t, err, ErrInvalidSignature)

	_, err = canonicalizeSignatures(map[string]*trace.Function{"f": nil})
	assert.ErrorIs(t, err, ErrInvalidSignature)
}

func testTensors(t *testing.T, n int) []*graph.Tensor {
	t.Helper()
	g := graph.New()
	out := make([]*graph.Tensor, n)
	for i := range out {
		ph, err := g.Placeholder("ph", tensor.Float32, tensor.Shape{2})
		require.NoError(t, err)
		out[i] = ph
	}
	return out
}

func TestNormalizeOutputsMapping(t *testing.T) {
	ts := testTensors(t, 2)
	raw := map[string]*graph.Tensor{"sum": ts[0], "prod": ts[1]}

	named, err := normalizeOutputs(raw, "f", "serving_default")
	require.NoError(t, err)
	assert.Equal(t, raw, named)
}

func TestNormalizeOutputsBareTensor(t *testing.T) {
	ts := testTensors(t, 1)
	named, err := normalizeOutputs(ts[0], "f", "serving_default")
	require.NoError(t, err)
	assert.Equal(t, map[string]*graph.Tensor{"output_0": ts[0]}, named)
}

func TestNormalizeOutputsFlatSequence(t *testing.T) {
	ts := testTensors(t, 3)
	named, err := normalizeOutputs(ts, "f", "serving_default")
	require.NoError(t, err)
	assert.Equal(t, map[string]*graph.Tensor{
		"output_0": ts[0],
		"output_1": ts[1],
		"output_2": ts[2],
	}, named)
}

func TestNormalizeOutputsNil(t *testing.T) {
	named, err := normalizeOutputs(nil, "f", "serving_default")
	require.NoError(t, err)
	assert.Empty(t, named)
}

func TestNormalizeOutputsNestedFails(t *testing.T) {
	ts := testTensors(t, 2)
	nested := []any{ts[0], []any{ts[1]}}
	_, err := normalizeOutputs(nested, "f", "serving_default")
	assert.ErrorIs(t, err, ErrNonFlatOutputs)
	assert.Contains(t, err.Error(), "serving_default")
}

func TestNormalizeOutputsNonTensorValue(t *testing.T) {
	_, err := normalizeOutputs(map[string]any{"score": 1.5}, "f", "serving_default")
	assert.ErrorIs(t, err, ErrNonTensorOutput)

	_, err = normalizeOutputs(map[string]*graph.Tensor{"score": nil}, "f", "serving_default")
	assert.ErrorIs(t, err, ErrNonTensorOutput)
}
