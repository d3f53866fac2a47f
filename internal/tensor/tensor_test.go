package tensor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShapeNumElements(t *testing.T) {
	tests := []struct {
		name  string
		shape Shape
		want  int
	}{
		{"scalar", Shape{}, 1},
		{"vector", Shape{5}, 5},
		{"matrix", Shape{2, 3}, 6},
		{"3d", Shape{2, 3, 4}, 24},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.shape.NumElements())
		})
	}
}

func TestShapeValidate(t *testing.T) {
	assert.NoError(t, Shape{2, 3}.Validate())
	assert.NoError(t, Shape{}.Validate())
	assert.Error(t, Shape{2, 0}.Validate())
	assert.Error(t, Shape{-1, 3}.Validate())
}

func TestShapeEqualClone(t *testing.T) {
	s := Shape{2, 3}
	c := s.Clone()
	assert.True(t, s.Equal(c))
	c[0] = 7
	assert.False(t, s.Equal(c))
	assert.False(t, s.Equal(Shape{2}))
}

func TestDataTypeRoundTrip(t *testing.T) {
	for _, dt := range []DataType{Float32, Float64, Int32, Int64, Uint8, Bool} {
		parsed, ok := ParseDataType(dt.String())
		require.True(t, ok, dt.String())
		assert.Equal(t, dt, parsed)
	}
	_, ok := ParseDataType("complex128")
	assert.False(t, ok)
}

func TestNewRaw(t *testing.T) {
	r, err := NewRaw(Shape{2, 3}, Float32)
	require.NoError(t, err)
	assert.Equal(t, 24, r.ByteSize())
	assert.Equal(t, Float32, r.DType())
	assert.True(t, r.Shape().Equal(Shape{2, 3}))

	_, err = NewRaw(Shape{0}, Float32)
	assert.Error(t, err)
}

func TestFromFloat32(t *testing.T) {
	r, err := FromFloat32([]float32{1, 2, 3, 4}, Shape{2, 2})
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 2, 3, 4}, r.AsFloat32())

	_, err = FromFloat32([]float32{1, 2}, Shape{3})
	assert.Error(t, err)
}

func TestScalar(t *testing.T) {
	s := Scalar(3.5)
	assert.Equal(t, 1, s.NumElements())
	assert.Len(t, s.Shape(), 0)
	assert.Equal(t, []float32{3.5}, s.AsFloat32())
}

func TestClone(t *testing.T) {
	r, err := FromFloat32([]float32{1, 2}, Shape{2})
	require.NoError(t, err)
	c := r.Clone()
	c.AsFloat32()[0] = 9
	assert.Equal(t, float32(1), r.AsFloat32()[0])
}

func TestAsFloat32PanicsOnWrongDType(t *testing.T) {
	r, err := NewRaw(Shape{2}, Int64)
	require.NoError(t, err)
	assert.Panics(t, func() { r.AsFloat32() })
}
