package serialization

import (
	"encoding/binary"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/savedmodel/internal/tensor"
)

func writeSample(t *testing.T) (string, map[string]*tensor.RawTensor) {
	t.Helper()
	w, err := tensor.FromFloat32([]float32{1, 2, 3, 4}, tensor.Shape{2, 2})
	require.NoError(t, err)
	b, err := tensor.FromFloat32([]float32{0.5}, tensor.Shape{1})
	require.NoError(t, err)
	stateDict := map[string]*tensor.RawTensor{
		"layer/weight": w,
		"layer/bias":   b,
	}
	path := filepath.Join(t.TempDir(), "vars.ckpt")
	require.NoError(t, Write(path, stateDict, map[string]string{"purpose": "test"}))
	return path, stateDict
}

func TestWriteReadRoundTrip(t *testing.T) {
	path, want := writeSample(t)

	got, header, err := Read(path)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, FormatVersion, header.FormatVersion)
	assert.Equal(t, "test", header.Metadata["purpose"])

	for name, w := range want {
		g, ok := got[name]
		require.True(t, ok, name)
		assert.Equal(t, w.DType(), g.DType())
		assert.True(t, w.Shape().Equal(g.Shape()))
		assert.Equal(t, w.Data(), g.Data())
	}
}

func TestWriteEmptyStateDict(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.ckpt")
	require.NoError(t, Write(path, nil, nil))

	got, header, err := Read(path)
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Empty(t, header.Tensors)
}

func TestReadRejectsBadMagic(t *testing.T) {
	path, _ := writeSample(t)
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	copy(raw[0:4], "NOPE")
	require.NoError(t, os.WriteFile(path, raw, 0o644))

	_, _, err = Read(path)
	assert.ErrorIs(t, err, ErrInvalidMagic)
}

func TestReadRejectsCorruptedData(t *testing.T) {
	path, _ := writeSample(t)
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	raw[len(raw)-1] ^= 0xFF
	require.NoError(t, os.WriteFile(path, raw, 0o644))

	_, _, err = Read(path)
	assert.ErrorIs(t, err, ErrChecksumMismatch)
}

func TestReadRejectsTruncatedFile(t *testing.T) {
	path, _ := writeSample(t)
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, raw[:len(raw)-8], 0o644))

	_, _, err = Read(path)
	assert.Error(t, err)
}

func TestWriteDeterministicTensorOrder(t *testing.T) {
	path, _ := writeSample(t)
	_, header, err := Read(path)
	require.NoError(t, err)
	require.Len(t, header.Tensors, 2)
	assert.Equal(t, "layer/bias", header.Tensors[0].Name)
	assert.Equal(t, "layer/weight", header.Tensors[1].Name)
}

// writeCrafted assembles a checkpoint file with an arbitrary tensor
// index and a checksum that is valid for the data section.
func writeCrafted(t *testing.T, meta TensorMeta, data []byte) string {
	t.Helper()
	header := Header{
		FormatVersion: FormatVersion,
		Producer:      "test",
		Tensors:       []TensorMeta{meta},
	}
	headerJSON, err := json.Marshal(header)
	require.NoError(t, err)
	checksum := ComputeChecksum(data)

	fixed := make([]byte, FixedHeaderSize)
	copy(fixed[0:4], MagicBytes)
	binary.LittleEndian.PutUint32(fixed[4:8], uint32(FormatVersion))
	binary.LittleEndian.PutUint64(fixed[16:24], uint64(len(headerJSON)))
	binary.LittleEndian.PutUint64(fixed[24:32], uint64(len(data)))
	copy(fixed[ChecksumOffset:ChecksumOffset+ChecksumSize], checksum[:])

	raw := append(fixed, headerJSON...)
	if padding := (HeaderAlignment - (len(raw) % HeaderAlignment)) % HeaderAlignment; padding > 0 {
		raw = append(raw, make([]byte, padding)...)
	}
	raw = append(raw, data...)

	path := filepath.Join(t.TempDir(), "crafted.ckpt")
	require.NoError(t, os.WriteFile(path, raw, 0o644))
	return path
}

func TestReadRejectsOverflowingTensorBounds(t *testing.T) {
	// Offset and size individually pass the negativity checks but
	// their sum wraps past MaxInt64; the checksum is valid because it
	// only covers the data section.
	path := writeCrafted(t, TensorMeta{
		Name:   "w",
		DType:  "float32",
		Shape:  []int{1},
		Offset: 1 << 62,
		Size:   1<<62 + 4,
	}, make([]byte, 4))

	_, _, err := Read(path)
	assert.ErrorIs(t, err, ErrOutOfBounds)
}

func TestReadRejectsOutOfBoundsTensor(t *testing.T) {
	path := writeCrafted(t, TensorMeta{
		Name:   "w",
		DType:  "float32",
		Shape:  []int{2},
		Offset: 4,
		Size:   8,
	}, make([]byte, 4))

	_, _, err := Read(path)
	assert.ErrorIs(t, err, ErrOutOfBounds)
}
