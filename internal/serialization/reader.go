package serialization

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"os"

	"github.com/born-ml/savedmodel/internal/tensor"
)

// Read loads a state dictionary from path, verifying the data-section
// checksum before any tensor is materialized.
func Read(path string) (map[string]*tensor.RawTensor, *Header, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read file: %w", err)
	}
	if len(raw) < FixedHeaderSize {
		return nil, nil, ErrTruncated
	}
	if !bytes.Equal(raw[0:4], []byte(MagicBytes)) {
		return nil, nil, ErrInvalidMagic
	}
	if v := binary.LittleEndian.Uint32(raw[4:8]); v != FormatVersion {
		return nil, nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, v)
	}

	headerSize := binary.LittleEndian.Uint64(raw[16:24])
	dataSize := binary.LittleEndian.Uint64(raw[24:32])
	var checksum [ChecksumSize]byte
	copy(checksum[:], raw[ChecksumOffset:ChecksumOffset+ChecksumSize])

	headerEnd := uint64(FixedHeaderSize) + headerSize
	if uint64(len(raw)) < headerEnd {
		return nil, nil, ErrTruncated
	}
	var header Header
	if err := json.Unmarshal(raw[FixedHeaderSize:headerEnd], &header); err != nil {
		return nil, nil, fmt.Errorf("failed to parse header: %w", err)
	}

	dataStart := headerEnd
	if padding := (HeaderAlignment - (dataStart % HeaderAlignment)) % HeaderAlignment; padding > 0 {
		dataStart += padding
	}
	if uint64(len(raw)) < dataStart+dataSize {
		return nil, nil, ErrTruncated
	}
	data := raw[dataStart : dataStart+dataSize]

	if got := ComputeChecksum(data); got != checksum {
		return nil, nil, ErrChecksumMismatch
	}

	stateDict := make(map[string]*tensor.RawTensor, len(header.Tensors))
	for _, meta := range header.Tensors {
		if meta.Offset < 0 || meta.Size < 0 {
			return nil, nil, fmt.Errorf("%w: tensor %q", ErrNegativeOffset, meta.Name)
		}
		// Compare offset and size separately; their sum can wrap for
		// header values near MaxInt64.
		if meta.Size > int64(len(data)) || meta.Offset > int64(len(data))-meta.Size {
			return nil, nil, fmt.Errorf("%w: tensor %q", ErrOutOfBounds, meta.Name)
		}
		dtype, ok := stringToDtype(meta.DType)
		if !ok {
			return nil, nil, fmt.Errorf("tensor %q has unknown dtype %q", meta.Name, meta.DType)
		}
		buf := make([]byte, meta.Size)
		copy(buf, data[meta.Offset:meta.Offset+meta.Size])
		t, err := tensor.FromBytes(buf, tensor.Shape(meta.Shape), dtype)
		if err != nil {
			return nil, nil, fmt.Errorf("tensor %q: %w", meta.Name, err)
		}
		stateDict[meta.Name] = t
	}
	return stateDict, &header, nil
}
