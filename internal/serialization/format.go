// Package serialization implements the binary container used for
// persisted variable state: a fixed header with a SHA-256 checksum, a
// JSON tensor index, and raw tensor data aligned to 64 bytes.
package serialization

import (
	"time"

	"github.com/born-ml/savedmodel/internal/tensor"
)

// Format constants.
const (
	MagicBytes      = "SMVC" // saved-model variable checkpoint
	FormatVersion   = 1
	HeaderAlignment = 64 // align tensor data for mmap-friendly reads
	FixedHeaderSize = 64
	ChecksumSize    = 32 // SHA-256
	ChecksumOffset  = 0x20
)

// Header is the JSON index section of a checkpoint file.
type Header struct {
	FormatVersion int               `json:"format_version"`
	Producer      string            `json:"producer"`
	CreatedAt     time.Time         `json:"created_at"`
	Tensors       []TensorMeta      `json:"tensors"`
	Metadata      map[string]string `json:"metadata,omitempty"`
}

// TensorMeta describes one tensor in the data section.
type TensorMeta struct {
	Name   string `json:"name"`
	DType  string `json:"dtype"`
	Shape  []int  `json:"shape"`
	Offset int64  `json:"offset"`
	Size   int64  `json:"size"`
}

// dtypeToString converts tensor.DataType to its serialized form.
func dtypeToString(dt tensor.DataType) string {
	return dt.String()
}

// stringToDtype converts the serialized form back to tensor.DataType.
func stringToDtype(s string) (tensor.DataType, bool) {
	return tensor.ParseDataType(s)
}
