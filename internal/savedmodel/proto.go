package savedmodel

// Container protobuf data structures (hand-written).

import (
	"github.com/born-ml/savedmodel/internal/checkpoint"
	"github.com/born-ml/savedmodel/internal/graph"
	"github.com/born-ml/savedmodel/internal/tensor"
)

// Container format constants.
const (
	// SchemaVersion is the container schema version written into every
	// exported model.
	SchemaVersion = 1
	// ContainerFileName is the serialized container file inside an
	// export directory.
	ContainerFileName = "saved_model.pb"
	// VariablesDirName holds persisted variable state inside an export
	// directory.
	VariablesDirName = "variables"
	// VariablesFileName is the checkpoint file inside VariablesDirName.
	VariablesFileName = "variables.ckpt"
	// PredictMethodName marks exported signatures as inference entry
	// points.
	PredictMethodName = "serving/predict"
)

// SavedModel is the top-level container: schema version, one embedded
// graph snapshot, a persistence descriptor and the signature table.
type SavedModel struct {
	SchemaVersion int64
	MetaGraph     *MetaGraph
}

// MetaGraph bundles the graph snapshot with everything needed to call
// into it and restore its state.
type MetaGraph struct {
	GraphDef   *graph.Def
	SaverDef   *checkpoint.SaverDef
	Signatures map[string]*SignatureDef
}

// SignatureDef describes one named callable entry point: named input
// and output tensor descriptors scoped to the embedded graph.
type SignatureDef struct {
	Inputs     map[string]*TensorInfo
	Outputs    map[string]*TensorInfo
	MethodName string
}

// TensorInfo is a static descriptor of one tensor in the embedded
// graph, referenced by "node:index" name.
type TensorInfo struct {
	Name  string
	DType tensor.DataType
	Shape tensor.Shape
}

// tensorInfoOf builds a descriptor for a graph tensor.
func tensorInfoOf(t *graph.Tensor) *TensorInfo {
	return &TensorInfo{Name: t.Name(), DType: t.DType(), Shape: t.Shape().Clone()}
}

// tensorDictToInfo converts a named tensor mapping into descriptors.
func tensorDictToInfo(tensors map[string]*graph.Tensor) map[string]*TensorInfo {
	infos := make(map[string]*TensorInfo, len(tensors))
	for name, t := range tensors {
		infos[name] = tensorInfoOf(t)
	}
	return infos
}
