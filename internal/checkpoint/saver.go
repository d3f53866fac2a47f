// Package checkpoint implements the persistence collaborator: saving
// the current values of all variables reachable from a root, and
// freezing a saver against an exportable graph so that the embedded
// restore operations reference exported resource handles instead of
// live ones.
package checkpoint

import (
	"fmt"

	"github.com/born-ml/savedmodel/internal/graph"
	"github.com/born-ml/savedmodel/internal/serialization"
	"github.com/born-ml/savedmodel/internal/tensor"
	"github.com/born-ml/savedmodel/internal/track"
	"github.com/born-ml/savedmodel/internal/variable"
)

// SaverDefVersion identifies the saver descriptor layout.
const SaverDefVersion = 1

// Saver persists and restores the variables reachable from one root.
type Saver struct {
	root track.Trackable
}

// NewSaver creates a saver for the given root.
func NewSaver(root track.Trackable) *Saver {
	return &Saver{root: root}
}

// NamedVariable pairs a reachable variable with its checkpoint key.
type NamedVariable struct {
	Key      string
	Variable *variable.Variable
}

// Gather enumerates reachable variables in walk order. Checkpoint keys
// are the objects' attribute paths; a root that is itself a variable
// is keyed by its own name.
func (s *Saver) Gather() []NamedVariable {
	var named []NamedVariable
	for _, to := range track.List(s.root) {
		v, ok := to.Object.(*variable.Variable)
		if !ok {
			continue
		}
		key := to.Path
		if key == "" {
			key = v.Name()
		}
		named = append(named, NamedVariable{Key: key, Variable: v})
	}
	return named
}

// Save writes the current values of all reachable variables to path.
func (s *Saver) Save(path string) error {
	stateDict := make(map[string]*tensor.RawTensor)
	for _, nv := range s.Gather() {
		stateDict[nv.Key] = nv.Variable.Value()
	}
	if err := serialization.Write(path, stateDict, nil); err != nil {
		return fmt.Errorf("saving checkpoint: %w", err)
	}
	return nil
}

// Binding ties one checkpoint key to the exported graph nodes that
// restore it.
type Binding struct {
	CheckpointKey     string
	HandleTensorName  string
	RestoreTensorName string
}

// SaverDef is the persistence descriptor embedded in an exported
// container. Every tensor name it mentions resolves inside the
// exported graph snapshot.
type SaverDef struct {
	FilenameTensorName string
	RestoreOpName      string
	Version            int
	Bindings           []Binding
}

// FrozenSaver is a saver rebound to an exportable graph.
type FrozenSaver struct {
	def *SaverDef
}

// Def returns the persistence descriptor.
func (fs *FrozenSaver) Def() *SaverDef { return fs.def }

// Freeze gathers variables from the live root and emits restore
// operations into toGraph, resolving each variable through objectMap
// to its exported twin handle. Gathering runs against the live objects
// so wrappers like optimizers contribute the same variable set they
// would at save time; the emitted operations reference only exported
// handles.
func (s *Saver) Freeze(objectMap map[*variable.Variable]*graph.Tensor, toGraph *graph.Graph) (*FrozenSaver, error) {
	filename, err := toGraph.Placeholder("saver_filename", tensor.String, tensor.Shape{})
	if err != nil {
		return nil, fmt.Errorf("freezing saver: %w", err)
	}

	def := &SaverDef{
		FilenameTensorName: filename.Name(),
		Version:            SaverDefVersion,
	}
	var restored []*graph.Tensor
	for _, nv := range s.Gather() {
		handle, ok := objectMap[nv.Variable]
		if !ok {
			return nil, fmt.Errorf("freezing saver: variable %q has no exported twin", nv.Key)
		}
		restore, err := toGraph.AddNode(graph.OpRestore, "restore/"+nv.Key,
			[]*graph.Tensor{filename, handle},
			map[string]graph.Attr{
				"checkpoint_key": graph.StringAttr(nv.Key),
				"dtype":          graph.TypeAttr(nv.Variable.DType()),
				"shape":          graph.ShapeAttr(nv.Variable.Shape()),
			},
			[]graph.Output{{DType: nv.Variable.DType(), Shape: nv.Variable.Shape()}})
		if err != nil {
			return nil, fmt.Errorf("freezing saver: %w", err)
		}
		value := restore.Output(0)
		if _, err := toGraph.AddNode(graph.OpAssign, "assign/"+nv.Key,
			[]*graph.Tensor{handle, value}, nil, nil); err != nil {
			return nil, fmt.Errorf("freezing saver: %w", err)
		}
		restored = append(restored, value)
		def.Bindings = append(def.Bindings, Binding{
			CheckpointKey:     nv.Key,
			HandleTensorName:  handle.Name(),
			RestoreTensorName: value.Name(),
		})
	}

	restoreAll, err := toGraph.AddNode(graph.OpNoOp, "restore_all", restored, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("freezing saver: %w", err)
	}
	def.RestoreOpName = restoreAll.Name()
	return &FrozenSaver{def: def}, nil
}
