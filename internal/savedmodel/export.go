// Package savedmodel implements exporting a live trackable object
// hierarchy to a self-contained serialized model directory: a protobuf
// container with the exported graph, signatures and restore metadata,
// plus a checkpoint with the variable values.
package savedmodel

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/born-ml/savedmodel/internal/checkpoint"
	"github.com/born-ml/savedmodel/internal/graph"
	"github.com/born-ml/savedmodel/internal/track"
)

// Export writes root's state and the given signatures to dir.
//
// The signatures value may be nil, a single traced or compiled
// function, or a string-keyed map of either; see
// canonicalizeSignatures. A single function is exported under
// DefaultServingSignatureKey.
//
// All validation and graph construction happens before anything
// touches the filesystem, so a failed export leaves no partial
// directory behind. Within the persistence phase the variable
// checkpoint is written before the container, so a directory
// containing a readable container always has its variable state. The
// export graph is dismantled before return on every path.
func Export(root any, dir string, signatures any) error {
	trackable, ok := root.(track.Trackable)
	if !ok {
		return fmt.Errorf("%w: expected an object with trackable children, got %T; "+
			"embed or use a track.Container, or export a variable directly", ErrNotTrackable, root)
	}
	canonical, err := canonicalizeSignatures(signatures)
	if err != nil {
		return err
	}

	g := graph.New()
	defer g.Dismantle()

	objectMap, resourceMap, err := mapResources(track.ListObjects(trackable), g)
	if err != nil {
		return err
	}
	saver := checkpoint.NewSaver(trackable)
	frozen, err := saver.Freeze(objectMap, g)
	if err != nil {
		return err
	}
	sigDefs, err := generateSignatures(canonical, resourceMap, g)
	if err != nil {
		return err
	}
	container := &SavedModel{
		SchemaVersion: SchemaVersion,
		MetaGraph: &MetaGraph{
			GraphDef:   g.Def(true),
			SaverDef:   frozen.Def(),
			Signatures: sigDefs,
		},
	}
	encoded := encodeContainer(container)

	variablesDir := filepath.Join(dir, VariablesDirName)
	if err := os.MkdirAll(variablesDir, 0o755); err != nil {
		return fmt.Errorf("creating export directory: %w", err)
	}
	if err := saver.Save(filepath.Join(variablesDir, VariablesFileName)); err != nil {
		return err
	}
	containerPath := filepath.Join(dir, ContainerFileName)
	if err := os.WriteFile(containerPath, encoded, 0o600); err != nil {
		return fmt.Errorf("writing container: %w", err)
	}
	return nil
}
