package graph

import "github.com/born-ml/savedmodel/internal/tensor"

// Attr kinds. A zero Attr is invalid.
const (
	AttrString = iota + 1
	AttrInt
	AttrType
	AttrShape
	AttrShapeList
)

// Attr is a typed node attribute value.
type Attr struct {
	Kind   int
	S      string
	I      int64
	DType  tensor.DataType
	Shape  tensor.Shape
	Shapes []tensor.Shape
}

// StringAttr builds a string attribute.
func StringAttr(s string) Attr { return Attr{Kind: AttrString, S: s} }

// IntAttr builds an integer attribute.
func IntAttr(i int64) Attr { return Attr{Kind: AttrInt, I: i} }

// TypeAttr builds a data-type attribute.
func TypeAttr(dt tensor.DataType) Attr { return Attr{Kind: AttrType, DType: dt} }

// ShapeAttr builds a shape attribute.
func ShapeAttr(s tensor.Shape) Attr { return Attr{Kind: AttrShape, Shape: s.Clone()} }

// ShapeListAttr builds a shape-list attribute.
func ShapeListAttr(shapes []tensor.Shape) Attr {
	cloned := make([]tensor.Shape, len(shapes))
	for i, s := range shapes {
		cloned[i] = s.Clone()
	}
	return Attr{Kind: AttrShapeList, Shapes: cloned}
}

// NamedAttr pairs an attribute name with its value. Snapshots keep
// attributes as sorted slices so encoding is deterministic.
type NamedAttr struct {
	Name  string
	Value Attr
}

// NodeDef is the immutable snapshot of one node.
type NodeDef struct {
	Name   string
	Op     string
	Inputs []string // producer tensor names, "node:index"
	Attrs  []NamedAttr
}

// ArgDef describes one input or output of a library function.
type ArgDef struct {
	Name  string
	DType tensor.DataType
	Shape tensor.Shape
}

// FunctionDef is an immutable definition of a compiled function body,
// registered into a graph's function library by the tracing engine.
type FunctionDef struct {
	Name       string
	InputArgs  []ArgDef
	OutputArgs []ArgDef
	Nodes      []NodeDef
}

// Def is the immutable snapshot of a graph: plain data with no back
// references, safe to embed in a container after the graph itself has
// been dismantled.
type Def struct {
	Version   int
	Nodes     []NodeDef
	Functions []FunctionDef
}

// defVersion identifies the snapshot layout.
const defVersion = 1

// Def snapshots the graph. With addShapes, every node carries an
// "_output_shapes" attribute so downstream consumers get static shape
// information without re-running shape inference.
func (g *Graph) Def(addShapes bool) *Def {
	def := &Def{Version: defVersion}
	def.Nodes = make([]NodeDef, 0, len(g.nodes))
	for _, n := range g.nodes {
		nd := NodeDef{
			Name:   n.name,
			Op:     n.op,
			Inputs: make([]string, len(n.inputs)),
		}
		for i, in := range n.inputs {
			nd.Inputs[i] = in.Name()
		}
		attrs := n.attrs
		if addShapes {
			shapes := make([]tensor.Shape, len(n.outs))
			for i, out := range n.outs {
				shapes[i] = out.shape
			}
			attrs = make(map[string]Attr, len(n.attrs)+1)
			for name, a := range n.attrs {
				attrs[name] = a
			}
			attrs["_output_shapes"] = ShapeListAttr(shapes)
		}
		for _, name := range sortedAttrNames(attrs) {
			nd.Attrs = append(nd.Attrs, NamedAttr{Name: name, Value: attrs[name]})
		}
		def.Nodes = append(def.Nodes, nd)
	}
	def.Functions = make([]FunctionDef, len(g.functions))
	for i, fd := range g.functions {
		def.Functions[i] = *fd
	}
	return def
}
