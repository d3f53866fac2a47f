// Package graph implements the exportable graph context: a transient,
// exclusively-owned structure of named nodes and symbolic tensors that
// is built during export and snapshotted into an immutable Def.
//
// A Graph is never executed. It only exists so that every reference in
// an exported container resolves to a node inside the container itself
// rather than into the live process.
package graph

import (
	"fmt"
	"sort"

	"github.com/born-ml/savedmodel/internal/tensor"
)

// Well-known op names used by the exporter.
const (
	OpPlaceholder = "Placeholder"
	OpVarHandle   = "VarHandleOp"
	OpCall        = "Call"
	OpRestore     = "RestoreVariable"
	OpAssign      = "AssignVariable"
	OpNoOp        = "NoOp"
)

// Graph is a mutable, single-owner graph under construction.
//
// Nodes, their output tensors and the graph itself reference each other
// cyclically; Dismantle breaks those cycles eagerly once the graph has
// been snapshotted, so repeated exports in a long-lived process leave
// no retained structures behind.
type Graph struct {
	nodes      []*Node
	byName     map[string]*Node
	functions  []*FunctionDef
	funcNames  map[string]bool
	nameSeq    map[string]int
	dismantled bool
}

// New creates an empty graph.
func New() *Graph {
	return &Graph{
		byName:    make(map[string]*Node),
		funcNames: make(map[string]bool),
		nameSeq:   make(map[string]int),
	}
}

// Node is a single operation in the graph.
type Node struct {
	graph  *Graph
	name   string
	op     string
	inputs []*Tensor
	attrs  map[string]Attr
	outs   []*Tensor
}

// Tensor is a symbolic handle to one output of a node. It carries the
// static dtype/shape metadata needed for signature descriptors.
type Tensor struct {
	node  *Node
	index int
	dtype tensor.DataType
	shape tensor.Shape
}

// Output declares the dtype and shape of one node output.
type Output struct {
	DType tensor.DataType
	Shape tensor.Shape
}

// uniqueName returns base if unused, otherwise base_1, base_2, ...
func (g *Graph) uniqueName(base string) string {
	if _, taken := g.byName[base]; !taken && g.nameSeq[base] == 0 {
		g.nameSeq[base] = 1
		return base
	}
	for {
		g.nameSeq[base]++
		candidate := fmt.Sprintf("%s_%d", base, g.nameSeq[base]-1)
		if _, taken := g.byName[candidate]; !taken {
			return candidate
		}
	}
}

// AddNode appends a node to the graph. The node name is uniquified
// against existing nodes. All inputs must belong to this graph.
func (g *Graph) AddNode(op, name string, inputs []*Tensor, attrs map[string]Attr, outputs []Output) (*Node, error) {
	if g.dismantled {
		return nil, fmt.Errorf("graph has been dismantled")
	}
	for i, in := range inputs {
		if in == nil {
			return nil, fmt.Errorf("node %q: input %d is nil", name, i)
		}
		if in.node == nil || in.node.graph != g {
			return nil, fmt.Errorf("node %q: input %d (%s) does not belong to this graph", name, i, in.Name())
		}
	}
	n := &Node{
		graph:  g,
		name:   g.uniqueName(name),
		op:     op,
		inputs: inputs,
		attrs:  attrs,
	}
	n.outs = make([]*Tensor, len(outputs))
	for i, out := range outputs {
		n.outs[i] = &Tensor{node: n, index: i, dtype: out.DType, shape: out.Shape.Clone()}
	}
	g.nodes = append(g.nodes, n)
	g.byName[n.name] = n
	return n, nil
}

// Placeholder adds an externally addressable input node with one output.
func (g *Graph) Placeholder(name string, dtype tensor.DataType, shape tensor.Shape) (*Tensor, error) {
	n, err := g.AddNode(OpPlaceholder, name, nil, map[string]Attr{
		"dtype": TypeAttr(dtype),
		"shape": ShapeAttr(shape),
	}, []Output{{DType: dtype, Shape: shape}})
	if err != nil {
		return nil, err
	}
	return n.Output(0), nil
}

// VarHandle adds an uninitialized resource-handle node standing in for
// a live variable. Its single output carries the variable's metadata.
func (g *Graph) VarHandle(name string, dtype tensor.DataType, shape tensor.Shape) (*Tensor, error) {
	n, err := g.AddNode(OpVarHandle, name, nil, map[string]Attr{
		"dtype": TypeAttr(dtype),
		"shape": ShapeAttr(shape),
	}, []Output{{DType: dtype, Shape: shape}})
	if err != nil {
		return nil, err
	}
	return n.Output(0), nil
}

// RegisterFunction adds a function definition to the graph's library.
// Registering the same name twice keeps the first definition.
func (g *Graph) RegisterFunction(fd *FunctionDef) error {
	if g.dismantled {
		return fmt.Errorf("graph has been dismantled")
	}
	if g.funcNames[fd.Name] {
		return nil
	}
	g.funcNames[fd.Name] = true
	g.functions = append(g.functions, fd)
	return nil
}

// HasFunction reports whether a library function is registered.
func (g *Graph) HasFunction(name string) bool {
	return g.funcNames[name]
}

// NumNodes returns the number of nodes added so far.
func (g *Graph) NumNodes() int {
	return len(g.nodes)
}

// Node looks up a node by name.
func (g *Graph) Node(name string) (*Node, bool) {
	n, ok := g.byName[name]
	return n, ok
}

// Dismantled reports whether Dismantle has run.
func (g *Graph) Dismantled() bool {
	return g.dismantled
}

// Dismantle breaks the Node<->Tensor<->Graph reference cycles and marks
// the graph unusable. It is idempotent and must run on every export
// path once the graph has been created, success or failure.
func (g *Graph) Dismantle() {
	if g.dismantled {
		return
	}
	g.dismantled = true
	for _, n := range g.nodes {
		for _, out := range n.outs {
			out.node = nil
		}
		n.graph = nil
		n.inputs = nil
		n.outs = nil
		n.attrs = nil
	}
	g.nodes = nil
	g.byName = nil
	g.functions = nil
	g.funcNames = nil
	g.nameSeq = nil
}

// Name returns the node's unique name within its graph.
func (n *Node) Name() string { return n.name }

// Op returns the node's operation type.
func (n *Node) Op() string { return n.op }

// NumOutputs returns the number of output tensors.
func (n *Node) NumOutputs() int { return len(n.outs) }

// Output returns the i-th output tensor.
func (n *Node) Output(i int) *Tensor { return n.outs[i] }

// Inputs returns the node's input tensors in declared order.
func (n *Node) Inputs() []*Tensor { return n.inputs }

// Attr looks up a node attribute.
func (n *Node) Attr(name string) (Attr, bool) {
	a, ok := n.attrs[name]
	return a, ok
}

// Name returns the tensor's graph-wide name in "node:index" form.
func (t *Tensor) Name() string {
	if t.node == nil {
		return fmt.Sprintf("<detached>:%d", t.index)
	}
	return fmt.Sprintf("%s:%d", t.node.name, t.index)
}

// DType returns the tensor's static data type.
func (t *Tensor) DType() tensor.DataType { return t.dtype }

// Shape returns the tensor's static shape.
func (t *Tensor) Shape() tensor.Shape { return t.shape }

// Node returns the producing node, or nil after Dismantle.
func (t *Tensor) Node() *Node { return t.node }

// Index returns the output index on the producing node.
func (t *Tensor) Index() int { return t.index }

// String implements fmt.Stringer.
func (t *Tensor) String() string { return t.Name() }

// sortedAttrNames returns attribute names in deterministic order.
func sortedAttrNames(attrs map[string]Attr) []string {
	names := make([]string, 0, len(attrs))
	for name := range attrs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
