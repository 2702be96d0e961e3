// Package settings builds the editable settings tree for a panel
// configuration and applies the edits made through it.
package settings

type Expansion string

const (
	Expanded  Expansion = "expanded"
	Collapsed Expansion = "collapsed"
)

type Input string

const (
	InputString Input = "string"
	InputNumber Input = "number"
	InputSelect Input = "select"
)

// Option is one choice of a select field.
type Option struct {
	Label string
	Value string
}

// Field is one editable value in a node.
type Field struct {
	Key       string
	Label     string
	Input     Input
	Value     any
	Options   []Option
	Min       *float64
	Max       *float64
	Step      float64
	Precision int
	Error     string
}

// NodeAction is a button the operator can press on a node.
type NodeAction struct {
	ID    string
	Label string
}

// Node is a section of the tree. Fields and children keep display order.
type Node struct {
	Key       string
	Label     string
	Expansion Expansion
	Actions   []NodeAction
	Fields    []Field
	Children  []Node
}

// Tree is the complete settings tree of one panel.
type Tree struct {
	Roots []Node
}

// Root returns the top-level node with the given key.
func (t Tree) Root(key string) (Node, bool) {
	for _, n := range t.Roots {
		if n.Key == key {
			return n, true
		}
	}
	return Node{}, false
}

// Child returns the child node with the given key.
func (n Node) Child(key string) (Node, bool) {
	for _, c := range n.Children {
		if c.Key == key {
			return c, true
		}
	}
	return Node{}, false
}

// Field returns the field with the given key.
func (n Node) Field(key string) (Field, bool) {
	for _, f := range n.Fields {
		if f.Key == key {
			return f, true
		}
	}
	return Field{}, false
}

func bound(v float64) *float64 {
	return &v
}
