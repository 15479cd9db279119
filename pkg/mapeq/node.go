package mapeq

// Node is a vertex of the module hierarchy: a leaf network node, a module of
// leaves, or a module of modules.
type Node struct {
	ID       int
	Data     FlowData
	Parent   *Node
	Children []*Node
}

// NewNode creates a detached node
func NewNode(id int, data FlowData) *Node {
	return &Node{ID: id, Data: data}
}

// AddChild attaches child under n
func (n *Node) AddChild(child *Node) {
	child.Parent = n
	n.Children = append(n.Children, child)
}

// IsLeaf reports whether n has no children
func (n *Node) IsLeaf() bool {
	return len(n.Children) == 0
}

// IsLeafModule reports whether n is a module whose children are leaves
func (n *Node) IsLeafModule() bool {
	return len(n.Children) > 0 && n.Children[0].IsLeaf()
}

// ChildDegree returns the number of children
func (n *Node) ChildDegree() int {
	return len(n.Children)
}
