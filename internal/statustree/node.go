// Package statustree projects the orchestration server's task state into the
// three-level tree shown in the panel's sidebar:
//
//	Root
//	├── Current Task
//	├── Pending Tasks
//	│   └── <task leaves>
//	└── Completed Tasks
//	    └── <task leaves>
//
// The three category nodes are always present and always in this order,
// regardless of how many tasks the server reports. Nodes are built fresh on
// every query; holding on to one gives a snapshot, not a live view.
package statustree

// Expansion describes whether a node has children and whether they are shown.
type Expansion int

const (
	// Leaf nodes have no children.
	Leaf Expansion = iota
	// Collapsed nodes have children that are not currently shown.
	Collapsed
	// Expanded nodes have children that are currently shown.
	Expanded
)

// String returns a short name for the expansion state.
func (e Expansion) String() string {
	switch e {
	case Leaf:
		return "leaf"
	case Collapsed:
		return "collapsed"
	case Expanded:
		return "expanded"
	default:
		return "unknown"
	}
}

// Category classifies which synthetic bucket a node belongs to.
type Category int

const (
	CategoryRoot Category = iota
	CategoryCurrent
	CategoryPending
	CategoryCompleted
)

// String returns the category's name.
func (c Category) String() string {
	switch c {
	case CategoryRoot:
		return "root"
	case CategoryCurrent:
		return "current"
	case CategoryPending:
		return "pending"
	case CategoryCompleted:
		return "completed"
	default:
		return "unknown"
	}
}

// Labels of the fixed category nodes.
const (
	LabelCurrent   = "Current Task"
	LabelPending   = "Pending Tasks"
	LabelCompleted = "Completed Tasks"
)

// Node is one entry in the displayed hierarchy.
type Node struct {
	// Label is shown to the user: a category name or a task ID.
	Label string `json:"label" yaml:"label"`
	// Detail is the human-readable description (tooltip).
	Detail string `json:"detail" yaml:"detail"`
	// Expansion tells the host whether to offer an expander.
	Expansion Expansion `json:"-" yaml:"-"`
	// Category is the bucket the node belongs to. Task leaves carry the
	// category of the bucket they were produced from.
	Category Category `json:"-" yaml:"-"`
}

// IsLeaf reports whether the node has no children.
func (n Node) IsLeaf() bool {
	return n.Expansion == Leaf
}

// rootNodes returns the fixed category nodes in display order.
func rootNodes() []Node {
	return []Node{
		{Label: LabelCurrent, Detail: "The task currently being executed", Expansion: Leaf, Category: CategoryCurrent},
		{Label: LabelPending, Detail: "Tasks waiting to be executed", Expansion: Collapsed, Category: CategoryPending},
		{Label: LabelCompleted, Detail: "Tasks that have been completed", Expansion: Collapsed, Category: CategoryCompleted},
	}
}
