package statustree

import (
	"context"

	"github.com/Iron-Ham/taskpanel/internal/errors"
	"github.com/Iron-Ham/taskpanel/internal/orchestration"
)

// TaskSource is the part of the orchestration client the projector reads.
type TaskSource interface {
	PendingTasks(ctx context.Context) ([]orchestration.Task, error)
	CompletedTasks(ctx context.Context) ([]orchestration.Task, error)
}

// TreeDataProvider is what a presentation host needs to render the tree.
type TreeDataProvider interface {
	// TreeItem maps a node to the record the host displays.
	TreeItem(node Node) Node
	// Children returns the children of parent, or the root nodes when
	// parent is nil.
	Children(ctx context.Context, parent *Node) ([]Node, error)
}

// Projector is a pure read projection of task state. It holds no state of
// its own and may be queried concurrently.
type Projector struct {
	source TaskSource
}

// NewProjector creates a Projector reading from source.
func NewProjector(source TaskSource) *Projector {
	return &Projector{source: source}
}

// TreeItem returns node unchanged.
func (p *Projector) TreeItem(node Node) Node {
	return node
}

// Children implements TreeDataProvider.
//
// A nil parent yields the three category nodes without contacting the
// server. The Pending and Completed buckets yield one leaf per task in the
// server's order. Every other node, leaves and Current Task included, yields
// an empty slice and no error. The only error returned is a failure of the
// task source.
func (p *Projector) Children(ctx context.Context, parent *Node) ([]Node, error) {
	if parent == nil {
		return rootNodes(), nil
	}

	switch parent.Label {
	case LabelPending:
		if parent.IsLeaf() {
			return []Node{}, nil
		}
		tasks, err := p.source.PendingTasks(ctx)
		if err != nil {
			return nil, errors.Wrap(err, "list pending tasks")
		}
		return taskLeaves(tasks, CategoryPending), nil
	case LabelCompleted:
		if parent.IsLeaf() {
			return []Node{}, nil
		}
		tasks, err := p.source.CompletedTasks(ctx)
		if err != nil {
			return nil, errors.Wrap(err, "list completed tasks")
		}
		return taskLeaves(tasks, CategoryCompleted), nil
	default:
		return []Node{}, nil
	}
}

func taskLeaves(tasks []orchestration.Task, category Category) []Node {
	nodes := make([]Node, 0, len(tasks))
	for _, t := range tasks {
		nodes = append(nodes, Node{
			Label:     t.ID,
			Detail:    t.Description,
			Expansion: Leaf,
			Category:  category,
		})
	}
	return nodes
}

var _ TreeDataProvider = (*Projector)(nil)
