package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/Iron-Ham/taskpanel/internal/errors"
	"github.com/Iron-Ham/taskpanel/internal/statustree"
	"github.com/Iron-Ham/taskpanel/internal/tui/styles"
	"github.com/charmbracelet/lipgloss"
	"github.com/sourcegraph/conc"
	"github.com/spf13/cobra"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"
)

// Output formats accepted by --output.
const (
	outputText = "text"
	outputJSON = "json"
	outputYAML = "yaml"
)

// treeEntry is one node of the printed tree.
type treeEntry struct {
	Label    string      `json:"label" yaml:"label"`
	Detail   string      `json:"detail,omitempty" yaml:"detail,omitempty"`
	Category string      `json:"category" yaml:"category"`
	Children []treeEntry `json:"children,omitempty" yaml:"children,omitempty"`
	Error    string      `json:"error,omitempty" yaml:"error,omitempty"`
}

func registerTreeCmd(parent *cobra.Command) {
	var (
		output   string
		collapse bool
		noColor  bool
	)

	cmd := &cobra.Command{
		Use:   "tree",
		Short: "Print the task status tree",
		Long: `Print the task status tree: Current Task, Pending Tasks and Completed
Tasks, with each bucket expanded to its tasks unless --collapsed is given.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := newEnv(cmd.ErrOrStderr(), logToStream)
			if err != nil {
				return err
			}
			defer e.close()

			tree := statustree.NewProjector(e.client)
			entries, err := buildTree(cmd.Context(), tree, !collapse)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			switch output {
			case outputJSON:
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(entries)
			case outputYAML:
				enc := yaml.NewEncoder(out)
				enc.SetIndent(2)
				if err := enc.Encode(entries); err != nil {
					return err
				}
				return enc.Close()
			case outputText:
				var st *styles.Styles
				if !noColor && isTerminal(out) {
					st = styles.ForTheme(e.cfg.TUI.Theme)
				}
				printTree(out, entries, st)
				return nil
			default:
				return errors.NewValidationError("unknown output format").
					WithField("output").
					WithValue(output)
			}
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", outputText, "output format: text, json or yaml")
	cmd.Flags().BoolVar(&collapse, "collapsed", false, "print only the category nodes")
	cmd.Flags().BoolVar(&noColor, "no-color", false, "disable colored output")
	parent.AddCommand(cmd)
}

// buildTree queries the roots and, when expand is set, every bucket
// concurrently. A bucket that fails to load keeps its error and no children.
func buildTree(ctx context.Context, tree statustree.TreeDataProvider, expand bool) ([]treeEntry, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	roots, err := tree.Children(ctx, nil)
	if err != nil {
		return nil, err
	}

	entries := make([]treeEntry, len(roots))
	var wg conc.WaitGroup
	for i, root := range roots {
		entries[i] = toEntry(tree.TreeItem(root))
		if !expand || root.IsLeaf() {
			continue
		}
		i, root := i, root
		wg.Go(func() {
			children, err := tree.Children(ctx, &root)
			if err != nil {
				entries[i].Error = errors.UserMessage(err)
				return
			}
			entries[i].Children = make([]treeEntry, len(children))
			for j, c := range children {
				entries[i].Children[j] = toEntry(tree.TreeItem(c))
			}
		})
	}
	wg.Wait()
	return entries, nil
}

func toEntry(n statustree.Node) treeEntry {
	return treeEntry{Label: n.Label, Detail: n.Detail, Category: n.Category.String()}
}

// printTree writes the tree as indented text, colored when st is non-nil.
func printTree(w io.Writer, entries []treeEntry, st *styles.Styles) {
	paint := func(category, s string) string {
		if st == nil {
			return s
		}
		return lipgloss.NewStyle().Foreground(st.BucketColor(category)).Render(s)
	}
	muted := func(s string) string {
		if st == nil {
			return s
		}
		return st.Muted.Render(s)
	}

	for _, e := range entries {
		label := e.Label
		if e.Children != nil {
			label = fmt.Sprintf("%s (%d)", label, len(e.Children))
		}
		fmt.Fprintf(w, "%s %s\n", paint(e.Category, styles.BucketIcon(e.Category)), label)
		if e.Error != "" {
			fmt.Fprintf(w, "    ! %s\n", e.Error)
			continue
		}
		width := 0
		for _, c := range e.Children {
			width = max(width, len(c.Label))
		}
		for _, c := range e.Children {
			pad := strings.Repeat(" ", width-len(c.Label))
			fmt.Fprintf(w, "    %s%s  %s\n", c.Label, pad, muted(c.Detail))
		}
	}
}

// isTerminal reports whether w is a terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
