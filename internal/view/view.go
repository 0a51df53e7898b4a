// Package view renders a size-bounded projection of a conversation forest.
// Nodes too far from the active path and from the tip collapse to a
// placeholder, so large trees stay legible in a terminal.
package view

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/FergusFettes/command-line-loom/internal/loom"
	"github.com/FergusFettes/command-line-loom/internal/util"
)

// Graph is the read-only slice of the forest the renderer needs. It is
// satisfied by *loom.Graph; the storage side stays renderer-agnostic.
type Graph interface {
	Roots() []*loom.Node
	Children(id int) ([]*loom.Node, error)
	Path() []*loom.Node
	Distance(a, b int) (int, error)
}

// Placeholder marks a collapsed node whose subtree is not rendered.
const Placeholder = "…"

// Options configures the projection.
type Options struct {
	// PathNeighborhood is the maximum distance from any node on the active
	// path for a node to render in full.
	PathNeighborhood int

	// HeadNeighborhood is the maximum distance from the active tip.
	HeadNeighborhood int

	// Width bounds each rendered label in runes.
	Width int

	// Plain disables terminal styling.
	Plain bool
}

// DefaultOptions returns the thresholds used by the CLI.
func DefaultOptions() Options {
	return Options{
		PathNeighborhood: 2,
		HeadNeighborhood: 4,
		Width:            80,
	}
}

// Renderer projects a graph into an indented tree string.
type Renderer struct {
	opts      Options
	tipStyle  lipgloss.Style
	pathStyle lipgloss.Style
	dimStyle  lipgloss.Style
}

// NewRenderer creates a renderer with the given options.
func NewRenderer(opts Options) *Renderer {
	if opts.Width <= 0 {
		opts.Width = DefaultOptions().Width
	}
	return &Renderer{
		opts:      opts,
		tipStyle:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9")),
		pathStyle: lipgloss.NewStyle().Foreground(lipgloss.Color("12")),
		dimStyle:  lipgloss.NewStyle().Faint(true),
	}
}

// RenderActive renders the tree holding the active path, truncated by the
// neighborhood thresholds. With no active path, the whole forest renders
// untruncated.
func (r *Renderer) RenderActive(g Graph) (string, error) {
	path := g.Path()
	if len(path) == 0 {
		return r.RenderForest(g)
	}
	tip := path[len(path)-1]

	var b strings.Builder
	if err := r.renderNode(&b, g, path[0], "", "", path, tip); err != nil {
		return "", err
	}
	return b.String(), nil
}

// RenderForest renders every root's tree in full, no truncation.
func (r *Renderer) RenderForest(g Graph) (string, error) {
	var b strings.Builder
	for _, root := range g.Roots() {
		if err := r.renderNode(&b, g, root, "", "", nil, nil); err != nil {
			return "", err
		}
	}
	return b.String(), nil
}

// renderNode writes one node line and recurses into visible children.
// path and tip are nil when rendering without truncation.
func (r *Renderer) renderNode(b *strings.Builder, g Graph, node *loom.Node, branch, indent string, path []*loom.Node, tip *loom.Node) error {
	visible := true
	if tip != nil {
		var err error
		visible, err = r.visible(g, node, path, tip)
		if err != nil {
			return err
		}
	}

	b.WriteString(branch)
	if !visible {
		b.WriteString(r.style(r.dimStyle, Placeholder))
		b.WriteString("\n")
		return nil
	}
	b.WriteString(r.label(node, tip, indent))
	b.WriteString("\n")

	children, err := g.Children(node.ID)
	if err != nil {
		return err
	}
	for i, child := range children {
		connector, childIndent := "├─ ", "│  "
		if i == len(children)-1 {
			connector, childIndent = "└─ ", "   "
		}
		if err := r.renderNode(b, g, child, indent+connector, indent+childIndent, path, tip); err != nil {
			return err
		}
	}
	return nil
}

// visible applies the neighborhood rule: close enough to the path, or close
// enough to the tip.
func (r *Renderer) visible(g Graph, node *loom.Node, path []*loom.Node, tip *loom.Node) (bool, error) {
	headDist, err := g.Distance(tip.ID, node.ID)
	if err != nil {
		return false, err
	}
	if headDist >= 0 && headDist < r.opts.HeadNeighborhood {
		return true, nil
	}
	for _, p := range path {
		d, err := g.Distance(p.ID, node.ID)
		if err != nil {
			return false, err
		}
		if d >= 0 && d < r.opts.PathNeighborhood {
			return true, nil
		}
	}
	return false, nil
}

// label formats "id: text" on a single line, truncated to the remaining
// display width.
func (r *Renderer) label(node *loom.Node, tip *loom.Node, indent string) string {
	text := util.SingleLine(strings.TrimSpace(node.Prefix + node.Text))
	width := r.opts.Width - len([]rune(indent))
	line := util.Truncate(fmt.Sprintf("%d: %s", node.ID, text), width)

	switch {
	case tip != nil && node.ID == tip.ID:
		return r.style(r.tipStyle, line)
	case node.CheckedOut:
		return r.style(r.pathStyle, line)
	default:
		return line
	}
}

// style applies a lipgloss style unless plain output was requested.
func (r *Renderer) style(s lipgloss.Style, text string) string {
	if r.opts.Plain {
		return text
	}
	return s.Render(text)
}
