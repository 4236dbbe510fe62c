package dml

import (
	"strings"

	"github.com/mesh-intelligence/rowmap/internal/mapping"
)

// JoinNode is one entity in an eager join: the root, or an association
// target reached from Parent through Via.
type JoinNode struct {
	Meta     *mapping.EntityMetadata
	Parent   *JoinNode
	Via      *mapping.OneToManyColumn
	Offset   int // Position of Meta's first column in a selected row.
	Children []*JoinNode
}

// Width is the number of selected columns the node contributes.
func (n *JoinNode) Width() int { return len(n.Meta.ColumnNames()) }

// JoinPlan is the eager join tree rooted at one descriptor. Nodes are in
// the order of ColumnNamesWithAlias, so row offsets line up with it.
type JoinPlan struct {
	Root  *JoinNode
	Nodes []*JoinNode
	Width int
}

// NewJoinPlan walks the eager associations of md.
func NewJoinPlan(md *mapping.EntityMetadata) (*JoinPlan, error) {
	p := &JoinPlan{}
	nodes := map[*mapping.EntityMetadata]*JoinNode{}
	err := md.WalkEager(func(parent *mapping.EntityMetadata, via *mapping.OneToManyColumn, meta *mapping.EntityMetadata) error {
		n := &JoinNode{Meta: meta, Via: via, Offset: p.Width}
		if parent == nil {
			p.Root = n
		} else {
			n.Parent = nodes[parent]
			n.Parent.Children = append(n.Parent.Children, n)
		}
		nodes[meta] = n
		p.Nodes = append(p.Nodes, n)
		p.Width += n.Width()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}

// Columns returns the aliased select list, one entry per row position.
func (p *JoinPlan) Columns() []string {
	cols := make([]string, 0, p.Width)
	for _, n := range p.Nodes {
		cols = append(cols, n.Meta.AliasedColumnNames()...)
	}
	return cols
}

// From renders the FROM clause: the root table followed by one LEFT JOIN
// per eager association.
func (p *JoinPlan) From() string {
	var b strings.Builder
	b.WriteString(p.Root.Meta.TableName())
	for _, n := range p.Nodes[1:] {
		parent := n.Parent.Meta
		b.WriteString(" LEFT JOIN ")
		b.WriteString(n.Meta.TableName())
		b.WriteString(" ON ")
		b.WriteString(n.Meta.TableName() + "." + n.Via.JoinColumn())
		b.WriteString(" = ")
		b.WriteString(parent.TableName() + "." + parent.IDColumnName())
	}
	return b.String()
}

// OrderBy renders an ordering on every node's identifier so rows of one
// parent arrive together and children keep insertion order.
func (p *JoinPlan) OrderBy() string {
	keys := make([]string, len(p.Nodes))
	for i, n := range p.Nodes {
		keys[i] = n.Meta.TableName() + "." + n.Meta.IDColumnName()
	}
	return strings.Join(keys, ", ")
}

// SelectColumns renders the comma-joined aliased column list of the eager
// join rooted at md.
func SelectColumns(md *mapping.EntityMetadata) (string, error) {
	names, err := md.ColumnNamesWithAlias()
	if err != nil {
		return "", err
	}
	return strings.Join(names, ", "), nil
}
