package onion

import (
	"github.com/chazu/bicut/pkg/geom"
	"github.com/chazu/bicut/pkg/region"
)

// Node is one connected component of one level.
type Node struct {
	// Depth is the level index counted from the outermost level.
	Depth    int
	Region   region.Region
	Children []int
}

// Tree is an arena of level components. A node's children are the
// components of the next inner level that lie inside it.
type Tree struct {
	Nodes []Node
	Roots []int
}

// Len returns the number of nodes.
func (t Tree) Len() int { return len(t.Nodes) }

// BuildTree links the components of levels, given innermost first as
// returned by Levels. A component that no outer component contains becomes
// a root.
func BuildTree(levels []region.Region) Tree {
	t := Tree{Nodes: []Node{}, Roots: []int{}}
	var prev []int
	for depth := 0; depth < len(levels); depth++ {
		level := levels[len(levels)-1-depth]
		var cur []int
		for _, part := range level.Parts() {
			id := len(t.Nodes)
			t.Nodes = append(t.Nodes, Node{Depth: depth, Region: part})
			cur = append(cur, id)

			parent := -1
			if inside, ok := anchor(part); ok {
				for _, p := range prev {
					if t.Nodes[p].Region.ContainsPoint(inside) {
						parent = p
						break
					}
				}
			}
			if parent < 0 {
				t.Roots = append(t.Roots, id)
			} else {
				t.Nodes[parent].Children = append(t.Nodes[parent].Children, id)
			}
		}
		prev = cur
	}
	return t
}

// Build computes the levels of r and links them into a tree.
func (c Config) Build(r region.Region) (Tree, error) {
	levels, err := c.Levels(r)
	if err != nil {
		return Tree{}, err
	}
	return BuildTree(levels), nil
}

func anchor(r region.Region) (p geom.Point, ok bool) {
	polys := r.Polygons()
	if len(polys) == 0 || len(polys[0].Exterior) == 0 {
		return p, false
	}
	return polys[0].Exterior[0], true
}
