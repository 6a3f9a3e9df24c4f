package stitch

import (
	"fmt"

	"github.com/chazu/bicut/pkg/geom"
	"github.com/chazu/bicut/pkg/region"
)

// Item is one loop in a schedule together with the items that must be cut
// before it.
type Item struct {
	Level    int
	Loop     geom.Loop
	Requires []int
}

// Graph is the containment dependency graph of a set of offset levels.
type Graph struct {
	Items []Item
	// Outer is the outermost level.
	Outer region.Region
}

// NewGraph builds the dependency graph of levels given innermost first. An
// exterior loop requires every loop of the next inner level whose start lies
// inside its polygon. A hole requires every hole of the next inner level
// that contains its start.
func NewGraph(levels []region.Region) Graph {
	g := Graph{Items: []Item{}}
	if len(levels) > 0 {
		g.Outer = levels[len(levels)-1]
	}
	var prev []int
	for li, level := range levels {
		var cur []int
		for _, poly := range level.Polygons() {
			ext, err := geom.NewLoop(poly.Exterior, false)
			if err != nil {
				continue
			}
			item := Item{Level: li, Loop: ext}
			for _, p := range prev {
				if poly.ContainsPoint(g.Items[p].Loop.Points.Start()) {
					item.Requires = append(item.Requires, p)
				}
			}
			cur = append(cur, len(g.Items))
			g.Items = append(g.Items, item)

			for _, h := range poly.Holes {
				hole, err := geom.NewLoop(h, true)
				if err != nil {
					continue
				}
				item := Item{Level: li, Loop: hole}
				for _, p := range prev {
					pl := g.Items[p].Loop
					if pl.Hole && (region.Polygon{Exterior: pl.Points}).ContainsPoint(h.Start()) {
						item.Requires = append(item.Requires, p)
					}
				}
				cur = append(cur, len(g.Items))
				g.Items = append(g.Items, item)
			}
		}
		prev = cur
	}
	return g
}

// ScheduleConfig controls how scheduled loops are linked.
type ScheduleConfig struct {
	Mode Mode
	// LinkDistance is the longest straight move made at cutting depth
	// between two loops. Longer links start a new path.
	LinkDistance float64
	// Bound is the area a link may cross at cutting depth. An empty Bound
	// selects the outermost level.
	Bound region.Region
}

// Schedule visits every item of g once, in an order that respects the
// requirements. Among the ready items the one nearest to the tool wins, ties
// going to the lowest index. Each loop is re-threaded at its point nearest
// to the tool. The loop joins the current path when the link is no longer
// than LinkDistance and lies inside Bound; otherwise it starts a new path.
func (g Graph) Schedule(cfg ScheduleConfig) ([]geom.Path, error) {
	bound := cfg.Bound
	if bound.IsEmpty() {
		bound = g.Outer
	}

	pending := make([]int, len(g.Items))
	dependents := make([][]int, len(g.Items))
	for i, it := range g.Items {
		pending[i] = len(it.Requires)
		for _, r := range it.Requires {
			dependents[r] = append(dependents[r], i)
		}
	}
	ready := map[int]bool{}
	for i, n := range pending {
		if n == 0 {
			ready[i] = true
		}
	}

	paths := []geom.Path{}
	var cursor *geom.Point
	for done := 0; done < len(g.Items); done++ {
		if len(ready) == 0 {
			return nil, fmt.Errorf("stitch: dependency cycle after %d of %d loops", done, len(g.Items))
		}
		next, pos, dist := -1, 0.0, 0.0
		for i := range g.Items {
			if !ready[i] {
				continue
			}
			loop := cfg.Mode.orient(g.Items[i].Loop)
			if cursor == nil {
				next = i
				break
			}
			p, d := loop.Project(*cursor)
			if next < 0 || d < dist {
				next, pos, dist = i, p, d
			}
		}
		delete(ready, next)
		for _, dep := range dependents[next] {
			if pending[dep]--; pending[dep] == 0 {
				ready[dep] = true
			}
		}

		loop := cfg.Mode.orient(g.Items[next].Loop)
		seg := loop.RepositionAt(pos)
		if cursor != nil && dist <= cfg.LinkDistance && linkInside(bound, *cursor, seg.Start()) {
			n := len(paths) - 1
			paths[n] = append(paths[n], seg...)
		} else {
			paths = append(paths, seg)
		}
		end := seg.End()
		cursor = &end
	}
	return paths, nil
}

func linkInside(bound region.Region, a, b geom.Point) bool {
	if a == b {
		return true
	}
	link, err := region.FromLines(geom.Path{a, b})
	if err != nil {
		return false
	}
	return bound.Contains(link)
}
