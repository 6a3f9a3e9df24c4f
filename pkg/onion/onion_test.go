package onion

import (
	"errors"
	"math"
	"testing"

	"github.com/chazu/bicut/pkg/region"
)

func TestLevelsSquare(t *testing.T) {
	sq := region.Rect(0, 0, 16, 16)
	tests := []struct {
		name  string
		step  float64
		areas []float64
	}{
		{"step 4", 4, []float64{64, 256}},
		{"step 2", 2, []float64{16, 64, 144, 256}},
		{"step larger than region", 20, []float64{256}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			levels, err := Levels(sq, tt.step, nil)
			if err != nil {
				t.Fatalf("Levels: %v", err)
			}
			if len(levels) != len(tt.areas) {
				t.Fatalf("got %d levels, want %d", len(levels), len(tt.areas))
			}
			for i, want := range tt.areas {
				if got := levels[i].Area(); math.Abs(got-want) > 1e-6 {
					t.Errorf("level %d area = %v, want %v", i, got, want)
				}
			}
		})
	}
}

func TestLevelsAreaStrictlyIncreasing(t *testing.T) {
	shapes := []region.Region{
		region.Rect(0, 0, 30, 10),
		region.Rect(0, 0, 20, 20).Difference(region.Rect(8, 8, 12, 12)),
		region.Rect(0, 0, 10, 10).Union(region.Rect(10, 0, 20, 3)),
	}
	for i, r := range shapes {
		levels, err := Levels(r, 1.5, nil)
		if err != nil {
			t.Fatalf("shape %d: %v", i, err)
		}
		if len(levels) == 0 {
			t.Fatalf("shape %d: no levels", i)
		}
		for j := 1; j < len(levels); j++ {
			if levels[j].Area() <= levels[j-1].Area() {
				t.Errorf("shape %d: level %d area %v not greater than level %d area %v",
					i, j, levels[j].Area(), j-1, levels[j-1].Area())
			}
		}
	}
}

func TestLevelsStopRegion(t *testing.T) {
	sq := region.Rect(0, 0, 16, 16)
	stop := region.Rect(6, 6, 10, 10)
	levels, err := Config{Step: 2, Stop: &stop}.Levels(sq)
	if err != nil {
		t.Fatal(err)
	}
	if len(levels) != 3 {
		t.Fatalf("got %d levels, want 3", len(levels))
	}
	for i := 0; i < len(levels); i++ {
		shrink := sq.Buffer(-float64(len(levels)-1-i) * 2)
		if stop.Contains(shrink) {
			t.Errorf("level %d lies inside the stop region", i)
		}
	}
	next := sq.Buffer(-6)
	if !next.IsEmpty() && !stop.Contains(next) {
		t.Error("the first rejected shrink should be empty or inside the stop region")
	}

	whole := region.Rect(-1, -1, 17, 17)
	levels, err = Config{Step: 2, Stop: &whole}.Levels(sq)
	if err != nil {
		t.Fatal(err)
	}
	if len(levels) != 0 {
		t.Errorf("expected no levels when the stop region covers everything, got %d", len(levels))
	}
}

func TestLevelsEdgeCases(t *testing.T) {
	sq := region.Rect(0, 0, 10, 10)
	for _, step := range []float64{0, -1, math.NaN(), math.Inf(1)} {
		if _, err := Levels(sq, step, nil); !errors.Is(err, ErrInvalidStep) {
			t.Errorf("step %v: expected ErrInvalidStep, got %v", step, err)
		}
	}
	if _, err := (Config{Step: 0.01, MaxLevels: 5}).Levels(sq); !errors.Is(err, ErrTooManyLevels) {
		t.Errorf("expected ErrTooManyLevels, got %v", err)
	}
	levels, err := Levels(region.Empty(), 1, nil)
	if err != nil || len(levels) != 0 {
		t.Errorf("empty region: got %d levels, err %v", len(levels), err)
	}
	levels, err = Config{Step: 1, Inset: 6}.Levels(sq)
	if err != nil || len(levels) != 0 {
		t.Errorf("inset past the centre: got %d levels, err %v", len(levels), err)
	}
}

func TestBuildTree(t *testing.T) {
	// Two lobes joined by a thin neck split into two branches once the neck
	// disappears.
	r := region.Rect(0, 0, 10, 10).Union(region.Rect(10, 3, 14, 7)).Union(region.Rect(14, 0, 24, 10))
	tree, err := Config{Step: 1.5}.Build(r)
	if err != nil {
		t.Fatal(err)
	}
	if len(tree.Roots) != 1 {
		t.Fatalf("expected 1 root, got %d", len(tree.Roots))
	}
	root := tree.Nodes[tree.Roots[0]]
	if len(root.Children) != 1 {
		t.Fatalf("expected the root to have 1 child, got %d", len(root.Children))
	}
	branch := tree.Nodes[root.Children[0]]
	if len(branch.Children) != 2 {
		t.Fatalf("expected the neck to split into 2 branches, got %d", len(branch.Children))
	}
	for id, n := range tree.Nodes {
		for _, c := range n.Children {
			if tree.Nodes[c].Depth != n.Depth+1 {
				t.Errorf("node %d: child %d at depth %d, want %d", id, c, tree.Nodes[c].Depth, n.Depth+1)
			}
		}
	}
}
