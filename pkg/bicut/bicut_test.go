package bicut

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"testing"

	"github.com/chazu/bicut/pkg/region"
)

func approx(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}

func TestCuttableStaysClearOfAvoid(t *testing.T) {
	cut := region.Rect(0, 0, 10, 10)
	avoid := region.Rect(10, 0, 20, 10)
	c := Cuttable(cut, avoid, 1)
	if !c.Contains(cut) {
		t.Errorf("cuttable region does not contain the region to cut")
	}
	if a := c.Intersection(avoid).Area(); a > 0.05 {
		t.Errorf("cuttable region overlaps the avoided region by %v", a)
	}
}

func TestToBicuttableAdjacent(t *testing.T) {
	p := region.Rect(0, 0, 10, 10)
	s := region.Rect(10, 0, 20, 10)
	total := p.Union(s)
	for _, radius := range []float64{0.5, 1, 2} {
		t.Run(fmt.Sprintf("radius %v", radius), func(t *testing.T) {
			enlarged, mating, err := ToBicuttable(p, s, radius)
			if err != nil {
				t.Fatalf("ToBicuttable: %v", err)
			}
			if !approx(enlarged.Area(), 100, 0.5) {
				t.Errorf("enlarged area = %v, want about 100", enlarged.Area())
			}
			if !approx(mating.Area(), 100, 0.5) {
				t.Errorf("mating area = %v, want about 100", mating.Area())
			}
			if a := enlarged.Intersection(mating).Area(); a > 0.05 {
				t.Errorf("parts overlap by %v", a)
			}
			if !enlarged.Union(mating).Covers(total, DefaultSlack) {
				t.Errorf("parts do not cover the inputs")
			}
		})
	}
}

func TestToBicuttableClaimsUnreachableSecondary(t *testing.T) {
	// The secondary is a pocket too narrow for the tool, so the primary
	// takes it.
	p := region.Rect(0, 0, 20, 20).Difference(region.Rect(9, 9, 10, 10))
	s := region.Rect(9, 9, 10, 10)
	enlarged, mating, err := ToBicuttable(p, s, 2)
	if err != nil {
		t.Fatalf("ToBicuttable: %v", err)
	}
	if !approx(enlarged.Area(), 400, 0.5) {
		t.Errorf("enlarged area = %v, want about 400", enlarged.Area())
	}
	if mating.Area() > 0.05 {
		t.Errorf("mating area = %v, want about 0", mating.Area())
	}
}

func TestToBicuttableCheckerboardFails(t *testing.T) {
	p := region.Rect(-10, -10, 0, 0).Union(region.Rect(0, 0, 10, 10))
	s := region.Rect(0, -10, 10, 0).Union(region.Rect(-10, 0, 0, 10))
	_, _, err := ToBicuttable(p, s, 1)
	var pf *PartitionFailure
	if !errors.As(err, &pf) {
		t.Fatalf("got %v, want *PartitionFailure", err)
	}
	if pf.Uncovered <= 0 {
		t.Errorf("Uncovered = %v, want positive", pf.Uncovered)
	}
	if pf.Radius != 1 {
		t.Errorf("Radius = %v, want 1", pf.Radius)
	}
}

func TestToBicuttableInvalidRadius(t *testing.T) {
	for _, r := range []float64{0, -1, math.NaN()} {
		_, _, err := ToBicuttable(region.Rect(0, 0, 1, 1), region.Rect(1, 0, 2, 1), r)
		if !errors.Is(err, ErrInvalidRadius) {
			t.Errorf("radius %v: got %v, want ErrInvalidRadius", r, err)
		}
	}
}

func TestChooseCuts(t *testing.T) {
	tests := []struct {
		name    string
		regions []region.Region
		areas   []float64
	}{
		{
			name: "strips",
			regions: []region.Region{
				region.Rect(0, 0, 10, 10),
				region.Rect(10, 0, 20, 10),
				region.Rect(20, 0, 30, 10),
			},
			areas: []float64{100, 100, 100},
		},
		{
			name: "earlier wins overlap",
			regions: []region.Region{
				region.Rect(0, 0, 12, 10),
				region.Rect(10, 0, 20, 10),
			},
			areas: []float64{120, 80},
		},
		{
			name:    "single",
			regions: []region.Region{region.Rect(0, 0, 5, 5)},
			areas:   []float64{25},
		},
		{
			name:    "none",
			regions: nil,
			areas:   nil,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cuts, err := ChooseCuts(tt.regions, 1)
			if err != nil {
				t.Fatalf("ChooseCuts: %v", err)
			}
			if len(cuts) != len(tt.areas) {
				t.Fatalf("got %d cuts, want %d", len(cuts), len(tt.areas))
			}
			for i, want := range tt.areas {
				if !approx(cuts[i].Area(), want, 0.5) {
					t.Errorf("cut %d area = %v, want about %v", i, cuts[i].Area(), want)
				}
			}
			for i := range cuts {
				for j := i + 1; j < len(cuts); j++ {
					if a := cuts[i].Intersection(cuts[j]).Area(); a > 0.05 {
						t.Errorf("cuts %d and %d overlap by %v", i, j, a)
					}
				}
			}
			total := region.UnionAll(tt.regions...)
			if !region.UnionAll(cuts...).Covers(total, DefaultSlack) {
				t.Errorf("cuts do not cover the inputs")
			}
		})
	}
}

func TestChooseCutsLabelsFailure(t *testing.T) {
	p := region.Rect(-10, -10, 0, 0).Union(region.Rect(0, 0, 10, 10))
	s := region.Rect(0, -10, 10, 0).Union(region.Rect(-10, 0, 0, 10))
	part := Partitioner{Radius: 1, Labels: []string{"walnut", "maple"}}
	_, err := part.ChooseCuts([]region.Region{p, s})
	var pf *PartitionFailure
	if !errors.As(err, &pf) {
		t.Fatalf("got %v, want *PartitionFailure", err)
	}
	if !strings.Contains(pf.Primary, "walnut") || !strings.Contains(pf.Secondary, "maple") {
		t.Errorf("labels = %q, %q", pf.Primary, pf.Secondary)
	}
	if !strings.Contains(err.Error(), "walnut") {
		t.Errorf("error %q does not name the primary", err)
	}
}
