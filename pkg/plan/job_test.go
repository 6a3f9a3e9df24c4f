package plan_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/chazu/bicut/pkg/gcode"
	"github.com/chazu/bicut/pkg/plan"
	"github.com/chazu/bicut/pkg/region"
)

func twoRegions() map[string]region.Region {
	return map[string]region.Region{
		"a": region.Rect(0, 0, 10, 10),
		"b": region.Rect(10, 0, 20, 10),
	}
}

func testJob() *plan.Job {
	stroke := gcode.Stroke{SafeHeight: 5, Feedrate: 1000, ZMax: 0, ZMin: -2, ZStep: 1}
	return &plan.Job{
		Name:            "pair",
		Order:           []string{"a", "b"},
		PartitionRadius: 0.5,
		Margin:          2,
		Passes: []plan.Pass{
			{Name: "rough", Step: plan.CutStep{ToolRadius: 1, StepOver: 1.5, SimplifyTolerance: 0.05}, Stroke: stroke},
			{Name: "face", Step: plan.CutStep{ToolRadius: 1, StepOver: 1.5, SimplifyTolerance: 0.05}, Stroke: stroke, Facing: true},
		},
	}
}

func TestRun(t *testing.T) {
	programs, err := plan.Run(testJob(), twoRegions())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	want := []string{"a_rough.nc", "a_face.nc", "b_rough.nc", "b_face.nc"}
	if len(programs) != len(want) {
		t.Fatalf("got %d programs, want %d", len(programs), len(want))
	}
	for i, p := range programs {
		if p.FileName() != want[i] {
			t.Errorf("program %d = %s, want %s", i, p.FileName(), want[i])
		}
		if len(p.Paths) == 0 {
			t.Errorf("%s has no paths", p.FileName())
		}
		if !strings.HasSuffix(p.GCode, "G0 Z5") {
			t.Errorf("%s does not end with a retract", p.FileName())
		}
		prog, err := gcode.Parse(strings.NewReader(p.GCode))
		if err != nil {
			t.Fatalf("%s: Parse: %v", p.FileName(), err)
		}
		points := 0
		for _, path := range p.Paths {
			points += len(path)
		}
		// Two depth levels.
		if prog.Points() != 2*points {
			t.Errorf("%s: parsed %d points, want %d", p.FileName(), prog.Points(), 2*points)
		}
	}
}

func TestRunReflect(t *testing.T) {
	plain, err := plan.Run(testJob(), twoRegions())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	job := testJob()
	job.Reflect = true
	mirrored, err := plan.Run(job, twoRegions())
	if err != nil {
		t.Fatalf("Run reflected: %v", err)
	}
	for i, p := range mirrored {
		switch p.Region {
		case "a":
			if p.GCode != plain[i].GCode {
				t.Errorf("%s changed by reflection", p.FileName())
			}
		case "b":
			for _, path := range p.Paths {
				for _, pt := range path {
					if pt.X >= 0 {
						t.Fatalf("%s not mirrored: %v", p.FileName(), pt)
					}
				}
			}
		}
	}
}

func TestRunErrors(t *testing.T) {
	line, err := region.FromLines(region.Rect(0, 0, 1, 1).Polygons()[0].Exterior)
	if err != nil {
		t.Fatal(err)
	}
	tests := []struct {
		name   string
		mutate func(*plan.Job, map[string]region.Region)
		check  func(error) bool
	}{
		{"unknown region", func(j *plan.Job, _ map[string]region.Region) {
			j.Order = append(j.Order, "c")
		}, func(err error) bool { return errors.Is(err, plan.ErrUnknownRegion) }},
		{"duplicate label", func(j *plan.Job, _ map[string]region.Region) {
			j.Order = []string{"a", "a"}
		}, func(err error) bool { return errors.Is(err, plan.ErrInvalidJob) }},
		{"bad step", func(j *plan.Job, _ map[string]region.Region) {
			j.Passes[0].Step.StepOver = 0
		}, func(err error) bool { return errors.Is(err, plan.ErrInvalidJob) }},
		{"bad stroke", func(j *plan.Job, _ map[string]region.Region) {
			j.Passes[0].Stroke.ZStep = 0
		}, func(err error) bool { return errors.Is(err, plan.ErrInvalidJob) }},
		{"lineal region", func(_ *plan.Job, s map[string]region.Region) {
			s["b"] = line
		}, func(err error) bool {
			var ig *region.InvalidGeometryError
			return errors.As(err, &ig)
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			job, shapes := testJob(), twoRegions()
			tt.mutate(job, shapes)
			_, err := plan.Run(job, shapes)
			if !tt.check(err) {
				t.Errorf("unexpected error %v", err)
			}
		})
	}
}

func TestJobValidateWarnings(t *testing.T) {
	job := testJob()
	job.Passes = nil
	res := job.Validate()
	if !res.OK() {
		t.Fatalf("unexpected errors: %v", res.Errors)
	}
	if len(res.Warnings) != 1 {
		t.Errorf("got warnings %v, want one", res.Warnings)
	}
}
