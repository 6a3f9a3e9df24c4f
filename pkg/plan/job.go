package plan

import (
	"errors"
	"fmt"

	"github.com/chazu/bicut/pkg/bicut"
	"github.com/chazu/bicut/pkg/gcode"
	"github.com/chazu/bicut/pkg/geom"
	"github.com/chazu/bicut/pkg/gouge"
	"github.com/chazu/bicut/pkg/region"
)

var (
	// ErrInvalidJob is returned for a Job with blocking validation errors.
	ErrInvalidJob = errors.New("plan: invalid job")
	// ErrUnknownRegion is returned when a job names a region the input
	// does not define.
	ErrUnknownRegion = errors.New("plan: unknown region")
)

// Pass is one tool run: how to plan it and how to cut it into the stock.
type Pass struct {
	Name   string
	Step   CutStep
	Stroke gcode.Stroke
	// Facing passes clear the top of the region itself instead of the
	// material around it.
	Facing bool
}

// Job describes how a set of labelled regions is cut.
type Job struct {
	Name string
	// Order lists region labels, most favoured first. Earlier regions win
	// disputed territory when the regions are partitioned.
	Order []string
	// PartitionRadius is the radius at which neighbouring regions are made
	// bicuttable. Zero cuts the regions as given.
	PartitionRadius float64
	// Margin is how far around each region's bounding box material is
	// cleared. The tool may reach up to twice as far.
	Margin float64
	// Stock, when not empty, bounds every pocket.
	Stock region.Region
	Passes []Pass
	// Reflect mirrors the programs of every region after the first, for
	// stock flipped between faces.
	Reflect bool
}

// Validate checks the job and every pass.
func (j *Job) Validate() ValidationResult {
	var res ValidationResult
	if len(j.Order) == 0 {
		res.errorf("order", "job cuts no regions")
	}
	seen := make(map[string]bool)
	for _, label := range j.Order {
		if label == "" {
			res.errorf("order", "empty region label")
		} else if seen[label] {
			res.errorf("order", "region %q listed twice", label)
		}
		seen[label] = true
	}
	if j.PartitionRadius < 0 {
		res.errorf("partition-radius", "must not be negative, got %v", j.PartitionRadius)
	}
	if j.Margin < 0 {
		res.errorf("margin", "must not be negative, got %v", j.Margin)
	}
	if len(j.Passes) == 0 {
		res.warnf("passes", "job has no passes")
	}
	names := make(map[string]bool)
	for i, p := range j.Passes {
		field := fmt.Sprintf("pass %d", i)
		if p.Name == "" {
			res.errorf(field, "pass has no name")
		} else if names[p.Name] {
			res.errorf(field, "pass name %q used twice", p.Name)
		}
		names[p.Name] = true
		for _, e := range p.Step.Validate().Errors {
			res.errorf(field, "%s", e.Error())
		}
		for _, w := range p.Step.Validate().Warnings {
			res.warnf(field, "%s", w.Error())
		}
		if err := p.Stroke.Validate(); err != nil {
			res.errorf(field, "%v", err)
		}
	}
	return res
}

// Program is the output of one pass over one region.
type Program struct {
	Region     string
	Pass       string
	Paths      []geom.Path
	GCode      string
	ToolRadius float64
	// Depth is the deepest cutting level.
	Depth float64
}

// FileName is the conventional output file name of the program.
func (p Program) FileName() string {
	return p.Region + "_" + p.Pass + ".nc"
}

// Runner plans jobs.
type Runner struct {
	// Checker, when set, verifies every pass against its pocket.
	Checker *gouge.Checker
}

// Run plans job without clearance checks.
func Run(job *Job, shapes map[string]region.Region) ([]Program, error) {
	return Runner{}.Run(job, shapes)
}

// Run partitions the job's regions and plans every pass of every region,
// region by region in job order.
func (r Runner) Run(job *Job, shapes map[string]region.Region) ([]Program, error) {
	if res := job.Validate(); !res.OK() {
		return nil, fmt.Errorf("%w %q: %v", ErrInvalidJob, job.Name, res.Errors[0])
	}

	regions := make([]region.Region, len(job.Order))
	for i, label := range job.Order {
		s, ok := shapes[label]
		if !ok {
			return nil, fmt.Errorf("%w %q in job %q", ErrUnknownRegion, label, job.Name)
		}
		if !s.Kind().Areal() {
			return nil, &region.InvalidGeometryError{Input: label, Reason: fmt.Sprintf("region is %v, want polygons", s.Kind())}
		}
		regions[i] = s
	}

	chosen := regions
	if job.PartitionRadius > 0 {
		var err error
		part := bicut.Partitioner{Radius: job.PartitionRadius, Labels: job.Order}
		if chosen, err = part.ChooseCuts(regions); err != nil {
			return nil, fmt.Errorf("plan: job %q: %w", job.Name, err)
		}
	}

	var programs []Program
	for i, item := range chosen {
		label := job.Order[i]
		surround, facing := r.pockets(job, item)
		reflect := job.Reflect && i > 0
		for _, pass := range job.Passes {
			step := pass.Step
			if reflect {
				step.Mode = step.Mode.Opposite()
			}
			pocket := surround
			if pass.Facing {
				pocket = facing
			}
			paths, err := pocket.AddStep(step)
			if err != nil {
				return nil, fmt.Errorf("plan: region %q pass %q: %w", label, pass.Name, err)
			}
			if reflect {
				paths = gcode.ReflectX(paths)
			}
			text, err := pass.Stroke.GCode(paths)
			if err != nil {
				return nil, fmt.Errorf("plan: region %q pass %q: %w", label, pass.Name, err)
			}
			programs = append(programs, Program{
				Region:     label,
				Pass:       pass.Name,
				Paths:      paths,
				GCode:      text,
				ToolRadius: step.ToolRadius,
				Depth:      pass.Stroke.ZMin,
			})
		}
	}
	return programs, nil
}

// pockets returns the pocket around item and the pocket over it.
func (r Runner) pockets(job *Job, item region.Region) (surround, facing *Pocket) {
	env := item.Envelope()
	target := env.Buffer(job.Margin)
	outer := env.Buffer(2 * job.Margin)
	if !job.Stock.IsEmpty() {
		target = target.Intersection(job.Stock)
		outer = outer.Intersection(job.Stock)
	}
	surround = &Pocket{
		Required: target.Difference(item),
		Allowed:  outer.Difference(item),
		Checker:  r.Checker,
	}
	facing = &Pocket{
		Required: item,
		Allowed:  item.Buffer(job.Margin),
		Checker:  r.Checker,
	}
	return surround, facing
}
