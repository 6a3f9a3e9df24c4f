package main

import (
	"bytes"
	"fmt"
	"io"
	"log"
	"maps"
	"math"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/chazu/bicut/pkg/engine"
	"github.com/chazu/bicut/pkg/gcode"
	"github.com/chazu/bicut/pkg/geom"
	"github.com/chazu/bicut/pkg/gouge"
	"github.com/chazu/bicut/pkg/kernel"
	"github.com/chazu/bicut/pkg/kernel/sdfx"
	"github.com/chazu/bicut/pkg/onion"
	"github.com/chazu/bicut/pkg/plan"
	"github.com/chazu/bicut/pkg/region"
	"github.com/chazu/bicut/pkg/stitch"
	"github.com/chazu/bicut/pkg/tessellate"
	"github.com/chazu/bicut/pkg/visual"
)

// previewFloor is how far the previewed stock extends below the deepest cut.
const previewFloor = 1.0

// App ties the job engine, the planner and the preview kernel together.
// The CLI is a thin layer over it.
type App struct {
	engine *engine.Engine
	kernel kernel.Kernel
	// Check verifies every pass against its pocket with the kernel.
	Check bool
}

// MeshData is the JSON-serializable mesh format of a preview.
type MeshData struct {
	Vertices []float32 `json:"vertices"`
	Normals  []float32 `json:"normals"`
	Indices  []uint32  `json:"indices"`
	Name     string    `json:"name"`
	Color    string    `json:"color"`
}

// EvalErrorData is a JSON-serializable error or warning.
type EvalErrorData struct {
	Line    int    `json:"line"`
	Col     int    `json:"col"`
	Message string `json:"message"`
}

// PlanResult is the outcome of planning every job of a file.
type PlanResult struct {
	Programs []plan.Program
	Shapes   map[string]region.Region
	Errors   []EvalErrorData
	Warnings []EvalErrorData
}

// PreviewResult is the full result of a preview.
type PreviewResult struct {
	Meshes   []MeshData      `json:"meshes"`
	Errors   []EvalErrorData `json:"errors"`
	Warnings []EvalErrorData `json:"warnings"`
}

// NewApp creates a new App with an engine and the sdfx kernel.
func NewApp() *App {
	return &App{
		engine: engine.NewEngine(),
		kernel: sdfx.New(),
	}
}

// newKernel returns an sdfx kernel meshing at the given resolution.
func newKernel(cells int) kernel.Kernel {
	return &sdfx.SdfxKernel{Cells: cells}
}

// evaluate runs a job file, converting its errors and warnings.
func (a *App) evaluate(source string, errs, warnings *[]EvalErrorData) *engine.Result {
	res, evalErrs, err := a.engine.Evaluate(source)
	if err != nil {
		// Fatal error (panic, timeout, etc.)
		log.Printf("Evaluate fatal error: %v", err)
		*errs = append(*errs, EvalErrorData{Message: err.Error()})
		return nil
	}
	if len(evalErrs) > 0 {
		for _, e := range evalErrs {
			*errs = append(*errs, EvalErrorData{Line: e.Line, Col: e.Col, Message: e.Message})
		}
		return nil
	}
	for _, w := range res.Warnings {
		*warnings = append(*warnings, EvalErrorData{
			Line:    w.Line,
			Col:     w.Col,
			Message: fmt.Sprintf("job %q: %s", w.Job, w.Message),
		})
	}
	return res
}

// Plan evaluates a job file and plans every job it defines against the
// file's own shapes and the input shapes. A label defined in both places is
// an error. Planning stops at the first failing job.
func (a *App) Plan(source string, input map[string]region.Region) PlanResult {
	result := PlanResult{
		Programs: []plan.Program{},
		Errors:   []EvalErrorData{},
		Warnings: []EvalErrorData{},
	}
	res := a.evaluate(source, &result.Errors, &result.Warnings)
	if res == nil {
		return result
	}
	a.plan(res, input, &result)
	return result
}

func (a *App) plan(res *engine.Result, input map[string]region.Region, result *PlanResult) {
	shapes := make(map[string]region.Region, len(res.Shapes)+len(input))
	maps.Copy(shapes, res.Shapes)
	for label, r := range input {
		if _, dup := shapes[label]; dup {
			result.Errors = append(result.Errors, EvalErrorData{
				Message: fmt.Sprintf("region %q is defined by both the job file and the input", label),
			})
			return
		}
		shapes[label] = r
	}
	result.Shapes = shapes

	runner := plan.Runner{}
	if a.Check {
		runner.Checker = &gouge.Checker{Kernel: a.kernel}
	}
	for _, job := range res.Jobs {
		programs, err := runner.Run(job, shapes)
		if err != nil {
			log.Printf("Plan error: %v", err)
			result.Errors = append(result.Errors, EvalErrorData{Message: err.Error()})
			return
		}
		result.Programs = append(result.Programs, programs...)
	}
}

// Preview plans a job file and tessellates the result: for every job the
// stock after all its programs, then the material each program removes.
func (a *App) Preview(source string, input map[string]region.Region) PreviewResult {
	result := PreviewResult{
		Meshes:   []MeshData{},
		Errors:   []EvalErrorData{},
		Warnings: []EvalErrorData{},
	}
	res := a.evaluate(source, &result.Errors, &result.Warnings)
	if res == nil {
		return result
	}
	var planned PlanResult
	a.plan(res, input, &planned)
	if len(planned.Errors) > 0 {
		result.Errors = planned.Errors
		return result
	}

	palette := visual.NewPalette()
	for _, job := range res.Jobs {
		stock, cuts := previewInput(job, planned.Programs)
		meshes, err := tessellate.Preview(a.kernel, stock, cuts)
		if err != nil {
			log.Printf("Tessellate error: %v", err)
			result.Errors = append(result.Errors, EvalErrorData{
				Message: fmt.Sprintf("job %q: tessellation failed: %v", job.Name, err),
			})
			return result
		}
		for _, m := range meshes {
			name := m.Name
			if name == tessellate.StockName {
				name = job.Name + "/" + name
			}
			result.Meshes = append(result.Meshes, MeshData{
				Vertices: m.Vertices,
				Normals:  m.Normals,
				Indices:  m.Indices,
				Name:     name,
				Color:    palette.Next(),
			})
		}
	}
	return result
}

// previewInput selects the job's programs and sizes its stock: from the
// highest pass start down to previewFloor below the deepest pass.
func previewInput(job *plan.Job, programs []plan.Program) (tessellate.Stock, []tessellate.Cut) {
	in := make(map[string]bool, len(job.Order))
	for _, label := range job.Order {
		in[label] = true
	}
	passes := make(map[string]bool, len(job.Passes))
	top, bottom := math.Inf(-1), math.Inf(1)
	for _, p := range job.Passes {
		passes[p.Name] = true
		top = math.Max(top, p.Stroke.ZMax)
		bottom = math.Min(bottom, p.Stroke.ZMin)
	}
	if len(job.Passes) == 0 {
		top, bottom = 0, 0
	}

	var cuts []tessellate.Cut
	for _, p := range programs {
		if !in[p.Region] || !passes[p.Pass] {
			continue
		}
		cuts = append(cuts, tessellate.Cut{
			Name:       strings.TrimSuffix(p.FileName(), ".nc"),
			Paths:      p.Paths,
			ToolRadius: p.ToolRadius,
			Depth:      p.Depth,
		})
	}
	return tessellate.Stock{Region: job.Stock, Top: top, Bottom: bottom - previewFloor}, cuts
}

// OnionResult is a single-region offset plan.
type OnionResult struct {
	Levels int
	Paths  []geom.Path
	GCode  string
}

// Onion fills r with offset levels step apart, stitches them and renders
// the paths with stroke. The stop region, when set, ends the offsets early.
func (a *App) Onion(r region.Region, step float64, stop *region.Region, mode stitch.Mode, stroke gcode.Stroke) (OnionResult, error) {
	levels, err := onion.Config{Step: step, Stop: stop}.Levels(r)
	if err != nil {
		return OnionResult{}, err
	}
	paths, err := stitch.Tree(onion.BuildTree(levels), mode)
	if err != nil {
		return OnionResult{}, err
	}
	text, err := stroke.GCode(paths)
	if err != nil {
		return OnionResult{}, err
	}
	return OnionResult{Levels: len(levels), Paths: paths, GCode: text}, nil
}

// Show renders visualiser elements as SVG and, when png is not nil, as PNG.
func (a *App) Show(in io.Reader, svg, png io.Writer, opts visual.Options) error {
	elems, err := visual.ReadElements(in)
	if err != nil {
		return err
	}
	layers, err := visual.Layers(elems, visual.NewPalette())
	if err != nil {
		return err
	}
	var doc bytes.Buffer
	if err := visual.RenderSVG(&doc, layers, opts); err != nil {
		return err
	}
	if png != nil {
		img, err := visual.RasterizePNG(bytes.NewReader(doc.Bytes()), 0, 0)
		if err != nil {
			return err
		}
		if err := visual.WritePNG(png, img); err != nil {
			return err
		}
	}
	if svg != nil {
		if _, err := svg.Write(doc.Bytes()); err != nil {
			return fmt.Errorf("write svg: %w", err)
		}
	}
	return nil
}

// DebugElements describes a plan for the visualiser: every shape in label
// order, then the paths of every program.
func DebugElements(shapes map[string]region.Region, programs []plan.Program) ([]visual.Element, error) {
	var elems []visual.Element
	for _, label := range slices.Sorted(maps.Keys(shapes)) {
		elems = append(elems, visual.PolygonElement(shapes[label], label))
	}
	for _, p := range programs {
		if len(p.Paths) == 0 {
			continue
		}
		e, err := visual.PathElement(p.Paths, strings.TrimSuffix(p.FileName(), ".nc"))
		if err != nil {
			return nil, err
		}
		elems = append(elems, e)
	}
	return elems, nil
}

// WritePrograms writes every program to dir under its conventional file
// name and returns the paths written.
func WritePrograms(dir string, programs []plan.Program) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	var written []string
	for _, p := range programs {
		name := filepath.Join(dir, p.FileName())
		if err := os.WriteFile(name, []byte(p.GCode), 0o644); err != nil {
			return written, err
		}
		written = append(written, name)
	}
	return written, nil
}
