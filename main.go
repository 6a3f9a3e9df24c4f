package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/chazu/bicut/pkg/gcode"
	"github.com/chazu/bicut/pkg/plan"
	"github.com/chazu/bicut/pkg/region"
	"github.com/chazu/bicut/pkg/stitch"
	"github.com/chazu/bicut/pkg/visual"
	"github.com/chazu/bicut/pkg/wkt"
	flag "github.com/spf13/pflag"
)

const usage = `Usage:
    %s plan    --job FILE [--input FILE] [--out DIR] [--debug FILE] [--check]
    %s preview --job FILE [--input FILE] [--out FILE]
    %s show    --input FILE --svg FILE [--png FILE] [--width N]
    %s onion   --wkt TEXT --step N --gcode FILE [options]
`

func main() {
	log.SetFlags(0)
	if len(os.Args) < 2 {
		fmt.Fprintf(os.Stderr, usage, os.Args[0], os.Args[0], os.Args[0], os.Args[0])
		os.Exit(2)
	}

	var err error
	switch cmd, args := os.Args[1], os.Args[2:]; cmd {
	case "plan":
		err = runPlan(args)
	case "preview":
		err = runPreview(args)
	case "show":
		err = runShow(args)
	case "onion":
		err = runOnion(args)
	case "help", "-h", "--help":
		fmt.Fprintf(os.Stdout, usage, os.Args[0], os.Args[0], os.Args[0], os.Args[0])
		return
	default:
		err = fmt.Errorf("unknown command %q", cmd)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
		os.Exit(1)
	}
}

// readInput loads labelled shapes from a JSON rows file. An empty name
// yields no shapes.
func readInput(name string) (map[string]region.Region, error) {
	if name == "" {
		return nil, nil
	}
	f, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	rows, err := plan.ReadRows(f)
	if err != nil {
		return nil, err
	}
	return plan.Shapes(rows)
}

func report(errs, warnings []EvalErrorData) error {
	for _, w := range warnings {
		log.Printf("warning: %s", w.Message)
	}
	if len(errs) == 0 {
		return nil
	}
	for _, e := range errs {
		if e.Line > 0 {
			log.Printf("line %d: %s", e.Line, e.Message)
		} else {
			log.Printf("%s", e.Message)
		}
	}
	return fmt.Errorf("%d error(s)", len(errs))
}

func runPlan(args []string) error {
	fs := flag.NewFlagSet("plan", flag.ExitOnError)
	jobFile := fs.String("job", "", "job file")
	input := fs.String("input", "", "JSON rows of labelled WKT shapes")
	out := fs.String("out", ".", "output directory for G-code")
	debug := fs.String("debug", "", "write visualiser elements of the plan to this file")
	check := fs.Bool("check", false, "verify every pass against its pocket")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *jobFile == "" {
		return fmt.Errorf("plan: --job is required")
	}

	source, err := os.ReadFile(*jobFile)
	if err != nil {
		return err
	}
	shapes, err := readInput(*input)
	if err != nil {
		return err
	}

	app := NewApp()
	app.Check = *check
	result := app.Plan(string(source), shapes)
	if err := report(result.Errors, result.Warnings); err != nil {
		return err
	}
	written, err := WritePrograms(*out, result.Programs)
	if err != nil {
		return err
	}
	for _, name := range written {
		log.Printf("wrote %s", name)
	}

	if *debug != "" {
		elems, err := DebugElements(result.Shapes, result.Programs)
		if err != nil {
			return err
		}
		if err := writeFile(*debug, func(w io.Writer) error { return visual.WriteElements(w, elems) }); err != nil {
			return err
		}
		log.Printf("wrote %s", *debug)
	}
	return nil
}

func runPreview(args []string) error {
	fs := flag.NewFlagSet("preview", flag.ExitOnError)
	jobFile := fs.String("job", "", "job file")
	input := fs.String("input", "", "JSON rows of labelled WKT shapes")
	out := fs.String("out", "preview.json", "output file for the meshes")
	cells := fs.Int("cells", 0, "marching cubes resolution (0 for the default)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *jobFile == "" {
		return fmt.Errorf("preview: --job is required")
	}

	source, err := os.ReadFile(*jobFile)
	if err != nil {
		return err
	}
	shapes, err := readInput(*input)
	if err != nil {
		return err
	}

	app := NewApp()
	if *cells > 0 {
		app.kernel = newKernel(*cells)
	}
	result := app.Preview(string(source), shapes)
	if err := report(result.Errors, result.Warnings); err != nil {
		return err
	}
	return writeFile(*out, func(w io.Writer) error {
		return json.NewEncoder(w).Encode(result)
	})
}

func runShow(args []string) error {
	fs := flag.NewFlagSet("show", flag.ExitOnError)
	input := fs.String("input", "", "JSON array of visualiser elements")
	svgFile := fs.String("svg", "", "SVG output file")
	pngFile := fs.String("png", "", "PNG output file")
	opts := visual.DefaultOptions()
	fs.IntVar(&opts.Width, "width", opts.Width, "image width in pixels")
	fs.BoolVar(&opts.Labels, "labels", opts.Labels, "draw element labels")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *input == "" || (*svgFile == "" && *pngFile == "") {
		return fmt.Errorf("show: --input and one of --svg or --png are required")
	}

	in, err := os.Open(*input)
	if err != nil {
		return err
	}
	defer in.Close()

	var svgOut, pngOut *os.File
	if *svgFile != "" {
		if svgOut, err = os.Create(*svgFile); err != nil {
			return err
		}
		defer svgOut.Close()
	}
	if *pngFile != "" {
		if pngOut, err = os.Create(*pngFile); err != nil {
			return err
		}
		defer pngOut.Close()
	}
	// A nil *os.File must not reach Show as a non-nil io.Writer.
	var svgW, pngW io.Writer
	if svgOut != nil {
		svgW = svgOut
	}
	if pngOut != nil {
		pngW = pngOut
	}
	return NewApp().Show(in, svgW, pngW, opts)
}

func runOnion(args []string) error {
	fs := flag.NewFlagSet("onion", flag.ExitOnError)
	text := fs.String("wkt", "", "region to fill")
	stopText := fs.String("stop", "", "stop once a level lies inside this region")
	step := fs.Float64("step", 0, "distance between levels")
	mode := fs.String("mode", "climb", "milling mode: climb or conventional")
	out := fs.String("gcode", "", "G-code output file")
	var stroke gcode.Stroke
	fs.Float64Var(&stroke.SafeHeight, "safe", 5, "safe height")
	fs.Float64Var(&stroke.Feedrate, "feed", 600, "feed rate")
	fs.Float64Var(&stroke.ZMax, "zmax", 0, "first depth above the cut")
	fs.Float64Var(&stroke.ZMin, "zmin", -1, "final depth")
	fs.Float64Var(&stroke.ZStep, "zstep", 1, "depth per pass")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *text == "" || *out == "" {
		return fmt.Errorf("onion: --wkt and --gcode are required")
	}

	r, err := wkt.Parse(*text)
	if err != nil {
		return err
	}
	var stop *region.Region
	if *stopText != "" {
		s, err := wkt.Parse(*stopText)
		if err != nil {
			return fmt.Errorf("onion: stop: %w", err)
		}
		stop = &s
	}
	m, err := stitch.ParseMode(*mode)
	if err != nil {
		return err
	}

	result, err := NewApp().Onion(r, *step, stop, m, stroke)
	if err != nil {
		return err
	}
	log.Printf("%d levels, %d paths", result.Levels, len(result.Paths))
	return os.WriteFile(*out, []byte(result.GCode), 0o644)
}

func writeFile(name string, fn func(io.Writer) error) error {
	f, err := os.Create(name)
	if err != nil {
		return err
	}
	if err := fn(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
