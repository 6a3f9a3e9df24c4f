package visual

// DefaultColors is the palette used when none is given.
var DefaultColors = []string{
	"#4A90D9", "#E67E22", "#2ECC71", "#9B59B6",
	"#E74C3C", "#1ABC9C", "#F39C12", "#3498DB",
}

// Palette hands out colours in a fixed cycle. The zero value cycles
// DefaultColors.
type Palette struct {
	colors []string
	next   int
}

// NewPalette returns a palette over colors, or DefaultColors when none are
// given.
func NewPalette(colors ...string) *Palette {
	return &Palette{colors: colors}
}

// Next returns the next colour, wrapping around at the end.
func (p *Palette) Next() string {
	colors := p.colors
	if len(colors) == 0 {
		colors = DefaultColors
	}
	c := colors[p.next%len(colors)]
	p.next++
	return c
}

// Reset restarts the cycle.
func (p *Palette) Reset() {
	p.next = 0
}
