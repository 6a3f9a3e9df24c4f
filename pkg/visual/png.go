package visual

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"

	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"
)

// RasterizePNG renders an SVG document onto a white RGBA image. A
// non-positive width or height falls back to the document's view box.
// Elements the rasteriser does not support, such as text, are skipped.
func RasterizePNG(r io.Reader, width, height int) (*image.RGBA, error) {
	icon, err := oksvg.ReadIconStream(r, oksvg.IgnoreErrorMode)
	if err != nil {
		return nil, fmt.Errorf("visual: read svg: %w", err)
	}
	if width <= 0 || height <= 0 {
		width, height = int(icon.ViewBox.W), int(icon.ViewBox.H)
	}
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("visual: svg has no size")
	}
	icon.SetTarget(0, 0, float64(width), float64(height))

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(img, img.Bounds(), &image.Uniform{color.White}, image.Point{}, draw.Src)

	scanner := rasterx.NewScannerGV(width, height, img, img.Bounds())
	scanner.SetClip(img.Bounds())
	raster := rasterx.NewDasher(width, height, scanner)

	icon.Draw(raster, 1.0)
	return img, nil
}

// WritePNG encodes img as PNG.
func WritePNG(w io.Writer, img image.Image) error {
	if err := png.Encode(w, img); err != nil {
		return fmt.Errorf("visual: encode png: %w", err)
	}
	return nil
}
