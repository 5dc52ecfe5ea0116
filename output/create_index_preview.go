package output

import (
	"fmt"
	"math"

	"github.com/fogleman/gg"

	"github.com/GeowazM/calcSpectralIndices/internal/raster"
)

// ramp runs from bare soil (low) through yellow to dense vegetation (high).
var ramp = [][3]float64{
	{0.55, 0.27, 0.07},
	{0.93, 0.85, 0.35},
	{0.40, 0.75, 0.25},
	{0.00, 0.40, 0.10},
}

// CreateIndexPreview renders an index band as a PNG quicklook. Values are
// clamped to [lo, hi]; non-finite pixels are transparent.
func CreateIndexPreview(b raster.Band, lo, hi float64, outputImagePath string) error {
	if b.Width == 0 || b.Height == 0 {
		return fmt.Errorf("preview: empty band")
	}
	if !(hi > lo) {
		return fmt.Errorf("preview: invalid range [%v, %v]", lo, hi)
	}

	dc := gg.NewContext(b.Width, b.Height)
	for y := 0; y < b.Height; y++ {
		for x := 0; x < b.Width; x++ {
			v := b.At(x, y)
			if math.IsNaN(v) || math.IsInf(v, 0) {
				dc.SetRGBA(0, 0, 0, 0)
			} else {
				r, g, bl := colorAt((v - lo) / (hi - lo))
				dc.SetRGB(r, g, bl)
			}
			dc.SetPixel(x, y)
		}
	}

	if err := dc.SavePNG(outputImagePath); err != nil {
		return fmt.Errorf("preview: save %s: %w", outputImagePath, err)
	}
	return nil
}

// colorAt interpolates the ramp at t in [0, 1].
func colorAt(t float64) (float64, float64, float64) {
	t = math.Max(0, math.Min(1, t))
	pos := t * float64(len(ramp)-1)
	i := int(pos)
	if i >= len(ramp)-1 {
		c := ramp[len(ramp)-1]
		return c[0], c[1], c[2]
	}
	f := pos - float64(i)
	a, b := ramp[i], ramp[i+1]
	return a[0] + (b[0]-a[0])*f, a[1] + (b[1]-a[1])*f, a[2] + (b[2]-a[2])*f
}
