package raster

// Band is one channel of a raster held in memory, row-major. Index is the
// 1-based position in the source file, or 0 for derived bands.
type Band struct {
	Index  int
	Width  int
	Height int
	Data   []float64
}

func NewBand(index, width, height int) Band {
	return Band{
		Index:  index,
		Width:  width,
		Height: height,
		Data:   make([]float64, width*height),
	}
}

func (b Band) At(x, y int) float64 {
	return b.Data[y*b.Width+x]
}

func (b Band) SameShape(o Band) bool {
	return b.Width == o.Width && b.Height == o.Height && len(b.Data) == len(o.Data)
}

// Float32 casts the samples to float32. Non-finite values are preserved.
func (b Band) Float32() []float32 {
	out := make([]float32, len(b.Data))
	for i, v := range b.Data {
		out[i] = float32(v)
	}
	return out
}
