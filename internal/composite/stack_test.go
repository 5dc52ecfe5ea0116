package composite

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/GeowazM/calcSpectralIndices/internal/raster"
	"github.com/GeowazM/calcSpectralIndices/internal/raster/rastertest"
)

type recordingBackend struct {
	calls []string
	err   error
}

func (b *recordingBackend) BuildVRT(_ context.Context, vrtPath string, inputs []string) error {
	b.calls = append(b.calls, fmt.Sprintf("buildvrt %s %d", filepath.Base(vrtPath), len(inputs)))
	return b.err
}

func (b *recordingBackend) Translate(_ context.Context, vrtPath, outputPath string) error {
	b.calls = append(b.calls, "translate")
	return nil
}

type StackSuite struct {
	suite.Suite
	dir    string
	inputs []string
}

func TestStackSuite(t *testing.T) {
	suite.Run(t, new(StackSuite))
}

// SetupTest writes seven single-band files, as produced for a 4-band sensor:
// four original bands followed by three indices. Band i holds the value i
// in every pixel.
func (s *StackSuite) SetupTest() {
	s.dir = s.T().TempDir()
	names := []string{"b1_blue", "b2_green", "b3_red", "b4_nir1", "b5_ndvi", "b6_ndwi", "b7_builtup"}
	s.inputs = nil
	for i, name := range names {
		path := filepath.Join(s.dir, "img_"+name+".tif")
		rastertest.Write(s.T(), path, rastertest.Fixture{
			Width: 3, Height: 2,
			Bands: [][]float64{rastertest.Constant(6, float64(i+1))},
		})
		s.inputs = append(s.inputs, path)
	}
}

func (s *StackSuite) TestGodalBackendKeepsOrder() {
	out := filepath.Join(s.dir, "img_rst_stack.tif")
	vrt := filepath.Join(s.dir, "img_vrt_stack.tif")

	// Swap first and last so band order cannot follow file names.
	ordered := append([]string(nil), s.inputs...)
	ordered[0], ordered[6] = ordered[6], ordered[0]

	err := New(GodalBackend{}).Stack(context.Background(), ordered, out, WithVRTPath(vrt))
	s.Require().NoError(err)
	s.FileExists(vrt)

	r, err := raster.Open(out)
	s.Require().NoError(err)
	defer r.Close()
	s.Equal(7, r.Profile().BandCount)

	for i, path := range ordered {
		want, _, err := raster.OpenBand(path, 1)
		s.Require().NoError(err)
		got, err := r.ReadBand(i + 1)
		s.Require().NoError(err)
		s.Equal(want.Data, got.Data, "band %d", i+1)
	}

	first, err := raster.ReadProfile(s.inputs[0])
	s.Require().NoError(err)
	s.NoError(first.SameGrid(r.Profile()))
}

func (s *StackSuite) TestDefaultVRTPath() {
	backend := &recordingBackend{}
	out := filepath.Join(s.dir, "stack.tif")
	err := New(backend).Stack(context.Background(), s.inputs, out)
	// The recording backend writes nothing, so reading the result fails.
	s.ErrorIs(err, ErrComposition)
	s.Equal([]string{"buildvrt stack.vrt 7", "translate"}, backend.calls)
}

func (s *StackSuite) TestBackendFailure() {
	backend := &recordingBackend{err: errors.New("exit status 1")}
	err := New(backend).Stack(context.Background(), s.inputs, filepath.Join(s.dir, "out.tif"))
	s.ErrorIs(err, ErrComposition)
	s.ErrorContains(err, "exit status 1")
	s.Len(backend.calls, 1)
}

func (s *StackSuite) TestMissingInput() {
	backend := &recordingBackend{}
	inputs := append([]string{}, s.inputs...)
	inputs[3] = filepath.Join(s.dir, "gone.tif")

	err := New(backend).Stack(context.Background(), inputs, filepath.Join(s.dir, "out.tif"))
	s.ErrorIs(err, ErrComposition)
	s.ErrorIs(err, raster.ErrNotFound)
	s.Empty(backend.calls)
}

func (s *StackSuite) TestGridMismatch() {
	odd := filepath.Join(s.dir, "odd.tif")
	rastertest.Write(s.T(), odd, rastertest.Fixture{
		Width: 3, Height: 2,
		Bands:        [][]float64{rastertest.Constant(6, 9)},
		GeoTransform: [6]float64{0, 1, 0, 0, 0, -1},
	})
	backend := &recordingBackend{}
	err := New(backend).Stack(context.Background(), append(s.inputs, odd), filepath.Join(s.dir, "out.tif"))
	s.ErrorIs(err, ErrComposition)
	s.ErrorIs(err, raster.ErrGridMismatch)
	s.Empty(backend.calls)
}

func (s *StackSuite) TestMultiBandInputRejected() {
	multi := filepath.Join(s.dir, "multi.tif")
	rastertest.Write(s.T(), multi, rastertest.Fixture{
		Width: 3, Height: 2,
		Bands: [][]float64{rastertest.Constant(6, 1), rastertest.Constant(6, 2)},
	})
	err := New(&recordingBackend{}).Stack(context.Background(), []string{multi}, filepath.Join(s.dir, "out.tif"))
	s.ErrorIs(err, ErrComposition)
	s.ErrorContains(err, "has 2 bands")
}

func (s *StackSuite) TestEmptyInput() {
	err := New(nil).Stack(context.Background(), nil, filepath.Join(s.dir, "out.tif"))
	s.ErrorIs(err, ErrComposition)
}

func TestExecBackendFailureStatus(t *testing.T) {
	if _, err := exec.LookPath("false"); err != nil {
		t.Skip("false(1) not available")
	}
	b := ExecBackend{BuildVRTCommand: "false", TranslateCommand: "false"}
	require.Error(t, b.BuildVRT(context.Background(), "x.vrt", []string{"a.tif"}))
	require.Error(t, b.Translate(context.Background(), "x.vrt", "x.tif"))
}

func TestExecBackendStack(t *testing.T) {
	for _, tool := range []string{"gdalbuildvrt", "gdal_translate"} {
		if _, err := exec.LookPath(tool); err != nil {
			t.Skipf("%s not on PATH", tool)
		}
	}
	dir := t.TempDir()
	var inputs []string
	for i := 1; i <= 3; i++ {
		path := filepath.Join(dir, fmt.Sprintf("b%d.tif", i))
		rastertest.Write(t, path, rastertest.Fixture{Width: 2, Height: 2, Bands: [][]float64{rastertest.Constant(4, float64(i))}})
		inputs = append(inputs, path)
	}
	out := filepath.Join(dir, "stack.tif")
	require.NoError(t, New(ExecBackend{}).Stack(context.Background(), inputs, out))

	r, err := raster.Open(out)
	require.NoError(t, err)
	defer r.Close()
	require.Equal(t, 3, r.Profile().BandCount)
	b3, err := r.ReadBand(3)
	require.NoError(t, err)
	assert.Equal(t, rastertest.Constant(4, 3), b3.Data)
}

func TestNewBackend(t *testing.T) {
	b, err := NewBackend("")
	require.NoError(t, err)
	assert.IsType(t, GodalBackend{}, b)

	b, err = NewBackend("EXEC")
	require.NoError(t, err)
	assert.IsType(t, ExecBackend{}, b)

	_, err = NewBackend("rasterio")
	require.Error(t, err)
}

func TestCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := GodalBackend{}.BuildVRT(ctx, filepath.Join(os.TempDir(), "never.vrt"), []string{"a.tif"})
	require.ErrorIs(t, err, context.Canceled)
}
