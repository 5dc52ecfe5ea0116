package output

import (
	"encoding/json"
	"fmt"
	"math"
	"os"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/planar"

	"github.com/GeowazM/calcSpectralIndices/internal/raster"
)

// Footprint returns the raster extent as a polygon feature in the raster's own
// coordinate system. The ring is counter-clockwise.
func Footprint(p raster.Profile) *geojson.Feature {
	c := p.Corners()
	ring := orb.Ring{
		{c[0][0], c[0][1]},
		{c[3][0], c[3][1]},
		{c[2][0], c[2][1]},
		{c[1][0], c[1][1]},
		{c[0][0], c[0][1]},
	}
	if ring.Orientation() == orb.CW {
		ring.Reverse()
	}
	poly := orb.Polygon{ring}

	f := geojson.NewFeature(poly)
	f.Properties["width"] = p.Width
	f.Properties["height"] = p.Height
	f.Properties["pixel_size_x"] = p.GeoTransform[1]
	f.Properties["pixel_size_y"] = math.Abs(p.GeoTransform[5])
	f.Properties["area"] = math.Abs(planar.Area(poly))
	return f
}

// CreateFootprintGeoJSON writes the footprint of p as a one-feature collection.
// props are merged into the feature properties.
func CreateFootprintGeoJSON(p raster.Profile, props map[string]interface{}, outputPath string) error {
	if !p.HasGeoTransform {
		return fmt.Errorf("footprint: raster has no geotransform")
	}
	f := Footprint(p)
	for k, v := range props {
		f.Properties[k] = v
	}
	fc := geojson.NewFeatureCollection()
	fc.Append(f)

	data, err := json.MarshalIndent(fc, "", "  ")
	if err != nil {
		return fmt.Errorf("footprint: encode: %w", err)
	}
	if err := os.WriteFile(outputPath, data, 0o644); err != nil {
		return fmt.Errorf("footprint: write %s: %w", outputPath, err)
	}
	return nil
}
