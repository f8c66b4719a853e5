// Package raster extracts georeferencing metadata from GeoTIFF headers:
// pixel size, EPSG code and the affine pixel-to-model transform.
package raster

import (
	"errors"
	"fmt"
	"math"

	"github.com/google/tiff"
	_ "github.com/google/tiff/bigtiff" // registers the version 43 parser

	"github.com/robert-malhotra/fmi-stac-sync/pkg/stac"
)

// GeoTIFF tags.
const (
	tagModelPixelScale    uint16 = 33550
	tagModelTiepoint      uint16 = 33922
	tagModelTransform     uint16 = 34264
	tagGeoKeyDirectory    uint16 = 34735
	keyRasterType         uint16 = 1025
	keyGeographicType     uint16 = 2048
	keyProjectedCSType    uint16 = 3072
	rasterPixelIsPoint    uint16 = 2
	userDefinedGeoKeyCode uint16 = 32767
)

// ErrNotGeoreferenced is returned for TIFFs without a usable transform or
// EPSG code.
var ErrNotGeoreferenced = errors.New("raster is not georeferenced")

// Metadata is what an item needs from its raster.
type Metadata struct {
	// GSD is the pixel width in CRS units.
	GSD float64
	// CRS is the EPSG identifier, e.g. "EPSG:3067".
	CRS string
	// Transform holds the affine coefficients a..i, row-major.
	Transform [9]float64
}

// Apply writes gsd, proj:epsg and proj:transform onto the item.
func (m *Metadata) Apply(item *stac.Item) {
	item.SetField("gsd", m.GSD)
	item.SetField("proj:epsg", m.CRS)
	item.SetField("proj:transform", m.Transform[:])
}

// Read parses the first image file directory of a GeoTIFF.
func Read(r tiff.ReadAtReadSeeker) (*Metadata, error) {
	t, err := tiff.Parse(r, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("parse tiff: %w", err)
	}
	ifds := t.IFDs()
	if len(ifds) == 0 {
		return nil, fmt.Errorf("parse tiff: no image file directory")
	}
	ifd := ifds[0]

	keys, err := geoKeys(ifd)
	if err != nil {
		return nil, err
	}

	transform, err := affine(ifd)
	if err != nil {
		return nil, err
	}
	if keys[keyRasterType] == rasterPixelIsPoint {
		// shift from pixel centre to pixel corner
		transform[2] -= 0.5*transform[0] + 0.5*transform[1]
		transform[5] -= 0.5*transform[3] + 0.5*transform[4]
	}

	code := keys[keyProjectedCSType]
	if code == 0 || code == userDefinedGeoKeyCode {
		code = keys[keyGeographicType]
	}
	if code == 0 || code == userDefinedGeoKeyCode {
		return nil, fmt.Errorf("%w: no EPSG code in geokey directory", ErrNotGeoreferenced)
	}

	return &Metadata{
		GSD:       math.Hypot(transform[0], transform[3]),
		CRS:       fmt.Sprintf("EPSG:%d", code),
		Transform: transform,
	}, nil
}

// affine builds the a..i coefficients from ModelTransformation, or from
// ModelPixelScale plus the first ModelTiepoint.
func affine(ifd tiff.IFD) ([9]float64, error) {
	if ifd.HasField(tagModelTransform) {
		m, err := doubles(ifd, tagModelTransform, 16)
		if err != nil {
			return [9]float64{}, err
		}
		return [9]float64{m[0], m[1], m[3], m[4], m[5], m[7], 0, 0, 1}, nil
	}

	if !ifd.HasField(tagModelPixelScale) || !ifd.HasField(tagModelTiepoint) {
		return [9]float64{}, fmt.Errorf("%w: no model transform or tiepoint", ErrNotGeoreferenced)
	}
	scale, err := doubles(ifd, tagModelPixelScale, 3)
	if err != nil {
		return [9]float64{}, err
	}
	tie, err := doubles(ifd, tagModelTiepoint, 6)
	if err != nil {
		return [9]float64{}, err
	}
	i, j, x, y := tie[0], tie[1], tie[3], tie[4]
	sx, sy := scale[0], scale[1]
	return [9]float64{sx, 0, x - i*sx, 0, -sy, y + j*sy, 0, 0, 1}, nil
}

func geoKeys(ifd tiff.IFD) (map[uint16]uint16, error) {
	keys := make(map[uint16]uint16)
	if !ifd.HasField(tagGeoKeyDirectory) {
		return nil, fmt.Errorf("%w: no geokey directory", ErrNotGeoreferenced)
	}
	dir, err := shorts(ifd, tagGeoKeyDirectory, 4)
	if err != nil {
		return nil, err
	}
	n := int(dir[3])
	for k := 0; k < n && 4+4*k+3 < len(dir); k++ {
		e := dir[4+4*k : 8+4*k]
		// only keys stored inline in the directory are SHORT values
		if e[1] == 0 {
			keys[e[0]] = e[3]
		}
	}
	return keys, nil
}

func doubles(ifd tiff.IFD, tag uint16, min int) ([]float64, error) {
	v := ifd.GetField(tag).Value()
	data, order := v.Bytes(), v.Order()
	n := len(data) / 8
	if n < min {
		return nil, fmt.Errorf("tag %d: want at least %d doubles, got %d", tag, min, n)
	}
	out := make([]float64, n)
	for i := range out {
		out[i] = math.Float64frombits(order.Uint64(data[8*i:]))
	}
	return out, nil
}

func shorts(ifd tiff.IFD, tag uint16, min int) ([]uint16, error) {
	v := ifd.GetField(tag).Value()
	data, order := v.Bytes(), v.Order()
	n := len(data) / 2
	if n < min {
		return nil, fmt.Errorf("tag %d: want at least %d shorts, got %d", tag, min, n)
	}
	out := make([]uint16, n)
	for i := range out {
		out[i] = order.Uint16(data[2*i:])
	}
	return out, nil
}
