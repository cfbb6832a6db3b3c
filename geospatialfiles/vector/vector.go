// Copyright 2017 the GoSpatial Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// licence that can be found in the LICENCE.txt file.

// Package vector reads point features from and writes polygon features to
// ESRI shapefiles.
package vector

import (
	"os"
	"strconv"
	"strings"
	"unicode"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/ctessum/geom"
	"github.com/ctessum/geom/encoding/shp"
	"github.com/ctessum/geom/proj"
)

// Error types attached to the errors returned by this package.
const (
	ErrTypeFileRead        = "vector_file_read"
	ErrTypeFileWrite       = "vector_file_write"
	ErrTypeInvalidGeometry = "vector_invalid_geometry"
	ErrTypeProjection      = "vector_projection"
)

var sidecars = []string{".shp", ".shx", ".dbf", ".prj"}

func basePath(path string) string {
	for _, ext := range sidecars {
		if strings.EqualFold(path[max(0, len(path)-len(ext)):], ext) {
			return path[:len(path)-len(ext)]
		}
	}
	return path
}

func prjPath(path string) string {
	return basePath(path) + ".prj"
}

// ReadPoints returns the points of the shapefile at path in file order.
// Multipoint features contribute each of their points. When targetWKT is
// set and the shapefile carries a .prj, the points are reprojected to it.
func ReadPoints(path, targetWKT string) ([]geom.Point, error) {
	dec, err := shp.NewDecoder(path)
	if err != nil {
		return nil, errors.New("opening shapefile failed").
			WithType(ErrTypeFileRead).
			WithTag("path", path).
			Wrap(err)
	}
	defer dec.Close()

	var trans proj.Transformer
	if _, statErr := os.Stat(prjPath(path)); statErr == nil && targetWKT != "" {
		if trans, err = transformer(dec, targetWKT); err != nil {
			return nil, errors.New("reprojecting points failed").
				WithType(ErrTypeProjection).
				WithTag("path", path).
				Wrap(err)
		}
	}

	var points []geom.Point
	for row := 0; ; row++ {
		g, _, more := dec.DecodeRowFields()
		if !more {
			break
		}
		if trans != nil {
			if g, err = g.Transform(trans); err != nil {
				return nil, errors.New("reprojecting point failed").
					WithType(ErrTypeProjection).
					WithTag("path", path).
					WithTag("row", row).
					Wrap(err)
			}
		}
		switch p := g.(type) {
		case geom.Point:
			points = append(points, p)
		case *geom.Point:
			points = append(points, *p)
		case geom.MultiPoint:
			points = append(points, p...)
		default:
			return nil, errors.Newf("feature is a %T, not a point", g).
				WithType(ErrTypeInvalidGeometry).
				WithTag("path", path).
				WithTag("row", row)
		}
	}
	if err = dec.Error(); err != nil {
		return nil, errors.New("decoding shapefile failed").
			WithType(ErrTypeFileRead).
			WithTag("path", path).
			Wrap(err)
	}
	return points, nil
}

func transformer(dec *shp.Decoder, targetWKT string) (proj.Transformer, error) {
	src, err := dec.SR()
	if err != nil {
		return nil, err
	}
	dst, err := proj.Parse(targetWKT)
	if err != nil {
		return nil, err
	}
	return src.NewTransform(dst)
}

// Watershed is one delineated catchment.
type Watershed struct {
	geom.Polygon
	ID int `shp:"ws_id"`
}

// WritePolygons writes features to the shapefile at path, replacing any
// existing one, and stores wkt in its .prj sidecar when wkt is set.
func WritePolygons(path, wkt string, features []Watershed) error {
	if err := DeleteShapefile(path); err != nil {
		return err
	}
	enc, err := shp.NewEncoder(path, Watershed{})
	if err != nil {
		return errors.New("creating shapefile failed").
			WithType(ErrTypeFileWrite).
			WithTag("path", path).
			Wrap(err)
	}
	for _, f := range features {
		if err = enc.Encode(f); err != nil {
			enc.Close()
			return errors.New("encoding polygon failed").
				WithType(ErrTypeFileWrite).
				WithTag("path", path).
				WithTag("ws_id", f.ID).
				Wrap(err)
		}
	}
	enc.Close()
	return writeProjection(path, wkt)
}

// ReadWatersheds returns the polygons of a shapefile written by
// WritePolygons in file order.
func ReadWatersheds(path string) ([]Watershed, error) {
	dec, err := shp.NewDecoder(path)
	if err != nil {
		return nil, errors.New("opening shapefile failed").
			WithType(ErrTypeFileRead).
			WithTag("path", path).
			Wrap(err)
	}
	defer dec.Close()

	var sheds []Watershed
	for row := 0; ; row++ {
		g, fields, more := dec.DecodeRowFields("ws_id")
		if !more || dec.Error() != nil {
			break
		}
		id, err := strconv.Atoi(trimNumber(fields["ws_id"]))
		if err != nil {
			return nil, errors.New("parsing ws_id failed").
				WithType(ErrTypeFileRead).
				WithTag("path", path).
				WithTag("row", row).
				WithTag("ws_id", fields["ws_id"]).
				Wrap(err)
		}
		var poly geom.Polygon
		switch p := g.(type) {
		case geom.Polygon:
			poly = p
		case *geom.Polygon:
			poly = *p
		default:
			return nil, errors.Newf("feature is a %T, not a polygon", g).
				WithType(ErrTypeInvalidGeometry).
				WithTag("path", path).
				WithTag("row", row)
		}
		sheds = append(sheds, Watershed{Polygon: poly, ID: id})
	}
	if err = dec.Error(); err != nil {
		return nil, errors.New("decoding shapefile failed").
			WithType(ErrTypeFileRead).
			WithTag("path", path).
			Wrap(err)
	}
	return sheds, nil
}

// trimNumber strips the padding dbf numeric fields carry up to their width.
func trimNumber(s string) string {
	return strings.TrimFunc(s, func(r rune) bool {
		return !unicode.IsDigit(r) && r != '-'
	})
}

func writeProjection(path, wkt string) error {
	if wkt == "" {
		return nil
	}
	if err := os.WriteFile(prjPath(path), []byte(wkt), 0644); err != nil {
		return errors.New("writing projection file failed").
			WithType(ErrTypeFileWrite).
			WithTag("path", prjPath(path)).
			Wrap(err)
	}
	return nil
}

// outflowPoint is the record layout of point shapefiles written here.
type outflowPoint struct {
	geom.Point
	ID int `shp:"id"`
}

// WritePoints writes points to the shapefile at path with their 1-based
// position as id.
func WritePoints(path, wkt string, points []geom.Point) error {
	if err := DeleteShapefile(path); err != nil {
		return err
	}
	enc, err := shp.NewEncoder(path, outflowPoint{})
	if err != nil {
		return errors.New("creating shapefile failed").
			WithType(ErrTypeFileWrite).
			WithTag("path", path).
			Wrap(err)
	}
	for i, p := range points {
		if err = enc.Encode(outflowPoint{Point: p, ID: i + 1}); err != nil {
			enc.Close()
			return errors.New("encoding point failed").
				WithType(ErrTypeFileWrite).
				WithTag("path", path).
				WithTag("id", i+1).
				Wrap(err)
		}
	}
	enc.Close()
	return writeProjection(path, wkt)
}

// DeleteShapefile removes the shapefile at path with all of its sidecars.
func DeleteShapefile(path string) error {
	base := basePath(path)
	for _, ext := range sidecars {
		if err := os.Remove(base + ext); err != nil && !os.IsNotExist(err) {
			return errors.New("deleting shapefile failed").
				WithType(ErrTypeFileWrite).
				WithTag("path", base+ext).
				Wrap(err)
		}
	}
	return nil
}
