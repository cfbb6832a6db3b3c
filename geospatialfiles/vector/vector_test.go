package vector

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/ctessum/geom"
	"github.com/stretchr/testify/require"
)

const wgs84 = `GEOGCS["WGS 84",DATUM["WGS_1984",SPHEROID["WGS 84",6378137,298.257223563]],PRIMEM["Greenwich",0],UNIT["degree",0.0174532925199433]]`

func TestPointsRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "outlets.shp")
	points := []geom.Point{{X: 3, Y: -9}, {X: 9, Y: -3}, {X: 15, Y: -9}}
	require.NoError(t, WritePoints(path, "", points))

	_, err := os.Stat(prjPath(path))
	require.True(t, os.IsNotExist(err))

	got, err := ReadPoints(path, wgs84)
	require.NoError(t, err)
	require.Equal(t, points, got)
}

func TestReadPointsReprojects(t *testing.T) {
	path := filepath.Join(t.TempDir(), "outlets.shp")
	points := []geom.Point{{X: -80.2, Y: 43.5}, {X: 2.35, Y: 48.85}}
	require.NoError(t, WritePoints(path, wgs84, points))

	got, err := ReadPoints(path, wgs84)
	require.NoError(t, err)
	require.Len(t, got, len(points))
	for i := range points {
		require.InDelta(t, points[i].X, got[i].X, 1e-9)
		require.InDelta(t, points[i].Y, got[i].Y, 1e-9)
	}
}

func TestReadPointsRejectsPolygons(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sheds.shp")
	require.NoError(t, WritePolygons(path, "", []Watershed{
		{ID: 1, Polygon: geom.Polygon{{{X: 0, Y: 0}, {X: 0, Y: 1}, {X: 1, Y: 1}, {X: 1, Y: 0}, {X: 0, Y: 0}}}},
	}))

	_, err := ReadPoints(path, "")
	require.Error(t, err)
	require.Equal(t, ErrTypeInvalidGeometry, errors.Type(err))
}

func TestReadPointsMissingFile(t *testing.T) {
	_, err := ReadPoints(filepath.Join(t.TempDir(), "missing.shp"), "")
	require.Error(t, err)
	require.Equal(t, ErrTypeFileRead, errors.Type(err))
}

func TestWritePolygons(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sheds.shp")
	features := []Watershed{
		{ID: 1, Polygon: geom.Polygon{{{X: 0, Y: 0}, {X: 0, Y: 2}, {X: 2, Y: 2}, {X: 2, Y: 0}, {X: 0, Y: 0}}}},
		{ID: 2, Polygon: geom.Polygon{{{X: 2, Y: 0}, {X: 2, Y: 2}, {X: 6, Y: 2}, {X: 6, Y: 0}, {X: 2, Y: 0}}}},
	}
	require.NoError(t, WritePolygons(path, wgs84, features))

	prj, err := os.ReadFile(prjPath(path))
	require.NoError(t, err)
	require.Equal(t, wgs84, string(prj))

	sheds, err := ReadWatersheds(path)
	require.NoError(t, err)

	var ids []int
	var areas []float64
	for _, w := range sheds {
		ids = append(ids, w.ID)
		areas = append(areas, shoelace(w.Polygon))
	}
	require.Equal(t, []int{1, 2}, ids)
	require.InDeltaSlice(t, []float64{4, 8}, areas, 1e-12)
}

func TestReadWatershedsRejectsPoints(t *testing.T) {
	path := filepath.Join(t.TempDir(), "outlets.shp")
	require.NoError(t, WritePoints(path, "", []geom.Point{{X: 1, Y: 1}}))

	_, err := ReadWatersheds(path)
	require.Error(t, err)
	require.Equal(t, ErrTypeFileRead, errors.Type(err))
}

func TestDeleteShapefile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "outlets.shp")
	require.NoError(t, WritePoints(path, wgs84, []geom.Point{{X: 1, Y: 1}}))

	require.NoError(t, DeleteShapefile(filepath.Join(dir, "outlets.dbf")))
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Empty(t, entries)

	require.NoError(t, DeleteShapefile(path))
}

func shoelace(p geom.Polygon) float64 {
	var a float64
	for _, ring := range p {
		for i := 0; i+1 < len(ring); i++ {
			a += ring[i].X*ring[i+1].Y - ring[i+1].X*ring[i].Y
		}
	}
	if a < 0 {
		a = -a
	}
	return a / 2
}

func TestTrimNumber(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"1 ", "1"},
		{"  42", "42"},
		{"7\x00\x00", "7"},
		{"-3 ", "-3"},
		{"", ""},
	}
	for _, test := range tests {
		require.Equal(t, test.want, trimNumber(test.in), "%q", test.in)
	}
}
