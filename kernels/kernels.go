// Copyright 2017 the GoSpatial Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// licence that can be found in the LICENCE.txt file.

// Package kernels writes square raster kernels whose values depend only on
// the distance of a cell from the centre cell.
package kernels

import (
	"math"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/go-tooling/pkg/logs"
	"github.com/jblindsay/go-hydro/geospatialfiles/raster"
	"gonum.org/v1/gonum/floats"
)

// ErrTypeInvalidParameter is attached to errors caused by a kernel shape
// that cannot be built.
const ErrTypeInvalidParameter = "kernels_invalid_parameter"

// NoData is the nodata value of every kernel raster.
const NoData = -math.MaxFloat32

// WGS84 is the coordinate reference system stamped on kernel rasters.
const WGS84 = `GEOGCS["WGS 84",DATUM["WGS_1984",SPHEROID["WGS 84",6378137,298.257223563,AUTHORITY["EPSG","7030"]],AUTHORITY["EPSG","6326"]],PRIMEM["Greenwich",0,AUTHORITY["EPSG","8901"]],UNIT["degree",0.0174532925199433,AUTHORITY["EPSG","9122"]],AUTHORITY["EPSG","4326"]]`

// Dichotomous writes 1 for cells within maxDistance of the centre and 0
// elsewhere.
func Dichotomous(targetPath string, maxDistance float64) error {
	return create("dichotomous", targetPath, maxDistance, false, func(d float64) float64 {
		if d <= maxDistance {
			return 1
		}
		return 0
	})
}

// DensityDecay writes the Epanechnikov profile 0.75(1-(d/maxDistance)^2)
// inside maxDistance.
func DensityDecay(targetPath string, maxDistance float64) error {
	return create("density_decay", targetPath, maxDistance, false, func(d float64) float64 {
		if d > maxDistance {
			return 0
		}
		r := d / maxDistance
		return 0.75 * (1 - r*r)
	})
}

// ExponentialDecay writes exp(-d/maxDistance) inside maxDistance,
// normalised to sum to 1.
func ExponentialDecay(targetPath string, maxDistance float64) error {
	return create("exponential_decay", targetPath, maxDistance, true, func(d float64) float64 {
		if d > maxDistance {
			return 0
		}
		return math.Exp(-d / maxDistance)
	})
}

// LinearDecay writes (maxDistance-d)/maxDistance inside maxDistance,
// normalised to sum to 1.
func LinearDecay(targetPath string, maxDistance float64) error {
	return create("linear_decay", targetPath, maxDistance, true, func(d float64) float64 {
		if d > maxDistance {
			return 0
		}
		return (maxDistance - d) / maxDistance
	})
}

// GaussianDecay writes a gaussian of standard deviation sigma truncated at
// nStdDev deviations, normalised to sum to 1.
func GaussianDecay(targetPath string, sigma, nStdDev float64) error {
	if sigma <= 0 || nStdDev <= 0 {
		return errors.New("sigma and the number of deviations must be positive").
			WithType(ErrTypeInvalidParameter).
			WithTag("sigma", sigma).
			WithTag("n_std_dev", nStdDev)
	}
	maxDistance := sigma * nStdDev
	return create("gaussian_decay", targetPath, maxDistance, true, func(d float64) float64 {
		if d > maxDistance {
			return 0
		}
		return 1 / (2 * math.Pi * sigma * sigma) * math.Exp(-d*d/(2*sigma*sigma))
	})
}

// Size returns the number of rows and columns of a kernel reaching
// maxDistance cells from its centre.
func Size(maxDistance float64) int {
	return 2*int(math.Ceil(maxDistance)) + 1
}

func create(kind, targetPath string, maxDistance float64, normalize bool, fn func(d float64) float64) error {
	if !(maxDistance > 0) || math.IsInf(maxDistance, 0) {
		return errors.New("maximum distance must be positive").
			WithType(ErrTypeInvalidParameter).
			WithTag("kernel", kind).
			WithTag("max_distance", maxDistance)
	}

	radius := int(math.Ceil(maxDistance))
	size := Size(maxDistance)
	config := raster.NewDefaultRasterConfig()
	config.DataType = raster.DT_FLOAT32
	config.NoDataValue = NoData
	config.InitialValue = 0
	config.CoordinateRefSystemWKT = WGS84
	config.XYUnits = "degrees"

	k, err := raster.CreateNewRaster(targetPath, size, size, 0, -float64(size), float64(size), 0, config)
	if err != nil {
		return err
	}
	k.AddMetadataEntry("Created by " + kind + " kernel")

	var sum float64
	blocks := k.Blocks()
	for _, b := range blocks {
		data := make([]float64, b.Cells())
		i := 0
		for row := b.Row; row < b.Row+b.Rows; row++ {
			for col := b.Column; col < b.Column+b.Columns; col++ {
				data[i] = fn(math.Hypot(float64(row-radius), float64(col-radius)))
				i++
			}
		}
		sum += floats.Sum(data)
		if err = k.WriteBlock(b, data); err != nil {
			k.Close()
			return err
		}
	}

	if normalize && sum > 0 {
		for _, b := range blocks {
			data, err := k.ReadBlock(b)
			if err != nil {
				k.Close()
				return err
			}
			floats.Scale(1/sum, data)
			if err = k.WriteBlock(b, data); err != nil {
				k.Close()
				return err
			}
		}
	}
	if err = k.Close(); err != nil {
		return err
	}

	logs.WithTag("kernel", kind).
		WithTag("path", targetPath).
		WithTag("size", size).
		WithTag("sum", sum).
		Debug("kernel created")
	return nil
}
