// Copyright 2017 the GoSpatial Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// licence that can be found in the LICENCE.txt file.

package routing

import (
	"time"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	operationLabel = "operation"
	errTypeLabel   = "error_type"
)

var (
	cellsProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gohydro_cells_processed",
		Help: "The number of raster cells finalised by a routing operation.",
	}, []string{
		operationLabel,
	})

	operationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "gohydro_operation_duration",
		Help:    "The time taken by a routing operation, in seconds.",
		Buckets: prometheus.ExponentialBuckets(0.01, 4, 10),
	}, []string{
		operationLabel,
	})

	queueSpills = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gohydro_queue_spills",
		Help: "The number of queue runs or segments written to disk.",
	}, []string{
		operationLabel,
	})

	operationErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gohydro_operation_errors",
		Help: "The errors returned by routing operations.",
	}, []string{
		operationLabel,
		errTypeLabel,
	})
)

func instrumentOperation(operation string, start time.Time, cells, spills int, err error) {
	labels := prometheus.Labels{operationLabel: operation}
	operationDuration.With(labels).Observe(time.Since(start).Seconds())
	cellsProcessed.With(labels).Add(float64(cells))
	queueSpills.With(labels).Add(float64(spills))

	if err != nil {
		operationErrors.
			With(prometheus.Labels{
				operationLabel: operation,
				errTypeLabel:   errors.Type(err),
			}).
			Inc()
	}
}
