package ntt

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	transformsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nttgpu_transforms_total",
			Help: "The total number of transforms executed",
		},
		[]string{"field", "direction", "order", "status"},
	)
	transformDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "nttgpu_transform_duration_seconds",
			Help:    "The duration of transforms in seconds, host call to download",
			Buckets: prometheus.ExponentialBuckets(1e-5, 4, 12),
		},
		[]string{"field", "direction"},
	)
)
