package device

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	kernelLaunches = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "nttgpu_kernel_launches_total",
		Help: "Number of kernel launches, by kernel name.",
	}, []string{"kernel"})

	kernelFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "nttgpu_kernel_failures_total",
		Help: "Number of kernel launches that failed, by kernel name.",
	}, []string{"kernel"})

	bytesInUse = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "nttgpu_device_bytes_in_use",
		Help: "Device memory currently allocated, by device.",
	}, []string{"device"})

	allocFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "nttgpu_device_alloc_failures_total",
		Help: "Number of rejected device allocations, by device.",
	}, []string{"device"})
)
