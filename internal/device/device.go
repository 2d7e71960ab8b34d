// Package device defines the seam between the transform engine and the
// parallel hardware it runs on.
//
// A Backend enumerates devices and opens a Context per device. A Context
// owns device memory (Buffer) and an ordered launch queue: Launch returns
// immediately, kernels run one after another in submission order, and every
// work item of a launch finishes before the next launch starts. Upload,
// Download and Synchronize wait for the queue, so the host only observes
// memory after all preceding launches completed.
//
// The package ships a CPUBackend that executes kernels on a bounded pool of
// goroutines. Accelerator backends plug in through Register.
package device

import (
	"github.com/agbru/nttgpu/internal/field"
)

// Kernel is the body of a data-parallel launch. It processes the work items
// [lo, hi). Kernels must not touch memory owned by other items of the same
// launch.
type Kernel func(lo, hi int)

// Info describes a device.
type Info struct {
	// ID is the index passed to NewContext.
	ID int `json:"id"`
	// Name is a human-readable model name.
	Name string `json:"name"`
	// Vendor identifies the hardware vendor.
	Vendor string `json:"vendor"`
	// Kind is "cpu" for the goroutine backend.
	Kind string `json:"kind"`
	// Workers is the number of concurrent work-item groups.
	Workers int `json:"workers"`
	// MemoryBytes is the allocation limit (0 = unlimited).
	MemoryBytes int64 `json:"memory_bytes"`
	// Features lists instruction-set extensions relevant to field arithmetic.
	Features []string `json:"features,omitempty"`
}

// BackendInfo describes a backend implementation.
type BackendInfo struct {
	Name        string `json:"name"`
	Version     string `json:"version"`
	Description string `json:"description"`
}

// Backend is implemented by device backends.
type Backend interface {
	Info() BackendInfo
	Devices() []Info
	// NewContext opens a context on device id. It fails with
	// ErrDeviceNotFound when id is out of range.
	NewContext(id int) (Context, error)
}

// Context is a per-device execution context.
type Context interface {
	Device() Info
	// Alloc reserves a buffer of n elements. It fails with
	// ErrAllocationFailure when the device cannot hold it.
	Alloc(n int) (Buffer, error)
	// Launch enqueues kernel over items work items. The name labels
	// metrics and errors. A failure of a previous launch is reported here
	// and by Synchronize; later launches are dropped.
	Launch(name string, items int, kernel Kernel) error
	// Synchronize blocks until every enqueued launch has finished and
	// returns the first execution failure, if any.
	Synchronize() error
	Close() error
}

// Buffer is device-resident memory holding field elements.
type Buffer interface {
	Len() int
	// Upload copies src (exactly Len elements) from the host.
	Upload(src []field.Element) error
	// Download copies the buffer into dst (exactly Len elements) after all
	// enqueued launches finished successfully.
	Download(dst []field.Element) error
	// Data is the device view addressed by kernels.
	Data() []field.Element
	Close() error
}
