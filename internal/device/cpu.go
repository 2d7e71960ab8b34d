package device

import (
	"runtime"
	"strconv"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	apperrors "github.com/agbru/nttgpu/internal/errors"
	"github.com/agbru/nttgpu/internal/field"
	"github.com/agbru/nttgpu/internal/parallel"
)

const elementBytes = 8

// CPUConfig configures the goroutine backend.
type CPUConfig struct {
	// DeviceCount is the number of virtual devices exposed (default 1).
	DeviceCount int
	// Workers bounds the goroutines running the items of one launch
	// (default GOMAXPROCS).
	Workers int
	// Grain is the number of work items handed to one goroutine
	// (default 2048).
	Grain int
	// MemoryBytes caps the memory allocated on each device (0 = unlimited).
	MemoryBytes int64
}

// DefaultCPUConfig returns the configuration used by Default.
func DefaultCPUConfig() CPUConfig {
	return CPUConfig{
		DeviceCount: 1,
		Workers:     runtime.GOMAXPROCS(0),
		Grain:       2048,
	}
}

// CPUBackend runs kernels on goroutines. Each virtual device has its own
// memory accounting; devices share the host processor.
type CPUBackend struct {
	cfg     CPUConfig
	devices []Info
	used    []atomic.Int64
}

// NewCPUBackend creates a backend; zero fields of cfg take their defaults.
func NewCPUBackend(cfg CPUConfig) *CPUBackend {
	def := DefaultCPUConfig()
	if cfg.DeviceCount <= 0 {
		cfg.DeviceCount = def.DeviceCount
	}
	if cfg.Workers <= 0 {
		cfg.Workers = def.Workers
	}
	if cfg.Grain <= 0 {
		cfg.Grain = def.Grain
	}

	h := detectHost()
	b := &CPUBackend{
		cfg:     cfg,
		devices: make([]Info, cfg.DeviceCount),
		used:    make([]atomic.Int64, cfg.DeviceCount),
	}
	for i := range b.devices {
		b.devices[i] = Info{
			ID:          i,
			Name:        h.name,
			Vendor:      h.vendor,
			Kind:        "cpu",
			Workers:     cfg.Workers,
			MemoryBytes: cfg.MemoryBytes,
			Features:    h.features,
		}
	}
	return b
}

// Config returns the effective configuration.
func (b *CPUBackend) Config() CPUConfig { return b.cfg }

func (b *CPUBackend) Info() BackendInfo {
	return BackendInfo{
		Name:        "cpu",
		Version:     runtime.Version(),
		Description: "goroutine backend executing kernels on the host processor",
	}
}

func (b *CPUBackend) Devices() []Info {
	out := make([]Info, len(b.devices))
	copy(out, b.devices)
	return out
}

func (b *CPUBackend) NewContext(id int) (Context, error) {
	if id < 0 || id >= len(b.devices) {
		return nil, apperrors.NewTransformError("context", apperrors.ErrDeviceNotFound, nil,
			"device %d (backend has %d)", id, len(b.devices))
	}
	return &cpuContext{backend: b, info: b.devices[id], label: strconv.Itoa(id)}, nil
}

// MemoryInUse returns the bytes currently allocated on device id.
func (b *CPUBackend) MemoryInUse(id int) int64 {
	if id < 0 || id >= len(b.used) {
		return 0
	}
	return b.used[id].Load()
}

// ─── Context ────────────────────────────────────────────────────────────────

type cpuContext struct {
	backend *CPUBackend
	info    Info
	label   string

	mu      sync.Mutex
	pending chan struct{} // closed when the last enqueued launch finished
	err     error         // first execution failure, sticky
	closed  bool
}

func (c *cpuContext) Device() Info { return c.info }

func (c *cpuContext) Alloc(n int) (Buffer, error) {
	if n <= 0 {
		return nil, apperrors.NewTransformError("alloc", apperrors.ErrAllocationFailure, nil, "invalid length %d", n)
	}
	c.mu.Lock()
	closed := c.closed
	c.mu.Unlock()
	if closed {
		return nil, apperrors.NewTransformError("alloc", apperrors.ErrAllocationFailure, nil, "context closed")
	}

	size := int64(n) * elementBytes
	used := &c.backend.used[c.info.ID]
	if limit := c.backend.cfg.MemoryBytes; limit > 0 {
		if after := used.Add(size); after > limit {
			used.Add(-size)
			allocFailures.WithLabelValues(c.label).Inc()
			return nil, apperrors.NewTransformError("alloc", apperrors.ErrAllocationFailure, nil,
				"device %d: %d bytes requested, %d of %d in use", c.info.ID, size, after-size, limit)
		}
	} else {
		used.Add(size)
	}
	bytesInUse.WithLabelValues(c.label).Add(float64(size))

	return &cpuBuffer{ctx: c, data: acquireElements(n)}, nil
}

func (c *cpuContext) Launch(name string, items int, kernel Kernel) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return apperrors.NewTransformError("launch", apperrors.ErrDeviceExecutionFailure, nil, "context closed")
	}
	if c.err != nil {
		err := c.err
		c.mu.Unlock()
		return err
	}
	prev := c.pending
	done := make(chan struct{})
	c.pending = done
	c.mu.Unlock()

	kernelLaunches.WithLabelValues(name).Inc()
	go func() {
		defer close(done)
		if prev != nil {
			<-prev
		}
		if c.failed() {
			return
		}
		if err := c.run(name, items, kernel); err != nil {
			kernelFailures.WithLabelValues(name).Inc()
			c.mu.Lock()
			if c.err == nil {
				c.err = err
			}
			c.mu.Unlock()
		}
	}()
	return nil
}

// run executes the work items of one launch, grain items per goroutine.
func (c *cpuContext) run(name string, items int, kernel Kernel) error {
	var ec parallel.ErrorCollector
	grain := c.backend.cfg.Grain

	if items <= grain {
		func() {
			defer ec.Recover()
			kernel(0, items)
		}()
	} else {
		var g errgroup.Group
		g.SetLimit(c.backend.cfg.Workers)
		for lo := 0; lo < items; lo += grain {
			lo, hi := lo, min(lo+grain, items)
			g.Go(func() error {
				defer ec.Recover()
				kernel(lo, hi)
				return nil
			})
		}
		_ = g.Wait()
	}

	if err := ec.Err(); err != nil {
		return apperrors.NewTransformError("launch", apperrors.ErrDeviceExecutionFailure, err,
			"kernel %s on device %d", name, c.info.ID)
	}
	return nil
}

func (c *cpuContext) failed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err != nil
}

func (c *cpuContext) Synchronize() error {
	c.mu.Lock()
	pending := c.pending
	c.mu.Unlock()
	if pending != nil {
		<-pending
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// Close waits for outstanding launches and invalidates the context.
func (c *cpuContext) Close() error {
	err := c.Synchronize()
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
	return err
}

// ─── Buffer ─────────────────────────────────────────────────────────────────

type cpuBuffer struct {
	ctx  *cpuContext
	data []field.Element
	once sync.Once
}

func (b *cpuBuffer) Len() int { return len(b.data) }

func (b *cpuBuffer) Data() []field.Element { return b.data }

func (b *cpuBuffer) Upload(src []field.Element) error {
	if b.data == nil {
		return apperrors.NewTransformError("upload", apperrors.ErrDeviceExecutionFailure, nil, "buffer closed")
	}
	if len(src) != len(b.data) {
		return apperrors.NewTransformError("upload", apperrors.ErrDeviceExecutionFailure, nil,
			"length %d, buffer holds %d", len(src), len(b.data))
	}
	if err := b.ctx.Synchronize(); err != nil {
		return err
	}
	copy(b.data, src)
	return nil
}

func (b *cpuBuffer) Download(dst []field.Element) error {
	if b.data == nil {
		return apperrors.NewTransformError("download", apperrors.ErrDeviceExecutionFailure, nil, "buffer closed")
	}
	if len(dst) != len(b.data) {
		return apperrors.NewTransformError("download", apperrors.ErrDeviceExecutionFailure, nil,
			"length %d, buffer holds %d", len(dst), len(b.data))
	}
	if err := b.ctx.Synchronize(); err != nil {
		return err
	}
	copy(dst, b.data)
	return nil
}

// Close returns the memory to the device. It waits for enqueued launches
// so that no kernel still addresses the buffer.
func (b *cpuBuffer) Close() error {
	b.once.Do(func() {
		_ = b.ctx.Synchronize()
		size := int64(len(b.data)) * elementBytes
		b.ctx.backend.used[b.ctx.info.ID].Add(-size)
		bytesInUse.WithLabelValues(b.ctx.label).Sub(float64(size))
		releaseElements(b.data)
		b.data = nil
	})
	return nil
}
