// Package ntt implements the Number Theoretic Transform engine: it
// validates a request, resolves cached twiddle factors, and drives the
// permutation, butterfly and scaling kernels on a device.
//
// A transform call is synchronous. Inside the call every stage is one
// data-parallel launch; the device completes a launch before starting the
// next. Calls on different devices run concurrently, calls on the same
// device are serialized.
package ntt

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/agbru/nttgpu/internal/device"
	apperrors "github.com/agbru/nttgpu/internal/errors"
	"github.com/agbru/nttgpu/internal/field"
	"github.com/agbru/nttgpu/internal/logging"
	"github.com/agbru/nttgpu/internal/permute"
	"github.com/agbru/nttgpu/internal/twiddle"
)

// DefaultTileLog is the log2 of the tile fused in scratch memory.
// 2^10 elements (8KB) fit the L1 cache of current processors.
const DefaultTileLog = 10

// Request is one transform call. Data is transformed in place.
type Request struct {
	Device    int
	Direction Direction
	Order     OrderMode
	Data      []field.Element
}

// Engine executes transforms over one field on one backend.
// An Engine is safe for concurrent use.
type Engine struct {
	field   *field.Field
	backend device.Backend
	cache   *twiddle.Cache
	logger  logging.Logger

	tileLog    int
	maxLogSize int

	locks []sync.Mutex // one per device
}

// Option configures an Engine.
type Option func(*Engine)

// WithBackend selects the device backend (default device.Default()).
func WithBackend(b device.Backend) Option {
	return func(e *Engine) { e.backend = b }
}

// WithTwiddleCache selects the twiddle cache (default twiddle.Global()).
func WithTwiddleCache(c *twiddle.Cache) Option {
	return func(e *Engine) { e.cache = c }
}

// WithLogger sets the logger (default: discard).
func WithLogger(l logging.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithTileLog sets the log2 tile size for fused stages; 0 disables tiling.
func WithTileLog(tileLog int) Option {
	return func(e *Engine) { e.tileLog = max(tileLog, 0) }
}

// WithMaxLogSize caps the accepted log2 length below the field's
// two-adicity.
func WithMaxLogSize(maxLog int) Option {
	return func(e *Engine) { e.maxLogSize = maxLog }
}

// New creates an engine for f.
func New(f *field.Field, opts ...Option) *Engine {
	e := &Engine{
		field:      f,
		tileLog:    DefaultTileLog,
		maxLogSize: f.TwoAdicity(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.backend == nil {
		e.backend = device.Default()
	}
	if e.cache == nil {
		e.cache = twiddle.Global()
	}
	if e.logger == nil {
		e.logger = logging.NewNopLogger()
	}
	if e.maxLogSize <= 0 || e.maxLogSize > f.TwoAdicity() {
		e.maxLogSize = f.TwoAdicity()
	}
	e.locks = make([]sync.Mutex, len(e.backend.Devices()))
	return e
}

// Field returns the field the engine computes in.
func (e *Engine) Field() *field.Field { return e.field }

// Devices lists the devices of the backend.
func (e *Engine) Devices() []device.Info { return e.backend.Devices() }

// MaxLogSize returns the largest accepted log2 length.
func (e *Engine) MaxLogSize() int { return e.maxLogSize }

// TileLog returns the configured tile size.
func (e *Engine) TileLog() int { return e.tileLog }

// Forward computes the forward transform of data in place.
func (e *Engine) Forward(ctx context.Context, dev int, data []field.Element, order OrderMode) error {
	return e.Execute(ctx, Request{Device: dev, Direction: Forward, Order: order, Data: data})
}

// Inverse computes the inverse transform of data in place, including the
// n⁻¹ normalization.
func (e *Engine) Inverse(ctx context.Context, dev int, data []field.Element, order OrderMode) error {
	return e.Execute(ctx, Request{Device: dev, Direction: Inverse, Order: order, Data: data})
}

// Execute runs one transform.
//
// Validation (device, length, order) and twiddle resolution happen before
// any device work. req.Data is written only after the device reports
// success, so on error it holds the caller's input unchanged.
//
// Returns:
//   - error: nil, a context error when ctx is done before dispatch, a
//     ValidationError for an unknown order or direction or an element not
//     in [0, p), or a
//     *apperrors.TransformError matching ErrInvalidDomainSize,
//     ErrDeviceNotFound, ErrAllocationFailure or ErrDeviceExecutionFailure.
func (e *Engine) Execute(ctx context.Context, req Request) (err error) {
	tracer := otel.Tracer("ntt")
	ctx, span := tracer.Start(ctx, "Execute", trace.WithAttributes(
		attribute.String("ntt.field", e.field.Name()),
		attribute.Int("ntt.device", req.Device),
		attribute.Int("ntt.size", len(req.Data)),
		attribute.String("ntt.direction", req.Direction.String()),
		attribute.String("ntt.order", req.Order.String()),
	))
	defer span.End()

	start := time.Now()
	defer func() {
		duration := time.Since(start)
		status := "success"
		if err != nil {
			status = "error"
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			e.logger.Debug("transform failed",
				logging.Err(err),
				logging.Int("device", req.Device),
				logging.Int("n", len(req.Data)))
		} else {
			e.logger.Debug("transform completed",
				logging.String("field", e.field.Name()),
				logging.Int("device", req.Device),
				logging.Int("n", len(req.Data)),
				logging.String("direction", req.Direction.String()),
				logging.String("order", req.Order.String()),
				logging.Duration("duration", duration))
		}
		transformsTotal.WithLabelValues(e.field.Name(), req.Direction.String(), req.Order.String(), status).Inc()
		transformDuration.WithLabelValues(e.field.Name(), req.Direction.String()).Observe(duration.Seconds())
	}()

	if err := ctx.Err(); err != nil {
		return err
	}
	logN, table, err := e.prepare(req)
	if err != nil {
		return err
	}

	e.locks[req.Device].Lock()
	defer e.locks[req.Device].Unlock()

	return e.dispatch(req, logN, table)
}

// prepare validates req and resolves its twiddle table.
func (e *Engine) prepare(req Request) (int, *twiddle.Table, error) {
	if req.Device < 0 || req.Device >= len(e.locks) {
		return 0, nil, apperrors.NewTransformError("validate", apperrors.ErrDeviceNotFound, nil,
			"device %d (%d available)", req.Device, len(e.locks))
	}
	if !req.Order.Valid() {
		return 0, nil, apperrors.NewValidationError("order", "unknown order mode", uint8(req.Order))
	}
	if req.Direction != Forward && req.Direction != Inverse {
		return 0, nil, apperrors.NewValidationError("direction", "unknown direction", uint8(req.Direction))
	}
	logN, ok := permute.Log2(len(req.Data))
	if !ok {
		return 0, nil, apperrors.NewTransformError("validate", apperrors.ErrInvalidDomainSize, nil,
			"length %d is not a power of two", len(req.Data))
	}
	if logN > e.maxLogSize {
		return 0, nil, apperrors.NewTransformError("validate", apperrors.ErrInvalidDomainSize, nil,
			"length 2^%d exceeds the limit 2^%d for field %s", logN, e.maxLogSize, e.field.Name())
	}
	for i, v := range req.Data {
		if !e.field.IsValid(uint64(v)) {
			return 0, nil, apperrors.NewValidationError("values",
				fmt.Sprintf("element %d is not reduced modulo %d", i, e.field.Modulus()), uint64(v))
		}
	}
	table, err := e.cache.Get(e.field, logN, req.Direction)
	if err != nil {
		return 0, nil, err
	}
	return logN, table, nil
}

// dispatch runs the kernel sequence on the device. The caller holds the
// device lock.
func (e *Engine) dispatch(req Request, logN int, table *twiddle.Table) (err error) {
	n := len(req.Data)

	dctx, err := e.backend.NewContext(req.Device)
	if err != nil {
		return classify("context", apperrors.ErrDeviceNotFound, err)
	}
	defer func() {
		if cerr := dctx.Close(); cerr != nil && err == nil {
			err = classify("close", apperrors.ErrDeviceExecutionFailure, cerr)
		}
	}()

	buf, err := dctx.Alloc(n)
	if err != nil {
		return classify("alloc", apperrors.ErrAllocationFailure, err)
	}
	defer buf.Close()

	if err := buf.Upload(req.Data); err != nil {
		return classify("upload", apperrors.ErrDeviceExecutionFailure, err)
	}

	if logN > 0 {
		if err := e.enqueue(dctx, buf.Data(), logN, table, planFor(req.Order)); err != nil {
			return classify("launch", apperrors.ErrDeviceExecutionFailure, err)
		}
	}

	if err := dctx.Synchronize(); err != nil {
		return classify("synchronize", apperrors.ErrDeviceExecutionFailure, err)
	}
	if err := buf.Download(req.Data); err != nil {
		return classify("download", apperrors.ErrDeviceExecutionFailure, err)
	}
	return nil
}

// enqueue launches permutation, network and scaler kernels for one plan.
func (e *Engine) enqueue(dctx device.Context, a []field.Element, logN int, table *twiddle.Table, p plan) error {
	f := e.field
	n := len(a)
	tw := table.Powers
	tileLog := min(e.tileLog, logN)
	if tileLog == 1 {
		tileLog = 0 // a one-stage tile saves nothing over a plain stage
	}

	if p.permuteInput {
		if err := dctx.Launch("bitreverse", n, bitReverse(a, logN)); err != nil {
			return err
		}
	}

	switch p.network {
	case ditNetwork:
		if tileLog > 0 {
			if err := dctx.Launch("dit_tile", n>>uint(tileLog), tiledStages(f, ditNetwork, a, tw, logN, tileLog)); err != nil {
				return err
			}
		}
		for s := tileLog; s < logN; s++ {
			if err := dctx.Launch("dit_stage", n/2, ditStage(f, a, tw, logN, s)); err != nil {
				return err
			}
		}
	case difNetwork:
		for s := logN - 1; s >= tileLog; s-- {
			if err := dctx.Launch("dif_stage", n/2, difStage(f, a, tw, logN, s)); err != nil {
				return err
			}
		}
		if tileLog > 0 {
			if err := dctx.Launch("dif_tile", n>>uint(tileLog), tiledStages(f, difNetwork, a, tw, logN, tileLog)); err != nil {
				return err
			}
		}
	}

	if table.Direction == Inverse {
		if err := dctx.Launch("scale", n, scale(f, a, table.NInv)); err != nil {
			return err
		}
	}

	if p.permuteOutput {
		if err := dctx.Launch("bitreverse", n, bitReverse(a, logN)); err != nil {
			return err
		}
	}
	return nil
}

var transformKinds = []error{
	apperrors.ErrInvalidDomainSize,
	apperrors.ErrDeviceNotFound,
	apperrors.ErrAllocationFailure,
	apperrors.ErrDeviceExecutionFailure,
	apperrors.ErrInversionOfZero,
}

// classify returns err unchanged when a backend already tagged it with a
// transform kind, and wraps it as kind otherwise.
func classify(op string, kind, err error) error {
	for _, k := range transformKinds {
		if errors.Is(err, k) {
			return err
		}
	}
	return apperrors.NewTransformError(op, kind, err, "")
}
