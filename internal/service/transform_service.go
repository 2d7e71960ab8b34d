// Package service exposes the transform engine to request-oriented callers
// such as the HTTP server: it validates requests, enforces size limits and
// maps engine errors to HTTP status codes.
package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/agbru/nttgpu/internal/device"
	"github.com/agbru/nttgpu/internal/digest"
	apperrors "github.com/agbru/nttgpu/internal/errors"
	"github.com/agbru/nttgpu/internal/field"
	"github.com/agbru/nttgpu/internal/ntt"
	"github.com/agbru/nttgpu/pkg/models"
)

var (
	// ErrMaxSizeExceeded is returned when a request exceeds the configured
	// maximum transform length.
	ErrMaxSizeExceeded = errors.New("maximum transform size exceeded")
)

// Service defines the interface for transform services.
type Service interface {
	// Transform runs one transform request and returns the transformed
	// vector.
	Transform(ctx context.Context, req models.TransformRequest) (models.TransformResponse, error)
	// Devices lists the available devices.
	Devices() models.DevicesResponse
}

// Engine is the part of *ntt.Engine the service needs.
type Engine interface {
	Field() *field.Field
	Devices() []device.Info
	Execute(ctx context.Context, req ntt.Request) error
}

// TransformService handles validation and execution of transform requests.
// Implements the Service interface.
type TransformService struct {
	engine     Engine
	maxLogSize int
}

// Ensure TransformService implements Service interface.
var _ Service = (*TransformService)(nil)

// NewTransformService creates a new TransformService.
//
// Parameters:
//   - engine: The transform engine.
//   - maxLogSize: The largest accepted log2 length (0 for the engine's limit).
func NewTransformService(engine Engine, maxLogSize int) *TransformService {
	return &TransformService{engine: engine, maxLogSize: maxLogSize}
}

// Transform validates req, runs the transform and fingerprints the output.
//
// Returns:
//   - models.TransformResponse: The response document. On error, Values and
//     Digest are empty and Error is set.
//   - error: ErrMaxSizeExceeded, a ValidationError, a context error or a
//     transform error from the engine.
func (s *TransformService) Transform(ctx context.Context, req models.TransformRequest) (models.TransformResponse, error) {
	f := s.engine.Field()
	resp := models.TransformResponse{Field: f.Name(), N: len(req.Values)}

	data, dir, order, err := s.validate(f, req)
	if err != nil {
		resp.Error = err.Error()
		return resp, err
	}

	start := time.Now()
	err = s.engine.Execute(ctx, ntt.Request{Device: req.Device, Direction: dir, Order: order, Data: data})
	resp.Duration = time.Since(start).String()
	if err != nil {
		resp.Error = err.Error()
		return resp, err
	}

	resp.Values = make([]uint64, len(data))
	for i, v := range data {
		resp.Values[i] = uint64(v)
	}
	resp.Digest = digest.Hex(data)
	return resp, nil
}

func (s *TransformService) validate(f *field.Field, req models.TransformRequest) ([]field.Element, ntt.Direction, ntt.OrderMode, error) {
	if s.maxLogSize > 0 && len(req.Values) > 1<<s.maxLogSize {
		return nil, 0, 0, fmt.Errorf("%w: %d values (limit 2^%d)", ErrMaxSizeExceeded, len(req.Values), s.maxLogSize)
	}
	dir, err := ntt.ParseDirection(req.Direction)
	if err != nil {
		return nil, 0, 0, err
	}
	order := ntt.NaturalNatural
	if req.Order != "" {
		if order, err = ntt.ParseOrderMode(req.Order); err != nil {
			return nil, 0, 0, err
		}
	}
	p := f.Modulus()
	data := make([]field.Element, len(req.Values))
	for i, v := range req.Values {
		if v >= p {
			return nil, 0, 0, apperrors.NewValidationError("values",
				fmt.Sprintf("values[%d] = %d is not reduced modulo %d", i, v, p), v)
		}
		data[i] = field.Element(v)
	}
	return data, dir, order, nil
}

// Devices lists the engine's devices.
func (s *TransformService) Devices() models.DevicesResponse {
	infos := s.engine.Devices()
	resp := models.DevicesResponse{
		Field:   s.engine.Field().Name(),
		Devices: make([]models.DeviceInfo, len(infos)),
	}
	for i, d := range infos {
		resp.Devices[i] = models.DeviceInfo{
			ID:          d.ID,
			Name:        d.Name,
			Vendor:      d.Vendor,
			Kind:        d.Kind,
			Workers:     d.Workers,
			MemoryBytes: d.MemoryBytes,
			Features:    d.Features,
		}
	}
	return resp
}

// StatusClientClosedRequest is reported when the client went away before the
// transform was dispatched (nginx convention; net/http has no constant).
const StatusClientClosedRequest = 499

// StatusCode maps a Transform error to an HTTP status code.
func StatusCode(err error) int {
	var validation apperrors.ValidationError
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrMaxSizeExceeded),
		errors.As(err, &validation),
		errors.Is(err, apperrors.ErrInvalidDomainSize),
		errors.Is(err, apperrors.ErrDeviceNotFound):
		return http.StatusBadRequest
	case errors.Is(err, apperrors.ErrAllocationFailure):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, context.Canceled):
		return StatusClientClosedRequest
	}
	return http.StatusInternalServerError
}
