// Package ntt is the public entry point of the transform engine.
//
// ForwardTransform and InverseTransform transform a host vector in place on
// the selected device, using a process-wide engine over the field chosen at
// build time (Goldilocks by default, BabyBear with -tags bb31). Callers that
// need another field or backend build their own Engine with NewEngine.
//
//	data := []ntt.Element{1, 0, 0, 0}
//	if err := ntt.ForwardTransform(ntt.DefaultDevice, data, ntt.NaturalNatural); err != nil {
//	    return err
//	}
//	// data == [1 1 1 1]
package ntt

import (
	"context"
	"sync"

	apperrors "github.com/agbru/nttgpu/internal/errors"
	"github.com/agbru/nttgpu/internal/field"
	engine "github.com/agbru/nttgpu/internal/ntt"
)

// Element is a canonical field element.
type Element = field.Element

// Field describes a prime field.
type Field = field.Field

// OrderMode selects input and output index order.
type OrderMode = engine.OrderMode

// Engine executes transforms; see NewEngine.
type Engine = engine.Engine

// Option configures an Engine.
type Option = engine.Option

// Order modes.
const (
	NaturalNatural   = engine.NaturalNatural
	NaturalReversed  = engine.NaturalReversed
	ReversedNatural  = engine.ReversedNatural
	ReversedReversed = engine.ReversedReversed
)

// DefaultDevice is the device used when the caller has no preference.
const DefaultDevice = 0

// Error kinds, matched with errors.Is.
var (
	ErrInvalidDomainSize      = apperrors.ErrInvalidDomainSize
	ErrDeviceNotFound         = apperrors.ErrDeviceNotFound
	ErrAllocationFailure      = apperrors.ErrAllocationFailure
	ErrDeviceExecutionFailure = apperrors.ErrDeviceExecutionFailure
	ErrInversionOfZero        = apperrors.ErrInversionOfZero
)

// Engine options.
var (
	WithBackend      = engine.WithBackend
	WithTwiddleCache = engine.WithTwiddleCache
	WithLogger       = engine.WithLogger
	WithTileLog      = engine.WithTileLog
	WithMaxLogSize   = engine.WithMaxLogSize
)

// Goldilocks returns the field of order 2^64 - 2^32 + 1.
func Goldilocks() *Field { return field.Goldilocks() }

// BabyBear returns the field of order 15·2^27 + 1.
func BabyBear() *Field { return field.BabyBear() }

// DefaultField returns the field of the process-wide engine.
func DefaultField() *Field { return defaultField() }

// NewEngine creates an engine for f.
func NewEngine(f *Field, opts ...Option) *Engine { return engine.New(f, opts...) }

var (
	defaultOnce   sync.Once
	defaultEngine *Engine
)

// DefaultEngine returns the process-wide engine used by ForwardTransform
// and InverseTransform.
func DefaultEngine() *Engine {
	defaultOnce.Do(func() {
		defaultEngine = engine.New(defaultField())
	})
	return defaultEngine
}

// ForwardTransform replaces data with its forward transform.
// len(data) must be a power of two not exceeding the field's two-adicity.
// On error data is left unchanged.
func ForwardTransform(deviceID int, data []Element, order OrderMode) error {
	return DefaultEngine().Forward(context.Background(), deviceID, data, order)
}

// InverseTransform replaces data with its inverse transform, scaled by n⁻¹.
// On error data is left unchanged.
func InverseTransform(deviceID int, data []Element, order OrderMode) error {
	return DefaultEngine().Inverse(context.Background(), deviceID, data, order)
}
