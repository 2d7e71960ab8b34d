package ntt

import (
	"fmt"
	"strings"

	apperrors "github.com/agbru/nttgpu/internal/errors"
	"github.com/agbru/nttgpu/internal/twiddle"
)

// OrderMode selects the index order of the input and output vectors.
// The first term is the input order, the second the output order.
type OrderMode uint8

const (
	// NaturalNatural takes natural input and returns natural output.
	NaturalNatural OrderMode = iota
	// NaturalReversed takes natural input and returns bit-reversed output.
	NaturalReversed
	// ReversedNatural takes bit-reversed input and returns natural output.
	ReversedNatural
	// ReversedReversed takes bit-reversed input and returns bit-reversed output.
	ReversedReversed
)

var orderNames = [...]string{"NN", "NR", "RN", "RR"}

// OrderModes lists every mode, in declaration order.
func OrderModes() []OrderMode {
	return []OrderMode{NaturalNatural, NaturalReversed, ReversedNatural, ReversedReversed}
}

func (o OrderMode) String() string {
	if int(o) < len(orderNames) {
		return orderNames[o]
	}
	return fmt.Sprintf("OrderMode(%d)", uint8(o))
}

// Valid reports whether o is one of the four modes.
func (o OrderMode) Valid() bool { return int(o) < len(orderNames) }

// Inverted returns the mode whose input order is o's output order and
// vice versa. A transform in mode o followed by the opposite direction in
// o.Inverted() restores the input.
func (o OrderMode) Inverted() OrderMode {
	switch o {
	case NaturalReversed:
		return ReversedNatural
	case ReversedNatural:
		return NaturalReversed
	}
	return o
}

// ParseOrderMode accepts "NN", "NR", "RN", "RR" in any case.
func ParseOrderMode(s string) (OrderMode, error) {
	u := strings.ToUpper(strings.TrimSpace(s))
	for i, name := range orderNames {
		if u == name {
			return OrderMode(i), nil
		}
	}
	return 0, apperrors.NewValidationError("order", fmt.Sprintf("unknown order mode %q (want NN, NR, RN or RR)", s), s)
}

// MarshalText implements encoding.TextMarshaler.
func (o OrderMode) MarshalText() ([]byte, error) {
	if !o.Valid() {
		return nil, fmt.Errorf("invalid order mode %d", uint8(o))
	}
	return []byte(o.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (o *OrderMode) UnmarshalText(text []byte) error {
	m, err := ParseOrderMode(string(text))
	if err != nil {
		return err
	}
	*o = m
	return nil
}

// Direction selects forward or inverse transforms.
type Direction = twiddle.Direction

const (
	Forward = twiddle.Forward
	Inverse = twiddle.Inverse
)

// ParseDirection accepts "forward"/"fwd" and "inverse"/"inv".
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "forward", "fwd", "":
		return Forward, nil
	case "inverse", "inv":
		return Inverse, nil
	}
	return 0, apperrors.NewValidationError("direction", fmt.Sprintf("unknown direction %q", s), s)
}

// network selects the butterfly formulation.
type network uint8

const (
	// ditNetwork consumes bit-reversed input and yields natural output.
	ditNetwork network = iota
	// difNetwork consumes natural input and yields bit-reversed output.
	difNetwork
)

// plan is the kernel sequence for one order mode.
type plan struct {
	permuteInput  bool
	network       network
	permuteOutput bool
}

// planFor maps an order mode to its kernel sequence. Each mode needs at
// most one permutation pass.
func planFor(o OrderMode) plan {
	switch o {
	case NaturalReversed:
		return plan{network: difNetwork}
	case ReversedNatural:
		return plan{network: ditNetwork}
	case ReversedReversed:
		return plan{network: ditNetwork, permuteOutput: true}
	default:
		return plan{permuteInput: true, network: ditNetwork}
	}
}
