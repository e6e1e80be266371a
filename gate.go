package qucom

import (
	"math"
	"math/cmplx"
	"slices"
)

// Kind identifies a gate variant.
type Kind int

const (
	GateX Kind = iota
	GateY
	GateZ
	GateH
	GateS
	GateSdg
	GateT
	GateTdg
	GateRX
	GateRY
	GateRZ
	GatePhase
	GateU
	GateCX
	GateCZ
	GateSwap
	GateCCX
	GateMCX
	GateMCZ
	GateBarrier
	GateMeasure
	GateReset
	GateDelay
)

var kindNames = [...]string{
	GateX:       "x",
	GateY:       "y",
	GateZ:       "z",
	GateH:       "h",
	GateS:       "s",
	GateSdg:     "sdg",
	GateT:       "t",
	GateTdg:     "tdg",
	GateRX:      "rx",
	GateRY:      "ry",
	GateRZ:      "rz",
	GatePhase:   "p",
	GateU:       "u",
	GateCX:      "cx",
	GateCZ:      "cz",
	GateSwap:    "swap",
	GateCCX:     "ccx",
	GateMCX:     "mcx",
	GateMCZ:     "mcz",
	GateBarrier: "barrier",
	GateMeasure: "measure",
	GateReset:   "reset",
	GateDelay:   "delay",
}

// String returns the OPENQASM name of the gate.
func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return "unknown"
	}
	return kindNames[k]
}

// NumParams returns how many angles the gate takes.
func (k Kind) NumParams() int {
	switch k {
	case GateRX, GateRY, GateRZ, GatePhase, GateDelay:
		return 1
	case GateU:
		return 3
	}
	return 0
}

// Composite reports whether applying the gate expands into other gates.
func (k Kind) Composite() bool {
	return k == GateMCX || k == GateMCZ
}

// Condition guards a gate on the classical register. With Bit >= 0 only that
// classical bit is compared with Value. With Bit < 0 the whole register is read as
// an integer, c[0] least significant, as in the OPENQASM 2.0 form if(c==k).
// Bits that were never written read as 0.
type Condition struct {
	Bit   int
	Value int
}

// RegisterEquals returns the condition c == value.
func RegisterEquals(value int) Condition { return Condition{Bit: -1, Value: value} }

// BitEquals returns the condition c[bit] == value.
func BitEquals(bit, value int) Condition { return Condition{Bit: bit, Value: value} }

// Gate is one circuit operation. Operands are qubit indices held by value.
type Gate struct {
	Kind     Kind
	Controls []int
	Targets  []int
	Ancillas []int     // scratch qubits for MCX/MCZ
	Params   []float64 // angles in radians, or the duration of a delay
	Cbits    []int     // classical destinations of a measurement
	Unit     string    // time unit of a delay: dt, ns, us, ms or s
	Cond     *Condition
}

// Qubits returns every qubit the gate touches, controls first.
func (g Gate) Qubits() []int {
	qs := make([]int, 0, len(g.Controls)+len(g.Targets)+len(g.Ancillas))
	qs = append(qs, g.Controls...)
	qs = append(qs, g.Targets...)
	return append(qs, g.Ancillas...)
}

// Equal reports whether two gates have the same kind and operands. Angles match
// within 1e-9 so values printed in pi form compare equal after a round trip.
func (g Gate) Equal(o Gate) bool {
	if g.Kind != o.Kind ||
		!slices.Equal(g.Controls, o.Controls) ||
		!slices.Equal(g.Targets, o.Targets) ||
		!slices.Equal(g.Ancillas, o.Ancillas) ||
		!slices.Equal(g.Cbits, o.Cbits) ||
		g.Unit != o.Unit ||
		(g.Cond == nil) != (o.Cond == nil) ||
		(g.Cond != nil && *g.Cond != *o.Cond) ||
		len(g.Params) != len(o.Params) {
		return false
	}
	for i := range g.Params {
		if math.Abs(g.Params[i]-o.Params[i]) > 1e-9 {
			return false
		}
	}
	return true
}

func (g Gate) clone() Gate {
	g.Controls = slices.Clone(g.Controls)
	g.Targets = slices.Clone(g.Targets)
	g.Ancillas = slices.Clone(g.Ancillas)
	g.Params = slices.Clone(g.Params)
	g.Cbits = slices.Clone(g.Cbits)
	if g.Cond != nil {
		cond := *g.Cond
		g.Cond = &cond
	}
	return g
}

// matrix returns the single-qubit operator acting on the target. Controlled kinds
// return the operator applied when every control is set.
func (g Gate) matrix() Matrix2 {
	switch g.Kind {
	case GateX, GateCX, GateCCX:
		return Matrix2{{0, 1}, {1, 0}}
	case GateY:
		return Matrix2{{0, -1i}, {1i, 0}}
	case GateZ, GateCZ:
		return Matrix2{{1, 0}, {0, -1}}
	case GateH:
		h := complex(1/math.Sqrt2, 0)
		return Matrix2{{h, h}, {h, -h}}
	case GateS:
		return Matrix2{{1, 0}, {0, 1i}}
	case GateSdg:
		return Matrix2{{1, 0}, {0, -1i}}
	case GateT:
		return Matrix2{{1, 0}, {0, cmplx.Exp(complex(0, math.Pi/4))}}
	case GateTdg:
		return Matrix2{{1, 0}, {0, cmplx.Exp(complex(0, -math.Pi/4))}}
	case GateRX:
		c := complex(math.Cos(g.Params[0]/2), 0)
		js := complex(0, -math.Sin(g.Params[0]/2))
		return Matrix2{{c, js}, {js, c}}
	case GateRY:
		c := complex(math.Cos(g.Params[0]/2), 0)
		s := complex(math.Sin(g.Params[0]/2), 0)
		return Matrix2{{c, -s}, {s, c}}
	case GateRZ:
		phase := cmplx.Exp(complex(0, g.Params[0]/2))
		return Matrix2{{cmplx.Conj(phase), 0}, {0, phase}}
	case GatePhase:
		return Matrix2{{1, 0}, {0, cmplx.Exp(complex(0, g.Params[0]))}}
	case GateU:
		theta, phi, lambda := g.Params[0], g.Params[1], g.Params[2]
		c := complex(math.Cos(theta/2), 0)
		s := complex(math.Sin(theta/2), 0)
		return Matrix2{
			{c, -cmplx.Exp(complex(0, lambda)) * s},
			{cmplx.Exp(complex(0, phi)) * s, cmplx.Exp(complex(0, phi+lambda)) * c},
		}
	}
	return Matrix2{{1, 0}, {0, 1}}
}
