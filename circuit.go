package qucom

import (
	"fmt"
	"io"
	"slices"

	"github.com/charmbracelet/log"
)

// MaxQubits bounds the register size; the state vector holds 2^n amplitudes.
const MaxQubits = 30

const unset = -1

// Circuit owns an n-qubit state vector, a classical register and the ordered log
// of every operation applied to it. Gates act eagerly: each call mutates the state
// and appends to the log.
//
// Builder methods return the circuit so calls chain:
//
//	c.H(0).CX(0, 1).Measure()
//	if err := c.Err(); err != nil { ... }
//
// The first failing call is kept in Err and turns the rest of the chain into
// no-ops. A failing call never changes the state, the log or the register.
//
// A Circuit is not safe for concurrent use.
type Circuit struct {
	n        int
	state    *StateVector
	log      []Gate
	cbits    []int
	rng      *Source
	logger   *log.Logger
	executed bool
	err      error
	cond     *Condition // guard of the enclosing If block
}

// Option configures a new circuit.
type Option func(*options)

type options struct {
	src       *Source
	clbits    int
	maxQubits int
	logger    *log.Logger
}

// WithSeed makes measurement sampling reproducible.
func WithSeed(seed uint64) Option {
	return func(o *options) { o.src = NewSource(seed) }
}

// WithSource shares an existing random stream.
func WithSource(src *Source) Option {
	return func(o *options) { o.src = src }
}

// WithClassicalBits sets the classical register width. The default equals the
// qubit count.
func WithClassicalBits(m int) Option {
	return func(o *options) { o.clbits = m }
}

// WithMaxQubits lowers the register size New accepts below MaxQubits.
func WithMaxQubits(limit int) Option {
	return func(o *options) { o.maxQubits = limit }
}

// WithLogger routes debug output of the engine to l.
func WithLogger(l *log.Logger) Option {
	return func(o *options) { o.logger = l }
}

// New returns an n-qubit circuit in |0...0⟩.
func New(n int, opts ...Option) (*Circuit, error) {
	o := options{clbits: n, maxQubits: MaxQubits}
	for _, opt := range opts {
		opt(&o)
	}
	limit := min(max(o.maxQubits, 1), MaxQubits)
	if n < 1 || n > limit {
		return nil, &OutOfRangeError{What: "qubit count", Index: n, Limit: limit}
	}
	if o.clbits < 1 {
		return nil, &OutOfRangeError{What: "classical bit count", Index: o.clbits, Limit: 1}
	}
	if o.src == nil {
		o.src = NewEntropySource()
	}
	if o.logger == nil {
		o.logger = log.New(io.Discard)
	}
	c := &Circuit{
		n:      n,
		state:  NewStateVector(n),
		cbits:  make([]int, o.clbits),
		rng:    o.src,
		logger: o.logger,
	}
	c.clearRegister()
	return c, nil
}

func (c *Circuit) clearRegister() {
	for i := range c.cbits {
		c.cbits[i] = unset
	}
}

// Reset returns the circuit to |0...0⟩ and clears the log, the classical register,
// the executed flag and any sticky error. The qubit count is kept.
func (c *Circuit) Reset() {
	c.state.reset()
	c.log = nil
	c.clearRegister()
	c.executed = false
	c.err = nil
	c.cond = nil
}

// NQubits returns the register size.
func (c *Circuit) NQubits() int { return c.n }

// NClbits returns the classical register width.
func (c *Circuit) NClbits() int { return len(c.cbits) }

// IsExecuted reports whether anything has been measured since creation or Reset.
func (c *Circuit) IsExecuted() bool { return c.executed }

// Err returns the first error raised by a chained call.
func (c *Circuit) Err() error { return c.err }

// Log returns a copy of the recorded operations in program order.
func (c *Circuit) Log() []Gate {
	out := make([]Gate, len(c.log))
	for i, g := range c.log {
		out[i] = g.clone()
	}
	return out
}

// State returns a copy of the current state vector.
func (c *Circuit) State() *StateVector { return c.state.Clone() }

// Amplitudes returns a copy of the current amplitudes.
func (c *Circuit) Amplitudes() []Complex {
	return slices.Clone(c.state.Amplitudes)
}

// Probabilities returns the Born-rule distribution of the current state.
func (c *Circuit) Probabilities() map[string]float64 {
	return c.state.Probabilities()
}

// Apply validates g and applies it. MCX and MCZ expand into elementary gates and
// the expansion is what gets logged.
//
// A measurement or reset over several qubits is logged as one gate only in its
// whole-register form; any other list is logged one gate per qubit, matching what
// ToQASM can write. Inside an If block the block's condition guards g.
func (c *Circuit) Apply(g Gate) error {
	if c.cond != nil {
		if g.Cond != nil && *g.Cond != *c.cond {
			return errNestedCondition
		}
		g.Cond = c.cond
	}
	if err := c.validate(g); err != nil {
		return err
	}
	switch g.Kind {
	case GateMCX, GateMCZ:
		outer := c.cond
		c.cond = g.Cond
		if g.Kind == GateMCX {
			c.mcx(g.Controls, g.Targets[0], g.Ancillas)
		} else {
			c.mcz(g.Controls, g.Targets[0], g.Ancillas)
		}
		c.cond = outer
	case GateMeasure, GateReset:
		if len(g.Targets) > 1 && !c.registerWide(g) {
			for i := range g.Targets {
				c.exec(g.part(i))
			}
			return nil
		}
		c.exec(g)
	default:
		c.exec(g)
	}
	return nil
}

// do is the chaining wrapper around Apply.
func (c *Circuit) do(g Gate) *Circuit {
	if c.err != nil {
		return c
	}
	if err := c.Apply(g); err != nil {
		c.logger.Debug("gate rejected", "gate", g.Kind, "err", err)
		c.err = err
	}
	return c
}

// exec mutates the state for an already validated elementary gate and records it.
// A gate whose condition does not hold is recorded but has no effect.
func (c *Circuit) exec(g Gate) {
	if g.Cond == nil || c.holds(*g.Cond) {
		c.run(g)
	}
	c.log = append(c.log, g.clone())
}

func (c *Circuit) run(g Gate) {
	switch g.Kind {
	case GateCX, GateCZ, GateCCX:
		c.state.apply(g.matrix(), g.Targets[0], c.state.mask(g.Controls))
	case GateSwap:
		c.state.applySwap(g.Targets[0], g.Targets[1])
	case GateBarrier, GateDelay:
	case GateMeasure:
		for i, q := range g.Targets {
			c.measure(q, g.Cbits[i])
		}
		c.executed = true
	case GateReset:
		for _, q := range g.Targets {
			c.resetQubit(q)
		}
	default:
		c.state.apply(g.matrix(), g.Targets[0], 0)
	}
}

func (c *Circuit) emit(kind Kind, controls, targets []int, params ...float64) {
	c.exec(Gate{Kind: kind, Controls: controls, Targets: targets, Params: params, Cond: c.cond})
}

// registerWide reports whether a measurement or reset covers the register in its
// one-statement QASM form: measure q -> c or reset q.
func (c *Circuit) registerWide(g Gate) bool {
	if g.Kind == GateReset {
		return wholeRegister(g.Targets, c.n)
	}
	k := min(c.n, len(c.cbits))
	return wholeRegister(g.Targets, k) && wholeRegister(g.Cbits, k)
}

// part returns the single-qubit slice i of a measurement or reset.
func (g Gate) part(i int) Gate {
	p := Gate{Kind: g.Kind, Targets: []int{g.Targets[i]}, Cond: g.Cond}
	if g.Kind == GateMeasure {
		p.Cbits = []int{g.Cbits[i]}
	}
	return p
}

func (c *Circuit) validate(g Gate) error {
	if g.Kind < 0 || int(g.Kind) >= len(kindNames) {
		return fmt.Errorf("unknown gate kind %d", g.Kind)
	}
	if err := c.checkArity(g); err != nil {
		return err
	}
	if err := checkDelay(g); err != nil {
		return err
	}
	if g.Cond != nil {
		if err := c.checkCondition(g); err != nil {
			return err
		}
	}
	for _, q := range g.Qubits() {
		if q < 0 || q >= c.n {
			return &OutOfRangeError{What: "qubit", Index: q, Limit: c.n}
		}
	}
	for _, b := range g.Cbits {
		if b < 0 || b >= len(c.cbits) {
			return &OutOfRangeError{What: "classical bit", Index: b, Limit: len(c.cbits)}
		}
	}
	operands := make([]int, 0, len(g.Controls)+len(g.Targets))
	operands = append(append(operands, g.Controls...), g.Targets...)
	if q, dup := firstDuplicate(operands); dup {
		return &DuplicateOperandError{Gate: g.Kind.String(), Qubit: q}
	}
	if g.Kind.Composite() {
		return c.checkAncillas(g)
	}
	return nil
}

func (c *Circuit) checkArity(g Gate) error {
	wantControls, wantTargets := 0, 1
	switch g.Kind {
	case GateCX, GateCZ:
		wantControls = 1
	case GateCCX:
		wantControls = 2
	case GateSwap:
		wantTargets = 2
	case GateMCX, GateMCZ:
		if len(g.Controls) == 0 {
			return &InvalidDecompositionError{Reason: g.Kind.String() + " needs at least one control"}
		}
		wantControls = len(g.Controls)
	case GateBarrier, GateReset, GateMeasure:
		if len(g.Controls) > 0 || len(g.Targets) == 0 {
			return fmt.Errorf("%s takes one or more qubits and no controls", g.Kind)
		}
		if g.Kind == GateMeasure && len(g.Cbits) != len(g.Targets) {
			return fmt.Errorf("measure needs one classical bit per qubit, got %d for %d", len(g.Cbits), len(g.Targets))
		}
		return nil
	}
	if len(g.Controls) != wantControls || len(g.Targets) != wantTargets {
		return fmt.Errorf("%s takes %d control(s) and %d target(s), got %d and %d",
			g.Kind, wantControls, wantTargets, len(g.Controls), len(g.Targets))
	}
	if len(g.Params) != g.Kind.NumParams() {
		return fmt.Errorf("%s takes %d parameter(s), got %d", g.Kind, g.Kind.NumParams(), len(g.Params))
	}
	if len(g.Ancillas) > 0 && !g.Kind.Composite() {
		return fmt.Errorf("%s takes no ancillas", g.Kind)
	}
	return nil
}

func firstDuplicate(qs []int) (int, bool) {
	seen := make(map[int]struct{}, len(qs))
	for _, q := range qs {
		if _, ok := seen[q]; ok {
			return q, true
		}
		seen[q] = struct{}{}
	}
	return 0, false
}

func (c *Circuit) all() []int {
	qs := make([]int, c.n)
	for i := range qs {
		qs[i] = i
	}
	return qs
}

func (c *Circuit) single(kind Kind, q int, params ...float64) *Circuit {
	return c.do(Gate{Kind: kind, Targets: []int{q}, Params: params})
}

// X applies the Pauli X (NOT) gate to q.
func (c *Circuit) X(q int) *Circuit { return c.single(GateX, q) }

// Y applies the Pauli Y gate to q.
func (c *Circuit) Y(q int) *Circuit { return c.single(GateY, q) }

// Z applies the Pauli Z gate to q.
func (c *Circuit) Z(q int) *Circuit { return c.single(GateZ, q) }

// H applies the Hadamard gate to q.
func (c *Circuit) H(q int) *Circuit { return c.single(GateH, q) }

// S applies the phase gate diag(1, i) to q.
func (c *Circuit) S(q int) *Circuit { return c.single(GateS, q) }

// Sdg applies the inverse of S to q.
func (c *Circuit) Sdg(q int) *Circuit { return c.single(GateSdg, q) }

// T applies diag(1, e^{iπ/4}) to q.
func (c *Circuit) T(q int) *Circuit { return c.single(GateT, q) }

// Tdg applies the inverse of T to q.
func (c *Circuit) Tdg(q int) *Circuit { return c.single(GateTdg, q) }

func (c *Circuit) RX(q int, theta float64) *Circuit { return c.single(GateRX, q, theta) }
func (c *Circuit) RY(q int, theta float64) *Circuit { return c.single(GateRY, q, theta) }
func (c *Circuit) RZ(q int, theta float64) *Circuit { return c.single(GateRZ, q, theta) }

// Phase multiplies the |1⟩ component of q by e^{iλ}.
func (c *Circuit) Phase(q int, lambda float64) *Circuit { return c.single(GatePhase, q, lambda) }

// U applies the generic rotation U(θ, φ, λ).
func (c *Circuit) U(q int, theta, phi, lambda float64) *Circuit {
	return c.single(GateU, q, theta, phi, lambda)
}

// CX flips target when control is set.
func (c *Circuit) CX(control, target int) *Circuit {
	return c.do(Gate{Kind: GateCX, Controls: []int{control}, Targets: []int{target}})
}

// CZ negates the |11⟩ component of (control, target).
func (c *Circuit) CZ(control, target int) *Circuit {
	return c.do(Gate{Kind: GateCZ, Controls: []int{control}, Targets: []int{target}})
}

// Swap exchanges qubits a and b.
func (c *Circuit) Swap(a, b int) *Circuit {
	return c.do(Gate{Kind: GateSwap, Targets: []int{a, b}})
}

// HAll applies H to every qubit.
func (c *Circuit) HAll() *Circuit {
	for q := 0; q < c.n; q++ {
		c.H(q)
	}
	return c
}

// XAll applies X to every qubit.
func (c *Circuit) XAll() *Circuit {
	for q := 0; q < c.n; q++ {
		c.X(q)
	}
	return c
}

// Barrier records a barrier over qs, or over the whole register when qs is empty.
// It has no effect on the state.
func (c *Circuit) Barrier(qs ...int) *Circuit {
	if len(qs) == 0 {
		qs = c.all()
	}
	return c.do(Gate{Kind: GateBarrier, Targets: slices.Clone(qs)})
}
