package qucom

import (
	"math"
	"strings"
)

// Iterations is the optional iteration count of GroverSearch.
type Iterations struct {
	n   int
	set bool
}

// DefaultIterations lets GroverSearch use OptimalIterations.
func DefaultIterations() Iterations { return Iterations{} }

// FixedIterations runs exactly k rounds of oracle and diffuser.
func FixedIterations(k int) Iterations { return Iterations{n: k, set: true} }

// Count returns the number of rounds for an n-qubit search.
func (it Iterations) Count(nQubits int) int {
	if it.set {
		return it.n
	}
	return OptimalIterations(nQubits)
}

// OptimalIterations is floor(π/4·sqrt(2^n)), at least 1.
func OptimalIterations(nQubits int) int {
	k := int(math.Floor(math.Pi / 4 * math.Sqrt(float64(uint64(1)<<nQubits))))
	return max(k, 1)
}

func (c *Circuit) fail(err error) *Circuit {
	if c.err == nil {
		c.err = err
	}
	return c
}

func (c *Circuit) checkTarget(target int) error {
	if target < 0 || target >= 1<<c.n {
		return &OutOfRangeError{What: "search target", Index: target, Limit: 1 << c.n}
	}
	return nil
}

// GroverOracle flips the phase of basis state target and nothing else.
func (c *Circuit) GroverOracle(target int) *Circuit {
	if c.err != nil {
		return c
	}
	if err := c.checkTarget(target); err != nil {
		return c.fail(err)
	}
	var zeros []int
	for q := 0; q < c.n; q++ {
		if target&c.state.bit(q) == 0 {
			zeros = append(zeros, q)
		}
	}
	for _, q := range zeros {
		c.X(q)
	}
	c.MCZ()
	for _, q := range zeros {
		c.X(q)
	}
	return c
}

// Diffuser reflects the state about the uniform superposition.
func (c *Circuit) Diffuser() *Circuit {
	return c.HAll().XAll().MCZ().XAll().HAll()
}

// GroverSearch prepares the uniform superposition and amplifies target.
func (c *Circuit) GroverSearch(target int, it Iterations) *Circuit {
	if c.err != nil {
		return c
	}
	if err := c.checkTarget(target); err != nil {
		return c.fail(err)
	}
	rounds := it.Count(c.n)
	if rounds < 0 {
		return c.fail(&OutOfRangeError{What: "iteration count", Index: rounds, Limit: math.MaxInt})
	}
	c.logger.Debug("grover search", "target", target, "rounds", rounds)
	c.HAll()
	for i := 0; i < rounds; i++ {
		c.GroverOracle(target).Diffuser()
	}
	return c
}

// The Deutsch-Jozsa helpers treat the last qubit as the ancilla and the others as
// the function inputs.

func (c *Circuit) checkDJ() error {
	if c.n < 2 {
		return &InvalidDecompositionError{Reason: "deutsch-jozsa needs at least one input and an ancilla"}
	}
	return nil
}

// DJOracle applies a constant function (X on the ancilla, f = 1) or a balanced
// one (CX from every input onto the ancilla).
func (c *Circuit) DJOracle(isConstant bool) *Circuit {
	if c.err != nil {
		return c
	}
	if err := c.checkDJ(); err != nil {
		return c.fail(err)
	}
	if isConstant {
		return c.X(c.n - 1)
	}
	return c.ParityOracle()
}

// ParityOracle XORs the parity of the inputs into the ancilla.
func (c *Circuit) ParityOracle() *Circuit {
	if c.err != nil {
		return c
	}
	if err := c.checkDJ(); err != nil {
		return c.fail(err)
	}
	anc := c.n - 1
	for q := 0; q < anc; q++ {
		c.CX(q, anc)
	}
	return c
}

// DeutschJozsa runs the algorithm around oracle and returns the measured inputs,
// input 0 first. All zeros means the oracle was constant. Input i is measured into
// classical bit i, so the register needs one bit per input; that is checked before
// any gate is applied.
func (c *Circuit) DeutschJozsa(oracle func(*Circuit)) (string, error) {
	if c.err != nil {
		return "", c.err
	}
	if err := c.checkDJ(); err != nil {
		return "", err
	}
	anc := c.n - 1
	if len(c.cbits) < anc {
		return "", &OutOfRangeError{What: "classical bit", Index: anc - 1, Limit: len(c.cbits)}
	}
	for q := 0; q < anc; q++ {
		c.H(q)
	}
	c.X(anc).H(anc)
	oracle(c)
	for q := 0; q < anc; q++ {
		c.H(q)
	}
	for q := 0; q < anc; q++ {
		c.MeasureQubit(q, q)
	}
	if c.err != nil {
		return "", c.err
	}
	var sb strings.Builder
	for q := 0; q < anc; q++ {
		sb.WriteByte('0' + byte(c.cbits[q]))
	}
	return sb.String(), nil
}
