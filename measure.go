package qucom

import "strings"

// MeasureQubit samples qubit q, collapses the state onto the outcome and stores
// it in classical bit cbit.
func (c *Circuit) MeasureQubit(q, cbit int) *Circuit {
	return c.do(Gate{Kind: GateMeasure, Targets: []int{q}, Cbits: []int{cbit}})
}

// Measure samples every qubit i into classical bit i. When the classical register
// is narrower than the quantum one, only the first NClbits qubits are measured.
func (c *Circuit) Measure() *Circuit {
	qs := c.all()[:min(c.n, len(c.cbits))]
	return c.do(Gate{Kind: GateMeasure, Targets: qs, Cbits: qs})
}

// ResetQubit forces q to |0⟩: it is measured and flipped if it read 1.
// The classical register is left alone.
func (c *Circuit) ResetQubit(q int) *Circuit {
	return c.do(Gate{Kind: GateReset, Targets: []int{q}})
}

// ResetAllQubits forces every qubit to |0⟩.
func (c *Circuit) ResetAllQubits() *Circuit {
	return c.do(Gate{Kind: GateReset, Targets: c.all()})
}

// sample draws the outcome of qubit q and collapses the state onto it.
func (c *Circuit) sample(q int) int {
	p1 := c.state.prob1(q)
	outcome := 0
	if c.rng.Float64() < p1 {
		outcome = 1
	}
	p := 1 - p1
	if outcome == 1 {
		p = p1
	}
	c.state.collapse(q, outcome, p)
	return outcome
}

func (c *Circuit) measure(q, cbit int) {
	outcome := c.sample(q)
	c.cbits[cbit] = outcome
	c.logger.Debug("measure", "qubit", q, "cbit", cbit, "outcome", outcome)
}

func (c *Circuit) resetQubit(q int) {
	if c.sample(q) == 1 {
		c.state.apply(Gate{Kind: GateX}.matrix(), q, 0)
	}
}

// Execute returns the classical register as a string, c[0] first. If nothing has
// been measured yet, every qubit is measured first. Unset bits read as 0. Later
// calls return the same string until Reset.
func (c *Circuit) Execute() (string, error) {
	if c.err != nil {
		return "", c.err
	}
	if !c.executed {
		if c.Measure(); c.err != nil {
			return "", c.err
		}
	}
	return c.register(), nil
}

// Results returns the classical register without measuring anything.
func (c *Circuit) Results() (string, error) {
	if !c.executed {
		return "", &NotExecutedError{}
	}
	return c.register(), nil
}

func (c *Circuit) register() string {
	var sb strings.Builder
	sb.Grow(len(c.cbits))
	for _, b := range c.cbits {
		if b == 1 {
			sb.WriteByte('1')
		} else {
			sb.WriteByte('0')
		}
	}
	return sb.String()
}
