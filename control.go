package qucom

import (
	"errors"
	"fmt"
	"math"
	"slices"
)

var (
	errNestedCondition = errors.New("conditional blocks cannot be nested")
	errConditionWrite  = errors.New("a conditional block may not measure into its own condition")
	errGuardedBarrier  = errors.New("barrier cannot be conditional")
)

// delayUnits are the time units a delay accepts.
var delayUnits = []string{"dt", "ns", "us", "ms", "s"}

func checkDelay(g Gate) error {
	if g.Kind != GateDelay {
		if g.Unit != "" {
			return fmt.Errorf("%s takes no time unit", g.Kind)
		}
		return nil
	}
	if !slices.Contains(delayUnits, g.Unit) {
		return fmt.Errorf("%w: unknown time unit %q", errDelay, g.Unit)
	}
	if d := g.Params[0]; d < 0 || math.IsNaN(d) || math.IsInf(d, 0) {
		return fmt.Errorf("%w: invalid duration %v", errDelay, d)
	}
	return nil
}

func (c *Circuit) checkCondition(g Gate) error {
	if g.Kind == GateBarrier {
		return errGuardedBarrier
	}
	cond := *g.Cond
	if c.cond != nil && g.Kind == GateMeasure && (cond.Bit < 0 || slices.Contains(g.Cbits, cond.Bit)) {
		return errConditionWrite
	}
	return c.checkCond(cond)
}

func (c *Circuit) checkCond(cond Condition) error {
	nc := len(c.cbits)
	if cond.Bit >= nc {
		return &OutOfRangeError{What: "classical bit", Index: cond.Bit, Limit: nc}
	}
	limit := 2
	if cond.Bit < 0 {
		limit = 1 << min(nc, 62)
	}
	if cond.Value < 0 || cond.Value >= limit {
		return &OutOfRangeError{What: "condition value", Index: cond.Value, Limit: limit}
	}
	return nil
}

// holds evaluates cond against the classical register.
func (c *Circuit) holds(cond Condition) bool {
	if cond.Bit >= 0 {
		return max(c.cbits[cond.Bit], 0) == cond.Value
	}
	return c.registerValue() == cond.Value
}

// registerValue reads the classical register as an integer, c[0] least significant.
func (c *Circuit) registerValue() int {
	v := 0
	for i, b := range c.cbits[:min(len(c.cbits), 62)] {
		if b == 1 {
			v |= 1 << i
		}
	}
	return v
}

// If applies the gates of body guarded by cond: each one is logged, but only acts
// when cond holds at the time it runs. The log keeps the guard, so ToQASM writes
// if(...) statements and a replay decides again from its own measurements.
//
// Blocks cannot be nested and may not measure into the bits they test, so every
// gate of the block sees the same outcome.
func (c *Circuit) If(cond Condition, body func(*Circuit)) *Circuit {
	if c.err != nil {
		return c
	}
	if c.cond != nil {
		return c.fail(errNestedCondition)
	}
	if err := c.checkCond(cond); err != nil {
		return c.fail(err)
	}
	c.cond = &cond
	defer func() { c.cond = nil }()
	body(c)
	return c
}

// IfElse applies then when classical bit bit reads value and otherwise when it
// does not. Both branches are logged, guarded by complementary conditions.
func (c *Circuit) IfElse(bit, value int, then, otherwise func(*Circuit)) *Circuit {
	if c.err != nil {
		return c
	}
	if err := c.checkCond(BitEquals(bit, value)); err != nil {
		return c.fail(err)
	}
	return c.If(BitEquals(bit, value), then).If(BitEquals(bit, 1-value), otherwise)
}

// While applies body as long as classical bit bit reads value, at most limit times.
// Measurements sample as they are applied, so the loop runs now and the log holds
// the iterations that actually ran; a replay repeats that trace. A loop still
// running after limit iterations fails with *LoopLimitError.
func (c *Circuit) While(bit, value, limit int, body func(*Circuit)) *Circuit {
	if c.err != nil {
		return c
	}
	if c.cond != nil {
		return c.fail(errNestedCondition)
	}
	cond := BitEquals(bit, value)
	if err := c.checkCond(cond); err != nil {
		return c.fail(err)
	}
	for i := 0; c.holds(cond); i++ {
		if i == limit {
			return c.fail(&LoopLimitError{Bit: bit, Value: value, Limit: limit})
		}
		body(c)
		if c.err != nil {
			return c
		}
	}
	return c
}

// Repeat applies body n times.
func (c *Circuit) Repeat(n int, body func(*Circuit)) *Circuit {
	if c.err != nil {
		return c
	}
	if n < 0 {
		return c.fail(&OutOfRangeError{What: "repeat count", Index: n})
	}
	for i := 0; i < n; i++ {
		body(c)
		if c.err != nil {
			break
		}
	}
	return c
}

// Delay idles qubit q for duration in unit (dt, ns, us, ms or s). It has no effect
// on the ideal state but is kept in the log and in QASM output.
func (c *Circuit) Delay(q int, duration float64, unit string) *Circuit {
	return c.do(Gate{Kind: GateDelay, Targets: []int{q}, Params: []float64{duration}, Unit: unit})
}
