package qucom

import (
	"fmt"
	"math"
	"slices"
)

// Toffoli flips target when both controls are set.
func (c *Circuit) Toffoli(c1, c2, target int) *Circuit {
	return c.do(Gate{Kind: GateCCX, Controls: []int{c1, c2}, Targets: []int{target}})
}

// MCX flips target iff every control is set.
//
// With ancillas, m >= 3 controls need m-2 ancillas in |0⟩; they are used as a
// Toffoli ladder and returned to |0⟩. Without ancillas the gate is decomposed into
// Toffolis that borrow idle register qubits in whatever state they hold and
// restore them exactly. That costs 4(m-2) Toffolis when m-2 qubits are idle and
// stays linear in m as long as one qubit is idle. A gate spanning the whole
// register falls back to a controlled-phase recursion that grows as m².
func (c *Circuit) MCX(controls []int, target int, ancillas ...int) *Circuit {
	return c.do(Gate{
		Kind:     GateMCX,
		Controls: slices.Clone(controls),
		Targets:  []int{target},
		Ancillas: slices.Clone(ancillas),
	})
}

// MCZ flips the phase of the all-ones basis state of the whole register.
func (c *Circuit) MCZ() *Circuit {
	if c.n == 1 {
		return c.Z(0)
	}
	return c.MCZOn(c.all()[:c.n-1], c.n-1)
}

// MCZOn flips the phase of states where every control and the target are set.
func (c *Circuit) MCZOn(controls []int, target int, ancillas ...int) *Circuit {
	return c.do(Gate{
		Kind:     GateMCZ,
		Controls: slices.Clone(controls),
		Targets:  []int{target},
		Ancillas: slices.Clone(ancillas),
	})
}

func (c *Circuit) checkAncillas(g Gate) error {
	if len(g.Ancillas) == 0 {
		return nil
	}
	if q, dup := firstDuplicate(g.Ancillas); dup {
		return &InvalidDecompositionError{Reason: fmt.Sprintf("ancilla %d listed twice", q)}
	}
	for _, a := range g.Ancillas {
		if slices.Contains(g.Controls, a) || slices.Contains(g.Targets, a) {
			return &InvalidDecompositionError{Reason: fmt.Sprintf("ancilla %d overlaps an operand", a)}
		}
	}
	m := len(g.Controls)
	if m < 3 {
		return nil
	}
	if len(g.Ancillas) < m-2 {
		return &InvalidDecompositionError{
			Reason: fmt.Sprintf("%d controls need %d ancillas, got %d", m, m-2, len(g.Ancillas)),
		}
	}
	for _, a := range g.Ancillas[:m-2] {
		if c.state.prob1(a) > 1e-9 {
			return &InvalidDecompositionError{Reason: fmt.Sprintf("ancilla %d is not in |0>", a)}
		}
	}
	return nil
}

// idle returns the register qubits not in used.
func (c *Circuit) idle(used ...[]int) []int {
	var free []int
	for q := 0; q < c.n; q++ {
		busy := false
		for _, set := range used {
			if slices.Contains(set, q) {
				busy = true
				break
			}
		}
		if !busy {
			free = append(free, q)
		}
	}
	return free
}

func (c *Circuit) ccx(c1, c2, target int) {
	c.emit(GateCCX, []int{c1, c2}, []int{target})
}

func (c *Circuit) mcx(controls []int, target int, ancillas []int) {
	before := len(c.log)
	m := len(controls)
	switch {
	case m == 1:
		c.emit(GateCX, []int{controls[0]}, []int{target})
	case m == 2:
		c.ccx(controls[0], controls[1], target)
	case len(ancillas) > 0:
		c.ladder(controls, target, ancillas[:m-2])
	default:
		c.borrowing(controls, target)
	}
	c.logger.Debug("mcx", "controls", m, "ancillas", len(ancillas), "gates", len(c.log)-before)
}

func (c *Circuit) mcz(controls []int, target int, ancillas []int) {
	switch {
	case len(controls) == 1:
		c.emit(GateCZ, controls, []int{target})
	case len(controls) >= 3 && len(ancillas) == 0 && len(c.idle(controls, []int{target})) == 0:
		c.phaseRecursion(math.Pi, controls, target)
	default:
		c.emit(GateH, nil, []int{target})
		c.mcx(controls, target, ancillas)
		c.emit(GateH, nil, []int{target})
	}
}

// ladder computes the AND of the controls into clean ancillas, flips the target
// and uncomputes.
func (c *Circuit) ladder(ctrl []int, target int, anc []int) {
	m := len(ctrl)
	c.ccx(ctrl[0], ctrl[1], anc[0])
	for j := 1; j < m-2; j++ {
		c.ccx(ctrl[j+1], anc[j-1], anc[j])
	}
	c.ccx(ctrl[m-1], anc[m-3], target)
	for j := m - 3; j >= 1; j-- {
		c.ccx(ctrl[j+1], anc[j-1], anc[j])
	}
	c.ccx(ctrl[0], ctrl[1], anc[0])
}

// dirtyChain is the ladder for ancillas in an unknown state. Each ancilla is
// toggled an even number of times by the same terms, so it ends where it began.
func (c *Circuit) dirtyChain(ctrl []int, target int, anc []int) {
	m := len(ctrl)
	top := func() {
		c.ccx(ctrl[m-1], anc[m-3], target)
	}
	down := func() {
		for j := m - 3; j >= 1; j-- {
			c.ccx(ctrl[j+1], anc[j-1], anc[j])
		}
		c.ccx(ctrl[0], ctrl[1], anc[0])
	}
	up := func() {
		for j := 1; j <= m-3; j++ {
			c.ccx(ctrl[j+1], anc[j-1], anc[j])
		}
	}
	top()
	down()
	up()
	top()
	down()
	up()
}

func (c *Circuit) borrowing(ctrl []int, target int) {
	m := len(ctrl)
	switch m {
	case 1:
		c.emit(GateCX, []int{ctrl[0]}, []int{target})
		return
	case 2:
		c.ccx(ctrl[0], ctrl[1], target)
		return
	}
	free := c.idle(ctrl, []int{target})
	switch {
	case len(free) >= m-2:
		c.dirtyChain(ctrl, target, free[:m-2])
	case len(free) >= 1:
		// Two halves meet on one borrowed qubit b: b ^= A, t ^= B·b, b ^= A,
		// t ^= B·b leaves t ^= A·B. Each half can borrow the other half.
		b := free[0]
		k := (m + 1) / 2
		left := slices.Clone(ctrl[:k])
		right := append(slices.Clone(ctrl[k:]), b)
		for i := 0; i < 2; i++ {
			c.borrowing(left, b)
			c.borrowing(right, target)
		}
	default:
		c.emit(GateH, nil, []int{target})
		c.phaseRecursion(math.Pi, ctrl, target)
		c.emit(GateH, nil, []int{target})
	}
}

// phaseRecursion applies e^{iθ} to states where every control and s are set,
// using V = Phase(θ/2) with V² = Phase(θ). The inner MCX gates leave s idle, so
// they can always borrow it.
func (c *Circuit) phaseRecursion(theta float64, ctrl []int, s int) {
	switch len(ctrl) {
	case 0:
		c.emit(GatePhase, nil, []int{s}, theta)
		return
	case 1:
		c.controlledPhase(theta, ctrl[0], s)
		return
	}
	k := len(ctrl)
	last := ctrl[k-1]
	rest := ctrl[:k-1]
	c.controlledPhase(theta/2, last, s)
	c.borrowing(rest, last)
	c.controlledPhase(-theta/2, last, s)
	c.borrowing(rest, last)
	c.phaseRecursion(theta/2, rest, s)
}

// controlledPhase applies e^{iθ} when both a and b are set, from p and cx gates.
func (c *Circuit) controlledPhase(theta float64, a, b int) {
	c.emit(GatePhase, nil, []int{a}, theta/2)
	c.emit(GateCX, []int{a}, []int{b})
	c.emit(GatePhase, nil, []int{b}, -theta/2)
	c.emit(GateCX, []int{a}, []int{b})
	c.emit(GatePhase, nil, []int{b}, theta/2)
}
