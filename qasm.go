package qucom

import (
	"fmt"
	"strconv"
	"strings"
)

// ToQASM serializes the operation log as OPENQASM 2.0, one statement per gate in
// program order.
func (c *Circuit) ToQASM() string {
	var sb strings.Builder
	sb.WriteString("OPENQASM 2.0;\n")
	sb.WriteString("include \"qelib1.inc\";\n\n")
	fmt.Fprintf(&sb, "qreg q[%d];\n", c.n)
	fmt.Fprintf(&sb, "creg c[%d];\n\n", len(c.cbits))

	for _, g := range c.log {
		c.writeGate(&sb, g)
	}
	return sb.String()
}

func operandList(qs []int) string {
	parts := make([]string, len(qs))
	for i, q := range qs {
		parts[i] = fmt.Sprintf("q[%d]", q)
	}
	return strings.Join(parts, ", ")
}

// wholeRegister reports whether g covers qubits 0..k-1 in order.
func wholeRegister(qs []int, k int) bool {
	if len(qs) != k {
		return false
	}
	for i, q := range qs {
		if q != i {
			return false
		}
	}
	return true
}

func (c *Circuit) writeGate(sb *strings.Builder, g Gate) {
	guard := ""
	if g.Cond != nil {
		guard = conditionPrefix(*g.Cond)
	}
	switch g.Kind {
	case GateMeasure:
		if len(g.Targets) > 1 && c.registerWide(g) {
			fmt.Fprintf(sb, "%smeasure q -> c;\n", guard)
			return
		}
		for i, q := range g.Targets {
			fmt.Fprintf(sb, "%smeasure q[%d] -> c[%d];\n", guard, q, g.Cbits[i])
		}
	case GateReset:
		if len(g.Targets) > 1 && c.registerWide(g) {
			fmt.Fprintf(sb, "%sreset q;\n", guard)
			return
		}
		for _, q := range g.Targets {
			fmt.Fprintf(sb, "%sreset q[%d];\n", guard, q)
		}
	case GateBarrier:
		fmt.Fprintf(sb, "barrier %s;\n", operandList(g.Targets))
	case GateDelay:
		fmt.Fprintf(sb, "%sdelay[%s%s] q[%d];\n", guard, strconv.FormatFloat(g.Params[0], 'g', -1, 64), g.Unit, g.Targets[0])
	default:
		sb.WriteString(guard)
		sb.WriteString(g.Kind.String())
		if len(g.Params) > 0 {
			params := make([]string, len(g.Params))
			for i, p := range g.Params {
				params[i] = FormatAngle(p)
			}
			fmt.Fprintf(sb, "(%s)", strings.Join(params, ", "))
		}
		fmt.Fprintf(sb, " %s;\n", operandList(append(append([]int{}, g.Controls...), g.Targets...)))
	}
}

func conditionPrefix(cond Condition) string {
	if cond.Bit < 0 {
		return fmt.Sprintf("if(c==%d) ", cond.Value)
	}
	return fmt.Sprintf("if(c[%d]==%d) ", cond.Bit, cond.Value)
}
