package qucom

// Node is a logged gate placed on a diagram column.
type Node struct {
	Gate  Gate
	Index int // position in the log
	Step  int // column
}

// Span returns the lowest and highest qubit the gate touches.
func (n *Node) Span() (lo, hi int) {
	qs := n.Gate.Qubits()
	lo, hi = qs[0], qs[0]
	for _, q := range qs[1:] {
		lo = min(lo, q)
		hi = max(hi, q)
	}
	return lo, hi
}

// Schedule lays the operation log out in columns. Every gate sits one column
// after the last gate touching any wire between its lowest and highest qubit, so
// vertical connectors never cross another gate. Barriers close a column across the
// whole register. A guarded gate sits after every earlier measurement and a
// measurement after every earlier guarded gate.
type Schedule struct {
	NumQubits int
	Nodes     []Node
	Steps     int
}

// Moments schedules a log for an n-qubit register.
func Moments(log []Gate, n int) *Schedule {
	s := &Schedule{NumQubits: n, Nodes: make([]Node, 0, len(log))}
	// next free column per qubit
	free := make([]int, n)
	// first column after the last measurement and the last guarded gate
	var written, read int
	for i, g := range log {
		node := Node{Gate: g, Index: i}
		lo, hi := node.Span()
		if g.Kind == GateBarrier {
			lo, hi = 0, n-1
		}
		step := 0
		for q := lo; q <= hi; q++ {
			step = max(step, free[q])
		}
		if g.Cond != nil {
			step = max(step, written)
		}
		if g.Kind == GateMeasure {
			step = max(step, read)
		}
		if g.Cond != nil {
			read = max(read, step+1)
		}
		if g.Kind == GateMeasure {
			written = max(written, step+1)
		}
		node.Step = step
		for q := lo; q <= hi; q++ {
			free[q] = step + 1
		}
		if g.Kind == GateBarrier {
			for q := range free {
				free[q] = step + 1
			}
		}
		s.Steps = max(s.Steps, step+1)
		s.Nodes = append(s.Nodes, node)
	}
	return s
}

// Moments schedules the circuit's log.
func (c *Circuit) Moments() *Schedule {
	return Moments(c.log, c.n)
}

// Depth is the number of columns, not counting barrier-only columns.
func (s *Schedule) Depth() int {
	barrierOnly := 0
	for step := 0; step < s.Steps; step++ {
		nodes := s.AtStep(step)
		if len(nodes) == 1 && nodes[0].Gate.Kind == GateBarrier {
			barrierOnly++
		}
	}
	return s.Steps - barrierOnly
}

// AtStep returns the nodes in column step.
func (s *Schedule) AtStep(step int) []*Node {
	var nodes []*Node
	for i := range s.Nodes {
		if s.Nodes[i].Step == step {
			nodes = append(nodes, &s.Nodes[i])
		}
	}
	return nodes
}

// At returns the node occupying (step, qubit), counting wires a connector passes
// through, or nil.
func (s *Schedule) At(step, qubit int) *Node {
	for i := range s.Nodes {
		n := &s.Nodes[i]
		if n.Step != step {
			continue
		}
		lo, hi := n.Span()
		if qubit >= lo && qubit <= hi {
			return n
		}
	}
	return nil
}
