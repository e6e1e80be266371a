package qucom

import "math"

// Bell returns a two-qubit circuit in (|00⟩ + |11⟩)/√2.
func Bell(opts ...Option) (*Circuit, error) {
	return GHZ(2, opts...)
}

// GHZ returns an n-qubit circuit in (|0...0⟩ + |1...1⟩)/√2.
func GHZ(n int, opts ...Option) (*Circuit, error) {
	c, err := New(n, opts...)
	if err != nil {
		return nil, err
	}
	c.H(0)
	for q := 1; q < n; q++ {
		c.CX(0, q)
	}
	return c, c.Err()
}

// Superposition returns an n-qubit circuit with H on every qubit.
func Superposition(n int, opts ...Option) (*Circuit, error) {
	c, err := New(n, opts...)
	if err != nil {
		return nil, err
	}
	return c.HAll(), c.Err()
}

// FromBitstring returns a circuit prepared in the basis state labelled by bits,
// qubit 0 first, by applying X to every qubit marked 1.
func FromBitstring(bits string, opts ...Option) (*Circuit, error) {
	if _, err := parseBits(bits); err != nil {
		return nil, err
	}
	c, err := New(len(bits), opts...)
	if err != nil {
		return nil, err
	}
	for q, b := range bits {
		if b == '1' {
			c.X(q)
		}
	}
	return c, c.Err()
}

func (c *Circuit) checkOperands(name string, qs ...int) error {
	for _, q := range qs {
		if q < 0 || q >= c.n {
			return &OutOfRangeError{What: "qubit", Index: q, Limit: c.n}
		}
	}
	if q, dup := firstDuplicate(qs); dup {
		return &DuplicateOperandError{Gate: name, Qubit: q}
	}
	return nil
}

// CPhase multiplies the |11⟩ component of (control, target) by e^{iλ}. It is
// written out as p and cx gates.
func (c *Circuit) CPhase(control, target int, lambda float64) *Circuit {
	if c.err != nil {
		return c
	}
	if err := c.checkOperands("cp", control, target); err != nil {
		return c.fail(err)
	}
	c.controlledPhase(lambda, control, target)
	return c
}

// QFT applies the quantum Fourier transform to the whole register, including the
// final qubit reversal.
func (c *Circuit) QFT() *Circuit {
	for j := 0; j < c.n; j++ {
		c.H(j)
		for k := j + 1; k < c.n; k++ {
			c.CPhase(k, j, math.Pi/float64(uint64(1)<<(k-j)))
		}
	}
	for j := 0; j < c.n/2; j++ {
		c.Swap(j, c.n-1-j)
	}
	return c
}
