package qucom

import (
	"math"
	"math/cmplx"
	"strings"
	"testing"
)

func TestGHZ(t *testing.T) {
	c, err := GHZ(4, WithSeed(1))
	if err != nil {
		t.Fatal(err)
	}
	want := make([]Complex, 16)
	want[0] = complex(1/math.Sqrt2, 0)
	want[15] = complex(1/math.Sqrt2, 0)
	assertAmplitudes(t, c, want)

	got, err := c.Execute()
	if err != nil {
		t.Fatal(err)
	}
	if got != "0000" && got != "1111" {
		t.Errorf("GHZ measured as %q", got)
	}
}

func TestGHZRejectsBadSize(t *testing.T) {
	if _, err := GHZ(0); err == nil {
		t.Error("GHZ(0) succeeded")
	}
}

func TestCPhase(t *testing.T) {
	c := mustNew(t, 2).X(0).X(1).CPhase(0, 1, math.Pi/3)
	assertAmplitudes(t, c, []Complex{0, 0, 0, cmplx.Exp(complex(0, math.Pi/3))})

	c = mustNew(t, 2).X(0).CPhase(0, 1, math.Pi/3)
	assertAmplitudes(t, c, []Complex{0, 0, 1, 0})

	c = mustNew(t, 2).CPhase(1, 1, 1)
	assertErrorAs[*DuplicateOperandError](t, c.Err())
}

func TestQFT(t *testing.T) {
	const n = 3
	size := 1 << n
	norm := 1 / math.Sqrt(float64(size))

	t.Run("zero state", func(t *testing.T) {
		c := mustNew(t, n).QFT()
		want := make([]Complex, size)
		for i := range want {
			want[i] = complex(norm, 0)
		}
		assertAmplitudes(t, c, want)
	})

	t.Run("basis state one", func(t *testing.T) {
		c := mustNew(t, n).X(n - 1).QFT()
		want := make([]Complex, size)
		for k := range want {
			want[k] = cmplx.Exp(complex(0, 2*math.Pi*float64(k)/float64(size))) * complex(norm, 0)
		}
		assertAmplitudes(t, c, want)
	})
}

func TestFromBitstring(t *testing.T) {
	c, err := FromBitstring("101", WithSeed(1))
	if err != nil {
		t.Fatal(err)
	}
	assertAmplitudes(t, c, []Complex{0, 0, 0, 0, 0, 1, 0, 0})
	if !strings.Contains(c.ToQASM(), "x q[0];\nx q[2];\n") {
		t.Errorf("QASM = %q", c.ToQASM())
	}
	got, err := c.Execute()
	if err != nil || got != "101" {
		t.Errorf("Execute() = %q, %v; want %q", got, err, "101")
	}

	_, err = FromBitstring("12")
	assertErrorAs[*BitstringError](t, err)
	_, err = FromBitstring("0000", WithMaxQubits(3))
	assertErrorAs[*OutOfRangeError](t, err)
}
