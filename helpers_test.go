package qucom

import (
	"errors"
	"math/cmplx"
	"testing"

	"github.com/davecgh/go-spew/spew"
)

const tolerance = 1e-9

func mustNew(t *testing.T, n int, opts ...Option) *Circuit {
	t.Helper()
	opts = append([]Option{WithSeed(7)}, opts...)
	c, err := New(n, opts...)
	if err != nil {
		t.Fatalf("New(%d): %v", n, err)
	}
	return c
}

func assertAmplitudes(t *testing.T, c *Circuit, want []Complex) {
	t.Helper()
	got := c.Amplitudes()
	if len(got) != len(want) {
		t.Fatalf("got %d amplitudes, want %d", len(got), len(want))
	}
	for i := range want {
		if cmplx.Abs(got[i]-want[i]) > tolerance {
			t.Fatalf("amplitude %d = %v, want %v\nstate:\n%s", i, got[i], want[i], spew.Sdump(got))
		}
	}
}

func assertErrorAs[T error](t *testing.T, err error) T {
	t.Helper()
	var target T
	if !errors.As(err, &target) {
		t.Fatalf("error %v (%T) is not a %T", err, err, target)
	}
	return target
}
