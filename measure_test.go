package qucom

import (
	"errors"
	"math"
	"testing"
)

func TestMeasureCollapses(t *testing.T) {
	for seed := uint64(0); seed < uint64(20); seed++ {
		c := mustNew(t, 2, WithSeed(seed)).H(0).CX(0, 1).MeasureQubit(0, 0)
		if err := c.Err(); err != nil {
			t.Fatal(err)
		}
		first, err := c.Results()
		if err != nil {
			t.Fatal(err)
		}
		want := make([]Complex, 4)
		if first[0] == '1' {
			want[3] = 1
		} else {
			want[0] = 1
		}
		assertAmplitudes(t, c, want)

		// the partner qubit must agree with the collapsed one
		c.MeasureQubit(1, 1)
		got, _ := c.Results()
		if got[0] != got[1] {
			t.Fatalf("seed %d: Bell pair measured as %q", seed, got)
		}
	}
}

func TestBellSampling(t *testing.T) {
	const shots = 1000
	counts := map[string]int{}
	for shot := uint64(0); shot < uint64(shots); shot++ {
		c, err := Bell(WithSeed(shot))
		if err != nil {
			t.Fatal(err)
		}
		got, err := c.Execute()
		if err != nil {
			t.Fatal(err)
		}
		counts[got]++
	}
	if counts["00"]+counts["11"] != shots {
		t.Fatalf("Bell pair produced uncorrelated outcomes: %v", counts)
	}
	if frac := float64(counts["00"]) / shots; frac < 0.4 || frac > 0.6 {
		t.Errorf("P(00) = %.3f, want about 0.5 (%v)", frac, counts)
	}
}

func TestExecuteIsStable(t *testing.T) {
	c, err := Superposition(4)
	if err != nil {
		t.Fatal(err)
	}
	first, err := c.Execute()
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 5; i++ {
		again, err := c.Execute()
		if err != nil {
			t.Fatal(err)
		}
		if again != first {
			t.Fatalf("Execute() changed from %q to %q", first, again)
		}
	}
	if n := countKind(c.Log(), GateMeasure); n != 1 {
		t.Errorf("log holds %d measurements, want 1", n)
	}
}

func TestExecuteMeasuresEverything(t *testing.T) {
	c := mustNew(t, 3).X(1)
	if c.IsExecuted() {
		t.Fatal("a fresh circuit reports executed")
	}
	got, err := c.Execute()
	if err != nil {
		t.Fatal(err)
	}
	if got != "010" {
		t.Errorf("Execute() = %q, want %q", got, "010")
	}
	last := c.Log()[len(c.Log())-1]
	want := Gate{Kind: GateMeasure, Targets: []int{0, 1, 2}, Cbits: []int{0, 1, 2}}
	if !last.Equal(want) {
		t.Errorf("last log entry = %+v, want %+v", last, want)
	}
}

func TestExecuteKeepsPartialMeasurement(t *testing.T) {
	c := mustNew(t, 3).X(0).X(2).MeasureQubit(2, 0)
	got, err := c.Execute()
	if err != nil {
		t.Fatal(err)
	}
	// only c[0] was written
	if got != "100" {
		t.Errorf("Execute() = %q, want %q", got, "100")
	}
}

func TestResultsBeforeExecute(t *testing.T) {
	_, err := mustNew(t, 2).H(0).Results()
	var notExecuted *NotExecutedError
	if !errors.As(err, &notExecuted) {
		t.Errorf("Results() error = %v, want NotExecutedError", err)
	}
}

func TestSeedReproducible(t *testing.T) {
	run := func() []string {
		var out []string
		for i := 0; i < 10; i++ {
			c, err := Superposition(5, WithSeed(42))
			if err != nil {
				t.Fatal(err)
			}
			got, err := c.Execute()
			if err != nil {
				t.Fatal(err)
			}
			out = append(out, got)
		}
		return out
	}
	a, b := run(), run()
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("run %d: %q != %q with the same seed", i, a[i], b[i])
		}
	}

	src := NewSource(9)
	var distinct = map[string]bool{}
	for i := 0; i < 20; i++ {
		c, err := Superposition(5, WithSource(src))
		if err != nil {
			t.Fatal(err)
		}
		got, _ := c.Execute()
		distinct[got] = true
	}
	if len(distinct) < 2 {
		t.Errorf("a shared source produced one outcome for 20 shots: %v", distinct)
	}
}

func TestSourceFloat64Range(t *testing.T) {
	src := NewSource(1)
	sum := 0.0
	for i := 0; i < 10000; i++ {
		f := src.Float64()
		if f < 0 || f >= 1 {
			t.Fatalf("Float64() = %v outside [0, 1)", f)
		}
		sum += f
	}
	if mean := sum / 10000; math.Abs(mean-0.5) > 0.02 {
		t.Errorf("mean of Float64() = %v, want about 0.5", mean)
	}
}

func TestResetQubit(t *testing.T) {
	for seed := uint64(0); seed < uint64(10); seed++ {
		c := mustNew(t, 2, WithSeed(seed)).H(0).X(1).ResetQubit(0).ResetQubit(1)
		if err := c.Err(); err != nil {
			t.Fatal(err)
		}
		assertAmplitudes(t, c, []Complex{1, 0, 0, 0})
		if c.IsExecuted() {
			t.Error("reset must not mark the circuit executed")
		}
	}
}

func TestResetAllQubits(t *testing.T) {
	c := mustNew(t, 3).XAll().H(1).ResetAllQubits()
	if err := c.Err(); err != nil {
		t.Fatal(err)
	}
	assertAmplitudes(t, c, []Complex{1, 0, 0, 0, 0, 0, 0, 0})
	got, _ := c.Execute()
	if got != "000" {
		t.Errorf("Execute() = %q, want %q", got, "000")
	}
}

func TestNarrowClassicalRegister(t *testing.T) {
	c := mustNew(t, 3, WithClassicalBits(2)).XAll()
	got, err := c.Execute()
	if err != nil {
		t.Fatal(err)
	}
	if got != "11" {
		t.Errorf("Execute() = %q, want %q", got, "11")
	}

	c = mustNew(t, 3, WithClassicalBits(2)).MeasureQubit(0, 5)
	oor := assertErrorAs[*OutOfRangeError](t, c.Err())
	if oor.What != "classical bit" {
		t.Errorf("What = %q, want classical bit", oor.What)
	}
}
