package trials

import (
	"context"
	"errors"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"qucom"
)

const bellQASM = `OPENQASM 2.0;
include "qelib1.inc";
qreg q[2];
creg c[2];
h q[0];
cx q[0], q[1];
measure q -> c;
`

func seed(v uint64) *uint64 { return &v }

func TestRun(t *testing.T) {
	Convey("Given a Bell pair program", t, func() {
		build := Program(2, func(c *qucom.Circuit) { c.H(0).CX(0, 1) })

		Convey("It should only ever see correlated outcomes", func() {
			report, err := Run(context.Background(), build, Options{Shots: 400, Workers: 4, Seed: seed(1)})
			So(err, ShouldBeNil)
			So(report.Shots, ShouldEqual, 400)
			So(report.Counts["00"]+report.Counts["11"], ShouldEqual, 400)
			So(report.Counts["00"], ShouldBeBetween, 120, 280)
			So(len(report.Memory), ShouldEqual, 400)
			So(report.ID.String(), ShouldNotBeEmpty)
		})

		Convey("It should be reproducible with a seed, whatever the worker count", func() {
			a, err := Run(context.Background(), build, Options{Shots: 64, Workers: 1, Seed: seed(7)})
			So(err, ShouldBeNil)
			b, err := Run(context.Background(), build, Options{Shots: 64, Workers: 8, Seed: seed(7)})
			So(err, ShouldBeNil)
			So(b.Memory, ShouldResemble, a.Memory)
			So(b.Counts, ShouldResemble, a.Counts)
			So(b.ID, ShouldNotEqual, a.ID)
		})

		Convey("It should report probabilities that sum to one", func() {
			report, err := Run(context.Background(), build, Options{Shots: 100, Seed: seed(3)})
			So(err, ShouldBeNil)
			total := 0.0
			for _, p := range report.Probabilities() {
				total += p
			}
			So(total, ShouldAlmostEqual, 1.0, 1e-9)

			outcomes := report.Outcomes()
			So(len(outcomes), ShouldBeLessThanOrEqualTo, 2)
			for i := 1; i < len(outcomes); i++ {
				So(outcomes[i-1].Bits, ShouldBeLessThan, outcomes[i].Bits)
			}
		})
	})

	Convey("Given a deterministic program", t, func() {
		build := Program(3, func(c *qucom.Circuit) { c.X(0).X(2) })

		Convey("Every shot should agree", func() {
			report, err := Run(context.Background(), build, Options{Shots: 20, Workers: 3})
			So(err, ShouldBeNil)
			So(report.Counts, ShouldResemble, map[string]int{"101": 20})
			So(report.MostFrequent().Bits, ShouldEqual, "101")
			So(report.MostFrequent().Prob, ShouldEqual, 1.0)
		})
	})

	Convey("Given a program that fails", t, func() {
		build := Program(2, func(c *qucom.Circuit) { c.CX(1, 1) })

		Convey("The run should return the shot error", func() {
			report, err := Run(context.Background(), build, Options{Shots: 50, Workers: 4})
			So(report, ShouldBeNil)
			var dup *qucom.DuplicateOperandError
			So(errors.As(err, &dup), ShouldBeTrue)
		})
	})

	Convey("Given bad options", t, func() {
		build := Program(1, func(c *qucom.Circuit) {})

		Convey("Zero shots should be rejected", func() {
			_, err := Run(context.Background(), build, Options{})
			So(err, ShouldNotBeNil)
		})

		Convey("A register above the limit should be rejected", func() {
			big := Program(4, func(c *qucom.Circuit) {})
			_, err := Run(context.Background(), big, Options{Shots: 1, MaxQubits: 3})
			var oor *qucom.OutOfRangeError
			So(errors.As(err, &oor), ShouldBeTrue)
		})
	})

	Convey("Given a cancelled context", t, func() {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		build := Program(2, func(c *qucom.Circuit) { c.H(0) })

		Convey("The run should stop with the context error", func() {
			_, err := Run(ctx, build, Options{Shots: 10000, Workers: 2})
			So(errors.Is(err, context.Canceled), ShouldBeTrue)
		})
	})
}

func TestFromQASM(t *testing.T) {
	Convey("Given QASM text", t, func() {
		Convey("A valid program should run every shot from the text", func() {
			build, err := FromQASM(bellQASM)
			So(err, ShouldBeNil)

			report, err := Run(context.Background(), build, Options{Shots: 200, Seed: seed(11)})
			So(err, ShouldBeNil)
			So(report.Counts["01"], ShouldEqual, 0)
			So(report.Counts["10"], ShouldEqual, 0)
		})

		Convey("A malformed program should fail before any shot", func() {
			_, err := FromQASM("qreg q[2];\nfoo q[0];\n")
			var pe *qucom.ParseError
			So(errors.As(err, &pe), ShouldBeTrue)
			So(pe.Line, ShouldEqual, 2)
		})
	})
}
