package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/charmbracelet/log"
	. "github.com/smartystreets/goconvey/convey"
)

func TestLoad(t *testing.T) {
	Convey("Given no arguments", t, func() {
		cfg, err := Load(nil)

		Convey("It should use the defaults", func() {
			So(err, ShouldBeNil)
			So(cfg, ShouldResemble, NewConfig())
			So(cfg.SeedPtr(), ShouldBeNil)
		})
	})

	Convey("Given flags", t, func() {
		cfg, err := Load([]string{"--shots", "50", "--seed", "9", "-w", "3", "--run", "bell.qasm"})

		Convey("They should override the defaults", func() {
			So(err, ShouldBeNil)
			So(cfg.Shots, ShouldEqual, 50)
			So(cfg.Workers, ShouldEqual, 3)
			So(cfg.Run, ShouldBeTrue)
			So(cfg.File, ShouldEqual, "bell.qasm")
			So(cfg.Seeded, ShouldBeTrue)
			So(*cfg.SeedPtr(), ShouldEqual, uint64(9))
		})
	})

	Convey("Given environment variables", t, func() {
		t.Setenv("QDECK_SHOTS", "77")
		t.Setenv("QDECK_LOG_LEVEL", "debug")

		Convey("They should apply unless a flag is given", func() {
			cfg, err := Load(nil)
			So(err, ShouldBeNil)
			So(cfg.Shots, ShouldEqual, 77)
			So(cfg.LogLevel, ShouldEqual, "debug")
			So(cfg.Logger().GetLevel(), ShouldEqual, log.DebugLevel)

			cfg, err = Load([]string{"--shots", "5"})
			So(err, ShouldBeNil)
			So(cfg.Shots, ShouldEqual, 5)
		})
	})

	Convey("Given a config file", t, func() {
		path := filepath.Join(t.TempDir(), "qdeck.yaml")
		err := os.WriteFile(path, []byte("shots: 12\nmax-qubits: 8\noutput: out.qasm\nseed: 4\n"), 0o644)
		So(err, ShouldBeNil)

		Convey("Its values should be loaded", func() {
			cfg, err := Load([]string{"--config", path})
			So(err, ShouldBeNil)
			So(cfg.Shots, ShouldEqual, 12)
			So(cfg.MaxQubits, ShouldEqual, 8)
			So(cfg.Output, ShouldEqual, "out.qasm")
			So(cfg.Seeded, ShouldBeTrue)
			So(cfg.Seed, ShouldEqual, uint64(4))
		})

		Convey("A missing file should be an error", func() {
			_, err := Load([]string{"--config", filepath.Join(t.TempDir(), "nope.yaml")})
			So(err, ShouldNotBeNil)
		})
	})

	Convey("Given invalid values", t, func() {
		cases := [][]string{
			{"--shots", "0"},
			{"--workers", "-1"},
			{"--max-qubits", "31"},
			{"--qubits", "20", "--max-qubits", "10"},
			{"--log-level", "loud"},
			{"--run"},
			{"--shots", "many"},
		}

		Convey("Load should reject them", func() {
			for _, args := range cases {
				_, err := Load(args)
				So(err, ShouldNotBeNil)
			}
		})
	})
}
