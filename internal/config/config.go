// Package config loads qdeck settings from flags, QDECK_* environment variables
// and an optional config file, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"qucom"
)

// Config holds every setting of the qdeck command.
type Config struct {
	Shots     int
	Seed      uint64
	Seeded    bool // Seed was given explicitly
	Workers   int
	MaxQubits int
	LogLevel  string
	File      string // QASM program to open or run
	Run       bool   // print counts instead of opening the terminal UI
	Output    string // where the UI saves the program
	Qubits    int    // register size of a new program
}

func NewConfig() *Config {
	return &Config{
		Shots:     1024,
		MaxQubits: 16,
		LogLevel:  "info",
		Output:    "circuit.qasm",
		Qubits:    4,
	}
}

// SeedPtr returns the seed for trials.Options, or nil when none was given.
func (c *Config) SeedPtr() *uint64 {
	if !c.Seeded {
		return nil
	}
	seed := c.Seed
	return &seed
}

// Validate checks ranges that flags cannot express.
func (c *Config) Validate() error {
	var errs []error
	if c.Shots < 1 {
		errs = append(errs, fmt.Errorf("shots must be positive, got %d", c.Shots))
	}
	if c.Workers < 0 {
		errs = append(errs, fmt.Errorf("workers must not be negative, got %d", c.Workers))
	}
	if c.MaxQubits < 1 || c.MaxQubits > qucom.MaxQubits {
		errs = append(errs, fmt.Errorf("max-qubits must be in [1, %d], got %d", qucom.MaxQubits, c.MaxQubits))
	}
	if c.Qubits < 1 || c.Qubits > c.MaxQubits {
		errs = append(errs, fmt.Errorf("qubits must be in [1, max-qubits], got %d", c.Qubits))
	}
	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, fmt.Errorf("log-level: %w", err))
	}
	if c.Run && c.File == "" {
		errs = append(errs, errors.New("--run needs a QASM file"))
	}
	return errors.Join(errs...)
}

// Flags registers every setting on a new flag set with the defaults of NewConfig.
func Flags(name string) *pflag.FlagSet {
	d := NewConfig()
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.String("config", "", "config file (yaml, toml or json)")
	fs.IntP("shots", "n", d.Shots, "shots per run")
	fs.Uint64("seed", d.Seed, "seed for reproducible sampling")
	fs.IntP("workers", "w", d.Workers, "parallel workers, 0 for one per CPU")
	fs.Int("max-qubits", d.MaxQubits, "largest register accepted")
	fs.IntP("qubits", "q", d.Qubits, "register size of a new program")
	fs.String("log-level", d.LogLevel, "debug, info, warn or error")
	fs.StringP("file", "f", d.File, "QASM file to open or run")
	fs.BoolP("run", "r", d.Run, "run the file and print counts")
	fs.StringP("output", "o", d.Output, "where the editor saves the program")
	return fs
}

// Load parses args and merges environment and config file values.
// A positional argument is taken as the QASM file.
func Load(args []string) (*Config, error) {
	fs := Flags("qdeck")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	v := viper.New()
	v.SetEnvPrefix("QDECK")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	if err := v.BindPFlags(fs); err != nil {
		return nil, err
	}
	if path, _ := fs.GetString("config"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}
	}

	cfg := &Config{
		Shots:     v.GetInt("shots"),
		Seed:      v.GetUint64("seed"),
		Seeded:    v.IsSet("seed"),
		Workers:   v.GetInt("workers"),
		MaxQubits: v.GetInt("max-qubits"),
		Qubits:    v.GetInt("qubits"),
		LogLevel:  v.GetString("log-level"),
		File:      v.GetString("file"),
		Run:       v.GetBool("run"),
		Output:    v.GetString("output"),
	}
	if cfg.File == "" && fs.NArg() > 0 {
		cfg.File = fs.Arg(0)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Logger builds the structured logger for cfg, writing to stderr.
func (c *Config) Logger() *log.Logger {
	level, err := log.ParseLevel(c.LogLevel)
	if err != nil {
		level = log.InfoLevel
	}
	return log.NewWithOptions(os.Stderr, log.Options{
		Level:           level,
		Prefix:          "qdeck",
		ReportTimestamp: true,
	})
}
