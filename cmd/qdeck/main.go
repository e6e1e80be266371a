// Command qdeck edits and runs quantum circuits.
//
// Usage:
//
//	qdeck [flags] [file.qasm]        open the circuit editor
//	qdeck --run [flags] file.qasm    run the program and print counts
//
// Every flag can also be set through a QDECK_* environment variable or a
// config file given with --config.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/spf13/pflag"

	"qucom/internal/config"
	"qucom/internal/tui"
	"qucom/trials"
)

func main() {
	cfg, err := config.Load(os.Args[1:])
	if errors.Is(err, pflag.ErrHelp) {
		return
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "qdeck:", err)
		os.Exit(2)
	}
	logger := cfg.Logger()

	if cfg.Run {
		if err := run(cfg, logger); err != nil {
			logger.Error("run failed", "file", cfg.File, "err", err)
			os.Exit(1)
		}
		return
	}

	// The editor owns the terminal; keep logs out of it unless debugging.
	if logger.GetLevel() == log.DebugLevel {
		f, err := os.OpenFile("qdeck.log", os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			logger.Fatal("opening log file", "err", err)
		}
		defer f.Close()
		logger.SetOutput(f)
	} else {
		logger.SetOutput(io.Discard)
	}

	model, err := tui.New(cfg, logger)
	if err != nil {
		fmt.Fprintln(os.Stderr, "qdeck:", err)
		os.Exit(1)
	}
	if _, err := tea.NewProgram(model, tea.WithAltScreen()).Run(); err != nil {
		fmt.Fprintln(os.Stderr, "qdeck:", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *log.Logger) error {
	text, err := os.ReadFile(cfg.File)
	if err != nil {
		return err
	}
	build, err := trials.FromQASM(string(text))
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	report, err := trials.Run(ctx, build, trials.Options{
		Shots:     cfg.Shots,
		Workers:   cfg.Workers,
		Seed:      cfg.SeedPtr(),
		MaxQubits: cfg.MaxQubits,
		Logger:    logger,
	})
	if err != nil {
		return err
	}

	logger.Info("run finished", "id", report.ID, "shots", report.Shots, "elapsed", report.Elapsed)
	for _, o := range report.Outcomes() {
		fmt.Printf("%s %6d  %.4f\n", o.Bits, o.Count, o.Prob)
	}
	return nil
}
