// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

// Command queuesim runs the supermarket queue simulation and reports the
// mean time jobs spend in the system, optionally appending per-snapshot
// rows to a CSV file.
package main

import (
	"fmt"
	"os"

	"github.com/joeycumines/go-dessim/queuesim"
	"github.com/joeycumines/go-dessim/workload"
	"github.com/joeycumines/logiface"
	"github.com/joeycumines/stumpy"
	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:  `queuesim`,
		Usage: `simulate a multi-queue system under supermarket placement`,
		Flags: []cli.Flag{
			&cli.Float64Flag{Name: `lambd`, Value: 0.7, Usage: `arrival rate`},
			&cli.Float64Flag{Name: `mu`, Value: 1, Usage: `service rate`},
			&cli.Float64Flag{Name: `max-t`, Value: 10000, Usage: `maximum time to run the simulation`},
			&cli.IntFlag{Name: `n`, Value: 1, Usage: `number of servers`},
			&cli.IntFlag{Name: `d`, Value: 1, Usage: `number of queues to sample`},
			&cli.BoolFlag{Name: `use-rr`, Usage: `use Round Robin scheduling`},
			&cli.Float64Flag{Name: `quantum`, Value: 1, Usage: `quantum of time for Round Robin`},
			&cli.Float64Flag{Name: `monitor-interval`, Value: 10, Usage: `interval to monitor queue sizes`},
			&cli.Float64Flag{Name: `shape`, Usage: `shape parameter for the Weibull distribution`},
			&cli.StringFlag{Name: `csv`, Usage: `CSV file in which to store results`},
			&cli.Uint64Flag{Name: `seed`, Usage: `random seed`},
			&cli.BoolFlag{Name: `verbose`, Usage: `log simulation progress`},
		},
		Action: run,
	}
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newLogger(verbose bool) *logiface.Logger[logiface.Event] {
	level := logiface.LevelInformational
	if verbose {
		level = logiface.LevelDebug
	}
	return stumpy.L.New(
		stumpy.L.WithStumpy(stumpy.WithWriter(os.Stderr)),
		stumpy.L.WithLevel(level),
	).Logger()
}

func run(c *cli.Context) error {
	logger := newLogger(c.Bool(`verbose`))

	cfg := queuesim.Config{
		Lambd:           c.Float64(`lambd`),
		Mu:              c.Float64(`mu`),
		MaxT:            c.Float64(`max-t`),
		N:               c.Int(`n`),
		D:               c.Int(`d`),
		UseRR:           c.Bool(`use-rr`),
		Quantum:         c.Float64(`quantum`),
		MonitorInterval: c.Float64(`monitor-interval`),
	}
	if c.IsSet(`shape`) {
		cfg.Shape = c.Float64(`shape`)
	}
	if err := cfg.Validate(); err != nil {
		return cli.Exit(err.Error(), 1)
	}
	if cfg.Unstable() {
		logger.Warning().
			Float64(`lambd`, cfg.Lambd).
			Float64(`mu`, cfg.Mu).
			Log(`the system is unstable: lambda >= mu`)
	}

	src := workload.NewSourceFromTime()
	if c.IsSet(`seed`) {
		src = workload.NewSource(c.Uint64(`seed`))
	}

	sim, err := queuesim.NewSim(cfg, src, queuesim.WithLogger(logger))
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}
	sim.Run()

	w := sim.MeanTimeInSystem()
	fmt.Printf("Average time spent in the system: %v\n", w)
	if cfg.Mu == 1 && cfg.Lambd != 1 {
		fmt.Printf("Theoretical expectation for random server choice (d=1): %v\n",
			queuesim.TheoreticalMM1(cfg.Lambd, cfg.Mu))
	}

	if path := c.String(`csv`); path != `` {
		if err := sim.WriteCSV(path); err != nil {
			return cli.Exit(err.Error(), 1)
		}
	}
	return nil
}
