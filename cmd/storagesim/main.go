// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

// Command storagesim runs the peer-to-peer backup simulation over a node
// configuration file, optionally emitting bandwidth-waste, transfer and
// failure statistics as CSV.
package main

import (
	"fmt"
	"os"

	"github.com/joeycumines/go-dessim/backupsim"
	"github.com/joeycumines/go-dessim/units"
	"github.com/joeycumines/go-dessim/workload"
	"github.com/joeycumines/logiface"
	"github.com/joeycumines/stumpy"
	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:      `storagesim`,
		Usage:     `simulate a peer-to-peer backup system`,
		ArgsUsage: `config`,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: `max-t`, Value: `100 years`, Usage: `simulated time span`},
			&cli.Uint64Flag{Name: `seed`, Usage: `random seed`},
			&cli.BoolFlag{Name: `verbose`, Usage: `log simulation progress`},
			&cli.BoolFlag{Name: `parallel`, Usage: `enable parallel uploads and downloads`},
			&cli.StringFlag{Name: `csv-dir`, Usage: `directory in which to store result CSVs`},
		},
		Action: run,
	}
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	if c.NArg() != 1 {
		return cli.Exit(`usage: storagesim [options] config`, 2)
	}

	maxT, err := units.ParseTimespan(c.String(`max-t`))
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}

	level := logiface.LevelNotice
	if c.Bool(`verbose`) {
		level = logiface.LevelInformational
	}
	logger := stumpy.L.New(
		stumpy.L.WithStumpy(stumpy.WithWriter(os.Stderr)),
		stumpy.L.WithLevel(level),
	).Logger()

	specs, err := backupsim.LoadSpecs(c.Args().First())
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}

	src := workload.NewSourceFromTime()
	if c.IsSet(`seed`) {
		src = workload.NewSource(c.Uint64(`seed`))
	}

	sim, err := backupsim.NewSim(specs, src,
		backupsim.WithLogger(logger),
		backupsim.WithParallelTransfers(c.Bool(`parallel`)),
	)
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}
	sim.Run(maxT)

	fmt.Printf("Simulation over at %s\n", units.FormatTimespan(sim.Now()))
	var transfers int
	for _, p := range sim.TransferCounts() {
		transfers += int(p.Value)
	}
	var failures int
	for _, p := range sim.FailureEvents() {
		failures += int(p.Value)
	}
	fmt.Printf("Transfers completed: %d\n", transfers)
	fmt.Printf("Nodes online at end: %d of %d\n", sim.OnlineCount(), len(sim.Nodes()))
	fmt.Printf("Node failures: %d\n", failures)
	fmt.Printf("Restores below recovery threshold: %d\n", sim.DataLossEvents())

	if dir := c.String(`csv-dir`); dir != `` {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return cli.Exit(err.Error(), 1)
		}
		if err := sim.WriteCSVs(dir); err != nil {
			return cli.Exit(err.Error(), 1)
		}
	}
	return nil
}
