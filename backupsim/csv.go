// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package backupsim

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

const secondsPerYear = 365 * 24 * 3600

// WriteCSVs emits the collected statistics into dir as three files:
// bandwidth_waste.csv (time_years, up_waste, dn_waste), data_transfers.csv
// (time_years, count) and failures.csv (time_years, count). Existing files
// are overwritten.
func (s *Sim) WriteCSVs(dir string) error {
	up, down := s.BandwidthWaste()
	waste := make([][]string, 0, len(up))
	for i := range up {
		waste = append(waste, []string{
			years(up[i].T),
			formatValue(up[i].Value),
			formatValue(down[i].Value),
		})
	}
	if err := writeCSV(filepath.Join(dir, `bandwidth_waste.csv`),
		[]string{`time_years`, `up_waste`, `dn_waste`}, waste); err != nil {
		return err
	}

	if err := writeCSV(filepath.Join(dir, `data_transfers.csv`),
		[]string{`time_years`, `count`}, countRows(s.TransferCounts())); err != nil {
		return err
	}

	return writeCSV(filepath.Join(dir, `failures.csv`),
		[]string{`time_years`, `count`}, countRows(s.FailureEvents()))
}

func countRows(points []Point) [][]string {
	rows := make([][]string, 0, len(points))
	for _, p := range points {
		rows = append(rows, []string{years(p.T), formatValue(p.Value)})
	}
	return rows
}

func years(seconds float64) string {
	return strconv.FormatFloat(seconds/secondsPerYear, 'g', -1, 64)
}

func formatValue(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func writeCSV(path string, header []string, rows [][]string) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf(`backupsim: create csv: %w`, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf(`backupsim: close csv: %w`, cerr)
		}
	}()
	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return fmt.Errorf(`backupsim: write csv: %w`, err)
	}
	for _, row := range rows {
		if err := w.Write(row); err != nil {
			return fmt.Errorf(`backupsim: write csv: %w`, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf(`backupsim: flush csv: %w`, err)
	}
	return nil
}
