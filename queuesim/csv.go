// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package queuesim

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// csvColumns is the result-row schema; one row is emitted per monitoring
// snapshot.
var csvColumns = []string{`lambd`, `mu`, `max_t`, `n`, `d`, `w`, `queue_size`, `quantum`, `weibull_shape`}

// WriteCSV appends one row per monitoring snapshot to path, creating the
// file (with a header row) if it does not exist or is empty. The queue_size
// column is the per-server length vector as a list literal; weibull_shape is
// the literal None when service times are exponential.
func (s *Sim) WriteCSV(path string) (err error) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf(`queuesim: open csv: %w`, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf(`queuesim: close csv: %w`, cerr)
		}
	}()

	w := csv.NewWriter(f)
	if pos, err := f.Seek(0, io.SeekEnd); err == nil && pos == 0 {
		if err := w.Write(csvColumns); err != nil {
			return fmt.Errorf(`queuesim: write csv header: %w`, err)
		}
	}

	shape := `None`
	if s.cfg.Shape > 0 {
		shape = formatFloat(s.cfg.Shape)
	}
	mean := s.MeanTimeInSystem()
	for _, snapshot := range s.queueSizeLog {
		row := []string{
			formatFloat(s.cfg.Lambd),
			formatFloat(s.cfg.Mu),
			formatFloat(s.cfg.MaxT),
			strconv.Itoa(s.cfg.N),
			strconv.Itoa(s.cfg.D),
			formatFloat(mean),
			formatIntVector(snapshot),
			formatFloat(s.cfg.Quantum),
			shape,
		}
		if err := w.Write(row); err != nil {
			return fmt.Errorf(`queuesim: write csv row: %w`, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf(`queuesim: flush csv: %w`, err)
	}
	return nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// formatIntVector renders lengths as a list literal, e.g. "[0, 2, 1]".
func formatIntVector(v []int) string {
	var b strings.Builder
	b.WriteByte('[')
	for i, x := range v {
		if i > 0 {
			b.WriteString(`, `)
		}
		b.WriteString(strconv.Itoa(x))
	}
	b.WriteByte(']')
	return b.String()
}
