// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

// Package units parses the human-friendly sizes ("4 MiB") and timespans
// ("100 years") used by simulation configuration, and formats timespans for
// log output.
package units

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
)

// ErrBadTimespan is returned when a timespan string cannot be parsed.
var ErrBadTimespan = errors.New(`units: malformed timespan`)

// ParseSize parses a byte size with optional IEC ("KiB", "MiB") or SI ("kB",
// "MB") suffix. Bare numbers are bytes.
func ParseSize(s string) (int64, error) {
	v, err := humanize.ParseBytes(s)
	if err != nil {
		return 0, fmt.Errorf(`units: malformed size %q: %w`, s, err)
	}
	return int64(v), nil
}

// secondsPerUnit maps timespan unit words to seconds. A year is 365 days.
var secondsPerUnit = map[string]float64{
	`ms`: 1e-3, `millisecond`: 1e-3, `milliseconds`: 1e-3,
	`s`: 1, `sec`: 1, `secs`: 1, `second`: 1, `seconds`: 1,
	`m`: 60, `min`: 60, `mins`: 60, `minute`: 60, `minutes`: 60,
	`h`: 3600, `hour`: 3600, `hours`: 3600,
	`d`: 86400, `day`: 86400, `days`: 86400,
	`w`: 7 * 86400, `week`: 7 * 86400, `weeks`: 7 * 86400,
	`y`: 365 * 86400, `year`: 365 * 86400, `years`: 365 * 86400,
}

// ParseTimespan parses a human-friendly duration into seconds. Accepted
// forms: a bare number (seconds), or one or more number-unit pairs such as
// "1h", "3 days", or "2 days 4 hours". The unit may be separated from the
// number by whitespace. Months are deliberately not a unit.
func ParseTimespan(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == `` {
		return 0, fmt.Errorf(`%w: empty string`, ErrBadTimespan)
	}
	if v, err := strconv.ParseFloat(s, 64); err == nil {
		return v, nil
	}

	var total float64
	rest := s
	for rest != `` {
		rest = strings.TrimSpace(rest)
		i := 0
		for i < len(rest) && (rest[i] == '.' || rest[i] == '-' || rest[i] == '+' || (rest[i] >= '0' && rest[i] <= '9')) {
			i++
		}
		if i == 0 {
			return 0, fmt.Errorf(`%w: %q`, ErrBadTimespan, s)
		}
		value, err := strconv.ParseFloat(rest[:i], 64)
		if err != nil {
			return 0, fmt.Errorf(`%w: %q`, ErrBadTimespan, s)
		}
		rest = strings.TrimSpace(rest[i:])
		j := 0
		for j < len(rest) && rest[j] != ' ' && (rest[j] < '0' || rest[j] > '9') {
			j++
		}
		unit := strings.ToLower(rest[:j])
		mult, ok := secondsPerUnit[unit]
		if !ok {
			return 0, fmt.Errorf(`%w: unknown unit %q in %q`, ErrBadTimespan, unit, s)
		}
		total += value * mult
		rest = rest[j:]
	}
	return total, nil
}

// formatUnits are ordered largest first for FormatTimespan.
var formatUnits = []struct {
	seconds float64
	name    string
}{
	{365 * 86400, `year`},
	{7 * 86400, `week`},
	{86400, `day`},
	{3600, `hour`},
	{60, `minute`},
	{1, `second`},
}

// FormatTimespan renders seconds in the largest two applicable units, e.g.
// "2 days, 3 hours". Sub-second spans render as fractional seconds.
func FormatTimespan(seconds float64) string {
	if seconds < 0 {
		return `-` + FormatTimespan(-seconds)
	}
	if seconds < 1 {
		return strconv.FormatFloat(seconds, 'g', 4, 64) + ` seconds`
	}
	var parts []string
	rem := seconds
	for _, u := range formatUnits {
		if len(parts) == 2 {
			break
		}
		n := int64(rem / u.seconds)
		if n == 0 && len(parts) == 0 && u.seconds > 1 {
			continue
		}
		if n > 0 {
			name := u.name
			if n != 1 {
				name += `s`
			}
			parts = append(parts, fmt.Sprintf(`%d %s`, n, name))
			rem -= float64(n) * u.seconds
		} else if len(parts) > 0 {
			break
		}
	}
	if len(parts) == 0 {
		return `1 second`
	}
	return strings.Join(parts, `, `)
}
