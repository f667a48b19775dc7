// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package backupsim

import (
	"errors"
	"fmt"

	"github.com/joeycumines/go-dessim/units"
	"gopkg.in/ini.v1"
)

// ErrBadConfig is returned when the configuration file cannot be parsed or
// is missing required keys.
var ErrBadConfig = errors.New(`backupsim: invalid configuration`)

// LoadSpecs reads an INI-style configuration where each section describes a
// class of identical nodes:
//
//	[client]
//	number = 10
//	n = 10
//	k = 8
//	data_size = 1 GiB
//	storage_size = 2 GiB
//	upload_speed = 500 KiB
//	download_speed = 2 MiB
//	average_uptime = 8 hours
//	average_downtime = 16 hours
//	average_lifetime = 1 year
//	average_recover_time = 3 days
//	arrival_time = 0
//
// Sizes and speeds take human-friendly byte suffixes; durations take unit
// words (seconds through years). The section [client] above yields nodes
// client-0 through client-9.
func LoadSpecs(path string) ([]NodeSpec, error) {
	file, err := ini.Load(path)
	if err != nil {
		return nil, fmt.Errorf(`%w: %v`, ErrBadConfig, err)
	}
	var specs []NodeSpec
	for _, section := range file.Sections() {
		if section.Name() == ini.DefaultSection {
			continue
		}
		class, number, err := parseClass(section)
		if err != nil {
			return nil, err
		}
		for i := 0; i < number; i++ {
			sp := class
			sp.Name = fmt.Sprintf(`%s-%d`, section.Name(), i)
			if err := sp.Validate(); err != nil {
				return nil, err
			}
			specs = append(specs, sp)
		}
	}
	if len(specs) == 0 {
		return nil, fmt.Errorf(`%w: no node classes defined`, ErrBadConfig)
	}
	return specs, nil
}

func parseClass(section *ini.Section) (sp NodeSpec, number int, err error) {
	get := func(key string) (string, error) {
		if !section.HasKey(key) {
			return ``, fmt.Errorf(`%w: section %s missing key %s`, ErrBadConfig, section.Name(), key)
		}
		return section.Key(key).String(), nil
	}
	wrap := func(key string, err error) error {
		return fmt.Errorf(`%w: section %s key %s: %v`, ErrBadConfig, section.Name(), key, err)
	}

	for _, field := range [...]struct {
		key   string
		parse func(raw string) error
	}{
		{`number`, func(raw string) error { _, err := fmt.Sscanf(raw, "%d", &number); return err }},
		{`n`, func(raw string) error { _, err := fmt.Sscanf(raw, "%d", &sp.N); return err }},
		{`k`, func(raw string) error { _, err := fmt.Sscanf(raw, "%d", &sp.K); return err }},
		{`data_size`, func(raw string) (err error) { sp.DataSize, err = units.ParseSize(raw); return }},
		{`storage_size`, func(raw string) (err error) { sp.StorageSize, err = units.ParseSize(raw); return }},
		{`upload_speed`, func(raw string) error {
			v, err := units.ParseSize(raw)
			sp.UploadSpeed = float64(v)
			return err
		}},
		{`download_speed`, func(raw string) error {
			v, err := units.ParseSize(raw)
			sp.DownloadSpeed = float64(v)
			return err
		}},
		{`average_uptime`, func(raw string) (err error) { sp.AverageUptime, err = units.ParseTimespan(raw); return }},
		{`average_downtime`, func(raw string) (err error) { sp.AverageDowntime, err = units.ParseTimespan(raw); return }},
		{`average_lifetime`, func(raw string) (err error) { sp.AverageLifetime, err = units.ParseTimespan(raw); return }},
		{`average_recover_time`, func(raw string) (err error) { sp.AverageRecoverTime, err = units.ParseTimespan(raw); return }},
		{`arrival_time`, func(raw string) (err error) { sp.ArrivalTime, err = units.ParseTimespan(raw); return }},
	} {
		raw, err := get(field.key)
		if err != nil {
			return sp, 0, err
		}
		if err := field.parse(raw); err != nil {
			return sp, 0, wrap(field.key, err)
		}
	}
	if number <= 0 {
		return sp, 0, fmt.Errorf(`%w: section %s: number must be positive`, ErrBadConfig, section.Name())
	}
	return sp, number, nil
}
