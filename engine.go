// Copyright © 2024 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

package blkid

import "os"

// An Engine binds a probe to an open device. The Session owns the file;
// the engine must not close it.
type Engine interface {
	Bind(f *os.File) (Probe, error)
}

// A Probe is an engine's context over one bound device. Methods are
// only called by the owning Session while it is opened.
type Probe interface {
	DoSafeProbe() error
	DoFullProbe() error
	DoProbe() error

	// Values returns the attributes found by the last probe in
	// detector priority order.
	Values() Values
	// Size is the probed area in bytes.
	Size() int64
	// Reset drops the results of the last probe.
	Reset()

	EnablePartitions(bool) error
	SetPartitionFlags(PartitionFlags) error
	EnableSuperblocks(bool) error
	SetSuperblockFlags(SuperblockFlags) error

	// Close releases engine resources but not the bound file.
	Close() error
}

// Value is a probed attribute, e.g. {"TYPE", "vfat"}.
type Value struct {
	Name string
	Data string
}

func (v Value) String() string { return v.Name + "=" + v.Data }

// Values are ordered by detector priority.
type Values []Value

func (vs Values) Get(name string) (string, bool) {
	for _, v := range vs {
		if v.Name == name {
			return v.Data, true
		}
	}
	return "", false
}

func (vs Values) Names() []string {
	names := make([]string, 0, len(vs))
	for _, v := range vs {
		names = append(names, v.Name)
	}
	return names
}

// Map loses order; the first of any duplicate names wins.
func (vs Values) Map() map[string]string {
	m := make(map[string]string, len(vs))
	for _, v := range vs {
		if _, found := m[v.Name]; !found {
			m[v.Name] = v.Data
		}
	}
	return m
}
