// Copyright © 2024 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

// Package gpt sniffs GUID partition table headers and entries. Offsets
// are relative to the header or entry, not the device.
package gpt

import (
	"bytes"
	"encoding/binary"
)

const (
	MagicOff = 0
	MagicLen = 8

	HeaderSizeOff     = 12
	DiskGUIDOff       = 56
	EntriesLBAOff     = 72
	NumEntriesOff     = 80
	EntrySizeOff      = 84
	HeaderMinLen      = 92
	MinEntrySize      = 128
	MaxEntriesBytes   = 1 << 20
	GUIDLen           = 16
	EntryTypeOff      = 0
	EntryUniqueOff    = 16
	EntryFirstLBAOff  = 32
	EntryLastLBAOff   = 40
	EntryNameOff      = 56
	EntryNameLen      = 72
	entryAttributeOff = 48
)

var Magic = []byte("EFI PART")

// Probe is true of a header block with the signature and a sane size.
func Probe(h []byte) bool {
	if len(h) < HeaderMinLen {
		return false
	}
	if !bytes.Equal(h[MagicOff:MagicOff+MagicLen], Magic) {
		return false
	}
	size := binary.LittleEndian.Uint32(h[HeaderSizeOff:])
	return size >= HeaderMinLen && int(size) <= len(h)
}

type Header struct {
	DiskGUID   []byte
	EntriesLBA uint64
	NumEntries uint32
	EntrySize  uint32
}

func ParseHeader(h []byte) Header {
	return Header{
		DiskGUID:   h[DiskGUIDOff : DiskGUIDOff+GUIDLen],
		EntriesLBA: binary.LittleEndian.Uint64(h[EntriesLBAOff:]),
		NumEntries: binary.LittleEndian.Uint32(h[NumEntriesOff:]),
		EntrySize:  binary.LittleEndian.Uint32(h[EntrySizeOff:]),
	}
}

// EntriesLen is the byte length of the entry array, zero if insane.
func (h Header) EntriesLen() int {
	if h.EntrySize < MinEntrySize || h.EntrySize%8 != 0 {
		return 0
	}
	n := uint64(h.NumEntries) * uint64(h.EntrySize)
	if n > MaxEntriesBytes {
		return 0
	}
	return int(n)
}

type Entry struct {
	TypeGUID   []byte
	UniqueGUID []byte
	FirstLBA   uint64
	LastLBA    uint64
	Attributes uint64
	Name       []byte
}

var zeroGUID = make([]byte, GUIDLen)

// ParseEntry returns false for unused entries.
func ParseEntry(e []byte) (Entry, bool) {
	t := e[EntryTypeOff : EntryTypeOff+GUIDLen]
	if bytes.Equal(t, zeroGUID) {
		return Entry{}, false
	}
	return Entry{
		TypeGUID:   t,
		UniqueGUID: e[EntryUniqueOff : EntryUniqueOff+GUIDLen],
		FirstLBA:   binary.LittleEndian.Uint64(e[EntryFirstLBAOff:]),
		LastLBA:    binary.LittleEndian.Uint64(e[EntryLastLBAOff:]),
		Attributes: binary.LittleEndian.Uint64(e[entryAttributeOff:]),
		Name:       e[EntryNameOff : EntryNameOff+EntryNameLen],
	}, true
}

// Canonical reorders the mixed-endian on-disk GUID to RFC 4122 byte order.
func Canonical(guid []byte) []byte {
	b := make([]byte, GUIDLen)
	copy(b, guid)
	b[0], b[1], b[2], b[3] = guid[3], guid[2], guid[1], guid[0]
	b[4], b[5] = guid[5], guid[4]
	b[6], b[7] = guid[7], guid[6]
	return b
}
