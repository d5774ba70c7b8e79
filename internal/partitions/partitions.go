// Copyright © 2018 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

// Package partitions reads dos and gpt partition tables.
package partitions

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/platinasystems/blkid/internal/magic/gpt"
	"github.com/platinasystems/blkid/internal/magic/mbr"
	"github.com/satori/go.uuid"
	"golang.org/x/text/encoding/unicode"
)

var (
	ErrNotSupported = errors.New("partition table feature not supported")
	ErrCorrupt      = errors.New("corrupt partition table")
)

type Table struct {
	Type string // "dos" or "gpt"
	UUID string

	Magic       []byte
	MagicOffset int64

	Entries []Entry
}

// Entry offsets and sizes are in bytes.
type Entry struct {
	Number int
	Type   string
	UUID   string
	Name   string
	Offset uint64
	Size   uint64
}

// Device is what Read needs of a device: the header, random access to
// the rest and its geometry.
type Device struct {
	io.ReaderAt
	Header     []byte
	SectorSize int64
	Size       int64
}

// Read returns the table of the device, or nil if there isn't one. A GPT
// is only read behind a protective MBR unless forceGPT.
func Read(dev *Device, forceGPT bool) (*Table, error) {
	isDos := mbr.Probe(dev.Header)
	if (isDos && mbr.IsProtective(dev.Header)) || forceGPT {
		t, err := readGpt(dev)
		if err != nil || t != nil {
			return t, err
		}
	}
	if isDos {
		return readDos(dev), nil
	}
	return nil, nil
}

func readDos(dev *Device) *Table {
	s := dev.Header
	sig := mbr.DiskSignature(s)
	t := &Table{
		Type:        "dos",
		Magic:       s[mbr.MagicOffL : mbr.MagicOffM+1],
		MagicOffset: mbr.MagicOffL,
	}
	if sig != 0 {
		t.UUID = fmt.Sprintf("%08x", sig)
	}
	// logical partitions of extended entries aren't followed
	for i, e := range mbr.Entries(s) {
		if e.Type == mbr.TypeEmpty {
			continue
		}
		entry := Entry{
			Number: i + 1,
			Type:   fmt.Sprintf("%#x", e.Type),
			Offset: uint64(e.Start) * uint64(dev.SectorSize),
			Size:   uint64(e.Length) * uint64(dev.SectorSize),
		}
		if len(t.UUID) > 0 {
			entry.UUID = fmt.Sprintf("%s-%02x", t.UUID, i+1)
		}
		t.Entries = append(t.Entries, entry)
	}
	return t
}

func readGpt(dev *Device) (*Table, error) {
	h, err := readAt(dev, dev.SectorSize, dev.SectorSize)
	if errors.Is(err, io.ErrUnexpectedEOF) {
		return nil, nil
	} else if err != nil {
		return nil, err
	}
	if !gpt.Probe(h) {
		return nil, nil
	}
	hdr := gpt.ParseHeader(h)
	t := &Table{
		Type:        "gpt",
		UUID:        guidString(hdr.DiskGUID),
		Magic:       h[gpt.MagicOff : gpt.MagicOff+gpt.MagicLen],
		MagicOffset: dev.SectorSize + gpt.MagicOff,
	}
	if hdr.EntriesLBA >= uint64(dev.Size)/uint64(dev.SectorSize) {
		return nil, fmt.Errorf("gpt: entries at LBA %d past end: %w",
			hdr.EntriesLBA, ErrCorrupt)
	}
	n := hdr.EntriesLen()
	if n == 0 {
		return nil, fmt.Errorf("gpt: %d entries of %d bytes: %w",
			hdr.NumEntries, hdr.EntrySize, ErrNotSupported)
	}
	entries, err := readAt(dev, int64(hdr.EntriesLBA)*dev.SectorSize,
		int64(n))
	if err != nil {
		return nil, err
	}
	dec := unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM).NewDecoder()
	for i := uint32(0); i < hdr.NumEntries; i++ {
		e, ok := gpt.ParseEntry(entries[i*hdr.EntrySize:])
		if !ok {
			continue
		}
		entry := Entry{
			Number: int(i) + 1,
			Type:   guidString(e.TypeGUID),
			UUID:   guidString(e.UniqueGUID),
			Offset: e.FirstLBA * uint64(dev.SectorSize),
		}
		if e.LastLBA >= e.FirstLBA {
			entry.Size = (e.LastLBA - e.FirstLBA + 1) *
				uint64(dev.SectorSize)
		}
		if name, err := dec.Bytes(trimUTF16(e.Name)); err == nil {
			entry.Name = string(name)
		}
		t.Entries = append(t.Entries, entry)
	}
	return t, nil
}

// readAt prefers the header to device reads.
func readAt(dev *Device, off, n int64) ([]byte, error) {
	if off < 0 || n < 0 || off+n < off {
		return nil, fmt.Errorf("read %d bytes at %d: %w", n, off,
			io.ErrUnexpectedEOF)
	}
	if off+n <= int64(len(dev.Header)) {
		return dev.Header[off : off+n], nil
	}
	if off+n > dev.Size {
		return nil, fmt.Errorf("read %d bytes at %d: %w", n, off,
			io.ErrUnexpectedEOF)
	}
	b := make([]byte, n)
	if _, err := dev.ReadAt(b, off); err != nil {
		return nil, err
	}
	return b, nil
}

func trimUTF16(b []byte) []byte {
	for i := 0; i+1 < len(b); i += 2 {
		if b[i] == 0 && b[i+1] == 0 {
			return b[:i]
		}
	}
	return b
}

func guidString(b []byte) string {
	if bytes.Count(b, []byte{0}) == len(b) {
		return ""
	}
	return uuid.FromBytesOrNil(gpt.Canonical(b)).String()
}
