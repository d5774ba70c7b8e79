// Copyright © 2024 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

// Package sniffer is a blkid engine that identifies superblocks and
// partition tables from the device header without cgo.
package sniffer

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/platinasystems/blkid"
	"github.com/platinasystems/blkid/internal/magic"
	"github.com/platinasystems/blkid/internal/partitions"
)

const DefaultSectorSize = 512

var ErrNotSupported = errors.New("unsupported file type")

type Engine struct{}

func New() *Engine { return &Engine{} }

// Bind a probe to the device or image file. Only block devices and
// regular files are supported.
func (*Engine) Bind(f *os.File) (blkid.Probe, error) {
	size, sectorSize, err := geometry(f)
	if err != nil {
		return nil, err
	}
	return &probe{
		f:               f,
		size:            size,
		sectorSize:      sectorSize,
		partitions:      true,
		superblocks:     true,
		superblockFlags: blkid.SuperblockDefault,
	}, nil
}

type probe struct {
	f          *os.File
	size       int64
	sectorSize int64

	partitions      bool
	superblocks     bool
	partitionFlags  blkid.PartitionFlags
	superblockFlags blkid.SuperblockFlags

	values blkid.Values
}

func (p *probe) DoSafeProbe() error { return p.do(true) }
func (p *probe) DoFullProbe() error { return p.do(false) }

// DoProbe reports the first superblock found without looking further.
func (p *probe) DoProbe() error {
	s, err := p.header()
	if err != nil {
		return err
	}
	var sbs []*magic.Superblock
	if p.superblocks {
		if sb := magic.First(s); sb != nil {
			sbs = append(sbs, sb)
		}
	}
	return p.report(s, sbs)
}

// do runs every superblock detector; a safe probe fails if more than
// one matches.
func (p *probe) do(safe bool) error {
	s, err := p.header()
	if err != nil {
		return err
	}
	var sbs []*magic.Superblock
	if p.superblocks {
		sbs = magic.Detect(s)
	}
	if safe && len(sbs) > 1 {
		types := make([]string, 0, len(sbs))
		for _, sb := range sbs {
			types = append(types, sb.Type)
		}
		return fmt.Errorf("%s: %w", strings.Join(types, ", "),
			blkid.ErrAmbivalent)
	}
	return p.report(s, sbs)
}

func (p *probe) report(s []byte, sbs []*magic.Superblock) error {
	var vs blkid.Values
	if len(sbs) > 0 {
		vs = p.superblock(vs, sbs[0])
	}
	if p.partitions {
		t, err := partitions.Read(&partitions.Device{
			ReaderAt:   p.f,
			Header:     s,
			SectorSize: p.sectorSize,
			Size:       p.size,
		}, p.partitionFlags.Has(blkid.PartitionForceGPT))
		if err != nil {
			return err
		}
		if t != nil {
			vs = p.table(vs, t)
		}
	}
	p.values = vs
	return nil
}

// header is the leading magic.HeaderLen bytes of the device, zero
// filled past its end.
func (p *probe) header() ([]byte, error) {
	p.values = nil
	s := make([]byte, magic.HeaderLen)
	n := int64(len(s))
	if p.size < n {
		n = p.size
	}
	if _, err := p.f.ReadAt(s[:n], 0); err != nil && err != io.EOF {
		return nil, err
	}
	return s, nil
}

func add(vs blkid.Values, name, data string) blkid.Values {
	if len(data) == 0 {
		return vs
	}
	return append(vs, blkid.Value{Name: name, Data: data})
}

func (p *probe) superblock(vs blkid.Values, sb *magic.Superblock) blkid.Values {
	f := p.superblockFlags
	if f.Has(blkid.SuperblockLabel) {
		vs = add(vs, "LABEL", sb.Label)
	}
	if f.Has(blkid.SuperblockLabelRaw) {
		vs = add(vs, "LABEL_RAW", string(sb.LabelRaw))
	}
	if f.Has(blkid.SuperblockUUID) {
		vs = add(vs, "UUID", sb.UUID)
	}
	if f.Has(blkid.SuperblockUUIDRaw) {
		vs = add(vs, "UUID_RAW", sb.UUIDRawString())
	}
	if f.Has(blkid.SuperblockVersion) {
		vs = add(vs, "VERSION", sb.Version)
	}
	if f.Has(blkid.SuperblockType) {
		vs = add(vs, "TYPE", sb.Type)
	}
	if f.Has(blkid.SuperblockSecType) {
		vs = add(vs, "SEC_TYPE", sb.SecType)
	}
	if f.Has(blkid.SuperblockUsage) {
		vs = add(vs, "USAGE", sb.Usage)
	}
	if f.Has(blkid.SuperblockMagic) && len(sb.Magic) > 0 {
		vs = add(vs, "SBMAGIC", string(sb.Magic))
		vs = add(vs, "SBMAGIC_OFFSET",
			strconv.FormatInt(sb.MagicOffset, 10))
	}
	return vs
}

func (p *probe) table(vs blkid.Values, t *partitions.Table) blkid.Values {
	f := p.partitionFlags
	vs = add(vs, "PTUUID", t.UUID)
	vs = add(vs, "PTTYPE", t.Type)
	if f.Has(blkid.PartitionMagic) {
		vs = add(vs, "PTMAGIC", string(t.Magic))
		vs = add(vs, "PTMAGIC_OFFSET",
			strconv.FormatInt(t.MagicOffset, 10))
	}
	if !f.Has(blkid.PartitionEntryDetails) {
		return vs
	}
	for _, e := range t.Entries {
		prefix := fmt.Sprint("PART_ENTRY_", e.Number, "_")
		vs = add(vs, prefix+"TYPE", e.Type)
		vs = add(vs, prefix+"UUID", e.UUID)
		vs = add(vs, prefix+"NAME", e.Name)
		vs = add(vs, prefix+"OFFSET", strconv.FormatUint(e.Offset, 10))
		vs = add(vs, prefix+"SIZE", strconv.FormatUint(e.Size, 10))
	}
	return vs
}

func (p *probe) Values() blkid.Values { return p.values }
func (p *probe) Size() int64          { return p.size }
func (p *probe) Reset()               { p.values = nil }

func (p *probe) EnablePartitions(enable bool) error {
	p.partitions = enable
	return nil
}

func (p *probe) SetPartitionFlags(flags blkid.PartitionFlags) error {
	p.partitionFlags = flags
	return nil
}

func (p *probe) EnableSuperblocks(enable bool) error {
	p.superblocks = enable
	return nil
}

func (p *probe) SetSuperblockFlags(flags blkid.SuperblockFlags) error {
	p.superblockFlags = flags
	return nil
}

func (p *probe) Close() error {
	p.f = nil
	p.values = nil
	return nil
}
