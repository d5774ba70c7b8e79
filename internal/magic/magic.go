// Copyright © 2017 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

// Package magic identifies superblocks in a device header.
package magic

import (
	"bytes"
	"encoding/hex"

	"github.com/platinasystems/blkid/internal/magic/ext"
	"github.com/platinasystems/blkid/internal/magic/iso9660"
	"github.com/platinasystems/blkid/internal/magic/swap"
	"github.com/platinasystems/blkid/internal/magic/vfat"
	"github.com/satori/go.uuid"
)

// HeaderLen is enough of the device to identify every superblock here.
const HeaderLen = 0x10000

const (
	UsageFilesystem = "filesystem"
	UsageOther      = "other"
)

// Superblock attributes; empty strings and nil slices are absent.
type Superblock struct {
	Type     string
	SecType  string
	Usage    string
	Version  string
	Label    string
	LabelRaw []byte
	UUID     string
	UUIDRaw  []byte

	Magic       []byte
	MagicOffset int64
}

// UUIDRawString is the lower case hex of UUIDRaw.
func (sb *Superblock) UUIDRawString() string {
	return hex.EncodeToString(sb.UUIDRaw)
}

type Detector struct {
	Name  string
	Probe func([]byte) bool
	Read  func([]byte) *Superblock
}

// Detectors in priority order.
var Detectors = []Detector{
	{"ext", ext.Probe, readExt},
	{"vfat", vfat.Probe, readVfat},
	{"iso9660", iso9660.Probe, readIso9660},
	{"swap", swap.Probe, readSwap},
}

// Detect returns the superblocks of all matching detectors in priority
// order.
func Detect(s []byte) []*Superblock {
	var sbs []*Superblock
	for _, d := range Detectors {
		if d.Probe(s) {
			sbs = append(sbs, d.Read(s))
		}
	}
	return sbs
}

// First returns the superblock of the first matching detector, or nil.
func First(s []byte) *Superblock {
	for _, d := range Detectors {
		if d.Probe(s) {
			return d.Read(s)
		}
	}
	return nil
}

func uuidString(b []byte) string {
	u, err := uuid.FromBytes(b)
	if err != nil || uuid.Equal(u, uuid.Nil) {
		return ""
	}
	return u.String()
}

func readExt(s []byte) *Superblock {
	sb := &Superblock{
		Type:        ext.Kind(s),
		Usage:       UsageFilesystem,
		Version:     ext.Version(s),
		LabelRaw:    bytes.TrimRight(ext.Label(s), "\x00"),
		UUIDRaw:     ext.UUID(s),
		Magic:       s[ext.MagicOffL : ext.MagicOffM+1],
		MagicOffset: ext.MagicOffL,
	}
	sb.Label = string(sb.LabelRaw)
	sb.UUID = uuidString(sb.UUIDRaw)
	switch sb.Type {
	case "ext3":
		sb.SecType = "ext2"
	case "jbd":
		sb.Usage = UsageOther
	}
	return sb
}

func readVfat(s []byte) *Superblock {
	sb := &Superblock{
		Type:        "vfat",
		Usage:       UsageFilesystem,
		Version:     vfat.Version(s),
		Label:       vfat.Label(s),
		LabelRaw:    vfat.LabelRaw(s),
		UUID:        vfat.Serial(s),
		UUIDRaw:     vfat.SerialRaw(s),
		Magic:       vfat.Magic(s),
		MagicOffset: int64(vfat.MagicOffset(s)),
	}
	if sb.Version != "FAT32" {
		sb.SecType = "msdos"
	}
	return sb
}

func readIso9660(s []byte) *Superblock {
	off := iso9660.MagicOffset(s)
	sb := &Superblock{
		Type:        "iso9660",
		Usage:       UsageFilesystem,
		Label:       iso9660.Label(s),
		LabelRaw:    iso9660.LabelRaw(s),
		UUID:        iso9660.UUID(s),
		Magic:       s[off : off+5],
		MagicOffset: int64(off),
	}
	return sb
}

func readSwap(s []byte) *Superblock {
	off := swap.MagicOffset(s)
	sb := &Superblock{
		Type:        "swap",
		Usage:       UsageOther,
		Version:     swap.Version(s),
		Magic:       s[off : off+swap.MagicLen],
		MagicOffset: int64(off),
	}
	if swap.IsV1(s) {
		sb.LabelRaw = swap.Label(s)
		sb.Label = string(sb.LabelRaw)
		sb.UUIDRaw = swap.UUID(s)
		sb.UUID = uuidString(sb.UUIDRaw)
	}
	return sb
}
