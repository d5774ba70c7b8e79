// Copyright © 2024 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

package sniffer

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/platinasystems/blkid"
	"github.com/platinasystems/blkid/internal/partitions"
	"github.com/platinasystems/blkid/internal/test"
)

var testUUID = []byte{
	0x12, 0x34, 0x56, 0x78, 0x9a, 0xbc, 0x4d, 0xef,
	0x80, 0x11, 0x22, 0x33, 0x44, 0x55, 0x66, 0x77,
}

// on-disk GPT byte order of the same GUID
var testGUID = []byte{
	0x78, 0x56, 0x34, 0x12, 0xbc, 0x9a, 0xef, 0x4d,
	0x80, 0x11, 0x22, 0x33, 0x44, 0x55, 0x66, 0x77,
}

const testUUIDString = "12345678-9abc-4def-8011-223344556677"

// EFI System, c12a7328-f81f-11d2-ba4b-00a0c93ec93b
var efiSystem = []byte{
	0x28, 0x73, 0x2a, 0xc1, 0x1f, 0xf8, 0xd2, 0x11,
	0xba, 0x4b, 0x00, 0xa0, 0xc9, 0x3e, 0xc9, 0x3b,
}

func open(t *testing.T, fn string) *blkid.Session {
	t.Helper()
	s := blkid.New(fn, New())
	if err := s.Open(blkid.ReadOnly); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func results(t *testing.T, s *blkid.Session, kind blkid.ProbeKind) blkid.Values {
	t.Helper()
	if err := s.Probe(kind); err != nil {
		t.Fatal(err)
	}
	vs, err := s.Results()
	if err != nil {
		t.Fatal(err)
	}
	return vs
}

func expect(t *testing.T, vs blkid.Values, want ...string) {
	t.Helper()
	var got []string
	for _, v := range vs {
		got = append(got, v.String())
	}
	if g, w := strings.Join(got, " "), strings.Join(want, " "); g != w {
		t.Errorf("\n\tgot:  %s\n\twant: %s", g, w)
	}
}

func TestSafeVfat(t *testing.T) {
	s := open(t, test.Fat16("EFI", 0x1234abcd).Write(t, "fat.img"))
	expect(t, results(t, s, blkid.Safe),
		"LABEL=EFI",
		"UUID=1234-ABCD",
		"TYPE=vfat",
		"SEC_TYPE=msdos",
		"SIZE=16777216")
}

func TestMissing(t *testing.T) {
	s := blkid.New(filepath.Join(t.TempDir(), "missing"), New())
	assert := test.Assert{TB: t}
	err := s.Open(blkid.ReadOnly)
	assert.Error(err, blkid.ErrResource)
	assert.Error(err, os.ErrNotExist)
	assert.True(s.State() == blkid.Unopened)
}

func TestDirectory(t *testing.T) {
	s := blkid.New(t.TempDir(), New())
	assert := test.Assert{TB: t}
	err := s.Open(blkid.ReadOnly)
	assert.Error(err, blkid.ErrResource)
	assert.Error(err, ErrNotSupported)
}

func TestPartitions(t *testing.T) {
	fn := test.Gpt(testGUID, test.GPT{
		Type:     efiSystem,
		Unique:   testGUID,
		FirstLBA: 2048,
		LastLBA:  4095,
		Name:     "EFI system",
	}).Write(t, "gpt.img")
	s := open(t, fn)
	test.Assert{TB: t}.Nil(s.SetPartitionFlags(blkid.PartitionEntryDetails |
		blkid.PartitionMagic))
	expect(t, results(t, s, blkid.Full),
		"PTUUID="+testUUIDString,
		"PTTYPE=gpt",
		"PTMAGIC=EFI PART",
		"PTMAGIC_OFFSET=512",
		"PART_ENTRY_1_TYPE=c12a7328-f81f-11d2-ba4b-00a0c93ec93b",
		"PART_ENTRY_1_UUID="+testUUIDString,
		"PART_ENTRY_1_NAME=EFI system",
		"PART_ENTRY_1_OFFSET=1048576",
		"PART_ENTRY_1_SIZE=1048576",
		"SIZE=67108864")
}

// extDos is an ext4 filesystem behind a dos partition table.
func extDos() test.Image {
	img := test.Ext4("root", testUUID)
	copy(img.Header, test.Dos(0xdeadbeef, test.MBR{Type: 0x83, Start: 2048, Length: 4096}).Header)
	return img
}

func TestDisablePartitions(t *testing.T) {
	s := open(t, extDos().Write(t, "extdos.img"))
	assert := test.Assert{TB: t}
	assert.Nil(s.SetPartitionFlags(blkid.PartitionEntryDetails))
	expect(t, results(t, s, blkid.Full),
		"LABEL=root",
		"UUID="+testUUIDString,
		"TYPE=ext4",
		"PTUUID=deadbeef",
		"PTTYPE=dos",
		"PART_ENTRY_1_TYPE=0x83",
		"PART_ENTRY_1_UUID=deadbeef-01",
		"PART_ENTRY_1_OFFSET=1048576",
		"PART_ENTRY_1_SIZE=2097152",
		"SIZE=16777216")
	assert.Nil(s.DisablePartitions())
	vs := results(t, s, blkid.Full)
	for _, v := range vs {
		if strings.HasPrefix(v.Name, "PT") ||
			strings.HasPrefix(v.Name, "PART_ENTRY_") {
			t.Error("partitions disabled, found", v)
		}
	}
	expect(t, vs,
		"LABEL=root",
		"UUID="+testUUIDString,
		"TYPE=ext4",
		"SIZE=16777216")
}

func TestCorruptGPT(t *testing.T) {
	img := test.Gpt(testGUID)
	binary.LittleEndian.PutUint64(img.Header[512+72:], ^uint64(0))
	s := open(t, img.Write(t, "corrupt.img"))
	assert := test.Assert{TB: t}
	err := s.Probe(blkid.Safe)
	assert.Error(err, blkid.ErrResource)
	assert.Error(err, partitions.ErrCorrupt)
	vs, err := s.Results()
	assert.Nil(err)
	assert.True(len(vs) == 0)
	assert.Nil(s.DisablePartitions())
	expect(t, results(t, s, blkid.Safe), "SIZE=67108864")
}

func TestForceGPT(t *testing.T) {
	img := test.Gpt(testGUID)
	for i := 0x1be; i < 0x1fe; i++ {
		img.Header[i] = 0
	}
	s := open(t, img.Write(t, "gpt.img"))
	expect(t, results(t, s, blkid.Safe), "PTTYPE=dos", "SIZE=67108864")
	test.Assert{TB: t}.Nil(s.SetPartitionFlags(blkid.PartitionForceGPT))
	expect(t, results(t, s, blkid.Safe),
		"PTUUID="+testUUIDString,
		"PTTYPE=gpt",
		"SIZE=67108864")
}

func ambivalent() test.Image {
	img := test.Ext4("root", testUUID)
	s := make([]byte, 0x1000)
	copy(s, img.Header)
	copy(s[0x1000-10:], "SWAPSPACE2")
	img.Header = s
	return img
}

func TestAmbivalent(t *testing.T) {
	s := open(t, ambivalent().Write(t, "ambivalent.img"))
	assert := test.Assert{TB: t}
	err := s.Probe(blkid.Safe)
	assert.Error(err, blkid.ErrResource)
	assert.Error(err, blkid.ErrAmbivalent)
	assert.Match(err.Error(), "ext4, swap")
	vs, err := s.Results()
	assert.Nil(err)
	assert.True(len(vs) == 0)
	expect(t, results(t, s, blkid.Full),
		"LABEL=root",
		"UUID="+testUUIDString,
		"TYPE=ext4",
		"SIZE=16777216")
	expect(t, results(t, s, blkid.Normal),
		"LABEL=root",
		"UUID="+testUUIDString,
		"TYPE=ext4",
		"SIZE=16777216")
}

func TestSuperblockFlags(t *testing.T) {
	s := open(t, test.Ext4("root", testUUID).Write(t, "ext4.img"))
	assert := test.Assert{TB: t}
	assert.Nil(s.SetSuperblockFlags(blkid.SuperblockType |
		blkid.SuperblockUsage | blkid.SuperblockVersion |
		blkid.SuperblockUUIDRaw | blkid.SuperblockMagic))
	expect(t, results(t, s, blkid.Safe),
		"UUID_RAW=123456789abc4def8011223344556677",
		"VERSION=1.0",
		"TYPE=ext4",
		"USAGE=filesystem",
		"SBMAGIC=\x53\xef",
		"SBMAGIC_OFFSET=1080",
		"SIZE=16777216")
	assert.Error(s.SetSuperblockFlags(1<<31), blkid.ErrInvalidArgument)
}

func TestDisableSuperblocks(t *testing.T) {
	s := open(t, test.Fat16("EFI", 1).Write(t, "fat.img"))
	test.Assert{TB: t}.Nil(s.DisableSuperblocks())
	expect(t, results(t, s, blkid.Safe), "SIZE=16777216")
}

func TestEmpty(t *testing.T) {
	s := open(t, test.Image{Size: 1 << 20}.Write(t, "empty.img"))
	expect(t, results(t, s, blkid.Safe), "SIZE=1048576")
}

func TestShortImage(t *testing.T) {
	s := open(t, test.Image{Header: []byte("tiny"), Size: 4}.
		Write(t, "tiny.img"))
	expect(t, results(t, s, blkid.Full), "SIZE=4")
}
