// Copyright © 2024 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

package partitions

import (
	"bytes"
	"encoding/binary"
	"io"
	"testing"

	"github.com/platinasystems/blkid/internal/test"
)

// Linux filesystem data, 0fc63daf-8483-4772-8e79-3d69d8477de4, on disk.
var linuxData = []byte{
	0xaf, 0x3d, 0xc6, 0x0f, 0x83, 0x84, 0x72, 0x47,
	0x8e, 0x79, 0x3d, 0x69, 0xd8, 0x47, 0x7d, 0xe4,
}

var diskGUID = []byte{
	0x78, 0x56, 0x34, 0x12, 0xbc, 0x9a, 0xef, 0x4d,
	0x80, 0x11, 0x22, 0x33, 0x44, 0x55, 0x66, 0x77,
}

const diskGUIDString = "12345678-9abc-4def-8011-223344556677"

func device(img test.Image) *Device {
	s := make([]byte, 0x10000)
	copy(s, img.Header)
	return &Device{
		ReaderAt:   bytes.NewReader(s),
		Header:     s,
		SectorSize: 512,
		Size:       img.Size,
	}
}

func TestDos(t *testing.T) {
	assert := test.Assert{TB: t}
	tbl, err := Read(device(test.Dos(0xdeadbeef,
		test.MBR{Type: 0x0c, Start: 2048, Length: 2048},
		test.MBR{},
		test.MBR{Type: 0x83, Start: 4096, Length: 8192})), false)
	assert.Nil(err)
	assert.True(tbl != nil)
	assert.Equal(tbl.Type, "dos")
	assert.Equal(tbl.UUID, "deadbeef")
	assert.Equal(string(tbl.Magic), "\x55\xaa")
	if len(tbl.Entries) != 2 {
		t.Fatal("expected 2 entries, got", len(tbl.Entries))
	}
	e := tbl.Entries[1]
	assert.True(e.Number == 3)
	assert.Equal(e.Type, "0x83")
	assert.Equal(e.UUID, "deadbeef-03")
	assert.True(e.Offset == 4096*512 && e.Size == 8192*512)
}

func TestGpt(t *testing.T) {
	assert := test.Assert{TB: t}
	tbl, err := Read(device(test.Gpt(diskGUID, test.GPT{
		Type:     linuxData,
		Unique:   diskGUID,
		FirstLBA: 2048,
		LastLBA:  4095,
		Name:     "root",
	})), false)
	assert.Nil(err)
	assert.True(tbl != nil)
	assert.Equal(tbl.Type, "gpt")
	assert.Equal(tbl.UUID, diskGUIDString)
	assert.Equal(string(tbl.Magic), "EFI PART")
	assert.True(tbl.MagicOffset == 512)
	if len(tbl.Entries) != 1 {
		t.Fatal("expected 1 entry, got", len(tbl.Entries))
	}
	e := tbl.Entries[0]
	assert.Equal(e.Type, "0fc63daf-8483-4772-8e79-3d69d8477de4")
	assert.Equal(e.UUID, diskGUIDString)
	assert.Equal(e.Name, "root")
	assert.True(e.Offset == 2048*512 && e.Size == 2048*512)
}

func TestForceGpt(t *testing.T) {
	assert := test.Assert{TB: t}
	img := test.Gpt(diskGUID)
	// wipe the protective MBR
	for i := 0; i < 512; i++ {
		img.Header[i] = 0
	}
	tbl, err := Read(device(img), false)
	assert.Nil(err)
	assert.True(tbl == nil)
	tbl, err = Read(device(img), true)
	assert.Nil(err)
	assert.True(tbl != nil)
	assert.Equal(tbl.Type, "gpt")
}

func TestNone(t *testing.T) {
	assert := test.Assert{TB: t}
	tbl, err := Read(device(test.Fat16("EFI", 1)), true)
	assert.Nil(err)
	assert.True(tbl == nil)
}

func TestCorruptGpt(t *testing.T) {
	assert := test.Assert{TB: t}
	for _, lba := range []uint64{^uint64(0), 1 << 63, 64 << 11} {
		img := test.Gpt(diskGUID, test.GPT{
			Type:     linuxData,
			FirstLBA: 2048,
			LastLBA:  4095,
		})
		binary.LittleEndian.PutUint64(img.Header[512+72:], lba)
		tbl, err := Read(device(img), false)
		assert.Error(err, ErrCorrupt)
		assert.True(tbl == nil)
	}
}

func TestReadAtBounds(t *testing.T) {
	assert := test.Assert{TB: t}
	dev := device(test.Gpt(diskGUID))
	for _, x := range [][2]int64{
		{-512, 512},
		{0, -1},
		{1 << 62, 1 << 62},
		{dev.Size - 256, 512},
	} {
		_, err := readAt(dev, x[0], x[1])
		assert.Error(err, io.ErrUnexpectedEOF)
	}
	b, err := readAt(dev, 512, 8)
	assert.Nil(err)
	assert.Equal(string(b), "EFI PART")
}
