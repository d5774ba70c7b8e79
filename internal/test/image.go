// Copyright © 2024 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

package test

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/text/encoding/unicode"
)

// Image is the leading bytes of a sparse disk image of Size bytes.
type Image struct {
	Header []byte
	Size   int64
}

// Write the image to a file in the test's temporary directory.
func (img Image) Write(tb testing.TB, name string) string {
	tb.Helper()
	fn := filepath.Join(tb.TempDir(), name)
	f, err := os.Create(fn)
	if err != nil {
		tb.Fatal(err)
	}
	defer f.Close()
	if _, err = f.Write(img.Header); err != nil {
		tb.Fatal(err)
	}
	if err = f.Truncate(img.Size); err != nil {
		tb.Fatal(err)
	}
	return fn
}

func pad(b []byte, n int, c byte) []byte {
	p := make([]byte, n)
	for i := range p {
		p[i] = c
	}
	copy(p, b)
	return p
}

const mib = 1 << 20

// Fat16 is a 16MiB FAT16 volume with the given label and serial.
func Fat16(label string, serial uint32) Image {
	s := make([]byte, 0x200)
	copy(s, []byte{0xeb, 0x3c, 0x90})
	copy(s[3:], "MSWIN4.1")
	binary.LittleEndian.PutUint16(s[0x0b:], 512) // bytes per sector
	s[0x0d] = 4                                  // sectors per cluster
	binary.LittleEndian.PutUint16(s[0x0e:], 1)   // reserved
	s[0x10] = 2                                  // FATs
	binary.LittleEndian.PutUint16(s[0x11:], 512) // root entries
	binary.LittleEndian.PutUint16(s[0x13:], 16*mib/512)
	s[0x15] = 0xf8
	binary.LittleEndian.PutUint16(s[0x16:], 32) // sectors per FAT
	s[0x26] = 0x29
	binary.LittleEndian.PutUint32(s[0x27:], serial)
	copy(s[0x2b:], pad([]byte(label), 11, ' '))
	copy(s[0x36:], "FAT16   ")
	s[0x1fe], s[0x1ff] = 0x55, 0xaa
	return Image{s, 16 * mib}
}

// Ext builds an ext superblock with the given compat, incompat and
// read-only compat features.
func Ext(label string, uuid []byte, compat, incompat, rocompat uint32) Image {
	s := make([]byte, 0x800)
	sb := s[0x400:]
	binary.LittleEndian.PutUint32(sb[0x04:], 16*mib/4096) // blocks
	sb[0x38], sb[0x39] = 0x53, 0xef
	binary.LittleEndian.PutUint32(sb[0x4c:], 1) // revision
	binary.LittleEndian.PutUint32(sb[0x5c:], compat)
	binary.LittleEndian.PutUint32(sb[0x60:], incompat)
	binary.LittleEndian.PutUint32(sb[0x64:], rocompat)
	copy(sb[0x68:], uuid)
	copy(sb[0x78:], label)
	return Image{s, 16 * mib}
}

// Ext4 has a journal, extents and file types.
func Ext4(label string, uuid []byte) Image {
	return Ext(label, uuid, 0x4, 0x2|0x40, 0x1|0x2)
}

// MBR entry: type, start and length in 512 byte sectors.
type MBR struct {
	Type          byte
	Start, Length uint32
}

// Dos is a 64MiB disk with a MBR and the given primary entries.
func Dos(signature uint32, entries ...MBR) Image {
	s := make([]byte, 0x200)
	binary.LittleEndian.PutUint32(s[0x1b8:], signature)
	for i, e := range entries {
		p := s[0x1be+i*16:]
		p[4] = e.Type
		binary.LittleEndian.PutUint32(p[8:], e.Start)
		binary.LittleEndian.PutUint32(p[12:], e.Length)
	}
	s[0x1fe], s[0x1ff] = 0x55, 0xaa
	return Image{s, 64 * mib}
}

// GPT entry with on-disk (mixed-endian) GUIDs.
type GPT struct {
	Type, Unique      []byte
	FirstLBA, LastLBA uint64
	Name              string
}

// Gpt is a 64MiB disk with a protective MBR, a GPT header at LBA 1 and
// 128 entries from LBA 2.
func Gpt(diskGUID []byte, entries ...GPT) Image {
	const sectors = 64 * mib / 512
	img := Dos(0, MBR{0xee, 1, sectors - 1})
	s := make([]byte, 34*512)
	copy(s, img.Header)
	h := s[512:]
	copy(h, "EFI PART")
	binary.LittleEndian.PutUint32(h[8:], 0x00010000)
	binary.LittleEndian.PutUint32(h[12:], 92)
	binary.LittleEndian.PutUint64(h[24:], 1)
	binary.LittleEndian.PutUint64(h[32:], sectors-1)
	binary.LittleEndian.PutUint64(h[40:], 34)
	binary.LittleEndian.PutUint64(h[48:], sectors-34)
	copy(h[56:], diskGUID)
	binary.LittleEndian.PutUint64(h[72:], 2)
	binary.LittleEndian.PutUint32(h[80:], 128)
	binary.LittleEndian.PutUint32(h[84:], 128)
	enc := unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM).NewEncoder()
	for i, e := range entries {
		p := s[1024+i*128:]
		copy(p, e.Type)
		copy(p[16:], e.Unique)
		binary.LittleEndian.PutUint64(p[32:], e.FirstLBA)
		binary.LittleEndian.PutUint64(p[40:], e.LastLBA)
		name, err := enc.Bytes([]byte(e.Name))
		if err == nil {
			copy(p[56:128], name)
		}
	}
	return Image{s, 64 * mib}
}

// Iso9660 has primary, Joliet and terminator descriptors; an empty
// joliet label omits the Joliet descriptor.
func Iso9660(label, joliet, created string) Image {
	s := make([]byte, 0x9800)
	vd := func(off int, t byte) []byte {
		d := s[off : off+0x800]
		d[0] = t
		copy(d[1:], "CD001")
		d[6] = 1
		return d
	}
	pvd := vd(0x8000, 1)
	copy(pvd[40:], pad([]byte(label), 32, ' '))
	copy(pvd[813:], created)
	next := 0x8800
	if len(joliet) > 0 {
		svd := vd(next, 2)
		copy(svd[88:], "%/E")
		enc := unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM).NewEncoder()
		name, _ := enc.Bytes([]byte(joliet))
		id := svd[40:72]
		for i := 0; i < len(id); i += 2 {
			id[i], id[i+1] = 0, ' '
		}
		copy(id, name)
		next += 0x800
	}
	vd(next, 255)
	return Image{s, 4 * mib}
}

// Swap is a version 1 swap area on 4KiB pages.
func Swap(label string, uuid []byte) Image {
	s := make([]byte, 0x1000)
	binary.LittleEndian.PutUint32(s[0x400:], 1)
	binary.LittleEndian.PutUint32(s[0x404:], 16*mib/4096-1)
	copy(s[0x40c:], uuid)
	copy(s[0x41c:], label)
	copy(s[0x1000-10:], "SWAPSPACE2")
	return Image{s, 16 * mib}
}
