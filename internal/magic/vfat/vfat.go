// Copyright © 2018 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

// Package vfat sniffs FAT12, FAT16 and FAT32 boot sectors.
package vfat

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"golang.org/x/text/encoding/charmap"
)

const (
	BytesPerSectorOff    = 0x0b
	SectorsPerClusterOff = 0x0d
	ReservedSectorsOff   = 0x0e
	NumFATsOff           = 0x10
	RootEntriesOff       = 0x11
	TotalSectors16Off    = 0x13
	MediaTypeOff         = 0x15
	FATSize16Off         = 0x16
	TotalSectors32Off    = 0x20
	FATSize32Off         = 0x24

	Fat16SerialOff = 0x27
	Fat16LabelOff  = 0x2b
	Fat16MagicOff  = 0x36
	Fat32SerialOff = 0x43
	Fat32LabelOff  = 0x47
	Fat32MagicOff  = 0x52

	LabelLen = 11

	MinLen = 0x200
)

var (
	fat16Magics = [][]byte{
		[]byte("MSDOS"),
		[]byte("FAT     "),
		[]byte("FAT12   "),
		[]byte("FAT16   "),
		[]byte("MSDOS   "),
	}
	fat32Magics = [][]byte{
		[]byte("MSWIN"),
		[]byte("FAT32   "),
	}
	noName = []byte("NO NAME    ")
)

func checkMagic(s []byte, o int, magics ...[]byte) []byte {
	for _, m := range magics {
		chk := s[o : o+len(m)]
		if bytes.Equal(chk, m) {
			return m
		}
	}
	return nil
}

// IsValidMedia is true for the media descriptor of any FAT volume.
func IsValidMedia(b byte) bool {
	return 0xf8 <= b || b == 0xf0
}

func isPowerOf2(u uint) bool { return u != 0 && u&(u-1) == 0 }

// Probe requires one of the FAT type strings and a sane BIOS parameter
// block; a jump instruction alone also starts most MBR boot loaders.
func Probe(s []byte) bool {
	if len(s) < MinLen {
		return false
	}
	if Magic(s) == nil {
		return false
	}
	bps := uint(binary.LittleEndian.Uint16(s[BytesPerSectorOff:]))
	if bps < 512 || bps > 4096 || !isPowerOf2(bps) {
		return false
	}
	if !isPowerOf2(uint(s[SectorsPerClusterOff])) {
		return false
	}
	if binary.LittleEndian.Uint16(s[ReservedSectorsOff:]) == 0 {
		return false
	}
	if n := s[NumFATsOff]; n == 0 || n > 2 {
		return false
	}
	return IsValidMedia(s[MediaTypeOff])
}

// Magic returns the matching type string, or nil.
func Magic(s []byte) []byte {
	if m := checkMagic(s, Fat32MagicOff, fat32Magics...); m != nil {
		return m
	}
	return checkMagic(s, Fat16MagicOff, fat16Magics...)
}

// MagicOffset of a Magic match.
func MagicOffset(s []byte) int {
	if checkMagic(s, Fat32MagicOff, fat32Magics...) != nil {
		return Fat32MagicOff
	}
	return Fat16MagicOff
}

func isFat32(s []byte) bool {
	return binary.LittleEndian.Uint16(s[FATSize16Off:]) == 0
}

// Version returns "FAT12", "FAT16" or "FAT32" by cluster count.
func Version(s []byte) string {
	if isFat32(s) {
		return "FAT32"
	}
	bps := uint64(binary.LittleEndian.Uint16(s[BytesPerSectorOff:]))
	spc := uint64(s[SectorsPerClusterOff])
	reserved := uint64(binary.LittleEndian.Uint16(s[ReservedSectorsOff:]))
	fats := uint64(s[NumFATsOff])
	rootEntries := uint64(binary.LittleEndian.Uint16(s[RootEntriesOff:]))
	total := uint64(binary.LittleEndian.Uint16(s[TotalSectors16Off:]))
	if total == 0 {
		total = uint64(binary.LittleEndian.Uint32(s[TotalSectors32Off:]))
	}
	fatSize := uint64(binary.LittleEndian.Uint16(s[FATSize16Off:]))
	meta := reserved + fats*fatSize + (rootEntries*32+bps-1)/bps
	if total <= meta {
		return "FAT12"
	}
	if (total-meta)/spc < 4085 {
		return "FAT12"
	}
	return "FAT16"
}

// Serial is the volume id in the "XXXX-XXXX" form used as UUID.
func Serial(s []byte) string {
	id := binary.LittleEndian.Uint32(s[serialOff(s):])
	return fmt.Sprintf("%04X-%04X", id>>16, id&0xffff)
}

// SerialRaw returns the little-endian volume id bytes.
func SerialRaw(s []byte) []byte {
	o := serialOff(s)
	return s[o : o+4]
}

func serialOff(s []byte) int {
	if isFat32(s) {
		return Fat32SerialOff
	}
	return Fat16SerialOff
}

// LabelRaw returns the boot sector label, nil if unset.
func LabelRaw(s []byte) []byte {
	o := Fat16LabelOff
	if isFat32(s) {
		o = Fat32LabelOff
	}
	label := s[o : o+LabelLen]
	if bytes.Equal(label, noName) || label[0] == 0 {
		return nil
	}
	return bytes.TrimRight(label, " \x00")
}

// Label decodes LabelRaw from the DOS code page.
func Label(s []byte) string {
	raw := LabelRaw(s)
	if raw == nil {
		return ""
	}
	b, err := charmap.CodePage437.NewDecoder().Bytes(raw)
	if err != nil {
		return string(raw)
	}
	return string(b)
}
