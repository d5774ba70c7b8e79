// Copyright © 2018 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

package mbr

import "encoding/binary"

const (
	MediaTypeOff = 0x15
	MagicOffL    = 0x1fe
	MagicOffM    = 0x1ff
	MagicValL    = 0x55
	MagicValM    = 0xaa

	DiskSignatureOff = 0x1b8
	EntriesOff       = 0x1be
	EntryLen         = 16
	NumEntries       = 4

	EntryBootOff   = 0
	EntryTypeOff   = 4
	EntryStartOff  = 8
	EntrySectorOff = 12

	TypeEmpty       = 0x00
	TypeExtended    = 0x05
	TypeExtendedLBA = 0x0f
	TypeProtective  = 0xee

	MinLen = MagicOffM + 1
)

func isFatValidMedia(s []byte) bool {
	return 0xf8 <= s[MediaTypeOff] || s[MediaTypeOff] == 0xf0
}

func Probe(s []byte) bool {
	if len(s) < MinLen {
		return false
	}
	if s[MagicOffL] == MagicValL && s[MagicOffM] == MagicValM &&
		!isFatValidMedia(s) {
		return true
	}
	return false
}

// Entry is a primary partition table slot.
type Entry struct {
	Boot   byte
	Type   byte
	Start  uint32
	Length uint32
}

func Entries(s []byte) (entries [NumEntries]Entry) {
	for i := range entries {
		e := s[EntriesOff+i*EntryLen:]
		entries[i] = Entry{
			Boot:   e[EntryBootOff],
			Type:   e[EntryTypeOff],
			Start:  binary.LittleEndian.Uint32(e[EntryStartOff:]),
			Length: binary.LittleEndian.Uint32(e[EntrySectorOff:]),
		}
	}
	return
}

func DiskSignature(s []byte) uint32 {
	return binary.LittleEndian.Uint32(s[DiskSignatureOff:])
}

// IsProtective is true of the single 0xee entry that guards a GPT.
func IsProtective(s []byte) bool {
	for _, e := range Entries(s) {
		if e.Type == TypeProtective {
			return true
		}
	}
	return false
}
