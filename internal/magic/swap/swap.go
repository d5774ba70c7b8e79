// Copyright © 2024 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

// Package swap sniffs Linux swap areas. The signature ends the first page
// so it's searched at the end of each supported page size.
package swap

import (
	"bytes"
	"encoding/binary"
)

const (
	MagicLen = 10

	VersionOff = 0x400
	UUIDOff    = 0x40c
	UUIDLen    = 16
	LabelOff   = 0x41c
	LabelLen   = 16

	MinLen = LabelOff + LabelLen
)

var (
	PageSizes = []int{0x1000, 0x2000, 0x4000, 0x10000}

	MagicV0 = []byte("SWAP-SPACE")
	MagicV1 = []byte("SWAPSPACE2")
)

// MagicOffset returns the offset of either signature, or -1.
func MagicOffset(s []byte) int {
	for _, pg := range PageSizes {
		off := pg - MagicLen
		if len(s) < pg {
			break
		}
		chk := s[off:pg]
		if bytes.Equal(chk, MagicV1) || bytes.Equal(chk, MagicV0) {
			return off
		}
	}
	return -1
}

func Probe(s []byte) bool {
	return len(s) >= MinLen && MagicOffset(s) >= 0
}

// IsV1 is true of the SWAPSPACE2 layout that carries a UUID and label.
func IsV1(s []byte) bool {
	off := MagicOffset(s)
	return off >= 0 && bytes.Equal(s[off:off+MagicLen], MagicV1) &&
		binary.LittleEndian.Uint32(s[VersionOff:]) == 1
}

func Version(s []byte) string {
	if IsV1(s) {
		return "1"
	}
	return "0"
}

func UUID(s []byte) []byte { return s[UUIDOff : UUIDOff+UUIDLen] }

func Label(s []byte) []byte {
	return bytes.TrimRight(s[LabelOff:LabelOff+LabelLen], "\x00")
}
