// Copyright © 2018 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

// Package ext sniffs ext2, ext3, ext4 and external journal superblocks.
package ext

import (
	"encoding/binary"
	"fmt"
)

const (
	SuperblockOff = 0x400

	MagicOffL = 0x438
	MagicOffM = 0x439

	MagicValL = 0x53
	MagicValM = 0xef

	MinorRevLevelOff = 0x43e
	RevLevelOff      = 0x44c

	FeatureCompatOff            = 0x45c
	FeatureCompatExt3HasJournal = 0x4

	FeatureIncompatOff            = 0x460
	FeatureIncompatExt2Filetype   = 0x2
	FeatureIncompatExt3Recover    = 0x4
	FeatureIncompatExt3JournalDev = 0x8
	FeatureIncompatExt2MetaBg     = 0x10
	FeatureIncompatExt4Extents    = 0x40
	FeatureIncompatExt464Bit      = 0x80
	FeatureIncompatExt4MMP        = 0x100
	FeatureIncompatExt4FlexBg     = 0x200

	FeatureIncompatExt2Unsupp = (FeatureIncompatExt2Filetype | FeatureIncompatExt2MetaBg) ^ 0xffff
	FeatureIncompatExt3Unsupp = (FeatureIncompatExt2Filetype | FeatureIncompatExt3Recover | FeatureIncompatExt2MetaBg) ^ 0xffff

	FeatureRoCompatOff             = 0x464
	FeatureRoCompatExt2SparseSuper = 0x1
	FeatureRoCompatExt2LargeFile   = 0x2
	FeatureRoCompatExt2BtreeDir    = 0x4
	FeatureRoCompatExt4HugeFile    = 0x8
	FeatureRoCompatExt4GdtCsum     = 0x10
	FeatureRoCompatExt4DirNlink    = 0x20
	FeatureRoCompatExt4ExtraIsize  = 0x40

	FeatureRoCompatExt2Unsupp = (FeatureRoCompatExt2SparseSuper | FeatureRoCompatExt2LargeFile | FeatureRoCompatExt2BtreeDir) ^ 0xffff
	FeatureRoCompatExt3Unsupp = (FeatureRoCompatExt2SparseSuper | FeatureRoCompatExt2LargeFile | FeatureRoCompatExt2BtreeDir) ^ 0xffff

	UUIDOff  = 0x468
	UUIDLen  = 16
	LabelOff = 0x478
	LabelLen = 16

	// MinLen is the header length needed by all of the above.
	MinLen = LabelOff + LabelLen
)

func Probe(s []byte) bool {
	if len(s) < MinLen {
		return false
	}
	return s[MagicOffL] == MagicValL && s[MagicOffM] == MagicValM
}

func Compat(s []byte) (compat uint32, incompat uint32, roCompat uint32) {
	compat = binary.LittleEndian.Uint32(s[FeatureCompatOff:])
	incompat = binary.LittleEndian.Uint32(s[FeatureIncompatOff:])
	roCompat = binary.LittleEndian.Uint32(s[FeatureRoCompatOff:])

	return
}

// Kind returns "jbd", "ext2", "ext3" or "ext4" of a probed superblock.
func Kind(s []byte) string {
	compat, incompat, rocompat := Compat(s)

	if (incompat & FeatureIncompatExt3JournalDev) != 0 {
		return "jbd"
	}
	if (compat & FeatureCompatExt3HasJournal) != 0 {
		if (incompat&FeatureIncompatExt3Unsupp) == 0 &&
			(rocompat&FeatureRoCompatExt3Unsupp) == 0 {
			return "ext3"
		}
		return "ext4"
	}
	if (incompat&FeatureIncompatExt2Unsupp) == 0 &&
		(rocompat&FeatureRoCompatExt2Unsupp) == 0 {
		return "ext2"
	}
	return "ext4"
}

func UUID(s []byte) []byte { return s[UUIDOff : UUIDOff+UUIDLen] }

func Label(s []byte) []byte { return s[LabelOff : LabelOff+LabelLen] }

func Version(s []byte) string {
	return fmt.Sprint(binary.LittleEndian.Uint32(s[RevLevelOff:]), ".",
		binary.LittleEndian.Uint16(s[MinorRevLevelOff:]))
}
