// Copyright © 2024 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

package blkid

import (
	"fmt"
	"strconv"
	"strings"
)

// SuperblockFlags selects which superblock attributes a probe reports.
type SuperblockFlags uint32

const (
	SuperblockLabel    SuperblockFlags = 1 << iota // LABEL
	SuperblockLabelRaw                             // LABEL_RAW
	SuperblockUUID                                 // UUID
	SuperblockUUIDRaw                              // UUID_RAW
	SuperblockType                                 // TYPE
	SuperblockSecType                              // SEC_TYPE
	SuperblockUsage                                // USAGE
	SuperblockVersion                              // VERSION
	SuperblockMagic                                // SBMAGIC, SBMAGIC_OFFSET

	SuperblockDefault = SuperblockLabel | SuperblockUUID |
		SuperblockType | SuperblockSecType
	superblockAll = SuperblockMagic<<1 - 1
)

var superblockFlagNames = []string{
	"label",
	"label-raw",
	"uuid",
	"uuid-raw",
	"type",
	"sec-type",
	"usage",
	"version",
	"magic",
}

func (f SuperblockFlags) Has(bits SuperblockFlags) bool { return f&bits == bits }

func (f SuperblockFlags) IsValid() bool { return f&^superblockAll == 0 }

func (f SuperblockFlags) String() string {
	return flagString(uint32(f), superblockFlagNames)
}

// PartitionFlags tunes the partition table readers.
type PartitionFlags uint32

const (
	// PartitionForceGPT reads a GPT header even without a protective MBR.
	PartitionForceGPT PartitionFlags = 1 << iota
	// PartitionEntryDetails reports PART_ENTRY_<n>_* for each entry.
	PartitionEntryDetails
	// PartitionMagic reports PTMAGIC and PTMAGIC_OFFSET.
	PartitionMagic

	partitionAll = PartitionMagic<<1 - 1
)

var partitionFlagNames = []string{
	"force-gpt",
	"entry-details",
	"magic",
}

func (f PartitionFlags) Has(bits PartitionFlags) bool { return f&bits == bits }

func (f PartitionFlags) IsValid() bool { return f&^partitionAll == 0 }

func (f PartitionFlags) String() string {
	return flagString(uint32(f), partitionFlagNames)
}

// ParseSuperblockFlags accepts a number or names joined by '|' or ','.
//
//	ParseSuperblockFlags("type|uuid|label")
//	ParseSuperblockFlags("0x15")
func ParseSuperblockFlags(s string) (SuperblockFlags, error) {
	u, err := parseFlags(s, superblockFlagNames)
	return SuperblockFlags(u), err
}

// ParsePartitionFlags is the PartitionFlags analog of ParseSuperblockFlags.
func ParsePartitionFlags(s string) (PartitionFlags, error) {
	u, err := parseFlags(s, partitionFlagNames)
	return PartitionFlags(u), err
}

func flagString(u uint32, names []string) string {
	if u == 0 {
		return "none"
	}
	var sep string
	buf := new(strings.Builder)
	for i, name := range names {
		if u&(1<<uint(i)) != 0 {
			buf.WriteString(sep)
			buf.WriteString(name)
			sep = "|"
			u &^= 1 << uint(i)
		}
	}
	if u != 0 {
		fmt.Fprintf(buf, "%s%#x", sep, u)
	}
	return buf.String()
}

func parseFlags(s string, names []string) (uint32, error) {
	s = strings.TrimSpace(s)
	if len(s) == 0 || s == "none" {
		return 0, nil
	}
	if u, err := strconv.ParseUint(s, 0, 32); err == nil {
		if u>>uint(len(names)) != 0 {
			return 0, fmt.Errorf("%s: %w", s, ErrInvalidArgument)
		}
		return uint32(u), nil
	}
	var u uint32
next:
	for _, field := range strings.FieldsFunc(s, func(r rune) bool {
		return r == '|' || r == ','
	}) {
		field = strings.TrimSpace(field)
		for i, name := range names {
			if field == name {
				u |= 1 << uint(i)
				continue next
			}
		}
		return 0, fmt.Errorf("%s: unknown flag: %w", field,
			ErrInvalidArgument)
	}
	return u, nil
}
