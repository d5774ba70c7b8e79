// Copyright © 2018 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

package iso9660

import (
	"bytes"
	"strings"

	"golang.org/x/text/encoding/unicode"
)

const (
	MagicOff1 = 0x8001
	MagicOff2 = 0x8801
	MagicOff3 = 0x9001

	MagicVal1 = 'C'
	MagicVal2 = 'D'
	MagicVal3 = '0'
	MagicVal4 = '0'
	MagicVal5 = '1'

	DescriptorOff  = 0x8000
	DescriptorLen  = 0x800
	MaxDescriptors = 16

	TypeOff           = 0
	TypePrimary       = 1
	TypeSupplementary = 2
	TypeTerminator    = 255
	VolumeIdOff       = 40
	VolumeIdLen       = 32
	EscapeOff         = 88
	CreationDateOff   = 813
	CreationDateLen   = 16

	MinLen = DescriptorOff + DescriptorLen
)

// YYYY MM DD hh mm ss cc
var creationDateWidths = []int{4, 2, 2, 2, 2, 2, 2}

var jolietEscapes = [][]byte{
	[]byte("%/@"),
	[]byte("%/C"),
	[]byte("%/E"),
}

func isValidSignature(s []byte, off int) bool {
	return len(s) > off+4 &&
		s[off] == MagicVal1 &&
		s[off+1] == MagicVal2 &&
		s[off+2] == MagicVal3 &&
		s[off+3] == MagicVal4 &&
		s[off+4] == MagicVal5
}

func Probe(s []byte) bool {
	return isValidSignature(s, MagicOff1) ||
		isValidSignature(s, MagicOff2) ||
		isValidSignature(s, MagicOff3)
}

// MagicOffset of the first volume descriptor signature.
func MagicOffset(s []byte) int {
	for _, off := range []int{MagicOff1, MagicOff2, MagicOff3} {
		if isValidSignature(s, off) {
			return off
		}
	}
	return -1
}

func descriptors(s []byte) [][]byte {
	var vds [][]byte
	for i := 0; i < MaxDescriptors; i++ {
		off := DescriptorOff + i*DescriptorLen
		if len(s) < off+DescriptorLen || !isValidSignature(s, off+1) {
			break
		}
		vd := s[off : off+DescriptorLen]
		if vd[TypeOff] == TypeTerminator {
			break
		}
		vds = append(vds, vd)
	}
	return vds
}

func primary(s []byte) []byte {
	for _, vd := range descriptors(s) {
		if vd[TypeOff] == TypePrimary {
			return vd
		}
	}
	return nil
}

// LabelRaw is the primary volume identifier.
func LabelRaw(s []byte) []byte {
	vd := primary(s)
	if vd == nil {
		return nil
	}
	return bytes.TrimRight(vd[VolumeIdOff:VolumeIdOff+VolumeIdLen], " \x00")
}

// Label prefers the UCS-2 volume identifier of a Joliet descriptor over
// the d-characters of the primary descriptor.
func Label(s []byte) string {
	for _, vd := range descriptors(s) {
		if vd[TypeOff] != TypeSupplementary {
			continue
		}
		esc := vd[EscapeOff : EscapeOff+3]
		for _, j := range jolietEscapes {
			if !bytes.Equal(esc, j) {
				continue
			}
			dec := unicode.UTF16(unicode.BigEndian,
				unicode.IgnoreBOM).NewDecoder()
			b, err := dec.Bytes(vd[VolumeIdOff : VolumeIdOff+VolumeIdLen])
			if err == nil {
				return strings.TrimRight(string(b), " \x00")
			}
		}
	}
	return string(LabelRaw(s))
}

// UUID is derived from the creation date as "YYYY-MM-DD-hh-mm-ss-cc".
func UUID(s []byte) string {
	vd := primary(s)
	if vd == nil {
		return ""
	}
	date := vd[CreationDateOff : CreationDateOff+CreationDateLen]
	if bytes.Count(date, []byte{'0'}) == len(date) || date[0] == 0 {
		return ""
	}
	buf := new(strings.Builder)
	for i, n := range creationDateWidths {
		if i > 0 {
			buf.WriteByte('-')
		}
		buf.Write(date[:n])
		date = date[n:]
	}
	return buf.String()
}
