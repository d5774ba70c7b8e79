// Copyright © 2018 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

package magic

import (
	"testing"

	"github.com/platinasystems/blkid/internal/magic/ext"
	"github.com/platinasystems/blkid/internal/magic/iso9660"
	"github.com/platinasystems/blkid/internal/magic/mbr"
	"github.com/platinasystems/blkid/internal/magic/vfat"
	"github.com/platinasystems/blkid/internal/test"
)

var testUUID = []byte{
	0x12, 0x34, 0x56, 0x78, 0x9a, 0xbc, 0x4d, 0xef,
	0x80, 0x11, 0x22, 0x33, 0x44, 0x55, 0x66, 0x77,
}

const testUUIDString = "12345678-9abc-4def-8011-223344556677"

func header(img test.Image) []byte {
	s := make([]byte, HeaderLen)
	copy(s, img.Header)
	return s
}

func testImage(t *testing.T, img test.Image, fsType, secType, label, uuid string) {
	t.Helper()
	sbs := Detect(header(img))
	if len(sbs) != 1 {
		t.Fatal("expected one superblock, got", len(sbs))
	}
	sb := sbs[0]
	if sb.Type != fsType {
		t.Error("Type expected", fsType, "got", sb.Type)
	}
	if sb.SecType != secType {
		t.Error("SecType expected", secType, "got", sb.SecType)
	}
	if sb.Label != label {
		t.Errorf("Label expected %q got %q", label, sb.Label)
	}
	if sb.UUID != uuid {
		t.Error("UUID expected", uuid, "got", sb.UUID)
	}
}

func TestExt2(t *testing.T) {
	testImage(t, test.Ext("boot", testUUID, 0, ext.FeatureIncompatExt2Filetype, 0),
		"ext2", "", "boot", testUUIDString)
}

func TestExt3(t *testing.T) {
	testImage(t, test.Ext("var", testUUID, ext.FeatureCompatExt3HasJournal,
		ext.FeatureIncompatExt2Filetype|ext.FeatureIncompatExt3Recover, 0),
		"ext3", "ext2", "var", testUUIDString)
}

func TestExt4(t *testing.T) {
	testImage(t, test.Ext4("root", testUUID), "ext4", "", "root",
		testUUIDString)
}

func TestJournalDev(t *testing.T) {
	s := header(test.Ext("", nil, 0, ext.FeatureIncompatExt3JournalDev, 0))
	sb := First(s)
	if sb == nil || sb.Type != "jbd" || sb.Usage != UsageOther {
		t.Error("expected jbd, got", sb)
	}
	if sb != nil && len(sb.UUID) != 0 {
		t.Error("nil uuid reported as", sb.UUID)
	}
}

func TestVfat(t *testing.T) {
	img := test.Fat16("EFI", 0x1234abcd)
	testImage(t, img, "vfat", "msdos", "EFI", "1234-ABCD")
	sb := First(header(img))
	if sb.Version != "FAT16" {
		t.Error("Version expected FAT16 got", sb.Version)
	}
	if string(sb.Magic) != "FAT16   " || sb.MagicOffset != vfat.Fat16MagicOff {
		t.Errorf("Magic %q at %#x", sb.Magic, sb.MagicOffset)
	}
	if mbr.Probe(header(img)) {
		t.Error("FAT boot sector probed as a partition map")
	}
}

func TestVfatNoName(t *testing.T) {
	testImage(t, test.Fat16("NO NAME", 1), "vfat", "msdos", "", "0000-0001")
}

func TestVfatJumpOnly(t *testing.T) {
	s := header(test.Dos(0xdeadbeef, test.MBR{Type: 0x83, Start: 2048, Length: 4096}))
	s[0], s[1], s[2] = 0xeb, 0x63, 0x90
	if vfat.Probe(s) {
		t.Error("boot loader jump probed as vfat")
	}
}

func TestIso9660(t *testing.T) {
	img := test.Iso9660("CDROM", "Ünïcode Disc", "2024010212345600")
	testImage(t, img, "iso9660", "", "Ünïcode Disc", "2024-01-02-12-34-56-00")
	if raw := string(iso9660.LabelRaw(header(img))); raw != "CDROM" {
		t.Errorf("LabelRaw expected CDROM got %q", raw)
	}
}

func TestIso9660Primary(t *testing.T) {
	testImage(t, test.Iso9660("INSTALL", "", ""), "iso9660", "", "INSTALL",
		"")
}

func TestSwap(t *testing.T) {
	img := test.Swap("swap0", testUUID)
	testImage(t, img, "swap", "", "swap0", testUUIDString)
	if sb := First(header(img)); sb.Version != "1" || sb.MagicOffset != 0xff6 {
		t.Error("unexpected", sb.Version, sb.MagicOffset)
	}
}

func TestAmbivalent(t *testing.T) {
	s := header(test.Ext4("root", testUUID))
	copy(s[0x1000-10:], "SWAPSPACE2")
	sbs := Detect(s)
	if len(sbs) != 2 {
		t.Fatal("expected two superblocks, got", len(sbs))
	}
	if sbs[0].Type != "ext4" || sbs[1].Type != "swap" {
		t.Error("unexpected order", sbs[0].Type, sbs[1].Type)
	}
	if First(s).Type != "ext4" {
		t.Error("First isn't highest priority")
	}
}

func TestShortHeader(t *testing.T) {
	for _, n := range []int{0, 1, 0x1ff, 0x400, 0x8000} {
		if sbs := Detect(make([]byte, n)); len(sbs) != 0 {
			t.Error(n, "bytes detected as", sbs[0].Type)
		}
	}
}
