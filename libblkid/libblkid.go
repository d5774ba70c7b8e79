// Copyright © 2024 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

//go:build linux && cgo && libblkid

// Package libblkid is a blkid engine over the system libblkid. Build
// with the libblkid tag to link it.
package libblkid

/*
#cgo LDFLAGS: -lblkid
#include <stdlib.h>
#include <blkid/blkid.h>
*/
import "C"

import (
	"errors"
	"fmt"
	"os"
	"runtime"

	"github.com/platinasystems/blkid"
)

var ErrNoProbe = errors.New("blkid_new_probe failed")

type Engine struct{}

func New() *Engine { return &Engine{} }

func (*Engine) Bind(f *os.File) (blkid.Probe, error) {
	pr := C.blkid_new_probe()
	if pr == nil {
		return nil, ErrNoProbe
	}
	if rc := C.blkid_probe_set_device(pr, C.int(f.Fd()), 0, 0); rc != 0 {
		C.blkid_free_probe(pr)
		return nil, fmt.Errorf("blkid_probe_set_device: %d", rc)
	}
	p := &probe{pr: pr, f: f}
	runtime.SetFinalizer(p, (*probe).Close)
	return p, nil
}

type probe struct {
	pr     C.blkid_probe
	f      *os.File
	values blkid.Values
}

var superblockBits = []struct {
	flag blkid.SuperblockFlags
	bits C.int
}{
	{blkid.SuperblockLabel, C.BLKID_SUBLKS_LABEL},
	{blkid.SuperblockLabelRaw, C.BLKID_SUBLKS_LABELRAW},
	{blkid.SuperblockUUID, C.BLKID_SUBLKS_UUID},
	{blkid.SuperblockUUIDRaw, C.BLKID_SUBLKS_UUIDRAW},
	{blkid.SuperblockType, C.BLKID_SUBLKS_TYPE},
	{blkid.SuperblockSecType, C.BLKID_SUBLKS_SECTYPE},
	{blkid.SuperblockUsage, C.BLKID_SUBLKS_USAGE},
	{blkid.SuperblockVersion, C.BLKID_SUBLKS_VERSION},
	{blkid.SuperblockMagic, C.BLKID_SUBLKS_MAGIC},
}

var partitionBits = []struct {
	flag blkid.PartitionFlags
	bits C.int
}{
	{blkid.PartitionForceGPT, C.BLKID_PARTS_FORCE_GPT},
	{blkid.PartitionEntryDetails, C.BLKID_PARTS_ENTRY_DETAILS},
	{blkid.PartitionMagic, C.BLKID_PARTS_MAGIC},
}

func (p *probe) DoSafeProbe() error {
	p.values = nil
	switch rc := C.blkid_do_safeprobe(p.pr); rc {
	case 0:
		p.collect()
	case 1:
	case -2:
		return blkid.ErrAmbivalent
	default:
		return fmt.Errorf("blkid_do_safeprobe: %d", rc)
	}
	return nil
}

func (p *probe) DoFullProbe() error {
	p.values = nil
	switch rc := C.blkid_do_fullprobe(p.pr); rc {
	case 0:
		p.collect()
	case 1:
	default:
		return fmt.Errorf("blkid_do_fullprobe: %d", rc)
	}
	return nil
}

// DoProbe runs one step of the enabled chains.
func (p *probe) DoProbe() error {
	p.values = nil
	switch rc := C.blkid_do_probe(p.pr); rc {
	case 0:
		p.collect()
	case 1:
	default:
		return fmt.Errorf("blkid_do_probe: %d", rc)
	}
	return nil
}

func (p *probe) collect() {
	n := int(C.blkid_probe_numof_values(p.pr))
	for i := 0; i < n; i++ {
		var name, data *C.char
		if C.blkid_probe_get_value(p.pr, C.int(i), &name, &data, nil) != 0 {
			continue
		}
		p.values = append(p.values, blkid.Value{
			Name: C.GoString(name),
			Data: C.GoString(data),
		})
	}
}

func (p *probe) Values() blkid.Values { return p.values }

func (p *probe) Size() int64 { return int64(C.blkid_probe_get_size(p.pr)) }

func (p *probe) Reset() {
	p.values = nil
	C.blkid_reset_probe(p.pr)
}

func status(fn string, rc C.int) error {
	if rc != 0 {
		return fmt.Errorf("%s: %d", fn, rc)
	}
	return nil
}

func enable(b bool) C.int {
	if b {
		return 1
	}
	return 0
}

func (p *probe) EnablePartitions(b bool) error {
	return status("blkid_probe_enable_partitions",
		C.blkid_probe_enable_partitions(p.pr, enable(b)))
}

func (p *probe) SetPartitionFlags(flags blkid.PartitionFlags) error {
	var bits C.int
	for _, x := range partitionBits {
		if flags.Has(x.flag) {
			bits |= x.bits
		}
	}
	return status("blkid_probe_set_partitions_flags",
		C.blkid_probe_set_partitions_flags(p.pr, bits))
}

func (p *probe) EnableSuperblocks(b bool) error {
	return status("blkid_probe_enable_superblocks",
		C.blkid_probe_enable_superblocks(p.pr, enable(b)))
}

func (p *probe) SetSuperblockFlags(flags blkid.SuperblockFlags) error {
	var bits C.int
	for _, x := range superblockBits {
		if flags.Has(x.flag) {
			bits |= x.bits
		}
	}
	return status("blkid_probe_set_superblocks_flags",
		C.blkid_probe_set_superblocks_flags(p.pr, bits))
}

func (p *probe) Close() error {
	if p.pr != nil {
		C.blkid_free_probe(p.pr)
		p.pr = nil
		runtime.SetFinalizer(p, nil)
	}
	p.f = nil
	p.values = nil
	return nil
}
