// Copyright © 2024 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

//go:build !linux

package sniffer

import (
	"fmt"
	"os"
)

// Only image files may be probed off linux.
func geometry(f *os.File) (size, sectorSize int64, err error) {
	fi, err := f.Stat()
	if err != nil {
		return
	}
	if !fi.Mode().IsRegular() {
		err = fmt.Errorf("%s: %w", fi.Mode().Type(), ErrNotSupported)
		return
	}
	return fi.Size(), DefaultSectorSize, nil
}
