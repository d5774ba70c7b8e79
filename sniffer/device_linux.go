// Copyright © 2024 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

package sniffer

import (
	"fmt"
	"os"
	"unsafe"

	"golang.org/x/sys/unix"
)

// geometry returns the size and logical sector size of a block device or
// image file.
func geometry(f *os.File) (size, sectorSize int64, err error) {
	var st unix.Stat_t
	fd := int(f.Fd())
	if err = unix.Fstat(fd, &st); err != nil {
		return
	}
	switch st.Mode & unix.S_IFMT {
	case unix.S_IFREG:
		return st.Size, DefaultSectorSize, nil
	case unix.S_IFBLK:
		var n uint64
		_, _, errno := unix.Syscall(unix.SYS_IOCTL, uintptr(fd),
			unix.BLKGETSIZE64, uintptr(unsafe.Pointer(&n)))
		if errno != 0 {
			err = fmt.Errorf("BLKGETSIZE64: %w", errno)
			return
		}
		ss, serr := unix.IoctlGetInt(fd, unix.BLKSSZGET)
		if serr != nil || ss <= 0 {
			ss = DefaultSectorSize
		}
		return int64(n), int64(ss), nil
	}
	err = fmt.Errorf("mode %#o: %w", st.Mode&unix.S_IFMT, ErrNotSupported)
	return
}
