// Copyright © 2024 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

//go:build !(linux && cgo && libblkid)

// Package libblkid is a blkid engine over the system libblkid. This build
// lacks the libblkid tag so binding always fails.
package libblkid

import (
	"errors"
	"os"

	"github.com/platinasystems/blkid"
)

var ErrNotLinked = errors.New("libblkid not linked; build with -tags libblkid")

type Engine struct{}

func New() *Engine { return &Engine{} }

func (*Engine) Bind(*os.File) (blkid.Probe, error) { return nil, ErrNotLinked }
