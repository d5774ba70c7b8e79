// Copyright © 2024 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

//go:build !(linux && cgo && libblkid)

package libblkid

import (
	"os"
	"testing"

	"github.com/platinasystems/blkid"
	"github.com/platinasystems/blkid/internal/test"
)

func TestNotLinked(t *testing.T) {
	assert := test.Assert{TB: t}
	s := blkid.New(os.Args[0], New())
	err := s.Open(blkid.ReadOnly)
	assert.Error(err, blkid.ErrResource)
	assert.Error(err, ErrNotLinked)
	assert.True(s.State() == blkid.Unopened)
}
