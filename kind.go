// Copyright © 2024 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

package blkid

import "fmt"

// ProbeKind selects the engine's probing strategy.
type ProbeKind uint8

const (
	// Safe stops on ambivalent superblocks so that the caller may
	// decide on a full probe.
	Safe ProbeKind = iota
	// Full runs every detector and reports the best ranked result.
	Full
	// Normal is a single best-effort pass.
	Normal
)

var probeKindNames = [...]string{
	Safe:   "safe",
	Full:   "full",
	Normal: "normal",
}

// ParseProbeKind returns the ProbeKind named by s, or ErrInvalidArgument.
func ParseProbeKind(s string) (ProbeKind, error) {
	for k, name := range probeKindNames {
		if s == name {
			return ProbeKind(k), nil
		}
	}
	return 0, fmt.Errorf("%q: %w", s, ErrInvalidArgument)
}

func (k ProbeKind) IsValid() bool { return int(k) < len(probeKindNames) }

func (k ProbeKind) String() string {
	if !k.IsValid() {
		return fmt.Sprint("ProbeKind(", uint8(k), ")")
	}
	return probeKindNames[k]
}
