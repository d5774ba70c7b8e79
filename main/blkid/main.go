// Copyright © 2024 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

// This is the stand alone blkid command.
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/platinasystems/blkid/cmd/blkid"
)

func main() {
	var c blkid.Command
	args := os.Args[1:]
	if len(args) == 1 {
		switch strings.TrimLeft(args[0], "-") {
		case "h", "help", "man":
			fmt.Print("usage: ", c.Usage(), "\n", c.Man(), "\n")
			return
		case "apropos":
			fmt.Print(c, ": ", c.Apropos(), "\n")
			return
		}
	}
	if err := c.Main(args...); err != nil {
		fmt.Fprint(os.Stderr, c, ": ", err, "\n")
		os.Exit(1)
	}
}
