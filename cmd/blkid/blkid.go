// Copyright © 2024 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

// Package blkid is the command that identifies the content of block
// devices and image files.
package blkid

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/platinasystems/blkid"
	"github.com/platinasystems/blkid/internal/lang"
	"github.com/platinasystems/blkid/libblkid"
	"github.com/platinasystems/blkid/sniffer"
	"github.com/platinasystems/flags"
	"github.com/platinasystems/log"
	"github.com/platinasystems/parms"
	"github.com/platinasystems/redis"
)

const (
	FormatList   = "list"
	FormatExport = "export"
	FormatValue  = "value"
)

type Command struct{}

func (Command) String() string { return "blkid" }

func (Command) Usage() string {
	return `blkid [-v] [-p] [-n] [-publish] [-t safe|full|normal]
	[-engine sniffer|libblkid] [-partitions-flags FLAGS]
	[-superblocks-flags FLAGS] [-o list|export|value] DEVICE...`
}

func (Command) Apropos() lang.Alt {
	return lang.Alt{
		lang.EnUS: "locate and print block device attributes",
		lang.FrFR: "localiser et afficher les attributs des périphériques bloc",
	}
}

func (Command) Man() lang.Alt {
	return lang.Alt{
		lang.EnUS: `
DESCRIPTION
	Probe each DEVICE, a block device or image file, for filesystem
	superblocks and partition tables and print what was found followed
	by the SIZE of the device in bytes.

OPTIONS
	-v	Log each probe.
	-p	Don't probe partition tables.
	-n	Don't probe superblocks.
	-publish
		Set each value in the redis hash as blkid.DEVICE.NAME.
	-t safe|full|normal
		Probe kind, default safe. A safe probe fails if more than one
		superblock is found; full reports the first of them; normal
		stops at the first superblock.
	-engine sniffer|libblkid
		The built in sniffer (default) or the system libblkid if
		linked with the libblkid build tag.
	-partitions-flags FLAGS
		A number or names of: force-gpt, entry-details, magic.
	-superblocks-flags FLAGS
		A number or names of: label, label-raw, uuid, uuid-raw,
		type, sec-type, usage, version, magic.
		Default label|uuid|type|sec-type.
	-o list|export|value
		Print DEVICE: NAME="VALUE"... on one line, NAME=VALUE
		lines, or just the values. The default is list on a
		terminal and export otherwise.

EXAMPLES
	blkid -t full -superblocks-flags label,uuid,type,usage /dev/sda1
	blkid -partitions-flags entry-details -o export /dev/sda`,
	}
}

func (Command) Main(args ...string) error {
	return run(os.Stdout, isatty.IsTerminal(os.Stdout.Fd()), args...)
}

type config struct {
	engine blkid.Engine
	kind   blkid.ProbeKind
	format string

	verbose     bool
	publish     bool
	partitions  bool
	superblocks bool

	partitionFlags  *blkid.PartitionFlags
	superblockFlags *blkid.SuperblockFlags
}

func run(w io.Writer, tty bool, args ...string) error {
	flag, args := flags.New(args, "-v", "-p", "-n", "-publish")
	parm, args := parms.New(args, "-t", "-engine", "-o",
		"-partitions-flags", "-superblocks-flags")
	c := config{
		verbose:     flag.ByName["-v"],
		publish:     flag.ByName["-publish"],
		partitions:  !flag.ByName["-p"],
		superblocks: !flag.ByName["-n"],
	}
	var err error
	if s := parm.ByName["-t"]; len(s) > 0 {
		if c.kind, err = blkid.ParseProbeKind(s); err != nil {
			return err
		}
	}
	switch s := parm.ByName["-engine"]; s {
	case "", "sniffer":
		c.engine = sniffer.New()
	case "libblkid":
		c.engine = libblkid.New()
	default:
		return fmt.Errorf("%s: unknown engine", s)
	}
	switch c.format = parm.ByName["-o"]; c.format {
	case "":
		c.format = FormatExport
		if tty {
			c.format = FormatList
		}
	case FormatList, FormatExport, FormatValue:
	default:
		return fmt.Errorf("%s: unknown format", c.format)
	}
	if s := parm.ByName["-partitions-flags"]; len(s) > 0 {
		f, err := blkid.ParsePartitionFlags(s)
		if err != nil {
			return err
		}
		c.partitionFlags = &f
	}
	if s := parm.ByName["-superblocks-flags"]; len(s) > 0 {
		f, err := blkid.ParseSuperblockFlags(s)
		if err != nil {
			return err
		}
		c.superblockFlags = &f
	}
	if len(args) == 0 {
		return fmt.Errorf("DEVICE: missing")
	}
	for _, dev := range args {
		vs, err := c.probe(dev)
		if err != nil {
			return err
		}
		if c.verbose {
			log.Print("info", dev, ": ", c.kind, " probe: ",
				len(vs), " values")
		}
		if c.publish {
			if err = publish(dev, vs); err != nil {
				return err
			}
		}
		if err = show(w, c.format, dev, vs); err != nil {
			return err
		}
	}
	return nil
}

func (c *config) probe(dev string) (vs blkid.Values, err error) {
	err = blkid.With(dev, c.engine, blkid.ReadOnly,
		func(s *blkid.Session) error {
			if !c.partitions {
				if err := s.DisablePartitions(); err != nil {
					return err
				}
			}
			if !c.superblocks {
				if err := s.DisableSuperblocks(); err != nil {
					return err
				}
			}
			if c.partitionFlags != nil {
				err := s.SetPartitionFlags(*c.partitionFlags)
				if err != nil {
					return err
				}
			}
			if c.superblockFlags != nil {
				err := s.SetSuperblockFlags(*c.superblockFlags)
				if err != nil {
					return err
				}
			}
			if err := s.Probe(c.kind); err != nil {
				return err
			}
			vs, err = s.Results()
			return err
		})
	return
}

func publish(dev string, vs blkid.Values) error {
	for _, v := range vs {
		field := fmt.Sprint("blkid.", dev, ".", v.Name)
		if _, err := redis.Hset(redis.DefaultHash, field, v.Data); err != nil {
			return err
		}
	}
	return nil
}

var (
	listEscaper   = strings.NewReplacer(`"`, `\"`, `\`, `\\`)
	exportEscaper = strings.NewReplacer(`"`, `\"`, `\`, `\\`, "`", "\\`",
		"$", `\$`, "'", `\'`, " ", `\ `)
)

func show(w io.Writer, format, dev string, vs blkid.Values) (err error) {
	switch format {
	case FormatList:
		b := new(strings.Builder)
		fmt.Fprint(b, dev, ":")
		for _, v := range vs {
			fmt.Fprintf(b, ` %s="%s"`, v.Name, listEscaper.Replace(v.Data))
		}
		fmt.Fprintln(b)
		_, err = io.WriteString(w, b.String())
	case FormatExport:
		b := new(strings.Builder)
		fmt.Fprint(b, "DEVNAME=", exportEscaper.Replace(dev), "\n")
		for _, v := range vs {
			fmt.Fprint(b, v.Name, "=", exportEscaper.Replace(v.Data), "\n")
		}
		fmt.Fprintln(b)
		_, err = io.WriteString(w, b.String())
	case FormatValue:
		for _, v := range vs {
			if _, err = fmt.Fprintln(w, v.Data); err != nil {
				break
			}
		}
	default:
		err = fmt.Errorf("%s: unknown format", format)
	}
	return
}
