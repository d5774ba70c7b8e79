// Copyright © 2024 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

// Package blkid identifies the content of block devices and images through
// a probing session.
//
// A Session owns one open device and an Engine's probe bound to it. The
// session checks its state and arguments before every engine call so that
// nothing invalid reaches the engine, and it reports engine failures
// unmodified as ErrResource.
//
//	err := blkid.With("/dev/sda1", sniffer.New(), blkid.ReadOnly,
//		func(s *blkid.Session) error {
//			if err := s.Probe(blkid.Safe); err != nil {
//				return err
//			}
//			vs, err := s.Results()
//			fmt.Println(vs)
//			return err
//		})
//
// A session is not safe for concurrent use and can't be reopened once
// closed; construct another.
package blkid

import (
	"errors"
	"fmt"
	"os"
	"strconv"
)

// State of a Session.
type State uint8

const (
	Unopened State = iota
	Opened
	Closed
)

func (s State) String() string {
	switch s {
	case Unopened:
		return "unopened"
	case Opened:
		return "opened"
	case Closed:
		return "closed"
	}
	return fmt.Sprint("State(", uint8(s), ")")
}

// Mode is the access mode of the device handle.
type Mode uint8

const (
	ReadOnly Mode = iota
	ReadWrite
)

func (m Mode) flag() (int, error) {
	switch m {
	case ReadOnly:
		return os.O_RDONLY, nil
	case ReadWrite:
		return os.O_RDWR, nil
	}
	return 0, fmt.Errorf("mode %d", m)
}

var errNoEngine = errors.New("no engine")

// Size is the name of the attribute that Results appends after a probe.
const Size = "SIZE"

type Session struct {
	path   string
	engine Engine

	state State
	mode  Mode
	file  *os.File
	probe Probe

	probed bool

	partitions      bool
	superblocks     bool
	partitionFlags  PartitionFlags
	superblockFlags SuperblockFlags
}

// New returns an unopened session of the device or image at path.
func New(path string, engine Engine) *Session {
	return &Session{
		path:            path,
		engine:          engine,
		partitions:      true,
		superblocks:     true,
		superblockFlags: SuperblockDefault,
	}
}

// With opens a session, runs f, then closes the session on every return
// path, panics included. An error from f has precedence over that of
// Close.
func With(path string, engine Engine, mode Mode, f func(*Session) error) (err error) {
	s := New(path, engine)
	if err = s.Open(mode); err != nil {
		return
	}
	defer func() {
		if cerr := s.Close(); err == nil {
			err = cerr
		}
	}()
	return f(s)
}

func (s *Session) Path() string   { return s.path }
func (s *Session) State() State   { return s.state }
func (s *Session) IsOpen() bool   { return s.state == Opened }
func (s *Session) String() string { return s.path + " (" + s.state.String() + ")" }

// Open the device and bind the engine to it. The engine is configured
// with the session's subsystem switches and flags; by default both
// partitions and superblocks are enabled with SuperblockDefault.
func (s *Session) Open(mode Mode) error {
	const op = "open"
	if s.state != Unopened {
		return invalidState(op, s.path, s.state)
	}
	flag, err := mode.flag()
	if err != nil {
		return invalidArgument(op, s.path, err)
	}
	if s.engine == nil {
		return resource(op, s.path, errNoEngine)
	}
	f, err := os.OpenFile(s.path, flag, 0)
	if err != nil {
		return resource(op, s.path, err)
	}
	pr, err := s.engine.Bind(f)
	if err != nil {
		f.Close()
		return resource(op, s.path, err)
	}
	if err = configure(pr, s); err != nil {
		pr.Close()
		f.Close()
		return resource(op, s.path, err)
	}
	s.file, s.probe, s.mode = f, pr, mode
	s.state = Opened
	return nil
}

func configure(pr Probe, s *Session) error {
	if err := pr.EnablePartitions(s.partitions); err != nil {
		return err
	}
	if err := pr.SetPartitionFlags(s.partitionFlags); err != nil {
		return err
	}
	if err := pr.EnableSuperblocks(s.superblocks); err != nil {
		return err
	}
	return pr.SetSuperblockFlags(s.superblockFlags)
}

// Close releases the probe and the device handle. A read-write handle is
// synced first. Closing an unopened or closed session does nothing.
func (s *Session) Close() error {
	if s.state != Opened {
		return nil
	}
	var err error
	if s.mode == ReadWrite {
		err = s.file.Sync()
	}
	if perr := s.probe.Close(); err == nil {
		err = perr
	}
	if ferr := s.file.Close(); err == nil {
		err = ferr
	}
	s.file, s.probe = nil, nil
	s.probed = false
	s.state = Closed
	if err != nil {
		return resource("close", s.path, err)
	}
	return nil
}

func (s *Session) opened(op string) error {
	if s.state != Opened {
		return invalidState(op, s.path, s.state)
	}
	return nil
}

// Probe the device with the given strategy. Results of a previous probe
// are dropped, even if this one fails.
func (s *Session) Probe(kind ProbeKind) error {
	const op = "probe"
	if err := s.opened(op); err != nil {
		return err
	}
	var do func() error
	switch kind {
	case Safe:
		do = s.probe.DoSafeProbe
	case Full:
		do = s.probe.DoFullProbe
	case Normal:
		do = s.probe.DoProbe
	default:
		return invalidArgument(op, s.path, fmt.Errorf("%v", kind))
	}
	s.probed = false
	if err := do(); err != nil {
		return resource(op, s.path, err)
	}
	s.probed = true
	return nil
}

// ProbeString is Probe with a "safe", "full" or "normal" token.
func (s *Session) ProbeString(kind string) error {
	const op = "probe"
	if err := s.opened(op); err != nil {
		return err
	}
	k, err := ParseProbeKind(kind)
	if err != nil {
		return invalidArgument(op, s.path, err)
	}
	return s.Probe(k)
}

// Results of the last probe followed by the SIZE of the device; empty
// before the first successful probe.
func (s *Session) Results() (Values, error) {
	if err := s.opened("results"); err != nil {
		return nil, err
	}
	if !s.probed {
		return Values{}, nil
	}
	vs := append(Values{}, s.probe.Values()...)
	vs = append(vs, Value{Size, strconv.FormatInt(s.probe.Size(), 10)})
	return vs, nil
}

// Lookup a single attribute of the last probe.
func (s *Session) Lookup(name string) (string, bool, error) {
	vs, err := s.Results()
	if err != nil {
		return "", false, err
	}
	v, found := vs.Get(name)
	return v, found, nil
}

// Reset drops the results of the last probe.
func (s *Session) Reset() error {
	if err := s.opened("reset"); err != nil {
		return err
	}
	s.probe.Reset()
	s.probed = false
	return nil
}

func (s *Session) EnablePartitions() error  { return s.enablePartitions(true) }
func (s *Session) DisablePartitions() error { return s.enablePartitions(false) }

func (s *Session) enablePartitions(enable bool) error {
	const op = "enable partitions"
	if err := s.opened(op); err != nil {
		return err
	}
	if err := s.probe.EnablePartitions(enable); err != nil {
		return resource(op, s.path, err)
	}
	s.partitions = enable
	return nil
}

// SetPartitionFlags forwards flags to the partition table readers of
// subsequent probes.
func (s *Session) SetPartitionFlags(flags PartitionFlags) error {
	const op = "set partition flags"
	if err := s.opened(op); err != nil {
		return err
	}
	if !flags.IsValid() {
		return invalidArgument(op, s.path, fmt.Errorf("%#x", uint32(flags)))
	}
	if err := s.probe.SetPartitionFlags(flags); err != nil {
		return resource(op, s.path, err)
	}
	s.partitionFlags = flags
	return nil
}

func (s *Session) EnableSuperblocks() error  { return s.enableSuperblocks(true) }
func (s *Session) DisableSuperblocks() error { return s.enableSuperblocks(false) }

func (s *Session) enableSuperblocks(enable bool) error {
	const op = "enable superblocks"
	if err := s.opened(op); err != nil {
		return err
	}
	if err := s.probe.EnableSuperblocks(enable); err != nil {
		return resource(op, s.path, err)
	}
	s.superblocks = enable
	return nil
}

// SetSuperblockFlags selects the superblock attributes reported by
// subsequent probes.
func (s *Session) SetSuperblockFlags(flags SuperblockFlags) error {
	const op = "set superblock flags"
	if err := s.opened(op); err != nil {
		return err
	}
	if !flags.IsValid() {
		return invalidArgument(op, s.path, fmt.Errorf("%#x", uint32(flags)))
	}
	if err := s.probe.SetSuperblockFlags(flags); err != nil {
		return resource(op, s.path, err)
	}
	s.superblockFlags = flags
	return nil
}

// PartitionsEnabled reports the partition switch last set.
func (s *Session) PartitionsEnabled() bool { return s.partitions }

// SuperblocksEnabled reports the superblock switch last set.
func (s *Session) SuperblocksEnabled() bool { return s.superblocks }

func (s *Session) PartitionFlags() PartitionFlags   { return s.partitionFlags }
func (s *Session) SuperblockFlags() SuperblockFlags { return s.superblockFlags }
