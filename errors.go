// Copyright © 2024 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

package blkid

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidArgument reports an input rejected before it reached
	// the engine, e.g. an unknown probe kind or flag bit.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrInvalidState reports an operation outside the opened state.
	ErrInvalidState = errors.New("invalid state")
	// ErrResource reports a failure of the device or the engine.
	ErrResource = errors.New("resource error")
	// ErrAmbivalent is wrapped by a resource error when a safe probe
	// finds more than one superblock; a full probe is needed.
	ErrAmbivalent = errors.New("ambivalent result detected")
)

// Error records the session operation, device and cause of a failure.
// Kind is one of ErrInvalidArgument, ErrInvalidState or ErrResource.
type Error struct {
	Op   string
	Path string
	Kind error
	Err  error
}

func (e *Error) Error() string {
	s := e.Op
	if len(e.Path) > 0 {
		s += " " + e.Path
	}
	if e.Err != nil {
		return fmt.Sprint(s, ": ", e.Kind, ": ", e.Err)
	}
	return fmt.Sprint(s, ": ", e.Kind)
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool { return e.Kind == target }

func invalidArgument(op, path string, err error) error {
	return &Error{op, path, ErrInvalidArgument, err}
}

func invalidState(op, path string, s State) error {
	return &Error{op, path, ErrInvalidState, fmt.Errorf("session %v", s)}
}

func resource(op, path string, err error) error {
	return &Error{op, path, ErrResource, err}
}
