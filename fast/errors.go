// Copyright 2017 The go-interpreter Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package fast

import (
	"errors"
	"fmt"
)

// Sentinel errors for expected, enumerable failure conditions (spec §7).
var (
	// ErrEmptyCatchBlock is returned when a catch handler's body is empty;
	// spec §7 marks this fatal for the method.
	ErrEmptyCatchBlock = errors.New("fast: empty catch block")
	// ErrBoundsViolation is returned when an instruction-list extraction
	// (sub-list splice) runs past the available range; spec §7 marks this
	// fatal for the method, with the caller falling back to raw bytecode
	// printing.
	ErrBoundsViolation = errors.New("fast: instruction list bounds violation")
)

// UnexpectedInstructionError reports a malformed structure the recognizers
// could not interpret (spec §7 "Malformed-structure").
type UnexpectedInstructionError struct {
	Offset int
	Detail string
}

func (e *UnexpectedInstructionError) Error() string {
	return fmt.Sprintf("fast: unexpected instruction at offset %d: %s", e.Offset, e.Detail)
}

// unexpected builds an UnexpectedInstructionError for offset.
func unexpected(offset int, format string, args ...interface{}) error {
	return &UnexpectedInstructionError{Offset: offset, Detail: fmt.Sprintf(format, args...)}
}
