// Copyright 2017 The go-interpreter Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package fast

import (
	"errors"
	"testing"

	"github.com/javadecompcore/javadecompcore/bytecode"
)

func TestCreateSynchronizedBlock(t *testing.T) {
	// synchronized (x) { nop; }
	//  0: astore_1      (capture the monitor reference)
	//  1: monitorenter
	//  2: nop           (body)
	//  3: monitorexit
	//  4: goto 9        (skip the cleanup handler)
	//  5: astore_2      (handler: pending exception)
	//  6: monitorexit
	//  7: aload_2
	//  8: athrow
	//  9: return
	list := rawList(
		bytecode.RawInstr{Offset: 0, Opcode: bytecode.OpAStore, VarIndex: 1},
		bytecode.RawInstr{Offset: 1, Opcode: bytecode.OpMonitorEnter},
		bytecode.RawInstr{Offset: 2, Opcode: bytecode.OpNop},
		bytecode.RawInstr{Offset: 3, Opcode: bytecode.OpMonitorExit},
		bytecode.RawInstr{Offset: 4, Opcode: bytecode.OpGoto, Branch: 5, Target: 9},
		bytecode.RawInstr{Offset: 5, Opcode: bytecode.OpAStore, VarIndex: 2},
		bytecode.RawInstr{Offset: 6, Opcode: bytecode.OpMonitorExit},
		bytecode.RawInstr{Offset: 7, Opcode: bytecode.OpALoad, VarIndex: 2},
		bytecode.RawInstr{Offset: 8, Opcode: bytecode.OpAThrow},
		bytecode.RawInstr{Offset: 9, Opcode: bytecode.OpReturn},
	)
	locals := []*LocalVar{
		{Index: 1, StartPC: 1, Length: 8},
	}
	r := &ExceptionRange{
		TryFromOffset:     1,
		TryToOffset:       5,
		FinallyFromOffset: 5,
		AfterOffset:       9,
		Synchronized:      true,
		Type:              TypeSynchronized,
	}

	out, err := CreateSynchronizedBlock(list, r, locals, nil)
	if err != nil {
		t.Fatalf("CreateSynchronizedBlock: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("len(out) = %d, want 2 (SYNCHRONIZED + return): %+v", len(out), out)
	}
	sync := out[0]
	if sync.Tag != TagSynchronized {
		t.Fatalf("out[0].Tag = %v, want TagSynchronized", sync.Tag)
	}
	if sync.Monitor == nil {
		t.Error("sync.Monitor is nil, want the captured reference's expression")
	}
	if len(sync.Body) != 1 || !sync.Body[0].IsRaw(bytecode.OpNop) {
		t.Fatalf("sync.Body = %+v, want [nop]", sync.Body)
	}
	if !out[1].IsRaw(bytecode.OpReturn) {
		t.Fatalf("out[1] = %+v, want return", out[1])
	}
	if !locals[0].ToBeRemoved {
		t.Error("monitor slot 1 not marked ToBeRemoved")
	}

	var walk func([]*Node)
	walk = func(l []*Node) {
		for _, n := range l {
			if n.IsRaw(bytecode.OpMonitorEnter) || n.IsRaw(bytecode.OpMonitorExit) {
				t.Errorf("leftover monitor instruction at offset %d", n.Offset)
			}
			walk(n.Body)
		}
	}
	walk(out)
}

func TestCreateSynchronizedBlockRejectsMissingMonitorEnter(t *testing.T) {
	list := rawList(
		bytecode.RawInstr{Offset: 0, Opcode: bytecode.OpNop},
		bytecode.RawInstr{Offset: 1, Opcode: bytecode.OpReturn},
	)
	r := &ExceptionRange{
		TryFromOffset:     0,
		TryToOffset:       1,
		FinallyFromOffset: -1,
		AfterOffset:       1,
		Synchronized:      true,
		Type:              TypeSynchronized,
	}

	_, err := CreateSynchronizedBlock(list, r, nil, nil)
	if err == nil {
		t.Fatal("want an error when the region does not begin with monitorenter")
	}
	var uerr *UnexpectedInstructionError
	if !errors.As(err, &uerr) {
		t.Fatalf("err = %T(%v), want *UnexpectedInstructionError", err, err)
	}
}
