// Copyright 2017 The go-interpreter Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package fast

import (
	"testing"

	"github.com/javadecompcore/javadecompcore/bytecode"
)

// TestDriverRunSimpleWhile runs spec §8 scenario 1 end to end through
// Driver.Run: aggregate (no exception ranges here) -> reconstruct battery
// -> loop recognition -> declaration placement -> label insertion.
//
//	int i = 0;
//	while (i < 10) { }
//
//	 0: iconst_0       (line 1)
//	 1: istore_1        (line 1)
//	 2: iload_1         (line 2)
//	 3: sipush 10       (line 2)
//	 5: if_icmpge 15    (line 2)
//	 8: iinc 1, 1       (line 2)
//	11: goto 2          (line 2)
//	15: return          (line 1, regressing: javac's synthetic tail return)
func TestDriverRunSimpleWhile(t *testing.T) {
	m := &bytecode.Method{
		Name:       "simpleWhile",
		Descriptor: "()V",
		Code: []bytecode.RawInstr{
			{Offset: 0, Opcode: bytecode.OpIConst0, Line: 1},
			{Offset: 1, Opcode: bytecode.OpIStore, VarIndex: 1, Line: 1},
			{Offset: 2, Opcode: bytecode.OpILoad, VarIndex: 1, Line: 2},
			{Offset: 3, Opcode: bytecode.OpSipush, PushValue: 10, Line: 2},
			{Offset: 5, Opcode: bytecode.OpIfICmpGe, Branch: 10, Target: 15, Line: 2},
			{Offset: 8, Opcode: bytecode.OpIInc, VarIndex: 1, IincDelta: 1, Line: 2},
			{Offset: 11, Opcode: bytecode.OpGoto, Branch: -9, Target: 2, Line: 2},
			{Offset: 15, Opcode: bytecode.OpReturn, Line: 1},
		},
		LocalVariables: []*LocalVar{
			{Index: 1, StartPC: 0, Length: 15, Name: "i"},
		},
	}

	d := NewDriver(nil, nil, nil)
	out, err := d.Run(m)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if m.ContainsError {
		t.Fatal("ContainsError = true, want false for a clean method")
	}

	if len(out) == 0 {
		t.Fatal("Run returned no top-level nodes")
	}
	if out[0].Tag != TagDeclare {
		t.Fatalf("out[0].Tag = %v, want TagDeclare (int i = 0)", out[0].Tag)
	}

	var while *Node
	for _, n := range out {
		if n.Tag == TagWhile {
			while = n
			break
		}
	}
	if while == nil {
		t.Fatalf("no TagWhile node found in %+v", out)
	}
	if while.Test == nil {
		t.Error("while.Test is nil, want the i<10 comparison")
	}

	for _, n := range out {
		if n.Tag == TagRaw && n.Raw != nil && n.Raw.Opcode == bytecode.OpReturn {
			t.Error("synthetic trailing return should have been dropped, but a raw OpReturn survived")
		}
	}
}

// TestDriverRunMarksContainsErrorOnFailure exercises spec §7's recovery
// policy for a per-method failure that surfaces as a returned error rather
// than a panic (here, an exception-table row whose HandlerPC doesn't
// correspond to any offset actually in Code): Run marks m.ContainsError
// and returns the partial node list built before the failing stage (here
// the untouched raw list), rather than crashing a driver that is working
// through many methods.
func TestDriverRunMarksContainsErrorOnFailure(t *testing.T) {
	m := &bytecode.Method{
		Name:       "malformed",
		Descriptor: "()V",
		Code: []bytecode.RawInstr{
			{Offset: 0, Opcode: bytecode.OpNop},
			{Offset: 1, Opcode: bytecode.OpReturn},
		},
		ExceptionTable: []bytecode.ExceptionTableEntry{
			{StartPC: 0, EndPC: 1000, HandlerPC: 2000, CatchType: 0},
		},
	}

	d := NewDriver(nil, nil, nil)
	out, err := d.Run(m)
	if err == nil {
		t.Fatal("Run: want an error for a malformed exception range, got nil")
	}
	if len(out) != len(m.Code) {
		t.Errorf("out = %+v, want the %d raw nodes left in place once Run fails", out, len(m.Code))
	}
	if !m.ContainsError {
		t.Error("ContainsError = false, want true once Run fails")
	}
}

// TestDriverRunTwiceAndDiff operationalizes the round-trip property: two
// pipeline runs over independent clones of the same method must produce
// structurally identical trees.
func TestDriverRunTwiceAndDiff(t *testing.T) {
	m := &bytecode.Method{
		Name:       "simpleWhile",
		Descriptor: "()V",
		Code: []bytecode.RawInstr{
			{Offset: 0, Opcode: bytecode.OpIConst0, Line: 1},
			{Offset: 1, Opcode: bytecode.OpIStore, VarIndex: 1, Line: 1},
			{Offset: 2, Opcode: bytecode.OpILoad, VarIndex: 1, Line: 2},
			{Offset: 3, Opcode: bytecode.OpSipush, PushValue: 10, Line: 2},
			{Offset: 5, Opcode: bytecode.OpIfICmpGe, Branch: 10, Target: 15, Line: 2},
			{Offset: 8, Opcode: bytecode.OpIInc, VarIndex: 1, IincDelta: 1, Line: 2},
			{Offset: 11, Opcode: bytecode.OpGoto, Branch: -9, Target: 2, Line: 2},
			{Offset: 15, Opcode: bytecode.OpReturn, Line: 1},
		},
		LocalVariables: []*LocalVar{
			{Index: 1, StartPC: 0, Length: 15, Name: "i"},
		},
	}

	d := NewDriver(nil, nil, nil)
	same, err := d.RunTwiceAndDiff(m)
	if err != nil {
		t.Fatalf("RunTwiceAndDiff: %v", err)
	}
	if !same {
		t.Error("two runs over clones of the same method diverged")
	}
}

// TestDriverRunLineNumberBound checks the other §8 round-trip property:
// every line number in the output tree comes from an input instruction,
// so none may exceed the method's own maximum.
func TestDriverRunLineNumberBound(t *testing.T) {
	m := &bytecode.Method{
		Name:       "cond",
		Descriptor: "()V",
		Code: []bytecode.RawInstr{
			{Offset: 0, Opcode: bytecode.OpILoad, VarIndex: 1, Line: 3},
			{Offset: 1, Opcode: bytecode.OpIfEq, Branch: 3, Target: 4, Line: 3},
			{Offset: 2, Opcode: bytecode.OpNop, Line: 4},
			{Offset: 4, Opcode: bytecode.OpReturn, Line: 5},
		},
	}

	d := NewDriver(nil, nil, nil)
	out, err := d.Run(m)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if err := CheckLineNumberBound(out, 5); err != nil {
		t.Errorf("CheckLineNumberBound: %v", err)
	}
}
