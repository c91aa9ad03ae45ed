// Copyright 2017 The go-interpreter Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package fast

import (
	"testing"

	"github.com/javadecompcore/javadecompcore/bytecode"
)

func TestRecognizeConditionalsIfSimple(t *testing.T) {
	// if (cond) { nop; nop; }
	//  0: ifeq 3
	//  1: nop
	//  2: nop
	//  3: return
	list := rawList(
		bytecode.RawInstr{Offset: 0, Opcode: bytecode.OpIfEq, Branch: 3, Target: 3},
		bytecode.RawInstr{Offset: 1, Opcode: bytecode.OpNop},
		bytecode.RawInstr{Offset: 2, Opcode: bytecode.OpNop},
		bytecode.RawInstr{Offset: 3, Opcode: bytecode.OpReturn},
	)

	out := RecognizeConditionals(list, -1, nil)
	if len(out) != 2 {
		t.Fatalf("want 2 top-level nodes, got %d: %+v", len(out), out)
	}
	ifNode := out[0]
	if ifNode.Tag != TagIfSimple {
		t.Fatalf("out[0].Tag = %v, want TagIfSimple", ifNode.Tag)
	}
	if ifNode.Test == nil {
		t.Error("ifNode.Test is nil")
	}
	if len(ifNode.Body) != 2 {
		t.Fatalf("ifNode.Body has %d nodes, want 2 nops", len(ifNode.Body))
	}
	if !out[1].IsRaw(bytecode.OpReturn) {
		t.Fatalf("out[1] = %+v, want return", out[1])
	}
}

func TestRecognizeConditionalsIfElse(t *testing.T) {
	// if (cond) { nop; } else { nop; }
	//  0: ifeq 3
	//  1: nop        (then)
	//  2: goto 4
	//  3: nop        (else)
	//  4: return
	list := rawList(
		bytecode.RawInstr{Offset: 0, Opcode: bytecode.OpIfEq, Branch: 3, Target: 3},
		bytecode.RawInstr{Offset: 1, Opcode: bytecode.OpNop},
		bytecode.RawInstr{Offset: 2, Opcode: bytecode.OpGoto, Branch: 2, Target: 4},
		bytecode.RawInstr{Offset: 3, Opcode: bytecode.OpNop},
		bytecode.RawInstr{Offset: 4, Opcode: bytecode.OpReturn},
	)

	out := RecognizeConditionals(list, -1, nil)
	if len(out) != 2 {
		t.Fatalf("want 2 top-level nodes, got %d: %+v", len(out), out)
	}
	ifNode := out[0]
	if ifNode.Tag != TagIfElse {
		t.Fatalf("out[0].Tag = %v, want TagIfElse", ifNode.Tag)
	}
	if len(ifNode.Body) != 1 || !ifNode.Body[0].IsRaw(bytecode.OpNop) {
		t.Fatalf("ifNode.Body = %+v, want [nop]", ifNode.Body)
	}
	if len(ifNode.Else) != 1 || !ifNode.Else[0].IsRaw(bytecode.OpNop) {
		t.Fatalf("ifNode.Else = %+v, want [nop]", ifNode.Else)
	}
	if !out[1].IsRaw(bytecode.OpReturn) {
		t.Fatalf("out[1] = %+v, want return", out[1])
	}
}

func TestRecognizeConditionalsIfBreak(t *testing.T) {
	//  0: ifeq 100   (target outside the block: a break)
	//  1: return
	list := rawList(
		bytecode.RawInstr{Offset: 0, Opcode: bytecode.OpIfEq, Branch: 100, Target: 100},
		bytecode.RawInstr{Offset: 1, Opcode: bytecode.OpReturn},
	)

	out := RecognizeConditionals(list, -1, nil)
	if len(out) != 2 {
		t.Fatalf("want 2 top-level nodes, got %d: %+v", len(out), out)
	}
	if out[0].Tag != TagIfBreak {
		t.Fatalf("out[0].Tag = %v, want TagIfBreak", out[0].Tag)
	}
	if out[0].JumpTarget != 100 {
		t.Errorf("out[0].JumpTarget = %d, want 100", out[0].JumpTarget)
	}
}

func TestRecognizeConditionalsIfContinue(t *testing.T) {
	//  0: ifeq 50   (target equals the enclosing loop's back-edge: a continue)
	//  1: return
	list := rawList(
		bytecode.RawInstr{Offset: 0, Opcode: bytecode.OpIfEq, Branch: 50, Target: 50},
		bytecode.RawInstr{Offset: 1, Opcode: bytecode.OpReturn},
	)

	out := RecognizeConditionals(list, 50, nil)
	if len(out) != 2 {
		t.Fatalf("want 2 top-level nodes, got %d: %+v", len(out), out)
	}
	if out[0].Tag != TagIfContinue {
		t.Fatalf("out[0].Tag = %v, want TagIfContinue", out[0].Tag)
	}
	if out[0].JumpTarget != 50 {
		t.Errorf("out[0].JumpTarget = %d, want 50", out[0].JumpTarget)
	}
}

func TestRecognizeConditionalsGotoBreakAndContinue(t *testing.T) {
	//  0: goto 100  (break)
	//  1: goto 50   (continue)
	//  2: return
	list := rawList(
		bytecode.RawInstr{Offset: 0, Opcode: bytecode.OpGoto, Branch: 100, Target: 100},
		bytecode.RawInstr{Offset: 1, Opcode: bytecode.OpGoto, Branch: 49, Target: 50},
		bytecode.RawInstr{Offset: 2, Opcode: bytecode.OpReturn},
	)

	out := RecognizeConditionals(list, 50, nil)
	if len(out) != 3 {
		t.Fatalf("want 3 top-level nodes, got %d: %+v", len(out), out)
	}
	if out[0].Tag != TagGotoBreak || out[0].JumpTarget != 100 {
		t.Fatalf("out[0] = %+v, want GotoBreak(100)", out[0])
	}
	if out[1].Tag != TagGotoContinue || out[1].JumpTarget != 50 {
		t.Fatalf("out[1] = %+v, want GotoContinue(50)", out[1])
	}
	if !out[2].IsRaw(bytecode.OpReturn) {
		t.Fatalf("out[2] = %+v, want return", out[2])
	}
}
