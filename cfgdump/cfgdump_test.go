// Copyright 2017 The go-interpreter Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cfgdump

import (
	"strings"
	"testing"

	"github.com/javadecompcore/javadecompcore/bytecode"
)

func TestGraphRendersNodesAndEdges(t *testing.T) {
	code := []bytecode.RawInstr{
		{Offset: 0, Opcode: bytecode.OpILoad, VarIndex: 1},
		{Offset: 1, Opcode: bytecode.OpIfGe, Branch: 4, Target: 5},
		{Offset: 4, Opcode: bytecode.OpGoto, Branch: -4, Target: 0},
		{Offset: 5, Opcode: bytecode.OpReturn},
	}

	out := WriteDOT(Graph("Foo.loop", code))

	for _, want := range []string{"digraph", "Foo.loop", "0: opcode", "1: opcode", "4: opcode", "5: opcode", "dashed"} {
		if !strings.Contains(out, want) {
			t.Errorf("DOT output missing %q:\n%s", want, out)
		}
	}
}

func TestGraphRendersSwitchTargets(t *testing.T) {
	code := []bytecode.RawInstr{
		{Offset: 0, Opcode: bytecode.OpTableSwitch, SwitchKeys: []int{0, 1}, SwitchTargets: []int{3, 4}, SwitchDefault: 5},
		{Offset: 3, Opcode: bytecode.OpNop},
		{Offset: 4, Opcode: bytecode.OpNop},
		{Offset: 5, Opcode: bytecode.OpReturn},
	}

	out := WriteDOT(Graph("Foo.sw", code))

	// One dashed edge per case target plus the default.
	if got := strings.Count(out, "dashed"); got != 3 {
		t.Errorf("dashed edge count = %d, want 3:\n%s", got, out)
	}
}

func TestGraphSkipsTargetsOutsideMethod(t *testing.T) {
	code := []bytecode.RawInstr{
		{Offset: 0, Opcode: bytecode.OpGoto, Branch: 100, Target: 100},
		{Offset: 3, Opcode: bytecode.OpReturn},
	}

	out := WriteDOT(Graph("Foo.bad", code))
	if strings.Contains(out, "dashed") {
		t.Errorf("edge to a nonexistent offset should be skipped:\n%s", out)
	}
}
