// Copyright 2017 The go-interpreter Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package bytecode

import "testing"

func TestMethodLineAt(t *testing.T) {
	m := &Method{
		LineNumbers: []LineNumberEntry{
			{StartPC: 0, Line: 10},
			{StartPC: 5, Line: 11},
			{StartPC: 12, Line: 14},
		},
	}
	for _, tc := range []struct {
		offset int
		want   int
	}{
		{0, 10},
		{4, 10},
		{5, 11},
		{11, 11},
		{12, 14},
		{100, 14},
	} {
		if got := m.LineAt(tc.offset); got != tc.want {
			t.Errorf("LineAt(%d) = %d, want %d", tc.offset, got, tc.want)
		}
	}
}

func TestMethodLineAtEmptyTable(t *testing.T) {
	m := &Method{}
	if got := m.LineAt(3); got != UnknownLineNumber {
		t.Errorf("LineAt = %d, want UnknownLineNumber", got)
	}
}

func TestLocalVariableRange(t *testing.T) {
	v := &LocalVariable{Index: 1, StartPC: 4, Length: 6}
	if v.EndPC() != 10 {
		t.Errorf("EndPC = %d, want 10", v.EndPC())
	}
	if v.Contains(3) || !v.Contains(4) || !v.Contains(9) || v.Contains(10) {
		t.Error("Contains does not honor [StartPC, StartPC+Length)")
	}
}

func TestConstantPoolAppendsAreMonotonic(t *testing.T) {
	p := NewConstantPool([]ConstantPoolEntry{
		{}, // index 0 unused
		{Kind: ConstUtf8, Utf8: "existing"},
	})

	nameIdx := p.AppendUtf8("Ljava/lang/Object;")
	if nameIdx != 2 {
		t.Fatalf("AppendUtf8 = %d, want 2", nameIdx)
	}
	classIdx := p.AppendClass(nameIdx)
	ntIdx := p.AppendNameAndType(nameIdx, nameIdx)
	refIdx := p.AppendFieldref(classIdx, ntIdx)
	if classIdx != 3 || ntIdx != 4 || refIdx != 5 {
		t.Fatalf("append indices = %d, %d, %d; want 3, 4, 5", classIdx, ntIdx, refIdx)
	}

	// Existing indices stay stable.
	if got := p.Get(1).Utf8; got != "existing" {
		t.Errorf("Get(1).Utf8 = %q, want %q", got, "existing")
	}
	if got := p.Get(refIdx); got.Kind != ConstFieldref || got.ClassIndex != classIdx || got.NameAndTypeIndex != ntIdx {
		t.Errorf("Get(%d) = %+v, want the appended Fieldref", refIdx, got)
	}
	if p.Len() != 6 {
		t.Errorf("Len = %d, want 6", p.Len())
	}
}

func TestConstantPoolGetOutOfRange(t *testing.T) {
	p := NewConstantPool([]ConstantPoolEntry{{}, {Kind: ConstUtf8, Utf8: "x"}})
	if got := p.Get(0); got.Kind != ConstUtf8 || got.Utf8 != "" {
		t.Errorf("Get(0) = %+v, want the zero entry", got)
	}
	if got := p.Get(99); got.Utf8 != "" {
		t.Errorf("Get(99) = %+v, want the zero entry", got)
	}
}

func TestConstantPoolGobRoundTrip(t *testing.T) {
	p := NewConstantPool([]ConstantPoolEntry{
		{},
		{Kind: ConstUtf8, Utf8: "hello"},
		{Kind: ConstClass, NameIndex: 1},
	})

	data, err := p.GobEncode()
	if err != nil {
		t.Fatalf("GobEncode: %v", err)
	}
	var back ConstantPool
	if err := back.GobDecode(data); err != nil {
		t.Fatalf("GobDecode: %v", err)
	}
	if back.Len() != p.Len() {
		t.Fatalf("round-tripped Len = %d, want %d", back.Len(), p.Len())
	}
	if got := back.Get(1).Utf8; got != "hello" {
		t.Errorf("round-tripped Get(1).Utf8 = %q, want %q", got, "hello")
	}
}

func TestReferenceMap(t *testing.T) {
	r := NewReferenceMap()
	if r.Contains("java/util/List") {
		t.Error("empty map claims to contain a type")
	}
	r.Add("java/util/List")
	if !r.Contains("java/util/List") {
		t.Error("Add did not register the type")
	}
}

func TestOpcodePredicates(t *testing.T) {
	if !OpIfICmpGe.IsConditionalBranch() || OpGoto.IsConditionalBranch() {
		t.Error("IsConditionalBranch misclassifies")
	}
	if !OpIReturn.IsReturn() || !OpReturn.IsReturn() || OpAThrow.IsReturn() {
		t.Error("IsReturn misclassifies")
	}
	if !OpIAdd.IsArithmeticOp() || OpILoad.IsArithmeticOp() {
		t.Error("IsArithmeticOp misclassifies")
	}
	if !OpIALoad.IsArrayLoad() || !OpAALoad.IsArrayLoad() || OpIAStore.IsArrayLoad() {
		t.Error("IsArrayLoad misclassifies")
	}
}

func TestInvertedConditionIsAnInvolution(t *testing.T) {
	ops := []Opcode{
		OpIfEq, OpIfNe, OpIfLt, OpIfGe, OpIfGt, OpIfLe,
		OpIfICmpEq, OpIfICmpNe, OpIfICmpLt, OpIfICmpGe, OpIfICmpGt, OpIfICmpLe,
		OpIfACmpEq, OpIfACmpNe, OpIfNull, OpIfNonNull,
	}
	for _, op := range ops {
		inv, ok := op.InvertedCondition()
		if !ok {
			t.Errorf("InvertedCondition(%#x) not ok", uint8(op))
			continue
		}
		back, ok := inv.InvertedCondition()
		if !ok || back != op {
			t.Errorf("InvertedCondition(InvertedCondition(%#x)) = %#x, want the original", uint8(op), uint8(back))
		}
	}
	if _, ok := OpGoto.InvertedCondition(); ok {
		t.Error("InvertedCondition(goto) reports ok")
	}
}
