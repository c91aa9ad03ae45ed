// Copyright 2017 The go-interpreter Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package fast

import "github.com/javadecompcore/javadecompcore/bytecode"

// passComparisonAggregate merges lcmp/fcmpl/fcmpg/dcmpl/dcmpg followed by
// an integer branch (ifeq/ifne/iflt/ifge/ifgt/ifle, which after the *cmp
// is comparing the cmp result against zero) into a single three-operand
// compare-and-branch node carrying the original branch opcode but tagged
// with the wide comparison it rides on (spec §4.4 "Comparison
// aggregation"). Runs after if+goto collapse so a three-operand compare
// immediately followed by its branch, with no intervening goto, is the
// only shape left to match.
func passComparisonAggregate(list []*Node) []*Node {
	out := list[:0:0]
	for i := 0; i < len(list); i++ {
		n := list[i]
		if isWideCompare(n) && i+1 < len(list) {
			next := list[i+1]
			if next.Tag == TagRaw && next.Raw != nil && isZeroTest(next.Raw.Opcode) {
				merged := *next.Raw
				combined := &Node{
					Tag:    TagRaw,
					Offset: n.Offset,
					Line:   n.Line,
					Raw:    &merged,
					Folded: []bytecode.RawInstr{*n.Raw},
				}
				out = append(out, combined)
				i++ // also consume the branch
				continue
			}
		}
		out = append(out, n)
	}
	return out
}

func isWideCompare(n *Node) bool {
	if n.Tag != TagRaw || n.Raw == nil {
		return false
	}
	switch n.Raw.Opcode {
	case bytecode.OpLCmp, bytecode.OpFCmpL, bytecode.OpFCmpG, bytecode.OpDCmpL, bytecode.OpDCmpG:
		return true
	}
	return false
}

func isZeroTest(op bytecode.Opcode) bool {
	switch op {
	case bytecode.OpIfEq, bytecode.OpIfNe, bytecode.OpIfLt, bytecode.OpIfGe, bytecode.OpIfGt, bytecode.OpIfLe:
		return true
	}
	return false
}
