// Copyright 2017 The go-interpreter Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package fast

import "github.com/javadecompcore/javadecompcore/bytecode"

// passCompoundAssignment recognizes `x = x OP expr` — `iload x; <push
// expr>; <binary op>; istore x` — and folds it to a single node
// representing `x OP= expr` (spec §4.4 "Compound assignment"). The
// folded node's Raw is the istore (the visible effect); Folded carries
// the load, the pushed expr, and the operator, in order.
func passCompoundAssignment(list []*Node) []*Node {
	out := list[:0:0]
	for i := 0; i < len(list); i++ {
		n := list[i]
		if n.IsRaw(bytecode.OpILoad) && i+3 < len(list) {
			exprNode := list[i+1]
			opNode := list[i+2]
			storeNode := list[i+3]
			if exprNode.Raw != nil && opNode.Tag == TagRaw && opNode.Raw != nil &&
				opNode.Raw.Opcode.IsArithmeticOp() &&
				storeNode.IsRaw(bytecode.OpIStore) && storeNode.Raw.VarIndex == n.Raw.VarIndex {
				folded := []bytecode.RawInstr{*n.Raw, *exprNode.Raw, *opNode.Raw}
				out = append(out, &Node{
					Tag:    TagRaw,
					Offset: n.Offset,
					Line:   n.Line,
					Raw:    storeNode.Raw,
					Folded: folded,
				})
				i += 3
				continue
			}
		}
		out = append(out, n)
	}
	return out
}
