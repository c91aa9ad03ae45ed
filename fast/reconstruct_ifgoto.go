// Copyright 2017 The go-interpreter Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package fast

import "github.com/javadecompcore/javadecompcore/bytecode"

// passIfGotoToIf collapses `if COND goto L1; goto L2; L1:` into a single
// inverted conditional `if !COND goto L2` (spec §4.4 "if+goto→if"). This
// must run before comparison aggregation, which expects a single
// conditional immediately following a *cmp instruction rather than a
// goto in between.
func passIfGotoToIf(list []*Node) []*Node {
	out := list[:0:0]
	for i := 0; i < len(list); i++ {
		n := list[i]
		if n.Tag == TagRaw && n.Raw != nil && n.Raw.Opcode.IsConditionalBranch() &&
			i+1 < len(list) && list[i+1].IsRaw(bytecode.OpGoto) {
			gotoNode := list[i+1]
			// L1 must be exactly the instruction after the goto.
			if i+2 < len(list) && n.Raw.Target == list[i+2].Offset {
				if inv, ok := n.Raw.Opcode.InvertedCondition(); ok {
					merged := *n.Raw
					merged.Opcode = inv
					merged.Target = gotoNode.Raw.Target
					merged.Branch = gotoNode.Raw.Target - n.Offset
					out = append(out, &Node{Tag: TagRaw, Offset: n.Offset, Line: n.Line, Raw: &merged})
					i++ // also consume the goto
					continue
				}
			}
		}
		out = append(out, n)
	}
	return out
}
