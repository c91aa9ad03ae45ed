// Copyright 2017 The go-interpreter Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package fast

import "github.com/javadecompcore/javadecompcore/bytecode"

// passTernary recognizes `cond ? a : b` expressed as two if-jumps
// converging at a single stack value: `if COND goto L1; <push a>; goto L2;
// L1: <push b>; L2:` and folds the whole run into one value-producing
// node at the offset of the controlling conditional (spec §4.4
// "Ternary-op reconstruction"). Only the single-instruction-per-arm shape
// javac emits for primitive/reference ternaries is matched; a richer
// per-arm expression is the sibling type-inference module's job once it
// sees the Folded instructions.
func passTernary(list []*Node) []*Node {
	out := list[:0:0]
	for i := 0; i < len(list); i++ {
		n := list[i]
		if n.Tag == TagRaw && n.Raw != nil && n.Raw.Opcode.IsConditionalBranch() &&
			i+3 < len(list) {
			pushA := list[i+1]
			gotoNode := list[i+2]
			pushB := list[i+3]
			if pushA.Tag != TagRaw || pushA.Raw == nil || pushB.Tag != TagRaw || pushB.Raw == nil {
				out = append(out, n)
				continue
			}
			if gotoNode.IsRaw(bytecode.OpGoto) &&
				n.Raw.Target == pushB.Offset &&
				gotoNode.Raw.Target > pushB.Offset {
				var lEnd int
				if i+4 < len(list) {
					lEnd = list[i+4].Offset
				} else {
					lEnd = gotoNode.Raw.Target
				}
				if gotoNode.Raw.Target == lEnd {
					folded := []bytecode.RawInstr{*n.Raw, *pushA.Raw, *gotoNode.Raw}
					merged := &Node{
						Tag:    TagRaw,
						Offset: n.Offset,
						Line:   n.Line,
						Raw:    pushB.Raw,
						Folded: folded,
					}
					out = append(out, merged)
					i += 3
					continue
				}
			}
		}
		out = append(out, n)
	}
	return out
}
