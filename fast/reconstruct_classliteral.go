// Copyright 2017 The go-interpreter Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package fast

import "github.com/javadecompcore/javadecompcore/bytecode"

// passClassLiteral recognizes the synthetic `class$` helper idiom pre-1.5
// javac and Eclipse's `class$0` emit for a `.class` literal, and folds the
// `ldc <name>; invokestatic class$(...)` (or Eclipse's two-arg variant)
// run down to a single node marked IsClassLiteral (spec §4.4 ".class
// literal (pre-1.5 and Eclipse)").
func passClassLiteral(list []*Node, ctx *Context) []*Node {
	out := list[:0:0]
	for i := 0; i < len(list); i++ {
		n := list[i]
		if n.IsRaw(bytecode.OpInvokeStatic) {
			name := ctx.methodOrFieldName(n.Raw.ConstIndex)
			if name != "" && ctx.idioms().IsClassLiteralHelper(name) {
				// Consume the preceding 1-2 ldc nodes that pushed the
				// class/field name arguments.
				nArgs := 1
				if len(out) >= 2 && out[len(out)-2].IsRaw(bytecode.OpLdc) {
					nArgs = 2
				}
				if len(out) >= nArgs {
					base := out[len(out)-nArgs]
					var folded []bytecode.RawInstr
					for _, a := range out[len(out)-nArgs+1:] {
						folded = append(folded, *a.Raw)
					}
					folded = append(folded, *n.Raw)
					out = out[:len(out)-nArgs]
					literal := &Node{
						Tag:            TagRaw,
						Offset:         base.Offset,
						Line:           base.Line,
						Raw:            base.Raw,
						Folded:         folded,
						IsClassLiteral: true,
					}
					out = append(out, literal)
					continue
				}
			}
		}
		out = append(out, n)
	}
	return out
}
