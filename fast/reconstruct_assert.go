// Copyright 2017 The go-interpreter Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package fast

import "github.com/javadecompcore/javadecompcore/bytecode"

// passAssert detects the `getstatic $assertionsDisabled; ifne END` guard
// javac wraps every `assert` statement's condition check in and removes
// it, leaving the inner `if (!cond) { ...; throw new AssertionError(...); }`
// for the Conditional Recognizer to pick up as a plain IF_SIMPLE whose
// body ends in athrow (spec §4.4 "Assert reconstruction"). The resulting
// IF_SIMPLE reads exactly as a reconstructed `assert` once the downstream
// renderer recognizes an athrow-of-AssertionError body; this pass only
// removes the guard, since folding that recognition in here as well would
// duplicate the Conditional Recognizer's own athrow handling.
func passAssert(list []*Node, ctx *Context) []*Node {
	out := list[:0:0]
	for i := 0; i < len(list); i++ {
		n := list[i]
		if n.IsRaw(bytecode.OpGetStatic) && i+1 < len(list) && list[i+1].IsRaw(bytecode.OpIfNe) {
			name := ctx.methodOrFieldName(n.Raw.ConstIndex)
			if name != "" && ctx.idioms().IsAssertionsDisabledField(name) {
				i++ // drop both the getstatic and the ifne guard
				continue
			}
		}
		out = append(out, n)
	}
	return out
}
