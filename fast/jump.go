// Copyright 2017 The go-interpreter Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package fast

import "github.com/javadecompcore/javadecompcore/bytecode"

// isJump reports whether op is a goto or a conditional branch — anything
// that carries a single jump Target the recognizers must account for.
func isJump(op bytecode.Opcode) bool {
	return op == bytecode.OpGoto || op.IsConditionalBranch()
}

// isBackEdge reports whether n is a jump whose target is behind its own
// offset (spec glossary "Back-edge").
func isBackEdge(n *Node) bool {
	return n.Tag == TagRaw && n.Raw != nil && isJump(n.Raw.Opcode) && n.Raw.Target < n.Offset
}
