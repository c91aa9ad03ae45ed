// Copyright 2017 The go-interpreter Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package fast

import "github.com/javadecompcore/javadecompcore/bytecode"

// passDupCleanup removes dup/dup_x1/dup2 nodes that remain after the
// earlier expression folds (spec §4.4 "Dup cleanup"). A dup survives
// array-initializer and compound-assignment folding only when it was
// duplicating a value for a dup-load or dup-store idiom the earlier
// passes already consumed (e.g. `a = b = expr`), in which case the
// duplicate push is now provably redundant: the folded node carries the
// value directly.
func passDupCleanup(list []*Node) []*Node {
	return removeWhere(list, func(n *Node) bool {
		return n.IsRaw(bytecode.OpDup) || n.IsRaw(bytecode.OpDupX1) || n.IsRaw(bytecode.OpDup2)
	})
}
