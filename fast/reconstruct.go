// Copyright 2017 The go-interpreter Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package fast

// Reconstruct applies the fixed, ordered battery of Expression
// Reconstructors to list (spec §4.4). Each pass is a single left-to-right
// scan that may delete or replace nodes in place; later passes assume the
// normal form earlier passes produce, so the order below must not change.
func Reconstruct(list []*Node, ctx *Context) []*Node {
	list = passEmptySynchronized(list)
	list = passClassLiteral(list, ctx)
	list = passIfGotoToIf(list)
	list = passComparisonAggregate(list)
	list = passAssert(list, ctx)
	list = passTernary(list)
	list = passArrayInitializer(list)
	list = passCompoundAssignment(list)
	list = passDupCleanup(list)
	return list
}
