// Copyright 2017 The go-interpreter Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package fast

// indexOfOffset returns the index of the node whose Offset equals offset,
// or -1. list must be offset-sorted (spec §3 invariant).
func indexOfOffset(list []*Node, offset int) int {
	for i, n := range list {
		if n.Offset == offset {
			return i
		}
	}
	return -1
}

// extractRange removes and returns list[fromIdx:toIdx] (exclusive of
// toIdx), preserving source order in the returned slice and leaving list
// offset-sorted and contiguous.
func extractRange(list []*Node, fromIdx, toIdx int) (extracted, remainder []*Node) {
	if fromIdx < 0 || toIdx > len(list) || fromIdx > toIdx {
		return nil, list
	}
	extracted = append([]*Node(nil), list[fromIdx:toIdx]...)
	remainder = append(append([]*Node(nil), list[:fromIdx]...), list[toIdx:]...)
	return extracted, remainder
}

// indexAtOrAfterOffset returns the index of the first node whose Offset is
// >= offset, or len(list). Unlike indexOfOffset it tolerates an offset
// whose exact node has already been spliced out of this list.
func indexAtOrAfterOffset(list []*Node, offset int) int {
	for i, n := range list {
		if n.Offset >= offset {
			return i
		}
	}
	return len(list)
}

// removeWhere deletes every node for which pred returns true, preserving
// order.
func removeWhere(list []*Node, pred func(*Node) bool) []*Node {
	out := list[:0:0]
	for _, n := range list {
		if !pred(n) {
			out = append(out, n)
		}
	}
	return out
}

// minEscapeOffset returns the smallest target offset of any branch/jump
// inside list whose target lies outside [lowOffset, highOffset) — the
// "escape offset" named in the glossary, used to compute break targets and
// the boundary of a block body that follows a try/catch/finally or
// synchronized block.
func minEscapeOffset(list []*Node, lowOffset, highOffset int) (int, bool) {
	best := 0
	found := false
	var walk func([]*Node)
	walk = func(l []*Node) {
		for _, n := range l {
			if n.Tag == TagRaw && n.Raw != nil && isJump(n.Raw.Opcode) {
				t := n.Raw.Target
				if t < lowOffset || t >= highOffset {
					if !found || t < best {
						best, found = t, true
					}
				}
			}
			walk(n.Body)
			walk(n.Else)
			walk(n.Finally)
			for _, c := range n.Catches {
				walk(c.Body)
			}
			for _, c := range n.Cases {
				walk(c.Body)
			}
		}
	}
	walk(list)
	return best, found
}
