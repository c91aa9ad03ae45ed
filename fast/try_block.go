// Copyright 2017 The go-interpreter Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package fast

import (
	"fmt"

	"github.com/javadecompcore/javadecompcore/bytecode"
)

// CreateFastTry turns an aggregated try/catch/finally ExceptionRange into
// a TRY node spliced into list at the try body's start offset (spec §4.3).
func CreateFastTry(list []*Node, r *ExceptionRange, locals []*LocalVar, ctx *Context) ([]*Node, error) {
	afterListOffset := r.AfterOffset
	if idx := indexOfOffset(list, afterListOffset); idx < 0 {
		afterListOffset = list[len(list)-1].Offset + 1
	}

	var finallyBody []*Node
	hasFinally := r.FinallyFromOffset >= 0 && (r.Type == TypeFinally || r.Type == TypeFinallyJSR)
	if hasFinally {
		if r.Type == TypeFinallyJSR {
			// The handler only stores the pending exception, jsr's into
			// the shared subroutine, and rethrows; the finally body
			// itself lives in the subroutine, bracketed by the
			// return-address astore and the ret.
			subOffset := -1
			for _, n := range list {
				if n.IsRaw(bytecode.OpJsr) && n.Offset >= r.FinallyFromOffset {
					subOffset = n.Raw.Target
					break
				}
			}
			if subOffset < 0 {
				return nil, unexpected(r.FinallyFromOffset, "jsr-form finally handler without a subroutine call")
			}
			subStart := indexOfOffset(list, subOffset)
			if subStart < 0 {
				return nil, fmt.Errorf("fast: finally subroutine at offset %d: %w", subOffset, ErrBoundsViolation)
			}
			subEnd := subStart
			for subEnd < len(list) && !list[subEnd].IsRaw(bytecode.OpRet) {
				subEnd++
			}
			if subEnd < len(list) {
				subEnd++ // include the ret; dropped just below
			}
			finallyBody, list = extractRange(list, subStart, subEnd)
			if len(finallyBody) > 0 && finallyBody[0].IsRaw(bytecode.OpAStore) {
				removeLocalVariableWithIndexAndOffset(locals, finallyBody[0].Raw.VarIndex, finallyBody[0].Offset)
				finallyBody = finallyBody[1:]
			}
			finallyBody = removeWhere(finallyBody, func(n *Node) bool {
				return n.IsRaw(bytecode.OpRet)
			})

			// Drop the handler itself (exception store, subroutine call,
			// rethrow) and every remaining jsr into the subroutine — the
			// normal-path copies of the finally call.
			list = removeWhere(list, func(n *Node) bool {
				return n.Offset >= r.FinallyFromOffset && n.Offset < subOffset
			})
			list = removeWhere(list, func(n *Node) bool {
				return n.IsRaw(bytecode.OpJsr) && n.Raw.Target == subOffset
			})
		} else {
			// Inline form: the handler holds the duplicated finally body
			// bracketed by the exception store and the rethrow.
			finStart := indexOfOffset(list, r.FinallyFromOffset)
			if finStart < 0 {
				return nil, fmt.Errorf("fast: finally handler at offset %d: %w", r.FinallyFromOffset, ErrBoundsViolation)
			}
			finEndIdx := indexAtOrAfterOffset(list, afterListOffset)
			finallyBody, list = extractRange(list, finStart, finEndIdx)
			excSlot := -1
			if len(finallyBody) > 0 && finallyBody[0].IsRaw(bytecode.OpAStore) {
				excSlot = finallyBody[0].Raw.VarIndex
				removeLocalVariableWithIndexAndOffset(locals, excSlot, finallyBody[0].Offset)
				finallyBody = finallyBody[1:]
			}
			if n := len(finallyBody); n > 0 && finallyBody[n-1].IsRaw(bytecode.OpAThrow) {
				finallyBody = finallyBody[:n-1]
				if n := len(finallyBody); n > 0 && isLoadOp(finallyBody[n-1]) && finallyBody[n-1].Raw.VarIndex == excSlot {
					finallyBody = finallyBody[:n-1]
				}
			}
			// The normal path carries its own copy of the finally body
			// (plus the goto over the handler) between the try body's end
			// and the handler; in source the finally appears once, so the
			// duplicate is spliced out.
			list = removeWhere(list, func(n *Node) bool {
				return n.Offset >= r.TryToOffset && n.Offset < r.FinallyFromOffset
			})
		}

		if esc, ok := minEscapeOffset(finallyBody, r.TryFromOffset, afterListOffset); ok && esc < afterListOffset {
			afterListOffset = esc
		}
		if r.FinallyFromOffset < afterListOffset {
			afterListOffset = r.FinallyFromOffset
		}
	}

	catches := make([]*CatchClause, len(r.Catches))
	for i := len(r.Catches) - 1; i >= 0; i-- {
		ce := r.Catches[i]
		toOffset := ce.ToOffset
		if toOffset == 0 || toOffset > afterListOffset {
			toOffset = afterListOffset
		}
		startIdx := indexOfOffset(list, ce.FromOffset)
		if startIdx < 0 {
			return nil, fmt.Errorf("fast: catch handler at offset %d: %w", ce.FromOffset, ErrBoundsViolation)
		}
		endIdx := indexAtOrAfterOffset(list, toOffset)
		var body []*Node
		body, list = extractRange(list, startIdx, endIdx)
		body = dropTrailingBracketGoto(body, afterListOffset)

		if len(body) == 0 {
			return nil, ErrEmptyCatchBlock
		}

		varIndex := -1
		if body[0].IsRaw(bytecode.OpAStore) {
			slot := body[0].Raw.VarIndex
			varIndex = slot
			body[0] = &Node{Tag: TagExceptionLoad, Offset: body[0].Offset, Line: body[0].Line, ExceptionSlot: slot}
		}

		catches[i] = &CatchClause{
			ExceptionTypeIndex: ce.TypeIndex,
			OtherTypes:         ce.OtherTypes,
			VariableIndex:      varIndex,
			Body:               processLoopBodyIgnoringLoopErr(body, locals, ctx),
		}
	}

	tryStartIdx := indexOfOffset(list, r.TryFromOffset)
	if tryStartIdx < 0 {
		return nil, unexpected(r.TryFromOffset, "try body start not found in list")
	}
	tryEndIdx := indexAtOrAfterOffset(list, r.TryToOffset)
	var tryBody []*Node
	tryBody, list = extractRange(list, tryStartIdx, tryEndIdx)
	tryBody = dropTrailingBracketGoto(tryBody, afterListOffset)

	lastOffset := r.TryFromOffset
	if len(tryBody) > 0 {
		lastOffset = tryBody[len(tryBody)-1].Offset
	}
	_, _ = lastOffset, hasFinally // tryJumpOffset bookkeeping is consumed by the caller's label pass, not stored on the node itself.

	tryBody = processLoopBodyIgnoringLoopErr(tryBody, locals, ctx)
	if hasFinally {
		finallyBody = processLoopBodyIgnoringLoopErr(finallyBody, locals, ctx)
	}

	node := &Node{
		Tag:     TagTry,
		Offset:  r.TryFromOffset,
		Body:    tryBody,
		Catches: catches,
		Finally: finallyBody,
	}

	insertIdx := tryStartIdx
	if insertIdx > len(list) {
		insertIdx = len(list)
	}
	out := make([]*Node, 0, len(list)+1)
	out = append(out, list[:insertIdx]...)
	out = append(out, node)
	out = append(out, list[insertIdx:]...)
	return out, nil
}

// dropTrailingBracketGoto strips a body's final goto when it only jumps
// to (or past) the code following the whole try construct — the bracket
// javac places at the end of the try body and of every catch arm but the
// last, with no source-level counterpart.
func dropTrailingBracketGoto(body []*Node, afterOffset int) []*Node {
	if n := len(body); n > 0 {
		if g := body[n-1]; g.IsRaw(bytecode.OpGoto) && g.Raw.Target >= afterOffset {
			return body[:n-1]
		}
	}
	return body
}
