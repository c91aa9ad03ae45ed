// Copyright 2017 The go-interpreter Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package fast

import "github.com/javadecompcore/javadecompcore/bytecode"

// RecognizeConditionals scans a flat block for remaining conditional
// branches and unconditional gotos and classifies each into an IF_* or
// GOTO_* node (spec §4.6). continueTarget is the offset a continue in
// this block jumps to (the enclosing loop's back-edge node), or any
// offset outside the block's own range when called on a non-loop body.
//
// A branch whose target lies inside the block becomes IF_SIMPLE or, when
// the body it closes ends in a goto jumping further forward than the
// if's own target, IF_ELSE. A branch or goto whose target lies outside
// the block is provisionally an IF_BREAK/GOTO_BREAK; the Declaration
// Placer (declare.go) upgrades it to a labeled variant once the
// enclosing loop nest is known.
func RecognizeConditionals(list []*Node, continueTarget int, ctx *Context) []*Node {
	out := list[:0:0]
	i := 0
	for i < len(list) {
		n := list[i]

		if n.Tag == TagRaw && n.Raw != nil && n.Raw.Opcode.IsConditionalBranch() {
			target := n.Raw.Target
			switch {
			case target == continueTarget:
				out = append(out, &Node{Tag: TagIfContinue, Offset: n.Offset, Line: n.Line, Test: exprOf(n, ctx), JumpTarget: target})
				i++
				continue
			default:
				tIdx := indexOfOffset(list, target)
				if tIdx < 0 {
					if body, ok := earlyReturnBody(ctx, ctx.resolveGotoChain(target)); ok {
						out = fuseTrailingStore(out, body[0], n.Line)
						out = append(out, &Node{Tag: TagIfSimple, Offset: n.Offset, Line: n.Line, Test: exprOf(n, ctx), Body: body})
						i++
						continue
					}
					out = append(out, &Node{Tag: TagIfBreak, Offset: n.Offset, Line: n.Line, Test: exprOf(n, ctx), JumpTarget: target})
					i++
					continue
				}
				if tIdx <= i {
					// A conditional normally only targets backwards via the
					// loop back-edge handled in loop.go; anything else here
					// is left untouched rather than guessed at.
					out = append(out, n)
					i++
					continue
				}
				if elseGoto, ok := elseShape(list, i, tIdx); ok {
					thenBody := recognizeNestedBlock(list[i+1:tIdx-1], continueTarget, ctx)
					elseEnd := indexOfOffset(list, elseGoto.Raw.Target)
					if elseEnd < 0 {
						elseEnd = len(list)
					}
					elseBody := recognizeNestedBlock(list[tIdx:elseEnd], continueTarget, ctx)
					out = append(out, &Node{
						Tag: TagIfElse, Offset: n.Offset, Line: n.Line,
						Test: exprOf(n, ctx), Body: thenBody, Else: elseBody,
					})
					i = elseEnd
					continue
				}
				body := recognizeNestedBlock(list[i+1:tIdx], continueTarget, ctx)
				tag := TagIfSimple
				if len(body) == 0 {
					// An empty then-body with a forward in-block target
					// never arises from real source; fold it away rather
					// than emit a no-op IF_SIMPLE.
					out = append(out, n)
					i++
					continue
				}
				out = append(out, &Node{Tag: tag, Offset: n.Offset, Line: n.Line, Test: exprOf(n, ctx), Body: body})
				i = tIdx
				continue
			}
		}

		if n.Tag == TagRaw && n.Raw != nil && n.Raw.Opcode == bytecode.OpGoto {
			target := n.Raw.Target
			if tIdx := indexOfOffset(list, target); tIdx == i+1 {
				// A goto to the immediately following node transfers
				// control nowhere; it's left over from an excised handler
				// or block bracket.
				i++
				continue
			}
			switch {
			case target == continueTarget:
				out = append(out, &Node{Tag: TagGotoContinue, Offset: n.Offset, Line: n.Line, JumpTarget: target})
				i++
				continue
			case indexOfOffset(list, target) < 0:
				if body, ok := earlyReturnBody(ctx, ctx.resolveGotoChain(target)); ok {
					out = fuseTrailingStore(out, body[0], n.Line)
					out = append(out, body...)
					i++
					continue
				}
				out = append(out, &Node{Tag: TagGotoBreak, Offset: n.Offset, Line: n.Line, JumpTarget: target})
				i++
				continue
			}
		}

		out = append(out, n)
		i++
	}
	return out
}

// earlyReturnBody reports whether offset begins a method-ending
// `*load_n; *return` (or bare `*return`) shape in the original
// instruction stream — spec §4.6 step 4's special case — and, if so,
// returns it duplicated as standalone nodes ready to use as an IF_SIMPLE
// body or spliced directly in place of a goto.
func earlyReturnBody(ctx *Context, offset int) ([]*Node, bool) {
	load, ret, ok := ctx.returnShapeAt(offset)
	if !ok {
		return nil, false
	}
	var body []*Node
	if load != nil {
		body = append(body, NewRaw(*load))
	}
	body = append(body, NewRaw(*ret))
	return body, true
}

// fuseTrailingStore drops the last node already appended to out when it
// is a store, on the same source line as the jump that follows it, to
// the same slot first's duplicated load reads back (spec §4.6 step 4:
// "fused with a preceding same-line *store_n"). javac's return-duplication
// idiom computes `return expr;`'s value into a local right before the
// branch/goto that jumps to the shared tail return re-loading that same
// local — both instructions carry the source line of the one `if (cond)
// return expr;` statement they came from, which is what distinguishes
// this fuse from coincidentally reusing the same slot for something else.
func fuseTrailingStore(out []*Node, first *Node, jumpLine int) []*Node {
	if len(out) == 0 || first == nil || first.Raw == nil {
		return out
	}
	switch first.Raw.Opcode {
	case bytecode.OpILoad, bytecode.OpALoad, bytecode.OpXLoad:
	default:
		return out
	}
	last := out[len(out)-1]
	if last.Tag != TagRaw || last.Raw == nil || !isStoreOp(last.Raw.Opcode) {
		return out
	}
	if last.Raw.VarIndex != first.Raw.VarIndex {
		return out
	}
	if last.Line == bytecode.UnknownLineNumber || last.Line != jumpLine {
		return out
	}
	return out[:len(out)-1]
}

// elseShape reports whether the node just before tIdx is an unconditional
// goto jumping further forward than the if's own target — the classic
// "if COND goto L1; <then>; goto L2; L1: <else>; L2:" layout — and
// returns that goto node.
func elseShape(list []*Node, ifIdx, tIdx int) (*Node, bool) {
	if tIdx-1 <= ifIdx {
		return nil, false
	}
	g := list[tIdx-1]
	if g.Tag != TagRaw || g.Raw == nil || g.Raw.Opcode != bytecode.OpGoto {
		return nil, false
	}
	if g.Raw.Target <= list[tIdx].Offset {
		return nil, false
	}
	return g, true
}

// recognizeNestedBlock re-runs the battery, loop recognizer and
// conditional recognizer over a freshly carved-out then/else body.
// Locals aren't threaded into a nested if/else body's own loop
// recognition, so a for-each nested directly inside an if without an
// intervening loop builder stays a plain FOR; loop.go always passes
// bodies through RecognizeLoops with real locals before they reach
// here, so this only affects if/else arms nested inside another
// if/else, which is rare enough not to be worth threading locals for.
func recognizeNestedBlock(list []*Node, continueTarget int, ctx *Context) []*Node {
	list = Reconstruct(list, ctx)
	if nested, err := RecognizeLoops(list, nil, continueTarget, ctx); err == nil {
		list = nested
	}
	return RecognizeConditionals(list, continueTarget, ctx)
}
