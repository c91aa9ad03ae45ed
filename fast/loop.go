// Copyright 2017 The go-interpreter Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package fast

import "github.com/javadecompcore/javadecompcore/bytecode"

// RecognizeLoops walks list end to front looking for back-edges — a
// negative conditional branch, an unconditional goto, or an already-built
// TRY/SYNCHRONIZED node whose exposed jump target is negative — and
// replaces each one (plus the body it closes) with the appropriate loop
// node (spec §4.5).
//
// continueTarget is the offset an enclosing loop's own back-edge resolves
// to, or -1 at the method's top level / when there is no enclosing loop.
// A node whose exposed jump target equals it is a continue of that
// enclosing loop, not a fresh back-edge: without this check the same
// end-to-front scan that finds genuine nested loops would also catch a
// mid-body `continue` (its target is negative relative to itself and
// resolves to a valid index, same as a real back-edge) and wrap it as a
// spurious one-node loop before RecognizeConditionals ever gets a chance
// to classify it as IF_CONTINUE/GOTO_CONTINUE — the loop-in-loop
// un-optimization spec §4.5 calls for (skipping it here is what lets the
// later conditional pass see and classify the continue correctly).
func RecognizeLoops(list []*Node, locals []*LocalVar, continueTarget int, ctx *Context) ([]*Node, error) {
	for i := len(list) - 1; i >= 0; i-- {
		n := list[i]
		target, ok := exposedJumpTarget(n)
		if !ok || target >= n.Offset {
			continue
		}
		if continueTarget >= 0 && target == continueTarget {
			continue
		}
		firstIdx := indexOfOffset(list, target)
		if firstIdx < 0 || firstIdx > i {
			continue
		}

		var (
			loopNode *Node
			err      error
		)
		if n.Tag == TagRaw && n.Raw != nil && n.Raw.Opcode == bytecode.OpGoto {
			loopNode, list, err = buildBackGoto(list, firstIdx, i, locals, ctx)
		} else {
			loopNode, list, err = buildBackIf(list, firstIdx, i, locals, ctx)
		}
		if err != nil {
			return nil, err
		}
		i = indexOfOffset(list, loopNode.Offset)
	}
	return list, nil
}

// exposedJumpTarget returns the single jump target a node exposes for the
// purposes of back-edge detection: a raw branch/goto's Target, or (for an
// already-built TRY/SYNCHRONIZED) the smallest escape target found inside
// it, which stands in for "the jump that would follow this block".
func exposedJumpTarget(n *Node) (int, bool) {
	if n.Tag == TagRaw && n.Raw != nil && isJump(n.Raw.Opcode) {
		return n.Raw.Target, true
	}
	if n.Tag == TagTry || n.Tag == TagSynchronized {
		return minEscapeOffset(n.Body, n.Offset, n.Offset+1)
	}
	return 0, false
}

func buildBackIf(list []*Node, firstIdx, lastIdx int, locals []*LocalVar, ctx *Context) (*Node, []*Node, error) {
	back := list[lastIdx]
	var body []*Node
	body, list = extractRange(list, firstIdx, lastIdx)

	var beforeLoop *Node
	beforeIdx := firstIdx - 1
	if beforeIdx >= 0 {
		beforeLoop = list[beforeIdx]
	}

	var test *Node
	var lastBodyLoop *Node
	if len(body) > 0 {
		lastBodyLoop = body[len(body)-1]
	}
	if back.Tag == TagRaw && back.Raw != nil && back.Raw.Opcode.IsConditionalBranch() {
		test = back
	}

	// javac's canonical pre-test lowering reaches the bottom-of-loop test on
	// first entry via an unconditional goto just ahead of the body; its
	// presence is what tells a bottom-tested WHILE apart from a genuine
	// DO-WHILE (which falls into the body unconditionally instead).
	hasEntryGoto := beforeLoop != nil && beforeLoop.Tag == TagRaw && beforeLoop.Raw != nil &&
		beforeLoop.Raw.Opcode == bytecode.OpGoto && beforeLoop.Raw.Target > beforeLoop.Offset &&
		beforeLoop.Raw.Target <= back.Offset

	// With an entry goto present, a FOR's init sits one further back: the
	// compiler emits `init; goto TEST; body...; TEST: test`.
	candidateInit := beforeLoop
	if hasEntryGoto && beforeIdx-1 >= 0 {
		candidateInit = list[beforeIdx-1]
	}

	shape, initNode, testNode, incrNode := getLoopType(candidateInit, test, nil, lastBodyLoop, hasEntryGoto)

	// If the increment was identified as the trailing body instruction,
	// drop it from the body proper (it becomes the FOR node's Incr).
	if incrNode != nil && len(body) > 0 && body[len(body)-1] == incrNode {
		body = body[:len(body)-1]
	}
	// The entry goto is pure bytecode plumbing with no source-level
	// meaning once the loop it jumps into has been built, and a pre-loop
	// init is absorbed into the FOR node's Init; neither belongs in the
	// enclosing list anymore. Each removal shifts every later index back
	// by one, so the prefix/suffix split below must shift with it.
	if hasEntryGoto {
		entry := beforeLoop
		list = removeWhere(list, func(x *Node) bool { return x == entry })
		firstIdx--
	}
	if initNode != nil {
		list = removeWhere(list, func(x *Node) bool { return x == initNode })
		firstIdx--
	}

	body, err := processLoopBody(body, locals, back.Offset, ctx)
	if err != nil {
		return nil, nil, err
	}

	loopNode := &Node{Offset: back.Offset, Line: back.Line, Body: body}
	switch shape {
	case loopInfinite:
		loopNode.Tag = TagInfiniteLoop
	case loopWhile:
		loopNode.Tag = TagWhile
		loopNode.Test = exprOf(testNode, ctx)
	case loopDoWhile:
		if len(body) == 0 {
			loopNode.Tag = TagWhile
		} else {
			loopNode.Tag = TagDoWhile
		}
		loopNode.Test = exprOf(test, ctx)
	case loopFor:
		loopNode.Tag = TagFor
		loopNode.Init = initNode
		if testNode != nil {
			loopNode.Test = exprOf(testNode, ctx)
		}
		loopNode.Incr = incrNode
		if initNode != nil && initNode.Raw != nil {
			markDeclaredAt(locals, initNode.Raw.VarIndex, initNode.Offset)
		}
		var precedingCall *Node
		if firstIdx-1 >= 0 {
			precedingCall = list[firstIdx-1]
		}
		if fe, consumed := tryForEach(loopNode, precedingCall, locals, ctx); fe != nil {
			loopNode = fe
			if consumed {
				list = removeWhere(list, func(x *Node) bool { return x == precedingCall })
				firstIdx--
			}
		}
	}

	idx2 := indexOfOffset(list, back.Offset)
	if idx2 < 0 {
		idx2 = firstIdx
	}
	out := make([]*Node, 0, len(list))
	out = append(out, list[:firstIdx]...)
	out = append(out, loopNode)
	if idx2+1 <= len(list) {
		out = append(out, list[idx2+1:]...)
	}
	return loopNode, out, nil
}

func buildBackGoto(list []*Node, firstIdx, lastIdx int, locals []*LocalVar, ctx *Context) (*Node, []*Node, error) {
	back := list[lastIdx]
	var body []*Node
	body, list = extractRange(list, firstIdx, lastIdx)

	// A back-goto shape is always infinite, do-while (with a trailing
	// conditional forming the do-while test), or a pre-test loop: the
	// test sits at the loop's top and exits forward past the back-goto
	// (spec §4.5 "Back-goto handler").
	var loopNode *Node
	if len(body) > 0 {
		last := body[len(body)-1]
		if last.Tag == TagRaw && last.Raw != nil && last.Raw.Opcode.IsConditionalBranch() && last.Raw.Target == back.Offset+1 {
			// Trailing conditional jumping just past the back-goto: a
			// do-while whose test exits on the inverted condition.
			body = body[:len(body)-1]
			processed, err := processLoopBody(body, locals, last.Offset, ctx)
			if err != nil {
				return nil, nil, err
			}
			loopNode = &Node{Tag: TagDoWhile, Offset: back.Offset, Line: back.Line, Test: invertedTest(last, ctx), Body: processed}
		}
	}
	if loopNode == nil {
		if testIdx, ok := preTestIndex(body, back.Offset); ok {
			// Leading operand pushes + a conditional exiting forward past
			// the back-goto: a while loop tested at the top. The pushes
			// fold into the test; the branch-taken direction is "exit",
			// so the source-level test is the inverted condition.
			testNode := body[testIdx]
			testNode.Folded = append(rawInstrsOf(body[:testIdx]), testNode.Folded...)
			rest := body[testIdx+1:]
			processed, err := processLoopBody(rest, locals, back.Raw.Target, ctx)
			if err != nil {
				return nil, nil, err
			}
			loopNode = &Node{Tag: TagWhile, Offset: back.Offset, Line: back.Line, Test: invertedTest(testNode, ctx), Body: processed}
		}
	}
	if loopNode == nil {
		processed, err := processLoopBody(body, locals, back.Raw.Target, ctx)
		if err != nil {
			return nil, nil, err
		}
		loopNode = &Node{Tag: TagInfiniteLoop, Offset: back.Offset, Line: back.Line, Body: processed}
	}

	idx2 := indexOfOffset(list, back.Offset)
	if idx2 < 0 {
		idx2 = firstIdx
	}
	out := make([]*Node, 0, len(list))
	out = append(out, list[:firstIdx]...)
	out = append(out, loopNode)
	if idx2+1 <= len(list) {
		out = append(out, list[idx2+1:]...)
	}
	return loopNode, out, nil
}

// processLoopBody runs the full inner pipeline over a freshly carved-out
// loop body: expression folding, then loop recognition for any loop
// nested directly inside this one, then conditional recognition for
// whatever ifs/breaks/continues remain. continueTarget is this loop's own
// back-edge offset, used by the conditional recognizer to classify a
// continue correctly even once the body no longer contains the back-edge
// node itself.
func processLoopBody(body []*Node, locals []*LocalVar, continueTarget int, ctx *Context) ([]*Node, error) {
	body = Reconstruct(body, ctx)
	body, err := RecognizeLoops(body, locals, continueTarget, ctx)
	if err != nil {
		return nil, err
	}
	body = RecognizeConditionals(body, continueTarget, ctx)
	return body, nil
}

// loopShape is one of the eight shapes spec §4.5's getLoopType table
// names, collapsed: the three for(...) variants all classify as loopFor
// here and are re-split by which of Init/Test/Incr ends up non-nil.
type loopShape int

const (
	loopInfinite loopShape = iota
	loopWhile
	loopDoWhile
	loopFor
)

// getLoopType implements spec §4.5's decision table. beforeLoop is the
// instruction immediately preceding the loop body (a candidate init),
// test is the back-if's own conditional (nil for a back-goto), and
// lastBodyLoop is the last instruction of the loop body (a candidate
// increment). hasEntryGoto reports whether beforeLoop is the unconditional
// jump that javac uses to reach a bottom-of-loop test on first entry; its
// absence is what marks an otherwise test-only shape as a DO-WHILE instead
// of a WHILE. It returns the shape plus whichever of init/test/incr the
// shape uses.
func getLoopType(beforeLoop, test, _, lastBodyLoop *Node, hasEntryGoto bool) (shape loopShape, init, testOut, incr *Node) {
	hasInit := beforeLoop != nil && isAssignLike(beforeLoop)
	hasTest := test != nil
	hasIncr := lastBodyLoop != nil && isIncrLike(lastBodyLoop)

	testOnlyShape := func() loopShape {
		if hasEntryGoto {
			return loopWhile
		}
		return loopDoWhile
	}

	switch {
	case !hasInit && !hasTest && !hasIncr:
		return loopInfinite, nil, nil, nil
	case !hasInit && hasTest && !hasIncr:
		return testOnlyShape(), nil, test, nil
	case !hasInit && !hasTest && hasIncr:
		if incrIsAffineWithInit(nil, lastBodyLoop) {
			return loopFor, nil, nil, lastBodyLoop
		}
		return loopInfinite, nil, nil, nil
	case !hasInit && hasTest && hasIncr:
		if sameLineOrOffsetAdjacent(test, lastBodyLoop) {
			return loopFor, nil, test, lastBodyLoop
		}
		return testOnlyShape(), nil, test, nil
	case hasInit && !hasTest && !hasIncr:
		return loopFor, beforeLoop, nil, nil
	case hasInit && hasTest && !hasIncr:
		if sameLineOrOffsetAdjacent(beforeLoop, test) {
			return loopFor, beforeLoop, test, nil
		}
		return testOnlyShape(), nil, test, nil
	case hasInit && !hasTest && hasIncr:
		if incrIsAffineWithInit(beforeLoop, lastBodyLoop) {
			return loopFor, beforeLoop, nil, lastBodyLoop
		}
		return loopFor, beforeLoop, nil, nil
	default: // hasInit && hasTest && hasIncr
		if sameLineOrOffsetAdjacent(beforeLoop, test) || shareVariable(beforeLoop, lastBodyLoop) {
			return loopFor, beforeLoop, test, lastBodyLoop
		}
		// beforeLoop doesn't line up with the test's line and doesn't
		// target the increment's slot, so it isn't this loop's init after
		// all (an unrelated instruction happens to precede it) — fall back
		// the same way the hasInit&&hasTest&&!hasIncr case does: keep the
		// test, drop the spurious init.
		return testOnlyShape(), nil, test, nil
	}
}

func isAssignLike(n *Node) bool {
	if n == nil || n.Tag != TagRaw || n.Raw == nil {
		return false
	}
	switch n.Raw.Opcode {
	case bytecode.OpIStore, bytecode.OpAStore:
		return true
	}
	return false
}

func isIncrLike(n *Node) bool {
	if n == nil || n.Tag != TagRaw || n.Raw == nil {
		return false
	}
	return n.Raw.Opcode == bytecode.OpIInc
}

func incrIsAffineWithInit(init, incr *Node) bool {
	if incr == nil || incr.Raw == nil {
		return false
	}
	if init == nil {
		return true
	}
	return init.Raw != nil && init.Raw.VarIndex == incr.Raw.VarIndex
}

func sameLineOrOffsetAdjacent(a, b *Node) bool {
	if a == nil || b == nil {
		return false
	}
	if a.Line != bytecode.UnknownLineNumber && a.Line == b.Line {
		return true
	}
	return false
}

func shareVariable(a, b *Node) bool {
	if a == nil || b == nil || a.Raw == nil || b.Raw == nil {
		return false
	}
	return a.Raw.VarIndex == b.Raw.VarIndex
}

// preTestIndex locates a pre-test loop's conditional inside a back-goto
// body: a leading run of plain raw instructions (the test's operand
// pushes) followed by a conditional branch exiting forward past the
// back-goto at backOffset. Any other leading shape is not a top-tested
// loop.
func preTestIndex(body []*Node, backOffset int) (int, bool) {
	for i, n := range body {
		if n.Tag != TagRaw || n.Raw == nil {
			return 0, false
		}
		if n.Raw.Opcode.IsConditionalBranch() {
			return i, n.Raw.Target > backOffset
		}
		if isJump(n.Raw.Opcode) || n.Raw.Opcode == bytecode.OpTableSwitch || n.Raw.Opcode == bytecode.OpLookupSwitch {
			return 0, false
		}
	}
	return 0, false
}

// rawInstrsOf flattens a run of raw nodes to their backing instructions.
func rawInstrsOf(nodes []*Node) []bytecode.RawInstr {
	out := make([]bytecode.RawInstr, 0, len(nodes))
	for _, n := range nodes {
		if n.Raw != nil {
			out = append(out, *n.Raw)
		}
		out = append(out, n.Folded...)
	}
	return out
}

// invertedTest builds the loop-test expression for a conditional whose
// branch-taken direction is "exit the loop": the source-level test is the
// branch condition's logical negation.
func invertedTest(n *Node, ctx *Context) *Expr {
	if n.Raw == nil {
		return exprOf(n, ctx)
	}
	if inv, ok := n.Raw.Opcode.InvertedCondition(); ok {
		merged := *n.Raw
		merged.Opcode = inv
		clone := &Node{Tag: TagRaw, Offset: n.Offset, Line: n.Line, Raw: &merged, Folded: n.Folded}
		return exprOf(clone, ctx)
	}
	return exprOf(n, ctx)
}

// markDeclaredAt flags the local variable at slot as already declared
// when its live range begins exactly at offset, so the Declaration
// Placer doesn't also wrap its store (now absorbed into a FOR node's
// Init) or, failing to find one, synthesize a redundant orphaned
// DECLARE for it.
func markDeclaredAt(locals []*LocalVar, slot, offset int) {
	for _, lv := range locals {
		if lv.Index == slot && lv.StartPC == offset {
			lv.Declared = true
			return
		}
	}
}

func exprOf(n *Node, ctx *Context) *Expr {
	if n == nil {
		return nil
	}
	var instrs []bytecode.RawInstr
	if n.Raw != nil {
		instrs = append(instrs, *n.Raw)
	}
	instrs = append(instrs, n.Folded...)
	e, err := ctx.reconstructor().Resolve(instrs, ctx.pool())
	if err != nil {
		e = Expr{Repr: "<expr>", Instrs: instrs}
	}
	return &e
}
