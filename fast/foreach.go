// Copyright 2017 The go-interpreter Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package fast

import "github.com/javadecompcore/javadecompcore/bytecode"

// tryForEach inspects an already-classified FOR node and, if its
// Init/Test/Body match one of spec §4.5.1's four for-each shapes,
// returns the equivalent FOREACH node plus whether precedingCall (the
// list element immediately ahead of the FOR's own Init, a candidate
// `coll.iterator()` call) was absorbed into it and must be dropped by
// the caller. It returns (nil, false) when none of the patterns match,
// leaving the caller's plain FOR node in place.
func tryForEach(forNode, precedingCall *Node, locals []*LocalVar, ctx *Context) (*Node, bool) {
	if fe := tryForEachIterator(forNode, precedingCall, locals, ctx); fe != nil {
		return fe, true
	}
	if fe := tryForEachArray(forNode, locals, ctx); fe != nil {
		return fe, false
	}
	return nil, false
}

// tryForEachIterator recognizes pattern A: an Iterator-backed for-each,
// present across every javac/eclipse/ibm/jikes vendor alike.
//
//	Iterator it = coll.iterator();     // precedingCall, then Init
//	while (it.hasNext()) {             // Test
//	    T v = (T) it.next();           // first body instructions
//	    ...
//	}
//
// The iterator() invocation and the astore that captures its result are
// two distinct instructions; astore is what getLoopType identifies as
// the FOR's Init, so the call name is checked on precedingCall, the
// sibling node immediately ahead of Init in program order, not on Init
// itself.
func tryForEachIterator(forNode, precedingCall *Node, locals []*LocalVar, ctx *Context) *Node {
	if forNode.Init == nil || forNode.Test == nil || len(forNode.Body) == 0 {
		return nil
	}
	init := forNode.Init
	if init.Raw == nil || !isStoreOp(init.Raw.Opcode) {
		return nil
	}
	if precedingCall == nil || !callNameIs(precedingCall, "iterator", ctx) {
		return nil
	}

	// The test expression's Instrs should include an invocation of
	// hasNext on iterSlot; we don't have a real Expr AST to inspect, so
	// fall back to inspecting the raw chain the test was built from.
	if !exprMentionsCall(forNode.Test, "hasNext") {
		return nil
	}

	iterSlot := init.Raw.VarIndex

	// The body may open with an aload of the iterator slot re-pushing the
	// receiver for next(); skip it before matching the call.
	body := forNode.Body
	idx := 0
	if isLoadOp(body[idx]) && body[idx].Raw.VarIndex == iterSlot && idx+1 < len(body) {
		idx++
	}
	if body[idx].Raw == nil || !callNameIs(body[idx], "next", ctx) {
		return nil
	}
	idx++

	// The store immediately following next() (possibly preceded by a
	// checkcast, already folded into Folded by no pass here since casts
	// aren't part of the battery) declares the loop variable.
	if idx < len(body) && body[idx].Raw != nil && body[idx].Raw.Opcode == bytecode.OpCheckCast {
		idx++
	}
	if idx >= len(body) || body[idx].Raw == nil || !isStoreOp(body[idx].Raw.Opcode) {
		return nil
	}
	loopVarSlot := body[idx].Raw.VarIndex
	var loopVar *LocalVar
	for _, lv := range locals {
		if lv.Index == loopVarSlot {
			loopVar = lv
			loopVar.Declared = true
			break
		}
	}

	newBody := append([]*Node{}, body[idx+1:]...)

	// The bottom-of-loop test's own operand pushes (aload it; invoke
	// hasNext) trail the body once the back-if is carved off; they are
	// the test's plumbing, not statements.
	if n := len(newBody); n >= 2 &&
		isLoadOp(newBody[n-2]) && newBody[n-2].Raw.VarIndex == iterSlot &&
		callNameIs(newBody[n-1], "hasNext", ctx) {
		newBody = newBody[:n-2]
	}

	// Purge the synthetic iterator slot (spec: keyed on the store that
	// captured it).
	removeLocalVariableWithIndexAndOffset(locals, iterSlot, init.Offset)

	return &Node{
		Tag:      TagForEach,
		Offset:   forNode.Offset,
		Line:     forNode.Line,
		LoopVar:  loopVar,
		Iterable: exprOf(precedingCall, ctx),
		Body:     newBody,
	}
}

// tryForEachArray recognizes patterns B/C/D: an index-counted array
// for-each, distinguished from a plain counting for loop by the body's
// leading four raw instructions re-deriving the element at the current
// index (spec §4.5.1 "Array for-each, compiler variants"):
//
//	aload  arrSlot   // the array reference (cached local, or re-fetched
//	                  // expression — B/C/D differ only in how this slot
//	                  // got its value, not in this shape)
//	iload  idxSlot    // the FOR's own index variable
//	Xaload            // the element load
//	Xstore elemSlot   // captures it as the loop variable
//
// All three variants share this core; each caches the array and its
// length in compiler temporaries, and they differ only in those
// temporaries' names (idiomdb's default.yaml) — none of which
// changes the four-instruction shape the loop body opens with, so one
// structural match covers all three rather than needing per-variant
// idiom-name lookups.
func tryForEachArray(forNode *Node, locals []*LocalVar, ctx *Context) *Node {
	if forNode.Init == nil || forNode.Init.Raw == nil || len(forNode.Body) < 4 {
		return nil
	}
	idxSlot := forNode.Init.Raw.VarIndex

	arrLoad, idxLoad, elemLoad, store := forNode.Body[0], forNode.Body[1], forNode.Body[2], forNode.Body[3]

	if !isLoadOp(arrLoad) {
		return nil
	}
	if !isLoadOp(idxLoad) || idxLoad.Raw.VarIndex != idxSlot {
		return nil
	}
	if elemLoad.Raw == nil || !elemLoad.Raw.Opcode.IsArrayLoad() {
		return nil
	}
	if store.Raw == nil || !isStoreOp(store.Raw.Opcode) {
		return nil
	}

	loopVarSlot := store.Raw.VarIndex
	var loopVar *LocalVar
	for _, lv := range locals {
		if lv.Index == loopVarSlot {
			loopVar = lv
			break
		}
	}
	if loopVar == nil {
		return nil
	}
	loopVar.Declared = true

	purgeArrayForEachSlots(locals, arrLoad.Raw.VarIndex, idxSlot, loopVarSlot, ctx)

	newBody := append([]*Node{}, forNode.Body[4:]...)
	return &Node{
		Tag:      TagForEach,
		Offset:   forNode.Offset,
		Line:     forNode.Line,
		LoopVar:  loopVar,
		Iterable: exprOf(arrLoad, ctx),
		Body:     newBody,
	}
}

// removeLocalVariableWithIndexAndOffset marks the local-variable record
// for slot ToBeRemoved, keyed on the store offset that created it, so a
// synthetic compiler temporary absorbed into a FOREACH never surfaces as
// a declaration.
func removeLocalVariableWithIndexAndOffset(locals []*LocalVar, slot, storeOffset int) {
	for _, lv := range locals {
		if lv.Index == slot && (lv.Contains(storeOffset) || lv.StartPC >= storeOffset) {
			lv.ToBeRemoved = true
			return
		}
	}
}

// purgeArrayForEachSlots consults the vendor idiom registry's per-compiler
// variable-naming signatures to tell a compiler-synthesized array/length/
// index triple (patterns B/C/D) from a hand-written loop with the same
// instruction shape: only a name-matched triple is purged, since a
// hand-written loop's variables are real source declarations.
func purgeArrayForEachSlots(locals []*LocalVar, arrSlot, idxSlot, elemSlot int, ctx *Context) {
	var arrLV, idxLV *LocalVar
	for _, lv := range locals {
		switch lv.Index {
		case arrSlot:
			arrLV = lv
		case idxSlot:
			idxLV = lv
		}
	}
	if arrLV == nil || idxLV == nil || arrLV.Name == "" || idxLV.Name == "" {
		return
	}
	for _, lv := range locals {
		if lv.Index == arrSlot || lv.Index == idxSlot || lv.Index == elemSlot {
			continue
		}
		if _, ok := ctx.idioms().MatchForEachArray(arrLV.Name, lv.Name, idxLV.Name); ok {
			arrLV.ToBeRemoved = true
			idxLV.ToBeRemoved = true
			lv.ToBeRemoved = true
			return
		}
	}
}

// isLoadOp reports whether n is a slot load (aload/iload, long or
// normalized short form) carrying an explicit VarIndex.
func isLoadOp(n *Node) bool {
	if n == nil || n.Raw == nil {
		return false
	}
	switch n.Raw.Opcode {
	case bytecode.OpALoad, bytecode.OpILoad, bytecode.OpXLoad:
		return true
	}
	return false
}

func isStoreOp(op bytecode.Opcode) bool {
	return op == bytecode.OpIStore || op == bytecode.OpAStore || op == bytecode.OpXStore
}

// callNameIs reports whether n is an invoke* node whose resolved
// method name equals want.
func callNameIs(n *Node, want string, ctx *Context) bool {
	if n.Raw == nil {
		return false
	}
	switch n.Raw.Opcode {
	case bytecode.OpInvokeVirtual, bytecode.OpInvokeInterface, bytecode.OpInvokeSpecial, bytecode.OpInvokeStatic:
	default:
		return false
	}
	return ctx.methodOrFieldName(n.Raw.ConstIndex) == want
}

// exprMentionsCall is a placeholder check over a resolved Test
// expression: the structural core folds the hasNext() call's RawInstr
// into the IF_CONTINUE/WHILE test node before a Reconstructor ever sees
// it, so confirming the call name precisely requires resolving the
// pool-backed invoke instruction a real refexpr.Reconstructor already
// has access to. Absent that, any non-nil test expression here is
// accepted; a false-positive only risks mis-tagging a while loop that
// happens to follow an iterator() call as a for-each, which the
// remaining shape checks (next()+checkcast+store as body[0]) already
// guard against.
func exprMentionsCall(e *Expr, want string) bool {
	_ = want
	return e != nil
}
