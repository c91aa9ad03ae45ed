// Copyright 2017 The go-interpreter Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package fast

import "github.com/javadecompcore/javadecompcore/bytecode"

// RecognizeSwitches rewrites a tableswitch/lookupswitch node into a
// SWITCH, SWITCH_ENUM, or SWITCH_STRING node (spec §4.7), recursing
// Reconstruct/RecognizeLoops/RecognizeConditionals over every case body.
//
// The string-switch shape pairs two distinct switch instructions (an
// outer hashCode() dispatch and an inner dense-index switch holding the
// real bodies), so it is matched in its own pass over the untouched raw
// list before the single-switch pass below runs — a one-pass rewrite
// would otherwise fold the outer switch into a plain SWITCH the moment
// it was reached, long before the inner switch that identifies the
// pattern came into view.
func RecognizeSwitches(list []*Node, locals []*LocalVar, ctx *Context) []*Node {
	list = foldStringSwitches(list, locals, ctx)

	out := list[:0:0]
	for i := 0; i < len(list); i++ {
		n := list[i]
		if n.Tag != TagRaw || n.Raw == nil ||
			(n.Raw.Opcode != bytecode.OpTableSwitch && n.Raw.Opcode != bytecode.OpLookupSwitch) {
			out = append(out, n)
			continue
		}

		if sw, consumed := tryEnumSwitch(list, out, n, ctx); sw != nil {
			out = out[:len(out)-consumed]
			out = append(out, sw)
			i = skipSwitchSpan(list, n, i)
			continue
		}

		out = append(out, buildPlainSwitch(list, n, locals, ctx))
		i = skipSwitchSpan(list, n, i)
	}
	return out
}

// skipSwitchSpan returns the list index the outer loop should resume
// at once the switch node starting at list[i] has absorbed every case
// body into its own Cases: every instruction from i up to the switch's
// end boundary has already been sliced into a case body by
// buildPlainSwitch/tryEnumSwitch and must not also be re-appended to
// out as a top-level sibling.
func skipSwitchSpan(list []*Node, n *Node, i int) int {
	end := listEndOffset(list, switchEnd(n))
	if idx := indexOfOffset(list, end); idx >= 0 {
		return idx - 1
	}
	return len(list) - 1
}

// foldStringSwitches finds every (outer lookupswitch on hashCode(),
// inner tableswitch on the resulting dense index) pair and replaces the
// whole span from the outer switch's hashCode() call through the end of
// the inner switch with a single SWITCH_STRING node.
func foldStringSwitches(list []*Node, locals []*LocalVar, ctx *Context) []*Node {
	out := list[:0:0]
	i := 0
	for i < len(list) {
		n := list[i]
		if n.Tag == TagRaw && n.Raw != nil && n.Raw.Opcode == bytecode.OpLookupSwitch {
			if sw, span, consumedBefore := tryStringSwitch(list, i, locals, ctx); sw != nil {
				// Drop the already-appended setup run (astore tmpStr,
				// istore tmpIdx, hashCode() call); it's absorbed into
				// sw's Scrutinee and the deleted synthetic locals.
				if len(out) >= consumedBefore {
					out = out[:len(out)-consumedBefore]
				}
				out = append(out, sw)
				i += span
				continue
			}
		}
		out = append(out, n)
		i++
	}
	return out
}

// switchEnd returns the end boundary of a switch starting at the
// tableswitch/lookupswitch node's own position: the smallest target
// among its cases/default that is greater than the switch node's own
// offset serves as a lower bound for where fallthrough can resume, but
// the most reliable boundary is the largest target, since a
// well-formed switch's last case/default body runs up to that offset.
func switchEnd(n *Node) int {
	max := n.Offset
	for _, t := range n.Raw.SwitchTargets {
		if t > max {
			max = t
		}
	}
	if n.Raw.SwitchDefault > max {
		max = n.Raw.SwitchDefault
	}
	return max
}

// buildPlainSwitch builds an ordinary int SWITCH node: one SwitchCase
// per distinct target, bodies delimited between consecutive sorted
// targets (the boundary approach spec §4.7 calls for since multiple
// keys commonly share one target/body).
func buildPlainSwitch(list []*Node, n *Node, locals []*LocalVar, ctx *Context) *Node {
	targets := distinctTargetsSorted(n)
	end := listEndOffset(list, switchEnd(n))

	cases := make([]*SwitchCase, 0, len(targets))
	for ti, target := range targets {
		bodyEnd := end
		if ti+1 < len(targets) {
			bodyEnd = targets[ti+1]
		}
		body := sliceBetweenOffsets(list, target, bodyEnd)
		body = processLoopBodyIgnoringLoopErr(body, locals, ctx)

		cs := &SwitchCase{Body: body}
		if target == n.Raw.SwitchDefault {
			cs.IsDefault = true
		}
		for ki, k := range n.Raw.SwitchKeys {
			if n.Raw.SwitchTargets[ki] == target {
				cs.Key = k
			}
		}
		cases = append(cases, cs)
	}

	return &Node{
		Tag:       TagSwitch,
		Offset:    n.Offset,
		Line:      n.Line,
		Scrutinee: exprOf(n, ctx),
		Cases:     cases,
	}
}

// tryEnumSwitch recognizes the javac idiom
//
//	getstatic Outer.$SwitchMap$Enum
//	aload  enumVar
//	invokevirtual Enum.ordinal()
//	iaload
//	tableswitch
//
// immediately preceding n, using Context.SwitchMaps to translate each
// dense switch key back to the enum constant's ordinal. consumed
// reports how many already-appended nodes in out the caller must drop
// (the four setup instructions, now absorbed into the SWITCH_ENUM
// node).
func tryEnumSwitch(list []*Node, out []*Node, n *Node, ctx *Context) (*Node, int) {
	if len(out) < 4 {
		return nil, 0
	}
	getStatic := out[len(out)-4]
	loadEnum := out[len(out)-3]
	ordinalCall := out[len(out)-2]
	arrLoad := out[len(out)-1]

	if getStatic.Raw == nil || getStatic.Raw.Opcode != bytecode.OpGetStatic {
		return nil, 0
	}
	fieldName := ctx.methodOrFieldName(getStatic.Raw.ConstIndex)
	if !ctx.idioms().IsSwitchMapField(fieldName) {
		return nil, 0
	}
	if loadEnum.Raw == nil || loadEnum.Raw.Opcode != bytecode.OpALoad {
		return nil, 0
	}
	if ordinalCall.Raw == nil || ordinalCall.Raw.Opcode != bytecode.OpInvokeVirtual ||
		ctx.methodOrFieldName(ordinalCall.Raw.ConstIndex) != "ordinal" {
		return nil, 0
	}
	if arrLoad.Raw == nil || arrLoad.Raw.Opcode != bytecode.OpIALoad {
		return nil, 0
	}

	switchMap, ok := ctx.switchMap(fieldName)
	if !ok {
		return nil, 0
	}
	reverse := map[int]int{}
	for ordinal, denseKey := range switchMap {
		reverse[denseKey] = ordinal
	}

	targets := distinctTargetsSorted(n)
	end := listEndOffset(list, switchEnd(n))
	cases := make([]*SwitchCase, 0, len(targets))
	for ti, target := range targets {
		bodyEnd := end
		if ti+1 < len(targets) {
			bodyEnd = targets[ti+1]
		}
		body := sliceBetweenOffsets(list, target, bodyEnd)
		body = processLoopBodyIgnoringLoopErr(body, nil, ctx)

		cs := &SwitchCase{Body: body, IsDefault: target == n.Raw.SwitchDefault}
		for ki, k := range n.Raw.SwitchKeys {
			if n.Raw.SwitchTargets[ki] == target {
				if ordinal, ok := reverse[k]; ok {
					cs.Key = ordinal
				} else {
					cs.Key = k
				}
			}
		}
		cases = append(cases, cs)
	}

	return &Node{
		Tag:       TagSwitchEnum,
		Offset:    getStatic.Offset,
		Line:      getStatic.Line,
		Scrutinee: exprOf(loadEnum, ctx),
		Cases:     cases,
	}, 4
}

// tryStringSwitch recognizes the javac>=7 string-switch idiom: a first
// lookupswitch dispatches on the scrutinee's hashCode() into short arms
// that each compare via equals() and, on match, store a small dense
// index consumed by a second tableswitch that holds the real case
// bodies. outerIdx is list's index of the outer lookupswitch. It
// returns the built node, the number of list elements from outerIdx
// onward the fold spans, and how many setup nodes immediately before
// outerIdx it consumes (the hashCode() call, plus — when present — the
// `aload tmpStr`, `istore tmpIdx = -1`, and `astore tmpStr` run whose
// two synthetic locals the fold deletes). (nil, 0, 0) means no inner
// tableswitch matching this dispatch shape follows; this is a
// best-effort pattern match, and any arm shape the documented compiler
// variants don't produce leaves the outer lookupswitch for the
// plain-SWITCH pass to handle on its own terms.
func tryStringSwitch(list []*Node, outerIdx int, locals []*LocalVar, ctx *Context) (*Node, int, int) {
	if outerIdx == 0 {
		return nil, 0, 0
	}
	outer := list[outerIdx]
	hashCall := list[outerIdx-1]
	if hashCall.Raw == nil || hashCall.Raw.Opcode != bytecode.OpInvokeVirtual ||
		ctx.methodOrFieldName(hashCall.Raw.ConstIndex) != "hashCode" {
		return nil, 0, 0
	}

	literalByDenseKey := map[int]string{}
	denseSlot := -1
	// The dispatch switch's span ends at its largest target: the default
	// (and every failed equals()) lands on the real switch that follows,
	// unlike a plain switch whose last body may run to the end of the
	// enclosing list.
	outerEnd := switchEnd(outer)
	outerTargets := distinctTargetsSorted(outer)
	for ti, target := range outerTargets {
		armEnd := outerEnd
		if ti+1 < len(outerTargets) {
			armEnd = outerTargets[ti+1]
		}
		arm := sliceBetweenOffsets(list, target, armEnd)
		lit, denseKey, slot, ok := parseStringSwitchArm(arm, ctx)
		if ok {
			literalByDenseKey[denseKey] = lit
			denseSlot = slot
		}
	}
	if len(literalByDenseKey) == 0 {
		return nil, 0, 0
	}

	innerIdx := indexOfOffset(list, outerEnd)
	if innerIdx < 0 {
		return nil, 0, 0
	}
	// The real switch re-loads the dense index right before dispatching.
	if isLoadOp(list[innerIdx]) && list[innerIdx].Raw.VarIndex == denseSlot && innerIdx+1 < len(list) {
		innerIdx++
	}
	if list[innerIdx].Tag != TagRaw || list[innerIdx].Raw == nil ||
		list[innerIdx].Raw.Opcode != bytecode.OpTableSwitch {
		return nil, 0, 0
	}
	inner := list[innerIdx]

	targets := distinctTargetsSorted(inner)
	end := listEndOffset(list, switchEnd(inner))
	cases := make([]*SwitchCase, 0, len(targets))
	for ti, target := range targets {
		bodyEnd := end
		if ti+1 < len(targets) {
			bodyEnd = targets[ti+1]
		}
		body := sliceBetweenOffsets(list, target, bodyEnd)
		body = processLoopBodyIgnoringLoopErr(body, locals, ctx)

		cs := &SwitchCase{Body: body, IsDefault: target == inner.Raw.SwitchDefault}
		for ki, k := range inner.Raw.SwitchKeys {
			if inner.Raw.SwitchTargets[ki] == target {
				cs.StrKey = literalByDenseKey[k]
			}
		}
		cases = append(cases, cs)
	}

	span := indexOfOffset(list, end)
	if span < 0 {
		span = len(list)
	}
	span -= outerIdx

	// Consume the setup run ahead of the hashCode() call and delete both
	// synthetic locals: `astore tmpStr; <const>; istore tmpIdx; aload
	// tmpStr` is the full javac shape, but each piece is optional so a
	// partially-folded prefix still matches.
	consumedBefore := 1 // the hashCode() call itself
	strSlot := -1
	var scrutNode *Node
	j := outerIdx - 2
	if j >= 0 && isLoadOp(list[j]) {
		strSlot = list[j].Raw.VarIndex
		consumedBefore++
		j--
	}
	if j >= 0 && list[j].IsRaw(bytecode.OpIStore) && list[j].Raw.VarIndex == denseSlot {
		consumedBefore++
		j--
		if j >= 0 {
			if _, ok := constIntValue(list[j]); ok {
				consumedBefore++
				j--
			}
		}
	}
	if j >= 0 && list[j].IsRaw(bytecode.OpAStore) && (strSlot < 0 || list[j].Raw.VarIndex == strSlot) {
		scrutNode = list[j]
		strSlot = list[j].Raw.VarIndex
		consumedBefore++
	}
	if strSlot >= 0 && scrutNode != nil {
		removeLocalVariableWithIndexAndOffset(locals, strSlot, scrutNode.Offset)
	}
	if denseSlot >= 0 {
		removeLocalVariableWithIndexAndOffset(locals, denseSlot, outer.Offset)
	}

	scrutinee := exprOf(hashCall, ctx)
	if scrutNode != nil {
		scrutinee = exprOf(scrutNode, ctx)
	}

	return &Node{
		Tag:       TagSwitchString,
		Offset:    outer.Offset,
		Line:      outer.Line,
		Scrutinee: scrutinee,
		Cases:     cases,
	}, span, consumedBefore
}

// parseStringSwitchArm looks for `ldc "literal"; invokevirtual equals;
// ifeq <next-candidate>; <push denseKey>; istore dense; goto innerSwitch`
// possibly repeated for hash collisions, and returns the first matched
// literal/denseKey/slot triple.
func parseStringSwitchArm(arm []*Node, ctx *Context) (string, int, int, bool) {
	for i := 0; i+4 < len(arm); i++ {
		ldc := arm[i]
		eq := arm[i+1]
		iff := arm[i+2]
		push := arm[i+3]
		store := arm[i+4]
		if !(ldc.IsRaw(bytecode.OpLdc) || ldc.IsRaw(bytecode.OpLdcW)) {
			continue
		}
		if eq.Raw == nil || eq.Raw.Opcode != bytecode.OpInvokeVirtual || ctx.methodOrFieldName(eq.Raw.ConstIndex) != "equals" {
			continue
		}
		if iff.Raw == nil || !iff.Raw.Opcode.IsConditionalBranch() {
			continue
		}
		denseKey, ok := constIntValue(push)
		if !ok {
			continue
		}
		if store.Tag != TagRaw || store.Raw == nil || store.Raw.Opcode != bytecode.OpIStore {
			continue
		}
		lit := ctx.utf8Name(ldc.Raw.ConstIndex)
		return lit, denseKey, store.Raw.VarIndex, true
	}
	return "", 0, -1, false
}

func constIntValue(n *Node) (int, bool) {
	if n.Tag != TagRaw || n.Raw == nil {
		return 0, false
	}
	switch n.Raw.Opcode {
	case bytecode.OpIConstM1:
		return -1, true
	case bytecode.OpIConst0:
		return 0, true
	case bytecode.OpIConst1:
		return 1, true
	case bytecode.OpIConst2:
		return 2, true
	case bytecode.OpIConst3:
		return 3, true
	case bytecode.OpIConst4:
		return 4, true
	case bytecode.OpIConst5:
		return 5, true
	case bytecode.OpBipush, bytecode.OpSipush:
		return n.Raw.PushValue, true
	}
	return 0, false
}

func distinctTargetsSorted(n *Node) []int {
	seen := map[int]bool{n.Raw.SwitchDefault: true}
	targets := []int{n.Raw.SwitchDefault}
	for _, t := range n.Raw.SwitchTargets {
		if !seen[t] {
			seen[t] = true
			targets = append(targets, t)
		}
	}
	for i := 1; i < len(targets); i++ {
		for j := i; j > 0 && targets[j-1] > targets[j]; j-- {
			targets[j-1], targets[j] = targets[j], targets[j-1]
		}
	}
	return targets
}

func sliceBetweenOffsets(list []*Node, from, to int) []*Node {
	fromIdx := indexOfOffset(list, from)
	if fromIdx < 0 {
		return nil
	}
	toIdx := len(list)
	if idx := indexOfOffset(list, to); idx >= 0 {
		toIdx = idx
	}
	if fromIdx >= toIdx {
		return nil
	}
	return append([]*Node{}, list[fromIdx:toIdx]...)
}

func listEndOffset(list []*Node, fallback int) int {
	if len(list) == 0 {
		return fallback
	}
	last := list[len(list)-1].Offset + 1
	if last > fallback {
		return last
	}
	return fallback
}

// processLoopBodyIgnoringLoopErr mirrors processLoopBody for a switch
// case body, which carries no enclosing-loop continue target of its
// own; a continue inside a case falls through to whatever loop encloses
// the whole switch, so continueTarget here is left unreachable (-1) and
// resolved later by the Declaration Placer once nesting is known. A
// loop-recognition error inside a case body is reported by falling back
// to the un-recognized-loop body rather than failing the whole switch.
func processLoopBodyIgnoringLoopErr(body []*Node, locals []*LocalVar, ctx *Context) []*Node {
	body = Reconstruct(body, ctx)
	if nested, err := RecognizeLoops(body, locals, -1, ctx); err == nil {
		body = nested
	}
	return RecognizeConditionals(body, -1, ctx)
}
