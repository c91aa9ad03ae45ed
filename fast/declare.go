// Copyright 2017 The go-interpreter Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package fast

import (
	"fmt"

	"github.com/javadecompcore/javadecompcore/bytecode"
)

// PlaceDeclarations walks the whole tree and wraps every store node that
// is a local variable's first write in its live range with a DECLARE
// node (spec §4.8 "Declaration placement"). A variable whose live range
// starts somewhere no corresponding store is found in this pass (a
// parameter, or a slot whose initializing store was folded away earlier)
// is left to the caller: Driver.Run prepends one bare DECLARE node per
// such variable once the whole method has been walked, satisfying the
// 1:1 Node<->LocalVariable invariant for everything not ToBeRemoved.
func PlaceDeclarations(list []*Node, locals []*LocalVar) []*Node {
	byVar := make(map[int]*LocalVar, len(locals))
	for _, lv := range locals {
		byVar[lv.Index] = lv
	}
	return placeDeclarations(list, byVar)
}

func placeDeclarations(list []*Node, byVar map[int]*LocalVar) []*Node {
	out := make([]*Node, 0, len(list))
	for i := 0; i < len(list); i++ {
		n := list[i]
		n.Body = placeDeclarations(n.Body, byVar)
		n.Else = placeDeclarations(n.Else, byVar)
		n.Finally = placeDeclarations(n.Finally, byVar)
		for _, c := range n.Catches {
			c.Body = placeDeclarations(c.Body, byVar)
		}
		for _, c := range n.Cases {
			c.Body = placeDeclarations(c.Body, byVar)
		}

		if n.Tag == TagRaw && n.Raw != nil && isStoreOp(n.Raw.Opcode) {
			lv, ok := byVar[n.Raw.VarIndex]
			if ok && !lv.Declared && !lv.ToBeRemoved {
				// Store feeding an immediate same-slot, same-line return:
				// the temporary never surfaces in source, so fuse the
				// three instructions into one unified return and retire
				// the slot instead of declaring it.
				if xret, consumed := fuseStoreReturn(list, i); xret != nil {
					lv.ToBeRemoved = true
					out = append(out, xret)
					i += consumed
					continue
				}
				if lv.StartPC == n.Offset {
					lv.Declared = true
					out = append(out, &Node{
						Tag: TagDeclare, Offset: n.Offset, Line: n.Line,
						Var: lv, InitStore: n,
					})
					continue
				}
			}
		}
		out = append(out, n)
	}
	return out
}

// fuseStoreReturn matches `*store x; *load x; *return` with the store and
// the return on the same known line — javac's return-of-a-just-computed-temporary idiom —
// and returns the unified XRETURN node replacing all three, with the
// store and load preserved in Folded so the expression reconstructor can
// still render `return expr`.
func fuseStoreReturn(list []*Node, i int) (*Node, int) {
	if i+2 >= len(list) {
		return nil, 0
	}
	store, load, ret := list[i], list[i+1], list[i+2]
	if load.Tag != TagRaw || load.Raw == nil || ret.Tag != TagRaw || ret.Raw == nil {
		return nil, 0
	}
	switch load.Raw.Opcode {
	case bytecode.OpILoad, bytecode.OpALoad, bytecode.OpXLoad:
	default:
		return nil, 0
	}
	if load.Raw.VarIndex != store.Raw.VarIndex || !ret.Raw.Opcode.IsReturn() {
		return nil, 0
	}
	if store.Line == bytecode.UnknownLineNumber || store.Line != ret.Line {
		return nil, 0
	}
	return &Node{
		Tag:    TagXReturn,
		Offset: store.Offset,
		Line:   store.Line,
		Raw:    ret.Raw,
		Folded: []bytecode.RawInstr{*store.Raw, *load.Raw},
	}, 2
}

// OrphanedDeclarations returns one bare DECLARE node (InitStore nil) per
// local variable that PlaceDeclarations never found a qualifying store
// for, in the order the records appear in locals — loop induction variables whose only
// store was absorbed into a FOR node's Init, and for-each loop
// variables, are the common case.
func OrphanedDeclarations(locals []*LocalVar) []*Node {
	var out []*Node
	for _, lv := range locals {
		if lv.Declared || lv.ToBeRemoved || lv.IsExceptionOrReturnAddress {
			continue
		}
		out = append(out, &Node{Tag: TagDeclare, Offset: lv.StartPC, Line: bytecode.UnknownLineNumber, Var: lv})
		lv.Declared = true
	}
	return out
}

// dropTrailingSyntheticReturn removes the method body's trailing synthetic
// return (spec §4.8 "Final cleanups... Drop the trailing synthetic return
// if its line number is less than its predecessor's"): javac appends an
// extra return at the closing brace whenever the method doesn't already
// end with one on every path, and that appended instruction's line number
// regresses relative to the statement before it rather than continuing to
// advance. A real source-level return never regresses this way, so the
// comparison distinguishes the synthetic tail from a genuine final
// `return`. Applies only to the method's own top-level statement list —
// nested blocks never carry this synthetic instruction.
func dropTrailingSyntheticReturn(list []*Node) []*Node {
	if len(list) < 2 {
		return list
	}
	last := list[len(list)-1]
	if last.Tag != TagRaw || last.Raw == nil || !last.Raw.Opcode.IsReturn() {
		return list
	}
	prev := list[len(list)-2]
	if last.Line == bytecode.UnknownLineNumber || prev.Line == bytecode.UnknownLineNumber {
		return list
	}
	if last.Line < prev.Line {
		return list[:len(list)-1]
	}
	return list
}

// loopFrame is one entry of the enclosing-construct stack InsertLabels
// walks with: the loop or switch node itself, its exit offset (the
// target a plain, unlabeled break reaches), and whether it is
// continue-able (a loop) as opposed to only break-able (a switch).
type loopFrame struct {
	node   *Node
	exit   int
	isLoop bool
}

// InsertLabels resolves every provisional IF_BREAK/GOTO_BREAK/
// IF_CONTINUE/GOTO_CONTINUE node produced by RecognizeConditionals
// against the loop/switch nesting now visible in the finished tree (spec
// §4.8 "Label insertion"). A jump whose target matches the innermost
// enclosing construct needs no label and is left as-is; one that
// escapes further out gets its TargetLabel set to a synthesized label
// name (continue keeps its IF_CONTINUE/GOTO_CONTINUE tag with a non-empty
// TargetLabel; break is upgraded to IF_LABELED_BREAK/GOTO_LABELED_BREAK),
// and the ancestor construct it names is wrapped in a LABEL node the
// first time that name is needed.
func InsertLabels(list []*Node) []*Node {
	needsLabel := map[*Node]bool{}
	resolved := map[*Node]*Node{}
	collectLabelTargets(list, nil, -1, needsLabel, resolved)

	names := map[*Node]string{}
	n := 0
	for node := range needsLabel {
		names[node] = fmt.Sprintf("outer%d", n)
		n++
	}

	return placeLabels(list, resolved, names)
}

func collectLabelTargets(list []*Node, stack []loopFrame, outerExit int, needsLabel map[*Node]bool, resolved map[*Node]*Node) {
	for k, n := range list {
		thisExit := outerExit
		if k+1 < len(list) {
			thisExit = list[k+1].Offset
		}

		switch n.Tag {
		case TagWhile, TagDoWhile, TagFor, TagForEach, TagInfiniteLoop:
			newStack := append(append([]loopFrame{}, stack...), loopFrame{node: n, exit: thisExit, isLoop: true})
			collectLabelTargets(n.Body, newStack, thisExit, needsLabel, resolved)
			continue
		case TagSwitch, TagSwitchEnum, TagSwitchString:
			newStack := append(append([]loopFrame{}, stack...), loopFrame{node: n, exit: thisExit, isLoop: false})
			for _, c := range n.Cases {
				collectLabelTargets(c.Body, newStack, thisExit, needsLabel, resolved)
			}
			continue
		case TagIfSimple, TagIfBreak, TagIfContinue:
			collectLabelTargets(n.Body, stack, thisExit, needsLabel, resolved)
		case TagIfElse:
			collectLabelTargets(n.Body, stack, thisExit, needsLabel, resolved)
			collectLabelTargets(n.Else, stack, thisExit, needsLabel, resolved)
		case TagTry:
			collectLabelTargets(n.Body, stack, thisExit, needsLabel, resolved)
			collectLabelTargets(n.Finally, stack, thisExit, needsLabel, resolved)
			for _, c := range n.Catches {
				collectLabelTargets(c.Body, stack, thisExit, needsLabel, resolved)
			}
		case TagSynchronized:
			collectLabelTargets(n.Body, stack, thisExit, needsLabel, resolved)
		}

		switch n.Tag {
		case TagIfContinue, TagGotoContinue:
			if frame, ok := nearestLoop(stack, n.JumpTarget); ok && frame.node != innermostLoop(stack) {
				needsLabel[frame.node] = true
				resolved[n] = frame.node
			}
		case TagIfBreak, TagGotoBreak:
			if frame, ok := nearestExit(stack, n.JumpTarget); ok && frame.node != innermost(stack) {
				needsLabel[frame.node] = true
				resolved[n] = frame.node
			}
		}
	}
}

func innermostLoop(stack []loopFrame) *Node {
	for i := len(stack) - 1; i >= 0; i-- {
		if stack[i].isLoop {
			return stack[i].node
		}
	}
	return nil
}

func innermost(stack []loopFrame) *Node {
	if len(stack) == 0 {
		return nil
	}
	return stack[len(stack)-1].node
}

func nearestLoop(stack []loopFrame, target int) (loopFrame, bool) {
	for i := len(stack) - 1; i >= 0; i-- {
		if stack[i].isLoop && stack[i].node.Offset == target {
			return stack[i], true
		}
	}
	return loopFrame{}, false
}

func nearestExit(stack []loopFrame, target int) (loopFrame, bool) {
	for i := len(stack) - 1; i >= 0; i-- {
		if stack[i].exit == target {
			return stack[i], true
		}
	}
	return loopFrame{}, false
}

func placeLabels(list []*Node, resolved map[*Node]*Node, names map[*Node]string) []*Node {
	out := make([]*Node, 0, len(list))
	for _, n := range list {
		switch n.Tag {
		case TagWhile, TagDoWhile, TagFor, TagForEach, TagInfiniteLoop, TagSynchronized:
			n.Body = placeLabels(n.Body, resolved, names)
		case TagSwitch, TagSwitchEnum, TagSwitchString:
			for _, c := range n.Cases {
				c.Body = placeLabels(c.Body, resolved, names)
			}
		case TagIfSimple, TagIfBreak, TagIfContinue:
			n.Body = placeLabels(n.Body, resolved, names)
		case TagIfElse:
			n.Body = placeLabels(n.Body, resolved, names)
			n.Else = placeLabels(n.Else, resolved, names)
		case TagTry:
			n.Body = placeLabels(n.Body, resolved, names)
			n.Finally = placeLabels(n.Finally, resolved, names)
			for _, c := range n.Catches {
				c.Body = placeLabels(c.Body, resolved, names)
			}
		}

		if ancestor, ok := resolved[n]; ok {
			n.TargetLabel = names[ancestor]
			if n.Tag == TagIfBreak {
				n.Tag = TagIfLabeledBreak
			} else if n.Tag == TagGotoBreak {
				n.Tag = TagGotoLabeledBreak
			}
		}

		if name, ok := names[n]; ok {
			out = append(out, &Node{Tag: TagLabel, Offset: n.Offset, Line: n.Line, LabelName: name, Wrapped: n})
			continue
		}
		out = append(out, n)
	}
	return out
}
