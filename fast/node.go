// Copyright 2017 The go-interpreter Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package fast turns a flat, offset-ordered list of bytecode.RawInstr into
// a nested tree of high-level control-flow nodes: if/if-else, while,
// do-while, for, for-each, infinite loops, switch (integer, enum, string),
// try/catch/finally, and synchronized blocks.
//
// The transformation is a fixed, ordering-sensitive pipeline over
// []*Node, applied outermost-in by Driver.Run: exception ranges are
// aggregated first (aggregator.go), synchronized/try regions are spliced
// out into nested blocks (sync_block.go, try_block.go), a battery of local
// rewrites normalizes idioms (reconstruct_*.go), then loops, conditionals
// and switches are recognized on what remains (loop.go, cond.go,
// switch_.go), and finally declarations and labels are placed
// (declare.go).
package fast

import (
	"github.com/javadecompcore/javadecompcore/bytecode"
	"github.com/javadecompcore/javadecompcore/refexpr"
)

// Tag distinguishes a Node's kind: either a passed-through bytecode
// opcode (TagRaw, inspect Node.Raw.Opcode) or one of the synthetic
// high-level tags spec §3 names.
type Tag int

const (
	TagRaw Tag = iota
	TagDeclare
	TagLabel
	TagIfSimple
	TagIfElse
	TagIfBreak
	TagIfContinue
	TagIfLabeledBreak
	TagWhile
	TagDoWhile
	TagFor
	TagForEach
	TagInfiniteLoop
	TagSwitch
	TagSwitchEnum
	TagSwitchString
	TagTry
	TagSynchronized
	TagGotoBreak
	TagGotoContinue
	TagGotoLabeledBreak
	TagExceptionLoad
	TagXReturn
)

func (t Tag) String() string {
	switch t {
	case TagRaw:
		return "RAW"
	case TagDeclare:
		return "DECLARE"
	case TagLabel:
		return "LABEL"
	case TagIfSimple:
		return "IF_SIMPLE"
	case TagIfElse:
		return "IF_ELSE"
	case TagIfBreak:
		return "IF_BREAK"
	case TagIfContinue:
		return "IF_CONTINUE"
	case TagIfLabeledBreak:
		return "IF_LABELED_BREAK"
	case TagWhile:
		return "WHILE"
	case TagDoWhile:
		return "DO_WHILE"
	case TagFor:
		return "FOR"
	case TagForEach:
		return "FOREACH"
	case TagInfiniteLoop:
		return "INFINITE_LOOP"
	case TagSwitch:
		return "SWITCH"
	case TagSwitchEnum:
		return "SWITCH_ENUM"
	case TagSwitchString:
		return "SWITCH_STRING"
	case TagTry:
		return "TRY"
	case TagSynchronized:
		return "SYNCHRONIZED"
	case TagGotoBreak:
		return "GOTO_BREAK"
	case TagGotoContinue:
		return "GOTO_CONTINUE"
	case TagGotoLabeledBreak:
		return "GOTO_LABELED_BREAK"
	case TagExceptionLoad:
		return "EXCEPTIONLOAD"
	case TagXReturn:
		return "XRETURN"
	}
	return "UNKNOWN"
}

// SwitchCase is one arm of a SWITCH/SWITCH_ENUM/SWITCH_STRING node.
type SwitchCase struct {
	IsDefault bool
	Key       int    // ordinal, string-constant-pool index, or raw int key
	StrKey    string // populated for SWITCH_STRING after literal substitution
	Body      []*Node
}

// CatchClause is one catch arm of a TRY node.
type CatchClause struct {
	ExceptionTypeIndex int
	OtherTypes         []int // additional types for a multi-catch
	VariableIndex      int
	Body               []*Node
}

// Node is the unifying AST entity (spec §3). Exactly one payload group is
// meaningful for a given Tag; the rest are left zero.
type Node struct {
	Tag    Tag
	Offset int
	Line   int

	// TagRaw payload: the passed-through bytecode instruction.
	Raw *bytecode.RawInstr

	// Folded records the other raw instructions an Expression
	// Reconstructor pass absorbed into this single node (spec §4.4): the
	// class-literal/comparison-aggregation/ternary/array-initializer/
	// compound-assignment passes (and the Declaration Placer's
	// store+return fuse) collapse a short multi-instruction run down to its single
	// observable effect (an astore, a putfield, ...) and stash the
	// consumed instructions here so refexpr.Reconstructor.Resolve can
	// still see the whole expression it needs to render.
	Folded []bytecode.RawInstr

	// IsClassLiteral marks a TagRaw ldc node whose operand a passClassLiteral
	// fold determined names a Class, not a String (spec §4.4 ".class
	// literal").
	IsClassLiteral bool

	// IF_*, WHILE, DO_WHILE test expression (nil for INFINITE_LOOP).
	Test *Expr

	// Body is the primary instruction list for IF_*, WHILE, DO_WHILE, FOR,
	// FOREACH, INFINITE_LOOP, SYNCHRONIZED, and the try-body of TRY.
	Body []*Node
	// Else is the second branch of IF_ELSE.
	Else []*Node

	// FOR-only: optional init/increment. Each may be nil.
	Init *Node
	Incr *Node

	// FOREACH-only.
	LoopVar  *LocalVar
	Iterable *Expr

	// SWITCH family.
	Scrutinee *Expr
	Cases     []*SwitchCase

	// TRY-only.
	Catches []*CatchClause
	Finally []*Node

	// SYNCHRONIZED-only.
	Monitor *Expr

	// DECLARE-only: the declared variable and its optional initializing
	// store (nil for a bare/orphaned declaration).
	Var       *LocalVar
	InitStore *Node

	// LABEL-only.
	LabelName string
	Wrapped   *Node

	// GOTO_LABELED_BREAK / IF_LABELED_BREAK, and an IF_CONTINUE /
	// GOTO_CONTINUE that InsertLabels resolved to an outer loop.
	TargetLabel string

	// JumpTarget carries the original branch/goto target offset for a
	// provisional IF_BREAK/IF_CONTINUE/GOTO_BREAK/GOTO_CONTINUE node
	// (set by RecognizeConditionals), so the Declaration Placer & Label
	// Inserter (declare.go) can later tell whether the jump actually
	// reaches the nearest enclosing loop (plain break/continue) or an
	// outer one (labeled break/continue) and where to drop the label.
	JumpTarget int

	// EXCEPTIONLOAD-only: slot the caught exception is stored into.
	ExceptionSlot int
}

// Expr is an alias kept local to fast so callers of this package don't
// need to import refexpr directly just to read a Node's Test/Monitor/
// Scrutinee/Iterable fields.
type Expr = refexpr.Expr

// IsRaw reports whether n wraps a not-yet-reconstructed bytecode
// instruction with the given opcode.
func (n *Node) IsRaw(op bytecode.Opcode) bool {
	return n.Tag == TagRaw && n.Raw != nil && n.Raw.Opcode == op
}

// NewRaw wraps a bytecode.RawInstr as a TagRaw node.
func NewRaw(in bytecode.RawInstr) *Node {
	r := in
	return &Node{Tag: TagRaw, Offset: in.Offset, Line: in.Line, Raw: &r}
}

// LocalVar is the local-variable record carried through the pipeline
// (spec §3 "Local variable"); it is exactly the upstream-decoded
// bytecode.LocalVariable, whose Declared/ToBeRemoved fields the
// Declaration Placer (declare.go) mutates in place.
type LocalVar = bytecode.LocalVariable
