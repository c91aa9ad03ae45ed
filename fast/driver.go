// Copyright 2017 The go-interpreter Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package fast

import (
	"fmt"
	"sort"

	"github.com/javadecompcore/javadecompcore/bytecode"
	"github.com/javadecompcore/javadecompcore/idiomdb"
	"github.com/javadecompcore/javadecompcore/refexpr"
)

// Driver orchestrates the whole pipeline over one decoded method (spec
// §2, step 9): aggregate exception ranges, splice out synchronized/try
// blocks innermost-first, run the expression-reconstructor battery, then
// recognize loops, conditionals and switches, and finally place
// declarations and labels.
type Driver struct {
	ClassFile *bytecode.ClassFile
	Idioms    *idiomdb.Registry
	Rec       refexpr.Reconstructor
}

// NewDriver builds a Driver for one class file. idioms and rec may be
// nil; the pipeline falls back to idiomdb.Default() and refexpr.Noop{}.
func NewDriver(cf *bytecode.ClassFile, idioms *idiomdb.Registry, rec refexpr.Reconstructor) *Driver {
	return &Driver{ClassFile: cf, Idioms: idioms, Rec: rec}
}

func (d *Driver) context(code []bytecode.RawInstr) *Context {
	var pool *bytecode.ConstantPool
	var switchMaps map[string]map[int]int
	if d.ClassFile != nil {
		pool = d.ClassFile.ConstantPool
		switchMaps = d.ClassFile.SwitchMaps
	}
	return &Context{Pool: pool, Idioms: d.Idioms, Rec: d.Rec, SwitchMaps: switchMaps, Code: code}
}

// Run executes the full pipeline over m and returns the method body's
// reconstructed statement list. m.LocalVariables is mutated in place
// (Declared is set as declarations are placed); callers that need to
// run the pipeline more than once over the same method should clone it
// first, as RunTwiceAndDiff does.
//
// Per spec §7's recovery policy, Run never panics across methods: a panic
// from any reconstructor pass (a malformed structure an UnexpectedInstruction
// check didn't already catch, e.g. an out-of-range slice index from a
// corrupt offset) is recovered at this boundary and reported as an
// UnexpectedInstructionError, with m.ContainsError set so a driver covering
// many methods can mark this one and continue with the rest. Any other
// error Run returns (bounds violations, unknown handler shapes, empty catch
// bodies) also marks m.ContainsError before returning, whatever partial
// fastNodes were built so far left in list.
func (d *Driver) Run(m *bytecode.Method) (list []*Node, err error) {
	if len(m.Code) == 0 {
		return nil, nil
	}
	defer func() {
		if r := recover(); r != nil {
			m.ContainsError = true
			list = nil
			err = unexpected(m.Code[len(m.Code)-1].Offset, "recovered panic during reconstruction: %v", r)
		}
	}()

	ctx := d.context(m.Code)

	list = make([]*Node, len(m.Code))
	for i := range m.Code {
		list[i] = NewRaw(m.Code[i])
	}

	ranges := Aggregate(m.ExceptionTable, m.Code)
	sort.Slice(ranges, func(i, j int) bool {
		return (ranges[i].TryToOffset - ranges[i].TryFromOffset) < (ranges[j].TryToOffset - ranges[j].TryFromOffset)
	})

	for _, r := range ranges {
		var next []*Node
		if r.Synchronized {
			next, err = CreateSynchronizedBlock(list, r, m.LocalVariables, ctx)
		} else {
			next, err = CreateFastTry(list, r, m.LocalVariables, ctx)
		}
		if err != nil {
			m.ContainsError = true
			return list, err
		}
		list = next
	}

	list = Reconstruct(list, ctx)
	looped, err := RecognizeLoops(list, m.LocalVariables, -1, ctx)
	if err != nil {
		m.ContainsError = true
		return list, err
	}
	list = looped
	list = RecognizeConditionals(list, -1, ctx)
	list = RecognizeSwitches(list, m.LocalVariables, ctx)

	list = PlaceDeclarations(list, m.LocalVariables)
	list = append(OrphanedDeclarations(m.LocalVariables), list...)
	list = InsertLabels(list)
	list = dropTrailingSyntheticReturn(list)

	return list, nil
}

// RunTwiceAndDiff runs the pipeline twice over independent deep copies
// of m and reports whether the two resulting trees are structurally
// identical (spec §8 "Idempotence"). A real second pass over a tree
// that is already fully reconstructed should be a no-op; divergence
// means some pass mutated shared state it shouldn't have, or made a
// decision sensitive to mutation order.
func (d *Driver) RunTwiceAndDiff(m *bytecode.Method) (bool, error) {
	first, err := d.Run(cloneMethod(m))
	if err != nil {
		return false, fmt.Errorf("first run: %w", err)
	}
	second, err := d.Run(cloneMethod(m))
	if err != nil {
		return false, fmt.Errorf("second run: %w", err)
	}
	return treesEqual(first, second), nil
}

func cloneMethod(m *bytecode.Method) *bytecode.Method {
	clone := &bytecode.Method{
		Name:        m.Name,
		Descriptor:  m.Descriptor,
		AccessFlags: m.AccessFlags,
		Code:        append([]bytecode.RawInstr(nil), m.Code...),
		LineNumbers: append([]bytecode.LineNumberEntry(nil), m.LineNumbers...),
		ExceptionTable: append([]bytecode.ExceptionTableEntry(nil), m.ExceptionTable...),
		ContainsError:  m.ContainsError,
	}
	for _, lv := range m.LocalVariables {
		cp := *lv
		clone.LocalVariables = append(clone.LocalVariables, &cp)
	}
	return clone
}

func treesEqual(a, b []*Node) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !nodeEqual(a[i], b[i]) {
			return false
		}
	}
	return true
}

// rawInstrEqual compares two RawInstr values field by field since the
// switch-table slices make the struct itself non-comparable with ==.
func rawInstrEqual(a, b bytecode.RawInstr) bool {
	if a.Offset != b.Offset || a.Opcode != b.Opcode || a.Line != b.Line ||
		a.Branch != b.Branch || a.Target != b.Target ||
		a.VarIndex != b.VarIndex || a.IincDelta != b.IincDelta || a.PushValue != b.PushValue ||
		a.ConstIndex != b.ConstIndex || a.SwitchDefault != b.SwitchDefault ||
		a.NewArrayType != b.NewArrayType {
		return false
	}
	if len(a.SwitchTargets) != len(b.SwitchTargets) || len(a.SwitchKeys) != len(b.SwitchKeys) {
		return false
	}
	for i := range a.SwitchTargets {
		if a.SwitchTargets[i] != b.SwitchTargets[i] {
			return false
		}
	}
	for i := range a.SwitchKeys {
		if a.SwitchKeys[i] != b.SwitchKeys[i] {
			return false
		}
	}
	return true
}

func nodeEqual(a, b *Node) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.Tag != b.Tag || a.Offset != b.Offset || a.Line != b.Line || a.LabelName != b.LabelName || a.TargetLabel != b.TargetLabel {
		return false
	}
	if (a.Raw == nil) != (b.Raw == nil) {
		return false
	}
	if a.Raw != nil && !rawInstrEqual(*a.Raw, *b.Raw) {
		return false
	}
	if !treesEqual(a.Body, b.Body) || !treesEqual(a.Else, b.Else) || !treesEqual(a.Finally, b.Finally) {
		return false
	}
	if len(a.Catches) != len(b.Catches) {
		return false
	}
	for i := range a.Catches {
		if !treesEqual(a.Catches[i].Body, b.Catches[i].Body) {
			return false
		}
	}
	if len(a.Cases) != len(b.Cases) {
		return false
	}
	for i := range a.Cases {
		if !treesEqual(a.Cases[i].Body, b.Cases[i].Body) {
			return false
		}
	}
	return true
}

// CheckLineNumberBound verifies that no node in the tree carries a line
// number greater than maxLine (spec §8 "Line numbers never increase
// beyond the input"): every synthesized node inherits its line from a
// real input instruction, so none should ever exceed the method's own
// highest line.
func CheckLineNumberBound(list []*Node, maxLine int) error {
	var walk func([]*Node) error
	walk = func(l []*Node) error {
		for _, n := range l {
			if n.Line != bytecode.UnknownLineNumber && n.Line > maxLine {
				return fmt.Errorf("node at offset %d carries line %d, exceeding method max %d", n.Offset, n.Line, maxLine)
			}
			for _, sub := range [][]*Node{n.Body, n.Else, n.Finally} {
				if err := walk(sub); err != nil {
					return err
				}
			}
			for _, c := range n.Catches {
				if err := walk(c.Body); err != nil {
					return err
				}
			}
			for _, c := range n.Cases {
				if err := walk(c.Body); err != nil {
					return err
				}
			}
		}
		return nil
	}
	return walk(list)
}
