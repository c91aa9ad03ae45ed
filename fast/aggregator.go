// Copyright 2017 The go-interpreter Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package fast

import (
	"sort"

	"github.com/javadecompcore/javadecompcore/bytecode"
	"github.com/javadecompcore/javadecompcore/internal/stack"
)

// RangeType classifies an aggregated exception range (spec §3 "Exception
// range (aggregated)").
type RangeType int

const (
	// TypeCatch is a plain try/catch with no finally.
	TypeCatch RangeType = iota
	// TypeFinally is a try/finally where the finally body is duplicated
	// inline at every normal and exceptional exit (no jsr).
	TypeFinally
	// TypeFinallyJSR is the JDK 1.1-style subroutine form: the handler
	// bodies jsr into a single shared finally body ending in ret.
	TypeFinallyJSR
	// TypeSynchronized is a synchronized block's generated cleanup
	// handler (monitorexit + athrow), no shared subroutine.
	TypeSynchronized
	// Type118SynchronizedDouble is the Jikes 1.2.2 shape where two nested
	// monitor-protected handlers share one subroutine.
	Type118SynchronizedDouble
)

// CatchEntry is one catch arm of an aggregated ExceptionRange, prior to
// extraction into a Node.
type CatchEntry struct {
	FromOffset int
	ToOffset   int
	TypeIndex  int
	OtherTypes []int
}

// ExceptionRange is the aggregator's output: a logical protected region,
// merged from one or more raw exception-table rows sharing the same
// (startPC, endPC) (spec §3 "Exception range (aggregated)").
type ExceptionRange struct {
	TryFromOffset     int
	TryToOffset       int
	FinallyFromOffset int // -1 if none
	AfterOffset       int
	Catches           []CatchEntry
	Synchronized      bool
	Type              RangeType
}

// Aggregate merges the raw exception table into logical protected regions,
// outermost-last (spec §4.1). code must be offset-sorted.
func Aggregate(table []bytecode.ExceptionTableEntry, code []bytecode.RawInstr) []*ExceptionRange {
	byIndex := indexByOffset(code)

	// Group raw rows sharing (StartPC, EndPC).
	type group struct {
		start, end int
		rows       []bytecode.ExceptionTableEntry
	}
	var groups []*group
	for _, e := range table {
		var g *group
		for _, cand := range groups {
			if cand.start == e.StartPC && cand.end == e.EndPC {
				g = cand
				break
			}
		}
		if g == nil {
			g = &group{start: e.StartPC, end: e.EndPC}
			groups = append(groups, g)
		}
		g.rows = append(g.rows, e)
	}

	ranges := make([]*ExceptionRange, 0, len(groups))
	for _, g := range groups {
		r := &ExceptionRange{
			TryFromOffset:     g.start,
			TryToOffset:       g.end,
			FinallyFromOffset: -1,
			AfterOffset:       g.end,
			Type:              TypeCatch,
		}

		for _, row := range g.rows {
			if row.CatchType == 0 {
				classifyCatchAll(r, row, code, byIndex)
				continue
			}
			r.Catches = append(r.Catches, CatchEntry{
				FromOffset: row.HandlerPC,
				ToOffset:   handlerEnd(row.HandlerPC, code),
				TypeIndex:  row.CatchType,
			})
		}

		ranges = append(ranges, r)
	}
	return orderOutermostLast(ranges)
}

// orderOutermostLast reorders ranges so that a range never precedes one it
// is nested inside of (spec §4.1 "processed outermost-last"). It walks the
// ranges sorted by (start asc, end desc) — outer ranges first — pushing
// each onto a stack of still-open ranges and popping (emitting) any range
// whose end has been passed once a later range's start clears it. Any
// ranges still open once the scan ends are innermost-first on the stack,
// so popping them in LIFO order naturally finishes with the outermost
// range last, the same nesting discipline disasm's block matcher (the
// teacher's own stack-based scope tracker) uses to pair open blocks with
// their closing instruction.
func orderOutermostLast(ranges []*ExceptionRange) []*ExceptionRange {
	sorted := append([]*ExceptionRange(nil), ranges...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].TryFromOffset != sorted[j].TryFromOffset {
			return sorted[i].TryFromOffset < sorted[j].TryFromOffset
		}
		return sorted[i].TryToOffset > sorted[j].TryToOffset
	})

	var open stack.Stack
	out := make([]*ExceptionRange, 0, len(sorted))
	for i, r := range sorted {
		for open.Len() > 0 && sorted[int(open.Top())].TryToOffset <= r.TryFromOffset {
			out = append(out, sorted[int(open.Top())])
			open.Pop()
		}
		open.Push(uint64(i))
	}
	for open.Len() > 0 {
		out = append(out, sorted[int(open.Top())])
		open.Pop()
	}
	return out
}

// classifyCatchAll inspects a catchType==0 handler to decide whether it is
// a finally body, a synchronized cleanup, or (falling back per spec §7
// "Unknown exception-handler shape") a plain catch-all.
func classifyCatchAll(r *ExceptionRange, row bytecode.ExceptionTableEntry, code []bytecode.RawInstr, byIndex map[int]int) {
	handlerIdx, ok := byIndex[row.HandlerPC]
	if !ok {
		r.Catches = append(r.Catches, CatchEntry{FromOffset: row.HandlerPC, TypeIndex: 0})
		return
	}

	end := handlerEnd(row.HandlerPC, code)

	if handlerIsMonitorCleanup(code, handlerIdx) {
		r.Synchronized = true
		r.FinallyFromOffset = row.HandlerPC
		r.AfterOffset = end
		if handlerEndsInSubroutine(code, handlerIdx) {
			r.Type = Type118SynchronizedDouble
		} else {
			r.Type = TypeSynchronized
		}
		return
	}

	if handlerEndsInAthrow(code, handlerIdx) {
		r.FinallyFromOffset = row.HandlerPC
		r.AfterOffset = end
		if handlerJumpsToSubroutine(code, handlerIdx) {
			r.Type = TypeFinallyJSR
		} else {
			r.Type = TypeFinally
		}
		return
	}

	// Unknown catch-all shape: fall back to a plain try/catch (spec §7).
	r.Catches = append(r.Catches, CatchEntry{FromOffset: row.HandlerPC, ToOffset: end, TypeIndex: 0})
}

func indexByOffset(code []bytecode.RawInstr) map[int]int {
	m := make(map[int]int, len(code))
	for i, in := range code {
		m[in.Offset] = i
	}
	return m
}

// handlerEnd returns the offset at which the handler body starting at
// handlerPC ends, approximated as the offset just past the first return,
// athrow or ret at or after handlerPC, or the end of the method if none is
// found. A handlerPC that is not an instruction offset is returned as is.
func handlerEnd(handlerPC int, code []bytecode.RawInstr) int {
	byIndex := indexByOffset(code)
	start, ok := byIndex[handlerPC]
	if !ok {
		return handlerPC
	}
	for i := start; i < len(code); i++ {
		op := code[i].Opcode
		if op.IsReturn() || op == bytecode.OpAThrow || op == bytecode.OpRet {
			if i+1 < len(code) {
				return code[i+1].Offset
			}
			return code[i].Offset + 1
		}
	}
	return code[len(code)-1].Offset + 1
}

func handlerIsMonitorCleanup(code []bytecode.RawInstr, start int) bool {
	for i := start; i < len(code) && i < start+8; i++ {
		if code[i].Opcode == bytecode.OpMonitorExit {
			// must be followed (modulo a store/load of the pending
			// exception) by an athrow.
			for j := i + 1; j < len(code) && j < i+4; j++ {
				if code[j].Opcode == bytecode.OpAThrow {
					return true
				}
			}
		}
	}
	return false
}

func handlerEndsInAthrow(code []bytecode.RawInstr, start int) bool {
	for i := start; i < len(code); i++ {
		if code[i].Opcode == bytecode.OpAThrow {
			return true
		}
		if code[i].Opcode.IsReturn() {
			return false
		}
	}
	return false
}

func handlerJumpsToSubroutine(code []bytecode.RawInstr, start int) bool {
	for i := start; i < len(code); i++ {
		if code[i].Opcode == bytecode.OpJsr {
			return true
		}
		if code[i].Opcode == bytecode.OpAThrow || code[i].Opcode.IsReturn() {
			break
		}
	}
	return false
}

func handlerEndsInSubroutine(code []bytecode.RawInstr, start int) bool {
	for i := start; i < len(code); i++ {
		if code[i].Opcode == bytecode.OpJsr {
			return true
		}
		if code[i].Opcode == bytecode.OpAThrow {
			break
		}
	}
	return false
}
