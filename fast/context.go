// Copyright 2017 The go-interpreter Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package fast

import (
	"github.com/javadecompcore/javadecompcore/bytecode"
	"github.com/javadecompcore/javadecompcore/idiomdb"
	"github.com/javadecompcore/javadecompcore/refexpr"
)

// Context carries the per-method collaborators the reconstructors consult:
// the constant pool (for resolving synthetic method/field names), the
// vendor idiom registry, and the expression-reconstructor sibling module.
// A nil *Context is valid everywhere in this package and degrades
// gracefully: passes that need a name to match against simply skip.
type Context struct {
	Pool   *bytecode.ConstantPool
	Idioms *idiomdb.Registry
	Rec    refexpr.Reconstructor

	// SwitchMaps is the enclosing class's $SwitchMap$<Enum> ordinal
	// registry (spec §4.7 "Enum-switch detection"), keyed by the
	// synthetic field's name.
	SwitchMaps map[string]map[int]int

	// Code is the method's full, untouched raw instruction stream, kept
	// around so a conditional whose jump target has already scrolled out
	// of the current (nested) node list — §4.6 step 4's early-return
	// special case, where the target is a shared tail return placed
	// outside the scope being processed — can still be inspected by
	// offset instead of only by list position.
	Code []bytecode.RawInstr
}

// codeAt returns the raw instruction at offset and its index in Code, or
// ok=false if none is found (empty Context, or an offset past the code's
// end — the latter is normal for a method that falls off the end without
// an explicit return).
func (c *Context) codeAt(offset int) (bytecode.RawInstr, int, bool) {
	if c == nil {
		return bytecode.RawInstr{}, -1, false
	}
	lo, hi := 0, len(c.Code)
	for lo < hi {
		mid := (lo + hi) / 2
		if c.Code[mid].Offset < offset {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	if lo < len(c.Code) && c.Code[lo].Offset == offset {
		return c.Code[lo], lo, true
	}
	return bytecode.RawInstr{}, -1, false
}

// returnShapeAt reports whether offset begins a bare `*return` or a
// `*load_n; *return` pair in the method's original instruction stream —
// spec §4.6 step 4's "method-ending" shape a forward conditional may jump
// to once it has scrolled outside the node list currently being
// recognized. load is nil for the bare-return form.
func (c *Context) returnShapeAt(offset int) (load, ret *bytecode.RawInstr, ok bool) {
	in, idx, found := c.codeAt(offset)
	if !found {
		return nil, nil, false
	}
	if in.Opcode.IsReturn() {
		cp := in
		return nil, &cp, true
	}
	switch in.Opcode {
	case bytecode.OpILoad, bytecode.OpALoad, bytecode.OpXLoad:
	default:
		return nil, nil, false
	}
	if idx+1 >= len(c.Code) || !c.Code[idx+1].Opcode.IsReturn() {
		return nil, nil, false
	}
	loadCp, retCp := in, c.Code[idx+1]
	return &loadCp, &retCp, true
}

// resolveGotoChain follows a chain of unconditional gotos in the method's
// original instruction stream starting at offset, returning the offset it
// finally lands on (spec §4.8 "Goto rewriting", to-returnOffset chain: a
// goto whose own target is itself just another goto rather than real
// code, which javac emits when two different branches fold their exits
// together). Bounded against a malformed/cyclic chain.
func (c *Context) resolveGotoChain(offset int) int {
	seen := make(map[int]bool, 8)
	for i := 0; i < 64; i++ {
		if seen[offset] {
			return offset
		}
		seen[offset] = true
		in, _, ok := c.codeAt(offset)
		if !ok || in.Opcode != bytecode.OpGoto {
			return offset
		}
		offset = in.Target
	}
	return offset
}

func (c *Context) switchMap(fieldName string) (map[int]int, bool) {
	if c == nil || c.SwitchMaps == nil {
		return nil, false
	}
	m, ok := c.SwitchMaps[fieldName]
	return m, ok
}

func (c *Context) idioms() *idiomdb.Registry {
	if c == nil || c.Idioms == nil {
		return idiomdb.Default()
	}
	return c.Idioms
}

func (c *Context) pool() *bytecode.ConstantPool {
	if c == nil {
		return nil
	}
	return c.Pool
}

func (c *Context) reconstructor() refexpr.Reconstructor {
	if c == nil || c.Rec == nil {
		return refexpr.Noop{}
	}
	return c.Rec
}

// utf8Name resolves a constant-pool Utf8 entry by index, returning "" if
// the pool is unavailable or the index doesn't name one.
func (c *Context) utf8Name(index int) string {
	p := c.pool()
	if p == nil {
		return ""
	}
	return p.Get(index).Utf8
}

// methodOrFieldName resolves a Methodref/Fieldref constant-pool index
// through its NameAndType entry to the member's plain name, returning ""
// if the pool is unavailable or index doesn't name one.
func (c *Context) methodOrFieldName(index int) string {
	p := c.pool()
	if p == nil {
		return ""
	}
	e := p.Get(index)
	if e.Kind != bytecode.ConstFieldref && e.Kind != bytecode.ConstMethodref {
		return ""
	}
	nt := p.Get(e.NameAndTypeIndex)
	return p.Get(nt.NameIndex).Utf8
}
