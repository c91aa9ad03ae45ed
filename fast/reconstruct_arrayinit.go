// Copyright 2017 The go-interpreter Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package fast

import "github.com/javadecompcore/javadecompcore/bytecode"

// passArrayInitializer collapses a newarray/anewarray followed by N
// `dup; iconst <index>; <push value>; Xastore` store sequences into a
// single array-literal node (spec §4.4 "Array-initializer fold"). The
// folded node keeps the newarray/anewarray as its Raw instruction (the
// type and length are still needed downstream) and records every dup/
// index/value/store run in Folded, in order, for the expression
// reconstructor to render as `{ v0, v1, ... }`.
func passArrayInitializer(list []*Node) []*Node {
	out := list[:0:0]
	for i := 0; i < len(list); i++ {
		n := list[i]
		if !(n.IsRaw(bytecode.OpNewArray) || n.IsRaw(bytecode.OpANewArray)) {
			out = append(out, n)
			continue
		}

		j := i + 1
		var folded []bytecode.RawInstr
		for j+3 < len(list) &&
			list[j].IsRaw(bytecode.OpDup) &&
			isIndexPush(list[j+1]) &&
			isValuePush(list[j+2]) &&
			isArrayStore(list[j+3]) {
			folded = append(folded,
				*list[j].Raw, *list[j+1].Raw, *list[j+2].Raw, *list[j+3].Raw)
			j += 4
		}

		if len(folded) == 0 {
			out = append(out, n)
			continue
		}

		out = append(out, &Node{
			Tag:    TagRaw,
			Offset: n.Offset,
			Line:   n.Line,
			Raw:    n.Raw,
			Folded: folded,
		})
		i = j - 1
	}
	return out
}

func isIndexPush(n *Node) bool {
	if n.Tag != TagRaw || n.Raw == nil {
		return false
	}
	switch n.Raw.Opcode {
	case bytecode.OpBipush, bytecode.OpSipush, bytecode.OpIConst0, bytecode.OpIConst1,
		bytecode.OpIConst2, bytecode.OpIConst3, bytecode.OpIConst4, bytecode.OpIConst5:
		return true
	}
	return false
}

// isValuePush is intentionally permissive: any single raw node can be the
// element expression (a constant, a load, or an already-folded sub-node
// from an earlier pass in this same battery run).
func isValuePush(n *Node) bool {
	return n != nil && n.Raw != nil
}

func isArrayStore(n *Node) bool {
	if n.Tag != TagRaw || n.Raw == nil {
		return false
	}
	switch n.Raw.Opcode {
	case bytecode.OpIAStore, bytecode.OpAAStore:
		return true
	}
	return false
}
