// Copyright 2017 The go-interpreter Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package cfgdump renders the pre-structured instruction/jump graph of a
// method as a graphviz DOT graph, for visually debugging the loop and
// conditional recognizers against a case that misclassifies.
package cfgdump

import (
	"fmt"

	"github.com/emicklei/dot"

	"github.com/javadecompcore/javadecompcore/bytecode"
)

// Graph builds a DOT graph of a method's raw instruction list: one node per
// instruction, a sequential "next" edge between consecutive offsets, and a
// dashed "jump" edge from any branch/goto/switch to each of its targets.
// Passing the list through before RecognizeLoops/RecognizeConditionals
// shows exactly the offsets those passes must pair up.
func Graph(name string, code []bytecode.RawInstr) *dot.Graph {
	g := dot.NewGraph(dot.Directed)
	g.Attr("label", name)
	g.Attr("rankdir", "TB")

	nodes := make(map[int]dot.Node, len(code))
	for _, in := range code {
		label := fmt.Sprintf("%d: opcode(%#x)", in.Offset, uint8(in.Opcode))
		n := g.Node(fmt.Sprintf("i%d", in.Offset)).Label(label).Attr("shape", "box")
		nodes[in.Offset] = n
	}

	for i, in := range code {
		if i+1 < len(code) {
			g.Edge(nodes[in.Offset], nodes[code[i+1].Offset])
		}
		for _, target := range jumpTargets(in) {
			dst, ok := nodes[target]
			if !ok {
				continue
			}
			g.Edge(nodes[in.Offset], dst).Attr("style", "dashed").Attr("color", "red")
		}
	}
	return g
}

// jumpTargets returns every offset in's opcode can transfer control to,
// beyond the implicit fallthrough to the next instruction.
func jumpTargets(in bytecode.RawInstr) []int {
	if in.Opcode.IsConditionalBranch() || in.Opcode == bytecode.OpGoto || in.Opcode == bytecode.OpJsr {
		return []int{in.Target}
	}
	if in.Opcode == bytecode.OpTableSwitch || in.Opcode == bytecode.OpLookupSwitch {
		targets := append([]int{}, in.SwitchTargets...)
		targets = append(targets, in.SwitchDefault)
		return targets
	}
	return nil
}

// WriteDOT renders g in DOT format to a string, suitable for piping into
// `dot -Tsvg`.
func WriteDOT(g *dot.Graph) string {
	return g.String()
}
