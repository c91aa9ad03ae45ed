// Copyright 2017 The go-interpreter Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package refexpr defines the narrow interface the structural core uses to
// ask the sibling type-inference / signature-reconstruction module (out of
// scope here, per spec §1) to turn a run of stack-manipulating bytecode
// into a source-level expression. The core never inspects operand-stack
// contents itself beyond recognizing instruction shapes; it hands the
// backing instructions to a Reconstructor and carries the resulting Expr
// opaquely.
package refexpr

import "github.com/javadecompcore/javadecompcore/bytecode"

// Expr is an opaque, already-reconstructed source expression. The
// structural core never parses or rewrites Repr; it only carries it
// through the AST for the downstream renderer.
type Expr struct {
	Repr   string
	Instrs []bytecode.RawInstr
}

// Reconstructor resolves a run of raw instructions that compute a single
// stack value into a source-level Expr.
type Reconstructor interface {
	// Resolve reconstructs the expression whose evaluation is the
	// instructions in instrs, which must leave exactly one value on the
	// operand stack.
	Resolve(instrs []bytecode.RawInstr, pool *bytecode.ConstantPool) (Expr, error)
}

// Noop is a Reconstructor that returns a fixed placeholder instead of
// performing real expression/type reconstruction; it is sufficient for
// exercising the structural core's control-flow logic in isolation (tests,
// or any caller that supplies no Reconstructor) without wiring the sibling
// module.
type Noop struct{}

// Resolve implements Reconstructor by returning the placeholder Repr
// "<expr>" together with instrs, unchanged.
func (Noop) Resolve(instrs []bytecode.RawInstr, pool *bytecode.ConstantPool) (Expr, error) {
	return Expr{Repr: "<expr>", Instrs: instrs}, nil
}
