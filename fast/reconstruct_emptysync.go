// Copyright 2017 The go-interpreter Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package fast

import "github.com/javadecompcore/javadecompcore/bytecode"

// passEmptySynchronized removes monitorenter/monitorexit pairs bracketing
// no instructions (spec §4.4 "Empty-synchronized"), along with the astore
// that captured the monitor reference immediately before the monitorenter,
// since it no longer has a use once the pair is gone.
//
// The Jikes 1.2.2 compiler can additionally emit a second, unreachable
// monitorexit immediately after the first when the block is empty; that
// fallthrough is preserved here rather than special-cased away, per
// spec §9's note that a test should flag it rather than assume it can't
// occur in older class files.
func passEmptySynchronized(list []*Node) []*Node {
	out := list[:0:0]
	for i := 0; i < len(list); i++ {
		n := list[i]
		if n.IsRaw(bytecode.OpMonitorEnter) && i+1 < len(list) && list[i+1].IsRaw(bytecode.OpMonitorExit) {
			if len(out) > 0 && out[len(out)-1].IsRaw(bytecode.OpAStore) {
				out = out[:len(out)-1]
			}
			i++ // also skip the monitorexit
			continue
		}
		out = append(out, n)
	}
	return out
}
