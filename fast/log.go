// Copyright 2017 The go-interpreter Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package fast

import (
	"io/ioutil"
	"log"
	"os"
)

// PrintDebugInfo toggles verbose per-pass logging, mirroring
// wasm.PrintDebugInfo / validate.PrintDebugInfo.
var PrintDebugInfo = false

var logger *log.Logger

func init() {
	w := ioutil.Discard
	if PrintDebugInfo {
		w = os.Stderr
	}
	logger = log.New(w, "fast: ", log.Lshortfile)
}

// SetDebugMode toggles PrintDebugInfo and reinitializes logger, matching
// the teacher's wasm.SetDebugMode shape.
func SetDebugMode(v bool) {
	PrintDebugInfo = v
	w := ioutil.Discard
	if v {
		w = os.Stderr
	}
	logger = log.New(w, "fast: ", log.Lshortfile)
}
