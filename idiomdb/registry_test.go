// Copyright 2017 The go-interpreter Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package idiomdb

import "testing"

func TestDefaultRegistry(t *testing.T) {
	r := Default()
	if len(r.Vendors) == 0 {
		t.Fatal("Default() has no vendors")
	}

	if !r.IsClassLiteralHelper("class$") {
		t.Error("class$ not recognized as a class-literal helper")
	}
	if !r.IsClassLiteralHelper("class$0") {
		t.Error("eclipse's class$0 not recognized")
	}
	if r.IsClassLiteralHelper("toString") {
		t.Error("toString wrongly recognized as a class-literal helper")
	}

	if !r.IsAssertionsDisabledField("$assertionsDisabled") {
		t.Error("$assertionsDisabled not recognized")
	}
	if r.IsAssertionsDisabledField("disabled") {
		t.Error("plain field wrongly recognized as the assert guard")
	}

	if !r.IsSwitchMapField("$SwitchMap$com$example$Color") {
		t.Error("$SwitchMap$ prefix not recognized")
	}
	if !r.IsSwitchMapField("$SWITCH_TABLE$Color") {
		t.Error("eclipse's $SWITCH_TABLE$ prefix not recognized")
	}
	if r.IsSwitchMapField("ordinalTable") {
		t.Error("plain field wrongly recognized as a switch map")
	}
}

func TestMatchForEachArray(t *testing.T) {
	r := Default()
	for _, tc := range []struct {
		temp, length, index string
		wantName            string
		wantOK              bool
	}{
		// "arr$"/"len$"/"i$" also satisfies javac-1.5's looser arr/len/i
		// prefixes, and the first vendor wins.
		{"arr$", "len$", "i$", "pattern-B", true},
		{"arr", "len", "i", "pattern-B", true},
		{"tmp", "len", "idx", "pattern-D", true},
		{"copy", "n", "pos", "", false},
	} {
		p, ok := r.MatchForEachArray(tc.temp, tc.length, tc.index)
		if ok != tc.wantOK {
			t.Errorf("MatchForEachArray(%q, %q, %q) ok = %v, want %v", tc.temp, tc.length, tc.index, ok, tc.wantOK)
			continue
		}
		if ok && p.Name != tc.wantName {
			t.Errorf("MatchForEachArray(%q, %q, %q) = %q, want %q", tc.temp, tc.length, tc.index, p.Name, tc.wantName)
		}
	}
}

func TestParseOverride(t *testing.T) {
	r, err := Parse([]byte(`
vendors:
  - name: custom
    classLiteralHelper: "myHelper$"
    switchMapPrefix: "$MyMap$"
`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if !r.IsClassLiteralHelper("myHelper$") {
		t.Error("override helper not recognized")
	}
	if !r.IsSwitchMapField("$MyMap$E") {
		t.Error("override switch-map prefix not recognized")
	}
}

func TestParseRejectsMalformedYAML(t *testing.T) {
	if _, err := Parse([]byte("vendors: {not a list")); err == nil {
		t.Fatal("Parse accepted malformed YAML")
	}
}
