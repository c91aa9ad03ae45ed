// Copyright 2017 The go-interpreter Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package idiomdb holds the vendor-specific compiler-idiom signatures the
// structural core's reconstructors match against: the synthetic `class$`
// helper method name, the `$assertionsDisabled` field name, the
// `$SwitchMap$` field-name prefix, and the for-each-on-array
// variable-naming patterns of §4.5.1 B/C/D. Keeping these in a
// data-driven, YAML-configured registry instead of hardcoding them in
// fast lets a caller extend recognition to a vendor's naming convention
// that a class-file version alone doesn't disambiguate.
package idiomdb

import (
	"embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var defaultFS embed.FS

// ForEachArrayPattern names one of the §4.5.1 array for-each lowerings.
type ForEachArrayPattern struct {
	Name            string   `yaml:"name"`
	TempArrayPrefix string   `yaml:"tempArrayPrefix"`
	LengthPrefix    string   `yaml:"lengthPrefix"`
	IndexPrefix     string   `yaml:"indexPrefix"`
}

// Vendor groups the idiom signatures attributed to one compiler.
type Vendor struct {
	Name                 string                `yaml:"name"`
	ClassLiteralHelper   string                `yaml:"classLiteralHelper"`
	AssertionsDisabled   string                `yaml:"assertionsDisabledField"`
	SwitchMapPrefix      string                `yaml:"switchMapPrefix"`
	ForEachArrayPatterns []ForEachArrayPattern `yaml:"forEachArrayPatterns"`
}

// Registry is the parsed idiom database.
type Registry struct {
	Vendors []Vendor `yaml:"vendors"`
}

// Default returns the registry embedded at build time, covering javac
// pre-1.5 through 1.6, Eclipse, IBM, and Jikes.
func Default() *Registry {
	data, err := defaultFS.ReadFile("default.yaml")
	if err != nil {
		// The embedded file is part of the build; a missing/corrupt
		// embed is a programmer error, not a runtime condition to
		// recover from.
		panic(fmt.Sprintf("idiomdb: embedded default.yaml unreadable: %v", err))
	}
	r, err := Parse(data)
	if err != nil {
		panic(fmt.Sprintf("idiomdb: embedded default.yaml invalid: %v", err))
	}
	return r
}

// Parse decodes a registry document, as loaded from an external override
// file by the CLI driver's -idioms flag.
func Parse(data []byte) (*Registry, error) {
	var r Registry
	if err := yaml.Unmarshal(data, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

// IsClassLiteralHelper reports whether methodName matches any known
// vendor's synthetic `.class` literal helper.
func (r *Registry) IsClassLiteralHelper(methodName string) bool {
	for _, v := range r.Vendors {
		if v.ClassLiteralHelper != "" && methodName == v.ClassLiteralHelper {
			return true
		}
	}
	return false
}

// IsAssertionsDisabledField reports whether fieldName matches any known
// vendor's `$assertionsDisabled` guard field.
func (r *Registry) IsAssertionsDisabledField(fieldName string) bool {
	for _, v := range r.Vendors {
		if v.AssertionsDisabled != "" && fieldName == v.AssertionsDisabled {
			return true
		}
	}
	return false
}

// IsSwitchMapField reports whether fieldName matches any known vendor's
// `$SwitchMap$` synthetic enum-switch lookup table.
func (r *Registry) IsSwitchMapField(fieldName string) bool {
	for _, v := range r.Vendors {
		if v.SwitchMapPrefix != "" && strings.HasPrefix(fieldName, v.SwitchMapPrefix) {
			return true
		}
	}
	return false
}

// MatchForEachArray reports whether (tempName, lengthName, indexName)
// matches one of the known array for-each variable-naming patterns, and
// if so which one.
func (r *Registry) MatchForEachArray(tempName, lengthName, indexName string) (ForEachArrayPattern, bool) {
	for _, v := range r.Vendors {
		for _, p := range v.ForEachArrayPatterns {
			if strings.HasPrefix(tempName, p.TempArrayPrefix) &&
				strings.HasPrefix(lengthName, p.LengthPrefix) &&
				strings.HasPrefix(indexName, p.IndexPrefix) {
				return p, true
			}
		}
	}
	return ForEachArrayPattern{}, false
}
