// Copyright 2017 The go-interpreter Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package rpcapi

import (
	"bytes"
	"context"
	"encoding/gob"
	"encoding/json"
	"log"

	"github.com/google/uuid"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/javadecompcore/javadecompcore/bytecode"
	"github.com/javadecompcore/javadecompcore/fast"
	"github.com/javadecompcore/javadecompcore/idiomdb"
	"github.com/javadecompcore/javadecompcore/refexpr"
)

// wireMethod is the gob-encoded shape carried in a request's BytesValue: a
// single method plus the minimal class-wide context (constant pool,
// switch-map registry) the pipeline needs to resolve it.
type wireMethod struct {
	ClassFile bytecode.ClassFile
	Method    bytecode.Method
}

// EncodeMethod gob-encodes cf/m as the payload a DecompilerClient sends.
func EncodeMethod(cf *bytecode.ClassFile, m *bytecode.Method) (*wrapperspb.BytesValue, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(wireMethod{ClassFile: *cf, Method: *m}); err != nil {
		return nil, err
	}
	return wrapperspb.Bytes(buf.Bytes()), nil
}

// Server implements DecompilerServer by running the structural pipeline
// directly.
type Server struct {
	Idioms *idiomdb.Registry
	Rec    refexpr.Reconstructor
}

// Decompile decodes in's gob-encoded wireMethod, runs the structural
// pipeline over it, and returns the resulting tree JSON-encoded.
func (s *Server) Decompile(ctx context.Context, in *wrapperspb.BytesValue) (*wrapperspb.StringValue, error) {
	reqID := uuid.NewString()

	var wire wireMethod
	if err := gob.NewDecoder(bytes.NewReader(in.GetValue())).Decode(&wire); err != nil {
		log.Printf("rpcapi[%s]: malformed request: %v", reqID, err)
		return nil, errInvalidMethod(err)
	}
	log.Printf("rpcapi[%s]: decompiling %s.%s", reqID, wire.Method.Name, wire.Method.Descriptor)

	d := fast.NewDriver(&wire.ClassFile, s.Idioms, s.Rec)
	tree, err := d.Run(&wire.Method)
	if err != nil {
		return nil, errInvalidMethod(err)
	}

	out, err := json.Marshal(tree)
	if err != nil {
		return nil, errInvalidMethod(err)
	}
	return wrapperspb.String(string(out)), nil
}
