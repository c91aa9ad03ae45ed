// Copyright 2017 The go-interpreter Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package rpcapi

import (
	"github.com/jhump/protoreflect/desc"
	"github.com/jhump/protoreflect/desc/protoprint"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// DumpWireSchema renders the .proto-syntax description of the well-known
// wrapper types this service's wire messages are built from, so an
// operator debugging a version skew between client and server can confirm
// both sides agree on the BytesValue/StringValue schema without needing
// the original .proto source on hand.
func DumpWireSchema() (string, error) {
	fd, err := desc.WrapFile(wrapperspb.File_google_protobuf_wrappers_proto)
	if err != nil {
		return "", err
	}
	p := protoprint.Printer{}
	return p.PrintProtoToString(fd)
}
