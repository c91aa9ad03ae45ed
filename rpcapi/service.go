// Copyright 2017 The go-interpreter Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package rpcapi exposes the structural core over a single-unary-RPC gRPC
// service, so a downstream source-rendering process can request a method's
// reconstructed statement tree without linking against this module
// directly. The wire messages reuse protobuf's well-known wrapper types
// (google.golang.org/protobuf/types/known/wrapperspb) rather than a
// hand-rolled message schema, since the payload on both sides is already
// an opaque, self-describing blob (the caller's encoded bytecode.Method in,
// a JSON-rendered Node tree out).
package rpcapi

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// DecompilerServer is the service a collaborator implements: Decompile
// takes one method's encoded bytecode.Method (gob-encoded, per
// EncodeMethod) and returns its reconstructed statement tree rendered as
// JSON.
type DecompilerServer interface {
	Decompile(context.Context, *wrapperspb.BytesValue) (*wrapperspb.StringValue, error)
}

// DecompilerClient is the client stub returned by NewDecompilerClient.
type DecompilerClient interface {
	Decompile(ctx context.Context, in *wrapperspb.BytesValue, opts ...grpc.CallOption) (*wrapperspb.StringValue, error)
}

type decompilerClient struct {
	cc grpc.ClientConnInterface
}

// NewDecompilerClient builds a DecompilerClient over an existing connection.
func NewDecompilerClient(cc grpc.ClientConnInterface) DecompilerClient {
	return &decompilerClient{cc: cc}
}

func (c *decompilerClient) Decompile(ctx context.Context, in *wrapperspb.BytesValue, opts ...grpc.CallOption) (*wrapperspb.StringValue, error) {
	out := new(wrapperspb.StringValue)
	if err := c.cc.Invoke(ctx, serviceName+"/Decompile", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

const serviceName = "javadecompcore.rpcapi.Decompiler"

// RegisterDecompilerServer registers srv with s, the shape protoc-gen-go-grpc
// would otherwise generate from a .proto service declaration.
func RegisterDecompilerServer(s grpc.ServiceRegistrar, srv DecompilerServer) {
	s.RegisterService(&serviceDesc, srv)
}

var serviceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*DecompilerServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "Decompile",
			Handler:    decompileHandler,
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "rpcapi/javadecomp.proto",
}

func decompileHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(wrapperspb.BytesValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(DecompilerServer).Decompile(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: serviceName + "/Decompile",
	}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(DecompilerServer).Decompile(ctx, req.(*wrapperspb.BytesValue))
	}
	return interceptor(ctx, in, info, handler)
}

// errInvalidMethod builds the gRPC status returned when the request's
// bytes don't decode to a method, when the pipeline fails on it, or when
// its tree cannot be JSON-encoded.
func errInvalidMethod(err error) error {
	return status.Errorf(codes.InvalidArgument, "rpcapi: malformed method payload: %v", err)
}
