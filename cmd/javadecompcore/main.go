// Copyright 2017 The go-interpreter Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// javadecompcore runs the structural-reconstruction core over one or more
// pre-decoded class files and prints each method's reconstructed statement
// tree, optionally memoizing results in a sqlite cache or serving the core
// over gRPC instead of processing files directly.
package main

import (
	"encoding/gob"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net"
	"os"

	"google.golang.org/grpc"

	"github.com/google/uuid"

	"github.com/javadecompcore/javadecompcore/bytecode"
	"github.com/javadecompcore/javadecompcore/cachestore"
	"github.com/javadecompcore/javadecompcore/cfgdump"
	"github.com/javadecompcore/javadecompcore/fast"
	"github.com/javadecompcore/javadecompcore/idiomdb"
	"github.com/javadecompcore/javadecompcore/refexpr"
	"github.com/javadecompcore/javadecompcore/rpcapi"
)

func init() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: javadecompcore [options] file1.jdec [file2.jdec [...]]

Each input file is a gob-encoded bytecode.ClassFile/[]bytecode.Method pair,
as produced by an upstream class-file decoder (out of scope for this tool).

ex:
 $> javadecompcore -dot ./out ./HelloWorld.jdec

options:
`,
		)
		flag.PrintDefaults()
		os.Exit(1)
	}
}

var (
	flagVerbose = flag.Bool("v", false, "enable/disable verbose mode")
	flagJSON    = flag.Bool("json", true, "print each method's reconstructed tree as JSON")
	flagDot     = flag.String("dot", "", "write a pre-structure control-flow graph per method as <dir>/<method>.dot")
	flagCache   = flag.String("cache", "", "sqlite cache path for memoized results (empty disables caching)")
	flagIdioms  = flag.String("idioms", "", "path to a YAML vendor-idiom override file (empty uses the built-in registry)")
	flagServe   = flag.String("serve", "", "instead of processing files, listen on this address and serve the core over gRPC")
)

// classFile is one input file's decoded payload: the class-wide context
// plus every method to reconstruct.
type classFile struct {
	ClassFile bytecode.ClassFile
	ClassName string
	Methods   []bytecode.Method
}

func main() {
	log.SetPrefix("javadecompcore: ")
	log.SetFlags(0)

	flag.Parse()

	idioms := idiomdb.Default()
	if *flagIdioms != "" {
		data, err := os.ReadFile(*flagIdioms)
		if err != nil {
			log.Fatalf("could not read idiom override file: %v", err)
		}
		idioms, err = idiomdb.Parse(data)
		if err != nil {
			log.Fatalf("could not parse idiom override file: %v", err)
		}
	}

	if *flagServe != "" {
		serve(*flagServe, idioms)
		return
	}

	if flag.NArg() < 1 {
		flag.Usage()
	}

	var cache *cachestore.Store
	if *flagCache != "" {
		var err error
		cache, err = cachestore.Open(*flagCache)
		if err != nil {
			log.Fatalf("could not open cache: %v", err)
		}
		defer cache.Close()
	}

	runID := uuid.NewString()
	for _, fname := range flag.Args() {
		process(runID, fname, idioms, cache)
	}
}

func serve(addr string, idioms *idiomdb.Registry) {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		log.Fatalf("could not listen on %q: %v", addr, err)
	}
	s := grpc.NewServer()
	rpcapi.RegisterDecompilerServer(s, &rpcapi.Server{Idioms: idioms, Rec: refexpr.Noop{}})
	log.Printf("serving the structural core on %s", addr)
	if err := s.Serve(lis); err != nil {
		log.Fatalf("serve: %v", err)
	}
}

func process(runID, fname string, idioms *idiomdb.Registry, cache *cachestore.Store) {
	f, err := os.Open(fname)
	if err != nil {
		log.Fatalf("could not open %q: %v", fname, err)
	}
	defer f.Close()

	var cf classFile
	if err := gob.NewDecoder(f).Decode(&cf); err != nil {
		log.Fatalf("could not decode %q: %v", fname, err)
	}

	if *flagVerbose {
		log.Printf("[%s] %s: class %s, %d method(s)", runID, fname, cf.ClassName, len(cf.Methods))
	}

	d := fast.NewDriver(&cf.ClassFile, idioms, refexpr.Noop{})
	for i := range cf.Methods {
		m := &cf.Methods[i]
		processMethod(runID, d, cf.ClassName, m, cache)
	}
}

func processMethod(runID string, d *fast.Driver, className string, m *bytecode.Method, cache *cachestore.Store) {
	var key string
	if cache != nil {
		key = cachestore.Key(className, m.Name, m.Descriptor, encodeCode(m.Code))
		if tree, ok, err := cache.Lookup(key); err != nil {
			log.Printf("[%s] %s.%s: cache lookup failed: %v", runID, className, m.Name, err)
		} else if ok {
			printTree(className, m.Name, tree)
			return
		}
	}

	tree, err := d.Run(m)
	if err != nil {
		log.Printf("[%s] %s.%s: %v", runID, className, m.Name, err)
		return
	}

	if cache != nil {
		if err := cache.Store(key, className, m.Name, tree); err != nil {
			log.Printf("[%s] %s.%s: cache store failed: %v", runID, className, m.Name, err)
		}
	}

	if *flagDot != "" {
		g := cfgdump.Graph(className+"."+m.Name, m.Code)
		dotPath := *flagDot + "/" + className + "." + m.Name + ".dot"
		if err := os.WriteFile(dotPath, []byte(cfgdump.WriteDOT(g)), 0644); err != nil {
			log.Printf("[%s] %s.%s: could not write dot file: %v", runID, className, m.Name, err)
		}
	}

	printTree(className, m.Name, tree)
}

func printTree(className, methodName string, tree []*fast.Node) {
	if !*flagJSON {
		return
	}
	out, err := json.MarshalIndent(tree, "", "  ")
	if err != nil {
		log.Printf("%s.%s: could not render tree: %v", className, methodName, err)
		return
	}
	fmt.Printf("// %s.%s\n%s\n", className, methodName, out)
}

func encodeCode(code []bytecode.RawInstr) []byte {
	out, _ := json.Marshal(code)
	return out
}
