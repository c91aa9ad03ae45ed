// Copyright 2017 The go-interpreter Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package bytecode

import (
	"bytes"
	"encoding/gob"
)

// UnknownLineNumber is the sentinel line number for a node with no
// corresponding entry in the method's LineNumberTable.
const UnknownLineNumber = -1

func gobEncode(v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func gobDecode(data []byte, v interface{}) error {
	return gob.NewDecoder(bytes.NewReader(data)).Decode(v)
}

// RawInstr is one decoded bytecode instruction as handed down by the
// upstream class-file parser: offset, opcode, and already-resolved
// operands. The structural core never re-decodes raw operand bytes.
type RawInstr struct {
	Offset int
	Opcode Opcode
	Line   int // UnknownLineNumber if absent from the LineNumberTable

	// Branch is the signed jump delta for branch-family opcodes; Target is
	// Offset+Branch, precomputed by the decoder.
	Branch int
	Target int

	// VarIndex is the local-variable slot for *load/*store/iinc/ret.
	VarIndex int
	// IincDelta is the constant operand of an iinc.
	IincDelta int
	// PushValue is the signed immediate operand of a bipush/sipush.
	PushValue int

	// ConstIndex is a constant-pool index for ldc/getstatic/putstatic/
	// invoke*/new/anewarray/checkcast/instanceof.
	ConstIndex int

	// SwitchDefault/SwitchTargets/SwitchKeys describe a tableswitch or
	// lookupswitch already normalized to parallel key/target slices (a
	// tableswitch's keys are synthesized as low..high).
	SwitchDefault int
	SwitchTargets []int
	SwitchKeys    []int

	// NewArrayType is the atype operand of a primitive newarray.
	NewArrayType int
}

// ExceptionTableEntry is one raw row of a Code attribute's exception_table,
// exactly as the class file stores it.
type ExceptionTableEntry struct {
	StartPC   int
	EndPC     int
	HandlerPC int
	CatchType int // 0 means catch-all (finally/synchronized candidate)
}

// LocalVariable describes one slot's live range and declaration state
// (spec §3 "Local variable").
type LocalVariable struct {
	Index           int
	StartPC         int
	Length          int
	Name            string
	SignatureIndex  int
	Declared        bool
	ToBeRemoved     bool
	IsExceptionOrReturnAddress bool
}

// EndPC returns the exclusive end of the variable's live range.
func (v *LocalVariable) EndPC() int { return v.StartPC + v.Length }

// Contains reports whether offset lies in [StartPC, StartPC+Length).
func (v *LocalVariable) Contains(offset int) bool {
	return offset >= v.StartPC && offset < v.EndPC()
}

// ConstantPool is an append-only view over a class file's constant pool, as
// named in spec §5 ("Constant-pool appends"). The structural core appends
// entries for synthetic casts and outer-field accessor rewrites; it never
// mutates or removes existing entries, so indices handed out earlier stay
// valid.
type ConstantPool struct {
	entries []ConstantPoolEntry
}

// ConstantPoolEntry is one constant-pool slot. Kind identifies which of the
// fields is populated; unused fields are zero.
type ConstantPoolEntry struct {
	Kind       ConstantKind
	Utf8       string
	ClassIndex int // for Fieldref/Methodref/Class
	NameAndTypeIndex int
	NameIndex  int
	TypeIndex  int
}

// ConstantKind tags the variant of a ConstantPoolEntry.
type ConstantKind int

const (
	ConstUtf8 ConstantKind = iota
	ConstClass
	ConstNameAndType
	ConstFieldref
	ConstMethodref
	ConstString
)

// NewConstantPool wraps an already-parsed entry slice (index 0 unused, as
// in the JVM spec's 1-based pool).
func NewConstantPool(entries []ConstantPoolEntry) *ConstantPool {
	return &ConstantPool{entries: entries}
}

// Get returns the entry at index, or the zero entry if out of range.
func (p *ConstantPool) Get(index int) ConstantPoolEntry {
	if index <= 0 || index >= len(p.entries) {
		return ConstantPoolEntry{}
	}
	return p.entries[index]
}

// Len reports the current pool size, including index 0.
func (p *ConstantPool) Len() int { return len(p.entries) }

// GobEncode/GobDecode let a ConstantPool cross a gob-encoded RPC boundary
// (rpcapi.EncodeMethod) despite its backing slice being unexported.
func (p *ConstantPool) GobEncode() ([]byte, error) {
	return gobEncode(p.entries)
}

func (p *ConstantPool) GobDecode(data []byte) error {
	return gobDecode(data, &p.entries)
}

// AppendUtf8 appends a new CONSTANT_Utf8 entry and returns its index.
func (p *ConstantPool) AppendUtf8(s string) int {
	p.entries = append(p.entries, ConstantPoolEntry{Kind: ConstUtf8, Utf8: s})
	return len(p.entries) - 1
}

// AppendClass appends a new CONSTANT_Class entry referring to nameIndex.
func (p *ConstantPool) AppendClass(nameIndex int) int {
	p.entries = append(p.entries, ConstantPoolEntry{Kind: ConstClass, NameIndex: nameIndex})
	return len(p.entries) - 1
}

// AppendNameAndType appends a new CONSTANT_NameAndType entry.
func (p *ConstantPool) AppendNameAndType(nameIndex, typeIndex int) int {
	p.entries = append(p.entries, ConstantPoolEntry{Kind: ConstNameAndType, NameIndex: nameIndex, TypeIndex: typeIndex})
	return len(p.entries) - 1
}

// AppendFieldref appends a new CONSTANT_Fieldref entry.
func (p *ConstantPool) AppendFieldref(classIndex, nameAndTypeIndex int) int {
	p.entries = append(p.entries, ConstantPoolEntry{Kind: ConstFieldref, ClassIndex: classIndex, NameAndTypeIndex: nameAndTypeIndex})
	return len(p.entries) - 1
}

// LineNumberEntry maps a bytecode offset to a source line.
type LineNumberEntry struct {
	StartPC int
	Line    int
}

// Method is the upstream-decoded shape the core consumes (spec §6).
type Method struct {
	Name            string
	Descriptor      string
	AccessFlags     uint16
	Code            []RawInstr
	LineNumbers     []LineNumberEntry
	ExceptionTable  []ExceptionTableEntry
	LocalVariables  []*LocalVariable
	ContainsError   bool
}

// LineAt returns the line number in effect at offset, or UnknownLineNumber.
func (m *Method) LineAt(offset int) int {
	line := UnknownLineNumber
	for _, e := range m.LineNumbers {
		if e.StartPC > offset {
			break
		}
		line = e.Line
	}
	return line
}

// ClassFile is the upstream-decoded shape carrying class-wide context the
// core needs: the constant pool and the enum switch-map registry (spec
// §6). Parsing the raw .class bytes into this shape is out of scope here.
type ClassFile struct {
	MajorVersion int
	ConstantPool *ConstantPool
	// SwitchMaps maps a synthetic $SwitchMap$<Enum> field name to its
	// ordinal->caseKey table, as populated by a separately-compiled unit's
	// static initializer (spec §4.7 "Enum-switch detection").
	SwitchMaps map[string]map[int]int
	// InnerClassesMap and class-lookup are downstream/out-of-scope per
	// spec §1; intentionally absent here.
}

// ReferenceMap is the sink external type references are registered into
// (spec §6 outputs). The structural core only writes to it.
type ReferenceMap struct {
	types map[string]bool
}

// NewReferenceMap returns an empty ReferenceMap.
func NewReferenceMap() *ReferenceMap { return &ReferenceMap{types: map[string]bool{}} }

// Add registers typeName as referenced.
func (r *ReferenceMap) Add(typeName string) { r.types[typeName] = true }

// Contains reports whether typeName has been registered.
func (r *ReferenceMap) Contains(typeName string) bool { return r.types[typeName] }
