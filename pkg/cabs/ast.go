// Package cabs defines the abstract syntax tree of the C subset. Every
// syntactic category is a closed set of node types tied together by an
// unexported marker method.
package cabs

import (
	"github.com/raymyers/stepc/pkg/ctypes"
	"github.com/raymyers/stepc/pkg/memory"
)

// Node is the base interface for all AST nodes
type Node interface {
	implCabsNode()
	Pos() int
}

// Expr is the interface for all expression nodes. The type checker records
// the resolved type of every expression and, for compile-time constants,
// its value.
type Expr interface {
	Node
	implCabsExpr()
	Type() ctypes.Type
	SetType(ctypes.Type)
	Value() memory.Value
	SetValue(memory.Value)
}

// Stmt is the interface for all statement nodes
type Stmt interface {
	Node
	implCabsStmt()
}

// Definition is the interface for top-level definitions
type Definition interface {
	Node
	implDefinition()
}

// BinaryOp represents binary operators
type BinaryOp int

const (
	OpAdd BinaryOp = iota
	OpSub
	OpMul
	OpDiv
	OpMod
	OpLt
	OpLe
	OpGt
	OpGe
	OpEq
	OpNe
	OpAnd // &&
	OpOr  // ||
	OpBitAnd
	OpBitOr
	OpBitXor
	OpShl // <<
	OpShr // >>
	OpAssign
)

func (op BinaryOp) String() string {
	names := []string{"+", "-", "*", "/", "%", "<", "<=", ">", ">=", "==", "!=", "&&", "||", "&", "|", "^", "<<", ">>", "="}
	if int(op) < len(names) {
		return names[op]
	}
	return "?"
}

// Arith maps an operator to the memory model's arithmetic operator
func (op BinaryOp) Arith() memory.Op {
	switch op {
	case OpAdd:
		return memory.Add
	case OpSub:
		return memory.Sub
	case OpMul:
		return memory.Mul
	case OpDiv:
		return memory.Div
	case OpMod:
		return memory.Mod
	case OpLt:
		return memory.Lt
	case OpLe:
		return memory.Le
	case OpGt:
		return memory.Gt
	case OpGe:
		return memory.Ge
	case OpEq:
		return memory.Eq
	case OpNe:
		return memory.Ne
	case OpBitAnd:
		return memory.BitAnd
	case OpBitOr:
		return memory.BitOr
	case OpBitXor:
		return memory.BitXor
	case OpShl:
		return memory.Shl
	case OpShr:
		return memory.Shr
	}
	panic("no arithmetic operator for " + op.String())
}

// IsComparison reports whether op is relational or equality
func (op BinaryOp) IsComparison() bool {
	return op >= OpLt && op <= OpNe
}

// IsShift reports whether op is << or >>
func (op BinaryOp) IsShift() bool {
	return op == OpShl || op == OpShr
}

// IsBitwise reports whether op requires integral operands
func (op BinaryOp) IsBitwise() bool {
	return op == OpMod || op >= OpBitAnd && op <= OpShr
}

// UnaryOp represents unary operators
type UnaryOp int

const (
	OpNeg    UnaryOp = iota // -
	OpNot                   // !
	OpBitNot                // ~
	OpPlus                  // +
	OpDeref                 // *
	OpAddrOf                // &
)

func (op UnaryOp) String() string {
	names := []string{"-", "!", "~", "+", "*", "&"}
	if int(op) < len(names) {
		return names[op]
	}
	return "?"
}

// exprBase carries the position and the checker's annotations
type exprBase struct {
	At  int
	typ ctypes.Type
	val memory.Value
}

func (e *exprBase) Pos() int                { return e.At }
func (e *exprBase) Type() ctypes.Type       { return e.typ }
func (e *exprBase) SetType(t ctypes.Type)   { e.typ = t }
func (e *exprBase) Value() memory.Value     { return e.val }
func (e *exprBase) SetValue(v memory.Value) { e.val = v }
func (e *exprBase) implCabsNode()           {}
func (e *exprBase) implCabsExpr()           {}

// IntConstant represents an integer constant as spelled in the source
type IntConstant struct {
	exprBase
	Raw      uint64
	Unsigned bool
	Long     bool
	Decimal  bool
	Text     string
}

// FloatConstant represents a float or double constant
type FloatConstant struct {
	exprBase
	Raw     float64
	IsFloat bool // f suffix
	Text    string
}

// CharConstant represents a character constant; it has type int
type CharConstant struct {
	exprBase
	Raw  byte
	Text string
}

// StringLiteral represents a (possibly concatenated) string literal.
// Offset is its position in the string-literal segment.
type StringLiteral struct {
	exprBase
	Raw    string
	Offset int
}

// RefKind tells what an identifier was resolved to
type RefKind int

const (
	RefUnresolved RefKind = iota
	RefVariable
	RefFunction
	RefBuiltin
	RefEnumConstant
)

// Identifier represents a name used as an expression. Offset follows the
// declarator convention: negative for static storage, otherwise relative to
// the current frame.
type Identifier struct {
	exprBase
	Name   string
	Ref    RefKind
	Offset int
}

// Unary represents a unary expression
type Unary struct {
	exprBase
	Op      UnaryOp
	Operand Expr
}

// IncDec represents ++ and -- in prefix or postfix position
type IncDec struct {
	exprBase
	Decrement bool
	Postfix   bool
	Operand   Expr
}

// Binary represents a binary expression. OpType is the type the operation is
// carried out in after the usual arithmetic conversions; it is nil for
// pointer arithmetic and for && and ||.
type Binary struct {
	exprBase
	Op     BinaryOp
	Left   Expr
	Right  Expr
	OpType ctypes.Type
}

// Assign represents = and the compound assignments. For a compound
// assignment Op is the arithmetic operator and OpType the operation type.
type Assign struct {
	exprBase
	Op     BinaryOp
	Target Expr
	Source Expr
	OpType ctypes.Type
}

// Conditional represents the ternary operator: cond ? then : else
type Conditional struct {
	exprBase
	Cond Expr
	Then Expr
	Else Expr
}

// Comma represents the comma operator
type Comma struct {
	exprBase
	Left  Expr
	Right Expr
}

// Call represents a function call. AllocElem is the element type a call of
// malloc, calloc or realloc allocates, inferred from the conversion target.
type Call struct {
	exprBase
	Func      Expr
	Args      []Expr
	AllocElem ctypes.Type
}

// Index represents array subscript access: arr[idx]
type Index struct {
	exprBase
	Array Expr
	Index Expr
}

// Member represents s.name and p->name
type Member struct {
	exprBase
	Base     Expr
	Name     string
	NamePos  int
	Arrow    bool
	Resolved ctypes.Member
}

// Cast represents (type) expr
type Cast struct {
	exprBase
	To      *TypeName
	Operand Expr
}

// SizeofExpr represents sizeof expr
type SizeofExpr struct {
	exprBase
	Operand Expr
}

// SizeofType represents sizeof(type)
type SizeofType struct {
	exprBase
	Of *TypeName
}

// StorageClass is the storage-class specifier of a declaration
type StorageClass int

const (
	StorageNone StorageClass = iota
	StorageTypedef
	StorageStatic
	StorageExtern
	StorageAuto
	StorageRegister
)

func (s StorageClass) String() string {
	names := []string{"", "typedef", "static", "extern", "auto", "register"}
	if int(s) < len(names) {
		return names[s]
	}
	return "?"
}

// DeclSpecs is a declaration-specifier list. Exactly one of Primitive,
// TypedefName, Struct or Enum describes the type.
type DeclSpecs struct {
	At          int
	Storage     StorageClass
	Const       bool
	Primitive   []string // primitive keywords in source order
	TypedefName string
	Struct      *StructSpec
	Enum        *EnumSpec
	Resolved    ctypes.Type
}

// StructSpec is struct tag { members } or a reference to struct tag
type StructSpec struct {
	At      int
	Name    string
	Members []*Declaration // nil unless Defines
	Defines bool
}

// EnumSpec is enum tag { enumerators } or a reference to enum tag
type EnumSpec struct {
	At          int
	Name        string
	Enumerators []*Enumerator
	Defines     bool
}

// Enumerator is one enumeration constant
type Enumerator struct {
	At       int
	Name     string
	Value    Expr // nil for an implicit value
	Resolved int64
}

// DeclPart is one step of a declarator's type chain
type DeclPart interface {
	implDeclPart()
}

// PointerPart applies "pointer to"
type PointerPart struct {
	Const bool
}

// ArrayPart applies "array of Length"; Length is nil for []
type ArrayPart struct {
	At     int
	Length Expr
}

// FunctionPart applies "function taking Params returning"
type FunctionPart struct {
	At       int
	Params   []*ParamDecl
	Variadic bool
}

func (PointerPart) implDeclPart()  {}
func (ArrayPart) implDeclPart()    {}
func (FunctionPart) implDeclPart() {}

// NamedDeclarator is a declarator with its optional name and initializer.
// Parts are listed in the order they apply to the base type, so
// int *a[3] has Parts [pointer, array 3]. Type and Offset are filled by the
// type checker.
type NamedDeclarator struct {
	At     int
	Name   string
	Parts  []DeclPart
	Init   Initializer
	Type   ctypes.Type
	Offset int
}

// IsStatic reports whether the declarator lives in static storage
func (d *NamedDeclarator) IsStatic() bool {
	return d.Offset < 0
}

// ParamDecl is one parameter of a function declarator
type ParamDecl struct {
	Specs *DeclSpecs
	Decl  *NamedDeclarator
}

// TypeName is a type written in a cast or sizeof
type TypeName struct {
	At       int
	Specs    *DeclSpecs
	Decl     *NamedDeclarator
	Resolved ctypes.Type
}

// Initializer is either an expression or a braced list
type Initializer interface {
	Node
	implInitializer()
}

// ExprInit initializes from a single expression
type ExprInit struct {
	X Expr
}

// ListInit initializes from a braced list
type ListInit struct {
	At    int
	Items []Initializer
}

func (i *ExprInit) Pos() int       { return i.X.Pos() }
func (i *ListInit) Pos() int       { return i.At }
func (*ExprInit) implCabsNode()    {}
func (*ListInit) implCabsNode()    {}
func (*ExprInit) implInitializer() {}
func (*ListInit) implInitializer() {}

// Declaration is a declaration statement or file-scope declaration
type Declaration struct {
	At          int
	Specs       *DeclSpecs
	Declarators []*NamedDeclarator
}

// Block represents a compound statement (block)
type Block struct {
	At    int
	End   int // position of the closing brace
	Items []Stmt
}

// DeclStmt wraps a declaration in statement position
type DeclStmt struct {
	Decl *Declaration
}

// ExprStmt is an expression evaluated for its side effects
type ExprStmt struct {
	X Expr
}

// Empty is the null statement ;
type Empty struct {
	At int
}

// If represents if/else
type If struct {
	At   int
	Cond Expr
	Then Stmt
	Else Stmt // nil without else
}

// Switch represents switch (control) body
type Switch struct {
	At      int
	Control Expr
	Body    Stmt
}

// Case represents case value: body. Resolved is the value converted to the
// promoted type of the governing switch.
type Case struct {
	At       int
	Value    Expr
	Body     Stmt
	Resolved int64
}

// Default represents default: body
type Default struct {
	At   int
	Body Stmt
}

// While represents while (cond) body
type While struct {
	At   int
	Cond Expr
	Body Stmt
}

// DoWhile represents do body while (cond);
type DoWhile struct {
	At   int
	Body Stmt
	Cond Expr
}

// For represents for (init; cond; update) body; each part may be nil
type For struct {
	At     int
	Init   Stmt // *DeclStmt or *ExprStmt
	Cond   Expr
	Update Expr
	Body   Stmt
}

// Continue represents continue;
type Continue struct {
	At int
}

// Break represents break;
type Break struct {
	At int
}

// Return represents a return statement
type Return struct {
	At     int
	Result Expr // nil for bare return
}

// Goto represents goto label;
type Goto struct {
	At    int
	Label string
}

// Labeled represents label: body
type Labeled struct {
	At    int
	Label string
	Body  Stmt
}

// Assert represents assert(cond);
type Assert struct {
	At   int
	Cond Expr
}

// FunctionDefinition represents a function with a body. FrameType is the
// synthesized struct of every parameter and local, computed by the type
// checker; Params are the parameter declarators in order.
type FunctionDefinition struct {
	Specs     *DeclSpecs
	Decl      *NamedDeclarator
	Body      *Block
	Params    []*NamedDeclarator
	FrameType *ctypes.Tstruct
}

// Name returns the function's name
func (f *FunctionDefinition) Name() string {
	return f.Decl.Name
}

// Signature returns the resolved function type
func (f *FunctionDefinition) Signature() ctypes.Tfunction {
	fn, _ := f.Decl.Type.(ctypes.Tfunction)
	return fn
}

// Program is a whole translation unit
type Program struct {
	Definitions []Definition
}

// Positions
func (d *Declaration) Pos() int        { return d.At }
func (b *Block) Pos() int              { return b.At }
func (s *DeclStmt) Pos() int           { return s.Decl.At }
func (s *ExprStmt) Pos() int           { return s.X.Pos() }
func (s *Empty) Pos() int              { return s.At }
func (s *If) Pos() int                 { return s.At }
func (s *Switch) Pos() int             { return s.At }
func (s *Case) Pos() int               { return s.At }
func (s *Default) Pos() int            { return s.At }
func (s *While) Pos() int              { return s.At }
func (s *DoWhile) Pos() int            { return s.At }
func (s *For) Pos() int                { return s.At }
func (s *Continue) Pos() int           { return s.At }
func (s *Break) Pos() int              { return s.At }
func (s *Return) Pos() int             { return s.At }
func (s *Goto) Pos() int               { return s.At }
func (s *Labeled) Pos() int            { return s.At }
func (s *Assert) Pos() int             { return s.At }
func (f *FunctionDefinition) Pos() int { return f.Decl.At }

// Marker methods for interface implementation
func (*Declaration) implCabsNode()   {}
func (*Declaration) implDefinition() {}

func (*FunctionDefinition) implCabsNode()   {}
func (*FunctionDefinition) implDefinition() {}

func (*Block) implCabsNode()    {}
func (*DeclStmt) implCabsNode() {}
func (*ExprStmt) implCabsNode() {}
func (*Empty) implCabsNode()    {}
func (*If) implCabsNode()       {}
func (*Switch) implCabsNode()   {}
func (*Case) implCabsNode()     {}
func (*Default) implCabsNode()  {}
func (*While) implCabsNode()    {}
func (*DoWhile) implCabsNode()  {}
func (*For) implCabsNode()      {}
func (*Continue) implCabsNode() {}
func (*Break) implCabsNode()    {}
func (*Return) implCabsNode()   {}
func (*Goto) implCabsNode()     {}
func (*Labeled) implCabsNode()  {}
func (*Assert) implCabsNode()   {}

func (*Block) implCabsStmt()    {}
func (*DeclStmt) implCabsStmt() {}
func (*ExprStmt) implCabsStmt() {}
func (*Empty) implCabsStmt()    {}
func (*If) implCabsStmt()       {}
func (*Switch) implCabsStmt()   {}
func (*Case) implCabsStmt()     {}
func (*Default) implCabsStmt()  {}
func (*While) implCabsStmt()    {}
func (*DoWhile) implCabsStmt()  {}
func (*For) implCabsStmt()      {}
func (*Continue) implCabsStmt() {}
func (*Break) implCabsStmt()    {}
func (*Return) implCabsStmt()   {}
func (*Goto) implCabsStmt()     {}
func (*Labeled) implCabsStmt()  {}
func (*Assert) implCabsStmt()   {}
