// Package mozbuild evaluates the restricted moz.build dialect used by the
// ANGLE target manifests.
//
// A manifest is lowered into a small statement tree (see Stmt and Expr) and
// then walked by Interpreter against an explicit Env. Nothing is ever handed to
// a general-purpose evaluator: the closed set of node types below is the
// sandbox.
package mozbuild

import "fmt"

// Pos is a location inside a manifest file.
type Pos struct {
	File string
	Line int
}

func (p Pos) String() string {
	return fmt.Sprintf("%s:%d", p.File, p.Line)
}

// Stmt is one lowered manifest statement.
type Stmt interface {
	Position() Pos
	stmtNode()
}

// Expr is one lowered manifest expression.
type Expr interface {
	Position() Pos
	exprNode()
}

// Target is the left-hand side of an assignment.
type Target interface {
	Position() Pos
	targetNode()
}

// NameTarget assigns to a bare name: SOURCES = [...]
type NameTarget struct {
	Pos  Pos
	Name string
}

// IndexTarget assigns to a subscript: DEFINES["X"] = True
type IndexTarget struct {
	Pos   Pos
	Name  string
	Index Expr
}

func (t *NameTarget) Position() Pos  { return t.Pos }
func (t *IndexTarget) Position() Pos { return t.Pos }
func (*NameTarget) targetNode()      {}
func (*IndexTarget) targetNode()     {}

// AssignStmt is "target = value".
type AssignStmt struct {
	Pos    Pos
	Target Target
	Value  Expr
}

// AugAssignStmt is "target += value". Only "+=" is part of the dialect.
type AugAssignStmt struct {
	Pos    Pos
	Target Target
	Value  Expr
}

// ExtendMethod names the supported in-place collection methods.
type ExtendMethod string

const (
	MethodAppend ExtendMethod = "append"
	MethodExtend ExtendMethod = "extend"
	MethodUpdate ExtendMethod = "update"
)

// ExtendStmt is a list or mapping mutation through a method call, e.g.
// SOURCES.append("a.cpp") or DEFINES.update({...}).
type ExtendStmt struct {
	Pos    Pos
	Name   string
	Method ExtendMethod
	Arg    Expr
}

// IfStmt is a conditional. Elif chains are lowered into nested IfStmt
// values in Else.
type IfStmt struct {
	Pos  Pos
	Cond Expr
	Then []Stmt
	Else []Stmt
}

// DeclKind is one of the recognized, inert declaration callables.
type DeclKind string

const (
	DeclInclude               DeclKind = "include"
	DeclLibrary               DeclKind = "Library"
	DeclSharedLibrary         DeclKind = "SharedLibrary"
	DeclGeckoSharedLibrary    DeclKind = "GeckoSharedLibrary"
	DeclAllowCompilerWarnings DeclKind = "AllowCompilerWarnings"
)

var declKinds = map[string]DeclKind{
	string(DeclInclude):               DeclInclude,
	string(DeclLibrary):               DeclLibrary,
	string(DeclSharedLibrary):         DeclSharedLibrary,
	string(DeclGeckoSharedLibrary):    DeclGeckoSharedLibrary,
	string(DeclAllowCompilerWarnings): DeclAllowCompilerWarnings,
}

// Shared reports whether the declaration marks the target as a dynamically
// linked library.
func (k DeclKind) Shared() bool {
	return k == DeclSharedLibrary || k == DeclGeckoSharedLibrary
}

// DeclStmt is a call to one of the recognized declaration forms. Its
// arguments are never evaluated.
type DeclStmt struct {
	Pos  Pos
	Kind DeclKind
}

func (s *AssignStmt) Position() Pos    { return s.Pos }
func (s *AugAssignStmt) Position() Pos { return s.Pos }
func (s *ExtendStmt) Position() Pos    { return s.Pos }
func (s *IfStmt) Position() Pos        { return s.Pos }
func (s *DeclStmt) Position() Pos      { return s.Pos }
func (*AssignStmt) stmtNode()          {}
func (*AugAssignStmt) stmtNode()       {}
func (*ExtendStmt) stmtNode()          {}
func (*IfStmt) stmtNode()              {}
func (*DeclStmt) stmtNode()            {}

// Literal is a string, integer, boolean or None constant.
type Literal struct {
	Pos   Pos
	Value Value
}

// NameExpr reads a binding from the environment.
type NameExpr struct {
	Pos  Pos
	Name string
}

// ListExpr is a list literal. Tuple literals are lowered to ListExpr with
// Tuple set, since the dialect only uses them as format arguments.
type ListExpr struct {
	Pos   Pos
	Items []Expr
	Tuple bool
}

// DictEntry is one key/value pair of a DictExpr.
type DictEntry struct {
	Key   Expr
	Value Expr
}

// DictExpr is a mapping literal.
type DictExpr struct {
	Pos     Pos
	Entries []DictEntry
}

// IndexExpr is X[Index].
type IndexExpr struct {
	Pos   Pos
	X     Expr
	Index Expr
}

// BinaryExpr covers +, ==, !=, in, not in, and, or.
type BinaryExpr struct {
	Pos Pos
	Op  string
	X   Expr
	Y   Expr
}

// NotExpr is "not X".
type NotExpr struct {
	Pos Pos
	X   Expr
}

// CondExpr is "Then if Test else Else".
type CondExpr struct {
	Pos  Pos
	Test Expr
	Then Expr
	Else Expr
}

// FormatStyle selects the string formatting convention.
type FormatStyle int

const (
	// FormatPercent is "fmt" % args.
	FormatPercent FormatStyle = iota
	// FormatBrace is "fmt".format(args...).
	FormatBrace
)

// FormatExpr is a string formatting operation.
type FormatExpr struct {
	Pos    Pos
	Style  FormatStyle
	Format Expr
	Args   []Expr
}

func (e *Literal) Position() Pos    { return e.Pos }
func (e *NameExpr) Position() Pos   { return e.Pos }
func (e *ListExpr) Position() Pos   { return e.Pos }
func (e *DictExpr) Position() Pos   { return e.Pos }
func (e *IndexExpr) Position() Pos  { return e.Pos }
func (e *BinaryExpr) Position() Pos { return e.Pos }
func (e *NotExpr) Position() Pos    { return e.Pos }
func (e *CondExpr) Position() Pos   { return e.Pos }
func (e *FormatExpr) Position() Pos { return e.Pos }
func (*Literal) exprNode()          {}
func (*NameExpr) exprNode()         {}
func (*ListExpr) exprNode()         {}
func (*DictExpr) exprNode()         {}
func (*IndexExpr) exprNode()        {}
func (*BinaryExpr) exprNode()       {}
func (*NotExpr) exprNode()          {}
func (*CondExpr) exprNode()         {}
func (*FormatExpr) exprNode()       {}

// Manifest is a lowered manifest file.
type Manifest struct {
	Path  string
	Stmts []Stmt
	// DeclaresShared is set when a shared-library declaration appears
	// anywhere in the tree, taken branch or not.
	DeclaresShared bool
}
