package parser

import "filescript/internal/errs"

// Program is the root of a parsed script.
type Program struct {
	Statements []Stmt
}

// Stmt is a top-level or block-level statement.
type Stmt interface {
	Loc() errs.Location
	stmtNode()
}

// Expr is an evaluatable expression node.
type Expr interface {
	Loc() errs.Location
	exprNode()
}

type Assign struct {
	Name     string
	Value    Expr
	Location errs.Location
}

type ExprStmt struct {
	Value    Expr
	Location errs.Location
}

type ForStmt struct {
	Var      string
	Iterable Expr
	Body     []Stmt
	Location errs.Location
}

// Branch is one `if`/`elif` arm.
type Branch struct {
	Cond Expr
	Body []Stmt
}

type IfStmt struct {
	Branches []Branch
	Else     []Stmt
	Location errs.Location
}

type IntLit struct {
	Value    int
	Location errs.Location
}

type StringLit struct {
	Value    string
	Location errs.Location
}

type BoolLit struct {
	Value    bool
	Location errs.Location
}

type Name struct {
	Ident    string
	Location errs.Location
}

// RangeItem is an inclusive integer range `a:b` inside a list literal. It is
// only legal there; the evaluator rejects it anywhere else.
type RangeItem struct {
	Start    Expr
	End      Expr
	Location errs.Location
}

type ListLit struct {
	Items    []Expr
	Location errs.Location
}

type Attr struct {
	Object   Expr
	Name     string
	Location errs.Location
}

type Kwarg struct {
	Name  string
	Value Expr
}

type Call struct {
	Callee   Expr
	Args     []Expr
	Kwargs   []Kwarg
	Location errs.Location
}

type Unary struct {
	Op       string
	Operand  Expr
	Location errs.Location
}

type Binary struct {
	Op       string
	Left     Expr
	Right    Expr
	Location errs.Location
}

// Compare covers `== != < <= > >=` and membership `in`.
type Compare struct {
	Op       string
	Left     Expr
	Right    Expr
	Location errs.Location
}

func (s *Assign) Loc() errs.Location   { return s.Location }
func (s *ExprStmt) Loc() errs.Location { return s.Location }
func (s *ForStmt) Loc() errs.Location  { return s.Location }
func (s *IfStmt) Loc() errs.Location   { return s.Location }

func (s *Assign) stmtNode()   {}
func (s *ExprStmt) stmtNode() {}
func (s *ForStmt) stmtNode()  {}
func (s *IfStmt) stmtNode()   {}

func (e *IntLit) Loc() errs.Location    { return e.Location }
func (e *StringLit) Loc() errs.Location { return e.Location }
func (e *BoolLit) Loc() errs.Location   { return e.Location }
func (e *Name) Loc() errs.Location      { return e.Location }
func (e *RangeItem) Loc() errs.Location { return e.Location }
func (e *ListLit) Loc() errs.Location   { return e.Location }
func (e *Attr) Loc() errs.Location      { return e.Location }
func (e *Call) Loc() errs.Location      { return e.Location }
func (e *Unary) Loc() errs.Location     { return e.Location }
func (e *Binary) Loc() errs.Location    { return e.Location }
func (e *Compare) Loc() errs.Location   { return e.Location }

func (e *IntLit) exprNode()    {}
func (e *StringLit) exprNode() {}
func (e *BoolLit) exprNode()   {}
func (e *Name) exprNode()      {}
func (e *RangeItem) exprNode() {}
func (e *ListLit) exprNode()   {}
func (e *Attr) exprNode()      {}
func (e *Call) exprNode()      {}
func (e *Unary) exprNode()     {}
func (e *Binary) exprNode()    {}
func (e *Compare) exprNode()   {}
