package mozbuild

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/bazelbuild/buildtools/build"
)

// ReadFile reads and lowers the manifest at path. The file is read in full
// and closed before parsing starts.
func ReadFile(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrMissingManifest, path)
		}
		return nil, fmt.Errorf("read manifest %s: %w", path, err)
	}
	return Parse(path, data)
}

// Parse lowers manifest source into a statement tree. The buildtools parser
// handles the Python-compatible surface syntax; everything it produces that
// is not part of the dialect is rejected here.
func Parse(path string, src []byte) (*Manifest, error) {
	f, err := build.ParseDefault(path, src)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSyntax, err)
	}
	l := &lowerer{file: path}
	stmts, err := l.stmts(f.Stmt)
	if err != nil {
		return nil, err
	}
	return &Manifest{Path: path, Stmts: stmts, DeclaresShared: l.shared}, nil
}

type lowerer struct {
	file   string
	shared bool
}

func (l *lowerer) pos(x build.Expr) Pos {
	start, _ := x.Span()
	return Pos{File: l.file, Line: start.Line}
}

func (l *lowerer) errorf(x build.Expr, format string, args ...any) error {
	return fmt.Errorf("%w: %s: %s", ErrSyntax, l.pos(x), fmt.Sprintf(format, args...))
}

func (l *lowerer) stmts(in []build.Expr) ([]Stmt, error) {
	var out []Stmt
	for _, x := range in {
		s, err := l.stmt(x)
		if err != nil {
			return nil, err
		}
		if s != nil {
			out = append(out, s)
		}
	}
	return out, nil
}

func (l *lowerer) stmt(x build.Expr) (Stmt, error) {
	switch s := x.(type) {
	case *build.CommentBlock:
		return nil, nil
	case *build.BranchStmt:
		if s.Token == "pass" {
			return nil, nil
		}
		return nil, l.errorf(x, "%q is not supported", s.Token)
	case *build.AssignExpr:
		return l.assign(s)
	case *build.IfStmt:
		cond, err := l.expr(s.Cond)
		if err != nil {
			return nil, err
		}
		then, err := l.stmts(s.True)
		if err != nil {
			return nil, err
		}
		els, err := l.stmts(s.False)
		if err != nil {
			return nil, err
		}
		return &IfStmt{Pos: l.pos(x), Cond: cond, Then: then, Else: els}, nil
	case *build.CallExpr:
		return l.call(s)
	case *build.StringExpr:
		// docstring
		return nil, nil
	}
	return nil, l.errorf(x, "unsupported statement %T", x)
}

func (l *lowerer) assign(s *build.AssignExpr) (Stmt, error) {
	target, err := l.target(s.LHS)
	if err != nil {
		return nil, err
	}
	value, err := l.expr(s.RHS)
	if err != nil {
		return nil, err
	}
	switch s.Op {
	case "=":
		return &AssignStmt{Pos: l.pos(s), Target: target, Value: value}, nil
	case "+=":
		return &AugAssignStmt{Pos: l.pos(s), Target: target, Value: value}, nil
	}
	return nil, l.errorf(s, "assignment operator %q is not supported", s.Op)
}

func (l *lowerer) target(x build.Expr) (Target, error) {
	switch t := x.(type) {
	case *build.Ident:
		return &NameTarget{Pos: l.pos(x), Name: t.Name}, nil
	case *build.IndexExpr:
		name, ok := t.X.(*build.Ident)
		if !ok {
			return nil, l.errorf(x, "only NAME[key] subscripts can be assigned")
		}
		idx, err := l.expr(t.Y)
		if err != nil {
			return nil, err
		}
		return &IndexTarget{Pos: l.pos(x), Name: name.Name, Index: idx}, nil
	}
	return nil, l.errorf(x, "cannot assign to %T", x)
}

func (l *lowerer) call(c *build.CallExpr) (Stmt, error) {
	switch fn := c.X.(type) {
	case *build.Ident:
		kind, ok := declKinds[fn.Name]
		if !ok {
			return nil, l.errorf(c, "unknown function %s", fn.Name)
		}
		if kind.Shared() {
			l.shared = true
		}
		return &DeclStmt{Pos: l.pos(c), Kind: kind}, nil
	case *build.DotExpr:
		recv, ok := fn.X.(*build.Ident)
		if !ok {
			return nil, l.errorf(c, "method calls are only supported on names")
		}
		method := ExtendMethod(fn.Name)
		switch method {
		case MethodAppend, MethodExtend, MethodUpdate:
		default:
			return nil, l.errorf(c, "unsupported method %s.%s", recv.Name, fn.Name)
		}
		if len(c.List) != 1 {
			return nil, l.errorf(c, "%s.%s takes exactly one argument", recv.Name, fn.Name)
		}
		arg, err := l.expr(c.List[0])
		if err != nil {
			return nil, err
		}
		return &ExtendStmt{Pos: l.pos(c), Name: recv.Name, Method: method, Arg: arg}, nil
	}
	return nil, l.errorf(c, "unsupported call")
}

func (l *lowerer) exprs(in []build.Expr) ([]Expr, error) {
	out := make([]Expr, 0, len(in))
	for _, x := range in {
		e, err := l.expr(x)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

func (l *lowerer) expr(x build.Expr) (Expr, error) {
	p := l.pos(x)
	switch e := x.(type) {
	case *build.StringExpr:
		return &Literal{Pos: p, Value: String(e.Value)}, nil
	case *build.LiteralExpr:
		n, err := strconv.ParseInt(e.Token, 0, 64)
		if err != nil {
			return nil, l.errorf(x, "unsupported literal %s", e.Token)
		}
		return &Literal{Pos: p, Value: Int(n)}, nil
	case *build.Ident:
		switch e.Name {
		case "True":
			return &Literal{Pos: p, Value: Bool(true)}, nil
		case "False":
			return &Literal{Pos: p, Value: Bool(false)}, nil
		case "None":
			return &Literal{Pos: p, Value: None}, nil
		}
		return &NameExpr{Pos: p, Name: e.Name}, nil
	case *build.ParenExpr:
		return l.expr(e.X)
	case *build.ListExpr:
		items, err := l.exprs(e.List)
		if err != nil {
			return nil, err
		}
		return &ListExpr{Pos: p, Items: items}, nil
	case *build.TupleExpr:
		items, err := l.exprs(e.List)
		if err != nil {
			return nil, err
		}
		return &ListExpr{Pos: p, Items: items, Tuple: true}, nil
	case *build.DictExpr:
		d := &DictExpr{Pos: p}
		for _, kv := range e.List {
			k, err := l.expr(kv.Key)
			if err != nil {
				return nil, err
			}
			v, err := l.expr(kv.Value)
			if err != nil {
				return nil, err
			}
			d.Entries = append(d.Entries, DictEntry{Key: k, Value: v})
		}
		return d, nil
	case *build.IndexExpr:
		xv, err := l.expr(e.X)
		if err != nil {
			return nil, err
		}
		idx, err := l.expr(e.Y)
		if err != nil {
			return nil, err
		}
		return &IndexExpr{Pos: p, X: xv, Index: idx}, nil
	case *build.UnaryExpr:
		if e.Op != "not" {
			return nil, l.errorf(x, "unary %s is not supported", e.Op)
		}
		xv, err := l.expr(e.X)
		if err != nil {
			return nil, err
		}
		return &NotExpr{Pos: p, X: xv}, nil
	case *build.BinaryExpr:
		return l.binary(e)
	case *build.ConditionalExpr:
		test, err := l.expr(e.Test)
		if err != nil {
			return nil, err
		}
		then, err := l.expr(e.Then)
		if err != nil {
			return nil, err
		}
		els, err := l.expr(e.Else)
		if err != nil {
			return nil, err
		}
		return &CondExpr{Pos: p, Test: test, Then: then, Else: els}, nil
	case *build.CallExpr:
		return l.formatCall(e)
	}
	return nil, l.errorf(x, "unsupported expression %T", x)
}

func (l *lowerer) binary(e *build.BinaryExpr) (Expr, error) {
	xv, err := l.expr(e.X)
	if err != nil {
		return nil, err
	}
	yv, err := l.expr(e.Y)
	if err != nil {
		return nil, err
	}
	p := l.pos(e)
	switch e.Op {
	case "%":
		// The operand is spread at run time, when it is known to be a tuple.
		return &FormatExpr{Pos: p, Style: FormatPercent, Format: xv, Args: []Expr{yv}}, nil
	case "+", "==", "!=", "in", "not in", "and", "or":
		return &BinaryExpr{Pos: p, Op: e.Op, X: xv, Y: yv}, nil
	}
	return nil, l.errorf(e, "operator %s is not supported", e.Op)
}

// formatCall lowers "...".format(args); it is the only call allowed in
// expression position.
func (l *lowerer) formatCall(c *build.CallExpr) (Expr, error) {
	dot, ok := c.X.(*build.DotExpr)
	if !ok || dot.Name != "format" {
		return nil, l.errorf(c, "calls are not supported in expressions")
	}
	format, err := l.expr(dot.X)
	if err != nil {
		return nil, err
	}
	for _, a := range c.List {
		if _, kw := a.(*build.AssignExpr); kw {
			return nil, l.errorf(a, "keyword arguments to format are not supported")
		}
	}
	args, err := l.exprs(c.List)
	if err != nil {
		return nil, err
	}
	return &FormatExpr{Pos: l.pos(c), Style: FormatBrace, Format: format, Args: args}, nil
}
