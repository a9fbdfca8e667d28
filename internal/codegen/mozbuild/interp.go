package mozbuild

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"
)

// Tracer receives one call per executed statement.
type Tracer interface {
	Trace(pos string, stmt string)
}

// Interpreter walks lowered manifests.
type Interpreter struct {
	logger *slog.Logger
	tracer Tracer
}

// NewInterpreter returns an interpreter. tracer may be nil.
func NewInterpreter(logger *slog.Logger, tracer Tracer) *Interpreter {
	return &Interpreter{logger: logger, tracer: tracer}
}

// Exec evaluates m against env, mutating env's accumulator in place.
func (in *Interpreter) Exec(m *Manifest, env *Env) error {
	if m.DeclaresShared {
		env.acc.Shared = true
	}
	in.logger.Debug("Evaluating manifest", "path", m.Path, "target", env.acc.Name, "statements", len(m.Stmts))
	return in.block(m.Stmts, env)
}

func (in *Interpreter) block(stmts []Stmt, env *Env) error {
	for _, s := range stmts {
		if err := in.stmt(s, env); err != nil {
			return err
		}
	}
	return nil
}

func evalErrorf(p Pos, format string, args ...any) error {
	return fmt.Errorf("%w: %s: %s", ErrEvaluation, p, fmt.Sprintf(format, args...))
}

func (in *Interpreter) trace(s Stmt, kind string) {
	if in.tracer != nil {
		in.tracer.Trace(s.Position().String(), kind)
	}
}

func (in *Interpreter) stmt(s Stmt, env *Env) error {
	switch st := s.(type) {
	case *AssignStmt:
		in.trace(s, "assign")
		v, err := in.eval(st.Value, env)
		if err != nil {
			return err
		}
		return in.assign(st.Target, v, env)
	case *AugAssignStmt:
		in.trace(s, "augassign")
		v, err := in.eval(st.Value, env)
		if err != nil {
			return err
		}
		return in.augAssign(st.Target, v, env)
	case *ExtendStmt:
		in.trace(s, "extend")
		v, err := in.eval(st.Arg, env)
		if err != nil {
			return err
		}
		return in.extend(st, v, env)
	case *IfStmt:
		in.trace(s, "if")
		c, err := in.eval(st.Cond, env)
		if err != nil {
			return err
		}
		if Truthy(c) {
			return in.block(st.Then, env)
		}
		return in.block(st.Else, env)
	case *DeclStmt:
		in.trace(s, "decl "+string(st.Kind))
		return nil
	}
	return evalErrorf(s.Position(), "unknown statement %T", s)
}

func (in *Interpreter) assign(t Target, v Value, env *Env) error {
	switch tt := t.(type) {
	case *NameTarget:
		if !env.bound(tt.Name) {
			env.set(tt.Name, v)
			return nil
		}
		cur, _ := env.Lookup(tt.Name)
		switch dst := cur.(type) {
		case *List:
			items, err := iterate(tt.Pos, v)
			if err != nil {
				return err
			}
			env.rebindList(tt.Name, dst, items)
		case *Dict:
			src, ok := v.(*Dict)
			if !ok {
				return evalErrorf(tt.Pos, "cannot assign %s to %s", v.Type(), tt.Name)
			}
			env.rebindDefines(dst, src)
		}
		return nil
	case *IndexTarget:
		cur, ok := env.Lookup(tt.Name)
		if !ok {
			return evalErrorf(tt.Pos, "name %s is not defined", tt.Name)
		}
		key, err := in.eval(tt.Index, env)
		if err != nil {
			return err
		}
		d, ok := cur.(*Dict)
		if !ok {
			return evalErrorf(tt.Pos, "%s does not support item assignment", cur.Type())
		}
		ks, ok := key.(String)
		if !ok {
			return evalErrorf(tt.Pos, "mapping keys must be strings, got %s", key.Type())
		}
		d.Set(string(ks), v)
		return nil
	}
	return evalErrorf(t.Position(), "unknown assignment target %T", t)
}

func (in *Interpreter) augAssign(t Target, v Value, env *Env) error {
	var cur Value
	switch tt := t.(type) {
	case *NameTarget:
		c, ok := env.Lookup(tt.Name)
		if !ok {
			return evalErrorf(tt.Pos, "name %s is not defined", tt.Name)
		}
		cur = c
	case *IndexTarget:
		c, err := in.eval(&IndexExpr{Pos: tt.Pos, X: &NameExpr{Pos: tt.Pos, Name: tt.Name}, Index: tt.Index}, env)
		if err != nil {
			return err
		}
		cur = c
	}
	if l, ok := cur.(*List); ok {
		items, err := iterate(t.Position(), v)
		if err != nil {
			return err
		}
		l.Items = append(l.Items, items...)
		return nil
	}
	sum, err := add(t.Position(), cur, v)
	if err != nil {
		return err
	}
	return in.assign(t, sum, env)
}

func (in *Interpreter) extend(s *ExtendStmt, v Value, env *Env) error {
	cur, ok := env.Lookup(s.Name)
	if !ok {
		return evalErrorf(s.Pos, "name %s is not defined", s.Name)
	}
	switch dst := cur.(type) {
	case *List:
		switch s.Method {
		case MethodAppend:
			dst.Items = append(dst.Items, v)
			return nil
		case MethodExtend:
			items, err := iterate(s.Pos, v)
			if err != nil {
				return err
			}
			dst.Items = append(dst.Items, items...)
			return nil
		}
	case *Dict:
		if s.Method == MethodUpdate {
			src, ok := v.(*Dict)
			if !ok {
				return evalErrorf(s.Pos, "update expects a dict, got %s", v.Type())
			}
			for _, k := range src.Keys() {
				val, _ := src.Get(k)
				dst.Set(k, val)
			}
			return nil
		}
	}
	return evalErrorf(s.Pos, "%s has no method %s", cur.Type(), s.Method)
}

func iterate(p Pos, v Value) ([]Value, error) {
	switch x := v.(type) {
	case *List:
		return append([]Value(nil), x.Items...), nil
	case Tuple:
		return append([]Value(nil), x...), nil
	case *Dict:
		keys := x.Keys()
		out := make([]Value, len(keys))
		for i, k := range keys {
			out[i] = String(k)
		}
		return out, nil
	}
	return nil, evalErrorf(p, "%s is not iterable", v.Type())
}

func add(p Pos, a, b Value) (Value, error) {
	switch x := a.(type) {
	case String:
		if y, ok := b.(String); ok {
			return x + y, nil
		}
	case *List:
		if y, ok := b.(*List); ok {
			return NewList(append(append([]Value(nil), x.Items...), y.Items...)...), nil
		}
	case Tuple:
		if y, ok := b.(Tuple); ok {
			return append(append(Tuple(nil), x...), y...), nil
		}
	}
	return nil, evalErrorf(p, "unsupported operand types for +: %s and %s", a.Type(), b.Type())
}

func (in *Interpreter) eval(e Expr, env *Env) (Value, error) {
	switch x := e.(type) {
	case *Literal:
		return x.Value, nil
	case *NameExpr:
		v, ok := env.Lookup(x.Name)
		if !ok {
			return nil, evalErrorf(x.Pos, "name %s is not defined", x.Name)
		}
		return v, nil
	case *ListExpr:
		items := make([]Value, 0, len(x.Items))
		for _, it := range x.Items {
			v, err := in.eval(it, env)
			if err != nil {
				return nil, err
			}
			items = append(items, v)
		}
		if x.Tuple {
			return Tuple(items), nil
		}
		return &List{Items: items}, nil
	case *DictExpr:
		d := NewDict()
		for _, ent := range x.Entries {
			k, err := in.eval(ent.Key, env)
			if err != nil {
				return nil, err
			}
			ks, ok := k.(String)
			if !ok {
				return nil, evalErrorf(x.Pos, "mapping keys must be strings, got %s", k.Type())
			}
			v, err := in.eval(ent.Value, env)
			if err != nil {
				return nil, err
			}
			d.Set(string(ks), v)
		}
		return d, nil
	case *IndexExpr:
		return in.index(x, env)
	case *NotExpr:
		v, err := in.eval(x.X, env)
		if err != nil {
			return nil, err
		}
		return Bool(!Truthy(v)), nil
	case *CondExpr:
		t, err := in.eval(x.Test, env)
		if err != nil {
			return nil, err
		}
		if Truthy(t) {
			return in.eval(x.Then, env)
		}
		return in.eval(x.Else, env)
	case *BinaryExpr:
		return in.binary(x, env)
	case *FormatExpr:
		return in.format(x, env)
	}
	return nil, evalErrorf(e.Position(), "unknown expression %T", e)
}

func (in *Interpreter) index(x *IndexExpr, env *Env) (Value, error) {
	base, err := in.eval(x.X, env)
	if err != nil {
		return nil, err
	}
	key, err := in.eval(x.Index, env)
	if err != nil {
		return nil, err
	}
	switch b := base.(type) {
	case *Dict:
		ks, ok := key.(String)
		if !ok {
			return nil, evalErrorf(x.Pos, "mapping keys must be strings, got %s", key.Type())
		}
		v, ok := b.Get(string(ks))
		if !ok {
			return nil, evalErrorf(x.Pos, "key %s not found", Repr(ks))
		}
		return v, nil
	case *List:
		return indexSeq(x.Pos, b.Items, key)
	case Tuple:
		return indexSeq(x.Pos, b, key)
	}
	return nil, evalErrorf(x.Pos, "%s is not subscriptable", base.Type())
}

func indexSeq(p Pos, items []Value, key Value) (Value, error) {
	i, ok := key.(Int)
	if !ok {
		return nil, evalErrorf(p, "indices must be integers, got %s", key.Type())
	}
	n := Int(len(items))
	if i < 0 {
		i += n
	}
	if i < 0 || i >= n {
		return nil, evalErrorf(p, "index out of range")
	}
	return items[i], nil
}

func (in *Interpreter) binary(x *BinaryExpr, env *Env) (Value, error) {
	a, err := in.eval(x.X, env)
	if err != nil {
		return nil, err
	}
	switch x.Op {
	case "and":
		if !Truthy(a) {
			return a, nil
		}
		return in.eval(x.Y, env)
	case "or":
		if Truthy(a) {
			return a, nil
		}
		return in.eval(x.Y, env)
	}
	b, err := in.eval(x.Y, env)
	if err != nil {
		return nil, err
	}
	switch x.Op {
	case "+":
		return add(x.Pos, a, b)
	case "==":
		return Bool(Equal(a, b)), nil
	case "!=":
		return Bool(!Equal(a, b)), nil
	case "in", "not in":
		ok, err := contains(x.Pos, b, a)
		if err != nil {
			return nil, err
		}
		if x.Op == "not in" {
			ok = !ok
		}
		return Bool(ok), nil
	}
	return nil, evalErrorf(x.Pos, "operator %s is not supported", x.Op)
}

func contains(p Pos, container, v Value) (bool, error) {
	switch c := container.(type) {
	case String:
		s, ok := v.(String)
		if !ok {
			return false, evalErrorf(p, "'in <string>' requires string as left operand, not %s", v.Type())
		}
		return strings.Contains(string(c), string(s)), nil
	case *List:
		return containsSeq(c.Items, v), nil
	case Tuple:
		return containsSeq(c, v), nil
	case *Dict:
		s, ok := v.(String)
		if !ok {
			return false, nil
		}
		_, found := c.Get(string(s))
		return found, nil
	}
	return false, evalErrorf(p, "argument of type %s is not iterable", container.Type())
}

func containsSeq(items []Value, v Value) bool {
	for _, it := range items {
		if Equal(it, v) {
			return true
		}
	}
	return false
}

func (in *Interpreter) format(x *FormatExpr, env *Env) (Value, error) {
	fv, err := in.eval(x.Format, env)
	if err != nil {
		return nil, err
	}
	f, ok := fv.(String)
	if !ok {
		return nil, evalErrorf(x.Pos, "format string must be str, got %s", fv.Type())
	}
	args := make([]Value, 0, len(x.Args))
	for _, a := range x.Args {
		v, err := in.eval(a, env)
		if err != nil {
			return nil, err
		}
		args = append(args, v)
	}
	if x.Style == FormatPercent && len(args) == 1 {
		if tup, ok := args[0].(Tuple); ok {
			args = tup
		}
	}
	var s string
	if x.Style == FormatBrace {
		s, err = braceFormat(string(f), args)
	} else {
		s, err = percentFormat(string(f), args)
	}
	if err != nil {
		return nil, evalErrorf(x.Pos, "%v", err)
	}
	return String(s), nil
}

// percentFormat implements the %s, %d, %r and %% conversions.
func percentFormat(f string, args []Value) (string, error) {
	var b strings.Builder
	next := 0
	for i := 0; i < len(f); i++ {
		c := f[i]
		if c != '%' {
			b.WriteByte(c)
			continue
		}
		i++
		if i >= len(f) {
			return "", fmt.Errorf("incomplete format")
		}
		verb := f[i]
		if verb == '%' {
			b.WriteByte('%')
			continue
		}
		if next >= len(args) {
			return "", fmt.Errorf("not enough arguments for format string")
		}
		arg := args[next]
		next++
		switch verb {
		case 's':
			b.WriteString(Str(arg))
		case 'r':
			b.WriteString(Repr(arg))
		case 'd':
			n, ok := arg.(Int)
			if !ok {
				return "", fmt.Errorf("%%d format: a number is required, not %s", arg.Type())
			}
			b.WriteString(strconv.FormatInt(int64(n), 10))
		default:
			return "", fmt.Errorf("unsupported format character %q", verb)
		}
	}
	if next != len(args) {
		return "", fmt.Errorf("not all arguments converted during string formatting")
	}
	return b.String(), nil
}

// braceFormat implements "{}" and "{N}" replacement fields.
func braceFormat(f string, args []Value) (string, error) {
	var b strings.Builder
	auto := 0
	for i := 0; i < len(f); i++ {
		c := f[i]
		switch {
		case c == '{' && i+1 < len(f) && f[i+1] == '{':
			b.WriteByte('{')
			i++
		case c == '}' && i+1 < len(f) && f[i+1] == '}':
			b.WriteByte('}')
			i++
		case c == '{':
			end := strings.IndexByte(f[i:], '}')
			if end < 0 {
				return "", fmt.Errorf("single '{' encountered in format string")
			}
			field := f[i+1 : i+end]
			idx := auto
			if field == "" {
				auto++
			} else {
				n, err := strconv.Atoi(field)
				if err != nil {
					return "", fmt.Errorf("unsupported replacement field {%s}", field)
				}
				idx = n
			}
			if idx < 0 || idx >= len(args) {
				return "", fmt.Errorf("replacement index %d out of range", idx)
			}
			b.WriteString(Str(args[idx]))
			i += end
		case c == '}':
			return "", fmt.Errorf("single '}' encountered in format string")
		default:
			b.WriteByte(c)
		}
	}
	return b.String(), nil
}
