package mozbuild

// DefaultConfig is the fixed CONFIG record. Every value is chosen so that
// platform conditionals take the platform-neutral branch.
func DefaultConfig() *Dict {
	c := NewDict()
	c.Set("SSE2_FLAGS", String(""))
	c.Set("OS_ARCH", String("neither"))
	c.Set("INTEL_ARCHITECTURE", String("Yes"))
	return c
}

// Env is the namespace one manifest evaluation runs in. Accumulator fields
// are bound by reference; everything else is private to the evaluation.
//
// Data merged into the accumulator by earlier manifests is recorded when the
// environment is built. A plain assignment to a bound name replaces only what
// this evaluation contributed.
type Env struct {
	vars map[string]Value
	acc  *Accumulator
	dirs *List

	listBase    map[string]int
	definesBase *Dict
}

// NewEnv builds the environment for evaluating a manifest located in srcDir
// into acc.
func NewEnv(acc *Accumulator, srcDir string) *Env {
	e := &Env{
		vars: map[string]Value{},
		acc:  acc,
		dirs: NewList(),

		listBase:    map[string]int{},
		definesBase: acc.Defines.Clone(),
	}
	e.vars[BindSrcDir] = String(srcDir)
	e.vars[BindCXXFlags] = String("")
	e.vars[BindConfig] = DefaultConfig()
	e.vars[BindDirs] = e.dirs
	for k, v := range acc.bindings() {
		e.vars[k] = v
		if l, ok := v.(*List); ok {
			e.listBase[k] = len(l.Items)
		}
	}
	return e
}

// Accumulator returns the accumulator this environment writes to.
func (e *Env) Accumulator() *Accumulator {
	return e.acc
}

// Dirs returns the DIRS entries collected by the evaluation.
func (e *Env) Dirs() []Value {
	return append([]Value(nil), e.dirs.Items...)
}

// Lookup returns the binding for name.
func (e *Env) Lookup(name string) (Value, bool) {
	v, ok := e.vars[name]
	return v, ok
}

// bound reports whether name is one of the by-reference bindings whose
// identity must survive assignment.
func (e *Env) bound(name string) bool {
	switch name {
	case BindSources, BindIncludes, BindDefines, BindUseLibs, BindOSLibs, BindDirs:
		return true
	}
	return false
}

func (e *Env) set(name string, v Value) {
	e.vars[name] = v
}

// rebindList replaces this evaluation's share of the bound list name.
func (e *Env) rebindList(name string, dst *List, items []Value) {
	base := min(e.listBase[name], len(dst.Items))
	dst.Items = append(dst.Items[:base:base], items...)
}

// rebindDefines resets the bound mapping to what earlier manifests left in it
// and then applies src.
func (e *Env) rebindDefines(dst, src *Dict) {
	merged := e.definesBase.Clone()
	for _, k := range src.Keys() {
		v, _ := src.Get(k)
		merged.Set(k, v)
	}
	*dst = *merged
}
