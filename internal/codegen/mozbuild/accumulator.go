package mozbuild

// Binding names through which manifests reach the accumulator.
const (
	BindSources   = "SOURCES"
	BindIncludes  = "LOCAL_INCLUDES"
	BindDefines   = "DEFINES"
	BindUseLibs   = "USE_LIBS"
	BindOSLibs    = "OS_LIBS"
	BindDirs      = "DIRS"
	BindSrcDir    = "SRCDIR"
	BindCXXFlags  = "CXXFLAGS"
	BindConfig    = "CONFIG"
	ManifestName  = "moz.build"
	PreludeSuffix = ".common"
)

// Accumulator is the in-progress build data of one target. It is created
// once per target and threaded by pointer through every manifest merged into
// that target.
type Accumulator struct {
	Name     string
	Sources  *List
	Includes *List
	Defines  *Dict
	UseLibs  *List
	OSLibs   *List
	Shared   bool
}

// NewAccumulator returns an empty accumulator for the named target.
func NewAccumulator(name string) *Accumulator {
	return &Accumulator{
		Name:     name,
		Sources:  NewList(),
		Includes: NewList(),
		Defines:  NewDict(),
		UseLibs:  NewList(),
		OSLibs:   NewList(),
	}
}

func (a *Accumulator) bindings() map[string]Value {
	return map[string]Value{
		BindSources:  a.Sources,
		BindIncludes: a.Includes,
		BindDefines:  a.Defines,
		BindUseLibs:  a.UseLibs,
		BindOSLibs:   a.OSLibs,
	}
}
