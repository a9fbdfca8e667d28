package mozbuild

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingTracer struct {
	lines []string
}

func (r *recordingTracer) Trace(pos string, stmt string) {
	r.lines = append(r.lines, pos+" "+stmt)
}

func eval(t *testing.T, src string, tracer Tracer) (*Accumulator, *Env, error) {
	t.Helper()
	m, err := Parse("moz.build", []byte(src))
	require.NoError(t, err)
	acc := NewAccumulator("test")
	env := NewEnv(acc, "gfx/angle/targets/test")
	err = NewInterpreter(slog.New(slog.NewTextHandler(io.Discard, nil)), tracer).Exec(m, env)
	return acc, env, err
}

func strs(l *List) []string {
	out := make([]string, 0, len(l.Items))
	for _, it := range l.Items {
		out = append(out, Str(it))
	}
	return out
}

func defineList(d *Dict) []string {
	var out []string
	for _, k := range d.Keys() {
		v, _ := d.Get(k)
		out = append(out, k+"="+Repr(v))
	}
	return out
}

func TestListBindings(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want []string
	}{
		{
			name: "augmented assignment extends",
			src:  "SOURCES += [\"a.cpp\"]\nSOURCES += [\"b.cpp\", \"a.cpp\"]\n",
			want: []string{"a.cpp", "b.cpp", "a.cpp"},
		},
		{
			name: "append and extend",
			src:  "SOURCES.append(\"a.cpp\")\nSOURCES.extend([\"b.cpp\", \"c.cpp\"])\n",
			want: []string{"a.cpp", "b.cpp", "c.cpp"},
		},
		{
			name: "plain assignment replaces contents",
			src:  "SOURCES += [\"old.cpp\"]\nSOURCES = [\"new.cpp\"]\nSOURCES += [\"more.cpp\"]\n",
			want: []string{"new.cpp", "more.cpp"},
		},
		{
			name: "list concatenation",
			src:  "common = [\"a.cpp\"]\nSOURCES += common + [\"b.cpp\"]\n",
			want: []string{"a.cpp", "b.cpp"},
		},
		{
			name: "percent format with SRCDIR",
			src:  "SOURCES += [\"%s/x.cpp\" % SRCDIR]\n",
			want: []string{"gfx/angle/targets/test/x.cpp"},
		},
		{
			name: "percent format with tuple",
			src:  "SOURCES += [\"%s-%d-%r%%\" % (\"lib\", 2, \"q\")]\n",
			want: []string{"lib-2-'q'%"},
		},
		{
			name: "percent format with a bound tuple",
			src:  "pair = (\"lib\", \"x\")\nSOURCES += [\"%s-%s.cpp\" % pair]\n",
			want: []string{"lib-x.cpp"},
		},
		{
			name: "percent format with a nested tuple",
			src:  "SOURCES += [\"%s\" % ((\"a\", \"b\"),)]\n",
			want: []string{"('a', 'b')"},
		},
		{
			name: "brace format",
			src:  "SOURCES += [\"{}/{}.cpp\".format(\"dir\", \"f\"), \"{1}{0}\".format(\"a\", \"b\")]\n",
			want: []string{"dir/f.cpp", "ba"},
		},
		{
			name: "conditional expression",
			src:  "SOURCES += [\"x.cpp\" if CONFIG[\"OS_ARCH\"] == \"WINNT\" else \"y.cpp\"]\n",
			want: []string{"y.cpp"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			acc, _, err := eval(t, tt.src, nil)
			require.NoError(t, err)
			assert.Equal(t, tt.want, strs(acc.Sources))
		})
	}
}

func TestAssignmentKeepsAccumulatorIdentity(t *testing.T) {
	acc := NewAccumulator("test")
	sources, defines := acc.Sources, acc.Defines

	m, err := Parse("moz.build", []byte("SOURCES = [\"a.cpp\"]\nDEFINES = {\"A\": True}\n"))
	require.NoError(t, err)
	require.NoError(t, NewInterpreter(slog.New(slog.NewTextHandler(io.Discard, nil)), nil).Exec(m, NewEnv(acc, "")))

	assert.Same(t, sources, acc.Sources)
	assert.Same(t, defines, acc.Defines)
	assert.Equal(t, []string{"a.cpp"}, strs(acc.Sources))
	assert.Equal(t, []string{"A=True"}, defineList(acc.Defines))
}

func TestAssignmentKeepsEarlierManifests(t *testing.T) {
	acc := NewAccumulator("test")
	acc.Sources.Items = []Value{String("prelude.cpp")}
	acc.Defines.Set("PRELUDE", Bool(true))

	src := "DEFINES[\"LOCAL\"] = \"1\"\nSOURCES += [\"old.cpp\"]\nSOURCES = [\"b.cpp\", \"a.cpp\"]\nDEFINES = {\"A\": True}\n"
	m, err := Parse("moz.build", []byte(src))
	require.NoError(t, err)
	require.NoError(t, NewInterpreter(slog.New(slog.NewTextHandler(io.Discard, nil)), nil).Exec(m, NewEnv(acc, "")))

	assert.Equal(t, []string{"prelude.cpp", "b.cpp", "a.cpp"}, strs(acc.Sources))
	assert.Equal(t, []string{"PRELUDE=True", "A=True"}, defineList(acc.Defines))
}

func TestDefines(t *testing.T) {
	src := `DEFINES["B"] = True
DEFINES["A"] = "1"
DEFINES.update({"C": 3, "B": False})
DEFINES["D"] = None
`
	acc, _, err := eval(t, src, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"B=False", "A='1'", "C=3", "D=None"}, defineList(acc.Defines))
}

func TestConditionals(t *testing.T) {
	src := `if CONFIG["OS_ARCH"] == "WINNT":
    OS_LIBS += ["d3d9"]
elif CONFIG["OS_ARCH"] in ("Darwin", "Linux"):
    OS_LIBS += ["dl"]
else:
    OS_LIBS += ["neutral"]

if CONFIG["INTEL_ARCHITECTURE"] and not CONFIG["SSE2_FLAGS"]:
    SOURCES += ["intel.cpp"]

if "neutral" not in OS_LIBS or True:
    USE_LIBS += ["libANGLE"]
`
	acc, _, err := eval(t, src, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"neutral"}, strs(acc.OSLibs))
	assert.Equal(t, []string{"intel.cpp"}, strs(acc.Sources))
	assert.Equal(t, []string{"libANGLE"}, strs(acc.UseLibs))
}

func TestDirsAreCollectedPerEvaluation(t *testing.T) {
	_, env, err := eval(t, "DIRS += [\"../a\"]\nDIRS.append(\"../b\")\n", nil)
	require.NoError(t, err)
	got := make([]string, 0)
	for _, d := range env.Dirs() {
		got = append(got, Str(d))
	}
	assert.Equal(t, []string{"../a", "../b"}, got)
}

func TestScalarsArePrivate(t *testing.T) {
	_, env, err := eval(t, "CXXFLAGS += CONFIG[\"SSE2_FLAGS\"] + \"-O2\"\n", nil)
	require.NoError(t, err)
	v, ok := env.Lookup(BindCXXFlags)
	require.True(t, ok)
	assert.Equal(t, String("-O2"), v)

	// CONFIG is copied per environment.
	acc := NewAccumulator("test")
	interp := NewInterpreter(slog.New(slog.NewTextHandler(io.Discard, nil)), nil)
	first, err := Parse("a/moz.build", []byte("CONFIG[\"OS_ARCH\"] = \"WINNT\"\n"))
	require.NoError(t, err)
	second, err := Parse("b/moz.build", []byte("OS_LIBS += [CONFIG[\"OS_ARCH\"]]\n"))
	require.NoError(t, err)
	require.NoError(t, interp.Exec(first, NewEnv(acc, "a")))
	require.NoError(t, interp.Exec(second, NewEnv(acc, "b")))
	assert.Equal(t, []string{"neither"}, strs(acc.OSLibs))
}

func TestSharedDetection(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want bool
	}{
		{name: "gecko shared library", src: "GeckoSharedLibrary(\"libEGL\", linkage=None)\n", want: true},
		{name: "shared library", src: "SharedLibrary(\"x\")\n", want: true},
		{name: "untaken branch still counts", src: "if False:\n    SharedLibrary(\"x\")\n", want: true},
		{name: "static library", src: "Library(\"x\")\n", want: false},
		{name: "comment does not count", src: "# SharedLibrary(\"x\")\nLibrary(\"x\")\n", want: false},
		{name: "string does not count", src: "SOURCES += [\"SharedLibrary.cpp\"]\n", want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			acc, _, err := eval(t, tt.src, nil)
			require.NoError(t, err)
			assert.Equal(t, tt.want, acc.Shared)
		})
	}
}

func TestEvaluationErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		msg  string
	}{
		{name: "unknown name", src: "SOURCES += UNKNOWN\n", msg: "moz.build:1: name UNKNOWN is not defined"},
		{name: "unknown config key", src: "if CONFIG[\"MOZ_WIDGET_TOOLKIT\"]:\n    pass\n", msg: "key 'MOZ_WIDGET_TOOLKIT' not found"},
		{name: "type mismatch", src: "SOURCES += \"a\" + 1\n", msg: "unsupported operand types for +: str and int"},
		{name: "not iterable", src: "SOURCES += 1\n", msg: "int is not iterable"},
		{name: "update needs dict", src: "DEFINES.update([\"A\"])\n", msg: "update expects a dict"},
		{name: "wrong method", src: "DEFINES.append(\"A\")\n", msg: "dict has no method append"},
		{name: "format arity", src: "SOURCES += [\"%s %s\" % \"a\"]\n", msg: "not enough arguments"},
		{name: "brace index", src: "SOURCES += [\"{2}\".format(\"a\")]\n", msg: "replacement index 2 out of range"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := eval(t, tt.src, nil)
			require.ErrorIs(t, err, ErrEvaluation)
			assert.Contains(t, err.Error(), tt.msg)
		})
	}
}

func TestTracer(t *testing.T) {
	tr := &recordingTracer{}
	_, _, err := eval(t, "SOURCES += [\"a.cpp\"]\nif True:\n    Library(\"x\")\nDEFINES[\"A\"] = True\n", tr)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"moz.build:1 augassign",
		"moz.build:2 if",
		"moz.build:3 decl Library",
		"moz.build:4 assign",
	}, tr.lines)
}
