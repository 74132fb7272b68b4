package flagset

import (
	"errors"
	"fmt"
	"sort"
)

// ErrUnknownField is returned when an override names a field FlagSet does not have.
var ErrUnknownField = errors.New("unknown flag field")

// FlagSet is the set of compiler and linker settings of one build configuration.
//
// A FlagSet is a plain value: copying it copies every field, so a FlagSet
// derived with With never shares state with the one it started from.
// Unset fields are empty strings.
type FlagSet struct {
	Compiler            string `yaml:"compiler"`
	CompileFlags        string `yaml:"compile_flags"`
	PreprocessorDefines string `yaml:"preprocessor_defines"`
	PreprocessorFlags   string `yaml:"preprocessor_flags"`
	Linker              string `yaml:"linker"`
	LinkFlags           string `yaml:"link_flags"`
	Libraries           string `yaml:"libraries"`

	// ModuleFlag places and searches compiled .mod files. It must embed the
	// $(DEST) placeholder itself, since some compilers want a space after the
	// flag (gfortran: "-M $(DEST)") and others don't (g95: "-fmod=$(DEST)").
	ModuleFlag string `yaml:"module_flag"`
}

// Option sets one or more fields of a FlagSet under construction.
type Option func(*FlagSet)

// New returns a FlagSet with the given options applied to the empty set.
func New(opts ...Option) FlagSet {
	return FlagSet{}.With(opts...)
}

// With returns a copy of f with opts applied. f itself is left untouched.
func (f FlagSet) With(opts ...Option) FlagSet {
	for _, opt := range opts {
		opt(&f)
	}
	return f
}

// Debug returns a copy of f whose compile and link flags are replaced by flags.
// Optimisation flags of f are dropped along with everything else.
func (f FlagSet) Debug(flags string) FlagSet {
	return f.With(CompileFlags(flags), LinkFlags(flags))
}

func Compiler(v string) Option {
	return func(f *FlagSet) { f.Compiler = v }
}

func CompileFlags(v string) Option {
	return func(f *FlagSet) { f.CompileFlags = v }
}

func PreprocessorDefines(v string) Option {
	return func(f *FlagSet) { f.PreprocessorDefines = v }
}

func PreprocessorFlags(v string) Option {
	return func(f *FlagSet) { f.PreprocessorFlags = v }
}

func Linker(v string) Option {
	return func(f *FlagSet) { f.Linker = v }
}

func LinkFlags(v string) Option {
	return func(f *FlagSet) { f.LinkFlags = v }
}

func Libraries(v string) Option {
	return func(f *FlagSet) { f.Libraries = v }
}

func ModuleFlag(v string) Option {
	return func(f *FlagSet) { f.ModuleFlag = v }
}

// Set returns an Option assigning value to field.
// An unknown field yields an Option that does nothing.
func Set(field Field, value string) Option {
	return func(f *FlagSet) {
		if p := f.ptr(field); p != nil {
			*p = value
		}
	}
}

// Overrides converts a field-name keyed map into options.
// Keys are the field names used in YAML (e.g. "compile_flags").
func Overrides(m map[string]string) ([]Option, error) {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	opts := make([]Option, 0, len(keys))
	for _, k := range keys {
		field, err := ParseField(k)
		if err != nil {
			return nil, err
		}
		opts = append(opts, Set(field, m[k]))
	}
	return opts, nil
}

// Get returns the value of field.
func (f FlagSet) Get(field Field) (string, bool) {
	p := f.ptr(field)
	if p == nil {
		return "", false
	}
	return *p, true
}

// Vars returns f keyed by Makefile variable name (FC, FFLAGS, ...).
// The result always has one entry per field.
func (f FlagSet) Vars() map[string]string {
	vars := make(map[string]string, len(fields))
	for _, field := range fields {
		v, _ := f.Get(field)
		vars[field.MakeVar()] = v
	}
	return vars
}

func (f *FlagSet) ptr(field Field) *string {
	switch field {
	case FieldCompiler:
		return &f.Compiler
	case FieldCompileFlags:
		return &f.CompileFlags
	case FieldPreprocessorDefines:
		return &f.PreprocessorDefines
	case FieldPreprocessorFlags:
		return &f.PreprocessorFlags
	case FieldLinker:
		return &f.Linker
	case FieldLinkFlags:
		return &f.LinkFlags
	case FieldLibraries:
		return &f.Libraries
	case FieldModuleFlag:
		return &f.ModuleFlag
	}
	return nil
}

// -----------------------------------------------------------------------------

// Field names one FlagSet field.
type Field string

const (
	FieldCompiler            Field = "compiler"
	FieldCompileFlags        Field = "compile_flags"
	FieldPreprocessorDefines Field = "preprocessor_defines"
	FieldPreprocessorFlags   Field = "preprocessor_flags"
	FieldLinker              Field = "linker"
	FieldLinkFlags           Field = "link_flags"
	FieldLibraries           Field = "libraries"
	FieldModuleFlag          Field = "module_flag"
)

var fields = []Field{
	FieldCompiler,
	FieldCompileFlags,
	FieldPreprocessorDefines,
	FieldPreprocessorFlags,
	FieldLinker,
	FieldLinkFlags,
	FieldLibraries,
	FieldModuleFlag,
}

var makeVars = map[Field]string{
	FieldCompiler:            "FC",
	FieldCompileFlags:        "FFLAGS",
	FieldPreprocessorDefines: "CPPDEFS",
	FieldPreprocessorFlags:   "CPPFLAGS",
	FieldLinker:              "LD",
	FieldLinkFlags:           "LDFLAGS",
	FieldLibraries:           "LIBS",
	FieldModuleFlag:          "MODULE_FLAG",
}

// Fields returns every field in declaration order.
func Fields() []Field {
	return append([]Field(nil), fields...)
}

// ParseField returns the Field called name.
func ParseField(name string) (Field, error) {
	f := Field(name)
	if _, ok := makeVars[f]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownField, name)
	}
	return f, nil
}

// MakeVar returns the Makefile variable the field is rendered into.
func (f Field) MakeVar() string {
	return makeVars[f]
}
