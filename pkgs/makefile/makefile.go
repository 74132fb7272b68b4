// Package makefile renders a FlagSet into a Makefile for a Fortran project.
//
// The generated Makefile relies on makedepf90 to produce its .depend file and
// on git to fingerprint the working tree; neither is run here.
package makefile

import (
	"errors"
	"fmt"
	"strings"
	"text/template"

	"github.com/goplus/mkconfig/internal/vcs"
	"github.com/goplus/mkconfig/pkgs/flagset"
)

// DebugFlags replaces both the compile and the link flags in debug mode.
const DebugFlags = "-g"

var (
	ErrEmptyProgram = errors.New("makefile: program name is empty")
	ErrEmptySources = errors.New("makefile: source patterns are empty")

	// ErrTemplateSubstitution is matched by every *TemplateSubstitutionError.
	ErrTemplateSubstitution = errors.New("makefile: template substitution failed")
)

// TemplateSubstitutionError reports a placeholder the rendering context
// could not fill.
type TemplateSubstitutionError struct {
	Err error
}

func (e *TemplateSubstitutionError) Error() string {
	return fmt.Sprintf("%v: %v", ErrTemplateSubstitution, e.Err)
}

func (e *TemplateSubstitutionError) Unwrap() []error {
	return []error{ErrTemplateSubstitution, e.Err}
}

var tmpl = template.Must(template.New("Makefile").
	Option("missingkey=error").
	Funcs(template.FuncMap{"escape": EscapeMakeVars}).
	Parse(makefileTemplate))

// Render returns the Makefile building program from the files matching
// sources with the settings of f.
//
// sources is a space separated list of patterns as understood by bash; every
// pattern must match at least one file or makedepf90 fails. Values are
// substituted literally: characters meaningful to make or the shell are not
// escaped.
//
// If debug is set, the compile and link flags of f are replaced by
// DebugFlags, which also drops any optimisation they asked for.
func Render(f flagset.FlagSet, program, sources string, debug bool) (string, error) {
	if strings.TrimSpace(program) == "" {
		return "", ErrEmptyProgram
	}
	if strings.TrimSpace(sources) == "" {
		return "", ErrEmptySources
	}
	if debug {
		f = f.Debug(DebugFlags)
	}
	return execute(Context(f, program, sources))
}

// Context returns the variables Render substitutes into the template.
func Context(f flagset.FlagSet, program, sources string) map[string]string {
	ctx := f.Vars()
	ctx["PROGRAM"] = program
	ctx["SOURCE_CODE"] = sources
	ctx["NO_VCS"] = vcs.NoRevision
	ctx["LINK_LINE"] = EscapeMakeVars(linkCommand)
	return ctx
}

func execute(ctx map[string]string) (string, error) {
	var b strings.Builder
	if err := tmpl.Execute(&b, ctx); err != nil {
		return "", &TemplateSubstitutionError{Err: err}
	}
	return b.String(), nil
}

// EscapeMakeVars protects every variable reference in s from expansion by
// both make ($ becomes $$) and the shell (which then sees \$), so that a
// command can pass through makedepf90 into .depend unexpanded.
//
//	$(FC) -o $@  =>  \$$(FC) -o \$$@
func EscapeMakeVars(s string) string {
	return strings.ReplaceAll(s, "$", `\$$`)
}
