// Package diag defines the single diagnostic kind shared by every stage of
// the pipeline, from lexing to run-time faults, plus the internal-failure
// category for front-end/interpreter disagreements.
package diag

import (
	"fmt"
	"strings"
)

// Severity represents the severity level of a diagnostic
type Severity int

const (
	Error Severity = iota
	Warning
)

func (s Severity) String() string {
	if s == Warning {
		return "warning"
	}
	return "error"
}

// NoPos marks an absent secondary position.
const NoPos = -1

// Diagnostic is a positioned message about the user's program.
// Pos and Secondary are byte offsets into the source text.
type Diagnostic struct {
	Severity  Severity
	Pos       int
	Msg       string
	Secondary int
}

// Errorf creates an error diagnostic at pos
func Errorf(pos int, format string, args ...any) *Diagnostic {
	return &Diagnostic{Pos: pos, Msg: fmt.Sprintf(format, args...), Secondary: NoPos}
}

// Warningf creates a warning diagnostic at pos
func Warningf(pos int, format string, args ...any) *Diagnostic {
	return &Diagnostic{Severity: Warning, Pos: pos, Msg: fmt.Sprintf(format, args...), Secondary: NoPos}
}

// WithSecondary attaches a second location, e.g. "previously declared here"
func (d *Diagnostic) WithSecondary(pos int) *Diagnostic {
	d.Secondary = pos
	return d
}

// HasSecondary reports whether a secondary position was attached
func (d *Diagnostic) HasSecondary() bool {
	return d.Secondary != NoPos
}

func (d *Diagnostic) Error() string {
	return fmt.Sprintf("%d: %s: %s", d.Pos, d.Severity, d.Msg)
}

// Format renders the diagnostic with a line:column prefix computed from src
func (d *Diagnostic) Format(filename, src string) string {
	line, col := LineColumn(src, d.Pos)
	var b strings.Builder
	fmt.Fprintf(&b, "%s:%d:%d: %s: %s", filename, line, col, d.Severity, d.Msg)
	if d.HasSecondary() {
		line, col = LineColumn(src, d.Secondary)
		fmt.Fprintf(&b, "\n%s:%d:%d: note: see here", filename, line, col)
	}
	return b.String()
}

// LineColumn converts a byte offset into 1-based line and column numbers.
// Offsets past the end of src are clamped.
func LineColumn(src string, pos int) (int, int) {
	if pos > len(src) {
		pos = len(src)
	}
	if pos < 0 {
		pos = 0
	}
	line, col := 1, 1
	for i := 0; i < pos; i++ {
		if src[i] == '\n' {
			line++
			col = 1
		} else {
			col++
		}
	}
	return line, col
}

// InternalError signals that a checked AST or CFG reached code with no
// handler for it. It has no source position.
type InternalError struct {
	Msg string
}

func (e *InternalError) Error() string {
	return "internal error: " + e.Msg
}

// Internalf creates an internal error
func Internalf(format string, args ...any) *InternalError {
	return &InternalError{Msg: fmt.Sprintf(format, args...)}
}

// Throw aborts the current pass with d. It must be paired with Catch at the
// package boundary.
func Throw(d *Diagnostic) {
	panic(d)
}

// Fail aborts the current pass with an internal error.
func Fail(format string, args ...any) {
	panic(Internalf(format, args...))
}

// Catch converts a Throw or Fail panic into *err. Any other panic is
// re-raised so genuine crashes stay loud.
//
//	defer diag.Catch(&err)
func Catch(err *error) {
	r := recover()
	if r == nil {
		return
	}
	switch e := r.(type) {
	case *Diagnostic:
		*err = e
	case *InternalError:
		*err = e
	default:
		panic(r)
	}
}
