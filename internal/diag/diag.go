// Package diag defines the error taxonomy of the network compiler.
//
// Every failure surfaced by the loaders, the registries and the network
// builder is a *Error carrying a Kind plus, whenever it is known, the name
// and 1-based source line of the offending section. Callers identify the
// class of a failure with errors.Is:
//
//	if errors.Is(err, diag.KindReference) {
//	    // a route or shortcut points at a layer that does not exist yet
//	}
package diag

import (
	"errors"
	"fmt"
)

// Kind identifies the class of a compiler error. A Kind is itself an error so
// it can be used as an errors.Is target.
type Kind string

const (
	// KindStructure reports malformed section ordering or count.
	KindStructure Kind = "StructureError"
	// KindUnknownLayerType reports a section name that matches no layer type.
	KindUnknownLayerType Kind = "UnknownLayerType"
	// KindNotImplemented reports a recognised layer type with no creator.
	KindNotImplemented Kind = "NotImplementedError"
	// KindReference reports a missing, malformed or forward back-reference.
	KindReference Kind = "ReferenceError"
	// KindShapeMismatch reports incompatible shapes between connected layers.
	KindShapeMismatch Kind = "ShapeMismatchError"
	// KindInvalidEnum reports an enum value outside its valid range.
	KindInvalidEnum Kind = "InvalidEnumValue"
	// KindInvalidOption reports an option value that cannot be used.
	KindInvalidOption Kind = "InvalidOption"
	// KindSyntax reports configuration text the loader cannot read.
	KindSyntax Kind = "SyntaxError"
)

// Error implements the error interface so a Kind can be an errors.Is target.
func (k Kind) Error() string {
	return string(k)
}

// Error is a compiler diagnostic. Section and Line are empty when the failure
// is not tied to a configuration section (registry lookups, for instance);
// At fills them in later.
type Error struct {
	Kind    Kind
	Section string
	Line    int
	Err     error
}

// Error renders the diagnostic in a form suitable for direct display.
func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	msg := string(e.Kind)
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	switch {
	case e.Section != "" && e.Line > 0:
		return fmt.Sprintf("[%s] at line %d: %s", e.Section, e.Line, msg)
	case e.Line > 0:
		return fmt.Sprintf("line %d: %s", e.Line, msg)
	}
	return msg
}

// Unwrap gives errors.Is/As access to the underlying error.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is reports whether target is this diagnostic's Kind.
func (e *Error) Is(target error) bool {
	k, ok := target.(Kind)
	return ok && e != nil && e.Kind == k
}

// New creates a diagnostic of the given kind without a source location.
func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Err: fmt.Errorf(format, args...)}
}

// Newf creates a diagnostic of the given kind bound to a section and line.
func Newf(kind Kind, section string, line int, format string, args ...any) *Error {
	return &Error{Kind: kind, Section: section, Line: line, Err: fmt.Errorf(format, args...)}
}

// At binds err to a section and line. Diagnostics that already carry a
// location keep it; any other error is wrapped as fallback.
func At(err error, section string, line int, fallback Kind) error {
	if err == nil {
		return nil
	}
	var d *Error
	if errors.As(err, &d) {
		if d.Line > 0 {
			return err
		}
		return &Error{Kind: d.Kind, Section: section, Line: line, Err: d.Err}
	}
	return &Error{Kind: fallback, Section: section, Line: line, Err: err}
}

// KindOf returns the Kind of err, or the empty Kind when err is not a
// diagnostic.
func KindOf(err error) Kind {
	var d *Error
	if errors.As(err, &d) {
		return d.Kind
	}
	return ""
}
