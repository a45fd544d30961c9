package report

import "fmt"

// DiagKind enumerates the kinds of user-facing diagnostics the compiler can
// produce.  The set is closed: every error surfaced to the driver is tagged
// with exactly one of these kinds.
type DiagKind int

const (
	// LookupFailure indicates an identifier that did not resolve on the
	// lexical stack.
	LookupFailure DiagKind = iota

	// NotAClass indicates a type annotation referring to a non-class binding.
	NotAClass

	// NotAFunction indicates a call whose callee is not function-typed.
	NotAFunction

	// TypeMismatch indicates a violated type expectation.
	TypeMismatch

	// WrongNumberOfArguments indicates a call arity mismatch.
	WrongNumberOfArguments

	// WrongReturnType indicates a return statement incompatible with the
	// enclosing function's return type.
	WrongReturnType

	// MisuseOfClass indicates a class name used where a value is required.
	MisuseOfClass

	// Unsupported indicates a construct present in the AST that has no
	// defined lowering yet (eg. index expressions).
	Unsupported

	// NumericOverflow indicates an integer literal that does not fit the
	// width of its target type.
	NumericOverflow
)

// String returns the short tag used when rendering the diagnostic.
func (dk DiagKind) String() string {
	switch dk {
	case LookupFailure:
		return "Lookup"
	case NotAClass:
		return "Type"
	case NotAFunction:
		return "Call"
	case TypeMismatch:
		return "Type"
	case WrongNumberOfArguments:
		return "Call"
	case WrongReturnType:
		return "Return"
	case MisuseOfClass:
		return "Usage"
	case Unsupported:
		return "Usage"
	default:
		// NumericOverflow
		return "Literal"
	}
}

// -----------------------------------------------------------------------------

// Diagnostic is a single user-facing compile error.  It implements `error` so
// it can flow through ordinary Go error channels where convenient.
type Diagnostic struct {
	// The kind tag of the diagnostic.
	Kind DiagKind

	// The human-readable error message.
	Message string

	// The span over which the error occurs.  May be nil when the erroneous
	// construct carries no position information.
	Span *TextSpan
}

func (d *Diagnostic) Error() string {
	return d.Message
}

// Errorf creates a new diagnostic of the given kind.
func Errorf(kind DiagKind, span *TextSpan, msg string, args ...interface{}) *Diagnostic {
	return &Diagnostic{Kind: kind, Message: fmt.Sprintf(msg, args...), Span: span}
}

// Raise panics with a new diagnostic.  This is the fail-fast path used during
// lowering: the panic bubbles to the enclosing Catch which converts it back
// into an ordinary error return.
// NB: must only be called below an active Catch.
func Raise(kind DiagKind, span *TextSpan, msg string, args ...interface{}) {
	panic(Errorf(kind, span, msg, args...))
}

// Catch recovers a diagnostic raised by Raise and appends it to errs.  Panics
// that are not diagnostics are internal compiler errors and are re-raised.
// NB: this function must ALWAYS be deferred.
func Catch(errs *[]*Diagnostic) {
	if x := recover(); x != nil {
		if diag, ok := x.(*Diagnostic); ok {
			*errs = append(*errs, diag)
		} else {
			panic(x)
		}
	}
}

// -----------------------------------------------------------------------------

// ICE panics with an internal compiler error.  These result from bugs or
// malformed input ASTs, not from erroneous user code, and are never converted
// into diagnostics.
func ICE(msg string, args ...interface{}) {
	panic(fmt.Sprintf("internal compiler error: "+msg, args...))
}
