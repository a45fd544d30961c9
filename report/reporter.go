package report

// Reporter accumulates diagnostics during a compilation pass.  The resolver
// reports every error it finds before returning; the lowerer instead fails
// fast via Raise and never touches a reporter.
type Reporter struct {
	diags []*Diagnostic
}

// NewReporter creates a new empty reporter.
func NewReporter() *Reporter {
	return &Reporter{}
}

// Report records a diagnostic.
func (r *Reporter) Report(d *Diagnostic) {
	r.diags = append(r.diags, d)
}

// Errorf records a new diagnostic of the given kind.
func (r *Reporter) Errorf(kind DiagKind, span *TextSpan, msg string, args ...interface{}) {
	r.Report(Errorf(kind, span, msg, args...))
}

// Diagnostics returns all diagnostics reported so far in order.
func (r *Reporter) Diagnostics() []*Diagnostic {
	return r.diags
}

// AnyErrors returns whether or not any errors were reported.
func (r *Reporter) AnyErrors() bool {
	return len(r.diags) > 0
}
