package diag

import "frost/internal/source"

// Reporter is the minimal contract for receiving diagnostics from
// engine phases. Implementations: BagReporter, NopReporter.
type Reporter interface {
	Report(d Diagnostic)
}

// BagReporter writes into a *Bag.
type BagReporter struct{ Bag *Bag }

func (r BagReporter) Report(d Diagnostic) {
	if r.Bag != nil {
		r.Bag.Add(d)
	}
}

// NopReporter drops everything.
type NopReporter struct{}

func (NopReporter) Report(Diagnostic) {}

// Error is a convenience that builds and reports in one call.
func Error(r Reporter, code Code, primary source.Span, msg string) {
	if r != nil {
		r.Report(NewError(code, primary, msg))
	}
}

// Warning is a convenience that builds and reports in one call.
func Warning(r Reporter, code Code, primary source.Span, msg string) {
	if r != nil {
		r.Report(NewWarning(code, primary, msg))
	}
}
