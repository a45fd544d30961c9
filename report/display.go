package report

import (
	"fmt"

	"github.com/pterm/pterm"
)

var (
	SuccessColorFG = pterm.FgLightGreen
	SuccessStyleBG = pterm.NewStyle(pterm.BgLightGreen, pterm.FgBlack)
	ErrorColorFG   = pterm.FgRed
	ErrorStyleBG   = pterm.NewStyle(pterm.BgRed, pterm.FgWhite)
)

// DisplayDiagnostic prints a diagnostic to the console.
func DisplayDiagnostic(d *Diagnostic) {
	ErrorStyleBG.Print(d.Kind.String() + " Error")

	if d.Span != nil {
		ErrorColorFG.Println(fmt.Sprintf(
			" (%d, %d) %s", d.Span.StartLine+1, d.Span.StartCol+1, d.Message,
		))
	} else {
		ErrorColorFG.Println(" " + d.Message)
	}
}

// DisplayDiagnostics prints a list of diagnostics to the console.
func DisplayDiagnostics(diags []*Diagnostic) {
	for _, d := range diags {
		DisplayDiagnostic(d)
	}
}

// DisplaySuccess prints a success message to the console.
func DisplaySuccess(msg string, args ...interface{}) {
	SuccessStyleBG.Print("Done")
	SuccessColorFG.Println(" " + fmt.Sprintf(msg, args...))
}
