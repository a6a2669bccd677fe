package render

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Formatter formats numbers with locale thousands separators.
type Formatter struct {
	printer *message.Printer
}

// NewFormatter creates a formatter for the given locale.
func NewFormatter(tag language.Tag) *Formatter {
	return &Formatter{printer: message.NewPrinter(tag)}
}

// DefaultFormatter formats for Spanish (Spain).
func DefaultFormatter() *Formatter {
	return NewFormatter(language.MustParse("es-ES"))
}

// Population formats a head count, e.g. 47351567 -> "47.351.567" in es-ES.
func (f *Formatter) Population(n int64) string {
	return f.printer.Sprintf("%d", n)
}
