// Package util provides small pieces of plumbing shared across compiler stages:
// error accumulation, a stack, label generation and an assembly writer.
// The compiler is single-threaded: none of these types synchronise access or
// run a background goroutine.
package util

import (
	"fmt"

	"github.com/pkg/errors"
)

// Category tags a diagnostic with the pipeline stage that raised it.
type Category string

// The three diagnostic categories named by the error handling design.
const (
	Lexer    Category = "Lexer"
	Parse    Category = "Parse"
	Semantic Category = "Semantic"
)

// Pos is a four integer source range: (startLine, startCol, endLine, endCol).
type Pos struct {
	L1, C1, L2, C2 int
}

// String renders a position the way Diagnostic.Error does, without the
// category or message, for embedding in other messages.
func (p Pos) String() string {
	return fmt.Sprintf("%d:%d:%d:%d", p.L1, p.C1, p.L2, p.C2)
}

// Diagnostic is one accumulated error with a source range and category.
type Diagnostic struct {
	Pos      Pos
	Category Category
	Message  string
}

// Error renders a Diagnostic in the wire format:
// "error:L1:C1:L2:C2:<category> error <message>."
func (d Diagnostic) Error() string {
	return fmt.Sprintf("error:%s:%s error %s.", d.Pos, d.Category, d.Message)
}

// Errors is a plain accumulator of Diagnostics for one compiler stage. A
// stage runs to completion whenever it can still make progress: it keeps
// appending rather than stopping at the first error. Not safe for concurrent
// use, by design — the driver never calls into a stage from more than one
// goroutine.
type Errors struct {
	list []Diagnostic
}

// NewErrors returns an Errors accumulator with n pre-allocated slots.
func NewErrors(n int) *Errors {
	if n < 1 {
		n = 16
	}
	return &Errors{list: make([]Diagnostic, 0, n)}
}

// Append records a diagnostic. A nil-Pos zero value is still recorded; callers
// supply a Pos explicitly because every diagnostic must carry one.
func (e *Errors) Append(pos Pos, cat Category, format string, args ...interface{}) {
	e.list = append(e.list, Diagnostic{Pos: pos, Category: cat, Message: fmt.Sprintf(format, args...)})
}

// Len returns the number of accumulated diagnostics.
func (e *Errors) Len() int {
	return len(e.list)
}

// Flush empties the accumulator, keeping its backing capacity.
func (e *Errors) Flush() {
	e.list = e.list[:0]
}

// List returns the accumulated diagnostics in report order.
func (e *Errors) List() []Diagnostic {
	return e.list
}

// Wrap contextualises an unrecoverable error (an unreadable input path, a
// failure building the embedded grammar table) before it is written to standard error
// and the process exits 1.
func Wrap(err error, context string) error {
	return errors.Wrap(err, context)
}
