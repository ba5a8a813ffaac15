// Package errs holds the structured error report shared by the parser,
// symbol analyzer, and compiler. Each phase accumulates a Batch instead of
// aborting on the first problem; the driver only advances to the next phase
// once a phase's Batch is empty.
package errs

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// Kind names the taxonomy from spec.md §7.
type Kind string

const (
	KindSyntax       Kind = "Syntax"
	KindReference    Kind = "Reference"
	KindDuplication  Kind = "Duplication"
	KindReassignment Kind = "Reassignment"
	KindMaxCapacity  Kind = "MaxCapacity"
	KindInternal     Kind = "Internal"

	// runtime kinds, raised by object/vm opcode implementations.
	KindType         Kind = "Type"
	KindIndex        Kind = "Index"
	KindKey          Kind = "Key"
	KindZeroDivision Kind = "ZeroDivision"
	KindIterStop     Kind = "IterStop"
	KindArgument     Kind = "Argument"
	KindAssertion    Kind = "Assertion"
	KindRecursion    Kind = "Recursion"
	KindInstance     Kind = "Instance"
)

// Report is one structured error: a line/column/lexeme-length span plus a
// rendered message. It is a Go error and supports errors.Is/As via Unwrap
// when it was constructed by wrapping an underlying cause (Internalf).
type Report struct {
	Kind        Kind
	Line        int32
	Column      int32
	LexemeLen   int32
	Message     string
	cause       error
}

func (r *Report) Error() string {
	return fmt.Sprintf("%s: %s (line %d, col %d)", r.Kind, r.Message, r.Line, r.Column)
}

func (r *Report) Unwrap() error { return r.cause }

// New builds a Report of the given kind at the given source position.
func New(kind Kind, line, column, lexemeLen int32, format string, args ...any) *Report {
	return &Report{Kind: kind, Line: line, Column: column, LexemeLen: lexemeLen, Message: fmt.Sprintf(format, args...)}
}

// Internalf builds a KindInternal Report wrapping cause with a stack trace,
// for the "should not reach here if the lexer/parser is correct" paths
// spec.md §7 calls out (e.g. a numeric lexeme that fails to parse).
func Internalf(line, column int32, cause error, format string, args ...any) *Report {
	wrapped := errors.Wrap(cause, fmt.Sprintf(format, args...))
	return &Report{Kind: KindInternal, Line: line, Column: column, Message: wrapped.Error(), cause: wrapped}
}

// Batch is the list of reports a single phase (parser, analyzer, compiler)
// produced for one compile invocation, tagged with a session id so a driver
// juggling several files can tell which batch a given report came from
// without re-threading a file path through every Report.
type Batch struct {
	Session uuid.UUID
	Reports []*Report
}

// NewBatch starts an empty batch with a fresh session id.
func NewBatch() *Batch {
	return &Batch{Session: uuid.New()}
}

func (b *Batch) Add(r *Report) {
	b.Reports = append(b.Reports, r)
}

func (b *Batch) Empty() bool { return len(b.Reports) == 0 }

func (b *Batch) Error() string {
	if b.Empty() {
		return ""
	}
	msg := fmt.Sprintf("%d error(s) in session %s:", len(b.Reports), b.Session)
	for _, r := range b.Reports {
		msg += "\n  " + r.Error()
	}
	return msg
}
