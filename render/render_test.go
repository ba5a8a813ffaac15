package render

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"hinton/errs"
)

func TestReportUnderlinesTheOffendingSpan(t *testing.T) {
	source := "let x = ;"
	r := errs.New(errs.KindSyntax, 1, 8, 1, "expected expression")

	out := Report(source, r)

	assert.Contains(t, out, "Syntax: expected expression")
	assert.Contains(t, out, "let x = ;")
	assert.Contains(t, out, "        ^")
}

func TestBatchRendersEveryReportInOrder(t *testing.T) {
	source := "a\nb"
	b := errs.NewBatch()
	b.Add(errs.New(errs.KindSyntax, 1, 0, 1, "first"))
	b.Add(errs.New(errs.KindReference, 2, 0, 1, "second"))

	out := Batch(source, b)

	assert.Contains(t, out, "first")
	assert.Contains(t, out, "second")
}

func TestSourceLineOutOfRangeOmitsSnippet(t *testing.T) {
	r := errs.New(errs.KindInternal, 99, 0, 1, "boom")
	out := Report("one line only", r)
	assert.Equal(t, "Internal: boom\n", out)
}
