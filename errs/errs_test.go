package errs

import (
	"errors"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReportError(t *testing.T) {
	r := New(KindSyntax, 3, 7, 1, "unexpected token %q", "}")
	assert.Equal(t, "Syntax: unexpected token \"}\" (line 3, col 7)", r.Error())
}

func TestInternalfWrapsCause(t *testing.T) {
	_, cause := strconv.ParseInt("zz", 10, 64)
	require.Error(t, cause)

	r := Internalf(1, 1, cause, "failed to parse numeric literal")
	assert.Equal(t, KindInternal, r.Kind)
	assert.True(t, errors.Is(r, cause))
}

func TestBatchAccumulates(t *testing.T) {
	b := NewBatch()
	assert.True(t, b.Empty())

	b.Add(New(KindReference, 1, 1, 1, "undefined identifier 'x'"))
	b.Add(New(KindDuplication, 2, 1, 1, "redeclaration of 'x'"))

	assert.False(t, b.Empty())
	assert.Len(t, b.Reports, 2)
	assert.Contains(t, b.Error(), b.Session.String())
}
