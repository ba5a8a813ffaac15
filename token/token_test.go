package token

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name string
		kind Kind
		want Token
	}{
		{"assign", ASSIGN, Token{Kind: ASSIGN, Lexeme: "=", Line: 1, ColumnStart: 0, ColumnEnd: 1}},
		{"lparen", LPAREN, Token{Kind: LPAREN, Lexeme: "(", Line: 1, ColumnStart: 0, ColumnEnd: 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := New(tt.kind, tt.want.Lexeme, 1, 0, 1)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNewLiteral(t *testing.T) {
	got := NewLiteral(INT, "42", int64(42), 3, 4, 6)
	assert.Equal(t, INT, got.Kind)
	assert.Equal(t, "42", got.Lexeme)
	assert.Equal(t, int64(42), got.Literal)
	assert.Equal(t, int32(3), got.Line)
}

func TestKeywordsTable(t *testing.T) {
	for lexeme, kind := range Keywords {
		assert.Equal(t, lexeme, kind.String(), "keyword lexeme should round-trip through Kind.String")
	}
}

func TestSliceStream(t *testing.T) {
	s := Slice{New(KW_LET, "let", 1, 0, 3), New(EOF, "", 1, 3, 3)}
	assert.Equal(t, 2, s.Len())
	assert.Equal(t, KW_LET, s.At(0).Kind)
}
