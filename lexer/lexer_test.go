package lexer

import (
	"hinton/token"
	"reflect"
	"testing"
)


func runTestSuccess(t *testing.T, source string, expected []token.Token){

	t.Run("ValidTokenScan", func(t *testing.T) {
		got, errBatch := Scan(source)
		if !errBatch.Empty() {
			t.Errorf("Scan() raised an error: %v", errBatch.Error())
		}

		// Use reflect.DeepEqual to compare the slices
		if !reflect.DeepEqual(got, expected) {
			t.Errorf("Scan() = %v, want %v", got, expected)
		}
	})
}

func TestOperatorsSuccess(t *testing.T){
	expected := []token.Token{
		token.New(token.EQUAL_EQUAL, "==", 1, 1, 3),
		token.New(token.SLASH_EQ, "/=", 1, 3, 5),
		token.New(token.STAR, "*", 1, 5, 6),
		token.New(token.PLUS, "+", 1, 6, 7),
		token.New(token.GREATER, ">", 1, 7, 8),
		token.New(token.MINUS, "-", 1, 8, 9),
		token.New(token.LESS, "<", 1, 9, 10),
		token.New(token.NOT_EQUAL, "!=", 1, 10, 12),
		token.New(token.LESS_EQUAL, "<=", 1, 12, 14),
		token.New(token.GREATER_EQUAL, ">=", 1, 14, 16),
		token.New(token.BANG, "!", 1, 16, 17),
		token.New(token.BANG, "!", 1, 17, 18),
		token.New(token.EOF, "", 1, 18, 18),
	}
	runTestSuccess(t, "==/=*+>-<!=<=>=!!", expected)

}

func TestScanSuccess(t *testing.T) {
	expected := []token.Token{
		token.New(token.LPAREN, "(", 1, 1, 2),
		token.New(token.RPAREN, ")", 1, 2, 3),
		token.New(token.LBRACE, "{", 1, 3, 4),
		token.New(token.RBRACE, "}", 1, 4, 5),
		token.New(token.POW, "**", 1, 5, 7),
		token.New(token.SEMICOLON, ";", 1, 7, 8),
		token.New(token.PLUS, "+", 1, 8, 9),
		token.New(token.NOT_EQUAL, "!=", 1, 9, 11),
		token.New(token.LESS_EQUAL, "<=", 1, 11, 13),
		token.New(token.EOF, "", 1, 13, 13),
	}

	runTestSuccess(t, "(){}**;+!=<=", expected)

}
