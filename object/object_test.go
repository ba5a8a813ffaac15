package object

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"hinton/ast"
)

func TestStringInterning(t *testing.T) {
	h := NewHeap()
	a := h.InternString("hello")
	b := h.InternString("hello")
	assert.Equal(t, a, b)
}

func TestRangeInterning(t *testing.T) {
	h := NewHeap()
	a := h.InternRange(Int(1), Int(5), true)
	b := h.InternRange(Int(1), Int(5), true)
	c := h.InternRange(Int(1), Int(5), false)
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
}

func TestArraysGetUniqueHandles(t *testing.T) {
	h := NewHeap()
	a := h.NewArray([]Value{Int(1)})
	b := h.NewArray([]Value{Int(1)})
	assert.NotEqual(t, a, b)
}

func TestBinaryArithmetic(t *testing.T) {
	h := NewHeap()
	v, err := BinaryOp(h, ast.BAdd, Int(2), Int(3))
	require.NoError(t, err)
	assert.Equal(t, Int(5), v)

	v, err = BinaryOp(h, ast.BAdd, Int(2), Float(0.5))
	require.NoError(t, err)
	assert.Equal(t, Float(2.5), v)
}

func TestStringConcatenation(t *testing.T) {
	h := NewHeap()
	a := Obj(h.InternString("foo"))
	b := Obj(h.InternString("bar"))
	v, err := BinaryOp(h, ast.BAdd, a, b)
	require.NoError(t, err)
	assert.Equal(t, "foobar", v.String(h))
}

func TestDivisionByZero(t *testing.T) {
	h := NewHeap()
	_, err := BinaryOp(h, ast.BDiv, Int(1), Int(0))
	require.Error(t, err)
}

func TestConstantPoolDedup(t *testing.T) {
	c := NewChunk()
	i1, ok := c.AddConstant(Int(7))
	require.True(t, ok)
	i2, ok := c.AddConstant(Int(7))
	require.True(t, ok)
	assert.Equal(t, i1, i2)
	assert.Len(t, c.Constants, 1)

	i3, ok := c.AddConstant(Float(7))
	require.True(t, ok)
	assert.NotEqual(t, i1, i3)
}

func TestNativeLen(t *testing.T) {
	h := NewHeap()
	s := Obj(h.InternString("abc"))
	v, err := nativeLen(h, []Value{s})
	require.NoError(t, err)
	assert.Equal(t, Int(3), v)
}

func TestIndexAndSlice(t *testing.T) {
	h := NewHeap()
	arr := Obj(h.NewArray([]Value{Int(1), Int(2), Int(3), Int(4)}))

	v, err := GetIndex(h, arr, Int(-1))
	require.NoError(t, err)
	assert.Equal(t, Int(4), v)

	sliced, err := GetSlice(h, arr, Int(1), Int(3), None)
	require.NoError(t, err)
	out := h.Get(sliced.AsObj())
	assert.Equal(t, []Value{Int(2), Int(3)}, out.Arr)
}
