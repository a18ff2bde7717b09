package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCounts_InsertionOrder(t *testing.T) {
	c := NewCounts()
	c.Add(20, 1)
	c.Add(10, 2)
	c.Add(20, 3)
	assert.Equal(t, []int{20, 10}, c.Keys())
	v, ok := c.Get(20)
	assert.True(t, ok)
	assert.Equal(t, 4, v)
}

func TestCounts_ZeroValue(t *testing.T) {
	var c Counts
	_, ok := c.Get(1)
	assert.False(t, ok)
	c.Set(1, 5)
	assert.Equal(t, 1, c.Len())

	var nilCounts *Counts
	assert.Equal(t, 0, nilCounts.Len())
	assert.Nil(t, nilCounts.Keys())
}

func TestCounts_Compact(t *testing.T) {
	c := NewCounts()
	c.Set(1, 3)
	c.Set(2, 0)
	c.Set(3, -4)
	c.Set(4, 1)
	c.Compact()
	assert.Equal(t, []int{1, 4}, c.Keys())
	_, ok := c.Get(2)
	assert.False(t, ok)
}

func TestCounts_CloneIsIndependent(t *testing.T) {
	c := NewCounts()
	c.Set(1, 1)
	cp := c.Clone()
	cp.Add(1, 10)
	cp.Set(2, 2)
	v, _ := c.Get(1)
	assert.Equal(t, 1, v)
	assert.Equal(t, 1, c.Len())
	assert.Equal(t, map[int]int{1: 11, 2: 2}, cp.Map())
}
