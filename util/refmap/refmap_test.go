package refmap

import (
	"testing"

	"github.com/stretchr/testify/assert"

	db "armos/debug"
)

func TestRefCount(t *testing.T) {
	rf := NewRefTable[int, string](db.TEST)
	n := 0
	newT := func() string { n++; return "obj" }

	s, ok := rf.Insert(1, newT)
	assert.False(t, ok)
	assert.Equal(t, "obj", s)
	_, ok = rf.Insert(1, newT)
	assert.True(t, ok)
	assert.Nil(t, rf.Incr(1))
	assert.Equal(t, 1, n)
	assert.Equal(t, 3, rf.Nref(1))

	for i := 0; i < 2; i++ {
		del, err := rf.Delete(1)
		assert.Nil(t, err)
		assert.False(t, del)
	}
	del, err := rf.Delete(1)
	assert.Nil(t, err)
	assert.True(t, del)
	assert.Equal(t, 0, rf.Len())

	_, err = rf.Delete(1)
	assert.NotNil(t, err)
	assert.NotNil(t, rf.Incr(1))
}
