package id

import (
	"testing"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_IsULID(t *testing.T) {
	_, err := ulid.ParseStrict(New())
	require.NoError(t, err)
	assert.NotEqual(t, New(), New())
}

func TestDerived_Stable(t *testing.T) {
	a := Derived("like", "w1")
	assert.Equal(t, a, Derived("like", "w1"))
	assert.NotEqual(t, a, Derived("like", "w2"))
	assert.Equal(t, "like_", a[:5])
	assert.Len(t, a, len("like_")+26)
}

func TestDerived_PartsAreNotConcatenated(t *testing.T) {
	assert.NotEqual(t, Derived("x", "ab", "c"), Derived("x", "a", "bc"))
}
