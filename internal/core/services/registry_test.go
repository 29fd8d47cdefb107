package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryRegisterAndGet(t *testing.T) {
	reg := NewRegistry()
	reg.Register(&stubOp{kind: "beta"})
	reg.Register(&stubOp{kind: "alpha"})

	op, ok := reg.Get("alpha")
	require.True(t, ok)
	assert.Equal(t, "alpha", op.Kind())

	_, ok = reg.Get("gamma")
	assert.False(t, ok)

	assert.Equal(t, []string{"alpha", "beta"}, reg.Kinds())
}

func TestRegistryLastRegistrationWins(t *testing.T) {
	reg := NewRegistry()
	first := &stubOp{kind: "op"}
	second := &stubOp{kind: "op", partial: true}
	reg.Register(first)
	reg.Register(second)

	op, ok := reg.Get("op")
	require.True(t, ok)
	assert.Same(t, second, op)
}
