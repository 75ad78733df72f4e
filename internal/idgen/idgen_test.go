package idgen

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewFrom_UniqueAndIncreasing(t *testing.T) {
	require.NoError(t, InitNode("test", 7))
	prev := NewFrom("test")
	for i := 0; i < 1000; i++ {
		id := NewFrom("test")
		require.Greater(t, id, prev)
		prev = id
	}
}

func TestNewFrom_PanicsWhenNodeMissing(t *testing.T) {
	require.Panics(t, func() { NewFrom("missing") })
}

func TestInitNode_RejectsOutOfRange(t *testing.T) {
	require.Error(t, InitNode("bad", 5000))
}
