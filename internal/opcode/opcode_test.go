package opcode

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIsIntermediate(t *testing.T) {
	require.True(t, LABEL.IsIntermediate())
	require.True(t, CALL_BY_NAME.IsIntermediate())
	require.True(t, STRING_LITERAL.IsIntermediate())
	require.False(t, IADD.IsIntermediate())
	require.False(t, CALL.IsIntermediate())
}

func TestOpString(t *testing.T) {
	require.Equal(t, "IADD", IADD.String())
	require.Equal(t, "ARRAY_STORE", ARRAY_STORE.String())
	require.Equal(t, "UNKNOWN", Op(9999).String())
}
