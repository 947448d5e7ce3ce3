package graph

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMakeUIDDeterministic(t *testing.T) {
	require.Equal(t, MakeUID("post-1"), MakeUID("post-1"))
	require.NotEqual(t, MakeUID("post-1"), MakeUID("post-2"))
}

func TestMakeUIDNamespacePrefixesDisambiguate(t *testing.T) {
	// Same remote numeric id, different namespaces.
	require.NotEqual(t, MakeUID("post-3"), MakeUID("term-3"))
}
