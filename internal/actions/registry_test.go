package actions

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestResolveKnownActions(t *testing.T) {
	for _, id := range []string{Rewrite, Expand, Shorten, Article, SEOContent} {
		def, err := Resolve(id)
		require.NoError(t, err, id)
		require.Equal(t, id, def.ID)
		require.NotEmpty(t, def.Template)
		require.NotEmpty(t, def.Message)
		require.False(t, def.Structured)
	}
}

func TestResolveResumeScoreIsStructured(t *testing.T) {
	def, err := Resolve(ResumeScore)
	require.NoError(t, err)
	require.True(t, def.Structured)
	require.Contains(t, def.Template, "STRICT JSON")
}

func TestResolveUnknown(t *testing.T) {
	_, err := Resolve("translate")
	require.ErrorIs(t, err, ErrUnknownAction)

	// Lookup is exact; no case folding or trimming.
	_, err = Resolve("Rewrite")
	require.ErrorIs(t, err, ErrUnknownAction)
	_, err = Resolve(" rewrite")
	require.ErrorIs(t, err, ErrUnknownAction)
	_, err = Resolve("")
	require.ErrorIs(t, err, ErrUnknownAction)
}

func TestAllIsStable(t *testing.T) {
	first := All()
	second := All()
	require.Equal(t, first, second)
	require.Len(t, first, 6)
	require.Equal(t, Rewrite, first[0].ID)
	require.Equal(t, ResumeScore, first[5].ID)
}
