package prompt

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"inkwell/internal/actions"
)

func TestBuildDeterministic(t *testing.T) {
	def, err := actions.Resolve(actions.Rewrite)
	require.NoError(t, err)

	a := Build(def, "Casual", "hello world")
	b := Build(def, "Casual", "hello world")
	require.Equal(t, a, b)
	require.True(t, strings.HasPrefix(a, def.Template))
	require.Contains(t, a, "Tone: Casual")
	require.Contains(t, a, "Content:\nhello world")
}

func TestBuildDefaultTone(t *testing.T) {
	def, err := actions.Resolve(actions.Expand)
	require.NoError(t, err)

	require.Contains(t, Build(def, "", "x"), "Tone: Professional")
	require.Contains(t, Build(def, "   ", "x"), "Tone: Professional")
}

func TestTruncateIsPrefix(t *testing.T) {
	long := strings.Repeat("ab", MaxContentChars)
	got := Truncate(long)
	require.Equal(t, MaxContentChars, len([]rune(got)))
	require.True(t, strings.HasPrefix(long, got))

	short := "short content"
	require.Equal(t, short, Truncate(short))
}

func TestTruncateCountsRunes(t *testing.T) {
	long := strings.Repeat("é", MaxContentChars+10)
	got := Truncate(long)
	require.Equal(t, MaxContentChars, len([]rune(got)))
}

func TestBuildResume(t *testing.T) {
	def, err := actions.Resolve(actions.ResumeScore)
	require.NoError(t, err)

	p := Build(def, "", "ignored")
	require.NotEmpty(t, p)

	r := BuildResume(def, "", "10 years of Go")
	require.Contains(t, r, "Target role: Software Developer")
	require.Contains(t, r, "Resume Content:\n10 years of Go")

	r = BuildResume(def, "Data Engineer", "x")
	require.Contains(t, r, "Target role: Data Engineer")
}

func TestTruncateResume(t *testing.T) {
	long := strings.Repeat("x", MaxResumeChars+1)
	require.Equal(t, MaxResumeChars, len([]rune(TruncateResume(long))))
}
