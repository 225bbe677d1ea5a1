package extract

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTextTrims(t *testing.T) {
	got, err := Text("  generated text \n")
	require.NoError(t, err)
	require.Equal(t, "generated text", got)
}

func TestTextEmpty(t *testing.T) {
	for _, raw := range []string{"", "   ", "\n\t "} {
		_, err := Text(raw)
		require.ErrorIs(t, err, ErrEmptyOutput)
	}
}

type report struct {
	Score     int      `json:"score"`
	Strengths []string `json:"strengths"`
}

func TestStructuredPlainJSON(t *testing.T) {
	var r report
	err := Structured(`{"score": 82, "strengths": ["clear experience"]}`, &r)
	require.NoError(t, err)
	require.Equal(t, 82, r.Score)
	require.Equal(t, []string{"clear experience"}, r.Strengths)
}

func TestStructuredInsideFence(t *testing.T) {
	raw := "Here is your analysis:\n```json\n{\"score\": 55, \"strengths\": []}\n```\nGood luck!"
	var r report
	require.NoError(t, Structured(raw, &r))
	require.Equal(t, 55, r.Score)
}

func TestStructuredBracesInStrings(t *testing.T) {
	raw := `prose {"score": 7, "strengths": ["uses {braces} and \"quotes\" well"]} trailing`
	var r report
	require.NoError(t, Structured(raw, &r))
	require.Equal(t, 7, r.Score)
	require.Len(t, r.Strengths, 1)
}

func TestStructuredNested(t *testing.T) {
	raw := `{"score": 1, "strengths": [], "extra": {"deep": {"deeper": true}}}`
	var r report
	require.NoError(t, Structured(raw, &r))
	require.Equal(t, 1, r.Score)
}

func TestStructuredNoObject(t *testing.T) {
	var r report
	require.ErrorIs(t, Structured("no json here", &r), ErrInvalidStructured)
	require.ErrorIs(t, Structured("", &r), ErrInvalidStructured)
}

func TestStructuredUnbalanced(t *testing.T) {
	var r report
	require.ErrorIs(t, Structured(`{"score": 5`, &r), ErrInvalidStructured)
}

func TestStructuredInvalidJSON(t *testing.T) {
	var r report
	require.ErrorIs(t, Structured(`{score: 5}`, &r), ErrInvalidStructured)
}
