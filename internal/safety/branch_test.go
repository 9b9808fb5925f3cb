package safety

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"safepath/pkg/models"
)

func TestCoerceBranch_InsertsDefault(t *testing.T) {
	in := []models.Slide{{Position: 5, Text: "one"}, {Position: 9, Text: "two"}}

	out := CoerceBranch(in)
	require.Len(t, out, 3)
	assert.Equal(t, "A risky moment appears. What is the safest choice?", out[1].Text)
	assert.Equal(t, "Move away and tell a trusted adult.", out[1].Choices[0].Text)
	for i, s := range out {
		assert.Equal(t, i+1, s.Position)
	}
	// input untouched
	assert.Equal(t, 5, in[0].Position)
}

func TestCoerceBranch_ShortList(t *testing.T) {
	out := CoerceBranch([]models.Slide{{Text: "only"}})
	require.Len(t, out, 2)
	assert.True(t, out[1].HasBranch())

	out = CoerceBranch(nil)
	require.Len(t, out, 1)
	assert.True(t, out[0].HasBranch())
}

func TestCoerceBranch_FixesCorrectFlags(t *testing.T) {
	tests := []struct {
		name    string
		choices []models.Choice
		want    []bool
	}{
		{"both true", []models.Choice{{ID: "a", Text: "x", Correct: true}, {ID: "b", Text: "y", Correct: true}}, []bool{true, false}},
		{"both false", []models.Choice{{ID: "a", Text: "x"}, {ID: "b", Text: "y"}}, []bool{true, false}},
		{"second correct", []models.Choice{{ID: "a", Text: "x"}, {ID: "b", Text: "y", Correct: true}}, []bool{false, true}},
		{"three", []models.Choice{{ID: "a", Text: "x"}, {ID: "b", Text: "y", Correct: true}, {ID: "c", Text: "z", Correct: true}}, []bool{false, true}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := CoerceBranch([]models.Slide{{Text: "pick", Choices: tt.choices}})
			require.Len(t, out, 1)
			require.Len(t, out[0].Choices, 2)
			assert.Equal(t, tt.want, []bool{out[0].Choices[0].Correct, out[0].Choices[1].Correct})
		})
	}
}

func TestCoerceBranch_DropsSingleChoice(t *testing.T) {
	out, issues := coerceBranch([]models.Slide{
		{Text: "a", Choices: []models.Choice{{ID: "a", Text: "alone", Correct: true}}},
		{Text: "b", Choices: []models.Choice{{ID: "a", Text: "x"}, {ID: "b", Text: "y"}}},
	})
	require.Len(t, out, 2)
	assert.Nil(t, out[0].Choices)
	assert.Equal(t, []string{"slide_1: dropped single choice"}, issues)
}
