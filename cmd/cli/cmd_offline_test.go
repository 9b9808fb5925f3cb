package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"safepath/pkg/models"
)

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(append([]string{"--config", filepath.Join(t.TempDir(), "none.yaml")}, args...))
	err := rootCmd.Execute()
	return out.String(), err
}

func TestCriticCommand(t *testing.T) {
	input := `{
		"request": {"title": "Park", "topic": "Strangers", "ageGroup": "6-8"},
		"slides": [
			{"text": "A stranger has a knife."},
			{"text": "He asks Mia to come along."},
			{"text": "Mia says no."}
		]
	}`
	path := filepath.Join(t.TempDir(), "in.json")
	require.NoError(t, os.WriteFile(path, []byte(input), 0o644))

	stdout, err := execute(t, "", "critic", path)
	require.NoError(t, err)

	var got criticOutput
	require.NoError(t, json.Unmarshal([]byte(stdout), &got))
	require.Len(t, got.Slides, 4)
	assert.NotContains(t, got.Slides[0].Text, "knife")
	assert.True(t, got.Slides[1].HasBranch())
	assert.NotEmpty(t, got.Issues)
}

func TestCriticCommandStdinRejectsShortInput(t *testing.T) {
	_, err := execute(t, `{"slides": [{"text": "one"}, {"text": "two"}]}`, "critic", "-")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "normalize")
}

func TestFallbackCommand(t *testing.T) {
	stdout, err := execute(t, "", "fallback", "--title", "Bus Stop", "--topic", "Road Safety", "--region", "Nairobi")
	require.NoError(t, err)

	var got []models.Slide
	require.NoError(t, json.Unmarshal([]byte(stdout), &got))
	require.Len(t, got, 3)
	assert.Contains(t, got[0].Text, "Nairobi")
	assert.True(t, got[1].HasBranch())
}
