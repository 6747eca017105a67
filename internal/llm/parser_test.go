package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/tally/internal/common"
)

func TestCleanMarkdownWrapper(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "plain", input: `{"category":"Food"}`, want: `{"category":"Food"}`},
		{name: "json fence", input: "```json\n{\"category\":\"Food\"}\n```", want: `{"category":"Food"}`},
		{name: "bare fence", input: "```\n{\"category\":\"Food\"}\n```", want: `{"category":"Food"}`},
		{name: "surrounding prose", input: "Sure! {\"category\":\"Food\"} Hope that helps.", want: `{"category":"Food"}`},
		{name: "no object", input: "no idea", want: "no idea"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, cleanMarkdownWrapper(tt.input))
		})
	}
}

func TestParseClassification(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		got, err := parseClassification("```json\n{\"category\": \" Food \", \"confidence\": 0.92}\n```")
		require.NoError(t, err)
		assert.Equal(t, "Food", got.Category)
		assert.InDelta(t, 0.92, got.Confidence, 1e-9)
	})

	t.Run("out of range confidence is passed through", func(t *testing.T) {
		got, err := parseClassification(`{"category": "Food", "confidence": 1.1}`)
		require.NoError(t, err)
		assert.InDelta(t, 1.1, got.Confidence, 1e-9)
	})

	failures := map[string]string{
		"missing category":   `{"confidence": 0.5}`,
		"empty category":     `{"category": "  ", "confidence": 0.5}`,
		"missing confidence": `{"category": "Food"}`,
		"not json":           `Food, 90%`,
		"wrong types":        `{"category": 3, "confidence": "high"}`,
	}
	for name, content := range failures {
		t.Run(name, func(t *testing.T) {
			_, err := parseClassification(content)
			require.Error(t, err)
			assert.ErrorIs(t, err, common.ErrContractViolation)
		})
	}
}

func TestBuildPrompt(t *testing.T) {
	prompt := buildPrompt("Coffee at Blue Bottle", []string{"Food", "Transport"})
	assert.Contains(t, prompt, "- Food\n- Transport\n")
	assert.Contains(t, prompt, `"Coffee at Blue Bottle"`)
	assert.Contains(t, prompt, `"confidence"`)
}
