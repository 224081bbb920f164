package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/a-marczewski/temporalmem/internal/memory"
)

func TestParseFactsFullPayload(t *testing.T) {
	raw := `{
		"facts": [
			{
				"text": "Moved to Berlin",
				"category": "profile",
				"slot": "home_location",
				"stability": "persistent",
				"temporal_scope": "since March",
				"kind": "home_location",
				"duration_in_days": null,
				"confidence": 0.92
			},
			{
				"text": "Visiting Tokyo for two weeks",
				"category": "temp_state",
				"slot": null,
				"stability": "temporary",
				"temporal_scope": null,
				"kind": "current_location",
				"duration_in_days": 14,
				"confidence": 0.8
			}
		]
	}`

	facts, err := parseFacts(raw)
	require.NoError(t, err)
	require.Len(t, facts, 2)

	assert.Equal(t, memory.FactCandidate{
		Text:          "Moved to Berlin",
		Category:      memory.CategoryProfile,
		Slot:          "home_location",
		Stability:     memory.StabilityPersistent,
		TemporalScope: "since March",
		Kind:          "home_location",
		Confidence:    0.92,
	}, facts[0])

	assert.Equal(t, 14, facts[1].DurationInDays)
	assert.Empty(t, facts[1].Slot)
	assert.Empty(t, facts[1].TemporalScope)
}

func TestParseFactsStripsCodeFences(t *testing.T) {
	fenced := "```json\n{\"facts\": [{\"text\": \"Likes jazz\", \"category\": \"preference\", \"confidence\": 0.7}]}\n```"

	facts, err := parseFacts(fenced)
	require.NoError(t, err)
	require.Len(t, facts, 1)
	assert.Equal(t, "Likes jazz", facts[0].Text)

	bare := "```\n{\"facts\": []}\n```"
	facts, err = parseFacts(bare)
	require.NoError(t, err)
	assert.Empty(t, facts)
}

func TestParseFactsSkipsBlankText(t *testing.T) {
	raw := `{"facts": [
		{"text": "   ", "category": "other", "confidence": 0.9},
		{"text": "", "category": "other", "confidence": 0.9},
		{"text": "  kept  ", "category": "other", "confidence": 0.9}
	]}`

	facts, err := parseFacts(raw)
	require.NoError(t, err)
	require.Len(t, facts, 1)
	assert.Equal(t, "kept", facts[0].Text)
}

func TestParseFactsClampsConfidence(t *testing.T) {
	raw := `{"facts": [
		{"text": "too sure", "category": "other", "confidence": 1.7},
		{"text": "negative", "category": "other", "confidence": -0.3}
	]}`

	facts, err := parseFacts(raw)
	require.NoError(t, err)
	require.Len(t, facts, 2)
	assert.Equal(t, 1.0, facts[0].Confidence)
	assert.Equal(t, 0.0, facts[1].Confidence)
}

func TestParseFactsIgnoresNonPositiveDuration(t *testing.T) {
	raw := `{"facts": [
		{"text": "a", "category": "other", "duration_in_days": 0, "confidence": 0.9},
		{"text": "b", "category": "other", "duration_in_days": -5, "confidence": 0.9}
	]}`

	facts, err := parseFacts(raw)
	require.NoError(t, err)
	require.Len(t, facts, 2)
	assert.Zero(t, facts[0].DurationInDays)
	assert.Zero(t, facts[1].DurationInDays)
}

func TestParseFactsMalformed(t *testing.T) {
	_, err := parseFacts("not json at all")
	assert.Error(t, err)

	facts, err := parseFacts(`{"facts": null}`)
	require.NoError(t, err)
	assert.Empty(t, facts)
}

func TestLastUserContent(t *testing.T) {
	messages := []memory.ChatMessage{
		{Role: "user", Content: "first"},
		{Role: "assistant", Content: "reply"},
		{Role: "user", Content: "second"},
	}
	assert.Equal(t, "second", lastUserContent(messages))

	assert.Empty(t, lastUserContent(nil))
	assert.Empty(t, lastUserContent([]memory.ChatMessage{{Role: "assistant", Content: "only"}}))
}
