package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDecision_IsValid(t *testing.T) {
	tests := []struct {
		name     string
		decision Decision
		want     bool
	}{
		{"document", DecisionDocument, true},
		{"web", DecisionWeb, true},
		{"both", DecisionBoth, true},
		{"empty", Decision(""), false},
		{"unknown", Decision("rag"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.decision.IsValid())
		})
	}
}

func TestDecision_Wants(t *testing.T) {
	assert.True(t, DecisionDocument.WantsDocuments())
	assert.False(t, DecisionDocument.WantsWeb())

	assert.False(t, DecisionWeb.WantsDocuments())
	assert.True(t, DecisionWeb.WantsWeb())

	assert.True(t, DecisionBoth.WantsDocuments())
	assert.True(t, DecisionBoth.WantsWeb())
}

func TestDecision_Description(t *testing.T) {
	assert.Equal(t, "Document index only", DecisionDocument.Description())
	assert.Equal(t, "Unknown", Decision("bogus").Description())
}

func TestSnippet_Ref(t *testing.T) {
	tests := []struct {
		name    string
		snippet Snippet
		want    string
	}{
		{
			name:    "with locator",
			snippet: Snippet{Source: "report.pdf", Locator: "p3"},
			want:    "report.pdf#p3",
		},
		{
			name:    "without locator",
			snippet: Snippet{Source: "https://example.com/article"},
			want:    "https://example.com/article",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.snippet.Ref())
		})
	}
}

func TestBundle_Empty(t *testing.T) {
	assert.True(t, Bundle{Decision: DecisionDocument}.Empty())
	assert.False(t, Bundle{
		Decision: DecisionWeb,
		Snippets: []Snippet{{Origin: OriginWeb, Text: "hit"}},
	}.Empty())
}

func TestBundle_CountByOrigin(t *testing.T) {
	b := Bundle{
		Decision: DecisionBoth,
		Snippets: []Snippet{
			{Origin: OriginDocument},
			{Origin: OriginDocument},
			{Origin: OriginWeb},
		},
	}

	assert.Equal(t, 2, b.CountByOrigin(OriginDocument))
	assert.Equal(t, 1, b.CountByOrigin(OriginWeb))
}

func TestScope_Valid(t *testing.T) {
	assert.True(t, Scope("tenant-1").Valid())
	assert.False(t, Scope("").Valid())
}
