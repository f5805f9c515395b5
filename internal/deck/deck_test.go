package deck

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_YAML(t *testing.T) {
	d, err := Load(filepath.Join("testdata", "history.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "Modern history", d.Title)
	require.Len(t, d.Cards, 4)
	assert.Equal(t, "1789", d.Cards[0].Answer)
	assert.Equal(t, "card-3", d.Cards[2].ID, "missing id is generated from position")
	assert.Equal(t, []string{"past perfect", "simple past"}, d.Cards[3].Distractors)

	c, ok := d.Card("moon")
	require.True(t, ok)
	assert.Equal(t, "1969", c.Answer)

	_, ok = d.Card("missing")
	assert.False(t, ok)
}

func TestLoad_JSON(t *testing.T) {
	d, err := Load(filepath.Join("testdata", "capitals.json"))
	require.NoError(t, err)
	require.Len(t, d.Cards, 2)
	assert.Equal(t, "Berlin", d.Cards[1].Answer)
}

func TestLoad_UnsupportedExtension(t *testing.T) {
	p := filepath.Join(t.TempDir(), "deck.txt")
	require.NoError(t, os.WriteFile(p, []byte("cards: []"), 0o644))
	_, err := Load(p)
	assert.Error(t, err)
}

func TestParseYAML_Errors(t *testing.T) {
	tests := []struct {
		name    string
		doc     string
		wantErr error
	}{
		{
			name: "missing answer",
			doc:  "cards:\n  - question: q\n",
		},
		{
			name: "empty answer",
			doc:  "cards:\n  - question: q\n    answer: \"\"\n",
		},
		{
			name: "distractors not strings",
			doc:  "cards:\n  - question: q\n    answer: a\n    distractors: [{x: 1}]\n",
		},
		{
			name:    "no cards",
			doc:     "cards: []\n",
			wantErr: ErrEmptyDeck,
		},
		{
			name:    "duplicate ids",
			doc:     "cards:\n  - {id: a, question: q1, answer: x}\n  - {id: a, question: q2, answer: y}\n",
			wantErr: ErrDuplicateCardID,
		},
		{
			name: "null answer",
			doc:  "cards:\n  - question: q\n    answer: ~\n",
		},
		{
			name: "empty document",
			doc:  "",
		},
		{
			name: "malformed yaml",
			doc:  "cards: [\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseYAML([]byte(tt.doc))
			require.Error(t, err)
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestParseYAML_UnquotedScalars(t *testing.T) {
	doc := `
cards:
  - id: sum
    question: "2+2?"
    answer: 4
  - question: When was the Bastille stormed?
    answer: 1789
    distractors: [1776, 1799, 1815]
  - id: 7
    question: Pi to two places?
    answer: 3.10
  - question: Is the Earth round?
    answer: true
`
	d, err := ParseYAML([]byte(doc))
	require.NoError(t, err)
	require.Len(t, d.Cards, 4)

	assert.Equal(t, "4", d.Cards[0].Answer)
	assert.Equal(t, "1789", d.Cards[1].Answer)
	assert.Equal(t, []string{"1776", "1799", "1815"}, d.Cards[1].Distractors)
	assert.Equal(t, "7", d.Cards[2].ID)
	assert.Equal(t, "3.10", d.Cards[2].Answer, "source text is kept")
	assert.Equal(t, "true", d.Cards[3].Answer)
}

func TestParseYAML_Anchors(t *testing.T) {
	doc := `
shared: &years [1776, 1799]
cards:
  - question: When was the Bastille stormed?
    answer: 1789
    distractors: *years
`
	d, err := ParseYAML([]byte(doc))
	require.NoError(t, err)
	assert.Equal(t, []string{"1776", "1799"}, d.Cards[0].Distractors)
}

func TestParseJSON_SchemaViolation(t *testing.T) {
	_, err := ParseJSON([]byte(`{"cards": [{"question": 3, "answer": "x"}]}`))
	assert.Error(t, err)
}

func TestPool(t *testing.T) {
	cards := []Card{{ID: "a"}, {ID: "b"}, {ID: "c"}}
	pool := Pool(cards, "b")
	require.Len(t, pool, 2)
	assert.Equal(t, "a", pool[0].ID)
	assert.Equal(t, "c", pool[1].ID)

	assert.Empty(t, Pool([]Card{{ID: "only"}}, "only"))
}
