package engine

import (
	"testing"

	"github.com/pb1803/PDF-RAG/internal/models"

	"github.com/stretchr/testify/assert"
)

func frag(doc string, page int, score float64) models.Fragment {
	return models.Fragment{
		ID:         "chunk",
		Text:       "some content",
		Score:      score,
		DocumentID: doc,
		Page:       page,
	}
}

func TestSelectStrategy(t *testing.T) {
	opts := DefaultOptions()

	tests := []struct {
		name      string
		fragments []models.Fragment
		opts      Options
		expected  models.AnswerStrategy
	}{
		{
			name:      "no fragments",
			fragments: nil,
			opts:      opts,
			expected:  models.StrategyGeneralOnly,
		},
		{
			name:      "all scores below low threshold",
			fragments: []models.Fragment{frag("d1", 1, 0.1), frag("d1", 2, 0.29)},
			opts:      opts,
			expected:  models.StrategyGeneralOnly,
		},
		{
			name:      "max score at high threshold",
			fragments: []models.Fragment{frag("d1", 1, 0.55)},
			opts:      opts,
			expected:  models.StrategyFragmentOnly,
		},
		{
			name:      "max score above high threshold",
			fragments: []models.Fragment{frag("d1", 1, 0.9), frag("d1", 2, 0.2)},
			opts:      opts,
			expected:  models.StrategyFragmentOnly,
		},
		{
			name:      "middling score lands in blended",
			fragments: []models.Fragment{frag("d1", 1, 0.4)},
			opts:      opts,
			expected:  models.StrategyBlended,
		},
		{
			name:      "score exactly at low threshold is blended",
			fragments: []models.Fragment{frag("d1", 1, 0.3)},
			opts:      opts,
			expected:  models.StrategyBlended,
		},
		{
			name:      "near-duplicates count as one signal",
			fragments: []models.Fragment{frag("d1", 7, 0.8), frag("d1", 7, 0.79)},
			opts: func() Options {
				o := DefaultOptions()
				o.MinFragments = 2
				return o
			}(),
			expected: models.StrategyBlended,
		},
		{
			name:      "distinct pages satisfy the fragment count",
			fragments: []models.Fragment{frag("d1", 7, 0.8), frag("d1", 8, 0.79)},
			opts: func() Options {
				o := DefaultOptions()
				o.MinFragments = 2
				return o
			}(),
			expected: models.StrategyFragmentOnly,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, SelectStrategy(tt.fragments, tt.opts))
		})
	}
}

func TestSelectStrategyIsPure(t *testing.T) {
	opts := DefaultOptions()
	fragments := []models.Fragment{frag("d1", 1, 0.6), frag("d2", 3, 0.4)}

	first := SelectStrategy(fragments, opts)
	second := SelectStrategy(fragments, opts)

	assert.Equal(t, first, second)
	assert.Equal(t, 0.6, fragments[0].Score, "input must not be mutated")
}
