package engine

import (
	"fmt"

	"github.com/pb1803/PDF-RAG/internal/models"
)

// SelectStrategy classifies a retrieval result into one of the three answer
// strategies. It is a pure function of the fragment scores and counts.
//
// Near-duplicate fragments (same document and page) count as a single
// signal, so duplicate retrieval cannot inflate the fragment count.
func SelectStrategy(fragments []models.Fragment, opts Options) models.AnswerStrategy {
	if len(fragments) == 0 {
		return models.StrategyGeneralOnly
	}

	maxScore := 0.0
	for _, f := range fragments {
		if f.Score > maxScore {
			maxScore = f.Score
		}
	}

	if maxScore < opts.LowScoreThreshold {
		return models.StrategyGeneralOnly
	}

	strong := 0
	seen := make(map[string]bool, len(fragments))
	for _, f := range fragments {
		if f.Score < opts.HighScoreThreshold {
			continue
		}
		key := signalKey(f)
		if seen[key] {
			continue
		}
		seen[key] = true
		strong++
	}

	if maxScore >= opts.HighScoreThreshold && strong >= opts.MinFragments {
		return models.StrategyFragmentOnly
	}

	return models.StrategyBlended
}

// signalKey is the identity used to collapse near-duplicate fragments.
func signalKey(f models.Fragment) string {
	return fmt.Sprintf("%s:%d", f.DocumentID, f.Page)
}
