package engine

import (
	"sort"
	"strings"
	"time"

	"github.com/pb1803/PDF-RAG/internal/models"
)

const (
	usedChunkSnippetLen = 200
	citationSnippetLen  = 150
)

// assemble merges the postprocessed answer with legacy-compatible fields
// into the FinalResponse. Pure merge; no network or storage side effects.
func assemble(sa models.StructuredAnswer, strategy models.AnswerStrategy, confidence float64, fragments []models.Fragment) *models.FinalResponse {
	return &models.FinalResponse{
		Answer:     sa.RawMarkdown,
		FollowUp:   sa.FollowUp,
		Sources:    sa.Sources,
		AnswerType: strategy,
		Confidence: confidence,
		UsedChunks: usedChunks(fragments),

		Citations:       legacyCitations(fragments),
		ConfidenceScore: confidence,
		Timestamp:       time.Now().UTC().Format(time.RFC3339),
	}
}

func usedChunks(fragments []models.Fragment) []models.ChunkRef {
	refs := make([]models.ChunkRef, 0, len(fragments))
	for _, f := range fragments {
		refs = append(refs, models.ChunkRef{
			ChunkID: f.ID,
			Page:    f.Page,
			Score:   f.Score,
			Snippet: wordSnippet(f.Text, usedChunkSnippetLen),
		})
	}
	return refs
}

// legacyCitations builds one citation per distinct page, using the
// highest-scoring fragment on that page.
func legacyCitations(fragments []models.Fragment) []models.Citation {
	bestByPage := make(map[int]models.Fragment)
	for _, f := range fragments {
		if f.Page <= 0 {
			continue
		}
		if cur, ok := bestByPage[f.Page]; !ok || f.Score > cur.Score {
			bestByPage[f.Page] = f
		}
	}

	pages := make([]int, 0, len(bestByPage))
	for p := range bestByPage {
		pages = append(pages, p)
	}
	sort.Ints(pages)

	citations := make([]models.Citation, 0, len(pages))
	for _, p := range pages {
		citations = append(citations, models.Citation{
			Page:    p,
			Snippet: sentenceSnippet(bestByPage[p].Text, citationSnippetLen),
		})
	}
	return citations
}

// wordSnippet truncates text at a word boundary near maxLen.
func wordSnippet(text string, maxLen int) string {
	if len(text) <= maxLen {
		return text
	}
	snippet := text[:maxLen]
	if idx := strings.LastIndex(snippet, " "); idx > maxLen*4/5 {
		snippet = snippet[:idx]
	}
	return snippet + "..."
}

// sentenceSnippet prefers the first full sentence when it fits within
// maxLen, otherwise truncates at a word boundary.
func sentenceSnippet(text string, maxLen int) string {
	if len(text) <= maxLen {
		return text
	}
	if idx := strings.IndexAny(text, ".!?"); idx > 0 && idx < maxLen {
		return text[:idx+1]
	}
	return wordSnippet(text, maxLen)
}
