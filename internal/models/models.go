package models

import "time"

// Fragment is a scored unit of retrieved source text with provenance.
// Score is cosine similarity normalized to [0,1]. Page is 0 when the
// source carries no page information.
type Fragment struct {
	ID         string  `json:"id"`
	Text       string  `json:"text"`
	Score      float64 `json:"score"`
	DocumentID string  `json:"document_id"`
	Page       int     `json:"page,omitempty"`
}

// Role identifies the author of a conversation turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// ConversationTurn is one prior message in a tutoring session. Turns are
// supplied by the chat store ordered oldest first.
type ConversationTurn struct {
	Role      Role      `json:"role"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// AnswerStrategy is the generation mode chosen for a request. The string
// values match the answer_type field of the original API.
type AnswerStrategy string

const (
	StrategyFragmentOnly AnswerStrategy = "pdf_only"
	StrategyBlended      AnswerStrategy = "mixed"
	StrategyGeneralOnly  AnswerStrategy = "external_only"
)

// StructuredAnswer is the parsed and repaired form of a model completion.
type StructuredAnswer struct {
	Definition  string   `json:"definition"`
	Explanation string   `json:"explanation"`
	Example     string   `json:"example,omitempty"`
	Table       string   `json:"table,omitempty"`
	FollowUp    string   `json:"follow_up,omitempty"`
	Sources     []string `json:"sources"`
	RawMarkdown string   `json:"raw_markdown"`
}

// ChunkRef describes a fragment that contributed to an answer.
type ChunkRef struct {
	ChunkID string  `json:"chunk_id"`
	Page    int     `json:"page"`
	Score   float64 `json:"score"`
	Snippet string  `json:"snippet"`
}

// Citation is the legacy citation shape kept for older consumers.
type Citation struct {
	Page    int    `json:"page"`
	Snippet string `json:"snippet"`
}

// FinalResponse is the complete answer returned to the caller. Citations
// and ConfidenceScore mirror Sources and Confidence for backward
// compatibility with the original response schema.
type FinalResponse struct {
	Answer     string         `json:"answer"`
	FollowUp   string         `json:"follow_up"`
	Sources    []string       `json:"sources"`
	AnswerType AnswerStrategy `json:"answer_type"`
	Confidence float64        `json:"confidence"`
	UsedChunks []ChunkRef     `json:"used_chunks"`

	// Legacy fields.
	Citations       []Citation `json:"citations"`
	DocID           string     `json:"doc_id,omitempty"`
	ConfidenceScore float64    `json:"confidence_score"`
	Timestamp       string     `json:"timestamp,omitempty"`
}

// Chunk is a unit of ingested document text waiting to be embedded and
// stored. The indexer produces these from PDF pages.
type Chunk struct {
	ID         int       `json:"id"`
	DocumentID string    `json:"document_id"`
	Content    string    `json:"content"`
	Page       int       `json:"page"`
	Embedding  []float64 `json:"embedding,omitempty"`
}
