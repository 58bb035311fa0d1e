// Package engine implements the answer orchestration engine: it takes a
// question, retrieved fragments and a bounded conversation window, picks a
// generation strategy, and produces a structured, cited, confidence-scored
// answer.
//
// The engine is stateless between calls. Everything it needs arrives
// through its constructor or the AnswerRequest, so concurrent requests
// never interfere.
package engine

import (
	"context"
	"fmt"

	"github.com/pb1803/PDF-RAG/internal/llm"
	"github.com/pb1803/PDF-RAG/internal/logger"
	"github.com/pb1803/PDF-RAG/internal/models"
)

// FragmentSource returns ranked candidate fragments for a query. An empty
// result is not an error.
type FragmentSource interface {
	Search(ctx context.Context, query, docScope string, topK int) ([]models.Fragment, error)
}

// ConversationStore supplies the prior turns of a session, oldest first.
type ConversationStore interface {
	RecentTurns(ctx context.Context, sessionID string, limit int) ([]models.ConversationTurn, error)
}

// Engine orchestrates one answer per call.
type Engine struct {
	gen     llm.Generator
	source  FragmentSource
	history ConversationStore
	opts    Options
	log     logger.Logger
	metrics *Metrics
}

// New creates an Engine. source and history may be nil, in which case
// every request is answered from general knowledge without conversation
// context.
func New(gen llm.Generator, source FragmentSource, history ConversationStore, opts Options, log logger.Logger) *Engine {
	opts.normalize()
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &Engine{
		gen:     gen,
		source:  source,
		history: history,
		opts:    opts,
		log:     log,
	}
}

// WithMetrics attaches a metrics recorder. Call before serving requests.
func (e *Engine) WithMetrics(m *Metrics) *Engine {
	e.metrics = m
	return e
}

// AnswerRequest is the public input of the engine.
type AnswerRequest struct {
	Question  string
	SessionID string
	DocScope  string
	TopK      int
}

// Answer processes one question end to end: retrieve, select strategy,
// compress, compose, synthesize, postprocess, assemble.
//
// Retrieval failures degrade to a general-knowledge answer. Generation
// failures surface as *GenerationError after one retry; content policy
// rejections surface as *GenerationRefused. The caller always receives
// either a complete FinalResponse or one of those two error kinds.
func (e *Engine) Answer(ctx context.Context, req AnswerRequest) (*models.FinalResponse, error) {
	if req.Question == "" {
		return nil, fmt.Errorf("question must not be empty")
	}
	topK := req.TopK
	if topK <= 0 {
		topK = e.opts.TopK
	}

	window := e.conversationWindow(ctx, req.SessionID)
	fragments := e.retrieve(ctx, req.Question, req.DocScope, topK)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	strategy := SelectStrategy(fragments, e.opts)
	e.log.Info("answer strategy selected", map[string]interface{}{
		"strategy":  string(strategy),
		"fragments": len(fragments),
	})

	var used []models.Fragment
	if strategy != models.StrategyGeneralOnly {
		used = e.compressFragments(ctx, fragments)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	raw, err := e.synthesize(ctx, promptInput{
		question:  req.Question,
		strategy:  strategy,
		fragments: used,
		window:    window,
	})
	if err != nil {
		e.countFailure(err)
		return nil, err
	}

	structured := e.postprocess(ctx, raw, originalFragments(fragments, strategy), strategy, req.Question)
	confidence := computeConfidence(strategy, fragments, e.opts)

	resp := assemble(structured, strategy, confidence, originalFragments(fragments, strategy))
	resp.DocID = req.DocScope
	e.countAnswer(strategy)

	return resp, nil
}

// conversationWindow reads the bounded window of prior turns. History
// failures are absorbed; a request without context is still answerable.
func (e *Engine) conversationWindow(ctx context.Context, sessionID string) []models.ConversationTurn {
	if e.history == nil || sessionID == "" {
		return nil
	}

	turns, err := e.history.RecentTurns(ctx, sessionID, e.opts.HistoryCap)
	if err != nil {
		e.log.Warn("conversation store unavailable, answering without context", map[string]interface{}{
			"session_id": sessionID,
			"error":      err.Error(),
		})
		return nil
	}
	if len(turns) > e.opts.HistoryWindow {
		turns = turns[len(turns)-e.opts.HistoryWindow:]
	}
	return turns
}

// retrieve searches the fragment source. Infrastructure failures degrade
// the request to the general-knowledge strategy instead of failing it.
func (e *Engine) retrieve(ctx context.Context, question, docScope string, topK int) []models.Fragment {
	if e.source == nil {
		return nil
	}

	fragments, err := e.source.Search(ctx, question, docScope, topK)
	if err != nil {
		e.log.Warn("fragment source unavailable, degrading to general knowledge", map[string]interface{}{
			"error": err.Error(),
		})
		e.countRetrievalFailure()
		return nil
	}
	return fragments
}

// originalFragments returns the fragments whose metadata feeds citations.
// Citations always come from retrieval metadata, never from compressed
// text or from the completion.
func originalFragments(fragments []models.Fragment, strategy models.AnswerStrategy) []models.Fragment {
	if strategy == models.StrategyGeneralOnly {
		return nil
	}
	return fragments
}
