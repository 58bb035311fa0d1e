package engine

import (
	"context"
	"errors"
	"time"

	"github.com/pb1803/PDF-RAG/internal/llm"
)

// synthesize runs the main generation call for a composed request. On a
// transient failure it retries exactly once with a shortened prompt (the
// oldest conversation turn dropped). Content policy refusals are never
// retried and surface immediately as *GenerationRefused; anything else
// surfaces as *GenerationError after the retry.
func (e *Engine) synthesize(ctx context.Context, in promptInput) (string, error) {
	system, user := composePrompt(in, e.opts)

	start := time.Now()
	raw, err := e.generate(ctx, system, user)
	e.observeGeneration(time.Since(start))
	if err == nil {
		return raw, nil
	}
	if errors.Is(err, llm.ErrRefused) {
		return "", &GenerationRefused{Err: err}
	}
	if ctx.Err() != nil {
		return "", ctx.Err()
	}

	e.log.Warn("generation failed, retrying with shortened prompt", map[string]interface{}{
		"error": err.Error(),
	})

	if len(in.window) > 0 {
		in.window = in.window[1:]
	}
	system, user = composePrompt(in, e.opts)

	raw, err = e.generate(ctx, system, user)
	if err == nil {
		return raw, nil
	}
	if errors.Is(err, llm.ErrRefused) {
		return "", &GenerationRefused{Err: err}
	}
	if ctx.Err() != nil {
		return "", ctx.Err()
	}
	return "", &GenerationError{Err: err}
}

// generate performs one generation call under the per-call timeout.
func (e *Engine) generate(ctx context.Context, system, user string) (string, error) {
	callCtx, cancel := context.WithTimeout(ctx, e.opts.CallTimeout)
	defer cancel()

	return e.gen.Generate(callCtx, llm.Request{
		System:      system,
		User:        user,
		Temperature: e.opts.Temperature,
		MaxTokens:   e.opts.MaxTokens,
	})
}
