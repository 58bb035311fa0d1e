package engine

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/pb1803/PDF-RAG/internal/llm"
	"github.com/pb1803/PDF-RAG/internal/models"
)

const compressSystemPrompt = `You rewrite textbook excerpts to be concise and student-friendly.
Keep every fact and detail, remove repetition, use clear simple language,
and never invent information that is not in the original text.
Reply with the rewritten text only.`

// compressFragments rewrites each fragment's text for readability through
// the generation service. Compression runs concurrently, bounded by
// CompressWorkers in-flight calls, and output order matches input order.
// A failed or empty rewrite keeps the original text; compression never
// fails a request.
func (e *Engine) compressFragments(ctx context.Context, fragments []models.Fragment) []models.Fragment {
	if len(fragments) == 0 {
		return fragments
	}

	out := make([]models.Fragment, len(fragments))
	copy(out, fragments)

	var wg sync.WaitGroup
	semaphore := make(chan struct{}, e.opts.CompressWorkers)

	for i := range out {
		wg.Add(1)
		semaphore <- struct{}{}

		go func(i int) {
			defer func() {
				wg.Done()
				<-semaphore
			}()

			compressed, err := e.compressOne(ctx, out[i])
			if err != nil {
				e.log.Warn("fragment compression failed, keeping raw text", map[string]interface{}{
					"chunk_id": out[i].ID,
					"error":    err.Error(),
				})
				return
			}
			out[i].Text = compressed
		}(i)
	}

	wg.Wait()
	return out
}

func (e *Engine) compressOne(ctx context.Context, fragment models.Fragment) (string, error) {
	callCtx, cancel := context.WithTimeout(ctx, e.opts.CallTimeout)
	defer cancel()

	text, err := e.gen.Generate(callCtx, llm.Request{
		System:      compressSystemPrompt,
		User:        fmt.Sprintf("Original text:\n%s", fragment.Text),
		Temperature: 0.1,
		MaxTokens:   500,
	})
	if err != nil {
		return "", err
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return "", fmt.Errorf("empty compression output")
	}
	return text, nil
}
