// Package llm provides generation clients behind a single Generator
// interface. Callers distinguish transient backend failures from content
// policy refusals with errors.Is against ErrUnavailable and ErrRefused.
package llm

import (
	"context"
	"errors"
)

// ErrUnavailable marks errors where the generation backend could not
// produce a completion (network failure, error status, empty output).
var ErrUnavailable = errors.New("generation service unavailable")

// ErrRefused marks completions rejected by the backend's content policy.
var ErrRefused = errors.New("generation refused by content policy")

// Request carries one generation call.
type Request struct {
	System      string
	User        string
	Temperature float64
	MaxTokens   int
}

// Generator produces a free-text completion for a system/user prompt pair.
type Generator interface {
	Generate(ctx context.Context, req Request) (string, error)
}
