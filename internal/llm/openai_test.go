package llm

import (
	"errors"
	"fmt"
	"testing"

	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
)

func TestIsRefusal(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{
			name: "content policy violation",
			err: &openai.APIError{
				HTTPStatusCode: 400,
				Code:           "content_policy_violation",
				Message:        "Your request was rejected.",
			},
			want: true,
		},
		{
			name: "content filter code",
			err: &openai.APIError{
				HTTPStatusCode: 400,
				Code:           "content_filter",
			},
			want: true,
		},
		{
			name: "policy mentioned in message only",
			err: &openai.APIError{
				HTTPStatusCode: 400,
				Message:        "This request violates our content policy.",
			},
			want: true,
		},
		{
			name: "plain bad request",
			err: &openai.APIError{
				HTTPStatusCode: 400,
				Code:           "invalid_request_error",
				Message:        "max_tokens is too large",
			},
			want: false,
		},
		{
			name: "rate limit",
			err: &openai.APIError{
				HTTPStatusCode: 429,
				Code:           "rate_limit_exceeded",
			},
			want: false,
		},
		{
			name: "server error",
			err: &openai.APIError{
				HTTPStatusCode: 500,
			},
			want: false,
		},
		{
			name: "wrapped api error",
			err: fmt.Errorf("request failed: %w", &openai.APIError{
				HTTPStatusCode: 400,
				Code:           "content_policy_violation",
			}),
			want: true,
		},
		{
			name: "not an api error",
			err:  errors.New("dial tcp: connection refused"),
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isRefusal(tt.err))
		})
	}
}

func TestErrorSentinelsAreDistinct(t *testing.T) {
	assert.False(t, errors.Is(ErrUnavailable, ErrRefused))

	wrapped := fmt.Errorf("%w: upstream detail", ErrRefused)
	assert.True(t, errors.Is(wrapped, ErrRefused))
	assert.False(t, errors.Is(wrapped, ErrUnavailable))
}
