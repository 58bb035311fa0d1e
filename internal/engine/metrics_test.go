package engine

import (
	"context"
	"fmt"
	"testing"

	"github.com/pb1803/PDF-RAG/internal/llm"
	"github.com/pb1803/PDF-RAG/internal/models"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsCountAnswersByStrategy(t *testing.T) {
	reg := prometheus.NewRegistry()
	gen := &fakeGenerator{answer: wellFormedAnswer}
	source := &fakeSource{fragments: []models.Fragment{frag("d1", 1, 0.9)}}
	eng := newTestEngine(gen, source, nil).WithMetrics(NewMetrics(reg))

	_, err := eng.Answer(context.Background(), AnswerRequest{Question: "What is a database?"})
	require.NoError(t, err)

	count := testutil.ToFloat64(eng.metrics.answers.WithLabelValues(string(models.StrategyFragmentOnly)))
	assert.Equal(t, 1.0, count)
}

func TestMetricsCountRetrievalFailures(t *testing.T) {
	reg := prometheus.NewRegistry()
	gen := &fakeGenerator{answer: wellFormedAnswer}
	source := &fakeSource{err: fmt.Errorf("store down")}
	eng := newTestEngine(gen, source, nil).WithMetrics(NewMetrics(reg))

	_, err := eng.Answer(context.Background(), AnswerRequest{Question: "anything"})
	require.NoError(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(eng.metrics.retrievalFailures))
}

func TestMetricsCountGenerationFailuresByKind(t *testing.T) {
	reg := prometheus.NewRegistry()
	gen := &fakeGenerator{answerErr: fmt.Errorf("%w: policy", llm.ErrRefused)}
	eng := newTestEngine(gen, &fakeSource{}, nil).WithMetrics(NewMetrics(reg))

	_, err := eng.Answer(context.Background(), AnswerRequest{Question: "anything"})
	require.Error(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(eng.metrics.failures.WithLabelValues("refused")))
	assert.Equal(t, 0.0, testutil.ToFloat64(eng.metrics.failures.WithLabelValues("unavailable")))
}

func TestEngineRunsWithoutMetrics(t *testing.T) {
	gen := &fakeGenerator{answer: wellFormedAnswer}
	eng := newTestEngine(gen, &fakeSource{}, nil)

	_, err := eng.Answer(context.Background(), AnswerRequest{Question: "anything"})
	assert.NoError(t, err)
}
