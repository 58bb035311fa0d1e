package engine

import (
	"time"

	"github.com/pb1803/PDF-RAG/internal/config"
)

// Options holds every tunable of the answer engine. Zero values are
// replaced with defaults by normalize, so a zero Options is usable.
type Options struct {
	// Strategy thresholds.
	LowScoreThreshold  float64
	HighScoreThreshold float64
	MinFragments       int

	// Retrieval and history.
	TopK          int
	HistoryWindow int
	HistoryCap    int

	// Prompting.
	MaxPromptBytes int
	Temperature    float64
	MaxTokens      int

	// Compression.
	CompressWorkers int

	// Per-call timeout for every external generation call.
	CallTimeout time.Duration

	// Citation rendering.
	MaxSourcePages int

	// Confidence bands. Fragment-grounded answers land in
	// [FragmentFloor, FragmentCeil], blended answers in
	// [BlendedFloor, BlendedCeil].
	FragmentFloor float64
	FragmentCeil  float64
	BlendedFloor  float64
	BlendedCeil   float64
}

// DefaultOptions returns the documented defaults.
func DefaultOptions() Options {
	var o Options
	o.normalize()
	return o
}

// OptionsFromConfig maps the loaded configuration onto engine Options.
func OptionsFromConfig(cfg *config.Config) Options {
	o := Options{
		LowScoreThreshold:  cfg.Engine.LowScoreThreshold,
		HighScoreThreshold: cfg.Engine.HighScoreThreshold,
		MinFragments:       cfg.Engine.MinFragments,
		TopK:               cfg.Engine.TopK,
		HistoryWindow:      cfg.Engine.HistoryWindow,
		HistoryCap:         cfg.Engine.HistoryCap,
		MaxPromptBytes:     cfg.Engine.MaxPromptBytes,
		Temperature:        cfg.LLM.Temperature,
		MaxTokens:          cfg.LLM.MaxTokens,
		CompressWorkers:    cfg.Engine.CompressWorkers,
		CallTimeout:        time.Duration(cfg.LLM.TimeoutSeconds) * time.Second,
		MaxSourcePages:     cfg.Engine.MaxSourcePages,
		FragmentFloor:      cfg.Engine.FragmentFloor,
		FragmentCeil:       cfg.Engine.FragmentCeil,
		BlendedFloor:       cfg.Engine.BlendedFloor,
		BlendedCeil:        cfg.Engine.BlendedCeil,
	}
	o.normalize()
	return o
}

func (o *Options) normalize() {
	if o.LowScoreThreshold == 0 {
		o.LowScoreThreshold = 0.3
	}
	if o.HighScoreThreshold == 0 {
		o.HighScoreThreshold = 0.55
	}
	if o.MinFragments <= 0 {
		o.MinFragments = 1
	}
	if o.TopK <= 0 {
		o.TopK = 5
	}
	if o.HistoryWindow <= 0 {
		o.HistoryWindow = 10
	}
	if o.HistoryCap <= 0 {
		o.HistoryCap = 20
	}
	if o.MaxPromptBytes <= 0 {
		o.MaxPromptBytes = 24576
	}
	if o.Temperature == 0 {
		o.Temperature = 0.1
	}
	if o.MaxTokens <= 0 {
		o.MaxTokens = 1500
	}
	if o.CompressWorkers <= 0 {
		o.CompressWorkers = 3
	}
	if o.CallTimeout <= 0 {
		o.CallTimeout = 60 * time.Second
	}
	if o.MaxSourcePages <= 0 {
		o.MaxSourcePages = 3
	}
	if o.FragmentCeil == 0 {
		o.FragmentFloor = 0.5
		o.FragmentCeil = 1.0
	}
	if o.BlendedCeil == 0 {
		o.BlendedFloor = 0.3
		o.BlendedCeil = 0.7
	}
}
