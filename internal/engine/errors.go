package engine

// GenerationError reports that the generation service stayed unavailable
// after the one permitted retry. The wrapped cause is for logs only; the
// message never carries upstream error text.
type GenerationError struct {
	Err error
}

func (e *GenerationError) Error() string {
	return "text generation failed, please try again or rephrase your question"
}

func (e *GenerationError) Unwrap() error { return e.Err }

// GenerationRefused reports a content policy rejection. Callers should show
// a different message than for a transient failure.
type GenerationRefused struct {
	Err error
}

func (e *GenerationRefused) Error() string {
	return "the question could not be answered due to a content policy restriction"
}

func (e *GenerationRefused) Unwrap() error { return e.Err }
