package extract

import (
	"context"
	"errors"
)

// DefaultMinTranscriptChars is the viability threshold applied when the
// resolver is constructed with a zero value. The floor keeps near-empty
// auto-caption fragments from being reported as a usable transcript.
const DefaultMinTranscriptChars = 50

// Resolver runs a priority-ordered list of strategies against one request and
// returns the first viable result. It performs no I/O of its own: timeouts,
// retries and protocol details belong to each strategy. A resolver holds no
// mutable state, so one value may serve concurrent callers.
type Resolver struct {
	// MinTranscriptChars is the minimum cleaned-text length for a transcript
	// artifact to count as a success. Zero means DefaultMinTranscriptChars.
	MinTranscriptChars int
}

// Resolution is the successful outcome of a resolve call: the artifact, the
// name of the strategy that produced it, and the attempts that failed before
// it. Immutable once returned.
type Resolution struct {
	Artifact Artifact
	Strategy string
	Attempts []Attempt
}

// Resolve tries each strategy in order and returns the first viable artifact.
// Strategies after the first success are never invoked. When every strategy
// fails or produces a sub-threshold artifact, the returned error is an
// *ExhaustedError carrying every attempt. An empty strategy list returns
// ErrNoStrategies. Panics from a misbehaving strategy are not recovered;
// they indicate a defect, not an extraction failure.
func (r *Resolver) Resolve(ctx context.Context, req Request, strategies []Strategy) (*Resolution, error) {
	if len(strategies) == 0 {
		return nil, ErrNoStrategies
	}

	minChars := r.MinTranscriptChars
	if minChars <= 0 {
		minChars = DefaultMinTranscriptChars
	}

	attempts := make([]Attempt, 0, len(strategies))
	for _, strategy := range strategies {
		artifact, err := strategy.Attempt(ctx, req)
		if err != nil {
			attempts = append(attempts, Attempt{Strategy: strategy.Name(), Err: err})
			continue
		}
		if artifact == nil || !artifact.Viable(minChars) {
			attempts = append(attempts, Attempt{
				Strategy: strategy.Name(),
				Err:      wrapCategory(CategoryNoData, errors.New("artifact below viability threshold")),
			})
			continue
		}
		return &Resolution{Artifact: artifact, Strategy: strategy.Name(), Attempts: attempts}, nil
	}

	return nil, &ExhaustedError{Kind: req.Kind, Attempts: attempts}
}
