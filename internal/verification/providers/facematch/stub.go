package facematch

import (
	"context"

	"kycdesk/internal/verification/providers"
)

// Stub returns a fixed comparison. It backs local runs without an API key.
type Stub struct {
	Score       float64
	Explanation string
}

// NewStub returns a comparer that always reports score.
func NewStub(score float64) *Stub {
	return &Stub{Score: min(max(score, 0), 1), Explanation: "Stub comparison: no face matching model configured."}
}

func (*Stub) ID() string { return "stub" }

func (s *Stub) Compare(ctx context.Context, _, _ string) (*providers.Comparison, error) {
	if err := ctx.Err(); err != nil {
		return nil, providers.NewError(providers.CategoryTimeout, "stub", "comparison cancelled", err)
	}
	return &providers.Comparison{Score: s.Score, Explanation: s.Explanation}, nil
}
