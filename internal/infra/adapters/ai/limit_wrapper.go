package ai

import (
	"context"

	"sitfit-api/internal/domain/ports/adapter"
)

// Compile-time check
var _ adapter.StyleAdvisor = (*limitedAdvisor)(nil)

// limitedAdvisor caps in-flight provider calls. Waiting callers give up when
// their context ends.
type limitedAdvisor struct {
	inner adapter.StyleAdvisor
	sem   chan struct{}
}

func NewLimitedAdvisor(inner adapter.StyleAdvisor, maxConcurrent int) adapter.StyleAdvisor {
	if maxConcurrent <= 0 {
		return inner
	}
	return &limitedAdvisor{
		inner: inner,
		sem:   make(chan struct{}, maxConcurrent),
	}
}

func (l *limitedAdvisor) Name() string { return l.inner.Name() }

func (l *limitedAdvisor) Advise(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	select {
	case l.sem <- struct{}{}:
	case <-ctx.Done():
		return "", ctx.Err()
	}
	defer func() { <-l.sem }()
	return l.inner.Advise(ctx, systemPrompt, userPrompt)
}
