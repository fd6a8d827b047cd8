package imagegen

import (
	"context"
	"fmt"
	"sync"

	"sitfit-api/internal/domain/model"
	"sitfit-api/internal/domain/ports/adapter"
)

var _ adapter.ImageGenerator = (*NoopGenerator)(nil)

// NoopGenerator returns a placeholder URL without calling any provider.
type NoopGenerator struct {
	mu  sync.Mutex
	seq int64
}

func NewNoopGenerator() *NoopGenerator { return &NoopGenerator{} }

func (g *NoopGenerator) Name() string { return "noop" }

func (g *NoopGenerator) Generate(ctx context.Context, in model.TryOnInput) (*adapter.GenerationResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	g.mu.Lock()
	g.seq++
	id := fmt.Sprintf("noop-%d", g.seq)
	g.mu.Unlock()
	return &adapter.GenerationResult{
		ImageURL:  "https://example.test/tryon/" + id + ".jpg",
		RequestID: id,
		Message:   "generated without a provider",
	}, nil
}
