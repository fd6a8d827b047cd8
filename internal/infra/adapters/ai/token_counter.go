package ai

import (
	"context"
	"fmt"
	"sync"

	"github.com/pkoukk/tiktoken-go"

	"sitfit-api/internal/domain/ports/adapter"
)

var _ adapter.TokenCounter = (*TiktokenCounter)(nil)

const fallbackEncoding = "cl100k_base"

// TiktokenCounter counts prompt tokens with the BPE encoding of model, or
// cl100k_base for models tiktoken does not know (Gemini among them). The
// encoding is loaded on first use; a failed load is remembered.
type TiktokenCounter struct {
	model string

	once sync.Once
	enc  *tiktoken.Tiktoken
	err  error
}

func NewTiktokenCounter(model string) *TiktokenCounter {
	return &TiktokenCounter{model: model}
}

func (c *TiktokenCounter) load() {
	if c.model != "" {
		if enc, err := tiktoken.EncodingForModel(c.model); err == nil {
			c.enc = enc
			return
		}
	}
	c.enc, c.err = tiktoken.GetEncoding(fallbackEncoding)
}

func (c *TiktokenCounter) CountTokens(ctx context.Context, texts ...string) (int, error) {
	c.once.Do(c.load)
	if c.err != nil {
		return 0, fmt.Errorf("tiktoken: %w", c.err)
	}
	n := 0
	for _, t := range texts {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		n += len(c.enc.Encode(t, nil, nil))
	}
	return n, nil
}
