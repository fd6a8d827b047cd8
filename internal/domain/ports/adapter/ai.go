package adapter

import "context"

// StyleAdvisor answers a fashion question with free text.
type StyleAdvisor interface {
	Name() string
	Advise(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// TokenCounter reports how many tokens the given texts take together.
type TokenCounter interface {
	CountTokens(ctx context.Context, texts ...string) (int, error)
}
