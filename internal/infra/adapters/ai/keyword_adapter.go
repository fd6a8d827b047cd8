package ai

import (
	"context"
	"strings"

	"sitfit-api/internal/domain/ports/adapter"
)

var _ adapter.StyleAdvisor = (*KeywordAdvisor)(nil)

// KeywordAdvisor answers from canned guides picked by keywords in the prompt.
// It never fails, so it doubles as the fallback when a model provider is down.
type KeywordAdvisor struct{}

func NewKeywordAdvisor() *KeywordAdvisor { return &KeywordAdvisor{} }

func (KeywordAdvisor) Name() string { return "keyword" }

type guide struct {
	keywords []string
	text     string
}

var guides = []guide{
	{
		keywords: []string{"interview", "job", "work", "professional"},
		text: `**Interview outfit ideas**

- Navy or charcoal blazer with matching trousers
- Crisp white or light blue button-down shirt
- Leather oxfords or loafers, minimal jewelry

**Styling tips**
- Fit matters most: tailored pieces look expensive
- Keep colors conservative and neutral
- Iron everything the night before`,
	},
	{
		keywords: []string{"casual", "weekend", "relax"},
		text: `**Relaxed weekend looks**

- Well-fitted jeans or chinos with a soft cotton tee or light sweater
- Clean white sneakers or casual loafers
- A denim jacket or cardigan for layering

**Styling tips**
- Mix textures, such as denim with knits
- Add personality with one fun accessory`,
	},
	{
		keywords: []string{"date", "dinner", "evening", "romantic"},
		text: `**Date night looks**

- A little black dress or smart separates with a statement accessory
- Dark jeans with a silk blouse or a sharp shirt and blazer
- Ankle boots, dress shoes or comfortable heels

**Styling tips**
- Wear something you feel great in
- Add a pop of your favorite color`,
	},
}

const defaultGuide = `**Everyday style guide**

- Build around versatile basics: dark jeans, white shirt, neutral knit
- Pick one statement piece per outfit
- Match the formality of your shoes to the occasion

**Styling tips**
- Fit first, then color
- Stick to two or three colors per look`

func (KeywordAdvisor) Advise(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	q := strings.ToLower(userPrompt)
	for _, g := range guides {
		for _, k := range g.keywords {
			if strings.Contains(q, k) {
				return g.text, nil
			}
		}
	}
	return defaultGuide, nil
}
