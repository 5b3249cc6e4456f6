package generate

import (
	"math/rand/v2"

	"github.com/hpungsan/muse/internal/quote"
)

// prompts holds the per-category instructions sent to the model.
// Each asks for exactly one quote with no markdown, which the model often ignores.
var prompts = map[string][]string{
	"motivation": {
		"Generate ONE single, original motivational quote about perseverance. Make it concise, inspiring, and avoid markdown formatting. Just provide the quote text itself.",
		"Create ONE unique motivational saying about overcoming challenges. Return only the quote text without any numbering, options, or markdown.",
		"Write ONE inspirational quote about success and determination. Provide only the clean text of the quote.",
		"Generate ONE powerful motivational quote. Return just the quote text, no additional formatting or options.",
	},
	"success": {
		"Generate ONE quote about achieving true success. Return only the clean text without markdown or multiple options.",
		"Create ONE saying about the journey to success. Provide just the quote text.",
		"Write ONE quote about what success really means. No formatting, just the text.",
		"Generate ONE insight about success. Return only the quote text.",
	},
	"life": {
		"Generate ONE philosophical life quote. Return clean text only, no markdown.",
		"Create ONE wisdom saying about life. Just the quote text.",
		"Write ONE reflective quote about human existence. No formatting.",
		"Generate ONE life insight. Return only the text.",
	},
	"wisdom": {
		"Generate ONE piece of wisdom. Clean text only, no markdown.",
		"Create ONE thoughtful saying. Just the quote text.",
		"Write ONE insightful quote. No formatting or options.",
		"Generate ONE wisdom quote. Return only the text.",
	},
	"creativity": {
		"Generate ONE quote about creativity. Clean text only.",
		"Create ONE saying about imagination. Just the text.",
		"Write ONE inspirational creativity quote. No markdown.",
		"Generate ONE insight about innovation. Text only.",
	},
	"perseverance": {
		"Generate ONE quote about perseverance. Clean text only.",
		"Create ONE saying about resilience. Just the text.",
		"Write ONE powerful perseverance quote. No formatting.",
		"Generate ONE insight about persistence. Text only.",
	},
	"love": {
		"Generate ONE quote about love. Clean text only.",
		"Create ONE saying about relationships. Just the text.",
		"Write ONE beautiful love quote. No markdown.",
		"Generate ONE insight about love. Text only.",
	},
	"inspiration": {
		"Generate ONE inspirational quote. Clean text only.",
		"Create ONE uplifting saying. Just the text.",
		"Write ONE hopeful quote. No formatting.",
		"Generate ONE positive insight. Text only.",
	},
}

// Prompts returns the prompt list for a category.
// Unknown categories get the motivation prompts.
func Prompts(category string) []string {
	if p, ok := prompts[quote.NormalizeCategory(category)]; ok {
		return p
	}
	return prompts[quote.DefaultCategory]
}

// pickPrompt chooses one prompt for the category using intn.
func pickPrompt(category string, intn func(int) int) string {
	p := Prompts(category)
	if intn == nil {
		intn = rand.IntN
	}
	return p[intn(len(p))]
}
