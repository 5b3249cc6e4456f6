package generate

import (
	"context"

	lru "github.com/hashicorp/golang-lru"
	"go.uber.org/zap"

	"github.com/hpungsan/muse/internal/quote"
)

// FallbackQuote is shown when the model's answer normalizes to nothing.
const FallbackQuote = "Inspiration comes to those who seek it."

// Quote is a generated quote ready for display.
type Quote struct {
	Text     string
	Raw      string
	Category string
	Model    string
}

// Service turns raw model output into display text and avoids handing out
// the same quote twice in a row for a category.
type Service struct {
	gen    Generator
	recent *lru.Cache
	logger *zap.Logger
}

// NewService wraps gen. memory is how many recent quotes are remembered;
// zero or less disables repeat suppression.
func NewService(gen Generator, memory int, logger *zap.Logger) (*Service, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Service{gen: gen, logger: logger}
	if memory > 0 {
		cache, err := lru.New(memory)
		if err != nil {
			return nil, err
		}
		s.recent = cache
	}
	return s, nil
}

// Status reports the underlying generator's status.
func (s *Service) Status() Status {
	return s.gen.Status()
}

// Generate asks the model for a quote in category and normalizes the answer.
// If the display text was handed out recently for the category, the model is
// asked once more and the second answer is used regardless.
func (s *Service) Generate(ctx context.Context, category string) (*Quote, error) {
	res, err := s.gen.Generate(ctx, category)
	if err != nil {
		return nil, err
	}
	text := quote.Normalize(res.Raw)

	if s.seen(category, text) {
		s.logger.Debug("repeat quote, asking again", zap.String("category", category))
		again, err := s.gen.Generate(ctx, category)
		if err == nil {
			res = again
			text = quote.Normalize(res.Raw)
		}
	}

	if text == "" {
		text = FallbackQuote
	}
	s.remember(category, text)

	return &Quote{
		Text:     text,
		Raw:      res.Raw,
		Category: category,
		Model:    res.Model,
	}, nil
}

func recentKey(category, text string) string {
	return category + "\x00" + text
}

func (s *Service) seen(category, text string) bool {
	if s.recent == nil || text == "" {
		return false
	}
	return s.recent.Contains(recentKey(category, text))
}

func (s *Service) remember(category, text string) {
	if s.recent == nil {
		return
	}
	s.recent.Add(recentKey(category, text), struct{}{})
}
