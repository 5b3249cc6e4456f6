package ops

import (
	"context"

	"github.com/hpungsan/muse/internal/config"
	"github.com/hpungsan/muse/internal/generate"
)

// GenerateInput contains parameters for the Generate operation.
type GenerateInput struct {
	Category string // default: config default_category
}

// GenerateOutput contains the result of the Generate operation.
type GenerateOutput struct {
	Quote    string `json:"quote"`
	Raw      string `json:"raw"`
	Category string `json:"category"`
	Model    string `json:"model"`
}

// Generate asks the generation service for a quote in a category.
func Generate(ctx context.Context, svc *generate.Service, cfg *config.Config, input GenerateInput) (*GenerateOutput, error) {
	category, err := ResolveCategory(input.Category, cfg.DefaultCategory)
	if err != nil {
		return nil, err
	}

	q, err := svc.Generate(ctx, category)
	if err != nil {
		return nil, err
	}

	return &GenerateOutput{
		Quote:    q.Text,
		Raw:      q.Raw,
		Category: q.Category,
		Model:    q.Model,
	}, nil
}
