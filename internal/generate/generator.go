// Package generate asks a language model for quotes and turns its output
// into display text.
package generate

import "context"

// Result is one raw answer from a model.
type Result struct {
	Raw   string
	Model string
}

// Status reports whether a generator can serve requests and which model answers.
type Status struct {
	Ready bool   `json:"model_ready"`
	Model string `json:"model_name"`
}

// Generator produces raw quote text for a category.
type Generator interface {
	Generate(ctx context.Context, category string) (Result, error)
	Status() Status
}
