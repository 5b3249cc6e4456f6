package generate

import (
	"context"
	"sync"
)

// Static is a Generator that cycles through fixed responses.
// It backs offline use and tests.
type Static struct {
	mu        sync.Mutex
	responses []string
	next      int
	calls     []string

	// Err, when set, is returned by every Generate call.
	Err error
}

// NewStatic returns a Static generator answering with responses in order,
// wrapping around at the end.
func NewStatic(responses ...string) *Static {
	return &Static{responses: responses}
}

// Generate implements Generator.
func (s *Static) Generate(ctx context.Context, category string) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.calls = append(s.calls, category)
	if s.Err != nil {
		return Result{}, s.Err
	}
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	if len(s.responses) == 0 {
		return Result{Model: "static"}, nil
	}
	raw := s.responses[s.next%len(s.responses)]
	s.next++
	return Result{Raw: raw, Model: "static"}, nil
}

// Status implements Generator.
func (s *Static) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Status{Ready: s.Err == nil, Model: "static"}
}

// Calls returns the categories requested so far.
func (s *Static) Calls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.calls...)
}
