package tui

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/hpungsan/muse/internal/client"
	"github.com/hpungsan/muse/internal/quote"
)

// copiedFor is how long the copy confirmation stays visible.
const copiedFor = 2 * time.Second

// quoteResultMsg conveys the outcome of a quote request.
type quoteResultMsg struct {
	category string
	raw      string
	err      error
}

// savedResultMsg conveys a reload of the saved collection.
type savedResultMsg struct {
	items []quote.Summary
	err   error
}

// mutationResultMsg conveys the outcome of a save, edit or delete.
type mutationResultMsg struct {
	status string
	err    error
}

// clearCopiedMsg hides the copy confirmation.
type clearCopiedMsg struct{}

func fetchQuoteCmd(ctx context.Context, b Backend, category string) tea.Cmd {
	return func() tea.Msg {
		raw, err := b.Quote(ctx, category)
		return quoteResultMsg{category: category, raw: raw, err: err}
	}
}

func loadSavedCmd(ctx context.Context, b Backend) tea.Cmd {
	return func() tea.Msg {
		items, err := b.List(ctx, "")
		return savedResultMsg{items: items, err: err}
	}
}

func createCmd(ctx context.Context, b Backend, in client.NewQuote, status string) tea.Cmd {
	return func() tea.Msg {
		if _, err := b.Create(ctx, in); err != nil {
			return mutationResultMsg{err: fmt.Errorf("save failed: %w", err)}
		}
		return mutationResultMsg{status: status}
	}
}

func updateCmd(ctx context.Context, b Backend, id string, edit client.QuoteEdit) tea.Cmd {
	return func() tea.Msg {
		if _, err := b.Update(ctx, id, edit); err != nil {
			return mutationResultMsg{err: fmt.Errorf("update failed: %w", err)}
		}
		return mutationResultMsg{status: "Quote updated."}
	}
}

func deleteCmd(ctx context.Context, b Backend, id string) tea.Cmd {
	return func() tea.Msg {
		if err := b.Delete(ctx, id); err != nil {
			return mutationResultMsg{err: fmt.Errorf("delete failed: %w", err)}
		}
		return mutationResultMsg{status: "Quote deleted."}
	}
}

func clearCopiedCmd() tea.Cmd {
	return tea.Tick(copiedFor, func(time.Time) tea.Msg { return clearCopiedMsg{} })
}
