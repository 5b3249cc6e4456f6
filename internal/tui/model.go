// Package tui is the terminal quote browser. It drives a muse server through
// the HTTP client and keeps its screen state in view.State.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/hpungsan/muse/internal/client"
	"github.com/hpungsan/muse/internal/quote"
	"github.com/hpungsan/muse/internal/view"
)

// Backend is the server API the browser needs. *client.Client implements it.
type Backend interface {
	Quote(ctx context.Context, category string) (string, error)
	List(ctx context.Context, category string) ([]quote.Summary, error)
	Create(ctx context.Context, in client.NewQuote) (*quote.Summary, error)
	Update(ctx context.Context, id string, edit client.QuoteEdit) (*quote.Summary, error)
	Delete(ctx context.Context, id string) error
}

// Options configure the initial screen.
type Options struct {
	Category string
	Dark     bool
}

var clipboardWrite = clipboard.WriteAll

type mode int

const (
	modeNormal mode = iota
	modeAdd
	modeEdit
	modeFilter
)

type model struct {
	ctx     context.Context
	backend Backend
	state   *view.State
	styles  styles

	mode   mode
	cursor int
	focus  int
	text   textinput.Model
	author textinput.Model
	filter textinput.Model

	width int
}

// Run opens the browser and blocks until the user quits.
func Run(ctx context.Context, b Backend, opts Options) error {
	p := tea.NewProgram(newModel(ctx, b, opts), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}

func newModel(ctx context.Context, b Backend, opts Options) model {
	st := view.New(opts.Category)
	st.Dark = opts.Dark
	st.BeginFetch()

	m := model{
		ctx:     ctx,
		backend: b,
		state:   st,
		styles:  newStyles(st.Dark),
		text:    newInput("quote: ", "Something worth remembering"),
		author:  newInput("author: ", quote.AuthorAnonymous),
		filter:  newInput("/", "filter saved quotes"),
	}
	return m
}

func newInput(prompt, placeholder string) textinput.Model {
	ti := textinput.New()
	ti.Prompt = prompt
	ti.Placeholder = placeholder
	ti.CharLimit = 1000
	return ti
}

func (m model) Init() tea.Cmd {
	return tea.Batch(
		fetchQuoteCmd(m.ctx, m.backend, m.state.Category),
		loadSavedCmd(m.ctx, m.backend),
	)
}

// visible returns the saved quotes shown in the panel after filtering.
func (m model) visible() []quote.Summary {
	return m.state.Filter(m.filter.Value())
}

func (m model) selected() (quote.Summary, bool) {
	items := m.visible()
	if m.cursor < 0 || m.cursor >= len(items) {
		return quote.Summary{}, false
	}
	return items[m.cursor], true
}

func (m *model) clampCursor() {
	n := len(m.visible())
	if m.cursor >= n {
		m.cursor = n - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case quoteResultMsg:
		// A category switch while loading makes older answers stale.
		if msg.category != m.state.Category {
			return m, nil
		}
		m.state.FinishFetch(msg.raw, msg.err)
		if msg.err != nil {
			m.state.SetStatus(msg.err.Error())
		}
		return m, nil

	case savedResultMsg:
		if msg.err != nil {
			m.state.SetStatus(fmt.Sprintf("Could not load saved quotes: %v", msg.err))
			return m, nil
		}
		m.state.SetSaved(msg.items)
		m.clampCursor()
		return m, nil

	case mutationResultMsg:
		if msg.err != nil {
			m.state.SetStatus(msg.err.Error())
			return m, nil
		}
		m.state.SetStatus(msg.status)
		return m, loadSavedCmd(m.ctx, m.backend)

	case clearCopiedMsg:
		m.state.ClearCopied()
		return m, nil

	case tea.KeyMsg:
		switch m.mode {
		case modeAdd, modeEdit:
			return m.updateForm(msg)
		case modeFilter:
			return m.updateFilter(msg)
		}
		return m.updateNormal(msg)
	}
	return m, nil
}

func (m model) updateNormal(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	switch key {
	case "q", "ctrl+c":
		return m, tea.Quit

	case "n":
		m.state.BeginFetch()
		return m, fetchQuoteCmd(m.ctx, m.backend, m.state.Category)

	case "tab":
		m.state.NextCategory()
		m.state.BeginFetch()
		return m, fetchQuoteCmd(m.ctx, m.backend, m.state.Category)

	case "1", "2", "3", "4", "5", "6", "7", "8":
		idx := int(key[0] - '1')
		if idx < len(quote.Categories) && m.state.SelectCategory(quote.Categories[idx].Key) {
			m.state.BeginFetch()
			return m, fetchQuoteCmd(m.ctx, m.backend, m.state.Category)
		}
		return m, nil

	case "s":
		if !m.state.CanSave() {
			return m, nil
		}
		return m, createCmd(m.ctx, m.backend, client.NewQuote{
			Text:          m.state.Quote,
			Category:      m.state.Category,
			IsAIGenerated: true,
		}, "Quote saved!")

	case "c":
		if !m.state.CanSave() {
			return m, nil
		}
		if err := clipboardWrite(m.state.Quote); err != nil {
			m.state.SetStatus(fmt.Sprintf("Clipboard copy failed: %v", err))
			return m, nil
		}
		m.state.MarkCopied()
		return m, clearCopiedCmd()

	case "t":
		m.state.ToggleTheme()
		m.styles = newStyles(m.state.Dark)
		return m, nil

	case "l":
		m.state.ToggleSaved()
		return m, nil

	case "a":
		m.state.StartAdd()
		m.mode = modeAdd
		m.text.SetValue("")
		m.author.SetValue("")
		m.setFocus(0)
		return m, textinput.Blink

	case "e":
		q, ok := m.selected()
		if !m.state.ShowSaved || !ok {
			return m, nil
		}
		m.state.StartEdit(q)
		m.mode = modeEdit
		m.text.SetValue(q.Text)
		m.author.SetValue(q.Author)
		m.setFocus(0)
		return m, textinput.Blink

	case "d":
		q, ok := m.selected()
		if !m.state.ShowSaved || !ok {
			return m, nil
		}
		return m, deleteCmd(m.ctx, m.backend, q.ID)

	case "/":
		m.state.ShowSavedPanel()
		m.mode = modeFilter
		m.filter.Focus()
		return m, textinput.Blink

	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
		return m, nil

	case "down", "j":
		if m.cursor < len(m.visible())-1 {
			m.cursor++
		}
		return m, nil
	}
	return m, nil
}

func (m *model) setFocus(idx int) {
	m.focus = idx
	if idx == 0 {
		m.text.Focus()
		m.author.Blur()
		return
	}
	m.text.Blur()
	m.author.Focus()
}

func (m model) updateForm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.closeForm()
		return m, nil
	case "tab", "shift+tab":
		m.setFocus(1 - m.focus)
		return m, nil
	case "ctrl+n":
		m.cycleDraftCategory()
		return m, nil
	case "enter":
		return m.submitForm()
	}

	var cmd tea.Cmd
	if m.focus == 0 {
		m.text, cmd = m.text.Update(msg)
	} else {
		m.author, cmd = m.author.Update(msg)
	}
	return m, cmd
}

func (m *model) cycleDraftCategory() {
	draft := &m.state.Add
	if m.mode == modeEdit {
		draft = &m.state.Edit
	}
	keys := quote.CategoryKeys()
	next := keys[0]
	for i, k := range keys {
		if k == draft.Category {
			next = keys[(i+1)%len(keys)]
			break
		}
	}
	draft.Category = next
}

func (m *model) closeForm() {
	m.state.CancelAdd()
	m.state.CancelEdit()
	m.text.Blur()
	m.author.Blur()
	m.mode = modeNormal
}

func (m model) submitForm() (tea.Model, tea.Cmd) {
	text := strings.TrimSpace(m.text.Value())
	author := strings.TrimSpace(m.author.Value())
	if text == "" {
		m.state.SetStatus("Quote text is required.")
		return m, nil
	}

	var cmd tea.Cmd
	if m.mode == modeAdd {
		cmd = createCmd(m.ctx, m.backend, client.NewQuote{
			Text:     text,
			Category: m.state.Add.Category,
			Author:   author,
		}, "Quote added.")
	} else {
		category := m.state.Edit.Category
		cmd = updateCmd(m.ctx, m.backend, m.state.EditingID, client.QuoteEdit{
			Text:     &text,
			Author:   &author,
			Category: &category,
		})
	}
	m.closeForm()
	return m, cmd
}

func (m model) updateFilter(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.filter.SetValue("")
		fallthrough
	case "enter":
		m.filter.Blur()
		m.mode = modeNormal
		m.clampCursor()
		return m, nil
	}
	var cmd tea.Cmd
	m.filter, cmd = m.filter.Update(msg)
	m.cursor = 0
	return m, cmd
}

func (m model) View() string {
	s := m.styles
	var b strings.Builder

	theme := "light"
	if m.state.Dark {
		theme = "dark"
	}
	b.WriteString(s.title.Render("muse") + " " + s.muted.Render(theme) + "\n\n")

	tabs := make([]string, len(quote.Categories))
	for i, c := range quote.Categories {
		label := fmt.Sprintf("%d %s", i+1, c.Label)
		if c.Key == m.state.Category {
			tabs[i] = s.tabOn.Render(label)
		} else {
			tabs[i] = s.tab.Render(label)
		}
	}
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, tabs...) + "\n")

	switch {
	case m.state.Loading:
		b.WriteString(s.muted.Padding(1, 2).Render("Loading…"))
	case m.state.Failed:
		b.WriteString(s.failed.Render(m.state.Quote))
	default:
		b.WriteString(s.quote.Width(m.quoteWidth()).Render("“" + m.state.Quote + "”"))
	}
	b.WriteString("\n")
	if m.state.Copied {
		b.WriteString(s.copied.Render("Copied!") + "\n")
	}

	if m.mode == modeAdd || m.mode == modeEdit {
		b.WriteString(m.renderForm() + "\n")
	}
	if m.state.ShowSaved {
		b.WriteString(m.renderSaved() + "\n")
	}

	if m.state.Status != "" {
		b.WriteString(s.status.Render(m.state.Status) + "\n")
	}
	b.WriteString(s.help.Render(m.helpLine()))

	return s.app.Render(b.String())
}

func (m model) quoteWidth() int {
	if m.width <= 0 {
		return 72
	}
	return max(20, m.width-8)
}

func (m model) renderForm() string {
	title, draft := "Add quote", m.state.Add
	if m.mode == modeEdit {
		title, draft = "Edit quote", m.state.Edit
	}
	lines := []string{
		m.styles.title.Render(title),
		m.text.View(),
		m.author.View(),
		m.styles.muted.Render("category: " + quote.CategoryLabel(draft.Category) + "  (ctrl+n to change)"),
	}
	return m.styles.panel.Render(strings.Join(lines, "\n"))
}

func (m model) renderSaved() string {
	items := m.visible()
	lines := []string{m.styles.title.Render(fmt.Sprintf("Saved quotes (%d)", len(m.state.Saved)))}
	if m.mode == modeFilter || m.filter.Value() != "" {
		lines = append(lines, m.filter.View())
	}
	if len(items) == 0 {
		lines = append(lines, m.styles.muted.Render("No saved quotes."))
	}
	for i, q := range items {
		line := fmt.Sprintf("%s  %s", q.Text, m.styles.muted.Render(q.Author+" · "+quote.CategoryLabel(q.Category)))
		if i == m.cursor {
			line = m.styles.selected.Render("> ") + line
		} else {
			line = "  " + line
		}
		lines = append(lines, line)
	}
	return m.styles.panel.Render(strings.Join(lines, "\n"))
}

func (m model) helpLine() string {
	switch m.mode {
	case modeAdd, modeEdit:
		return "enter=save • tab=next field • ctrl+n=category • esc=cancel"
	case modeFilter:
		return "type to filter • enter=keep • esc=clear"
	}
	help := "n=new • tab/1-8=category • s=save • c=copy • t=theme • l=saved • a=add • q=quit"
	if m.state.ShowSaved {
		help += "\n↑/↓=select • e=edit • d=delete • /=filter"
	}
	return help
}
