package cli

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/matzehuels/cardsmith/pkg/errors"
	"github.com/matzehuels/cardsmith/pkg/store"
	"github.com/matzehuels/cardsmith/pkg/template"
)

var listDimStyle = lipgloss.NewStyle().Foreground(colorDim)

// =============================================================================
// TemplatePickerModel - Interactive template selection
// =============================================================================

// TemplatePickerModel is the bubbletea model for choosing a template.
// Typing filters by id, name, category and tags.
type TemplatePickerModel struct {
	Templates []template.Template
	Filter    string
	Cursor    int
	Offset    int
	Height    int
	Selected  *template.Template

	visible []int // indexes into Templates that match Filter
}

// NewTemplatePickerModel creates a picker over ts.
func NewTemplatePickerModel(ts []template.Template) TemplatePickerModel {
	m := TemplatePickerModel{Templates: ts, Height: 15}
	m.refilter()
	return m
}

func (m TemplatePickerModel) Init() tea.Cmd {
	return nil
}

func (m TemplatePickerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyUp:
			m.move(-1)
		case tea.KeyDown:
			m.move(1)
		case tea.KeyEnter:
			if len(m.visible) == 0 {
				return m, nil
			}
			t := m.Templates[m.visible[m.Cursor]]
			m.Selected = &t
			return m, tea.Quit
		case tea.KeyBackspace:
			if m.Filter != "" {
				r := []rune(m.Filter)
				m.Filter = string(r[:len(r)-1])
				m.refilter()
			}
		case tea.KeyRunes, tea.KeySpace:
			m.Filter += string(msg.Runes)
			m.refilter()
		}
	case tea.WindowSizeMsg:
		m.Height = max(msg.Height-8, 5)
		m.move(0)
	}
	return m, nil
}

func (m *TemplatePickerModel) move(delta int) {
	m.Cursor = min(max(m.Cursor+delta, 0), max(len(m.visible)-1, 0))
	if m.Cursor < m.Offset {
		m.Offset = m.Cursor
	}
	if m.Cursor >= m.Offset+m.Height {
		m.Offset = m.Cursor - m.Height + 1
	}
}

func (m *TemplatePickerModel) refilter() {
	q := strings.ToLower(strings.TrimSpace(m.Filter))
	visible := make([]int, 0, len(m.Templates))
	for i, t := range m.Templates {
		if q == "" || matchesQuery(t, q) {
			visible = append(visible, i)
		}
	}
	m.visible = visible
	m.Cursor, m.Offset = 0, 0
}

func matchesQuery(t template.Template, q string) bool {
	hay := strings.ToLower(strings.Join(append([]string{t.ID, t.Name, t.Category}, t.Tags...), " "))
	return strings.Contains(hay, q)
}

func (m TemplatePickerModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Select Template"))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  ⏎ select  esc quit  type to filter"))
	b.WriteString("\n")
	b.WriteString("Filter: " + StyleValue.Render(m.Filter) + "\n\n")

	end := min(m.Offset+m.Height, len(m.visible))
	shown := make([]template.Template, 0, end-m.Offset)
	for _, idx := range m.visible[m.Offset:end] {
		shown = append(shown, m.Templates[idx])
	}

	rows := templateRows(shown)
	for i := range rows {
		cursor := "  "
		if m.Offset+i == m.Cursor {
			cursor = "▸ "
		}
		rows[i] = append([]string{cursor}, rows[i]...)
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers(append([]string{""}, templateHeaders...)...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return styleHeader
			}
			if m.Offset+row == m.Cursor {
				return lipgloss.NewStyle().Foreground(colorGreen).Bold(true)
			}
			if row < len(shown) && !shown[row].IsActive {
				return lipgloss.NewStyle().Foreground(colorDim)
			}
			return lipgloss.NewStyle()
		})

	b.WriteString(t.Render())
	b.WriteString("\n\n")
	pos := 0
	if len(m.visible) > 0 {
		pos = m.Cursor + 1
	}
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", pos, len(m.visible))))

	return b.String()
}

// pickTemplate lists the store and runs the picker. ok is false when the
// user quit without choosing.
func pickTemplate(ctx context.Context, s store.Store) (t template.Template, ok bool, err error) {
	ts, err := s.List(ctx, store.Filter{})
	if err != nil {
		return template.Template{}, false, err
	}
	if len(ts) == 0 {
		return template.Template{}, false, errors.New(errors.ErrCodeTemplateNotFound, "the template store is empty")
	}

	final, err := tea.NewProgram(NewTemplatePickerModel(ts), tea.WithContext(ctx)).Run()
	if err != nil {
		return template.Template{}, false, fmt.Errorf("template picker: %w", err)
	}
	m := final.(TemplatePickerModel)
	if m.Selected == nil {
		return template.Template{}, false, nil
	}
	return *m.Selected, true, nil
}
