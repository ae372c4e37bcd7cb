package cli

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/matzehuels/cardsmith/pkg/template"
)

func pickerTemplates() []template.Template {
	a := sampleTemplate("modern-blue")
	a.Category, a.Tags = "business", []string{"blue"}
	b := sampleTemplate("classic")
	b.Version = 3
	c := sampleTemplate("neon")
	c.Tags = []string{"dark"}
	return []template.Template{a, b, c}
}

func press(m TemplatePickerModel, msgs ...tea.Msg) (TemplatePickerModel, tea.Cmd) {
	var cmd tea.Cmd
	for _, msg := range msgs {
		var next tea.Model
		next, cmd = m.Update(msg)
		m = next.(TemplatePickerModel)
	}
	return m, cmd
}

func keys(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestPickerNavigatesAndSelects(t *testing.T) {
	m, cmd := press(NewTemplatePickerModel(pickerTemplates()),
		tea.KeyMsg{Type: tea.KeyDown},
		tea.KeyMsg{Type: tea.KeyDown},
		tea.KeyMsg{Type: tea.KeyDown}, // clamps at the last row
		tea.KeyMsg{Type: tea.KeyUp},
		tea.KeyMsg{Type: tea.KeyEnter},
	)
	if m.Selected == nil || m.Selected.ID != "classic" {
		t.Fatalf("Selected = %v, want classic", m.Selected)
	}
	if m.Selected.Version != 3 {
		t.Errorf("Selected.Version = %d, want 3", m.Selected.Version)
	}
	if cmd == nil {
		t.Error("enter should quit the program")
	}
}

func TestPickerFilters(t *testing.T) {
	tests := []struct {
		query string
		want  []string
	}{
		{"", []string{"modern-blue", "classic", "neon"}},
		{"blue", []string{"modern-blue"}},
		{"BUSINESS", []string{"modern-blue"}},
		{"dark", []string{"neon"}},
		{"zzz", nil},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			m := NewTemplatePickerModel(pickerTemplates())
			if tt.query != "" {
				m, _ = press(m, keys(tt.query))
			}
			var got []string
			for _, i := range m.visible {
				got = append(got, m.Templates[i].ID)
			}
			if strings.Join(got, ",") != strings.Join(tt.want, ",") {
				t.Errorf("visible = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPickerBackspaceAndEmptyEnter(t *testing.T) {
	m, _ := press(NewTemplatePickerModel(pickerTemplates()), keys("zzz"))
	m, cmd := press(m, tea.KeyMsg{Type: tea.KeyEnter})
	if m.Selected != nil || cmd != nil {
		t.Fatal("enter with no matches should do nothing")
	}

	m, _ = press(m,
		tea.KeyMsg{Type: tea.KeyBackspace},
		tea.KeyMsg{Type: tea.KeyBackspace},
		tea.KeyMsg{Type: tea.KeyBackspace},
	)
	if m.Filter != "" || len(m.visible) != 3 {
		t.Errorf("filter %q shows %d templates, want empty filter and 3", m.Filter, len(m.visible))
	}
}

func TestPickerQuitWithoutSelection(t *testing.T) {
	m, cmd := press(NewTemplatePickerModel(pickerTemplates()), tea.KeyMsg{Type: tea.KeyEsc})
	if m.Selected != nil {
		t.Error("esc should not select")
	}
	if cmd == nil {
		t.Error("esc should quit")
	}
}

func TestPickerScrollsWithCursor(t *testing.T) {
	var ts []template.Template
	for _, id := range []string{"a1", "a2", "a3", "a4", "a5", "a6", "a7"} {
		ts = append(ts, sampleTemplate(id))
	}
	m, _ := press(NewTemplatePickerModel(ts), tea.WindowSizeMsg{Height: 10})
	if m.Height != 5 {
		t.Fatalf("Height = %d, want 5", m.Height)
	}
	for range 6 {
		m, _ = press(m, tea.KeyMsg{Type: tea.KeyDown})
	}
	if m.Cursor != 6 || m.Offset != 2 {
		t.Errorf("Cursor, Offset = %d, %d, want 6, 2", m.Cursor, m.Offset)
	}

	view := m.View()
	if strings.Contains(view, "a1") || !strings.Contains(view, "a7") {
		t.Errorf("view should scroll past a1 and show a7:\n%s", view)
	}
	if !strings.Contains(view, "[7/7]") {
		t.Errorf("view missing position counter:\n%s", view)
	}
}
