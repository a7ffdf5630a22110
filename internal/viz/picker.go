package viz

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/san-kum/atomsim/internal/config"
)

var presetInfo = map[string]string{
	"mot3d":       "six-beam magneto-optical trap",
	"molasses1d":  "counter-propagating optical molasses",
	"dipole_trap": "focused far-detuned dipole trap",
	"zeeman_push": "radiation pressure push in a bias field",
}

// Picker lists the configuration presets and opens the live view of the
// chosen one. Esc in the live view returns to the list.
type Picker struct {
	presets []string
	cursor  int
	open    func(preset string) (Model, error)
	live    *Model
	err     error
	styles  palette
}

func NewPicker(open func(preset string) (Model, error)) Picker {
	return Picker{
		presets: config.ListPresets(),
		open:    open,
		styles:  newPalette(Themes[0]),
	}
}

// Selected returns the preset under the cursor.
func (p Picker) Selected() string {
	if len(p.presets) == 0 {
		return ""
	}
	return p.presets[p.cursor]
}

// Live reports whether a preset is open.
func (p Picker) Live() bool { return p.live != nil }

func (p Picker) Init() tea.Cmd { return nil }

func (p Picker) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if p.live != nil {
		if key, ok := msg.(tea.KeyMsg); ok && key.String() == "esc" {
			p.live = nil
			return p, nil
		}
		updated, cmd := p.live.Update(msg)
		live := updated.(Model)
		p.live = &live
		return p, cmd
	}

	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return p, nil
	}
	switch key.String() {
	case "q", "ctrl+c", "esc":
		return p, tea.Quit
	case "up", "k":
		if p.cursor > 0 {
			p.cursor--
		}
	case "down", "j":
		if p.cursor < len(p.presets)-1 {
			p.cursor++
		}
	case "enter", " ":
		if len(p.presets) == 0 {
			return p, nil
		}
		live, err := p.open(p.Selected())
		if err != nil {
			p.err = err
			return p, nil
		}
		p.err = nil
		p.live = &live
		return p, live.Init()
	}
	return p, nil
}

func (p Picker) View() string {
	if p.live != nil {
		return p.live.View()
	}

	var b strings.Builder
	b.WriteString(p.styles.header.Render("ATOMSIM") + "\n")
	for i, name := range p.presets {
		line := fmt.Sprintf("%-14s %s", name, p.styles.subtle.Render(presetInfo[name]))
		if i == p.cursor {
			b.WriteString(p.styles.cursor.Render("▸ ") + line + "\n")
		} else {
			b.WriteString("  " + line + "\n")
		}
	}
	if p.err != nil {
		b.WriteString("\n" + p.styles.failed.Render(p.err.Error()) + "\n")
	}
	b.WriteString(p.styles.help.Render("↑↓:Select  Enter:Open  Esc:Back  Q:Quit"))
	return b.String()
}
