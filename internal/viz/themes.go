package viz

import "github.com/charmbracelet/lipgloss"

// Theme defines the color scheme of the live view.
type Theme struct {
	Name    string
	Title   lipgloss.Color
	Cloud   lipgloss.Color
	Graph   lipgloss.Color
	Label   lipgloss.Color
	Value   lipgloss.Color
	Muted   lipgloss.Color
	Warning lipgloss.Color
	Error   lipgloss.Color
}

var (
	ThemeLab = Theme{
		Name:    "lab",
		Title:   lipgloss.Color("86"),
		Cloud:   lipgloss.Color("213"),
		Graph:   lipgloss.Color("49"),
		Label:   lipgloss.Color("245"),
		Value:   lipgloss.Color("252"),
		Muted:   lipgloss.Color("240"),
		Warning: lipgloss.Color("220"),
		Error:   lipgloss.Color("196"),
	}

	ThemeRetro = Theme{
		Name:    "retro",
		Title:   lipgloss.Color("#88ff88"),
		Cloud:   lipgloss.Color("#00ff00"),
		Graph:   lipgloss.Color("#00cc00"),
		Label:   lipgloss.Color("#00aa00"),
		Value:   lipgloss.Color("#00ff00"),
		Muted:   lipgloss.Color("#005500"),
		Warning: lipgloss.Color("#ffff00"),
		Error:   lipgloss.Color("#ff0000"),
	}

	ThemeMinimal = Theme{
		Name:    "minimal",
		Title:   lipgloss.Color("#ffffff"),
		Cloud:   lipgloss.Color("#cccccc"),
		Graph:   lipgloss.Color("#0088ff"),
		Label:   lipgloss.Color("#888888"),
		Value:   lipgloss.Color("#ffffff"),
		Muted:   lipgloss.Color("#555555"),
		Warning: lipgloss.Color("#ffaa00"),
		Error:   lipgloss.Color("#ff0000"),
	}

	Themes = []Theme{ThemeLab, ThemeRetro, ThemeMinimal}
)

// GetTheme returns a theme by name, falling back to the first theme.
func GetTheme(name string) Theme {
	for _, t := range Themes {
		if t.Name == name {
			return t
		}
	}
	return Themes[0]
}

// NextTheme returns the theme after t in Themes.
func NextTheme(t Theme) Theme {
	for i, candidate := range Themes {
		if candidate.Name == t.Name {
			return Themes[(i+1)%len(Themes)]
		}
	}
	return Themes[0]
}

func ThemeNames() []string {
	names := make([]string, len(Themes))
	for i, t := range Themes {
		names[i] = t.Name
	}
	return names
}
