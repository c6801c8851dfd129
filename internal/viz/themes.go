package viz

import "github.com/charmbracelet/lipgloss"

// Theme is the palette of the live view. Slot colors follow link.Status.
type Theme struct {
	Name     string
	Title    lipgloss.Color
	Text     lipgloss.Color
	Muted    lipgloss.Color
	Border   lipgloss.Color
	Graph    lipgloss.Color
	Inactive lipgloss.Color
	Active   lipgloss.Color
	Sticking lipgloss.Color
	Sliding  lipgloss.Color
	Warning  lipgloss.Color
}

var (
	ThemeTerminal = Theme{
		Name:     "terminal",
		Title:    lipgloss.Color("86"),
		Text:     lipgloss.Color("252"),
		Muted:    lipgloss.Color("245"),
		Border:   lipgloss.Color("240"),
		Graph:    lipgloss.Color("49"),
		Inactive: lipgloss.Color("240"),
		Active:   lipgloss.Color("39"),
		Sticking: lipgloss.Color("42"),
		Sliding:  lipgloss.Color("214"),
		Warning:  lipgloss.Color("196"),
	}

	ThemeBlueprint = Theme{
		Name:     "blueprint",
		Title:    lipgloss.Color("#e0f0ff"),
		Text:     lipgloss.Color("#c8dcf0"),
		Muted:    lipgloss.Color("#4488aa"),
		Border:   lipgloss.Color("#0077be"),
		Graph:    lipgloss.Color("#00a8cc"),
		Inactive: lipgloss.Color("#4488aa"),
		Active:   lipgloss.Color("#ffd700"),
		Sticking: lipgloss.Color("#00ff88"),
		Sliding:  lipgloss.Color("#ffcc00"),
		Warning:  lipgloss.Color("#ff4444"),
	}

	ThemeMono = Theme{
		Name:     "mono",
		Title:    lipgloss.Color("#ffffff"),
		Text:     lipgloss.Color("#cccccc"),
		Muted:    lipgloss.Color("#888888"),
		Border:   lipgloss.Color("#555555"),
		Graph:    lipgloss.Color("#ffffff"),
		Inactive: lipgloss.Color("#555555"),
		Active:   lipgloss.Color("#ffffff"),
		Sticking: lipgloss.Color("#dddddd"),
		Sliding:  lipgloss.Color("#aaaaaa"),
		Warning:  lipgloss.Color("#ffffff"),
	}

	Themes = []Theme{ThemeTerminal, ThemeBlueprint, ThemeMono}
)

// GetTheme returns the theme called name, or the first theme.
func GetTheme(name string) Theme {
	for _, t := range Themes {
		if t.Name == name {
			return t
		}
	}
	return Themes[0]
}

// NextTheme returns the theme following name in Themes.
func NextTheme(name string) Theme {
	for i, t := range Themes {
		if t.Name == name {
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
