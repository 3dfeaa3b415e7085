package output

import "github.com/charmbracelet/lipgloss"

// Styles is the shared style set for text-mode output.
type Styles struct {
	Header1       lipgloss.Style
	Header2       lipgloss.Style
	Bold          lipgloss.Style
	Muted         lipgloss.Style
	TableName     lipgloss.Style
	Success       lipgloss.Style
	StatusSuccess lipgloss.Style
	Warning       lipgloss.Style
	Error         lipgloss.Style
	Info          lipgloss.Style
}

func newStyles(r *lipgloss.Renderer) *Styles {
	return &Styles{
		Header1:       r.NewStyle().Bold(true).Foreground(lipgloss.Color("14")),
		Header2:       r.NewStyle().Bold(true).Foreground(lipgloss.Color("12")),
		Bold:          r.NewStyle().Bold(true),
		Muted:         r.NewStyle().Foreground(lipgloss.Color("8")),
		TableName:     r.NewStyle().Foreground(lipgloss.Color("14")),
		Success:       r.NewStyle().Foreground(lipgloss.Color("10")),
		StatusSuccess: r.NewStyle().SetString("✓").Foreground(lipgloss.Color("10")),
		Warning:       r.NewStyle().Foreground(lipgloss.Color("11")),
		Error:         r.NewStyle().Foreground(lipgloss.Color("9")),
		Info:          r.NewStyle().Foreground(lipgloss.Color("12")),
	}
}
