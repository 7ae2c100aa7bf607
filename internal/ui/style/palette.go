package style

import "github.com/charmbracelet/lipgloss"

// Color palette
var (
	Cyan   = lipgloss.Color("#00E5FF") // Primary highlight
	Yellow = lipgloss.Color("#FFB500") // Warnings
	Green  = lipgloss.Color("#2AFFAA") // Positive PnL / success
	Red    = lipgloss.Color("#FF5555") // Negative PnL / errors

	Base01 = lipgloss.Color("#6C7280") // Muted text
	Base2  = lipgloss.Color("#ECEFF4") // Primary text

	ProfitColor  = Green
	LossColor    = Red
	NeutralColor = Yellow
)

// Styles для отчётов в терминале
var (
	Title = lipgloss.NewStyle().
		Bold(true).
		Foreground(Cyan)

	Label = lipgloss.NewStyle().
		Foreground(Base01).
		Width(8)

	Value = lipgloss.NewStyle().
		Foreground(Base2).
		Align(lipgloss.Right).
		Width(22)

	Muted = lipgloss.NewStyle().
		Foreground(Base01)

	Box = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(Base01).
		Padding(0, 1)
)

// PnLStyle возвращает стиль по знаку профита
func PnLStyle(sign int) lipgloss.Style {
	switch {
	case sign > 0:
		return lipgloss.NewStyle().Bold(true).Foreground(ProfitColor)
	case sign < 0:
		return lipgloss.NewStyle().Bold(true).Foreground(LossColor)
	default:
		return lipgloss.NewStyle().Foreground(NeutralColor)
	}
}
