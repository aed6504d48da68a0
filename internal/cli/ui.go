package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/lipgloss"
)

var (
	welcomeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#7C3AED")).
			Bold(true).
			Align(lipgloss.Center).
			Width(80)

	taglineStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#3B82F6")).
			Italic(true).
			Align(lipgloss.Center).
			Width(80).
			MarginBottom(1)

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#3B82F6")).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#3B82F6")).
			Padding(0, 2).
			Width(80)
)

const banner = `
 __  __    _    _   _ ____   ___
|  \/  |  / \  | \ | | __ ) / _ \
| |\/| | / _ \ |  \| |  _ \| | | |
| |  | |/ ___ \| |\  | |_) | |_| |
|_|  |_/_/   \_\_| \_|____/ \___/
`

// DisplayWelcomeBanner shows the welcome banner
func DisplayWelcomeBanner(w io.Writer, backendURL string) {
	fmt.Fprint(w, welcomeStyle.Render(banner))
	fmt.Fprintln(w)
	fmt.Fprintln(w, taglineStyle.Render("Multi-agent trading analysis · backend "+backendURL))
}

// DisplayAnalysisHeader shows the analysis header
func DisplayAnalysisHeader(w io.Writer, sel UserSelections, jobID string) {
	header := fmt.Sprintf("📊 Analysis: %s (%s) | 📅 Date: %s | 🆔 %s",
		sel.Ticker,
		sel.Market.DisplayName(),
		sel.AnalysisDate.Format(time.DateOnly),
		jobID,
	)
	fmt.Fprintln(w, headerStyle.Render(header))
}
