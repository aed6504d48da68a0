package cli

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/AlecAivazis/survey/v2"
	"github.com/AlecAivazis/survey/v2/terminal"

	"github.com/dyike/manbo/internal/dataflows"
	"github.com/dyike/manbo/internal/display"
	"github.com/dyike/manbo/internal/models"
)

// errAborted is returned when the user interrupts a prompt.
var errAborted = errors.New("aborted")

func askOne(p survey.Prompt, response any, opts ...survey.AskOpt) error {
	err := survey.AskOne(p, response, opts...)
	if errors.Is(err, terminal.InterruptErr) {
		return errAborted
	}
	return err
}

// PromptForTicker prompts the user to enter a stock ticker symbol
func PromptForTicker() (string, error) {
	var ticker string
	prompt := &survey.Input{
		Message: "Enter the stock ticker symbol (e.g., AAPL, 600519, 0700):",
		Help:    "US tickers, six-digit A-share codes or Hong Kong codes",
	}

	err := askOne(prompt, &ticker, survey.WithValidator(func(val any) error {
		str, _ := val.(string)
		return dataflows.ValidateSymbol(str)
	}))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(strings.ToUpper(ticker)), nil
}

// PromptForMarket prompts for the exchange group.
func PromptForMarket(current models.Market) (models.Market, error) {
	options := make([]string, len(models.Markets))
	for i, m := range models.Markets {
		options[i] = m.DisplayName()
	}
	prompt := &survey.Select{
		Message: "Select market:",
		Options: options,
		Default: current.DisplayName(),
	}

	var idx int
	if err := askOne(prompt, &idx); err != nil {
		return "", err
	}
	return models.Markets[idx], nil
}

// PromptForAnalysisDate prompts the user to enter an analysis date
func PromptForAnalysisDate() (time.Time, error) {
	var dateStr string
	prompt := &survey.Input{
		Message: "Enter the analysis date (YYYY-MM-DD) or press Enter for today:",
		Help:    "Format: YYYY-MM-DD (e.g., 2024-01-15). Leave empty for today's date.",
		Default: time.Now().Format(time.DateOnly),
	}

	err := askOne(prompt, &dateStr, survey.WithValidator(func(val any) error {
		str, _ := val.(string)
		_, err := parseAnalysisDate(str, time.Now())
		return err
	}))
	if err != nil {
		return time.Time{}, err
	}
	return parseAnalysisDate(dateStr, time.Now())
}

// parseAnalysisDate accepts YYYY-MM-DD no later than tomorrow and no earlier
// than five years ago. Empty means today.
func parseAnalysisDate(s string, now time.Time) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return now, nil
	}
	d, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date format, use YYYY-MM-DD")
	}
	if d.After(now.AddDate(0, 0, 1)) {
		return time.Time{}, fmt.Errorf("analysis date cannot be more than 1 day in the future")
	}
	if d.Before(now.AddDate(-5, 0, 0)) {
		return time.Time{}, fmt.Errorf("analysis date cannot be more than 5 years in the past")
	}
	return d, nil
}

// PromptForAnalysts asks which optional analysts join the team. Market and
// fundamentals analysts always take part.
func PromptForAnalysts(current models.AnalystToggles) (models.AnalystToggles, error) {
	optional := []models.Analyst{models.AnalystNews, models.AnalystSocial}
	options := make([]string, len(optional))
	for i, a := range optional {
		options[i] = a.DisplayName()
	}
	var defaults []string
	if current.News {
		defaults = append(defaults, models.AnalystNews.DisplayName())
	}
	if current.Social {
		defaults = append(defaults, models.AnalystSocial.DisplayName())
	}

	prompt := &survey.MultiSelect{
		Message: "Add optional analysts (market and fundamentals are always included):",
		Options: options,
		Default: defaults,
	}
	var selected []string
	if err := askOne(prompt, &selected); err != nil {
		return models.AnalystToggles{}, err
	}

	var out models.AnalystToggles
	for _, s := range selected {
		switch s {
		case models.AnalystNews.DisplayName():
			out.News = true
		case models.AnalystSocial.DisplayName():
			out.Social = true
		}
	}
	return out, nil
}

// PromptForResearchDepth prompts the user to select research depth
func PromptForResearchDepth(current models.ResearchDepth) (models.ResearchDepth, error) {
	var options []string
	for d := models.MinResearchDepth; d <= models.MaxResearchDepth; d++ {
		options = append(options, fmt.Sprintf("%d. %s", d, d.Label()))
	}
	def := options[0]
	if current >= models.MinResearchDepth && current <= models.MaxResearchDepth {
		def = options[current-models.MinResearchDepth]
	}

	prompt := &survey.Select{
		Message: "Select research depth:",
		Options: options,
		Help:    "Deeper research runs more debate rounds and takes longer.",
		Default: def,
	}
	var idx int
	if err := askOne(prompt, &idx); err != nil {
		return 0, err
	}
	return models.MinResearchDepth + models.ResearchDepth(idx), nil
}

// PromptForLLMProvider prompts the user to select an LLM provider
func PromptForLLMProvider(current models.LLMProvider) (models.LLMProvider, error) {
	options := []string{"backend default"}
	for _, p := range models.LLMProviders {
		options = append(options, string(p))
	}
	def := options[0]
	if current != "" {
		def = string(current)
	}

	prompt := &survey.Select{
		Message: "Select LLM provider:",
		Options: options,
		Help:    "Forwarded to the backend, which must have credentials for it.",
		Default: def,
	}
	var selected string
	if err := askOne(prompt, &selected); err != nil {
		return "", err
	}
	if selected == options[0] {
		return "", nil
	}
	return models.LLMProvider(selected), nil
}

// PromptForConfirmation prompts the user to confirm their selections
func PromptForConfirmation(selections UserSelections) (bool, error) {
	analysts := selections.Analysts.Analysts()
	names := make([]string, len(analysts))
	for i, a := range analysts {
		names[i] = a.DisplayName()
	}
	provider := string(selections.LLMProvider)
	if provider == "" {
		provider = "backend default"
	}

	summary := fmt.Sprintf(`📊 Ticker Symbol:     %s
🌏 Market:            %s
📅 Analysis Date:     %s
👥 Analyst Team:      %s
🔍 Research Depth:    %d (%s)
🤖 LLM Provider:      %s
⚠️  Risk Assessment:   %t`,
		selections.Ticker,
		selections.Market.DisplayName(),
		selections.AnalysisDate.Format(time.DateOnly),
		strings.Join(names, ", "),
		selections.ResearchDepth,
		selections.ResearchDepth.Label(),
		provider,
		selections.IncludeRisk,
	)
	fmt.Println(display.Title("Analysis Configuration Summary"))
	fmt.Println(summary)
	fmt.Println()

	confirmed := true
	err := askOne(&survey.Confirm{
		Message: "Proceed with this analysis configuration?",
		Default: true,
	}, &confirmed)
	return confirmed, err
}

// PromptForExport asks whether to save the result to disk.
func PromptForExport(defaultDir string) (string, error) {
	save := false
	if err := askOne(&survey.Confirm{Message: "Save reports and chart to disk?", Default: false}, &save); err != nil || !save {
		return "", err
	}
	dir := defaultDir
	err := askOne(&survey.Input{Message: "Directory:", Default: defaultDir}, &dir)
	return strings.TrimSpace(dir), err
}

// PromptForRestartOrExit prompts user when analysis completes
func PromptForRestartOrExit() (bool, error) {
	var choice string
	prompt := &survey.Select{
		Message: "What would you like to do next?",
		Options: []string{
			"Start a new analysis",
			"Exit",
		},
		Default: "Start a new analysis",
	}
	if err := askOne(prompt, &choice); err != nil {
		return false, err
	}
	return choice == "Start a new analysis", nil
}
