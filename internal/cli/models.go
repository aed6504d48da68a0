package cli

import (
	"time"

	"github.com/dyike/manbo/config"
	"github.com/dyike/manbo/internal/jobs"
	"github.com/dyike/manbo/internal/models"
)

// UserSelections holds all user choices for one analysis.
type UserSelections struct {
	Ticker        string                `json:"ticker"`
	Market        models.Market         `json:"market"`
	AnalysisDate  time.Time             `json:"analysis_date"`
	Analysts      models.AnalystToggles `json:"analysts"`
	ResearchDepth models.ResearchDepth  `json:"research_depth"`
	LLMProvider   models.LLMProvider    `json:"llm_provider"`
	IncludeRisk   bool                  `json:"include_risk_assessment"`
}

// selectionsFromConfig seeds the form with the configured defaults.
func selectionsFromConfig(cfg *config.Config) UserSelections {
	market, err := models.ParseMarket(cfg.DefaultMarket)
	if err != nil {
		market = models.MarketUS
	}
	return UserSelections{
		Market:        market,
		AnalysisDate:  time.Now(),
		Analysts:      models.AnalystToggles{News: cfg.IncludeNews, Social: cfg.IncludeSocial},
		ResearchDepth: models.ResearchDepth(cfg.DefaultResearchDepth),
		LLMProvider:   models.LLMProvider(cfg.DefaultLLMProvider),
		IncludeRisk:   cfg.IncludeRiskAssessment,
	}
}

// Request converts the selections into a submission.
func (s UserSelections) Request() jobs.SubmitRequest {
	includeRisk := s.IncludeRisk
	req := jobs.SubmitRequest{
		Symbol:                s.Ticker,
		Market:                s.Market,
		ResearchDepth:         int(s.ResearchDepth),
		LLMProvider:           string(s.LLMProvider),
		News:                  s.Analysts.News,
		Social:                s.Analysts.Social,
		IncludeRiskAssessment: &includeRisk,
	}
	if !s.AnalysisDate.IsZero() {
		req.AnalysisDate = s.AnalysisDate.Format(time.DateOnly)
	}
	return req
}
