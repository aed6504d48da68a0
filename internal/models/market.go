package models

import (
	"fmt"
	"strings"
)

// Market is the exchange group the backend routes an analysis to.
// Values are the labels the backend expects on the wire.
type Market string

const (
	MarketUS Market = "美股"
	MarketCN Market = "A股"
	MarketHK Market = "港股"
)

// Markets lists every supported market in display order.
var Markets = []Market{MarketUS, MarketCN, MarketHK}

func (m Market) String() string { return string(m) }

// DisplayName returns an English label suitable for prompts.
func (m Market) DisplayName() string {
	switch m {
	case MarketUS:
		return "US equities (美股)"
	case MarketCN:
		return "China A-shares (A股)"
	case MarketHK:
		return "Hong Kong (港股)"
	default:
		return string(m)
	}
}

// Valid reports whether m is one of the enumerated markets.
func (m Market) Valid() bool {
	for _, known := range Markets {
		if m == known {
			return true
		}
	}
	return false
}

// ParseMarket accepts either the wire label or an ASCII alias (us, cn, hk).
func ParseMarket(s string) (Market, error) {
	v := strings.TrimSpace(s)
	switch strings.ToLower(v) {
	case "us", "usa", "nasdaq", "nyse":
		return MarketUS, nil
	case "cn", "a", "ashare", "a-share", "sh", "sz":
		return MarketCN, nil
	case "hk", "hkex":
		return MarketHK, nil
	}
	m := Market(v)
	if m.Valid() {
		return m, nil
	}
	return "", fmt.Errorf("unknown market %q", s)
}

// Analyst names one member of the backend's analyst team.
type Analyst string

const (
	AnalystMarket       Analyst = "market"
	AnalystFundamentals Analyst = "fundamentals"
	AnalystNews         Analyst = "news"
	AnalystSocial       Analyst = "social"
)

// DisplayName returns the label used in prompts and summaries.
func (a Analyst) DisplayName() string {
	switch a {
	case AnalystMarket:
		return "Market Analyst"
	case AnalystFundamentals:
		return "Fundamentals Analyst"
	case AnalystNews:
		return "News Analyst"
	case AnalystSocial:
		return "Social Media Analyst"
	default:
		return string(a)
	}
}

// AnalystToggles selects the optional analysts. Market and fundamentals are always on.
type AnalystToggles struct {
	News   bool
	Social bool
}

// Analysts expands the toggles into the ordered list sent to the backend.
func (t AnalystToggles) Analysts() []Analyst {
	out := []Analyst{AnalystMarket, AnalystFundamentals}
	if t.News {
		out = append(out, AnalystNews)
	}
	if t.Social {
		out = append(out, AnalystSocial)
	}
	return out
}

// ResearchDepth controls how many debate rounds the backend runs (1 shallow .. 5 deep).
type ResearchDepth int

const (
	MinResearchDepth ResearchDepth = 1
	MaxResearchDepth ResearchDepth = 5
)

func (d ResearchDepth) Label() string {
	switch d {
	case 1:
		return "Shallow - quick research, few debate rounds"
	case 2:
		return "Light - brief research"
	case 3:
		return "Medium - balanced research and debate"
	case 4:
		return "Thorough - extended debate"
	case 5:
		return "Deep - comprehensive research, in-depth debate"
	default:
		return fmt.Sprintf("Depth %d", int(d))
	}
}

// LLMProvider is an optional hint forwarded to the backend.
type LLMProvider string

const (
	ProviderDeepSeek   LLMProvider = "deepseek"
	ProviderOpenAI     LLMProvider = "openai"
	ProviderAnthropic  LLMProvider = "anthropic"
	ProviderGoogle     LLMProvider = "google"
	ProviderOpenRouter LLMProvider = "openrouter"
	ProviderOllama     LLMProvider = "ollama"
)

// LLMProviders lists the providers offered in the interactive prompt.
var LLMProviders = []LLMProvider{
	ProviderDeepSeek, ProviderOpenAI, ProviderAnthropic, ProviderGoogle, ProviderOpenRouter, ProviderOllama,
}
