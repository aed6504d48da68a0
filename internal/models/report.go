package models

// ReportKind is the closed set of textual outputs the backend may populate.
type ReportKind int

const (
	ReportMarket ReportKind = iota
	ReportSentiment
	ReportNews
	ReportFundamentals
	ReportRiskAssessment
	ReportInvestmentDebate
	ReportTraderPlan
	ReportRiskDebate
	ReportFinalDecision
)

// ReportKinds lists every kind in presentation order.
var ReportKinds = []ReportKind{
	ReportMarket,
	ReportSentiment,
	ReportNews,
	ReportFundamentals,
	ReportInvestmentDebate,
	ReportTraderPlan,
	ReportRiskAssessment,
	ReportRiskDebate,
	ReportFinalDecision,
}

var reportKindInfo = map[ReportKind]struct {
	key   string
	title string
	emoji string
	file  string
}{
	ReportMarket:           {"market_report", "Market Analysis", "📈", "market_report.md"},
	ReportSentiment:        {"sentiment_report", "Social Sentiment", "💬", "sentiment_report.md"},
	ReportNews:             {"news_report", "News Analysis", "📰", "news_report.md"},
	ReportFundamentals:     {"fundamentals_report", "Fundamentals", "🏛️", "fundamentals_report.md"},
	ReportRiskAssessment:   {"risk_assessment", "Risk Assessment", "⚠️", "risk_assessment.md"},
	ReportInvestmentDebate: {"investment_debate_state", "Research Debate", "⚖️", "investment_debate.md"},
	ReportTraderPlan:       {"trader_investment_plan", "Trading Plan", "💼", "trader_plan.md"},
	ReportRiskDebate:       {"risk_debate_state", "Risk Debate", "🛡️", "risk_debate.md"},
	ReportFinalDecision:    {"final_trade_decision", "Final Trade Decision", "🎯", "final_trade_decision.md"},
}

// Key is the field name used in the result payload.
func (k ReportKind) Key() string { return reportKindInfo[k].key }

// Title is the human label for the report.
func (k ReportKind) Title() string { return reportKindInfo[k].title }

func (k ReportKind) Emoji() string { return reportKindInfo[k].emoji }

// FileName is the markdown file the report is exported to.
func (k ReportKind) FileName() string { return reportKindInfo[k].file }

func (k ReportKind) String() string { return k.Key() }

// ReportKindFromKey resolves a payload field name.
func ReportKindFromKey(key string) (ReportKind, bool) {
	for kind, info := range reportKindInfo {
		if info.key == key {
			return kind, true
		}
	}
	return 0, false
}

// ReportSection is one heading and its cleaned body.
type ReportSection struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}
