package backend

import (
	"encoding/json"

	"github.com/dyike/manbo/internal/dataflows"
)

// HealthResponse is returned by GET /health.
type HealthResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
}

// OK reports whether the backend declared itself healthy.
func (h *HealthResponse) OK() bool { return h != nil && h.Status == "ok" }

// CreateAnalysisRequest is the body of POST /analysis.
type CreateAnalysisRequest struct {
	Symbol                string   `json:"symbol"`
	Market                string   `json:"market"`
	ResearchDepth         int      `json:"research_depth"`
	LLMProvider           string   `json:"llm_provider,omitempty"`
	Analysts              []string `json:"analysts,omitempty"`
	AnalysisDate          string   `json:"analysis_date,omitempty"`
	IncludeRiskAssessment *bool    `json:"include_risk_assessment,omitempty"`
}

// CreateAnalysisResponse acknowledges a queued analysis.
type CreateAnalysisResponse struct {
	AnalysisID string `json:"analysis_id"`
	Status     string `json:"status"`
	Message    string `json:"message"`
	Symbol     string `json:"symbol"`
	StatusURL  string `json:"status_url"`
	ResultURL  string `json:"result_url"`
}

// StatusResponse is returned by GET /analysis/{id}/status.
type StatusResponse struct {
	ID          string  `json:"id"`
	Status      string  `json:"status"`
	Symbol      string  `json:"symbol"`
	Market      string  `json:"market"`
	CreatedAt   string  `json:"created_at"`
	StartedAt   *string `json:"started_at"`
	CompletedAt *string `json:"completed_at"`
	HasResult   bool    `json:"has_result"`
	Error       *string `json:"error"`
}

// ResultResponse is returned by GET /analysis/{id}.
type ResultResponse struct {
	ID            string         `json:"id"`
	Status        string         `json:"status"`
	Symbol        string         `json:"symbol"`
	Market        string         `json:"market"`
	ResearchDepth int            `json:"research_depth"`
	LLMProvider   *string        `json:"llm_provider"`
	CreatedAt     string         `json:"created_at"`
	CompletedAt   *string        `json:"completed_at"`
	Result        *ResultPayload `json:"result"`
	Error         *string        `json:"error"`
}

// ResultPayload is the flattened decision and state produced by the engine.
// Report fields are kept raw because debate states arrive as objects.
type ResultPayload struct {
	Success     bool                       `json:"success"`
	Action      string                     `json:"action"`
	TargetPrice *dataflows.FlexDecimal     `json:"target_price"`
	Confidence  *dataflows.FlexDecimal     `json:"confidence"`
	RiskScore   *dataflows.FlexDecimal     `json:"risk_score"`
	Reasoning   string                     `json:"reasoning"`
	MarketData  []dataflows.DailyRecord    `json:"market_data"`
	Error       string                     `json:"error"`
	Reports     map[string]json.RawMessage `json:"-"`
}

func (p *ResultPayload) UnmarshalJSON(data []byte) error {
	type plain ResultPayload
	var base plain
	if err := json.Unmarshal(data, &base); err != nil {
		return err
	}
	var all map[string]json.RawMessage
	if err := json.Unmarshal(data, &all); err != nil {
		return err
	}
	*p = ResultPayload(base)
	p.Reports = all
	return nil
}

// errorBody is the error envelope used by every endpoint.
type errorBody struct {
	Error  string `json:"error"`
	Status string `json:"status"`
	ID     string `json:"id"`
}
