package backend

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/dyike/manbo/internal/dataflows"
	"github.com/dyike/manbo/internal/models"
)

// ToStatusUpdate converts a status response into a job update.
func (s *StatusResponse) ToStatusUpdate() (models.StatusUpdate, error) {
	st, err := models.ParseJobStatus(s.Status)
	if err != nil {
		return models.StatusUpdate{}, err
	}
	u := models.StatusUpdate{
		Status:      st,
		StartedAt:   optionalTime(s.StartedAt),
		CompletedAt: optionalTime(s.CompletedAt),
		HasResult:   s.HasResult,
	}
	if s.Error != nil {
		u.Error = strings.TrimSpace(*s.Error)
	}
	return u, nil
}

// ToJob builds the client-side job view from a status response.
func (s *StatusResponse) ToJob() (*models.AnalysisJob, error) {
	u, err := s.ToStatusUpdate()
	if err != nil {
		return nil, err
	}
	job := &models.AnalysisJob{
		ID:     s.ID,
		Symbol: s.Symbol,
		Market: models.Market(s.Market),
	}
	if t, err := models.ParseTimestamp(s.CreatedAt); err == nil {
		job.CreatedAt = t
	}
	job.Apply(u)
	return job, nil
}

// ToResult converts the result endpoint payload into the domain snapshot.
func (r *ResultResponse) ToResult() (*models.AnalysisResult, error) {
	if r.Result == nil {
		msg := "analysis has no result"
		if r.Error != nil && *r.Error != "" {
			msg = *r.Error
		}
		return nil, fmt.Errorf("%s", msg)
	}
	p := r.Result

	res := &models.AnalysisResult{
		JobID:       r.ID,
		Symbol:      r.Symbol,
		Market:      models.Market(r.Market),
		CompletedAt: optionalTime(r.CompletedAt),
		Success:     p.Success,
		Action:      models.ParseAction(p.Action),
		Reasoning:   strings.TrimSpace(p.Reasoning),
		Error:       strings.TrimSpace(p.Error),
		Reports:     make(map[models.ReportKind]string),
		MarketData:  dataflows.CandlesFromRecords(p.MarketData),
	}
	if p.TargetPrice != nil && !p.TargetPrice.IsZero() {
		price := p.TargetPrice.Decimal
		res.TargetPrice = &price
	}
	if p.Confidence != nil {
		v := models.ClampUnit(p.Confidence.InexactFloat64())
		res.Confidence = &v
	}
	if p.RiskScore != nil {
		v := models.ClampUnit(p.RiskScore.InexactFloat64())
		res.RiskScore = &v
	}

	for key, raw := range p.Reports {
		kind, ok := models.ReportKindFromKey(key)
		if !ok {
			continue
		}
		text, err := reportText(kind, raw)
		if err != nil {
			return nil, fmt.Errorf("decode %s: %w", key, err)
		}
		if text != "" {
			res.Reports[kind] = text
		}
	}
	return res, nil
}

// reportText turns a report field into display text. Debate states arrive as
// objects and reduce to the judge decision or history; any other object is
// kept as indented JSON.
func reportText(kind models.ReportKind, raw json.RawMessage) (string, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return "", nil
	}

	if trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return "", err
		}
		return strings.TrimSpace(s), nil
	}

	switch kind {
	case models.ReportInvestmentDebate:
		var st models.InvestDebateState
		if err := json.Unmarshal(trimmed, &st); err == nil {
			if text := st.Text(); text != "" {
				return text, nil
			}
		}
	case models.ReportRiskDebate:
		var st models.RiskDebateState
		if err := json.Unmarshal(trimmed, &st); err == nil {
			if text := st.Text(); text != "" {
				return text, nil
			}
		}
	}

	var buf bytes.Buffer
	if err := json.Indent(&buf, trimmed, "", "  "); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func optionalTime(s *string) *time.Time {
	if s == nil {
		return nil
	}
	t, err := models.ParseTimestamp(*s)
	if err != nil {
		return nil
	}
	return &t
}
