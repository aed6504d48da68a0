package models

import "strings"

// InvestDebateState is the bull/bear research debate as serialised by the backend.
type InvestDebateState struct {
	BullHistory     string `json:"bull_history"`
	BearHistory     string `json:"bear_history"`
	History         string `json:"history"`
	CurrentResponse string `json:"current_response"`
	JudgeDecision   string `json:"judge_decision"`
	Count           int    `json:"count"`
}

// Text reduces the debate to the single report shown to the user.
func (s *InvestDebateState) Text() string {
	if s == nil {
		return ""
	}
	if v := strings.TrimSpace(s.JudgeDecision); v != "" {
		return v
	}
	if v := strings.TrimSpace(s.History); v != "" {
		return v
	}
	return joinNonEmpty(
		labelled("Bull", s.BullHistory),
		labelled("Bear", s.BearHistory),
	)
}

// RiskDebateState is the three-way risk discussion as serialised by the backend.
type RiskDebateState struct {
	RiskyHistory   string `json:"risky_history"`
	SafeHistory    string `json:"safe_history"`
	NeutralHistory string `json:"neutral_history"`
	History        string `json:"history"`
	JudgeDecision  string `json:"judge_decision"`
	LatestSpeaker  string `json:"latest_speaker"`
	Count          int    `json:"count"`
}

func (s *RiskDebateState) Text() string {
	if s == nil {
		return ""
	}
	if v := strings.TrimSpace(s.JudgeDecision); v != "" {
		return v
	}
	if v := strings.TrimSpace(s.History); v != "" {
		return v
	}
	return joinNonEmpty(
		labelled("Risky", s.RiskyHistory),
		labelled("Safe", s.SafeHistory),
		labelled("Neutral", s.NeutralHistory),
	)
}

func labelled(label, body string) string {
	body = strings.TrimSpace(body)
	if body == "" {
		return ""
	}
	return "### " + label + "\n" + body
}

func joinNonEmpty(parts ...string) string {
	var kept []string
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, "\n\n")
}
