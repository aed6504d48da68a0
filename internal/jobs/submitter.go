// Package jobs drives one analysis through the backend: submission, status
// polling, result retrieval and the session slot that ties them together.
package jobs

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"

	"github.com/dyike/manbo/internal/backend"
	"github.com/dyike/manbo/internal/logger"
	"github.com/dyike/manbo/internal/models"
)

// AnalysisCreator submits analyses.
type AnalysisCreator interface {
	CreateAnalysis(ctx context.Context, req backend.CreateAnalysisRequest) (*backend.CreateAnalysisResponse, error)
}

// StatusChecker reads job status.
type StatusChecker interface {
	AnalysisStatus(ctx context.Context, id string) (*backend.StatusResponse, error)
}

// ResultGetter reads a finished job's result.
type ResultGetter interface {
	AnalysisResult(ctx context.Context, id string) (*backend.ResultResponse, error)
}

// Backend is everything a session needs from the backend. *backend.Client implements it.
type Backend interface {
	AnalysisCreator
	StatusChecker
	ResultGetter
}

// SubmitRequest is the user's analysis form.
type SubmitRequest struct {
	Symbol        string        `json:"symbol" validate:"required,max=20"`
	Market        models.Market `json:"market" validate:"required,market"`
	ResearchDepth int           `json:"research_depth" default:"3" validate:"min=1,max=5"`
	LLMProvider   string        `json:"llm_provider" validate:"omitempty,max=32"`
	// AnalysisDate is YYYY-MM-DD and defaults to today.
	AnalysisDate          string `json:"analysis_date" validate:"omitempty,datetime=2006-01-02"`
	News                  bool   `json:"news"`
	Social                bool   `json:"social"`
	IncludeRiskAssessment *bool  `json:"include_risk_assessment" default:"true"`
}

// SetDefaults is called by defaults.Set after tag defaults are applied.
func (r *SubmitRequest) SetDefaults() {
	r.Symbol = strings.ToUpper(strings.TrimSpace(r.Symbol))
	r.LLMProvider = strings.TrimSpace(r.LLMProvider)
	r.AnalysisDate = strings.TrimSpace(r.AnalysisDate)
	if r.AnalysisDate == "" {
		r.AnalysisDate = time.Now().Format(time.DateOnly)
	}
}

// Analysts returns the analyst team for this request.
func (r *SubmitRequest) Analysts() []models.Analyst {
	return models.AnalystToggles{News: r.News, Social: r.Social}.Analysts()
}

// Prepare applies defaults and validates the request in place.
func (r *SubmitRequest) Prepare() error {
	if err := defaults.Set(r); err != nil {
		return fmt.Errorf("apply defaults: %w", err)
	}
	return validateRequest(r)
}

func (r *SubmitRequest) toBackend() backend.CreateAnalysisRequest {
	analysts := r.Analysts()
	names := make([]string, len(analysts))
	for i, a := range analysts {
		names[i] = string(a)
	}
	return backend.CreateAnalysisRequest{
		Symbol:                r.Symbol,
		Market:                string(r.Market),
		ResearchDepth:         r.ResearchDepth,
		LLMProvider:           r.LLMProvider,
		Analysts:              names,
		AnalysisDate:          r.AnalysisDate,
		IncludeRiskAssessment: r.IncludeRiskAssessment,
	}
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("market", func(fl validator.FieldLevel) bool {
		return models.Market(fl.Field().String()).Valid()
	})
	return v
}

func validateRequest(r *SubmitRequest) error {
	err := validate.Struct(r)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validate request: %w", err)
	}
	out := &ValidationError{}
	for _, fe := range verrs {
		out.Fields = append(out.Fields, FieldError{Field: fe.Field(), Message: fieldMessage(fe)})
	}
	return out
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "market":
		names := make([]string, len(models.Markets))
		for i, m := range models.Markets {
			names[i] = string(m)
		}
		return fmt.Sprintf("market must be one of %s", strings.Join(names, ", "))
	case "min", "max":
		if fe.Field() == "research_depth" {
			return fmt.Sprintf("research_depth must be between %d and %d", models.MinResearchDepth, models.MaxResearchDepth)
		}
		return fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param())
	case "datetime":
		return fe.Field() + " must be a YYYY-MM-DD date"
	default:
		return fmt.Sprintf("%s is invalid", fe.Field())
	}
}

// JobHandle identifies a submitted job.
type JobHandle struct {
	ID      string
	Message string
	Job     models.AnalysisJob
}

// Submitter validates and sends new analyses. It never retries.
type Submitter struct {
	api AnalysisCreator
	log *logger.Logger
	now func() time.Time
}

func NewSubmitter(api AnalysisCreator, log *logger.Logger) *Submitter {
	return &Submitter{
		api: api,
		log: logger.OrSilent(log).Component("submitter"),
		now: time.Now,
	}
}

// Submit validates req and makes exactly one request. Invalid input returns a
// *ValidationError without contacting the backend; a rejected or failed
// request returns a *SubmissionError.
func (s *Submitter) Submit(ctx context.Context, req SubmitRequest) (*JobHandle, error) {
	if err := req.Prepare(); err != nil {
		return nil, err
	}
	return s.submitPrepared(ctx, &req)
}

func (s *Submitter) submitPrepared(ctx context.Context, req *SubmitRequest) (*JobHandle, error) {
	s.log.Info().
		Str("symbol", req.Symbol).
		Str("market", string(req.Market)).
		Int("depth", req.ResearchDepth).
		Msg("submitting analysis")

	resp, err := s.api.CreateAnalysis(ctx, req.toBackend())
	if err != nil {
		s.log.Warn().Err(err).Str("symbol", req.Symbol).Msg("submission failed")
		return nil, newSubmissionError(err)
	}

	status, err := models.ParseJobStatus(resp.Status)
	if err != nil {
		status = models.StatusQueued
	}
	symbol := resp.Symbol
	if symbol == "" {
		symbol = req.Symbol
	}
	handle := &JobHandle{
		ID:      resp.AnalysisID,
		Message: resp.Message,
		Job: models.AnalysisJob{
			ID:        resp.AnalysisID,
			Status:    status,
			Symbol:    symbol,
			Market:    req.Market,
			CreatedAt: s.now(),
		},
	}
	s.log.Info().Str("job_id", handle.ID).Msg("analysis queued")
	return handle, nil
}
