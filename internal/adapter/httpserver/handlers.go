package httpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/leadfunnel/opportunity-analyzer/internal/config"
	"github.com/leadfunnel/opportunity-analyzer/internal/domain"
	"github.com/leadfunnel/opportunity-analyzer/internal/usecase"
)

// Server aggregates handler dependencies.
type Server struct {
	Cfg        config.Config
	Analyzer   usecase.AnalyzeService
	StoreCheck func(ctx context.Context) error
}

// NewServer constructs an HTTP server with all handlers wired.
func NewServer(cfg config.Config, analyzer usecase.AnalyzeService, storeCheck func(context.Context) error) *Server {
	return &Server{Cfg: cfg, Analyzer: analyzer, StoreCheck: storeCheck}
}

var (
	vldOnce sync.Once
	vld     *validator.Validate
)

func getValidator() *validator.Validate {
	vldOnce.Do(func() { vld = validator.New() })
	return vld
}

// analyzeRequest accepts both the documented "answers" key and the
// legacy "interviewData" alias the funnel frontend still sends.
type analyzeRequest struct {
	Answers       domain.UserAnswers `json:"answers"`
	InterviewData domain.UserAnswers `json:"interviewData"`
}

type analyzePayload struct {
	Answers domain.UserAnswers `validate:"required,min=1"`
}

const (
	msgCompleted = "Analysis completed."
	msgDegraded  = "Analysis completed. Some services were temporarily degraded; results are based on your profile summary."
)

type analyzeResponse struct {
	Success bool                  `json:"success"`
	ID      string                `json:"id"`
	Data    domain.AnalysisResult `json:"data"`
	Message string                `json:"message"`
}

// AnalyzeHandler runs the pipeline for one interview submission. The
// only failure a caller can see is missing input; provider and parse
// failures degrade to a synthetic result behind a 200.
func (s *Server) AnalyzeHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req analyzeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, r, fmt.Errorf("%w: body must be JSON", domain.ErrInvalidArgument), nil)
			return
		}
		answers := req.Answers
		if len(answers) == 0 {
			answers = req.InterviewData
		}
		if err := getValidator().Struct(analyzePayload{Answers: answers}); err != nil {
			writeError(w, r, fmt.Errorf("%w: answers are required", domain.ErrInvalidArgument), nil)
			return
		}

		analysis, err := s.Analyzer.Analyze(r.Context(), answers)
		if err != nil {
			// Only caller cancellation reaches here; there is nobody
			// left to respond to, but end the exchange cleanly.
			writeError(w, r, fmt.Errorf("request cancelled: %w", err), nil)
			return
		}

		msg := msgCompleted
		if analysis.Degraded {
			msg = msgDegraded
		}
		writeJSON(w, http.StatusOK, analyzeResponse{
			Success: true,
			ID:      NewID(),
			Data:    analysis.Result,
			Message: msg,
		})
	}
}

// ReadyzHandler reports dependency readiness (the usage store).
func (s *Server) ReadyzHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.StoreCheck != nil {
			if err := s.StoreCheck(r.Context()); err != nil {
				writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded", "store": err.Error()})
				return
			}
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
