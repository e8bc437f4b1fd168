package http

import (
	"net/http"

	"fintrack/internal/core"
	"fintrack/internal/log"
)

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	params, present, err := ParseMonthParams(r.URL.Query(), s.transactions.Now())
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}

	var summary core.Summary
	if present {
		summary, err = s.transactions.MonthSummary(params.Year, params.Month)
		if err != nil {
			s.writeServiceError(w, r, err)
			return
		}
	} else {
		summary = s.transactions.Summary()
	}
	NewJSONResponse().Body(summary).Write(w)
}

type insightResponse struct {
	Text string `json:"text"`
}

// handleInsights always answers 200; failures come back as a fixed text.
func (s *Server) handleInsights(w http.ResponseWriter, r *http.Request) {
	text := s.insights.Analyze(r.Context())
	log.FromContext(r.Context()).DebugContext(r.Context(), "Insight served",
		log.FieldOperation, log.OpAnalyze)
	NewJSONResponse().Body(insightResponse{Text: text}).Write(w)
}
