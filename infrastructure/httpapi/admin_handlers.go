package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/Mohaimin66/event-annotation-tool/internal/application"
)

// Admin handlers assume the requireAdmin wrapper has already verified the
// session.

func (s *Server) handleAdminProgress(w http.ResponseWriter, r *http.Request) {
	overview, err := s.service.AdminProgress(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, overview)
}

func (s *Server) handleAgreement(w http.ResponseWriter, r *http.Request) {
	report, err := s.service.AgreementReport(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// handleDisagreements serves only the conflict listing from the full
// agreement report, for reviewers who want the queue without the scores.
func (s *Server) handleDisagreements(w http.ResponseWriter, r *http.Request) {
	report, err := s.service.AgreementReport(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"disagreements": report.Disagreements,
		"total":         len(report.Disagreements),
	})
}

func (s *Server) handleMerged(w http.ResponseWriter, r *http.Request) {
	dataset, err := s.service.MergedDataset(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dataset)
}

func (s *Server) handleAdjudicationQueue(w http.ResponseWriter, r *http.Request) {
	queue, err := s.service.AdjudicationQueue(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, queue)
}

func (s *Server) handleAdjudicate(w http.ResponseWriter, r *http.Request) {
	var req application.SubmitAdjudicationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid adjudication payload")
		return
	}

	entry, err := s.service.SubmitAdjudication(r.Context(), req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "saved",
		"gold":   entry,
	})
}

// handleRegeneratePlan discards the persisted split plan. The next
// assignment request generates a fresh one, so annotators may receive
// different items afterwards.
func (s *Server) handleRegeneratePlan(w http.ResponseWriter, r *http.Request) {
	if err := s.service.RegeneratePlan(r.Context()); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "plan_discarded"})
}
