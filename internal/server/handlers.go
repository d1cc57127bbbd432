package server

import (
	"net/http"
	"receipt-resender/internal/dtos"
	"receipt-resender/internal/report"
)

func (s *HttpServer) getPlan(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	resp := dtos.PlanResponse{
		Entries:  report.PlanEntries(s.plan),
		Decision: s.decision,
	}
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, resp)
}

func (s *HttpServer) confirm(w http.ResponseWriter, r *http.Request) {
	s.respondDecision(w, s.decide(decisionConfirm), decisionConfirm)
}

func (s *HttpServer) decline(w http.ResponseWriter, r *http.Request) {
	s.respondDecision(w, s.decide(decisionDeclined), decisionDeclined)
}

func (s *HttpServer) respondDecision(w http.ResponseWriter, effective, requested string) {
	status := http.StatusOK
	if effective != requested {
		status = http.StatusConflict
	}
	writeJSON(w, status, dtos.DecisionResponse{Decision: effective})
}

func (s *HttpServer) healthCheck(w http.ResponseWriter, r *http.Request) {
	err := writeJSON(w, http.StatusOK, struct {
		Status string `json:"status"`
	}{
		Status: "all good",
	})
	if err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}
