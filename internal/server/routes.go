package server

import (
	"net/http"
)

func (s *HttpServer) loadRoutes(mux *http.ServeMux) http.HandlerFunc {
	mux.HandleFunc("GET /plan", s.getPlan)
	mux.HandleFunc("POST /confirm", s.confirm)
	mux.HandleFunc("POST /decline", s.decline)
	mux.HandleFunc("GET /healthcheck", s.healthCheck)

	return mux.ServeHTTP
}
