package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/health", s.handleHealth)
	r.Get("/ws", s.handleWebSocket)

	r.Route("/api", func(r chi.Router) {
		r.Use(s.requestLogger)
		r.Use(middleware.Timeout(30 * time.Second))

		r.Route("/session", func(r chi.Router) {
			r.Get("/", s.handleGetSession)
			r.Post("/", s.handleStartSession)
			r.Delete("/", s.handleResetSession)
			r.Post("/turns", s.handleSubmitTurn)
			r.Post("/undo", s.handleUndo)
			r.Post("/penalties", s.handleAddPenalty)
			r.Delete("/players/{id}/penalties/last", s.handleUndoPenalty)
			r.Post("/rounds", s.handleNextRound)
			r.Post("/end", s.handleEndSession)
			r.Get("/players/{id}/stats", s.handleTurnStats)
		})

		r.Get("/players/{key}/statistics", s.handlePlayerStatistics)
		r.Get("/history", s.handleHistory)
		r.Get("/presets", s.handlePresets)
	})
	return r
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		defer func() {
			s.logger.Debug("http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration_ms", time.Since(start).Milliseconds(),
				"request_id", middleware.GetReqID(r.Context()),
			)
		}()

		next.ServeHTTP(ww, r)
	})
}
