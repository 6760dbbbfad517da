// Package server exposes plans, roadmap graphs and progress over a local
// HTTP API.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/alexanderramin/studymap/internal/api"
	"github.com/alexanderramin/studymap/internal/domain"
	"github.com/alexanderramin/studymap/internal/generator"
	"github.com/alexanderramin/studymap/internal/logging"
	"github.com/alexanderramin/studymap/internal/service"
	"github.com/alexanderramin/studymap/internal/viewmodel"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Server holds the handlers' dependencies.
type Server struct {
	Plans    service.PlanService
	Progress service.ProgressService
	Models   *Models
	Metrics  *Metrics
	Logger   *slog.Logger
}

// Handler builds the router.
func (s *Server) Handler() http.Handler {
	if s.Logger == nil {
		s.Logger = logging.NewNop()
	}
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	if s.Metrics != nil {
		r.Use(s.Metrics.instrument)
		r.Method(http.MethodGet, "/metrics", s.Metrics.Handler())
	}
	r.Use(s.logRequests)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/plans", func(r chi.Router) {
		r.Get("/", s.listPlans)
		r.Post("/", s.createPlan)
		r.Route("/{planID}", func(r chi.Router) {
			r.Get("/", s.getPlan)
			r.Delete("/", s.deletePlan)
			r.Get("/graph", s.graph)
			r.Get("/selected", s.selected)
			r.Get("/progress", s.planProgress)
			r.Post("/reset", s.reset)
			r.Post("/nodes/{nodeID}/click", s.click)
		})
	})
	r.Get("/progress", s.summary)
	return r
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	s.Logger.Info("serving local api", "addr", addr)

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

type createPlanBody struct {
	MainTopic     string         `json:"main_topic"`
	AvailableTime float64        `json:"available_time"`
	Purpose       domain.Purpose `json:"purpose_of_study"`
	Offline       bool           `json:"offline"`
}

type planListBody struct {
	Plans      []domain.StudyPlan `json:"plans"`
	Offline    bool               `json:"offline"`
	Duplicates []duplicateBody    `json:"duplicates,omitempty"`
}

type duplicateBody struct {
	Topic   string   `json:"main_topic"`
	PlanIDs []string `json:"plan_ids"`
}

type clickBody struct {
	viewmodel.ClickResult
	Graph viewmodel.Graph `json:"graph"`
}

func (s *Server) listPlans(w http.ResponseWriter, r *http.Request) {
	list, err := s.Plans.List(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	body := planListBody{Plans: list.Plans, Offline: list.Offline}
	if body.Plans == nil {
		body.Plans = []domain.StudyPlan{}
	}
	for _, d := range list.Duplicates {
		body.Duplicates = append(body.Duplicates, duplicateBody{Topic: d.Topic, PlanIDs: d.PlanIDs})
	}
	writeJSON(w, http.StatusOK, body)
}

func (s *Server) createPlan(w http.ResponseWriter, r *http.Request) {
	var body createPlanBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	plan, err := s.Plans.Create(r.Context(), service.CreatePlanInput{
		Topic:          body.MainTopic,
		AvailableHours: body.AvailableTime,
		Purpose:        body.Purpose,
		Offline:        body.Offline,
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, plan)
}

func (s *Server) getPlan(w http.ResponseWriter, r *http.Request) {
	plan, err := s.Plans.Get(r.Context(), chi.URLParam(r, "planID"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, plan)
}

func (s *Server) deletePlan(w http.ResponseWriter, r *http.Request) {
	if err := s.Plans.Delete(r.Context(), chi.URLParam(r, "planID")); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) graph(w http.ResponseWriter, r *http.Request) {
	model, ok := s.model(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, model.Graph())
}

func (s *Server) selected(w http.ResponseWriter, r *http.Request) {
	model, ok := s.model(w, r)
	if !ok {
		return
	}
	detail := model.Selected()
	if detail == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

func (s *Server) click(w http.ResponseWriter, r *http.Request) {
	model, ok := s.model(w, r)
	if !ok {
		return
	}
	res, err := model.Click(r.Context(), chi.URLParam(r, "nodeID"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, clickBody{ClickResult: res, Graph: model.Graph()})
}

func (s *Server) reset(w http.ResponseWriter, r *http.Request) {
	model, ok := s.model(w, r)
	if !ok {
		return
	}
	if err := model.Reset(r.Context()); err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, model.Graph())
}

func (s *Server) planProgress(w http.ResponseWriter, r *http.Request) {
	stats, err := s.Progress.PlanStats(r.Context(), chi.URLParam(r, "planID"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) summary(w http.ResponseWriter, r *http.Request) {
	report, err := s.Progress.Summary(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) model(w http.ResponseWriter, r *http.Request) (*viewmodel.Model, bool) {
	model, err := s.Models.Get(r.Context(), chi.URLParam(r, "planID"))
	if err != nil {
		s.fail(w, r, err)
		return nil, false
	}
	return model, true
}

// fail maps service errors to status codes. Unexpected errors are logged
// and reported without detail.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, service.ErrPlanNotFound), errors.Is(err, viewmodel.ErrUnknownNode):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrInvalidInput), errors.Is(err, generator.ErrEmptyTopic):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, api.ErrUnauthorized), errors.Is(err, api.ErrSessionExpired):
		writeError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, api.ErrUnavailable):
		writeError(w, http.StatusBadGateway, err.Error())
	default:
		s.Logger.Error("request failed", "method", r.Method, "path", r.URL.Path,
			"request_id", middleware.GetReqID(r.Context()), "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.Logger.Debug("http_request",
			"method", r.Method,
			"path", r.URL.Path,
			"request_id", middleware.GetReqID(r.Context()),
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
