package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
)

// Backend credentials accepted by FakeBackend.
const (
	BackendUser     = "ada"
	BackendPassword = "lovelace"
	BackendAccess   = "access-1"
	BackendRefresh  = "refresh-1"
)

// FakeBackend is an in-memory stand-in for the study plan REST backend. It
// accepts BackendAccess as the only valid bearer token.
type FakeBackend struct {
	*httptest.Server

	mu     sync.Mutex
	plans  []map[string]any
	nextID int
	calls  map[string]int
}

// NewFakeBackend starts a FakeBackend that is closed when the test ends.
func NewFakeBackend(t *testing.T) *FakeBackend {
	t.Helper()
	b := &FakeBackend{nextID: 1, calls: map[string]int{}}

	r := chi.NewRouter()
	r.Use(b.count)
	r.Post("/api/token/", b.login)
	r.Post("/api/token/refresh/", b.refresh)
	r.Group(func(r chi.Router) {
		r.Use(b.authenticate)
		r.Get("/api/profile/", b.profile)
		r.Post("/roadmap/studyplan/create/", b.createPlan)
		r.Get("/roadmap/user_study_plans/", b.listPlans)
		r.Get("/roadmap/roadmap/get_plan/{id}/", b.getPlan)
		r.Delete("/roadmap/delete_plan/{id}/", b.deletePlan)
	})

	b.Server = httptest.NewServer(r)
	t.Cleanup(b.Close)
	return b
}

// AddPlan stores a plan record as the backend would return it and returns
// its id.
func (b *FakeBackend) AddPlan(topic string, hours float64, nodes ...map[string]any) string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.addLocked(topic, hours, nodes)
}

// Calls returns how often "METHOD path" was requested.
func (b *FakeBackend) Calls(method, path string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls[method+" "+path]
}

// PlanCount returns the number of stored plans.
func (b *FakeBackend) PlanCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.plans)
}

func (b *FakeBackend) addLocked(topic string, hours float64, nodes []map[string]any) string {
	id := b.nextID
	b.nextID++
	roadmap := make([]any, 0, len(nodes))
	for _, n := range nodes {
		roadmap = append(roadmap, n)
	}
	b.plans = append(b.plans, map[string]any{
		"id":             id,
		"main_topic":     topic,
		"available_time": hours,
		"created_at":     "2026-03-14T09:30:00Z",
		"roadmap":        roadmap,
	})
	return strconv.Itoa(id)
}

func (b *FakeBackend) count(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		b.calls[r.Method+" "+r.URL.Path]++
		b.mu.Unlock()
		next.ServeHTTP(w, r)
	})
}

func (b *FakeBackend) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer "+BackendAccess {
			reply(w, http.StatusUnauthorized, map[string]string{"detail": "Given token not valid"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (b *FakeBackend) login(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Identifier string `json:"identifier"`
		Password   string `json:"password"`
	}
	_ = json.NewDecoder(r.Body).Decode(&body)
	if body.Identifier != BackendUser || body.Password != BackendPassword {
		reply(w, http.StatusUnauthorized, map[string]string{"error": "Invalid credentials"})
		return
	}
	reply(w, http.StatusOK, map[string]string{"access": BackendAccess, "refresh": BackendRefresh})
}

func (b *FakeBackend) refresh(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Refresh string `json:"refresh"`
	}
	_ = json.NewDecoder(r.Body).Decode(&body)
	if body.Refresh != BackendRefresh {
		reply(w, http.StatusUnauthorized, map[string]string{"detail": "Token is invalid or expired"})
		return
	}
	reply(w, http.StatusOK, map[string]string{"access": BackendAccess})
}

func (b *FakeBackend) profile(w http.ResponseWriter, r *http.Request) {
	reply(w, http.StatusOK, map[string]any{"id": 42, "username": BackendUser, "email": "ada@example.com"})
}

func (b *FakeBackend) createPlan(w http.ResponseWriter, r *http.Request) {
	var body struct {
		MainTopic     string  `json:"main_topic"`
		AvailableTime float64 `json:"available_time"`
	}
	_ = json.NewDecoder(r.Body).Decode(&body)
	if strings.TrimSpace(body.MainTopic) == "" {
		reply(w, http.StatusBadRequest, map[string]string{"error": "No topic provided"})
		return
	}

	nodes := []map[string]any{
		{"id": "1", "topic": "Introduction to " + body.MainTopic, "estimated_time_hours": body.AvailableTime / 2, "prerequisites": []any{}},
		{"id": "2", "topic": "Applied " + body.MainTopic, "estimated_time_hours": body.AvailableTime / 2, "prerequisites": []any{"1"}},
	}

	b.mu.Lock()
	id := b.addLocked(body.MainTopic, body.AvailableTime, nodes)
	plan := b.plans[len(b.plans)-1]
	b.mu.Unlock()

	n, _ := strconv.Atoi(id)
	reply(w, http.StatusCreated, map[string]any{
		"plan": map[string]any{
			"id":             n,
			"main_topic":     plan["main_topic"],
			"available_time": plan["available_time"],
			"created_at":     plan["created_at"],
		},
		"roadmap": map[string]any{"main_topic": body.MainTopic, "roadmap": plan["roadmap"]},
	})
}

func (b *FakeBackend) listPlans(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	reply(w, http.StatusOK, b.plans)
}

func (b *FakeBackend) getPlan(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if i := b.indexLocked(chi.URLParam(r, "id")); i >= 0 {
		reply(w, http.StatusOK, b.plans[i])
		return
	}
	reply(w, http.StatusNotFound, map[string]string{"error": "StudyPlan not found"})
}

func (b *FakeBackend) deletePlan(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	i := b.indexLocked(chi.URLParam(r, "id"))
	if i < 0 {
		reply(w, http.StatusNotFound, map[string]string{"error": "StudyPlan not found"})
		return
	}
	b.plans = append(b.plans[:i], b.plans[i+1:]...)
	w.WriteHeader(http.StatusNoContent)
}

func (b *FakeBackend) indexLocked(id string) int {
	for i, p := range b.plans {
		if strconv.Itoa(p["id"].(int)) == id {
			return i
		}
	}
	return -1
}

func reply(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
