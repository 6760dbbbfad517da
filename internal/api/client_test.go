package api_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/alexanderramin/studymap/internal/api"
	"github.com/alexanderramin/studymap/internal/domain"
	"github.com/alexanderramin/studymap/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSessionStore(t *testing.T, access, refresh string) *store.ProgressStore {
	t.Helper()
	s := store.NewProgressStore(store.NewMemoryKV())
	require.NoError(t, s.SaveSession(context.Background(), store.Session{
		User:    &domain.User{ID: "1", Username: "ada"},
		Access:  access,
		Refresh: refresh,
	}))
	return s
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestCreatePlan_SendsBearerAndDecodesEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/roadmap/studyplan/create/", r.URL.Path)
		require.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "Graphs", body["main_topic"])
		assert.Equal(t, 6.0, body["available_time"])

		writeJSON(w, http.StatusCreated, map[string]any{
			"plan": map[string]any{"id": 12, "main_topic": "Graphs", "available_time": 6, "created_at": "2026-01-02T10:00:00Z"},
			"roadmap": map[string]any{
				"main_topic": "Graphs",
				"roadmap": []any{
					map[string]any{"id": "1", "topic": "Basics", "estimated_time_hours": 2, "prerequisites": []any{}},
					map[string]any{"id": "2", "topic": "Search", "estimated_time_hours": 4, "prerequisites": []any{"1"}},
				},
			},
		})
	}))
	defer srv.Close()

	c := api.New(srv.URL, api.WithTokenSource(newSessionStore(t, "tok", "ref")))
	plan, err := c.CreatePlan(context.Background(), api.CreatePlanRequest{MainTopic: "Graphs", AvailableTime: 6})
	require.NoError(t, err)

	assert.Equal(t, "12", plan.ID)
	assert.Equal(t, 6.0, plan.AvailableHours)
	assert.Equal(t, domain.SourceRemote, plan.Source)
	require.Len(t, plan.Roadmap, 2)
	assert.Equal(t, []string{"1"}, plan.Roadmap[1].Prerequisites)
}

func TestListPlans_NormalisesRecords(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/roadmap/user_study_plans/", r.URL.Path)
		writeJSON(w, http.StatusOK, []any{
			map[string]any{"id": 3, "main_topic": "Go", "available_time": 10},
			map[string]any{"id": 4, "topic": "Rust"},
		})
	}))
	defer srv.Close()

	plans, err := api.New(srv.URL).ListPlans(context.Background())
	require.NoError(t, err)
	require.Len(t, plans, 2)
	assert.Equal(t, "3", plans[0].ID)
	assert.Equal(t, "Rust", plans[1].MainTopic)
	assert.Equal(t, domain.SourceRemote, plans[1].Source)
}

func TestGetPlan_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/roadmap/roadmap/get_plan/99/", r.URL.Path)
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "StudyPlan not found"})
	}))
	defer srv.Close()

	_, err := api.New(srv.URL).GetPlan(context.Background(), "99")
	assert.ErrorIs(t, err, api.ErrNotFound)

	var se *api.StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusNotFound, se.Code)
	assert.Contains(t, se.Body, "StudyPlan not found")
}

func TestDeletePlan_NoContent(t *testing.T) {
	var called bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = r.Method == http.MethodDelete && r.URL.Path == "/roadmap/delete_plan/5/"
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	require.NoError(t, api.New(srv.URL).DeletePlan(context.Background(), "5"))
	assert.True(t, called)
}

func TestUnauthorized_RefreshesAndRetriesOnce(t *testing.T) {
	var refreshes atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/token/refresh/":
			refreshes.Add(1)
			var body map[string]string
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "ref", body["refresh"])
			writeJSON(w, http.StatusOK, map[string]string{"access": "fresh"})
		default:
			if r.Header.Get("Authorization") != "Bearer fresh" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			writeJSON(w, http.StatusOK, []any{})
		}
	}))
	defer srv.Close()

	sess := newSessionStore(t, "old", "ref")
	c := api.New(srv.URL, api.WithTokenSource(sess))

	_, err := c.ListPlans(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(1), refreshes.Load())

	tok, err := sess.AccessToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "fresh", tok)
}

func TestUnauthorized_ConcurrentCallersShareOneRefresh(t *testing.T) {
	var refreshes atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/token/refresh/" {
			refreshes.Add(1)
			writeJSON(w, http.StatusOK, map[string]string{"access": "fresh"})
			return
		}
		if r.Header.Get("Authorization") != "Bearer fresh" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		writeJSON(w, http.StatusOK, []any{})
	}))
	defer srv.Close()

	c := api.New(srv.URL, api.WithTokenSource(newSessionStore(t, "old", "ref")))

	var wg sync.WaitGroup
	errs := make([]error, 8)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = c.ListPlans(context.Background())
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		assert.NoError(t, err)
	}
	assert.Equal(t, int32(1), refreshes.Load())
}

func TestUnauthorized_FailedRefreshClearsSession(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	sess := newSessionStore(t, "old", "ref")
	_, err := api.New(srv.URL, api.WithTokenSource(sess)).ListPlans(context.Background())
	assert.ErrorIs(t, err, api.ErrSessionExpired)

	got, err := sess.Session(context.Background())
	require.NoError(t, err)
	assert.Empty(t, got.Access)
	assert.Empty(t, got.Refresh)
	assert.Nil(t, got.User)
}

func TestUnauthorized_WithoutSessionIsReported(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	_, err := api.New(srv.URL).ListPlans(context.Background())
	assert.ErrorIs(t, err, api.ErrUnauthorized)
}

func TestBackendDown_IsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := api.New(url).ListPlans(context.Background())
	assert.ErrorIs(t, err, api.ErrUnavailable)
}

func TestLogin(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Empty(t, r.Header.Get("Authorization"))
		if body["password"] != "pw" {
			writeJSON(w, http.StatusBadRequest, map[string]any{"non_field_errors": []string{"Invalid credentials."}})
			return
		}
		assert.Equal(t, "ada@example.com", body["identifier"])
		writeJSON(w, http.StatusOK, api.Tokens{Access: "a", Refresh: "r"})
	}))
	defer srv.Close()

	c := api.New(srv.URL)
	tokens, err := c.Login(context.Background(), "ada@example.com", "pw")
	require.NoError(t, err)
	assert.Equal(t, api.Tokens{Access: "a", Refresh: "r"}, tokens)

	_, err = c.Login(context.Background(), "ada@example.com", "nope")
	var se *api.StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusBadRequest, se.Code)
}
