package trace

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"paysched/internal/log"
)

type observation struct {
	method, route string
	code          int
}

type fakeObserver struct{ seen []observation }

func (f *fakeObserver) ObserveHTTP(method, route string, code int, _ time.Duration) {
	f.seen = append(f.seen, observation{method, route, code})
}

func TestMiddlewareAssignsRequestIDAndObservesRoute(t *testing.T) {
	obs := &fakeObserver{}
	var seenID string

	r := chi.NewRouter()
	r.Use(NewMiddleware(func(*http.Request) string { return "203.0.113.1" }, obs).Middleware)
	r.Get("/payments/{id}", func(w http.ResponseWriter, req *http.Request) {
		seenID = log.RequestID(req.Context())
		w.WriteHeader(http.StatusNotFound)
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/payments/42", nil))

	require.Equal(t, http.StatusNotFound, rec.Code)
	id := rec.Header().Get(HeaderRequestID)
	_, err := uuid.Parse(id)
	require.NoError(t, err)
	require.Equal(t, id, seenID)
	require.Equal(t, []observation{{http.MethodGet, "/payments/{id}", http.StatusNotFound}}, obs.seen)
}

func TestMiddlewareKeepsValidIncomingID(t *testing.T) {
	h := NewMiddleware(nil, nil).Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	}))

	incoming := uuid.NewString()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(HeaderRequestID, incoming)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, incoming, rec.Header().Get(HeaderRequestID))

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(HeaderRequestID, "<script>")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.NotEqual(t, "<script>", rec.Header().Get(HeaderRequestID))
}

func TestMiddlewareLabelsUnmatchedPathsWithOneRoute(t *testing.T) {
	obs := &fakeObserver{}
	r := chi.NewRouter()
	r.Use(NewMiddleware(nil, obs).Middleware)
	r.Get("/payments", func(w http.ResponseWriter, _ *http.Request) {})

	for i := 0; i < 50; i++ {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, fmt.Sprintf("/scan/%d", i), nil))
		require.Equal(t, http.StatusNotFound, rec.Code)
	}

	routes := map[string]bool{}
	for _, o := range obs.seen {
		routes[o.route] = true
	}
	require.Equal(t, map[string]bool{UnmatchedRoute: true}, routes)
}
