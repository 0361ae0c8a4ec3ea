package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetrics_CapturesStatus(t *testing.T) {
	handler := Metrics(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))

	if w.Code != http.StatusNotFound {
		t.Errorf("status: got %d, want %d", w.Code, http.StatusNotFound)
	}
}

func TestMetrics_InFlightReturnsToZero(t *testing.T) {
	handler := Metrics(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if val := testutil.ToFloat64(requestsInFlight); val < 1 {
			t.Errorf("in-flight during request: got %f, want >= 1", val)
		}
	}))

	before := testutil.ToFloat64(requestsInFlight)
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/test", nil))
	if after := testutil.ToFloat64(requestsInFlight); after != before {
		t.Errorf("in-flight after request: got %f, want %f", after, before)
	}
}

func TestMetrics_RecordsRoutePattern(t *testing.T) {
	mux := chi.NewRouter()
	mux.Use(Metrics)
	mux.Get("/game/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	before := counterValue(t, "sealhunt_requests_total", map[string]string{"method": "GET", "route": "/game/{id}", "status": "200"})
	mux.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/game/550e8400-e29b-41d4-a716-446655440000", nil))
	after := counterValue(t, "sealhunt_requests_total", map[string]string{"method": "GET", "route": "/game/{id}", "status": "200"})

	if after-before != 1 {
		t.Errorf("requests_total delta: got %f, want 1", after-before)
	}
}

func TestDomainCounters(t *testing.T) {
	before := testutil.ToFloat64(gamesFinished.WithLabelValues("hard", "won"))
	GameFinished("hard", "won")
	if got := testutil.ToFloat64(gamesFinished.WithLabelValues("hard", "won")) - before; got != 1 {
		t.Errorf("games_finished delta: got %f", got)
	}

	errBefore := testutil.ToFloat64(platformCalls.WithLabelValues("setGameScore", "error"))
	PlatformCall("setGameScore", errors.New("boom"))
	PlatformCall("setGameScore", nil)
	if got := testutil.ToFloat64(platformCalls.WithLabelValues("setGameScore", "error")) - errBefore; got != 1 {
		t.Errorf("platform error delta: got %f", got)
	}

	BreakerState("telegram", 1)
	if got := testutil.ToFloat64(breakerState.WithLabelValues("telegram")); got != 1 {
		t.Errorf("breaker state: got %f", got)
	}
}

func TestPoolCollector_NilPool(t *testing.T) {
	c := NewPoolCollector(nil)

	descs := make(chan *prometheus.Desc, 20)
	c.Describe(descs)
	close(descs)
	if n := len(descs); n != 7 {
		t.Errorf("descriptor count: got %d, want 7", n)
	}

	ms := make(chan prometheus.Metric, 20)
	c.Collect(ms)
	close(ms)
	if n := len(ms); n != 0 {
		t.Errorf("metric count with nil pool: got %d, want 0", n)
	}
}

func counterValue(t *testing.T, name string, want map[string]string) float64 {
	t.Helper()
	families, err := prometheus.DefaultGatherer.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
	next:
		for _, m := range mf.GetMetric() {
			labels := map[string]string{}
			for _, lp := range m.GetLabel() {
				labels[lp.GetName()] = lp.GetValue()
			}
			for k, v := range want {
				if labels[k] != v {
					continue next
				}
			}
			return m.GetCounter().GetValue()
		}
	}
	return 0
}
