package metrics

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNew_RegistersCollectors(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := New(registry)

	m.ObserveAuth("login", OutcomeSuccess)
	m.ObserveAuth("login", "forbidden")
	m.ObserveAuth("login", OutcomeSuccess)
	m.ObserveGateRejection("expired")
	m.ObserveMail(nil)
	m.ObserveMail(errors.New("smtp down"))

	if got := testutil.ToFloat64(m.AuthOperationsTotal.WithLabelValues("login", OutcomeSuccess)); got != 2 {
		t.Errorf("login success = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.AuthOperationsTotal.WithLabelValues("login", "forbidden")); got != 1 {
		t.Errorf("login forbidden = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.MailDispatchTotal.WithLabelValues("failed")); got != 1 {
		t.Errorf("mail failed = %v, want 1", got)
	}

	count, err := testutil.GatherAndCount(registry, "auth_operations_total")
	if err != nil {
		t.Fatalf("GatherAndCount: %v", err)
	}
	if count != 2 {
		t.Errorf("auth_operations_total series = %d, want 2", count)
	}
}

func TestHTTPMiddleware_UsesRouteTemplate(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := New(registry)

	r := mux.NewRouter()
	r.Use(HTTPMiddleware(m))
	r.HandleFunc("/items/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	for _, id := range []string{"1", "2", "3"} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/items/"+id, nil))
	}

	if got := testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("GET", "/items/{id}", "418")); got != 3 {
		t.Errorf("requests = %v, want 3", got)
	}
}

func TestHandler_ServesMetrics(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := New(registry)
	m.ObserveAuth("register", OutcomeSuccess)

	srv := httptest.NewServer(Handler(registry))
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	if err != nil {
		t.Fatalf("GET /metrics: %v", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), `auth_operations_total{operation="register",outcome="success"} 1`) {
		t.Errorf("metrics output missing counter:\n%s", body)
	}
}
