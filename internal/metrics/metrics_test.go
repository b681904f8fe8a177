package metrics_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"

	"github.com/skillswap/swapd/internal/metrics"
)

func TestInstrumentHandlerExposesRouteTemplate(t *testing.T) {
	r := mux.NewRouter()
	r.Use(metrics.InstrumentHandler)
	r.HandleFunc("/v1/swaps/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}).Methods(http.MethodGet)
	r.Handle("/metrics", metrics.Handler())

	req := httptest.NewRequest(http.MethodGet, "/v1/swaps/42", nil)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	if rr.Code != http.StatusTeapot {
		t.Fatalf("unexpected status %d", rr.Code)
	}

	metrics.RecordTransition("accept", "ok")

	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body, _ := io.ReadAll(rr.Body)
	out := string(body)

	if !strings.Contains(out, `swapd_http_requests_total{method="GET",path="/v1/swaps/{id}",status="418"}`) {
		t.Fatalf("expected templated request counter in output:\n%s", out)
	}
	if !strings.Contains(out, `swapd_swap_transitions_total{action="accept",result="ok"}`) {
		t.Fatalf("expected transition counter in output")
	}
}
