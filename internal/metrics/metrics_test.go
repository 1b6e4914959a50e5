package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestObserveDispatch(t *testing.T) {
	m := New()

	m.ObserveDispatch(OutcomeOK, 10*time.Millisecond)
	m.ObserveDispatch(OutcomeOK, 20*time.Millisecond)
	m.ObserveDispatch(OutcomeFailedPrecondition, time.Millisecond)

	if got := testutil.ToFloat64(m.dispatches.WithLabelValues(OutcomeOK)); got != 2 {
		t.Errorf("expected 2 ok dispatches, got %v", got)
	}
	if got := testutil.ToFloat64(m.dispatches.WithLabelValues(OutcomeFailedPrecondition)); got != 1 {
		t.Errorf("expected 1 failed_precondition dispatch, got %v", got)
	}
}

func TestObservePushResults(t *testing.T) {
	m := New()

	m.ObservePushResults(2, 1)
	m.ObservePushResults(3, 0)

	if got := testutil.ToFloat64(m.pushResults.WithLabelValues("success")); got != 5 {
		t.Errorf("expected 5 successes, got %v", got)
	}
	if got := testutil.ToFloat64(m.pushResults.WithLabelValues("failure")); got != 1 {
		t.Errorf("expected 1 failure, got %v", got)
	}
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.ObserveDispatch(OutcomeOK, time.Second)
	m.ObservePushResults(1, 1)
}

func TestHandler(t *testing.T) {
	m := New()
	m.ObserveDispatch(OutcomeOK, time.Millisecond)

	server := httptest.NewServer(m.Handler())
	defer server.Close()

	resp, err := http.Get(server.URL)
	if err != nil {
		t.Fatalf("GET /metrics failed: %v", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), `sos_dispatch_total{outcome="ok"} 1`) {
		t.Errorf("expected dispatch counter in exposition, got:\n%s", body)
	}
}
