package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetricsExposeCounters(t *testing.T) {
	m := New(func() int { return 3 })
	m.ObserveMessage()
	m.ObserveEscalation("crisis", EscalationCreated)
	m.ObserveOracleFailure(OracleChat)

	if got := testutil.ToFloat64(m.Escalations.WithLabelValues("crisis", EscalationCreated)); got != 1 {
		t.Fatalf("expected 1 escalation, got %v", got)
	}

	srv := httptest.NewServer(m.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	if err != nil {
		t.Fatalf("GET metrics err: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)

	for _, want := range []string{"counsel_messages_total 1", "counsel_live_sessions 3", `counsel_oracle_failures_total{oracle="chat"} 1`} {
		if !strings.Contains(string(body), want) {
			t.Fatalf("metrics output missing %q", want)
		}
	}
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.ObserveMessage()
	m.ObserveSummary(true)
	m.ObserveEscalation("summary", EscalationFailed)

	rr := httptest.NewRecorder()
	m.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404 from nil metrics, got %d", rr.Code)
	}
}
