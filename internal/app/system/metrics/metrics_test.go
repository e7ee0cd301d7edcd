package metrics_test

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dalemusser/mentorhub/internal/app/system/metrics"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCounters(t *testing.T) {
	m := metrics.New()
	m.SignIn(metrics.OutcomeSuccess)
	m.SignIn(metrics.OutcomeFailure)
	m.SignIn(metrics.OutcomeFailure)
	m.NotificationFailed("appointment_confirmed")
	m.Abandoned()

	if got := testutil.ToFloat64(m.SignIns.WithLabelValues(metrics.OutcomeFailure)); got != 2 {
		t.Errorf("failed sign-ins = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.NotificationsFailed.WithLabelValues("appointment_confirmed")); got != 1 {
		t.Errorf("notifications failed = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.OutboxAbandoned); got != 1 {
		t.Errorf("abandoned = %v, want 1", got)
	}
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *metrics.Metrics
	m.SignIn(metrics.OutcomeSuccess)
	m.SignUp(metrics.OutcomeFailure)
	m.NotificationFailed("x")
	m.Delivered()
	m.Retried()
	m.Abandoned()
	m.Subscribed("feed", 1)
}

func TestHandler(t *testing.T) {
	m := metrics.New()
	m.Delivered()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, _ := io.ReadAll(rec.Body)
	if !strings.Contains(string(body), "mentorhub_outbox_delivered_total 1") {
		t.Errorf("exposition missing delivered counter:\n%s", body)
	}
}
