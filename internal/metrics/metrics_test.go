package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
)

func scrape(t *testing.T, m *Metrics) string {
	t.Helper()
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, err := io.ReadAll(rec.Body)
	if err != nil {
		t.Fatalf("read metrics: %v", err)
	}
	return string(body)
}

func TestCountersAreExposed(t *testing.T) {
	m := New()
	m.ObserveAction("correlate", "pending")
	m.ObserveAction("correlate", "pending")
	m.ObserveGateway("error")
	m.ObserveMutation("ioc", "create")
	m.IncrementEventPublishErrors()

	body := scrape(t, m)
	for _, want := range []string{
		`threatone_action_transitions_total{action="correlate",phase="pending"} 2`,
		`threatone_gateway_requests_total{outcome="error"} 1`,
		`threatone_entity_mutations_total{kind="ioc",op="create"} 1`,
		`threatone_event_publish_errors_total 1`,
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("missing %q from exposition:\n%s", want, body)
		}
	}
}

func TestInstancesDoNotCollide(t *testing.T) {
	a, b := New(), New()
	a.ObserveGateway("ok")
	if strings.Contains(scrape(t, b), `outcome="ok"`) {
		t.Fatalf("metrics leaked between instances")
	}
}
