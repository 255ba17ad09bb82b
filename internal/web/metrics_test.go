package web

import (
	"errors"
	"net/http"
	"strings"
	"testing"
)

func TestMetricsEndpoint(t *testing.T) {
	e := newTestEnv(t)

	expectStatus(t, e.request(t, "GET", "/health", false, nil), http.StatusOK)
	expectStatus(t, e.request(t, "GET", "/health", false, nil), http.StatusOK)
	expectStatus(t, e.request(t, "GET", "/get-one?ref=missing", false, nil), http.StatusNotFound)
	expectStatus(t, e.request(t, "POST", "/user/contact-us", false, map[string]string{
		"name": "Jeanne", "email": "jeanne@example.com", "contenu": "Bonjour",
	}), http.StatusOK)

	e.notifier.err = errors.New("smtp down")
	expectStatus(t, e.request(t, "POST", "/user/contact-us", false, map[string]string{
		"name": "Jeanne", "email": "jeanne@example.com", "contenu": "Encore",
	}), http.StatusBadGateway)

	w := e.request(t, "GET", "/metrics", false, nil)
	expectStatus(t, w, http.StatusOK)

	body := w.Body.String()
	for _, want := range []string{
		`biens_http_requests_total{method="GET",route="/health",status="200"} 2`,
		`biens_http_requests_total{method="GET",route="/get-one",status="404"} 1`,
		`biens_http_requests_total{method="POST",route="/user/contact-us",status="502"} 1`,
		`biens_http_request_duration_seconds_count{method="GET",route="/health"} 2`,
		`biens_leads_total{kind="contact",result="delivered"} 1`,
		`biens_leads_total{kind="contact",result="failed"} 1`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("metrics missing %s", want)
		}
	}
}

func TestMetricsArePerServer(t *testing.T) {
	a := newTestEnv(t)
	b := newTestEnv(t)

	expectStatus(t, a.request(t, "GET", "/health", false, nil), http.StatusOK)

	w := b.request(t, "GET", "/metrics", false, nil)
	if strings.Contains(w.Body.String(), `route="/health"`) {
		t.Error("request on one server leaked into another server's metrics")
	}
}
