// RouteHub - Real-time Traffic and Construction Advisory Hub
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/routehub

package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"

	"github.com/tomtom215/routehub/internal/metrics"
)

func histogramCount(t *testing.T, method, endpoint string) uint64 {
	t.Helper()
	var m dto.Metric
	observer := metrics.APIRequestDuration.WithLabelValues(method, endpoint)
	if err := observer.(interface{ Write(*dto.Metric) error }).Write(&m); err != nil {
		t.Fatalf("write histogram: %v", err)
	}
	return m.GetHistogram().GetSampleCount()
}

func TestPrometheusMetrics_RecordsStatus(t *testing.T) {
	const path = "/test/prometheus/status"
	before := testutil.ToFloat64(metrics.APIRequestsTotal.WithLabelValues(http.MethodGet, path, "503"))
	beforeSamples := histogramCount(t, http.MethodGet, path)

	handler := PrometheusMetrics(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})
	rec := httptest.NewRecorder()
	handler(rec, httptest.NewRequest(http.MethodGet, path, nil))

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rec.Code)
	}
	if got := testutil.ToFloat64(metrics.APIRequestsTotal.WithLabelValues(http.MethodGet, path, "503")); got != before+1 {
		t.Errorf("api_requests_total = %v, want %v", got, before+1)
	}
	if got := histogramCount(t, http.MethodGet, path); got != beforeSamples+1 {
		t.Errorf("duration samples = %d, want %d", got, beforeSamples+1)
	}
}

func TestPrometheusMetrics_DefaultsTo200(t *testing.T) {
	const path = "/test/prometheus/implicit"
	before := testutil.ToFloat64(metrics.APIRequestsTotal.WithLabelValues(http.MethodGet, path, "200"))

	handler := PrometheusMetrics(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})
	handler(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))

	if got := testutil.ToFloat64(metrics.APIRequestsTotal.WithLabelValues(http.MethodGet, path, "200")); got != before+1 {
		t.Errorf("api_requests_total = %v, want %v", got, before+1)
	}
}

func TestPrometheusMetrics_HijackUnsupported(t *testing.T) {
	handler := PrometheusMetrics(func(w http.ResponseWriter, r *http.Request) {
		hj, ok := w.(http.Hijacker)
		if !ok {
			t.Fatal("wrapper should implement http.Hijacker")
		}
		if _, _, err := hj.Hijack(); err == nil {
			t.Error("Hijack on a recorder should fail")
		}
	})
	handler(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/ws", nil))
}
