package prometheus

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/MrEthical07/tokenAuth"
)

type fakeSource struct {
	snapshot tokenAuth.MetricsSnapshot
	dropped  uint64
}

func (f fakeSource) MetricsSnapshot() tokenAuth.MetricsSnapshot { return f.snapshot }
func (f fakeSource) AuditDropped() uint64                       { return f.dropped }

func render(src Source) string {
	var buf bytes.Buffer
	New(src).Render(&buf)
	return buf.String()
}

func TestRenderEmptyWhenDisabled(t *testing.T) {
	out := render(fakeSource{snapshot: tokenAuth.MetricsSnapshot{
		Counters:   map[tokenAuth.MetricID]uint64{},
		Histograms: map[tokenAuth.MetricID][]uint64{},
	}})
	if out != "" {
		t.Fatalf("expected no output, got:\n%s", out)
	}
}

func TestRenderCountersAndHistogram(t *testing.T) {
	out := render(fakeSource{
		snapshot: tokenAuth.MetricsSnapshot{
			Counters: map[tokenAuth.MetricID]uint64{
				tokenAuth.MetricLoginSuccess:   4,
				tokenAuth.MetricRefreshRevoked: 1,
			},
			Histograms: map[tokenAuth.MetricID][]uint64{
				tokenAuth.MetricAuthenticateLatency: {2, 1, 0, 0, 0, 0, 0, 1},
			},
			HistogramSums: map[tokenAuth.MetricID]time.Duration{
				tokenAuth.MetricAuthenticateLatency: 1250 * time.Millisecond,
			},
		},
		dropped: 3,
	})

	for _, want := range []string{
		"tokenauth_login_success_total 4",
		"tokenauth_refresh_revoked_total 1",
		"tokenauth_logout_total 0",
		`tokenauth_authenticate_latency_seconds_bucket{le="0.005"} 2`,
		`tokenauth_authenticate_latency_seconds_bucket{le="0.01"} 3`,
		`tokenauth_authenticate_latency_seconds_bucket{le="+Inf"} 4`,
		"tokenauth_authenticate_latency_seconds_sum 1.25\n",
		"tokenauth_authenticate_latency_seconds_count 4",
		"tokenauth_audit_dropped_total 3",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in:\n%s", want, out)
		}
	}
}

func TestHistogramOmittedWithoutLatency(t *testing.T) {
	out := render(fakeSource{snapshot: tokenAuth.MetricsSnapshot{
		Counters: map[tokenAuth.MetricID]uint64{tokenAuth.MetricLogout: 1},
	}})
	if strings.Contains(out, "latency") {
		t.Fatalf("unexpected histogram in:\n%s", out)
	}
}

func TestHandlerContentType(t *testing.T) {
	exp := New(fakeSource{snapshot: tokenAuth.MetricsSnapshot{
		Counters: map[tokenAuth.MetricID]uint64{tokenAuth.MetricLogout: 1},
	}})

	rec := httptest.NewRecorder()
	exp.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if got := rec.Header().Get("Content-Type"); !strings.HasPrefix(got, "text/plain") {
		t.Fatalf("unexpected content type %q", got)
	}
	if !strings.Contains(rec.Body.String(), "tokenauth_logout_total 1") {
		t.Fatalf("unexpected body:\n%s", rec.Body.String())
	}
}

func BenchmarkRender(b *testing.B) {
	exp := New(fakeSource{snapshot: tokenAuth.MetricsSnapshot{
		Counters: map[tokenAuth.MetricID]uint64{
			tokenAuth.MetricLoginSuccess:        1000,
			tokenAuth.MetricAuthenticateSuccess: 90000,
		},
		Histograms: map[tokenAuth.MetricID][]uint64{
			tokenAuth.MetricAuthenticateLatency: {10, 20, 30, 40, 50, 60, 70, 80},
		},
	}})

	var buf bytes.Buffer
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		buf.Reset()
		exp.Render(&buf)
	}
}
