package internaldefs

import (
	"github.com/MrEthical07/tokenAuth"
)

// Def names one engine metric.
type Def struct {
	ID   tokenAuth.MetricID
	Name string
	Help string
}

// AuditDropped is published next to the engine counters.
var AuditDropped = Def{Name: "tokenauth_audit_dropped_total", Help: "Audit events dropped because the dispatcher buffer was full."}

var Counters = []Def{
	{ID: tokenAuth.MetricLoginSuccess, Name: "tokenauth_login_success_total", Help: "Logins that issued a token pair."},
	{ID: tokenAuth.MetricLoginFailure, Name: "tokenauth_login_failure_total", Help: "Logins rejected for bad credentials."},
	{ID: tokenAuth.MetricLoginRateLimited, Name: "tokenauth_login_rate_limited_total", Help: "Logins rejected by the throttle."},
	{ID: tokenAuth.MetricRefreshSuccess, Name: "tokenauth_refresh_success_total", Help: "Refresh tokens exchanged for access tokens."},
	{ID: tokenAuth.MetricRefreshFailure, Name: "tokenauth_refresh_failure_total", Help: "Refresh attempts with invalid tokens."},
	{ID: tokenAuth.MetricRefreshRevoked, Name: "tokenauth_refresh_revoked_total", Help: "Refresh attempts with logged-out tokens."},
	{ID: tokenAuth.MetricLogout, Name: "tokenauth_logout_total", Help: "Refresh tokens revoked by logout."},
	{ID: tokenAuth.MetricAuthenticateSuccess, Name: "tokenauth_authenticate_success_total", Help: "Bearer tokens accepted."},
	{ID: tokenAuth.MetricAuthenticateFailure, Name: "tokenauth_authenticate_failure_total", Help: "Bearer tokens rejected."},
	{ID: tokenAuth.MetricAccountCreated, Name: "tokenauth_account_created_total", Help: "Accounts registered."},
	{ID: tokenAuth.MetricAccountDuplicate, Name: "tokenauth_account_duplicate_total", Help: "Registrations rejected as duplicates."},
	{ID: tokenAuth.MetricRevocationUnavailable, Name: "tokenauth_revocation_unavailable_total", Help: "Revocation store errors."},
}

var Histograms = []Def{
	{ID: tokenAuth.MetricAuthenticateLatency, Name: "tokenauth_authenticate_latency_seconds", Help: "Bearer token validation latency."},
}

// Bounds are the upper edges of the engine's eight latency buckets, in seconds.
var Bounds = [8]string{"0.005", "0.01", "0.025", "0.05", "0.1", "0.25", "0.5", "+Inf"}

// Cumulative converts per-bucket counts into running totals. Missing
// buckets count as zero and extra ones are ignored.
func Cumulative(raw []uint64) [8]uint64 {
	var out [8]uint64
	var total uint64
	for i := range out {
		if i < len(raw) {
			total += raw[i]
		}
		out[i] = total
	}
	return out
}
