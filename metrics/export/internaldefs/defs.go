package internaldefs

import (
	roleAuth "github.com/MrEthical07/roleAuth"
)

// CounterDef names one engine counter for exporters.
type CounterDef struct {
	ID   roleAuth.MetricID
	Name string
	Help string
}

// HistogramDef names one engine histogram for exporters.
type HistogramDef struct {
	ID   roleAuth.MetricID
	Name string
	Help string
}

// AuditDroppedName is the counter for events lost to dispatcher backpressure.
const (
	AuditDroppedName = "roleauth_audit_dropped_total"
	AuditDroppedHelp = "Dropped audit events due to dispatcher backpressure."
)

var CounterDefs = []CounterDef{
	{ID: roleAuth.MetricLoginSuccess, Name: "roleauth_login_success_total", Help: "Successful logins."},
	{ID: roleAuth.MetricLoginFailure, Name: "roleauth_login_failure_total", Help: "Failed logins."},
	{ID: roleAuth.MetricAuthenticateSuccess, Name: "roleauth_authenticate_success_total", Help: "Requests authorized by the session gate."},
	{ID: roleAuth.MetricAuthenticateFailure, Name: "roleauth_authenticate_failure_total", Help: "Requests rejected by the session gate."},
	{ID: roleAuth.MetricSupervisorRefreshSuccess, Name: "roleauth_supervisor_refresh_success_total", Help: "Supervisor access tokens re-issued."},
	{ID: roleAuth.MetricSupervisorRefreshFailure, Name: "roleauth_supervisor_refresh_failure_total", Help: "Rejected supervisor refresh attempts."},
	{ID: roleAuth.MetricRecruiterVerifySuccess, Name: "roleauth_recruiter_verify_success_total", Help: "Recruiter renewal tokens verified."},
	{ID: roleAuth.MetricRecruiterVerifyFailure, Name: "roleauth_recruiter_verify_failure_total", Help: "Rejected recruiter session verifications."},
	{ID: roleAuth.MetricRecruiterRenewSuccess, Name: "roleauth_recruiter_renew_success_total", Help: "Recruiter sessions rotated."},
	{ID: roleAuth.MetricRecruiterRenewFailure, Name: "roleauth_recruiter_renew_failure_total", Help: "Rejected recruiter renewals."},
	{ID: roleAuth.MetricLogout, Name: "roleauth_logout_total", Help: "Completed logouts."},
}

var HistogramDefs = []HistogramDef{
	{ID: roleAuth.MetricAuthenticateLatency, Name: "roleauth_authenticate_latency_seconds", Help: "Session gate latency."},
}

// HistogramBounds are the bucket labels in exposition order. The last is +Inf.
var HistogramBounds = []string{
	"0.005",
	"0.01",
	"0.025",
	"0.05",
	"0.1",
	"0.25",
	"0.5",
	"+Inf",
}

// HistogramBoundSuffix is HistogramBounds made safe for instrument names.
var HistogramBoundSuffix = []string{
	"0_005",
	"0_01",
	"0_025",
	"0_05",
	"0_1",
	"0_25",
	"0_5",
	"inf",
}

// UpperBounds returns the finite bucket bounds in seconds.
func UpperBounds() []float64 {
	out := make([]float64, len(roleAuth.LatencyBucketBounds))
	for i, d := range roleAuth.LatencyBucketBounds {
		out[i] = d.Seconds()
	}
	return out
}

// NormalizeBuckets copies raw into a fixed eight-slot array, zero-filling.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets converts per-bucket counts to running totals.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
