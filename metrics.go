package tokenward

import "sync/atomic"

// MetricID identifies one engine counter.
type MetricID uint8

const (
	MetricLoginSuccess MetricID = iota
	MetricLoginFailure
	MetricValidateSuccess
	MetricValidateRejected
	MetricValidateRevoked
	MetricRefreshSuccess
	MetricRefreshRejected
	MetricRefreshRevoked
	MetricLogoutSuccess
	MetricLogoutRejected
	MetricRevokeAll
	MetricRevokeUser
	MetricCleanupRuns
	MetricCleanupRemoved
	MetricStoreErrors
	MetricDirectoryErrors

	metricCount
)

// Metrics is a fixed set of lock-free counters. The hot path pays one
// atomic increment per outcome; exporters read snapshots.
type Metrics struct {
	counters [metricCount]atomic.Uint64
}

func newMetrics() *Metrics {
	return &Metrics{}
}

// Inc adds one to the counter.
func (m *Metrics) Inc(id MetricID) {
	m.Add(id, 1)
}

// Add adds n to the counter.
func (m *Metrics) Add(id MetricID, n uint64) {
	if m == nil || id >= metricCount {
		return
	}
	m.counters[id].Add(n)
}

// MetricsSnapshot is a point-in-time copy of every counter.
type MetricsSnapshot struct {
	Counters map[MetricID]uint64
}

// Snapshot copies the current counter values.
func (m *Metrics) Snapshot() MetricsSnapshot {
	snapshot := MetricsSnapshot{Counters: make(map[MetricID]uint64, metricCount)}
	if m == nil {
		return snapshot
	}
	for id := MetricID(0); id < metricCount; id++ {
		snapshot.Counters[id] = m.counters[id].Load()
	}
	return snapshot
}

// CounterDef describes one counter for metric exporters.
type CounterDef struct {
	ID   MetricID
	Name string
	Help string
}

// CounterDefs lists every engine counter in a stable order.
func CounterDefs() []CounterDef {
	return []CounterDef{
		{MetricLoginSuccess, "tokenward_login_success_total", "Successful logins."},
		{MetricLoginFailure, "tokenward_login_failure_total", "Rejected logins."},
		{MetricValidateSuccess, "tokenward_validate_success_total", "Access tokens validated."},
		{MetricValidateRejected, "tokenward_validate_rejected_total", "Access tokens rejected as invalid or expired."},
		{MetricValidateRevoked, "tokenward_validate_revoked_total", "Access tokens rejected as revoked."},
		{MetricRefreshSuccess, "tokenward_refresh_success_total", "Refresh rotations completed."},
		{MetricRefreshRejected, "tokenward_refresh_rejected_total", "Refresh tokens rejected as invalid or expired."},
		{MetricRefreshRevoked, "tokenward_refresh_revoked_total", "Refresh tokens rejected as revoked, including rotation reuse."},
		{MetricLogoutSuccess, "tokenward_logout_success_total", "Logouts recorded."},
		{MetricLogoutRejected, "tokenward_logout_rejected_total", "Logouts rejected."},
		{MetricRevokeAll, "tokenward_revoke_all_total", "Global revocation epoch updates."},
		{MetricRevokeUser, "tokenward_revoke_user_total", "Per-user revocation epoch updates."},
		{MetricCleanupRuns, "tokenward_cleanup_runs_total", "Denylist sweep invocations."},
		{MetricCleanupRemoved, "tokenward_cleanup_removed_total", "Expired denylist entries removed."},
		{MetricStoreErrors, "tokenward_store_errors_total", "Revocation store failures."},
		{MetricDirectoryErrors, "tokenward_directory_errors_total", "User directory failures."},
	}
}
