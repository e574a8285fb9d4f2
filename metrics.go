package backoffice

import "sync/atomic"

// MetricID defines a public type used by backoffice APIs.
//
// MetricID instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type MetricID uint16

const (
	// MetricLoginSuccess is an exported constant or variable used by the back-office engine.
	MetricLoginSuccess MetricID = iota
	// MetricLoginFailure is an exported constant or variable used by the back-office engine.
	MetricLoginFailure
	// MetricLoginDenied is an exported constant or variable used by the back-office engine.
	MetricLoginDenied
	// MetricLoginRateLimited is an exported constant or variable used by the back-office engine.
	MetricLoginRateLimited
	// MetricSessionCreated is an exported constant or variable used by the back-office engine.
	MetricSessionCreated
	// MetricSessionRevoked is an exported constant or variable used by the back-office engine.
	MetricSessionRevoked
	// MetricSessionTouched is an exported constant or variable used by the back-office engine.
	MetricSessionTouched
	// MetricSessionExpired is an exported constant or variable used by the back-office engine.
	MetricSessionExpired
	// MetricLogout is an exported constant or variable used by the back-office engine.
	MetricLogout
	// MetricValidateSuccess is an exported constant or variable used by the back-office engine.
	MetricValidateSuccess
	// MetricValidateFailure is an exported constant or variable used by the back-office engine.
	MetricValidateFailure
	// MetricPasswordChangeSuccess is an exported constant or variable used by the back-office engine.
	MetricPasswordChangeSuccess
	// MetricPasswordChangeInvalidOld is an exported constant or variable used by the back-office engine.
	MetricPasswordChangeInvalidOld
	// MetricPasswordChangeReuseRejected is an exported constant or variable used by the back-office engine.
	MetricPasswordChangeReuseRejected
	// MetricDashboardLoad is an exported constant or variable used by the back-office engine.
	MetricDashboardLoad
	// MetricDashboardDegraded is an exported constant or variable used by the back-office engine.
	MetricDashboardDegraded
	// MetricDashboardFailure is an exported constant or variable used by the back-office engine.
	MetricDashboardFailure

	metricIDCount
)

var metricNames = [metricIDCount]string{
	MetricLoginSuccess:                "login_success",
	MetricLoginFailure:                "login_failure",
	MetricLoginDenied:                 "login_denied",
	MetricLoginRateLimited:            "login_rate_limited",
	MetricSessionCreated:              "session_created",
	MetricSessionRevoked:              "session_revoked",
	MetricSessionTouched:              "session_touched",
	MetricSessionExpired:              "session_expired",
	MetricLogout:                      "logout",
	MetricValidateSuccess:             "validate_success",
	MetricValidateFailure:             "validate_failure",
	MetricPasswordChangeSuccess:       "password_change_success",
	MetricPasswordChangeInvalidOld:    "password_change_invalid_old",
	MetricPasswordChangeReuseRejected: "password_change_reuse_rejected",
	MetricDashboardLoad:               "dashboard_load",
	MetricDashboardDegraded:           "dashboard_degraded",
	MetricDashboardFailure:            "dashboard_failure",
}

// Name returns the stable snake_case identifier for the metric.
func (id MetricID) Name() string {
	if id >= metricIDCount {
		return "unknown"
	}
	return metricNames[id]
}

// Metrics holds one atomic counter per [MetricID]. When disabled, every
// operation is a no-op so callers never need to branch.
type Metrics struct {
	enabled  bool
	counters [metricIDCount]atomic.Uint64
}

// NewMetrics creates a [Metrics] instance configured by the given
// [MetricsConfig].
func NewMetrics(cfg MetricsConfig) *Metrics {
	return &Metrics{enabled: cfg.Enabled}
}

// Inc increments the counter for id.
func (m *Metrics) Inc(id MetricID) {
	if m == nil || !m.enabled || id >= metricIDCount {
		return
	}
	m.counters[id].Add(1)
}

// Get returns the current value of the counter for id.
func (m *Metrics) Get(id MetricID) uint64 {
	if m == nil || !m.enabled || id >= metricIDCount {
		return 0
	}
	return m.counters[id].Load()
}

// MetricsSnapshot is a point-in-time copy of all counters keyed by metric
// name.
type MetricsSnapshot map[string]uint64

// Snapshot returns a deep copy of every counter. Disabled metrics return an
// empty snapshot.
func (m *Metrics) Snapshot() MetricsSnapshot {
	out := make(MetricsSnapshot, metricIDCount)
	if m == nil || !m.enabled {
		return out
	}
	for id := MetricID(0); id < metricIDCount; id++ {
		out[metricNames[id]] = m.counters[id].Load()
	}
	return out
}
