// Package health tracks the availability of the external toolkit as seen by
// the most recent version probe.
package health

import (
	"sync"
	"time"
)

// Status is a point-in-time view of the toolkit.
type Status struct {
	Available bool      `json:"available"`
	Version   string    `json:"version,omitempty"`
	Error     string    `json:"error,omitempty"`
	CheckedAt time.Time `json:"checked_at,omitzero"`
	Probes    int64     `json:"probes"`
}

// Checked reports whether at least one probe has completed.
func (s Status) Checked() bool {
	return s.Probes > 0
}

// Monitor records probe results. It is safe for concurrent use.
type Monitor struct {
	mu     sync.RWMutex
	status Status
	now    func() time.Time
}

// NewMonitor creates a Monitor with no recorded probe.
func NewMonitor() *Monitor {
	return &Monitor{now: time.Now}
}

// ObserveProbe records the outcome of one toolkit probe.
func (m *Monitor) ObserveProbe(version string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.status.Probes++
	m.status.CheckedAt = m.now()
	if err != nil {
		m.status.Available = false
		m.status.Error = err.Error()
		return
	}
	m.status.Available = true
	m.status.Version = version
	m.status.Error = ""
}

// Snapshot returns the current status.
func (m *Monitor) Snapshot() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status
}

// Available reports whether the last probe succeeded.
func (m *Monitor) Available() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status.Available
}
