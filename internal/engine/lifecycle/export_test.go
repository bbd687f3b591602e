package lifecycle

import "time"

// SetClock replaces the time source used for spec timestamps.
func (m *Manager) SetClock(now func() time.Time) {
	m.now = now
}
