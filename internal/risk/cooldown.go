package risk

import (
	"fmt"
	"time"
)

const (
	// Cooling-off duration bounds: 30 minutes to one day.
	minCooldownDuration = 30 * time.Minute
	maxCooldownDuration = 24 * time.Hour

	maxCooldownHistory = 50
)

// CooldownReason describes what triggered a cooling-off period.
type CooldownReason struct {
	Type         string
	Severity     string // "low", "medium", "high", "critical"
	TriggerValue float64
}

// CooldownRecord is the lifecycle record of one cooling-off period.
// An active record is extended in place (same ID, longer duration) when
// a new violation arrives; it is archived on expiry or manual end.
type CooldownRecord struct {
	ID           int
	Reason       CooldownReason
	StartTime    time.Time
	Duration     time.Duration
	WasRespected bool
	Violations   int
	EndedAt      time.Time
	EndReason    string // "expired" or "manual"
}

// CoolingOffManager runs the timer-based trading lock that parallels the
// controller's halt state. The order path must consult CanTrade before
// submitting.
type CoolingOffManager struct {
	active  *CooldownRecord
	history []CooldownRecord
	nextID  int

	now func() time.Time // injectable clock for tests
}

// NewCoolingOffManager creates a manager with no active cooldown.
func NewCoolingOffManager() *CoolingOffManager {
	return &CoolingOffManager{
		nextID: 1,
		now:    time.Now,
	}
}

// severityDuration maps a violation severity onto a cooldown duration,
// clamped to the configured bounds.
func severityDuration(severity string) time.Duration {
	base := minCooldownDuration
	var d time.Duration
	switch severity {
	case "critical":
		d = base * 48 // full day
	case "high":
		d = base * 8 // 4 hours
	case "medium":
		d = base * 2 // 1 hour
	default:
		d = base
	}
	if d < minCooldownDuration {
		d = minCooldownDuration
	}
	if d > maxCooldownDuration {
		d = maxCooldownDuration
	}
	return d
}

// EnforceCoolingOff starts a cooldown, or extends the active one when a
// new violation reason arrives. Extension keeps the record ID and only
// ever increases the duration.
func (m *CoolingOffManager) EnforceCoolingOff(reason CooldownReason) *CooldownRecord {
	m.expireIfDue()

	if m.active != nil {
		extended := m.active.Duration + severityDuration(reason.Severity)
		remaining := m.active.StartTime.Add(extended).Sub(m.now())
		if remaining > maxCooldownDuration {
			extended = m.now().Add(maxCooldownDuration).Sub(m.active.StartTime)
		}
		if extended > m.active.Duration {
			m.active.Duration = extended
		}
		m.active.Reason = reason
		return m.active
	}

	m.active = &CooldownRecord{
		ID:           m.nextID,
		Reason:       reason,
		StartTime:    m.now(),
		Duration:     severityDuration(reason.Severity),
		WasRespected: true,
	}
	m.nextID++
	return m.active
}

// CanTrade reports whether trading is allowed and, when it is not, the
// time remaining on the active cooldown.
func (m *CoolingOffManager) CanTrade() (bool, time.Duration) {
	m.expireIfDue()
	if m.active == nil {
		return true, 0
	}
	return false, m.active.StartTime.Add(m.active.Duration).Sub(m.now())
}

// RecordViolation notes a trade attempt during an active cooldown. It
// increments the violation count and marks the cooldown as not respected.
func (m *CoolingOffManager) RecordViolation() {
	m.expireIfDue()
	if m.active == nil {
		return
	}
	m.active.Violations++
	m.active.WasRespected = false
}

// ManualEndCooldown ends the active cooldown early. It is refused until
// the minimum cooldown duration has elapsed.
func (m *CoolingOffManager) ManualEndCooldown() error {
	m.expireIfDue()
	if m.active == nil {
		return fmt.Errorf("no active cooldown")
	}
	elapsed := m.now().Sub(m.active.StartTime)
	if elapsed < minCooldownDuration {
		return fmt.Errorf("cooldown can be ended after %s at the earliest, only %s elapsed",
			minCooldownDuration, elapsed.Round(time.Second))
	}
	m.archive("manual")
	return nil
}

// ActiveCooldown returns the active record, or nil.
func (m *CoolingOffManager) ActiveCooldown() *CooldownRecord {
	m.expireIfDue()
	return m.active
}

// History returns a copy of the bounded archive of ended cooldowns.
func (m *CoolingOffManager) History() []CooldownRecord {
	out := make([]CooldownRecord, len(m.history))
	copy(out, m.history)
	return out
}

func (m *CoolingOffManager) expireIfDue() {
	if m.active == nil {
		return
	}
	if m.now().After(m.active.StartTime.Add(m.active.Duration)) {
		m.archive("expired")
	}
}

func (m *CoolingOffManager) archive(endReason string) {
	m.active.EndedAt = m.now()
	m.active.EndReason = endReason
	m.history = append(m.history, *m.active)
	if len(m.history) > maxCooldownHistory {
		m.history = m.history[len(m.history)-maxCooldownHistory:]
	}
	m.active = nil
}
