package risk

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// futureClock returns a clock far past any active cooldown, forcing the
// manager to observe expiry on its next check.
func futureClock(m *CoolingOffManager) func() time.Time {
	expiry := time.Now().Add(48 * time.Hour)
	return func() time.Time { return expiry }
}

func TestCooldown_StartAndCanTrade(t *testing.T) {
	m := NewCoolingOffManager()

	ok, remaining := m.CanTrade()
	assert.True(t, ok)
	assert.Equal(t, time.Duration(0), remaining)

	record := m.EnforceCoolingOff(CooldownReason{Type: "daily_loss", Severity: "medium", TriggerValue: 6.0})
	require.NotNil(t, record)
	assert.Equal(t, 1, record.ID)
	assert.Equal(t, time.Hour, record.Duration)
	assert.True(t, record.WasRespected)

	ok, remaining = m.CanTrade()
	assert.False(t, ok)
	assert.Greater(t, remaining, time.Duration(0))
}

func TestCooldown_SeverityScalesDuration(t *testing.T) {
	durations := map[string]time.Duration{
		"low":      30 * time.Minute,
		"medium":   time.Hour,
		"high":     4 * time.Hour,
		"critical": 24 * time.Hour,
	}
	for severity, want := range durations {
		m := NewCoolingOffManager()
		record := m.EnforceCoolingOff(CooldownReason{Type: "test", Severity: severity})
		assert.Equal(t, want, record.Duration, "severity %s", severity)
	}
}

func TestCooldown_ExtensionKeepsIDAndGrowsDuration(t *testing.T) {
	m := NewCoolingOffManager()

	first := m.EnforceCoolingOff(CooldownReason{Type: "daily_loss", Severity: "medium"})
	firstID := first.ID
	firstDuration := first.Duration

	second := m.EnforceCoolingOff(CooldownReason{Type: "drawdown", Severity: "high"})
	assert.Equal(t, firstID, second.ID)
	assert.Greater(t, second.Duration, firstDuration)

	// A weaker follow-up reason still never shortens the lock.
	third := m.EnforceCoolingOff(CooldownReason{Type: "minor", Severity: "low"})
	assert.Equal(t, firstID, third.ID)
	assert.GreaterOrEqual(t, third.Duration, second.Duration)
}

func TestCooldown_RecordViolation(t *testing.T) {
	m := NewCoolingOffManager()
	m.EnforceCoolingOff(CooldownReason{Type: "daily_loss", Severity: "high"})

	m.RecordViolation()
	m.RecordViolation()

	active := m.ActiveCooldown()
	require.NotNil(t, active)
	assert.Equal(t, 2, active.Violations)
	assert.False(t, active.WasRespected)
}

func TestCooldown_ManualEndRefusedBeforeMinimum(t *testing.T) {
	m := NewCoolingOffManager()
	m.EnforceCoolingOff(CooldownReason{Type: "daily_loss", Severity: "critical"})

	err := m.ManualEndCooldown()
	assert.Error(t, err)
	assert.NotNil(t, m.ActiveCooldown())
}

func TestCooldown_ManualEndAfterMinimum(t *testing.T) {
	m := NewCoolingOffManager()
	m.EnforceCoolingOff(CooldownReason{Type: "daily_loss", Severity: "critical"})

	// Advance the clock past the minimum duration but inside the lock.
	start := m.ActiveCooldown().StartTime
	m.now = func() time.Time { return start.Add(31 * time.Minute) }

	err := m.ManualEndCooldown()
	require.NoError(t, err)
	assert.Nil(t, m.ActiveCooldown())

	history := m.History()
	require.Len(t, history, 1)
	assert.Equal(t, "manual", history[0].EndReason)
}

func TestCooldown_NaturalExpiry(t *testing.T) {
	m := NewCoolingOffManager()
	m.EnforceCoolingOff(CooldownReason{Type: "daily_loss", Severity: "low"})

	m.now = futureClock(m)

	ok, _ := m.CanTrade()
	assert.True(t, ok)

	history := m.History()
	require.Len(t, history, 1)
	assert.Equal(t, "expired", history[0].EndReason)
}

func TestCooldown_ExtensionCappedAtMaximum(t *testing.T) {
	m := NewCoolingOffManager()
	m.EnforceCoolingOff(CooldownReason{Type: "a", Severity: "critical"})
	record := m.EnforceCoolingOff(CooldownReason{Type: "b", Severity: "critical"})

	remaining := record.StartTime.Add(record.Duration).Sub(time.Now())
	assert.LessOrEqual(t, remaining, maxCooldownDuration+time.Minute)
}

func TestCooldown_HistoryBounded(t *testing.T) {
	m := NewCoolingOffManager()
	for i := 0; i < maxCooldownHistory+10; i++ {
		m.EnforceCoolingOff(CooldownReason{Type: "x", Severity: "low"})
		start := m.ActiveCooldown().StartTime
		m.now = func() time.Time { return start.Add(31 * time.Minute) }
		require.NoError(t, m.ManualEndCooldown())
	}
	assert.LessOrEqual(t, len(m.History()), maxCooldownHistory)
}
