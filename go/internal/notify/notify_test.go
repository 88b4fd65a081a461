package notify

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewIntent(t *testing.T) {
	a := NewIntent("hello", CategoryInfo)
	b := NewIntent("hello", CategoryInfo)

	assert.NotEmpty(t, a.ID)
	assert.NotEqual(t, a.ID, b.ID)
	assert.True(t, a.AutoHide)
	assert.Equal(t, CategoryInfo, a.Category)
}

func TestLimited_DropsOverBudgetIntents(t *testing.T) {
	var delivered []Intent
	sink := GatewayFunc(func(in Intent) { delivered = append(delivered, in) })

	l := NewLimited(sink, LimiterConfig{PerMinute: 1, Burst: 3})
	for i := 0; i < 10; i++ {
		l.Notify(NewIntent("spam", CategoryEvent))
	}

	// The burst passes, the flood does not.
	require.Len(t, delivered, 3)
}

func TestLimited_ZeroConfigFallsBackToDefaults(t *testing.T) {
	var delivered int
	sink := GatewayFunc(func(Intent) { delivered++ })

	l := NewLimited(sink, LimiterConfig{})
	l.Notify(NewIntent("x", CategoryInfo))

	assert.Equal(t, 1, delivered)
}
