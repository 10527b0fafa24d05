package scheduler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestManagerStartStop(t *testing.T) {
	m := NewManager(nil, nil)

	assert.False(t, m.IsRunning())

	m.Start()
	assert.True(t, m.IsRunning())

	// second Start is a no-op
	m.Start()
	assert.True(t, m.IsRunning())

	m.Stop()
	assert.False(t, m.IsRunning())

	// second Stop is a no-op
	m.Stop()
	assert.False(t, m.IsRunning())
}

func TestManagerRestart(t *testing.T) {
	m := NewManager(nil, nil)

	m.Start()
	m.Stop()
	m.Start()
	assert.True(t, m.IsRunning())
	m.Stop()
}

func TestSyncInterval(t *testing.T) {
	t.Setenv("SYNC_INTERVAL_MINUTES", "")
	assert.Equal(t, 15*time.Minute, syncInterval())

	t.Setenv("SYNC_INTERVAL_MINUTES", "5")
	assert.Equal(t, 5*time.Minute, syncInterval())

	t.Setenv("SYNC_INTERVAL_MINUTES", "not-a-number")
	assert.Equal(t, 15*time.Minute, syncInterval())

	t.Setenv("SYNC_INTERVAL_MINUTES", "0")
	assert.Equal(t, 15*time.Minute, syncInterval())
}
