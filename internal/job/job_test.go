package job

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewJobStartsHeld(t *testing.T) {
	j := New(1, "alice", "label.pwg", "image/pwg-raster")
	assert.Equal(t, StateHeld, j.State())
}

func TestMarkSpooledTransitionsToPending(t *testing.T) {
	j := New(1, "alice", "label.pwg", "image/pwg-raster")
	j.MarkSpooled("/var/spool/lprintd/1.pwg")
	assert.Equal(t, StatePending, j.State())
	assert.Equal(t, "/var/spool/lprintd/1.pwg", j.SpoolFilename)
}

func TestCancelIsObservable(t *testing.T) {
	j := New(1, "alice", "label.pwg", "image/pwg-raster")
	assert.False(t, j.Canceled(), "expected not canceled initially")
	j.Cancel()
	assert.True(t, j.Canceled(), "expected canceled after Cancel()")
}

func TestFinalizeSetsTerminalState(t *testing.T) {
	j := New(1, "alice", "label.pwg", "image/pwg-raster")
	j.startProcessing()
	require.Equal(t, StateProcessing, j.State())

	j.finalize(StateCompleted)
	assert.Equal(t, StateCompleted, j.State())
	assert.True(t, j.State().Terminal())
	assert.False(t, j.Completed.IsZero(), "expected Completed timestamp to be set")
}

func TestStateStringAndTerminal(t *testing.T) {
	cases := []struct {
		s        State
		terminal bool
	}{
		{StateHeld, false},
		{StatePending, false},
		{StateProcessing, false},
		{StateStopped, false},
		{StateCanceled, true},
		{StateAborted, true},
		{StateCompleted, true},
	}
	for _, c := range cases {
		assert.Equal(t, c.terminal, c.s.Terminal(), "State(%v).Terminal()", c.s)
		assert.NotEqual(t, "unknown", c.s.String(), "State(%d) has no String() mapping", c.s)
	}
}
