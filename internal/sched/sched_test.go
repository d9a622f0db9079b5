package sched

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterReplacesPriorEntry(t *testing.T) {
	s := New()

	require.NoError(t, s.Register("*/15 * * * *", func() {}))
	require.NoError(t, s.Register("0 * * * *", func() {}))

	assert.Equal(t, 1, s.Entries())
}

func TestRegisterRejectsBadSpec(t *testing.T) {
	s := New()

	err := s.Register("every now and then", func() {})
	assert.Error(t, err)
	assert.Equal(t, 0, s.Entries())
}

func TestRegisterAfterFailureKeepsNothingActive(t *testing.T) {
	s := New()

	require.NoError(t, s.Register("*/15 * * * *", func() {}))
	require.Error(t, s.Register("bogus", func() {}))

	// Failed re-registration removed the old entry and installed nothing.
	assert.Equal(t, 0, s.Entries())
}

func TestStopWithoutStart(t *testing.T) {
	s := New()
	require.NoError(t, s.Register("*/15 * * * *", func() {}))

	ctx := s.Stop()
	<-ctx.Done()
}
