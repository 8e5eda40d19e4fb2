package main

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bskari/go-fbw/config"
	"github.com/bskari/go-fbw/mode"
	"github.com/bskari/go-fbw/scenario"
	"github.com/bskari/go-fbw/telemetry"
)

func TestSummary(t *testing.T) {
	c := config.Default()
	r, err := scenario.NewRunner(c.Elac, c.Sec, c.Autopilot, nil)
	require.NoError(t, err)
	var s summary
	require.NoError(t, r.Run(context.Background(), scenario.ADRFault(), s.Add))

	assert.Equal(t, 120, s.frames)
	assert.InDelta(t, 15, s.duration, 1e-9)
	assert.Equal(t, mode.PitchAlternate1, s.pitchLaw)
	assert.GreaterOrEqual(t, s.worstPitch, mode.PitchAlternate1)
	assert.True(t, strings.HasPrefix(s.String("adr-fault"), "adr-fault   120 frames"), s.String("adr-fault"))
}

func TestReplay(t *testing.T) {
	c := config.Default()
	require.NoError(t, replayScenarios(context.Background(), c, []string{"ground", " landing"}, nil))
	assert.Error(t, replayScenarios(context.Background(), c, []string{"ground", "loop"}, nil))
}

func TestFixLines(t *testing.T) {
	assert.Equal(t, []string{"Waiting for the GPS"}, fixLines(telemetry.Fix{}, time.Now()))

	received := time.Date(2026, 10, 14, 8, 18, 36, 0, time.UTC)
	lines := fixLines(telemetry.Fix{
		HasLock:     true,
		Latitude:    40.056,
		Longitude:   -105.29016,
		GroundSpeed: 12.5,
		Track:       270,
		Timestamp:   received,
		Received:    received,
	}, received.Add(1500*time.Millisecond))
	require.Len(t, lines, 6)
	assert.Equal(t, "Locked", lines[0])
	assert.Equal(t, "Lat/Long: 40.05600 -105.29016", lines[1])
	assert.Equal(t, "Ground speed: 12.5 kt  Track: 270.0", lines[3])
	assert.Equal(t, "Age: 1.5 s", lines[5])
}
