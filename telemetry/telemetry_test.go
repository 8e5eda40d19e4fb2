package telemetry

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/bskari/go-fbw/autopilot"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	rmc         = "$GPRMC,081836,A,3700.00,N,13300.00,W,012.0,045.0,130998,011.3,E*6E"
	rmcNoLock   = "$GPRMC,081836,V,3700.00,N,13300.00,W,000.0,360.0,130998,011.3,E*7E"
	gga         = "$GPGGA,134658.00,4300.00,S,04000.00,E,2,09,1.0,1048.47,M,-16.27,M,08,AAAA*6D"
	vtg         = "$GPVTG,054.7,T,034.4,M,005.5,N,010.2,K*48"
	badChecksum = "$GPVTG,054.7,T,034.4,M,005.5,N,010.2,K*00"
)

func newTestGPS(lines ...string) *GPS {
	g := NewGPS(DefaultConfig(), strings.NewReader(strings.Join(lines, "\r\n")+"\r\n"), nil)
	now := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	g.now = func() time.Time { return now }
	return g
}

func TestParseSentence(t *testing.T) {
	g := newTestGPS()
	g.parseSentence(rmc)
	fix := g.Fix()
	if !fix.HasLock {
		t.Error("Failed to parse RMC validity")
	}
	if fix.Latitude != 37.0 {
		t.Errorf("Bad RMC latitude: %v", fix.Latitude)
	}
	if fix.Longitude != -133.0 {
		t.Errorf("Bad RMC longitude: %v", fix.Longitude)
	}
	if fix.GroundSpeed != 12 || fix.Track != 45 {
		t.Errorf("Bad RMC speed and course: %v %v", fix.GroundSpeed, fix.Track)
	}
	if fix.Timestamp.Hour() != 8 || fix.Timestamp.Minute() != 18 || fix.Timestamp.Day() != 13 {
		t.Errorf("Bad RMC timestamp: %v", fix.Timestamp)
	}

	g.parseSentence(gga)
	fix = g.Fix()
	if fix.Latitude != -43.0 || fix.Longitude != 40.0 {
		t.Errorf("Bad GGA position: %v %v", fix.Latitude, fix.Longitude)
	}
	assert.InDelta(t, 1048.47, fix.Altitude, 1e-9)

	g.parseSentence(vtg)
	fix = g.Fix()
	assert.InDelta(t, 5.5, fix.GroundSpeed, 1e-9)
	assert.InDelta(t, 54.7, fix.Track, 1e-9)

	g.parseSentence(rmcNoLock)
	if g.Fix().HasLock {
		t.Error("Expected no lock")
	}
}

func TestBadSentenceIsIgnored(t *testing.T) {
	g := newTestGPS()
	g.parseSentence(vtg)
	g.parseSentence(badChecksum)
	g.parseSentence("garbage")
	assert.InDelta(t, 5.5, g.Fix().GroundSpeed, 1e-9)
}

func TestRunUntilEOF(t *testing.T) {
	g := newTestGPS(rmc, "", gga, vtg)
	require.NoError(t, g.Run(context.Background()))
	fix := g.Fix()
	assert.True(t, fix.HasLock)
	assert.InDelta(t, -43.0, fix.Latitude, 1e-9)
	assert.InDelta(t, 5.5, fix.GroundSpeed, 1e-9)
}

func TestRunStopsOnCancel(t *testing.T) {
	g := newTestGPS(rmc)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, g.Run(ctx), context.Canceled)
}

func TestApply(t *testing.T) {
	g := newTestGPS()
	in := autopilot.Input{Vgnd: 200, Track: 10}
	if g.Apply(&in) {
		t.Error("Applied a fix without a lock")
	}

	g.parseSentence(rmc)
	require.True(t, g.Apply(&in))
	assert.Equal(t, 12.0, in.Vgnd)
	assert.Equal(t, 45.0, in.Track)

	// Stale
	received := g.Fix().Received
	g.now = func() time.Time { return received.Add(3 * time.Second) }
	in = autopilot.Input{Vgnd: 200}
	assert.False(t, g.Apply(&in))
	assert.Equal(t, 200.0, in.Vgnd)
}

func TestConfig(t *testing.T) {
	require.NoError(t, DefaultConfig().Validate())
	assert.Error(t, Config{}.Validate())
}

func BenchmarkParseSentence(b *testing.B) {
	g := newTestGPS()
	for i := 0; i < b.N; i++ {
		g.parseSentence(rmc)
		g.parseSentence(gga)
		g.parseSentence(vtg)
	}
}
