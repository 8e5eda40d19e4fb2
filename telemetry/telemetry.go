// Package telemetry reads a serial NMEA GPS so that bench runs can feed real
// ground speed and track into the autopilot.
package telemetry

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/adrianmo/go-nmea"
	"github.com/bskari/go-fbw/autopilot"
	"github.com/bskari/go-fbw/logger"
	"github.com/tarm/serial"
)

type Config struct {
	Device string `toml:"device"`
	Baud   int    `toml:"baud"`
	// A fix older than this is not applied to frames.
	MaxAge float64 `toml:"max_age"`
}

func DefaultConfig() Config {
	return Config{Device: "/dev/ttyS0", Baud: 9600, MaxAge: 2}
}

func (c Config) Validate() error {
	var errs []error
	if c.Device == "" {
		errs = append(errs, errors.New("telemetry: empty device"))
	}
	if c.Baud <= 0 {
		errs = append(errs, fmt.Errorf("telemetry: bad baud rate %d", c.Baud))
	}
	if c.MaxAge <= 0 {
		errs = append(errs, fmt.Errorf("telemetry: bad max_age %v", c.MaxAge))
	}
	return errors.Join(errs...)
}

// Fix is the latest GPS solution. Speeds are in knots, angles in degrees
// and the altitude in metres.
type Fix struct {
	HasLock     bool
	Latitude    float64
	Longitude   float64
	Altitude    float64
	GroundSpeed float64
	Track       float64
	Timestamp   time.Time
	// When the last sentence that changed the fix arrived.
	Received time.Time
}

type GPS struct {
	config Config
	source *bufio.Reader
	closer io.Closer
	log    *logger.MultiLogger
	now    func() time.Time

	mu  sync.Mutex
	fix Fix
}

func Open(c Config, log *logger.MultiLogger) (*GPS, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	port, err := serial.OpenPort(&serial.Config{Name: c.Device, Baud: c.Baud})
	if err != nil {
		return nil, fmt.Errorf("telemetry: opening %s: %w", c.Device, err)
	}
	g := NewGPS(c, port, log)
	g.closer = port
	return g, nil
}

// NewGPS reads sentences from any stream, such as a recorded NMEA log.
func NewGPS(c Config, r io.Reader, log *logger.MultiLogger) *GPS {
	return &GPS{
		config: c,
		source: bufio.NewReader(r),
		log:    log,
		now:    time.Now,
	}
}

func (g *GPS) Close() error {
	if g.closer == nil {
		return nil
	}
	return g.closer.Close()
}

// ParseQueuedMessage reads and parses one line.
func (g *GPS) ParseQueuedMessage() (bool, error) {
	line, err := g.source.ReadString('\n')
	if line = strings.TrimSpace(line); line != "" {
		g.log.Debug(line)
		g.parseSentence(line)
	}
	if err != nil {
		return line != "", err
	}
	return line != "", nil
}

// Run parses sentences until the stream ends or ctx is done. A closed port
// ends the stream.
func (g *GPS) Run(ctx context.Context) error {
	for ctx.Err() == nil {
		if _, err := g.ParseQueuedMessage(); err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("telemetry: %w", err)
		}
	}
	return ctx.Err()
}

func (g *GPS) Fix() Fix {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.fix
}

// Apply copies the ground speed and track of a fresh locked fix into the
// autopilot input. It reports whether it did.
func (g *GPS) Apply(in *autopilot.Input) bool {
	fix := g.Fix()
	if !fix.HasLock || g.now().Sub(fix.Received).Seconds() > g.config.MaxAge {
		return false
	}
	in.Vgnd = fix.GroundSpeed
	in.Track = fix.Track
	return true
}

// We see $GPGSV, $GPRMC, $GPVTG, $GPGGA, $GPGSA and $GPGLL. Only RMC, GGA and
// VTG carry anything the frames use.
func (g *GPS) parseSentence(sentence string) {
	parsed, err := nmea.Parse(sentence)
	if err != nil {
		g.log.Warningf("Unable to parse GPS sentence '%v': %v", sentence, err)
		return
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	switch m := parsed.(type) {
	case nmea.RMC:
		g.fix.HasLock = m.Validity == nmea.ValidRMC
		g.fix.Latitude = m.Latitude
		g.fix.Longitude = m.Longitude
		g.fix.GroundSpeed = m.Speed
		g.fix.Track = m.Course
		if m.Date.Valid && m.Time.Valid {
			g.fix.Timestamp = time.Date(
				m.Date.YY+2000,
				time.Month(m.Date.MM),
				m.Date.DD,
				m.Time.Hour,
				m.Time.Minute,
				m.Time.Second,
				m.Time.Millisecond*int(time.Millisecond),
				time.UTC,
			)
		}
	case nmea.GGA:
		g.fix.HasLock = m.FixQuality != nmea.Invalid
		g.fix.Latitude = m.Latitude
		g.fix.Longitude = m.Longitude
		g.fix.Altitude = m.Altitude
	case nmea.VTG:
		g.fix.GroundSpeed = m.GroundSpeedKnots
		g.fix.Track = m.TrueTrack
	default:
		return
	}
	g.fix.Received = g.now()
}
