package main

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/nsf/termbox-go"

	"github.com/bskari/go-fbw/config"
	"github.com/bskari/go-fbw/logger"
	"github.com/bskari/go-fbw/servo"
	"github.com/bskari/go-fbw/telemetry"
)

// dummyReader stands in for the GPS off the Pi, at roughly 10 Hz.
type dummyReader struct {
}

func (reader dummyReader) Read(buffer []byte) (n int, err error) {
	const rmc = "$GPRMC,081836,A,4003.36,N,10517.41,W,012.5,270.0,140926,008.1,E*67\n"
	const vtg = "$GPVTG,270.0,T,262.0,M,012.5,N,023.2,K*48\n"
	time.Sleep(100 * time.Millisecond)
	if rand.Intn(100) < 50 {
		return copy(buffer, rmc), nil
	}
	return copy(buffer, vtg), nil
}

func dumpGPS(ctx context.Context, c config.Configuration, log *logger.MultiLogger) error {
	var gps *telemetry.GPS
	if servo.IsPi() {
		var err error
		gps, err = telemetry.Open(c.Telemetry, log)
		if err != nil {
			return err
		}
		defer gps.Close()
	} else {
		gps = telemetry.NewGPS(c.Telemetry, dummyReader{}, log)
	}

	err := termbox.Init()
	if err != nil {
		return err
	}
	defer termbox.Close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	gpsErr := make(chan error, 1)
	go func() {
		gpsErr <- gps.Run(ctx)
	}()

	eventQueue := make(chan termbox.Event)
	go func() {
		for {
			eventQueue <- termbox.PollEvent()
		}
	}()

	ticker := time.NewTicker(250 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case event := <-eventQueue:
			// Check for any key presses
			if event.Type == termbox.EventKey {
				return nil
			}
		case err := <-gpsErr:
			if err == nil || errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			termbox.Clear(termbox.ColorDefault, termbox.ColorDefault)
			for line, text := range fixLines(gps.Fix(), time.Now()) {
				writeString(text, line)
			}
			termbox.Flush()
		}
	}
}

func fixLines(fix telemetry.Fix, now time.Time) []string {
	if fix.Received.IsZero() {
		return []string{"Waiting for the GPS"}
	}
	lock := "(No lock)"
	if fix.HasLock {
		lock = "Locked"
	}
	return []string{
		lock,
		fmt.Sprintf("Lat/Long: %0.5f %0.5f", fix.Latitude, fix.Longitude),
		fmt.Sprintf("Altitude: %0.1f m", fix.Altitude),
		fmt.Sprintf("Ground speed: %0.1f kt  Track: %0.1f", fix.GroundSpeed, fix.Track),
		fmt.Sprintf("Time: %v", fix.Timestamp.Format(time.RFC3339)),
		fmt.Sprintf("Age: %0.1f s", now.Sub(fix.Received).Seconds()),
	}
}

func writeString(str string, y int) {
	for x := 0; x < len(str); x++ {
		termbox.SetCell(x, y, rune(str[x]), termbox.ColorWhite, termbox.ColorBlack)
	}
}
