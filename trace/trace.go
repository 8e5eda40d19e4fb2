// Package trace records the frames given to the computers and the orders
// they produced, and reads them back for plotting and comparison.
//
// A trace is a msgpack Header followed by msgpack Records, the whole stream
// compressed with zstd.
package trace

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/bskari/go-fbw/computer"
	"github.com/bskari/go-fbw/mode"
	"github.com/klauspost/compress/zstd"
	"github.com/vmihailenco/msgpack/v5"
)

const Version = 1

var ErrBadVersion = errors.New("trace: unsupported version")

type Config struct {
	Path string `toml:"path"`
	// Record one frame in this many.
	Every int `toml:"every"`
	// Channels drawn by -plot.
	Channels []string `toml:"channels"`
	Width    float64  `toml:"width_in"`
	Height   float64  `toml:"height_in"`
}

func DefaultConfig() Config {
	return Config{
		Path:     "logs/fbw.msgpack.zst",
		Every:    1,
		Channels: []string{"capt_pitch", "eta", "eta_trim", "theta"},
		Width:    10,
		Height:   5,
	}
}

func (c Config) Validate() error {
	var errs []error
	if c.Every < 1 {
		errs = append(errs, fmt.Errorf("trace: every must be at least 1, got %d", c.Every))
	}
	for _, name := range c.Channels {
		if _, ok := channels[name]; !ok {
			errs = append(errs, fmt.Errorf("trace: unknown channel %q", name))
		}
	}
	if c.Width <= 0 || c.Height <= 0 {
		errs = append(errs, fmt.Errorf("trace: bad plot size %vx%v", c.Width, c.Height))
	}
	return errors.Join(errs...)
}

type Header struct {
	Version  int     `msgpack:"version"`
	Scenario string  `msgpack:"scenario"`
	Dt       float64 `msgpack:"dt"`
}

// Orders is the part of a system output worth keeping.
type Orders struct {
	PitchAuthority computer.Authority `msgpack:"pitch_authority"`
	RollAuthority  computer.Authority `msgpack:"roll_authority"`
	PitchLaw       mode.PitchLaw      `msgpack:"pitch_law"`
	LateralLaw     mode.LateralLaw    `msgpack:"lateral_law"`

	Eta     float64 `msgpack:"eta"`
	EtaTrim float64 `msgpack:"eta_trim"`
	Xi      float64 `msgpack:"xi"`
	Zeta    float64 `msgpack:"zeta"`

	LeftSpoilers  [5]float64 `msgpack:"spoilers_l"`
	RightSpoilers [5]float64 `msgpack:"spoilers_r"`
}

func OrdersOf(o computer.Output) Orders {
	return Orders{
		PitchAuthority: o.PitchAuthority,
		RollAuthority:  o.RollAuthority,
		PitchLaw:       o.PitchLaw,
		LateralLaw:     o.LateralLaw,
		Eta:            o.Eta,
		EtaTrim:        o.EtaTrim,
		Xi:             o.Xi,
		Zeta:           o.Zeta,
		LeftSpoilers:   o.LeftSpoilers,
		RightSpoilers:  o.RightSpoilers,
	}
}

type Record struct {
	Frame  computer.Frame `msgpack:"frame"`
	Orders Orders         `msgpack:"orders"`
}

type Recorder struct {
	zw     *zstd.Encoder
	enc    *msgpack.Encoder
	closer io.Closer
	every  int
	n      int
}

// Create makes the directories of path and starts a trace there.
func Create(path string, every int, h Header) (*Recorder, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("trace: %w", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("trace: %w", err)
	}
	r, err := NewRecorder(f, every, h)
	if err != nil {
		f.Close()
		return nil, err
	}
	r.closer = f
	return r, nil
}

func NewRecorder(w io.Writer, every int, h Header) (*Recorder, error) {
	if every < 1 {
		every = 1
	}
	zw, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("trace: failed to create zstd writer: %w", err)
	}
	r := &Recorder{zw: zw, enc: msgpack.NewEncoder(zw), every: every}
	h.Version = Version
	if err := r.enc.Encode(h); err != nil {
		zw.Close()
		return nil, fmt.Errorf("trace: header: %w", err)
	}
	return r, nil
}

// Record appends one frame, subject to decimation.
func (r *Recorder) Record(f computer.Frame, o computer.Output) error {
	r.n++
	if (r.n-1)%r.every != 0 {
		return nil
	}
	if err := r.enc.Encode(Record{Frame: f, Orders: OrdersOf(o)}); err != nil {
		return fmt.Errorf("trace: frame %d: %w", r.n, err)
	}
	return nil
}

func (r *Recorder) Close() error {
	err := r.zw.Close()
	if r.closer != nil {
		err = errors.Join(err, r.closer.Close())
	}
	return err
}

type Reader struct {
	Header Header

	zr     *zstd.Decoder
	dec    *msgpack.Decoder
	closer io.Closer
}

func Open(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("trace: %w", err)
	}
	r, err := NewReader(f)
	if err != nil {
		f.Close()
		return nil, err
	}
	r.closer = f
	return r, nil
}

func NewReader(rd io.Reader) (*Reader, error) {
	zr, err := zstd.NewReader(rd)
	if err != nil {
		return nil, fmt.Errorf("trace: failed to create zstd reader: %w", err)
	}
	r := &Reader{zr: zr, dec: msgpack.NewDecoder(zr)}
	if err := r.dec.Decode(&r.Header); err != nil {
		zr.Close()
		return nil, fmt.Errorf("trace: header: %w", err)
	}
	if r.Header.Version != Version {
		zr.Close()
		return nil, fmt.Errorf("%w: %d", ErrBadVersion, r.Header.Version)
	}
	return r, nil
}

// Next returns the next record, or io.EOF after the last one.
func (r *Reader) Next() (Record, error) {
	var rec Record
	if err := r.dec.Decode(&rec); err != nil {
		if errors.Is(err, io.EOF) {
			return rec, io.EOF
		}
		return rec, fmt.Errorf("trace: %w", err)
	}
	return rec, nil
}

func (r *Reader) ReadAll() ([]Record, error) {
	var records []Record
	for {
		rec, err := r.Next()
		if err == io.EOF {
			return records, nil
		}
		if err != nil {
			return records, err
		}
		records = append(records, rec)
	}
}

func (r *Reader) Close() error {
	r.zr.Close()
	if r.closer != nil {
		return r.closer.Close()
	}
	return nil
}
