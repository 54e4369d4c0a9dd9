package main

import (
	"fmt"
	"sync"
)

// HistoryLen is the number of samples retained per history buffer for the
// visualization feed.
const HistoryLen = 200

// Operating modes selected by the sender (or the local command prompt).
const (
	ModeNotes      = 1 // notes only
	ModeNotesAndCC = 2 // notes + CC on all axes
	ModeCCRoll     = 3 // CC, roll axis only
	ModeCCPitch    = 4 // CC, pitch axis only
	ModeCCYaw      = 5 // CC, yaw axis only
)

// OrientationSample is one roll/pitch/yaw reading in hundredths of a degree.
type OrientationSample struct {
	Roll  float64
	Pitch float64
	Yaw   float64
}

// AccelerationSample is one accelerometer reading in sender units
// (typical magnitude ≤ 2000).
type AccelerationSample struct {
	AX float64
	AY float64
	AZ float64
}

// ring is a fixed-capacity FIFO buffer. Once full, each push overwrites the
// oldest slot.
type ring[T any] struct {
	data []T
	pos  int
	full bool
}

func newRing[T any](capacity int) ring[T] {
	return ring[T]{data: make([]T, capacity)}
}

func (r *ring[T]) push(v T) {
	r.data[r.pos] = v
	r.pos++
	if r.pos >= len(r.data) {
		r.pos = 0
		r.full = true
	}
}

// snapshot returns the buffered values in arrival order, oldest first.
func (r *ring[T]) snapshot() []T {
	if !r.full {
		out := make([]T, r.pos)
		copy(out, r.data[:r.pos])
		return out
	}
	out := make([]T, len(r.data))
	n := copy(out, r.data[r.pos:])
	copy(out[n:], r.data[:r.pos])
	return out
}

// Store holds all state shared between the ingestion listener and the
// visualization feed: the latest acceleration, the operating mode, and the
// two history buffers. Each piece has its own lock so feed snapshots never
// contend with scalar updates from the listener.
type Store struct {
	mu      sync.Mutex
	mode    int
	accY    float64
	haveAcc bool

	orientMu  sync.Mutex
	orientBuf ring[OrientationSample]

	accelMu  sync.Mutex
	accelBuf ring[AccelerationSample]
}

func NewStore() *Store {
	return &Store{
		mode:      ModeNotes,
		orientBuf: newRing[OrientationSample](HistoryLen),
		accelBuf:  newRing[AccelerationSample](HistoryLen),
	}
}

// SetLatestAcceleration records the most recent accelerometer reading. Only
// the Y component feeds the note-velocity mapping; the full sample goes to
// the history buffer separately.
func (s *Store) SetLatestAcceleration(sample AccelerationSample) {
	s.mu.Lock()
	s.accY = sample.AY
	s.haveAcc = true
	s.mu.Unlock()
}

// LatestAccelY returns the most recent acceleration Y value, and false if no
// acceleration packet has arrived yet.
func (s *Store) LatestAccelY() (float64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.accY, s.haveAcc
}

// SetMode stores the mode selector verbatim. Unrecognized values are kept so
// the feed can label them and a later valid selector recovers cleanly.
func (s *Store) SetMode(mode int) {
	s.mu.Lock()
	s.mode = mode
	s.mu.Unlock()
}

func (s *Store) Mode() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mode
}

// ModeLabel returns the human-readable label for the current mode, shown by
// the visualization feed.
func (s *Store) ModeLabel() string {
	return ModeLabel(s.Mode())
}

func (s *Store) PushOrientation(sample OrientationSample) {
	s.orientMu.Lock()
	s.orientBuf.push(sample)
	s.orientMu.Unlock()
}

func (s *Store) PushAcceleration(sample AccelerationSample) {
	s.accelMu.Lock()
	s.accelBuf.push(sample)
	s.accelMu.Unlock()
}

// OrientationHistory returns the buffered orientation samples, oldest first.
func (s *Store) OrientationHistory() []OrientationSample {
	s.orientMu.Lock()
	defer s.orientMu.Unlock()
	return s.orientBuf.snapshot()
}

// AccelerationHistory returns the buffered acceleration samples, oldest first.
func (s *Store) AccelerationHistory() []AccelerationSample {
	s.accelMu.Lock()
	defer s.accelMu.Unlock()
	return s.accelBuf.snapshot()
}

// ValidMode reports whether the selector names one of the five operating
// modes.
func ValidMode(mode int) bool {
	return mode >= ModeNotes && mode <= ModeCCYaw
}

// ModeLabel returns the display label for a mode selector.
func ModeLabel(mode int) string {
	switch mode {
	case ModeNotes:
		return "Mode 1: MIDI Notes only"
	case ModeNotesAndCC:
		return "Mode 2: MIDI Notes + MIDI CC (all axes)"
	case ModeCCRoll:
		return "Mode 3: MIDI CC (roll/x only, channel 1)"
	case ModeCCPitch:
		return "Mode 4: MIDI CC (pitch/y only, channel 2)"
	case ModeCCYaw:
		return "Mode 5: MIDI CC (yaw/z only, channel 3)"
	default:
		return fmt.Sprintf("Mode %d: Unknown", mode)
	}
}
