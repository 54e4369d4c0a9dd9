package main

import (
	"strings"
	"sync"

	"github.com/pkg/errors"
	"gitlab.com/gomidi/midi/v2/drivers"
	"gitlab.com/gomidi/midi/v2/drivers/rtmididrv"
)

// Sink emits raw 3-byte MIDI messages to an output device. Implementations
// must be safe for concurrent use: the ingestion loop and note-off timers
// both send.
type Sink interface {
	Send(msg [3]byte) error
	Close() error
}

// Ports matching any of these patterns are never auto-selected
// (virtual/system ports).
var excludedPortPatterns = []string{"Midi Through", "Through Port", "Dummy"}

// MIDISink sends messages to one rtmidi output port, selected by
// case-insensitive name substring. The driver and port handles live for the
// process lifetime.
type MIDISink struct {
	mu   sync.Mutex
	drv  *rtmididrv.Driver
	out  drivers.Out
	name string
}

// OpenMIDISink opens the first non-excluded output port whose name contains
// match. The returned error lists every advertised port when nothing
// matches, so startup failures are diagnosable without the hardware.
func OpenMIDISink(match string) (*MIDISink, error) {
	drv, err := rtmididrv.New()
	if err != nil {
		return nil, errors.Wrap(err, "initializing rtmidi")
	}
	outs, err := drv.Outs()
	if err != nil {
		_ = drv.Close()
		return nil, errors.Wrap(err, "listing MIDI outputs")
	}

	var found drivers.Out
	names := make([]string, 0, len(outs))
	for _, out := range outs {
		name := out.String()
		names = append(names, name)
		if excludedPort(name) {
			logger.Debug("midi: output excluded (virtual/system port)", "device", name)
			continue
		}
		if found == nil && containsCI(name, match) {
			found = out
		}
	}
	if found == nil {
		_ = drv.Close()
		return nil, errors.Errorf("no MIDI output matching %q; available: %s",
			match, strings.Join(names, ", "))
	}
	if err := found.Open(); err != nil {
		_ = drv.Close()
		return nil, errors.Wrapf(err, "opening MIDI output %q", found.String())
	}
	logger.Info("midi: output connected", "device", found.String())
	return &MIDISink{drv: drv, out: found, name: found.String()}, nil
}

func (s *MIDISink) Send(msg [3]byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.out == nil {
		return errors.New("midi output closed")
	}
	return s.out.Send(msg[:])
}

func (s *MIDISink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.out != nil {
		_ = s.out.Close()
		s.out = nil
	}
	logger.Info("midi: output closed", "device", s.name)
	return s.drv.Close()
}

func excludedPort(name string) bool {
	for _, pat := range excludedPortPatterns {
		if containsCI(name, pat) {
			return true
		}
	}
	return false
}

func containsCI(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}
