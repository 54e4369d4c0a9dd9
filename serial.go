package main

import (
	"sync"

	"github.com/pkg/errors"
	"go.bug.st/serial"
)

// dinBaudRate is the classic DIN MIDI line rate.
const dinBaudRate = 31250

// SerialSink writes raw MIDI bytes to a serial port, for DIN synths reached
// through a USB-serial adapter instead of a system MIDI port.
type SerialSink struct {
	mu   sync.Mutex
	port serial.Port
	name string
}

// OpenSerialSink opens the named serial device. A zero baud rate selects the
// DIN MIDI rate.
func OpenSerialSink(device string, baud int) (*SerialSink, error) {
	if baud == 0 {
		baud = dinBaudRate
	}
	port, err := serial.Open(device, &serial.Mode{BaudRate: baud})
	if err != nil {
		return nil, errors.Wrapf(err, "opening serial port %s", device)
	}
	logger.Info("serial: port opened", "device", device, "baud", baud)
	return &SerialSink{port: port, name: device}, nil
}

func (s *SerialSink) Send(msg [3]byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.port.Write(msg[:])
	return err
}

func (s *SerialSink) Close() error {
	logger.Info("serial: closing port", "device", s.name)
	return s.port.Close()
}
