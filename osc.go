package main

import (
	"net"
	"sync"
	"sync/atomic"

	"github.com/hypebeast/go-osc/osc"
	"github.com/pkg/errors"
)

// OSC addresses sent by the MPU firmware.
const (
	addrOrientation  = "/gyr"
	addrAcceleration = "/acc"
	addrMode         = "/opt"
)

// Listener receives OSC datagrams, updates the store, and runs the mode
// dispatch for every orientation packet. Packets are decoded and handled in
// arrival order on the server goroutine; anything slow (the note hold) is
// delegated to the scheduler so the next datagram is never stalled.
type Listener struct {
	store  *Store
	mapper *Mapper
	sched  *Scheduler

	mu     sync.Mutex
	conn   net.PacketConn
	closed atomic.Bool

	packets  atomic.Uint64
	dropped  atomic.Uint64
	unknowns atomic.Uint64
}

func NewListener(store *Store, mapper *Mapper, sched *Scheduler) *Listener {
	return &Listener{store: store, mapper: mapper, sched: sched}
}

// Serve binds the UDP socket and handles packets until Close is called.
func (l *Listener) Serve(addr string) error {
	dispatcher := osc.NewStandardDispatcher()
	for a, h := range map[string]func(*osc.Message){
		addrOrientation:  l.handleOrientation,
		addrAcceleration: l.handleAcceleration,
		addrMode:         l.handleMode,
	} {
		if err := dispatcher.AddMsgHandler(a, h); err != nil {
			return errors.Wrapf(err, "registering OSC method %s", a)
		}
	}

	conn, err := net.ListenPacket("udp", addr)
	if err != nil {
		return errors.Wrapf(err, "binding OSC socket %s", addr)
	}
	l.mu.Lock()
	l.conn = conn
	l.mu.Unlock()

	// Close may have run between construction and the bind; don't serve a
	// socket that was already asked to shut down.
	if l.closed.Load() {
		_ = conn.Close()
		return nil
	}
	logger.Info("osc: listening", "addr", addr)

	server := &osc.Server{Addr: addr, Dispatcher: dispatcher}
	if err := server.Serve(conn); err != nil && !l.closed.Load() {
		return errors.Wrap(err, "serving OSC")
	}
	return nil
}

// Close shuts the socket down; Serve returns nil afterwards.
func (l *Listener) Close() {
	l.closed.Store(true)
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.conn != nil {
		_ = l.conn.Close()
	}
}

// LocalAddr returns the bound socket address, or nil before Serve binds.
func (l *Listener) LocalAddr() net.Addr {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.conn == nil {
		return nil
	}
	return l.conn.LocalAddr()
}

// Stats returns the packet, dropped-packet and unknown-mode counters.
func (l *Listener) Stats() (packets, dropped, unknowns uint64) {
	return l.packets.Load(), l.dropped.Load(), l.unknowns.Load()
}

func (l *Listener) handleOrientation(msg *osc.Message) {
	l.packets.Add(1)
	vals, ok := numericArgs(msg, 3)
	if !ok {
		l.dropped.Add(1)
		logger.Warn("osc: malformed orientation packet dropped", "args", len(msg.Arguments))
		return
	}
	sample := OrientationSample{Roll: vals[0], Pitch: vals[1], Yaw: vals[2]}
	l.store.PushOrientation(sample)
	l.dispatch(sample)
}

func (l *Listener) handleAcceleration(msg *osc.Message) {
	l.packets.Add(1)
	vals, ok := numericArgs(msg, 3)
	if !ok {
		l.dropped.Add(1)
		logger.Warn("osc: malformed acceleration packet dropped", "args", len(msg.Arguments))
		return
	}
	sample := AccelerationSample{AX: vals[0], AY: vals[1], AZ: vals[2]}
	l.store.PushAcceleration(sample)
	l.store.SetLatestAcceleration(sample)
}

func (l *Listener) handleMode(msg *osc.Message) {
	l.packets.Add(1)
	vals, ok := numericArgs(msg, 1)
	if !ok {
		l.dropped.Add(1)
		logger.Warn("osc: malformed mode packet dropped", "args", len(msg.Arguments))
		return
	}
	mode := int(vals[0])
	l.store.SetMode(mode)
	logger.Info("osc: mode selected", "mode", mode, "label", ModeLabel(mode))
}

// dispatch reads the mode once per packet, so a mode change applies to the
// next orientation sample and never reprocesses old ones.
func (l *Listener) dispatch(sample OrientationSample) {
	mode := l.store.Mode()
	accY, haveAcc := l.store.LatestAccelY()

	note, ccs := l.mapper.Dispatch(mode, sample, accY, haveAcc)
	if note == nil && ccs == nil {
		if !ValidMode(mode) {
			l.unknowns.Add(1)
			logger.Warn("osc: unrecognized mode, nothing emitted", "mode", mode)
		}
		return
	}
	if note != nil {
		l.sched.PlayNote(*note)
		logger.Debug("midi: note scheduled",
			"note", note.Note, "velocity", note.Velocity,
			"roll", sample.Roll, "pitch", sample.Pitch)
	}
	for _, cc := range ccs {
		l.sched.SendCC(cc)
		logger.Debug("midi: cc sent",
			"channel", cc.Channel, "controller", cc.Controller, "value", cc.Value)
	}
}

// numericArgs coerces the first n message arguments to float64. It reports
// false when the message carries fewer than n arguments or a non-numeric one,
// in which case the packet is dropped.
func numericArgs(msg *osc.Message, n int) ([]float64, bool) {
	if len(msg.Arguments) < n {
		return nil, false
	}
	vals := make([]float64, n)
	for i := 0; i < n; i++ {
		switch v := msg.Arguments[i].(type) {
		case float32:
			vals[i] = float64(v)
		case float64:
			vals[i] = v
		case int32:
			vals[i] = float64(v)
		case int64:
			vals[i] = float64(v)
		default:
			return nil, false
		}
	}
	return vals, true
}
