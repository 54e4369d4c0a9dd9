package main

import (
	"sync"
	"time"
)

// MIDI status bytes (channel in the low nibble).
const (
	statusNoteOn  uint8 = 0x90
	statusNoteOff uint8 = 0x80
	statusCC      uint8 = 0xB0
)

// ccAllNotesOff is the channel-mode controller that silences every note.
const ccAllNotesOff = 123

// Scheduler owns all writes to the output sink. A note-on goes out
// immediately; the paired note-off fires from its own timer after the hold
// duration, so the ingestion loop never sleeps between the two. Overlapping
// notes each get their own timer.
type Scheduler struct {
	sink Sink
	wg   sync.WaitGroup
}

func NewScheduler(sink Sink) *Scheduler {
	return &Scheduler{sink: sink}
}

// PlayNote sends the note-on and schedules the matching note-off. The
// note-off always carries the note and channel captured here, regardless of
// any events scheduled in between.
func (sch *Scheduler) PlayNote(ev NoteEvent) {
	on := [3]byte{statusNoteOn | ev.Channel&0x0F, ev.Note, ev.Velocity}
	if err := sch.sink.Send(on); err != nil {
		logger.Error("midi: note on failed", "note", ev.Note, "err", err)
		return
	}
	sch.wg.Add(1)
	time.AfterFunc(ev.Hold, func() {
		defer sch.wg.Done()
		off := [3]byte{statusNoteOff | ev.Channel&0x0F, ev.Note, 0}
		if err := sch.sink.Send(off); err != nil {
			logger.Error("midi: note off failed", "note", ev.Note, "err", err)
		}
	})
}

// SendCC emits a single controller message.
func (sch *Scheduler) SendCC(ev ControlChangeEvent) {
	msg := [3]byte{statusCC | ev.Channel&0x0F, ev.Controller, ev.Value}
	if err := sch.sink.Send(msg); err != nil {
		logger.Error("midi: cc failed", "controller", ev.Controller, "err", err)
	}
}

// Drain blocks until every scheduled note-off has been sent. Call before
// closing the sink.
func (sch *Scheduler) Drain() {
	sch.wg.Wait()
}

// Silence sends All Notes Off on the given channel.
func (sch *Scheduler) Silence(channel uint8) {
	sch.SendCC(ControlChangeEvent{Channel: channel, Controller: ccAllNotesOff, Value: 0})
}
