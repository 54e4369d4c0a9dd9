package main

import (
	"math"
	"time"
)

// majorScale is the C-major semitone offsets within one octave:
// C D E F G A B
var majorScale = [7]int{0, 2, 4, 5, 7, 9, 11}

const (
	// NumOctaves is the pitch range covered by the roll axis.
	NumOctaves = 5

	// angleFullScale is the sender's full-scale angle in hundredths of a
	// degree (±360.00°).
	angleFullScale = 36000

	// ccFullScale is the angle magnitude mapped onto CC value 127, after
	// the rescale policy has been applied.
	ccFullScale = 18000

	// accelFullScale is the accelerometer magnitude mapped onto velocity
	// 127 (sender units).
	accelFullScale = 2000

	// noteChannel carries note on/off messages (status 0x91/0x81).
	noteChannel = 1
)

// CC numbers for the three axes.
const (
	ccRoll  = 11
	ccPitch = 12
	ccYaw   = 13
)

// NoteEvent describes a timed note-on/note-off pair. The scheduler sends the
// note-on immediately and the matching note-off after Hold elapses.
type NoteEvent struct {
	Channel  uint8
	Note     uint8
	Velocity uint8
	Hold     time.Duration
}

// ControlChangeEvent describes a single continuous-controller message.
type ControlChangeEvent struct {
	Channel    uint8
	Controller uint8
	Value      uint8
}

// CCMode selects which axes the controller mapping emits.
type CCMode int

const (
	CCAll CCMode = iota
	CCRollOnly
	CCPitchOnly
	CCYawOnly
)

// AngleScale normalizes an inbound angle before the CC mapping. The sender
// firmware has shipped both whole-degree and hundredths-of-a-degree
// encodings, so the scale is a swappable policy rather than baked in.
type AngleScale func(float64) float64

// ScaleDeciDegrees divides by 10 whenever the magnitude exceeds a plausible
// whole-degree reading. This matches the deployed sender but can misread
// legitimately large whole-degree values; use ScaleIdentity for senders with
// a known encoding.
func ScaleDeciDegrees(v float64) float64 {
	if math.Abs(v) > 360 {
		return v / 10
	}
	return v
}

// ScaleIdentity passes angles through unchanged.
func ScaleIdentity(v float64) float64 { return v }

// Mapper converts orientation samples into note and CC events. Its methods
// are pure: they never touch the store or the output device.
type Mapper struct {
	BaseNote        uint8
	DefaultVelocity uint8
	Hold            time.Duration
	AngleScale      AngleScale
}

// NewMapper builds a Mapper from the mapping config section.
func NewMapper(cfg MappingConfig) *Mapper {
	scale := ScaleDeciDegrees
	if cfg.RawDegrees {
		scale = ScaleIdentity
	}
	return &Mapper{
		BaseNote:        uint8(cfg.BaseNote),
		DefaultVelocity: uint8(cfg.DefaultVelocity),
		Hold:            time.Duration(cfg.HoldMS) * time.Millisecond,
		AngleScale:      scale,
	}
}

// clampAngle limits an angle to the sender's full-scale range.
func clampAngle(v float64) float64 {
	if v > angleFullScale {
		return angleFullScale
	}
	if v < -angleFullScale {
		return -angleFullScale
	}
	return v
}

// clamp7 limits a value to the 7-bit MIDI data range.
func clamp7(v float64) uint8 {
	if v < 0 {
		return 0
	}
	if v > 127 {
		return 127
	}
	return uint8(v)
}

// scaleDegree maps pitch onto one of the seven scale steps. A full-scale
// reading is a whole turn and wraps back to the first step.
func scaleDegree(pitch float64) int {
	norm := (clampAngle(pitch) + angleFullScale) / (2 * angleFullScale)
	return int(norm*float64(len(majorScale))) % len(majorScale)
}

// octaveIndex maps roll onto one of the five octave bands, wrapping at full
// scale like scaleDegree.
func octaveIndex(roll float64) int {
	norm := (clampAngle(roll) + angleFullScale) / (2 * angleFullScale)
	return int(norm*NumOctaves) % NumOctaves
}

// NoteFor converts an orientation sample into a note event. Pitch selects
// the scale degree, roll the octave. Velocity comes from the latest
// acceleration Y reading when one exists, otherwise DefaultVelocity.
func (m *Mapper) NoteFor(s OrientationSample, accY float64, haveAcc bool) NoteEvent {
	degree := scaleDegree(s.Pitch)
	octave := octaveIndex(s.Roll)

	velocity := m.DefaultVelocity
	if haveAcc {
		velocity = clamp7((accY + accelFullScale) / (2 * accelFullScale) * 127)
	}
	return NoteEvent{
		Channel:  noteChannel,
		Note:     uint8(int(m.BaseNote) + octave*12 + majorScale[degree]),
		Velocity: velocity,
		Hold:     m.Hold,
	}
}

// ccValue maps one angle onto the 7-bit CC range after applying the scale
// policy. Monotonic in the input.
func (m *Mapper) ccValue(v float64) uint8 {
	v = m.AngleScale(v)
	return clamp7((v + ccFullScale) / (2 * ccFullScale) * 127)
}

// CCFor converts an orientation sample into controller events. CCAll emits
// all three axes on channel 0; the single-axis modes use channels 0, 1 and 2
// for roll, pitch and yaw respectively.
func (m *Mapper) CCFor(s OrientationSample, mode CCMode) []ControlChangeEvent {
	switch mode {
	case CCAll:
		return []ControlChangeEvent{
			{Channel: 0, Controller: ccRoll, Value: m.ccValue(s.Roll)},
			{Channel: 0, Controller: ccPitch, Value: m.ccValue(s.Pitch)},
			{Channel: 0, Controller: ccYaw, Value: m.ccValue(s.Yaw)},
		}
	case CCRollOnly:
		return []ControlChangeEvent{{Channel: 0, Controller: ccRoll, Value: m.ccValue(s.Roll)}}
	case CCPitchOnly:
		return []ControlChangeEvent{{Channel: 1, Controller: ccPitch, Value: m.ccValue(s.Pitch)}}
	case CCYawOnly:
		return []ControlChangeEvent{{Channel: 2, Controller: ccYaw, Value: m.ccValue(s.Yaw)}}
	}
	return nil
}

// Dispatch applies the mode table to one orientation sample. Unrecognized
// modes emit nothing.
func (m *Mapper) Dispatch(mode int, s OrientationSample, accY float64, haveAcc bool) (*NoteEvent, []ControlChangeEvent) {
	switch mode {
	case ModeNotes:
		note := m.NoteFor(s, accY, haveAcc)
		return &note, nil
	case ModeNotesAndCC:
		note := m.NoteFor(s, accY, haveAcc)
		return &note, m.CCFor(s, CCAll)
	case ModeCCRoll:
		return nil, m.CCFor(s, CCRollOnly)
	case ModeCCPitch:
		return nil, m.CCFor(s, CCPitchOnly)
	case ModeCCYaw:
		return nil, m.CCFor(s, CCYawOnly)
	}
	return nil, nil
}
