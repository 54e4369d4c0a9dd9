package main

import (
	"testing"
	"time"
)

func testMapper() *Mapper {
	return NewMapper(DefaultConfig().Mapping)
}

func TestScaleDegreeStaysInRange(t *testing.T) {
	for pitch := -36000.0; pitch <= 36000; pitch += 75 {
		d := scaleDegree(pitch)
		if d < 0 || d >= len(majorScale) {
			t.Fatalf("scaleDegree(%v) = %d, out of [0,%d)", pitch, d, len(majorScale))
		}
	}
}

func TestOctaveIndexStaysInRange(t *testing.T) {
	for roll := -36000.0; roll <= 36000; roll += 75 {
		o := octaveIndex(roll)
		if o < 0 || o >= NumOctaves {
			t.Fatalf("octaveIndex(%v) = %d, out of [0,%d)", roll, o, NumOctaves)
		}
	}
}

func TestOutOfRangeAnglesAreClamped(t *testing.T) {
	if d := scaleDegree(-1e9); d != scaleDegree(-36000) {
		t.Fatalf("scaleDegree(-1e9) = %d, want clamp to %d", d, scaleDegree(-36000))
	}
	if o := octaveIndex(1e9); o != octaveIndex(36000) {
		t.Fatalf("octaveIndex(1e9) = %d, want clamp to %d", o, octaveIndex(36000))
	}
}

func TestNoteForCenterOrientation(t *testing.T) {
	m := testMapper()
	ev := m.NoteFor(OrientationSample{}, 0, false)

	// Center of the angle range lands mid-scale, mid-octave: degree 3 (F),
	// octave 2 → 36 + 24 + 5.
	if ev.Note != 65 {
		t.Errorf("Note = %d, want 65", ev.Note)
	}
	if ev.Velocity != 112 {
		t.Errorf("Velocity = %d, want default 112", ev.Velocity)
	}
	if ev.Channel != noteChannel {
		t.Errorf("Channel = %d, want %d", ev.Channel, noteChannel)
	}
	if ev.Hold != 100*time.Millisecond {
		t.Errorf("Hold = %v, want 100ms", ev.Hold)
	}
}

// A full-scale reading is a whole turn of the sensor and wraps back to the
// base of the range, matching the sender contract.
func TestNoteForFullScaleWrapsToBase(t *testing.T) {
	m := testMapper()
	ev := m.NoteFor(OrientationSample{Roll: 36000, Pitch: 36000}, 0, false)
	if ev.Note != m.BaseNote {
		t.Fatalf("Note = %d, want base note %d", ev.Note, m.BaseNote)
	}
}

func TestVelocityFromAcceleration(t *testing.T) {
	m := testMapper()
	cases := []struct {
		accY float64
		want uint8
	}{
		{-1e9, 0},
		{-2000, 0},
		{0, 63},
		{2000, 127},
		{1e9, 127},
	}
	for _, c := range cases {
		ev := m.NoteFor(OrientationSample{}, c.accY, true)
		if ev.Velocity != c.want {
			t.Errorf("velocity for accY=%v is %d, want %d", c.accY, ev.Velocity, c.want)
		}
	}
}

func TestCCValueClampedAndMonotonic(t *testing.T) {
	m := testMapper()
	m.AngleScale = ScaleIdentity
	prev := uint8(0)
	for v := -20000.0; v <= 20000; v += 100 {
		got := m.ccValue(v)
		if got > 127 {
			t.Fatalf("ccValue(%v) = %d, above 127", v, got)
		}
		if got < prev {
			t.Fatalf("ccValue not monotonic: ccValue(%v)=%d after %d", v, got, prev)
		}
		prev = got
	}
	if m.ccValue(-18000) != 0 || m.ccValue(18000) != 127 {
		t.Fatalf("endpoints: got %d and %d, want 0 and 127",
			m.ccValue(-18000), m.ccValue(18000))
	}
}

func TestAngleScalePolicies(t *testing.T) {
	cases := []struct {
		in, deci, ident float64
	}{
		{360, 360, 360},
		{-360, -360, -360},
		{361, 36.1, 361},
		{3600, 360, 3600},
		{-36000, -3600, -36000},
		{0, 0, 0},
	}
	for _, c := range cases {
		if got := ScaleDeciDegrees(c.in); got != c.deci {
			t.Errorf("ScaleDeciDegrees(%v) = %v, want %v", c.in, got, c.deci)
		}
		if got := ScaleIdentity(c.in); got != c.ident {
			t.Errorf("ScaleIdentity(%v) = %v, want %v", c.in, got, c.ident)
		}
	}
}

func TestCCForAxisModes(t *testing.T) {
	m := testMapper()
	sample := OrientationSample{Roll: 1000, Pitch: 2000, Yaw: 3000}

	all := m.CCFor(sample, CCAll)
	if len(all) != 3 {
		t.Fatalf("CCAll emitted %d events, want 3", len(all))
	}
	for i, want := range []uint8{ccRoll, ccPitch, ccYaw} {
		if all[i].Controller != want || all[i].Channel != 0 {
			t.Errorf("CCAll[%d] = ctrl %d ch %d, want ctrl %d ch 0",
				i, all[i].Controller, all[i].Channel, want)
		}
	}

	axis := []struct {
		mode    CCMode
		ctrl    uint8
		channel uint8
	}{
		{CCRollOnly, ccRoll, 0},
		{CCPitchOnly, ccPitch, 1},
		{CCYawOnly, ccYaw, 2},
	}
	for _, c := range axis {
		evs := m.CCFor(sample, c.mode)
		if len(evs) != 1 {
			t.Fatalf("mode %v emitted %d events, want 1", c.mode, len(evs))
		}
		if evs[0].Controller != c.ctrl || evs[0].Channel != c.channel {
			t.Errorf("mode %v = ctrl %d ch %d, want ctrl %d ch %d",
				c.mode, evs[0].Controller, evs[0].Channel, c.ctrl, c.channel)
		}
	}
}

func TestDispatchTable(t *testing.T) {
	m := testMapper()
	sample := OrientationSample{Roll: 36000, Pitch: 36000}

	cases := []struct {
		mode     int
		wantNote bool
		wantCCs  int
	}{
		{1, true, 0},
		{2, true, 3},
		{3, false, 1},
		{4, false, 1},
		{5, false, 1},
		{0, false, 0},
		{7, false, 0},
		{-3, false, 0},
	}
	for _, c := range cases {
		note, ccs := m.Dispatch(c.mode, sample, 0, false)
		if (note != nil) != c.wantNote {
			t.Errorf("mode %d: note emitted = %v, want %v", c.mode, note != nil, c.wantNote)
		}
		if len(ccs) != c.wantCCs {
			t.Errorf("mode %d: %d CC events, want %d", c.mode, len(ccs), c.wantCCs)
		}
		for _, cc := range ccs {
			if cc.Value > 127 {
				t.Errorf("mode %d: CC value %d above 127", c.mode, cc.Value)
			}
		}
	}
}
