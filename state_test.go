package main

import (
	"fmt"
	"sync"
	"testing"
)

func TestOrientationHistoryFIFOEviction(t *testing.T) {
	store := NewStore()
	for i := 0; i < 250; i++ {
		store.PushOrientation(OrientationSample{Roll: float64(i)})
	}
	hist := store.OrientationHistory()
	if len(hist) != HistoryLen {
		t.Fatalf("history length = %d, want %d", len(hist), HistoryLen)
	}
	for i, s := range hist {
		want := float64(50 + i)
		if s.Roll != want {
			t.Fatalf("hist[%d].Roll = %v, want %v", i, s.Roll, want)
		}
	}
}

func TestAccelerationHistoryFIFOEviction(t *testing.T) {
	store := NewStore()
	for i := 0; i < HistoryLen+1; i++ {
		store.PushAcceleration(AccelerationSample{AY: float64(i)})
	}
	hist := store.AccelerationHistory()
	if len(hist) != HistoryLen {
		t.Fatalf("history length = %d, want %d", len(hist), HistoryLen)
	}
	if hist[0].AY != 1 || hist[HistoryLen-1].AY != HistoryLen {
		t.Fatalf("eviction kept wrong window: first=%v last=%v", hist[0].AY, hist[HistoryLen-1].AY)
	}
}

func TestHistoryPartialSnapshotKeepsOrder(t *testing.T) {
	store := NewStore()
	for i := 0; i < 3; i++ {
		store.PushOrientation(OrientationSample{Yaw: float64(i)})
	}
	hist := store.OrientationHistory()
	if len(hist) != 3 {
		t.Fatalf("history length = %d, want 3", len(hist))
	}
	for i, s := range hist {
		if s.Yaw != float64(i) {
			t.Fatalf("hist[%d].Yaw = %v, want %d", i, s.Yaw, i)
		}
	}
}

func TestLatestAccelYAbsentUntilFirstSample(t *testing.T) {
	store := NewStore()
	if _, ok := store.LatestAccelY(); ok {
		t.Fatal("LatestAccelY reported a value before any sample arrived")
	}
	store.SetLatestAcceleration(AccelerationSample{AX: 1, AY: -42, AZ: 3})
	y, ok := store.LatestAccelY()
	if !ok || y != -42 {
		t.Fatalf("LatestAccelY = %v, %v; want -42, true", y, ok)
	}
}

func TestModeLabels(t *testing.T) {
	cases := []struct {
		mode int
		want string
	}{
		{1, "Mode 1: MIDI Notes only"},
		{2, "Mode 2: MIDI Notes + MIDI CC (all axes)"},
		{3, "Mode 3: MIDI CC (roll/x only, channel 1)"},
		{4, "Mode 4: MIDI CC (pitch/y only, channel 2)"},
		{5, "Mode 5: MIDI CC (yaw/z only, channel 3)"},
		{7, "Mode 7: Unknown"},
		{-1, "Mode -1: Unknown"},
	}
	for _, c := range cases {
		if got := ModeLabel(c.mode); got != c.want {
			t.Errorf("ModeLabel(%d) = %q, want %q", c.mode, got, c.want)
		}
	}
}

func TestUnknownModeIsStoredForRecovery(t *testing.T) {
	store := NewStore()
	store.SetMode(7)
	if store.Mode() != 7 {
		t.Fatalf("Mode() = %d, want 7", store.Mode())
	}
	if ValidMode(store.Mode()) {
		t.Fatal("mode 7 should not be valid")
	}
	store.SetMode(2)
	if !ValidMode(store.Mode()) {
		t.Fatal("mode 2 should be valid after recovery")
	}
}

// Readers and the writer share the store; this is a smoke test for the
// locking contract under the race detector.
func TestStoreConcurrentReadersAndWriter(t *testing.T) {
	store := NewStore()
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 500; i++ {
			store.PushOrientation(OrientationSample{Roll: float64(i)})
			store.PushAcceleration(AccelerationSample{AY: float64(i)})
			store.SetLatestAcceleration(AccelerationSample{AY: float64(i)})
			store.SetMode(i % 6)
		}
	}()
	for r := 0; r < 4; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				_ = store.OrientationHistory()
				_ = store.AccelerationHistory()
				_, _ = store.LatestAccelY()
				_ = fmt.Sprint(store.ModeLabel())
			}
		}()
	}
	wg.Wait()
}
