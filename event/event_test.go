// Copyright 2025 The go-delila Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package event

import "testing"

func TestNew(t *testing.T) {
	ev := New(16)
	if got, want := ev.WaveformSize, 16; got != want {
		t.Fatalf("invalid waveform size: got=%d, want=%d", got, want)
	}
	if got, want := ev.DownSampleFactor, uint8(1); got != want {
		t.Fatalf("invalid down-sample factor: got=%d, want=%d", got, want)
	}
	for _, n := range []int{
		len(ev.AnalogProbe1), len(ev.AnalogProbe2),
		len(ev.DigitalProbe1), len(ev.DigitalProbe2),
		len(ev.DigitalProbe3), len(ev.DigitalProbe4),
	} {
		if got, want := n, 16; got != want {
			t.Fatalf("invalid trace length: got=%d, want=%d", got, want)
		}
	}

	ev = New(0)
	if got, want := ev.WaveformSize, 0; got != want {
		t.Fatalf("invalid waveform size: got=%d, want=%d", got, want)
	}
	if got, want := len(ev.AnalogProbe1), 0; got != want {
		t.Fatalf("invalid trace length: got=%d, want=%d", got, want)
	}
}

func TestResizeWaveform(t *testing.T) {
	ev := New(8)
	ev.AnalogProbe1[0] = 5
	ev.DigitalProbe4[7] = 1

	// shrinking reuses the backing arrays and zeroes the samples.
	ev.ResizeWaveform(4)
	if got, want := ev.WaveformSize, 4; got != want {
		t.Fatalf("invalid waveform size: got=%d, want=%d", got, want)
	}
	if got, want := len(ev.AnalogProbe1), 4; got != want {
		t.Fatalf("invalid trace length: got=%d, want=%d", got, want)
	}
	if got, want := ev.AnalogProbe1[0], int32(0); got != want {
		t.Fatalf("trace not zeroed: got=%d, want=%d", got, want)
	}

	ev.ResizeWaveform(32)
	if got, want := len(ev.DigitalProbe4), 32; got != want {
		t.Fatalf("invalid trace length: got=%d, want=%d", got, want)
	}
	for i, v := range ev.DigitalProbe4 {
		if v != 0 {
			t.Fatalf("trace not zeroed at %d: got=%d", i, v)
		}
	}
}

func TestClearWaveform(t *testing.T) {
	ev := New(8)
	ev.ClearWaveform()
	if got, want := ev.WaveformSize, 0; got != want {
		t.Fatalf("invalid waveform size: got=%d, want=%d", got, want)
	}
	for _, n := range []int{
		len(ev.AnalogProbe1), len(ev.AnalogProbe2),
		len(ev.DigitalProbe1), len(ev.DigitalProbe2),
		len(ev.DigitalProbe3), len(ev.DigitalProbe4),
	} {
		if got, want := n, 0; got != want {
			t.Fatalf("invalid trace length: got=%d, want=%d", got, want)
		}
	}
}

func TestFlags(t *testing.T) {
	var ev Data
	if ev.HasPileup() || ev.HasTriggerLost() || ev.HasOverRange() {
		t.Fatalf("zero value should carry no flags")
	}

	ev.Flags = FlagPileup | FlagOverRange
	if !ev.HasPileup() {
		t.Fatalf("expected the pile-up flag")
	}
	if ev.HasTriggerLost() {
		t.Fatalf("unexpected trigger-lost flag")
	}
	if !ev.HasOverRange() {
		t.Fatalf("expected the over-range flag")
	}

	ev.Flags = FlagTriggerLost | Flag1024Trigger | FlagNLostTrigger
	if !ev.HasTriggerLost() {
		t.Fatalf("expected the trigger-lost flag")
	}
	if got, want := ev.Flags, uint64(0x1A); got != want {
		t.Fatalf("invalid flags: got=0x%x, want=0x%x", got, want)
	}
}
