// Copyright 2025 The go-delila Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package dig1

import (
	"encoding/binary"
	"reflect"
	"testing"

	"github.com/go-delila/dgtz/event"
)

func words(ws ...uint32) []byte {
	buf := make([]byte, wordSize*len(ws))
	for i, w := range ws {
		binary.LittleEndian.PutUint32(buf[wordSize*i:], w)
	}
	return buf
}

func TestClassify1(t *testing.T) {
	for _, tc := range []struct {
		name string
		raw  []byte
		want event.Kind
	}{
		{
			name: "nil",
			raw:  nil,
			want: event.KindUnknown,
		},
		{
			name: "odd-size",
			raw:  []byte{1, 2, 3},
			want: event.KindUnknown,
		},
		{
			name: "too-small",
			raw:  words(0xA0000004, 0, 0),
			want: event.KindUnknown,
		},
		{
			name: "board-aggregate",
			raw:  words(0xA0000004, 1, 0, 0),
			want: event.KindEvent,
		},
		{
			name: "no-marker-small",
			raw:  words(0x10000004, 1, 0, 0),
			want: event.KindUnknown,
		},
		{
			name: "no-marker-large",
			raw: words(
				0x10000010, 0, 0, 0, 0, 0, 0, 0,
				0, 0, 0, 0, 0, 0, 0, 0,
			),
			want: event.KindEvent,
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			got := classify1(tc.raw)
			if got != tc.want {
				t.Fatalf("invalid kind: got=%v, want=%v", got, tc.want)
			}
		})
	}
}

func TestPSD1Decode(t *testing.T) {
	dec := NewPSD1()
	dec.SetTimeStep(2)
	dec.SetModuleNumber(3)

	raw := words(
		0xA0000009, // board aggregate, 9 words
		0x00000001, // dual channel mask: pair 0
		0x00000007, // aggregate counter
		0x00000000,
		0x80000005, // dual channel aggregate, 5 words
		0x525A0000, // charge+extras, option 2, probes dp1=2 dp2=3 ap=1
		0x000003E8, // time tag 1000, even channel
		0x00058200, // ext time 5, trigger-lost flag, fine 512
		0x04D28141, // energy 1234, pileup, short 321
	)

	evs, counter, err := dec.Decode(raw)
	if err != nil {
		t.Fatalf("could not decode: %+v", err)
	}
	if got, want := counter, uint32(7); got != want {
		t.Fatalf("invalid counter: got=%d, want=%d", got, want)
	}
	if got, want := len(evs), 1; got != want {
		t.Fatalf("invalid number of events: got=%d, want=%d", got, want)
	}

	ev := evs[0]
	if got, want := ev.Module, uint8(3); got != want {
		t.Fatalf("invalid module: got=%d, want=%d", got, want)
	}
	if got, want := ev.Channel, uint8(0); got != want {
		t.Fatalf("invalid channel: got=%d, want=%d", got, want)
	}
	if got, want := ev.Energy, uint16(1234); got != want {
		t.Fatalf("invalid energy: got=%d, want=%d", got, want)
	}
	if got, want := ev.EnergyShort, uint16(321); got != want {
		t.Fatalf("invalid short energy: got=%d, want=%d", got, want)
	}
	if got, want := ev.Flags, uint64(event.FlagPileup|event.FlagTriggerLost); got != want {
		t.Fatalf("invalid flags: got=0x%x, want=0x%x", got, want)
	}
	// ts = ((5<<31)|1000)*2ns + 512/1024*2ns
	if got, want := ev.TimeStampNs, 21474838481.0; got != want {
		t.Fatalf("invalid time stamp: got=%v, want=%v", got, want)
	}
	if got, want := ev.TimeResolution, uint8(2); got != want {
		t.Fatalf("invalid time resolution: got=%d, want=%d", got, want)
	}
	if got, want := ev.DigitalProbe1Type, uint8(2); got != want {
		t.Fatalf("invalid digital probe 1 type: got=%d, want=%d", got, want)
	}
	if got, want := ev.DigitalProbe2Type, uint8(3); got != want {
		t.Fatalf("invalid digital probe 2 type: got=%d, want=%d", got, want)
	}
	if got, want := ev.AnalogProbe1Type, uint8(1); got != want {
		t.Fatalf("invalid analog probe 1 type: got=%d, want=%d", got, want)
	}
	if got, want := ev.AnalogProbe2Type, uint8(0); got != want {
		t.Fatalf("invalid analog probe 2 type: got=%d, want=%d", got, want)
	}
	if got, want := ev.WaveformSize, 0; got != want {
		t.Fatalf("invalid waveform size: got=%d, want=%d", got, want)
	}
}

func TestPSD1DecodeHighLongGate(t *testing.T) {
	dec := NewPSD1()
	dec.SetTimeStep(1)

	raw := words(
		0xA0000008, // board aggregate, 8 words
		0x00000001, // dual channel mask: pair 0
		0x00000002, // aggregate counter
		0x00000000,
		0x80000004, // dual channel aggregate, 4 words
		0x40000000, // charge enabled
		0x00000064, // time tag 100
		0x90000141, // long gate 0x9000, short 321, no pileup
	)

	evs, _, err := dec.Decode(raw)
	if err != nil {
		t.Fatalf("could not decode: %+v", err)
	}
	if got, want := len(evs), 1; got != want {
		t.Fatalf("invalid number of events: got=%d, want=%d", got, want)
	}

	ev := evs[0]
	if got, want := ev.Energy, uint16(0x9000); got != want {
		t.Fatalf("invalid energy: got=%d, want=%d", got, want)
	}
	if got, want := ev.EnergyShort, uint16(321); got != want {
		t.Fatalf("invalid short energy: got=%d, want=%d", got, want)
	}
	if got, want := ev.Flags, uint64(0); got != want {
		t.Fatalf("invalid flags: got=0x%x, want=0x%x", got, want)
	}
}

func TestPSD1DecodeWaveform(t *testing.T) {
	dec := NewPSD1()
	dec.SetTimeStep(2)

	raw := words(
		0xA0000009, // board aggregate, 9 words
		0x00000001, // dual channel mask: pair 0
		0x00000001, // aggregate counter
		0x00000000,
		0x80000005, // dual channel aggregate, 5 words
		0x08000001, // samples enabled, 8 samples
		0x800001F4, // time tag 500, odd channel
		0x80C84064, // samples 100 (dp1 set), 200 (dp2 set)
		0x0190012C, // samples 300, 400
	)

	evs, _, err := dec.Decode(raw)
	if err != nil {
		t.Fatalf("could not decode: %+v", err)
	}
	if got, want := len(evs), 1; got != want {
		t.Fatalf("invalid number of events: got=%d, want=%d", got, want)
	}

	ev := evs[0]
	if got, want := ev.Channel, uint8(1); got != want {
		t.Fatalf("invalid channel: got=%d, want=%d", got, want)
	}
	if got, want := ev.TimeStampNs, 1000.0; got != want {
		t.Fatalf("invalid time stamp: got=%v, want=%v", got, want)
	}
	if got, want := ev.WaveformSize, 8; got != want {
		t.Fatalf("invalid waveform size: got=%d, want=%d", got, want)
	}
	if got, want := ev.AnalogProbe1, []int32{100, 200, 300, 400, 0, 0, 0, 0}; !reflect.DeepEqual(got, want) {
		t.Fatalf("invalid analog probe 1: got=%v, want=%v", got, want)
	}
	if got, want := ev.DigitalProbe1, []uint8{1, 0, 0, 0, 0, 0, 0, 0}; !reflect.DeepEqual(got, want) {
		t.Fatalf("invalid digital probe 1: got=%v, want=%v", got, want)
	}
	if got, want := ev.DigitalProbe2, []uint8{0, 1, 0, 0, 0, 0, 0, 0}; !reflect.DeepEqual(got, want) {
		t.Fatalf("invalid digital probe 2: got=%v, want=%v", got, want)
	}
}

func TestPSD1DecodeDualTrace(t *testing.T) {
	dec := NewPSD1()

	raw := words(
		0xA0000009, // board aggregate, 9 words
		0x00000001, // dual channel mask: pair 0
		0x00000001, // aggregate counter
		0x00000000,
		0x80000005, // dual channel aggregate, 5 words
		0x88000001, // samples enabled, dual trace, 8 samples
		0x00000064, // time tag 100
		0x0014000A, // samples 10, 20
		0x0028001E, // samples 30, 40
	)

	evs, _, err := dec.Decode(raw)
	if err != nil {
		t.Fatalf("could not decode: %+v", err)
	}
	if got, want := len(evs), 1; got != want {
		t.Fatalf("invalid number of events: got=%d, want=%d", got, want)
	}

	ev := evs[0]
	if got, want := ev.AnalogProbe1, []int32{10, 10, 30, 30, 0, 0, 0, 0}; !reflect.DeepEqual(got, want) {
		t.Fatalf("invalid analog probe 1: got=%v, want=%v", got, want)
	}
	if got, want := ev.AnalogProbe2, []int32{0, 20, 20, 40, 0, 0, 0, 0}; !reflect.DeepEqual(got, want) {
		t.Fatalf("invalid analog probe 2: got=%v, want=%v", got, want)
	}
}

func TestPSD1DecodeErrors(t *testing.T) {
	for _, tc := range []struct {
		name string
		raw  []byte
		want string
	}{
		{
			name: "odd-size",
			raw:  []byte{1, 2, 3, 4, 5, 6},
			want: "dig1: raw buffer size 6 not a multiple of 4",
		},
		{
			name: "too-small",
			raw:  words(0xA0000004, 0),
			want: "dig1: raw buffer too small: 2 words",
		},
		{
			name: "bad-board-type",
			raw:  words(0x50000004, 1, 0, 0),
			want: "dig1: board aggregate: invalid header",
		},
		{
			name: "bad-board-size",
			raw:  words(0xA0000002, 1, 0, 0),
			want: "dig1: board aggregate: corrupted data",
		},
		{
			name: "truncated-pair",
			raw:  words(0xA0000009, 1, 0, 0),
			want: "dig1: dual channel pair 0: insufficient data",
		},
		{
			name: "bad-pair-header",
			raw:  words(0xA0000006, 1, 0, 0, 0x00000002, 0),
			want: "dig1: dual channel pair 0: invalid header",
		},
		{
			name: "truncated-event",
			raw: words(
				0xA0000007, 1, 0, 0,
				0x80000003, // pair aggregate of 3 words
				0x50000000, // charge+extras enabled
				0x000003E8, // lone time tag
			),
			want: "dig1: event in pair 0: insufficient data",
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			dec := NewPSD1()
			_, _, err := dec.Decode(tc.raw)
			if err == nil {
				t.Fatalf("expected an error")
			}
			if got, want := err.Error(), tc.want; got != want {
				t.Fatalf("invalid error:\ngot= %v\nwant=%v", got, want)
			}
		})
	}
}

func TestPSD1DecodeMultipleBoards(t *testing.T) {
	dec := NewPSD1()

	board := func(counter, ttag uint32) []uint32 {
		return []uint32{
			0xA0000008, // board aggregate, 8 words
			0x00000001, // dual channel mask: pair 0
			counter,
			0x00000000,
			0x80000004, // dual channel aggregate, 4 words
			0x40000000, // charge enabled
			ttag,
			0x00000000, // charge word
		}
	}
	raw := words(append(board(1, 100), board(2, 200)...)...)

	evs, counter, err := dec.Decode(raw)
	if err != nil {
		t.Fatalf("could not decode: %+v", err)
	}
	if got, want := len(evs), 2; got != want {
		t.Fatalf("invalid number of events: got=%d, want=%d", got, want)
	}
	if got, want := counter, uint32(2); got != want {
		t.Fatalf("invalid counter: got=%d, want=%d", got, want)
	}
	if got, want := evs[0].TimeStampNs, 100.0; got != want {
		t.Fatalf("invalid time stamp: got=%v, want=%v", got, want)
	}
	if got, want := evs[1].TimeStampNs, 200.0; got != want {
		t.Fatalf("invalid time stamp: got=%v, want=%v", got, want)
	}
}
