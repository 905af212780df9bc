// Copyright 2025 The go-delila Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package event describes decoded digitizer events.
package event // import "github.com/go-delila/dgtz/event"

// Status flags stored in Data.Flags.
const (
	FlagPileup       uint64 = 0x01 // pile-up detected
	FlagTriggerLost  uint64 = 0x02 // trigger lost
	FlagOverRange    uint64 = 0x04 // signal saturation
	Flag1024Trigger  uint64 = 0x08 // 1024-trigger counter marker
	FlagNLostTrigger uint64 = 0x10 // N-lost-triggers marker
)

// Data is a single decoded event from a digitizer: timing information,
// energy measurements and optional per-sample waveform traces.
type Data struct {
	TimeStampNs   float64
	Energy        uint16
	EnergyShort   uint16
	Module        uint8
	Channel       uint8
	TimeResolution uint8
	Flags         uint64

	WaveformSize  int
	AnalogProbe1  []int32
	AnalogProbe2  []int32
	DigitalProbe1 []uint8
	DigitalProbe2 []uint8
	DigitalProbe3 []uint8
	DigitalProbe4 []uint8

	AnalogProbe1Type  uint8
	AnalogProbe2Type  uint8
	DigitalProbe1Type uint8
	DigitalProbe2Type uint8
	DigitalProbe3Type uint8
	DigitalProbe4Type uint8
	DownSampleFactor  uint8
}

// New creates an event with all six trace slices sized to n samples.
func New(n int) *Data {
	data := &Data{DownSampleFactor: 1}
	data.ResizeWaveform(n)
	return data
}

// ResizeWaveform resizes all trace slices to n samples.
func (data *Data) ResizeWaveform(n int) {
	data.WaveformSize = n
	data.AnalogProbe1 = resizeI32(data.AnalogProbe1, n)
	data.AnalogProbe2 = resizeI32(data.AnalogProbe2, n)
	data.DigitalProbe1 = resizeU8(data.DigitalProbe1, n)
	data.DigitalProbe2 = resizeU8(data.DigitalProbe2, n)
	data.DigitalProbe3 = resizeU8(data.DigitalProbe3, n)
	data.DigitalProbe4 = resizeU8(data.DigitalProbe4, n)
}

// ClearWaveform drops all trace samples.
func (data *Data) ClearWaveform() {
	data.WaveformSize = 0
	data.AnalogProbe1 = data.AnalogProbe1[:0]
	data.AnalogProbe2 = data.AnalogProbe2[:0]
	data.DigitalProbe1 = data.DigitalProbe1[:0]
	data.DigitalProbe2 = data.DigitalProbe2[:0]
	data.DigitalProbe3 = data.DigitalProbe3[:0]
	data.DigitalProbe4 = data.DigitalProbe4[:0]
}

// HasPileup reports whether the pile-up flag is set.
func (data *Data) HasPileup() bool { return data.Flags&FlagPileup != 0 }

// HasTriggerLost reports whether the trigger-lost flag is set.
func (data *Data) HasTriggerLost() bool { return data.Flags&FlagTriggerLost != 0 }

// HasOverRange reports whether the over-range flag is set.
func (data *Data) HasOverRange() bool { return data.Flags&FlagOverRange != 0 }

func resizeI32(sli []int32, n int) []int32 {
	if cap(sli) < n {
		return make([]int32, n)
	}
	sli = sli[:n]
	for i := range sli {
		sli[i] = 0
	}
	return sli
}

func resizeU8(sli []uint8, n int) []uint8 {
	if cap(sli) < n {
		return make([]uint8, n)
	}
	sli = sli[:n]
	for i := range sli {
		sli[i] = 0
	}
	return sli
}
