// Copyright 2025 The go-delila Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package dig1 implements decoders for raw data from first-generation
// PSD and PHA digitizer firmwares (32-bit little-endian words, nested
// board and dual-channel aggregates).
package dig1 // import "github.com/go-delila/dgtz/dig1"

import "github.com/go-delila/dgtz/event"

const (
	wordSize = 4 // bytes per 32-bit word

	// board aggregate header (4 words)
	bhdrSizeWords   = 4
	bhdrSizeMask    = 0x0FFFFFFF
	bhdrTypeShift   = 28
	bhdrTypeMask    = 0xF
	bhdrTypeData    = 0xA
	bhdrChMaskMask  = 0xFF
	bhdrLVDSShift   = 8
	bhdrLVDSMask    = 0x7FFF
	bhdrFailBit     = 1 << 26
	bhdrBoardShift  = 27
	bhdrBoardMask   = 0x1F
	bhdrCounterMask = 0x7FFFFF

	// dual-channel aggregate header (2 words)
	chdrSizeWords    = 2
	chdrSizeMaskPSD  = 0x3FFFFF
	chdrSizeMaskPHA  = 0x7FFFFFFF
	chdrValidBit     = 1 << 31
	chdrSamplesMask  = 0xFFFF
	chdrExtrasShift  = 24
	chdrExtrasMask   = 0x7
	chdrSamplesBit   = 1 << 27
	chdrExtrasBit    = 1 << 28
	chdrTimeBit      = 1 << 29
	chdrEnergyBit    = 1 << 30
	chdrDualTraceBit = 1 << 31

	// probe selectors, PSD variant
	psdProbe1Shift = 16
	psdProbe1Mask  = 0x7
	psdProbe2Shift = 19
	psdProbe2Mask  = 0x7
	psdAnalogShift = 22
	psdAnalogMask  = 0x3

	// probe selectors, PHA variant
	phaDigitalShift = 16
	phaDigitalMask  = 0xF
	phaAnalog2Shift = 20
	phaAnalog2Mask  = 0x3
	phaAnalog1Shift = 22
	phaAnalog1Mask  = 0x3

	// event words
	evtTimeTagMask  = 0x7FFFFFFF
	evtOddBit       = 1 << 31
	evtShortMask    = 0x7FFF
	evtPileupBit    = 1 << 15
	evtLongShift    = 16
	evtLongMask     = 0xFFFF // charge long gate, 16 bits
	evtEnergyMask   = 0x7FFF // PHA energy, 15 bits
	evtExtraShift   = 16
	evtExtraMask    = 0x3FF
	xtraFineMask    = 0x3FF
	xtraFlagsShift  = 10
	xtraFlagsMask   = 0x3F
	xtraExtShift    = 16
	xtraOptExtended = 0x2 // extended time + flags + fine time

	// firmware status flags in the extras word
	xtraFlagTriggerLost  = 0x20
	xtraFlagOverRange    = 0x10
	xtraFlag1024Trigger  = 0x08
	xtraFlagNLostTrigger = 0x04

	// waveform packing
	samplesPerGroup = 8
	samplesPerWord  = 2
	smpAnalogMask   = 0x3FFF
	smpDigital1Bit  = 1 << 14
	smpDigital2Bit  = 1 << 15

	maxBoardID  = 31
	maxWaveform = 65536
)

// gen1Flags maps the 6-bit firmware flag group of the extras word onto
// the event status flags.
func gen1Flags(fl uint32) uint64 {
	var flags uint64
	if fl&xtraFlagTriggerLost != 0 {
		flags |= event.FlagTriggerLost
	}
	if fl&xtraFlagOverRange != 0 {
		flags |= event.FlagOverRange
	}
	if fl&xtraFlag1024Trigger != 0 {
		flags |= event.Flag1024Trigger
	}
	if fl&xtraFlagNLostTrigger != 0 {
		flags |= event.FlagNLostTrigger
	}
	return flags
}
