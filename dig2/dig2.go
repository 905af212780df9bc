// Copyright 2025 The go-delila Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package dig2 implements decoders for raw data from second-generation
// digitizer firmwares (64-bit words, flat event list, start and stop
// control frames).
//
// The device emits big-endian 64-bit words; buffers must be swapped to
// host-little-endian with Swap before classification and decoding.
package dig2 // import "github.com/go-delila/dgtz/dig2"

const (
	wordSize = 8 // bytes per 64-bit word

	// aggregate header (1 word)
	aggTypeShift    = 60
	aggTypeMask     = 0xF
	aggTypeData     = 0x2
	aggFailBit      = 1 << 56
	aggCounterShift = 32
	aggCounterMask  = 0xFFFF
	aggSizeMask     = 0xFFFFFFFF

	// control frames (start is 4 words, stop is 3)
	ctrlTypeSpecial = 0x3
	ctrlSubShift    = 56
	ctrlSubMask     = 0xF
	ctrlSubStart    = 0x0
	ctrlSubStop     = 0x2
	ctrlByteShift   = 56
	ctrlByteMask    = 0xFF
	stopDeadMask    = 0xFFFFFFFF
	stopDeadUnitNs  = 8

	// event first word
	evtChannelShift = 56
	evtChannelMask  = 0x7F
	evtTimeMask     = 0xFFFFFFFFFFFF

	// event second word
	evtEnergyMask     = 0xFFFF
	evtFineShift      = 16
	evtFineMask       = 0x3FF
	evtShortShift     = 26
	evtShortMask      = 0xFFFF
	evtFlagsHighShift = 42
	evtFlagsHighMask  = 0xFF
	evtFlagsLowShift  = 50
	evtFlagsLowMask   = 0x7FF
	evtFlagsLowBits   = 11
	evtWaveBit        = 1 << 62

	// waveform header word
	whdrValidBit     = 1 << 63
	whdrTypeShift    = 60
	whdrTypeMask     = 0x7
	whdrTimeResShift = 44
	whdrTimeResMask  = 0x3
	whdrAP1TypeMask  = 0x7
	whdrAP1SignedBit = 1 << 3
	whdrAP1MulShift  = 4
	whdrAP2TypeShift = 6
	whdrAP2TypeMask  = 0x7
	whdrAP2SignedBit = 1 << 9
	whdrAP2MulShift  = 10
	whdrMulMask      = 0x3
	whdrDP1Shift     = 12
	whdrDP2Shift     = 16
	whdrDP3Shift     = 20
	whdrDP4Shift     = 24
	whdrDPMask       = 0xF

	// waveform length word
	wlenWordsMask = 0xFFF

	// waveform sample halves
	smpAnalogMask   = 0x3FFF
	smpSignBit      = 0x2000
	smpSignExt      = ^int32(0x3FFF)
	smpDigital1Bit  = 1 << 14
	smpDigital2Bit  = 1 << 15
	smpAnalog2Shift = 16
	smpDigital3Bit  = 1 << 30
	smpDigital4Bit  = 1 << 31
	samplesPerWord  = 2

	maxWaveform = 65536
)

// mulFactor maps the 2-bit analog multiplier code onto the gain factor.
func mulFactor(code uint64) int32 {
	switch code {
	case 0:
		return 1
	case 1:
		return 4
	case 2:
		return 8
	}
	return 16
}
