// Copyright 2025 The go-delila Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package dig1

import (
	"github.com/go-daq/tdaq/log"

	"github.com/go-delila/dgtz/event"
)

// validateBoardHeader checks the first two words of a board aggregate
// header.
func validateBoardHeader(msg log.MsgStream, w0, w1 uint32) event.Status {
	if typ := (w0 >> bhdrTypeShift) & bhdrTypeMask; typ != bhdrTypeData {
		msg.Errorf("invalid board header type: 0x%x", typ)
		return event.StatusInvalidHeader
	}
	if size := w0 & bhdrSizeMask; size < bhdrSizeWords {
		msg.Errorf("board aggregate size too small: %d", size)
		return event.StatusCorruptedData
	}
	if id := (w1 >> bhdrBoardShift) & bhdrBoardMask; id > maxBoardID {
		msg.Errorf("invalid board id: %d", id)
		return event.StatusCorruptedData
	}
	if w1&bhdrChMaskMask == 0 {
		msg.Warnf("no active channels in dual channel mask")
	}
	return event.StatusSuccess
}

// validateChannelHeader checks the two words of a dual-channel aggregate
// header. sizeMask selects the aggregate-size width of the firmware
// variant.
func validateChannelHeader(msg log.MsgStream, w0, w1, sizeMask uint32) event.Status {
	if w0&chdrValidBit == 0 {
		msg.Errorf("invalid dual channel header flag")
		return event.StatusInvalidHeader
	}
	if size := w0 & sizeMask; size < chdrSizeWords {
		msg.Errorf("dual channel aggregate size too small: %d", size)
		return event.StatusCorruptedData
	}
	if n := int(w1&chdrSamplesMask) * samplesPerGroup; n > maxWaveform {
		msg.Errorf("waveform samples too large: %d", n)
		return event.StatusInvalidWaveformSize
	}
	// probe selectors occupy their full 3- and 2-bit fields, so every
	// masked value is in range and needs no check here.
	return event.StatusSuccess
}

// validateEventFit checks that the remaining words of the current block
// can hold one event with the given enable bits.
func validateEventFit(msg log.MsgStream, remaining int, extras, charge bool, samplesField int) event.Status {
	need := 1 // time-tag word
	if extras {
		need++
	}
	if charge {
		need++
	}
	need += samplesField * samplesPerWord
	if remaining < need {
		msg.Errorf("insufficient data for event: need %d words, have %d", need, remaining)
		return event.StatusInsufficientData
	}
	return event.StatusSuccess
}

// validateWaveform checks a waveform block of nwords words holding
// samples trace slots against the remaining words.
func validateWaveform(msg log.MsgStream, samples, nwords, remaining int) event.Status {
	if samples == 0 {
		return event.StatusSuccess
	}
	if samples > maxWaveform {
		msg.Errorf("waveform samples exceed maximum: %d", samples)
		return event.StatusInvalidWaveformSize
	}
	if remaining < nwords {
		msg.Errorf("insufficient data for waveform: need %d words, have %d", nwords, remaining)
		return event.StatusInsufficientData
	}
	return event.StatusSuccess
}

// validateTimestamp checks the fine-time field range.
func validateTimestamp(msg log.MsgStream, fine uint32) event.Status {
	if fine > xtraFineMask {
		msg.Errorf("fine time stamp out of range: %d", fine)
		return event.StatusTimestampError
	}
	return event.StatusSuccess
}

// validateBounds checks a nested block against its enclosing one.
func validateBounds(msg log.MsgStream, name string, beg, end, total int) event.Status {
	if beg > end {
		msg.Errorf("%s block start > end: %d > %d", name, beg, end)
		return event.StatusCorruptedData
	}
	if end > total {
		msg.Errorf("%s block extends beyond data: %d > %d", name, end, total)
		return event.StatusOutOfBounds
	}
	return event.StatusSuccess
}
