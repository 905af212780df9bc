// Copyright 2025 The go-delila Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package dig2

import (
	"github.com/go-daq/tdaq/log"
	"golang.org/x/xerrors"

	"github.com/go-delila/dgtz/event"
)

// PSD2 decodes raw buffers from second-generation DPP-PSD firmwares.
// The zero value is not usable; call NewPSD2.
type PSD2 struct {
	gen2
}

// NewPSD2 returns a decoder for second-generation DPP-PSD raw data.
func NewPSD2() *PSD2 {
	return &PSD2{gen2: newGen2("dgtz.psd2")}
}

// Swap converts raw from the wire byte order to host order, in place.
func (dec *PSD2) Swap(raw []byte) {
	swapWords(raw)
}

// Classify tags a swapped raw buffer as a start frame, a stop frame,
// event data or unknown.
func (dec *PSD2) Classify(raw []byte) event.Kind {
	if len(raw)%wordSize != 0 {
		return event.KindUnknown
	}
	r := newReader(raw)
	if r.n < 3 {
		return event.KindUnknown
	}
	w0, _ := r.wordSafe(0)
	w1, _ := r.wordSafe(1)
	w2, _ := r.wordSafe(2)
	if (w0>>aggTypeShift)&aggTypeMask == ctrlTypeSpecial {
		sub := (w0 >> ctrlSubShift) & ctrlSubMask
		switch {
		case r.n == 4 && sub == ctrlSubStart:
			w3, _ := r.wordSafe(3)
			if (w1>>ctrlByteShift)&ctrlByteMask == 0x2 &&
				(w2>>ctrlByteShift)&ctrlByteMask == 0x1 &&
				(w3>>ctrlByteShift)&ctrlByteMask == 0x1 {
				return event.KindStart
			}
		case r.n == 3 && sub == ctrlSubStop:
			if (w1>>ctrlByteShift)&ctrlByteMask == 0x0 &&
				(w2>>ctrlByteShift)&ctrlByteMask == 0x1 {
				msg, _, _, _ := dec.snapshot()
				msg.Debugf("acquisition stopped, dead time: %d ns", (w2&stopDeadMask)*stopDeadUnitNs)
				return event.KindStop
			}
		}
	}
	return event.KindEvent
}

// Decode unpacks the flat event list of a swapped raw buffer. It
// returns the events, the 16-bit aggregate counter and an error for
// malformed buffers.
func (dec *PSD2) Decode(raw []byte) ([]event.Data, uint32, error) {
	msg, step, module, debug := dec.snapshot()

	if len(raw)%wordSize != 0 {
		return nil, 0, xerrors.Errorf("dig2: raw buffer size %d not a multiple of %d", len(raw), wordSize)
	}
	r := newReader(raw)
	if r.n < 1 {
		return nil, 0, xerrors.Errorf("dig2: empty raw buffer")
	}

	w0, _ := r.wordSafe(0)
	if typ := (w0 >> aggTypeShift) & aggTypeMask; typ != aggTypeData {
		msg.Errorf("invalid aggregate header type: 0x%x", typ)
		return nil, 0, xerrors.Errorf("dig2: aggregate header: %v", event.StatusInvalidHeader)
	}
	counter := uint32((w0 >> aggCounterShift) & aggCounterMask)
	if w0&aggFailBit != 0 {
		msg.Warnf("board failure flag set in aggregate %d", counter)
	}
	total := int(w0 & aggSizeMask)
	if total*wordSize != len(raw) {
		msg.Warnf("aggregate size mismatch: header says %d words, buffer holds %d", total, r.n)
	}
	if total > r.n {
		total = r.n
	}
	if debug {
		msg.Debugf("aggregate %d: %d words", counter, total)
	}

	var evs []event.Data
	for i := 1; i < total; {
		if total-i < 2 {
			msg.Errorf("truncated event at word %d", i)
			return evs, counter, xerrors.Errorf("dig2: event at word %d: %v", i, event.StatusInsufficientData)
		}
		w1, _ := r.wordSafe(i)
		w2, _ := r.wordSafe(i + 1)
		i += 2

		ev := event.New(0)
		ev.Module = module
		ev.Channel = uint8((w1 >> evtChannelShift) & evtChannelMask)
		ev.TimeResolution = uint8(step)
		ev.Energy = uint16(w2 & evtEnergyMask)
		ev.EnergyShort = uint16((w2 >> evtShortShift) & evtShortMask)
		fine := (w2 >> evtFineShift) & evtFineMask
		high := (w2 >> evtFlagsHighShift) & evtFlagsHighMask
		low := (w2 >> evtFlagsLowShift) & evtFlagsLowMask
		ev.Flags = high<<evtFlagsLowBits | low

		rawts := w1 & evtTimeMask
		ev.TimeStampNs = float64(rawts)*float64(step) + float64(fine)/1024*float64(step)

		if w2&evtWaveBit != 0 {
			n, st := decodeWaveform(msg, r, &i, total, ev)
			if st != event.StatusSuccess {
				return evs, counter, xerrors.Errorf("dig2: waveform at word %d: %v", i, st)
			}
			i += n
		}

		if debug {
			msg.Debugf("event: ch=%d ts=%f energy=%d short=%d flags=0x%x", ev.Channel, ev.TimeStampNs, ev.Energy, ev.EnergyShort, ev.Flags)
		}
		evs = append(evs, *ev)
	}
	return evs, counter, nil
}

// decodeWaveform unpacks a waveform block starting at *i (header word,
// length word, sample words). It returns the number of words consumed
// after the two leading ones.
func decodeWaveform(msg log.MsgStream, r wreader, i *int, total int, ev *event.Data) (int, event.Status) {
	if total-*i < 2 {
		msg.Errorf("truncated waveform block at word %d", *i)
		return 0, event.StatusInsufficientData
	}
	wh, _ := r.wordSafe(*i)
	if wh&whdrValidBit == 0 || (wh>>whdrTypeShift)&whdrTypeMask != 0 {
		msg.Errorf("invalid waveform header: 0x%016x", wh)
		return 0, event.StatusInvalidHeader
	}
	tres := (wh >> whdrTimeResShift) & whdrTimeResMask
	ev.DownSampleFactor = 1 << tres
	ev.AnalogProbe1Type = uint8(wh & whdrAP1TypeMask)
	ev.AnalogProbe2Type = uint8((wh >> whdrAP2TypeShift) & whdrAP2TypeMask)
	ev.DigitalProbe1Type = uint8((wh >> whdrDP1Shift) & whdrDPMask)
	ev.DigitalProbe2Type = uint8((wh >> whdrDP2Shift) & whdrDPMask)
	ev.DigitalProbe3Type = uint8((wh >> whdrDP3Shift) & whdrDPMask)
	ev.DigitalProbe4Type = uint8((wh >> whdrDP4Shift) & whdrDPMask)
	var (
		ap1Signed = wh&whdrAP1SignedBit != 0
		ap1Mul    = mulFactor((wh >> whdrAP1MulShift) & whdrMulMask)
		ap2Signed = wh&whdrAP2SignedBit != 0
		ap2Mul    = mulFactor((wh >> whdrAP2MulShift) & whdrMulMask)
	)

	wl, _ := r.wordSafe(*i + 1)
	nwords := int(wl & wlenWordsMask)
	*i += 2

	size := nwords * samplesPerWord
	if size > maxWaveform {
		msg.Errorf("waveform samples exceed maximum: %d", size)
		return 0, event.StatusInvalidWaveformSize
	}
	if total-*i < nwords {
		msg.Errorf("insufficient data for waveform: need %d words, have %d", nwords, total-*i)
		return 0, event.StatusInsufficientData
	}
	ev.ResizeWaveform(size)

	for w := 0; w < nwords; w++ {
		word, _ := r.wordSafe(*i + w)
		for half := 0; half < samplesPerWord; half++ {
			smp := uint32(word >> (32 * half))
			idx := samplesPerWord*w + half
			a1 := int32(smp & smpAnalogMask)
			if ap1Signed && a1&smpSignBit != 0 {
				a1 |= smpSignExt
			}
			ev.AnalogProbe1[idx] = a1 * ap1Mul
			a2 := int32((smp >> smpAnalog2Shift) & smpAnalogMask)
			if ap2Signed && a2&smpSignBit != 0 {
				a2 |= smpSignExt
			}
			ev.AnalogProbe2[idx] = a2 * ap2Mul
			if smp&smpDigital1Bit != 0 {
				ev.DigitalProbe1[idx] = 1
			}
			if smp&smpDigital2Bit != 0 {
				ev.DigitalProbe2[idx] = 1
			}
			if smp&smpDigital3Bit != 0 {
				ev.DigitalProbe3[idx] = 1
			}
			if smp&smpDigital4Bit != 0 {
				ev.DigitalProbe4[idx] = 1
			}
		}
	}
	return nwords, event.StatusSuccess
}
