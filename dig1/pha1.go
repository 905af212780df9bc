// Copyright 2025 The go-delila Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package dig1

import (
	"golang.org/x/xerrors"

	"github.com/go-delila/dgtz/event"
)

// PHA1 decodes raw buffers from first-generation DPP-PHA firmwares.
// The layout differs from the PSD variant in the dual-channel aggregate
// size width, the probe selector fields and the trailing energy word.
type PHA1 struct {
	gen1
}

// NewPHA1 returns a decoder for first-generation DPP-PHA raw data.
func NewPHA1() *PHA1 {
	return &PHA1{gen1: newGen1("dgtz.pha1")}
}

// Classify tags a raw buffer as event data or unknown.
func (dec *PHA1) Classify(raw []byte) event.Kind {
	return classify1(raw)
}

// Decode unpacks all board aggregates of raw into decoded events.
func (dec *PHA1) Decode(raw []byte) ([]event.Data, uint32, error) {
	msg, step, module, debug := dec.snapshot()

	if len(raw)%wordSize != 0 {
		return nil, 0, xerrors.Errorf("dig1: raw buffer size %d not a multiple of %d", len(raw), wordSize)
	}
	r := newReader(raw)
	if r.n < bhdrSizeWords {
		return nil, 0, xerrors.Errorf("dig1: raw buffer too small: %d words", r.n)
	}
	fineMult := float64(step) / 1024

	var (
		evs     []event.Data
		counter uint32
	)
	for i := 0; i < r.n; {
		w0, _ := r.wordSafe(i)
		w1, ok := r.wordSafe(i + 1)
		if !ok {
			msg.Errorf("truncated board aggregate header at word %d", i)
			break
		}
		if st := validateBoardHeader(msg, w0, w1); st != event.StatusSuccess {
			return evs, counter, xerrors.Errorf("dig1: board aggregate: %v", st)
		}
		w2, _ := r.wordSafe(i + 2)
		counter = w2 & bhdrCounterMask
		if w1&bhdrFailBit != 0 {
			msg.Warnf("board failure flag set in aggregate %d", counter)
		}

		aggSize := int(w0 & bhdrSizeMask)
		boardEnd := i + aggSize
		if boardEnd > r.n {
			msg.Errorf("board aggregate size %d exceeds buffer: %d > %d", aggSize, boardEnd, r.n)
			boardEnd = r.n
		}
		mask := w1 & bhdrChMaskMask
		if debug {
			msg.Debugf("board aggregate %d: size=%d mask=0x%02x", counter, aggSize, mask)
		}

		j := i + bhdrSizeWords
		for pair := 0; pair < 8; pair++ {
			if mask&(1<<uint(pair)) == 0 {
				continue
			}
			if j+chdrSizeWords > boardEnd {
				msg.Errorf("truncated dual channel header for pair %d", pair)
				return evs, counter, xerrors.Errorf("dig1: dual channel pair %d: %v", pair, event.StatusInsufficientData)
			}
			h0, _ := r.wordSafe(j)
			h1, _ := r.wordSafe(j + 1)
			if st := validateChannelHeader(msg, h0, h1, chdrSizeMaskPHA); st != event.StatusSuccess {
				return evs, counter, xerrors.Errorf("dig1: dual channel pair %d: %v", pair, st)
			}

			pairSize := int(h0 & chdrSizeMaskPHA)
			pairEnd := j + pairSize
			if pairEnd > boardEnd {
				msg.Errorf("dual channel aggregate extends beyond board: %d > %d", pairEnd, boardEnd)
				pairEnd = boardEnd
			}

			var (
				samplesField = int(h1 & chdrSamplesMask)
				dpType       = uint8((h1 >> phaDigitalShift) & phaDigitalMask)
				ap2Type      = uint8((h1 >> phaAnalog2Shift) & phaAnalog2Mask)
				ap1Type      = uint8((h1 >> phaAnalog1Shift) & phaAnalog1Mask)
				extOpt       = (h1 >> chdrExtrasShift) & chdrExtrasMask
				hasWave      = h1&chdrSamplesBit != 0
				hasExtras    = h1&chdrExtrasBit != 0
				hasEnergy    = h1&chdrEnergyBit != 0
				dualTrace    = h1&chdrDualTraceBit != 0
			)
			j += chdrSizeWords

			for j < pairEnd {
				if st := validateEventFit(msg, pairEnd-j, hasExtras, hasEnergy, boolInt(hasWave)*samplesField); st != event.StatusSuccess {
					return evs, counter, xerrors.Errorf("dig1: event in pair %d: %v", pair, st)
				}
				w, _ := r.wordSafe(j)
				ttag := uint64(w & evtTimeTagMask)
				odd := uint8(0)
				if w&evtOddBit != 0 {
					odd = 1
				}
				j++

				ev := event.New(samplesField * samplesPerGroup)
				ev.Module = module
				ev.Channel = uint8(2*pair) + odd
				ev.TimeResolution = uint8(step)
				ev.DigitalProbe1Type = dpType
				ev.AnalogProbe1Type = ap1Type
				if dualTrace {
					ev.AnalogProbe2Type = ap2Type
				}

				var (
					extTime uint64
					fine    uint32
					hasFine bool
				)
				if hasExtras {
					x, _ := r.wordSafe(j)
					j++
					extTime = uint64(x >> xtraExtShift)
					switch {
					case extOpt == xtraOptExtended:
						fine = x & xtraFineMask
						hasFine = true
						ev.Flags |= gen1Flags((x >> xtraFlagsShift) & xtraFlagsMask)
						if st := validateTimestamp(msg, fine); st != event.StatusSuccess {
							return evs, counter, xerrors.Errorf("dig1: event in pair %d: %v", pair, st)
						}
					case extOpt > xtraOptExtended:
						msg.Warnf("unknown extras option: %d", extOpt)
					}
				}

				if hasWave {
					nwords := samplesField * samplesPerWord
					if st := validateWaveform(msg, samplesField*samplesPerGroup, nwords, pairEnd-j); st != event.StatusSuccess {
						return evs, counter, xerrors.Errorf("dig1: waveform in pair %d: %v", pair, st)
					}
					decodeWaveform(r, j, nwords, dualTrace, ev)
					j += nwords
				}

				if hasEnergy {
					c, _ := r.wordSafe(j)
					j++
					ev.Energy = uint16(c & evtEnergyMask)
					if c&evtPileupBit != 0 {
						ev.Flags |= event.FlagPileup
					}
					ev.EnergyShort = uint16((c >> evtExtraShift) & evtExtraMask)
				}

				ts := float64((extTime<<31|ttag)*uint64(step))
				if hasFine {
					ts += float64(fine) * fineMult
				}
				ev.TimeStampNs = ts

				if debug {
					msg.Debugf("event: ch=%d ts=%f energy=%d", ev.Channel, ev.TimeStampNs, ev.Energy)
				}
				evs = append(evs, *ev)
			}
			j = pairEnd
		}
		i = boardEnd
	}
	return evs, counter, nil
}
