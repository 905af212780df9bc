// Copyright 2025 The go-delila Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package dig1

import (
	"sync"

	"github.com/go-daq/tdaq/log"

	"github.com/go-delila/dgtz/event"
)

// gen1 holds the configuration shared by the first-generation decoders.
// Setters may be called while workers decode; the configuration is
// snapshot once per buffer.
type gen1 struct {
	mu     sync.RWMutex
	msg    log.MsgStream
	name   string
	step   uint32 // sampling period in ns
	module uint8
	debug  bool
}

func newGen1(name string) gen1 {
	return gen1{
		msg:  log.NewMsgStream(name, log.LvlWarning, nil),
		name: name,
		step: 1,
	}
}

// SetTimeStep sets the sampling period in ns per sample.
func (dec *gen1) SetTimeStep(ns uint32) {
	dec.mu.Lock()
	dec.step = ns
	dec.mu.Unlock()
}

// SetModuleNumber sets the module id stamped on every decoded event.
func (dec *gen1) SetModuleNumber(mod uint8) {
	dec.mu.Lock()
	dec.module = mod
	dec.mu.Unlock()
}

// SetDebug toggles debug logging and hex dumps.
func (dec *gen1) SetDebug(v bool) {
	dec.mu.Lock()
	dec.debug = v
	lvl := log.LvlWarning
	if v {
		lvl = log.LvlDebug
	}
	dec.msg = log.NewMsgStream(dec.name, lvl, nil)
	dec.mu.Unlock()
}

func (dec *gen1) snapshot() (msg log.MsgStream, step uint32, module uint8, debug bool) {
	dec.mu.RLock()
	defer dec.mu.RUnlock()
	return dec.msg, dec.step, dec.module, dec.debug
}

// classify1 tags a first-generation raw buffer. Gen-1 firmwares emit no
// start/stop control frames: anything that looks like a board aggregate
// is an event payload.
func classify1(raw []byte) event.Kind {
	if len(raw)%wordSize != 0 {
		return event.KindUnknown
	}
	n := len(raw) / wordSize
	if n < bhdrSizeWords {
		return event.KindUnknown
	}
	r := newReader(raw)
	w0, _ := r.wordSafe(0)
	if (w0>>bhdrTypeShift)&bhdrTypeMask == bhdrTypeData {
		return event.KindEvent
	}
	if n >= 16 {
		return event.KindEvent
	}
	return event.KindUnknown
}

// decodeWaveform unpacks nwords waveform words (two 16-bit samples per
// word) into the event traces, de-interleaving analog probes 1 and 2
// when dual-trace mode is on.
func decodeWaveform(r wreader, i int, nwords int, dualTrace bool, ev *event.Data) {
	var (
		idx  int
		prev int32
	)
	for w := 0; w < nwords; w++ {
		word, ok := r.wordSafe(i + w)
		if !ok {
			return
		}
		for half := 0; half < samplesPerWord; half++ {
			smp := word >> (16 * half)
			analog := int32(smp & smpAnalogMask)
			switch {
			case !dualTrace:
				ev.AnalogProbe1[idx] = analog
			case idx%2 == 0:
				ev.AnalogProbe1[idx] = analog
				if idx > 0 {
					ev.AnalogProbe2[idx] = prev
				}
			default:
				ev.AnalogProbe2[idx] = analog
				ev.AnalogProbe1[idx] = prev
			}
			prev = analog
			if smp&smpDigital1Bit != 0 {
				ev.DigitalProbe1[idx] = 1
			}
			if smp&smpDigital2Bit != 0 {
				ev.DigitalProbe2[idx] = 1
			}
			idx++
		}
	}
}
