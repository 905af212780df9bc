// Copyright 2025 The go-delila Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package dgtz

import (
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-daq/tdaq/log"

	"github.com/go-delila/dgtz/event"
)

// Decoder turns raw buffers from one digitizer firmware into decoded
// events. Implementations must be safe for concurrent use by multiple
// workers.
type Decoder interface {
	// Classify tags a raw buffer without decoding it.
	Classify(raw []byte) event.Kind
	// Decode unpacks a raw event buffer. It returns the decoded
	// events, the buffer's aggregate counter and an error for
	// malformed buffers. Events decoded before the error are still
	// returned.
	Decode(raw []byte) ([]event.Data, uint32, error)

	SetTimeStep(ns uint32)
	SetModuleNumber(mod uint8)
	SetDebug(v bool)
}

// wireSwapper is implemented by second-generation decoders, whose wire
// format needs an in-place byte swap before classification. Such
// firmwares also emit the start and stop control frames that drive the
// running flag; first-generation ones have no control frames and the
// engine starts running.
type wireSwapper interface {
	Swap(raw []byte)
}

// Engine feeds raw buffers from a device driver through a Decoder on a
// pool of workers and hands out time-ordered batches of decoded
// events.
//
// Submit may be called concurrently with Drain and with the
// configuration setters. Buffers submitted while the engine is not
// running are discarded.
type Engine struct {
	dec      Decoder
	msg      log.MsgStream
	nworkers int
	running  atomic.Bool

	// aggregate counter continuity, single worker only. The counter
	// field is 16 bits wide for second-generation firmwares and 23
	// bits for first-generation ones; ctrMask holds the modulus - 1.
	last    uint32
	seen    bool
	ctrMask uint32

	inMu  sync.Mutex
	input [][]byte

	outMu  sync.Mutex
	output []event.Data

	quit chan struct{}
	wg   sync.WaitGroup
}

// NewEngine returns an engine decoding with dec on workers parallel
// workers. A worker count below one is raised to one.
func NewEngine(dec Decoder, workers int) *Engine {
	if workers < 1 {
		workers = 1
	}
	eng := &Engine{
		dec:      dec,
		msg:      log.NewMsgStream("dgtz.engine", log.LvlWarning, nil),
		nworkers: workers,
		quit:     make(chan struct{}),
		ctrMask:  0xFFFF,
	}
	if _, ok := dec.(wireSwapper); !ok {
		eng.running.Store(true)
		eng.ctrMask = 0x7FFFFF
	}
	eng.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go eng.work()
	}
	return eng
}

// Submit classifies raw and, for event payloads while the engine is
// running, enqueues it for decoding. Start and stop frames toggle the
// running flag synchronously. Gen-2 buffers are byte-swapped in place.
func (eng *Engine) Submit(raw []byte) event.Kind {
	if sw, ok := eng.dec.(wireSwapper); ok {
		sw.Swap(raw)
	}
	kind := eng.dec.Classify(raw)
	switch kind {
	case event.KindStart:
		eng.running.Store(true)
	case event.KindStop:
		eng.running.Store(false)
	case event.KindEvent:
		if !eng.running.Load() {
			break
		}
		eng.inMu.Lock()
		eng.input = append(eng.input, raw)
		eng.inMu.Unlock()
	default:
		eng.msg.Warnf("unknown raw buffer: %d bytes", len(raw))
	}
	return kind
}

// Drain removes and returns all decoded events accumulated so far.
// Each decoded buffer contributes a batch sorted by timestamp; with a
// single worker the batches keep the submission order of their buffers.
// Events from different buffers are not sorted against each other.
func (eng *Engine) Drain() []event.Data {
	eng.outMu.Lock()
	out := eng.output
	eng.output = nil
	eng.outMu.Unlock()
	return out
}

// Running reports whether event payloads are currently accepted.
func (eng *Engine) Running() bool {
	return eng.running.Load()
}

// SetTimeStep sets the decoder's sampling period in ns per sample.
func (eng *Engine) SetTimeStep(ns uint32) { eng.dec.SetTimeStep(ns) }

// SetModuleNumber sets the module id stamped on decoded events.
func (eng *Engine) SetModuleNumber(mod uint8) { eng.dec.SetModuleNumber(mod) }

// SetDebug toggles debug logging in the decoder.
func (eng *Engine) SetDebug(v bool) { eng.dec.SetDebug(v) }

// Close stops the workers and joins them. A worker exits only once the
// input queue is empty, so raw buffers queued before Close are still
// decoded; they are not dropped.
func (eng *Engine) Close() error {
	close(eng.quit)
	eng.wg.Wait()
	eng.inMu.Lock()
	eng.input = nil
	eng.inMu.Unlock()
	return nil
}

func (eng *Engine) work() {
	defer eng.wg.Done()
	for {
		eng.inMu.Lock()
		var raw []byte
		if len(eng.input) > 0 {
			raw = eng.input[0]
			eng.input = eng.input[1:]
		}
		eng.inMu.Unlock()

		if raw == nil {
			select {
			case <-eng.quit:
				return
			default:
				time.Sleep(1 * time.Millisecond)
				continue
			}
		}

		evs, counter, err := eng.dec.Decode(raw)
		if err != nil {
			eng.msg.Errorf("could not decode raw buffer: %+v", err)
		}
		if eng.nworkers == 1 {
			if eng.seen && counter != (eng.last+1)&eng.ctrMask {
				eng.msg.Warnf("aggregate counter discontinuity: %d after %d", counter, eng.last)
			}
			eng.last = counter
			eng.seen = true
		}
		if len(evs) == 0 {
			continue
		}
		sort.Slice(evs, func(i, j int) bool {
			return evs[i].TimeStampNs < evs[j].TimeStampNs
		})
		eng.outMu.Lock()
		eng.output = append(eng.output, evs...)
		eng.outMu.Unlock()
	}
}
