// Copyright 2025 The go-delila Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package dig2

import (
	"sync"

	"github.com/go-daq/tdaq/log"
)

// gen2 holds the configuration shared by the second-generation
// decoders. Setters may be called while workers decode; the
// configuration is snapshot once per buffer.
type gen2 struct {
	mu     sync.RWMutex
	msg    log.MsgStream
	name   string
	step   uint32 // sampling period in ns
	module uint8
	debug  bool
}

func newGen2(name string) gen2 {
	return gen2{
		msg:  log.NewMsgStream(name, log.LvlWarning, nil),
		name: name,
		step: 1,
	}
}

// SetTimeStep sets the sampling period in ns per sample.
func (dec *gen2) SetTimeStep(ns uint32) {
	dec.mu.Lock()
	dec.step = ns
	dec.mu.Unlock()
}

// SetModuleNumber sets the module id stamped on every decoded event.
func (dec *gen2) SetModuleNumber(mod uint8) {
	dec.mu.Lock()
	dec.module = mod
	dec.mu.Unlock()
}

// SetDebug toggles debug logging.
func (dec *gen2) SetDebug(v bool) {
	dec.mu.Lock()
	dec.debug = v
	lvl := log.LvlWarning
	if v {
		lvl = log.LvlDebug
	}
	dec.msg = log.NewMsgStream(dec.name, lvl, nil)
	dec.mu.Unlock()
}

func (dec *gen2) snapshot() (msg log.MsgStream, step uint32, module uint8, debug bool) {
	dec.mu.RLock()
	defer dec.mu.RUnlock()
	return dec.msg, dec.step, dec.module, dec.debug
}
