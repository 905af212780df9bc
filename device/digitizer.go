// Copyright 2025 The go-delila Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package device

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/go-daq/tdaq/log"
	"golang.org/x/xerrors"

	"github.com/go-delila/dgtz"
	"github.com/go-delila/dgtz/config"
	"github.com/go-delila/dgtz/event"
)

// Digitizer drives one board through its acquisition lifecycle: Open,
// Configure, Start, Run, Stop, Close. Decoded events are fetched with
// Drain.
type Digitizer struct {
	msg log.MsgStream
	drv Driver
	ps  *config.Params
	url string

	eng *dgtz.Engine
	typ dgtz.Type
}

// New wraps drv with the acquisition lifecycle described by ps. The
// parameter set must hold a URL; Type, Debug, Threads and ModID are
// read as well, and keys beginning with '/' are written by Configure.
func New(drv Driver, ps *config.Params) (*Digitizer, error) {
	url, ok := ps.Get("URL")
	if !ok || url == "" {
		return nil, xerrors.Errorf("device: missing URL parameter")
	}
	lvl := log.LvlWarning
	if ps.GetBool("Debug", false) {
		lvl = log.LvlDebug
	}
	dig := &Digitizer{
		msg: log.NewMsgStream("dgtz.device", lvl, nil),
		drv: drv,
		ps:  ps,
		url: url,
	}
	if v, ok := ps.Get("Type"); ok {
		typ, err := dgtz.ParseType(v)
		if err != nil {
			return nil, xerrors.Errorf("device: could not resolve firmware type: %w", err)
		}
		dig.typ = typ
	}
	return dig, nil
}

// Open connects to the board, fetches its device tree when the
// firmware flavour is still unresolved and builds the decoding engine.
func (dig *Digitizer) Open() error {
	if err := dig.drv.Open(dig.url); err != nil {
		return xerrors.Errorf("device: could not open %q: %w", dig.url, err)
	}

	if dig.typ == dgtz.TypeUnknown {
		switch {
		case strings.HasPrefix(dig.url, "dig1://"):
			dig.typ = dgtz.TypePSD1
		case strings.HasPrefix(dig.url, "dig2://"):
			dig.typ = dgtz.TypePSD2
		default:
			raw, err := dig.drv.DeviceTree()
			if err != nil {
				return xerrors.Errorf("device: could not fetch device tree: %w", err)
			}
			tree, err := ParseTree(raw)
			if err != nil {
				return err
			}
			dig.typ = dgtz.TypeFromFirmware(tree.FWType(), tree.ModelName())
			if dig.typ == dgtz.TypeUnknown {
				dig.msg.Warnf("could not infer firmware type of %q (fw=%q model=%q), defaulting to %v",
					dig.url, tree.FWType(), tree.ModelName(), dgtz.TypePSD2,
				)
				dig.typ = dgtz.TypePSD2
			}
			dig.msg.Infof("board %s: fw=%q model=%q serial=%q", dig.url, tree.FWType(), tree.ModelName(), tree.SerialNum())
		}
	}

	dig.eng = dgtz.NewWithType(dig.typ, dig.ps.GetInt("Threads", 1))
	dig.eng.SetModuleNumber(uint8(dig.ps.GetInt("ModID", 0)))
	if dig.ps.GetBool("Debug", false) {
		dig.eng.SetDebug(true)
	}
	return nil
}

// Configure resets the board, applies the device parameters in file
// order, derives the sampling period from the ADC sample rate and arms
// the acquisition.
func (dig *Digitizer) Configure() error {
	if err := dig.drv.SendCommand(CmdReset); err != nil {
		return xerrors.Errorf("device: could not reset board: %w", err)
	}
	for _, p := range dig.ps.Digitizer() {
		if err := dig.drv.SetParameter(p.Key, p.Value); err != nil {
			return xerrors.Errorf("device: could not set %q to %q: %w", p.Key, p.Value, err)
		}
		dig.msg.Debugf("set %s = %s", p.Key, p.Value)
	}

	if v, err := dig.drv.GetParameter(ParSamplRate); err == nil {
		mhz, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err == nil && mhz > 0 {
			step := uint32(1000 / mhz)
			dig.eng.SetTimeStep(step)
			dig.msg.Infof("ADC sample rate %g MHz, time step %d ns", mhz, step)
		}
	}
	if v, err := dig.drv.GetParameter(ParMaxRawSize); err == nil {
		dig.msg.Infof("max raw data size: %s bytes", strings.TrimSpace(v))
	}

	if err := dig.drv.SendCommand(CmdArm); err != nil {
		return xerrors.Errorf("device: could not arm acquisition: %w", err)
	}
	return nil
}

// Start begins the acquisition. First-generation boards configured for
// software start get a 500 ms settling delay before Start returns.
func (dig *Digitizer) Start() error {
	if err := dig.drv.SendCommand(CmdSwStart); err != nil {
		return xerrors.Errorf("device: could not start acquisition: %w", err)
	}
	if dig.typ.Gen() == 1 {
		if v, err := dig.drv.GetParameter(ParStartMode); err == nil && strings.TrimSpace(v) == StartModeSW {
			time.Sleep(500 * time.Millisecond)
		}
	}
	return nil
}

// Stop ends the acquisition and disarms the board.
func (dig *Digitizer) Stop() error {
	if err := dig.drv.SendCommand(CmdSwStop); err != nil {
		return xerrors.Errorf("device: could not stop acquisition: %w", err)
	}
	if err := dig.drv.SendCommand(CmdDisarm); err != nil {
		return xerrors.Errorf("device: could not disarm acquisition: %w", err)
	}
	return nil
}

// Trigger sends one software trigger.
func (dig *Digitizer) Trigger() error {
	if err := dig.drv.SendCommand(CmdSwTrigger); err != nil {
		return xerrors.Errorf("device: could not send software trigger: %w", err)
	}
	return nil
}

// Run polls the driver for raw buffers and submits them to the engine
// until ctx is cancelled.
func (dig *Digitizer) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}
		ok, err := dig.drv.HasData(10 * time.Millisecond)
		if err != nil {
			dig.msg.Errorf("could not poll board: %+v", err)
			time.Sleep(1 * time.Millisecond)
			continue
		}
		if !ok {
			time.Sleep(1 * time.Millisecond)
			continue
		}
		raw, nevts, err := dig.drv.ReadData(10 * time.Millisecond)
		if err != nil {
			dig.msg.Errorf("could not read data: %+v", err)
			continue
		}
		kind := dig.eng.Submit(raw)
		dig.msg.Debugf("read %d bytes (%d events): %v", len(raw), nevts, kind)
	}
}

// Drain removes and returns all decoded events accumulated so far.
func (dig *Digitizer) Drain() []event.Data {
	return dig.eng.Drain()
}

// Engine returns the decoding engine, nil before Open.
func (dig *Digitizer) Engine() *dgtz.Engine { return dig.eng }

// Type returns the resolved firmware flavour.
func (dig *Digitizer) Type() dgtz.Type { return dig.typ }

// Close stops the decoding workers and disconnects from the board.
func (dig *Digitizer) Close() error {
	if dig.eng != nil {
		if err := dig.eng.Close(); err != nil {
			return err
		}
	}
	if err := dig.drv.Close(); err != nil {
		return xerrors.Errorf("device: could not close driver: %w", err)
	}
	return nil
}
