// Copyright 2025 The go-delila Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package daq exposes a digitizer board as a TDAQ task: run-control
// commands drive the acquisition lifecycle, decoded events are
// published on an output end-point.
package daq // import "github.com/go-delila/dgtz/daq"

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-daq/tdaq"
	"golang.org/x/xerrors"

	"github.com/go-delila/dgtz/config"
	"github.com/go-delila/dgtz/device"
	"github.com/go-delila/dgtz/event"
)

// Server adapts one digitizer board to the TDAQ run-control protocol.
type Server struct {
	cfg    string // path to the parameter file
	driver func() device.Driver

	ps   *config.Params
	dig  *device.Digitizer
	stop context.CancelFunc

	nevts uint64
	data  chan []byte
}

// NewServer returns a run-control server reading its parameters from
// the file at cfg and connecting boards through driver.
func NewServer(cfg string, driver func() device.Driver) *Server {
	return &Server{
		cfg:    cfg,
		driver: driver,
	}
}

// OnConfig loads the parameter file.
func (srv *Server) OnConfig(ctx tdaq.Context, resp *tdaq.Frame, req tdaq.Frame) error {
	ctx.Msg.Debugf("received /config command...")
	ps, err := config.Load(srv.cfg)
	if err != nil {
		ctx.Msg.Errorf("could not load config %q: %+v", srv.cfg, err)
		return xerrors.Errorf("could not load config %q: %w", srv.cfg, err)
	}
	srv.ps = ps
	return nil
}

// OnInit opens the board and applies the configuration.
func (srv *Server) OnInit(ctx tdaq.Context, resp *tdaq.Frame, req tdaq.Frame) error {
	ctx.Msg.Debugf("received /init command...")
	if srv.ps == nil {
		return xerrors.Errorf("no configuration loaded")
	}
	if srv.dig != nil {
		ctx.Msg.Errorf("board already initialized")
		return xerrors.Errorf("board already initialized")
	}

	dig, err := device.New(srv.driver(), srv.ps)
	if err != nil {
		ctx.Msg.Errorf("could not create digitizer: %+v", err)
		return xerrors.Errorf("could not create digitizer: %w", err)
	}
	if err := dig.Open(); err != nil {
		ctx.Msg.Errorf("could not open digitizer: %+v", err)
		return xerrors.Errorf("could not open digitizer: %w", err)
	}
	if err := dig.Configure(); err != nil {
		ctx.Msg.Errorf("could not configure digitizer: %+v", err)
		return xerrors.Errorf("could not configure digitizer: %w", err)
	}

	srv.dig = dig
	srv.data = make(chan []byte, 1024)
	srv.nevts = 0
	ctx.Msg.Infof("board initialized, firmware %v", dig.Type())
	return nil
}

// OnReset tears the board down; a new /init rebuilds it.
func (srv *Server) OnReset(ctx tdaq.Context, resp *tdaq.Frame, req tdaq.Frame) error {
	ctx.Msg.Debugf("received /reset command...")
	if srv.stop != nil {
		srv.stop()
		srv.stop = nil
	}
	if srv.dig != nil {
		if err := srv.dig.Close(); err != nil {
			ctx.Msg.Errorf("could not close digitizer: %+v", err)
			return xerrors.Errorf("could not close digitizer: %w", err)
		}
		srv.dig = nil
	}
	return nil
}

// OnStart starts the acquisition and the readout loop.
func (srv *Server) OnStart(ctx tdaq.Context, resp *tdaq.Frame, req tdaq.Frame) error {
	ctx.Msg.Debugf("received /start command...")
	if srv.dig == nil {
		return xerrors.Errorf("board not initialized")
	}

	runCtx, cancel := context.WithCancel(context.Background())
	srv.stop = cancel
	go func() {
		if err := srv.dig.Run(runCtx); err != nil {
			ctx.Msg.Errorf("readout loop failed: %+v", err)
		}
	}()

	if err := srv.dig.Start(); err != nil {
		cancel()
		srv.stop = nil
		ctx.Msg.Errorf("could not start acquisition: %+v", err)
		return xerrors.Errorf("could not start acquisition: %w", err)
	}
	return nil
}

// OnStop stops the acquisition and flushes the pending events.
func (srv *Server) OnStop(ctx tdaq.Context, resp *tdaq.Frame, req tdaq.Frame) error {
	ctx.Msg.Debugf("received /stop command... -> n=%d", srv.nevts)
	if srv.dig == nil {
		return xerrors.Errorf("board not initialized")
	}
	if srv.stop != nil {
		srv.stop()
		srv.stop = nil
	}
	if err := srv.dig.Stop(); err != nil {
		ctx.Msg.Errorf("could not stop acquisition: %+v", err)
		return xerrors.Errorf("could not stop acquisition: %w", err)
	}
	srv.publish(ctx, srv.dig.Drain())
	return nil
}

// OnQuit releases the board.
func (srv *Server) OnQuit(ctx tdaq.Context, resp *tdaq.Frame, req tdaq.Frame) error {
	ctx.Msg.Debugf("received /quit command...")
	if srv.stop != nil {
		srv.stop()
		srv.stop = nil
	}
	if srv.dig != nil {
		if err := srv.dig.Close(); err != nil {
			return xerrors.Errorf("could not close digitizer: %w", err)
		}
		srv.dig = nil
	}
	return nil
}

// Events is the output handler for the /events end-point. Each frame
// body is one JSON-encoded batch of decoded events.
func (srv *Server) Events(ctx tdaq.Context, dst *tdaq.Frame) error {
	select {
	case <-ctx.Ctx.Done():
		dst.Body = nil
		return nil
	case data := <-srv.data:
		dst.Body = data
	}
	return nil
}

// Run drains the engine periodically and publishes the batches.
func (srv *Server) Run(ctx tdaq.Context) error {
	for {
		select {
		case <-ctx.Ctx.Done():
			return nil
		default:
			if srv.dig == nil || srv.dig.Engine() == nil {
				time.Sleep(100 * time.Millisecond)
				continue
			}
			srv.publish(ctx, srv.dig.Drain())
		}
		time.Sleep(100 * time.Millisecond)
	}
}

func (srv *Server) publish(ctx tdaq.Context, evs []event.Data) {
	if len(evs) == 0 {
		return
	}
	srv.nevts += uint64(len(evs))
	body, err := json.Marshal(evs)
	if err != nil {
		ctx.Msg.Errorf("could not encode event batch: %+v", err)
		return
	}
	select {
	case srv.data <- body:
	default:
		ctx.Msg.Warnf("event output saturated, dropping batch of %d events", len(evs))
	}
	ctx.Msg.Debugf("published %d events (total %d)", len(evs), srv.nevts)
}
