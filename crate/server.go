// Copyright 2025 The go-delila Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package crate

import (
	"encoding/json"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/go-daq/tdaq/log"
)

// Request is one command sent to the crate server.
type Request struct {
	Name string `json:"cmd"`
}

// Reply is the crate server answer to a Request.
type Reply struct {
	Msg string `json:"msg,omitempty"`
	Env *Env   `json:"env,omitempty"`
	Err string `json:"err,omitempty"`
}

// Server periodically samples the crate sensor and serves the latest
// reading over TCP, one JSON Request/Reply pair per message.
type Server struct {
	msg  log.MsgStream
	conn net.Listener
	sens *Sensor
	freq time.Duration

	mu   sync.RWMutex
	last Env
	err  error
}

// NewServer listens on addr and samples sens every freq.
func NewServer(addr string, sens *Sensor, freq time.Duration) (*Server, error) {
	conn, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("crate: could not listen on %q: %w", addr, err)
	}
	return &Server{
		msg:  log.NewMsgStream("dgtz.crate", log.LvlWarning, nil),
		conn: conn,
		sens: sens,
		freq: freq,
	}, nil
}

// Run samples the sensor and accepts clients until the listener is
// closed.
func (srv *Server) Run() error {
	go srv.sample()

	for {
		conn, err := srv.conn.Accept()
		if err != nil {
			return fmt.Errorf("crate: could not accept connection: %w", err)
		}
		go srv.handle(conn)
	}
}

func (srv *Server) Close() error {
	return srv.conn.Close()
}

func (srv *Server) sample() {
	tick := time.NewTicker(srv.freq)
	defer tick.Stop()

	for range tick.C {
		env, err := srv.sens.Read()
		srv.mu.Lock()
		srv.err = err
		if err == nil {
			srv.last = env
		}
		srv.mu.Unlock()
		if err != nil {
			srv.msg.Warnf("could not read crate sensor: %+v", err)
			continue
		}
		srv.msg.Debugf("crate: T=%.2fC RH=%.1f%%", env.Temp, env.Humidity)
	}
}

func (srv *Server) handle(conn net.Conn) {
	defer conn.Close()

	for {
		var (
			req Request
			err = json.NewDecoder(conn).Decode(&req)
		)
		if err != nil {
			srv.msg.Debugf("could not decode command: %+v", err)
			return
		}
		switch req.Name {
		case "env":
			srv.mu.RLock()
			env, rerr := srv.last, srv.err
			srv.mu.RUnlock()
			if rerr != nil {
				_ = json.NewEncoder(conn).Encode(Reply{Err: rerr.Error()})
				continue
			}
			_ = json.NewEncoder(conn).Encode(Reply{Env: &env})

		case "status":
			_ = json.NewEncoder(conn).Encode(Reply{Msg: "ok"})

		default:
			srv.msg.Warnf("unknown command %q", req.Name)
			_ = json.NewEncoder(conn).Encode(Reply{Err: "unknown command"})
		}
	}
}
