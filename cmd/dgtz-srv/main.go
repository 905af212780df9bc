// Copyright 2025 The go-delila Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command dgtz-srv exposes one digitizer board as a TDAQ task.
//
// The trailing argument is the path to the parameter file that /config
// loads; the board itself is dialed during /init.
package main // import "github.com/go-delila/dgtz/cmd/dgtz-srv"

import (
	"context"
	"log"
	"os"

	"github.com/go-daq/tdaq"
	"github.com/go-daq/tdaq/flags"

	"github.com/go-delila/dgtz/caen"
	"github.com/go-delila/dgtz/daq"
	"github.com/go-delila/dgtz/device"
)

func main() {
	cmd := flags.New()

	log.SetPrefix("dgtz-srv: ")
	log.SetFlags(0)

	if len(cmd.Args) == 0 {
		log.Fatalf("missing path to parameter file")
	}

	dev := daq.NewServer(cmd.Args[0], func() device.Driver { return caen.New() })

	srv := tdaq.New(cmd, os.Stdout)
	srv.CmdHandle("/config", dev.OnConfig)
	srv.CmdHandle("/init", dev.OnInit)
	srv.CmdHandle("/reset", dev.OnReset)
	srv.CmdHandle("/start", dev.OnStart)
	srv.CmdHandle("/stop", dev.OnStop)
	srv.CmdHandle("/quit", dev.OnQuit)

	srv.OutputHandle("/events", dev.Events)

	srv.RunHandle(dev.Run)

	err := srv.Run(context.Background())
	if err != nil {
		log.Panicf("error: %+v", err)
	}
}
