// Copyright 2025 The go-delila Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command dgtz-env serves the temperature and humidity of a digitizer
// crate over a small JSON protocol.
package main // import "github.com/go-delila/dgtz/cmd/dgtz-env"

import (
	"flag"
	"log"
	"time"

	"github.com/go-delila/dgtz/crate"
)

func main() {
	var (
		addr = flag.String("addr", ":8867", "[ip]:port to listen on")
		bus  = flag.Int("bus", 1, "I2C bus of the SHT3x sensor")
		sadr = flag.Int("sensor-addr", crate.SensorAddr, "I2C address of the SHT3x sensor")
		freq = flag.Duration("freq", 30*time.Second, "sampling interval")
	)

	log.SetPrefix("dgtz-env: ")
	log.SetFlags(0)

	flag.Parse()

	sens, err := crate.NewSensor(*bus, uint8(*sadr))
	if err != nil {
		log.Fatalf("could not open crate sensor: %+v", err)
	}
	defer sens.Close()

	srv, err := crate.NewServer(*addr, sens, *freq)
	if err != nil {
		log.Fatalf("could not create server: %+v", err)
	}
	defer srv.Close()

	log.Printf("serving crate environment on %q...", *addr)
	err = srv.Run()
	if err != nil {
		log.Fatalf("could not serve crate environment: %+v", err)
	}
}
