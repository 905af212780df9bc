// Copyright 2025 The go-delila Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command dgtz-daq drives one digitizer board in stand-alone mode.
//
// The board is configured from the parameter file, started, and read
// out until the timeout expires or an interrupt is received. Decoded
// events are appended to a JSON-lines file in the output directory.
package main // import "github.com/go-delila/dgtz/cmd/dgtz-daq"

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/go-delila/dgtz/caen"
	"github.com/go-delila/dgtz/config"
	"github.com/go-delila/dgtz/device"
	"github.com/go-delila/dgtz/event"
)

func main() {
	var (
		runnbr  = flag.Int("run", -1, "run number")
		cfg     = flag.String("cfg", "", "path to the parameter file")
		odir    = flag.String("o", "/home/daq/runs", "output directory")
		timeout = flag.Duration("timeout", 0, "acquisition duration (0: until interrupt)")
	)

	log.SetPrefix("dgtz-daq: ")
	log.SetFlags(0)

	flag.Parse()

	log.Printf("run=%d cfg=%q timeout=%v", *runnbr, *cfg, *timeout)

	switch {
	case *runnbr < 0:
		log.Fatalf("invalid run number value")
	case *cfg == "":
		log.Fatalf("missing path to parameter file")
	}

	err := run(uint32(*runnbr), *cfg, *odir, *timeout)
	if err != nil {
		log.Fatalf("could not run dgtz-daq: %+v", err)
	}
}

func run(runnbr uint32, cfg, odir string, timeout time.Duration) error {
	ps, err := config.Load(cfg)
	if err != nil {
		return fmt.Errorf("could not load parameter file %q: %w", cfg, err)
	}

	dig, err := device.New(caen.New(), ps)
	if err != nil {
		return fmt.Errorf("could not create digitizer: %w", err)
	}
	defer dig.Close()

	err = dig.Open()
	if err != nil {
		return fmt.Errorf("could not open digitizer: %w", err)
	}

	err = dig.Configure()
	if err != nil {
		return fmt.Errorf("could not configure digitizer: %w", err)
	}

	fname := filepath.Join(odir, fmt.Sprintf("dgtz_%06d.json", runnbr))
	out, err := os.Create(fname)
	if err != nil {
		return fmt.Errorf("could not create output file %q: %w", fname, err)
	}
	defer out.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()
	if timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	var (
		grp, runCtx = errgroup.WithContext(ctx)
		enc         = json.NewEncoder(out)
		nevts       uint64
	)

	grp.Go(func() error {
		return dig.Run(runCtx)
	})
	grp.Go(func() error {
		tick := time.NewTicker(100 * time.Millisecond)
		defer tick.Stop()
		for {
			select {
			case <-runCtx.Done():
				return nil
			case <-tick.C:
				n, err := record(enc, dig.Drain())
				if err != nil {
					return err
				}
				nevts += n
			}
		}
	})

	err = dig.Start()
	if err != nil {
		cancel()
		_ = grp.Wait()
		return fmt.Errorf("could not start acquisition: %w", err)
	}
	log.Printf("acquisition started, firmware %v", dig.Type())

	<-ctx.Done()

	err = dig.Stop()
	if err != nil {
		_ = grp.Wait()
		return fmt.Errorf("could not stop acquisition: %w", err)
	}

	err = grp.Wait()
	if err != nil {
		return fmt.Errorf("readout failed: %w", err)
	}

	n, err := record(enc, dig.Drain())
	if err != nil {
		return err
	}
	nevts += n

	log.Printf("run %06d: wrote %d events to %q", runnbr, nevts, fname)
	return nil
}

func record(enc *json.Encoder, evs []event.Data) (uint64, error) {
	for i := range evs {
		err := enc.Encode(evs[i])
		if err != nil {
			return uint64(i), fmt.Errorf("could not encode event: %w", err)
		}
	}
	return uint64(len(evs)), nil
}
