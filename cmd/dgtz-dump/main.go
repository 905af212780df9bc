// Copyright 2025 The go-delila Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// dgtz-dump decodes and displays digitizer raw data files.
//
// Usage: dgtz-dump [OPTIONS] FILE1 [FILE2 [FILE3 ...]]
//
// Example:
//
//	$> dgtz-dump -type=psd2 -step=8 ./run42.raw
//	=== buffer kind=event size=262144 bytes ===
//	counter:     42
//	events:     128
//	  evt[  0]: mod=00 ch=03 t=  123456.000ns e= 1234 es=  56 flags=0x000 wf=512
//	  evt[  1]: mod=00 ch=05 t=  123512.250ns e=  842 es=  31 flags=0x001 wf=512
//	[...]
package main // import "github.com/go-delila/dgtz/cmd/dgtz-dump"

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/go-delila/dgtz"
	"github.com/go-delila/dgtz/internal/mmap"
)

func main() {
	log.SetPrefix("dgtz-dump: ")
	log.SetFlags(0)

	var (
		ftyp = flag.String("type", "psd2", "firmware flavour of the input files (psd1, pha1, psd2, ...)")
		step = flag.Int("step", 2, "sampling period in ns per time-stamp tick")
		mod  = flag.Int("mod", 0, "module number to stamp on decoded events")
	)

	flag.Usage = func() {
		fmt.Printf(`dgtz-dump decodes and displays digitizer raw data files.

Usage: dgtz-dump [OPTIONS] FILE1 [FILE2 [FILE3 ...]]

Example:

 $> dgtz-dump -type=psd2 -step=8 ./run42.raw
 === buffer kind=event size=262144 bytes ===
 counter:     42
 events:     128
   evt[  0]: mod=00 ch=03 t=  123456.000ns e= 1234 es=  56 flags=0x000 wf=512
   evt[  1]: mod=00 ch=05 t=  123512.250ns e=  842 es=  31 flags=0x001 wf=512
 [...]

`)
		flag.PrintDefaults()
	}

	flag.Parse()

	if flag.NArg() == 0 {
		flag.Usage()
		log.Fatalf("missing path to input raw data file")
	}

	typ, err := dgtz.ParseType(*ftyp)
	if err != nil {
		log.Fatalf("could not parse firmware type %q: %+v", *ftyp, err)
	}

	for _, fname := range flag.Args() {
		err := process(os.Stdout, fname, typ, uint32(*step), uint8(*mod))
		if err != nil {
			log.Fatalf("could not dump file %q: %+v", fname, err)
		}
	}
}

func process(w io.Writer, fname string, typ dgtz.Type, step uint32, mod uint8) error {
	wbuf := bufio.NewWriter(w)
	defer wbuf.Flush()

	f, err := mmap.Open(fname)
	if err != nil {
		return fmt.Errorf("could not mmap %q: %w", fname, err)
	}
	defer f.Close()

	raw := make([]byte, f.Len())
	_, err = f.ReadAt(raw, 0)
	if err != nil && err != io.EOF {
		return fmt.Errorf("could not read %q: %w", fname, err)
	}

	dec := dgtz.NewDecoder(typ)
	dec.SetTimeStep(step)
	dec.SetModuleNumber(mod)

	if sw, ok := dec.(interface{ Swap([]byte) }); ok {
		sw.Swap(raw)
	}

	kind := dec.Classify(raw)
	fmt.Fprintf(wbuf, "=== buffer kind=%v size=%d bytes ===\n", kind, len(raw))

	evs, counter, err := dec.Decode(raw)
	fmt.Fprintf(wbuf, "counter: % 6d\n", counter)
	fmt.Fprintf(wbuf, "events:  % 6d\n", len(evs))
	for i, ev := range evs {
		fmt.Fprintf(wbuf, "  evt[%3d]: mod=%02d ch=%02d t=%12.3fns e=%5d es=%4d flags=0x%03x wf=%d\n",
			i, ev.Module, ev.Channel, ev.TimeStampNs,
			ev.Energy, ev.EnergyShort, ev.Flags, ev.WaveformSize,
		)
	}
	if err != nil {
		return fmt.Errorf("could not decode buffer: %w", err)
	}

	return nil
}
