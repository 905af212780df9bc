// Copyright 2025 The go-delila Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command dgtz-shell provides an interactive shell to operate a
// digitizer crate.
//
// It talks to the dgtz-ctl and dgtz-env servers and can histogram the
// energy spectrum of a decoded run file.
package main // import "github.com/go-delila/dgtz/cmd/dgtz-shell"

import (
	"bufio"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net"
	"os"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"
	"go-hep.org/x/hep/hbook"

	"github.com/go-delila/dgtz/crate"
	"github.com/go-delila/dgtz/event"
)

func main() {
	var (
		ctlAddr = flag.String("ctl-addr", ":8866", "address of the dgtz-ctl server")
		envAddr = flag.String("env-addr", ":8867", "address of the dgtz-env server")
	)

	log.SetPrefix("dgtz-shell: ")
	log.SetFlags(0)

	flag.Parse()

	sh := &shell{
		ctl:  *ctlAddr,
		env:  *envAddr,
		hist: filepath.Join(os.TempDir(), ".dgtz_history"),
	}
	err := sh.run()
	if err != nil {
		log.Fatalf("%+v", err)
	}
}

type shell struct {
	ctl  string
	env  string
	hist string
}

func (sh *shell) run() error {
	term := liner.NewLiner()
	defer term.Close()

	term.SetCtrlCAborts(true)
	if f, err := os.Open(sh.hist); err == nil {
		_, _ = term.ReadHistory(f)
		f.Close()
	}
	defer func() {
		f, err := os.Create(sh.hist)
		if err != nil {
			log.Printf("could not create history file: %+v", err)
			return
		}
		defer f.Close()
		_, _ = term.WriteHistory(f)
	}()

	for {
		line, err := term.Prompt("dgtz> ")
		if err != nil {
			if err == io.EOF || err == liner.ErrPromptAborted {
				fmt.Println()
				return nil
			}
			return fmt.Errorf("could not read line: %w", err)
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		term.AppendHistory(line)

		args := strings.Fields(line)
		switch args[0] {
		case "help":
			fmt.Print(`commands:
 env                 display the crate temperature and humidity
 start RUN [ARGS...] start an acquisition through dgtz-ctl
 stop                stop the current acquisition
 hist FILE           histogram the energy spectrum of a decoded run file
 quit                exit the shell
`)
		case "env":
			err = sh.doEnv(os.Stdout)
		case "start":
			if len(args) < 2 {
				err = fmt.Errorf("missing run number")
				break
			}
			err = sh.doCtl(os.Stdout, "start", append([]string{"-run=" + args[1]}, args[2:]...))
		case "stop":
			err = sh.doCtl(os.Stdout, "stop", nil)
		case "hist":
			if len(args) < 2 {
				err = fmt.Errorf("missing path to decoded run file")
				break
			}
			err = sh.doHist(os.Stdout, args[1])
		case "quit", "exit":
			return nil
		default:
			err = fmt.Errorf("unknown command %q", args[0])
		}
		if err != nil {
			log.Printf("%+v", err)
		}
	}
}

func (sh *shell) doEnv(w io.Writer) error {
	conn, err := net.Dial("tcp", sh.env)
	if err != nil {
		return fmt.Errorf("could not dial dgtz-env server %q: %w", sh.env, err)
	}
	defer conn.Close()

	err = json.NewEncoder(conn).Encode(crate.Request{Name: "env"})
	if err != nil {
		return fmt.Errorf("could not send env command: %w", err)
	}

	var rep crate.Reply
	err = json.NewDecoder(conn).Decode(&rep)
	if err != nil {
		return fmt.Errorf("could not decode env reply: %w", err)
	}
	if rep.Err != "" {
		return fmt.Errorf("could not read crate environment: %s", rep.Err)
	}
	fmt.Fprintf(w, "time: %v\ntemp: %.2f C\nhumi: %.1f %%\n",
		rep.Env.Time.Format("2006-01-02 15:04:05"), rep.Env.Temp, rep.Env.Humidity,
	)
	return nil
}

func (sh *shell) doCtl(w io.Writer, name string, args []string) error {
	conn, err := net.Dial("tcp", sh.ctl)
	if err != nil {
		return fmt.Errorf("could not dial dgtz-ctl server %q: %w", sh.ctl, err)
	}
	defer conn.Close()

	err = json.NewEncoder(conn).Encode(ctlRequest{Name: name, Args: args})
	if err != nil {
		return fmt.Errorf("could not send %q command: %w", name, err)
	}

	var rep ctlReply
	err = json.NewDecoder(conn).Decode(&rep)
	if err != nil {
		return fmt.Errorf("could not decode %q reply: %w", name, err)
	}
	if rep.Err != "" {
		return fmt.Errorf("command %q failed: %s", name, rep.Err)
	}
	fmt.Fprintf(w, "%s\n", rep.Msg)
	return nil
}

type ctlRequest struct {
	Name string   `json:"cmd"`
	Args []string `json:"args"`
}

type ctlReply struct {
	Msg string `json:"msg"`
	Err string `json:"err,omitempty"`
}

func (sh *shell) doHist(w io.Writer, fname string) error {
	f, err := os.Open(fname)
	if err != nil {
		return fmt.Errorf("could not open %q: %w", fname, err)
	}
	defer f.Close()

	h := hbook.NewH1D(128, 0, 32768)
	dec := json.NewDecoder(bufio.NewReader(f))
	for {
		var ev event.Data
		err := dec.Decode(&ev)
		if err != nil {
			if err == io.EOF {
				break
			}
			return fmt.Errorf("could not decode event: %w", err)
		}
		h.Fill(float64(ev.Energy), 1)
	}

	fmt.Fprintf(w, "entries: %d\nmean:    %.2f\nrms:     %.2f\n",
		h.Entries(), h.XMean(), h.XRMS(),
	)
	return nil
}
