// Copyright 2025 The go-delila Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command dgtz-ctl supervises a stand-alone acquisition process.
//
// It starts and stops dgtz-daq on behalf of a remote run control,
// watches the run files it produces and raises mail or SMS alerts when
// a file stops growing.
package main // import "github.com/go-delila/dgtz/cmd/dgtz-ctl"

import (
	"bytes"
	"crypto/tls"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	mail "gopkg.in/gomail.v2"
)

func main() {
	var (
		name = flag.String("cmd", "dgtz-daq", "command to run")
		addr = flag.String("addr", ":8866", "[ip]:port to listen on")
		dir  = flag.String("dir", "", "directory to monitor")
		freq = flag.Duration("freq", 30*time.Second, "probing interval")
	)

	flag.Parse()

	log.SetPrefix("dgtz-ctl: ")
	log.SetFlags(0)

	srv, err := newServer(*name, *addr, *dir, *freq)
	if err != nil {
		log.Fatalf("could not create server: %+v", err)
	}
	log.Printf("running dgtz-ctl server on %q...", *addr)
	srv.serve()
}

// Request is one command sent by the remote run control.
type Request struct {
	Name string   `json:"cmd"`
	Args []string `json:"args"`
}

// Reply is the answer sent back to the run control.
type Reply struct {
	Msg string `json:"msg"`
	Err string `json:"err,omitempty"`
}

type server struct {
	conn net.Listener
	name string // command to supervise

	cmd *exec.Cmd
	buf *bytes.Buffer // stderr of the supervised command

	dir   string
	freq  time.Duration
	alert alerter
}

func newServer(name, addr, dir string, freq time.Duration) (*server, error) {
	conn, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("could not listen on %q: %w", addr, err)
	}
	return &server{
		conn:  conn,
		name:  name,
		buf:   new(bytes.Buffer),
		dir:   dir,
		freq:  freq,
		alert: newAlerter(freq),
	}, nil
}

func (srv *server) serve() {
	defer srv.conn.Close()

	for {
		conn, err := srv.conn.Accept()
		if err != nil {
			log.Printf("could not accept connection: %+v", err)
			continue
		}
		go srv.handle(conn)
	}
}

func (srv *server) handle(conn net.Conn) {
	defer conn.Close()
	done := make(chan int)
	defer close(done)

	for {
		var req Request
		if err := json.NewDecoder(conn).Decode(&req); err != nil {
			log.Printf("could not decode command: %+v", err)
			return
		}

		switch req.Name {
		case "start":
			if err := srv.start(req.Args, done); err != nil {
				_ = json.NewEncoder(conn).Encode(Reply{Err: err.Error()})
				return
			}
			_ = json.NewEncoder(conn).Encode(Reply{Msg: "ok"})

		case "stop":
			if err := srv.stop(); err != nil {
				_ = json.NewEncoder(conn).Encode(Reply{Err: err.Error()})
				return
			}
			_ = json.NewEncoder(conn).Encode(Reply{Msg: "ok"})
			return

		default:
			log.Printf("unknown command %q", req.Name)
			_ = json.NewEncoder(conn).Encode(Reply{Err: "unknown command"})
		}
	}
}

func (srv *server) start(args []string, done chan int) error {
	log.Printf("starting command... %s %v", srv.name, args)
	srv.buf.Reset()
	srv.cmd = exec.Command(srv.name, args...)
	srv.cmd.Stdout = os.Stdout
	srv.cmd.Stderr = io.MultiWriter(os.Stderr, srv.buf)

	if err := srv.cmd.Start(); err != nil {
		log.Printf("could not start %s %s: %+v",
			srv.cmd.Path, strings.Join(srv.cmd.Args, " "), err,
		)
		return err
	}
	if err := srv.waitReady(10 * time.Second); err != nil {
		_ = srv.cmd.Process.Kill()
		log.Printf("command not in proper state: %+v", err)
		return err
	}
	log.Printf("starting command... [done]")

	go srv.monitor(runFrom(args), done)
	return nil
}

func (srv *server) stop() error {
	log.Printf("stopping command...")
	// make sure the process is eventually reaped by PID-1
	go func() { _ = srv.cmd.Wait() }()
	if err := srv.cmd.Process.Signal(os.Interrupt); err != nil {
		log.Printf("could not stop %s %s: %+v",
			srv.cmd.Path, strings.Join(srv.cmd.Args, " "), err,
		)
		return err
	}
	log.Printf("stopping command... [done]")
	return nil
}

// waitReady polls the supervised command's stderr until the
// acquisition-started marker shows up.
func (srv *server) waitReady(timeout time.Duration) error {
	var (
		deadline = time.Now().Add(timeout)
		tick     = time.NewTicker(1 * time.Second)
	)
	defer tick.Stop()

	for range tick.C {
		if bytes.Contains(srv.buf.Bytes(), []byte("acquisition started")) {
			return nil
		}
		if time.Now().After(deadline) {
			break
		}
	}
	return fmt.Errorf("could not assess command status before timeout (%v)", timeout)
}

// runFrom extracts the run number from a dgtz-daq argument list.
func runFrom(args []string) string {
	for i, arg := range args {
		switch {
		case strings.HasPrefix(arg, "-run="):
			return strings.TrimPrefix(arg, "-run=")
		case arg == "-run" && i+1 < len(args):
			return args[i+1]
		}
	}
	return ""
}

// monitor watches the run files of the given run until quit is closed
// and alerts on files that stopped growing.
func (srv *server) monitor(run string, quit chan int) {
	tick := time.NewTicker(srv.freq)
	defer tick.Stop()

	last := make(map[string]int64)
	for {
		select {
		case <-quit:
			return
		case <-tick.C:
			last = srv.scan(run, last)
		}
	}
}

// scan stats the run files, compares them against the previous pass
// and returns the new size table.
func (srv *server) scan(run string, last map[string]int64) map[string]int64 {
	glob := filepath.Join(srv.dir, "dgtz_*"+run+"*json")
	files, err := filepath.Glob(glob)
	if err != nil {
		log.Printf("could not glob %q: %+v", glob, err)
		return last
	}

	cur := make(map[string]int64, len(files))
	for _, fname := range files {
		fi, err := os.Stat(fname)
		if err != nil {
			log.Printf("could not stat %q: %+v", fname, err)
			continue
		}
		cur[fname] = fi.Size()
		if size, ok := last[fname]; ok && size == fi.Size() {
			// file didn't grow since the previous pass.
			srv.alert.raise(fname, size)
		}
	}
	return cur
}

// alerter throttles and fans out file alerts over mail and SMS.
type alerter struct {
	freq  time.Duration
	count map[string]int

	mailUsr  string
	mailPwd  string
	mailSrv  string
	mailPort int
	mailTgts []string

	smsEndPoint string
}

func newAlerter(freq time.Duration) alerter {
	return alerter{
		freq:        freq,
		count:       make(map[string]int),
		mailUsr:     os.Getenv("MAIL_USERNAME"),
		mailPwd:     os.Getenv("MAIL_PASSWORD"),
		mailSrv:     os.Getenv("MAIL_SERVER"),
		mailPort:    atoi(os.Getenv("MAIL_PORT")),
		mailTgts:    strings.Split(os.Getenv("MAIL_TGTS"), ","),
		smsEndPoint: os.Getenv("SMS_ENDPOINT"),
	}
}

func (al *alerter) raise(fname string, size int64) {
	log.Printf("file %q didn't change in the last %v (size=%d bytes)",
		fname, al.freq, size,
	)
	al.count[fname]++

	const maxAlerts = 5
	if al.count[fname] >= maxAlerts {
		return
	}
	al.sendMail(fname, size)
	al.sendSMS(fname, size)
}

func (al *alerter) sendMail(fname string, size int64) {
	if al.mailUsr == "" || al.mailPwd == "" ||
		al.mailSrv == "" || al.mailPort == 0 ||
		len(al.mailTgts) == 0 {
		log.Printf("could not send mail alert: missing credentials")
		return
	}

	msg := mail.NewMessage()
	msg.SetHeader("From", al.mailUsr)
	msg.SetHeader("Bcc", al.mailTgts...)
	msg.SetHeader("Subject", fmt.Sprintf("[dgtz-ctl] file alert: %q", fname))
	msg.SetBody("text/plain", fmt.Sprintf("file: %q\nsize: %d bytes\nfreq: %v",
		fname, size, al.freq,
	))

	dial := mail.NewDialer(al.mailSrv, al.mailPort, al.mailUsr, al.mailPwd)
	dial.TLSConfig = &tls.Config{
		InsecureSkipVerify: true,
	}
	if err := dial.DialAndSend(msg); err != nil {
		log.Printf("could not send mail alert: %+v", err)
	}
}

func (al *alerter) sendSMS(fname string, size int64) {
	if al.smsEndPoint == "" {
		log.Printf("could not send sms alert: no end-point")
		return
	}

	var msg struct {
		Action string `json:"action"`
		Data   struct {
			All bool   `json:"all"`
			Msg string `json:"message"`
		}
	}
	msg.Action = "send"
	msg.Data.All = true
	msg.Data.Msg = fmt.Sprintf("[dgtz-ctl]: alert file=%q size=%d freq=%v",
		fname, size, al.freq,
	)

	data := new(bytes.Buffer)
	if err := json.NewEncoder(data).Encode(msg); err != nil {
		log.Printf("could not encode sms to json: %+v", err)
		return
	}
	resp, err := http.Post(al.smsEndPoint, "application/json", data)
	if err != nil {
		log.Printf("could not POST sms alert: %+v", err)
		return
	}
	defer resp.Body.Close()

	var status struct {
		Msg string `json:"status"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		log.Printf("could not decode sms reply: %+v", err)
		return
	}
	if status.Msg != "success" {
		log.Printf("could not send sms: status=%q", status.Msg)
	}
}

func atoi(s string) int {
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return v
}
